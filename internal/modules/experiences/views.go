package experiences

import (
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/sharedexperiences-backend/internal/domain"
	"github.com/yungbote/sharedexperiences-backend/internal/modules/similarity"
)

// ExperienceView is the public shape of a post. Identity hashes and the
// embedding never leave the server.
type ExperienceView struct {
	ID           uuid.UUID `json:"id"`
	Text         string    `json:"text"`
	Themes       []string  `json:"themes"`
	Sentiment    string    `json:"sentiment"`
	Summary      string    `json:"summary"`
	MeToos       int       `json:"meToos"`
	ClusterLabel string    `json:"clusterLabel,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	IsOwn        bool      `json:"isOwn"`
	Score        float64   `json:"score,omitempty"`
}

func NewExperienceView(e *types.Experience, sessionID string) ExperienceView {
	return ExperienceView{
		ID:           e.ID,
		Text:         e.Text,
		Themes:       e.ThemeList(),
		Sentiment:    e.Sentiment,
		Summary:      e.Summary,
		MeToos:       e.MeToos,
		ClusterLabel: e.ClusterLabel,
		CreatedAt:    e.CreatedAt,
		IsOwn:        sessionID != "" && e.SessionID == sessionID,
	}
}

func viewsOf(posts []*types.Experience, sessionID string) []ExperienceView {
	out := make([]ExperienceView, 0, len(posts))
	for _, p := range posts {
		if p != nil {
			out = append(out, NewExperienceView(p, sessionID))
		}
	}
	return out
}

func neighborViews(ns []similarity.Neighbor, sessionID string) []ExperienceView {
	out := make([]ExperienceView, 0, len(ns))
	for _, n := range ns {
		v := NewExperienceView(n.Experience, sessionID)
		v.Score = n.Score
		out = append(out, v)
	}
	return out
}

type CreateResult struct {
	Experience   ExperienceView   `json:"experience"`
	SimilarCount int              `json:"similarCount"`
	Examples     []ExperienceView `json:"examples"`
}

type SimilarResult struct {
	SimilarCount int              `json:"similarCount"`
	Examples     []ExperienceView `json:"examples"`
}

type TrendingTheme struct {
	Theme     string `json:"theme"`
	Count     int    `json:"count"`
	ClusterID string `json:"clusterId,omitempty"`
}

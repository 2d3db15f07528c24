package similarity

import (
	"context"
	"sort"

	"github.com/google/uuid"

	types "github.com/yungbote/sharedexperiences-backend/internal/domain"
)

const (
	DefaultEmbeddingPoolSize  = 300
	DefaultThemePoolSize      = 200
	DefaultEmbeddingThreshold = 0.75
	DefaultThemeThreshold     = 0.34
)

type Mode string

const (
	ModeEmbedding Mode = "embedding"
	ModeTheme     Mode = "theme"
)

// PoolRequest asks a CandidateSource for the newest posts other than ExcludeID.
type PoolRequest struct {
	ExcludeID        uuid.UUID
	Limit            int
	RequireEmbedding bool
}

// CandidateSource supplies the candidate pool, newest first.
type CandidateSource interface {
	Candidates(ctx context.Context, req PoolRequest) ([]*types.Experience, error)
}

type CandidateSourceFunc func(ctx context.Context, req PoolRequest) ([]*types.Experience, error)

func (f CandidateSourceFunc) Candidates(ctx context.Context, req PoolRequest) ([]*types.Experience, error) {
	return f(ctx, req)
}

type Neighbor struct {
	Experience *types.Experience
	Score      float64
}

// NeighborSet keeps every match so the total is reported independently of
// how many are displayed.
type NeighborSet struct {
	Mode         Mode
	Matches      []Neighbor
	SimilarCount int
}

// Examples returns at most n leading matches.
func (s NeighborSet) Examples(n int) []Neighbor {
	if n < 0 || n >= len(s.Matches) {
		return s.Matches
	}
	return s.Matches[:n]
}

type RetrieverConfig struct {
	EmbeddingPoolSize  int
	ThemePoolSize      int
	EmbeddingThreshold float64
	ThemeThreshold     float64
}

func (c RetrieverConfig) withDefaults() RetrieverConfig {
	if c.EmbeddingPoolSize <= 0 {
		c.EmbeddingPoolSize = DefaultEmbeddingPoolSize
	}
	if c.ThemePoolSize <= 0 {
		c.ThemePoolSize = DefaultThemePoolSize
	}
	if c.EmbeddingThreshold <= 0 {
		c.EmbeddingThreshold = DefaultEmbeddingThreshold
	}
	if c.ThemeThreshold <= 0 {
		c.ThemeThreshold = DefaultThemeThreshold
	}
	return c
}

type Retriever struct {
	cfg    RetrieverConfig
	source CandidateSource
}

func NewRetriever(cfg RetrieverConfig, source CandidateSource) *Retriever {
	return &Retriever{cfg: cfg.withDefaults(), source: source}
}

func (r *Retriever) Config() RetrieverConfig { return r.cfg }

// Query is the post neighbors are found for. Vector selects embedding mode
// when non-empty; otherwise Themes (or themes extracted from Text) are used.
type Query struct {
	ID     uuid.UUID
	Text   string
	Themes []string
	Vector []float32
}

func QueryFor(e *types.Experience) Query {
	return Query{ID: e.ID, Text: e.Text, Themes: e.ThemeList(), Vector: e.Vector()}
}

func (r *Retriever) Retrieve(ctx context.Context, q Query) (NeighborSet, error) {
	if len(q.Vector) > 0 {
		pool, err := r.source.Candidates(ctx, PoolRequest{ExcludeID: q.ID, Limit: r.cfg.EmbeddingPoolSize, RequireEmbedding: true})
		if err != nil {
			return NeighborSet{}, err
		}
		return RankByEmbedding(q.Vector, pool, r.cfg.EmbeddingThreshold), nil
	}
	pool, err := r.source.Candidates(ctx, PoolRequest{ExcludeID: q.ID, Limit: r.cfg.ThemePoolSize})
	if err != nil {
		return NeighborSet{}, err
	}
	return FilterByThemes(ThemesOf(q.Themes, q.Text), pool, r.cfg.ThemeThreshold), nil
}

// RankByEmbedding keeps candidates scoring at least threshold, best first.
// Equal scores keep pool order.
func RankByEmbedding(vec []float32, pool []*types.Experience, threshold float64) NeighborSet {
	matches := make([]Neighbor, 0)
	for _, e := range pool {
		if e == nil {
			continue
		}
		score := Cosine(vec, e.Vector())
		if score >= threshold {
			matches = append(matches, Neighbor{Experience: e, Score: score})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	return NeighborSet{Mode: ModeEmbedding, Matches: matches, SimilarCount: len(matches)}
}

// FilterByThemes keeps candidates whose Jaccard score reaches threshold, in
// pool order.
func FilterByThemes(themes []string, pool []*types.Experience, threshold float64) NeighborSet {
	matches := make([]Neighbor, 0)
	for _, e := range pool {
		if e == nil {
			continue
		}
		score := Jaccard(themes, ThemesOf(e.ThemeList(), e.Text))
		if score >= threshold {
			matches = append(matches, Neighbor{Experience: e, Score: score})
		}
	}
	return NeighborSet{Mode: ModeTheme, Matches: matches, SimilarCount: len(matches)}
}

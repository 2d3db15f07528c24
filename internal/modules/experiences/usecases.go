package experiences

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/sharedexperiences-backend/internal/data/graph"
	"github.com/yungbote/sharedexperiences-backend/internal/data/repos"
	types "github.com/yungbote/sharedexperiences-backend/internal/domain"
	"github.com/yungbote/sharedexperiences-backend/internal/modules/similarity"
	"github.com/yungbote/sharedexperiences-backend/internal/observability"
	"github.com/yungbote/sharedexperiences-backend/internal/platform/apierr"
	"github.com/yungbote/sharedexperiences-backend/internal/platform/ctxutil"
	"github.com/yungbote/sharedexperiences-backend/internal/platform/dbctx"
	"github.com/yungbote/sharedexperiences-backend/internal/platform/logger"
	"github.com/yungbote/sharedexperiences-backend/internal/services"
)

const (
	MaxWords = 1000

	createExamples  = 5
	similarExamples = 10
	similarityEdges = 10
	feedLimit       = 10
	feedClusterScan = 400
	trendingTopics  = 8
	trendingThemes  = 5
	trendingWindow  = 24 * time.Hour
)

// ClusterAssigner labels a fresh post with its best-fit cluster and serves
// cluster-scoped post lists.
type ClusterAssigner interface {
	AssignExperience(ctx context.Context, p *types.Experience) (string, error)
	ClusterPosts(ctx context.Context, clusterID uuid.UUID, scan, limit int) ([]*types.Experience, bool, error)
}

type UsecasesDeps struct {
	Log         *logger.Logger
	Experiences repos.ExperienceRepo
	Clusters    repos.ClusterRepo
	Text        services.TextService
	Mirror      graph.ExperienceMirror
	Assigner    ClusterAssigner
	Retriever   similarity.RetrieverConfig
	Now         func() time.Time
}

type Usecases struct {
	deps      UsecasesDeps
	log       *logger.Logger
	retriever *similarity.Retriever
}

func New(deps UsecasesDeps) Usecases {
	if deps.Mirror == nil {
		deps.Mirror = graph.NoopMirror{}
	}
	if deps.Text == nil {
		deps.Text = services.NewLocalTextService(deps.Log)
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	u := Usecases{deps: deps, log: deps.Log.With("service", "ExperienceUsecases")}
	u.retriever = similarity.NewRetriever(deps.Retriever, similarity.CandidateSourceFunc(u.candidates))
	return u
}

func (u Usecases) candidates(ctx context.Context, req similarity.PoolRequest) ([]*types.Experience, error) {
	return u.deps.Experiences.FindRecent(dbctx.New(ctx), repos.RecentQuery{
		Limit:            req.Limit,
		RequireEmbedding: req.RequireEmbedding,
		ExcludeID:        req.ExcludeID,
	})
}

// ValidateText enforces a non-blank post of at most MaxWords words.
func ValidateText(text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return apierr.BadRequest(apierr.CodeTextRequired, "Text is required")
	}
	if len(strings.Fields(trimmed)) > MaxWords {
		return apierr.BadRequest(apierr.CodeTextTooLong, fmt.Sprintf("Post exceeds %d-word limit", MaxWords))
	}
	return nil
}

type CreateInput struct {
	Text    string
	Session ctxutil.SessionData
}

func (u Usecases) Create(ctx context.Context, in CreateInput) (*CreateResult, error) {
	if err := ValidateText(in.Text); err != nil {
		return nil, err
	}
	ctx, span := observability.StartSpan(ctx, "experiences.create")
	defer span.End()

	var (
		cat *services.Categorization
		vec []float32
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cat, _ = u.deps.Text.Categorize(gctx, in.Text)
		return nil
	})
	g.Go(func() error {
		vec, _ = u.deps.Text.Embed(gctx, in.Text)
		return nil
	})
	_ = g.Wait()

	meta := services.LocalCategorize(in.Text).Merge(cat)
	post := &types.Experience{
		Text:            in.Text,
		Sentiment:       types.NormalizeSentiment(meta.Sentiment),
		Summary:         meta.Summary,
		SessionID:       in.Session.SessionID,
		IPHash:          in.Session.IPHash,
		FingerprintHash: in.Session.FingerprintHash,
	}
	post.SetThemes(meta.Themes)
	post.SetVector(vec)

	if _, err := u.deps.Experiences.Create(dbctx.New(ctx), []*types.Experience{post}); err != nil {
		return nil, apierr.New(http.StatusInternalServerError, apierr.CodeInternal, fmt.Errorf("create experience: %w", err))
	}
	if err := u.deps.Mirror.UpsertPost(ctx, post); err != nil {
		observability.Current().IncGraphMirrorError("upsert_post")
		u.log.Warn("graph mirror post failed", "experience_id", post.ID, "error", err)
	}

	set, err := u.retriever.Retrieve(ctx, similarity.QueryFor(post))
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, apierr.CodeInternal, fmt.Errorf("retrieve neighbors: %w", err))
	}
	observability.Current().ObserveNeighbors(string(set.Mode), set.SimilarCount)
	span.SetAttributes(attribute.String("neighbors.mode", string(set.Mode)), attribute.Int("neighbors.count", set.SimilarCount))

	if set.Mode == similarity.ModeEmbedding {
		u.mirrorEdges(ctx, post.ID, set.Examples(similarityEdges))
	}
	if u.deps.Assigner != nil {
		if _, err := u.deps.Assigner.AssignExperience(ctx, post); err != nil {
			u.log.Warn("cluster assignment failed", "experience_id", post.ID, "error", err)
		}
	}

	own := NewExperienceView(post, in.Session.SessionID)
	own.IsOwn = true
	return &CreateResult{
		Experience:   own,
		SimilarCount: set.SimilarCount,
		Examples:     neighborViews(set.Examples(createExamples), in.Session.SessionID),
	}, nil
}

func (u Usecases) mirrorEdges(ctx context.Context, id uuid.UUID, ns []similarity.Neighbor) {
	if !u.deps.Mirror.Enabled() || len(ns) == 0 {
		return
	}
	edges := make([]graph.SimilarEdge, 0, len(ns))
	for _, n := range ns {
		edges = append(edges, graph.SimilarEdge{TargetID: n.Experience.ID, Weight: n.Score})
	}
	if err := u.deps.Mirror.UpsertSimilarity(ctx, id, edges); err != nil {
		observability.Current().IncGraphMirrorError("upsert_similarity")
		u.log.Warn("graph mirror edges failed", "experience_id", id, "error", err)
	}
}

// Similar lists the neighbors of a stored post. SimilarCount is the full
// match count; Examples holds the first ten.
func (u Usecases) Similar(ctx context.Context, id uuid.UUID, sessionID string) (*SimilarResult, error) {
	ctx, span := observability.StartSpan(ctx, "experiences.similar")
	defer span.End()

	base, err := u.deps.Experiences.GetByID(dbctx.New(ctx), id)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, apierr.CodeInternal, fmt.Errorf("load experience: %w", err))
	}
	if base == nil {
		return nil, apierr.NotFound("Not found")
	}
	set, err := u.retriever.Retrieve(ctx, similarity.QueryFor(base))
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, apierr.CodeInternal, fmt.Errorf("retrieve neighbors: %w", err))
	}
	observability.Current().ObserveNeighbors(string(set.Mode), set.SimilarCount)
	return &SimilarResult{
		SimilarCount: set.SimilarCount,
		Examples:     neighborViews(set.Examples(similarExamples), sessionID),
	}, nil
}

type FeedQuery struct {
	Theme          string
	ClusterID      uuid.UUID
	GraphSimilarTo uuid.UUID
	SessionID      string
}

// Feed serves graph neighbors, a cluster's nearest posts or the most
// me-too'd posts, in that order of precedence. An unknown cluster falls
// through to the me-too feed.
func (u Usecases) Feed(ctx context.Context, q FeedQuery) ([]ExperienceView, error) {
	dbc := dbctx.New(ctx)
	if q.GraphSimilarTo != uuid.Nil {
		ids, err := u.deps.Mirror.SimilarTo(ctx, q.GraphSimilarTo, feedLimit)
		if err != nil {
			observability.Current().IncGraphMirrorError("similar_to")
			u.log.Warn("graph neighbors failed", "experience_id", q.GraphSimilarTo, "error", err)
			return []ExperienceView{}, nil
		}
		posts, err := u.deps.Experiences.GetByIDs(dbc, ids)
		if err != nil {
			return nil, apierr.New(http.StatusInternalServerError, apierr.CodeInternal, fmt.Errorf("load graph neighbors: %w", err))
		}
		return viewsOf(posts, q.SessionID), nil
	}
	if q.ClusterID != uuid.Nil && u.deps.Assigner != nil {
		posts, found, err := u.deps.Assigner.ClusterPosts(ctx, q.ClusterID, feedClusterScan, feedLimit)
		if err != nil {
			return nil, apierr.New(http.StatusInternalServerError, apierr.CodeInternal, err)
		}
		if found {
			return viewsOf(posts, q.SessionID), nil
		}
	}
	posts, err := u.deps.Experiences.TopByMeToos(dbc, q.Theme, feedLimit)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, apierr.CodeInternal, fmt.Errorf("load feed: %w", err))
	}
	return viewsOf(posts, q.SessionID), nil
}

// Trending reports the largest clusters, or the most frequent themes of the
// last day when no clusters exist.
func (u Usecases) Trending(ctx context.Context) ([]TrendingTheme, error) {
	dbc := dbctx.New(ctx)
	clusters, err := u.deps.Clusters.TopBySize(dbc, trendingTopics)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, apierr.CodeInternal, fmt.Errorf("load clusters: %w", err))
	}
	if len(clusters) > 0 {
		out := make([]TrendingTheme, 0, len(clusters))
		for _, c := range clusters {
			label := c.Label
			if label == "" {
				label = "topic"
			}
			out = append(out, TrendingTheme{Theme: label, Count: c.Size, ClusterID: c.ID.String()})
		}
		return out, nil
	}

	recent, err := u.deps.Experiences.FindRecent(dbc, repos.RecentQuery{Since: u.deps.Now().Add(-trendingWindow)})
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, apierr.CodeInternal, fmt.Errorf("load recent posts: %w", err))
	}
	return ThemeCounts(recent, trendingThemes), nil
}

// ThemeCounts tallies themes (extracted when a post has none) and returns the
// n most frequent. Ties keep first-seen order.
func ThemeCounts(posts []*types.Experience, n int) []TrendingTheme {
	counts := map[string]int{}
	order := []string{}
	for _, p := range posts {
		if p == nil {
			continue
		}
		for _, t := range similarity.ThemesOf(p.ThemeList(), p.Text) {
			if _, seen := counts[t]; !seen {
				order = append(order, t)
			}
			counts[t]++
		}
	}
	out := make([]TrendingTheme, 0, len(order))
	for _, t := range order {
		out = append(out, TrendingTheme{Theme: t, Count: counts[t]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

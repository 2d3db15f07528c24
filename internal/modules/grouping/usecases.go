package grouping

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/sharedexperiences-backend/internal/data/repos"
	types "github.com/yungbote/sharedexperiences-backend/internal/domain"
	"github.com/yungbote/sharedexperiences-backend/internal/modules/similarity"
	"github.com/yungbote/sharedexperiences-backend/internal/observability"
	"github.com/yungbote/sharedexperiences-backend/internal/platform/dbctx"
	"github.com/yungbote/sharedexperiences-backend/internal/platform/logger"
)

const (
	DefaultPoolSize    = 200
	DefaultClusterScan = 600
	DefaultClusterPool = 120
	DefaultMaxGroups   = 10
)

// ClusterPool returns the posts nearest a stored cluster's centroid.
type ClusterPool interface {
	ClusterPosts(ctx context.Context, clusterID uuid.UUID, scan, limit int) ([]*types.Experience, bool, error)
}

type Config struct {
	PoolSize       int
	ClusterScan    int
	ClusterPool    int
	MaxGroups      int
	ThemeThreshold float64
}

func (c Config) withDefaults() Config {
	if c.PoolSize <= 0 {
		c.PoolSize = DefaultPoolSize
	}
	if c.ClusterScan <= 0 {
		c.ClusterScan = DefaultClusterScan
	}
	if c.ClusterPool <= 0 {
		c.ClusterPool = DefaultClusterPool
	}
	if c.MaxGroups <= 0 {
		c.MaxGroups = DefaultMaxGroups
	}
	if c.ThemeThreshold <= 0 {
		c.ThemeThreshold = similarity.DefaultThemeThreshold
	}
	return c
}

type UsecasesDeps struct {
	Log         *logger.Logger
	Experiences repos.ExperienceRepo
	Clusters    ClusterPool
	Cache       *SummaryCache
	Config      Config
}

type Usecases struct {
	deps UsecasesDeps
	cfg  Config
}

func New(deps UsecasesDeps) Usecases {
	return Usecases{deps: deps, cfg: deps.Config.withDefaults()}
}

type GroupedQuery struct {
	Theme     string
	ClusterID uuid.UUID
}

type GroupSummaryView struct {
	Summary string `json:"summary"`
	Count   int    `json:"count"`
}

// GroupedSummaries buckets a candidate pool and summarizes every group of at
// least two posts, largest first.
func (u Usecases) GroupedSummaries(ctx context.Context, q GroupedQuery) ([]GroupSummaryView, error) {
	ctx, span := observability.StartSpan(ctx, "grouping.grouped_summaries",
		attribute.String("group.theme", q.Theme),
		attribute.Bool("group.cluster", q.ClusterID != uuid.Nil),
	)
	defer span.End()

	pool, err := u.pool(ctx, q)
	if err != nil {
		return nil, err
	}
	out := []GroupSummaryView{}
	if len(pool) == 0 {
		return out, nil
	}

	groups := similarity.Groups(pool, u.cfg.ThemeThreshold)
	span.SetAttributes(attribute.Int("group.pool", len(pool)), attribute.Int("group.groups", len(groups)))
	for _, g := range groups {
		summary, err := u.deps.Cache.Summarize(ctx, g)
		if err != nil {
			return nil, err
		}
		out = append(out, GroupSummaryView{Summary: summary, Count: g.Size()})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if len(out) > u.cfg.MaxGroups {
		out = out[:u.cfg.MaxGroups]
	}
	return out, nil
}

func (u Usecases) pool(ctx context.Context, q GroupedQuery) ([]*types.Experience, error) {
	if q.ClusterID != uuid.Nil {
		posts, _, err := u.deps.Clusters.ClusterPosts(ctx, q.ClusterID, u.cfg.ClusterScan, u.cfg.ClusterPool)
		return posts, err
	}
	posts, err := u.deps.Experiences.FindRecent(dbctx.New(ctx), repos.RecentQuery{Limit: u.cfg.PoolSize, Theme: q.Theme})
	if err != nil {
		return nil, fmt.Errorf("load grouping pool: %w", err)
	}
	return posts, nil
}

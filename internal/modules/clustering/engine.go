package clustering

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/yungbote/sharedexperiences-backend/internal/data/repos"
	types "github.com/yungbote/sharedexperiences-backend/internal/domain"
	"github.com/yungbote/sharedexperiences-backend/internal/modules/similarity"
	"github.com/yungbote/sharedexperiences-backend/internal/observability"
	"github.com/yungbote/sharedexperiences-backend/internal/platform/apierr"
	"github.com/yungbote/sharedexperiences-backend/internal/platform/dbctx"
	"github.com/yungbote/sharedexperiences-backend/internal/platform/logger"
	"github.com/yungbote/sharedexperiences-backend/internal/platform/redislock"
	"github.com/yungbote/sharedexperiences-backend/internal/services"
)

const (
	DefaultWindow          = 24 * time.Hour
	DefaultMaxPool         = 800
	DefaultK               = 8
	DefaultAssignThreshold = 0.70

	exemplarTexts = 5
	sampleIDs     = 10
	lockKey       = "recluster"
	lockTTL       = 2 * time.Minute
)

type Config struct {
	Window          time.Duration
	MaxPool         int
	K               int
	AssignThreshold float64
}

func (c Config) withDefaults() Config {
	if c.Window <= 0 {
		c.Window = DefaultWindow
	}
	if c.MaxPool <= 0 {
		c.MaxPool = DefaultMaxPool
	}
	if c.K <= 0 {
		c.K = DefaultK
	}
	if c.AssignThreshold <= 0 {
		c.AssignThreshold = DefaultAssignThreshold
	}
	return c
}

type EngineDeps struct {
	Log         *logger.Logger
	Experiences repos.ExperienceRepo
	Clusters    repos.ClusterRepo
	Tx          repos.TxRunner
	// Locker serializes runs across processes; nil runs unlocked.
	Locker redislock.Locker
	Text   services.TextService
	Config Config
	// Now is overridable in tests.
	Now func() time.Time
}

type Engine struct {
	deps EngineDeps
	cfg  Config
	log  *logger.Logger
}

func NewEngine(deps EngineDeps) (*Engine, error) {
	if deps.Log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if deps.Experiences == nil || deps.Clusters == nil || deps.Tx == nil {
		return nil, fmt.Errorf("experience repo, cluster repo and tx runner required")
	}
	if deps.Text == nil {
		deps.Text = services.NewLocalTextService(deps.Log)
	}
	if deps.Locker == nil {
		deps.Locker = redislock.Noop{}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Engine{deps: deps, cfg: deps.Config.withDefaults(), log: deps.Log.With("service", "ClusterEngine")}, nil
}

func (e *Engine) Config() Config { return e.cfg }

// Result is empty, with Replaced false, when the window holds fewer
// embedded posts than k.
type Result struct {
	Clusters []*types.Cluster
	Replaced bool
}

// Recluster recomputes the topic clusters over recent embedded posts and
// replaces the stored set in one transaction. k <= 0 uses the configured k.
// The prior set is left untouched on any failure.
func (e *Engine) Recluster(ctx context.Context, k int) (res Result, err error) {
	if k <= 0 {
		k = e.cfg.K
	}
	started := time.Now()
	ctx, span := observability.StartSpan(ctx, "clustering.recluster", attribute.Int("cluster.k", k))
	defer func() {
		status := "ok"
		switch {
		case err != nil:
			status = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		case !res.Replaced:
			status = "skipped"
		}
		span.SetAttributes(attribute.Int("cluster.count", len(res.Clusters)), attribute.String("cluster.status", status))
		span.End()
		observability.Current().ObserveRecluster(status, len(res.Clusters), time.Since(started))
	}()

	release, err := e.deps.Locker.Acquire(ctx, lockKey, lockTTL)
	if err != nil {
		if errors.Is(err, redislock.ErrNotAcquired) {
			return Result{}, apierr.New(http.StatusConflict, apierr.CodeReclusterInProgress, err)
		}
		return Result{}, fmt.Errorf("acquire recluster lock: %w", err)
	}
	defer release()

	posts, err := e.deps.Experiences.FindRecent(dbctx.New(ctx), repos.RecentQuery{
		Since:            e.deps.Now().Add(-e.cfg.Window),
		Limit:            e.cfg.MaxPool,
		RequireEmbedding: true,
	})
	if err != nil {
		return Result{}, fmt.Errorf("load recent posts: %w", err)
	}
	posts, vecs := embedded(posts)
	if len(posts) < k {
		e.log.Info("recluster skipped", "embedded", len(posts), "k", k)
		return Result{Clusters: []*types.Cluster{}}, nil
	}

	rows := make([]*types.Cluster, 0, k)
	for _, kc := range kmeans(vecs, k) {
		if len(kc.Members) == 0 {
			continue
		}
		texts := make([]string, 0, exemplarTexts)
		ids := make([]uuid.UUID, 0, sampleIDs)
		for _, idx := range kc.Members {
			if len(texts) < exemplarTexts {
				texts = append(texts, posts[idx].Text)
			}
			if len(ids) < sampleIDs {
				ids = append(ids, posts[idx].ID)
			}
		}
		label, err := e.deps.Text.LabelCluster(ctx, texts)
		if err != nil {
			return Result{}, fmt.Errorf("label cluster: %w", err)
		}
		if label == "" {
			label = similarity.KeywordLabel(texts, 3)
		}
		row := &types.Cluster{Label: label, Size: len(kc.Members)}
		row.SetCentroid(kc.Centroid)
		row.SetSamples(ids)
		rows = append(rows, row)
	}

	var stored []*types.Cluster
	err = e.deps.Tx.InTx(ctx, func(dbc dbctx.Context) error {
		var txErr error
		stored, txErr = e.deps.Clusters.ReplaceAll(dbc, rows)
		return txErr
	})
	if err != nil {
		return Result{}, fmt.Errorf("replace clusters: %w", err)
	}
	e.log.Info("recluster complete", "posts", len(posts), "k", k, "clusters", len(stored))
	return Result{Clusters: stored, Replaced: true}, nil
}

// embedded keeps posts carrying a vector of the dominant dimension, which is
// the dimension of the newest embedded post.
func embedded(posts []*types.Experience) ([]*types.Experience, [][]float32) {
	keptPosts := make([]*types.Experience, 0, len(posts))
	vecs := make([][]float32, 0, len(posts))
	dim := 0
	for _, p := range posts {
		if p == nil {
			continue
		}
		v := p.Vector()
		if len(v) == 0 {
			continue
		}
		if dim == 0 {
			dim = len(v)
		}
		if len(v) != dim {
			continue
		}
		keptPosts = append(keptPosts, p)
		vecs = append(vecs, v)
	}
	return keptPosts, vecs
}

// Assign returns the cluster whose centroid is most similar to vec. Ties go
// to the earlier cluster. ok is false when the best score is below threshold.
func Assign(vec []float32, clusters []*types.Cluster, threshold float64) (best *types.Cluster, score float64, ok bool) {
	if len(vec) == 0 {
		return nil, 0, false
	}
	score = -1
	for _, c := range clusters {
		if c == nil {
			continue
		}
		if s := similarity.Cosine(vec, c.CentroidVector()); s > score {
			score = s
			best = c
		}
	}
	if best == nil || score < threshold {
		return nil, score, false
	}
	return best, score, true
}

// AssignExperience labels p with its best-fit stored cluster. It returns the
// label, or "" when no cluster is close enough.
func (e *Engine) AssignExperience(ctx context.Context, p *types.Experience) (string, error) {
	if p == nil || !p.HasEmbedding() {
		return "", nil
	}
	clusters, err := e.deps.Clusters.GetAll(dbctx.New(ctx))
	if err != nil {
		return "", fmt.Errorf("load clusters: %w", err)
	}
	best, score, ok := Assign(p.Vector(), clusters, e.cfg.AssignThreshold)
	if !ok {
		return "", nil
	}
	if err := e.deps.Experiences.UpdateFields(dbctx.New(ctx), p.ID, map[string]interface{}{"cluster_label": best.Label}); err != nil {
		return "", fmt.Errorf("store cluster label: %w", err)
	}
	p.ClusterLabel = best.Label
	e.log.Debug("post assigned to cluster", "experience_id", p.ID, "cluster_id", best.ID, "score", score)
	return best.Label, nil
}

// NearestToCentroid ranks posts by cosine to centroid, best first, and keeps
// at most limit. Posts without a vector are skipped.
func NearestToCentroid(centroid []float32, posts []*types.Experience, limit int) []*types.Experience {
	type scored struct {
		p *types.Experience
		s float64
	}
	sc := make([]scored, 0, len(posts))
	for _, p := range posts {
		if p == nil {
			continue
		}
		v := p.Vector()
		if len(v) == 0 {
			continue
		}
		sc = append(sc, scored{p: p, s: similarity.Cosine(v, centroid)})
	}
	sort.SliceStable(sc, func(i, j int) bool { return sc[i].s > sc[j].s })
	if limit > 0 && len(sc) > limit {
		sc = sc[:limit]
	}
	out := make([]*types.Experience, len(sc))
	for i := range sc {
		out[i] = sc[i].p
	}
	return out
}

// ClusterPosts loads the cluster and returns the limit posts nearest its
// centroid among the scan newest embedded posts. found is false when the
// cluster does not exist.
func (e *Engine) ClusterPosts(ctx context.Context, clusterID uuid.UUID, scan, limit int) (posts []*types.Experience, found bool, err error) {
	cl, err := e.deps.Clusters.GetByID(dbctx.New(ctx), clusterID)
	if err != nil {
		return nil, false, fmt.Errorf("load cluster: %w", err)
	}
	if cl == nil {
		return []*types.Experience{}, false, nil
	}
	recent, err := e.deps.Experiences.FindRecent(dbctx.New(ctx), repos.RecentQuery{Limit: scan, RequireEmbedding: true})
	if err != nil {
		return nil, true, fmt.Errorf("load recent posts: %w", err)
	}
	return NearestToCentroid(cl.CentroidVector(), recent, limit), true, nil
}

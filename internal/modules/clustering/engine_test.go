package clustering

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/yungbote/sharedexperiences-backend/internal/data/repos"
	"github.com/yungbote/sharedexperiences-backend/internal/data/repos/testutil"
	types "github.com/yungbote/sharedexperiences-backend/internal/domain"
	"github.com/yungbote/sharedexperiences-backend/internal/platform/apierr"
	"github.com/yungbote/sharedexperiences-backend/internal/platform/dbctx"
	"github.com/yungbote/sharedexperiences-backend/internal/platform/redislock"
	"github.com/yungbote/sharedexperiences-backend/internal/services"
)

var fixedNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

type failingClusters struct {
	repos.ClusterRepo
}

func (f failingClusters) ReplaceAll(dbc dbctx.Context, rows []*types.Cluster) ([]*types.Cluster, error) {
	if _, err := f.ClusterRepo.ReplaceAll(dbc, rows); err != nil {
		return nil, err
	}
	return nil, errors.New("write failed")
}

type cancelledLabels struct {
	services.TextService
}

func (cancelledLabels) LabelCluster(context.Context, []string) (string, error) {
	return "", context.Canceled
}

type busyLocker struct{}

func (busyLocker) Acquire(context.Context, string, time.Duration) (func(), error) {
	return nil, redislock.ErrNotAcquired
}

type fixture struct {
	rs     repos.Repos
	engine *Engine
}

func newFixture(t *testing.T, mutate func(*EngineDeps)) fixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	rs := repos.New(db, log)
	deps := EngineDeps{
		Log:         log,
		Experiences: rs.Experience,
		Clusters:    rs.Cluster,
		Tx:          rs.Tx,
		Text:        services.NewLocalTextService(log),
		Config:      Config{K: 2},
		Now:         func() time.Time { return fixedNow },
	}
	if mutate != nil {
		mutate(&deps)
	}
	engine, err := NewEngine(deps)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return fixture{rs: rs, engine: engine}
}

func seedCorpus(t *testing.T, f fixture) {
	t.Helper()
	ctx := context.Background()
	posts := []struct {
		text string
		vec  []float32
	}{
		{"hiking mountains alone at sunrise", []float32{1, 0}},
		{"hiking mountains with friends", []float32{0.95, 0.05}},
		{"coding late nights debugging servers", []float32{0, 1}},
		{"coding bootcamp debugging frustration", []float32{0.05, 0.95}},
	}
	for i, p := range posts {
		e := &types.Experience{Text: p.text, Sentiment: types.SentimentNeutral}
		e.SetVector(p.vec)
		e.CreatedAt = fixedNow.Add(-time.Duration(i+1) * time.Hour)
		if _, err := f.rs.Experience.Create(dbctx.New(ctx), []*types.Experience{e}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	stale := &types.Experience{Text: "old hiking story", Sentiment: types.SentimentNeutral}
	stale.SetVector([]float32{1, 0})
	stale.CreatedAt = fixedNow.Add(-48 * time.Hour)
	if _, err := f.rs.Experience.Create(dbctx.New(ctx), []*types.Experience{stale}); err != nil {
		t.Fatalf("seed stale: %v", err)
	}
}

func seedPrior(t *testing.T, f fixture) {
	t.Helper()
	prior := &types.Cluster{Label: "prior", Size: 9}
	prior.SetCentroid([]float32{1, 0})
	if _, err := f.rs.Cluster.ReplaceAll(dbctx.New(context.Background()), []*types.Cluster{prior}); err != nil {
		t.Fatalf("seed prior: %v", err)
	}
}

func storedLabels(t *testing.T, f fixture) []string {
	t.Helper()
	all, err := f.rs.Cluster.GetAll(dbctx.New(context.Background()))
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	out := make([]string, 0, len(all))
	for _, c := range all {
		out = append(out, c.Label)
	}
	return out
}

func TestReclusterReplacesClusterSet(t *testing.T) {
	f := newFixture(t, nil)
	seedCorpus(t, f)
	seedPrior(t, f)

	res, err := f.engine.Recluster(context.Background(), 0)
	if err != nil {
		t.Fatalf("Recluster: %v", err)
	}
	if !res.Replaced || len(res.Clusters) != 2 {
		t.Fatalf("result: want 2 replaced clusters got=%+v", res)
	}
	for _, c := range res.Clusters {
		if c.Size != 2 {
			t.Fatalf("cluster %q size: want=2 got=%d", c.Label, c.Size)
		}
		if len(c.Samples()) != 2 || c.Label == "" {
			t.Fatalf("cluster missing samples or label: %+v", c)
		}
	}
	labels := storedLabels(t, f)
	if len(labels) != 2 {
		t.Fatalf("stored clusters: want=2 got=%v", labels)
	}
	for _, l := range labels {
		if l == "prior" {
			t.Fatalf("prior cluster survived replace")
		}
	}
}

func TestReclusterBelowKLeavesPriorSet(t *testing.T) {
	f := newFixture(t, nil)
	seedCorpus(t, f)
	seedPrior(t, f)

	res, err := f.engine.Recluster(context.Background(), 5)
	if err != nil {
		t.Fatalf("Recluster: %v", err)
	}
	if res.Replaced || len(res.Clusters) != 0 {
		t.Fatalf("want empty result got=%+v", res)
	}
	if labels := storedLabels(t, f); len(labels) != 1 || labels[0] != "prior" {
		t.Fatalf("prior set changed: %v", labels)
	}
}

func TestReclusterSkipsEmptyClusters(t *testing.T) {
	f := newFixture(t, nil)
	seedPrior(t, f)
	ctx := context.Background()
	for i, text := range []string{"rainy commute again", "rainy commute today", "rainy commute forever"} {
		e := &types.Experience{Text: text, Sentiment: types.SentimentNeutral}
		e.SetVector([]float32{1, 0})
		e.CreatedAt = fixedNow.Add(-time.Duration(i+1) * time.Minute)
		if _, err := f.rs.Experience.Create(dbctx.New(ctx), []*types.Experience{e}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	res, err := f.engine.Recluster(ctx, 3)
	if err != nil {
		t.Fatalf("Recluster: %v", err)
	}
	if !res.Replaced || len(res.Clusters) != 1 {
		t.Fatalf("result: want one replaced cluster got=%+v", res)
	}
	if res.Clusters[0].Size != 3 || len(res.Clusters[0].Samples()) != 3 {
		t.Fatalf("cluster: want size=3 samples=3 got size=%d samples=%d", res.Clusters[0].Size, len(res.Clusters[0].Samples()))
	}
	labels := storedLabels(t, f)
	if len(labels) != 1 || labels[0] == "prior" {
		t.Fatalf("stored clusters: want one new cluster got=%v", labels)
	}
}

func TestReclusterFailureKeepsPriorSet(t *testing.T) {
	f := newFixture(t, func(d *EngineDeps) { d.Clusters = failingClusters{ClusterRepo: d.Clusters} })
	seedCorpus(t, f)
	seedPrior(t, f)

	if _, err := f.engine.Recluster(context.Background(), 2); err == nil {
		t.Fatalf("expected error")
	}
	if labels := storedLabels(t, f); len(labels) != 1 || labels[0] != "prior" {
		t.Fatalf("prior set changed: %v", labels)
	}
}

func TestReclusterCancelledLabelKeepsPriorSet(t *testing.T) {
	f := newFixture(t, func(d *EngineDeps) { d.Text = cancelledLabels{TextService: d.Text} })
	seedCorpus(t, f)
	seedPrior(t, f)

	if _, err := f.engine.Recluster(context.Background(), 2); !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled got=%v", err)
	}
	if labels := storedLabels(t, f); len(labels) != 1 || labels[0] != "prior" {
		t.Fatalf("prior set changed: %v", labels)
	}
}

func TestReclusterLockHeld(t *testing.T) {
	f := newFixture(t, func(d *EngineDeps) { d.Locker = busyLocker{} })
	_, err := f.engine.Recluster(context.Background(), 2)
	ae, ok := apierr.As(err)
	if !ok || ae.Status != http.StatusConflict || ae.Code != apierr.CodeReclusterInProgress {
		t.Fatalf("want 409 recluster_in_progress got=%v", err)
	}
}

func clusterAt(label string, vec []float32) *types.Cluster {
	c := &types.Cluster{Label: label}
	c.SetCentroid(vec)
	return c
}

func TestAssignThreshold(t *testing.T) {
	// Unit vectors at cosine 0.72 and 0.71 to the query.
	a := clusterAt("a", []float32{0.72, 0.6939741})
	b := clusterAt("b", []float32{0.71, 0.7042017})
	best, score, ok := Assign([]float32{1, 0}, []*types.Cluster{a, b}, DefaultAssignThreshold)
	if !ok || best.Label != "a" {
		t.Fatalf("want cluster a got=%v score=%v ok=%v", best, score, ok)
	}

	c := clusterAt("c", []float32{0.65, 0.7599342})
	d := clusterAt("d", []float32{0.60, 0.8})
	if best, score, ok := Assign([]float32{1, 0}, []*types.Cluster{c, d}, DefaultAssignThreshold); ok {
		t.Fatalf("want no assignment got=%v score=%v", best, score)
	}
}

func TestAssignTieKeepsFirst(t *testing.T) {
	first := clusterAt("first", []float32{1, 0})
	second := clusterAt("second", []float32{2, 0})
	best, _, ok := Assign([]float32{1, 0}, []*types.Cluster{first, second}, DefaultAssignThreshold)
	if !ok || best.Label != "first" {
		t.Fatalf("tie: want first got=%v", best)
	}
	if _, _, ok := Assign(nil, []*types.Cluster{first}, 0.1); ok {
		t.Fatalf("empty vector must not assign")
	}
}

func TestAssignExperienceStoresLabel(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	seedPrior(t, f)

	p := &types.Experience{Text: "up a mountain", Sentiment: types.SentimentNeutral}
	p.SetVector([]float32{0.9, 0.1})
	if _, err := f.rs.Experience.Create(dbctx.New(ctx), []*types.Experience{p}); err != nil {
		t.Fatalf("create: %v", err)
	}
	label, err := f.engine.AssignExperience(ctx, p)
	if err != nil || label != "prior" {
		t.Fatalf("AssignExperience: label=%q err=%v", label, err)
	}
	got, err := f.rs.Experience.GetByID(dbctx.New(ctx), p.ID)
	if err != nil || got == nil || got.ClusterLabel != "prior" {
		t.Fatalf("stored label: err=%v got=%v", err, got)
	}
}

func TestNearestToCentroid(t *testing.T) {
	mk := func(text string, vec []float32) *types.Experience {
		e := &types.Experience{Text: text}
		e.SetVector(vec)
		return e
	}
	posts := []*types.Experience{
		mk("far", []float32{0, 1}),
		mk("none", nil),
		mk("near", []float32{1, 0.1}),
		mk("mid", []float32{1, 1}),
	}
	got := NearestToCentroid([]float32{1, 0}, posts, 2)
	if len(got) != 2 || got[0].Text != "near" || got[1].Text != "mid" {
		t.Fatalf("NearestToCentroid: got=%v", got)
	}
}

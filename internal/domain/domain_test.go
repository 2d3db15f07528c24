package domain

import (
	"testing"

	"github.com/google/uuid"
)

func TestExperienceVectorRoundTrip(t *testing.T) {
	var e Experience
	if e.HasEmbedding() {
		t.Fatalf("zero experience should have no embedding")
	}
	e.SetVector([]float32{0.5, 0.25})
	v := e.Vector()
	if len(v) != 2 || v[0] != 0.5 || v[1] != 0.25 {
		t.Fatalf("vector: got=%v", v)
	}
	e.SetVector(nil)
	if e.Embedding != nil || e.HasEmbedding() {
		t.Fatalf("empty vector should clear the column")
	}
}

func TestExperienceThemesDefaultToEmptyArray(t *testing.T) {
	var e Experience
	e.SetThemes(nil)
	if string(e.Themes) != "[]" {
		t.Fatalf("themes json: got=%s", e.Themes)
	}
	e.SetThemes([]string{"hiking", "weekend"})
	if got := e.ThemeList(); len(got) != 2 || got[0] != "hiking" {
		t.Fatalf("themes: got=%v", got)
	}
}

func TestClusterSamplesSkipGarbage(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	var c Cluster
	c.SetSamples([]uuid.UUID{a, b})
	got := c.Samples()
	if len(got) != 2 || got[0] != a || got[1] != b {
		t.Fatalf("samples: got=%v", got)
	}
	c.SampleIDs = []byte(`["not-a-uuid"]`)
	if len(c.Samples()) != 0 {
		t.Fatalf("garbage ids should be dropped")
	}
}

func TestNormalizeSentiment(t *testing.T) {
	if NormalizeSentiment("ecstatic") != SentimentNeutral {
		t.Fatalf("unknown label should map to neutral")
	}
	if NormalizeSentiment(SentimentNegative) != SentimentNegative {
		t.Fatalf("known label should pass through")
	}
}

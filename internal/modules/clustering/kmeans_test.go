package clustering

import (
	"math"
	"testing"
)

func TestKMeansSeparatesDirections(t *testing.T) {
	vecs := [][]float32{
		{1, 0, 0}, {0.9, 0.1, 0}, {0, 1, 0}, {0.1, 0.95, 0}, {0, 0, 1}, {0, 0.05, 0.9},
	}
	clusters := kmeans(vecs, 3)
	if len(clusters) != 3 {
		t.Fatalf("clusters: want=3 got=%d", len(clusters))
	}
	owner := map[int]int{}
	for c, kc := range clusters {
		for _, m := range kc.Members {
			owner[m] = c
		}
	}
	for _, pair := range [][2]int{{0, 1}, {2, 3}, {4, 5}} {
		if owner[pair[0]] != owner[pair[1]] {
			t.Fatalf("vectors %d and %d split: owners=%v", pair[0], pair[1], owner)
		}
	}
	if owner[0] == owner[2] || owner[2] == owner[4] {
		t.Fatalf("distinct directions merged: owners=%v", owner)
	}
}

func TestKMeansDeterministic(t *testing.T) {
	vecs := [][]float32{{1, 0}, {0.8, 0.2}, {0, 1}, {0.3, 0.7}, {0.5, 0.5}}
	a := kmeans(vecs, 2)
	b := kmeans(vecs, 2)
	for i := range a {
		if len(a[i].Members) != len(b[i].Members) {
			t.Fatalf("cluster %d differs between runs", i)
		}
		for j := range a[i].Members {
			if a[i].Members[j] != b[i].Members[j] {
				t.Fatalf("cluster %d differs between runs", i)
			}
		}
	}
}

func TestKMeansDuplicatesLeaveEmptyCluster(t *testing.T) {
	vecs := [][]float32{{1, 0}, {1, 0}, {1, 0}}
	clusters := kmeans(vecs, 2)
	empty := 0
	for _, c := range clusters {
		if len(c.Members) == 0 {
			empty++
		}
	}
	if len(clusters) != 2 || empty != 1 {
		t.Fatalf("want one empty of two clusters: got=%d empty=%d", len(clusters), empty)
	}
}

func TestNormalizeUnit(t *testing.T) {
	v := normalizeUnit([]float32{3, 4})
	if math.Abs(float64(v[0])-0.6) > 1e-6 || math.Abs(float64(v[1])-0.8) > 1e-6 {
		t.Fatalf("normalizeUnit: got=%v", v)
	}
	if z := normalizeUnit([]float32{0, 0}); z[0] != 0 || z[1] != 0 {
		t.Fatalf("zero vector changed: %v", z)
	}
}

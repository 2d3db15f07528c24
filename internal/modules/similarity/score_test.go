package similarity

import (
	"math"
	"testing"
)

func almost(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestCosine(t *testing.T) {
	pairs := [][2][]float32{
		{{1, 2, 3}, {3, 2, 1}},
		{{0.5, 0}, {0.25, 0.75}},
		{{1, 0}, {0, 1}},
		{{-1, 2}, {3, 0.5}},
	}
	for _, p := range pairs {
		if !almost(Cosine(p[0], p[1]), Cosine(p[1], p[0])) {
			t.Fatalf("cosine not symmetric for %v", p)
		}
	}
	if got := Cosine([]float32{1, 2}, []float32{2, 4}); !almost(got, 1) {
		t.Fatalf("parallel vectors: want=1 got=%v", got)
	}
	if got := Cosine([]float32{1, 0}, []float32{0, 1}); got != 0 {
		t.Fatalf("orthogonal vectors: want=0 got=%v", got)
	}
	if got := Cosine([]float32{1, 2, 3}, []float32{1, 2}); got != 0 {
		t.Fatalf("length mismatch: want=0 got=%v", got)
	}
	if got := Cosine(nil, []float32{1}); got != 0 {
		t.Fatalf("empty vector: want=0 got=%v", got)
	}
	if got := Cosine([]float32{0, 0}, []float32{1, 1}); got != 0 {
		t.Fatalf("zero norm: want=0 got=%v", got)
	}
}

func TestJaccard(t *testing.T) {
	a := []string{"a", "b", "c"}
	b := []string{"a", "b"}
	if !almost(Jaccard(a, b), 2.0/3.0) {
		t.Fatalf("jaccard(abc,ab): want=0.667 got=%v", Jaccard(a, b))
	}
	if Jaccard(a, b) != Jaccard(b, a) {
		t.Fatalf("jaccard not symmetric")
	}
	if got := Jaccard(nil, []string{}); got != 0 {
		t.Fatalf("empty sets: want=0 got=%v", got)
	}
	if got := Jaccard(a, a); got != 1 {
		t.Fatalf("self: want=1 got=%v", got)
	}
	if got := Jaccard([]string{"x", "x", "y"}, []string{"y", "x"}); got != 1 {
		t.Fatalf("duplicates collapse: want=1 got=%v", got)
	}
	if got := Jaccard([]string{"Hiking"}, []string{"hiking"}); got != 0 {
		t.Fatalf("case-sensitive: want=0 got=%v", got)
	}
}

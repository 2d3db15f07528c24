package clustering

import (
	"math"

	"github.com/yungbote/sharedexperiences-backend/internal/modules/similarity"
)

const maxIterations = 10

// kCluster holds the indices of the vectors assigned to one centroid.
type kCluster struct {
	Centroid []float32
	Members  []int
}

func normalizeUnit(v []float32) []float32 {
	if len(v) == 0 {
		return v
	}
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum <= 0 {
		return v
	}
	den := float32(1.0 / math.Sqrt(sum))
	out := make([]float32, len(v))
	for i := range v {
		out[i] = v[i] * den
	}
	return out
}

func meanVector(vecs [][]float32, idx []int) []float32 {
	if len(idx) == 0 {
		return nil
	}
	dim := len(vecs[idx[0]])
	sum := make([]float64, dim)
	for _, i := range idx {
		for d, x := range vecs[i] {
			sum[d] += float64(x)
		}
	}
	out := make([]float32, dim)
	n := float64(len(idx))
	for d := range sum {
		out[d] = float32(sum[d] / n)
	}
	return out
}

// kmeans runs Lloyd's algorithm with cosine assignment. Seeding is
// deterministic: the first vector, then repeatedly the vector farthest from
// every chosen centroid. It always returns k clusters; some may be empty when
// the input holds duplicates. All vectors must share one dimension.
func kmeans(vecs [][]float32, k int) []kCluster {
	if len(vecs) == 0 {
		return nil
	}
	if k < 1 {
		k = 1
	}
	if k > len(vecs) {
		k = len(vecs)
	}

	centroids := make([][]float32, 0, k)
	centroids = append(centroids, vecs[0])
	for len(centroids) < k {
		bestIdx := 0
		bestDist := -1.0
		for i := range vecs {
			d := 2.0
			for _, c := range centroids {
				if dist := 1.0 - similarity.Cosine(vecs[i], c); dist < d {
					d = dist
				}
			}
			if d > bestDist {
				bestDist = d
				bestIdx = i
			}
		}
		centroids = append(centroids, vecs[bestIdx])
	}

	assign := make([]int, len(vecs))
	for i := range assign {
		assign[i] = -1
	}

	var clusters []kCluster
	for iter := 0; iter < maxIterations; iter++ {
		changed := false
		clusters = make([]kCluster, k)
		for c := range clusters {
			clusters[c].Centroid = centroids[c]
		}
		for i, v := range vecs {
			best := nearest(v, centroids)
			if assign[i] != best {
				assign[i] = best
				changed = true
			}
			clusters[best].Members = append(clusters[best].Members, i)
		}
		if !changed {
			break
		}
		for c := range clusters {
			if len(clusters[c].Members) == 0 {
				continue
			}
			centroids[c] = normalizeUnit(meanVector(vecs, clusters[c].Members))
			clusters[c].Centroid = centroids[c]
		}
	}
	return clusters
}

// nearest returns the index of the centroid most similar to v; ties keep the
// lower index.
func nearest(v []float32, centroids [][]float32) int {
	best := 0
	bestScore := math.Inf(-1)
	for c, centroid := range centroids {
		if s := similarity.Cosine(v, centroid); s > bestScore {
			bestScore = s
			best = c
		}
	}
	return best
}

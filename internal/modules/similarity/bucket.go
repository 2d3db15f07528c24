package similarity

import (
	types "github.com/yungbote/sharedexperiences-backend/internal/domain"
)

// Group is one bucket; Members[0] is the seed.
type Group struct {
	Members []*types.Experience
}

func (g Group) Size() int { return len(g.Members) }

func (g Group) Texts(n int) []string {
	out := make([]string, 0, len(g.Members))
	for _, m := range g.Members {
		if n > 0 && len(out) >= n {
			break
		}
		out = append(out, m.Text)
	}
	return out
}

// Buckets partitions posts greedily in input order. Each unused post seeds a
// group and pulls in every later unused post whose themes reach threshold
// Jaccard against the seed's. Membership is seed-anchored, not transitive,
// and the result depends on input order.
func Buckets(posts []*types.Experience, threshold float64) []Group {
	if threshold <= 0 {
		threshold = DefaultThemeThreshold
	}
	themes := make([][]string, len(posts))
	for i, p := range posts {
		if p != nil {
			themes[i] = ThemesOf(p.ThemeList(), p.Text)
		}
	}
	used := make([]bool, len(posts))
	groups := []Group{}
	for i, seed := range posts {
		if seed == nil || used[i] {
			continue
		}
		used[i] = true
		g := Group{Members: []*types.Experience{seed}}
		for j := i + 1; j < len(posts); j++ {
			if used[j] || posts[j] == nil {
				continue
			}
			if Jaccard(themes[i], themes[j]) >= threshold {
				g.Members = append(g.Members, posts[j])
				used[j] = true
			}
		}
		groups = append(groups, g)
	}
	return groups
}

// Groups is Buckets without singletons.
func Groups(posts []*types.Experience, threshold float64) []Group {
	all := Buckets(posts, threshold)
	out := make([]Group, 0, len(all))
	for _, g := range all {
		if g.Size() >= 2 {
			out = append(out, g)
		}
	}
	return out
}

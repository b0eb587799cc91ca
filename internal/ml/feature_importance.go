package ml

import (
	"math/rand"
	"sort"
)

// FeatureStats contains importance statistics for a single feature
type FeatureStats struct {
	Name string `json:"name"`
	// Splits counts the internal nodes testing the feature across every
	// tree of every member.
	Splits     int     `json:"splits"`
	SplitShare float64 `json:"split_share"`
	// PermutationScore is the accuracy lost when the feature column is
	// shuffled.
	PermutationScore float64 `json:"permutation_score"`
}

func memberTrees(m Member) []*Tree {
	if m.Forest != nil {
		return m.Forest.Trees
	}
	var trees []*Tree
	if m.Booster != nil {
		for _, round := range m.Booster.Rounds {
			trees = append(trees, round...)
		}
	}
	return trees
}

// SplitCounts counts how often each feature is used as a split across the
// ensemble.
func SplitCounts(e *Ensemble, features int) []int {
	counts := make([]int, features)
	for _, m := range e.Members {
		for _, t := range memberTrees(m) {
			for _, n := range t.Nodes {
				if n.Left >= 0 && n.Feature < features {
					counts[n.Feature]++
				}
			}
		}
	}
	return counts
}

// FeatureImportance scores every named feature by split usage and by
// permutation on the evaluation rows X, y. The result is ordered by
// permutation score, then split count, then name.
func FeatureImportance(e *Ensemble, names []string, X [][]float64, y []int, rng *rand.Rand) []FeatureStats {
	counts := SplitCounts(e, len(names))
	total := 0
	for _, c := range counts {
		total += c
	}

	baseline := Accuracy(y, PredictAll(e, X))
	shuffled := make([][]float64, len(X))
	for i, row := range X {
		shuffled[i] = append([]float64(nil), row...)
	}

	stats := make([]FeatureStats, len(names))
	for f, name := range names {
		stats[f] = FeatureStats{Name: name, Splits: counts[f]}
		if total > 0 {
			stats[f].SplitShare = float64(counts[f]) / float64(total)
		}
		if len(X) == 0 {
			continue
		}

		perm := rng.Perm(len(X))
		for i := range shuffled {
			shuffled[i][f] = X[perm[i]][f]
		}
		stats[f].PermutationScore = baseline - Accuracy(y, PredictAll(e, shuffled))
		for i := range shuffled {
			shuffled[i][f] = X[i][f]
		}
	}

	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].PermutationScore != stats[j].PermutationScore {
			return stats[i].PermutationScore > stats[j].PermutationScore
		}
		if stats[i].Splits != stats[j].Splits {
			return stats[i].Splits > stats[j].Splits
		}
		return stats[i].Name < stats[j].Name
	})
	return stats
}

package ml

import (
	"math"
	"math/rand"

	"github.com/rs/zerolog/log"
)

// ForestConfig is the fixed recipe of a random forest.
type ForestConfig struct {
	Trees          int   `json:"trees"`
	MaxDepth       int   `json:"max_depth"`
	MinSamplesLeaf int   `json:"min_samples_leaf"`
	MaxBins        int   `json:"max_bins"`
	Seed           int64 `json:"seed"`
}

// Forest is a bagged ensemble of gini classification trees whose leaves
// store class distributions.
type Forest struct {
	Config  ForestConfig `json:"config"`
	Classes int          `json:"classes"`
	Trees   []*Tree      `json:"trees"`
}

// NewForest returns an unfitted forest.
func NewForest(cfg ForestConfig) *Forest {
	return &Forest{Config: cfg}
}

// Fit grows each tree on a bootstrap sample, drawing sqrt(p) candidate
// features at every split.
func (f *Forest) Fit(X [][]float64, y []int, classes int) error {
	features, err := validateTrainingSet(X, y, classes)
	if err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(f.Config.Seed))
	bins := fitBins(X, features, f.Config.MaxBins)
	g := &giniBuilder{
		bins:    bins,
		binned:  bins.transform(X),
		y:       y,
		classes: classes,
		mtry:    max(1, int(math.Sqrt(float64(features)))),
		minLeaf: max(1, f.Config.MinSamplesLeaf),
		depth:   f.Config.MaxDepth,
		rng:     rng,
	}

	f.Classes = classes
	f.Trees = make([]*Tree, 0, f.Config.Trees)
	n := len(X)
	for i := 0; i < f.Config.Trees; i++ {
		sample := make([]int, n)
		for j := range sample {
			sample[j] = rng.Intn(n)
		}
		f.Trees = append(f.Trees, g.build(sample, features))
	}

	log.Debug().
		Int("trees", len(f.Trees)).
		Int("classes", classes).
		Int("rows", n).
		Msg("Forest fitted")
	return nil
}

// PredictProba averages the leaf distributions of all trees.
func (f *Forest) PredictProba(x []float64) []float64 {
	out := make([]float64, f.Classes)
	if len(f.Trees) == 0 {
		return out
	}
	for _, t := range f.Trees {
		for k, p := range t.Leaf(x) {
			out[k] += p
		}
	}
	for k := range out {
		out[k] /= float64(len(f.Trees))
	}
	return out
}

type giniBuilder struct {
	bins    *binMapper
	binned  [][]uint16
	y       []int
	classes int
	mtry    int
	minLeaf int
	depth   int
	rng     *rand.Rand
}

func (g *giniBuilder) counts(rows []int) []float64 {
	c := make([]float64, g.classes)
	for _, r := range rows {
		c[g.y[r]]++
	}
	return c
}

func distribution(counts []float64, n int) []float64 {
	d := make([]float64, len(counts))
	for k, c := range counts {
		d[k] = c / float64(n)
	}
	return d
}

func gini(counts []float64, n float64) float64 {
	if n == 0 {
		return 0
	}
	s := 1.0
	for _, c := range counts {
		p := c / n
		s -= p * p
	}
	return s
}

func (g *giniBuilder) build(rows []int, features int) *Tree {
	t := newTree(distribution(g.counts(rows), len(rows)))

	var grow func(node int, rows []int, depth int)
	grow = func(node int, rows []int, depth int) {
		parent := g.counts(rows)
		impurity := gini(parent, float64(len(rows)))
		if depth >= g.depth || len(rows) < 2*g.minLeaf || impurity == 0 {
			return
		}

		s, ok := g.bestSplit(rows, parent, impurity, g.rng.Perm(features)[:g.mtry])
		if !ok {
			return
		}

		var lr, rr []int
		for _, r := range rows {
			if goesLeft(g.binned[r][s.feature], s.edge) {
				lr = append(lr, r)
			} else {
				rr = append(rr, r)
			}
		}
		l, r := t.split(node, s.feature, g.bins.edges[s.feature][s.edge],
			distribution(g.counts(lr), len(lr)), distribution(g.counts(rr), len(rr)))
		grow(l, lr, depth+1)
		grow(r, rr, depth+1)
	}
	grow(0, rows, 0)
	return t
}

func (g *giniBuilder) bestSplit(rows []int, parent []float64, impurity float64, features []int) (candidateSplit, bool) {
	n := float64(len(rows))
	best := candidateSplit{}
	found := false

	for _, f := range features {
		hist := make([][]float64, g.bins.bins(f))
		for i := range hist {
			hist[i] = make([]float64, g.classes)
		}
		for _, r := range rows {
			if v := g.binned[r][f]; v != missingBin {
				hist[v][g.y[r]]++
			}
		}

		left := make([]float64, g.classes)
		right := make([]float64, g.classes)
		nl := 0.0
		for e := 0; e < len(g.bins.edges[f]); e++ {
			for k, c := range hist[e] {
				left[k] += c
				nl += c
			}
			nr := n - nl
			if nl < float64(g.minLeaf) || nr < float64(g.minLeaf) {
				continue
			}
			for k := range right {
				right[k] = parent[k] - left[k]
			}
			decrease := impurity - (nl*gini(left, nl)+nr*gini(right, nr))/n
			if decrease > best.gain+1e-12 {
				best = candidateSplit{feature: f, edge: e, gain: decrease}
				found = true
			}
		}
	}
	return best, found
}

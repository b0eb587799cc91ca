package ml

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"
)

// BoostConfig is the fixed recipe of one gradient-boosted tree model.
type BoostConfig struct {
	Growth         Growth  `json:"growth"`
	Rounds         int     `json:"rounds"`
	MaxDepth       int     `json:"max_depth"`
	MaxLeaves      int     `json:"max_leaves,omitempty"`
	Eta            float64 `json:"eta"`
	Subsample      float64 `json:"subsample"`
	ColSample      float64 `json:"colsample"`
	Lambda         float64 `json:"lambda"`
	MinChildWeight float64 `json:"min_child_weight"`
	MinDataInLeaf  int     `json:"min_data_in_leaf"`
	MaxBins        int     `json:"max_bins"`
	// HessianFactor scales p(1-p) in the softmax hessian. Zero selects
	// K/(K-1) for K classes.
	HessianFactor float64 `json:"hessian_factor"`
	Seed          int64   `json:"seed"`
}

// Booster is a multiclass softmax gradient-boosted ensemble of regression
// trees, one tree per class per round, starting from a zero score.
type Booster struct {
	Config  BoostConfig `json:"config"`
	Classes int         `json:"classes"`
	Rounds  [][]*Tree   `json:"rounds"`
}

// NewBooster returns an unfitted booster.
func NewBooster(cfg BoostConfig) *Booster {
	return &Booster{Config: cfg}
}

// Fit trains the booster on X and labels y in [0, classes).
func (b *Booster) Fit(X [][]float64, y []int, classes int) error {
	features, err := validateTrainingSet(X, y, classes)
	if err != nil {
		return err
	}

	cfg := b.Config
	rng := rand.New(rand.NewSource(cfg.Seed))
	bins := fitBins(X, features, cfg.MaxBins)
	binned := bins.transform(X)

	factor := cfg.HessianFactor
	if factor == 0 {
		factor = float64(classes) / float64(classes-1)
	}

	n := len(X)
	scores := make([][]float64, n)
	for i := range scores {
		scores[i] = make([]float64, classes)
	}
	probs := make([][]float64, n)
	builder := &gradientBuilder{
		bins:   bins,
		binned: binned,
		grad:   make([]float64, n),
		hess:   make([]float64, n),
		params: treeParams{
			growth:         cfg.Growth,
			maxDepth:       cfg.MaxDepth,
			maxLeaves:      cfg.MaxLeaves,
			lambda:         cfg.Lambda,
			minChildWeight: cfg.MinChildWeight,
			minDataInLeaf:  cfg.MinDataInLeaf,
			eta:            cfg.Eta,
		},
	}

	b.Classes = classes
	b.Rounds = make([][]*Tree, 0, cfg.Rounds)
	for round := 0; round < cfg.Rounds; round++ {
		for i := range scores {
			probs[i] = softmax(scores[i])
		}
		rows := sampleRows(rng, n, cfg.Subsample)
		cols := sampleFeatures(rng, features, cfg.ColSample)

		trees := make([]*Tree, classes)
		for k := 0; k < classes; k++ {
			for i := 0; i < n; i++ {
				p := probs[i][k]
				target := 0.0
				if y[i] == k {
					target = 1
				}
				builder.grad[i] = p - target
				builder.hess[i] = math.Max(factor*p*(1-p), 1e-16)
			}
			trees[k] = builder.build(rows, cols)
		}
		for i, x := range X {
			for k, t := range trees {
				scores[i][k] += t.Leaf(x)[0]
			}
		}
		b.Rounds = append(b.Rounds, trees)
	}

	log.Debug().
		Str("growth", cfg.Growth.String()).
		Int("rounds", len(b.Rounds)).
		Int("classes", classes).
		Int("rows", n).
		Msg("Booster fitted")
	return nil
}

// PredictProba returns the class probability vector of x.
func (b *Booster) PredictProba(x []float64) []float64 {
	raw := make([]float64, b.Classes)
	for _, trees := range b.Rounds {
		for k, t := range trees {
			raw[k] += t.Leaf(x)[0]
		}
	}
	return softmax(raw)
}

func softmax(z []float64) []float64 {
	out := make([]float64, len(z))
	if len(z) == 0 {
		return out
	}
	m := floats.Max(z)
	for i, v := range z {
		out[i] = math.Exp(v - m)
	}
	floats.Scale(1/floats.Sum(out), out)
	return out
}

// sampleRows draws each row with probability rate. An empty draw falls
// back to all rows.
func sampleRows(rng *rand.Rand, n int, rate float64) []int {
	rows := make([]int, 0, n)
	if rate >= 1 || rate <= 0 {
		for i := 0; i < n; i++ {
			rows = append(rows, i)
		}
		return rows
	}
	for i := 0; i < n; i++ {
		if rng.Float64() < rate {
			rows = append(rows, i)
		}
	}
	if len(rows) == 0 {
		return sampleRows(rng, n, 1)
	}
	return rows
}

// sampleFeatures picks max(1, floor(rate*p)) features in ascending order.
func sampleFeatures(rng *rand.Rand, p int, rate float64) []int {
	k := p
	if rate > 0 && rate < 1 {
		k = max(1, int(rate*float64(p)))
	}
	cols := rng.Perm(p)[:k]
	sort.Ints(cols)
	return cols
}

func validateTrainingSet(X [][]float64, y []int, classes int) (int, error) {
	if len(X) == 0 {
		return 0, fmt.Errorf("%w: empty training set", ErrDegenerateLabels)
	}
	if len(X) != len(y) {
		return 0, fmt.Errorf("training set: %d rows but %d labels", len(X), len(y))
	}
	if classes < 2 {
		return 0, fmt.Errorf("%w: %d classes", ErrDegenerateLabels, classes)
	}
	features := len(X[0])
	for i, row := range X {
		if len(row) != features {
			return 0, fmt.Errorf("training set: row %d has %d features, want %d", i, len(row), features)
		}
		if y[i] < 0 || y[i] >= classes {
			return 0, fmt.Errorf("training set: label %d of row %d outside [0,%d)", y[i], i, classes)
		}
	}
	return features, nil
}

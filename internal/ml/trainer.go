package ml

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrDegenerateLabels is returned when fewer than 2 classes remain.
	ErrDegenerateLabels = errors.New("ml: at least 2 label classes required")
	// ErrClassTooSmall is returned when a class cannot be stratified.
	ErrClassTooSmall = errors.New("ml: class too small to stratify")
)

// Candidate names a base model and builds fresh, unfitted instances of it.
type Candidate struct {
	Name string
	Key  string
	New  func() Model
}

// DefaultRecipe is the fixed four-model recipe. Every model shares seed.
func DefaultRecipe(seed int64) []Candidate {
	return []Candidate{
		{Name: "XGBoost", Key: "xgb", New: func() Model {
			return NewBooster(BoostConfig{
				Growth: DepthWise, Rounds: 120, MaxDepth: 4, Eta: 0.1,
				Subsample: 0.8, ColSample: 0.8, Lambda: 1, MinChildWeight: 1,
				MaxBins: 256, HessianFactor: 2, Seed: seed,
			})
		}},
		{Name: "LightGBM", Key: "lgb", New: func() Model {
			return NewBooster(BoostConfig{
				Growth: LeafWise, Rounds: 120, MaxDepth: 4, MaxLeaves: 31, Eta: 0.1,
				Subsample: 1, ColSample: 0.8, Lambda: 0, MinChildWeight: 1e-3,
				MinDataInLeaf: 20, MaxBins: 255, Seed: seed,
			})
		}},
		{Name: "CatBoost", Key: "cat", New: func() Model {
			return NewBooster(BoostConfig{
				Growth: Oblivious, Rounds: 120, MaxDepth: 4, Eta: 0.1,
				Subsample: 1, ColSample: 1, Lambda: 3,
				MaxBins: 254, HessianFactor: 1, Seed: seed,
			})
		}},
		{Name: "RandomForest", Key: "rf", New: func() Model {
			return NewForest(ForestConfig{
				Trees: 100, MaxDepth: 8, MinSamplesLeaf: 1, MaxBins: 256, Seed: seed,
			})
		}},
	}
}

// TrainConfig controls TrainEnsemble.
type TrainConfig struct {
	TestSize float64
	Folds    int
	Seed     int64
	Recipe   []Candidate

	// FeatureNames enables feature importance on the held-out split.
	FeatureNames []string
}

// CVScore is the cross-validated accuracy of one candidate.
type CVScore struct {
	Name   string    `json:"name"`
	Scores []float64 `json:"scores"`
	Mean   float64   `json:"mean"`
	Std    float64   `json:"std"`
}

// TrainResult carries the fitted ensemble and its diagnostics.
type TrainResult struct {
	Ensemble  *Ensemble `json:"-"`
	CV        []CVScore `json:"cross_validation"`
	Accuracy  float64   `json:"ensemble_accuracy"`
	Report    Report    `json:"report"`
	TrainRows int       `json:"train_rows"`
	TestRows  int       `json:"test_rows"`
	Duration  float64   `json:"duration_seconds"`

	Importance []FeatureStats `json:"feature_importance,omitempty"`
}

// TrainEnsemble splits X/y with stratification, cross-validates every
// candidate on the training split, fits the soft-vote ensemble on the
// training split and evaluates it on the held-out split. classNames maps
// label codes to display names and fixes the number of classes.
func TrainEnsemble(ctx context.Context, X [][]float64, y []int, classNames []string, cfg TrainConfig) (*TrainResult, error) {
	start := time.Now()
	classes := len(classNames)
	if err := checkLabels(y, classes); err != nil {
		return nil, err
	}
	if len(X) != len(y) {
		return nil, fmt.Errorf("training set: %d rows but %d labels", len(X), len(y))
	}
	recipe := cfg.Recipe
	if len(recipe) == 0 {
		recipe = DefaultRecipe(cfg.Seed)
	}

	split, err := StratifiedSplit(y, classes, cfg.TestSize, rand.New(rand.NewSource(cfg.Seed)))
	if err != nil {
		return nil, err
	}
	Xtr, ytr := subset(X, y, split.Train)
	Xte, yte := subset(X, y, split.Test)

	log.Info().
		Int("train_rows", len(Xtr)).
		Int("test_rows", len(Xte)).
		Int("classes", classes).
		Msg("Stratified split ready")

	folds, err := StratifiedKFold(ytr, classes, cfg.Folds)
	if err != nil {
		return nil, err
	}

	result := &TrainResult{TrainRows: len(Xtr), TestRows: len(Xte)}
	for _, c := range recipe {
		score, err := crossValidate(ctx, c, Xtr, ytr, classes, folds)
		if err != nil {
			return nil, err
		}
		result.CV = append(result.CV, score)
		log.Info().
			Str("model", c.Name).
			Float64("mean", score.Mean).
			Float64("std", score.Std).
			Msg("Cross-validation finished")
	}

	ensemble := &Ensemble{}
	for _, c := range recipe {
		m, err := NewMember(c.Key, c.New())
		if err != nil {
			return nil, err
		}
		ensemble.Members = append(ensemble.Members, m)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := ensemble.Fit(Xtr, ytr, classes); err != nil {
		return nil, err
	}

	pred := PredictAll(ensemble, Xte)
	result.Ensemble = ensemble
	result.Accuracy = Accuracy(yte, pred)
	result.Report = ClassificationReport(yte, pred, classNames)
	if len(cfg.FeatureNames) > 0 {
		result.Importance = FeatureImportance(ensemble, cfg.FeatureNames, Xte, yte, rand.New(rand.NewSource(cfg.Seed)))
	}
	result.Duration = time.Since(start).Seconds()

	log.Info().
		Float64("accuracy", result.Accuracy).
		Dur("duration", time.Since(start)).
		Msg("Ensemble trained")
	return result, nil
}

func crossValidate(ctx context.Context, c Candidate, X [][]float64, y []int, classes int, folds []Fold) (CVScore, error) {
	score := CVScore{Name: c.Name, Scores: make([]float64, 0, len(folds))}
	for i, f := range folds {
		if err := ctx.Err(); err != nil {
			return score, err
		}
		Xtr, ytr := subset(X, y, f.Train)
		Xte, yte := subset(X, y, f.Test)
		model := c.New()
		if err := model.Fit(Xtr, ytr, classes); err != nil {
			return score, fmt.Errorf("%s fold %d: %w", c.Name, i+1, err)
		}
		score.Scores = append(score.Scores, Accuracy(yte, PredictAll(model, Xte)))
	}
	score.Mean = stat.Mean(score.Scores, nil)
	score.Std = stat.PopStdDev(score.Scores, nil)
	return score, nil
}

// checkLabels rejects label sets with fewer than 2 distinct classes.
func checkLabels(y []int, classes int) error {
	seen := map[int]struct{}{}
	for i, l := range y {
		if l < 0 || l >= classes {
			return fmt.Errorf("label %d of row %d outside [0,%d)", l, i, classes)
		}
		seen[l] = struct{}{}
	}
	if len(seen) < 2 {
		return fmt.Errorf("%w: found %d", ErrDegenerateLabels, len(seen))
	}
	return nil
}

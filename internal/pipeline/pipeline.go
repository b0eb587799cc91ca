// Package pipeline composes the training stages: load, engineer, encode,
// inject label noise, train and persist. Each stage is a plain function so
// it can be exercised on its own; Pipeline.Run wires them together.
package pipeline

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/mandrita16/WastePrediction/internal/cfg"
	"github.com/mandrita16/WastePrediction/internal/dataset"
	"github.com/mandrita16/WastePrediction/internal/encoder"
	"github.com/mandrita16/WastePrediction/internal/features"
	"github.com/mandrita16/WastePrediction/internal/ml"
	"github.com/mandrita16/WastePrediction/internal/noise"
	"github.com/mandrita16/WastePrediction/internal/storage"
	"github.com/rs/zerolog/log"
)

// MetricsInterface defines metrics methods needed by the pipeline
type MetricsInterface interface {
	TrainingRunsInc()
	TrainingFailuresInc()
	StageDurationObserve(stage string, seconds float64)
	DatasetRowsSet(int)
	NoisyLabelsSet(int)
	CVAccuracySet(model string, accuracy float64)
	EnsembleAccuracySet(float64)
}

// ArtifactStore persists trained runs.
type ArtifactStore interface {
	Save(a storage.Artifact) (string, error)
	Runs() ([]storage.RunSummary, error)
}

// Config holds the training knobs.
type Config struct {
	NoiseRate float64
	Seed      int64
	TestSize  float64
	CVFolds   int
	// Recipe overrides the default four-model recipe when set.
	Recipe []ml.Candidate
}

// ConfigFrom extracts the training knobs from settings.
func ConfigFrom(s *cfg.Settings) Config {
	return Config{
		NoiseRate: s.NoiseRate,
		Seed:      s.Seed,
		TestSize:  s.TestSize,
		CVFolds:   s.CVFolds,
	}
}

// Encoded is the model-ready form of a dataset.
type Encoded struct {
	Encoders *encoder.Set
	X        [][]float64
	Y        []int
}

// Outcome is everything a training run produced.
type Outcome struct {
	RunID    string
	Summary  storage.RunSummary
	Result   *ml.TrainResult
	Previous *storage.RunSummary
}

// Pipeline runs training end to end.
type Pipeline struct {
	source  dataset.Source
	name    string
	store   ArtifactStore
	config  Config
	metrics MetricsInterface
}

// New creates a pipeline reading from src, described in summaries as name.
// metrics may be nil.
func New(src dataset.Source, name string, store ArtifactStore, config Config, metrics MetricsInterface) *Pipeline {
	return &Pipeline{source: src, name: name, store: store, config: config, metrics: metrics}
}

// Engineer derives features for every record.
func Engineer(records []dataset.EventRecord) ([]features.Row, error) {
	rows, err := features.Build(records)
	if err != nil {
		return nil, fmt.Errorf("engineer features: %w", err)
	}
	return rows, nil
}

// Encode fits the category encoders on rows and produces the feature
// matrix and label codes.
func Encode(rows []features.Row) (*Encoded, error) {
	set := encoder.FitSet(rows)
	y, err := set.EncodeLabels(rows)
	if err != nil {
		return nil, fmt.Errorf("encode labels: %w", err)
	}
	return &Encoded{Encoders: set, X: set.Matrix(rows), Y: y}, nil
}

// InjectNoise flips a fraction of labels with a generator seeded by seed.
func InjectNoise(y []int, rate float64, seed int64) ([]int, []int, error) {
	noisy, flipped, err := noise.Inject(y, rate, rand.New(rand.NewSource(seed)))
	if err != nil {
		return nil, nil, fmt.Errorf("inject label noise: %w", err)
	}
	return noisy, flipped, nil
}

// Train fits and evaluates the ensemble.
func Train(ctx context.Context, enc *Encoded, y []int, config Config) (*ml.TrainResult, error) {
	res, err := ml.TrainEnsemble(ctx, enc.X, y, enc.Encoders.Labels.Classes, ml.TrainConfig{
		TestSize: config.TestSize,
		Folds:    config.CVFolds,
		Seed:     config.Seed,
		Recipe:   config.Recipe,

		FeatureNames: encoder.FeatureNames(),
	})
	if err != nil {
		return nil, fmt.Errorf("train ensemble: %w", err)
	}
	return res, nil
}

func (p *Pipeline) stage(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)
	if p.metrics != nil {
		p.metrics.StageDurationObserve(name, elapsed.Seconds())
	}
	if err != nil {
		log.Error().Err(err).Str("stage", name).Msg("Training stage failed")
		return err
	}
	log.Debug().Str("stage", name).Dur("elapsed", elapsed).Msg("Training stage finished")
	return nil
}

// Run executes every stage and persists the artifact. Any stage error
// aborts the run.
func (p *Pipeline) Run(ctx context.Context) (*Outcome, error) {
	out, err := p.run(ctx)
	if p.metrics != nil {
		if err != nil {
			p.metrics.TrainingFailuresInc()
		} else {
			p.metrics.TrainingRunsInc()
		}
	}
	return out, err
}

func (p *Pipeline) run(ctx context.Context) (*Outcome, error) {
	var (
		records []dataset.EventRecord
		rows    []features.Row
		enc     *Encoded
		y       []int
		flipped []int
		result  *ml.TrainResult
		out     = &Outcome{}
	)

	if err := p.stage("load", func() (err error) {
		records, err = p.source.Load(ctx)
		return err
	}); err != nil {
		return nil, err
	}
	if p.metrics != nil {
		p.metrics.DatasetRowsSet(len(records))
	}

	if err := p.stage("engineer", func() (err error) {
		rows, err = Engineer(records)
		return err
	}); err != nil {
		return nil, err
	}

	if err := p.stage("encode", func() (err error) {
		enc, err = Encode(rows)
		return err
	}); err != nil {
		return nil, err
	}

	if err := p.stage("noise", func() (err error) {
		y, flipped, err = InjectNoise(enc.Y, p.config.NoiseRate, p.config.Seed)
		return err
	}); err != nil {
		return nil, err
	}
	if p.metrics != nil {
		p.metrics.NoisyLabelsSet(len(flipped))
	}
	log.Info().
		Int("rows", len(enc.X)).
		Int("features", len(encoder.FeatureNames())).
		Strs("classes", enc.Encoders.Labels.Classes).
		Int("flipped", len(flipped)).
		Msg("Training data prepared")

	if err := p.stage("train", func() (err error) {
		result, err = Train(ctx, enc, y, p.config)
		return err
	}); err != nil {
		return nil, err
	}
	if p.metrics != nil {
		for _, s := range result.CV {
			p.metrics.CVAccuracySet(s.Name, s.Mean)
		}
		p.metrics.EnsembleAccuracySet(result.Accuracy)
	}

	if runs, err := p.store.Runs(); err != nil {
		log.Warn().Err(err).Msg("Failed to read run history")
	} else if len(runs) > 0 {
		prev := runs[len(runs)-1]
		out.Previous = &prev
	}

	out.Result = result
	out.Summary = storage.RunSummary{
		CreatedAt:  time.Now().UTC(),
		Dataset:    p.name,
		Rows:       len(records),
		TrainRows:  result.TrainRows,
		TestRows:   result.TestRows,
		Classes:    enc.Encoders.Labels.Classes,
		NoiseRate:  p.config.NoiseRate,
		Flipped:    len(flipped),
		Seed:       p.config.Seed,
		Accuracy:   result.Accuracy,
		CV:         result.CV,
		FeatureSet: encoder.FeatureNames(),
	}

	if err := p.stage("persist", func() (err error) {
		out.RunID, err = p.store.Save(storage.Artifact{
			Run:      out.Summary,
			Ensemble: result.Ensemble,
			Encoders: enc.Encoders.State(),
		})
		return err
	}); err != nil {
		return nil, fmt.Errorf("persist artifact: %w", err)
	}
	out.Summary.RunID = out.RunID

	log.Info().
		Str("run_id", out.RunID).
		Float64("accuracy", result.Accuracy).
		Msg("Model saved")
	return out, nil
}

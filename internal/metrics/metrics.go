// Package metrics provides Prometheus metrics collection for waste prediction.
// It defines the prediction and training metrics and writes them to a
// node-exporter textfile, since neither entry point runs a server.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics of the predictor and the trainer.
type Metrics struct {
	// Prediction metrics
	Predictions       prometheus.Counter   // Total number of waste predictions
	FetchFailures     prometheus.Counter   // Dataset acquisition failures on the prediction path
	BroadMatches      prometheus.Counter   // Predictions answered by the establishment+food fallback
	DefaultResults    prometheus.Counter   // Predictions answered with the no-data default
	PredictionLatency prometheus.Histogram // End-to-end prediction latency in seconds
	PredictedWasteKg  prometheus.Histogram // Distribution of predicted waste weights

	// Training metrics
	TrainingRuns     prometheus.Counter
	TrainingFailures prometheus.Counter
	StageDuration    *prometheus.HistogramVec // Duration of each pipeline stage
	DatasetRows      prometheus.Gauge
	NoisyLabels      prometheus.Gauge
	CVAccuracy       *prometheus.GaugeVec // Mean cross-validated accuracy by model
	EnsembleAccuracy prometheus.Gauge
}

// NewWithRegistry creates metrics with a custom registry (useful for testing).
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		Predictions: factory.NewCounter(prometheus.CounterOpts{
			Name: "waste_predictions_total",
			Help: "Total number of waste predictions",
		}),
		FetchFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "waste_dataset_fetch_failures_total",
			Help: "Total number of dataset acquisition failures while predicting",
		}),
		BroadMatches: factory.NewCounter(prometheus.CounterOpts{
			Name: "waste_broad_matches_total",
			Help: "Predictions that fell back to establishment and food type matching",
		}),
		DefaultResults: factory.NewCounter(prometheus.CounterOpts{
			Name: "waste_default_results_total",
			Help: "Predictions answered with the default result",
		}),
		PredictionLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "waste_prediction_latency_seconds",
			Help:    "Prediction latency in seconds, including dataset acquisition",
			Buckets: prometheus.DefBuckets,
		}),
		PredictedWasteKg: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "waste_predicted_kg",
			Help:    "Distribution of predicted leftover food in kilograms",
			Buckets: []float64{5, 10, 20, 35, 50, 75, 100, 150},
		}),
		TrainingRuns: factory.NewCounter(prometheus.CounterOpts{
			Name: "waste_training_runs_total",
			Help: "Total number of completed training runs",
		}),
		TrainingFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "waste_training_failures_total",
			Help: "Total number of failed training runs",
		}),
		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "waste_training_stage_duration_seconds",
			Help:    "Duration of each training pipeline stage",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 15, 60, 300},
		}, []string{"stage"}),
		DatasetRows: factory.NewGauge(prometheus.GaugeOpts{
			Name: "waste_training_dataset_rows",
			Help: "Rows in the last training dataset",
		}),
		NoisyLabels: factory.NewGauge(prometheus.GaugeOpts{
			Name: "waste_training_noisy_labels",
			Help: "Labels flipped by noise injection in the last run",
		}),
		CVAccuracy: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "waste_training_cv_accuracy",
			Help: "Mean cross-validated accuracy of each base model",
		}, []string{"model"}),
		EnsembleAccuracy: factory.NewGauge(prometheus.GaugeOpts{
			Name: "waste_training_ensemble_accuracy",
			Help: "Held-out accuracy of the soft-vote ensemble",
		}),
	}
}

// WriteTextfile writes everything gathered by g to path in the Prometheus
// text format.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

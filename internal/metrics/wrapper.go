package metrics

// MetricsWrapper adapts Metrics to the method sets expected by the
// predictor and the training pipeline.
type MetricsWrapper struct {
	m *Metrics
}

func NewWrapper(m *Metrics) *MetricsWrapper {
	return &MetricsWrapper{m: m}
}

func (w *MetricsWrapper) PredictionsInc() {
	w.m.Predictions.Inc()
}

func (w *MetricsWrapper) FetchFailuresInc() {
	w.m.FetchFailures.Inc()
}

func (w *MetricsWrapper) BroadMatchInc() {
	w.m.BroadMatches.Inc()
}

func (w *MetricsWrapper) DefaultResultInc() {
	w.m.DefaultResults.Inc()
}

func (w *MetricsWrapper) LatencyObserve(seconds float64) {
	w.m.PredictionLatency.Observe(seconds)
}

func (w *MetricsWrapper) PredictedWasteObserve(kg float64) {
	w.m.PredictedWasteKg.Observe(kg)
}

func (w *MetricsWrapper) TrainingRunsInc() {
	w.m.TrainingRuns.Inc()
}

func (w *MetricsWrapper) TrainingFailuresInc() {
	w.m.TrainingFailures.Inc()
}

func (w *MetricsWrapper) StageDurationObserve(stage string, seconds float64) {
	w.m.StageDuration.WithLabelValues(stage).Observe(seconds)
}

func (w *MetricsWrapper) DatasetRowsSet(n int) {
	w.m.DatasetRows.Set(float64(n))
}

func (w *MetricsWrapper) NoisyLabelsSet(n int) {
	w.m.NoisyLabels.Set(float64(n))
}

func (w *MetricsWrapper) CVAccuracySet(model string, accuracy float64) {
	w.m.CVAccuracy.WithLabelValues(model).Set(accuracy)
}

func (w *MetricsWrapper) EnsembleAccuracySet(accuracy float64) {
	w.m.EnsembleAccuracy.Set(accuracy)
}

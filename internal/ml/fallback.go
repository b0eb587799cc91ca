package ml

import "github.com/mandrita16/WastePrediction/internal/common"

// DefaultResult is returned when no historical event resembles the query:
// a moderate waste is assumed and an alert is raised. reason explains why
// the estimate could not be computed.
func DefaultResult(reason string) Result {
	return Result{
		PredictedWasteKg:  common.DefaultWasteKg,
		WasteLevel:        WasteMedium,
		Confidence:        common.DefaultConfidence,
		AlertNeeded:       true,
		EstimatedServings: common.DefaultServings,
		Error:             reason,
	}
}

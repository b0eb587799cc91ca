// Package ml provides the learning and estimation core of the waste
// predictor: histogram tree learners, three gradient-boosting growth
// policies, a random forest, a soft-vote ensemble with stratified
// evaluation, and a similarity-based estimator that works directly on the
// historical dataset.
//
// The similarity estimator never loads the trained ensemble.
package ml

import "context"

// PredictorInterface is implemented by waste estimators.
type PredictorInterface interface {
	// Predict estimates the waste of a planned event. A dataset that
	// cannot be acquired is reported in Result.Error, not as an error.
	Predict(ctx context.Context, q Query) (Result, error)
}

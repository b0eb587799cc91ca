package ml

import (
	"math"
	"math/rand"
)

// separable returns n rows of 4 features over 3 classes. Feature 0 carries
// the class, feature 2 is noise and feature 3 is occasionally missing.
func separable(n int, seed int64) ([][]float64, []int) {
	rng := rand.New(rand.NewSource(seed))
	X := make([][]float64, n)
	y := make([]int, n)
	for i := range X {
		c := i % 3
		y[i] = c
		x3 := float64(c) + rng.NormFloat64()*0.1
		if rng.Float64() < 0.1 {
			x3 = math.NaN()
		}
		X[i] = []float64{
			float64(c)*10 + rng.Float64()*4,
			float64(rng.Intn(5)),
			rng.NormFloat64(),
			x3,
		}
	}
	return X, y
}

func fitAccuracy(m Model, X [][]float64, y []int) float64 {
	return Accuracy(y, PredictAll(m, X))
}

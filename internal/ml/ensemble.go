package ml

import (
	"encoding/json"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Model is a probabilistic multiclass classifier.
type Model interface {
	Fit(X [][]float64, y []int, classes int) error
	PredictProba(x []float64) []float64
}

// Member is one named base model of an Ensemble. Exactly one of Forest or
// Booster is set, which keeps the artifact self-describing when encoded.
type Member struct {
	Name    string   `json:"name"`
	Forest  *Forest  `json:"forest,omitempty"`
	Booster *Booster `json:"booster,omitempty"`
}

// Model returns the member's classifier.
func (m Member) Model() (Model, error) {
	switch {
	case m.Forest != nil && m.Booster == nil:
		return m.Forest, nil
	case m.Booster != nil && m.Forest == nil:
		return m.Booster, nil
	default:
		return nil, fmt.Errorf("ensemble member %q: exactly one model required", m.Name)
	}
}

// NewMember wraps a Forest or Booster.
func NewMember(name string, model Model) (Member, error) {
	switch v := model.(type) {
	case *Forest:
		return Member{Name: name, Forest: v}, nil
	case *Booster:
		return Member{Name: name, Booster: v}, nil
	default:
		return Member{}, fmt.Errorf("ensemble member %q: unsupported model %T", name, model)
	}
}

// Ensemble soft-votes its members: the class probabilities of every member
// are averaged with equal weight.
type Ensemble struct {
	Classes int      `json:"classes"`
	Members []Member `json:"members"`
}

// Fit trains every member on the same data.
func (e *Ensemble) Fit(X [][]float64, y []int, classes int) error {
	for _, m := range e.Members {
		model, err := m.Model()
		if err != nil {
			return err
		}
		if err := model.Fit(X, y, classes); err != nil {
			return fmt.Errorf("fit %s: %w", m.Name, err)
		}
	}
	e.Classes = classes
	return nil
}

// PredictProba averages the members' probability vectors.
func (e *Ensemble) PredictProba(x []float64) []float64 {
	avg := make([]float64, e.Classes)
	if len(e.Members) == 0 {
		return avg
	}
	for _, m := range e.Members {
		model, err := m.Model()
		if err != nil {
			continue
		}
		floats.Add(avg, model.PredictProba(x))
	}
	floats.Scale(1/float64(len(e.Members)), avg)
	return avg
}

// Predict returns the most probable class of x.
func (e *Ensemble) Predict(x []float64) int {
	return Argmax(e.PredictProba(x))
}

// Marshal encodes the fitted ensemble.
func (e *Ensemble) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// UnmarshalEnsemble decodes an ensemble produced by Marshal.
func UnmarshalEnsemble(data []byte) (*Ensemble, error) {
	var e Ensemble
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("decode ensemble: %w", err)
	}
	for _, m := range e.Members {
		if _, err := m.Model(); err != nil {
			return nil, err
		}
	}
	return &e, nil
}

// Argmax returns the index of the largest value; the lowest index wins ties.
func Argmax(p []float64) int {
	if len(p) == 0 {
		return -1
	}
	return floats.MaxIdx(p)
}

// PredictAll applies model to every row of X.
func PredictAll(model Model, X [][]float64) []int {
	out := make([]int, len(X))
	for i, x := range X {
		out[i] = Argmax(model.PredictProba(x))
	}
	return out
}

package encoder

import (
	"fmt"

	"github.com/mandrita16/WastePrediction/internal/common"
	"github.com/mandrita16/WastePrediction/internal/features"
)

type categorical struct {
	name  string
	value func(features.Row) string
}

func textValue(t features.Text) string {
	if !t.Valid {
		return ""
	}
	return t.Value
}

var categoricals = []categorical{
	{common.ColEstablishmentType, func(r features.Row) string { return r.EstablishmentType }},
	{common.ColCity, func(r features.Row) string { return r.City }},
	{common.ColDayOfWeek, func(r features.Row) string { return r.DayOfWeek }},
	{common.ColSpecialEvent, func(r features.Row) string { return r.SpecialEvent }},
	{common.ColFoodType, func(r features.Row) string { return r.FoodType }},
	{common.ColSeason, func(r features.Row) string { return r.Season }},
	{common.ColEstablishmentFood, func(r features.Row) string { return textValue(r.EstablishmentFood) }},
	{common.ColCitySeason, func(r features.Row) string { return textValue(r.CitySeason) }},
}

var numerics = []struct {
	name  string
	value func(features.Row) float64
}{
	{common.ColAvgDailyCustomers, func(r features.Row) float64 { return r.AvgDailyCustomers }},
	{common.ColAvgMealPrice, func(r features.Row) float64 { return r.AvgMealPrice }},
	{common.ColLeftoverFoodKg, func(r features.Row) float64 { return r.LeftoverFoodKg }},
	{common.ColMonth, func(r features.Row) float64 { return float64(r.Month) }},
	{common.ColDayOfMonth, func(r features.Row) float64 { return float64(r.DayOfMonth) }},
	{common.ColIsWeekend, func(r features.Row) float64 { return boolValue(r.IsWeekend) }},
	{common.ColPricePerCustomer, func(r features.Row) float64 { return r.PricePerCustomer }},
	{common.ColWastePerCustomer, func(r features.Row) float64 { return r.WastePerCustomer }},
	{common.ColHasEvent, func(r features.Row) float64 { return boolValue(r.HasEvent) }},
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// FeatureNames lists the feature matrix columns in order.
func FeatureNames() []string {
	names := make([]string, 0, len(categoricals)+len(numerics))
	for _, c := range categoricals {
		names = append(names, c.name)
	}
	for _, n := range numerics {
		names = append(names, n.name)
	}
	return names
}

// Set holds one fitted column per categorical feature plus the label column.
type Set struct {
	Columns map[string]*Column
	Labels  *Column
}

// FitSet fits every categorical column and the label column on rows.
func FitSet(rows []features.Row) *Set {
	s := &Set{Columns: make(map[string]*Column, len(categoricals))}
	values := make([]string, len(rows))
	for _, c := range categoricals {
		for i, r := range rows {
			values[i] = c.value(r)
		}
		s.Columns[c.name] = Fit(c.name, values)
	}
	for i, r := range rows {
		values[i] = r.WasteCategory
	}
	s.Labels = Fit(common.ColWasteCategory, values)
	return s
}

// Matrix encodes rows into the feature matrix described by FeatureNames.
func (s *Set) Matrix(rows []features.Row) [][]float64 {
	out := make([][]float64, len(rows))
	for i, r := range rows {
		out[i] = s.Vector(r)
	}
	return out
}

// Vector encodes a single row.
func (s *Set) Vector(r features.Row) []float64 {
	x := make([]float64, 0, len(categoricals)+len(numerics))
	for _, c := range categoricals {
		x = append(x, s.Columns[c.name].Encode(c.value(r)))
	}
	for _, n := range numerics {
		x = append(x, n.value(r))
	}
	return x
}

// EncodeLabels returns the label code of every row.
func (s *Set) EncodeLabels(rows []features.Row) ([]int, error) {
	y := make([]int, len(rows))
	for i, r := range rows {
		if !r.HasLabel() {
			return nil, fmt.Errorf("row %d: %w", i+1, ErrMissingLabel)
		}
		code, ok := s.Labels.Code(r.WasteCategory)
		if !ok {
			return nil, fmt.Errorf("row %d: %w: %q", i+1, ErrUnknownValue, r.WasteCategory)
		}
		y[i] = code
	}
	return y, nil
}

// State is the persistable form of a Set.
type State struct {
	Columns map[string][]string `json:"columns"`
	Labels  []string            `json:"labels"`
}

// State snapshots the fitted mappings.
func (s *Set) State() State {
	st := State{Columns: make(map[string][]string, len(s.Columns)), Labels: append([]string(nil), s.Labels.Classes...)}
	for name, c := range s.Columns {
		st.Columns[name] = append([]string(nil), c.Classes...)
	}
	return st
}

// Restore rebuilds a Set from a saved State.
func Restore(st State) (*Set, error) {
	s := &Set{Columns: make(map[string]*Column, len(categoricals))}
	for _, c := range categoricals {
		classes, ok := st.Columns[c.name]
		if !ok {
			return nil, fmt.Errorf("encoder state: column %s not present", c.name)
		}
		s.Columns[c.name] = NewColumn(c.name, classes)
	}
	s.Labels = NewColumn(common.ColWasteCategory, st.Labels)
	return s, nil
}

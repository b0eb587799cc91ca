package ml

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"testing"

	"github.com/mandrita16/WastePrediction/internal/common"
	"github.com/mandrita16/WastePrediction/internal/dataset"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func event(est, city, day, food, season string, customers, leftover float64, category string) dataset.EventRecord {
	return dataset.EventRecord{
		EstablishmentType: est, City: city, DayOfWeek: day, SpecialEvent: "None",
		FoodType: food, Season: season, AvgDailyCustomers: customers, AvgMealPrice: 400,
		LeftoverFoodKg: leftover, Date: "2024-01-12", WasteCategory: category,
	}
}

func exampleQuery() Query {
	return Query{
		EstablishmentType: "Restaurant", City: "Mumbai", DayOfWeek: "Friday",
		SpecialEvent: "Conference", AvgDailyCustomers: 200, AvgMealPrice: 500,
		FoodType: "Veg", Season: "Winter",
	}
}

func TestSimilarityPredictor_ExactMatch(t *testing.T) {
	src := &StaticSource{Records: []dataset.EventRecord{
		event("Restaurant", "Mumbai", "Friday", "Veg", "Winter", 150, 40, "High"),
		event("Cafe", "Delhi", "Monday", "Veg", "Summer", 80, 5, "Low"),
	}}
	metrics := &MockMetrics{}
	p := NewSimilarityPredictor(src, metrics)

	res, err := p.Predict(context.Background(), exampleQuery())
	require.NoError(t, err)

	assert.Equal(t, 53.33, res.PredictedWasteKg)
	assert.Equal(t, "High", res.WasteCategory)
	assert.Equal(t, WasteHigh, res.WasteLevel)
	assert.True(t, res.AlertNeeded)
	assert.Equal(t, 133.0, res.EstimatedServings)
	assert.Equal(t, 100.0, res.Confidence)
	assert.Equal(t, 1, res.SimilarEventsFound)
	assert.Empty(t, res.Error)

	assert.Equal(t, 1, metrics.predictions)
	assert.Equal(t, 0, metrics.broadMatches)
	assert.Equal(t, []float64{53.33}, metrics.predictedKg)
}

func TestSimilarityPredictor_NoData(t *testing.T) {
	src := &StaticSource{Records: []dataset.EventRecord{
		event("Cafe", "Delhi", "Monday", "Veg", "Summer", 80, 5, "Low"),
	}}
	metrics := &MockMetrics{}
	p := NewSimilarityPredictor(src, metrics)

	res, err := p.Predict(context.Background(), exampleQuery())
	require.NoError(t, err)

	assert.Equal(t, 25.0, res.PredictedWasteKg)
	assert.Equal(t, WasteMedium, res.WasteLevel)
	assert.Equal(t, 50.0, res.Confidence)
	assert.True(t, res.AlertNeeded)
	assert.Equal(t, 60.0, res.EstimatedServings)
	assert.Equal(t, common.ErrMsgNoSimilarData, res.Error)
	assert.Empty(t, res.WasteCategory)
	assert.Equal(t, 1, metrics.defaultResults)

	raw, err := json.Marshal(res)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "waste_category")
	assert.Contains(t, string(raw), `"error":"No similar historical data found"`)
}

func TestSimilarityPredictor_FallsBackToBroadMatch(t *testing.T) {
	src := &StaticSource{Records: []dataset.EventRecord{
		event("Restaurant", "Delhi", "Monday", "Veg", "Summer", 100, 10, "Low"),
		event("Restaurant", "Pune", "Sunday", "Veg", "Monsoon", 100, 30, "Medium"),
		event("Restaurant", "Mumbai", "Friday", "Non-Veg", "Winter", 100, 90, "High"),
	}}
	metrics := &MockMetrics{}
	p := NewSimilarityPredictor(src, metrics)

	res, err := p.Predict(context.Background(), exampleQuery())
	require.NoError(t, err)

	assert.Equal(t, 2, res.SimilarEventsFound)
	assert.Equal(t, 40.0, res.PredictedWasteKg)
	assert.Equal(t, WasteMedium, res.WasteLevel)
	assert.Equal(t, "Low", res.WasteCategory)
	assert.Equal(t, 50.0, res.Confidence)
	assert.Empty(t, res.Error)
	assert.Equal(t, 1, metrics.broadMatches)
}

func TestSimilarityPredictor_Deterministic(t *testing.T) {
	src := &StaticSource{Records: []dataset.EventRecord{
		event("Restaurant", "Mumbai", "Friday", "Veg", "Winter", 150, 40, "High"),
		event("Restaurant", "Mumbai", "Friday", "Veg", "Winter", 170, 22, "Medium"),
		event("Restaurant", "Mumbai", "Friday", "Veg", "Winter", 130, 35, "Medium"),
	}}
	p := NewSimilarityPredictor(src, nil)

	first, err := p.Predict(context.Background(), exampleQuery())
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := p.Predict(context.Background(), exampleQuery())
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, 6, src.Calls)
	assert.Equal(t, 66.7, first.Confidence)
}

func TestSimilarityPredictor_FetchFailure(t *testing.T) {
	src := &StaticSource{Err: fmt.Errorf("%w: connection refused", dataset.ErrUnavailable)}
	metrics := &MockMetrics{}
	p := NewSimilarityPredictor(src, metrics)

	res, err := p.Predict(context.Background(), exampleQuery())
	require.NoError(t, err)
	assert.Equal(t, UnavailableResult(common.ErrMsgDatasetLoad), res)
	assert.True(t, res.Unavailable())
	assert.Equal(t, 1, metrics.fetchFailures)
	assert.Equal(t, 0, metrics.predictions)

	data, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"error": "Could not load dataset"}`, string(data))
}

func TestResult_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(DefaultResult(common.ErrMsgNoSimilarData))
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Equal(t, 25.0, fields["predicted_waste_kg"])
	assert.Equal(t, true, fields["alert_needed"])
	assert.Equal(t, common.ErrMsgNoSimilarData, fields["error"])
	assert.NotContains(t, fields, "prediction_factors")
	assert.False(t, DefaultResult("x").Unavailable())
}

func TestSimilarityPredictor_ParseFailure(t *testing.T) {
	bad := event("Restaurant", "Mumbai", "Friday", "Veg", "Winter", 150, 40, "High")
	bad.Date = "not a date"
	p := NewSimilarityPredictor(&StaticSource{Records: []dataset.EventRecord{bad}}, nil)

	_, err := p.Predict(context.Background(), exampleQuery())
	assert.Error(t, err)

	schemaErr := &StaticSource{Err: fmt.Errorf("%w: leftover_food_kg", dataset.ErrMissingColumn)}
	_, err = NewSimilarityPredictor(schemaErr, nil).Predict(context.Background(), exampleQuery())
	assert.ErrorIs(t, err, dataset.ErrMissingColumn)
}

func TestQuery_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Query)
	}{
		{"zero customers", func(q *Query) { q.AvgDailyCustomers = 0 }},
		{"negative customers", func(q *Query) { q.AvgDailyCustomers = -3 }},
		{"NaN customers", func(q *Query) { q.AvgDailyCustomers = math.NaN() }},
		{"infinite customers", func(q *Query) { q.AvgDailyCustomers = math.Inf(1) }},
		{"empty city", func(q *Query) { q.City = "" }},
		{"empty season", func(q *Query) { q.Season = "" }},
	}

	src := &StaticSource{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := exampleQuery()
			tt.modify(&q)
			_, err := NewSimilarityPredictor(src, nil).Predict(context.Background(), q)
			assert.ErrorIs(t, err, ErrInvalidQuery)
		})
	}
	assert.Equal(t, 0, src.Calls)
	assert.NoError(t, exampleQuery().Validate())
}

func TestLevelFor_Boundaries(t *testing.T) {
	tests := []struct {
		kg    float64
		level WasteLevel
		alert bool
	}{
		{50, WasteMedium, true},
		{50.01, WasteHigh, true},
		{20, WasteLow, false},
		{20.01, WasteMedium, true},
		{0, WasteLow, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.level, LevelFor(tt.kg), "kg=%v", tt.kg)
		assert.Equal(t, tt.alert, LevelFor(tt.kg).Alert(), "kg=%v", tt.kg)
	}
}

func TestEstimate_EdgeCases(t *testing.T) {
	rowsOf := func(records ...dataset.EventRecord) []dataset.EventRecord { return records }

	t.Run("zero baseline customers keeps ratio 1", func(t *testing.T) {
		src := &StaticSource{Records: rowsOf(
			event("Restaurant", "Mumbai", "Friday", "Veg", "Winter", 0, 30, "Medium"),
		)}
		res, err := NewSimilarityPredictor(src, nil).Predict(context.Background(), exampleQuery())
		require.NoError(t, err)
		assert.Equal(t, 30.0, res.PredictedWasteKg)
		assert.Equal(t, 75.0, res.EstimatedServings)
	})

	t.Run("missing values are skipped in means", func(t *testing.T) {
		src := &StaticSource{Records: rowsOf(
			event("Restaurant", "Mumbai", "Friday", "Veg", "Winter", 100, 30, "Medium"),
			event("Restaurant", "Mumbai", "Friday", "Veg", "Winter", math.NaN(), math.NaN(), "Medium"),
		)}
		res, err := NewSimilarityPredictor(src, nil).Predict(context.Background(), exampleQuery())
		require.NoError(t, err)
		assert.Equal(t, 60.0, res.PredictedWasteKg)
		assert.Equal(t, 2, res.SimilarEventsFound)
	})

	t.Run("no usable leftover values", func(t *testing.T) {
		src := &StaticSource{Records: rowsOf(
			event("Restaurant", "Mumbai", "Friday", "Veg", "Winter", 100, math.NaN(), "Medium"),
		)}
		res, err := NewSimilarityPredictor(src, nil).Predict(context.Background(), exampleQuery())
		require.NoError(t, err)
		assert.Equal(t, DefaultResult(common.ErrMsgNoWasteData), res)
	})

	t.Run("mode ties go to first seen", func(t *testing.T) {
		src := &StaticSource{Records: rowsOf(
			event("Restaurant", "Mumbai", "Friday", "Veg", "Winter", 200, 10, "Low"),
			event("Restaurant", "Mumbai", "Friday", "Veg", "Winter", 200, 10, "High"),
			event("Restaurant", "Mumbai", "Friday", "Veg", "Winter", 200, 10, "High"),
			event("Restaurant", "Mumbai", "Friday", "Veg", "Winter", 200, 10, "Low"),
			event("Restaurant", "Mumbai", "Friday", "Veg", "Winter", 200, 10, ""),
		)}
		res, err := NewSimilarityPredictor(src, nil).Predict(context.Background(), exampleQuery())
		require.NoError(t, err)
		assert.Equal(t, "Low", res.WasteCategory)
		assert.Equal(t, 40.0, res.Confidence)
		assert.Equal(t, WasteLow, res.WasteLevel)
		assert.False(t, res.AlertNeeded)
	})
}

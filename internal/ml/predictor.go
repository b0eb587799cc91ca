package ml

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/mandrita16/WastePrediction/internal/common"
	"github.com/mandrita16/WastePrediction/internal/dataset"
	"github.com/mandrita16/WastePrediction/internal/features"
	"github.com/rs/zerolog/log"
)

// ErrInvalidQuery is returned for queries that cannot be matched or scaled.
var ErrInvalidQuery = errors.New("ml: invalid query")

// MetricsInterface defines metrics methods needed by the predictor
type MetricsInterface interface {
	PredictionsInc()
	FetchFailuresInc()
	BroadMatchInc()
	DefaultResultInc()
	LatencyObserve(float64)
	PredictedWasteObserve(float64)
}

// Query describes a planned event.
type Query struct {
	EstablishmentType string  `json:"establishment_type"`
	City              string  `json:"city"`
	DayOfWeek         string  `json:"day_of_week"`
	SpecialEvent      string  `json:"special_event"`
	AvgDailyCustomers float64 `json:"avg_daily_customers"`
	AvgMealPrice      float64 `json:"avg_meal_price"`
	FoodType          string  `json:"food_type"`
	Season            string  `json:"season"`

	// Event plan, read by PlanningEstimator only.
	EventType           string  `json:"event_type,omitempty"`
	CuisineType         string  `json:"cuisine_type,omitempty"`
	MenuItems           string  `json:"menu_items,omitempty"` // comma separated
	ServingsPlanned     float64 `json:"servings_planned,omitempty"`
	ExpectedGuests      float64 `json:"expected_guests,omitempty"`
	EventDuration       float64 `json:"event_duration,omitempty"` // hours
	MealType            string  `json:"meal_type,omitempty"`
	PastWastePercentage float64 `json:"past_waste_percentage,omitempty"`
	SpecialOccasion     bool    `json:"special_occasion,omitempty"`
	ServingStyle        string  `json:"serving_style,omitempty"`
	PortionSize         string  `json:"portion_size,omitempty"`
}

// Validate rejects empty attributes and non-positive customer counts.
func (q Query) Validate() error {
	fields := []struct{ name, value string }{
		{common.ColEstablishmentType, q.EstablishmentType},
		{common.ColCity, q.City},
		{common.ColDayOfWeek, q.DayOfWeek},
		{common.ColSpecialEvent, q.SpecialEvent},
		{common.ColFoodType, q.FoodType},
		{common.ColSeason, q.Season},
	}
	for _, f := range fields {
		if f.value == "" {
			return fmt.Errorf("%w: %s is empty", ErrInvalidQuery, f.name)
		}
	}
	if math.IsNaN(q.AvgDailyCustomers) || math.IsInf(q.AvgDailyCustomers, 0) || q.AvgDailyCustomers <= 0 {
		return fmt.Errorf("%w: %s must be positive, got %v", ErrInvalidQuery, common.ColAvgDailyCustomers, q.AvgDailyCustomers)
	}
	return nil
}

// WasteLevel buckets a predicted waste weight.
type WasteLevel string

const (
	WasteLow    WasteLevel = "Low"
	WasteMedium WasteLevel = "Medium"
	WasteHigh   WasteLevel = "High"
)

// LevelFor classifies kg: above 50 is High, above 20 is Medium.
func LevelFor(kg float64) WasteLevel {
	switch {
	case kg > common.HighWasteKg:
		return WasteHigh
	case kg > common.MediumWasteKg:
		return WasteMedium
	default:
		return WasteLow
	}
}

// Alert reports whether the level needs operator attention.
func (l WasteLevel) Alert() bool {
	return l == WasteHigh || l == WasteMedium
}

// Result is the outcome of one prediction.
type Result struct {
	PredictedWasteKg   float64    `json:"predicted_waste_kg"`
	WasteCategory      string     `json:"waste_category,omitempty"`
	WasteLevel         WasteLevel `json:"waste_level,omitempty"`
	Confidence         float64    `json:"confidence"`
	AlertNeeded        bool       `json:"alert_needed"`
	EstimatedServings  float64    `json:"estimated_servings"`
	SimilarEventsFound int        `json:"similar_events_found"`
	Error              string     `json:"error,omitempty"`

	PredictionFactors *PredictionFactors `json:"prediction_factors,omitempty"`
	Recommendations   *Recommendations   `json:"recommendations,omitempty"`

	unavailable bool
}

// UnavailableResult reports that no estimate was attempted because the
// dataset could not be acquired. It encodes as {"error": message} alone.
func UnavailableResult(message string) Result {
	return Result{Error: message, unavailable: true}
}

// Unavailable reports whether r carries only an acquisition error.
func (r Result) Unavailable() bool {
	return r.unavailable
}

// MarshalJSON omits the estimate fields of an unavailable result.
func (r Result) MarshalJSON() ([]byte, error) {
	if r.unavailable {
		return json.Marshal(struct {
			Error string `json:"error"`
		}{r.Error})
	}
	type plain Result
	return json.Marshal(plain(r))
}

// SimilarityPredictor estimates waste from historically similar events.
// Every call reloads and re-engineers the dataset from its source.
type SimilarityPredictor struct {
	source  dataset.Source
	metrics MetricsInterface
}

// NewSimilarityPredictor creates a predictor over src. metrics may be nil.
func NewSimilarityPredictor(src dataset.Source, metrics MetricsInterface) *SimilarityPredictor {
	return &SimilarityPredictor{source: src, metrics: metrics}
}

// Predict estimates the waste of q. Acquisition failures produce a result
// carrying only Error; malformed datasets and invalid queries return an
// error.
func (p *SimilarityPredictor) Predict(ctx context.Context, q Query) (Result, error) {
	if err := q.Validate(); err != nil {
		return Result{}, err
	}

	start := time.Now()
	defer func() {
		if p.metrics != nil {
			p.metrics.LatencyObserve(time.Since(start).Seconds())
		}
	}()

	records, err := p.source.Load(ctx)
	if err != nil {
		if errors.Is(err, dataset.ErrUnavailable) {
			log.Error().Err(err).Msg("Dataset unavailable, returning error result")
			if p.metrics != nil {
				p.metrics.FetchFailuresInc()
			}
			return UnavailableResult(common.ErrMsgDatasetLoad), nil
		}
		return Result{}, err
	}

	rows, err := features.Build(records)
	if err != nil {
		return Result{}, fmt.Errorf("engineer features: %w", err)
	}

	res, tier := estimate(rows, q)
	if p.metrics != nil {
		p.metrics.PredictionsInc()
		if tier == matchBroad {
			p.metrics.BroadMatchInc()
		}
		if res.Error != "" {
			p.metrics.DefaultResultInc()
		} else {
			p.metrics.PredictedWasteObserve(res.PredictedWasteKg)
		}
	}
	return res, nil
}

// MatchExact selects rows equal to q on establishment type, city, day,
// food type and season.
func MatchExact(rows []features.Row, q Query) []features.Row {
	var out []features.Row
	for _, r := range rows {
		if r.EstablishmentType == q.EstablishmentType && r.City == q.City &&
			r.DayOfWeek == q.DayOfWeek && r.FoodType == q.FoodType && r.Season == q.Season {
			out = append(out, r)
		}
	}
	return out
}

// MatchBroad selects rows equal to q on establishment type and food type.
func MatchBroad(rows []features.Row, q Query) []features.Row {
	var out []features.Row
	for _, r := range rows {
		if r.EstablishmentType == q.EstablishmentType && r.FoodType == q.FoodType {
			out = append(out, r)
		}
	}
	return out
}

const (
	matchExact = "exact"
	matchBroad = "broad"
	matchNone  = "none"
)

// Estimate runs the similarity estimate of q over already engineered
// rows. It is deterministic for a fixed snapshot.
func Estimate(rows []features.Row, q Query) Result {
	res, _ := estimate(rows, q)
	return res
}

func estimate(rows []features.Row, q Query) (Result, string) {
	matched := MatchExact(rows, q)
	tier := matchExact
	if len(matched) == 0 {
		matched = MatchBroad(rows, q)
		tier = matchBroad
	}
	if len(matched) == 0 {
		log.Debug().Str("establishment_type", q.EstablishmentType).Str("food_type", q.FoodType).Msg("No similar events")
		return DefaultResult(common.ErrMsgNoSimilarData), matchNone
	}

	avgWaste, ok := meanOf(matched, func(r features.Row) float64 { return r.LeftoverFoodKg })
	if !ok {
		return DefaultResult(common.ErrMsgNoWasteData), tier
	}

	ratio := 1.0
	if baseline, ok := meanOf(matched, func(r features.Row) float64 { return r.AvgDailyCustomers }); ok && baseline > 0 {
		ratio = q.AvgDailyCustomers / baseline
	}
	predicted := avgWaste * ratio

	category, count := modeCategory(matched)
	level := LevelFor(predicted)

	log.Debug().
		Str("tier", tier).
		Int("matches", len(matched)).
		Float64("predicted_kg", predicted).
		Msg("Similarity estimate")

	return Result{
		PredictedWasteKg:   roundTo(predicted, 2),
		WasteCategory:      category,
		WasteLevel:         level,
		Confidence:         roundTo(float64(count)/float64(len(matched))*100, 1),
		AlertNeeded:        level.Alert(),
		EstimatedServings:  math.Round(predicted * common.ServingsPerKg),
		SimilarEventsFound: len(matched),
	}, tier
}

// meanOf averages the non-missing values of field.
func meanOf(rows []features.Row, field func(features.Row) float64) (float64, bool) {
	sum, n := 0.0, 0
	for _, r := range rows {
		if v := field(r); !dataset.Missing(v) {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// modeCategory returns the most frequent waste category; ties go to the
// category seen first.
func modeCategory(rows []features.Row) (string, int) {
	counts := map[string]int{}
	var order []string
	for _, r := range rows {
		if !r.HasLabel() {
			continue
		}
		if counts[r.WasteCategory] == 0 {
			order = append(order, r.WasteCategory)
		}
		counts[r.WasteCategory]++
	}
	best, bestCount := "", 0
	for _, c := range order {
		if counts[c] > bestCount {
			best, bestCount = c, counts[c]
		}
	}
	return best, bestCount
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

package ml

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/mandrita16/WastePrediction/internal/common"
	"github.com/rs/zerolog/log"
)

// Planning heuristics
const (
	kgPerServing         = 0.4
	consumptionWasteRate = 0.08 // share of consumed servings left on plates
	assumedAttendance    = 0.85 // when only planned servings are known
	servingsPerGuest     = 1.2  // when only the guest count is known
	guestSurplusRate     = 0.1
	dailySurplusRate     = 0.12 // when neither is known
	fallbackCustomers    = 100
	minPlannedWasteKg    = 1.0

	planningBaseConfidence = 75.0
	planningMaxConfidence  = 95.0

	planningHighServings   = 50
	planningMediumServings = 25
	planningHighWasteKg    = 20.0
	planningMediumWasteKg  = 10.0
)

var (
	eventTypeMultipliers = map[string]float64{
		"Wedding":              1.4,
		"Buffet":               1.6,
		"Conference":           1.2,
		"Hostel Mess":          1.1,
		"Office Canteen":       1.0,
		"Birthday Party":       1.3,
		"Corporate Event":      1.2,
		"Festival Celebration": 1.5,
	}
	servingStyleMultipliers = map[string]float64{
		"Buffet":          1.4,
		"Family Style":    1.2,
		"Counter Service": 1.1,
		"Served Plates":   0.9,
	}
	portionMultipliers = map[string]float64{
		"Extra Large": 1.3,
		"Large":       1.15,
		"Medium":      1.0,
		"Small":       0.85,
	}
	cuisineMultipliers = map[string]float64{
		"Indian":       1.05,
		"Continental":  1.2,
		"Chinese":      1.15,
		"Mixed":        1.25,
		"Italian":      1.1,
		"South Indian": 1.0,
		"North Indian": 1.05,
	}
	mealTypeMultipliers = map[string]float64{
		"Dinner":    1.2,
		"Lunch":     1.0,
		"Breakfast": 0.8,
		"Snacks":    0.6,
		"All Day":   1.3,
	}
)

// multiplier looks key up in table, falling back to def for unknown keys.
func multiplier(table map[string]float64, key string, def float64) float64 {
	if m, ok := table[key]; ok {
		return m
	}
	return def
}

// PredictionFactors rates how much each input pushed the estimate.
type PredictionFactors struct {
	EventTypeImpact         string `json:"event_type_impact"`
	ServingStyleImpact      string `json:"serving_style_impact"`
	GuestPlanningImpact     string `json:"guest_planning_impact"`
	CuisineComplexityImpact string `json:"cuisine_complexity_impact"`
	HistoricalAccuracy      string `json:"historical_accuracy"`
	EstablishmentImpact     string `json:"establishment_impact"`
	CustomerImpact          string `json:"customer_impact"`
	EventImpact             string `json:"event_impact"`
	SeasonalImpact          string `json:"seasonal_impact"`
}

// Recommendations are operator hints derived from the estimate.
type Recommendations struct {
	Primary             string `json:"primary"`
	ServingOptimization string `json:"serving_optimization"`
	PortionAdjustment   string `json:"portion_adjustment"`
	TimingSuggestion    string `json:"timing_suggestion"`
}

// PlanningEstimator estimates surplus food from the event plan itself:
// planned servings against expected guests, scaled by multipliers for the
// event, serving style, portions, cuisine, meal, duration, past waste and
// menu size. It does not read the historical dataset.
type PlanningEstimator struct {
	metrics MetricsInterface
}

// NewPlanningEstimator creates an estimator. metrics may be nil.
func NewPlanningEstimator(metrics MetricsInterface) *PlanningEstimator {
	return &PlanningEstimator{metrics: metrics}
}

// Predict estimates the waste of q from its planning inputs.
func (p *PlanningEstimator) Predict(ctx context.Context, q Query) (Result, error) {
	if err := q.validatePlanning(); err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	start := time.Now()
	res := Plan(q)
	if p.metrics != nil {
		p.metrics.PredictionsInc()
		p.metrics.PredictedWasteObserve(res.PredictedWasteKg)
		p.metrics.LatencyObserve(time.Since(start).Seconds())
	}

	log.Debug().
		Float64("predicted_kg", res.PredictedWasteKg).
		Float64("surplus_servings", res.EstimatedServings).
		Str("level", string(res.WasteLevel)).
		Msg("Planning estimate")
	return res, nil
}

func (q Query) validatePlanning() error {
	numbers := []struct {
		name  string
		value float64
	}{
		{"servings_planned", q.ServingsPlanned},
		{"expected_guests", q.ExpectedGuests},
		{"event_duration", q.EventDuration},
		{"past_waste_percentage", q.PastWastePercentage},
		{common.ColAvgDailyCustomers, q.AvgDailyCustomers},
	}
	for _, n := range numbers {
		if math.IsNaN(n.value) || math.IsInf(n.value, 0) || n.value < 0 {
			return fmt.Errorf("%w: %s must be a non-negative number, got %v", ErrInvalidQuery, n.name, n.value)
		}
	}
	return nil
}

// surplusServings estimates leftover servings from whichever of planned
// servings and expected guests are known.
func surplusServings(q Query) float64 {
	planned, guests := q.ServingsPlanned, q.ExpectedGuests
	switch {
	case planned > 0 && guests > 0:
		return math.Max(planned-guests, 0) + math.Min(planned, guests)*consumptionWasteRate
	case planned > 0:
		attending := planned * assumedAttendance
		return planned - attending + attending*consumptionWasteRate
	case guests > 0:
		return guests * servingsPerGuest * guestSurplusRate
	default:
		customers := q.AvgDailyCustomers
		if customers <= 0 {
			customers = fallbackCustomers
		}
		return customers * dailySurplusRate
	}
}

func menuItemCount(menu string) int {
	if menu == "" {
		return 0
	}
	return strings.Count(menu, ",") + 1
}

func hasSpecialEvent(event string) bool {
	return event != "" && event != common.NoSpecialEvent
}

// Plan computes the planning estimate of q. It is deterministic.
func Plan(q Query) Result {
	surplus := surplusServings(q)
	kg := surplus * kgPerServing

	kg *= multiplier(eventTypeMultipliers, q.EventType, 1.2)
	kg *= multiplier(servingStyleMultipliers, q.ServingStyle, 1.1)
	kg *= multiplier(portionMultipliers, q.PortionSize, 1.0)
	kg *= multiplier(cuisineMultipliers, q.CuisineType, 1.1)
	kg *= multiplier(mealTypeMultipliers, q.MealType, 1.0)

	switch {
	case q.EventDuration > 4:
		kg *= 1.2
	case q.EventDuration > 2:
		kg *= 1.1
	}
	if q.PastWastePercentage > 0 {
		// 10% past waste is neutral, capped at double.
		kg *= math.Min(q.PastWastePercentage/10, 2)
	}
	if q.SpecialOccasion {
		kg *= 1.3
	}
	switch items := menuItemCount(q.MenuItems); {
	case items > 8:
		kg *= 1.2
	case items > 5:
		kg *= 1.1
	}
	switch q.DayOfWeek {
	case "Friday", "Saturday", "Sunday":
		kg *= 1.15
	}
	if hasSpecialEvent(q.SpecialEvent) {
		kg *= 1.25
	}
	if q.FoodType == "Non-Veg" {
		kg *= 1.1
	}

	predicted := math.Max(roundTo(kg, 2), minPlannedWasteKg)
	servings := math.Round(surplus)

	level := WasteLow
	switch {
	case servings > planningHighServings || predicted > planningHighWasteKg:
		level = WasteHigh
	case servings > planningMediumServings || predicted > planningMediumWasteKg:
		level = WasteMedium
	}

	return Result{
		PredictedWasteKg:  predicted,
		WasteLevel:        level,
		Confidence:        planningConfidence(q),
		AlertNeeded:       level.Alert(),
		EstimatedServings: servings,
		PredictionFactors: planningFactors(q),
		Recommendations:   planningRecommendations(q, level, servings),
	}
}

// planningConfidence grows with the detail of the plan.
func planningConfidence(q Query) float64 {
	c := planningBaseConfidence
	if q.EventType != "" {
		c += 5
	}
	if q.ServingsPlanned > 0 && q.ExpectedGuests > 0 {
		c += 8
	}
	if q.PastWastePercentage > 0 {
		c += 7
	}
	if q.MenuItems != "" {
		c += 3
	}
	if q.ServingStyle != "" {
		c += 4
	}
	if q.EventDuration > 0 {
		c += 3
	}
	return roundTo(math.Min(c, planningMaxConfidence), 1)
}

func impact(high bool, otherwise string) string {
	if high {
		return "High"
	}
	return otherwise
}

func planningFactors(q Query) *PredictionFactors {
	historical := "Not Available"
	if q.PastWastePercentage > 0 {
		historical = "Available"
	}
	seasonal := "Low"
	if q.Season == "Winter" {
		seasonal = "Medium"
	}
	overPlanned := q.ServingsPlanned > 0 && q.ExpectedGuests > 0 && q.ServingsPlanned/q.ExpectedGuests > 1.15

	return &PredictionFactors{
		EventTypeImpact:         impact(eventTypeMultipliers[q.EventType] > 1.3, "Medium"),
		ServingStyleImpact:      impact(q.ServingStyle == "Buffet", "Medium"),
		GuestPlanningImpact:     impact(overPlanned, "Low"),
		CuisineComplexityImpact: impact(q.CuisineType == "Mixed", "Medium"),
		HistoricalAccuracy:      historical,
		EstablishmentImpact:     impact(q.EstablishmentType == "Hotel", "Medium"),
		CustomerImpact:          impact(q.AvgDailyCustomers > 200, "Medium"),
		EventImpact:             impact(hasSpecialEvent(q.SpecialEvent), "Low"),
		SeasonalImpact:          seasonal,
	}
}

func planningRecommendations(q Query, level WasteLevel, servings float64) *Recommendations {
	r := &Recommendations{
		Primary:             fmt.Sprintf("Monitor closely - %.0f surplus servings expected", servings),
		ServingOptimization: "Current serving style is optimal",
		PortionAdjustment:   "Portion sizes are appropriate",
		TimingSuggestion:    "Standard serving schedule recommended",
	}
	if level == WasteHigh {
		r.Primary = fmt.Sprintf("Alert NGOs immediately - %.0f surplus servings expected", servings)
	}
	if q.ServingStyle == "Buffet" {
		r.ServingOptimization = "Consider switching to served plates to reduce waste"
	}
	if q.PortionSize == "Large" || q.PortionSize == "Extra Large" {
		r.PortionAdjustment = "Consider reducing portion sizes by 10-15%"
	}
	if q.EventDuration > 4 {
		r.TimingSuggestion = "Plan staggered serving to maintain freshness"
	}
	return r
}

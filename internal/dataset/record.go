// Package dataset reads the historical event dataset used for waste prediction.
// Records come from a CSV (or TSV) file on disk or from an HTTP(S) URL; both
// paths produce the same typed EventRecord values.
package dataset

import "math"

// EventRecord is one row of the waste dataset.
// Missing categorical values are empty strings; missing or non-numeric
// numeric values are NaN.
type EventRecord struct {
	EstablishmentType string  `json:"establishment_type"`
	City              string  `json:"city"`
	DayOfWeek         string  `json:"day_of_week"`
	SpecialEvent      string  `json:"special_event"`
	FoodType          string  `json:"food_type"`
	Season            string  `json:"season"`
	AvgDailyCustomers float64 `json:"avg_daily_customers"`
	AvgMealPrice      float64 `json:"avg_meal_price"`
	LeftoverFoodKg    float64 `json:"leftover_food_kg"`
	Date              string  `json:"date"`
	WasteCategory     string  `json:"predicted_waste_category"`
}

// Missing reports whether a numeric value carries the missing marker.
func Missing(v float64) bool {
	return math.IsNaN(v)
}

// HasLabel reports whether the record carries a waste category.
func (r EventRecord) HasLabel() bool {
	return r.WasteCategory != ""
}

// Package features derives the engineered columns used by training and
// prediction from raw event records.
package features

import (
	"errors"
	"fmt"
	"time"

	"github.com/mandrita16/WastePrediction/internal/common"
	"github.com/mandrita16/WastePrediction/internal/dataset"
)

// ErrBadDate is returned when a record's date cannot be parsed.
var ErrBadDate = errors.New("features: unparseable date")

// dateLayouts are tried in order.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"01/02/2006",
	"2006/01/02",
}

// Row is an event record plus its derived features.
type Row struct {
	dataset.EventRecord

	EventDate         time.Time
	Month             int
	DayOfMonth        int
	IsWeekend         bool
	PricePerCustomer  float64
	WastePerCustomer  float64
	EstablishmentFood Text
	CitySeason        Text
	HasEvent          bool
}

// Build derives features for every record. The first unparseable date
// aborts the whole build.
func Build(records []dataset.EventRecord) ([]Row, error) {
	rows := make([]Row, len(records))
	for i, rec := range records {
		row, err := Derive(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		rows[i] = row
	}
	return rows, nil
}

// Rebuild recomputes derived columns from the raw fields embedded in rows.
// Applying it to its own output yields identical rows.
func Rebuild(rows []Row) ([]Row, error) {
	records := make([]dataset.EventRecord, len(rows))
	for i, r := range rows {
		records[i] = r.EventRecord
	}
	return Build(records)
}

// Derive computes the derived features of one record.
func Derive(rec dataset.EventRecord) (Row, error) {
	date, err := ParseDate(rec.Date)
	if err != nil {
		return Row{}, err
	}

	return Row{
		EventRecord:       rec,
		EventDate:         date,
		Month:             int(date.Month()),
		DayOfMonth:        date.Day(),
		IsWeekend:         IsWeekend(rec.DayOfWeek),
		PricePerCustomer:  Ratio(rec.AvgMealPrice, rec.AvgDailyCustomers),
		WastePerCustomer:  Ratio(rec.LeftoverFoodKg, rec.AvgDailyCustomers),
		EstablishmentFood: Join(rec.EstablishmentType, rec.FoodType),
		CitySeason:        Join(rec.City, rec.Season),
		HasEvent:          rec.SpecialEvent != "" && rec.SpecialEvent != common.NoSpecialEvent,
	}, nil
}

// ParseDate accepts the date layouts seen in exported datasets.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrBadDate, s)
}

// IsWeekend reports whether day names Saturday or Sunday.
func IsWeekend(day string) bool {
	return day == "Saturday" || day == "Sunday"
}

package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/mandrita16/WastePrediction/internal/common"
	"github.com/mandrita16/WastePrediction/internal/dataset"
)

var (
	establishments = map[string]float64{"Restaurant": 0.12, "Hotel": 0.18, "Cafe": 0.06, "Canteen": 0.15, "Caterer": 0.22}
	cities         = []string{"Mumbai", "Delhi", "Bangalore", "Chennai", "Kolkata", "Pune"}
	events         = map[string]float64{"None": 1, "Wedding": 1.8, "Festival": 1.5, "Conference": 1.3, "Holiday": 1.2}
	foods          = map[string]float64{"Veg": 0.9, "Non-Veg": 1.15, "Mixed": 1}
	seasons        = []string{"Winter", "Summer", "Monsoon", "Autumn"}
)

func main() {
	var (
		output = flag.String("output", "food_waste_data.csv", "Output CSV path")
		rows   = flag.Int("rows", 2000, "Number of events to generate")
		seed   = flag.Int64("seed", 42, "Random seed")
		start  = flag.String("start", "2023-01-01", "First event date (YYYY-MM-DD)")
	)
	flag.Parse()

	startTime, err := time.Parse("2006-01-02", *start)
	if err != nil {
		log.Fatalf("Invalid start date: %v", err)
	}

	fmt.Printf("Generating sample waste data...\n")
	fmt.Printf("  Rows: %d\n", *rows)
	fmt.Printf("  Output: %s\n", *output)

	file, err := os.Create(*output)
	if err != nil {
		log.Fatalf("Failed to create output: %v", err)
	}
	defer file.Close()

	counts, err := generateWasteData(file, *rows, startTime, rand.New(rand.NewSource(*seed)))
	if err != nil {
		log.Fatalf("Failed to generate data: %v", err)
	}

	fmt.Printf("  Categories: Low=%d Medium=%d High=%d\n", counts["Low"], counts["Medium"], counts["High"])
	fmt.Println("Sample data generation completed!")
}

func keys(m map[string]float64) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// generateWasteData writes rows synthetic events in the dataset schema and
// returns how many fell into each waste category.
func generateWasteData(w io.Writer, rows int, start time.Time, rng *rand.Rand) (map[string]int, error) {
	writer := csv.NewWriter(w)

	if err := writer.Write(dataset.RequiredColumns); err != nil {
		return nil, err
	}

	estNames, eventNames, foodNames := keys(establishments), keys(events), keys(foods)
	counts := map[string]int{}
	for i := 0; i < rows; i++ {
		date := start.AddDate(0, 0, i%730)
		est := estNames[rng.Intn(len(estNames))]
		event := common.NoSpecialEvent
		if rng.Float64() < 0.35 {
			event = eventNames[rng.Intn(len(eventNames))]
		}
		food := foodNames[rng.Intn(len(foodNames))]

		customers := math.Round(60 + rng.Float64()*340)
		price := math.Round(80 + rng.Float64()*900)
		weekend := 1.0
		if day := date.Weekday(); day == time.Saturday || day == time.Sunday {
			weekend = 1.25
		}
		leftover := customers * establishments[est] * events[event] * foods[food] * weekend * (0.1 + rng.Float64()*0.35)
		leftover = math.Max(0, math.Round((leftover+rng.NormFloat64()*2)*100)/100)

		category := "Low"
		switch {
		case leftover > common.HighWasteKg:
			category = "High"
		case leftover > common.MediumWasteKg:
			category = "Medium"
		}
		counts[category]++

		season := seasons[(int(date.Month())%12)/3]
		record := map[string]string{
			common.ColEstablishmentType: est,
			common.ColCity:              cities[rng.Intn(len(cities))],
			common.ColDayOfWeek:         date.Weekday().String(),
			common.ColSpecialEvent:      event,
			common.ColFoodType:          food,
			common.ColSeason:            season,
			common.ColAvgDailyCustomers: strconv.FormatFloat(customers, 'f', -1, 64),
			common.ColAvgMealPrice:      strconv.FormatFloat(price, 'f', -1, 64),
			common.ColLeftoverFoodKg:    strconv.FormatFloat(leftover, 'f', 2, 64),
			common.ColDate:              date.Format("2006-01-02"),
			common.ColWasteCategory:     category,
		}
		line := make([]string, len(dataset.RequiredColumns))
		for j, col := range dataset.RequiredColumns {
			line[j] = record[col]
		}
		if err := writer.Write(line); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	return counts, writer.Error()
}

package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/mandrita16/WastePrediction/internal/cfg"
	"github.com/mandrita16/WastePrediction/internal/dataset"
	"github.com/mandrita16/WastePrediction/internal/metrics"
	"github.com/mandrita16/WastePrediction/internal/ml"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	var q ml.Query
	flag.StringVar(&q.EstablishmentType, "establishment", "Restaurant", "Establishment type")
	flag.StringVar(&q.City, "city", "Mumbai", "City")
	flag.StringVar(&q.DayOfWeek, "day", "Friday", "Day of week")
	flag.StringVar(&q.SpecialEvent, "event", "Conference", "Special event, or None")
	flag.Float64Var(&q.AvgDailyCustomers, "customers", 200, "Expected daily customers")
	flag.Float64Var(&q.AvgMealPrice, "price", 500, "Average meal price")
	flag.StringVar(&q.FoodType, "food", "Veg", "Food type")
	flag.StringVar(&q.Season, "season", "Winter", "Season")

	flag.StringVar(&q.EventType, "event-type", "", "Event type, e.g. Wedding, Buffet, Conference (planning mode)")
	flag.StringVar(&q.CuisineType, "cuisine", "", "Cuisine type (planning mode)")
	flag.StringVar(&q.MenuItems, "menu", "", "Comma separated menu items (planning mode)")
	flag.Float64Var(&q.ServingsPlanned, "servings", 0, "Planned servings (planning mode)")
	flag.Float64Var(&q.ExpectedGuests, "guests", 0, "Expected guests (planning mode)")
	flag.Float64Var(&q.EventDuration, "duration", 0, "Event duration in hours (planning mode)")
	flag.StringVar(&q.MealType, "meal", "", "Meal type: Breakfast, Lunch, Dinner, Snacks, All Day (planning mode)")
	flag.Float64Var(&q.PastWastePercentage, "past-waste", 0, "Waste percentage of past similar events (planning mode)")
	flag.BoolVar(&q.SpecialOccasion, "occasion", false, "Special occasion (planning mode)")
	flag.StringVar(&q.ServingStyle, "serving-style", "", "Buffet, Family Style, Counter Service or Served Plates (planning mode)")
	flag.StringVar(&q.PortionSize, "portion", "", "Small, Medium, Large or Extra Large (planning mode)")

	mode := flag.String("mode", "similarity", "Estimator: similarity (historical dataset) or planning (event plan)")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("No .env file loaded")
	}

	config, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if *logLevel != "" {
		config.LogLevel = *logLevel
	}
	zerolog.SetGlobalLevel(config.Level())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	m := metrics.NewWrapper(metrics.NewWithRegistry(registry))

	var predictor ml.PredictorInterface
	switch *mode {
	case "similarity":
		var src dataset.Source
		if config.DatasetPath != "" {
			src = dataset.FileSource{Path: config.DatasetPath}
		} else {
			src = dataset.NewHTTPSource(config.DatasetURL, config.FetchTimeout)
		}
		predictor = ml.NewSimilarityPredictor(src, m)
	case "planning":
		predictor = ml.NewPlanningEstimator(m)
	default:
		log.Fatal().Str("mode", *mode).Msg("Unknown estimator mode")
	}

	result, err := predictor.Predict(ctx, q)
	if config.MetricsFile != "" {
		if werr := metrics.WriteTextfile(config.MetricsFile, registry); werr != nil {
			log.Error().Err(werr).Msg("Failed to write metrics")
		}
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Prediction failed")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		log.Fatal().Err(err).Msg("Failed to encode result")
	}
}

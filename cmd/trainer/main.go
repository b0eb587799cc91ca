package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/mandrita16/WastePrediction/internal/cfg"
	"github.com/mandrita16/WastePrediction/internal/dataset"
	"github.com/mandrita16/WastePrediction/internal/metrics"
	"github.com/mandrita16/WastePrediction/internal/pipeline"
	"github.com/mandrita16/WastePrediction/internal/storage"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	var (
		inputPath  = flag.String("input", "", "Dataset file (overrides DATASET_PATH and discovery)")
		modelPath  = flag.String("model", "", "Model artifact file (overrides MODEL_PATH)")
		reportPath = flag.String("report", "", "JSON training report (overrides REPORT_PATH)")
		logLevel   = flag.String("log-level", "", "Log level: debug, info, warn, error")
	)
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("No .env file loaded")
	}

	config, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if *inputPath != "" {
		config.DatasetPath = *inputPath
	}
	if *modelPath != "" {
		config.ModelPath = *modelPath
	}
	if *reportPath != "" {
		config.ReportPath = *reportPath
	}
	if *logLevel != "" {
		config.LogLevel = *logLevel
	}
	zerolog.SetGlobalLevel(config.Level())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, name, err := trainingSource(&config)
	if err != nil {
		log.Fatal().Err(err).Msg("No training data")
	}

	store, err := storage.New(config.ModelPath)
	if err != nil {
		log.Fatal().Err(err).Str("model_path", config.ModelPath).Msg("Failed to open model store")
	}
	defer store.Close()

	registry := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(registry)

	log.Info().
		Str("dataset", name).
		Str("model_path", config.ModelPath).
		Float64("noise_rate", config.NoiseRate).
		Int64("seed", config.Seed).
		Msg("Starting training")

	outcome, err := pipeline.New(src, name, store, pipeline.ConfigFrom(&config), metrics.NewWrapper(m)).Run(ctx)
	writeMetrics(config.MetricsFile, registry)
	if err != nil {
		store.Close()
		log.Fatal().Err(err).Msg("Training failed")
	}

	reporter := pipeline.NewReporter(outcome)
	reporter.PrintSummary(os.Stdout)
	if config.ReportPath != "" {
		if err := reporter.WriteJSON(config.ReportPath); err != nil {
			log.Error().Err(err).Msg("Failed to write training report")
		}
	}
}

// trainingSource picks the dataset: an explicit path, else the first
// tabular file in the input directory, else the dataset URL.
func trainingSource(config *cfg.Settings) (dataset.Source, string, error) {
	if config.DatasetPath != "" {
		return dataset.FileSource{Path: config.DatasetPath}, config.DatasetPath, nil
	}

	path, err := dataset.Discover(config.InputDir)
	if err == nil {
		return dataset.FileSource{Path: path}, path, nil
	}
	if !errors.Is(err, dataset.ErrNoInputFile) || config.DatasetURL == "" {
		return nil, "", err
	}

	log.Warn().Str("dir", config.InputDir).Str("url", config.DatasetURL).Msg("No local dataset found, fetching from URL")
	return dataset.NewHTTPSource(config.DatasetURL, config.FetchTimeout), config.DatasetURL, nil
}

func writeMetrics(path string, g prometheus.Gatherer) {
	if path == "" {
		return
	}
	if err := metrics.WriteTextfile(path, g); err != nil {
		log.Error().Err(err).Msg("Failed to write metrics")
	}
}

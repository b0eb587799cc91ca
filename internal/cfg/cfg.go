package cfg

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mandrita16/WastePrediction/internal/common"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

type Settings struct {
	DatasetURL   string
	DatasetPath  string
	InputDir     string
	ModelPath    string
	ReportPath   string
	MetricsFile  string
	NoiseRate    float64
	Seed         int64
	TestSize     float64
	CVFolds      int
	FetchTimeout time.Duration
	LogLevel     string
}

type ConfigFile struct {
	Dataset struct {
		URL      string `yaml:"url"`
		Path     string `yaml:"path"`
		InputDir string `yaml:"inputDir"`
		Timeout  string `yaml:"fetchTimeout"`
	} `yaml:"dataset"`

	Training struct {
		NoiseRate *float64 `yaml:"noiseRate"`
		Seed      int64    `yaml:"seed"`
		TestSize  float64  `yaml:"testSize"`
		CVFolds   int      `yaml:"cvFolds"`
	} `yaml:"training"`

	Output struct {
		ModelPath   string `yaml:"modelPath"`
		ReportPath  string `yaml:"reportPath"`
		MetricsFile string `yaml:"metricsFile"`
	} `yaml:"output"`

	System struct {
		LogLevel string `yaml:"logLevel"`
	} `yaml:"system"`
}

func Load() (Settings, error) {
	// Try to load from YAML file first
	if configPath := os.Getenv(common.EnvConfigFile); configPath != "" {
		return loadFromYAML(configPath)
	}

	// Fallback to environment variables
	return loadFromEnv()
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	timeout, err := time.ParseDuration(config.Dataset.Timeout)
	if err != nil {
		timeout = 30 * time.Second
	}

	// An explicit 0 in the file disables noise, so the pointer distinguishes it from "unset".
	noiseRate := common.DefaultNoiseRate
	if config.Training.NoiseRate != nil {
		noiseRate = *config.Training.NoiseRate
	}

	settings := Settings{
		DatasetURL:   getEnvOrDefault(common.EnvDatasetURL, orDefault(config.Dataset.URL, common.DefaultDatasetURL)),
		DatasetPath:  getEnvOrDefault(common.EnvDatasetPath, config.Dataset.Path),
		InputDir:     getEnvOrDefault(common.EnvInputDir, orDefault(config.Dataset.InputDir, common.DefaultInputDir)),
		ModelPath:    getEnvOrDefault(common.EnvModelPath, orDefault(config.Output.ModelPath, common.DefaultModelPath)),
		ReportPath:   getEnvOrDefault(common.EnvReportPath, config.Output.ReportPath),
		MetricsFile:  getEnvOrDefault(common.EnvMetricsFile, config.Output.MetricsFile),
		NoiseRate:    getFloatOrDefault(common.EnvNoiseRate, noiseRate),
		Seed:         getInt64FromEnvOrConfig(common.EnvSeed, config.Training.Seed, common.DefaultSeed),
		TestSize:     getFloatFromEnvOrConfig(common.EnvTestSize, config.Training.TestSize, common.DefaultTestSize),
		CVFolds:      getIntFromEnvOrConfig(common.EnvCVFolds, config.Training.CVFolds, common.DefaultCVFolds),
		FetchTimeout: getDurationOrDefault(common.EnvFetchTimeout, timeout),
		LogLevel:     getEnvOrDefault(common.EnvLogLevel, orDefault(config.System.LogLevel, common.DefaultLogLevel)),
	}

	// Validate configuration
	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func loadFromEnv() (Settings, error) {
	settings := Settings{
		DatasetURL:   getEnvOrDefault(common.EnvDatasetURL, common.DefaultDatasetURL),
		DatasetPath:  os.Getenv(common.EnvDatasetPath), // optional
		InputDir:     getEnvOrDefault(common.EnvInputDir, common.DefaultInputDir),
		ModelPath:    getEnvOrDefault(common.EnvModelPath, common.DefaultModelPath),
		ReportPath:   os.Getenv(common.EnvReportPath),  // optional
		MetricsFile:  os.Getenv(common.EnvMetricsFile), // optional
		NoiseRate:    getFloatOrDefault(common.EnvNoiseRate, common.DefaultNoiseRate),
		Seed:         getInt64OrDefault(common.EnvSeed, common.DefaultSeed),
		TestSize:     getFloatOrDefault(common.EnvTestSize, common.DefaultTestSize),
		CVFolds:      getIntOrDefault(common.EnvCVFolds, common.DefaultCVFolds),
		FetchTimeout: getDurationOrDefault(common.EnvFetchTimeout, 30*time.Second),
		LogLevel:     getEnvOrDefault(common.EnvLogLevel, common.DefaultLogLevel),
	}

	// Validate configuration
	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

// Level returns the parsed zerolog level, defaulting to info.
func (s *Settings) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(s.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getInt64OrDefault(key string, defaultValue int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getIntFromEnvOrConfig(key string, configValue, defaultValue int) int {
	if configValue != 0 {
		defaultValue = configValue
	}
	return getIntOrDefault(key, defaultValue)
}

func getInt64FromEnvOrConfig(key string, configValue, defaultValue int64) int64 {
	if configValue != 0 {
		defaultValue = configValue
	}
	return getInt64OrDefault(key, defaultValue)
}

func getFloatFromEnvOrConfig(key string, configValue, defaultValue float64) float64 {
	if configValue != 0 {
		defaultValue = configValue
	}
	return getFloatOrDefault(key, defaultValue)
}

// validateSettings performs validation of configuration values
func validateSettings(settings *Settings) error {
	if settings.DatasetURL == "" && settings.DatasetPath == "" {
		return fmt.Errorf("either a dataset URL or a dataset path is required")
	}
	if settings.DatasetURL != "" &&
		!strings.HasPrefix(settings.DatasetURL, "http://") && !strings.HasPrefix(settings.DatasetURL, "https://") {
		return fmt.Errorf("dataset URL must use http or https, got %q", settings.DatasetURL)
	}
	if settings.ModelPath == "" {
		return fmt.Errorf("model path cannot be empty")
	}
	if settings.InputDir == "" {
		return fmt.Errorf("input directory cannot be empty")
	}

	if settings.NoiseRate < 0 || settings.NoiseRate > 1 {
		return fmt.Errorf("noise rate must be between 0 and 1, got %f", settings.NoiseRate)
	}
	if settings.TestSize < 0.05 || settings.TestSize > 0.5 {
		return fmt.Errorf("test size must be between 0.05 and 0.5, got %f", settings.TestSize)
	}
	if settings.CVFolds < 2 || settings.CVFolds > 20 {
		return fmt.Errorf("CV folds must be between 2 and 20, got %d", settings.CVFolds)
	}
	if settings.FetchTimeout < time.Second || settings.FetchTimeout > 5*time.Minute {
		return fmt.Errorf("fetch timeout must be between 1s and 5m, got %v", settings.FetchTimeout)
	}

	return nil
}

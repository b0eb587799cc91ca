package common

// Environment variable keys
const (
	EnvConfigFile   = "CONFIG_FILE"
	EnvDatasetURL   = "DATASET_URL"
	EnvDatasetPath  = "DATASET_PATH"
	EnvInputDir     = "INPUT_DIR"
	EnvModelPath    = "MODEL_PATH"
	EnvReportPath   = "REPORT_PATH"
	EnvMetricsFile  = "METRICS_FILE"
	EnvNoiseRate    = "NOISE_RATE"
	EnvSeed         = "SEED"
	EnvTestSize     = "TEST_SIZE"
	EnvCVFolds      = "CV_FOLDS"
	EnvFetchTimeout = "FETCH_TIMEOUT"
	EnvLogLevel     = "LOG_LEVEL"
)

// Configuration defaults
const (
	DefaultDatasetURL = "https://hebbkx1anhila5yf.public.blob.vercel-storage.com/waste_prediction_dataset-IusiqwteMGmPHOwTit61999UOnNRnW.csv"
	DefaultInputDir   = "."
	DefaultModelPath  = "models/waste_model.db"
	DefaultNoiseRate  = 0.05
	DefaultSeed       = 42
	DefaultTestSize   = 0.2
	DefaultCVFolds    = 5
	DefaultLogLevel   = "info"
)

// Dataset column names
const (
	ColEstablishmentType = "establishment_type"
	ColCity              = "city"
	ColDayOfWeek         = "day_of_week"
	ColSpecialEvent      = "special_event"
	ColFoodType          = "food_type"
	ColSeason            = "season"
	ColAvgDailyCustomers = "avg_daily_customers"
	ColAvgMealPrice      = "avg_meal_price"
	ColLeftoverFoodKg    = "leftover_food_kg"
	ColDate              = "date"
	ColWasteCategory     = "predicted_waste_category"

	ColMonth             = "month"
	ColDayOfMonth        = "day_of_month"
	ColIsWeekend         = "is_weekend"
	ColPricePerCustomer  = "price_per_customer"
	ColWastePerCustomer  = "waste_per_customer"
	ColEstablishmentFood = "establishment_food"
	ColCitySeason        = "city_season"
	ColHasEvent          = "has_event"
)

// NoSpecialEvent is the special_event value meaning "no event".
const NoSpecialEvent = "None"

// FeatureSeparator joins the components of concatenated features.
const FeatureSeparator = "_"

// Waste level thresholds in kilograms (strictly greater than)
const (
	HighWasteKg   = 50.0
	MediumWasteKg = 20.0
)

// ServingsPerKg assumes roughly 0.4kg per serving.
const ServingsPerKg = 2.5

// Default prediction used when no similar history exists.
const (
	DefaultWasteKg    = 25.0
	DefaultConfidence = 50.0
	DefaultServings   = 60.0
)

// Common error messages
const (
	ErrMsgNoSimilarData = "No similar historical data found"
	ErrMsgNoWasteData   = "Similar events have no recorded leftover food"
	ErrMsgDatasetLoad   = "Could not load dataset"
)

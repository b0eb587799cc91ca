package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/mandrita16/WastePrediction/internal/common"

	"github.com/rs/zerolog/log"
)

var (
	// ErrMissingColumn is returned when a required header column is absent.
	ErrMissingColumn = errors.New("dataset: missing required column")
	// ErrNoInputFile is returned when discovery finds no tabular file.
	ErrNoInputFile = errors.New("dataset: no tabular input file found")
)

// RequiredColumns lists the header columns every dataset must carry.
var RequiredColumns = []string{
	common.ColEstablishmentType,
	common.ColCity,
	common.ColDayOfWeek,
	common.ColSpecialEvent,
	common.ColFoodType,
	common.ColSeason,
	common.ColAvgDailyCustomers,
	common.ColAvgMealPrice,
	common.ColLeftoverFoodKg,
	common.ColDate,
	common.ColWasteCategory,
}

// tabularExtensions maps recognised file extensions to their field delimiter.
var tabularExtensions = map[string]rune{
	".csv": ',',
	".tsv": '\t',
}

// Parse reads delimited records with a header row from r.
func Parse(r io.Reader, delimiter rune) ([]EventRecord, error) {
	reader := csv.NewReader(r)
	reader.Comma = delimiter
	// With a whitespace delimiter this would swallow empty cells.
	reader.TrimLeadingSpace = !unicode.IsSpace(delimiter)

	// Read header
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	// Map header indices
	indices := make(map[string]int, len(header))
	for i, col := range header {
		indices[strings.TrimSpace(strings.TrimPrefix(col, "\ufeff"))] = i
	}
	for _, col := range RequiredColumns {
		if _, ok := indices[col]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}

	var (
		records []EventRecord
		coerced int
		line    = 1
	)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read line %d: %w", line, err)
		}

		field := func(col string) string {
			return strings.TrimSpace(row[indices[col]])
		}
		number := func(col string) float64 {
			v, ok := parseNumber(field(col))
			if !ok {
				coerced++
			}
			return v
		}

		records = append(records, EventRecord{
			EstablishmentType: field(common.ColEstablishmentType),
			City:              field(common.ColCity),
			DayOfWeek:         field(common.ColDayOfWeek),
			SpecialEvent:      field(common.ColSpecialEvent),
			FoodType:          field(common.ColFoodType),
			Season:            field(common.ColSeason),
			AvgDailyCustomers: number(common.ColAvgDailyCustomers),
			AvgMealPrice:      number(common.ColAvgMealPrice),
			LeftoverFoodKg:    number(common.ColLeftoverFoodKg),
			Date:              field(common.ColDate),
			WasteCategory:     field(common.ColWasteCategory),
		})
	}

	if coerced > 0 {
		log.Warn().
			Int("cells", coerced).
			Int("rows", len(records)).
			Msg("Non-numeric values coerced to missing")
	}

	return records, nil
}

// parseNumber converts a cell to float64; anything unparseable is NaN.
func parseNumber(s string) (float64, bool) {
	if s == "" {
		return math.NaN(), false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) {
		return math.NaN(), false
	}
	return v, true
}

// ParseBytes parses an in-memory dataset body.
func ParseBytes(data []byte, delimiter rune) ([]EventRecord, error) {
	return Parse(bytes.NewReader(data), delimiter)
}

// LoadFile loads records from a .csv or .tsv file.
func LoadFile(path string) ([]EventRecord, error) {
	delimiter, ok := DelimiterFor(path)
	if !ok {
		return nil, fmt.Errorf("unrecognised tabular extension: %s", path)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer file.Close()

	records, err := Parse(file, delimiter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	log.Info().
		Str("file", path).
		Int("rows", len(records)).
		Msg("Dataset loaded")

	return records, nil
}

// DelimiterFor returns the field delimiter implied by a file name.
func DelimiterFor(path string) (rune, bool) {
	d, ok := tabularExtensions[strings.ToLower(filepath.Ext(path))]
	return d, ok
}

// Discover returns the first tabular file in dir, in lexical order.
func Discover(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read input directory: %w", err)
	}

	var candidates []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := DelimiterFor(e.Name()); ok {
			candidates = append(candidates, e.Name())
		}
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("%w in %s", ErrNoInputFile, dir)
	}

	sort.Strings(candidates)
	if len(candidates) > 1 {
		log.Debug().Strs("candidates", candidates).Msg("Multiple input files found, using the first")
	}
	return filepath.Join(dir, candidates[0]), nil
}

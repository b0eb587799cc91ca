package dataset

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = "date,establishment_type,city,day_of_week,special_event,avg_daily_customers,avg_meal_price,food_type,season,leftover_food_kg,predicted_waste_category\n"

const sampleCSV = header +
	"2024-01-05,Restaurant,Mumbai,Friday,None,150,500,Veg,Winter,40,High\n" +
	"2024-01-06,Hotel,Delhi,Saturday,Wedding,300,800,Non-Veg,Winter,75.5,High\n" +
	"2024-02-10,Canteen,Pune,Monday,None,abc,120,Veg,Summer,,Low\n"

func TestParse(t *testing.T) {
	records, err := Parse(strings.NewReader(sampleCSV), ',')
	require.NoError(t, err)
	require.Len(t, records, 3)

	first := records[0]
	assert.Equal(t, "Restaurant", first.EstablishmentType)
	assert.Equal(t, "Mumbai", first.City)
	assert.Equal(t, "Friday", first.DayOfWeek)
	assert.Equal(t, "None", first.SpecialEvent)
	assert.Equal(t, "Veg", first.FoodType)
	assert.Equal(t, "Winter", first.Season)
	assert.Equal(t, 150.0, first.AvgDailyCustomers)
	assert.Equal(t, 500.0, first.AvgMealPrice)
	assert.Equal(t, 40.0, first.LeftoverFoodKg)
	assert.Equal(t, "2024-01-05", first.Date)
	assert.Equal(t, "High", first.WasteCategory)
	assert.True(t, first.HasLabel())

	assert.Equal(t, 75.5, records[1].LeftoverFoodKg)
}

func TestParse_CoercesNonNumeric(t *testing.T) {
	records, err := Parse(strings.NewReader(sampleCSV), ',')
	require.NoError(t, err)

	canteen := records[2]
	assert.True(t, Missing(canteen.AvgDailyCustomers), "non-numeric customers should be missing")
	assert.True(t, Missing(canteen.LeftoverFoodKg), "empty leftover should be missing")
	assert.Equal(t, 120.0, canteen.AvgMealPrice)
}

func TestParse_MissingColumn(t *testing.T) {
	data := "date,city\n2024-01-01,Mumbai\n"

	_, err := Parse(strings.NewReader(data), ',')
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingColumn))
}

func TestParse_ColumnOrderAndBOM(t *testing.T) {
	data := "\ufeffpredicted_waste_category,leftover_food_kg,season,food_type,avg_meal_price,avg_daily_customers,special_event,day_of_week,city,establishment_type,date\n" +
		"Medium,22,Monsoon,Veg,250,90,None,Tuesday,Chennai,Cafe,2024-07-02\n"

	records, err := Parse(strings.NewReader(data), ',')
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Cafe", records[0].EstablishmentType)
	assert.Equal(t, "Medium", records[0].WasteCategory)
	assert.Equal(t, 90.0, records[0].AvgDailyCustomers)
}

func TestParse_RaggedRow(t *testing.T) {
	data := header + "2024-01-05,Restaurant,Mumbai\n"

	_, err := Parse(strings.NewReader(data), ',')
	assert.Error(t, err)
}

func TestParseNumber(t *testing.T) {
	v, ok := parseNumber("12.5")
	assert.True(t, ok)
	assert.Equal(t, 12.5, v)

	for _, s := range []string{"", "n/a", "Inf", "1,000"} {
		v, ok := parseNumber(s)
		assert.False(t, ok, s)
		assert.True(t, math.IsNaN(v), s)
	}
}

func TestLoadFile_TSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "waste.tsv")
	tsv := strings.ReplaceAll(sampleCSV, ",", "\t")
	require.NoError(t, os.WriteFile(path, []byte(tsv), 0o644))

	records, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "Delhi", records[1].City)
	assert.Equal(t, "Summer", records[2].Season)
	assert.True(t, math.IsNaN(records[2].LeftoverFoodKg))
	assert.Equal(t, "Low", records[2].WasteCategory)
}

func TestParse_TSVEmptyCells(t *testing.T) {
	tsv := strings.ReplaceAll(header, ",", "\t") +
		"2024-03-01\tCafe\tPune\tFriday\t\t80\t\tVeg\tSummer\t\tLow\n" +
		"\tHotel\tDelhi\tSaturday\tWedding\t300\t800\tNon-Veg\tWinter\t75.5\tHigh\n"

	records, err := Parse(strings.NewReader(tsv), '\t')
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "", records[0].SpecialEvent)
	assert.Equal(t, 80.0, records[0].AvgDailyCustomers)
	assert.True(t, math.IsNaN(records[0].AvgMealPrice))
	assert.Equal(t, "Veg", records[0].FoodType)
	assert.True(t, math.IsNaN(records[0].LeftoverFoodKg))
	assert.Equal(t, "Low", records[0].WasteCategory)

	assert.Equal(t, "", records[1].Date)
	assert.Equal(t, "Hotel", records[1].EstablishmentType)
	assert.Equal(t, "High", records[1].WasteCategory)
}

func TestParse_CSVLeadingSpace(t *testing.T) {
	body := header + "2024-01-05, Restaurant, Mumbai,Friday,None, 150,500,Veg,Winter,40,High\n"

	records, err := Parse(strings.NewReader(body), ',')
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Restaurant", records[0].EstablishmentType)
	assert.Equal(t, 150.0, records[0].AvgDailyCustomers)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestLoadFile_UnknownExtension(t *testing.T) {
	_, err := LoadFile("waste.xlsx")
	assert.Error(t, err)
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b_waste.csv"), []byte(sampleCSV), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a_waste.CSV"), []byte(sampleCSV), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.csv"), 0o755))

	path, err := Discover(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "a_waste.CSV"), path)
}

func TestDiscover_NoFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "model.db"), []byte("x"), 0o644))

	_, err := Discover(dir)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoInputFile))
}

func TestHTTPSource_Load(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte(sampleCSV))
	}))
	defer server.Close()

	src := NewHTTPSource(server.URL+"/waste.csv", 5*time.Second)
	records, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestHTTPSource_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	src := NewHTTPSource(server.URL+"/waste.csv", 5*time.Second)
	_, err := src.Load(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestHTTPSource_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	src := NewHTTPSource(url+"/waste.csv", time.Second)
	_, err := src.Load(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestHTTPSource_BadSchemaIsNotUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("a,b\n1,2\n"))
	}))
	defer server.Close()

	_, err := NewHTTPSource(server.URL, time.Second).Load(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingColumn))
	assert.False(t, errors.Is(err, ErrUnavailable))
}

func TestFileSource_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "waste.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))

	records, err := FileSource{Path: path}.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = FileSource{Path: path}.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

package encoder

import (
	"errors"
	"math"
	"testing"

	"github.com/mandrita16/WastePrediction/internal/dataset"
	"github.com/mandrita16/WastePrediction/internal/features"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFit_SortedUniqueCodes(t *testing.T) {
	c := Fit("city", []string{"Pune", "Delhi", "", "Mumbai", "Delhi"})

	assert.Equal(t, []string{"Delhi", "Mumbai", "Pune"}, c.Classes)
	assert.Equal(t, 3, c.Len())
	assert.Equal(t, 0.0, c.Encode("Delhi"))
	assert.Equal(t, 2.0, c.Encode("Pune"))
	assert.True(t, math.IsNaN(c.Encode("")))
	assert.True(t, math.IsNaN(c.Encode("Chennai")))
}

func TestColumn_RoundTrip(t *testing.T) {
	values := []string{"Winter", "Summer", "Monsoon", "Winter"}
	c := Fit("season", values)

	for _, v := range values {
		code, ok := c.Code(v)
		require.True(t, ok)
		back, err := c.Decode(code)
		require.NoError(t, err)
		assert.Equal(t, v, back)
	}

	_, err := c.Decode(3)
	assert.True(t, errors.Is(err, ErrUnknownCode))
	_, err = c.Decode(-1)
	assert.True(t, errors.Is(err, ErrUnknownCode))
}

func TestFit_Deterministic(t *testing.T) {
	values := []string{"b", "c", "a", "c", "b"}
	first := Fit("x", values)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first.Classes, Fit("x", values).Classes)
	}
}

func buildRows(t *testing.T) []features.Row {
	t.Helper()
	base := dataset.EventRecord{
		EstablishmentType: "Restaurant", City: "Mumbai", DayOfWeek: "Friday",
		SpecialEvent: "None", FoodType: "Veg", Season: "Winter",
		AvgDailyCustomers: 200, AvgMealPrice: 500, LeftoverFoodKg: 40,
		Date: "2024-01-05", WasteCategory: "Medium",
	}
	other := base
	other.EstablishmentType = "Cafe"
	other.City = "Delhi"
	other.DayOfWeek = "Sunday"
	other.SpecialEvent = "Wedding"
	other.WasteCategory = "High"
	missing := base
	missing.City = ""
	missing.WasteCategory = "Low"

	rows, err := features.Build([]dataset.EventRecord{base, other, missing})
	require.NoError(t, err)
	return rows
}

func TestSet_Matrix(t *testing.T) {
	rows := buildRows(t)
	s := FitSet(rows)

	names := FeatureNames()
	require.Len(t, names, 17)
	assert.Equal(t, "establishment_type", names[0])
	assert.Equal(t, "city_season", names[7])
	assert.Equal(t, "avg_daily_customers", names[8])
	assert.Equal(t, "has_event", names[16])

	x := s.Matrix(rows)
	require.Len(t, x, 3)
	for _, v := range x {
		assert.Len(t, v, len(names))
	}

	// Cafe < Restaurant, Delhi < Mumbai
	assert.Equal(t, 1.0, x[0][0])
	assert.Equal(t, 0.0, x[1][0])
	assert.Equal(t, 1.0, x[0][1])
	assert.Equal(t, 0.0, x[1][1])
	assert.True(t, math.IsNaN(x[2][1]))
	assert.True(t, math.IsNaN(x[2][7]))

	assert.Equal(t, 200.0, x[0][8])
	assert.Equal(t, 1.0, x[0][11])
	assert.Equal(t, 0.0, x[0][13])
	assert.Equal(t, 1.0, x[1][13])
	assert.InDelta(t, 2.5, x[0][14], 1e-9)
	assert.Equal(t, 0.0, x[0][16])
	assert.Equal(t, 1.0, x[1][16])
}

func TestSet_EncodeLabels(t *testing.T) {
	rows := buildRows(t)
	s := FitSet(rows)

	y, err := s.EncodeLabels(rows)
	require.NoError(t, err)
	assert.Equal(t, []string{"High", "Low", "Medium"}, s.Labels.Classes)
	assert.Equal(t, []int{2, 0, 1}, y)

	rows[1].WasteCategory = ""
	_, err = s.EncodeLabels(rows)
	assert.True(t, errors.Is(err, ErrMissingLabel))

	rows[1].WasteCategory = "Extreme"
	_, err = s.EncodeLabels(rows)
	assert.True(t, errors.Is(err, ErrUnknownValue))
}

func TestSet_StateRestore(t *testing.T) {
	rows := buildRows(t)
	s := FitSet(rows)

	restored, err := Restore(s.State())
	require.NoError(t, err)

	want := s.Matrix(rows)
	got := restored.Matrix(rows)
	for i := range want {
		for j := range want[i] {
			if math.IsNaN(want[i][j]) {
				assert.True(t, math.IsNaN(got[i][j]))
				continue
			}
			assert.Equal(t, want[i][j], got[i][j])
		}
	}
	assert.Equal(t, s.Labels.Classes, restored.Labels.Classes)

	_, err = Restore(State{Columns: map[string][]string{}})
	assert.Error(t, err)
}

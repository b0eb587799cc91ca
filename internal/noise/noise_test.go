package noise

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func labelsOf(n, classes int) []int {
	y := make([]int, n)
	for i := range y {
		y[i] = i % classes
	}
	return y
}

func TestInject_ZeroRateIsIdentity(t *testing.T) {
	y := labelsOf(50, 3)
	noisy, flipped, err := Inject(y, 0, rand.New(rand.NewSource(42)))
	require.NoError(t, err)
	assert.Equal(t, y, noisy)
	assert.Empty(t, flipped)
}

func TestInject_ExactCountNeverSelf(t *testing.T) {
	tests := []struct {
		n, classes int
		rate       float64
	}{
		{100, 3, 0.05},
		{100, 2, 0.5},
		{37, 4, 0.1},
		{10, 3, 1},
		{9, 2, 0.15},
	}

	for _, tt := range tests {
		y := labelsOf(tt.n, tt.classes)
		original := append([]int(nil), y...)

		noisy, flipped, err := Inject(y, tt.rate, rand.New(rand.NewSource(7)))
		require.NoError(t, err)
		assert.Equal(t, original, y, "input must not be modified")

		want := int(math.Floor(tt.rate * float64(tt.n)))
		diff := 0
		for i := range y {
			if noisy[i] != y[i] {
				diff++
			}
			assert.GreaterOrEqual(t, noisy[i], 0)
			assert.Less(t, noisy[i], tt.classes)
		}
		assert.Equal(t, want, diff)
		assert.Len(t, flipped, want)
		assert.IsIncreasing(t, append([]int{-1}, flipped...))
		for _, idx := range flipped {
			assert.NotEqual(t, y[idx], noisy[idx])
		}
	}
}

func TestInject_Deterministic(t *testing.T) {
	y := labelsOf(200, 3)
	a, ia, err := Inject(y, 0.2, rand.New(rand.NewSource(42)))
	require.NoError(t, err)
	b, ib, err := Inject(y, 0.2, rand.New(rand.NewSource(42)))
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, ia, ib)
}

func TestInject_EveryClassReachable(t *testing.T) {
	y := make([]int, 300)
	for i := 200; i < 300; i++ {
		y[i] = 1 + i%2
	}

	noisy, flipped, err := Inject(y, 1, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	require.Len(t, flipped, 300)

	got := map[int]int{}
	for i := 0; i < 200; i++ {
		got[noisy[i]]++
	}
	assert.Zero(t, got[0])
	assert.Positive(t, got[1])
	assert.Positive(t, got[2])
}

func TestInject_Errors(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for _, rate := range []float64{-0.1, 1.5, math.NaN()} {
		_, _, err := Inject(labelsOf(10, 2), rate, rng)
		assert.True(t, errors.Is(err, ErrInvalidRate), "rate %v", rate)
	}

	_, _, err := Inject([]int{1, 1, 1, 1}, 0.5, rng)
	assert.True(t, errors.Is(err, ErrTooFewClasses))

	noisy, _, err := Inject([]int{1, 1, 1}, 0.2, rng)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 1}, noisy)
}

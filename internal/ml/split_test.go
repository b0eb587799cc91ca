package ml

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func labels(counts ...int) []int {
	var y []int
	for c, n := range counts {
		for i := 0; i < n; i++ {
			y = append(y, c)
		}
	}
	return y
}

func countClasses(y []int, rows []int, classes int) []int {
	out := make([]int, classes)
	for _, r := range rows {
		out[y[r]]++
	}
	return out
}

func assertPartition(t *testing.T, n int, parts ...[]int) {
	t.Helper()
	var all []int
	for _, p := range parts {
		all = append(all, p...)
	}
	sort.Ints(all)
	require.Len(t, all, n)
	for i, r := range all {
		assert.Equal(t, i, r)
	}
}

func TestStratifiedSplit_Proportions(t *testing.T) {
	y := labels(50, 30, 20)
	split, err := StratifiedSplit(y, 3, 0.2, rand.New(rand.NewSource(42)))
	require.NoError(t, err)

	assert.Equal(t, []int{10, 6, 4}, countClasses(y, split.Test, 3))
	assert.Equal(t, []int{40, 24, 16}, countClasses(y, split.Train, 3))
	assertPartition(t, len(y), split.Train, split.Test)
}

func TestStratifiedSplit_LargestRemainder(t *testing.T) {
	y := labels(6, 5)
	split, err := StratifiedSplit(y, 2, 0.2, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	assert.Len(t, split.Test, 3)
	assert.Equal(t, []int{2, 1}, countClasses(y, split.Test, 2))
}

func TestStratifiedSplit_Deterministic(t *testing.T) {
	y := labels(20, 20)
	a, err := StratifiedSplit(y, 2, 0.2, rand.New(rand.NewSource(42)))
	require.NoError(t, err)
	b, err := StratifiedSplit(y, 2, 0.2, rand.New(rand.NewSource(42)))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestStratifiedSplit_Errors(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	_, err := StratifiedSplit(labels(3, 1), 2, 0.2, rng)
	assert.ErrorIs(t, err, ErrClassTooSmall)

	_, err = StratifiedSplit(labels(2, 2, 2), 3, 0.2, rng)
	assert.ErrorIs(t, err, ErrClassTooSmall)

	_, err = StratifiedSplit(labels(5, 5), 2, 0, rng)
	assert.Error(t, err)
}

func TestStratifiedKFold(t *testing.T) {
	y := labels(10, 5)
	folds, err := StratifiedKFold(y, 2, 5)
	require.NoError(t, err)
	require.Len(t, folds, 5)

	assert.Equal(t, []int{0, 1, 10}, folds[0].Test)
	assert.Equal(t, []int{8, 9, 14}, folds[4].Test)

	var tests [][]int
	for _, f := range folds {
		assert.Equal(t, []int{2, 1}, countClasses(y, f.Test, 2))
		assertPartition(t, len(y), f.Train, f.Test)
		tests = append(tests, f.Test)
	}
	assertPartition(t, len(y), tests...)
}

func TestStratifiedKFold_UnevenSizes(t *testing.T) {
	y := labels(7, 3)
	folds, err := StratifiedKFold(y, 2, 3)
	require.NoError(t, err)

	assert.Equal(t, []int{3, 1}, countClasses(y, folds[0].Test, 2))
	assert.Equal(t, []int{2, 1}, countClasses(y, folds[1].Test, 2))
	assert.Equal(t, []int{2, 1}, countClasses(y, folds[2].Test, 2))
}

func TestStratifiedKFold_Errors(t *testing.T) {
	_, err := StratifiedKFold(labels(3, 3), 2, 1)
	assert.Error(t, err)
	_, err = StratifiedKFold(labels(1, 1), 2, 5)
	assert.ErrorIs(t, err, ErrClassTooSmall)
}

func TestStratifiedKFold_FoldsExceedLargestClass(t *testing.T) {
	_, err := StratifiedKFold(labels(3, 3), 2, 5)
	assert.ErrorIs(t, err, ErrClassTooSmall)

	folds, err := StratifiedKFold(labels(5, 2), 2, 5)
	require.NoError(t, err)
	for _, f := range folds {
		assert.NotEmpty(t, f.Test)
	}
}

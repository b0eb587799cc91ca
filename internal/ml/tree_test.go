package ml

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEdgesFor(t *testing.T) {
	assert.Nil(t, edgesFor(nil, 4))
	assert.Equal(t, []float64{1, 2, 3}, edgesFor([]float64{3, 1, 2, 2}, 4))
	assert.Equal(t, []float64{2, 4}, edgesFor([]float64{4, 3, 2, 1}, 2))

	many := make([]float64, 1000)
	for i := range many {
		many[i] = float64(i % 500)
	}
	edges := edgesFor(many, 255)
	assert.LessOrEqual(t, len(edges), 255)
	assert.IsIncreasing(t, edges)
	assert.Equal(t, 499.0, edges[len(edges)-1])
}

func TestBinMapper(t *testing.T) {
	X := [][]float64{{1}, {2}, {3}, {math.NaN()}}
	m := fitBins(X, 1, 256)

	require.Equal(t, []float64{1, 2, 3}, m.edges[0])
	assert.Equal(t, 4, m.bins(0))
	assert.Equal(t, uint16(0), m.bin(0, 0.5))
	assert.Equal(t, uint16(0), m.bin(0, 1))
	assert.Equal(t, uint16(1), m.bin(0, 1.5))
	assert.Equal(t, uint16(2), m.bin(0, 3))
	assert.Equal(t, uint16(3), m.bin(0, 4))
	assert.Equal(t, uint16(missingBin), m.bin(0, math.NaN()))

	binned := m.transform(X)
	assert.Equal(t, [][]uint16{{0}, {1}, {2}, {missingBin}}, binned)
}

func TestTree_LeafRoutesMissingRight(t *testing.T) {
	tr := newTree(nil)
	tr.split(0, 1, 1.5, []float64{10}, []float64{20})

	assert.Equal(t, []float64{10}, tr.Leaf([]float64{0, 1.5}))
	assert.Equal(t, []float64{20}, tr.Leaf([]float64{0, 1.6}))
	assert.Equal(t, []float64{20}, tr.Leaf([]float64{0, math.NaN()}))
	assert.Equal(t, 2, tr.Leaves())
	assert.Equal(t, 1, tr.Depth())
}

func TestGoesLeftMatchesLeaf(t *testing.T) {
	X := [][]float64{{0.5}, {1}, {2}, {2.5}, {math.NaN()}}
	m := fitBins(X, 1, 256)
	binned := m.transform(X)

	for e := range m.edges[0] {
		tr := newTree(nil)
		tr.split(0, 0, m.edges[0][e], []float64{0}, []float64{1})
		for i, x := range X {
			left := tr.Leaf(x)[0] == 0
			assert.Equal(t, left, goesLeft(binned[i][0], e), "edge %d row %d", e, i)
		}
	}
}

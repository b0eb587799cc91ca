package ml

import (
	"math"
	"sort"
)

// missingBin marks a NaN feature value in a binned matrix.
const missingBin = math.MaxUint16

// binMapper quantizes each feature into at most maxBins ordered bins.
// Bin b of feature f holds values in (edges[f][b-1], edges[f][b]], so a
// split at edge e sends v <= edges[f][e] left.
type binMapper struct {
	edges [][]float64
}

func fitBins(X [][]float64, features, maxBins int) *binMapper {
	m := &binMapper{edges: make([][]float64, features)}
	values := make([]float64, 0, len(X))
	for f := 0; f < features; f++ {
		values = values[:0]
		for _, row := range X {
			if !math.IsNaN(row[f]) {
				values = append(values, row[f])
			}
		}
		m.edges[f] = edgesFor(values, maxBins)
	}
	return m
}

// edgesFor returns the split candidates of one feature: every distinct
// value when they fit in maxBins, otherwise evenly spaced quantiles.
func edgesFor(values []float64, maxBins int) []float64 {
	if len(values) == 0 {
		return nil
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	uniq := sorted[:1]
	for _, v := range sorted[1:] {
		if v != uniq[len(uniq)-1] {
			uniq = append(uniq, v)
		}
	}
	if len(uniq) <= maxBins {
		return append([]float64(nil), uniq...)
	}

	edges := make([]float64, 0, maxBins)
	for i := 1; i <= maxBins; i++ {
		v := uniq[i*len(uniq)/maxBins-1]
		if len(edges) == 0 || v > edges[len(edges)-1] {
			edges = append(edges, v)
		}
	}
	return edges
}

func (m *binMapper) bin(f int, v float64) uint16 {
	if math.IsNaN(v) {
		return missingBin
	}
	return uint16(sort.SearchFloat64s(m.edges[f], v))
}

// bins returns the number of regular bins of feature f.
func (m *binMapper) bins(f int) int {
	return len(m.edges[f]) + 1
}

func (m *binMapper) transform(X [][]float64) [][]uint16 {
	out := make([][]uint16, len(X))
	for i, row := range X {
		b := make([]uint16, len(m.edges))
		for f := range m.edges {
			b[f] = m.bin(f, row[f])
		}
		out[i] = b
	}
	return out
}

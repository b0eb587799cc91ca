package ml

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// Fold is one train/test partition of row indices.
type Fold struct {
	Train []int
	Test  []int
}

func classIndices(y []int, classes int) [][]int {
	idx := make([][]int, classes)
	for i, c := range y {
		idx[c] = append(idx[c], i)
	}
	return idx
}

// StratifiedSplit partitions rows into train and test sets holding each
// class in the same proportion. The test set has ceil(testSize*n) rows,
// allocated to classes by largest remainder.
func StratifiedSplit(y []int, classes int, testSize float64, rng *rand.Rand) (Fold, error) {
	n := len(y)
	if testSize <= 0 || testSize >= 1 {
		return Fold{}, fmt.Errorf("test size %v outside (0,1)", testSize)
	}
	nTest := int(math.Ceil(testSize*float64(n) - 1e-9))
	nTrain := n - nTest

	byClass := classIndices(y, classes)
	present := 0
	for c, rows := range byClass {
		if len(rows) == 0 {
			continue
		}
		if len(rows) < 2 {
			return Fold{}, fmt.Errorf("%w: class %d has %d member", ErrClassTooSmall, c, len(rows))
		}
		present++
	}
	if nTest < present || nTrain < present {
		return Fold{}, fmt.Errorf("%w: %d rows cannot hold %d classes on both sides", ErrClassTooSmall, n, present)
	}

	alloc := allocate(byClass, nTest, n)

	var split Fold
	for c, rows := range byClass {
		perm := rng.Perm(len(rows))
		for j, p := range perm {
			if j < alloc[c] {
				split.Test = append(split.Test, rows[p])
			} else {
				split.Train = append(split.Train, rows[p])
			}
		}
	}
	rng.Shuffle(len(split.Train), func(i, j int) { split.Train[i], split.Train[j] = split.Train[j], split.Train[i] })
	rng.Shuffle(len(split.Test), func(i, j int) { split.Test[i], split.Test[j] = split.Test[j], split.Test[i] })
	return split, nil
}

// allocate distributes total draws over classes proportionally to their
// size. Leftover draws go to the largest fractional parts, lowest class
// first on ties.
func allocate(byClass [][]int, total, n int) []int {
	alloc := make([]int, len(byClass))
	type remainder struct {
		class int
		frac  float64
	}
	var rems []remainder
	assigned := 0
	for c, rows := range byClass {
		exact := float64(len(rows)) * float64(total) / float64(n)
		alloc[c] = int(math.Floor(exact))
		assigned += alloc[c]
		rems = append(rems, remainder{class: c, frac: exact - float64(alloc[c])})
	}
	sort.SliceStable(rems, func(i, j int) bool { return rems[i].frac > rems[j].frac })
	for i := 0; assigned < total && i < len(rems); i++ {
		if c := rems[i].class; alloc[c] < len(byClass[c]) {
			alloc[c]++
			assigned++
		}
	}
	return alloc
}

// StratifiedKFold splits rows into k folds without shuffling. Each class is
// cut into k contiguous chunks in row order whose sizes differ by at most
// one, so every fold keeps the class proportions. The largest class must
// hold at least k rows.
func StratifiedKFold(y []int, classes, k int) ([]Fold, error) {
	if k < 2 {
		return nil, fmt.Errorf("folds must be at least 2, got %d", k)
	}
	byClass := classIndices(y, classes)
	largest := 0
	for _, rows := range byClass {
		largest = max(largest, len(rows))
	}
	// Every fold needs at least one test row.
	if largest < k {
		return nil, fmt.Errorf("%w: largest class has %d rows for %d folds", ErrClassTooSmall, largest, k)
	}

	foldOf := make([]int, len(y))
	for _, rows := range byClass {
		start := 0
		for f := 0; f < k; f++ {
			size := len(rows) / k
			if f < len(rows)%k {
				size++
			}
			for _, r := range rows[start : start+size] {
				foldOf[r] = f
			}
			start += size
		}
	}

	folds := make([]Fold, k)
	for i, f := range foldOf {
		for j := range folds {
			if j == f {
				folds[j].Test = append(folds[j].Test, i)
			} else {
				folds[j].Train = append(folds[j].Train, i)
			}
		}
	}
	return folds, nil
}

func subset(X [][]float64, y []int, rows []int) ([][]float64, []int) {
	xs := make([][]float64, len(rows))
	ys := make([]int, len(rows))
	for i, r := range rows {
		xs[i] = X[r]
		ys[i] = y[r]
	}
	return xs, ys
}

package ml

// Growth selects how a gradient tree expands its leaves.
type Growth int

const (
	// DepthWise splits every expandable node level by level.
	DepthWise Growth = iota
	// LeafWise always splits the leaf with the largest gain next.
	LeafWise
	// Oblivious applies one shared split to every node of a level.
	Oblivious
)

func (g Growth) String() string {
	switch g {
	case DepthWise:
		return "depthwise"
	case LeafWise:
		return "leafwise"
	case Oblivious:
		return "oblivious"
	default:
		return "unknown"
	}
}

// treeParams configures a single second-order regression tree.
type treeParams struct {
	growth         Growth
	maxDepth       int
	maxLeaves      int
	lambda         float64
	minChildWeight float64
	minDataInLeaf  int
	eta            float64
}

type gradStats struct {
	g, h float64
	n    int
}

func (s *gradStats) add(o gradStats) {
	s.g += o.g
	s.h += o.h
	s.n += o.n
}

func (s gradStats) sub(o gradStats) gradStats {
	return gradStats{g: s.g - o.g, h: s.h - o.h, n: s.n - o.n}
}

func score(s gradStats, lambda float64) float64 {
	if s.h+lambda == 0 {
		return 0
	}
	return s.g * s.g / (s.h + lambda)
}

type candidateSplit struct {
	feature int
	edge    int
	gain    float64
}

// gradientBuilder grows regression trees on gradient statistics of binned
// rows.
type gradientBuilder struct {
	bins   *binMapper
	binned [][]uint16
	grad   []float64
	hess   []float64
	params treeParams
}

func (b *gradientBuilder) leafValue(s gradStats) []float64 {
	if s.h+b.params.lambda == 0 {
		return []float64{0}
	}
	return []float64{-s.g / (s.h + b.params.lambda) * b.params.eta}
}

func (b *gradientBuilder) total(rows []int) gradStats {
	var s gradStats
	for _, r := range rows {
		s.add(gradStats{g: b.grad[r], h: b.hess[r], n: 1})
	}
	return s
}

// histogram accumulates per-bin statistics of feature f. The missing bin
// is returned separately.
func (b *gradientBuilder) histogram(rows []int, f int) ([]gradStats, gradStats) {
	hist := make([]gradStats, b.bins.bins(f))
	var missing gradStats
	for _, r := range rows {
		s := gradStats{g: b.grad[r], h: b.hess[r], n: 1}
		if v := b.binned[r][f]; v == missingBin {
			missing.add(s)
		} else {
			hist[v].add(s)
		}
	}
	return hist, missing
}

func (b *gradientBuilder) admissible(s gradStats) bool {
	return s.n >= b.params.minDataInLeaf && s.n > 0 && s.h >= b.params.minChildWeight
}

// bestSplit scans every edge of the allowed features. Ties keep the first
// candidate in feature then edge order.
func (b *gradientBuilder) bestSplit(rows []int, features []int) (candidateSplit, bool) {
	parent := b.total(rows)
	base := score(parent, b.params.lambda)
	best := candidateSplit{gain: 0}
	found := false

	for _, f := range features {
		hist, _ := b.histogram(rows, f)
		var left gradStats
		for e := 0; e < len(b.bins.edges[f]); e++ {
			left.add(hist[e])
			right := parent.sub(left)
			if !b.admissible(left) || !b.admissible(right) {
				continue
			}
			gain := score(left, b.params.lambda) + score(right, b.params.lambda) - base
			if gain > best.gain+1e-12 {
				best = candidateSplit{feature: f, edge: e, gain: gain}
				found = true
			}
		}
	}
	return best, found
}

func (b *gradientBuilder) partition(rows []int, s candidateSplit) ([]int, []int) {
	var left, right []int
	for _, r := range rows {
		if goesLeft(b.binned[r][s.feature], s.edge) {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}
	return left, right
}

func (b *gradientBuilder) build(rows []int, features []int) *Tree {
	switch b.params.growth {
	case LeafWise:
		return b.buildLeafWise(rows, features)
	case Oblivious:
		return b.buildOblivious(rows, features)
	default:
		return b.buildDepthWise(rows, features)
	}
}

func (b *gradientBuilder) buildDepthWise(rows []int, features []int) *Tree {
	t := newTree(b.leafValue(b.total(rows)))

	var grow func(node int, rows []int, depth int)
	grow = func(node int, rows []int, depth int) {
		if depth >= b.params.maxDepth {
			return
		}
		s, ok := b.bestSplit(rows, features)
		if !ok {
			return
		}
		lr, rr := b.partition(rows, s)
		l, r := t.split(node, s.feature, b.bins.edges[s.feature][s.edge],
			b.leafValue(b.total(lr)), b.leafValue(b.total(rr)))
		grow(l, lr, depth+1)
		grow(r, rr, depth+1)
	}
	grow(0, rows, 0)
	return t
}

type openLeaf struct {
	node  int
	rows  []int
	depth int
	split candidateSplit
	ok    bool
}

func (b *gradientBuilder) buildLeafWise(rows []int, features []int) *Tree {
	t := newTree(b.leafValue(b.total(rows)))

	open := func(node int, rows []int, depth int) openLeaf {
		l := openLeaf{node: node, rows: rows, depth: depth}
		if depth < b.params.maxDepth {
			l.split, l.ok = b.bestSplit(rows, features)
		}
		return l
	}

	leaves := []openLeaf{open(0, rows, 0)}
	for count := 1; count < b.params.maxLeaves; count++ {
		pick := -1
		for i, l := range leaves {
			if l.ok && (pick < 0 || l.split.gain > leaves[pick].split.gain) {
				pick = i
			}
		}
		if pick < 0 {
			break
		}

		leaf := leaves[pick]
		lr, rr := b.partition(leaf.rows, leaf.split)
		l, r := t.split(leaf.node, leaf.split.feature, b.bins.edges[leaf.split.feature][leaf.split.edge],
			b.leafValue(b.total(lr)), b.leafValue(b.total(rr)))

		leaves[pick] = open(l, lr, leaf.depth+1)
		leaves = append(leaves, open(r, rr, leaf.depth+1))
	}
	return t
}

// buildOblivious grows a symmetric tree: every level uses the single
// (feature, edge) pair that maximizes the summed gain over all leaves.
func (b *gradientBuilder) buildOblivious(rows []int, features []int) *Tree {
	leafOf := make([]int, len(b.binned))

	type level struct {
		feature int
		edge    int
	}
	var levels []level

	for depth := 0; depth < b.params.maxDepth; depth++ {
		width := 1 << depth
		totals := make([]gradStats, width)
		for _, r := range rows {
			totals[leafOf[r]].add(gradStats{g: b.grad[r], h: b.hess[r], n: 1})
		}

		best := candidateSplit{gain: 0}
		found := false
		for _, f := range features {
			hist := make([][]gradStats, width)
			for i := range hist {
				hist[i] = make([]gradStats, b.bins.bins(f))
			}
			for _, r := range rows {
				if v := b.binned[r][f]; v != missingBin {
					hist[leafOf[r]][v].add(gradStats{g: b.grad[r], h: b.hess[r], n: 1})
				}
			}

			left := make([]gradStats, width)
			for e := 0; e < len(b.bins.edges[f]); e++ {
				gain := 0.0
				for leaf := 0; leaf < width; leaf++ {
					left[leaf].add(hist[leaf][e])
					right := totals[leaf].sub(left[leaf])
					gain += score(left[leaf], b.params.lambda) + score(right, b.params.lambda) -
						score(totals[leaf], b.params.lambda)
				}
				if gain > best.gain+1e-12 {
					best = candidateSplit{feature: f, edge: e, gain: gain}
					found = true
				}
			}
		}
		if !found {
			break
		}

		levels = append(levels, level{feature: best.feature, edge: best.edge})
		for _, r := range rows {
			bit := 1
			if goesLeft(b.binned[r][best.feature], best.edge) {
				bit = 0
			}
			leafOf[r] = leafOf[r]*2 + bit
		}
	}

	leafStats := make([]gradStats, 1<<len(levels))
	for _, r := range rows {
		leafStats[leafOf[r]].add(gradStats{g: b.grad[r], h: b.hess[r], n: 1})
	}

	t := newTree(nil)
	var grow func(node, depth, index int)
	grow = func(node, depth, index int) {
		if depth == len(levels) {
			t.Nodes[node].Value = b.leafValue(leafStats[index])
			return
		}
		lv := levels[depth]
		l, r := t.split(node, lv.feature, b.bins.edges[lv.feature][lv.edge], nil, nil)
		grow(l, depth+1, index*2)
		grow(r, depth+1, index*2+1)
	}
	grow(0, 0, 0)
	return t
}

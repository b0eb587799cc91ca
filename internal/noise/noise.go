// Package noise corrupts a fraction of training labels to simulate
// annotation uncertainty.
package noise

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/rs/zerolog/log"
)

var (
	// ErrInvalidRate is returned for rates outside [0, 1].
	ErrInvalidRate = errors.New("noise: rate must be within [0, 1]")
	// ErrTooFewClasses is returned when labels must change but only one class exists.
	ErrTooFewClasses = errors.New("noise: at least 2 distinct classes required")
)

// Inject flips floor(rate*n) labels chosen uniformly without replacement.
// Each flipped label is replaced by a different class drawn uniformly from
// the classes present in labels. The input slice is not modified. The
// returned indices are sorted.
func Inject(labels []int, rate float64, rng *rand.Rand) ([]int, []int, error) {
	if math.IsNaN(rate) || rate < 0 || rate > 1 {
		return nil, nil, fmt.Errorf("%w: got %v", ErrInvalidRate, rate)
	}

	noisy := append([]int(nil), labels...)
	k := int(math.Floor(rate * float64(len(labels))))
	if k == 0 {
		return noisy, nil, nil
	}

	classes := distinct(labels)
	if len(classes) < 2 {
		return nil, nil, fmt.Errorf("%w: found %d", ErrTooFewClasses, len(classes))
	}

	flipped := rng.Perm(len(labels))[:k]
	sort.Ints(flipped)

	candidates := make([]int, 0, len(classes)-1)
	for _, idx := range flipped {
		candidates = candidates[:0]
		for _, c := range classes {
			if c != labels[idx] {
				candidates = append(candidates, c)
			}
		}
		noisy[idx] = candidates[rng.Intn(len(candidates))]
	}

	log.Debug().
		Int("flipped", k).
		Int("total", len(labels)).
		Float64("rate", rate).
		Msg("Label noise injected")

	return noisy, flipped, nil
}

func distinct(labels []int) []int {
	seen := make(map[int]struct{})
	var out []int
	for _, l := range labels {
		if _, ok := seen[l]; !ok {
			seen[l] = struct{}{}
			out = append(out, l)
		}
	}
	sort.Ints(out)
	return out
}

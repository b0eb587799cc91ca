// Package encoder maps categorical feature values to integer codes.
//
// Each column owns its own code space. Codes follow the sorted order of the
// distinct values observed when the column was fitted, so a fixed input
// always encodes the same way.
package encoder

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var (
	// ErrUnknownCode is returned when decoding a code outside the fitted range.
	ErrUnknownCode = errors.New("encoder: unknown code")
	// ErrUnknownValue is returned when a required value was never fitted.
	ErrUnknownValue = errors.New("encoder: unknown value")
	// ErrMissingLabel is returned when a training row carries no label.
	ErrMissingLabel = errors.New("encoder: missing label")
)

// Column is the string↔code mapping of one categorical column.
type Column struct {
	Name    string
	Classes []string

	index map[string]int
}

// Fit builds a column from observed values. Empty values are missing and
// take no code.
func Fit(name string, values []string) *Column {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v != "" {
			seen[v] = struct{}{}
		}
	}

	classes := make([]string, 0, len(seen))
	for v := range seen {
		classes = append(classes, v)
	}
	sort.Strings(classes)

	return NewColumn(name, classes)
}

// NewColumn restores a column from its ordered classes.
func NewColumn(name string, classes []string) *Column {
	c := &Column{Name: name, Classes: classes, index: make(map[string]int, len(classes))}
	for i, v := range classes {
		c.index[v] = i
	}
	return c
}

// Len returns the number of codes.
func (c *Column) Len() int {
	return len(c.Classes)
}

// Code returns the code of v.
func (c *Column) Code(v string) (int, bool) {
	code, ok := c.index[v]
	return code, ok
}

// Encode returns the code of v as a feature value. Missing and unseen
// values encode as NaN.
func (c *Column) Encode(v string) float64 {
	code, ok := c.index[v]
	if !ok {
		return math.NaN()
	}
	return float64(code)
}

// Decode maps a code back to its string.
func (c *Column) Decode(code int) (string, error) {
	if code < 0 || code >= len(c.Classes) {
		return "", fmt.Errorf("%w: %s=%d", ErrUnknownCode, c.Name, code)
	}
	return c.Classes[code], nil
}

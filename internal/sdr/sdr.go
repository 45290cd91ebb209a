package sdr

import (
	"slices"
	"strconv"
	"strings"
)

// #region vector
// Vector is a sparse binary vector stored as strictly increasing active bit indices.
type Vector []int

// Normalize returns a sorted, de-duplicated copy of idx with negative indices dropped.
func Normalize(idx []int) Vector {
	out := make(Vector, 0, len(idx))
	for _, i := range idx {
		if i >= 0 {
			out = append(out, i)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// FromDense converts a dense 0/1 slice into its active indices.
func FromDense(dense []int) Vector {
	out := Vector{}
	for i, b := range dense {
		if b != 0 {
			out = append(out, i)
		}
	}
	return out
}
// #endregion vector

// #region set-ops
// Overlap counts indices present in both vectors. Both must be normalized.
func Overlap(a, b Vector) int {
	n, i, j := 0, 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			n++
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return n
}

// Equal reports whether a and b hold the same indices.
func Equal(a, b Vector) bool {
	return slices.Equal(a, b)
}

// Contains reports whether idx is active in v.
func (v Vector) Contains(idx int) bool {
	_, ok := slices.BinarySearch(v, idx)
	return ok
}

// Similarity is the overlap as a fraction of the larger vector, in [0,1].
func Similarity(a, b Vector) float64 {
	denom := max(len(a), len(b))
	if denom == 0 {
		return 1
	}
	return float64(Overlap(a, b)) / float64(denom)
}
// #endregion set-ops

// #region formatting
// String renders the indices comma-separated, e.g. "3, 7, 12".
func (v Vector) String() string {
	parts := make([]string, len(v))
	for i, idx := range v {
		parts[i] = strconv.Itoa(idx)
	}
	return strings.Join(parts, ", ")
}

// Key is a compact stable identifier for use as a map key.
func (v Vector) Key() string {
	var b strings.Builder
	for i, idx := range v {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(strconv.Itoa(idx))
	}
	return b.String()
}
// #endregion formatting

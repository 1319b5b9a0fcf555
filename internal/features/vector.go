// Package features maps token sequences into sparse signed vectors using the
// hashing trick, and measures L1 distances between them.
package features

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
)

// Vector is a sparse vector. Indices are strictly increasing and every value
// is non-zero. The zero Vector is the all-zero vector.
type Vector struct {
	Indices []int
	Values  []float64
}

// Len returns the number of non-zero entries.
func (v Vector) Len() int {
	return len(v.Indices)
}

// Equal reports whether v and o hold the same entries.
func (v Vector) Equal(o Vector) bool {
	if len(v.Indices) != len(o.Indices) {
		return false
	}
	for i := range v.Indices {
		if v.Indices[i] != o.Indices[i] || v.Values[i] != o.Values[i] {
			return false
		}
	}
	return true
}

// Fingerprint returns a 64-bit digest of the vector's entries. Equal vectors
// have equal fingerprints; the converse holds only with high probability.
func (v Vector) Fingerprint() uint64 {
	d := xxhash.New()
	var buf [16]byte
	for i := range v.Indices {
		binary.LittleEndian.PutUint64(buf[:8], uint64(v.Indices[i]))
		binary.LittleEndian.PutUint64(buf[8:], math.Float64bits(v.Values[i]))
		_, _ = d.Write(buf[:])
	}
	return d.Sum64()
}

// L1Distance returns the sum of absolute differences between a and b.
func L1Distance(a, b Vector) float64 {
	d, _ := boundedL1(a, b, math.Inf(1))
	return d
}

// Within reports whether the L1 distance between a and b is at most eps.
// It stops scanning as soon as the running sum exceeds eps.
func Within(a, b Vector, eps float64) bool {
	_, ok := boundedL1(a, b, eps)
	return ok
}

// boundedL1 merges the two index lists. It returns early with ok=false once
// the partial sum exceeds limit.
func boundedL1(a, b Vector, limit float64) (float64, bool) {
	var sum float64
	i, j := 0, 0
	for i < len(a.Indices) || j < len(b.Indices) {
		switch {
		case j >= len(b.Indices) || (i < len(a.Indices) && a.Indices[i] < b.Indices[j]):
			sum += math.Abs(a.Values[i])
			i++
		case i >= len(a.Indices) || b.Indices[j] < a.Indices[i]:
			sum += math.Abs(b.Values[j])
			j++
		default:
			sum += math.Abs(a.Values[i] - b.Values[j])
			i++
			j++
		}
		if sum > limit {
			return sum, false
		}
	}
	return sum, true
}

package features

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/cespare/xxhash/v2"

	"github.com/bimmerbailey/grasp/internal/workpool"
)

// DefaultDimensions is the size of the hashed feature space.
const DefaultDimensions = 1 << 24

// ErrInvalidDimensions is returned for a non-positive feature space size.
var ErrInvalidDimensions = errors.New("feature dimensions must be positive")

// signBit selects the hash bit that decides a token's sign. Index selection
// uses the low bits, so the top bit is independent for any practical size.
const signBit = 1 << 63

// Hasher maps token sequences into vectors of fixed dimensionality.
// The hash function is unseeded so a token maps to the same index and sign
// in every run.
type Hasher struct {
	dims uint64
}

// NewHasher returns a Hasher for a space of dims dimensions.
func NewHasher(dims int) (*Hasher, error) {
	if dims <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDimensions, dims)
	}
	return &Hasher{dims: uint64(dims)}, nil
}

// Dimensions returns the size of the feature space.
func (h *Hasher) Dimensions() int {
	return int(h.dims)
}

// Slot returns the index and sign a token contributes to.
func (h *Hasher) Slot(token string) (int, float64) {
	sum := xxhash.Sum64String(token)
	sign := 1.0
	if sum&signBit != 0 {
		sign = -1.0
	}
	return int(sum % h.dims), sign
}

// Hash builds the vector for one token sequence. Token order does not
// affect the result. Entries that cancel out to zero are omitted.
func (h *Hasher) Hash(tokens []string) Vector {
	if len(tokens) == 0 {
		return Vector{}
	}

	acc := make(map[int]float64, len(tokens))
	for _, tok := range tokens {
		idx, sign := h.Slot(tok)
		acc[idx] += sign
	}

	indices := make([]int, 0, len(acc))
	for idx, val := range acc {
		if val != 0 {
			indices = append(indices, idx)
		}
	}
	slices.Sort(indices)

	values := make([]float64, len(indices))
	for i, idx := range indices {
		values[i] = acc[idx]
	}
	return Vector{Indices: indices, Values: values}
}

// HashAll hashes every token sequence, splitting the work across workers.
// The result has one vector per sequence, in input order.
func (h *Hasher) HashAll(ctx context.Context, seqs [][]string, workers int) ([]Vector, error) {
	out := make([]Vector, len(seqs))
	err := workpool.ForEachChunk(ctx, len(seqs), workers, func(_ context.Context, start, end int) error {
		for i := start; i < end; i++ {
			out[i] = h.Hash(seqs[i])
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

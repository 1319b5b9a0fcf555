// Package cluster implements density-based clustering of sparse vectors.
package cluster

import (
	"context"
	"errors"
	"fmt"

	"github.com/bimmerbailey/grasp/internal/features"
	"github.com/bimmerbailey/grasp/internal/workpool"
)

// Noise labels a point that belongs to no cluster.
const Noise = -1

const unlabeled = -2

var (
	// ErrInvalidEps is returned for a non-positive distance threshold.
	ErrInvalidEps = errors.New("eps must be greater than 0")
	// ErrInvalidMinSamples is returned for a minimum neighbourhood below one.
	ErrInvalidMinSamples = errors.New("min samples must be at least 1")
)

// Options configures DBSCAN.
type Options struct {
	// Eps is the largest L1 distance at which two points are neighbours.
	Eps float64
	// MinSamples is the neighbourhood size, the point itself included,
	// that makes a point a core point.
	MinSamples int
	// Workers bounds the goroutines used for neighbourhood queries.
	// Zero means GOMAXPROCS.
	Workers int
}

// DBSCAN labels every vector with a cluster id or Noise.
//
// Points are visited in input order. Each unlabeled core point opens the
// next cluster id, starting at 0, and the cluster grows breadth-first
// through core points. Neighbours are visited in ascending input order, so a
// border point within reach of several clusters joins the one that reaches
// it first. Identical vectors always share a label.
func DBSCAN(ctx context.Context, vectors []features.Vector, opts Options) ([]int, error) {
	if opts.Eps <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEps, opts.Eps)
	}
	if opts.MinSamples < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMinSamples, opts.MinSamples)
	}

	labels := make([]int, len(vectors))
	if len(vectors) == 0 {
		return labels, nil
	}

	s := newSpace(vectors, opts)
	if err := s.findCores(ctx); err != nil {
		return nil, err
	}
	if err := s.expand(ctx); err != nil {
		return nil, err
	}

	for i, u := range s.owner {
		labels[i] = s.labels[u]
	}
	return labels, nil
}

// space holds the distinct vectors of one run. Duplicate input vectors
// collapse into a single point whose weight is their multiplicity.
type space struct {
	points  []features.Vector
	weights []int
	owner   []int // input index -> point index

	eps        float64
	minSamples int
	workers    int

	core   []bool
	labels []int
	hits   []bool // scratch for neighbourhood queries
}

func newSpace(vectors []features.Vector, opts Options) *space {
	s := &space{
		owner:      make([]int, len(vectors)),
		eps:        opts.Eps,
		minSamples: opts.MinSamples,
		workers:    workpool.Workers(opts.Workers),
	}

	byPrint := make(map[uint64][]int)
	for i, v := range vectors {
		fp := v.Fingerprint()
		id := -1
		for _, cand := range byPrint[fp] {
			if s.points[cand].Equal(v) {
				id = cand
				break
			}
		}
		if id < 0 {
			id = len(s.points)
			s.points = append(s.points, v)
			s.weights = append(s.weights, 0)
			byPrint[fp] = append(byPrint[fp], id)
		}
		s.weights[id]++
		s.owner[i] = id
	}

	s.core = make([]bool, len(s.points))
	s.labels = make([]int, len(s.points))
	for i := range s.labels {
		s.labels[i] = unlabeled
	}
	s.hits = make([]bool, len(s.points))
	return s
}

// findCores marks every point whose weighted neighbourhood reaches
// minSamples. Rows are independent and computed in parallel.
func (s *space) findCores(ctx context.Context) error {
	n := len(s.points)
	return workpool.ForEachChunk(ctx, n, s.workers, func(ctx context.Context, start, end int) error {
		for i := start; i < end; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}

			count := s.weights[i]
			for j := 0; j < n && count < s.minSamples; j++ {
				if j != i && features.Within(s.points[i], s.points[j], s.eps) {
					count += s.weights[j]
				}
			}
			s.core[i] = count >= s.minSamples
		}
		return nil
	})
}

// neighbours returns the points within eps of p in ascending order, p
// included. The distance scan is parallel; collection is serial.
func (s *space) neighbours(ctx context.Context, p int) ([]int, error) {
	n := len(s.points)
	err := workpool.ForEachChunk(ctx, n, s.workers, func(_ context.Context, start, end int) error {
		for j := start; j < end; j++ {
			s.hits[j] = j == p || features.Within(s.points[p], s.points[j], s.eps)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]int, 0, 8)
	for j, hit := range s.hits {
		if hit {
			out = append(out, j)
		}
	}
	return out, nil
}

// expand assigns cluster ids. It runs serially so that ids and border
// ownership depend only on input order.
func (s *space) expand(ctx context.Context) error {
	next := 0
	queue := make([]int, 0, 64)

	for p := range s.points {
		if s.labels[p] != unlabeled || !s.core[p] {
			continue
		}

		id := next
		next++
		s.labels[p] = id
		queue = append(queue[:0], p)

		for head := 0; head < len(queue); head++ {
			nbrs, err := s.neighbours(ctx, queue[head])
			if err != nil {
				return err
			}
			for _, q := range nbrs {
				if s.labels[q] != unlabeled {
					continue
				}
				s.labels[q] = id
				if s.core[q] {
					queue = append(queue, q)
				}
			}
		}
	}

	for p, l := range s.labels {
		if l == unlabeled {
			s.labels[p] = Noise
		}
	}
	return nil
}

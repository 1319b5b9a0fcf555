// Package report accumulates clustering labels into a bounded summary.
package report

import (
	"errors"
	"fmt"
)

// NoiseID is the id carried by the noise bucket.
const NoiseID = -1

// ErrInvalidLabel is returned for a label below NoiseID.
var ErrInvalidLabel = errors.New("invalid cluster label")

// LogEvent is one input line.
type LogEvent struct {
	LineNumber int    // 1-based position across all input files
	Text       string // the line with surrounding whitespace removed
}

// ClusterRecord summarizes one cluster, or the noise bucket.
type ClusterRecord struct {
	ID         int
	TotalCount int
	Samples    []LogEvent

	// Pattern is a template shared by the samples, with variable positions
	// replaced by a wildcard. It is filled in after accumulation and may be
	// empty.
	Pattern string
}

// Omitted returns how many events of the record are not among its samples.
func (c *ClusterRecord) Omitted() int {
	return c.TotalCount - len(c.Samples)
}

// Report is the outcome of one clustering run.
type Report struct {
	Clusters []*ClusterRecord // in order of first appearance
	Noise    *ClusterRecord
}

// Categorized returns the number of events that belong to a cluster.
func (r *Report) Categorized() int {
	n := 0
	for _, c := range r.Clusters {
		n += c.TotalCount
	}
	return n
}

// Total returns the number of events the report accounts for.
func (r *Report) Total() int {
	return r.Categorized() + r.Noise.TotalCount
}

// Accumulator builds a Report from (label, event) pairs reported in input
// order. Memory use is bounded by the sample caps and the cluster count.
type Accumulator struct {
	maxSamples int
	maxNoisy   int
	byID       map[int]*ClusterRecord
	order      []*ClusterRecord
	noise      *ClusterRecord
}

// NewAccumulator creates an Accumulator keeping at most maxSamples events per
// cluster and maxNoisy noise events.
func NewAccumulator(maxSamples, maxNoisy int) *Accumulator {
	return &Accumulator{
		maxSamples: maxSamples,
		maxNoisy:   maxNoisy,
		byID:       make(map[int]*ClusterRecord),
		noise:      &ClusterRecord{ID: NoiseID, Samples: []LogEvent{}},
	}
}

// Report records one event under label.
func (a *Accumulator) Report(label int, ev LogEvent) error {
	if label < NoiseID {
		return fmt.Errorf("%w: %d", ErrInvalidLabel, label)
	}

	if label == NoiseID {
		a.noise.TotalCount++
		if a.noise.TotalCount <= a.maxNoisy {
			a.noise.Samples = append(a.noise.Samples, ev)
		}
		return nil
	}

	c, ok := a.byID[label]
	if !ok {
		c = &ClusterRecord{ID: label, TotalCount: 1, Samples: []LogEvent{ev}}
		a.byID[label] = c
		a.order = append(a.order, c)
		return nil
	}

	c.TotalCount++
	if len(c.Samples) < a.maxSamples {
		c.Samples = append(c.Samples, ev)
	}
	return nil
}

// Finalize returns the accumulated report. Clusters appear in the order
// their first event was reported.
func (a *Accumulator) Finalize() *Report {
	clusters := make([]*ClusterRecord, len(a.order))
	copy(clusters, a.order)
	return &Report{Clusters: clusters, Noise: a.noise}
}

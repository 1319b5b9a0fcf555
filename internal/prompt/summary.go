package prompt

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/bimmerbailey/grasp/internal/report"
)

// DefaultMaxLineLength bounds each sample line in a summary.
const DefaultMaxLineLength = 300

// SummaryOptions controls how a report is rendered for a model.
type SummaryOptions struct {
	// MaxClusters limits how many clusters are included, largest first.
	// 0 includes all.
	MaxClusters int

	// MaxLineLength truncates long samples. 0 means DefaultMaxLineLength.
	MaxLineLength int
}

// Summarize renders rep as compact text. Clusters are listed by size,
// largest first, ties by id.
func Summarize(rep *report.Report, opts SummaryOptions) string {
	if opts.MaxLineLength <= 0 {
		opts.MaxLineLength = DefaultMaxLineLength
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Total events: %d, clusters: %d, noisy events: %d\n",
		rep.Total(), len(rep.Clusters), rep.Noise.TotalCount)

	clusters := bySize(rep.Clusters)
	omitted := 0
	if opts.MaxClusters > 0 && len(clusters) > opts.MaxClusters {
		omitted = len(clusters) - opts.MaxClusters
		clusters = clusters[:opts.MaxClusters]
	}

	for _, c := range clusters {
		fmt.Fprintf(&sb, "\n=== Cluster %d (%d events) ===\n", c.ID, c.TotalCount)
		if c.Pattern != "" {
			fmt.Fprintf(&sb, "Pattern: %s\n", clip(c.Pattern, opts.MaxLineLength))
		}
		writeSamples(&sb, c, opts.MaxLineLength)
	}
	if omitted > 0 {
		fmt.Fprintf(&sb, "\n(%d smaller clusters omitted)\n", omitted)
	}

	if rep.Noise.TotalCount > 0 {
		fmt.Fprintf(&sb, "\n=== Noise (%d events) ===\n", rep.Noise.TotalCount)
		writeSamples(&sb, rep.Noise, opts.MaxLineLength)
	}

	return strings.TrimRight(sb.String(), "\n")
}

func writeSamples(sb *strings.Builder, c *report.ClusterRecord, maxLen int) {
	sb.WriteString("Examples:\n")
	for _, ev := range c.Samples {
		fmt.Fprintf(sb, "  - L#%d: %s\n", ev.LineNumber, clip(ev.Text, maxLen))
	}
	if n := c.Omitted(); n > 0 {
		fmt.Fprintf(sb, "  (%d more)\n", n)
	}
}

// bySize returns a copy of clusters ordered by descending TotalCount.
func bySize(clusters []*report.ClusterRecord) []*report.ClusterRecord {
	out := make([]*report.ClusterRecord, len(clusters))
	copy(out, clusters)
	slices.SortStableFunc(out, func(a, b *report.ClusterRecord) int {
		return cmp.Compare(b.TotalCount, a.TotalCount)
	})
	return out
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// Package output renders clustering reports. It supports a human-readable
// pretty format, JSON, and a compact table.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/bimmerbailey/grasp/internal/config"
	"github.com/bimmerbailey/grasp/internal/preprocess"
	"github.com/bimmerbailey/grasp/internal/report"
)

// Format represents an output format type.
type Format string

const (
	FormatPretty Format = "pretty"
	FormatJSON   Format = "json"
	FormatTable  Format = "table"
)

// ParseFormat converts a string to a Format. "text" is accepted as an alias
// of pretty.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "pretty", "text", "":
		return FormatPretty, nil
	case "json":
		return FormatJSON, nil
	case "table":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("invalid output format %q (valid: pretty, json, table)", s)
	}
}

// Writer handles writing formatted output.
type Writer struct {
	w            io.Writer
	format       Format
	colorize     bool
	showPatterns bool
}

// Option configures a Writer.
type Option func(*Writer)

// WithColor sets when pretty output is colored.
func WithColor(mode ColorMode) Option {
	return func(wr *Writer) {
		wr.colorize = shouldColorize(mode, wr.w)
	}
}

// WithPatterns prints each cluster's template in pretty output when it
// contains a wildcard.
func WithPatterns(enabled bool) Option {
	return func(wr *Writer) {
		wr.showPatterns = enabled
	}
}

// New creates a new output Writer. Color is off unless WithColor is given.
func New(w io.Writer, format Format, opts ...Option) *Writer {
	wr := &Writer{w: w, format: format}
	for _, opt := range opts {
		opt(wr)
	}
	return wr
}

// WriteReport outputs a clustering report in the configured format.
func (wr *Writer) WriteReport(rep *report.Report) error {
	switch wr.format {
	case FormatJSON:
		return wr.WriteJSON(rep.JSON())
	case FormatTable:
		return wr.writeTable(rep)
	default:
		return wr.writePretty(rep)
	}
}

// WriteJSON outputs any value as indented JSON.
func (wr *Writer) WriteJSON(v any) error {
	enc := json.NewEncoder(wr.w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func (wr *Writer) writePretty(rep *report.Report) error {
	ew := &errWriter{w: wr.w}

	for _, c := range rep.Clusters {
		ew.println(wr.bold(fmt.Sprintf("Detected cluster %d", c.ID)))
		if wr.showPatterns && preprocess.HasWildcard(c.Pattern) {
			ew.println("\tPattern: " + c.Pattern)
		}
		for _, ev := range c.Samples {
			ew.println(wr.event(ev))
		}
		if n := c.Omitted(); n > 0 {
			ew.println(fmt.Sprintf("\t(...and %d more similar event(s)...)", n))
		}
		ew.println("")
	}

	if rep.Noise.TotalCount > 0 {
		ew.println(wr.bold("Noisy events (not belonging to any cluster)"))
		for _, ev := range rep.Noise.Samples {
			ew.println(wr.event(ev))
		}
		if n := rep.Noise.Omitted(); n > 0 {
			ew.println(fmt.Sprintf("\t(...and %d more event(s)...)", n))
		}
	}

	categorized := rep.Categorized()
	total := rep.Total()
	percent := 0.0
	if total > 0 {
		percent = float64(categorized) / float64(total) * 100
	}

	ew.println("")
	ew.println("---")
	ew.println("")
	ew.println(fmt.Sprintf("Detected clusters: %d", len(rep.Clusters)))
	ew.println(fmt.Sprintf("Total events: %d", total))
	ew.println(fmt.Sprintf("Noisy events: %d", rep.Noise.TotalCount))
	ew.println(fmt.Sprintf("Categorized events: %d (%.2f%%)", categorized, percent))

	return ew.err
}

func (wr *Writer) event(ev report.LogEvent) string {
	text := ev.Text
	if wr.colorize {
		text = ColorizeLine(config.DetectLevel(text), text)
	}
	return fmt.Sprintf("\tL#%d: %s", ev.LineNumber, text)
}

func (wr *Writer) bold(s string) string {
	if !wr.colorize {
		return s
	}
	return colorBold + s + colorReset
}

func (wr *Writer) writeTable(rep *report.Report) error {
	tw := tabwriter.NewWriter(wr.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CLUSTER\tEVENTS\tFIRST LINE\tPATTERN")
	fmt.Fprintln(tw, "-------\t------\t----------\t-------")

	for _, c := range rep.Clusters {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%s\n", c.ID, c.TotalCount, firstLine(c), truncate(summary(c), 80))
	}
	if rep.Noise.TotalCount > 0 {
		fmt.Fprintf(tw, "noise\t%d\t%d\t%s\n", rep.Noise.TotalCount, firstLine(rep.Noise), "-")
	}

	return tw.Flush()
}

// summary prefers the cluster template and falls back to its first sample.
func summary(c *report.ClusterRecord) string {
	if c.Pattern != "" {
		return c.Pattern
	}
	if len(c.Samples) > 0 {
		return c.Samples[0].Text
	}
	return ""
}

func firstLine(c *report.ClusterRecord) int {
	if len(c.Samples) == 0 {
		return 0
	}
	return c.Samples[0].LineNumber
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// errWriter remembers the first write error so rendering code can stay
// linear.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}

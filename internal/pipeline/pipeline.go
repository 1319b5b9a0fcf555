// Package pipeline runs the full clustering flow over a batch of lines:
// analysis, feature hashing, density clustering and accumulation.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/bimmerbailey/grasp/internal/analysis"
	"github.com/bimmerbailey/grasp/internal/cluster"
	"github.com/bimmerbailey/grasp/internal/config"
	"github.com/bimmerbailey/grasp/internal/features"
	"github.com/bimmerbailey/grasp/internal/preprocess"
	"github.com/bimmerbailey/grasp/internal/report"
)

// ErrLabelMismatch means the clusterer returned a label count different from
// the event count. It indicates a bug, never bad input.
var ErrLabelMismatch = errors.New("label count does not match event count")

// Pipeline clusters batches of log lines. It holds no per-run state and may
// be reused across runs.
type Pipeline struct {
	cfg      config.ClusteringConfig
	analyzer *analysis.Analyzer
	hasher   *features.Hasher
	logger   *slog.Logger
}

// New builds a Pipeline from validated clustering settings.
func New(cfg config.ClusteringConfig, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}

	analyzer, err := newAnalyzer(cfg, logger)
	if err != nil {
		return nil, err
	}

	hasher, err := features.NewHasher(config.Dimensions)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		cfg:      cfg,
		analyzer: analyzer,
		hasher:   hasher,
		logger:   logger,
	}, nil
}

// newAnalyzer composes the analysis stages for cfg. Masking runs before
// lower-casing so the patterns see the original text.
func newAnalyzer(cfg config.ClusteringConfig, logger *slog.Logger) (*analysis.Analyzer, error) {
	var charFilters []analysis.CharFilter
	if cfg.Mask {
		masker, err := preprocess.NewMasker(cfg.MaskPatterns)
		if err != nil {
			return nil, err
		}
		logger.Debug("masking enabled", "patterns", masker.Names())
		charFilters = append(charFilters, masker.Mask)
	}
	if cfg.Normalize {
		charFilters = append(charFilters, analysis.NormalizeFilter)
	}
	charFilters = append(charFilters, analysis.LowercaseFilter)

	tokenFilters := []analysis.TokenFilter{analysis.NumericFilter, analysis.SingleCharFilter}
	if len(cfg.NGrams) > 0 {
		tokenFilters = append(tokenFilters, analysis.NGramEnricher(cfg.NGrams...))
	}

	return analysis.New(
		analysis.WithCharFilters(charFilters...),
		analysis.WithTokenFilters(tokenFilters...),
	), nil
}

// Run clusters lines and returns the report. Line numbers start at 1.
// Surrounding whitespace is stripped from every line before analysis and
// the stripped text is what the report carries.
func (p *Pipeline) Run(ctx context.Context, lines []string) (_ *report.Report, err error) {
	start := time.Now()
	ctx, span := startStageSpan(ctx, "Run", len(lines))
	defer span.End()

	var rep *report.Report
	defer func() {
		clusters, noise := 0, 0
		if rep != nil {
			clusters, noise = len(rep.Clusters), rep.Noise.TotalCount
		}
		recordRun(ctx, time.Since(start), len(lines), clusters, noise, err == nil)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	texts := make([]string, len(lines))
	for i, line := range lines {
		texts[i] = strings.TrimSpace(line)
	}

	workers := p.cfg.Workers

	var tokens [][]string
	err = p.stage(ctx, "analyze", len(texts), func(ctx context.Context) error {
		var err error
		tokens, err = p.analyzer.AnalyzeAll(ctx, texts, workers)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("text analysis failed: %w", err)
	}

	var vectors []features.Vector
	err = p.stage(ctx, "hash", len(tokens), func(ctx context.Context) error {
		var err error
		vectors, err = p.hasher.HashAll(ctx, tokens, workers)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("feature hashing failed: %w", err)
	}

	var labels []int
	err = p.stage(ctx, "cluster", len(vectors), func(ctx context.Context) error {
		var err error
		labels, err = cluster.DBSCAN(ctx, vectors, cluster.Options{
			Eps:        p.cfg.MaxDistance,
			MinSamples: config.MinSamples,
			Workers:    workers,
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("clustering failed: %w", err)
	}
	if len(labels) != len(texts) {
		return nil, fmt.Errorf("%w: %d labels for %d events", ErrLabelMismatch, len(labels), len(texts))
	}

	err = p.stage(ctx, "accumulate", len(labels), func(context.Context) error {
		var err error
		rep, err = accumulate(labels, texts, p.cfg.MaxSamplesPerCluster, p.cfg.MaxNoisySamples)
		return err
	})
	if err != nil {
		return nil, err
	}

	for _, c := range rep.Clusters {
		samples := make([]string, len(c.Samples))
		for i, ev := range c.Samples {
			samples[i] = ev.Text
		}
		c.Pattern = preprocess.Template(samples)
	}

	span.SetAttributes(
		attribute.Int("pipeline.clusters", len(rep.Clusters)),
		attribute.Int("pipeline.noise", rep.Noise.TotalCount),
	)
	p.logger.Debug("clustering run completed",
		"events", len(texts),
		"clusters", len(rep.Clusters),
		"noise", rep.Noise.TotalCount,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return rep, nil
}

// stage runs fn inside a span and records its duration.
func (p *Pipeline) stage(ctx context.Context, name string, items int, fn func(context.Context) error) error {
	ctx, span := startStageSpan(ctx, name, items)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)

	recordStage(ctx, name, elapsed)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	p.logger.Debug(name+" completed", "items", items, "duration_ms", elapsed.Milliseconds())
	return nil
}

// accumulate zips labels with events in input order.
func accumulate(labels []int, texts []string, maxSamples, maxNoisy int) (*report.Report, error) {
	acc := report.NewAccumulator(maxSamples, maxNoisy)
	for i, label := range labels {
		ev := report.LogEvent{LineNumber: i + 1, Text: texts[i]}
		if err := acc.Report(label, ev); err != nil {
			return nil, err
		}
	}
	return acc.Finalize(), nil
}

package pipeline

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for clustering runs.
var (
	tracer = otel.Tracer("grasp.pipeline")
	meter  = otel.Meter("grasp.pipeline")
)

// Metrics for clustering runs.
var (
	runLatency   metric.Float64Histogram
	stageLatency metric.Float64Histogram
	eventsTotal  metric.Int64Counter
	noiseTotal   metric.Int64Counter
	clustersSeen metric.Int64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		runLatency, err = meter.Float64Histogram(
			"grasp_run_duration_seconds",
			metric.WithDescription("Duration of a full clustering run"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		stageLatency, err = meter.Float64Histogram(
			"grasp_stage_duration_seconds",
			metric.WithDescription("Duration of a single pipeline stage"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		eventsTotal, err = meter.Int64Counter(
			"grasp_events_total",
			metric.WithDescription("Total number of log events clustered"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		noiseTotal, err = meter.Int64Counter(
			"grasp_noise_events_total",
			metric.WithDescription("Total number of log events labelled as noise"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		clustersSeen, err = meter.Int64Histogram(
			"grasp_clusters",
			metric.WithDescription("Number of clusters found per run"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// startStageSpan creates a span for one pipeline stage.
func startStageSpan(ctx context.Context, stage string, items int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Pipeline."+stage,
		trace.WithAttributes(
			attribute.String("pipeline.stage", stage),
			attribute.Int("pipeline.items", items),
		),
	)
}

// recordStage records the duration of one stage.
func recordStage(ctx context.Context, stage string, d time.Duration) {
	if err := initMetrics(); err != nil {
		return
	}
	stageLatency.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("stage", stage)))
}

// recordRun records metrics for a completed run.
func recordRun(ctx context.Context, d time.Duration, events, clusters, noise int, success bool) {
	if err := initMetrics(); err != nil {
		return
	}

	attrs := metric.WithAttributes(attribute.Bool("success", success))
	runLatency.Record(ctx, d.Seconds(), attrs)
	if !success {
		return
	}
	eventsTotal.Add(ctx, int64(events))
	noiseTotal.Add(ctx, int64(noise))
	clustersSeen.Record(ctx, int64(clusters))
}

package services

import (
	"context"

	"github.com/go-kratos/kratos/v2/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricNameEventsIngested  = "playback_events_ingested_total"
	metricNameDeltaRejected   = "playback_delta_rejected_total"
	metricNameCompletions     = "playback_media_completed_total"
	metricNameAbnormalFlagged = "playback_abnormal_flagged_total"
	metricNameLessonCompleted = "learning_lesson_completed_total"
)

type playbackMetrics struct {
	events    metric.Int64Counter
	rejected  metric.Int64Counter
	completed metric.Int64Counter
	abnormal  metric.Int64Counter
	lessons   metric.Int64Counter
	enabled   bool
}

func newPlaybackMetrics(helper *log.Helper) *playbackMetrics {
	meter := otel.GetMeterProvider().Meter("lingo-services-learning.playback")
	m := &playbackMetrics{}

	var err error
	if m.events, err = meter.Int64Counter(metricNameEventsIngested,
		metric.WithDescription("Number of playback events accepted")); err != nil {
		helper.Warnf("playback metrics: register events counter: %v", err)
		return m
	}
	if m.rejected, err = meter.Int64Counter(metricNameDeltaRejected,
		metric.WithDescription("Number of watch-time deltas skipped")); err != nil {
		helper.Warnf("playback metrics: register rejected counter: %v", err)
	}
	if m.completed, err = meter.Int64Counter(metricNameCompletions,
		metric.WithDescription("Number of media records transitioned to completed")); err != nil {
		helper.Warnf("playback metrics: register completed counter: %v", err)
	}
	if m.abnormal, err = meter.Int64Counter(metricNameAbnormalFlagged,
		metric.WithDescription("Number of records flagged for abnormal seeking")); err != nil {
		helper.Warnf("playback metrics: register abnormal counter: %v", err)
	}
	if m.lessons, err = meter.Int64Counter(metricNameLessonCompleted,
		metric.WithDescription("Number of lessons transitioned to completed")); err != nil {
		helper.Warnf("playback metrics: register lesson counter: %v", err)
	}
	m.enabled = true
	return m
}

func (m *playbackMetrics) recordEvent(ctx context.Context, eventType string) {
	if m == nil || !m.enabled || m.events == nil {
		return
	}
	m.events.Add(ctx, 1, metric.WithAttributes(attribute.String("event_type", eventType)))
}

func (m *playbackMetrics) recordRejected(ctx context.Context, reason string) {
	if m == nil || !m.enabled || m.rejected == nil {
		return
	}
	m.rejected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

func (m *playbackMetrics) recordCompleted(ctx context.Context) {
	if m == nil || !m.enabled || m.completed == nil {
		return
	}
	m.completed.Add(ctx, 1)
}

func (m *playbackMetrics) recordAbnormal(ctx context.Context) {
	if m == nil || !m.enabled || m.abnormal == nil {
		return
	}
	m.abnormal.Add(ctx, 1)
}

func (m *playbackMetrics) recordLessonCompleted(ctx context.Context) {
	if m == nil || !m.enabled || m.lessons == nil {
		return
	}
	m.lessons.Add(ctx, 1)
}

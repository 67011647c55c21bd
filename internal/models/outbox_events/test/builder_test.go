package outboxevents_test

import (
	"testing"
	"time"

	outboxevents "github.com/bionicotaku/lingo-services-learning/internal/models/outbox_events"
	"github.com/bionicotaku/lingo-services-learning/internal/models/po"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func completedRecord(t *testing.T, at time.Time) *po.PlayRecord {
	t.Helper()
	rec := po.NewPlayRecord(uuid.New(), uuid.New(), at)
	rec.MaxPlayedTime = 595
	rec.EffectiveDuration = 540
	rec.SeekCount = 2
	require.True(t, rec.MarkCompleted(at))
	return rec
}

func TestNewMediaCompletedEvent(t *testing.T) {
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	rec := completedRecord(t, now)
	lessonID := uuid.New()
	evtID := uuid.New()

	evt, err := outboxevents.NewMediaCompletedEvent(rec, &lessonID, 600, evtID, time.Time{})
	require.NoError(t, err)
	require.Equal(t, outboxevents.KindMediaCompleted, evt.Kind)
	require.Equal(t, rec.RecordID, evt.AggregateID)
	require.Equal(t, outboxevents.AggregateTypePlayRecord, evt.AggregateType)
	require.True(t, evt.OccurredAt.Equal(now))
	require.Equal(t, now.UnixMicro(), evt.Version)

	payload, ok := evt.Payload.(*outboxevents.MediaCompleted)
	require.True(t, ok)
	require.InDelta(t, 595.0/600.0, payload.CompletionRate, 1e-9)
	require.InDelta(t, 0.9, payload.EffectiveRate, 1e-9)
	require.Equal(t, &lessonID, payload.LessonID)
}

func TestNewMediaCompletedEvent_Rejections(t *testing.T) {
	_, err := outboxevents.NewMediaCompletedEvent(nil, nil, 600, uuid.New(), time.Now())
	require.ErrorIs(t, err, outboxevents.ErrNilAggregate)

	rec := completedRecord(t, time.Now())
	_, err = outboxevents.NewMediaCompletedEvent(rec, nil, 600, uuid.Nil, time.Now())
	require.ErrorIs(t, err, outboxevents.ErrInvalidEventID)

	pending := po.NewPlayRecord(uuid.New(), uuid.New(), time.Now())
	_, err = outboxevents.NewMediaCompletedEvent(pending, nil, 600, uuid.New(), time.Now())
	require.ErrorIs(t, err, outboxevents.ErrNotCompleted)
}

func TestNewLessonCompletedEvent_StableAggregateID(t *testing.T) {
	now := time.Now().UTC()
	progress := &po.LessonProgress{
		UserID:      uuid.New(),
		LessonID:    uuid.New(),
		CourseID:    uuid.New(),
		Percentage:  92.5,
		Completed:   true,
		CompletedAt: &now,
	}

	first, err := outboxevents.NewLessonCompletedEvent(progress, 2, 3, uuid.New(), now)
	require.NoError(t, err)
	second, err := outboxevents.NewLessonCompletedEvent(progress, 2, 3, uuid.New(), now)
	require.NoError(t, err)
	require.Equal(t, first.AggregateID, second.AggregateID)
	require.Equal(t, outboxevents.LessonProgressAggregateID(progress.UserID, progress.LessonID), first.AggregateID)
	require.Equal(t, "learning.lesson.completed", first.Kind.String())
}

func TestMarshalRoundTripEnvelope(t *testing.T) {
	now := time.Now().UTC()
	rec := completedRecord(t, now)
	evt, err := outboxevents.NewMediaCompletedEvent(rec, nil, 600, uuid.New(), now)
	require.NoError(t, err)

	data, err := outboxevents.Marshal(evt)
	require.NoError(t, err)

	decoded, err := outboxevents.Unmarshal(data)
	require.NoError(t, err)
	fields := decoded.AsMap()
	require.Equal(t, evt.EventID.String(), fields["event_id"])
	require.Equal(t, "playback.media.completed", fields["event_type"])

	payload, ok := fields["payload"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, rec.MediaID.String(), payload["media_id"])
	require.Equal(t, 2.0, payload["seek_count"])
	_, hasLesson := payload["lesson_id"]
	require.False(t, hasLesson)
}

func TestBuildAttributes(t *testing.T) {
	now := time.Now().UTC()
	rec := completedRecord(t, now)
	evt, err := outboxevents.NewMediaCompletedEvent(rec, nil, 600, uuid.New(), now)
	require.NoError(t, err)

	attrs := outboxevents.BuildAttributes(evt, "", "trace-123")
	require.Equal(t, outboxevents.SchemaVersionV1, attrs["schema_version"])
	require.Equal(t, "playback.media.completed", attrs["event_type"])
	require.Equal(t, rec.RecordID.String(), attrs["aggregate_id"])
	require.Equal(t, "trace-123", attrs["trace_id"])

	noTrace := outboxevents.BuildAttributes(evt, "", "")
	require.NotContains(t, noTrace, "trace_id")
}

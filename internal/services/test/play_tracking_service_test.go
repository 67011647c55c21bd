package services_test

import (
	"context"
	"io"
	"math/rand"
	"sync"
	"testing"

	"github.com/bionicotaku/lingo-services-learning/internal/metadata"
	outboxevents "github.com/bionicotaku/lingo-services-learning/internal/models/outbox_events"
	"github.com/bionicotaku/lingo-services-learning/internal/models/po"
	"github.com/bionicotaku/lingo-services-learning/internal/models/vo"
	"github.com/bionicotaku/lingo-services-learning/internal/services"
	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type trackingFixture struct {
	svc      *services.PlayTrackingService
	progress *services.ProgressService
	records  *memRecords
	events   *memEvents
	catalog  *memCatalog
	lessons  *memProgress
	outbox   *memOutbox
	userID   uuid.UUID
	courseID uuid.UUID
	lessonID uuid.UUID
	mediaID  uuid.UUID
}

func newTrackingFixture(t *testing.T, duration *float64) *trackingFixture {
	t.Helper()
	logger := log.NewStdLogger(io.Discard)
	records := newMemRecords()
	f := &trackingFixture{
		records:  records,
		events:   &memEvents{},
		catalog:  newMemCatalog(records),
		lessons:  newMemProgress(),
		outbox:   &memOutbox{},
		userID:   uuid.New(),
		courseID: uuid.New(),
	}
	f.lessonID = f.catalog.addLesson(f.courseID, 1, true)
	f.mediaID = f.catalog.addMedia(&f.lessonID, po.MediaTypeVideo, duration)

	cfg := services.DefaultConfig()
	f.progress = services.NewProgressService(f.catalog, f.lessons, f.outbox, noopTxManager{}, cfg, logger)
	f.svc = services.NewPlayTrackingService(f.records, f.events, f.catalog, f.outbox, f.progress, noopTxManager{}, cfg, logger)
	return f
}

func (f *trackingFixture) report(t *testing.T, eventType string, current float64, prev *float64) *vo.PlaybackReport {
	t.Helper()
	out, err := f.svc.ReportEvent(context.Background(), services.PlaybackEventInput{
		UserID:       f.userID,
		MediaID:      f.mediaID,
		EventType:    eventType,
		CurrentTime:  current,
		PreviousTime: prev,
	})
	require.NoError(t, err)
	return out
}

func (f *trackingFixture) record(t *testing.T) *po.PlayRecord {
	t.Helper()
	rec := f.records.byMedia(f.userID, f.mediaID)
	require.NotNil(t, rec)
	return rec
}

func TestReportEvent_HeartbeatCreditsWatchTime(t *testing.T) {
	f := newTrackingFixture(t, ptr(600.0))

	first := f.report(t, "play", 0, nil)
	require.NotEqual(t, uuid.Nil, first.RecordID)

	out := f.report(t, "heartbeat", 60, ptr(0.0))
	assert.InDelta(t, 60, out.EffectiveDuration, 1e-9)
	assert.InDelta(t, 0.1, out.Progress, 1e-9)
	assert.False(t, out.Completed)
	assert.Empty(t, out.Warnings)

	rec := f.record(t)
	assert.Equal(t, int32(1), rec.PlayCount)
	assert.True(t, rec.IsPlaying)
	assert.InDelta(t, 60, rec.TotalPlayTime, 1e-9)
	assert.Equal(t, 2, f.events.count())
}

func TestReportEvent_LargeDeltaRejected(t *testing.T) {
	f := newTrackingFixture(t, ptr(600.0))

	f.report(t, "play", 0, nil)
	out := f.report(t, "heartbeat", 590, ptr(0.0))

	assert.Zero(t, out.EffectiveDuration)
	assert.Contains(t, out.Warnings, vo.WarningDeltaOutOfRange)
	rec := f.record(t)
	assert.Zero(t, rec.TotalPlayTime)
	assert.Equal(t, 590.0, rec.MaxPlayedTime)
}

func TestReportEvent_ReferenceFromEventLog(t *testing.T) {
	f := newTrackingFixture(t, ptr(600.0))

	f.report(t, "play", 0, nil)
	f.report(t, "volumeChange", 10, nil)
	out := f.report(t, "heartbeat", 30, nil)
	assert.InDelta(t, 30, out.EffectiveDuration, 1e-9)

	out = f.report(t, "pause", 50, nil)
	assert.InDelta(t, 50, out.EffectiveDuration, 1e-9)

	// pause 之后上一段已经计入，ended 不再重复累计。
	out = f.report(t, "ended", 50, nil)
	assert.InDelta(t, 50, out.EffectiveDuration, 1e-9)
	assert.Contains(t, out.Warnings, vo.WarningMissingReference)
}

func TestReportEvent_SeekTargetStartsNewSegment(t *testing.T) {
	f := newTrackingFixture(t, ptr(600.0))

	f.report(t, "play", 0, nil)
	out := f.report(t, "heartbeat", 30, nil)
	require.InDelta(t, 30, out.EffectiveDuration, 1e-9)

	out = f.report(t, "seek", 40, nil)
	require.InDelta(t, 30, out.EffectiveDuration, 1e-9)

	// 起点取 seek 的目标位置 40，而不是之前的 heartbeat@30。
	out = f.report(t, "heartbeat", 70, nil)
	assert.InDelta(t, 60, out.EffectiveDuration, 1e-9)
	assert.Empty(t, out.Warnings)
	assert.InDelta(t, 30, f.events.last().CreditedSeconds, 1e-9)
}

func TestReportEvent_RepeatedSeeksAreNotCollapsed(t *testing.T) {
	f := newTrackingFixture(t, ptr(600.0))

	f.report(t, "play", 10, nil)
	for i := 0; i < 5; i++ {
		out := f.report(t, "seek", 500, ptr(10.0))
		assert.NotContains(t, out.Warnings, vo.WarningDuplicateEvent)
	}

	rec := f.record(t)
	assert.Equal(t, int32(5), rec.SeekCount)
	assert.Equal(t, int32(5), rec.AbnormalSeekCount)
	assert.True(t, rec.IsAbnormalBehavior)
}

func TestReportEvent_ReplayedHeartbeatIsIgnored(t *testing.T) {
	f := newTrackingFixture(t, ptr(600.0))

	f.report(t, "play", 0, nil)
	f.report(t, "heartbeat", 30, ptr(0.0))
	out := f.report(t, "heartbeat", 30, ptr(0.0))

	assert.Contains(t, out.Warnings, vo.WarningDuplicateEvent)
	assert.InDelta(t, 30, out.EffectiveDuration, 1e-9)
	assert.Equal(t, 3, f.events.count())
}

func TestReportEvent_RateAdjustedCreditCappedByDelta(t *testing.T) {
	f := newTrackingFixture(t, ptr(600.0))

	_, err := f.svc.ReportEvent(context.Background(), services.PlaybackEventInput{
		UserID: f.userID, MediaID: f.mediaID, EventType: "play", PlaybackRate: ptr(2.0),
	})
	require.NoError(t, err)
	out, err := f.svc.ReportEvent(context.Background(), services.PlaybackEventInput{
		UserID: f.userID, MediaID: f.mediaID, EventType: "heartbeat", CurrentTime: 100, PreviousTime: ptr(0.0), PlaybackRate: ptr(2.0),
	})
	require.NoError(t, err)
	assert.InDelta(t, 50, out.EffectiveDuration, 1e-9)

	out, err = f.svc.ReportEvent(context.Background(), services.PlaybackEventInput{
		UserID: f.userID, MediaID: f.mediaID, EventType: "heartbeat", CurrentTime: 160, PreviousTime: ptr(100.0), PlaybackRate: ptr(0.5),
	})
	require.NoError(t, err)
	assert.InDelta(t, 110, out.EffectiveDuration, 1e-9)
	rec := f.record(t)
	assert.LessOrEqual(t, rec.EffectiveDuration, rec.TotalPlayTime)
}

func watchThrough(t *testing.T, f *trackingFixture, until float64) {
	t.Helper()
	f.report(t, "play", 0, nil)
	for pos := 60.0; pos <= until; pos += 60 {
		f.report(t, "heartbeat", pos, ptr(pos-60))
	}
}

func TestReportEvent_CompletesOnceAndEnqueuesOutbox(t *testing.T) {
	f := newTrackingFixture(t, ptr(600.0))

	watchThrough(t, f, 540)
	out := f.report(t, "ended", 595, ptr(540.0))
	require.True(t, out.Completed)
	assert.InDelta(t, 595, out.EffectiveDuration, 1e-9)
	assert.InDelta(t, 595.0/600.0, out.CompletionRate, 1e-9)

	rec := f.record(t)
	require.NotNil(t, rec.CompletedAt)
	completedAt := *rec.CompletedAt

	types := f.outbox.eventTypes()
	assert.Contains(t, types, outboxevents.KindMediaCompleted.String())
	assert.Contains(t, types, outboxevents.KindLessonCompleted.String())

	// 相同的 ended 重放：记录不变，不再产生 outbox 事件。
	before := f.record(t)
	outboxCount := len(types)
	replay := f.report(t, "ended", 595, ptr(540.0))
	assert.Contains(t, replay.Warnings, vo.WarningDuplicateEvent)
	assert.Equal(t, before, f.record(t))
	assert.Len(t, f.outbox.eventTypes(), outboxCount)

	// 之后重新播放、回退位置也不会取消完成状态。
	f.report(t, "play", 0, nil)
	f.report(t, "seek", 10, ptr(0.0))
	rec = f.record(t)
	assert.True(t, rec.Completed)
	assert.Equal(t, completedAt, *rec.CompletedAt)
	assert.Equal(t, 595.0, rec.MaxPlayedTime)
	assert.False(t, rec.IsEnded)
}

func TestReportEvent_AbnormalSeeksBlockCompletion(t *testing.T) {
	f := newTrackingFixture(t, ptr(600.0))

	watchThrough(t, f, 480)
	for i := 0; i < 5; i++ {
		f.report(t, "seek", 500, ptr(10.0))
		f.report(t, "seek", 10, ptr(500.0))
	}
	rec := f.record(t)
	require.True(t, rec.IsAbnormalBehavior)
	assert.GreaterOrEqual(t, rec.AbnormalSeekCount, int32(5))
	assert.InDelta(t, 480, rec.EffectiveDuration, 1e-9)

	f.report(t, "play", 480, nil)
	f.report(t, "heartbeat", 540, ptr(480.0))
	out := f.report(t, "ended", 600, ptr(540.0))
	assert.False(t, out.Completed)
	assert.Equal(t, 1.0, out.CompletionRate)
	assert.NotContains(t, f.outbox.eventTypes(), outboxevents.KindMediaCompleted.String())
}

func TestReportEvent_UnknownDurationSkipsCompletion(t *testing.T) {
	f := newTrackingFixture(t, nil)

	f.report(t, "play", 0, nil)
	out, err := f.svc.ReportEvent(context.Background(), services.PlaybackEventInput{
		UserID: f.userID, MediaID: f.mediaID, EventType: "ended", CurrentTime: 100, PreviousTime: ptr(0.0), DurationTime: ptr(100.0),
	})
	require.NoError(t, err)
	assert.False(t, out.Completed)
	assert.Contains(t, out.Warnings, vo.WarningDurationFromClient)
	assert.Contains(t, out.Warnings, vo.WarningCompletionSkipped)
	assert.Equal(t, 1.0, out.Progress)

	out = f.report(t, "heartbeat", 160, ptr(100.0))
	assert.Contains(t, out.Warnings, vo.WarningDurationDefaulted)
	assert.InDelta(t, 160.0/services.DefaultDuration, out.Progress, 1e-9)
}

func TestReportEvent_ValidationRejectsBeforeMutation(t *testing.T) {
	f := newTrackingFixture(t, ptr(600.0))

	_, err := f.svc.ReportEvent(context.Background(), services.PlaybackEventInput{
		UserID: f.userID, MediaID: f.mediaID, EventType: "scrub", CurrentTime: 10,
	})
	require.Error(t, err)
	assert.Equal(t, 400, int(errors.FromError(err).Code))
	assert.True(t, errors.Is(err, services.ErrInvalidEventType))

	_, err = f.svc.ReportEvent(context.Background(), services.PlaybackEventInput{
		UserID: f.userID, MediaID: f.mediaID, EventType: "play", CurrentTime: -1,
	})
	require.Error(t, err)
	assert.Equal(t, services.ReasonPlaybackTimeInvalid, errors.FromError(err).Reason)

	assert.Nil(t, f.records.byMedia(f.userID, f.mediaID))
	assert.Zero(t, f.events.count())
}

func TestReportEvent_UnknownMediaIsNotFound(t *testing.T) {
	f := newTrackingFixture(t, ptr(600.0))

	_, err := f.svc.ReportEvent(context.Background(), services.PlaybackEventInput{
		UserID: f.userID, MediaID: uuid.New(), EventType: "play",
	})
	require.Error(t, err)
	assert.Equal(t, 404, int(errors.FromError(err).Code))
	assert.True(t, errors.Is(err, services.ErrRecordNotFound))
}

func TestReportEvent_CallerMustOwnRecord(t *testing.T) {
	f := newTrackingFixture(t, ptr(600.0))

	ctx := metadata.Inject(context.Background(), metadata.HandlerMetadata{UserID: uuid.NewString()})
	_, err := f.svc.ReportEvent(ctx, services.PlaybackEventInput{
		UserID: f.userID, MediaID: f.mediaID, EventType: "play",
	})
	require.Error(t, err)
	assert.Equal(t, 403, int(errors.FromError(err).Code))

	ctx = metadata.Inject(context.Background(), metadata.HandlerMetadata{UserID: f.userID.String()})
	_, err = f.svc.ReportEvent(ctx, services.PlaybackEventInput{
		UserID: f.userID, MediaID: f.mediaID, EventType: "play",
	})
	require.NoError(t, err)
}

func TestReportEvent_StorageFailureIsInternal(t *testing.T) {
	f := newTrackingFixture(t, ptr(600.0))
	f.records.saveErr = context.Canceled

	_, err := f.svc.ReportEvent(context.Background(), services.PlaybackEventInput{
		UserID: f.userID, MediaID: f.mediaID, EventType: "play",
	})
	require.Error(t, err)
	assert.Equal(t, services.ReasonReportFailed, errors.FromError(err).Reason)
}

func TestReportEvent_ConcurrentSamePairIsSerialized(t *testing.T) {
	f := newTrackingFixture(t, ptr(6000.0))
	f.report(t, "play", 0, nil)

	const workers = 40
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			start := float64(i * 10)
			_, err := f.svc.ReportEvent(context.Background(), services.PlaybackEventInput{
				UserID: f.userID, MediaID: f.mediaID, EventType: "heartbeat", CurrentTime: start + 10, PreviousTime: ptr(start),
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	rec := f.record(t)
	assert.InDelta(t, workers*10, rec.EffectiveDuration, 1e-6)
	assert.InDelta(t, workers*10, rec.TotalPlayTime, 1e-6)
	assert.Equal(t, workers+1, f.events.count())
}

func TestReportEvent_InvariantsHoldForRandomStreams(t *testing.T) {
	kinds := []string{"play", "pause", "seek", "heartbeat", "ended", "resume", "stop", "rateChange", "volumeChange", "fullscreen"}
	rates := []float64{0.5, 1, 1.25, 2}
	rnd := rand.New(rand.NewSource(42))

	for run := 0; run < 20; run++ {
		f := newTrackingFixture(t, ptr(600.0))
		var (
			prevMax       float64
			prevEffective float64
			wasCompleted  bool
			pos           float64
		)
		for step := 0; step < 80; step++ {
			kind := kinds[rnd.Intn(len(kinds))]
			prev := pos
			pos = pos + rnd.Float64()*90 - 20
			if pos < 0 {
				pos = 0
			}
			if pos > 600 {
				pos = 600
			}
			if kind == "seek" && rnd.Intn(2) == 0 {
				pos = rnd.Float64() * 600
			}
			in := services.PlaybackEventInput{
				UserID: f.userID, MediaID: f.mediaID, EventType: kind, CurrentTime: pos,
				PlaybackRate: ptr(rates[rnd.Intn(len(rates))]),
			}
			if rnd.Intn(3) > 0 {
				in.PreviousTime = ptr(prev)
			}
			_, err := f.svc.ReportEvent(context.Background(), in)
			require.NoError(t, err)

			rec := f.record(t)
			require.GreaterOrEqual(t, rec.MaxPlayedTime, prevMax)
			require.GreaterOrEqual(t, rec.EffectiveDuration, prevEffective)
			require.LessOrEqual(t, rec.EffectiveDuration, rec.TotalPlayTime+1e-9)
			require.GreaterOrEqual(t, rec.Progress, 0.0)
			require.LessOrEqual(t, rec.Progress, 1.0)
			if kind == "seek" {
				require.Equal(t, prevEffective, rec.EffectiveDuration)
			}
			if wasCompleted {
				require.True(t, rec.Completed)
			}
			prevMax, prevEffective, wasCompleted = rec.MaxPlayedTime, rec.EffectiveDuration, rec.Completed
		}
	}
}

func TestGetPlayRecord(t *testing.T) {
	f := newTrackingFixture(t, ptr(600.0))

	_, err := f.svc.GetPlayRecord(context.Background(), f.userID, f.mediaID)
	require.Error(t, err)
	assert.Equal(t, 404, int(errors.FromError(err).Code))

	f.report(t, "play", 12, nil)
	view, err := f.svc.GetPlayRecord(context.Background(), f.userID, f.mediaID)
	require.NoError(t, err)
	assert.Equal(t, 12.0, view.CurrentTime)
	assert.Equal(t, int32(1), view.PlayCount)
}

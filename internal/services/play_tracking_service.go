package services

import (
	"context"
	"fmt"
	"time"

	"github.com/bionicotaku/lingo-services-learning/internal/metadata"
	outboxevents "github.com/bionicotaku/lingo-services-learning/internal/models/outbox_events"
	"github.com/bionicotaku/lingo-services-learning/internal/models/po"
	"github.com/bionicotaku/lingo-services-learning/internal/models/vo"
	"github.com/bionicotaku/lingo-services-learning/internal/repositories"

	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
)

// PlayRecordStore 定义播放记录的持久化行为。
type PlayRecordStore interface {
	LockOrCreate(ctx context.Context, sess txmanager.Session, userID, mediaID uuid.UUID, now time.Time) (*po.PlayRecord, bool, error)
	Get(ctx context.Context, sess txmanager.Session, userID, mediaID uuid.UUID) (*po.PlayRecord, error)
	Save(ctx context.Context, sess txmanager.Session, rec *po.PlayRecord) (*po.PlayRecord, error)
}

// PlayEventLog 定义播放事件日志的访问行为。
type PlayEventLog interface {
	Append(ctx context.Context, sess txmanager.Session, evt *po.PlayEvent) error
	Latest(ctx context.Context, sess txmanager.Session, recordID uuid.UUID) (*po.PlayEvent, error)
	// LatestBoundary 返回最近的播放段边界；满足 IsReference 的边界（含 seek 目标位置）作为计时起点。
	LatestBoundary(ctx context.Context, sess txmanager.Session, recordID uuid.UUID) (*po.PlayEvent, error)
}

// MediaCatalog 提供目录服务投影的只读访问。
type MediaCatalog interface {
	GetMedia(ctx context.Context, sess txmanager.Session, mediaID uuid.UUID) (*po.Media, error)
	GetLesson(ctx context.Context, sess txmanager.Session, lessonID uuid.UUID) (*po.Lesson, error)
	ListActiveLessons(ctx context.Context, sess txmanager.Session, courseID uuid.UUID) ([]*po.Lesson, error)
	ListLessonMediaProgress(ctx context.Context, sess txmanager.Session, userID, lessonID uuid.UUID) ([]po.LessonMediaProgress, error)
	ListCourseMediaProgress(ctx context.Context, sess txmanager.Session, userID, courseID uuid.UUID) ([]po.LessonMediaProgress, error)
}

// OutboxRepo 定义 Outbox 写入行为。
type OutboxRepo interface {
	Enqueue(ctx context.Context, sess txmanager.Session, msg repositories.OutboxMessage) error
}

// LessonRollup 在媒体进度变化后刷新课时进度。
type LessonRollup interface {
	RefreshLessonProgress(ctx context.Context, userID, lessonID uuid.UUID) (*vo.LessonProgress, error)
}

// PlayTrackingService 处理播放事件上报：规范化、更新记录、累计有效时长、检测异常拖动并判定完成。
// 同一 (user, media) 的上报在进程内串行执行，并在事务内对记录加行锁。
type PlayTrackingService struct {
	records    PlayRecordStore
	events     PlayEventLog
	catalog    MediaCatalog
	outbox     OutboxRepo
	rollup     LessonRollup
	txManager  txmanager.Manager
	locks      *PairLocker
	calculator *EffectiveDurationCalculator
	detector   *SeekDetector
	classifier *CompletionClassifier
	metrics    *playbackMetrics
	cfg        Config
	now        func() time.Time
	log        *log.Helper
}

// NewPlayTrackingService 构造播放上报服务。rollup 可为空，此时不刷新课时进度。
func NewPlayTrackingService(
	records PlayRecordStore,
	events PlayEventLog,
	catalog MediaCatalog,
	outbox OutboxRepo,
	rollup LessonRollup,
	tx txmanager.Manager,
	cfg Config,
	logger log.Logger,
) *PlayTrackingService {
	cfg = cfg.withDefaults()
	helper := log.NewHelper(logger)
	return &PlayTrackingService{
		records:    records,
		events:     events,
		catalog:    catalog,
		outbox:     outbox,
		rollup:     rollup,
		txManager:  tx,
		locks:      NewPairLocker(),
		calculator: NewEffectiveDurationCalculator(cfg),
		detector:   NewSeekDetector(cfg),
		classifier: NewCompletionClassifier(cfg),
		metrics:    newPlaybackMetrics(helper),
		cfg:        cfg,
		now:        time.Now,
		log:        helper,
	}
}

type applyOutcome struct {
	report      vo.PlaybackReport
	lessonID    *uuid.UUID
	rollup      bool
	completed   bool
	flagged     bool
	deltaReject string
}

// ReportEvent 处理一次播放事件上报。
func (s *PlayTrackingService) ReportEvent(ctx context.Context, in PlaybackEventInput) (*vo.PlaybackReport, error) {
	now := s.now().UTC()
	evt, err := NormalizeEvent(in, now)
	if err != nil {
		return nil, err
	}
	if meta, ok := metadata.FromContext(ctx); ok && !meta.Permits(evt.UserID) {
		s.log.WithContext(ctx).Warnf("playback identity mismatch: caller=%s user_id=%s", meta.UserID, evt.UserID)
		return nil, ErrIdentityMismatch
	}

	release := s.locks.Lock(evt.UserID, evt.MediaID)
	var outcome applyOutcome
	err = s.txManager.WithinTx(ctx, txmanager.TxOptions{}, func(txCtx context.Context, sess txmanager.Session) error {
		var applyErr error
		outcome, applyErr = s.apply(txCtx, sess, evt, now)
		return applyErr
	})
	release()
	if err != nil {
		return nil, s.mapReportError(ctx, evt, err)
	}

	s.metrics.recordEvent(ctx, string(evt.Kind))
	if outcome.deltaReject != "" {
		s.metrics.recordRejected(ctx, outcome.deltaReject)
	}
	if outcome.flagged {
		s.log.WithContext(ctx).Warnf("abnormal seek behavior flagged: record_id=%s user_id=%s media_id=%s", outcome.report.RecordID, evt.UserID, evt.MediaID)
		s.metrics.recordAbnormal(ctx)
	}
	if outcome.completed {
		s.log.WithContext(ctx).Infof("media completed: record_id=%s user_id=%s media_id=%s", outcome.report.RecordID, evt.UserID, evt.MediaID)
		s.metrics.recordCompleted(ctx)
	}
	if outcome.rollup && s.rollup != nil && outcome.lessonID != nil {
		s.refreshLesson(ctx, evt.UserID, *outcome.lessonID, &outcome.report)
	}

	report := outcome.report
	return &report, nil
}

func (s *PlayTrackingService) apply(ctx context.Context, sess txmanager.Session, evt NormalizedEvent, now time.Time) (applyOutcome, error) {
	media, err := s.catalog.GetMedia(ctx, sess, evt.MediaID)
	if err != nil {
		return applyOutcome{}, err
	}
	duration, authoritative, durationWarning := s.resolveDuration(media, evt)

	out := applyOutcome{lessonID: media.LessonID}
	if durationWarning != "" {
		out.report.Warnings = append(out.report.Warnings, durationWarning)
	}

	rec, created, err := s.records.LockOrCreate(ctx, sess, evt.UserID, evt.MediaID, now)
	if err != nil {
		return applyOutcome{}, fmt.Errorf("lock play record: %w", err)
	}

	playEvent := &po.PlayEvent{
		EventID:      uuid.New(),
		RecordID:     rec.RecordID,
		UserID:       evt.UserID,
		MediaID:      evt.MediaID,
		EventType:    evt.Kind,
		CurrentTime:  evt.CurrentTime,
		PreviousTime: copyFloat(evt.PreviousTime),
		PlaybackRate: evt.PlaybackRate,
		Volume:       evt.Volume,
		IsFullscreen: evt.IsFullscreen,
		DeviceInfo:   evt.DeviceInfo,
		ExtraData:    evt.ExtraData,
		OccurredAt:   evt.OccurredAt,
	}

	if !created {
		latest, latestErr := s.events.Latest(ctx, sess, rec.RecordID)
		if latestErr != nil && !errors.Is(latestErr, repositories.ErrPlayEventNotFound) {
			return applyOutcome{}, fmt.Errorf("load latest play event: %w", latestErr)
		}
		if latest.SameReplay(playEvent) {
			// 重放只追加事件日志，记录保持不变。
			if err := s.events.Append(ctx, sess, playEvent); err != nil {
				return applyOutcome{}, err
			}
			s.log.WithContext(ctx).Debugf("duplicate playback event ignored: record_id=%s event_type=%s current_time=%.3f", rec.RecordID, evt.Kind, evt.CurrentTime)
			out.report = buildReport(rec, playEvent.EventID, duration, out.report.Warnings)
			out.report.Warnings = append(out.report.Warnings, vo.WarningDuplicateEvent)
			return out, nil
		}
	}

	var reference *po.PlayEvent
	if evt.Kind.AccruesWatchTime() && evt.PreviousTime == nil && !created {
		// 最近的边界若是 pause/ended/stop，上一段已经计入，不再有起点。
		boundary, boundaryErr := s.events.LatestBoundary(ctx, sess, rec.RecordID)
		if boundaryErr != nil && !errors.Is(boundaryErr, repositories.ErrPlayEventNotFound) {
			return applyOutcome{}, fmt.Errorf("load boundary play event: %w", boundaryErr)
		}
		if boundaryErr == nil && boundary.EventType.IsReference() {
			reference = boundary
		}
	}

	prior := rec.Clone()
	if err := rec.Apply(evt.Kind, evt.Sample()); err != nil {
		return applyOutcome{}, ErrInvalidEventType.WithCause(err)
	}
	rec.RecomputeProgress(duration)

	credited, creditErr := s.calculator.Apply(rec, evt, reference)
	switch {
	case errors.Is(creditErr, ErrMissingReference):
		s.log.WithContext(ctx).Debugf("watch time skipped, no reference: record_id=%s event_type=%s", rec.RecordID, evt.Kind)
		out.report.Warnings = append(out.report.Warnings, vo.WarningMissingReference)
		out.deltaReject = "missing_reference"
	case errors.Is(creditErr, ErrOutOfRangeDelta):
		s.log.WithContext(ctx).Debugf("watch time skipped, delta out of range: record_id=%s event_type=%s current_time=%.3f", rec.RecordID, evt.Kind, evt.CurrentTime)
		out.report.Warnings = append(out.report.Warnings, vo.WarningDeltaOutOfRange)
		out.deltaReject = "out_of_range"
	}
	playEvent.CreditedSeconds = credited

	if evt.Kind == po.EventSeek {
		from := SeekOrigin(evt, prior)
		if s.detector.Inspect(rec, from, evt.CurrentTime) {
			s.log.WithContext(ctx).Debugf("abnormal seek: record_id=%s from=%.3f to=%.3f count=%d", rec.RecordID, from, evt.CurrentTime, rec.AbnormalSeekCount)
		}
		out.flagged = !prior.IsAbnormalBehavior && rec.IsAbnormalBehavior
	}

	progress := rec.Progress
	if evt.ProgressHint != nil {
		progress = *evt.ProgressHint
	}
	if s.classifier.ShouldEvaluate(evt.Kind, progress) {
		if authoritative {
			if _, err := s.classifier.Evaluate(rec, duration, now); err != nil && !errors.Is(err, ErrUnknownDuration) {
				return applyOutcome{}, err
			}
		} else {
			out.report.Warnings = append(out.report.Warnings, vo.WarningCompletionSkipped)
		}
	}
	out.completed = !prior.Completed && rec.Completed

	saved, err := s.records.Save(ctx, sess, rec)
	if err != nil {
		return applyOutcome{}, err
	}
	if err := s.events.Append(ctx, sess, playEvent); err != nil {
		return applyOutcome{}, err
	}
	if out.completed && s.outbox != nil {
		domainEvent, buildErr := outboxevents.NewMediaCompletedEvent(saved, media.LessonID, duration, uuid.New(), now)
		if buildErr != nil {
			return applyOutcome{}, fmt.Errorf("build media completed event: %w", buildErr)
		}
		if err := enqueueDomainEvent(ctx, sess, s.outbox, domainEvent); err != nil {
			return applyOutcome{}, err
		}
	}

	out.report = buildReport(saved, playEvent.EventID, duration, out.report.Warnings)
	out.rollup = evt.Kind.AccruesWatchTime() && media.LessonID != nil && media.MediaType.Playable()
	return out, nil
}

// resolveDuration 依次使用目录时长、客户端时长和默认时长，仅目录时长视为权威。
func (s *PlayTrackingService) resolveDuration(media *po.Media, evt NormalizedEvent) (float64, bool, string) {
	if d, ok := media.DeclaredDuration(); ok {
		return d, true, ""
	}
	if evt.ClientDuration != nil {
		return *evt.ClientDuration, false, vo.WarningDurationFromClient
	}
	return s.cfg.DefaultDuration, false, vo.WarningDurationDefaulted
}

func (s *PlayTrackingService) refreshLesson(ctx context.Context, userID, lessonID uuid.UUID, report *vo.PlaybackReport) {
	rollupCtx, cancel := context.WithTimeout(ctx, s.cfg.RollupTimeout)
	defer cancel()
	if _, err := s.rollup.RefreshLessonProgress(rollupCtx, userID, lessonID); err != nil {
		s.log.WithContext(ctx).Warnf("refresh lesson progress failed: user_id=%s lesson_id=%s err=%v", userID, lessonID, err)
		report.Warnings = append(report.Warnings, vo.WarningLessonRollupSkipped)
	}
}

func (s *PlayTrackingService) mapReportError(ctx context.Context, evt NormalizedEvent, err error) error {
	switch {
	case errors.Is(err, repositories.ErrMediaNotFound):
		return ErrRecordNotFound.WithMetadata(map[string]string{"media_id": evt.MediaID.String()})
	case errors.Is(err, ErrInvalidEventType):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		s.log.WithContext(ctx).Warnf("report playback event timeout: user_id=%s media_id=%s", evt.UserID, evt.MediaID)
		return errors.GatewayTimeout(ReasonQueryTimeout, "report playback event timeout")
	}
	s.log.WithContext(ctx).Errorf("report playback event failed: user_id=%s media_id=%s event_type=%s err=%v", evt.UserID, evt.MediaID, evt.Kind, err)
	return errors.InternalServer(ReasonReportFailed, "failed to record playback event").WithCause(fmt.Errorf("report playback event: %w", err))
}

// GetPlayRecord 查询单条播放记录。
func (s *PlayTrackingService) GetPlayRecord(ctx context.Context, userID, mediaID uuid.UUID) (*vo.PlayRecord, error) {
	var rec *po.PlayRecord
	err := s.txManager.WithinReadOnlyTx(ctx, txmanager.TxOptions{}, func(txCtx context.Context, sess txmanager.Session) error {
		var repoErr error
		rec, repoErr = s.records.Get(txCtx, sess, userID, mediaID)
		return repoErr
	})
	if err != nil {
		if errors.Is(err, repositories.ErrPlayRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		if errors.Is(err, context.DeadlineExceeded) {
			s.log.WithContext(ctx).Warnf("get play record timeout: user_id=%s media_id=%s", userID, mediaID)
			return nil, errors.GatewayTimeout(ReasonQueryTimeout, "query timeout")
		}
		s.log.WithContext(ctx).Errorf("get play record failed: user_id=%s media_id=%s err=%v", userID, mediaID, err)
		return nil, errors.InternalServer(ReasonQueryFailed, "failed to query play record").WithCause(fmt.Errorf("get play record: %w", err))
	}
	return vo.NewPlayRecord(rec), nil
}

func buildReport(rec *po.PlayRecord, eventID uuid.UUID, duration float64, warnings []string) vo.PlaybackReport {
	return vo.PlaybackReport{
		RecordID:          rec.RecordID,
		EventID:           eventID,
		CurrentTime:       rec.CurrentTime,
		Progress:          rec.Progress,
		CompletionRate:    rec.CompletionRate(duration),
		EffectiveDuration: rec.EffectiveDuration,
		Completed:         rec.Completed,
		Warnings:          warnings,
	}
}

func enqueueDomainEvent(ctx context.Context, sess txmanager.Session, outbox OutboxRepo, evt *outboxevents.DomainEvent) error {
	payload, err := outboxevents.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", evt.Kind, err)
	}
	headers := outboxevents.BuildAttributes(evt, outboxevents.SchemaVersionV1, outboxevents.TraceIDFromContext(ctx))
	return outbox.Enqueue(ctx, sess, repositories.OutboxMessage{
		EventID:       evt.EventID,
		AggregateType: evt.AggregateType,
		AggregateID:   evt.AggregateID,
		EventType:     evt.Kind.String(),
		Payload:       payload,
		Headers:       headers,
		AvailableAt:   evt.OccurredAt,
	})
}

package services

import (
	"context"
	"fmt"
	"math"
	"time"

	outboxevents "github.com/bionicotaku/lingo-services-learning/internal/models/outbox_events"
	"github.com/bionicotaku/lingo-services-learning/internal/models/po"
	"github.com/bionicotaku/lingo-services-learning/internal/models/vo"
	"github.com/bionicotaku/lingo-services-learning/internal/repositories"

	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
)

// LessonProgressRepo 定义课时进度的持久化行为。
type LessonProgressRepo interface {
	GetForUpdate(ctx context.Context, sess txmanager.Session, userID, lessonID uuid.UUID) (*po.LessonProgress, error)
	Get(ctx context.Context, sess txmanager.Session, userID, lessonID uuid.UUID) (*po.LessonProgress, error)
	Upsert(ctx context.Context, sess txmanager.Session, progress *po.LessonProgress) (*po.LessonProgress, error)
	ListCompletedLessonIDs(ctx context.Context, sess txmanager.Session, userID, courseID uuid.UUID) (map[uuid.UUID]struct{}, error)
}

// LessonSummary 是课时下可播放媒体的汇总结果。
type LessonSummary struct {
	WatchedSeconds float64
	TotalSeconds   float64
	Percentage     float64
	CompletedMedia int
	TotalMedia     int
	Completed      bool
}

// RollupLesson 汇总课时进度。只统计 video/audio；缺少时长的媒体不计入两侧求和，
// 但仍参与“全部媒体已完成”的判断。没有可播放媒体的课时不视为完成。
func RollupLesson(items []po.LessonMediaProgress, completePercentage float64) LessonSummary {
	var summary LessonSummary
	for _, item := range items {
		if !item.MediaType.Playable() {
			continue
		}
		summary.TotalMedia++
		if item.Completed {
			summary.CompletedMedia++
		}
		if item.DurationSeconds == nil || *item.DurationSeconds <= 0 {
			continue
		}
		summary.TotalSeconds += *item.DurationSeconds
		summary.WatchedSeconds += item.EffectiveSeconds
	}
	if summary.TotalSeconds > 0 {
		summary.Percentage = math.Min(100, summary.WatchedSeconds/summary.TotalSeconds*100)
	}
	if summary.TotalMedia > 0 {
		summary.Completed = summary.Percentage >= completePercentage || summary.CompletedMedia == summary.TotalMedia
	}
	return summary
}

// CoursePercentage 返回 completed/total*100，保留一位小数且不超过 100。
func CoursePercentage(completed, total int) float64 {
	if total <= 0 {
		return 0
	}
	pct := float64(completed) / float64(total) * 100
	return math.Min(100, math.Round(pct*10)/10)
}

// ProgressService 负责课时与课程进度的汇总。
type ProgressService struct {
	catalog   MediaCatalog
	progress  LessonProgressRepo
	outbox    OutboxRepo
	txManager txmanager.Manager
	metrics   *playbackMetrics
	threshold float64
	now       func() time.Time
	log       *log.Helper
}

// NewProgressService 构造进度服务。
func NewProgressService(catalog MediaCatalog, progress LessonProgressRepo, outbox OutboxRepo, tx txmanager.Manager, cfg Config, logger log.Logger) *ProgressService {
	cfg = cfg.withDefaults()
	helper := log.NewHelper(logger)
	return &ProgressService{
		catalog:   catalog,
		progress:  progress,
		outbox:    outbox,
		txManager: tx,
		metrics:   newPlaybackMetrics(helper),
		threshold: cfg.LessonCompletePercentage,
		now:       time.Now,
		log:       helper,
	}
}

// GetLessonProgress 实时计算课时进度，已持久化的完成状态保持有效。
func (s *ProgressService) GetLessonProgress(ctx context.Context, userID, lessonID uuid.UUID) (*vo.LessonProgress, error) {
	var (
		lesson *po.Lesson
		items  []po.LessonMediaProgress
		stored *po.LessonProgress
	)
	err := s.txManager.WithinReadOnlyTx(ctx, txmanager.TxOptions{}, func(txCtx context.Context, sess txmanager.Session) error {
		var repoErr error
		if lesson, repoErr = s.catalog.GetLesson(txCtx, sess, lessonID); repoErr != nil {
			return repoErr
		}
		if items, repoErr = s.catalog.ListLessonMediaProgress(txCtx, sess, userID, lessonID); repoErr != nil {
			return repoErr
		}
		stored, repoErr = s.progress.Get(txCtx, sess, userID, lessonID)
		if errors.Is(repoErr, repositories.ErrLessonProgressNotFound) {
			return nil
		}
		return repoErr
	})
	if err != nil {
		return nil, s.mapQueryError(ctx, "get lesson progress", err)
	}

	summary := RollupLesson(items, s.threshold)
	return lessonView(userID, lesson, summary, stored != nil && stored.Completed), nil
}

// GetCourseProgress 按需计算课程进度，只统计启用的课时。
func (s *ProgressService) GetCourseProgress(ctx context.Context, userID, courseID uuid.UUID) (*vo.CourseProgress, error) {
	var (
		lessons []*po.Lesson
		items   []po.LessonMediaProgress
		stored  map[uuid.UUID]struct{}
	)
	err := s.txManager.WithinReadOnlyTx(ctx, txmanager.TxOptions{}, func(txCtx context.Context, sess txmanager.Session) error {
		var repoErr error
		if lessons, repoErr = s.catalog.ListActiveLessons(txCtx, sess, courseID); repoErr != nil {
			return repoErr
		}
		if len(lessons) == 0 {
			return nil
		}
		if items, repoErr = s.catalog.ListCourseMediaProgress(txCtx, sess, userID, courseID); repoErr != nil {
			return repoErr
		}
		stored, repoErr = s.progress.ListCompletedLessonIDs(txCtx, sess, userID, courseID)
		return repoErr
	})
	if err != nil {
		return nil, s.mapQueryError(ctx, "get course progress", err)
	}

	byLesson := make(map[uuid.UUID][]po.LessonMediaProgress, len(lessons))
	for _, item := range items {
		byLesson[item.LessonID] = append(byLesson[item.LessonID], item)
	}
	completed := 0
	for _, lesson := range lessons {
		if _, ok := stored[lesson.LessonID]; ok {
			completed++
			continue
		}
		if RollupLesson(byLesson[lesson.LessonID], s.threshold).Completed {
			completed++
		}
	}

	return &vo.CourseProgress{
		UserID:           userID,
		CourseID:         courseID,
		Percentage:       CoursePercentage(completed, len(lessons)),
		CompletedLessons: completed,
		TotalLessons:     len(lessons),
	}, nil
}

// RefreshLessonProgress 重新汇总并写入课时进度；首次完成时写入 learning.lesson.completed 事件。
func (s *ProgressService) RefreshLessonProgress(ctx context.Context, userID, lessonID uuid.UUID) (*vo.LessonProgress, error) {
	now := s.now().UTC()
	var (
		view         *vo.LessonProgress
		transitioned bool
	)
	err := s.txManager.WithinTx(ctx, txmanager.TxOptions{}, func(txCtx context.Context, sess txmanager.Session) error {
		lesson, err := s.catalog.GetLesson(txCtx, sess, lessonID)
		if err != nil {
			return err
		}
		items, err := s.catalog.ListLessonMediaProgress(txCtx, sess, userID, lessonID)
		if err != nil {
			return err
		}
		existing, err := s.progress.GetForUpdate(txCtx, sess, userID, lessonID)
		if err != nil && !errors.Is(err, repositories.ErrLessonProgressNotFound) {
			return err
		}

		summary := RollupLesson(items, s.threshold)
		next := &po.LessonProgress{
			UserID:        userID,
			LessonID:      lessonID,
			CourseID:      lesson.CourseID,
			WatchDuration: summary.WatchedSeconds,
			TotalDuration: summary.TotalSeconds,
			Percentage:    summary.Percentage,
			Completed:     summary.Completed,
			StartedAt:     now,
			LastWatchedAt: now,
		}
		wasCompleted := false
		if existing != nil {
			next.StartedAt = existing.StartedAt
			next.CompletedAt = existing.CompletedAt
			wasCompleted = existing.Completed
			next.Completed = next.Completed || existing.Completed
		}
		if next.Completed && next.CompletedAt == nil {
			completedAt := now
			next.CompletedAt = &completedAt
		}

		saved, err := s.progress.Upsert(txCtx, sess, next)
		if err != nil {
			return err
		}
		transitioned = !wasCompleted && saved.Completed
		if transitioned && s.outbox != nil {
			evt, buildErr := outboxevents.NewLessonCompletedEvent(saved, summary.CompletedMedia, summary.TotalMedia, uuid.New(), now)
			if buildErr != nil {
				return fmt.Errorf("build lesson completed event: %w", buildErr)
			}
			if err := enqueueDomainEvent(txCtx, sess, s.outbox, evt); err != nil {
				return err
			}
		}
		view = lessonView(userID, lesson, summary, saved.Completed)
		return nil
	})
	if err != nil {
		return nil, s.mapQueryError(ctx, "refresh lesson progress", err)
	}
	if transitioned {
		s.log.WithContext(ctx).Infof("lesson completed: user_id=%s lesson_id=%s percentage=%.1f", userID, lessonID, view.Percentage)
		s.metrics.recordLessonCompleted(ctx)
	}
	return view, nil
}

func (s *ProgressService) mapQueryError(ctx context.Context, op string, err error) error {
	switch {
	case errors.Is(err, repositories.ErrLessonNotFound):
		return ErrLessonNotFound
	case errors.Is(err, context.DeadlineExceeded):
		s.log.WithContext(ctx).Warnf("%s timeout", op)
		return errors.GatewayTimeout(ReasonQueryTimeout, "query timeout")
	}
	s.log.WithContext(ctx).Errorf("%s failed: err=%v", op, err)
	return errors.InternalServer(ReasonQueryFailed, "failed to query learning progress").WithCause(fmt.Errorf("%s: %w", op, err))
}

func lessonView(userID uuid.UUID, lesson *po.Lesson, summary LessonSummary, storedCompleted bool) *vo.LessonProgress {
	return &vo.LessonProgress{
		UserID:         userID,
		LessonID:       lesson.LessonID,
		CourseID:       lesson.CourseID,
		Percentage:     math.Round(summary.Percentage*10) / 10,
		Completed:      summary.Completed || storedCompleted,
		WatchedSeconds: summary.WatchedSeconds,
		TotalSeconds:   summary.TotalSeconds,
		CompletedMedia: summary.CompletedMedia,
		TotalMedia:     summary.TotalMedia,
	}
}

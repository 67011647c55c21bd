package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/bionicotaku/lingo-services-learning/internal/repositories/learningsql"
	"github.com/bionicotaku/lingo-services-learning/internal/repositories/mappers"

	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LearningSummary 是学习统计所需的原始聚合。
type LearningSummary struct {
	TotalSeconds     float64
	RecentSeconds    float64
	TodaySeconds     float64
	CompletedLessons int
	LearningCourses  int
}

// LearningStatsRepository 聚合播放记录、事件与课时进度。
type LearningStatsRepository struct {
	queries *learningsql.Queries
	log     *log.Helper
}

// NewLearningStatsRepository 构造仓储。
func NewLearningStatsRepository(db *pgxpool.Pool, logger log.Logger) *LearningStatsRepository {
	return &LearningStatsRepository{
		queries: learningsql.New(db),
		log:     log.NewHelper(logger),
	}
}

// Summary 统计用户的学习时长与完成课时；recentSince/todaySince 由调用方按时区计算。
func (r *LearningStatsRepository) Summary(ctx context.Context, sess txmanager.Session, userID uuid.UUID, recentSince, todaySince time.Time) (*LearningSummary, error) {
	queries := r.queries
	if sess != nil {
		queries = queries.WithTx(sess.Tx())
	}

	total, err := queries.SumEffectiveSeconds(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("sum effective seconds: %w", err)
	}
	recent, err := queries.SumCreditedSecondsSince(ctx, userID, mappers.TimestamptzFromTime(recentSince))
	if err != nil {
		return nil, fmt.Errorf("sum recent seconds: %w", err)
	}
	today, err := queries.SumCreditedSecondsSince(ctx, userID, mappers.TimestamptzFromTime(todaySince))
	if err != nil {
		return nil, fmt.Errorf("sum today seconds: %w", err)
	}
	lessons, err := queries.CountLessonSummary(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count lesson summary: %w", err)
	}
	return &LearningSummary{
		TotalSeconds:     total,
		RecentSeconds:    recent,
		TodaySeconds:     today,
		CompletedLessons: int(lessons.CompletedLessons),
		LearningCourses:  int(lessons.LearningCourses),
	}, nil
}

// LearningDays 返回 since 之后有有效学习的 UTC 日期（倒序）。
func (r *LearningStatsRepository) LearningDays(ctx context.Context, sess txmanager.Session, userID uuid.UUID, since time.Time) ([]time.Time, error) {
	queries := r.queries
	if sess != nil {
		queries = queries.WithTx(sess.Tx())
	}
	days, err := queries.ListLearningDays(ctx, userID, mappers.TimestamptzFromTime(since))
	if err != nil {
		return nil, fmt.Errorf("list learning days: %w", err)
	}
	return days, nil
}

var _ interface {
	Summary(context.Context, txmanager.Session, uuid.UUID, time.Time, time.Time) (*LearningSummary, error)
	LearningDays(context.Context, txmanager.Session, uuid.UUID, time.Time) ([]time.Time, error)
} = (*LearningStatsRepository)(nil)

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/bionicotaku/lingo-services-learning/internal/models/vo"
	"github.com/bionicotaku/lingo-services-learning/internal/repositories"

	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
)

const (
	recentLearningDays = 7
	streakWindowDays   = 366
)

// LearningStatsRepo 提供学习统计的原始聚合。
type LearningStatsRepo interface {
	Summary(ctx context.Context, sess txmanager.Session, userID uuid.UUID, recentSince, todaySince time.Time) (*repositories.LearningSummary, error)
	LearningDays(ctx context.Context, sess txmanager.Session, userID uuid.UUID, since time.Time) ([]time.Time, error)
}

// LearningStatsService 汇总用户学习时长、完成课时与连续学习天数。日期均按 UTC 计算。
type LearningStatsService struct {
	repo      LearningStatsRepo
	txManager txmanager.Manager
	now       func() time.Time
	log       *log.Helper
}

// NewLearningStatsService 构造统计服务。
func NewLearningStatsService(repo LearningStatsRepo, tx txmanager.Manager, logger log.Logger) *LearningStatsService {
	return &LearningStatsService{
		repo:      repo,
		txManager: tx,
		now:       time.Now,
		log:       log.NewHelper(logger),
	}
}

// GetLearningStats 返回用户的学习统计。
func (s *LearningStatsService) GetLearningStats(ctx context.Context, userID uuid.UUID) (*vo.LearningStats, error) {
	today := startOfDay(s.now())
	recentSince := today.AddDate(0, 0, -(recentLearningDays - 1))

	var (
		summary *repositories.LearningSummary
		days    []time.Time
	)
	err := s.txManager.WithinReadOnlyTx(ctx, txmanager.TxOptions{}, func(txCtx context.Context, sess txmanager.Session) error {
		var repoErr error
		if summary, repoErr = s.repo.Summary(txCtx, sess, userID, recentSince, today); repoErr != nil {
			return repoErr
		}
		days, repoErr = s.repo.LearningDays(txCtx, sess, userID, today.AddDate(0, 0, -streakWindowDays))
		return repoErr
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			s.log.WithContext(ctx).Warnf("get learning stats timeout: user_id=%s", userID)
			return nil, errors.GatewayTimeout(ReasonQueryTimeout, "query timeout")
		}
		s.log.WithContext(ctx).Errorf("get learning stats failed: user_id=%s err=%v", userID, err)
		return nil, errors.InternalServer(ReasonQueryFailed, "failed to query learning stats").WithCause(fmt.Errorf("get learning stats: %w", err))
	}

	return &vo.LearningStats{
		UserID:                userID,
		TotalLearningSeconds:  summary.TotalSeconds,
		RecentLearningSeconds: summary.RecentSeconds,
		TodayLearningSeconds:  summary.TodaySeconds,
		CompletedLessons:      summary.CompletedLessons,
		LearningCourses:       summary.LearningCourses,
		LearningStreakDays:    LearningStreak(days, today),
	}, nil
}

// LearningStreak 计算截至 today 的连续学习天数。今天尚未学习时从昨天起算。
func LearningStreak(days []time.Time, today time.Time) int {
	if len(days) == 0 {
		return 0
	}
	learned := make(map[time.Time]struct{}, len(days))
	for _, d := range days {
		learned[startOfDay(d)] = struct{}{}
	}

	cursor := startOfDay(today)
	if _, ok := learned[cursor]; !ok {
		cursor = cursor.AddDate(0, 0, -1)
	}
	streak := 0
	for {
		if _, ok := learned[cursor]; !ok {
			return streak
		}
		streak++
		cursor = cursor.AddDate(0, 0, -1)
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

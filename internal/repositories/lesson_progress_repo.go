package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/bionicotaku/lingo-services-learning/internal/models/po"
	"github.com/bionicotaku/lingo-services-learning/internal/repositories/learningsql"
	"github.com/bionicotaku/lingo-services-learning/internal/repositories/mappers"

	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LessonProgressRepository 维护 learning.lesson_progress。
type LessonProgressRepository struct {
	queries *learningsql.Queries
	log     *log.Helper
}

// NewLessonProgressRepository 构造仓储。
func NewLessonProgressRepository(db *pgxpool.Pool, logger log.Logger) *LessonProgressRepository {
	return &LessonProgressRepository{
		queries: learningsql.New(db),
		log:     log.NewHelper(logger),
	}
}

// GetForUpdate 读取并锁定课时进度。
func (r *LessonProgressRepository) GetForUpdate(ctx context.Context, sess txmanager.Session, userID, lessonID uuid.UUID) (*po.LessonProgress, error) {
	queries := r.queries
	if sess != nil {
		queries = queries.WithTx(sess.Tx())
	}
	row, err := queries.GetLessonProgressForUpdate(ctx, userID, lessonID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLessonProgressNotFound
		}
		return nil, fmt.Errorf("lock lesson progress: %w", err)
	}
	return mappers.LessonProgressFromRow(row), nil
}

// Get 读取课时进度。
func (r *LessonProgressRepository) Get(ctx context.Context, sess txmanager.Session, userID, lessonID uuid.UUID) (*po.LessonProgress, error) {
	queries := r.queries
	if sess != nil {
		queries = queries.WithTx(sess.Tx())
	}
	row, err := queries.GetLessonProgress(ctx, userID, lessonID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLessonProgressNotFound
		}
		return nil, fmt.Errorf("get lesson progress: %w", err)
	}
	return mappers.LessonProgressFromRow(row), nil
}

// Upsert 写入课时进度；已完成的课时不会被改回未完成。
func (r *LessonProgressRepository) Upsert(ctx context.Context, sess txmanager.Session, progress *po.LessonProgress) (*po.LessonProgress, error) {
	if progress == nil {
		return nil, fmt.Errorf("upsert lesson progress: nil progress")
	}
	queries := r.queries
	if sess != nil {
		queries = queries.WithTx(sess.Tx())
	}
	row, err := queries.UpsertLessonProgress(ctx, mappers.BuildUpsertLessonProgressParams(progress))
	if err != nil {
		r.log.WithContext(ctx).Errorf("upsert lesson progress failed: user_id=%s lesson_id=%s err=%v", progress.UserID, progress.LessonID, err)
		return nil, fmt.Errorf("upsert lesson progress: %w", err)
	}
	return mappers.LessonProgressFromRow(row), nil
}

// ListCompletedLessonIDs 返回课程下已持久化为完成的课时集合。
func (r *LessonProgressRepository) ListCompletedLessonIDs(ctx context.Context, sess txmanager.Session, userID, courseID uuid.UUID) (map[uuid.UUID]struct{}, error) {
	queries := r.queries
	if sess != nil {
		queries = queries.WithTx(sess.Tx())
	}
	ids, err := queries.ListCompletedLessonIDsByCourse(ctx, userID, courseID)
	if err != nil {
		return nil, fmt.Errorf("list completed lessons: %w", err)
	}
	set := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

var _ interface {
	GetForUpdate(context.Context, txmanager.Session, uuid.UUID, uuid.UUID) (*po.LessonProgress, error)
	Get(context.Context, txmanager.Session, uuid.UUID, uuid.UUID) (*po.LessonProgress, error)
	Upsert(context.Context, txmanager.Session, *po.LessonProgress) (*po.LessonProgress, error)
	ListCompletedLessonIDs(context.Context, txmanager.Session, uuid.UUID, uuid.UUID) (map[uuid.UUID]struct{}, error)
} = (*LessonProgressRepository)(nil)

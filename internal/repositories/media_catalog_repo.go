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

// playableMediaTypes 是参与进度统计的媒体类型。
var playableMediaTypes = []string{string(po.MediaTypeVideo), string(po.MediaTypeAudio)}

// MediaCatalogRepository 读取 catalog 投影表 learning.media / learning.lessons。
type MediaCatalogRepository struct {
	queries *learningsql.Queries
	log     *log.Helper
}

// NewMediaCatalogRepository 构造仓储。
func NewMediaCatalogRepository(db *pgxpool.Pool, logger log.Logger) *MediaCatalogRepository {
	return &MediaCatalogRepository{
		queries: learningsql.New(db),
		log:     log.NewHelper(logger),
	}
}

// GetMedia 返回媒体目录信息。
func (r *MediaCatalogRepository) GetMedia(ctx context.Context, sess txmanager.Session, mediaID uuid.UUID) (*po.Media, error) {
	queries := r.queries
	if sess != nil {
		queries = queries.WithTx(sess.Tx())
	}
	row, err := queries.GetMedium(ctx, mediaID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMediaNotFound
		}
		return nil, fmt.Errorf("get media: %w", err)
	}
	return mappers.MediaFromRow(row), nil
}

// GetLesson 返回课时目录信息。
func (r *MediaCatalogRepository) GetLesson(ctx context.Context, sess txmanager.Session, lessonID uuid.UUID) (*po.Lesson, error) {
	queries := r.queries
	if sess != nil {
		queries = queries.WithTx(sess.Tx())
	}
	row, err := queries.GetLesson(ctx, lessonID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLessonNotFound
		}
		return nil, fmt.Errorf("get lesson: %w", err)
	}
	return mappers.LessonFromRow(row), nil
}

// ListActiveLessons 返回课程下启用的课时，按排序字段升序。
func (r *MediaCatalogRepository) ListActiveLessons(ctx context.Context, sess txmanager.Session, courseID uuid.UUID) ([]*po.Lesson, error) {
	queries := r.queries
	if sess != nil {
		queries = queries.WithTx(sess.Tx())
	}
	rows, err := queries.ListActiveLessonsByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("list active lessons: %w", err)
	}
	lessons := make([]*po.Lesson, 0, len(rows))
	for _, row := range rows {
		lessons = append(lessons, mappers.LessonFromRow(row))
	}
	return lessons, nil
}

// ListLessonMediaProgress 返回课时下可播放媒体及用户的播放汇总。
func (r *MediaCatalogRepository) ListLessonMediaProgress(ctx context.Context, sess txmanager.Session, userID, lessonID uuid.UUID) ([]po.LessonMediaProgress, error) {
	queries := r.queries
	if sess != nil {
		queries = queries.WithTx(sess.Tx())
	}
	rows, err := queries.ListLessonMediaProgress(ctx, userID, lessonID, playableMediaTypes)
	if err != nil {
		return nil, fmt.Errorf("list lesson media progress: %w", err)
	}
	return toLessonMediaProgress(rows), nil
}

// ListCourseMediaProgress 返回课程下全部启用课时的可播放媒体及用户播放汇总。
func (r *MediaCatalogRepository) ListCourseMediaProgress(ctx context.Context, sess txmanager.Session, userID, courseID uuid.UUID) ([]po.LessonMediaProgress, error) {
	queries := r.queries
	if sess != nil {
		queries = queries.WithTx(sess.Tx())
	}
	rows, err := queries.ListCourseMediaProgress(ctx, userID, courseID, playableMediaTypes)
	if err != nil {
		return nil, fmt.Errorf("list course media progress: %w", err)
	}
	return toLessonMediaProgress(rows), nil
}

func toLessonMediaProgress(rows []learningsql.LessonMediaProgressRow) []po.LessonMediaProgress {
	items := make([]po.LessonMediaProgress, 0, len(rows))
	for _, row := range rows {
		items = append(items, mappers.LessonMediaProgressFromRow(row))
	}
	return items
}

var _ interface {
	GetMedia(context.Context, txmanager.Session, uuid.UUID) (*po.Media, error)
	GetLesson(context.Context, txmanager.Session, uuid.UUID) (*po.Lesson, error)
	ListActiveLessons(context.Context, txmanager.Session, uuid.UUID) ([]*po.Lesson, error)
	ListLessonMediaProgress(context.Context, txmanager.Session, uuid.UUID, uuid.UUID) ([]po.LessonMediaProgress, error)
	ListCourseMediaProgress(context.Context, txmanager.Session, uuid.UUID, uuid.UUID) ([]po.LessonMediaProgress, error)
} = (*MediaCatalogRepository)(nil)

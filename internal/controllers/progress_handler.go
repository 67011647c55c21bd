package controllers

import (
	"context"

	"github.com/bionicotaku/lingo-services-learning/internal/controllers/dto"
	"github.com/bionicotaku/lingo-services-learning/internal/models/vo"
	"github.com/bionicotaku/lingo-services-learning/internal/validation"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/google/uuid"
)

// ProgressQueries 是课时/课程进度查询的用例接口。
type ProgressQueries interface {
	GetLessonProgress(ctx context.Context, userID, lessonID uuid.UUID) (*vo.LessonProgress, error)
	GetCourseProgress(ctx context.Context, userID, courseID uuid.UUID) (*vo.CourseProgress, error)
}

// StatsQueries 是学习统计查询的用例接口。
type StatsQueries interface {
	GetLearningStats(ctx context.Context, userID uuid.UUID) (*vo.LearningStats, error)
}

// ProgressHandler 处理学习进度与统计查询。
type ProgressHandler struct {
	*BaseHandler
	progress ProgressQueries
	stats    StatsQueries
}

// NewProgressHandler 构造进度查询 Handler。
func NewProgressHandler(progress ProgressQueries, stats StatsQueries, base *BaseHandler) *ProgressHandler {
	if base == nil {
		base = NewBaseHandler(HandlerTimeouts{})
	}
	return &ProgressHandler{BaseHandler: base, progress: progress, stats: stats}
}

// GetLessonProgress 处理课时进度查询。
func (h *ProgressHandler) GetLessonProgress(ctx context.Context, req *dto.LessonProgressRequest) (*dto.LessonProgressResponse, error) {
	ids, err := parseRequest(req, "userId", req.UserID, "lessonId", req.LessonID)
	if err != nil {
		return nil, err
	}
	ctx, cancel := h.begin(ctx, HandlerTypeQuery)
	defer cancel()
	if err := authorize(ctx, ids[0]); err != nil {
		return nil, err
	}

	progress, err := h.progress.GetLessonProgress(ctx, ids[0], ids[1])
	if err != nil {
		return nil, err
	}
	return dto.NewLessonProgressResponse(progress), nil
}

// GetCourseProgress 处理课程进度查询。
func (h *ProgressHandler) GetCourseProgress(ctx context.Context, req *dto.CourseProgressRequest) (*dto.CourseProgressResponse, error) {
	ids, err := parseRequest(req, "userId", req.UserID, "courseId", req.CourseID)
	if err != nil {
		return nil, err
	}
	ctx, cancel := h.begin(ctx, HandlerTypeQuery)
	defer cancel()
	if err := authorize(ctx, ids[0]); err != nil {
		return nil, err
	}

	progress, err := h.progress.GetCourseProgress(ctx, ids[0], ids[1])
	if err != nil {
		return nil, err
	}
	return dto.NewCourseProgressResponse(progress), nil
}

// GetLearningStats 处理学习统计查询。
func (h *ProgressHandler) GetLearningStats(ctx context.Context, req *dto.LearningStatsRequest) (*dto.LearningStatsResponse, error) {
	ids, err := parseRequest(req, "userId", req.UserID)
	if err != nil {
		return nil, err
	}
	ctx, cancel := h.begin(ctx, HandlerTypeQuery)
	defer cancel()
	if err := authorize(ctx, ids[0]); err != nil {
		return nil, err
	}

	stats, err := h.stats.GetLearningStats(ctx, ids[0])
	if err != nil {
		return nil, err
	}
	return dto.NewLearningStatsResponse(stats), nil
}

func parseRequest(req any, pairs ...string) ([]uuid.UUID, error) {
	if err := validation.Request(req); err != nil {
		return nil, err
	}
	ids, err := dto.ParseIDs(pairs...)
	if err != nil {
		return nil, errors.BadRequest(validation.ReasonRequestInvalid, err.Error())
	}
	return ids, nil
}

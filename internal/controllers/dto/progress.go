package dto

import (
	"fmt"

	"github.com/bionicotaku/lingo-services-learning/internal/models/vo"

	"github.com/google/uuid"
)

// LessonProgressRequest 对应 GET /v1/users/{userId}/lessons/{lessonId}/progress。
type LessonProgressRequest struct {
	UserID   string `json:"userId" validate:"required,uuid"`
	LessonID string `json:"lessonId" validate:"required,uuid"`
}

// CourseProgressRequest 对应 GET /v1/users/{userId}/courses/{courseId}/progress。
type CourseProgressRequest struct {
	UserID   string `json:"userId" validate:"required,uuid"`
	CourseID string `json:"courseId" validate:"required,uuid"`
}

// LearningStatsRequest 对应 GET /v1/users/{userId}/learning/stats。
type LearningStatsRequest struct {
	UserID string `json:"userId" validate:"required,uuid"`
}

// ParseIDs 将一组字符串解析为 UUID，名称用于错误信息。
func ParseIDs(pairs ...string) ([]uuid.UUID, error) {
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("dto: ParseIDs expects name/value pairs")
	}
	out := make([]uuid.UUID, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		id, err := uuid.Parse(pairs[i+1])
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", pairs[i], err)
		}
		out = append(out, id)
	}
	return out, nil
}

// LessonProgressResponse 是课时进度响应体。
type LessonProgressResponse struct {
	UserID         string  `json:"userId"`
	LessonID       string  `json:"lessonId"`
	CourseID       string  `json:"courseId"`
	Percentage     float64 `json:"percentage"`
	Completed      bool    `json:"completed"`
	WatchedSeconds float64 `json:"watchedSeconds"`
	TotalSeconds   float64 `json:"totalSeconds"`
	CompletedMedia int     `json:"completedMedia"`
	TotalMedia     int     `json:"totalMedia"`
}

// NewLessonProgressResponse 转换课时进度视图。
func NewLessonProgressResponse(p *vo.LessonProgress) *LessonProgressResponse {
	if p == nil {
		return nil
	}
	return &LessonProgressResponse{
		UserID:         p.UserID.String(),
		LessonID:       p.LessonID.String(),
		CourseID:       p.CourseID.String(),
		Percentage:     p.Percentage,
		Completed:      p.Completed,
		WatchedSeconds: p.WatchedSeconds,
		TotalSeconds:   p.TotalSeconds,
		CompletedMedia: p.CompletedMedia,
		TotalMedia:     p.TotalMedia,
	}
}

// CourseProgressResponse 是课程进度响应体。
type CourseProgressResponse struct {
	UserID           string  `json:"userId"`
	CourseID         string  `json:"courseId"`
	Percentage       float64 `json:"percentage"`
	CompletedLessons int     `json:"completedLessons"`
	TotalLessons     int     `json:"totalLessons"`
}

// NewCourseProgressResponse 转换课程进度视图。
func NewCourseProgressResponse(p *vo.CourseProgress) *CourseProgressResponse {
	if p == nil {
		return nil
	}
	return &CourseProgressResponse{
		UserID:           p.UserID.String(),
		CourseID:         p.CourseID.String(),
		Percentage:       p.Percentage,
		CompletedLessons: p.CompletedLessons,
		TotalLessons:     p.TotalLessons,
	}
}

// LearningStatsResponse 是学习统计响应体。
type LearningStatsResponse struct {
	UserID                string  `json:"userId"`
	TotalLearningSeconds  float64 `json:"totalLearningSeconds"`
	RecentLearningSeconds float64 `json:"recentLearningSeconds"`
	TodayLearningSeconds  float64 `json:"todayLearningSeconds"`
	CompletedLessons      int     `json:"completedLessons"`
	LearningCourses       int     `json:"learningCourses"`
	LearningStreakDays    int     `json:"learningStreakDays"`
}

// NewLearningStatsResponse 转换学习统计视图。
func NewLearningStatsResponse(s *vo.LearningStats) *LearningStatsResponse {
	if s == nil {
		return nil
	}
	return &LearningStatsResponse{
		UserID:                s.UserID.String(),
		TotalLearningSeconds:  s.TotalLearningSeconds,
		RecentLearningSeconds: s.RecentLearningSeconds,
		TodayLearningSeconds:  s.TodayLearningSeconds,
		CompletedLessons:      s.CompletedLessons,
		LearningCourses:       s.LearningCourses,
		LearningStreakDays:    s.LearningStreakDays,
	}
}

package mappers

import (
	"github.com/bionicotaku/lingo-services-learning/internal/models/po"
	"github.com/bionicotaku/lingo-services-learning/internal/repositories/learningsql"
)

// LessonProgressFromRow 将 learning.lesson_progress 行转换为 po.LessonProgress。
func LessonProgressFromRow(row learningsql.LearningLessonProgress) *po.LessonProgress {
	return &po.LessonProgress{
		UserID:        row.UserID,
		LessonID:      row.LessonID,
		CourseID:      row.CourseID,
		WatchDuration: row.WatchSeconds,
		TotalDuration: row.TotalSeconds,
		Percentage:    row.Percentage,
		Completed:     row.Completed,
		StartedAt:     mustTimestamp(row.StartedAt),
		LastWatchedAt: mustTimestamp(row.LastWatchedAt),
		CompletedAt:   timestampPtr(row.CompletedAt),
		UpdatedAt:     mustTimestamp(row.UpdatedAt),
	}
}

// BuildUpsertLessonProgressParams 将课时进度转换为 UpsertLessonProgressParams。
func BuildUpsertLessonProgressParams(p *po.LessonProgress) learningsql.UpsertLessonProgressParams {
	return learningsql.UpsertLessonProgressParams{
		UserID:       p.UserID,
		LessonID:     p.LessonID,
		CourseID:     p.CourseID,
		WatchSeconds: p.WatchDuration,
		TotalSeconds: p.TotalDuration,
		Percentage:   p.Percentage,
		Completed:    p.Completed,
		WatchedAt:    TimestamptzFromTime(p.LastWatchedAt),
		CompletedAt:  ToPgTimestamptz(p.CompletedAt),
	}
}

package mappers

import (
	"github.com/bionicotaku/lingo-services-learning/internal/models/po"
	"github.com/bionicotaku/lingo-services-learning/internal/repositories/learningsql"
)

// MediaFromRow 将 learning.media 行转换为 po.Media。
func MediaFromRow(row learningsql.LearningMedium) *po.Media {
	return &po.Media{
		MediaID:         row.MediaID,
		LessonID:        uuidPtr(row.LessonID),
		MediaType:       po.MediaType(row.MediaType),
		DurationSeconds: float8Ptr(row.DurationSeconds),
	}
}

// LessonFromRow 将 learning.lessons 行转换为 po.Lesson。
func LessonFromRow(row learningsql.LearningLesson) *po.Lesson {
	return &po.Lesson{
		LessonID:  row.LessonID,
		CourseID:  row.CourseID,
		Title:     row.Title,
		SortOrder: row.SortOrder,
		IsActive:  row.IsActive,
	}
}

// LessonMediaProgressFromRow 转换左连接结果；记录缺失时有效时长按 0 处理。
func LessonMediaProgressFromRow(row learningsql.LessonMediaProgressRow) po.LessonMediaProgress {
	item := po.LessonMediaProgress{
		LessonID:        row.LessonID,
		MediaID:         row.MediaID,
		MediaType:       po.MediaType(row.MediaType),
		DurationSeconds: float8Ptr(row.DurationSeconds),
		HasRecord:       row.EffectiveSeconds.Valid,
	}
	if row.EffectiveSeconds.Valid {
		item.EffectiveSeconds = row.EffectiveSeconds.Float64
	}
	if row.Completed.Valid {
		item.Completed = row.Completed.Bool
	}
	return item
}

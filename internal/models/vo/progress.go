package vo

import "github.com/google/uuid"

// LessonProgress 是课时级进度汇总。
type LessonProgress struct {
	UserID         uuid.UUID
	LessonID       uuid.UUID
	CourseID       uuid.UUID
	Percentage     float64
	Completed      bool
	WatchedSeconds float64
	TotalSeconds   float64
	CompletedMedia int
	TotalMedia     int
}

// CourseProgress 是课程级进度，按需计算不落库。
type CourseProgress struct {
	UserID           uuid.UUID
	CourseID         uuid.UUID
	Percentage       float64
	CompletedLessons int
	TotalLessons     int
}

// LearningStats 汇总用户的学习时长与完成情况。
type LearningStats struct {
	UserID                uuid.UUID
	TotalLearningSeconds  float64
	RecentLearningSeconds float64 // 最近 7 天
	TodayLearningSeconds  float64
	CompletedLessons      int
	LearningCourses       int
	LearningStreakDays    int
}

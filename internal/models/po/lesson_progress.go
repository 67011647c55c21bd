package po

import (
	"time"

	"github.com/google/uuid"
)

// LessonProgress 表示 learning.lesson_progress 表，由课时汇总维护。
type LessonProgress struct {
	UserID        uuid.UUID  `db:"user_id"`
	LessonID      uuid.UUID  `db:"lesson_id"`
	CourseID      uuid.UUID  `db:"course_id"`
	WatchDuration float64    `db:"watch_seconds"`  // Σ 有效时长
	TotalDuration float64    `db:"total_seconds"`  // Σ 媒体时长
	Percentage    float64    `db:"percentage"`     // 0..100
	Completed     bool       `db:"completed"`      // 只增不减
	StartedAt     time.Time  `db:"started_at"`
	LastWatchedAt time.Time  `db:"last_watched_at"`
	CompletedAt   *time.Time `db:"completed_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
}

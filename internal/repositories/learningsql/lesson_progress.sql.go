package learningsql

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const lessonProgressColumns = `user_id, lesson_id, course_id, watch_seconds, total_seconds, percentage, completed,
       started_at, last_watched_at, completed_at, updated_at`

func scanLessonProgress(row interface{ Scan(...any) error }) (LearningLessonProgress, error) {
	var i LearningLessonProgress
	err := row.Scan(
		&i.UserID,
		&i.LessonID,
		&i.CourseID,
		&i.WatchSeconds,
		&i.TotalSeconds,
		&i.Percentage,
		&i.Completed,
		&i.StartedAt,
		&i.LastWatchedAt,
		&i.CompletedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getLessonProgressForUpdate = `
SELECT ` + lessonProgressColumns + `
FROM learning.lesson_progress
WHERE user_id = $1 AND lesson_id = $2
FOR UPDATE
`

// GetLessonProgressForUpdate 读取并锁定课时进度行。
func (q *Queries) GetLessonProgressForUpdate(ctx context.Context, userID, lessonID uuid.UUID) (LearningLessonProgress, error) {
	return scanLessonProgress(q.db.QueryRow(ctx, getLessonProgressForUpdate, userID, lessonID))
}

const getLessonProgress = `
SELECT ` + lessonProgressColumns + `
FROM learning.lesson_progress
WHERE user_id = $1 AND lesson_id = $2
`

// GetLessonProgress 读取课时进度行。
func (q *Queries) GetLessonProgress(ctx context.Context, userID, lessonID uuid.UUID) (LearningLessonProgress, error) {
	return scanLessonProgress(q.db.QueryRow(ctx, getLessonProgress, userID, lessonID))
}

const listCompletedLessonIDsByCourse = `
SELECT lesson_id
FROM learning.lesson_progress
WHERE user_id = $1 AND course_id = $2 AND completed
`

// ListCompletedLessonIDsByCourse 返回课程下已持久化为完成的课时 ID。
func (q *Queries) ListCompletedLessonIDsByCourse(ctx context.Context, userID, courseID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := q.db.Query(ctx, listCompletedLessonIDsByCourse, userID, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		items = append(items, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const upsertLessonProgress = `
INSERT INTO learning.lesson_progress (
    user_id, lesson_id, course_id, watch_seconds, total_seconds, percentage, completed,
    started_at, last_watched_at, completed_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8, $9)
ON CONFLICT (user_id, lesson_id) DO UPDATE
SET course_id       = EXCLUDED.course_id,
    watch_seconds   = EXCLUDED.watch_seconds,
    total_seconds   = EXCLUDED.total_seconds,
    percentage      = EXCLUDED.percentage,
    completed       = learning.lesson_progress.completed OR EXCLUDED.completed,
    last_watched_at = EXCLUDED.last_watched_at,
    completed_at    = COALESCE(learning.lesson_progress.completed_at, EXCLUDED.completed_at),
    updated_at      = now()
RETURNING ` + lessonProgressColumns

// UpsertLessonProgressParams 是 UpsertLessonProgress 的参数。
type UpsertLessonProgressParams struct {
	UserID       uuid.UUID
	LessonID     uuid.UUID
	CourseID     uuid.UUID
	WatchSeconds float64
	TotalSeconds float64
	Percentage   float64
	Completed    bool
	WatchedAt    pgtype.Timestamptz
	CompletedAt  pgtype.Timestamptz
}

// UpsertLessonProgress 插入或更新课时进度，completed 只会从 false 变为 true。
func (q *Queries) UpsertLessonProgress(ctx context.Context, arg UpsertLessonProgressParams) (LearningLessonProgress, error) {
	row := q.db.QueryRow(ctx, upsertLessonProgress,
		arg.UserID,
		arg.LessonID,
		arg.CourseID,
		arg.WatchSeconds,
		arg.TotalSeconds,
		arg.Percentage,
		arg.Completed,
		arg.WatchedAt,
		arg.CompletedAt,
	)
	return scanLessonProgress(row)
}

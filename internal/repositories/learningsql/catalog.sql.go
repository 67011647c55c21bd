package learningsql

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const getMedium = `
SELECT media_id, lesson_id, media_type, duration_seconds
FROM learning.media
WHERE media_id = $1
`

// GetMedium 读取媒体目录信息。
func (q *Queries) GetMedium(ctx context.Context, mediaID uuid.UUID) (LearningMedium, error) {
	var i LearningMedium
	err := q.db.QueryRow(ctx, getMedium, mediaID).Scan(
		&i.MediaID,
		&i.LessonID,
		&i.MediaType,
		&i.DurationSeconds,
	)
	return i, err
}

const getLesson = `
SELECT lesson_id, course_id, title, sort_order, is_active
FROM learning.lessons
WHERE lesson_id = $1
`

// GetLesson 读取课时目录信息。
func (q *Queries) GetLesson(ctx context.Context, lessonID uuid.UUID) (LearningLesson, error) {
	var i LearningLesson
	err := q.db.QueryRow(ctx, getLesson, lessonID).Scan(
		&i.LessonID,
		&i.CourseID,
		&i.Title,
		&i.SortOrder,
		&i.IsActive,
	)
	return i, err
}

const listActiveLessonsByCourse = `
SELECT lesson_id, course_id, title, sort_order, is_active
FROM learning.lessons
WHERE course_id = $1 AND is_active
ORDER BY sort_order, lesson_id
`

// ListActiveLessonsByCourse 返回课程下启用的课时。
func (q *Queries) ListActiveLessonsByCourse(ctx context.Context, courseID uuid.UUID) ([]LearningLesson, error) {
	rows, err := q.db.Query(ctx, listActiveLessonsByCourse, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []LearningLesson
	for rows.Next() {
		var i LearningLesson
		if err := rows.Scan(&i.LessonID, &i.CourseID, &i.Title, &i.SortOrder, &i.IsActive); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// LessonMediaProgressRow 是课时媒体与用户播放记录的左连接结果。
type LessonMediaProgressRow struct {
	LessonID         uuid.UUID
	MediaID          uuid.UUID
	MediaType        string
	DurationSeconds  pgtype.Float8
	EffectiveSeconds pgtype.Float8
	Completed        pgtype.Bool
}

const listLessonMediaProgress = `
SELECT m.lesson_id, m.media_id, m.media_type, m.duration_seconds, pr.effective_seconds, pr.completed
FROM learning.media m
LEFT JOIN learning.play_records pr ON pr.media_id = m.media_id AND pr.user_id = $1
WHERE m.lesson_id = $2 AND m.media_type = ANY($3::text[])
ORDER BY m.created_at, m.media_id
`

// ListLessonMediaProgress 返回课时下指定类型的媒体及用户播放汇总。
func (q *Queries) ListLessonMediaProgress(ctx context.Context, userID, lessonID uuid.UUID, mediaTypes []string) ([]LessonMediaProgressRow, error) {
	return q.listMediaProgress(ctx, listLessonMediaProgress, userID, lessonID, mediaTypes)
}

const listCourseMediaProgress = `
SELECT m.lesson_id, m.media_id, m.media_type, m.duration_seconds, pr.effective_seconds, pr.completed
FROM learning.lessons l
JOIN learning.media m ON m.lesson_id = l.lesson_id
LEFT JOIN learning.play_records pr ON pr.media_id = m.media_id AND pr.user_id = $1
WHERE l.course_id = $2 AND l.is_active AND m.media_type = ANY($3::text[])
ORDER BY l.sort_order, l.lesson_id, m.created_at, m.media_id
`

// ListCourseMediaProgress 返回课程下所有启用课时的媒体及用户播放汇总。
func (q *Queries) ListCourseMediaProgress(ctx context.Context, userID, courseID uuid.UUID, mediaTypes []string) ([]LessonMediaProgressRow, error) {
	return q.listMediaProgress(ctx, listCourseMediaProgress, userID, courseID, mediaTypes)
}

func (q *Queries) listMediaProgress(ctx context.Context, query string, userID, scopeID uuid.UUID, mediaTypes []string) ([]LessonMediaProgressRow, error) {
	rows, err := q.db.Query(ctx, query, userID, scopeID, mediaTypes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []LessonMediaProgressRow
	for rows.Next() {
		var i LessonMediaProgressRow
		if err := rows.Scan(
			&i.LessonID,
			&i.MediaID,
			&i.MediaType,
			&i.DurationSeconds,
			&i.EffectiveSeconds,
			&i.Completed,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

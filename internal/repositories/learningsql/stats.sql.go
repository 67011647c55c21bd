package learningsql

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const sumEffectiveSeconds = `
SELECT COALESCE(SUM(effective_seconds), 0)::float8
FROM learning.play_records
WHERE user_id = $1
`

// SumEffectiveSeconds 返回用户全部播放记录的有效时长合计。
func (q *Queries) SumEffectiveSeconds(ctx context.Context, userID uuid.UUID) (float64, error) {
	var total float64
	err := q.db.QueryRow(ctx, sumEffectiveSeconds, userID).Scan(&total)
	return total, err
}

const sumCreditedSecondsSince = `
SELECT COALESCE(SUM(credited_seconds), 0)::float8
FROM learning.play_events
WHERE user_id = $1 AND occurred_at >= $2
`

// SumCreditedSecondsSince 返回 since 之后事件计入的有效时长合计。
func (q *Queries) SumCreditedSecondsSince(ctx context.Context, userID uuid.UUID, since pgtype.Timestamptz) (float64, error) {
	var total float64
	err := q.db.QueryRow(ctx, sumCreditedSecondsSince, userID, since).Scan(&total)
	return total, err
}

const countLessonSummary = `
SELECT COUNT(*) FILTER (WHERE completed)::int4 AS completed_lessons,
       COUNT(DISTINCT course_id)::int4 AS learning_courses
FROM learning.lesson_progress
WHERE user_id = $1
`

// CountLessonSummaryRow 是 CountLessonSummary 的结果。
type CountLessonSummaryRow struct {
	CompletedLessons int32
	LearningCourses  int32
}

// CountLessonSummary 统计已完成课时数与参与课程数。
func (q *Queries) CountLessonSummary(ctx context.Context, userID uuid.UUID) (CountLessonSummaryRow, error) {
	var i CountLessonSummaryRow
	err := q.db.QueryRow(ctx, countLessonSummary, userID).Scan(&i.CompletedLessons, &i.LearningCourses)
	return i, err
}

const listLearningDays = `
SELECT DISTINCT (occurred_at AT TIME ZONE 'UTC')::date AS day
FROM learning.play_events
WHERE user_id = $1 AND credited_seconds > 0 AND occurred_at >= $2
ORDER BY day DESC
`

// ListLearningDays 返回 since 之后有有效学习的 UTC 日期，按时间倒序。
func (q *Queries) ListLearningDays(ctx context.Context, userID uuid.UUID, since pgtype.Timestamptz) ([]time.Time, error) {
	rows, err := q.db.Query(ctx, listLearningDays, userID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var days []time.Time
	for rows.Next() {
		var day pgtype.Date
		if err := rows.Scan(&day); err != nil {
			return nil, err
		}
		if day.Valid {
			days = append(days, day.Time)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return days, nil
}

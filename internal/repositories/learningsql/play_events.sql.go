package learningsql

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const playEventColumns = `event_id, record_id, user_id, media_id, event_type, position_seconds, previous_seconds,
       playback_rate, volume, is_fullscreen, credited_seconds, device_info, extra_data, occurred_at`

func scanPlayEvent(row interface{ Scan(...any) error }) (LearningPlayEvent, error) {
	var i LearningPlayEvent
	err := row.Scan(
		&i.EventID,
		&i.RecordID,
		&i.UserID,
		&i.MediaID,
		&i.EventType,
		&i.PositionSeconds,
		&i.PreviousSeconds,
		&i.PlaybackRate,
		&i.Volume,
		&i.IsFullscreen,
		&i.CreditedSeconds,
		&i.DeviceInfo,
		&i.ExtraData,
		&i.OccurredAt,
	)
	return i, err
}

const insertPlayEvent = `
INSERT INTO learning.play_events (
    event_id, record_id, user_id, media_id, event_type, position_seconds, previous_seconds,
    playback_rate, volume, is_fullscreen, credited_seconds, device_info, extra_data, occurred_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
`

// InsertPlayEventParams 是 InsertPlayEvent 的参数。
type InsertPlayEventParams struct {
	EventID         uuid.UUID
	RecordID        uuid.UUID
	UserID          uuid.UUID
	MediaID         uuid.UUID
	EventType       string
	PositionSeconds float64
	PreviousSeconds pgtype.Float8
	PlaybackRate    float64
	Volume          float64
	IsFullscreen    bool
	CreditedSeconds float64
	DeviceInfo      []byte
	ExtraData       []byte
	OccurredAt      pgtype.Timestamptz
}

// InsertPlayEvent 追加一条播放事件。
func (q *Queries) InsertPlayEvent(ctx context.Context, arg InsertPlayEventParams) error {
	_, err := q.db.Exec(ctx, insertPlayEvent,
		arg.EventID,
		arg.RecordID,
		arg.UserID,
		arg.MediaID,
		arg.EventType,
		arg.PositionSeconds,
		arg.PreviousSeconds,
		arg.PlaybackRate,
		arg.Volume,
		arg.IsFullscreen,
		arg.CreditedSeconds,
		arg.DeviceInfo,
		arg.ExtraData,
		arg.OccurredAt,
	)
	return err
}

const getLatestPlayEvent = `
SELECT ` + playEventColumns + `
FROM learning.play_events
WHERE record_id = $1
ORDER BY seq DESC
LIMIT 1
`

// GetLatestPlayEvent 返回记录最近一条事件。
func (q *Queries) GetLatestPlayEvent(ctx context.Context, recordID uuid.UUID) (LearningPlayEvent, error) {
	return scanPlayEvent(q.db.QueryRow(ctx, getLatestPlayEvent, recordID))
}

const getLatestPlayEventOfTypes = `
SELECT ` + playEventColumns + `
FROM learning.play_events
WHERE record_id = $1 AND event_type = ANY($2::text[])
ORDER BY seq DESC
LIMIT 1
`

// GetLatestPlayEventOfTypes 返回记录最近一条指定类型的事件。
func (q *Queries) GetLatestPlayEventOfTypes(ctx context.Context, recordID uuid.UUID, eventTypes []string) (LearningPlayEvent, error) {
	return scanPlayEvent(q.db.QueryRow(ctx, getLatestPlayEventOfTypes, recordID, eventTypes))
}

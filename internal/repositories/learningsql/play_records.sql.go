package learningsql

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const playRecordColumns = `record_id, user_id, media_id, position_seconds, max_position_seconds, progress,
       effective_seconds, total_play_seconds, is_playing, is_paused, is_ended, completed,
       play_count, pause_count, seek_count, abnormal_seek_count, is_abnormal,
       playback_rate, volume, is_fullscreen, first_played_at, last_played_at, completed_at,
       created_at, updated_at`

func scanPlayRecord(row interface{ Scan(...any) error }) (LearningPlayRecord, error) {
	var i LearningPlayRecord
	err := row.Scan(
		&i.RecordID,
		&i.UserID,
		&i.MediaID,
		&i.PositionSeconds,
		&i.MaxPositionSeconds,
		&i.Progress,
		&i.EffectiveSeconds,
		&i.TotalPlaySeconds,
		&i.IsPlaying,
		&i.IsPaused,
		&i.IsEnded,
		&i.Completed,
		&i.PlayCount,
		&i.PauseCount,
		&i.SeekCount,
		&i.AbnormalSeekCount,
		&i.IsAbnormal,
		&i.PlaybackRate,
		&i.Volume,
		&i.IsFullscreen,
		&i.FirstPlayedAt,
		&i.LastPlayedAt,
		&i.CompletedAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const insertPlayRecordIfAbsent = `
INSERT INTO learning.play_records (record_id, user_id, media_id, first_played_at, last_played_at)
VALUES ($1, $2, $3, $4, $4)
ON CONFLICT (user_id, media_id) DO NOTHING
`

// InsertPlayRecordIfAbsentParams 是 InsertPlayRecordIfAbsent 的参数。
type InsertPlayRecordIfAbsentParams struct {
	RecordID      uuid.UUID
	UserID        uuid.UUID
	MediaID       uuid.UUID
	FirstPlayedAt pgtype.Timestamptz
}

// InsertPlayRecordIfAbsent 在记录不存在时插入，返回是否新建。
func (q *Queries) InsertPlayRecordIfAbsent(ctx context.Context, arg InsertPlayRecordIfAbsentParams) (bool, error) {
	tag, err := q.db.Exec(ctx, insertPlayRecordIfAbsent, arg.RecordID, arg.UserID, arg.MediaID, arg.FirstPlayedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

const getPlayRecordForUpdate = `
SELECT ` + playRecordColumns + `
FROM learning.play_records
WHERE user_id = $1 AND media_id = $2
FOR UPDATE
`

// GetPlayRecordForUpdate 读取并锁定 (user_id, media_id) 对应的记录行。
func (q *Queries) GetPlayRecordForUpdate(ctx context.Context, userID, mediaID uuid.UUID) (LearningPlayRecord, error) {
	return scanPlayRecord(q.db.QueryRow(ctx, getPlayRecordForUpdate, userID, mediaID))
}

const getPlayRecord = `
SELECT ` + playRecordColumns + `
FROM learning.play_records
WHERE user_id = $1 AND media_id = $2
`

// GetPlayRecord 读取记录，不加锁。
func (q *Queries) GetPlayRecord(ctx context.Context, userID, mediaID uuid.UUID) (LearningPlayRecord, error) {
	return scanPlayRecord(q.db.QueryRow(ctx, getPlayRecord, userID, mediaID))
}

const updatePlayRecord = `
UPDATE learning.play_records
SET position_seconds     = $2,
    max_position_seconds = GREATEST(max_position_seconds, $3),
    progress             = $4,
    effective_seconds    = $5,
    total_play_seconds   = $6,
    is_playing           = $7,
    is_paused            = $8,
    is_ended             = $9,
    completed            = completed OR $10,
    play_count           = $11,
    pause_count          = $12,
    seek_count           = $13,
    abnormal_seek_count  = $14,
    is_abnormal          = is_abnormal OR $15,
    playback_rate        = $16,
    volume               = $17,
    is_fullscreen        = $18,
    last_played_at       = $19,
    completed_at         = COALESCE(completed_at, $20),
    updated_at           = now()
WHERE record_id = $1
RETURNING ` + playRecordColumns

// UpdatePlayRecordParams 是 UpdatePlayRecord 的参数。
type UpdatePlayRecordParams struct {
	RecordID           uuid.UUID
	PositionSeconds    float64
	MaxPositionSeconds float64
	Progress           float64
	EffectiveSeconds   float64
	TotalPlaySeconds   float64
	IsPlaying          bool
	IsPaused           bool
	IsEnded            bool
	Completed          bool
	PlayCount          int32
	PauseCount         int32
	SeekCount          int32
	AbnormalSeekCount  int32
	IsAbnormal         bool
	PlaybackRate       float64
	Volume             float64
	IsFullscreen       bool
	LastPlayedAt       pgtype.Timestamptz
	CompletedAt        pgtype.Timestamptz
}

// UpdatePlayRecord 写回可变字段；max/completed/abnormal 在 SQL 层同样保持单调。
func (q *Queries) UpdatePlayRecord(ctx context.Context, arg UpdatePlayRecordParams) (LearningPlayRecord, error) {
	row := q.db.QueryRow(ctx, updatePlayRecord,
		arg.RecordID,
		arg.PositionSeconds,
		arg.MaxPositionSeconds,
		arg.Progress,
		arg.EffectiveSeconds,
		arg.TotalPlaySeconds,
		arg.IsPlaying,
		arg.IsPaused,
		arg.IsEnded,
		arg.Completed,
		arg.PlayCount,
		arg.PauseCount,
		arg.SeekCount,
		arg.AbnormalSeekCount,
		arg.IsAbnormal,
		arg.PlaybackRate,
		arg.Volume,
		arg.IsFullscreen,
		arg.LastPlayedAt,
		arg.CompletedAt,
	)
	return scanPlayRecord(row)
}

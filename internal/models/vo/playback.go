// Package vo 定义服务层返回给控制器的视图对象（View Objects）。
package vo

import (
	"time"

	"github.com/bionicotaku/lingo-services-learning/internal/models/po"
	"github.com/google/uuid"
)

// 上报结果中可能携带的告警码。
const (
	WarningDurationFromClient  = "duration_from_client"
	WarningDurationDefaulted   = "duration_defaulted"
	WarningDuplicateEvent      = "duplicate_event"
	WarningMissingReference    = "missing_reference"
	WarningDeltaOutOfRange     = "delta_out_of_range"
	WarningCompletionSkipped   = "completion_skipped_unknown_duration"
	WarningLessonRollupSkipped = "lesson_rollup_failed"
)

// PlaybackReport 是单次播放事件上报的处理结果。
type PlaybackReport struct {
	RecordID          uuid.UUID
	EventID           uuid.UUID
	CurrentTime       float64
	Progress          float64
	CompletionRate    float64
	EffectiveDuration float64
	Completed         bool
	Warnings          []string
}

// PlayRecord 是播放记录的只读视图。
type PlayRecord struct {
	RecordID           uuid.UUID
	UserID             uuid.UUID
	MediaID            uuid.UUID
	CurrentTime        float64
	MaxPlayedTime      float64
	Progress           float64
	EffectiveDuration  float64
	TotalPlayTime      float64
	IsPlaying          bool
	IsPaused           bool
	IsEnded            bool
	Completed          bool
	PlayCount          int32
	PauseCount         int32
	SeekCount          int32
	AbnormalSeekCount  int32
	IsAbnormalBehavior bool
	PlaybackRate       float64
	Volume             float64
	IsFullscreen       bool
	FirstPlayedAt      time.Time
	LastPlayedAt       time.Time
	CompletedAt        *time.Time
}

// NewPlayRecord 将持久化实体转换为视图。
func NewPlayRecord(rec *po.PlayRecord) *PlayRecord {
	if rec == nil {
		return nil
	}
	view := &PlayRecord{
		RecordID:           rec.RecordID,
		UserID:             rec.UserID,
		MediaID:            rec.MediaID,
		CurrentTime:        rec.CurrentTime,
		MaxPlayedTime:      rec.MaxPlayedTime,
		Progress:           rec.Progress,
		EffectiveDuration:  rec.EffectiveDuration,
		TotalPlayTime:      rec.TotalPlayTime,
		IsPlaying:          rec.IsPlaying,
		IsPaused:           rec.IsPaused,
		IsEnded:            rec.IsEnded,
		Completed:          rec.Completed,
		PlayCount:          rec.PlayCount,
		PauseCount:         rec.PauseCount,
		SeekCount:          rec.SeekCount,
		AbnormalSeekCount:  rec.AbnormalSeekCount,
		IsAbnormalBehavior: rec.IsAbnormalBehavior,
		PlaybackRate:       rec.PlaybackRate,
		Volume:             rec.Volume,
		IsFullscreen:       rec.IsFullscreen,
		FirstPlayedAt:      rec.FirstPlayedAt,
		LastPlayedAt:       rec.LastPlayedAt,
	}
	if rec.CompletedAt != nil {
		at := *rec.CompletedAt
		view.CompletedAt = &at
	}
	return view
}

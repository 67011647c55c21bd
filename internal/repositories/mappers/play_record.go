package mappers

import (
	"github.com/bionicotaku/lingo-services-learning/internal/models/po"
	"github.com/bionicotaku/lingo-services-learning/internal/repositories/learningsql"
)

// PlayRecordFromRow 将 learning.play_records 行转换为 po.PlayRecord。
func PlayRecordFromRow(row learningsql.LearningPlayRecord) *po.PlayRecord {
	return &po.PlayRecord{
		RecordID:           row.RecordID,
		UserID:             row.UserID,
		MediaID:            row.MediaID,
		CurrentTime:        row.PositionSeconds,
		MaxPlayedTime:      row.MaxPositionSeconds,
		Progress:           row.Progress,
		EffectiveDuration:  row.EffectiveSeconds,
		TotalPlayTime:      row.TotalPlaySeconds,
		IsPlaying:          row.IsPlaying,
		IsPaused:           row.IsPaused,
		IsEnded:            row.IsEnded,
		Completed:          row.Completed,
		PlayCount:          row.PlayCount,
		PauseCount:         row.PauseCount,
		SeekCount:          row.SeekCount,
		AbnormalSeekCount:  row.AbnormalSeekCount,
		IsAbnormalBehavior: row.IsAbnormal,
		PlaybackRate:       row.PlaybackRate,
		Volume:             row.Volume,
		IsFullscreen:       row.IsFullscreen,
		FirstPlayedAt:      mustTimestamp(row.FirstPlayedAt),
		LastPlayedAt:       mustTimestamp(row.LastPlayedAt),
		CompletedAt:        timestampPtr(row.CompletedAt),
		CreatedAt:          mustTimestamp(row.CreatedAt),
		UpdatedAt:          mustTimestamp(row.UpdatedAt),
	}
}

// BuildUpdatePlayRecordParams 将记录的可变字段转换为 UpdatePlayRecordParams。
func BuildUpdatePlayRecordParams(rec *po.PlayRecord) learningsql.UpdatePlayRecordParams {
	return learningsql.UpdatePlayRecordParams{
		RecordID:           rec.RecordID,
		PositionSeconds:    rec.CurrentTime,
		MaxPositionSeconds: rec.MaxPlayedTime,
		Progress:           rec.Progress,
		EffectiveSeconds:   rec.EffectiveDuration,
		TotalPlaySeconds:   rec.TotalPlayTime,
		IsPlaying:          rec.IsPlaying,
		IsPaused:           rec.IsPaused,
		IsEnded:            rec.IsEnded,
		Completed:          rec.Completed,
		PlayCount:          rec.PlayCount,
		PauseCount:         rec.PauseCount,
		SeekCount:          rec.SeekCount,
		AbnormalSeekCount:  rec.AbnormalSeekCount,
		IsAbnormal:         rec.IsAbnormalBehavior,
		PlaybackRate:       rec.PlaybackRate,
		Volume:             rec.Volume,
		IsFullscreen:       rec.IsFullscreen,
		LastPlayedAt:       TimestamptzFromTime(rec.LastPlayedAt),
		CompletedAt:        ToPgTimestamptz(rec.CompletedAt),
	}
}

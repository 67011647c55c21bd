package mappers

import (
	"github.com/bionicotaku/lingo-services-learning/internal/models/po"
	"github.com/bionicotaku/lingo-services-learning/internal/repositories/learningsql"
)

// PlayEventFromRow 将 learning.play_events 行转换为 po.PlayEvent。
func PlayEventFromRow(row learningsql.LearningPlayEvent) *po.PlayEvent {
	return &po.PlayEvent{
		EventID:         row.EventID,
		RecordID:        row.RecordID,
		UserID:          row.UserID,
		MediaID:         row.MediaID,
		EventType:       po.EventType(row.EventType),
		CurrentTime:     row.PositionSeconds,
		PreviousTime:    float8Ptr(row.PreviousSeconds),
		PlaybackRate:    row.PlaybackRate,
		Volume:          row.Volume,
		IsFullscreen:    row.IsFullscreen,
		CreditedSeconds: row.CreditedSeconds,
		DeviceInfo:      row.DeviceInfo,
		ExtraData:       row.ExtraData,
		OccurredAt:      mustTimestamp(row.OccurredAt),
	}
}

// BuildInsertPlayEventParams 将事件转换为 InsertPlayEventParams。
func BuildInsertPlayEventParams(evt *po.PlayEvent) learningsql.InsertPlayEventParams {
	return learningsql.InsertPlayEventParams{
		EventID:         evt.EventID,
		RecordID:        evt.RecordID,
		UserID:          evt.UserID,
		MediaID:         evt.MediaID,
		EventType:       string(evt.EventType),
		PositionSeconds: evt.CurrentTime,
		PreviousSeconds: ToPgFloat8(evt.PreviousTime),
		PlaybackRate:    evt.PlaybackRate,
		Volume:          evt.Volume,
		IsFullscreen:    evt.IsFullscreen,
		CreditedSeconds: evt.CreditedSeconds,
		DeviceInfo:      evt.DeviceInfo,
		ExtraData:       evt.ExtraData,
		OccurredAt:      TimestamptzFromTime(evt.OccurredAt),
	}
}

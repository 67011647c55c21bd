package services

import (
	"encoding/json"
	"math"
	"time"

	"github.com/bionicotaku/lingo-services-learning/internal/models/po"

	"github.com/google/uuid"
)

// 倍速与音量的合法区间。
const (
	MinPlaybackRate = 0.0625
	MaxPlaybackRate = 16.0
)

// PlaybackEventInput 是客户端上报的原始事件，可选字段以指针表示。
type PlaybackEventInput struct {
	UserID       uuid.UUID
	MediaID      uuid.UUID
	EventType    string
	CurrentTime  float64
	PreviousTime *float64
	Progress     *float64
	PlaybackRate *float64
	Volume       *float64
	IsFullscreen *bool
	DurationTime *float64 // 客户端观测到的时长，仅作兜底
	DeviceInfo   []byte
	ExtraData    []byte
	OccurredAt   time.Time
}

// NormalizedEvent 是校验并填充默认值之后的事件。
type NormalizedEvent struct {
	UserID         uuid.UUID
	MediaID        uuid.UUID
	Kind           po.EventType
	CurrentTime    float64
	PreviousTime   *float64
	ProgressHint   *float64
	PlaybackRate   float64
	Volume         float64
	IsFullscreen   bool
	ClientDuration *float64
	DeviceInfo     []byte
	ExtraData      []byte
	OccurredAt     time.Time
}

// Sample 返回用于 PlayRecord 状态迁移的快照。
func (e NormalizedEvent) Sample() po.PlaybackSample {
	return po.PlaybackSample{
		CurrentTime:  e.CurrentTime,
		PlaybackRate: e.PlaybackRate,
		Volume:       e.Volume,
		IsFullscreen: e.IsFullscreen,
		At:           e.OccurredAt,
	}
}

// NormalizeEvent 校验一次上报并应用默认值。默认值只在这里应用一次。
func NormalizeEvent(in PlaybackEventInput, now time.Time) (NormalizedEvent, error) {
	if in.UserID == uuid.Nil || in.MediaID == uuid.Nil {
		return NormalizedEvent{}, ErrInvalidEvent
	}
	kind, ok := po.ParseEventType(in.EventType)
	if !ok {
		return NormalizedEvent{}, ErrInvalidEventType.WithMetadata(map[string]string{"event_type": in.EventType})
	}
	if !validTime(in.CurrentTime) {
		return NormalizedEvent{}, ErrInvalidPlaybackTime
	}
	if in.PreviousTime != nil && !validTime(*in.PreviousTime) {
		return NormalizedEvent{}, ErrInvalidPlaybackTime
	}

	out := NormalizedEvent{
		UserID:       in.UserID,
		MediaID:      in.MediaID,
		Kind:         kind,
		CurrentTime:  in.CurrentTime,
		PreviousTime: copyFloat(in.PreviousTime),
		PlaybackRate: 1,
		Volume:       1,
		DeviceInfo:   opaqueJSON(in.DeviceInfo),
		ExtraData:    opaqueJSON(in.ExtraData),
		OccurredAt:   in.OccurredAt.UTC(),
	}
	if in.OccurredAt.IsZero() {
		out.OccurredAt = now.UTC()
	}
	if in.PlaybackRate != nil && !math.IsNaN(*in.PlaybackRate) && *in.PlaybackRate > 0 {
		out.PlaybackRate = clamp(*in.PlaybackRate, MinPlaybackRate, MaxPlaybackRate)
	}
	if in.Volume != nil && !math.IsNaN(*in.Volume) {
		out.Volume = clamp(*in.Volume, 0, 1)
	}
	if in.IsFullscreen != nil {
		out.IsFullscreen = *in.IsFullscreen
	}
	if in.Progress != nil && !math.IsNaN(*in.Progress) {
		hint := clamp(*in.Progress, 0, 1)
		out.ProgressHint = &hint
	}
	if in.DurationTime != nil && validTime(*in.DurationTime) && *in.DurationTime > 0 {
		d := *in.DurationTime
		out.ClientDuration = &d
	}
	return out, nil
}

func validTime(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	cp := *v
	return &cp
}

// opaqueJSON 原样保留合法 JSON，非法内容包装为 JSON 字符串。
func opaqueJSON(raw []byte) []byte {
	if len(raw) == 0 {
		return nil
	}
	if json.Valid(raw) {
		return raw
	}
	wrapped, err := json.Marshal(string(raw))
	if err != nil {
		return nil
	}
	return wrapped
}

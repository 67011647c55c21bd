package po

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// EventType 表示客户端上报的播放事件类型。
type EventType string

// 播放事件类型常量定义
const (
	EventPlay         EventType = "play"
	EventPause        EventType = "pause"
	EventSeek         EventType = "seek"
	EventHeartbeat    EventType = "heartbeat"
	EventEnded        EventType = "ended"
	EventResume       EventType = "resume"
	EventStop         EventType = "stop"
	EventRateChange   EventType = "rateChange"
	EventVolumeChange EventType = "volumeChange"
	EventFullscreen   EventType = "fullscreen"
)

var eventTypeAliases = map[string]EventType{
	"play":          EventPlay,
	"pause":         EventPause,
	"seek":          EventSeek,
	"heartbeat":     EventHeartbeat,
	"ended":         EventEnded,
	"resume":        EventResume,
	"stop":          EventStop,
	"ratechange":    EventRateChange,
	"rate_change":   EventRateChange,
	"volumechange":  EventVolumeChange,
	"volume_change": EventVolumeChange,
	"fullscreen":    EventFullscreen,
}

// ParseEventType 大小写不敏感地解析事件类型，兼容下划线写法。
func ParseEventType(raw string) (EventType, bool) {
	kind, ok := eventTypeAliases[strings.ToLower(strings.TrimSpace(raw))]
	return kind, ok
}

// AccruesWatchTime 报告该事件是否参与有效时长累计。
func (t EventType) AccruesWatchTime() bool {
	switch t {
	case EventPause, EventEnded, EventHeartbeat:
		return true
	default:
		return false
	}
}

// IsReference 报告该事件的位置能否作为下一段连续播放的起点。
// seek 的目标位置同样开启新的一段。
func (t EventType) IsReference() bool {
	switch t {
	case EventPlay, EventResume, EventHeartbeat, EventSeek:
		return true
	default:
		return false
	}
}

// IsSegmentBoundary 报告该事件是否开启或结束一段连续播放。
// rateChange/volumeChange/fullscreen 只改变播放器设置，不构成边界。
func (t EventType) IsSegmentBoundary() bool {
	switch t {
	case EventPause, EventEnded, EventStop:
		return true
	default:
		return t.IsReference()
	}
}

// SegmentBoundaryEventTypes 返回构成播放段边界的事件类型。
func SegmentBoundaryEventTypes() []string {
	return []string{
		string(EventPlay),
		string(EventResume),
		string(EventHeartbeat),
		string(EventSeek),
		string(EventPause),
		string(EventEnded),
		string(EventStop),
	}
}

// PlayEvent 表示 learning.play_events 表中的一条只追加事件。
type PlayEvent struct {
	EventID         uuid.UUID `db:"event_id"`
	RecordID        uuid.UUID `db:"record_id"`
	UserID          uuid.UUID `db:"user_id"`
	MediaID         uuid.UUID `db:"media_id"`
	EventType       EventType `db:"event_type"`
	CurrentTime     float64   `db:"position_seconds"`
	PreviousTime    *float64  `db:"previous_seconds"`
	PlaybackRate    float64   `db:"playback_rate"`
	Volume          float64   `db:"volume"`
	IsFullscreen    bool      `db:"is_fullscreen"`
	CreditedSeconds float64   `db:"credited_seconds"` // 本事件计入的有效时长
	DeviceInfo      []byte    `db:"device_info"`      // 原样透传的 JSON
	ExtraData       []byte    `db:"extra_data"`       // 原样透传的 JSON
	OccurredAt      time.Time `db:"occurred_at"`
}

// SameReplay 判断两个事件是否为同一次上报的重放（类型、位置、起点一致）。
// 只对累计时长的 pause/ended/heartbeat 生效；重复的 seek/play 等照常处理，
// 连续相同的异常拖动仍会计数。
func (e *PlayEvent) SameReplay(other *PlayEvent) bool {
	if e == nil || other == nil {
		return false
	}
	if !e.EventType.AccruesWatchTime() {
		return false
	}
	if e.EventType != other.EventType || e.CurrentTime != other.CurrentTime {
		return false
	}
	switch {
	case e.PreviousTime == nil && other.PreviousTime == nil:
		return true
	case e.PreviousTime != nil && other.PreviousTime != nil:
		return *e.PreviousTime == *other.PreviousTime
	default:
		return false
	}
}

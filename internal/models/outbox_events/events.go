// Package outboxevents 定义写入 outbox 的领域事件及其编码方式。
package outboxevents

import (
	"errors"
	"time"

	"github.com/bionicotaku/lingo-services-learning/internal/models/po"
	"github.com/google/uuid"
)

// Kind 标识领域事件类型。
type Kind int

// 领域事件类型常量。
const (
	// KindUnknown 表示未识别的事件类型。
	KindUnknown Kind = iota
	// KindMediaCompleted 表示某用户首次真实看完一个媒体。
	KindMediaCompleted
	// KindLessonCompleted 表示某用户首次完成一个课时。
	KindLessonCompleted
)

func (k Kind) String() string {
	switch k {
	case KindMediaCompleted:
		return "playback.media.completed"
	case KindLessonCompleted:
		return "learning.lesson.completed"
	default:
		return "learning.unknown"
	}
}

const (
	// AggregateTypePlayRecord 对应 play_records 聚合。
	AggregateTypePlayRecord = "play_record"
	// AggregateTypeLessonProgress 对应 lesson_progress 聚合。
	AggregateTypeLessonProgress = "lesson_progress"
	// SchemaVersionV1 描述事件载荷的当前 schema 版本。
	SchemaVersionV1 = "v1"
)

var (
	// ErrNilAggregate 在构建事件时聚合实体为空。
	ErrNilAggregate = errors.New("event builder: aggregate is nil")
	// ErrInvalidEventID 表示未提供合法的事件 ID。
	ErrInvalidEventID = errors.New("event builder: event id is required")
	// ErrNotCompleted 表示聚合尚未完成，不应产生完成事件。
	ErrNotCompleted = errors.New("event builder: aggregate is not completed")
)

// DomainEvent 表示领域层生成的标准事件。
type DomainEvent struct {
	EventID       uuid.UUID
	Kind          Kind
	AggregateID   uuid.UUID
	AggregateType string
	Version       int64
	OccurredAt    time.Time
	Payload       any
}

// MediaCompleted 描述媒体完成事件的业务载荷。
type MediaCompleted struct {
	RecordID          uuid.UUID
	UserID            uuid.UUID
	MediaID           uuid.UUID
	LessonID          *uuid.UUID
	CompletionRate    float64
	EffectiveRate     float64
	EffectiveDuration float64
	SeekCount         int32
	CompletedAt       time.Time
}

// LessonCompleted 描述课时完成事件的业务载荷。
type LessonCompleted struct {
	UserID         uuid.UUID
	LessonID       uuid.UUID
	CourseID       uuid.UUID
	Percentage     float64
	CompletedMedia int
	TotalMedia     int
	CompletedAt    time.Time
}

// NewMediaCompletedEvent 基于已完成的播放记录构建事件。
func NewMediaCompletedEvent(rec *po.PlayRecord, lessonID *uuid.UUID, duration float64, eventID uuid.UUID, occurredAt time.Time) (*DomainEvent, error) {
	if rec == nil {
		return nil, ErrNilAggregate
	}
	if eventID == uuid.Nil {
		return nil, ErrInvalidEventID
	}
	if !rec.Completed {
		return nil, ErrNotCompleted
	}
	occurredAt = resolveOccurredAt(occurredAt, rec.CompletedAt)

	effectiveRate := 0.0
	if duration > 0 {
		effectiveRate = rec.EffectiveDuration / duration
	}
	payload := &MediaCompleted{
		RecordID:          rec.RecordID,
		UserID:            rec.UserID,
		MediaID:           rec.MediaID,
		LessonID:          lessonID,
		CompletionRate:    rec.CompletionRate(duration),
		EffectiveRate:     effectiveRate,
		EffectiveDuration: rec.EffectiveDuration,
		SeekCount:         rec.SeekCount,
		CompletedAt:       occurredAt,
	}
	return &DomainEvent{
		EventID:       eventID,
		Kind:          KindMediaCompleted,
		AggregateID:   rec.RecordID,
		AggregateType: AggregateTypePlayRecord,
		Version:       VersionFromTime(occurredAt),
		OccurredAt:    occurredAt,
		Payload:       payload,
	}, nil
}

// NewLessonCompletedEvent 基于已完成的课时进度构建事件。
// lesson_progress 没有独立主键，聚合 ID 由 (user_id, lesson_id) 派生。
func NewLessonCompletedEvent(progress *po.LessonProgress, completedMedia, totalMedia int, eventID uuid.UUID, occurredAt time.Time) (*DomainEvent, error) {
	if progress == nil {
		return nil, ErrNilAggregate
	}
	if eventID == uuid.Nil {
		return nil, ErrInvalidEventID
	}
	if !progress.Completed {
		return nil, ErrNotCompleted
	}
	occurredAt = resolveOccurredAt(occurredAt, progress.CompletedAt)

	return &DomainEvent{
		EventID:       eventID,
		Kind:          KindLessonCompleted,
		AggregateID:   LessonProgressAggregateID(progress.UserID, progress.LessonID),
		AggregateType: AggregateTypeLessonProgress,
		Version:       VersionFromTime(occurredAt),
		OccurredAt:    occurredAt,
		Payload: &LessonCompleted{
			UserID:         progress.UserID,
			LessonID:       progress.LessonID,
			CourseID:       progress.CourseID,
			Percentage:     progress.Percentage,
			CompletedMedia: completedMedia,
			TotalMedia:     totalMedia,
			CompletedAt:    occurredAt,
		},
	}, nil
}

// LessonProgressAggregateID 为 (user_id, lesson_id) 生成稳定的 UUIDv5。
func LessonProgressAggregateID(userID, lessonID uuid.UUID) uuid.UUID {
	return uuid.NewSHA1(lessonID, userID[:])
}

// VersionFromTime 根据时间戳计算聚合版本号，采用 UTC 微秒时间。
func VersionFromTime(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UTC().UnixMicro()
}

func resolveOccurredAt(occurredAt time.Time, fallback *time.Time) time.Time {
	if occurredAt.IsZero() && fallback != nil {
		occurredAt = *fallback
	}
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}
	return occurredAt.UTC()
}

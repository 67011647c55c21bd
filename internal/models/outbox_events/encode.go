package outboxevents

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/trace"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// ToProto 将领域事件编码为 protobuf Struct 信封。
func ToProto(evt *DomainEvent) (*structpb.Struct, error) {
	if evt == nil {
		return nil, fmt.Errorf("events: nil domain event")
	}

	var payload map[string]any
	switch p := evt.Payload.(type) {
	case *MediaCompleted:
		payload = encodeMediaCompleted(p)
	case *LessonCompleted:
		payload = encodeLessonCompleted(p)
	default:
		return nil, fmt.Errorf("events: unsupported payload type %T", p)
	}

	envelope := map[string]any{
		"event_id":       evt.EventID.String(),
		"event_type":     evt.Kind.String(),
		"aggregate_id":   evt.AggregateID.String(),
		"aggregate_type": evt.AggregateType,
		"version":        strconv.FormatInt(evt.Version, 10),
		"occurred_at":    evt.OccurredAt.UTC().Format(time.RFC3339Nano),
		"payload":        payload,
	}
	pb, err := structpb.NewStruct(envelope)
	if err != nil {
		return nil, fmt.Errorf("events: build struct: %w", err)
	}
	return pb, nil
}

// Marshal 返回事件的 protobuf 二进制编码，供 outbox.payload 使用。
func Marshal(evt *DomainEvent) ([]byte, error) {
	pb, err := ToProto(evt)
	if err != nil {
		return nil, err
	}
	data, err := proto.Marshal(pb)
	if err != nil {
		return nil, fmt.Errorf("events: marshal: %w", err)
	}
	return data, nil
}

// Unmarshal 解码 Marshal 产生的二进制信封。
func Unmarshal(data []byte) (*structpb.Struct, error) {
	var pb structpb.Struct
	if err := proto.Unmarshal(data, &pb); err != nil {
		return nil, fmt.Errorf("events: unmarshal: %w", err)
	}
	return &pb, nil
}

func encodeMediaCompleted(p *MediaCompleted) map[string]any {
	out := map[string]any{
		"record_id":          p.RecordID.String(),
		"user_id":            p.UserID.String(),
		"media_id":           p.MediaID.String(),
		"completion_rate":    p.CompletionRate,
		"effective_rate":     p.EffectiveRate,
		"effective_duration": p.EffectiveDuration,
		"seek_count":         int64(p.SeekCount),
		"completed_at":       p.CompletedAt.UTC().Format(time.RFC3339Nano),
	}
	if p.LessonID != nil {
		out["lesson_id"] = p.LessonID.String()
	}
	return out
}

func encodeLessonCompleted(p *LessonCompleted) map[string]any {
	return map[string]any{
		"user_id":         p.UserID.String(),
		"lesson_id":       p.LessonID.String(),
		"course_id":       p.CourseID.String(),
		"percentage":      p.Percentage,
		"completed_media": int64(p.CompletedMedia),
		"total_media":     int64(p.TotalMedia),
		"completed_at":    p.CompletedAt.UTC().Format(time.RFC3339Nano),
	}
}

// BuildAttributes 构造符合 Pub/Sub 约定的 message attributes。
func BuildAttributes(evt *DomainEvent, schemaVersion string, traceID string) map[string]string {
	if schemaVersion == "" {
		schemaVersion = SchemaVersionV1
	}
	attrs := map[string]string{
		"event_id":       evt.EventID.String(),
		"event_type":     evt.Kind.String(),
		"aggregate_id":   evt.AggregateID.String(),
		"aggregate_type": evt.AggregateType,
		"version":        strconv.FormatInt(evt.Version, 10),
		"occurred_at":    evt.OccurredAt.UTC().Format(time.RFC3339),
		"schema_version": schemaVersion,
	}
	if traceID != "" {
		attrs["trace_id"] = traceID
	}
	return attrs
}

// TraceIDFromContext 提取 OTel Trace ID，若不存在返回空字符串。
func TraceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	spanCtx := trace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() || !spanCtx.HasTraceID() {
		return ""
	}
	return spanCtx.TraceID().String()
}

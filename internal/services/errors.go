package services

import "github.com/go-kratos/kratos/v2/errors"

// 错误原因码，controller 与客户端据此区分错误类型。
const (
	ReasonEventTypeInvalid    = "PLAYBACK_EVENT_TYPE_INVALID"
	ReasonPlaybackTimeInvalid = "PLAYBACK_TIME_INVALID"
	ReasonEventInvalid        = "PLAYBACK_EVENT_INVALID"
	ReasonRecordNotFound      = "PLAYBACK_RECORD_NOT_FOUND"
	ReasonDurationUnknown     = "PLAYBACK_DURATION_UNKNOWN"
	ReasonIdentityMismatch    = "PLAYBACK_IDENTITY_MISMATCH"
	ReasonReportFailed        = "PLAYBACK_REPORT_FAILED"
	ReasonLessonNotFound      = "LESSON_NOT_FOUND"
	ReasonQueryFailed         = "LEARNING_QUERY_FAILED"
	ReasonQueryTimeout        = "LEARNING_QUERY_TIMEOUT"
)

var (
	// ErrInvalidEventType 表示事件类型无法识别，事件在任何写入之前被拒绝。
	ErrInvalidEventType = errors.BadRequest(ReasonEventTypeInvalid, "unsupported playback event type")
	// ErrInvalidPlaybackTime 表示 currentTime/previousTime 为负数或非有限值。
	ErrInvalidPlaybackTime = errors.BadRequest(ReasonPlaybackTimeInvalid, "playback time must be a finite non-negative number")
	// ErrInvalidEvent 表示缺少用户或媒体标识。
	ErrInvalidEvent = errors.BadRequest(ReasonEventInvalid, "user id and media id are required")
	// ErrRecordNotFound 表示媒体在目录中不存在，或查询的播放记录不存在。
	ErrRecordNotFound = errors.NotFound(ReasonRecordNotFound, "play record not found")
	// ErrLessonNotFound 表示课时不存在。
	ErrLessonNotFound = errors.NotFound(ReasonLessonNotFound, "lesson not found")
	// ErrIdentityMismatch 表示调用方身份与事件中的用户不一致。
	ErrIdentityMismatch = errors.Forbidden(ReasonIdentityMismatch, "caller does not own this playback record")
	// ErrUnknownDuration 表示缺少权威时长，无法判定完成；仅以告警形式返回给调用方。
	ErrUnknownDuration = errors.New(422, ReasonDurationUnknown, "declared duration unknown")
)

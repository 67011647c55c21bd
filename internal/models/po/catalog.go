package po

import "github.com/google/uuid"

// MediaType 表示媒体类型。
type MediaType string

// 媒体类型常量定义
const (
	MediaTypeVideo    MediaType = "video"
	MediaTypeAudio    MediaType = "audio"
	MediaTypeDocument MediaType = "document"
	MediaTypeImage    MediaType = "image"
)

// Playable 报告该类型是否参与播放进度统计。
func (t MediaType) Playable() bool {
	return t == MediaTypeVideo || t == MediaTypeAudio
}

// Media 是 catalog 维护的媒体只读视图。
type Media struct {
	MediaID         uuid.UUID  `db:"media_id"`
	LessonID        *uuid.UUID `db:"lesson_id"`
	MediaType       MediaType  `db:"media_type"`
	DurationSeconds *float64   `db:"duration_seconds"` // 声明时长，可能缺失
}

// DeclaredDuration 返回声明时长，缺失或非正时返回 false。
func (m *Media) DeclaredDuration() (float64, bool) {
	if m == nil || m.DurationSeconds == nil || *m.DurationSeconds <= 0 {
		return 0, false
	}
	return *m.DurationSeconds, true
}

// Lesson 是 catalog 维护的课时只读视图。
type Lesson struct {
	LessonID  uuid.UUID `db:"lesson_id"`
	CourseID  uuid.UUID `db:"course_id"`
	Title     string    `db:"title"`
	SortOrder int32     `db:"sort_order"`
	IsActive  bool      `db:"is_active"`
}

// LessonMediaProgress 是课时下单个可播放媒体及当前用户的播放汇总。
// 用户尚未播放时 EffectiveSeconds 为 0，Completed 为 false。
type LessonMediaProgress struct {
	LessonID         uuid.UUID
	MediaID          uuid.UUID
	MediaType        MediaType
	DurationSeconds  *float64
	EffectiveSeconds float64
	Completed        bool
	HasRecord        bool
}

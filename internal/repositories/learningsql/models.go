package learningsql

import (
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// LearningPlayRecord 对应 learning.play_records 一行。
type LearningPlayRecord struct {
	RecordID           uuid.UUID
	UserID             uuid.UUID
	MediaID            uuid.UUID
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
	FirstPlayedAt      pgtype.Timestamptz
	LastPlayedAt       pgtype.Timestamptz
	CompletedAt        pgtype.Timestamptz
	CreatedAt          pgtype.Timestamptz
	UpdatedAt          pgtype.Timestamptz
}

// LearningPlayEvent 对应 learning.play_events 一行。
type LearningPlayEvent struct {
	EventID         uuid.UUID
	RecordID        uuid.UUID
	UserID          uuid.UUID
	MediaID         uuid.UUID
	EventType       string
	PositionSeconds float64
	PreviousSeconds pgtype.Float8
	PlaybackRate    float64
	Volume          float64
	IsFullscreen    bool
	CreditedSeconds float64
	DeviceInfo      []byte
	ExtraData       []byte
	OccurredAt      pgtype.Timestamptz
}

// LearningLessonProgress 对应 learning.lesson_progress 一行。
type LearningLessonProgress struct {
	UserID        uuid.UUID
	LessonID      uuid.UUID
	CourseID      uuid.UUID
	WatchSeconds  float64
	TotalSeconds  float64
	Percentage    float64
	Completed     bool
	StartedAt     pgtype.Timestamptz
	LastWatchedAt pgtype.Timestamptz
	CompletedAt   pgtype.Timestamptz
	UpdatedAt     pgtype.Timestamptz
}

// LearningMedium 对应 learning.media 一行。
type LearningMedium struct {
	MediaID         uuid.UUID
	LessonID        pgtype.UUID
	MediaType       string
	DurationSeconds pgtype.Float8
}

// LearningLesson 对应 learning.lessons 一行。
type LearningLesson struct {
	LessonID  uuid.UUID
	CourseID  uuid.UUID
	Title     string
	SortOrder int32
	IsActive  bool
}

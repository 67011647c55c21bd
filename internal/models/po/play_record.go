// Package po 定义面向持久化的数据对象（Persistent Objects），由 Repository 层使用。
// PO 对象映射数据库表结构，状态迁移通过显式的类型化方法完成。
package po

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrUnsupportedEventType 表示 PlayRecord 不接受的事件类型。
var ErrUnsupportedEventType = errors.New("po: unsupported play event type")

// PlayRecord 表示 learning.play_records 表的数据库实体。
// 每个 (UserID, MediaID) 仅有一条记录，聚合该用户对该媒体的全部播放行为。
type PlayRecord struct {
	RecordID uuid.UUID `db:"record_id"` // 主键
	UserID   uuid.UUID `db:"user_id"`   // 用户 ID
	MediaID  uuid.UUID `db:"media_id"`  // 媒体 ID

	// ============================================
	// 播放位置与进度
	// ============================================
	CurrentTime       float64 `db:"position_seconds"`     // 最近上报的播放位置（秒）
	MaxPlayedTime     float64 `db:"max_position_seconds"` // 曾到达的最大位置，只增不减
	Progress          float64 `db:"progress"`             // min(CurrentTime/时长, 1)
	EffectiveDuration float64 `db:"effective_seconds"`    // 有效观看时长（已按倍速折算）
	TotalPlayTime     float64 `db:"total_play_seconds"`   // 累计播放时长（含重复观看）

	// ============================================
	// 播放状态
	// ============================================
	IsPlaying bool `db:"is_playing"`
	IsPaused  bool `db:"is_paused"`
	IsEnded   bool `db:"is_ended"`
	Completed bool `db:"completed"` // 一旦为 true 不再回退

	// ============================================
	// 行为计数
	// ============================================
	PlayCount          int32 `db:"play_count"`
	PauseCount         int32 `db:"pause_count"`
	SeekCount          int32 `db:"seek_count"`
	AbnormalSeekCount  int32 `db:"abnormal_seek_count"`
	IsAbnormalBehavior bool  `db:"is_abnormal"` // 异常拖动达到上限后永久置位

	// ============================================
	// 播放器设置
	// ============================================
	PlaybackRate float64 `db:"playback_rate"`
	Volume       float64 `db:"volume"`
	IsFullscreen bool    `db:"is_fullscreen"`

	FirstPlayedAt time.Time  `db:"first_played_at"`
	LastPlayedAt  time.Time  `db:"last_played_at"`
	CompletedAt   *time.Time `db:"completed_at"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
}

// PlaybackSample 是单个规范化事件携带的播放器状态快照。
type PlaybackSample struct {
	CurrentTime  float64
	PlaybackRate float64
	Volume       float64
	IsFullscreen bool
	At           time.Time
}

// NewPlayRecord 构造首次播放时的空记录。
func NewPlayRecord(userID, mediaID uuid.UUID, now time.Time) *PlayRecord {
	now = now.UTC()
	return &PlayRecord{
		RecordID:      uuid.New(),
		UserID:        userID,
		MediaID:       mediaID,
		PlaybackRate:  1,
		Volume:        1,
		FirstPlayedAt: now,
		LastPlayedAt:  now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Apply 按事件类型分派到对应的状态迁移方法。
func (r *PlayRecord) Apply(kind EventType, s PlaybackSample) error {
	switch kind {
	case EventPlay, EventResume:
		r.ApplyPlay(s)
	case EventPause:
		r.ApplyPause(s)
	case EventSeek:
		r.ApplySeek(s)
	case EventEnded, EventStop:
		r.ApplyEnded(s)
	case EventHeartbeat, EventRateChange, EventVolumeChange, EventFullscreen:
		r.ApplyMetadata(s)
	default:
		return ErrUnsupportedEventType
	}
	return nil
}

// ApplyPlay 处理 play/resume：进入播放态并重新打开已结束的记录。
func (r *PlayRecord) ApplyPlay(s PlaybackSample) {
	r.touch(s)
	r.IsPlaying = true
	r.IsPaused = false
	r.IsEnded = false
	r.PlayCount++
}

// ApplyPause 处理 pause。
func (r *PlayRecord) ApplyPause(s PlaybackSample) {
	r.touch(s)
	r.IsPlaying = false
	r.IsPaused = true
	r.PauseCount++
}

// ApplySeek 处理 seek，仅累加拖动次数；异常判定由 RecordAbnormalSeek 完成。
func (r *PlayRecord) ApplySeek(s PlaybackSample) {
	r.touch(s)
	r.SeekCount++
}

// ApplyEnded 处理 ended/stop。
func (r *PlayRecord) ApplyEnded(s PlaybackSample) {
	r.touch(s)
	r.IsPlaying = false
	r.IsEnded = true
}

// ApplyMetadata 处理 heartbeat/rateChange/volumeChange/fullscreen，只更新播放器状态。
func (r *PlayRecord) ApplyMetadata(s PlaybackSample) {
	r.touch(s)
}

func (r *PlayRecord) touch(s PlaybackSample) {
	r.CurrentTime = s.CurrentTime
	if s.CurrentTime > r.MaxPlayedTime {
		r.MaxPlayedTime = s.CurrentTime
	}
	if s.PlaybackRate > 0 {
		r.PlaybackRate = s.PlaybackRate
	}
	r.Volume = s.Volume
	r.IsFullscreen = s.IsFullscreen
	if !s.At.IsZero() {
		r.LastPlayedAt = s.At.UTC()
	}
}

// RecomputeProgress 根据声明时长重新计算进度，duration<=0 时保持原值。
func (r *PlayRecord) RecomputeProgress(duration float64) {
	if duration <= 0 {
		return
	}
	progress := r.CurrentTime / duration
	if progress > 1 {
		progress = 1
	}
	if progress < 0 {
		progress = 0
	}
	r.Progress = progress
}

// CreditWatchTime 累加一段连续播放。effective 不会超过 delta，保证有效时长不大于总播放时长。
func (r *PlayRecord) CreditWatchTime(delta, effective float64) float64 {
	if delta <= 0 || effective <= 0 {
		return 0
	}
	if effective > delta {
		effective = delta
	}
	r.EffectiveDuration += effective
	r.TotalPlayTime += delta
	return effective
}

// RecordAbnormalSeek 记录一次异常拖动，达到 limit 后永久标记异常行为。
func (r *PlayRecord) RecordAbnormalSeek(limit int32) {
	r.AbnormalSeekCount++
	if limit > 0 && r.AbnormalSeekCount >= limit {
		r.IsAbnormalBehavior = true
	}
}

// MarkCompleted 标记完成，返回是否发生 false→true 的迁移。
func (r *PlayRecord) MarkCompleted(at time.Time) bool {
	if r.Completed {
		return false
	}
	r.Completed = true
	completedAt := at.UTC()
	r.CompletedAt = &completedAt
	return true
}

// CompletionRate 返回 min(MaxPlayedTime/duration, 1)。
func (r *PlayRecord) CompletionRate(duration float64) float64 {
	if duration <= 0 {
		return 0
	}
	rate := r.MaxPlayedTime / duration
	if rate > 1 {
		return 1
	}
	return rate
}

// Clone 返回记录的深拷贝，供调用方安全持有快照。
func (r *PlayRecord) Clone() *PlayRecord {
	if r == nil {
		return nil
	}
	cp := *r
	if r.CompletedAt != nil {
		at := *r.CompletedAt
		cp.CompletedAt = &at
	}
	return &cp
}

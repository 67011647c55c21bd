// Package dto 提供控制器层的请求解析与响应构造工具。
package dto

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/bionicotaku/lingo-services-learning/internal/models/vo"
	"github.com/bionicotaku/lingo-services-learning/internal/services"

	"github.com/google/uuid"
)

// ReportPlaybackEventRequest 是 POST /v1/playback/events 的请求体。
type ReportPlaybackEventRequest struct {
	UserID       string          `json:"userId" validate:"required,uuid"`
	MediaID      string          `json:"mediaId" validate:"required,uuid"`
	EventType    string          `json:"eventType"`
	CurrentTime  *float64        `json:"currentTime" validate:"required"`
	PreviousTime *float64        `json:"previousTime,omitempty"`
	Progress     *float64        `json:"progress,omitempty"`
	PlaybackRate *float64        `json:"playbackRate,omitempty"`
	Volume       *float64        `json:"volume,omitempty"`
	IsFullscreen *bool           `json:"isFullscreen,omitempty"`
	DurationTime *float64        `json:"durationTime,omitempty"`
	DeviceInfo   json.RawMessage `json:"deviceInfo,omitempty"`
	ExtraData    json.RawMessage `json:"extraData,omitempty"`
}

// ToPlaybackEventInput 将请求映射为服务层输入。数值区间与事件类型由服务层校验。
func ToPlaybackEventInput(req *ReportPlaybackEventRequest, occurredAt time.Time) (services.PlaybackEventInput, error) {
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return services.PlaybackEventInput{}, fmt.Errorf("invalid userId: %w", err)
	}
	mediaID, err := uuid.Parse(req.MediaID)
	if err != nil {
		return services.PlaybackEventInput{}, fmt.Errorf("invalid mediaId: %w", err)
	}
	if req.CurrentTime == nil {
		return services.PlaybackEventInput{}, fmt.Errorf("currentTime is required")
	}
	return services.PlaybackEventInput{
		UserID:       userID,
		MediaID:      mediaID,
		EventType:    req.EventType,
		CurrentTime:  *req.CurrentTime,
		PreviousTime: req.PreviousTime,
		Progress:     req.Progress,
		PlaybackRate: req.PlaybackRate,
		Volume:       req.Volume,
		IsFullscreen: req.IsFullscreen,
		DurationTime: req.DurationTime,
		DeviceInfo:   []byte(req.DeviceInfo),
		ExtraData:    []byte(req.ExtraData),
		OccurredAt:   occurredAt,
	}, nil
}

// PlaybackReportResponse 是事件上报的响应体。
type PlaybackReportResponse struct {
	RecordID          string   `json:"recordId"`
	EventID           string   `json:"eventId"`
	CurrentTime       float64  `json:"currentTime"`
	Progress          float64  `json:"progress"`
	CompletionRate    float64  `json:"completionRate"`
	EffectiveDuration float64  `json:"effectiveDuration"`
	Completed         bool     `json:"completed"`
	Warnings          []string `json:"warnings"`
}

// NewPlaybackReportResponse 将上报结果转换为响应体，warnings 始终输出数组。
func NewPlaybackReportResponse(report *vo.PlaybackReport) *PlaybackReportResponse {
	if report == nil {
		return &PlaybackReportResponse{Warnings: []string{}}
	}
	warnings := make([]string, len(report.Warnings))
	copy(warnings, report.Warnings)
	return &PlaybackReportResponse{
		RecordID:          report.RecordID.String(),
		EventID:           report.EventID.String(),
		CurrentTime:       report.CurrentTime,
		Progress:          report.Progress,
		CompletionRate:    report.CompletionRate,
		EffectiveDuration: report.EffectiveDuration,
		Completed:         report.Completed,
		Warnings:          warnings,
	}
}

// PlayRecordRequest 定位某用户对某媒体的播放记录。
type PlayRecordRequest struct {
	UserID  string `json:"userId" validate:"required,uuid"`
	MediaID string `json:"mediaId" validate:"required,uuid"`
}

// PlayRecordResponse 是播放记录查询的响应体。
type PlayRecordResponse struct {
	RecordID           string  `json:"recordId"`
	UserID             string  `json:"userId"`
	MediaID            string  `json:"mediaId"`
	CurrentTime        float64 `json:"currentTime"`
	MaxPlayedTime      float64 `json:"maxPlayedTime"`
	Progress           float64 `json:"progress"`
	EffectiveDuration  float64 `json:"effectiveDuration"`
	TotalPlayTime      float64 `json:"totalPlayTime"`
	IsPlaying          bool    `json:"isPlaying"`
	IsPaused           bool    `json:"isPaused"`
	IsEnded            bool    `json:"isEnded"`
	Completed          bool    `json:"completed"`
	PlayCount          int32   `json:"playCount"`
	PauseCount         int32   `json:"pauseCount"`
	SeekCount          int32   `json:"seekCount"`
	AbnormalSeekCount  int32   `json:"abnormalSeekCount"`
	IsAbnormalBehavior bool    `json:"isAbnormalBehavior"`
	PlaybackRate       float64 `json:"playbackRate"`
	Volume             float64 `json:"volume"`
	IsFullscreen       bool    `json:"isFullscreen"`
	FirstPlayedAt      string  `json:"firstPlayedAt"`
	LastPlayedAt       string  `json:"lastPlayedAt"`
	CompletedAt        *string `json:"completedAt,omitempty"`
}

// NewPlayRecordResponse 将播放记录视图转换为响应体。
func NewPlayRecordResponse(rec *vo.PlayRecord) *PlayRecordResponse {
	if rec == nil {
		return nil
	}
	resp := &PlayRecordResponse{
		RecordID:           rec.RecordID.String(),
		UserID:             rec.UserID.String(),
		MediaID:            rec.MediaID.String(),
		CurrentTime:        rec.CurrentTime,
		MaxPlayedTime:      rec.MaxPlayedTime,
		Progress:           rec.Progress,
		EffectiveDuration:  rec.EffectiveDuration,
		TotalPlayTime:      rec.TotalPlayTime,
		IsPlaying:          rec.IsPlaying,
		IsPaused:           rec.IsPaused,
		IsEnded:            rec.IsEnded,
		Completed:          rec.Completed,
		PlayCount:          rec.PlayCount,
		PauseCount:         rec.PauseCount,
		SeekCount:          rec.SeekCount,
		AbnormalSeekCount:  rec.AbnormalSeekCount,
		IsAbnormalBehavior: rec.IsAbnormalBehavior,
		PlaybackRate:       rec.PlaybackRate,
		Volume:             rec.Volume,
		IsFullscreen:       rec.IsFullscreen,
		FirstPlayedAt:      formatTime(rec.FirstPlayedAt),
		LastPlayedAt:       formatTime(rec.LastPlayedAt),
	}
	if rec.CompletedAt != nil {
		value := formatTime(*rec.CompletedAt)
		resp.CompletedAt = &value
	}
	return resp
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

package controllers

import (
	"context"
	"time"

	"github.com/bionicotaku/lingo-services-learning/internal/controllers/dto"
	"github.com/bionicotaku/lingo-services-learning/internal/models/vo"
	"github.com/bionicotaku/lingo-services-learning/internal/services"
	"github.com/bionicotaku/lingo-services-learning/internal/validation"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/google/uuid"
)

// PlaybackService 是播放事件上报与记录查询的用例接口。
type PlaybackService interface {
	ReportEvent(ctx context.Context, in services.PlaybackEventInput) (*vo.PlaybackReport, error)
	GetPlayRecord(ctx context.Context, userID, mediaID uuid.UUID) (*vo.PlayRecord, error)
}

// PlaybackHandler 处理播放事件上报与播放记录查询。
type PlaybackHandler struct {
	*BaseHandler
	svc PlaybackService
	now func() time.Time
}

// NewPlaybackHandler 构造播放 Handler。
func NewPlaybackHandler(svc PlaybackService, base *BaseHandler) *PlaybackHandler {
	if base == nil {
		base = NewBaseHandler(HandlerTimeouts{})
	}
	return &PlaybackHandler{BaseHandler: base, svc: svc, now: time.Now}
}

// ReportEvent 处理 POST /v1/playback/events。
func (h *PlaybackHandler) ReportEvent(ctx context.Context, req *dto.ReportPlaybackEventRequest) (*dto.PlaybackReportResponse, error) {
	if err := validation.Request(req); err != nil {
		return nil, err
	}
	input, err := dto.ToPlaybackEventInput(req, h.now().UTC())
	if err != nil {
		return nil, errors.BadRequest(services.ReasonEventInvalid, err.Error())
	}

	ctx, cancel := h.begin(ctx, HandlerTypeCommand)
	defer cancel()

	report, err := h.svc.ReportEvent(ctx, input)
	if err != nil {
		return nil, err
	}
	return dto.NewPlaybackReportResponse(report), nil
}

// GetPlayRecord 处理 GET /v1/users/{userId}/media/{mediaId}/play-record。
func (h *PlaybackHandler) GetPlayRecord(ctx context.Context, req *dto.PlayRecordRequest) (*dto.PlayRecordResponse, error) {
	ids, err := parseRequest(req, "userId", req.UserID, "mediaId", req.MediaID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := h.begin(ctx, HandlerTypeQuery)
	defer cancel()
	if err := authorize(ctx, ids[0]); err != nil {
		return nil, err
	}

	rec, err := h.svc.GetPlayRecord(ctx, ids[0], ids[1])
	if err != nil {
		return nil, err
	}
	return dto.NewPlayRecordResponse(rec), nil
}

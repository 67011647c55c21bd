package controllers

import (
	"context"
	"strings"
	"time"

	"github.com/bionicotaku/lingo-services-learning/internal/metadata"
	"github.com/bionicotaku/lingo-services-learning/internal/services"

	"github.com/go-kratos/kratos/v2/transport"
	"github.com/google/uuid"
)

// HandlerType 表示 Handler 的语义类别，用于选择超时策略。
type HandlerType int

const (
	// HandlerTypeDefault 表示未显式区分的 Handler。
	HandlerTypeDefault HandlerType = iota
	// HandlerTypeCommand 表示写入型 Handler（事件上报）。
	HandlerTypeCommand
	// HandlerTypeQuery 表示只读查询 Handler。
	HandlerTypeQuery
)

// HandlerTimeouts 聚合不同类型 Handler 的超时策略。
type HandlerTimeouts struct {
	Default time.Duration
	Command time.Duration
	Query   time.Duration
}

const (
	fallbackDefaultTimeout = 5 * time.Second
	fallbackQueryTimeout   = 3 * time.Second
	headerUserID           = "x-md-global-user-id"
	headerIdempotencyKey   = "x-md-idempotency-key"
	headerRequestID        = "x-request-id"
	headerClientPlatform   = "x-md-client-platform"
)

// BaseHandler 提供公共的超时、Metadata 解析能力，供具体 Handler 内嵌复用。
type BaseHandler struct {
	timeouts HandlerTimeouts
}

// NewBaseHandler 构造基础 Handler，并为缺省值填充回退策略。
func NewBaseHandler(timeouts HandlerTimeouts) *BaseHandler {
	if timeouts.Default <= 0 {
		switch {
		case timeouts.Command > 0:
			timeouts.Default = timeouts.Command
		case timeouts.Query > 0:
			timeouts.Default = timeouts.Query
		default:
			timeouts.Default = fallbackDefaultTimeout
		}
	}
	if timeouts.Command <= 0 {
		timeouts.Command = timeouts.Default
	}
	if timeouts.Query <= 0 {
		timeouts.Query = min(timeouts.Default, fallbackQueryTimeout)
	}
	return &BaseHandler{timeouts: timeouts}
}

// WithTimeout 根据 Handler 类型包装上下文，返回绑定超时的新 Context 与取消函数。
func (h *BaseHandler) WithTimeout(ctx context.Context, kind HandlerType) (context.Context, context.CancelFunc) {
	if h == nil {
		return context.WithTimeout(ctx, fallbackDefaultTimeout)
	}
	var timeout time.Duration
	switch kind {
	case HandlerTypeCommand:
		timeout = h.timeouts.Command
	case HandlerTypeQuery:
		timeout = h.timeouts.Query
	default:
		timeout = h.timeouts.Default
	}
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

// ExtractMetadata 从 kratos transport 请求头解析调用方信息。
func (h *BaseHandler) ExtractMetadata(ctx context.Context) metadata.HandlerMetadata {
	tr, ok := transport.FromServerContext(ctx)
	if !ok {
		return metadata.HandlerMetadata{}
	}
	header := tr.RequestHeader()
	return metadata.HandlerMetadata{
		UserID:         firstHeader(header, headerUserID),
		RequestID:      firstHeader(header, headerRequestID),
		IdempotencyKey: firstHeader(header, headerIdempotencyKey),
		ClientPlatform: firstHeader(header, headerClientPlatform),
	}
}

// begin 解析 Metadata、注入 Context 并套上超时。
func (h *BaseHandler) begin(ctx context.Context, kind HandlerType) (context.Context, context.CancelFunc) {
	meta := h.ExtractMetadata(ctx)
	timeoutCtx, cancel := h.WithTimeout(ctx, kind)
	return metadata.Inject(timeoutCtx, meta), cancel
}

// authorize 校验调用方与路径中的 userId 一致。
func authorize(ctx context.Context, userID uuid.UUID) error {
	if !metadata.Permits(ctx, userID) {
		return services.ErrIdentityMismatch
	}
	return nil
}

func firstHeader(header transport.Header, key string) string {
	if header == nil {
		return ""
	}
	return strings.TrimSpace(header.Get(key))
}

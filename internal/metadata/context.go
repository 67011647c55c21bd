// Package metadata 保存从网关透传的调用方信息，供控制器与服务层共享。
package metadata

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// HandlerMetadata 描述从请求头解析出的调用方上下文。
type HandlerMetadata struct {
	UserID         string
	RequestID      string
	IdempotencyKey string
	ClientPlatform string
}

// IsZero 判断 Metadata 是否为空。
func (m HandlerMetadata) IsZero() bool {
	return m.UserID == "" &&
		m.RequestID == "" &&
		m.IdempotencyKey == "" &&
		m.ClientPlatform == ""
}

// UserUUID 尝试解析 user_id 为 UUID。
func (m HandlerMetadata) UserUUID() (uuid.UUID, bool) {
	if strings.TrimSpace(m.UserID) == "" {
		return uuid.Nil, false
	}
	value, err := uuid.Parse(strings.TrimSpace(m.UserID))
	if err != nil {
		return uuid.Nil, false
	}
	return value, true
}

// Permits 报告调用方能否访问 userID 的学习数据。
// 未携带身份或身份无法解析时放行，由网关负责鉴权。
func (m HandlerMetadata) Permits(userID uuid.UUID) bool {
	caller, ok := m.UserUUID()
	if !ok {
		return true
	}
	return caller == userID
}

type ctxKey struct{}

// Inject 将 HandlerMetadata 注入 Context。
func Inject(ctx context.Context, meta HandlerMetadata) context.Context {
	if meta.IsZero() {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, meta)
}

// FromContext 读取上游注入的 HandlerMetadata。
func FromContext(ctx context.Context) (HandlerMetadata, bool) {
	if ctx == nil {
		return HandlerMetadata{}, false
	}
	meta, ok := ctx.Value(ctxKey{}).(HandlerMetadata)
	return meta, ok
}

// Permits 在 ctx 未携带调用方信息时放行。
func Permits(ctx context.Context, userID uuid.UUID) bool {
	meta, ok := FromContext(ctx)
	if !ok {
		return true
	}
	return meta.Permits(userID)
}

package controllers_test

import (
	"context"
	"testing"
	"time"

	"github.com/bionicotaku/lingo-services-learning/internal/controllers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseHandlerExtractMetadata(t *testing.T) {
	ctx := serverContext(
		"x-md-global-user-id", " user-123 ",
		"x-md-idempotency-key", "req-456",
		"x-request-id", "trace-1",
		"x-md-client-platform", "ios",
	)

	handler := controllers.NewBaseHandler(controllers.HandlerTimeouts{})
	meta := handler.ExtractMetadata(ctx)

	assert.Equal(t, "user-123", meta.UserID)
	assert.Equal(t, "req-456", meta.IdempotencyKey)
	assert.Equal(t, "trace-1", meta.RequestID)
	assert.Equal(t, "ios", meta.ClientPlatform)

	assert.True(t, handler.ExtractMetadata(context.Background()).IsZero())
}

func TestBaseHandlerWithTimeout(t *testing.T) {
	handler := controllers.NewBaseHandler(controllers.HandlerTimeouts{Command: 200 * time.Millisecond})
	ctx, cancel := handler.WithTimeout(context.Background(), controllers.HandlerTypeCommand)
	defer cancel()

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	remaining := time.Until(deadline)
	assert.True(t, remaining > 150*time.Millisecond && remaining <= 200*time.Millisecond, "remaining=%v", remaining)

	queryCtx, cancelQuery := handler.WithTimeout(context.Background(), controllers.HandlerTypeQuery)
	defer cancelQuery()
	deadline, ok = queryCtx.Deadline()
	require.True(t, ok)
	assert.LessOrEqual(t, time.Until(deadline), 200*time.Millisecond)
}

func TestBaseHandlerFallbacks(t *testing.T) {
	var nilHandler *controllers.BaseHandler
	ctx, cancel := nilHandler.WithTimeout(context.Background(), controllers.HandlerTypeDefault)
	defer cancel()
	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.InDelta(t, float64(5*time.Second), float64(time.Until(deadline)), float64(time.Second))

	handler := controllers.NewBaseHandler(controllers.HandlerTimeouts{})
	queryCtx, cancelQuery := handler.WithTimeout(context.Background(), controllers.HandlerTypeQuery)
	defer cancelQuery()
	deadline, ok = queryCtx.Deadline()
	require.True(t, ok)
	assert.InDelta(t, float64(3*time.Second), float64(time.Until(deadline)), float64(time.Second))
}

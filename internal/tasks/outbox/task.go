// Package outbox 在 kratos 生命周期内托管共享 Outbox 发布器，将 outbox_events 转发至 Pub/Sub。
package outbox

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport"
)

// Runnable 阻塞运行直至 ctx 取消。outboxpublisher.Runner 满足该接口。
type Runnable interface {
	Run(ctx context.Context) error
}

// Task 将 Runnable 适配为 kratos transport.Server，随 App 启停。
type Task struct {
	runner Runnable
	log    *log.Helper

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

var _ transport.Server = (*Task)(nil)

// NewTask 构造发布任务。
func NewTask(runner Runnable, logger log.Logger) *Task {
	return &Task{
		runner: runner,
		log:    log.NewHelper(logger),
	}
}

// Start 阻塞运行发布循环，直到 ctx 取消或调用 Stop。取消视为正常退出。
func (t *Task) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.done != nil {
		t.mu.Unlock()
		return errors.New("outbox: task already started")
	}
	runCtx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.done = make(chan struct{})
	done := t.done
	t.mu.Unlock()
	defer close(done)

	t.log.Info("outbox publisher started")
	err := t.runner.Run(runCtx)
	if err == nil || errors.Is(err, context.Canceled) {
		t.log.Info("outbox publisher stopped")
		return nil
	}
	t.log.Errorw("msg", "outbox publisher exited", "error", err)
	return fmt.Errorf("outbox: run publisher: %w", err)
}

// Stop 取消发布循环并等待其退出。
func (t *Task) Stop(ctx context.Context) error {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

package outbox_test

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bionicotaku/lingo-services-learning/internal/tasks/outbox"

	"github.com/bionicotaku/lingo-utils/gcpubsub"
	outboxcfg "github.com/bionicotaku/lingo-utils/outbox/config"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockingRunner 阻塞到 ctx 取消，返回 ctx.Err()。
type blockingRunner struct {
	started atomic.Int32
	running chan struct{}
}

func newBlockingRunner() *blockingRunner {
	return &blockingRunner{running: make(chan struct{})}
}

func (r *blockingRunner) Run(ctx context.Context) error {
	if r.started.Add(1) == 1 {
		close(r.running)
	}
	<-ctx.Done()
	return ctx.Err()
}

type failingRunner struct{ err error }

func (r failingRunner) Run(context.Context) error { return r.err }

func TestTask_StartStop(t *testing.T) {
	runner := newBlockingRunner()
	task := outbox.NewTask(runner, log.NewStdLogger(io.Discard))

	errCh := make(chan error, 1)
	go func() { errCh <- task.Start(context.Background()) }()

	select {
	case <-runner.running:
	case <-time.After(time.Second):
		t.Fatal("runner did not start")
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, task.Stop(stopCtx))

	select {
	case err := <-errCh:
		assert.NoError(t, err, "cancellation is a clean exit")
	case <-time.After(time.Second):
		t.Fatal("Start did not return after Stop")
	}
	assert.Equal(t, int32(1), runner.started.Load())
}

func TestTask_ParentContextCancel(t *testing.T) {
	runner := newBlockingRunner()
	task := outbox.NewTask(runner, log.NewStdLogger(io.Discard))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- task.Start(ctx) }()
	<-runner.running
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Start did not return after parent cancel")
	}
}

func TestTask_StartTwiceFails(t *testing.T) {
	runner := newBlockingRunner()
	task := outbox.NewTask(runner, log.NewStdLogger(io.Discard))

	go func() { _ = task.Start(context.Background()) }()
	<-runner.running

	err := task.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already started")

	require.NoError(t, task.Stop(context.Background()))
}

func TestTask_RunnerErrorPropagates(t *testing.T) {
	boom := errors.New("store unavailable")
	task := outbox.NewTask(failingRunner{err: boom}, log.NewStdLogger(io.Discard))

	err := task.Start(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestTask_StopBeforeStart(t *testing.T) {
	task := outbox.NewTask(newBlockingRunner(), log.NewStdLogger(io.Discard))
	assert.NoError(t, task.Stop(context.Background()))
}

func TestProvideRunner_DisabledWithoutTopic(t *testing.T) {
	logger := log.NewStdLogger(io.Discard)
	assert.Nil(t, outbox.ProvideRunner(nil, nil, gcpubsub.Config{TopicID: "learning-events"}, outboxcfg.Config{}, logger))
	assert.Nil(t, outbox.ProvideTask(nil, logger))
}

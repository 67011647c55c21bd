package outbox_test

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/bionicotaku/lingo-services-learning/internal/infrastructure/messaging"
	outboxevents "github.com/bionicotaku/lingo-services-learning/internal/models/outbox_events"
	"github.com/bionicotaku/lingo-services-learning/internal/models/po"
	"github.com/bionicotaku/lingo-services-learning/internal/repositories"
	"github.com/bionicotaku/lingo-services-learning/internal/tasks/outbox"

	"cloud.google.com/go/pubsub/pstest"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"github.com/bionicotaku/lingo-utils/gcpubsub"
	outboxcfg "github.com/bionicotaku/lingo-utils/outbox/config"
	outboxpublisher "github.com/bionicotaku/lingo-utils/outbox/publisher"
	"github.com/docker/go-connections/nat"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

const (
	testProjectID = "test-project"
	testTopicID   = "learning-events"
)

type publisherHarness struct {
	pool   *pgxpool.Pool
	repo   *repositories.OutboxRepository
	srv    *pstest.Server
	reader *sdkmetric.ManualReader
	task   *outbox.Task
}

func newPublisherHarness(ctx context.Context, t *testing.T, createTopic bool, publishTimeout time.Duration) *publisherHarness {
	t.Helper()
	logger := log.NewStdLogger(io.Discard)

	dsn, terminate := startPostgres(ctx, t)
	t.Cleanup(terminate)

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })
	applyMigrations(ctx, t, pool)

	cfg := outboxcfg.Config{
		Schema: "learning",
		Publisher: outboxcfg.PublisherConfig{
			BatchSize:      4,
			TickInterval:   50 * time.Millisecond,
			InitialBackoff: 10 * time.Millisecond,
			MaxBackoff:     200 * time.Millisecond,
			MaxAttempts:    3,
			PublishTimeout: publishTimeout,
			Workers:        1,
			LockTTL:        2 * time.Second,
		},
	}
	repo := repositories.NewOutboxRepository(pool, logger, cfg)

	srv := pstest.NewServer()
	t.Cleanup(func() { _ = srv.Close() })
	if createTopic {
		topicName := fmt.Sprintf("projects/%s/topics/%s", testProjectID, testTopicID)
		_, err = srv.GServer.CreateTopic(ctx, &pubsubpb.Topic{Name: topicName})
		require.NoError(t, err)
	}

	disabled := false
	publisher, cleanupPub, err := messaging.NewPublisher(ctx, gcpubsub.Config{
		ProjectID:        testProjectID,
		TopicID:          testTopicID,
		EnableLogging:    &disabled,
		EnableMetrics:    &disabled,
		EmulatorEndpoint: srv.Addr,
	}, logger)
	require.NoError(t, err)
	t.Cleanup(cleanupPub)

	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("lingo-services-learning.outbox.test")

	runner, err := outboxpublisher.NewRunner(outboxpublisher.RunnerParams{
		Store:     repo.Shared(),
		Publisher: publisher,
		Config:    cfg.Publisher,
		Logger:    logger,
		Meter:     meter,
	})
	require.NoError(t, err)

	return &publisherHarness{
		pool:   pool,
		repo:   repo,
		srv:    srv,
		reader: reader,
		task:   outbox.NewTask(runner, logger),
	}
}

func (h *publisherHarness) start(t *testing.T) {
	t.Helper()
	errCh := make(chan error, 1)
	go func() { errCh <- h.task.Start(context.Background()) }()
	t.Cleanup(func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		require.NoError(t, h.task.Stop(stopCtx))
		require.NoError(t, <-errCh)
	})
}

func (h *publisherHarness) sumMetric(ctx context.Context, t *testing.T, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, h.reader.Collect(ctx, &rm))
	var total int64
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != name {
				continue
			}
			if data, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range data.DataPoints {
					total += dp.Value
				}
			}
		}
	}
	return total
}

func enqueueMediaCompleted(ctx context.Context, t *testing.T, repo *repositories.OutboxRepository) *outboxevents.DomainEvent {
	t.Helper()
	now := time.Now().UTC()
	rec := po.NewPlayRecord(uuid.New(), uuid.New(), now)
	rec.MaxPlayedTime = 590
	rec.EffectiveDuration = 560
	require.True(t, rec.MarkCompleted(now))

	evt, err := outboxevents.NewMediaCompletedEvent(rec, nil, 600, uuid.New(), now)
	require.NoError(t, err)

	payload, err := outboxevents.Marshal(evt)
	require.NoError(t, err)
	require.NoError(t, repo.Enqueue(ctx, nil, repositories.OutboxMessage{
		EventID:       evt.EventID,
		AggregateType: evt.AggregateType,
		AggregateID:   evt.AggregateID,
		EventType:     evt.Kind.String(),
		Payload:       payload,
		Headers:       outboxevents.BuildAttributes(evt, outboxevents.SchemaVersionV1, ""),
		AvailableAt:   now,
	}))
	return evt
}

func TestPublisherIntegration_DeliversMediaCompleted(t *testing.T) {
	ctx := context.Background()
	h := newPublisherHarness(ctx, t, true, time.Second)
	evt := enqueueMediaCompleted(ctx, t, h.repo)
	h.start(t)

	require.Eventually(t, func() bool {
		var publishedAt pgtype.Timestamptz
		var attempts int32
		err := h.pool.QueryRow(ctx,
			`SELECT published_at, delivery_attempts FROM learning.outbox_events WHERE event_id = $1`,
			evt.EventID).Scan(&publishedAt, &attempts)
		return err == nil && publishedAt.Valid && attempts == 1
	}, 5*time.Second, 50*time.Millisecond, "outbox event should be marked as published")

	msgs := h.srv.Messages()
	require.Len(t, msgs, 1)
	require.Equal(t, fmt.Sprintf("projects/%s/topics/%s", testProjectID, testTopicID), msgs[0].Topic)
	require.Equal(t, "playback.media.completed", msgs[0].Attributes["event_type"])
	require.Equal(t, evt.EventID.String(), msgs[0].Attributes["event_id"])

	decoded, err := outboxevents.Unmarshal(msgs[0].Data)
	require.NoError(t, err)
	require.Equal(t, "playback.media.completed", decoded.GetFields()["event_type"].GetStringValue())

	require.Equal(t, int64(1), h.sumMetric(ctx, t, "outbox_publish_success_total"))
}

func TestPublisherIntegration_PublishFailureReschedules(t *testing.T) {
	ctx := context.Background()
	// 不创建 topic，Publish 返回 NotFound。
	h := newPublisherHarness(ctx, t, false, 100*time.Millisecond)
	evt := enqueueMediaCompleted(ctx, t, h.repo)
	h.start(t)

	require.Eventually(t, func() bool {
		var publishedAt pgtype.Timestamptz
		var attempts int32
		var lastErr pgtype.Text
		err := h.pool.QueryRow(ctx,
			`SELECT published_at, delivery_attempts, last_error FROM learning.outbox_events WHERE event_id = $1`,
			evt.EventID).Scan(&publishedAt, &attempts, &lastErr)
		return err == nil && !publishedAt.Valid && attempts >= 1 && lastErr.Valid
	}, 5*time.Second, 50*time.Millisecond, "outbox event should be rescheduled after publish failure")

	require.Empty(t, h.srv.Messages())
	require.GreaterOrEqual(t, h.sumMetric(ctx, t, "outbox_publish_failure_total"), int64(1))
}

func startPostgres(ctx context.Context, t *testing.T) (string, func()) {
	t.Helper()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_PASSWORD": "postgres",
			"POSTGRES_USER":     "postgres",
			"POSTGRES_DB":       "learning",
		},
		WaitingFor: wait.ForSQL("5432/tcp", "pgx", func(host string, port nat.Port) string {
			return fmt.Sprintf("postgres://postgres:postgres@%s:%s/learning?sslmode=disable", host, port.Port())
		}).WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("skip outbox integration: cannot start postgres container: %v", err)
		return "", func() {}
	}

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://postgres:postgres@%s:%s/learning?sslmode=disable", host, port.Port())
	return dsn, func() {
		termCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = container.Terminate(termCtx)
	}
}

func applyMigrations(ctx context.Context, t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	migrationsDir := filepath.Join("..", "..", "..", "..", "migrations")
	files, err := os.ReadDir(migrationsDir)
	require.NoError(t, err)

	paths := make([]string, 0, len(files))
	for _, f := range files {
		if f.IsDir() || filepath.Ext(f.Name()) != ".sql" {
			continue
		}
		paths = append(paths, filepath.Join(migrationsDir, f.Name()))
	}
	sort.Strings(paths)

	for _, path := range paths {
		sqlBytes, readErr := os.ReadFile(path)
		require.NoError(t, readErr)
		_, execErr := pool.Exec(ctx, string(sqlBytes))
		require.NoErrorf(t, execErr, "apply migration %s", filepath.Base(path))
	}
}

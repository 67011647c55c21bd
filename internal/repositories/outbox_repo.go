package repositories

import (
	"context"
	"fmt"
	"time"

	outboxpkg "github.com/bionicotaku/lingo-utils/outbox"
	outboxcfg "github.com/bionicotaku/lingo-utils/outbox/config"
	"github.com/bionicotaku/lingo-utils/outbox/store"
	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OutboxMessage 描述需要写入 outbox_events 的事件数据。
type OutboxMessage = store.Message

// OutboxRepository 提供写入 Outbox 表的能力，确保与 TxManager Session 协作。
// 领取、重试与标记已发布由共享发布器通过 Shared() 完成。
type OutboxRepository struct {
	delegate *store.Repository
	log      *log.Helper
}

// NewOutboxRepository 构造 Repository，表名按 cfg.Schema 限定。
func NewOutboxRepository(db *pgxpool.Pool, logger log.Logger, cfg outboxcfg.Config) *OutboxRepository {
	helper := log.NewHelper(logger)
	storeRepo, err := outboxpkg.NewRepository(db, logger, outboxpkg.RepositoryOptions{Schema: cfg.Schema})
	if err != nil {
		helper.Errorw("msg", "init outbox repository failed", "error", err)
		storeRepo = store.NewRepository(db, logger)
	}
	return &OutboxRepository{
		delegate: storeRepo,
		log:      helper,
	}
}

// Enqueue 在指定事务内插入 Outbox 事件；sess 为 nil 时直接写入。
func (r *OutboxRepository) Enqueue(ctx context.Context, sess txmanager.Session, msg OutboxMessage) error {
	if msg.AvailableAt.IsZero() {
		msg.AvailableAt = time.Now().UTC()
	} else {
		msg.AvailableAt = msg.AvailableAt.UTC()
	}
	if msg.Headers == nil {
		msg.Headers = map[string]string{}
	}

	if err := r.delegate.Enqueue(ctx, sess, msg); err != nil {
		r.log.WithContext(ctx).Errorf("insert outbox event failed: event_id=%s err=%v", msg.EventID, err)
		return fmt.Errorf("insert outbox event: %w", err)
	}

	r.log.WithContext(ctx).Debugf("outbox event enqueued: type=%s aggregate=%s id=%s", msg.EventType, msg.AggregateType, msg.AggregateID)
	return nil
}

// Shared exposes the underlying store repository for the outbox publisher.
func (r *OutboxRepository) Shared() *store.Repository {
	return r.delegate
}

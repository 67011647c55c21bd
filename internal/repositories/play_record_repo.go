package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bionicotaku/lingo-services-learning/internal/models/po"
	"github.com/bionicotaku/lingo-services-learning/internal/repositories/learningsql"
	"github.com/bionicotaku/lingo-services-learning/internal/repositories/mappers"

	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PlayRecordRepository 维护 learning.play_records。
type PlayRecordRepository struct {
	queries *learningsql.Queries
	log     *log.Helper
}

// NewPlayRecordRepository 构造仓储。
func NewPlayRecordRepository(db *pgxpool.Pool, logger log.Logger) *PlayRecordRepository {
	return &PlayRecordRepository{
		queries: learningsql.New(db),
		log:     log.NewHelper(logger),
	}
}

// LockOrCreate 在事务内查找或创建记录并加行锁，返回记录与是否新建。
// 必须在事务中调用，锁随事务提交释放。
func (r *PlayRecordRepository) LockOrCreate(ctx context.Context, sess txmanager.Session, userID, mediaID uuid.UUID, now time.Time) (*po.PlayRecord, bool, error) {
	queries := r.queries
	if sess != nil {
		queries = queries.WithTx(sess.Tx())
	}

	fresh := po.NewPlayRecord(userID, mediaID, now)
	created, err := queries.InsertPlayRecordIfAbsent(ctx, learningsql.InsertPlayRecordIfAbsentParams{
		RecordID:      fresh.RecordID,
		UserID:        userID,
		MediaID:       mediaID,
		FirstPlayedAt: mappers.TimestamptzFromTime(fresh.FirstPlayedAt),
	})
	if err != nil {
		return nil, false, fmt.Errorf("insert play record: %w", err)
	}

	row, err := queries.GetPlayRecordForUpdate(ctx, userID, mediaID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, ErrPlayRecordNotFound
		}
		return nil, false, fmt.Errorf("lock play record: %w", err)
	}
	if created {
		r.log.WithContext(ctx).Debugf("play record created: record_id=%s user_id=%s media_id=%s", row.RecordID, userID, mediaID)
	}
	return mappers.PlayRecordFromRow(row), created, nil
}

// Get 读取记录，不加锁。
func (r *PlayRecordRepository) Get(ctx context.Context, sess txmanager.Session, userID, mediaID uuid.UUID) (*po.PlayRecord, error) {
	queries := r.queries
	if sess != nil {
		queries = queries.WithTx(sess.Tx())
	}

	row, err := queries.GetPlayRecord(ctx, userID, mediaID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPlayRecordNotFound
		}
		return nil, fmt.Errorf("get play record: %w", err)
	}
	return mappers.PlayRecordFromRow(row), nil
}

// Save 写回记录的可变字段，返回数据库中的最新状态。
func (r *PlayRecordRepository) Save(ctx context.Context, sess txmanager.Session, rec *po.PlayRecord) (*po.PlayRecord, error) {
	if rec == nil {
		return nil, fmt.Errorf("save play record: nil record")
	}
	queries := r.queries
	if sess != nil {
		queries = queries.WithTx(sess.Tx())
	}

	row, err := queries.UpdatePlayRecord(ctx, mappers.BuildUpdatePlayRecordParams(rec))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPlayRecordNotFound
		}
		r.log.WithContext(ctx).Errorf("update play record failed: record_id=%s err=%v", rec.RecordID, err)
		return nil, fmt.Errorf("update play record: %w", err)
	}
	return mappers.PlayRecordFromRow(row), nil
}

var _ interface {
	LockOrCreate(context.Context, txmanager.Session, uuid.UUID, uuid.UUID, time.Time) (*po.PlayRecord, bool, error)
	Get(context.Context, txmanager.Session, uuid.UUID, uuid.UUID) (*po.PlayRecord, error)
	Save(context.Context, txmanager.Session, *po.PlayRecord) (*po.PlayRecord, error)
} = (*PlayRecordRepository)(nil)

package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/bionicotaku/lingo-services-learning/internal/models/po"
	"github.com/bionicotaku/lingo-services-learning/internal/repositories/learningsql"
	"github.com/bionicotaku/lingo-services-learning/internal/repositories/mappers"

	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PlayEventRepository 追加与查询 learning.play_events。
type PlayEventRepository struct {
	queries *learningsql.Queries
	log     *log.Helper
}

// NewPlayEventRepository 构造仓储。
func NewPlayEventRepository(db *pgxpool.Pool, logger log.Logger) *PlayEventRepository {
	return &PlayEventRepository{
		queries: learningsql.New(db),
		log:     log.NewHelper(logger),
	}
}

// Append 写入一条事件，事件一经写入不再修改。
func (r *PlayEventRepository) Append(ctx context.Context, sess txmanager.Session, evt *po.PlayEvent) error {
	if evt == nil {
		return fmt.Errorf("append play event: nil event")
	}
	queries := r.queries
	if sess != nil {
		queries = queries.WithTx(sess.Tx())
	}
	if err := queries.InsertPlayEvent(ctx, mappers.BuildInsertPlayEventParams(evt)); err != nil {
		r.log.WithContext(ctx).Errorf("insert play event failed: event_id=%s record_id=%s err=%v", evt.EventID, evt.RecordID, err)
		return fmt.Errorf("insert play event: %w", err)
	}
	return nil
}

// Latest 返回记录最近一条事件。
func (r *PlayEventRepository) Latest(ctx context.Context, sess txmanager.Session, recordID uuid.UUID) (*po.PlayEvent, error) {
	queries := r.queries
	if sess != nil {
		queries = queries.WithTx(sess.Tx())
	}
	row, err := queries.GetLatestPlayEvent(ctx, recordID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPlayEventNotFound
		}
		return nil, fmt.Errorf("get latest play event: %w", err)
	}
	return mappers.PlayEventFromRow(row), nil
}

// LatestBoundary 返回最近一条播放段边界事件，忽略仅修改播放器设置的事件。
// 边界为 play/resume/heartbeat/seek/pause/ended/stop；其中前四种可作为下一段计时起点
// (seek 以目标位置为起点)，pause/ended/stop 表示上一段已结束。参见 po.EventType.IsReference。
func (r *PlayEventRepository) LatestBoundary(ctx context.Context, sess txmanager.Session, recordID uuid.UUID) (*po.PlayEvent, error) {
	queries := r.queries
	if sess != nil {
		queries = queries.WithTx(sess.Tx())
	}
	row, err := queries.GetLatestPlayEventOfTypes(ctx, recordID, po.SegmentBoundaryEventTypes())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPlayEventNotFound
		}
		return nil, fmt.Errorf("get boundary play event: %w", err)
	}
	return mappers.PlayEventFromRow(row), nil
}

var _ interface {
	Append(context.Context, txmanager.Session, *po.PlayEvent) error
	Latest(context.Context, txmanager.Session, uuid.UUID) (*po.PlayEvent, error)
	LatestBoundary(context.Context, txmanager.Session, uuid.UUID) (*po.PlayEvent, error)
} = (*PlayEventRepository)(nil)

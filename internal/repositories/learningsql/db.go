// Package learningsql 封装 learning schema 的 SQL 语句与行结构，
// 与 pgxpool.Pool / pgx.Tx 共用 DBTX 接口，便于在事务内复用同一组查询。
package learningsql

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX 是 *pgxpool.Pool 与 pgx.Tx 的公共子集。
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// New 构造绑定到连接池或事务的 Queries。
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// Queries 持有底层执行器。
type Queries struct {
	db DBTX
}

// WithTx 返回绑定到指定事务的 Queries 副本。
func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}

package database

import (
	"context"
	"database/sql"
)

// Querier is satisfied by *sql.DB, *sql.Conn and *sql.Tx
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type ArticleStore interface {
	Exists(ctx context.Context, url string) (bool, error)
	Insert(ctx context.Context, article *Article) (bool, error)
	RecentByTopic(ctx context.Context, topic string, limit int) ([]Article, error)
	Clear(ctx context.Context) (int64, error)
	Count(ctx context.Context) (int, error)
	CountByTopic(ctx context.Context) (map[string]int, error)
}

type Session interface {
	Articles() ArticleStore
	Close() error
}

type SessionFactory interface {
	Open(ctx context.Context) (Session, error)
}

var _ SessionFactory = (*DB)(nil)
var _ ArticleStore = (*ArticleRepository)(nil)

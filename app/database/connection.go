package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

type DB struct {
	*sql.DB
}

func NewConnection(host, port, user, password, dbname, sslmode string) (*DB, error) {
	if sslmode == "" {
		sslmode = "disable"
	}

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db}, nil
}

// Open checks out a dedicated connection from the pool. The returned session
// must not be shared between goroutines and must be closed by its owner.
func (db *DB) Open(ctx context.Context) (Session, error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open database session: %w", err)
	}

	return &connSession{
		conn:     conn,
		articles: NewArticleRepository(conn),
	}, nil
}

type connSession struct {
	conn     *sql.Conn
	articles *ArticleRepository
}

func (s *connSession) Articles() ArticleStore {
	return s.articles
}

func (s *connSession) Close() error {
	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database session: %w", err)
	}
	return nil
}

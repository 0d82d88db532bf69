package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/news-comb/app/database"
)

// ClearStoreTask removes every stored article before a full refresh
type ClearStoreTask struct {
	Task
	sessions database.SessionFactory

	Removed int64
}

func NewClearStoreTask(sessions database.SessionFactory) *ClearStoreTask {
	return &ClearStoreTask{
		Task:     NewTask(TaskTypeClearStore, "all"),
		sessions: sessions,
	}
}

func (t *ClearStoreTask) Execute(ctx context.Context) error {
	session, err := t.sessions.Open(ctx)
	if err != nil {
		return fmt.Errorf("failed to open session: %w", err)
	}
	defer session.Close()

	removed, err := session.Articles().Clear(ctx)
	if err != nil {
		return fmt.Errorf("failed to clear articles: %w", err)
	}
	t.Removed = removed

	slog.Info("Task completed",
		"type", string(t.Type),
		"duration", t.GetDuration(),
		"removed", removed)

	return nil
}

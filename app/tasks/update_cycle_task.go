package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/news-comb/app/database"
	"github.com/lysyi3m/news-comb/app/feed"
)

// UpdateCycleTask scrapes every enabled source once, in configuration order
type UpdateCycleTask struct {
	Task
	sources  SourceProvider
	sessions database.SessionFactory
	scraper  SourceScraper

	Stored        int
	SourceCount   int
	FailedSources int
	StoreSize     int
}

func NewUpdateCycleTask(sources SourceProvider, sessions database.SessionFactory, scraper SourceScraper) *UpdateCycleTask {
	return &UpdateCycleTask{
		Task:     NewTask(TaskTypeUpdateCycle, "all"),
		sources:  sources,
		sessions: sessions,
		scraper:  scraper,
	}
}

func (t *UpdateCycleTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	session, err := t.sessions.Open(ctx)
	if err != nil {
		return fmt.Errorf("failed to open cycle session: %w", err)
	}
	defer session.Close()

	sourceConfigs := t.sources.GetEnabledConfigs()
	t.SourceCount = len(sourceConfigs)

	if len(sourceConfigs) == 0 {
		slog.Warn("No enabled sources configured")
	}

	for _, sourceConfig := range sourceConfigs {
		if ctx.Err() != nil {
			break
		}

		slog.Info("Updating news from source", "source", sourceConfig.Name)

		stored, err := t.scrapeSource(ctx, sourceConfig)
		t.Stored += stored
		if err != nil {
			t.FailedSources++
			slog.Error("Error processing source", "source", sourceConfig.Name, "error", err)
			continue
		}

		slog.Info("Source processed", "source", sourceConfig.Name, "stored", stored)
	}

	if count, err := session.Articles().Count(ctx); err != nil {
		slog.Warn("Failed to count stored articles", "error", err)
	} else {
		t.StoreSize = count
	}

	slog.Info("Task completed",
		"type", string(t.Type),
		"duration", t.GetDuration(),
		"sources", t.SourceCount,
		"failed_sources", t.FailedSources,
		"stored", t.Stored,
		"store_size", t.StoreSize)

	return ctx.Err()
}

func (t *UpdateCycleTask) scrapeSource(ctx context.Context, sourceConfig *feed.Config) (stored int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while scraping: %v", r)
		}
	}()

	return t.scraper.Scrape(ctx, sourceConfig, t.sessions)
}

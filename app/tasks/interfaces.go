package tasks

import (
	"context"

	"github.com/lysyi3m/news-comb/app/database"
	"github.com/lysyi3m/news-comb/app/feed"
)

// TaskSchedulerInterface is used by the main application and the API to drive
// update cycles.
//
//	scheduler := NewScheduler(configCache, db, scraper, recentCache, m, Options{...})
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.Trigger()
type TaskSchedulerInterface interface {
	Start()
	Stop()
	Trigger() error
	EnqueueTask(task TaskInterface) error
	LastCycle() CycleStatus
}

type SourceProvider interface {
	GetEnabledConfigs() []*feed.Config
}

type SourceScraper interface {
	Scrape(ctx context.Context, source *feed.Config, sessions database.SessionFactory) (int, error)
}

// CacheFlusher drops cached query results after the store changes
type CacheFlusher interface {
	Flush(ctx context.Context) error
}

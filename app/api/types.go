package api

import (
	"context"

	"github.com/lysyi3m/news-comb/app/config"
	"github.com/lysyi3m/news-comb/app/database"
	"github.com/lysyi3m/news-comb/app/feed"
	"github.com/lysyi3m/news-comb/app/tasks"
)

type GeneratorInterface interface {
	Run(topic string, articles []database.Article) (string, error)
}

var _ GeneratorInterface = (*feed.Generator)(nil)

// RecentCacheInterface caches recent-articles results. Handler works without one.
type RecentCacheInterface interface {
	GetRecent(ctx context.Context, topic string, limit int) ([]database.Article, bool, error)
	SetRecent(ctx context.Context, topic string, limit int, articles []database.Article) error
	Flush(ctx context.Context) error
}

type SourceConfigs interface {
	GetConfigs() map[string]*feed.Config
	GetConfigCount() int
	LoadConfig(name string) (*feed.Config, error)
}

var _ SourceConfigs = (*feed.ConfigCache)(nil)

type Handler struct {
	sessions  database.SessionFactory
	topics    *config.TopicConfig
	generator GeneratorInterface
	sources   SourceConfigs
	scheduler tasks.TaskSchedulerInterface
	cache     RecentCacheInterface
	version   string
}

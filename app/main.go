package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/news-comb/app/api"
	"github.com/lysyi3m/news-comb/app/cache"
	"github.com/lysyi3m/news-comb/app/cfg"
	"github.com/lysyi3m/news-comb/app/classifier"
	"github.com/lysyi3m/news-comb/app/config"
	"github.com/lysyi3m/news-comb/app/database"
	"github.com/lysyi3m/news-comb/app/embedding"
	"github.com/lysyi3m/news-comb/app/feed"
	"github.com/lysyi3m/news-comb/app/metrics"
	"github.com/lysyi3m/news-comb/app/scraper"
	"github.com/lysyi3m/news-comb/app/tasks"
)

func main() {
	appConfig, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}
	if appConfig == nil {
		// Help was shown
		return
	}

	setupLogger(appConfig.Debug)

	slog.Info("Starting News Comb", "version", appConfig.Version)

	topics, err := config.Load(appConfig.TopicsFile)
	if err != nil {
		fatal("Failed to load topics", err)
	}
	slog.Info("Loaded topics", "file", appConfig.TopicsFile, "count", len(topics.Topics), "fallback", topics.Fallback)

	configCache := feed.NewConfigCache(appConfig.SourcesDir, feed.ConfigSettings{
		MaxArticles: appConfig.MaxArticles,
		Timeout:     appConfig.FetchTimeout,
	})
	if err := configCache.Run(); err != nil {
		fatal("Failed to load source configurations", err)
	}
	slog.Info("Loaded source configurations", "dir", appConfig.SourcesDir, "count", configCache.GetConfigCount(), "enabled", len(configCache.GetEnabledConfigs()))

	db, err := database.NewConnection(appConfig.DBHost, appConfig.DBPort, appConfig.DBUser,
		appConfig.DBPassword, appConfig.DBName, appConfig.DBSSLMode)
	if err != nil {
		fatal("Failed to connect to database", err)
	}
	defer db.Close()
	slog.Info("Connected to database", "host", appConfig.DBHost, "name", appConfig.DBName)

	if version, err := database.RunMigrations(db); err != nil {
		fatal("Failed to run migrations", err)
	} else {
		slog.Info("Database schema ready", "version", version)
	}

	// Both stay nil interfaces when Redis is not configured
	var recentCache api.RecentCacheInterface
	var cacheFlusher tasks.CacheFlusher
	if appConfig.RedisAddr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		redisCache, err := cache.NewCache(ctx, appConfig.RedisAddr, appConfig.GetCacheTTL())
		cancel()
		if err != nil {
			slog.Warn("Redis unavailable, topic listings will not be cached", "addr", appConfig.RedisAddr, "error", err)
		} else {
			defer redisCache.Close()
			recentCache = redisCache
			cacheFlusher = redisCache
		}
	}

	m := metrics.New()

	httpClient := &http.Client{Timeout: appConfig.GetFetchTimeout()}
	fetcher := feed.NewFetcher(httpClient, appConfig.UserAgent, appConfig.GetFetchTimeout(), appConfig.FetchRate)
	discoverer := feed.NewDiscoverer(fetcher, feed.NewParser(), feed.NewLinkExtractor(), feed.NewFilterer())

	ollamaClient := &http.Client{}
	topicClassifier := classifier.New(
		topics,
		classifier.NewOllama(ollamaClient, appConfig.OllamaURL, appConfig.ClassifierModel, appConfig.ClassifierTemperature),
		appConfig.ClassifierMaxAttempts,
		appConfig.GetClassifyTimeout(),
	)
	encoder := embedding.NewOllama(ollamaClient, appConfig.OllamaURL, appConfig.EmbeddingModel,
		appConfig.EmbeddingDims, appConfig.GetEmbeddingTimeout())

	newsScraper := scraper.New(discoverer, fetcher, topicClassifier, encoder, m, appConfig.WorkerCount)

	scheduler := tasks.NewScheduler(configCache, db, newsScraper, cacheFlusher, m, tasks.Options{
		Interval:     appConfig.GetSchedulerInterval(),
		FullRefresh:  appConfig.FullRefresh,
		FirstRunFlag: appConfig.FirstRunFlag,
	})
	slog.Info("Starting scheduler", "interval", appConfig.GetSchedulerInterval(), "workers", appConfig.WorkerCount)
	scheduler.Start()
	defer scheduler.Stop()

	generator := feed.NewGenerator(appConfig.BaseUrl, appConfig.Version)
	handler := api.NewHandler(db, topics, generator, configCache, scheduler, recentCache, appConfig.Version)
	server := api.NewServer(handler, m.Handler(), appConfig.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appConfig.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appConfig.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	// Scheduler, cache and database are closed via defer
	slog.Info("News Comb shutdown complete")
}

func setupLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}

package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/news-comb/app/config"
	"github.com/lysyi3m/news-comb/app/database"
	"github.com/lysyi3m/news-comb/app/tasks"
)

const maxRecentLimit = 100

func NewHandler(sessions database.SessionFactory, topics *config.TopicConfig, generator GeneratorInterface,
	sources SourceConfigs, scheduler tasks.TaskSchedulerInterface, cache RecentCacheInterface, version string) *Handler {
	return &Handler{
		sessions:  sessions,
		topics:    topics,
		generator: generator,
		sources:   sources,
		scheduler: scheduler,
		cache:     cache,
		version:   version,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]any{
		"status":                "healthy",
		"version":               h.version,
		"timestamp":             time.Now().In(time.Local).Format(time.RFC3339),
		"loaded_configurations": h.sources.GetConfigCount(),
	}

	session, err := h.sessions.Open(c.Request.Context())
	if err != nil {
		slog.Error("Database error", "operation", "open_session", "error", err)
		health["status"] = "unhealthy"
		c.JSON(http.StatusServiceUnavailable, health)
		return
	}
	defer session.Close()

	if count, err := session.Articles().Count(c.Request.Context()); err == nil {
		health["articles"] = count
	}
	if byTopic, err := session.Articles().CountByTopic(c.Request.Context()); err == nil {
		health["topics"] = byTopic
	}

	if h.scheduler != nil {
		health["last_cycle"] = h.scheduler.LastCycle()
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetTopics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"topics":   h.topics.Topics,
		"fallback": h.topics.Fallback,
	})
}

func (h *Handler) GetTopicArticles(c *gin.Context) {
	topic, limit, ok := h.parseTopicRequest(c)
	if !ok {
		return
	}

	articles, err := h.recent(c.Request.Context(), topic, limit)
	if err != nil {
		slog.Error("Database error", "operation", "recent_by_topic", "topic", topic, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.Header("X-Topic-Articles", strconv.Itoa(len(articles)))
	c.JSON(http.StatusOK, articles)
}

func (h *Handler) GetTopicRSS(c *gin.Context) {
	topic, limit, ok := h.parseTopicRequest(c)
	if !ok {
		return
	}

	articles, err := h.recent(c.Request.Context(), topic, limit)
	if err != nil {
		slog.Error("Database error", "operation", "recent_by_topic", "topic", topic, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	rss, err := h.generator.Run(topic, articles)
	if err != nil {
		slog.Error("RSS generation error", "topic", topic, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.Header("X-Topic-Articles", strconv.Itoa(len(articles)))
	c.String(http.StatusOK, rss)
}

func (h *Handler) APIListSources(c *gin.Context) {
	configs := h.sources.GetConfigs()

	names := make([]string, 0, len(configs))
	for name := range configs {
		names = append(names, name)
	}
	slices.Sort(names)

	sources := make([]map[string]any, 0, len(configs))
	for _, name := range names {
		sourceConfig := configs[name]
		sources = append(sources, map[string]any{
			"name":         sourceConfig.Name,
			"url":          sourceConfig.URL,
			"text_field":   sourceConfig.TextField,
			"enabled":      sourceConfig.Settings.Enabled,
			"order":        sourceConfig.Settings.Order,
			"max_articles": sourceConfig.Settings.MaxArticles,
			"timeout":      sourceConfig.GetTimeout().String(),
			"filters":      len(sourceConfig.Filters),
		})
	}

	c.JSON(http.StatusOK, map[string]any{
		"sources": sources,
		"total":   len(sources),
	})
}

func (h *Handler) APIReloadSource(c *gin.Context) {
	name := c.Param("name")
	if _, ok := h.sources.GetConfigs()[name]; !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Source configuration not found"})
		return
	}

	sourceConfig, err := h.sources.LoadConfig(name)
	if err != nil {
		slog.Error("Error reloading configuration", "source", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to reload configuration",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Configuration reloaded successfully",
		"source": gin.H{
			"name":    sourceConfig.Name,
			"url":     sourceConfig.URL,
			"enabled": sourceConfig.Settings.Enabled,
		},
	})
}

// APIRefresh queues an update cycle. With full=true the store is cleared first.
func (h *Handler) APIRefresh(c *gin.Context) {
	var queued []tasks.TaskInterface

	if c.Query("full") == "true" {
		clearTask := tasks.NewClearStoreTask(h.sessions)
		if err := h.scheduler.EnqueueTask(clearTask); err != nil {
			slog.Error("Error enqueueing clear task", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Failed to enqueue clear task", "details": err.Error()})
			return
		}
		queued = append(queued, clearTask)
	}

	if err := h.scheduler.Trigger(); err != nil {
		slog.Error("Error triggering update cycle", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Failed to trigger update cycle", "details": err.Error()})
		return
	}

	taskList := make([]gin.H, 0, len(queued))
	for _, task := range queued {
		taskList = append(taskList, gin.H{"id": task.GetID(), "type": task.GetType()})
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "Update cycle enqueued",
		"tasks":   taskList,
	})
}

func (h *Handler) parseTopicRequest(c *gin.Context) (string, int, bool) {
	topic := c.Param("topic")
	if !h.topics.IsKnown(topic) {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("Unknown topic: %s", topic)})
		return "", 0, false
	}

	limit := database.DefaultRecentLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > maxRecentLimit {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("limit must be between 1 and %d", maxRecentLimit)})
			return "", 0, false
		}
		limit = parsed
	}

	return topic, limit, true
}

func (h *Handler) recent(ctx context.Context, topic string, limit int) ([]database.Article, error) {
	if h.cache != nil {
		articles, found, err := h.cache.GetRecent(ctx, topic, limit)
		if err != nil {
			slog.Warn("Cache error", "operation", "get_recent", "topic", topic, "error", err)
		} else if found {
			return articles, nil
		}
	}

	session, err := h.sessions.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	articles, err := session.Articles().RecentByTopic(ctx, topic, limit)
	if err != nil {
		return nil, err
	}
	if articles == nil {
		articles = []database.Article{}
	}

	if h.cache != nil {
		if err := h.cache.SetRecent(ctx, topic, limit, articles); err != nil {
			slog.Warn("Cache error", "operation", "set_recent", "topic", topic, "error", err)
		}
	}

	return articles, nil
}

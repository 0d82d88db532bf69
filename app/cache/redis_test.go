package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/lysyi3m/news-comb/app/database"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()

	server := miniredis.RunT(t)

	c, err := NewCache(context.Background(), server.Addr(), time.Minute)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	t.Cleanup(func() { c.Close() })

	return c, server
}

func TestGenerateRecentKey(t *testing.T) {
	key1a := GenerateRecentKey("Наука", 15)
	key1b := GenerateRecentKey("Наука", 15)
	key2 := GenerateRecentKey("Спорт", 15)
	key3 := GenerateRecentKey("Наука", 5)

	if key1a != key1b {
		t.Errorf("Expected same key for same topic, got %s != %s", key1a, key1b)
	}
	if key1a == key2 {
		t.Errorf("Expected different keys for different topics, got %s", key1a)
	}
	if key1a == key3 {
		t.Errorf("Expected different keys for different limits, got %s", key1a)
	}
	if !strings.HasPrefix(key1a, "news-comb:recent:") {
		t.Errorf("Expected key prefix news-comb:recent:, got %s", key1a)
	}
	if !strings.HasSuffix(key1a, ":15") {
		t.Errorf("Expected key to end with limit, got %s", key1a)
	}
}

func TestRecentRoundTrip(t *testing.T) {
	c, server := newTestCache(t)
	ctx := context.Background()

	_, found, err := c.GetRecent(ctx, "Наука", 15)
	if err != nil || found {
		t.Fatalf("Expected cache miss, got found=%t err=%v", found, err)
	}

	articles := []database.Article{{ID: 1, Title: "Планета", URL: "https://example.com/1", Topic: "Наука"}}
	if err := c.SetRecent(ctx, "Наука", 15, articles); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	cached, found, err := c.GetRecent(ctx, "Наука", 15)
	if err != nil || !found {
		t.Fatalf("Expected cache hit, got found=%t err=%v", found, err)
	}
	if len(cached) != 1 || cached[0].Title != "Планета" {
		t.Errorf("Expected cached article, got %+v", cached)
	}

	if ttl := server.TTL(GenerateRecentKey("Наука", 15)); ttl != time.Minute {
		t.Errorf("Expected TTL 1m, got %v", ttl)
	}
}

func TestFlushRemovesOnlyOwnKeys(t *testing.T) {
	c, server := newTestCache(t)
	ctx := context.Background()

	server.Set("foreign:key", "keep")
	c.SetRecent(ctx, "Наука", 15, nil)
	c.SetRecent(ctx, "Спорт", 5, nil)

	if err := c.Flush(ctx); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if server.Exists(GenerateRecentKey("Наука", 15)) || server.Exists(GenerateRecentKey("Спорт", 5)) {
		t.Error("Expected recent keys to be flushed")
	}
	if !server.Exists("foreign:key") {
		t.Error("Expected foreign key to survive flush")
	}
}

func TestCorruptEntryIsMiss(t *testing.T) {
	c, server := newTestCache(t)

	server.Set(GenerateRecentKey("Наука", 15), "not json")

	_, found, err := c.GetRecent(context.Background(), "Наука", 15)
	if err != nil || found {
		t.Errorf("Expected miss for corrupt entry, got found=%t err=%v", found, err)
	}
	if server.Exists(GenerateRecentKey("Наука", 15)) {
		t.Error("Expected corrupt entry to be deleted")
	}
}

func TestHealth(t *testing.T) {
	c, server := newTestCache(t)

	if health := c.Health(context.Background()); health["status"] != "healthy" {
		t.Errorf("Expected healthy, got %v", health)
	}

	server.Close()

	if health := c.Health(context.Background()); health["status"] != "unhealthy" {
		t.Errorf("Expected unhealthy after server shutdown, got %v", health)
	}
}

func TestNewCacheUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if _, err := NewCache(ctx, "127.0.0.1:1", time.Minute); err == nil {
		t.Error("Expected connection error, got nil")
	}
}

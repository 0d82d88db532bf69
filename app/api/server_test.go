package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/lysyi3m/news-comb/app/config"
	"github.com/lysyi3m/news-comb/app/database"
	"github.com/lysyi3m/news-comb/app/feed"
	"github.com/lysyi3m/news-comb/app/tasks"
)

type stubStore struct {
	database.ArticleStore
	articles  []database.Article
	lastTopic string
	lastLimit int
	calls     int
	err       error
}

func (s *stubStore) RecentByTopic(ctx context.Context, topic string, limit int) ([]database.Article, error) {
	s.calls++
	s.lastTopic = topic
	s.lastLimit = limit
	if s.err != nil {
		return nil, s.err
	}
	return s.articles, nil
}

func (s *stubStore) Count(ctx context.Context) (int, error) {
	return len(s.articles), nil
}

func (s *stubStore) CountByTopic(ctx context.Context) (map[string]int, error) {
	return map[string]int{"Наука": len(s.articles)}, nil
}

type stubSession struct{ store *stubStore }

func (s *stubSession) Articles() database.ArticleStore { return s.store }
func (s *stubSession) Close() error                    { return nil }

type stubSessions struct {
	store *stubStore
	err   error
}

func (f *stubSessions) Open(ctx context.Context) (database.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &stubSession{store: f.store}, nil
}

type stubScheduler struct {
	triggers int
	enqueued []tasks.TaskInterface
	err      error
}

func (s *stubScheduler) Start() {}
func (s *stubScheduler) Stop()  {}

func (s *stubScheduler) Trigger() error {
	if s.err != nil {
		return s.err
	}
	s.triggers++
	return nil
}

func (s *stubScheduler) EnqueueTask(task tasks.TaskInterface) error {
	if s.err != nil {
		return s.err
	}
	s.enqueued = append(s.enqueued, task)
	return nil
}

func (s *stubScheduler) LastCycle() tasks.CycleStatus {
	return tasks.CycleStatus{Stored: 4}
}

type memoryCache struct {
	entries map[string][]database.Article
}

func (m *memoryCache) key(topic string, limit int) string {
	return fmt.Sprintf("%s|%d", topic, limit)
}

func (m *memoryCache) GetRecent(ctx context.Context, topic string, limit int) ([]database.Article, bool, error) {
	articles, ok := m.entries[m.key(topic, limit)]
	return articles, ok, nil
}

func (m *memoryCache) SetRecent(ctx context.Context, topic string, limit int, articles []database.Article) error {
	m.entries[m.key(topic, limit)] = articles
	return nil
}

func (m *memoryCache) Flush(ctx context.Context) error {
	m.entries = map[string][]database.Article{}
	return nil
}

type stubSources struct{}

func (stubSources) GetConfigs() map[string]*feed.Config {
	return map[string]*feed.Config{
		"lenta": {Name: "lenta", URL: "https://lenta.ru/rss", TextField: "text", Settings: feed.ConfigSettings{Enabled: true, MaxArticles: 5}},
	}
}

func (stubSources) GetConfigCount() int { return 1 }

func (stubSources) LoadConfig(name string) (*feed.Config, error) {
	return &feed.Config{Name: name, URL: "https://lenta.ru/rss"}, nil
}

func testTopics() *config.TopicConfig {
	return &config.TopicConfig{Topics: []string{"Наука", "Спорт"}, Fallback: config.DefaultFallback}
}

func newTestServer(store *stubStore, scheduler *stubScheduler, cache RecentCacheInterface, apiKey string) http.Handler {
	handler := NewHandler(&stubSessions{store: store}, testTopics(), feed.NewGenerator("https://comb.example.com", "test"), stubSources{}, scheduler, cache, "test")
	metricsHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("# metrics"))
	})
	return NewServer(handler, metricsHandler, apiKey)
}

func doRequest(server http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	return rec
}

func topicPath(topic, suffix string) string {
	return "/topics/" + url.PathEscape(topic) + "/" + suffix
}

func TestGetTopicArticles(t *testing.T) {
	store := &stubStore{articles: []database.Article{{ID: 2, Title: "Планета", Topic: "Наука", URL: "https://example.com/2"}}}
	server := newTestServer(store, &stubScheduler{}, nil, "")

	rec := doRequest(server, "GET", topicPath("Наука", "articles"), nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var articles []database.Article
	if err := json.Unmarshal(rec.Body.Bytes(), &articles); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(articles) != 1 || articles[0].Title != "Планета" {
		t.Errorf("Expected one article, got %+v", articles)
	}
	if store.lastTopic != "Наука" || store.lastLimit != database.DefaultRecentLimit {
		t.Errorf("Expected RecentByTopic(Наука, %d), got (%s, %d)", database.DefaultRecentLimit, store.lastTopic, store.lastLimit)
	}
}

func TestGetTopicArticlesEmpty(t *testing.T) {
	store := &stubStore{articles: []database.Article{}}
	server := newTestServer(store, &stubScheduler{}, nil, "")

	rec := doRequest(server, "GET", topicPath(config.DefaultFallback, "articles")+"?limit=3", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("Expected empty JSON list, got %s", rec.Body.String())
	}
	if store.lastLimit != 3 {
		t.Errorf("Expected limit 3, got %d", store.lastLimit)
	}
}

func TestGetTopicArticlesValidation(t *testing.T) {
	server := newTestServer(&stubStore{}, &stubScheduler{}, nil, "")

	if rec := doRequest(server, "GET", topicPath("Погода", "articles"), nil); rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown topic, got %d", rec.Code)
	}

	for _, limit := range []string{"0", "-1", "abc", "1000"} {
		if rec := doRequest(server, "GET", topicPath("Наука", "articles")+"?limit="+limit, nil); rec.Code != http.StatusBadRequest {
			t.Errorf("Expected 400 for limit %s, got %d", limit, rec.Code)
		}
	}
}

func TestGetTopicArticlesDatabaseError(t *testing.T) {
	server := newTestServer(&stubStore{err: errors.New("connection reset")}, &stubScheduler{}, nil, "")

	if rec := doRequest(server, "GET", topicPath("Наука", "articles"), nil); rec.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", rec.Code)
	}
}

func TestGetTopicArticlesUsesCache(t *testing.T) {
	store := &stubStore{articles: []database.Article{{ID: 1, Title: "A", Topic: "Спорт"}}}
	cache := &memoryCache{entries: map[string][]database.Article{}}
	server := newTestServer(store, &stubScheduler{}, cache, "")

	doRequest(server, "GET", topicPath("Спорт", "articles"), nil)
	doRequest(server, "GET", topicPath("Спорт", "articles"), nil)

	if store.calls != 1 {
		t.Errorf("Expected 1 database call with cache, got %d", store.calls)
	}

	cache.Flush(context.Background())
	doRequest(server, "GET", topicPath("Спорт", "articles"), nil)

	if store.calls != 2 {
		t.Errorf("Expected database call after flush, got %d", store.calls)
	}
}

func TestGetTopicRSS(t *testing.T) {
	store := &stubStore{articles: []database.Article{{ID: 1, Title: "Матч", Topic: "Спорт", URL: "https://example.com/match"}}}
	server := newTestServer(store, &stubScheduler{}, nil, "")

	rec := doRequest(server, "GET", topicPath("Спорт", "rss"), nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "application/xml") {
		t.Errorf("Expected XML content type, got %s", rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(rec.Body.String(), "<title>Матч</title>") {
		t.Errorf("Expected article in RSS, got %s", rec.Body.String())
	}
}

func TestGetTopics(t *testing.T) {
	server := newTestServer(&stubStore{}, &stubScheduler{}, nil, "")

	rec := doRequest(server, "GET", "/topics", nil)

	var body struct {
		Topics   []string `json:"topics"`
		Fallback string   `json:"fallback"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(body.Topics) != 2 || body.Fallback != config.DefaultFallback {
		t.Errorf("Unexpected topics response: %+v", body)
	}
}

func TestGetHealth(t *testing.T) {
	store := &stubStore{articles: []database.Article{{ID: 1}, {ID: 2}}}
	server := newTestServer(store, &stubScheduler{}, nil, "")

	rec := doRequest(server, "GET", "/health", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var body map[string]any
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["articles"] != float64(2) {
		t.Errorf("Expected 2 articles, got %v", body["articles"])
	}
	if body["status"] != "healthy" {
		t.Errorf("Expected healthy status, got %v", body["status"])
	}
}

func TestGetHealthDatabaseDown(t *testing.T) {
	handler := NewHandler(&stubSessions{err: errors.New("down")}, testTopics(), feed.NewGenerator("", "test"), stubSources{}, &stubScheduler{}, nil, "test")
	server := NewServer(handler, nil, "")

	if rec := doRequest(server, "GET", "/health", nil); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503, got %d", rec.Code)
	}
	if rec := doRequest(server, "GET", "/metrics", nil); rec.Code != http.StatusNotFound {
		t.Errorf("Expected /metrics to be unregistered, got %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	server := newTestServer(&stubStore{}, &stubScheduler{}, nil, "")

	rec := doRequest(server, "GET", "/metrics", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "# metrics" {
		t.Errorf("Expected metrics output, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestAPIDisabledWithoutKey(t *testing.T) {
	scheduler := &stubScheduler{}
	server := newTestServer(&stubStore{}, scheduler, nil, "")

	if rec := doRequest(server, "POST", "/api/refresh", nil); rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 when API is disabled, got %d", rec.Code)
	}
	if scheduler.triggers != 0 {
		t.Errorf("Expected no triggers, got %d", scheduler.triggers)
	}
}

func TestAPIAuthentication(t *testing.T) {
	server := newTestServer(&stubStore{}, &stubScheduler{}, nil, "secret")

	testCases := []struct {
		name     string
		headers  map[string]string
		expected int
	}{
		{"missing key", nil, http.StatusUnauthorized},
		{"wrong key", map[string]string{"X-API-Key": "nope"}, http.StatusUnauthorized},
		{"header key", map[string]string{"X-API-Key": "secret"}, http.StatusOK},
		{"bearer key", map[string]string{"Authorization": "Bearer secret"}, http.StatusOK},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if rec := doRequest(server, "GET", "/api/sources", tc.headers); rec.Code != tc.expected {
				t.Errorf("Expected status %d, got %d", tc.expected, rec.Code)
			}
		})
	}
}

func TestAPIRefresh(t *testing.T) {
	scheduler := &stubScheduler{}
	server := newTestServer(&stubStore{}, scheduler, nil, "secret")
	auth := map[string]string{"X-API-Key": "secret"}

	if rec := doRequest(server, "POST", "/api/refresh", auth); rec.Code != http.StatusAccepted {
		t.Fatalf("Expected 202, got %d", rec.Code)
	}
	if scheduler.triggers != 1 || len(scheduler.enqueued) != 0 {
		t.Errorf("Expected 1 trigger and no clear, got %d triggers %d enqueued", scheduler.triggers, len(scheduler.enqueued))
	}

	if rec := doRequest(server, "POST", "/api/refresh?full=true", auth); rec.Code != http.StatusAccepted {
		t.Fatalf("Expected 202, got %d", rec.Code)
	}
	if len(scheduler.enqueued) != 1 || scheduler.enqueued[0].GetType() != tasks.TaskTypeClearStore {
		t.Errorf("Expected clear task to be enqueued, got %v", scheduler.enqueued)
	}
}

func TestAPIRefreshQueueFull(t *testing.T) {
	server := newTestServer(&stubStore{}, &stubScheduler{err: errors.New("task queue is full")}, nil, "secret")

	if rec := doRequest(server, "POST", "/api/refresh", map[string]string{"X-API-Key": "secret"}); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503, got %d", rec.Code)
	}
}

func TestAPIReloadSource(t *testing.T) {
	server := newTestServer(&stubStore{}, &stubScheduler{}, nil, "secret")
	auth := map[string]string{"X-API-Key": "secret"}

	if rec := doRequest(server, "POST", "/api/sources/lenta/reload", auth); rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}
	if rec := doRequest(server, "POST", "/api/sources/unknown/reload", auth); rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rec.Code)
	}
}

package scraper

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lysyi3m/news-comb/app/database"
	"github.com/lysyi3m/news-comb/app/embedding"
	"github.com/lysyi3m/news-comb/app/feed"
	"github.com/lysyi3m/news-comb/app/metrics"
)

type ArticleFetcher interface {
	Fetch(ctx context.Context, url string) (*feed.Extracted, error)
}

type CandidateDiscoverer interface {
	Discover(ctx context.Context, source *feed.Config) ([]feed.Candidate, error)
}

type TopicClassifier interface {
	Classify(ctx context.Context, text string) string
}

// Result summarises one scrape of a source
type Result struct {
	Candidates int
	Stored     int
	Duplicates int
	Failed     int
}

type Scraper struct {
	discoverer  CandidateDiscoverer
	fetcher     ArticleFetcher
	classifier  TopicClassifier
	encoder     embedding.Encoder
	metrics     *metrics.Metrics
	workerCount int
}

func New(discoverer CandidateDiscoverer, fetcher ArticleFetcher, classifier TopicClassifier, encoder embedding.Encoder, m *metrics.Metrics, workerCount int) *Scraper {
	if workerCount <= 0 {
		workerCount = 1
	}

	return &Scraper{
		discoverer:  discoverer,
		fetcher:     fetcher,
		classifier:  classifier,
		encoder:     encoder,
		metrics:     m,
		workerCount: workerCount,
	}
}

// Scrape discovers the newest candidates of a source and stores the ones not
// seen before. It returns the number of newly stored articles.
func (s *Scraper) Scrape(ctx context.Context, source *feed.Config, sessions database.SessionFactory) (int, error) {
	result, err := s.ScrapeWithResult(ctx, source, sessions)
	return result.Stored, err
}

func (s *Scraper) ScrapeWithResult(ctx context.Context, source *feed.Config, sessions database.SessionFactory) (Result, error) {
	candidates, err := s.discoverer.Discover(ctx, source)
	if err != nil {
		s.metrics.RecordSourceError(source.Name)
		return Result{}, fmt.Errorf("failed to discover articles for %s: %w", source.Name, err)
	}

	slog.Info("Parsed last news", "source", source.Name, "count", len(candidates))

	jobs := make(chan feed.Candidate, len(candidates))
	for _, candidate := range candidates {
		jobs <- candidate
	}
	close(jobs)

	var stored, duplicates, failed atomic.Int64

	workers := min(s.workerCount, max(len(candidates), 1))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID, source, sessions, jobs, &stored, &duplicates, &failed)
		}(i)
	}
	wg.Wait()

	result := Result{
		Candidates: len(candidates),
		Stored:     int(stored.Load()),
		Duplicates: int(duplicates.Load()),
		Failed:     int(failed.Load()),
	}

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("scrape of %s interrupted: %w", source.Name, err)
	}

	return result, nil
}

func (s *Scraper) worker(ctx context.Context, workerID int, source *feed.Config, sessions database.SessionFactory, jobs <-chan feed.Candidate, stored, duplicates, failed *atomic.Int64) {
	session, err := sessions.Open(ctx)
	if err != nil {
		slog.Error("Failed to open session", "worker_id", workerID, "source", source.Name, "error", err)
	} else {
		defer session.Close()
	}

	for candidate := range jobs {
		if session == nil || ctx.Err() != nil {
			failed.Add(1)
			continue
		}

		start := time.Now()
		outcome := s.processCandidate(ctx, session.Articles(), source, candidate)
		s.metrics.RecordArticle(source.Name, outcome, time.Since(start))

		switch outcome {
		case metrics.OutcomeStored:
			stored.Add(1)
		case metrics.OutcomeDuplicate:
			duplicates.Add(1)
		default:
			failed.Add(1)
		}
	}
}

// processCandidate runs fetch, duplicate check, classification, encoding and
// insert for one candidate. Errors and panics end in OutcomeFailed.
func (s *Scraper) processCandidate(ctx context.Context, store database.ArticleStore, source *feed.Config, candidate feed.Candidate) (outcome string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Panic while processing article", "source", source.Name, "url", candidate.URL, "panic", r)
			outcome = metrics.OutcomeFailed
		}
	}()

	extracted, err := s.fetcher.Fetch(ctx, candidate.URL)
	if err != nil {
		slog.Error("Error scraping article", "url", candidate.URL, "error", err)
		return metrics.OutcomeFailed
	}

	url := cmp.Or(extracted.URL, candidate.URL)

	exists, err := store.Exists(ctx, url)
	if err != nil {
		slog.Error("Error checking article", "url", url, "error", err)
		return metrics.OutcomeFailed
	}
	if exists {
		slog.Info("Article already exists", "url", url)
		return metrics.OutcomeDuplicate
	}

	text := extracted.Field(source.TextField)

	topic := s.classifier.Classify(ctx, text)
	s.metrics.RecordClassification(topic)

	vector, err := s.encoder.Encode(ctx, text)
	if err != nil {
		slog.Error("Error encoding article", "url", url, "error", err)
		return metrics.OutcomeFailed
	}

	article := buildArticle(source, candidate, extracted, url, text, topic, vector)

	inserted, err := store.Insert(ctx, article)
	if err != nil {
		slog.Error("Error storing article", "url", url, "error", err)
		return metrics.OutcomeFailed
	}
	if !inserted {
		slog.Info("Article already exists", "url", url)
		return metrics.OutcomeDuplicate
	}

	slog.Info("Article stored successfully", "url", url, "topic", topic)
	return metrics.OutcomeStored
}

func buildArticle(source *feed.Config, candidate feed.Candidate, extracted *feed.Extracted, url, text, topic string, vector []float32) *database.Article {
	article := &database.Article{
		Title:     cmp.Or(extracted.Title, candidate.Title),
		Text:      text,
		Topic:     topic,
		URL:       url,
		Source:    cmp.Or(extracted.SourceURL, source.Name),
		Language:  extracted.MetaLang,
		Keywords:  extracted.AllKeywords(),
		Embedding: vector,
	}

	publishDate := extracted.PublishDate
	if publishDate == nil {
		publishDate = candidate.PublishedAt
	}
	if publishDate != nil {
		utc := publishDate.UTC()
		article.PublishDate = &utc
	}

	if extracted.Summary != "" {
		summary := extracted.Summary
		article.Summary = &summary
	}

	return article
}

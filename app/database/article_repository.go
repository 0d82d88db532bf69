package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// ArticleRepository handles database operations for news articles
type ArticleRepository struct {
	db Querier
}

// NewArticleRepository creates a new article repository
func NewArticleRepository(db Querier) *ArticleRepository {
	return &ArticleRepository{db: db}
}

// Exists reports whether an article with exactly this URL is stored
func (r *ArticleRepository) Exists(ctx context.Context, url string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM news_articles WHERE url = $1)`, url).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check article existence: %w", err)
	}
	return exists, nil
}

// Insert stores a new article. It returns false without error when an article
// with the same URL already exists, including when a concurrent insert won.
func (r *ArticleRepository) Insert(ctx context.Context, article *Article) (bool, error) {
	if article.URL == "" {
		return false, fmt.Errorf("article URL is required")
	}
	if utf8.RuneCountInString(article.URL) > maxURLLength {
		return false, fmt.Errorf("article URL exceeds %d characters", maxURLLength)
	}
	if utf8.RuneCountInString(article.Topic) > maxTopicLength {
		return false, fmt.Errorf("article topic exceeds %d characters", maxTopicLength)
	}

	keywords := article.Keywords
	if keywords == nil {
		keywords = []string{}
	}

	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO news_articles (
			title, text, topic, publish_date, url, source,
			keywords, summary, language, embedding
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (url) DO NOTHING
		RETURNING id
	`, truncate(article.Title, maxTitleLength), article.Text, article.Topic,
		nullTime(article.PublishDate), article.URL, truncate(article.Source, maxSourceLength),
		pq.Array(keywords), nullString(article.Summary), truncate(article.Language, maxLanguageLength),
		pq.Array(toFloat64(article.Embedding))).Scan(&id)

	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if isUniqueViolation(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to insert article: %w", err)
	}

	article.ID = id
	return true, nil
}

// RecentByTopic returns up to limit articles with the given topic, most recently published first
func (r *ArticleRepository) RecentByTopic(ctx context.Context, topic string, limit int) ([]Article, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, COALESCE(title, ''), COALESCE(text, ''), topic, publish_date, url,
		       COALESCE(source, ''), COALESCE(keywords, '{}'), summary,
		       COALESCE(language, ''), embedding, created_at
		FROM news_articles
		WHERE topic = $1
		ORDER BY publish_date DESC NULLS LAST, id DESC
		LIMIT $2
	`, topic, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent articles: %w", err)
	}
	defer rows.Close()

	articles := make([]Article, 0, limit)
	for rows.Next() {
		var article Article
		var publishDate sql.NullTime
		var summary sql.NullString
		var embedding []float64

		err := rows.Scan(
			&article.ID, &article.Title, &article.Text, &article.Topic, &publishDate, &article.URL,
			&article.Source, pq.Array(&article.Keywords), &summary,
			&article.Language, pq.Array(&embedding), &article.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article row: %w", err)
		}

		if publishDate.Valid {
			t := publishDate.Time
			article.PublishDate = &t
		}
		if summary.Valid {
			s := summary.String
			article.Summary = &s
		}
		article.Embedding = toFloat32(embedding)

		articles = append(articles, article)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating article rows: %w", err)
	}

	return articles, nil
}

// Clear removes every stored article and returns how many were deleted
func (r *ArticleRepository) Clear(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM news_articles`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear articles: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count cleared articles: %w", err)
	}

	return deleted, nil
}

// Count returns the total number of stored articles
func (r *ArticleRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM news_articles").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get article count: %w", err)
	}
	return count, nil
}

// CountByTopic returns the number of stored articles per topic
func (r *ArticleRepository) CountByTopic(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT topic, COUNT(*)
		FROM news_articles
		GROUP BY topic
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get article counts by topic: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var topic string
		var count int
		if err := rows.Scan(&topic, &count); err != nil {
			return nil, fmt.Errorf("failed to scan topic count row: %w", err)
		}
		counts[topic] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating topic count rows: %w", err)
	}

	return counts, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func toFloat64(v []float32) []float64 {
	if v == nil {
		return nil
	}
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

func toFloat32(v []float64) []float32 {
	if v == nil {
		return nil
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}

package database

import (
	"time"
)

const (
	maxTitleLength    = 500
	maxTopicLength    = 50
	maxURLLength      = 1000
	maxSourceLength   = 200
	maxLanguageLength = 10

	DefaultRecentLimit = 15
)

// Article represents a stored news article
type Article struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Text        string     `json:"text"`
	Topic       string     `json:"topic"`
	PublishDate *time.Time `json:"publish_date,omitempty"`
	URL         string     `json:"url"`
	Source      string     `json:"source"`
	Language    string     `json:"language"`
	Keywords    []string   `json:"keywords"`
	Summary     *string    `json:"summary,omitempty"`
	Embedding   []float32  `json:"embedding,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

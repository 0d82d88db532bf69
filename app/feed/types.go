package feed

import (
	"time"
)

// Discovery types

type Candidate struct {
	URL         string
	Title       string
	PublishedAt *time.Time
}

// Extracted holds the fields parsed out of a single article page.
// Absent fields are left at their zero value.
type Extracted struct {
	URL          string
	SourceURL    string
	Title        string
	Text         string
	Content      string // readable HTML
	Summary      string
	Description  string
	PublishDate  *time.Time
	MetaLang     string
	Keywords     []string
	MetaKeywords []string
}

// Configuration types

type Config struct {
	Name      string         // Derived from filename (without .yml extension)
	URL       string         `yaml:"url"`
	TextField string         `yaml:"text_field"`
	Settings  ConfigSettings `yaml:"settings"`
	Filters   []ConfigFilter `yaml:"filters"`
}

type ConfigSettings struct {
	Enabled     bool `yaml:"enabled"`
	Order       int  `yaml:"order"`
	MaxArticles int  `yaml:"max_articles"`
	Timeout     int  `yaml:"timeout"` // seconds
}

type ConfigFilter struct {
	Field    string   `yaml:"field"`
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}

func (c *Config) GetTimeout() time.Duration {
	return time.Duration(c.Settings.Timeout) * time.Second
}

package feed

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	"github.com/go-shiori/go-readability"
	"golang.org/x/text/language"
)

var publishDateSelectors = []struct {
	selector string
	attr     string
}{
	{"meta[property='article:published_time']", "content"},
	{"meta[property='og:published_time']", "content"},
	{"meta[name='pubdate']", "content"},
	{"meta[name='publishdate']", "content"},
	{"meta[name='date']", "content"},
	{"meta[itemprop='datePublished']", "content"},
	{"[itemprop='datePublished']", "datetime"},
	{"time[datetime]", "datetime"},
}

type ContentExtractor struct{}

func NewContentExtractor() *ContentExtractor {
	return &ContentExtractor{}
}

// Run parses an article page into its title, body text and metadata
func (e *ContentExtractor) Run(pageURL string, data []byte) (*Extracted, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("HTML data is empty")
	}

	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page URL: %w", err)
	}

	article, err := readability.FromReader(bytes.NewReader(data), parsedURL)
	if err != nil {
		return nil, fmt.Errorf("failed to extract content: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	extracted := &Extracted{
		URL:          pageURL,
		SourceURL:    sourceURL(parsedURL),
		Title:        strings.TrimSpace(article.Title),
		Text:         strings.TrimSpace(article.TextContent),
		Content:      strings.TrimSpace(article.Content),
		Description:  metaContent(doc, "meta[name='description']", "meta[property='og:description']"),
		PublishDate:  extractPublishDate(doc),
		MetaLang:     extractLanguage(doc),
		Keywords:     extractKeywords(doc),
		MetaKeywords: splitKeywords(metaContent(doc, "meta[name='keywords']")),
	}

	extracted.Summary = strings.TrimSpace(article.Excerpt)
	if extracted.Summary == "" {
		extracted.Summary = extracted.Description
	}
	if extracted.Title == "" {
		extracted.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	if extracted.Text == "" && extracted.Title == "" {
		return nil, fmt.Errorf("no content extracted from HTML data")
	}

	slog.Debug("Content extracted successfully",
		"url", pageURL,
		"title", extracted.Title,
		"text_length", len(extracted.Text))

	return extracted, nil
}

// Field returns the value of a named body field, or "" for unknown names
func (e *Extracted) Field(name string) string {
	switch name {
	case "text":
		return e.Text
	case "content":
		return e.Content
	case "summary":
		return e.Summary
	case "description":
		return e.Description
	case "title":
		return e.Title
	default:
		return ""
	}
}

// AllKeywords concatenates keywords and meta keywords, keeping their order
func (e *Extracted) AllKeywords() []string {
	keywords := make([]string, 0, len(e.Keywords)+len(e.MetaKeywords))
	keywords = append(keywords, e.Keywords...)
	keywords = append(keywords, e.MetaKeywords...)
	return keywords
}

func sourceURL(u *url.URL) string {
	if u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

func metaContent(doc *goquery.Document, selectors ...string) string {
	for _, selector := range selectors {
		if content, exists := doc.Find(selector).First().Attr("content"); exists {
			if content = strings.TrimSpace(content); content != "" {
				return content
			}
		}
	}
	return ""
}

func extractPublishDate(doc *goquery.Document) *time.Time {
	for _, candidate := range publishDateSelectors {
		value, exists := doc.Find(candidate.selector).First().Attr(candidate.attr)
		if !exists || strings.TrimSpace(value) == "" {
			continue
		}

		parsed, err := dateparse.ParseIn(strings.TrimSpace(value), time.UTC)
		if err != nil {
			slog.Debug("Unparsable publish date", "selector", candidate.selector, "value", value)
			continue
		}

		utc := parsed.UTC()
		return &utc
	}
	return nil
}

func extractLanguage(doc *goquery.Document) string {
	if lang, exists := doc.Find("html").First().Attr("lang"); exists {
		if normalized := normalizeLanguage(lang); normalized != "" {
			return normalized
		}
	}

	return normalizeLanguage(metaContent(doc,
		"meta[http-equiv='content-language']",
		"meta[http-equiv='Content-Language']",
		"meta[property='og:locale']"))
}

// normalizeLanguage reduces a language tag such as "ru-RU" or "en_US" to its base language
func normalizeLanguage(raw string) string {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, "_", "-"))
	if raw == "" {
		return ""
	}

	tag, err := language.Parse(raw)
	if err != nil {
		return ""
	}

	base, _ := tag.Base()
	if base.String() == "und" {
		return ""
	}
	return base.String()
}

func extractKeywords(doc *goquery.Document) []string {
	keywords := splitKeywords(metaContent(doc, "meta[name='news_keywords']"))

	doc.Find("meta[property='article:tag']").Each(func(_ int, s *goquery.Selection) {
		if tag := strings.TrimSpace(s.AttrOr("content", "")); tag != "" {
			keywords = append(keywords, tag)
		}
	})

	return keywords
}

func splitKeywords(raw string) []string {
	if raw == "" {
		return nil
	}

	var keywords []string
	for _, keyword := range strings.Split(raw, ",") {
		if keyword = strings.TrimSpace(keyword); keyword != "" {
			keywords = append(keywords, keyword)
		}
	}
	return keywords
}

package feed

import (
	"bytes"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var skippedExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".svg": true, ".webp": true,
	".css": true, ".js": true, ".pdf": true, ".xml": true, ".rss": true, ".ico": true,
	".mp3": true, ".mp4": true, ".zip": true,
}

// LinkExtractor discovers article links on HTML listing pages that are not feeds
type LinkExtractor struct{}

func NewLinkExtractor() *LinkExtractor {
	return &LinkExtractor{}
}

// Run returns same-host links that look like article pages, in document order
func (e *LinkExtractor) Run(pageURL string, data []byte) ([]Candidate, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page URL: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var candidates []Candidate
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		link, ok := e.resolve(base, href)
		if !ok {
			return
		}

		candidates = append(candidates, Candidate{
			URL:   link,
			Title: strings.Join(strings.Fields(s.Text()), " "),
		})
	})

	return candidates, nil
}

func (e *LinkExtractor) resolve(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}

	link := base.ResolveReference(ref)
	if link.Scheme != "http" && link.Scheme != "https" {
		return "", false
	}
	if !strings.EqualFold(strings.TrimPrefix(link.Hostname(), "www."), strings.TrimPrefix(base.Hostname(), "www.")) {
		return "", false
	}

	link.Fragment = ""
	if !e.looksLikeArticle(link.Path) {
		return "", false
	}

	return link.String(), true
}

func (e *LinkExtractor) looksLikeArticle(p string) bool {
	if skippedExtensions[strings.ToLower(path.Ext(p))] {
		return false
	}

	segments := strings.FieldsFunc(p, func(r rune) bool { return r == '/' })
	if len(segments) == 0 {
		return false
	}
	if len(segments) >= 2 {
		return true
	}

	return strings.Contains(segments[0], "-") || strings.ContainsAny(segments[0], "0123456789")
}

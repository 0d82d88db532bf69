package feed

import (
	"bytes"
	"cmp"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"
)

type Parser struct {
	gofeedParser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
	}
}

// Run parses an RSS, Atom or JSON feed and returns its entries as candidates in feed order
func (p *Parser) Run(data []byte) ([]Candidate, error) {
	feed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	candidates := make([]Candidate, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}

		candidate, ok := p.normalizeItem(item)
		if !ok {
			continue
		}
		candidates = append(candidates, candidate)
	}

	return candidates, nil
}

func (p *Parser) normalizeItem(item *gofeed.Item) (Candidate, bool) {
	link := strings.TrimSpace(cmp.Or(item.Link, firstLink(item.Links)))
	if link == "" && isURL(item.GUID) {
		link = strings.TrimSpace(item.GUID)
	}
	if link == "" {
		return Candidate{}, false
	}

	candidate := Candidate{
		URL:   link,
		Title: strings.TrimSpace(item.Title),
	}

	if item.PublishedParsed != nil {
		published := item.PublishedParsed.UTC()
		candidate.PublishedAt = &published
	}

	return candidate, true
}

func firstLink(links []string) string {
	for _, link := range links {
		if link != "" {
			return link
		}
	}
	return ""
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

package feed

import (
	"context"
	"fmt"
	"log/slog"
)

const DefaultMaxArticles = 5

type Discoverer struct {
	fetcher       *Fetcher
	parser        *Parser
	linkExtractor *LinkExtractor
	filterer      *Filterer
}

func NewDiscoverer(fetcher *Fetcher, parser *Parser, linkExtractor *LinkExtractor, filterer *Filterer) *Discoverer {
	return &Discoverer{
		fetcher:       fetcher,
		parser:        parser,
		linkExtractor: linkExtractor,
		filterer:      filterer,
	}
}

// Discover lists candidate article URLs for a source. The source URL is read
// as a feed first and as an HTML listing page when it is not one. The result
// is filtered, de-duplicated and capped at the source's max articles.
func (d *Discoverer) Discover(ctx context.Context, source *Config) ([]Candidate, error) {
	if source.Settings.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, source.GetTimeout())
		defer cancel()
	}

	data, _, err := d.fetcher.Get(ctx, source.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch source: %w", err)
	}

	candidates, err := d.parser.Run(data)
	if err != nil {
		slog.Debug("Source is not a feed, extracting links", "source", source.Name, "error", err)

		candidates, err = d.linkExtractor.Run(source.URL, data)
		if err != nil {
			return nil, fmt.Errorf("failed to extract links: %w", err)
		}
	}

	total := len(candidates)
	candidates = d.filterer.Run(candidates, source)
	candidates = dedupe(candidates)

	limit := source.Settings.MaxArticles
	if limit <= 0 {
		limit = DefaultMaxArticles
	}
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	slog.Debug("Candidates discovered", "source", source.Name, "total", total, "selected", len(candidates))

	return candidates, nil
}

func dedupe(candidates []Candidate) []Candidate {
	seen := make(map[string]bool, len(candidates))
	unique := make([]Candidate, 0, len(candidates))
	for _, candidate := range candidates {
		if seen[candidate.URL] {
			continue
		}
		seen[candidate.URL] = true
		unique = append(unique, candidate)
	}
	return unique
}

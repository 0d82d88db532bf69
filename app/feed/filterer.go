package feed

import (
	"fmt"
	"log/slog"
	"strings"
)

var validFilterFields = map[string]bool{
	"title": true,
	"link":  true,
}

type Filterer struct{}

func NewFilterer() *Filterer {
	return &Filterer{}
}

// Run drops candidates rejected by the source filters, preserving order
func (f *Filterer) Run(candidates []Candidate, sourceConfig *Config) []Candidate {
	if len(sourceConfig.Filters) == 0 {
		return candidates
	}

	kept := make([]Candidate, 0, len(candidates))
	for _, candidate := range candidates {
		if rejected, reason := f.applyFilters(candidate, sourceConfig.Filters); rejected {
			slog.Debug("Candidate filtered", "source", sourceConfig.Name, "url", candidate.URL, "reason", reason)
			continue
		}
		kept = append(kept, candidate)
	}

	return kept
}

func (f *Filterer) applyFilters(candidate Candidate, filters []ConfigFilter) (bool, string) {
	for _, filter := range filters {
		value := f.getFieldValue(candidate, filter.Field)

		for _, exclude := range filter.Excludes {
			if f.matchesFilter(value, exclude) {
				return true, fmt.Sprintf("Excluded by %s filter: contains '%s'", filter.Field, exclude)
			}
		}

		if len(filter.Includes) > 0 {
			matched := false
			for _, include := range filter.Includes {
				if f.matchesFilter(value, include) {
					matched = true
					break
				}
			}
			if !matched {
				return true, fmt.Sprintf("Excluded by %s filter: does not contain any of %v", filter.Field, filter.Includes)
			}
		}
	}

	return false, ""
}

func (f *Filterer) matchesFilter(value, pattern string) bool {
	return strings.Contains(strings.ToLower(value), strings.ToLower(pattern))
}

func (f *Filterer) getFieldValue(candidate Candidate, field string) string {
	switch field {
	case "title":
		return candidate.Title
	case "link":
		return candidate.URL
	default:
		return ""
	}
}

package config

import "slices"

// Contains reports whether label is one of the configured topics
func (c *TopicConfig) Contains(label string) bool {
	return slices.Contains(c.Topics, label)
}

// IsKnown reports whether label is a configured topic or the fallback label
func (c *TopicConfig) IsKnown(label string) bool {
	return label == c.Fallback || c.Contains(label)
}

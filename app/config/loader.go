package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads, defaults and validates the topics file
func Load(path string) (*TopicConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	config, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("invalid topics file %s: %w", path, err)
	}

	slog.Debug("Topics loaded", "file", path, "topics", len(config.Topics), "examples", len(config.Examples))

	return config, nil
}

// Parse decodes a topics document and validates it
func Parse(data []byte) (*TopicConfig, error) {
	var config TopicConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	setDefaults(&config)

	if err := validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults applies default values to configuration
func setDefaults(config *TopicConfig) {
	for i, topic := range config.Topics {
		config.Topics[i] = strings.TrimSpace(topic)
	}
	config.Fallback = strings.TrimSpace(config.Fallback)
	if config.Fallback == "" {
		config.Fallback = DefaultFallback
	}
}

// validate validates the configuration
func validate(config *TopicConfig) error {
	if len(config.Topics) == 0 {
		return fmt.Errorf("at least one topic is required")
	}

	seen := make(map[string]bool, len(config.Topics))
	for i, topic := range config.Topics {
		if topic == "" {
			return fmt.Errorf("topic at index %d is empty", i)
		}
		if seen[topic] {
			return fmt.Errorf("duplicate topic: %s", topic)
		}
		seen[topic] = true
	}

	for i, example := range config.Examples {
		if strings.TrimSpace(example.Text) == "" {
			return fmt.Errorf("example at index %d has no text", i)
		}
		if !seen[example.Category] && example.Category != config.Fallback {
			return fmt.Errorf("example at index %d has unknown category: %s", i, example.Category)
		}
	}

	return nil
}

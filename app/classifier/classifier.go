package classifier

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lysyi3m/news-comb/app/config"
)

const DefaultMaxAttempts = 3

// Generator produces a completion for a prompt
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Classifier struct {
	topics      *config.TopicConfig
	generator   Generator
	maxAttempts int
	timeout     time.Duration
}

func New(topics *config.TopicConfig, generator Generator, maxAttempts int, timeout time.Duration) *Classifier {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	return &Classifier{
		topics:      topics,
		generator:   generator,
		maxAttempts: maxAttempts,
		timeout:     timeout,
	}
}

// Classify returns a configured topic for text, or the fallback label once
// all attempts are used up. It never fails.
func (c *Classifier) Classify(ctx context.Context, text string) string {
	prompt := BuildPrompt(c.topics, text)

	topic, failures := Retry(ctx, func(ctx context.Context, attempt int) (string, error) {
		return c.generate(ctx, prompt)
	}, c.topics.Contains, c.maxAttempts, c.topics.Fallback)

	for _, failure := range failures {
		slog.Warn("Classification attempt failed", "error", failure)
	}

	if !c.topics.Contains(topic) {
		slog.Warn("Failed to classify, using fallback", "attempts", len(failures), "fallback", topic)
	}

	return topic
}

func (c *Classifier) Topics() *config.TopicConfig {
	return c.topics
}

func (c *Classifier) generate(ctx context.Context, prompt string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	answer, err := c.generator.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to generate topic: %w", err)
	}

	return strings.TrimSpace(answer), nil
}

package config

// DefaultFallback is the label returned when classification cannot settle on a configured topic
const DefaultFallback = "Другое"

// TopicConfig represents the classification topic set loaded from the topics file
type TopicConfig struct {
	Topics   []string  `yaml:"topics"`
	Fallback string    `yaml:"fallback"`
	Examples []Example `yaml:"examples"`
}

// Example is a labeled text used as a few-shot exemplar in the classification prompt
type Example struct {
	Text     string `yaml:"text"`
	Category string `yaml:"category"`
}

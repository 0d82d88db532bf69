package cfg

import "time"

type Cfg struct {
	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Application configuration
	SourcesDir        string
	TopicsFile        string
	Port              string
	BaseUrl           string
	WorkerCount       int
	SchedulerInterval int
	FullRefresh       bool
	FirstRunFlag      string
	MaxArticles       int
	APIAccessKey      string

	// Fetching
	FetchTimeout int
	FetchRate    float64

	// Classifier
	OllamaURL             string
	ClassifierModel       string
	ClassifierTemperature float64
	ClassifierMaxAttempts int
	ClassifyTimeout       int

	// Embeddings
	EmbeddingModel   string
	EmbeddingDims    int
	EmbeddingTimeout int

	// Cache
	RedisAddr string
	CacheTTL  int

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}

func (c *Cfg) GetSchedulerInterval() time.Duration {
	return time.Duration(c.SchedulerInterval) * time.Second
}

func (c *Cfg) GetFetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeout) * time.Second
}

func (c *Cfg) GetClassifyTimeout() time.Duration {
	return time.Duration(c.ClassifyTimeout) * time.Second
}

func (c *Cfg) GetEmbeddingTimeout() time.Duration {
	return time.Duration(c.EmbeddingTimeout) * time.Second
}

func (c *Cfg) GetCacheTTL() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Database configuration
	DBHost     string `long:"db-host" env:"DB_HOST" default:"localhost" description:"Database host"`
	DBPort     string `long:"db-port" env:"DB_PORT" default:"5432" description:"Database port"`
	DBUser     string `long:"db-user" env:"DB_USER" default:"news_user" description:"Database user"`
	DBPassword string `long:"db-password" env:"DB_PASSWORD" description:"Database password (required)" required:"true"`
	DBName     string `long:"db-name" env:"DB_NAME" default:"news_comb" description:"Database name"`
	DBSSLMode  string `long:"db-sslmode" env:"DB_SSLMODE" default:"disable" description:"Database SSL mode"`

	// Application configuration
	SourcesDir        string `long:"sources-dir" env:"SOURCES_DIR" default:"./sources" description:"Directory containing news source configuration files"`
	TopicsFile        string `long:"topics-file" env:"TOPICS_FILE" default:"./topics.yml" description:"Topic set and few-shot examples for classification"`
	Port              string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BaseUrl           string `long:"base-url" env:"BASE_URL" description:"Public base URL for the service (e.g., https://news.example.com)"`
	WorkerCount       int    `long:"worker-count" env:"WORKER_COUNT" default:"1" description:"Number of parallel workers per source scrape"`
	SchedulerInterval int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"3600" description:"Update cycle interval in seconds"`
	FullRefresh       bool   `long:"full-refresh" env:"FULL_REFRESH" description:"Clear all stored articles before the first update cycle"`
	FirstRunFlag      string `long:"first-run-flag" env:"FIRST_RUN_FLAG" default:".first_run" description:"Flag file marking that the one-time initial clear already happened (empty to disable)"`
	MaxArticles       int    `long:"max-articles" env:"MAX_ARTICLES" default:"5" description:"Default maximum number of candidate articles per source"`
	APIAccessKey      string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Fetching
	FetchTimeout int     `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"30" description:"Per-request fetch timeout in seconds"`
	FetchRate    float64 `long:"fetch-rate" env:"FETCH_RATE" default:"2" description:"Maximum upstream requests per second (0 disables limiting)"`

	// Classifier
	OllamaURL             string  `long:"ollama-url" env:"OLLAMA_URL" default:"http://localhost:11434" description:"Ollama API base URL"`
	ClassifierModel       string  `long:"classifier-model" env:"CLASSIFIER_MODEL" default:"llama2" description:"LLM model used for topic classification"`
	ClassifierTemperature float64 `long:"classifier-temperature" env:"CLASSIFIER_TEMPERATURE" default:"0" description:"LLM sampling temperature"`
	ClassifierMaxAttempts int     `long:"classifier-max-attempts" env:"CLASSIFIER_MAX_ATTEMPTS" default:"3" description:"Maximum classification attempts before falling back"`
	ClassifyTimeout       int     `long:"classify-timeout" env:"CLASSIFY_TIMEOUT" default:"60" description:"Per-attempt classification timeout in seconds"`

	// Embeddings
	EmbeddingModel   string `long:"embedding-model" env:"EMBEDDING_MODEL" default:"mxbai-embed-large" description:"Embedding model name"`
	EmbeddingDims    int    `long:"embedding-dims" env:"EMBEDDING_DIMS" default:"1024" description:"Embedding vector length"`
	EmbeddingTimeout int    `long:"embedding-timeout" env:"EMBEDDING_TIMEOUT" default:"30" description:"Embedding request timeout in seconds"`

	// Cache
	RedisAddr string `long:"redis-addr" env:"REDIS_ADDR" description:"Redis address for caching topic listings (optional)"`
	CacheTTL  int    `long:"cache-ttl" env:"CACHE_TTL" default:"300" description:"Topic listing cache TTL in seconds"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"News Comb/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, Europe/Moscow)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	return load(nil)
}

func load(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	var err error
	if args == nil {
		_, err = parser.Parse()
	} else {
		_, err = parser.ParseArgs(args)
	}
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBHost:                raw.DBHost,
		DBPort:                raw.DBPort,
		DBUser:                raw.DBUser,
		DBPassword:            raw.DBPassword,
		DBName:                raw.DBName,
		DBSSLMode:             raw.DBSSLMode,
		SourcesDir:            raw.SourcesDir,
		TopicsFile:            raw.TopicsFile,
		Port:                  raw.Port,
		BaseUrl:               raw.BaseUrl,
		WorkerCount:           raw.WorkerCount,
		SchedulerInterval:     raw.SchedulerInterval,
		FullRefresh:           raw.FullRefresh,
		FirstRunFlag:          raw.FirstRunFlag,
		MaxArticles:           raw.MaxArticles,
		APIAccessKey:          raw.APIAccessKey,
		FetchTimeout:          raw.FetchTimeout,
		FetchRate:             raw.FetchRate,
		OllamaURL:             raw.OllamaURL,
		ClassifierModel:       raw.ClassifierModel,
		ClassifierTemperature: raw.ClassifierTemperature,
		ClassifierMaxAttempts: raw.ClassifierMaxAttempts,
		ClassifyTimeout:       raw.ClassifyTimeout,
		EmbeddingModel:        raw.EmbeddingModel,
		EmbeddingDims:         raw.EmbeddingDims,
		EmbeddingTimeout:      raw.EmbeddingTimeout,
		RedisAddr:             raw.RedisAddr,
		CacheTTL:              raw.CacheTTL,
		UserAgent:             raw.UserAgent,
		Timezone:              raw.Timezone,
		Debug:                 raw.Debug,
		Version:               GetVersion(),
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func validate(cfg *Cfg) error {
	requiredFields := map[string]string{
		"database password": cfg.DBPassword,
		"sources dir":       cfg.SourcesDir,
		"topics file":       cfg.TopicsFile,
		"ollama URL":        cfg.OllamaURL,
		"classifier model":  cfg.ClassifierModel,
		"embedding model":   cfg.EmbeddingModel,
	}

	for fieldName, fieldValue := range requiredFields {
		if fieldValue == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
	}

	positiveFields := map[string]int{
		"worker count":            cfg.WorkerCount,
		"scheduler interval":      cfg.SchedulerInterval,
		"max articles":            cfg.MaxArticles,
		"fetch timeout":           cfg.FetchTimeout,
		"classifier max attempts": cfg.ClassifierMaxAttempts,
		"classify timeout":        cfg.ClassifyTimeout,
		"embedding dims":          cfg.EmbeddingDims,
		"embedding timeout":       cfg.EmbeddingTimeout,
		"cache TTL":               cfg.CacheTTL,
	}

	for fieldName, fieldValue := range positiveFields {
		if fieldValue <= 0 {
			return fmt.Errorf("%s must be positive", fieldName)
		}
	}

	if cfg.FetchRate < 0 {
		return fmt.Errorf("fetch rate must be non-negative")
	}

	if cfg.ClassifierTemperature < 0 || cfg.ClassifierTemperature > 2 {
		return fmt.Errorf("classifier temperature must be between 0 and 2")
	}

	return nil
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}

// Package config loads litscreen settings from a YAML file.
//
// Values missing from the file take their defaults, and a handful of
// LITSCREEN_* environment variables override the file so the CLI can be
// pointed at another database or model without editing it.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/poiesic/litscreen/ai"
	"github.com/poiesic/litscreen/classify"
	"github.com/poiesic/litscreen/embedding"
	"github.com/poiesic/litscreen/refine"
	"gopkg.in/yaml.v3"
)

// Environment variables that override the file.
const (
	EnvDatabase       = "LITSCREEN_DB"
	EnvBackend        = "LITSCREEN_BACKEND"
	EnvOracleHost     = "LITSCREEN_ORACLE_HOST"
	EnvOracleModel    = "LITSCREEN_ORACLE_MODEL"
	EnvEmbeddingHost  = "LITSCREEN_EMBEDDING_HOST"
	EnvEmbeddingModel = "LITSCREEN_EMBEDDING_MODEL"
)

type Config struct {
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	AI struct {
		Backend        string  `yaml:"backend"`
		OracleHost     string  `yaml:"oracle_host"`
		OracleModel    string  `yaml:"oracle_model"`
		EmbeddingHost  string  `yaml:"embedding_host"`
		EmbeddingModel string  `yaml:"embedding_model"`
		Temperature    float64 `yaml:"temperature"`
		Seed           int     `yaml:"seed"`
		MaxTokens      int     `yaml:"max_tokens"`
	} `yaml:"ai"`

	Refine struct {
		Template string        `yaml:"template"`
		Timeout  time.Duration `yaml:"timeout"`
	} `yaml:"refine"`

	Search struct {
		Limit int `yaml:"limit"`
	} `yaml:"search"`

	Embedding struct {
		Workers        int           `yaml:"workers"`
		Normalize      *bool         `yaml:"normalize"`
		RateLimit      float64       `yaml:"rate_limit"`
		ReportInterval int           `yaml:"report_interval"`
		MaxRetries     int           `yaml:"max_retries"`
		RetryDelay     time.Duration `yaml:"retry_delay"`
	} `yaml:"embedding"`

	Classify struct {
		WordLimit     int               `yaml:"word_limit"`
		SummaryWindow int               `yaml:"summary_window"`
		SummaryWords  int               `yaml:"summary_words"`
		CharBudget    int               `yaml:"char_budget"`
		Repair        bool              `yaml:"repair"`
		RateLimit     float64           `yaml:"rate_limit"`
		Criteria      classify.Criteria `yaml:"criteria"`
	} `yaml:"classify"`
}

// Locations returns the files LoadConfig tries, in order, when given no path.
func Locations() []string {
	locations := []string{"litscreen.yaml", "litscreen.yml"}
	if home, err := os.UserHomeDir(); err == nil {
		locations = append(locations, filepath.Join(home, ".config", "litscreen", "config.yaml"))
	}
	return append(locations, "/etc/litscreen/config.yaml")
}

// LoadConfig reads path, or the first existing default location when path
// is empty. With no file at all the defaults are used. Defaults fill unset
// values, environment variables override, and the result is validated.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		for _, loc := range Locations() {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	var config Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("error parsing config file %s: %w", path, err)
		}
	}

	applyDefaults(&config)
	mergeWithEnv(&config)

	if errs := config.Validate(); len(errs) > 0 {
		return nil, joinErrors(errs)
	}
	return &config, nil
}

// Default returns the configuration used when no file exists, without
// environment overrides.
func Default() *Config {
	config := &Config{}
	applyDefaults(config)
	return config
}

func applyDefaults(config *Config) {
	if config.Database.Path == "" {
		config.Database.Path = "litscreen.db"
	}

	defaults := ai.DefaultConfig()
	if config.AI.Backend == "" {
		config.AI.Backend = string(defaults.Backend)
	}
	if config.AI.OracleHost == "" {
		config.AI.OracleHost = defaults.OracleHost
	}
	if config.AI.OracleModel == "" {
		config.AI.OracleModel = defaults.OracleModel
	}
	if config.AI.EmbeddingHost == "" {
		config.AI.EmbeddingHost = defaults.EmbeddingHost
	}
	if config.AI.EmbeddingModel == "" {
		config.AI.EmbeddingModel = defaults.EmbeddingModel
	}
	if config.AI.Temperature == 0 {
		config.AI.Temperature = defaults.Temperature
	}
	if config.AI.Seed == 0 {
		config.AI.Seed = defaults.Seed
	}

	if config.Refine.Template == "" {
		config.Refine.Template = string(refine.ZeroShot)
	}
	if config.Refine.Timeout == 0 {
		config.Refine.Timeout = refine.DefaultTimeout
	}

	if config.Search.Limit == 0 {
		config.Search.Limit = 20
	}

	embed := embedding.DefaultConfig()
	if config.Embedding.Workers == 0 {
		config.Embedding.Workers = embed.Workers
	}
	if config.Embedding.Normalize == nil {
		normalize := embed.Normalize
		config.Embedding.Normalize = &normalize
	}
	if config.Embedding.ReportInterval == 0 {
		config.Embedding.ReportInterval = embed.ReportInterval
	}
	if config.Embedding.MaxRetries == 0 {
		config.Embedding.MaxRetries = embed.MaxRetries
	}
	if config.Embedding.RetryDelay == 0 {
		config.Embedding.RetryDelay = embed.RetryDelay
	}

	cls := classify.DefaultConfig()
	if config.Classify.WordLimit == 0 {
		config.Classify.WordLimit = cls.WordLimit
	}
	if config.Classify.SummaryWindow == 0 {
		config.Classify.SummaryWindow = cls.SummaryWindow
	}
	if config.Classify.SummaryWords == 0 {
		config.Classify.SummaryWords = cls.SummaryWords
	}
	if config.Classify.CharBudget == 0 {
		config.Classify.CharBudget = cls.CharBudget
	}
	if strings.TrimSpace(config.Classify.Criteria.Subject) == "" {
		config.Classify.Criteria.Subject = cls.Criteria.Subject
	}
	if len(config.Classify.Criteria.Exclusion) == 0 {
		config.Classify.Criteria.Exclusion = cls.Criteria.Exclusion
	}
	if len(config.Classify.Criteria.Inclusion) == 0 {
		config.Classify.Criteria.Inclusion = cls.Criteria.Inclusion
	}
}

func mergeWithEnv(config *Config) {
	if v := os.Getenv(EnvDatabase); v != "" {
		config.Database.Path = v
	}
	if v := os.Getenv(EnvBackend); v != "" {
		config.AI.Backend = v
	}
	if v := os.Getenv(EnvOracleHost); v != "" {
		config.AI.OracleHost = v
	}
	if v := os.Getenv(EnvOracleModel); v != "" {
		config.AI.OracleModel = v
	}
	if v := os.Getenv(EnvEmbeddingHost); v != "" {
		config.AI.EmbeddingHost = v
	}
	if v := os.Getenv(EnvEmbeddingModel); v != "" {
		config.AI.EmbeddingModel = v
	}
}

// AIConfig converts the ai section into an ai.Config.
func (c *Config) AIConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithBackend(ai.Backend(c.AI.Backend)),
		ai.WithOracleHost(c.AI.OracleHost),
		ai.WithOracleModel(c.AI.OracleModel),
		ai.WithEmbeddingHost(c.AI.EmbeddingHost),
		ai.WithEmbeddingModel(c.AI.EmbeddingModel),
		ai.WithTemperature(c.AI.Temperature),
		ai.WithSeed(c.AI.Seed),
		ai.WithMaxTokens(c.AI.MaxTokens),
	)
}

// EmbeddingConfig converts the embedding section into an embedding.Config.
func (c *Config) EmbeddingConfig() *embedding.Config {
	cfg := embedding.DefaultConfig()
	cfg.Workers = c.Embedding.Workers
	if c.Embedding.Normalize != nil {
		cfg.Normalize = *c.Embedding.Normalize
	}
	cfg.RateLimit = c.Embedding.RateLimit
	cfg.ReportInterval = c.Embedding.ReportInterval
	cfg.MaxRetries = c.Embedding.MaxRetries
	cfg.RetryDelay = c.Embedding.RetryDelay
	return cfg
}

// ClassifyConfig converts the classify section into a classify.Config.
func (c *Config) ClassifyConfig() *classify.Config {
	return &classify.Config{
		WordLimit:     c.Classify.WordLimit,
		SummaryWindow: c.Classify.SummaryWindow,
		SummaryWords:  c.Classify.SummaryWords,
		CharBudget:    c.Classify.CharBudget,
		Criteria:      c.Classify.Criteria,
		RateLimit:     c.Classify.RateLimit,
	}
}

func joinErrors(errs []ValidationError) error {
	wrapped := make([]error, 0, len(errs)+1)
	wrapped = append(wrapped, ErrInvalidConfig)
	for _, e := range errs {
		wrapped = append(wrapped, e)
	}
	return errors.Join(wrapped...)
}

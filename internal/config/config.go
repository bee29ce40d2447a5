// ABOUTME: Centralized configuration for the docquery pipeline and commands
// ABOUTME: Layers defaults, an optional YAML file, and environment variables
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// Provider names accepted by the llm client factory.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// Config holds all configuration for the docquery system
type Config struct {
	// LLM settings
	Provider        string
	BaseURL         string
	APIKey          string
	EmbeddingModel  string
	GenerationModel string
	Timeout         time.Duration
	MaxRetries      int
	RetryDelay      time.Duration

	// Indexing settings
	DocsFolder   string
	ChunkSize    int
	ChunkOverlap int
	Workers      int
	CacheSize    int

	// Query settings
	TopK int

	// History settings
	HistoryEnabled bool
	HistoryPath    string
}

// Default returns the built-in configuration. BaseURL is left empty so each
// provider client can fall back to its own default endpoint.
func Default() *Config {
	return &Config{
		Provider:        ProviderOllama,
		EmbeddingModel:  "nomic-embed-text",
		GenerationModel: "llama3.2",
		Timeout:         5 * time.Minute,
		MaxRetries:      3,
		RetryDelay:      500 * time.Millisecond,
		DocsFolder:      "docs",
		ChunkSize:       200,
		ChunkOverlap:    20,
		Workers:         4,
		CacheSize:       512,
		TopK:            3,
		HistoryEnabled:  true,
	}
}

// DefaultPath is where Load looks for a config file when none is given.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "docquery", "config.yaml")
}

// Load builds the configuration from defaults, then the YAML file at path,
// then environment variables. An explicitly given path must exist; the
// default path is skipped silently when absent. DOCQUERY_CONFIG names a
// file the same way the path argument does.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("DOCQUERY_CONFIG")
	}
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if err := cfg.applyFile(path, explicit); err != nil {
		return nil, err
	}
	cfg.applyEnv()

	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	if c.Provider != ProviderOllama && c.Provider != ProviderOpenAI {
		return fmt.Errorf("DOCQUERY_PROVIDER must be %s or %s, got %q", ProviderOllama, ProviderOpenAI, c.Provider)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("DOCQUERY_CHUNK_SIZE must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 {
		return fmt.Errorf("DOCQUERY_CHUNK_OVERLAP must not be negative, got %d", c.ChunkOverlap)
	}
	if c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("DOCQUERY_CHUNK_OVERLAP must be smaller than DOCQUERY_CHUNK_SIZE, got %d >= %d", c.ChunkOverlap, c.ChunkSize)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("DOCQUERY_TOP_K must be positive, got %d", c.TopK)
	}
	if c.Workers < 1 {
		return fmt.Errorf("DOCQUERY_WORKERS must be at least 1, got %d", c.Workers)
	}
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		return fmt.Errorf("DOCQUERY_MAX_RETRIES must be 0-10, got %d", c.MaxRetries)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("DOCQUERY_TIMEOUT must be positive, got %v", c.Timeout)
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("DOCQUERY_CACHE_SIZE must not be negative, got %d", c.CacheSize)
	}
	return nil
}

// fileConfig mirrors Config with optional fields so a YAML file can override
// any subset without clobbering the rest. Durations are strings like "90s".
type fileConfig struct {
	Provider        *string `yaml:"provider"`
	BaseURL         *string `yaml:"base_url"`
	APIKey          *string `yaml:"api_key"`
	EmbeddingModel  *string `yaml:"embedding_model"`
	GenerationModel *string `yaml:"generation_model"`
	Timeout         *string `yaml:"timeout"`
	MaxRetries      *int    `yaml:"max_retries"`
	RetryDelay      *string `yaml:"retry_delay"`
	DocsFolder      *string `yaml:"docs_folder"`
	ChunkSize       *int    `yaml:"chunk_size"`
	ChunkOverlap    *int    `yaml:"chunk_overlap"`
	Workers         *int    `yaml:"workers"`
	CacheSize       *int    `yaml:"cache_size"`
	TopK            *int    `yaml:"top_k"`
	History         *bool   `yaml:"history"`
	HistoryPath     *string `yaml:"history_path"`
}

func (c *Config) applyFile(path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading config %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}

	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setInt := func(dst *int, src *int) {
		if src != nil {
			*dst = *src
		}
	}
	setDuration := func(dst *time.Duration, src *string, field string) error {
		if src == nil {
			return nil
		}
		d, err := time.ParseDuration(*src)
		if err != nil {
			return fmt.Errorf("config %s: invalid %s %q: %w", path, field, *src, err)
		}
		*dst = d
		return nil
	}

	setString(&c.Provider, fc.Provider)
	setString(&c.BaseURL, fc.BaseURL)
	setString(&c.APIKey, fc.APIKey)
	setString(&c.EmbeddingModel, fc.EmbeddingModel)
	setString(&c.GenerationModel, fc.GenerationModel)
	setString(&c.DocsFolder, fc.DocsFolder)
	setString(&c.HistoryPath, fc.HistoryPath)
	setInt(&c.MaxRetries, fc.MaxRetries)
	setInt(&c.ChunkSize, fc.ChunkSize)
	setInt(&c.ChunkOverlap, fc.ChunkOverlap)
	setInt(&c.Workers, fc.Workers)
	setInt(&c.CacheSize, fc.CacheSize)
	setInt(&c.TopK, fc.TopK)
	if fc.History != nil {
		c.HistoryEnabled = *fc.History
	}
	if err := setDuration(&c.Timeout, fc.Timeout, "timeout"); err != nil {
		return err
	}
	if err := setDuration(&c.RetryDelay, fc.RetryDelay, "retry_delay"); err != nil {
		return err
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Provider = getEnv("DOCQUERY_PROVIDER", c.Provider)
	c.BaseURL = getEnv("DOCQUERY_BASE_URL", c.BaseURL)
	c.APIKey = getEnv("DOCQUERY_API_KEY", getEnv("OPENAI_API_KEY", c.APIKey))
	c.EmbeddingModel = getEnv("DOCQUERY_EMBEDDING_MODEL", c.EmbeddingModel)
	c.GenerationModel = getEnv("DOCQUERY_GENERATION_MODEL", c.GenerationModel)
	c.Timeout = getEnvDuration("DOCQUERY_TIMEOUT", c.Timeout)
	c.MaxRetries = getEnvInt("DOCQUERY_MAX_RETRIES", c.MaxRetries)
	c.RetryDelay = getEnvDuration("DOCQUERY_RETRY_DELAY", c.RetryDelay)
	c.DocsFolder = getEnv("DOCQUERY_DOCS_FOLDER", c.DocsFolder)
	c.ChunkSize = getEnvInt("DOCQUERY_CHUNK_SIZE", c.ChunkSize)
	c.ChunkOverlap = getEnvInt("DOCQUERY_CHUNK_OVERLAP", c.ChunkOverlap)
	c.Workers = getEnvInt("DOCQUERY_WORKERS", c.Workers)
	c.CacheSize = getEnvInt("DOCQUERY_CACHE_SIZE", c.CacheSize)
	c.TopK = getEnvInt("DOCQUERY_TOP_K", c.TopK)
	c.HistoryEnabled = getEnvBool("DOCQUERY_HISTORY", c.HistoryEnabled)
	c.HistoryPath = getEnv("DOCQUERY_HISTORY_PATH", c.HistoryPath)
}

// Helper functions
func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v == "true" || v == "1"
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

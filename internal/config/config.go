// Package config reads the YAML config file and applies environment overrides.
package config

import (
	"fmt"
	wbfconfig "github.com/wb-go/wbf/config"
	"os"
	"strconv"
	"strings"
	"time"
)

const envPrefix = "CASECOMMENTS"

type Config struct {
	Addr            string
	LogLevel        string
	GinMode         string
	Storage         string
	SQLitePath      string
	MasterDSN       string
	SlaveDSNs       []string
	MigratePath     string
	CacheSize       int
	CacheTTL        time.Duration
	RateLimitRPS    float64
	RateLimitBurst  int
	ShutdownTimeout time.Duration

	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string

	APIURL            string
	Author            string
	MentionCandidates []string
}

var defaults = map[string]any{
	"addr":             ":8080",
	"log_level":        "info",
	"gin_mode":         "release",
	"storage":          "sqlite",
	"sqlite_path":      "./data/comments.db",
	"migrate_path":     "./migrations",
	"cache_size":       "512",
	"cache_ttl":        "30s",
	"rate_limit_rps":   "10",
	"rate_limit_burst": "20",
	"shutdown_timeout": "10s",
	"openai_model":     "gpt-4o-mini",
	"api_url":          "http://localhost:8080",
}

// Load reads path and overlays non-empty CASECOMMENTS_<KEY> environment
// variables. List keys take a comma-separated value from the environment.
// OPENAI_API_KEY is used when openai_api_key is unset.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	raw := wbfconfig.New()
	for key, value := range defaults {
		raw.SetDefault(key, value)
	}
	raw.EnableEnv(envPrefix)
	if err := raw.LoadConfigFiles(path); err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}

	cfg := &Config{
		Addr:              raw.GetString("addr"),
		LogLevel:          raw.GetString("log_level"),
		GinMode:           raw.GetString("gin_mode"),
		Storage:           raw.GetString("storage"),
		SQLitePath:        raw.GetString("sqlite_path"),
		MasterDSN:         raw.GetString("master_dsn"),
		SlaveDSNs:         stringList(raw, "slaveDSNs"),
		MigratePath:       raw.GetString("migrate_path"),
		OpenAIAPIKey:      raw.GetString("openai_api_key"),
		OpenAIModel:       raw.GetString("openai_model"),
		OpenAIBaseURL:     raw.GetString("openai_base_url"),
		APIURL:            raw.GetString("api_url"),
		Author:            raw.GetString("author"),
		MentionCandidates: stringList(raw, "mention_candidates"),
	}
	// The shipped file sets these to "", which would hide a default.
	if cfg.OpenAIAPIKey == "" {
		cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.Author == "" {
		cfg.Author = os.Getenv("USER")
	}

	var err error
	if cfg.CacheSize, err = strconv.Atoi(raw.GetString("cache_size")); err != nil {
		return nil, fmt.Errorf("cache_size: %w", err)
	}
	if cfg.CacheTTL, err = time.ParseDuration(raw.GetString("cache_ttl")); err != nil {
		return nil, fmt.Errorf("cache_ttl: %w", err)
	}
	if cfg.RateLimitRPS, err = strconv.ParseFloat(raw.GetString("rate_limit_rps"), 64); err != nil {
		return nil, fmt.Errorf("rate_limit_rps: %w", err)
	}
	if cfg.RateLimitBurst, err = strconv.Atoi(raw.GetString("rate_limit_burst")); err != nil {
		return nil, fmt.Errorf("rate_limit_burst: %w", err)
	}
	if cfg.ShutdownTimeout, err = time.ParseDuration(raw.GetString("shutdown_timeout")); err != nil {
		return nil, fmt.Errorf("shutdown_timeout: %w", err)
	}

	switch cfg.Storage {
	case "memory", "sqlite", "postgres":
	default:
		return nil, fmt.Errorf("unknown storage %q", cfg.Storage)
	}
	if cfg.Storage == "postgres" && cfg.MasterDSN == "" {
		return nil, fmt.Errorf("master_dsn is required for postgres storage")
	}
	return cfg, nil
}

// stringList reads a YAML list, or a comma-separated string when the value
// comes from the environment. Names like "Dr. Chen" contain spaces, so the
// whitespace split viper applies to plain strings is not used.
func stringList(raw *wbfconfig.Config, key string) []string {
	if s := raw.GetString(key); s != "" {
		out := []string{}
		for _, item := range strings.Split(s, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
		return out
	}
	return raw.GetStringSlice(key)
}

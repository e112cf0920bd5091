// Package config loads service configuration from a JSON file with
// environment variable overrides for credentials.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// LLM configures the content generation model.
type LLM struct {
	APIKey  string `json:"api_key,omitempty"`
	BaseURL string `json:"base_url,omitempty"`
	Model   string `json:"model,omitempty"`
}

// Twitter holds the Twitter/X publishing credentials.
type Twitter struct {
	BearerToken string `json:"bearer_token,omitempty"`
}

// LinkedIn holds the LinkedIn publishing credentials.
type LinkedIn struct {
	AccessToken string `json:"access_token,omitempty"`
	Visibility  string `json:"visibility,omitempty"`
}

// Config is the top-level service configuration.
type Config struct {
	// ListenAddr is the HTTP gateway bind address, e.g. ":8080".
	ListenAddr string `json:"listen_addr,omitempty"`

	// DatabasePath is the SQLite file for workflow state. Empty means
	// in-memory, non-durable storage.
	DatabasePath string `json:"database_path,omitempty"`

	// MaxAttempts caps generation rounds per post; zero means the
	// engine default.
	MaxAttempts int `json:"max_attempts,omitempty"`

	LLM      LLM      `json:"llm"`
	Twitter  Twitter  `json:"twitter"`
	LinkedIn LinkedIn `json:"linkedin"`
}

// Load reads JSON config from disk and applies environment overrides.
// path may be empty, in which case only the environment is consulted.
func Load(path string) (Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

// applyEnv lets credentials come from the environment so config files can
// stay secret-free.
func (c *Config) applyEnv() {
	overrideString(&c.ListenAddr, "DRAFTGATE_LISTEN_ADDR")
	overrideString(&c.DatabasePath, "DRAFTGATE_DB_PATH")
	overrideString(&c.LLM.APIKey, "OPENAI_API_KEY")
	overrideString(&c.LLM.BaseURL, "OPENAI_BASE_URL")
	overrideString(&c.LLM.Model, "OPENAI_MODEL")
	overrideString(&c.Twitter.BearerToken, "TWITTER_BEARER_TOKEN")
	overrideString(&c.LinkedIn.AccessToken, "LINKEDIN_ACCESS_TOKEN")
}

func (c *Config) applyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = ":8080"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gpt-4o-mini"
	}
}

func overrideString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

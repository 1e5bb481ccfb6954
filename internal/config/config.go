// Package config loads configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Providers accepted in PET_PROVIDER and connection profiles.
const (
	ProviderGrok       = "grok"
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"
	ProviderGemini     = "gemini"
)

// Config holds runtime settings.
type Config struct {
	HTTPAddr string `env:"PET_HTTP_ADDR" envDefault:":8787"`
	LogLevel string `env:"PET_LOG_LEVEL" envDefault:"info"`

	StoreDriver string `env:"PET_STORE_DRIVER" envDefault:"sqlite"`
	DatabaseURL string `env:"DATABASE_URL"`
	SQLitePath  string `env:"PET_SQLITE_PATH" envDefault:"pet.db"`
	SettingsKey string `env:"PET_SETTINGS_KEY" envDefault:"default"`

	Provider         string `env:"PET_PROVIDER" envDefault:"grok"`
	Model            string `env:"PET_MODEL" envDefault:"grok-4-fast"`
	XAIAPIKey        string `env:"XAI_API_KEY"`
	OpenAIAPIKey     string `env:"OPENAI_API_KEY"`
	OpenRouterAPIKey string `env:"OPENROUTER_API_KEY"`
	GoogleAPIKey     string `env:"GOOGLE_API_KEY"`

	// Profiles maps a connection profile name to "provider/model".
	Profiles       map[string]string `env:"PET_PROFILES"`
	RequestTimeout time.Duration     `env:"PET_REQUEST_TIMEOUT" envDefault:"60s"`
}

// Profile is a parsed connection profile.
type Profile struct {
	Name     string
	Provider string
	Model    string
}

// Load reads an optional .env file and then the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err.Error())
	}
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// APIKey returns the key configured for provider.
func (c Config) APIKey(provider string) string {
	switch provider {
	case ProviderGrok:
		return c.XAIAPIKey
	case ProviderOpenAI:
		return c.OpenAIAPIKey
	case ProviderOpenRouter:
		return c.OpenRouterAPIKey
	case ProviderGemini:
		return c.GoogleAPIKey
	default:
		return ""
	}
}

// ParsedProfiles returns the connection profiles sorted by name.
func (c Config) ParsedProfiles() ([]Profile, error) {
	var out []Profile
	for name, target := range c.Profiles {
		provider, model, ok := strings.Cut(strings.TrimSpace(target), "/")
		if !ok || provider == "" || model == "" {
			return nil, fmt.Errorf("profile %q: expected provider/model, got %q", name, target)
		}
		out = append(out, Profile{Name: strings.TrimSpace(name), Provider: provider, Model: model})
	}
	slices.SortFunc(out, func(a, b Profile) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

// Validate checks that the default provider is usable and every profile is well formed.
func (c Config) Validate() error {
	var errs []error
	if !knownProvider(c.Provider) {
		errs = append(errs, fmt.Errorf("unknown provider %q", c.Provider))
	} else if c.APIKey(c.Provider) == "" {
		errs = append(errs, fmt.Errorf("API key for provider %q is required", c.Provider))
	}
	if strings.TrimSpace(c.Model) == "" {
		errs = append(errs, fmt.Errorf("PET_MODEL cannot be empty"))
	}

	profiles, err := c.ParsedProfiles()
	if err != nil {
		errs = append(errs, err)
	}
	for _, p := range profiles {
		if !knownProvider(p.Provider) {
			errs = append(errs, fmt.Errorf("profile %q: unknown provider %q", p.Name, p.Provider))
		}
	}

	switch c.StoreDriver {
	case "postgres":
		if c.DatabaseURL == "" {
			errs = append(errs, fmt.Errorf("DATABASE_URL is required for the postgres store"))
		}
	case "sqlite", "memory":
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q", c.StoreDriver))
	}
	return errors.Join(errs...)
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func knownProvider(p string) bool {
	switch p {
	case ProviderGrok, ProviderOpenAI, ProviderOpenRouter, ProviderGemini:
		return true
	}
	return false
}

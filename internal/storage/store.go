// Package storage persists the encoded pet settings on the host side.
package storage

import (
	"context"
	"fmt"

	"github.com/easeaico/project-pet/internal/config"
	"github.com/easeaico/project-pet/internal/settings"
)

// Drivers accepted by Open.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// DefaultKey names the settings row when none is configured.
const DefaultKey = "default"

// SettingsStore is a settings.Store that holds resources.
type SettingsStore interface {
	settings.Store
	Migrate(ctx context.Context) error
	Close() error
}

// Options selects and configures a driver.
type Options struct {
	Driver      string
	DatabaseURL string
	SQLitePath  string
	Key         string
}

// OptionsFromConfig maps the deployment config onto store options.
func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		Driver:      cfg.StoreDriver,
		DatabaseURL: cfg.DatabaseURL,
		SQLitePath:  cfg.SQLitePath,
		Key:         cfg.SettingsKey,
	}
}

// Open returns the settings store for opts.Driver.
func Open(ctx context.Context, opts Options) (SettingsStore, error) {
	switch opts.Driver {
	case DriverPostgres:
		return OpenPostgres(ctx, opts.DatabaseURL, opts.Key)
	case DriverSQLite, "":
		return OpenSQLite(ctx, opts.SQLitePath, opts.Key)
	case DriverMemory:
		return memoryStore{settings.NewMemoryStore(nil)}, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
}

type memoryStore struct {
	*settings.MemoryStore
}

func (memoryStore) Migrate(context.Context) error { return nil }
func (memoryStore) Close() error                  { return nil }

func keyOrDefault(key string) string {
	if key == "" {
		return DefaultKey
	}
	return key
}

package settings

import (
	"context"
	"fmt"
	"sync"
)

// Store persists the encoded settings blob. Load returns nil when nothing is stored.
type Store interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}

// Load reads and decodes settings from store.
func Load(ctx context.Context, store Store) (Settings, error) {
	raw, err := store.Load(ctx)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}
	return Decode(raw)
}

// Save encodes and writes settings to store.
func Save(ctx context.Context, store Store, s Settings) error {
	buf, err := Encode(s)
	if err != nil {
		return err
	}
	if err := store.Save(ctx, buf); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// MemoryStore keeps settings in process memory.
type MemoryStore struct {
	mu   sync.Mutex
	data []byte
}

// NewMemoryStore returns a store seeded with data, which may be nil.
func NewMemoryStore(data []byte) *MemoryStore {
	return &MemoryStore{data: append([]byte(nil), data...)}
}

func (m *MemoryStore) Load(ctx context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, nil
	}
	return append([]byte(nil), m.data...), nil
}

func (m *MemoryStore) Save(ctx context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append([]byte(nil), data...)
	return nil
}

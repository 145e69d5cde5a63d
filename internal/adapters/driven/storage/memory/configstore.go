package memory

import (
	"slices"
	"sync"
	"time"

	"github.com/tao-shen/CiteTrack-sub002/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore keeps settings in a map. It backs tests and ephemeral runs
// (CITETRACK_EPHEMERAL=1). Values are normalised on Set the way the TOML
// store would read them back: durations become strings, slices are copied.
type ConfigStore struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewConfigStore creates an empty store.
func NewConfigStore() *ConfigStore {
	return &ConfigStore{values: make(map[string]any)}
}

func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.values[key]
	return val, ok
}

// lookup returns the value at key when it has type T.
func lookup[T any](s *ConfigStore, key string) (T, bool) {
	val, _ := s.Get(key)
	v, ok := val.(T)
	return v, ok
}

func (s *ConfigStore) GetString(key string) string {
	v, _ := lookup[string](s, key)
	return v
}

func (s *ConfigStore) GetInt(key string) int {
	val, _ := s.Get(key)
	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

func (s *ConfigStore) GetBool(key string) bool {
	v, _ := lookup[bool](s, key)
	return v
}

// GetDuration reads a duration string or whole seconds.
func (s *ConfigStore) GetDuration(key string) time.Duration {
	if str, ok := lookup[string](s, key); ok {
		d, err := time.ParseDuration(str)
		if err != nil {
			return 0
		}
		return d
	}
	if n := s.GetInt(key); n != 0 {
		return time.Duration(n) * time.Second
	}
	return 0
}

func (s *ConfigStore) GetStringSlice(key string) []string {
	v, ok := lookup[[]string](s, key)
	if !ok {
		return nil
	}
	return slices.Clone(v)
}

func (s *ConfigStore) Set(key string, value any) error {
	switch v := value.(type) {
	case time.Duration:
		value = v.String()
	case []string:
		value = slices.Clone(v)
	case []any:
		strs := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				strs = append(strs, str)
			}
		}
		value = strs
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// Save is a no-op.
func (s *ConfigStore) Save() error { return nil }

// Load is a no-op.
func (s *ConfigStore) Load() error { return nil }

func (s *ConfigStore) Path() string { return ":memory:" }

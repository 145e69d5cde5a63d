package driven

import "time"

// ConfigStore is a flat key/value view over persisted settings.
// Keys are dotted paths such as "fetch.min_delay" or "scholars.tracked".
// Typed getters return the zero value for a missing or mistyped key.
type ConfigStore interface {
	// Get returns the raw value and whether the key is set.
	Get(key string) (any, bool)

	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool

	// GetDuration accepts a duration string ("90s") or whole seconds.
	GetDuration(key string) time.Duration

	GetStringSlice(key string) []string

	// Set updates a value and writes it through.
	Set(key string, value any) error

	Save() error
	Load() error

	// Path is where the settings live (":memory:" for the in-memory store).
	Path() string
}

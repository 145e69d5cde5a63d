package driving

import "github.com/tao-shen/CiteTrack-sub002/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// NotificationsEnabled reports the current notifications switch.
	NotificationsEnabled() bool

	// SetNotificationsEnabled flips the notifications switch.
	SetNotificationsEnabled(enabled bool) error

	// TrackedScholars returns the scholars refreshed in the background.
	TrackedScholars() []string

	// TrackScholar adds a scholar to the tracked list.
	TrackScholar(scholarID string) error

	// UntrackScholar removes a scholar from the tracked list.
	UntrackScholar(scholarID string) error
}

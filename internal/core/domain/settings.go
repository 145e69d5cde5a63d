package domain

import (
	"fmt"
	"time"
)

// CacheBackend selects where the unified cache blob is persisted.
type CacheBackend string

// Available cache backends.
const (
	// CacheBackendFile stores the blob in a shared directory that companion
	// processes can watch.
	CacheBackendFile CacheBackend = "file"

	// CacheBackendSQLite stores the blob in the local SQLite database.
	CacheBackendSQLite CacheBackend = "sqlite"

	// CacheBackendMemory keeps the blob in process memory only.
	CacheBackendMemory CacheBackend = "memory"
)

// IsValid returns true if the backend is recognised.
func (b CacheBackend) IsValid() bool {
	switch b {
	case CacheBackendFile, CacheBackendSQLite, CacheBackendMemory:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b CacheBackend) String() string {
	return string(b)
}

// NotificationChannel selects how notifications are delivered.
type NotificationChannel string

// Available notification channels.
const (
	NotificationChannelLog   NotificationChannel = "log"
	NotificationChannelEmail NotificationChannel = "email"
)

// IsValid returns true if the channel is recognised.
func (c NotificationChannel) IsValid() bool {
	return c == NotificationChannelLog || c == NotificationChannelEmail
}

// String returns the string representation.
func (c NotificationChannel) String() string {
	return string(c)
}

// FetchSettings configures the external fetch service and pacing.
type FetchSettings struct {
	// BaseURL is the profile service root.
	BaseURL string

	// UserAgent is sent with every request.
	UserAgent string

	// MinDelay and MaxDelay bound the randomized pause between queued tasks.
	MinDelay time.Duration
	MaxDelay time.Duration

	// RequestInterval is the minimum spacing between HTTP requests.
	RequestInterval time.Duration

	// RequestTimeout bounds waiting for response headers.
	RequestTimeout time.Duration

	// ResourceTimeout bounds the whole request including the body.
	ResourceTimeout time.Duration

	// PagesPerSort is how many publication pages a comprehensive fetch plans.
	PagesPerSort int
}

// CacheSettings configures the unified cache.
type CacheSettings struct {
	TTL     time.Duration
	Backend CacheBackend

	// Dir is the shared directory for the file backend and the SQLite
	// database. Empty means ~/.citetrack/data.
	Dir string

	// HistoryLimit caps retained snapshots per entity. 0 keeps everything.
	HistoryLimit int
}

// SchedulerSettings configures background refresh.
type SchedulerSettings struct {
	Enabled         bool
	RefreshInterval time.Duration
	CompactInterval time.Duration
}

// SMTPSettings configures the email notification channel.
type SMTPSettings struct {
	Server   string
	Port     int
	Username string
	Password string
	From     string
	To       []string
}

// IsConfigured returns true if enough is set to send mail.
func (s SMTPSettings) IsConfigured() bool {
	return s.Server != "" && s.Port > 0 && s.From != "" && len(s.To) > 0
}

// NotificationSettings configures new citation notifications.
type NotificationSettings struct {
	Enabled bool
	Channel NotificationChannel
	SMTP    SMTPSettings
}

// AppSettings holds all user-configurable settings.
type AppSettings struct {
	Fetch         FetchSettings
	Cache         CacheSettings
	Scheduler     SchedulerSettings
	Notifications NotificationSettings

	// Scholars are the tracked scholar ids refreshed in the background.
	Scholars []string
}

// DefaultAppSettings returns sensible defaults.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Fetch: FetchSettings{
			BaseURL:         "https://scholar.google.com",
			UserAgent:       "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15",
			MinDelay:        2 * time.Second,
			MaxDelay:        3 * time.Second,
			RequestInterval: 2 * time.Second,
			RequestTimeout:  30 * time.Second,
			ResourceTimeout: 60 * time.Second,
			PagesPerSort:    3,
		},
		Cache: CacheSettings{
			TTL:     24 * time.Hour,
			Backend: CacheBackendFile,
		},
		Scheduler: SchedulerSettings{
			Enabled:         true,
			RefreshInterval: 6 * time.Hour,
			CompactInterval: 1 * time.Hour,
		},
		Notifications: NotificationSettings{
			Enabled: true,
			Channel: NotificationChannelLog,
			SMTP:    SMTPSettings{Port: 587},
		},
	}
}

// Validate checks the settings for inconsistent values.
func (s AppSettings) Validate() error {
	if s.Fetch.MinDelay < 0 || s.Fetch.MaxDelay < s.Fetch.MinDelay {
		return fmt.Errorf("%w: fetch delay range %s..%s", ErrInvalidInput, s.Fetch.MinDelay, s.Fetch.MaxDelay)
	}
	if s.Fetch.PagesPerSort < 1 {
		return fmt.Errorf("%w: pages per sort must be at least 1", ErrInvalidInput)
	}
	if s.Cache.TTL <= 0 {
		return fmt.Errorf("%w: cache ttl must be positive", ErrInvalidInput)
	}
	if !s.Cache.Backend.IsValid() {
		return fmt.Errorf("%w: unknown cache backend %q", ErrInvalidInput, s.Cache.Backend)
	}
	if !s.Notifications.Channel.IsValid() {
		return fmt.Errorf("%w: unknown notification channel %q", ErrInvalidInput, s.Notifications.Channel)
	}
	if s.Notifications.Channel == NotificationChannelEmail && !s.Notifications.SMTP.IsConfigured() {
		return fmt.Errorf("%w: email notifications need smtp server, port, from and to", ErrInvalidInput)
	}
	return nil
}

// SchedulerConfig derives the scheduler configuration from the settings.
func (s AppSettings) SchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Enabled: s.Scheduler.Enabled,
		TaskConfigs: map[string]TaskConfig{
			TaskIDScholarRefresh: {Enabled: len(s.Scholars) > 0, Interval: s.Scheduler.RefreshInterval},
			TaskIDCacheCompact:   {Enabled: true, Interval: s.Scheduler.CompactInterval},
		},
	}
}

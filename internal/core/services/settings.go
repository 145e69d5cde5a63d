package services

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/tao-shen/CiteTrack-sub002/internal/core/domain"
	"github.com/tao-shen/CiteTrack-sub002/internal/core/ports/driven"
	"github.com/tao-shen/CiteTrack-sub002/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyFetchBaseURL         = "fetch.base_url"
	keyFetchUserAgent       = "fetch.user_agent"
	keyFetchMinDelay        = "fetch.min_delay"
	keyFetchMaxDelay        = "fetch.max_delay"
	keyFetchRequestInterval = "fetch.request_interval"
	keyFetchRequestTimeout  = "fetch.request_timeout"
	keyFetchResourceTimeout = "fetch.resource_timeout"
	keyFetchPagesPerSort    = "fetch.pages_per_sort"

	keyCacheTTL          = "cache.ttl"
	keyCacheBackend      = "cache.backend"
	keyCacheDir          = "cache.dir"
	keyCacheHistoryLimit = "cache.history_limit"

	keySchedulerEnabled         = "scheduler.enabled"
	keySchedulerRefreshInterval = "scheduler.refresh_interval"
	keySchedulerCompactInterval = "scheduler.compact_interval"

	keyNotifyEnabled = "notifications.enabled"
	keyNotifyChannel = "notifications.channel"
	keySMTPServer    = "notifications.smtp.server"
	keySMTPPort      = "notifications.smtp.port"
	keySMTPUsername  = "notifications.smtp.username"
	keySMTPPassword  = "notifications.smtp.password"
	keySMTPFrom      = "notifications.smtp.from"
	keySMTPTo        = "notifications.smtp.to"

	keyScholarsTracked = "scholars.tracked"
)

// SettingsService maps dotted config keys onto AppSettings.
type SettingsService struct {
	configStore driven.ConfigStore

	// mu serialises read-modify-write updates.
	mu sync.Mutex
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings. Missing or malformed values
// fall back to their defaults.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	d := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Fetch: domain.FetchSettings{
			BaseURL:         s.getString(keyFetchBaseURL, d.Fetch.BaseURL),
			UserAgent:       s.getString(keyFetchUserAgent, d.Fetch.UserAgent),
			MinDelay:        s.getDuration(keyFetchMinDelay, d.Fetch.MinDelay),
			MaxDelay:        s.getDuration(keyFetchMaxDelay, d.Fetch.MaxDelay),
			RequestInterval: s.getDuration(keyFetchRequestInterval, d.Fetch.RequestInterval),
			RequestTimeout:  s.getDuration(keyFetchRequestTimeout, d.Fetch.RequestTimeout),
			ResourceTimeout: s.getDuration(keyFetchResourceTimeout, d.Fetch.ResourceTimeout),
			PagesPerSort:    s.getInt(keyFetchPagesPerSort, d.Fetch.PagesPerSort),
		},
		Cache: domain.CacheSettings{
			TTL:          s.getDuration(keyCacheTTL, d.Cache.TTL),
			Backend:      s.getCacheBackend(d.Cache.Backend),
			Dir:          s.configStore.GetString(keyCacheDir),
			HistoryLimit: s.getInt(keyCacheHistoryLimit, d.Cache.HistoryLimit),
		},
		Scheduler: domain.SchedulerSettings{
			Enabled:         s.getBool(keySchedulerEnabled, d.Scheduler.Enabled),
			RefreshInterval: s.getDuration(keySchedulerRefreshInterval, d.Scheduler.RefreshInterval),
			CompactInterval: s.getDuration(keySchedulerCompactInterval, d.Scheduler.CompactInterval),
		},
		Notifications: domain.NotificationSettings{
			Enabled: s.getBool(keyNotifyEnabled, d.Notifications.Enabled),
			Channel: s.getChannel(d.Notifications.Channel),
			SMTP: domain.SMTPSettings{
				Server:   s.configStore.GetString(keySMTPServer),
				Port:     s.getInt(keySMTPPort, d.Notifications.SMTP.Port),
				Username: s.configStore.GetString(keySMTPUsername),
				Password: s.configStore.GetString(keySMTPPassword),
				From:     s.configStore.GetString(keySMTPFrom),
				To:       s.configStore.GetStringSlice(keySMTPTo),
			},
		},
		Scholars: s.configStore.GetStringSlice(keyScholarsTracked),
	}

	return settings, nil
}

// Save validates and persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if settings == nil {
		return fmt.Errorf("%w: settings are required", domain.ErrInvalidInput)
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	values := []struct {
		key   string
		value any
	}{
		{keyFetchBaseURL, settings.Fetch.BaseURL},
		{keyFetchUserAgent, settings.Fetch.UserAgent},
		{keyFetchMinDelay, settings.Fetch.MinDelay.String()},
		{keyFetchMaxDelay, settings.Fetch.MaxDelay.String()},
		{keyFetchRequestInterval, settings.Fetch.RequestInterval.String()},
		{keyFetchRequestTimeout, settings.Fetch.RequestTimeout.String()},
		{keyFetchResourceTimeout, settings.Fetch.ResourceTimeout.String()},
		{keyFetchPagesPerSort, settings.Fetch.PagesPerSort},
		{keyCacheTTL, settings.Cache.TTL.String()},
		{keyCacheBackend, settings.Cache.Backend.String()},
		{keyCacheDir, settings.Cache.Dir},
		{keyCacheHistoryLimit, settings.Cache.HistoryLimit},
		{keySchedulerEnabled, settings.Scheduler.Enabled},
		{keySchedulerRefreshInterval, settings.Scheduler.RefreshInterval.String()},
		{keySchedulerCompactInterval, settings.Scheduler.CompactInterval.String()},
		{keyNotifyEnabled, settings.Notifications.Enabled},
		{keyNotifyChannel, settings.Notifications.Channel.String()},
		{keySMTPServer, settings.Notifications.SMTP.Server},
		{keySMTPPort, settings.Notifications.SMTP.Port},
		{keySMTPUsername, settings.Notifications.SMTP.Username},
		{keySMTPFrom, settings.Notifications.SMTP.From},
		{keySMTPTo, nonNil(settings.Notifications.SMTP.To)},
		{keyScholarsTracked, nonNil(settings.Scholars)},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	// An empty password leaves the stored one untouched.
	if settings.Notifications.SMTP.Password != "" {
		if err := s.configStore.Set(keySMTPPassword, settings.Notifications.SMTP.Password); err != nil {
			return fmt.Errorf("save %s: %w", keySMTPPassword, err)
		}
	}

	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// NotificationsEnabled reports the current notifications switch. It reads
// the store on every call so a running watcher sees changes immediately.
func (s *SettingsService) NotificationsEnabled() bool {
	return s.getBool(keyNotifyEnabled, domain.DefaultAppSettings().Notifications.Enabled)
}

// SetNotificationsEnabled flips the notifications switch.
func (s *SettingsService) SetNotificationsEnabled(enabled bool) error {
	if err := s.configStore.Set(keyNotifyEnabled, enabled); err != nil {
		return fmt.Errorf("save %s: %w", keyNotifyEnabled, err)
	}
	return nil
}

// TrackedScholars returns the scholars refreshed in the background.
func (s *SettingsService) TrackedScholars() []string {
	return s.configStore.GetStringSlice(keyScholarsTracked)
}

// TrackScholar adds a scholar to the tracked list. Tracking a scholar
// twice is a no-op.
func (s *SettingsService) TrackScholar(scholarID string) error {
	scholarID = strings.TrimSpace(scholarID)
	if scholarID == "" {
		return fmt.Errorf("%w: scholar id is required", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tracked := s.TrackedScholars()
	if slices.Contains(tracked, scholarID) {
		return nil
	}
	return s.setTracked(append(tracked, scholarID))
}

// UntrackScholar removes a scholar from the tracked list.
func (s *SettingsService) UntrackScholar(scholarID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tracked := s.TrackedScholars()
	i := slices.Index(tracked, scholarID)
	if i < 0 {
		return fmt.Errorf("%w: scholar %s is not tracked", domain.ErrNotFound, scholarID)
	}
	return s.setTracked(slices.Delete(tracked, i, i+1))
}

func (s *SettingsService) setTracked(ids []string) error {
	if err := s.configStore.Set(keyScholarsTracked, nonNil(ids)); err != nil {
		return fmt.Errorf("save %s: %w", keyScholarsTracked, err)
	}
	return nil
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetDuration(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getCacheBackend(defaultVal domain.CacheBackend) domain.CacheBackend {
	backend := domain.CacheBackend(s.configStore.GetString(keyCacheBackend))
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}

func (s *SettingsService) getChannel(defaultVal domain.NotificationChannel) domain.NotificationChannel {
	channel := domain.NotificationChannel(s.configStore.GetString(keyNotifyChannel))
	if !channel.IsValid() {
		return defaultVal
	}
	return channel
}

// nonNil keeps empty lists as empty arrays in the config file.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

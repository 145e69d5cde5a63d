package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCacheBackend_IsValid(t *testing.T) {
	tests := []struct {
		backend CacheBackend
		want    bool
	}{
		{CacheBackendFile, true},
		{CacheBackendSQLite, true},
		{CacheBackendMemory, true},
		{"redis", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.backend), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.backend.IsValid())
		})
	}
}

func TestNotificationChannel_IsValid(t *testing.T) {
	assert.True(t, NotificationChannelLog.IsValid())
	assert.True(t, NotificationChannelEmail.IsValid())
	assert.False(t, NotificationChannel("push").IsValid())
}

func TestDefaultAppSettings(t *testing.T) {
	s := DefaultAppSettings()

	assert.Equal(t, 2*time.Second, s.Fetch.MinDelay)
	assert.Equal(t, 3*time.Second, s.Fetch.MaxDelay)
	assert.Equal(t, 30*time.Second, s.Fetch.RequestTimeout)
	assert.Equal(t, 60*time.Second, s.Fetch.ResourceTimeout)
	assert.Equal(t, 3, s.Fetch.PagesPerSort)
	assert.Equal(t, 24*time.Hour, s.Cache.TTL)
	assert.Equal(t, CacheBackendFile, s.Cache.Backend)
	assert.True(t, s.Notifications.Enabled)
	assert.NoError(t, s.Validate())
}

func TestAppSettings_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AppSettings)
	}{
		{"inverted delay range", func(s *AppSettings) { s.Fetch.MaxDelay = time.Second }},
		{"negative delay", func(s *AppSettings) { s.Fetch.MinDelay = -time.Second }},
		{"zero pages", func(s *AppSettings) { s.Fetch.PagesPerSort = 0 }},
		{"zero ttl", func(s *AppSettings) { s.Cache.TTL = 0 }},
		{"unknown backend", func(s *AppSettings) { s.Cache.Backend = "redis" }},
		{"unknown channel", func(s *AppSettings) { s.Notifications.Channel = "push" }},
		{"email without smtp", func(s *AppSettings) { s.Notifications.Channel = NotificationChannelEmail }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultAppSettings()
			tt.mutate(&s)
			assert.ErrorIs(t, s.Validate(), ErrInvalidInput)
		})
	}
}

func TestAppSettings_SchedulerConfig(t *testing.T) {
	s := DefaultAppSettings()

	cfg := s.SchedulerConfig()
	assert.False(t, cfg.GetTaskConfig(TaskIDScholarRefresh).Enabled, "no tracked scholars")
	assert.True(t, cfg.GetTaskConfig(TaskIDCacheCompact).Enabled)

	s.Scholars = []string{"X1"}
	cfg = s.SchedulerConfig()
	assert.True(t, cfg.GetTaskConfig(TaskIDScholarRefresh).Enabled)
	assert.Equal(t, 6*time.Hour, cfg.GetTaskConfig(TaskIDScholarRefresh).Interval)
}

func TestSMTPSettings_IsConfigured(t *testing.T) {
	assert.False(t, SMTPSettings{}.IsConfigured())
	assert.True(t, SMTPSettings{Server: "smtp.example.com", Port: 587, From: "a@example.com", To: []string{"b@example.com"}}.IsConfigured())
}

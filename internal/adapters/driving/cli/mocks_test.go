package cli

import (
	"bytes"
	"context"
	"slices"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/tao-shen/CiteTrack-sub002/internal/core/domain"
	"github.com/tao-shen/CiteTrack-sub002/internal/core/ports/driving"
)

// mockCache implements driving.CacheService for testing.
type mockCache struct {
	info         map[string]*domain.BasicInfo
	publications map[string][]domain.Publication
	citing       map[string][]domain.CitingArticle
	history      []domain.DataSnapshot
	stats        driving.CacheStats
	cleared      []string
	clearedAll   bool
}

func newMockCache() *mockCache {
	return &mockCache{
		info:         map[string]*domain.BasicInfo{},
		publications: map[string][]domain.Publication{},
		citing:       map[string][]domain.CitingArticle{},
	}
}

func (m *mockCache) SaveSnapshot(_ context.Context, _ domain.DataSnapshot) error { return nil }

func (m *mockCache) GetBasicInfo(id string) (*domain.BasicInfo, bool) {
	info, ok := m.info[id]
	return info, ok
}

func (m *mockCache) GetPublications(id string, _ domain.SortMode, offset, limit int) ([]domain.Publication, bool) {
	pubs, ok := m.publications[id]
	if !ok {
		return nil, false
	}
	return window(pubs, offset, limit), true
}

func (m *mockCache) NeedsFetchMore(id string, _ domain.SortMode, index int) bool {
	return index >= len(m.publications[id])
}

func (m *mockCache) GetCitingArticles(id string, _ bool, offset, limit int) ([]domain.CitingArticle, bool) {
	articles, ok := m.citing[id]
	if !ok {
		return nil, false
	}
	return window(articles, offset, limit), true
}

func (m *mockCache) ClearCache(_ context.Context, id string) error {
	m.cleared = append(m.cleared, id)
	return nil
}

func (m *mockCache) ClearAllCache(_ context.Context) error {
	m.clearedAll = true
	return nil
}

func (m *mockCache) Subscribe(_ func(domain.ChangeEvent)) func() { return func() {} }

func (m *mockCache) History(_ string) []domain.DataSnapshot { return m.history }

func (m *mockCache) Stats() driving.CacheStats { return m.stats }

func window[T any](list []T, offset, limit int) []T {
	if offset >= len(list) {
		return []T{}
	}
	return list[offset:min(offset+limit, len(list))]
}

// mockCoordinator implements driving.FetchCoordinator for testing.
// Fetch calls run onFetch, which typically fills the mock cache.
type mockCoordinator struct {
	calls    []string
	enqueued int
	err      error
	stats    driving.QueueStats
	onFetch  func()
	fetchOK  bool
	dropped  int
	resetted bool
}

func (m *mockCoordinator) record(call string) bool {
	m.calls = append(m.calls, call)
	if m.onFetch != nil {
		m.onFetch()
	}
	return m.fetchOK
}

func (m *mockCoordinator) AddTask(_ domain.FetchTaskType, _ domain.Priority) (bool, error) {
	return true, nil
}

func (m *mockCoordinator) ProcessQueue(_ context.Context) {}

func (m *mockCoordinator) ProcessTask(_ context.Context, _ domain.FetchTaskType) bool { return m.fetchOK }

func (m *mockCoordinator) Drain(_ context.Context) error {
	m.calls = append(m.calls, "drain")
	m.stats.Completed += m.enqueued
	return nil
}

func (m *mockCoordinator) FetchProfilePage(
	_ context.Context, _ string, _ domain.SortMode, _ int, _ domain.Priority,
) bool {
	return m.record("profile")
}

func (m *mockCoordinator) FetchCitedByPage(_ context.Context, _ string, _ bool, _ int, _ domain.Priority) bool {
	return m.record("citedby")
}

func (m *mockCoordinator) RefreshCitedByPage(_ context.Context, _ string, _ bool, _ int, _ domain.Priority) bool {
	return m.record("refresh-citedby")
}

func (m *mockCoordinator) FetchComprehensive(_ context.Context, _ string) (int, error) {
	m.record("comprehensive")
	return m.enqueued, m.err
}

func (m *mockCoordinator) RefreshComprehensive(_ context.Context, _ string) (int, error) {
	m.record("refresh-comprehensive")
	return m.enqueued, m.err
}

func (m *mockCoordinator) FetchPublicationsWithPrefetch(
	_ context.Context, _ string, _ domain.SortMode, _ domain.Priority, _ bool,
) bool {
	return m.record("publications")
}

func (m *mockCoordinator) FetchCitingArticlesWithPrefetch(_ context.Context, _ string, _ domain.Priority) bool {
	return m.record("citing")
}

func (m *mockCoordinator) PrefetchOtherPages(_ context.Context, _ string, _ domain.SortMode, pages int) int {
	m.calls = append(m.calls, "prefetch")
	return pages - 1
}

func (m *mockCoordinator) ClearQueue() int { return m.dropped }

func (m *mockCoordinator) Stats() driving.QueueStats { return m.stats }

func (m *mockCoordinator) ResetFetchStats() { m.resetted = true }

// mockSettings implements driving.SettingsService for testing.
type mockSettings struct {
	settings domain.AppSettings
	saved    *domain.AppSettings
	err      error
}

func newMockSettings() *mockSettings {
	return &mockSettings{settings: domain.DefaultAppSettings()}
}

func (m *mockSettings) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, m.err
}

func (m *mockSettings) Save(s *domain.AppSettings) error {
	if m.err != nil {
		return m.err
	}
	m.settings = *s
	m.saved = s
	return nil
}

func (m *mockSettings) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }

func (m *mockSettings) NotificationsEnabled() bool { return m.settings.Notifications.Enabled }

func (m *mockSettings) SetNotificationsEnabled(enabled bool) error {
	m.settings.Notifications.Enabled = enabled
	return m.err
}

func (m *mockSettings) TrackedScholars() []string { return m.settings.Scholars }

func (m *mockSettings) TrackScholar(id string) error {
	if m.err != nil {
		return m.err
	}
	m.settings.Scholars = append(m.settings.Scholars, id)
	return nil
}

func (m *mockSettings) UntrackScholar(id string) error {
	i := slices.Index(m.settings.Scholars, id)
	if i < 0 {
		return domain.ErrNotFound
	}
	m.settings.Scholars = slices.Delete(m.settings.Scholars, i, i+1)
	return nil
}

// mockUpdater implements driving.Updater for testing.
type mockUpdater struct {
	completed, failed int
	err               error
}

func (m *mockUpdater) RefreshAll(_ context.Context) (int, int, error) {
	return m.completed, m.failed, m.err
}

// mockScheduler implements driving.Scheduler for testing.
type mockScheduler struct {
	started, stopped bool
}

func (m *mockScheduler) Start(ctx context.Context) error {
	m.started = true
	<-ctx.Done()
	return ctx.Err()
}

func (m *mockScheduler) Stop() error {
	m.stopped = true
	return nil
}

// setServices installs s for the duration of the test.
func setServices(t *testing.T, s Services) {
	t.Helper()
	old := Services{
		Cache:       cacheService,
		Coordinator: coordinator,
		Settings:    settingsService,
		Updater:     updater,
		Scheduler:   scheduler,
	}
	SetServices(s)
	t.Cleanup(func() { SetServices(old) })
}

// runCommand executes the root command with args and returns its output.
// Flags are reset to their defaults first.
func runCommand(t *testing.T, args ...string) string {
	t.Helper()
	out, err := executeCommand(t, context.Background(), args...)
	require.NoError(t, err)
	return out
}

func executeCommand(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.ExecuteContext(ctx)
	return buf.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if f.Changed {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		}
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	// cobra only propagates ExecuteContext's context to subcommands whose
	// context is unset, so clear any left over from a previous execution.
	if cmd.HasParent() {
		cmd.SetContext(nil)
	}
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

package mcp

import (
	"context"

	"github.com/tao-shen/CiteTrack-sub002/internal/core/domain"
	"github.com/tao-shen/CiteTrack-sub002/internal/core/ports/driving"
)

// mockCacheService is a mock implementation of driving.CacheService.
type mockCacheService struct {
	info         map[string]*domain.BasicInfo
	publications map[string][]domain.Publication
	citing       map[string][]domain.CitingArticle
	stats        driving.CacheStats
}

func (m *mockCacheService) SaveSnapshot(_ context.Context, _ domain.DataSnapshot) error {
	return nil
}

func (m *mockCacheService) GetBasicInfo(scholarID string) (*domain.BasicInfo, bool) {
	info, ok := m.info[scholarID]
	return info, ok
}

func (m *mockCacheService) GetPublications(scholarID string, _ domain.SortMode, offset, limit int) ([]domain.Publication, bool) {
	pubs, ok := m.publications[scholarID]
	if !ok {
		return nil, false
	}
	return window(pubs, offset, limit), true
}

func (m *mockCacheService) NeedsFetchMore(scholarID string, _ domain.SortMode, index int) bool {
	return index >= len(m.publications[scholarID])
}

func (m *mockCacheService) GetCitingArticles(publicationID string, _ bool, offset, limit int) ([]domain.CitingArticle, bool) {
	articles, ok := m.citing[publicationID]
	if !ok {
		return nil, false
	}
	return window(articles, offset, limit), true
}

func (m *mockCacheService) ClearCache(_ context.Context, _ string) error { return nil }

func (m *mockCacheService) ClearAllCache(_ context.Context) error { return nil }

func (m *mockCacheService) Subscribe(_ func(domain.ChangeEvent)) func() { return func() {} }

func (m *mockCacheService) History(_ string) []domain.DataSnapshot { return nil }

func (m *mockCacheService) Stats() driving.CacheStats { return m.stats }

func window[T any](list []T, offset, limit int) []T {
	if offset >= len(list) {
		return []T{}
	}
	return list[offset:min(offset+limit, len(list))]
}

// mockCoordinator is a mock implementation of driving.FetchCoordinator.
type mockCoordinator struct {
	enqueued  int
	err       error
	cached    bool
	stats     driving.QueueStats
	refreshed []string
	fetched   []string
}

func (m *mockCoordinator) AddTask(_ domain.FetchTaskType, _ domain.Priority) (bool, error) {
	return true, nil
}

func (m *mockCoordinator) ProcessQueue(_ context.Context) {}

func (m *mockCoordinator) ProcessTask(_ context.Context, _ domain.FetchTaskType) bool { return m.cached }

func (m *mockCoordinator) Drain(_ context.Context) error { return nil }

func (m *mockCoordinator) FetchProfilePage(
	_ context.Context, _ string, _ domain.SortMode, _ int, _ domain.Priority,
) bool {
	return m.cached
}

func (m *mockCoordinator) FetchCitedByPage(_ context.Context, _ string, _ bool, _ int, _ domain.Priority) bool {
	return m.cached
}

func (m *mockCoordinator) RefreshCitedByPage(_ context.Context, _ string, _ bool, _ int, _ domain.Priority) bool {
	return m.cached
}

func (m *mockCoordinator) FetchComprehensive(_ context.Context, scholarID string) (int, error) {
	m.fetched = append(m.fetched, scholarID)
	return m.enqueued, m.err
}

func (m *mockCoordinator) RefreshComprehensive(_ context.Context, scholarID string) (int, error) {
	m.refreshed = append(m.refreshed, scholarID)
	return m.enqueued, m.err
}

func (m *mockCoordinator) FetchPublicationsWithPrefetch(
	_ context.Context, _ string, _ domain.SortMode, _ domain.Priority, _ bool,
) bool {
	return m.cached
}

func (m *mockCoordinator) FetchCitingArticlesWithPrefetch(_ context.Context, publicationID string, _ domain.Priority) bool {
	m.fetched = append(m.fetched, publicationID)
	return m.cached
}

func (m *mockCoordinator) PrefetchOtherPages(_ context.Context, _ string, _ domain.SortMode, _ int) int {
	return 0
}

func (m *mockCoordinator) ClearQueue() int { return 0 }

func (m *mockCoordinator) Stats() driving.QueueStats { return m.stats }

func (m *mockCoordinator) ResetFetchStats() {}

// mockSettingsService is a mock implementation of driving.SettingsService.
type mockSettingsService struct {
	tracked []string
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := domain.DefaultAppSettings()
	s.Scholars = m.tracked
	return &s, nil
}

func (m *mockSettingsService) Save(_ *domain.AppSettings) error { return nil }

func (m *mockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }

func (m *mockSettingsService) NotificationsEnabled() bool { return true }

func (m *mockSettingsService) SetNotificationsEnabled(_ bool) error { return nil }

func (m *mockSettingsService) TrackedScholars() []string { return m.tracked }

func (m *mockSettingsService) TrackScholar(_ string) error { return nil }

func (m *mockSettingsService) UntrackScholar(_ string) error { return nil }

func testCache() *mockCacheService {
	return &mockCacheService{
		info: map[string]*domain.BasicInfo{
			"X1": {ScholarID: "X1", Name: "Ada Lovelace", Citations: 120, HIndex: domain.IntPtr(5)},
		},
		publications: map[string][]domain.Publication{
			"X1": {
				{Title: "Notes", ClusterID: "111", CitationCount: domain.IntPtr(100)},
				{Title: "Letters", ClusterID: "222", CitationCount: domain.IntPtr(20)},
				{Title: "Sketch", Year: domain.IntPtr(1842)},
			},
		},
		citing: map[string][]domain.CitingArticle{
			"111": {
				{ID: "c1", Title: "Engines Revisited", Authors: []string{"B Babbage"}},
			},
		},
		stats: driving.CacheStats{Scholars: 1, Publications: 3, CitingArticles: 1, Snapshots: 4},
	}
}

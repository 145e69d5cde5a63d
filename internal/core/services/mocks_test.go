package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tao-shen/CiteTrack-sub002/internal/core/domain"
	"github.com/tao-shen/CiteTrack-sub002/internal/core/ports/driven"
)

// --- Shared test doubles ---

// mockBlobStore implements driven.BlobStore for testing.
type mockBlobStore struct {
	mu       sync.Mutex
	blobs    map[string][]byte
	writes   int
	writeErr error
}

var _ driven.BlobStore = (*mockBlobStore)(nil)

func newMockBlobStore() *mockBlobStore {
	return &mockBlobStore{blobs: make(map[string][]byte)}
}

func (m *mockBlobStore) ReadBlob(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.blobs[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (m *mockBlobStore) WriteBlob(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	m.writes++
	m.blobs[key] = append([]byte(nil), data...)
	return nil
}

func (m *mockBlobStore) DeleteBlob(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, key)
	return nil
}

func (m *mockBlobStore) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.blobs[key]
	return ok
}

func (m *mockBlobStore) writeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// mockFetchService implements driven.FetchService for testing.
// Responses are keyed by task identity.
type mockFetchService struct {
	mu       sync.Mutex
	profiles map[string]*domain.ProfilePage
	pages    map[string]*domain.ProfilePage
	citing   map[string][]domain.CitingArticle
	errs     map[string]error
	calls    []string
	started  chan string
	release  chan struct{}
}

var _ driven.FetchService = (*mockFetchService)(nil)

func newMockFetchService() *mockFetchService {
	return &mockFetchService{
		profiles: make(map[string]*domain.ProfilePage),
		pages:    make(map[string]*domain.ProfilePage),
		citing:   make(map[string][]domain.CitingArticle),
		errs:     make(map[string]error),
	}
}

func (m *mockFetchService) record(id string) error {
	m.mu.Lock()
	m.calls = append(m.calls, id)
	started, release := m.started, m.release
	err := m.errs[id]
	m.mu.Unlock()

	if started != nil {
		started <- id
	}
	if release != nil {
		<-release
	}
	return err
}

func (m *mockFetchService) FetchBasicProfileAndFirstPage(_ context.Context, scholarID string) (*domain.ProfilePage, error) {
	id := domain.BasicInfoTask{ScholarID: scholarID}.Identity()
	if err := m.record(id); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if page, ok := m.profiles[scholarID]; ok {
		return page, nil
	}
	return nil, domain.NewFetchError(domain.FetchErrNotFound, "profile", fmt.Errorf("no profile %s", scholarID))
}

func (m *mockFetchService) FetchPublicationsPage(
	_ context.Context,
	scholarID string,
	sort domain.SortMode,
	offset int,
) (*domain.ProfilePage, error) {
	id := domain.PublicationsPageTask{ScholarID: scholarID, SortMode: sort, Offset: offset}.Identity()
	if err := m.record(id); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if page, ok := m.pages[id]; ok {
		return page, nil
	}
	return &domain.ProfilePage{}, nil
}

func (m *mockFetchService) FetchCitingArticlesPage(
	_ context.Context,
	publicationID string,
	sortByDate bool,
	offset int,
) ([]domain.CitingArticle, error) {
	id := domain.CitingArticlesPageTask{PublicationID: publicationID, SortByDate: sortByDate, Offset: offset}.Identity()
	if err := m.record(id); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.CitingArticle(nil), m.citing[id]...), nil
}

func (m *mockFetchService) setCiting(publicationID string, sortByDate bool, offset int, articles ...domain.CitingArticle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := domain.CitingArticlesPageTask{PublicationID: publicationID, SortByDate: sortByDate, Offset: offset}.Identity()
	m.citing[id] = articles
}

func (m *mockFetchService) callList() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// mockNotifier implements driven.Notifier for testing.
type mockNotifier struct {
	mu   sync.Mutex
	sent []domain.Notification
	err  error
}

var _ driven.Notifier = (*mockNotifier)(nil)

func (m *mockNotifier) Notify(_ context.Context, n domain.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, n)
	return nil
}

func (m *mockNotifier) notifications() []domain.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Notification(nil), m.sent...)
}

// eventRecorder collects change events delivered by a subscription.
type eventRecorder struct {
	mu     sync.Mutex
	events []domain.ChangeEvent
}

func (r *eventRecorder) handle(ev domain.ChangeEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *eventRecorder) all() []domain.ChangeEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.ChangeEvent(nil), r.events...)
}

// fakeClock is a settable clock.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func pub(cluster string, citations int) domain.Publication {
	return domain.Publication{
		Title:         "Paper " + cluster,
		ClusterID:     cluster,
		CitationCount: domain.IntPtr(citations),
		Year:          domain.IntPtr(2020),
	}
}

func article(id string) domain.CitingArticle {
	return domain.CitingArticle{ID: id, Title: "Citing " + id, Authors: []string{"A. Author"}}
}

func profileSnapshot(scholarID string, sort domain.SortMode, offset int, pubs ...domain.Publication) domain.DataSnapshot {
	return domain.DataSnapshot{
		EntityID:     scholarID,
		Publications: pubs,
		SortMode:     sort,
		PageOffset:   offset,
		Source:       domain.SourceScholarProfile,
	}
}

func basicSnapshot(scholarID, name string, citations int) domain.DataSnapshot {
	return domain.DataSnapshot{
		EntityID:       scholarID,
		Name:           name,
		TotalCitations: domain.IntPtr(citations),
		Source:         domain.SourceScholarProfile,
	}
}

func citingSnapshot(publicationID string, sortByDate bool, offset int, articles ...domain.CitingArticle) domain.DataSnapshot {
	return domain.DataSnapshot{
		EntityID: publicationID,
		Citing: &domain.CitingPage{
			PublicationID: publicationID,
			SortByDate:    sortByDate,
			Offset:        offset,
			Articles:      articles,
		},
		Source: domain.SourceCitedBy,
	}
}

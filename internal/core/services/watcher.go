package services

import (
	"context"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/tao-shen/CiteTrack-sub002/internal/core/domain"
	"github.com/tao-shen/CiteTrack-sub002/internal/core/ports/driven"
	"github.com/tao-shen/CiteTrack-sub002/internal/core/ports/driving"
	"github.com/tao-shen/CiteTrack-sub002/internal/logger"
)

const (
	// defaultSettleDelay is how long the watcher waits after a scoped fetch
	// before reading the cache.
	defaultSettleDelay = 500 * time.Millisecond

	// watchedPublications bounds how much of a publication list is scanned
	// for citation increases.
	watchedPublications = 100

	titlePreviewLength = 50
)

// CitationWatcher raises a notification for every newly observed citing
// article of a publication whose citation count went up.
type CitationWatcher struct {
	cache    driving.CacheService
	coord    driving.FetchCoordinator
	notifier driven.Notifier
	enabled  func() bool
	log      logger.Logger

	settle   time.Duration
	sleep    func(ctx context.Context, d time.Duration) error
	pageSize int

	mu sync.Mutex
	// citingIDs holds the last observed citing article ids per publication.
	citingIDs map[string]map[string]struct{}
	// counts holds the last observed citation count per publication, per scholar.
	counts map[string]map[string]int
	// checked holds the citation count a publication was last checked at.
	checked map[string]int

	ctx         context.Context
	cancel      context.CancelFunc
	unsubscribe func()
}

// NewCitationWatcher subscribes a watcher to cache changes. enabled is
// consulted before every notification; nil means always enabled.
func NewCitationWatcher(
	cache driving.CacheService,
	coord driving.FetchCoordinator,
	notifier driven.Notifier,
	enabled func() bool,
) *CitationWatcher {
	if enabled == nil {
		enabled = func() bool { return true }
	}
	ctx, cancel := context.WithCancel(context.Background())
	w := &CitationWatcher{
		cache:     cache,
		coord:     coord,
		notifier:  notifier,
		enabled:   enabled,
		log:       logger.Scope("watcher"),
		settle:    defaultSettleDelay,
		sleep:     sleepContext,
		pageSize:  DefaultCoordinatorConfig().CitingPageSize,
		citingIDs: make(map[string]map[string]struct{}),
		counts:    make(map[string]map[string]int),
		checked:   make(map[string]int),
		ctx:       ctx,
		cancel:    cancel,
	}
	w.unsubscribe = cache.Subscribe(w.handle)
	return w
}

// Close stops the watcher. A check in progress is abandoned.
func (w *CitationWatcher) Close() {
	w.cancel()
	w.unsubscribe()
}

// candidate is a publication whose citation count went up.
type candidate struct {
	scholarID   string
	publication domain.Publication
	count       int
}

func (w *CitationWatcher) handle(ev domain.ChangeEvent) {
	var candidates []candidate

	switch e := ev.(type) {
	case domain.PublicationsUpdated:
		candidates = w.scanPublications(e.ScholarID, e.SortMode)
	case domain.PublicationsChanged:
		candidates = w.increasedPublications(e)
	case domain.EntityInfoUpdated:
		if e.Changed() && e.OldCitations != nil {
			w.log.Debug("%s total citations %d -> %d", e.ScholarID, *e.OldCitations, *e.NewCitations)
		}
	case domain.CitingArticlesUpdated:
		w.log.Debug("citing articles for %s: %d", e.PublicationID, e.Count)
	case domain.CacheCleared:
		w.forget(e.EntityID)
	}

	for _, c := range candidates {
		if w.ctx.Err() != nil {
			return
		}
		w.check(w.ctx, c)
	}
}

// scanPublications compares the cached list against the counts seen last
// time. A publication seen for the first time, on any sort mode, only has
// its count recorded.
func (w *CitationWatcher) scanPublications(scholarID string, sort domain.SortMode) []candidate {
	pubs, ok := w.cache.GetPublications(scholarID, sort, 0, watchedPublications)
	if !ok {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	previous, ok := w.counts[scholarID]
	if !ok {
		previous = make(map[string]int)
		w.counts[scholarID] = previous
	}

	var out []candidate
	for _, p := range pubs {
		count, known := p.CitationValue()
		if p.ClusterID == "" || !known {
			continue
		}
		old, had := previous[p.ClusterID]
		previous[p.ClusterID] = count
		if !had || count <= old {
			continue
		}
		out = append(out, w.claim(scholarID, p, count)...)
	}
	return out
}

func (w *CitationWatcher) increasedPublications(e domain.PublicationsChanged) []candidate {
	w.mu.Lock()
	defer w.mu.Unlock()

	var out []candidate
	for _, inc := range e.Changes.Increased {
		if inc.Publication.ClusterID == "" {
			continue
		}
		if previous := w.counts[e.ScholarID]; previous != nil {
			previous[inc.Publication.ClusterID] = inc.NewCount
		}
		out = append(out, w.claim(e.ScholarID, inc.Publication, inc.NewCount)...)
	}
	return out
}

// claim returns a candidate unless the publication was already checked at
// this count (caller must hold lock).
func (w *CitationWatcher) claim(scholarID string, p domain.Publication, count int) []candidate {
	if last, ok := w.checked[p.ClusterID]; ok && last >= count {
		return nil
	}
	w.checked[p.ClusterID] = count
	return []candidate{{scholarID: scholarID, publication: p, count: count}}
}

// check refetches the newest citing articles of one publication and
// notifies about the ones not seen before.
func (w *CitationWatcher) check(ctx context.Context, c candidate) {
	cluster := c.publication.ClusterID
	w.log.Info("%s now has %d citations, checking citing articles", cluster, c.count)

	if !w.coord.RefreshCitedByPage(ctx, cluster, true, 0, domain.PriorityMedium) {
		w.log.Warn("could not fetch citing articles for %s", cluster)
		return
	}
	if err := w.sleep(ctx, w.settle); err != nil {
		return
	}

	articles, ok := w.cache.GetCitingArticles(cluster, true, 0, w.pageSize)
	if !ok {
		w.log.Warn("no cached citing articles for %s", cluster)
		return
	}

	current := make(map[string]struct{}, len(articles))
	for _, a := range articles {
		current[a.ID] = struct{}{}
	}

	w.mu.Lock()
	previous := w.citingIDs[cluster]
	w.citingIDs[cluster] = current
	w.mu.Unlock()

	for _, a := range articles {
		if _, seen := previous[a.ID]; seen {
			continue
		}
		w.notify(ctx, c, a)
	}
}

func (w *CitationWatcher) notify(ctx context.Context, c candidate, citing domain.CitingArticle) {
	if !w.enabled() {
		w.log.Debug("notifications disabled, dropping new citation of %s", c.publication.ClusterID)
		return
	}

	n := newCitationNotification(c.scholarID, c.publication, citing)
	if w.notifier == nil {
		w.log.Info("new citation: %s", n.Body)
		return
	}
	if err := w.notifier.Notify(ctx, n); err != nil {
		w.log.Error("failed to deliver notification %s: %v", n.ID, err)
		return
	}
	w.log.Info("notified: %s", n.Body)
}

func newCitationNotification(scholarID string, p domain.Publication, citing domain.CitingArticle) domain.Notification {
	return domain.Notification{
		ID:    fmt.Sprintf("%s_%s_%s", domain.NotificationNewCitation, p.ClusterID, uuid.NewString()),
		Title: "New citation",
		Body:  fmt.Sprintf("%q was cited by %q", preview(p.Title), preview(citing.Title)),
		Metadata: map[string]string{
			domain.MetaType:             domain.NotificationNewCitation,
			domain.MetaPublicationTitle: p.Title,
			domain.MetaCitingTitle:      citing.Title,
			domain.MetaCitingAuthors:    citing.AuthorsDisplay(),
			domain.MetaClusterID:        p.ClusterID,
			domain.MetaScholarID:        scholarID,
		},
	}
}

// preview truncates s to titlePreviewLength runes.
func preview(s string) string {
	if utf8.RuneCountInString(s) <= titlePreviewLength {
		return s
	}
	return string([]rune(s)[:titlePreviewLength]) + "..."
}

// forget drops watcher state for a cleared entity, or all state when
// entityID is empty.
func (w *CitationWatcher) forget(entityID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if entityID == "" {
		w.citingIDs = make(map[string]map[string]struct{})
		w.counts = make(map[string]map[string]int)
		w.checked = make(map[string]int)
		return
	}
	// entityID is a scholar or a publication; a scholar takes the state of
	// its publications with it.
	for cluster := range w.counts[entityID] {
		delete(w.citingIDs, cluster)
		delete(w.checked, cluster)
	}
	delete(w.counts, entityID)
	delete(w.citingIDs, entityID)
	delete(w.checked, entityID)
}

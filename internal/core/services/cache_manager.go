package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tao-shen/CiteTrack-sub002/internal/core/domain"
	"github.com/tao-shen/CiteTrack-sub002/internal/core/ports/driven"
	"github.com/tao-shen/CiteTrack-sub002/internal/core/ports/driving"
	"github.com/tao-shen/CiteTrack-sub002/internal/logger"
)

// Ensure CacheManager implements the interface.
var _ driving.CacheService = (*CacheManager)(nil)

// CacheBlobKey is the storage key of the persisted cache.
const CacheBlobKey = "unified_cache"

// CacheManager owns the cached profile data of every scholar.
//
// Writers (SaveSnapshot, ClearCache, ClearAllCache, Load, Compact) are
// serialised. Readers go straight to the expiring stores.
type CacheManager struct {
	storage      driven.BlobStore
	ttl          time.Duration
	historyLimit int
	now          func() time.Time
	log          logger.Logger

	mu     sync.Mutex
	basic  *ExpiringStore[domain.BasicInfo]
	pubs   *ExpiringStore[[]domain.Publication]
	citing *ExpiringStore[[]domain.CitingArticle]

	histMu  sync.RWMutex
	history map[string][]domain.DataSnapshot

	bus *EventBus
}

// NewCacheManager creates a cache manager persisting through storage.
// A historyLimit of 0 keeps every snapshot.
func NewCacheManager(storage driven.BlobStore, ttl time.Duration, historyLimit int) *CacheManager {
	m := &CacheManager{
		storage:      storage,
		ttl:          ttl,
		historyLimit: historyLimit,
		now:          time.Now,
		log:          logger.Scope("cache"),
		history:      make(map[string][]domain.DataSnapshot),
		bus:          NewEventBus(),
	}
	m.basic = NewExpiringStore[domain.BasicInfo](ttl, m.clock)
	m.pubs = NewExpiringStore[[]domain.Publication](ttl, m.clock)
	m.citing = NewExpiringStore[[]domain.CitingArticle](ttl, m.clock)
	return m
}

func (m *CacheManager) clock() time.Time {
	return m.now()
}

func publicationsKey(scholarID string, sort domain.SortMode) string {
	return KeyOf(scholarID, sort.OrDefault().String())
}

func citingKey(publicationID string, sortByDate bool) string {
	return KeyOf(publicationID, strconv.FormatBool(sortByDate))
}

// SaveSnapshot ingests one observation.
//
// Basic info always replaces the cached summary. A publications or citing
// page is merged and only committed when the merge changed something.
// Events for one snapshot are published together after the commit.
func (m *CacheManager) SaveSnapshot(ctx context.Context, snap domain.DataSnapshot) error {
	if snap.EntityID == "" {
		return fmt.Errorf("%w: snapshot entity id is required", domain.ErrInvalidInput)
	}
	if snap.ID == "" {
		snap.ID = uuid.NewString()
	}
	if snap.Timestamp.IsZero() {
		snap.Timestamp = m.now()
	}
	snap.SortMode = snap.SortMode.OrDefault()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.appendHistory(snap)

	var events []domain.ChangeEvent
	dirty := false

	if snap.HasBasicInfo() {
		events = append(events, m.applyBasicInfo(snap))
		dirty = true
	}

	if len(snap.Publications) > 0 {
		if evs, committed := m.applyPublications(snap); committed {
			events = append(events, evs...)
			dirty = true
		}
	}

	if snap.Citing != nil {
		if ev, committed := m.applyCitingPage(snap.Citing); committed {
			events = append(events, ev)
			dirty = true
		}
	}

	if !dirty {
		m.log.Debug("snapshot %s for %s changed nothing", snap.ID, snap.EntityID)
		return nil
	}

	m.persist(ctx)
	m.bus.Publish(events...)
	return nil
}

func (m *CacheManager) applyBasicInfo(snap domain.DataSnapshot) domain.ChangeEvent {
	var oldCitations *int
	if old, found := m.basic.Get(snap.EntityID); found {
		oldCitations = domain.IntPtr(old.Citations)
	}

	info := domain.BasicInfo{
		ScholarID:   snap.EntityID,
		Name:        snap.Name,
		Citations:   *snap.TotalCitations,
		HIndex:      snap.HIndex,
		I10Index:    snap.I10Index,
		LastUpdated: snap.Timestamp,
		Source:      snap.Source,
	}
	m.basic.Put(snap.EntityID, info)

	return domain.EntityInfoUpdated{
		ScholarID:    snap.EntityID,
		OldCitations: oldCitations,
		NewCitations: domain.IntPtr(info.Citations),
	}
}

func (m *CacheManager) applyPublications(snap domain.DataSnapshot) ([]domain.ChangeEvent, bool) {
	key := publicationsKey(snap.EntityID, snap.SortMode)
	existing, found := m.pubs.Get(key)

	res := domain.MergePage(existing, snap.Publications, snap.PageOffset)
	if !shouldCommit(found, len(existing), len(res.Items), res.Updated, res.New, snap.PageOffset) {
		return nil, false
	}
	m.pubs.Put(key, res.Items)

	m.log.Info("%s/%s offset %d: %d updated, %d new, %d total",
		snap.EntityID, snap.SortMode, snap.PageOffset, res.Updated, res.New, len(res.Items))

	events := []domain.ChangeEvent{domain.PublicationsUpdated{
		ScholarID: snap.EntityID,
		SortMode:  snap.SortMode,
		Count:     len(res.Items),
		Updated:   res.Updated,
		New:       res.New,
	}}

	if snap.SortMode == domain.DefaultSortMode || snap.PageOffset == 0 {
		if changes := domain.ComparePublications(existing, res.Items); changes.HasChanges() {
			events = append(events, domain.PublicationsChanged{
				ScholarID: snap.EntityID,
				SortMode:  snap.SortMode,
				Changes:   changes,
			})
		}
	}
	return events, true
}

func (m *CacheManager) applyCitingPage(page *domain.CitingPage) (domain.ChangeEvent, bool) {
	if page.PublicationID == "" {
		return nil, false
	}
	key := citingKey(page.PublicationID, page.SortByDate)
	existing, found := m.citing.Get(key)

	res := domain.MergePage(existing, page.Articles, page.Offset)
	if !shouldCommit(found, len(existing), len(res.Items), res.Updated, res.New, page.Offset) {
		return nil, false
	}
	m.citing.Put(key, res.Items)

	return domain.CitingArticlesUpdated{
		PublicationID: page.PublicationID,
		SortByDate:    page.SortByDate,
		Count:         len(res.Items),
		New:           res.New,
	}, true
}

// shouldCommit reports whether a merge result is worth storing. A first page
// that shrank the list commits even without updated or new items.
func shouldCommit(found bool, oldLen, newLen, updated, added, offset int) bool {
	return !found || updated > 0 || added > 0 || (offset == 0 && newLen != oldLen)
}

func (m *CacheManager) appendHistory(snap domain.DataSnapshot) {
	m.histMu.Lock()
	defer m.histMu.Unlock()
	h := append(m.history[snap.EntityID], snap)
	if m.historyLimit > 0 && len(h) > m.historyLimit {
		h = h[len(h)-m.historyLimit:]
	}
	m.history[snap.EntityID] = h
}

// GetBasicInfo returns the cached summary of a scholar.
func (m *CacheManager) GetBasicInfo(scholarID string) (*domain.BasicInfo, bool) {
	info, ok := m.basic.Get(scholarID)
	if !ok {
		return nil, false
	}
	return &info, true
}

// GetPublications returns up to limit publications starting at offset.
// The slice is empty, never nil, when the window falls outside the list.
func (m *CacheManager) GetPublications(
	scholarID string,
	sort domain.SortMode,
	offset, limit int,
) ([]domain.Publication, bool) {
	list, ok := m.pubs.Get(publicationsKey(scholarID, sort))
	if !ok {
		return nil, false
	}
	return window(list, offset, limit), true
}

// NeedsFetchMore reports whether index lies beyond the cached list.
func (m *CacheManager) NeedsFetchMore(scholarID string, sort domain.SortMode, index int) bool {
	list, ok := m.pubs.Get(publicationsKey(scholarID, sort))
	return !ok || index >= len(list)
}

// GetCitingArticles returns up to limit citing articles starting at offset.
func (m *CacheManager) GetCitingArticles(
	publicationID string,
	sortByDate bool,
	offset, limit int,
) ([]domain.CitingArticle, bool) {
	list, ok := m.citing.Get(citingKey(publicationID, sortByDate))
	if !ok {
		return nil, false
	}
	return window(list, offset, limit), true
}

// window copies list[offset:offset+limit], clamped to the list bounds.
func window[T any](list []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || offset >= len(list) {
		return []T{}
	}
	end := len(list)
	if limit < end-offset {
		end = offset + limit
	}
	out := make([]T, end-offset)
	copy(out, list[offset:end])
	return out
}

// ClearCache discards everything cached for a scholar or publication,
// including its snapshot history.
func (m *CacheManager) ClearCache(ctx context.Context, entityID string) error {
	if entityID == "" {
		return fmt.Errorf("%w: entity id is required", domain.ErrInvalidInput)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Keys are removed by exact form; ids may themselves contain the
	// separator, so "p" must not take "p:1" with it.
	m.basic.Invalidate(entityID)
	pubs, citing := 0, 0
	for _, sort := range domain.AllSortModes() {
		if m.pubs.Invalidate(publicationsKey(entityID, sort)) {
			pubs++
		}
	}
	for _, byDate := range []bool{false, true} {
		if m.citing.Invalidate(citingKey(entityID, byDate)) {
			citing++
		}
	}

	m.histMu.Lock()
	delete(m.history, entityID)
	m.histMu.Unlock()

	m.log.Info("cleared %s (%d publication lists, %d citing lists)", entityID, pubs, citing)
	m.persist(ctx)
	m.bus.Publish(domain.CacheCleared{EntityID: entityID})
	return nil
}

// ClearAllCache discards every cached entry, all history and the persisted blob.
func (m *CacheManager) ClearAllCache(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.basic.Clear()
	m.pubs.Clear()
	m.citing.Clear()

	m.histMu.Lock()
	m.history = make(map[string][]domain.DataSnapshot)
	m.histMu.Unlock()

	if err := m.storage.DeleteBlob(ctx, CacheBlobKey); err != nil {
		m.log.Error("failed to delete persisted cache: %v", err)
	}
	m.bus.Publish(domain.CacheCleared{})
	return nil
}

// Compact evicts expired entries and persists if anything was evicted.
func (m *CacheManager) Compact(ctx context.Context) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	evicted := m.basic.Compact() + m.pubs.Compact() + m.citing.Compact()
	if evicted > 0 {
		m.persist(ctx)
	}
	return evicted
}

// Subscribe registers a change event handler.
func (m *CacheManager) Subscribe(handler func(domain.ChangeEvent)) func() {
	return m.bus.Subscribe(handler)
}

// History returns the snapshots ingested for an entity, oldest first.
func (m *CacheManager) History(entityID string) []domain.DataSnapshot {
	m.histMu.RLock()
	defer m.histMu.RUnlock()
	h := m.history[entityID]
	out := make([]domain.DataSnapshot, len(h))
	copy(out, h)
	return out
}

// Stats summarises the cache contents.
func (m *CacheManager) Stats() driving.CacheStats {
	stats := driving.CacheStats{Scholars: len(m.basic.Entries())}
	for _, e := range m.pubs.Entries() {
		stats.Publications += len(e.Value)
	}
	for _, e := range m.citing.Entries() {
		stats.CitingArticles += len(e.Value)
	}

	m.histMu.RLock()
	for _, h := range m.history {
		stats.Snapshots += len(h)
	}
	m.histMu.RUnlock()
	return stats
}

// Close stops event delivery.
func (m *CacheManager) Close() {
	m.bus.Close()
}

// persistedCache is the on-disk form of the cache.
type persistedCache struct {
	BasicInfo      map[string]domain.BasicInfo                         `json:"basic_info"`
	Publications   map[string]map[domain.SortMode][]domain.Publication `json:"publications"`
	CitingArticles map[string]map[string][]domain.CitingArticle        `json:"citing_articles"`
	LastSaved      time.Time                                           `json:"last_saved"`
}

// Persist writes the cache to storage.
func (m *CacheManager) Persist(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.write(ctx)
}

// persist writes the cache and logs failures (caller must hold lock).
func (m *CacheManager) persist(ctx context.Context) {
	if err := m.write(ctx); err != nil {
		m.log.Error("failed to persist cache: %v", err)
	}
}

// write encodes and stores the cache (caller must hold lock).
func (m *CacheManager) write(ctx context.Context) error {
	p := persistedCache{
		BasicInfo:      make(map[string]domain.BasicInfo),
		Publications:   make(map[string]map[domain.SortMode][]domain.Publication),
		CitingArticles: make(map[string]map[string][]domain.CitingArticle),
		LastSaved:      m.now(),
	}

	for key, e := range m.basic.Entries() {
		p.BasicInfo[key] = e.Value
	}
	for key, e := range m.pubs.Entries() {
		scholarID, sort := splitKey(key)
		if p.Publications[scholarID] == nil {
			p.Publications[scholarID] = make(map[domain.SortMode][]domain.Publication)
		}
		p.Publications[scholarID][domain.SortMode(sort)] = e.Value
	}
	for key, e := range m.citing.Entries() {
		publicationID, order := splitKey(key)
		if p.CitingArticles[publicationID] == nil {
			p.CitingArticles[publicationID] = make(map[string][]domain.CitingArticle)
		}
		p.CitingArticles[publicationID][order] = e.Value
	}

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}
	if err := m.storage.WriteBlob(ctx, CacheBlobKey, data); err != nil {
		return fmt.Errorf("write cache: %w", err)
	}
	return nil
}

// Load replaces the cache contents with the persisted blob. A blob older
// than the TTL is discarded.
func (m *CacheManager) Load(ctx context.Context) error {
	data, err := m.storage.ReadBlob(ctx, CacheBlobKey)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read cache: %w", err)
	}

	var p persistedCache
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("decode cache: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.now().Sub(p.LastSaved) > m.ttl {
		m.log.Info("persisted cache from %s expired, discarding", p.LastSaved.Format(time.RFC3339))
		if err := m.storage.DeleteBlob(ctx, CacheBlobKey); err != nil {
			m.log.Error("failed to delete expired cache: %v", err)
		}
		return nil
	}

	m.basic.Clear()
	m.pubs.Clear()
	m.citing.Clear()

	for scholarID, info := range p.BasicInfo {
		m.basic.Restore(scholarID, info, p.LastSaved)
	}
	for scholarID, bySort := range p.Publications {
		for sort, list := range bySort {
			m.pubs.Restore(publicationsKey(scholarID, sort), list, p.LastSaved)
		}
	}
	for publicationID, byOrder := range p.CitingArticles {
		for order, list := range byOrder {
			m.citing.Restore(KeyOf(publicationID, order), list, p.LastSaved)
		}
	}

	m.log.Info("loaded %d scholars, %d publication lists, %d citing lists",
		len(p.BasicInfo), m.pubs.Len(), m.citing.Len())
	return nil
}

// splitKey splits a two-part composite key at its last separator.
func splitKey(key string) (string, string) {
	i := strings.LastIndex(key, keySeparator)
	if i < 0 {
		return key, ""
	}
	return key[:i], key[i+1:]
}

package driving

import (
	"context"

	"github.com/tao-shen/CiteTrack-sub002/internal/core/domain"
)

// CacheService is the unified cache of fetched profile data.
// SaveSnapshot is the only way data enters the cache.
type CacheService interface {
	// SaveSnapshot ingests one observation, merges it and emits change events.
	SaveSnapshot(ctx context.Context, snapshot domain.DataSnapshot) error

	// GetBasicInfo returns the cached summary of a scholar.
	GetBasicInfo(scholarID string) (*domain.BasicInfo, bool)

	// GetPublications returns a window of the merged publication list.
	// Returns false only if the sort mode was never cached or has expired.
	GetPublications(scholarID string, sort domain.SortMode, offset, limit int) ([]domain.Publication, bool)

	// NeedsFetchMore reports whether index lies beyond the cached list.
	NeedsFetchMore(scholarID string, sort domain.SortMode, index int) bool

	// GetCitingArticles returns a window of the merged citing articles list.
	GetCitingArticles(publicationID string, sortByDate bool, offset, limit int) ([]domain.CitingArticle, bool)

	// ClearCache discards everything cached for one scholar or publication.
	ClearCache(ctx context.Context, entityID string) error

	// ClearAllCache discards everything, including persisted state.
	ClearAllCache(ctx context.Context) error

	// Subscribe registers a change event handler.
	// The returned function removes the subscription.
	Subscribe(handler func(domain.ChangeEvent)) (unsubscribe func())

	// History returns the snapshots ingested for an entity, oldest first.
	History(entityID string) []domain.DataSnapshot

	// Stats summarises the cache contents.
	Stats() CacheStats
}

// CacheStats summarises the cache contents.
type CacheStats struct {
	Scholars       int
	Publications   int
	CitingArticles int
	Snapshots      int
}

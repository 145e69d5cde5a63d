package domain

// ChangeEvent is emitted by the cache manager after a committed change.
// Implementations are EntityInfoUpdated, PublicationsUpdated,
// PublicationsChanged, CitingArticlesUpdated and CacheCleared.
type ChangeEvent interface {
	// Entity is the scholar or publication the event concerns.
	// Empty for global events.
	Entity() string

	isChangeEvent()
}

// EntityInfoUpdated reports a new basic info observation.
type EntityInfoUpdated struct {
	ScholarID    string
	OldCitations *int
	NewCitations *int
}

// PublicationsUpdated reports a committed publications merge.
type PublicationsUpdated struct {
	ScholarID string
	SortMode  SortMode
	Count     int
	Updated   int
	New       int
}

// PublicationsChanged carries the detailed diff of a committed merge.
type PublicationsChanged struct {
	ScholarID string
	SortMode  SortMode
	Changes   PublicationChanges
}

// CitingArticlesUpdated reports a committed citing articles merge.
type CitingArticlesUpdated struct {
	PublicationID string
	SortByDate    bool
	Count         int
	New           int
}

// CacheCleared reports a per-entity or, with an empty EntityID, global clear.
type CacheCleared struct {
	EntityID string
}

func (EntityInfoUpdated) isChangeEvent()     {}
func (PublicationsUpdated) isChangeEvent()   {}
func (PublicationsChanged) isChangeEvent()   {}
func (CitingArticlesUpdated) isChangeEvent() {}
func (CacheCleared) isChangeEvent()          {}

func (e EntityInfoUpdated) Entity() string     { return e.ScholarID }
func (e PublicationsUpdated) Entity() string   { return e.ScholarID }
func (e PublicationsChanged) Entity() string   { return e.ScholarID }
func (e CitingArticlesUpdated) Entity() string { return e.PublicationID }
func (e CacheCleared) Entity() string          { return e.EntityID }

// Changed reports whether the citation total differs between observations.
func (e EntityInfoUpdated) Changed() bool {
	if e.OldCitations == nil || e.NewCitations == nil {
		return e.OldCitations != e.NewCitations
	}
	return *e.OldCitations != *e.NewCitations
}

package domain

import "time"

// SortMode is the order in which a profile lists its publications.
type SortMode string

// Known sort modes.
const (
	// SortByCitations orders by total citations. It is the canonical mode.
	SortByCitations SortMode = "total"

	// SortByDate orders by publication date.
	SortByDate SortMode = "pubdate"

	// SortByTitle orders alphabetically.
	SortByTitle SortMode = "title"
)

// DefaultSortMode is the canonical sort used for basic profile fetches.
const DefaultSortMode = SortByCitations

// AllSortModes returns every known sort mode, canonical first.
func AllSortModes() []SortMode {
	return []SortMode{SortByCitations, SortByDate, SortByTitle}
}

// IsValid returns true if the sort mode is recognised.
func (m SortMode) IsValid() bool {
	switch m {
	case SortByCitations, SortByDate, SortByTitle:
		return true
	default:
		return false
	}
}

// OrDefault returns the canonical mode when m is empty.
func (m SortMode) OrDefault() SortMode {
	if m == "" {
		return DefaultSortMode
	}
	return m
}

// String returns the string representation.
func (m SortMode) String() string {
	return string(m)
}

// SnapshotSource tags which consumer produced a snapshot.
type SnapshotSource string

// Snapshot sources.
const (
	SourceScholarProfile SnapshotSource = "scholar_profile"
	SourceWhoCiteMe      SnapshotSource = "who_cite_me"
	SourceDashboard      SnapshotSource = "dashboard"
	SourceAutoUpdate     SnapshotSource = "auto_update"
	SourceWidget         SnapshotSource = "widget"
	SourceCitedBy        SnapshotSource = "cited_by"
)

// CitingPage is one page of citing articles for a publication.
type CitingPage struct {
	PublicationID string
	SortByDate    bool
	Offset        int
	Articles      []CitingArticle
}

// DataSnapshot is one immutable observation of a scholar or publication.
// Snapshots are the only way data enters the cache.
type DataSnapshot struct {
	ID        string
	EntityID  string
	Timestamp time.Time

	// Basic info fields. Name and TotalCitations must both be set for the
	// snapshot to update basic info.
	Name           string
	TotalCitations *int
	HIndex         *int
	I10Index       *int

	// Publications is one page of the profile under SortMode at PageOffset.
	Publications []Publication
	SortMode     SortMode
	PageOffset   int

	// Citing holds a page of citing articles. Nil for profile snapshots.
	Citing *CitingPage

	Source SnapshotSource
}

// HasBasicInfo reports whether the snapshot carries a basic info block.
func (s DataSnapshot) HasBasicInfo() bool {
	return s.Name != "" && s.TotalCitations != nil
}

// NewProfileSnapshot builds a snapshot from a fetched profile page.
func NewProfileSnapshot(
	id, scholarID string,
	page *ProfilePage,
	sort SortMode,
	offset int,
	source SnapshotSource,
	now time.Time,
) DataSnapshot {
	snap := DataSnapshot{
		ID:         id,
		EntityID:   scholarID,
		Timestamp:  now,
		SortMode:   sort.OrDefault(),
		PageOffset: offset,
		Source:     source,
	}
	if page == nil {
		return snap
	}
	snap.Publications = page.Publications
	if page.Info != nil {
		snap.Name = page.Info.Name
		snap.TotalCitations = IntPtr(page.Info.TotalCitations)
		snap.HIndex = page.Info.HIndex
		snap.I10Index = page.Info.I10Index
	}
	return snap
}

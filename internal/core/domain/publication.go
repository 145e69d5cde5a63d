package domain

import (
	"strconv"
	"strings"
	"time"
)

// Record is an item that can be merged page by page.
// IdentityKey must be stable across fetches of the same item.
type Record interface {
	IdentityKey() string

	// CitationValue returns the observed citation count, if any.
	CitationValue() (int, bool)
}

// Publication is a work listed on a scholar's profile.
type Publication struct {
	// Title is the displayed title.
	Title string `json:"title"`

	// ClusterID is the source's cluster identifier. Optional.
	ClusterID string `json:"cluster_id,omitempty"`

	// CitationCount is the observed number of citations. Optional.
	CitationCount *int `json:"citation_count,omitempty"`

	// Year is the publication year. Optional.
	Year *int `json:"year,omitempty"`
}

// IdentityKey returns the cluster id, or "<title>_<year>" when the
// publication has no cluster id. A missing year renders as "unknown".
func (p Publication) IdentityKey() string {
	if p.ClusterID != "" {
		return p.ClusterID
	}
	year := "unknown"
	if p.Year != nil {
		year = strconv.Itoa(*p.Year)
	}
	return p.Title + "_" + year
}

// CitationValue returns the citation count if it was observed.
func (p Publication) CitationValue() (int, bool) {
	if p.CitationCount == nil {
		return 0, false
	}
	return *p.CitationCount, true
}

// Citations returns the citation count, treating unknown as zero.
func (p Publication) Citations() int {
	n, _ := p.CitationValue()
	return n
}

// CitingArticle is an article that cites a publication.
type CitingArticle struct {
	ID                 string    `json:"id"`
	Title              string    `json:"title"`
	Authors            []string  `json:"authors,omitempty"`
	Year               *int      `json:"year,omitempty"`
	Venue              string    `json:"venue,omitempty"`
	CitationCount      *int      `json:"citation_count,omitempty"`
	ScholarURL         string    `json:"scholar_url,omitempty"`
	PDFURL             string    `json:"pdf_url,omitempty"`
	CitedPublicationID string    `json:"cited_publication_id,omitempty"`
	FetchedAt          time.Time `json:"fetched_at"`
}

// IdentityKey returns the article id.
func (a CitingArticle) IdentityKey() string {
	return a.ID
}

// CitationValue returns the citation count if it was observed.
func (a CitingArticle) CitationValue() (int, bool) {
	if a.CitationCount == nil {
		return 0, false
	}
	return *a.CitationCount, true
}

// AuthorsDisplay renders up to three authors, then "et al.".
func (a CitingArticle) AuthorsDisplay() string {
	switch {
	case len(a.Authors) == 0:
		return "Unknown authors"
	case len(a.Authors) <= 3:
		return strings.Join(a.Authors, ", ")
	default:
		return strings.Join(a.Authors[:3], ", ") + " et al."
	}
}

// ProfileInfo is the summary block of a scholar profile page.
type ProfileInfo struct {
	Name           string
	TotalCitations int
	HIndex         *int
	I10Index       *int
}

// ProfilePage is one page of a scholar profile as returned by a fetch.
// Info is nil when the page carried no summary block.
type ProfilePage struct {
	Info         *ProfileInfo
	Publications []Publication
}

// BasicInfo is the cached summary of a scholar.
type BasicInfo struct {
	ScholarID   string         `json:"scholar_id"`
	Name        string         `json:"name"`
	Citations   int            `json:"citations"`
	HIndex      *int           `json:"h_index,omitempty"`
	I10Index    *int           `json:"i10_index,omitempty"`
	LastUpdated time.Time      `json:"last_updated"`
	Source      SnapshotSource `json:"source"`
}

// IntPtr returns a pointer to n.
func IntPtr(n int) *int {
	return &n
}

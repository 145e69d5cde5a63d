package domain

import (
	"fmt"
	"strconv"
	"time"
)

// Priority orders fetch tasks. Higher values run first.
type Priority int

// Task priorities.
const (
	PriorityLow    Priority = 1
	PriorityMedium Priority = 2
	PriorityHigh   Priority = 3
)

// String returns the priority name.
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	default:
		return "priority(" + strconv.Itoa(int(p)) + ")"
	}
}

// IsValid returns true if the priority is one of the known bands.
func (p Priority) IsValid() bool {
	return p >= PriorityLow && p <= PriorityHigh
}

// PageKind groups tasks for fetch statistics.
type PageKind string

// Page kinds.
const (
	PageKindProfile PageKind = "ScholarInfo + Publications"
	PageKindCiting  PageKind = "CitingPapers"
)

// FetchTaskType is the closed set of fetch operations.
// Implementations are BasicInfoTask, PublicationsPageTask and
// CitingArticlesPageTask.
type FetchTaskType interface {
	// Identity is the deduplication key for the task.
	Identity() string

	// EntityID is the scholar or publication the task fetches.
	EntityID() string

	// Kind is the page kind used for statistics.
	Kind() PageKind

	// Validate checks the task parameters.
	Validate() error

	isFetchTask()
}

// BasicInfoTask fetches a scholar's summary together with the first page
// of publications under the canonical sort.
type BasicInfoTask struct {
	ScholarID string
}

// PublicationsPageTask fetches one page of a scholar's publications.
type PublicationsPageTask struct {
	ScholarID string
	SortMode  SortMode
	Offset    int
}

// CitingArticlesPageTask fetches one page of articles citing a publication.
type CitingArticlesPageTask struct {
	PublicationID string
	SortByDate    bool
	Offset        int
}

func (BasicInfoTask) isFetchTask()          {}
func (PublicationsPageTask) isFetchTask()   {}
func (CitingArticlesPageTask) isFetchTask() {}

// Identity returns "basic_<scholar>".
func (t BasicInfoTask) Identity() string {
	return "basic_" + t.ScholarID
}

// Identity returns "profile_<scholar>_<sort>_<offset>".
func (t PublicationsPageTask) Identity() string {
	return fmt.Sprintf("profile_%s_%s_%d", t.ScholarID, t.SortMode.OrDefault(), t.Offset)
}

// Identity returns "citedby_<publication>_<sortByDate>_<offset>".
func (t CitingArticlesPageTask) Identity() string {
	return fmt.Sprintf("citedby_%s_%t_%d", t.PublicationID, t.SortByDate, t.Offset)
}

func (t BasicInfoTask) EntityID() string          { return t.ScholarID }
func (t PublicationsPageTask) EntityID() string   { return t.ScholarID }
func (t CitingArticlesPageTask) EntityID() string { return t.PublicationID }

func (BasicInfoTask) Kind() PageKind          { return PageKindProfile }
func (PublicationsPageTask) Kind() PageKind   { return PageKindProfile }
func (CitingArticlesPageTask) Kind() PageKind { return PageKindCiting }

// Validate checks the task parameters.
func (t BasicInfoTask) Validate() error {
	if t.ScholarID == "" {
		return fmt.Errorf("%w: scholar id is required", ErrInvalidInput)
	}
	return nil
}

// Validate checks the task parameters.
func (t PublicationsPageTask) Validate() error {
	if t.ScholarID == "" {
		return fmt.Errorf("%w: scholar id is required", ErrInvalidInput)
	}
	if t.SortMode != "" && !t.SortMode.IsValid() {
		return fmt.Errorf("%w: unknown sort mode %q", ErrInvalidInput, t.SortMode)
	}
	if t.Offset < 0 {
		return fmt.Errorf("%w: negative page offset", ErrInvalidInput)
	}
	return nil
}

// Validate checks the task parameters.
func (t CitingArticlesPageTask) Validate() error {
	if t.PublicationID == "" {
		return fmt.Errorf("%w: publication id is required", ErrInvalidInput)
	}
	if t.Offset < 0 {
		return fmt.Errorf("%w: negative page offset", ErrInvalidInput)
	}
	return nil
}

// FetchTask is a queued fetch.
type FetchTask struct {
	Type      FetchTaskType
	Priority  Priority
	CreatedAt time.Time
}

// Identity returns the identity of the task type.
func (t FetchTask) Identity() string {
	return t.Type.Identity()
}

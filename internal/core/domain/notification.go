package domain

// Notification is a user-facing message handed to a Notifier.
type Notification struct {
	// ID uniquely identifies the notification.
	ID string

	Title string
	Body  string

	// Metadata carries machine-readable context, e.g. "type" and "cluster_id".
	Metadata map[string]string
}

// Notification metadata keys.
const (
	MetaType                = "type"
	MetaPublicationTitle    = "publication_title"
	MetaCitingTitle         = "citing_paper_title"
	MetaCitingAuthors       = "citing_paper_authors"
	MetaClusterID           = "cluster_id"
	MetaScholarID           = "scholar_id"
	NotificationNewCitation = "new_citation"
)

package driven

import (
	"context"

	"github.com/tao-shen/CiteTrack-sub002/internal/core/domain"
)

// FetchService retrieves pages from the external bibliographic source.
// Failures are reported as *domain.FetchError.
type FetchService interface {
	// FetchBasicProfileAndFirstPage returns the profile summary together with
	// the first page of publications under the canonical sort.
	FetchBasicProfileAndFirstPage(ctx context.Context, scholarID string) (*domain.ProfilePage, error)

	// FetchPublicationsPage returns one page of publications.
	// Info on the returned page may be nil.
	FetchPublicationsPage(
		ctx context.Context,
		scholarID string,
		sort domain.SortMode,
		offset int,
	) (*domain.ProfilePage, error)

	// FetchCitingArticlesPage returns one page of articles citing a publication.
	FetchCitingArticlesPage(
		ctx context.Context,
		publicationID string,
		sortByDate bool,
		offset int,
	) ([]domain.CitingArticle, error)
}

// Package domain holds CiteTrack's data model and the pure functions over it.
//
//   - Publication, CitingArticle: records observed on profile and cited-by pages
//   - DataSnapshot: one fetch result handed to the cache
//   - FetchTaskType: the closed set of fetch operations and their identities
//   - ChangeEvent: the closed set of cache change notifications
//   - MergePage, ComparePublications: page merging and citation diffs
//   - AppSettings: user settings and their validation
//
// Only the standard library is imported here.
package domain

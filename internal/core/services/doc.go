// Package services holds the fetch scheduling and caching core.
//
// CacheManager owns the expiring stores and is the single ingestion point
// for fetched snapshots. Coordinator queues and paces fetches against the
// FetchService and reports results back through CacheManager.SaveSnapshot.
// CitationWatcher listens to cache events and raises new citation
// notifications. Updater and Scheduler drive periodic refreshes, and
// SettingsService maps the ConfigStore onto domain.AppSettings.
package services

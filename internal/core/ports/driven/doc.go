// Package driven holds the ports core services call out through.
//
// Always wired:
//
//   - FetchService: profile and cited-by pages from the scholar site
//   - BlobStore: the persisted unified cache
//   - ConfigStore: settings
//   - SchedulerStore: periodic task state and run history
//
// May be nil:
//
//   - Notifier: without it the watcher only logs new citations
//   - BlobWatcher: without it, writes by a companion process are only
//     seen on the next start
package driven

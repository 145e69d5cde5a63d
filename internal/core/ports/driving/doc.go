// Package driving holds the ports the CLI and the MCP server call into.
//
//   - CacheService: reads, clears and stats over the unified cache
//   - FetchCoordinator: queues fetches, drains the queue, reports counters
//   - SettingsService: typed settings and the tracked scholar list
//   - Updater, Scheduler: background refresh
//
// internal/core/services implements all of them.
package driving

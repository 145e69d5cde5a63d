// Package mcp provides an MCP (Model Context Protocol) server adapter for CiteTrack.
// It lets AI assistants read cached scholar data and schedule fetches.
package mcp

import "errors"

// ErrMissingCacheService is returned when the cache service is not provided.
var ErrMissingCacheService = errors.New("mcp: cache service is required")

// ErrFetchUnavailable is returned by fetch tools when no coordinator is wired.
var ErrFetchUnavailable = errors.New("mcp: fetching is not available")

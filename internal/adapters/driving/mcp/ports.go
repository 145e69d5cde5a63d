package mcp

import (
	"github.com/tao-shen/CiteTrack-sub002/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Cache serves cached scholar data.
	Cache driving.CacheService

	// Coordinator schedules fetches. Optional; fetch tools fail without it.
	Coordinator driving.FetchCoordinator

	// Settings lists tracked scholars. Optional.
	Settings driving.SettingsService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Cache == nil {
		return ErrMissingCacheService
	}
	return nil
}

package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/tao-shen/CiteTrack-sub002/internal/core/ports/driving"
	"github.com/tao-shen/CiteTrack-sub002/internal/logger"
)

// Ensure Updater implements the interface.
var _ driving.Updater = (*Updater)(nil)

// Updater is the background refresh of every tracked scholar.
type Updater struct {
	coord    driving.FetchCoordinator
	scholars func() []string
	log      logger.Logger
}

// NewUpdater creates an updater. scholars is called on every run so that
// changes to the tracked list apply without a restart.
func NewUpdater(coord driving.FetchCoordinator, scholars func() []string) *Updater {
	return &Updater{
		coord:    coord,
		scholars: scholars,
		log:      logger.Scope("updater"),
	}
}

// RefreshAll plans a forced refresh for every tracked scholar, waits for
// the queue to drain and returns the fetch counts of this run.
func (u *Updater) RefreshAll(ctx context.Context) (int, int, error) {
	ids := u.scholars()
	if len(ids) == 0 {
		u.log.Debug("no tracked scholars")
		return 0, 0, nil
	}

	before := u.coord.Stats()

	var errs []error
	for _, id := range ids {
		if _, err := u.coord.RefreshComprehensive(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("refresh %s: %w", id, err))
		}
	}

	if err := u.coord.Drain(ctx); err != nil {
		errs = append(errs, err)
	}

	after := u.coord.Stats()
	completed := max(after.Completed-before.Completed, 0)
	failed := max(after.Failed-before.Failed, 0)

	u.log.Info("refreshed %d scholars: %d of %d succeeded", len(ids), completed, completed+failed)
	return completed, failed, errors.Join(errs...)
}

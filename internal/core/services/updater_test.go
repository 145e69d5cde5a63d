package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tao-shen/CiteTrack-sub002/internal/core/domain"
)

func TestUpdater_RefreshAll(t *testing.T) {
	f := newCoordinatorFixture(t)
	f.withProfile("s1", pub("a", 1))
	updater := NewUpdater(f.coord, func() []string { return []string{"s1", "s2"} })

	completed, failed, err := updater.RefreshAll(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 19, completed)
	assert.Equal(t, 1, failed, "s2 has no profile")
	_, ok := f.cache.GetBasicInfo("s1")
	assert.True(t, ok)
}

func TestUpdater_RefreshAll_CountsOnlyThisRun(t *testing.T) {
	f := newCoordinatorFixture(t)
	f.withProfile("s1", pub("a", 1))
	updater := NewUpdater(f.coord, func() []string { return []string{"s1"} })
	ctx := context.Background()

	_, _, err := updater.RefreshAll(ctx)
	require.NoError(t, err)

	completed, failed, err := updater.RefreshAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, completed, "deeper pages are not refetched")
	assert.Zero(t, failed)
}

func TestUpdater_RefreshAll_NoScholars(t *testing.T) {
	f := newCoordinatorFixture(t)
	updater := NewUpdater(f.coord, func() []string { return nil })

	completed, failed, err := updater.RefreshAll(context.Background())

	require.NoError(t, err)
	assert.Zero(t, completed+failed)
	assert.Empty(t, f.fetcher.callList())
}

func TestUpdater_RefreshAll_InvalidScholar(t *testing.T) {
	f := newCoordinatorFixture(t)
	f.withProfile("s1")
	updater := NewUpdater(f.coord, func() []string { return []string{"", "s1"} })

	completed, _, err := updater.RefreshAll(context.Background())

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Positive(t, completed, "valid scholars still refresh")
}

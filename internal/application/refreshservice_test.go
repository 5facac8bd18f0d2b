package application_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/streetpass/internal/application"
	"github.com/ericfisherdev/streetpass/internal/domain/model"
)

func TestRefreshService_RefreshNowUpdatesStaleProfiles(t *testing.T) {
	f := newHrefFixture(map[string]model.ProfileData{aliceHref: aliceProfile, bobHref: bobProfile})
	ctx := context.Background()

	f.svc.RecordVisit(ctx, aliceHref, "https://alice.example")
	f.svc.RecordVisit(ctx, nothingHref, "https://nothing.example")
	f.clock.Advance(23 * time.Hour)
	f.svc.RecordVisit(ctx, bobHref, "https://bob.example")
	f.clock.Advance(2 * time.Hour)

	refresher := application.NewRefreshService(f.svc, 0, 24*time.Hour, discardLogger(),
		application.WithRefreshClock(f.clock.Now))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go refresher.Start(runCtx)

	summary, err := refresher.RefreshNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, application.RefreshSummary{Checked: 1, Updated: 1}, summary, "only alice is stale")
	assert.Equal(t, 2, f.resolver.callCount(aliceHref))
	assert.Equal(t, 1, f.resolver.callCount(bobHref))
	assert.Equal(t, f.clock.Now(), f.record(t, aliceHref).UpdatedAt)

	// Alice was just checked, so nothing is stale now.
	summary, err = refresher.RefreshNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, application.RefreshSummary{}, summary)
}

func TestRefreshService_PeriodicSweep(t *testing.T) {
	f := newHrefFixture(map[string]model.ProfileData{aliceHref: aliceProfile})
	ctx := context.Background()
	f.svc.RecordVisit(ctx, aliceHref, "https://alice.example")

	refresher := application.NewRefreshService(f.svc, time.Hour, 0, discardLogger(),
		application.WithRefreshClock(f.clock.Now))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go refresher.Start(runCtx)

	assert.Eventually(t, func() bool {
		return f.resolver.callCount(aliceHref) == 2
	}, time.Second, 5*time.Millisecond, "first sweep runs at start")
}

func TestRefreshService_RefreshNowWithoutLoop(t *testing.T) {
	f := newHrefFixture(nil)
	refresher := application.NewRefreshService(f.svc, 0, time.Hour, discardLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := refresher.RefreshNow(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

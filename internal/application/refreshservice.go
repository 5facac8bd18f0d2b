package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/ericfisherdev/streetpass/internal/domain/model"
)

// RefreshSummary reports the outcome of one refresh sweep.
type RefreshSummary struct {
	Checked int
	Updated int
}

// refreshRequest represents a manual sweep trigger.
type refreshRequest struct {
	done chan RefreshSummary
}

// RefreshService periodically re-resolves stored profiles whose last check is
// older than staleAfter, keeping their account, profile URL and avatar current.
type RefreshService struct {
	hrefs      *HrefService
	interval   time.Duration
	staleAfter time.Duration
	now        func() time.Time
	logger     *slog.Logger
	refreshCh  chan refreshRequest
}

// RefreshServiceOption configures a RefreshService.
type RefreshServiceOption func(*RefreshService)

// WithRefreshClock sets the time source used to decide staleness.
func WithRefreshClock(now func() time.Time) RefreshServiceOption {
	return func(s *RefreshService) {
		s.now = now
	}
}

// NewRefreshService creates a RefreshService. An interval of zero or less
// disables the periodic sweep; manual sweeps via RefreshNow still work while
// Start is running.
func NewRefreshService(
	hrefs *HrefService,
	interval, staleAfter time.Duration,
	logger *slog.Logger,
	opts ...RefreshServiceOption,
) *RefreshService {
	s := &RefreshService{
		hrefs:      hrefs,
		interval:   interval,
		staleAfter: staleAfter,
		now:        time.Now,
		logger:     logger,
		refreshCh:  make(chan refreshRequest),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start runs the sweep loop until ctx is canceled. When periodic sweeps are
// enabled, the first sweep runs immediately.
func (s *RefreshService) Start(ctx context.Context) {
	var tick <-chan time.Time
	if s.interval > 0 {
		s.sweep(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("refresh service stopped")
			return
		case <-tick:
			s.sweep(ctx)
		case req := <-s.refreshCh:
			req.done <- s.sweep(ctx)
		}
	}
}

// RefreshNow runs one sweep on the service loop and blocks until it
// completes or ctx is canceled.
func (s *RefreshService) RefreshNow(ctx context.Context) (RefreshSummary, error) {
	req := refreshRequest{done: make(chan RefreshSummary, 1)}

	select {
	case s.refreshCh <- req:
	case <-ctx.Done():
		return RefreshSummary{}, ctx.Err()
	}

	select {
	case summary := <-req.done:
		return summary, nil
	case <-ctx.Done():
		return RefreshSummary{}, ctx.Err()
	}
}

// sweep refreshes every stale profile record.
func (s *RefreshService) sweep(ctx context.Context) RefreshSummary {
	start := time.Now()
	var summary RefreshSummary

	for _, r := range s.staleProfiles(ctx) {
		if ctx.Err() != nil {
			break
		}
		summary.Checked++
		if s.hrefs.Refresh(ctx, r.RelMeHref) {
			summary.Updated++
		}
	}

	s.logger.Info("refresh sweep complete",
		"checked", summary.Checked,
		"updated", summary.Updated,
		"duration", time.Since(start).Round(time.Millisecond),
	)

	return summary
}

func (s *RefreshService) staleProfiles(ctx context.Context) []model.HrefRecord {
	cutoff := s.now().Add(-s.staleAfter)

	var stale []model.HrefRecord
	for _, r := range s.hrefs.Snapshot(ctx).Records() {
		if r.ProfileData.IsProfile() && !r.LastCheckedAt().After(cutoff) {
			stale = append(stale, r)
		}
	}
	return stale
}

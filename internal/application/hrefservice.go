// Package application contains use-case orchestration services.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/ericfisherdev/streetpass/internal/domain/model"
	"github.com/ericfisherdev/streetpass/internal/domain/port/driven"
)

var (
	// ErrUnknownMessage is returned for envelopes naming no known message.
	ErrUnknownMessage = errors.New("unknown message")
	// ErrMalformedMessage is returned for envelopes whose arguments do not
	// match the named message.
	ErrMalformedMessage = errors.New("malformed message")
)

// HrefService is the only writer of href records. It decides when a record
// is created, refreshed, hidden, or expired.
type HrefService struct {
	slot     *Slot[*model.HrefStore]
	resolver driven.ProfileResolver
	icons    *IconService
	now      func() time.Time
	logger   *slog.Logger
}

// HrefServiceOption configures an HrefService.
type HrefServiceOption func(*HrefService)

// WithClock sets the time source used for viewedAt, updatedAt, and expiry.
func WithClock(now func() time.Time) HrefServiceOption {
	return func(s *HrefService) {
		s.now = now
	}
}

// NewHrefService creates an HrefService over the href store slot. When a
// change adds distinct profiles, icons (if non-nil) is told how many.
func NewHrefService(
	registry *SlotRegistry,
	resolver driven.ProfileResolver,
	icons *IconService,
	logger *slog.Logger,
	opts ...HrefServiceOption,
) *HrefService {
	s := &HrefService{
		resolver: resolver,
		icons:    icons,
		now:      time.Now,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.slot = NewSlot(registry, HrefStoreKey, HrefStoreCodec(), OnChange(s.onStoreChange))
	return s
}

// onStoreChange lights the icon when the number of distinct profiles grows.
func (s *HrefService) onStoreChange(ctx context.Context, prev, curr *model.HrefStore) {
	if s.icons == nil {
		return
	}
	if added := countProfiles(curr) - countProfiles(prev); added > 0 {
		// The href write is already persisted; the icon must follow it even
		// if the caller gives up now.
		s.icons.AddUnread(context.WithoutCancel(ctx), added)
	}
}

// transact runs mutate on the href slot after dropping expired negative
// records. mutate may be nil for a read.
func (s *HrefService) transact(ctx context.Context, mutate Mutator[*model.HrefStore]) (*model.HrefStore, error) {
	return s.slot.Transact(ctx, func(store *model.HrefStore) (*model.HrefStore, bool) {
		purged := store.PurgeExpiredNegatives(s.now(), model.NegativeTTL) > 0
		if mutate == nil {
			return store, purged
		}
		next, changed := mutate(store)
		return next, changed || purged
	})
}

// access is transact for callers that only need the (possibly stale) store.
func (s *HrefService) access(ctx context.Context, mutate Mutator[*model.HrefStore]) *model.HrefStore {
	store, err := s.transact(ctx, mutate)
	if err != nil {
		s.logger.Warn("href store access degraded", "error", err)
	}
	return store
}

// Snapshot returns the current href store. The result must not be modified.
func (s *HrefService) Snapshot(ctx context.Context) *model.HrefStore {
	return s.access(ctx, nil)
}

// Profiles returns the profile feed, newest first.
func (s *HrefService) Profiles(ctx context.Context, includeHidden bool) []model.HrefRecord {
	return ProfileFeed(s.Snapshot(ctx), includeHidden)
}

// RecordVisit classifies relMeHref and stores the result, unless a record
// already exists. The existence check and the write are separate slot
// operations, so concurrent first visits may both resolve; the later write
// wins and there is still one record per href.
func (s *HrefService) RecordVisit(ctx context.Context, relMeHref, tabURL string) {
	if s.access(ctx, nil).Has(relMeHref) {
		return
	}

	profile := s.resolver.Resolve(ctx, relMeHref)
	if ctx.Err() != nil {
		// A canceled resolution says nothing about the href.
		s.logger.Debug("visit dropped", "href", relMeHref, "error", ctx.Err())
		return
	}

	s.access(ctx, func(store *model.HrefStore) (*model.HrefStore, bool) {
		store.Put(model.HrefRecord{
			RelMeHref:   relMeHref,
			ProfileData: profile,
			WebsiteURL:  tabURL,
			ViewedAt:    s.now(),
		})
		return store, true
	})

	s.logger.Debug("visit recorded",
		"href", relMeHref,
		"tab_url", tabURL,
		"kind", profile.Kind,
	)
}

// Refresh re-resolves an existing record, bypassing cached responses. A
// NotProfile result leaves the store untouched and returns false. A Profile
// result returns true; when the stored record is a profile its data is
// replaced with the fresh values and UpdatedAt is stamped. NotProfile records
// are never upgraded in place; they expire and are re-resolved on a later
// visit.
func (s *HrefService) Refresh(ctx context.Context, relMeHref string) bool {
	if u, err := url.Parse(relMeHref); err != nil || u.Scheme == "" {
		return false
	}

	if !s.access(ctx, nil).Has(relMeHref) {
		return false
	}

	profile := s.resolver.Revalidate(ctx, relMeHref)
	if !profile.IsProfile() || ctx.Err() != nil {
		s.logger.Debug("no profile update", "href", relMeHref)
		return false
	}

	_, err := s.transact(ctx, func(store *model.HrefStore) (*model.HrefStore, bool) {
		if r, ok := store.Get(relMeHref); !ok || !r.ProfileData.IsProfile() {
			return store, false
		}
		store.Update(relMeHref, func(r *model.HrefRecord) {
			r.ProfileData = profile
			r.UpdatedAt = s.now()
		})
		return store, true
	})
	if err != nil {
		s.logger.Warn("profile update not stored", "href", relMeHref, "error", err)
		return false
	}

	return true
}

// SetHidden sets the hidden flag of one record and reports whether it exists.
func (s *HrefService) SetHidden(ctx context.Context, relMeHref string, hidden bool) bool {
	return s.SetHiddenBulk(ctx, []string{relMeHref}, hidden) == 1
}

// SetHiddenBulk sets the hidden flag on every listed record in a single slot
// operation and returns how many records were found.
func (s *HrefService) SetHiddenBulk(ctx context.Context, relMeHrefs []string, hidden bool) int {
	var found int
	_, err := s.transact(ctx, func(store *model.HrefStore) (*model.HrefStore, bool) {
		for _, href := range relMeHrefs {
			if store.Update(href, func(r *model.HrefRecord) { r.Hidden = hidden }) {
				found++
			}
		}
		return store, found > 0
	})
	if err != nil {
		s.logger.Warn("hidden flag not stored", "count", len(relMeHrefs), "error", err)
		return 0
	}
	return found
}

// PurgeExpiredNegatives removes NotProfile records older than
// model.NegativeTTL and returns how many were removed. The same purge also
// runs implicitly at the start of every other href store operation.
func (s *HrefService) PurgeExpiredNegatives(ctx context.Context) int {
	var removed int
	s.slot.Access(ctx, func(store *model.HrefStore) (*model.HrefStore, bool) {
		removed = store.PurgeExpiredNegatives(s.now(), model.NegativeTTL)
		return store, removed > 0
	})
	return removed
}

// MessageReply is the response to an inbound message. HasValue is false for
// messages that return nothing.
type MessageReply struct {
	HasValue bool
	Updated  bool
}

// Dispatch routes an inbound message to the matching operation.
func (s *HrefService) Dispatch(ctx context.Context, msg model.Message) (MessageReply, error) {
	switch m := msg.(type) {
	case model.HrefPayload:
		s.RecordVisit(ctx, m.RelMeHref, m.TabURL)
		return MessageReply{}, nil
	case model.FetchProfileUpdate:
		return MessageReply{HasValue: true, Updated: s.Refresh(ctx, m.RelMeHref)}, nil
	default:
		return MessageReply{}, fmt.Errorf("%w: %T", ErrUnknownMessage, msg)
	}
}

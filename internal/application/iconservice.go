package application

import (
	"context"
	"log/slog"

	"github.com/ericfisherdev/streetpass/internal/domain/model"
	"github.com/ericfisherdev/streetpass/internal/domain/port/driven"
)

// IconService owns the icon state slot. Every persisted change is forwarded
// to the IconPresenter.
type IconService struct {
	slot   *Slot[model.IconState]
	logger *slog.Logger
}

// NewIconService creates an IconService. presenter may be nil.
func NewIconService(registry *SlotRegistry, presenter driven.IconPresenter, logger *slog.Logger) *IconService {
	var opts []SlotOption[model.IconState]
	if presenter != nil {
		opts = append(opts, OnChange(func(ctx context.Context, prev, curr model.IconState) {
			presenter.Present(ctx, prev, curr)
		}))
	}

	return &IconService{
		slot:   NewSlot(registry, IconStateKey, IconStateCodec(), opts...),
		logger: logger,
	}
}

// State returns the current icon state.
func (s *IconService) State(ctx context.Context) model.IconState {
	return s.slot.Access(ctx, nil)
}

// AddUnread lights the icon and adds n newly discovered profiles to the
// unread count.
func (s *IconService) AddUnread(ctx context.Context, n int) model.IconState {
	if n <= 0 {
		return s.State(ctx)
	}
	return s.slot.Access(ctx, func(cur model.IconState) (model.IconState, bool) {
		return model.IconState{
			State:       model.IconStatusOn,
			UnreadCount: cur.UnreadCount + n,
		}, true
	})
}

// MarkSeen turns the icon off and clears the unread count, as happens when
// the profile list is opened.
func (s *IconService) MarkSeen(ctx context.Context) model.IconState {
	return s.slot.Access(ctx, func(model.IconState) (model.IconState, bool) {
		return model.DefaultIconState(), true
	})
}

// Resync rewrites the current state unchanged so the presenter redraws it.
// Called once at startup.
func (s *IconService) Resync(ctx context.Context) model.IconState {
	state := s.slot.Access(ctx, func(cur model.IconState) (model.IconState, bool) {
		return cur, true
	})
	s.logger.Debug("icon state resynced", "state", state.State, "unread", state.UnreadCount)
	return state
}

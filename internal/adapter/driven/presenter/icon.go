// Package presenter implements the IconPresenter port.
package presenter

import (
	"context"
	"log/slog"

	"github.com/ericfisherdev/streetpass/internal/domain/model"
	"github.com/ericfisherdev/streetpass/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.IconPresenter = (*LogIconPresenter)(nil)

// BadgeColor is the badge background shown next to unread counts.
const BadgeColor = "#9f99f5"

// LogIconPresenter renders icon state as structured log lines. It stands in
// for a toolbar icon on headless hosts.
type LogIconPresenter struct {
	logger *slog.Logger
}

// NewLogIconPresenter creates a LogIconPresenter.
func NewLogIconPresenter(logger *slog.Logger) *LogIconPresenter {
	return &LogIconPresenter{logger: logger}
}

// Present logs the new icon state and badge text.
func (p *LogIconPresenter) Present(ctx context.Context, prev, curr model.IconState) {
	p.logger.InfoContext(ctx, "icon state changed",
		"state", curr.State,
		"badge", curr.BadgeText(),
		"badge_color", BadgeColor,
		"prev_state", prev.State,
		"prev_badge", prev.BadgeText(),
	)
}

package driven

import (
	"context"

	"github.com/ericfisherdev/streetpass/internal/domain/model"
)

// IconPresenter renders icon state changes (toolbar icon, badge text) to
// whatever presentation surface is attached.
type IconPresenter interface {
	Present(ctx context.Context, prev, curr model.IconState)
}

package driven

import (
	"context"

	"github.com/ericfisherdev/streetpass/internal/domain/model"
)

// ProfileResolver classifies a URL as a federated profile or not.
// Neither method fails: every error is reported as model.NotProfile().
type ProfileResolver interface {
	// Resolve may answer from cached responses.
	Resolve(ctx context.Context, href string) model.ProfileData
	// Revalidate bypasses cached responses and asks the origin again.
	Revalidate(ctx context.Context, href string) model.ProfileData
}

package fediverse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/ericfisherdev/streetpass/internal/domain/model"
)

const (
	blueskyWebHost      = "bsky.app"
	blueskyHandleSuffix = ".bsky.social"
	blueskyAccountHost  = "bsky.app"
)

// blueskyMatch describes an href with the /profile/<actor> shape. A
// confirmed match is on bsky.app itself; other hosts only match
// speculatively, when the actor is a *.bsky.social handle.
type blueskyMatch struct {
	actor     string
	confirmed bool
}

// blueskyProfile is the subset of app.bsky.actor.getProfile we read.
type blueskyProfile struct {
	DID    string `json:"did"`
	Handle string `json:"handle"`
	Avatar string `json:"avatar"`
}

func matchBluesky(u *url.URL) (blueskyMatch, bool) {
	rest, ok := strings.CutPrefix(u.EscapedPath(), "/profile/")
	if !ok {
		return blueskyMatch{}, false
	}
	actor, err := url.PathUnescape(strings.TrimSuffix(rest, "/"))
	if err != nil || actor == "" || strings.Contains(actor, "/") {
		return blueskyMatch{}, false
	}

	if strings.EqualFold(u.Hostname(), blueskyWebHost) {
		return blueskyMatch{actor: actor, confirmed: true}, true
	}
	if strings.HasSuffix(strings.ToLower(actor), blueskyHandleSuffix) {
		return blueskyMatch{actor: actor}, true
	}
	return blueskyMatch{}, false
}

// resolveBluesky reads the actor's public profile. The account is the
// handle qualified with @bsky.app and the profile URL is href itself.
func (r *Resolver) resolveBluesky(ctx context.Context, href, actor string, revalidate bool) (model.ProfileData, error) {
	endpoint := *r.blueskyAPI
	endpoint.Path = strings.TrimSuffix(endpoint.Path, "/") + "/xrpc/app.bsky.actor.getProfile"
	endpoint.RawQuery = url.Values{"actor": {actor}}.Encode()

	body, _, err := r.get(ctx, endpoint.String(), "application/json", revalidate)
	if err != nil {
		return model.ProfileData{}, fmt.Errorf("bluesky profile %s: %w", actor, err)
	}

	var p blueskyProfile
	if err := json.Unmarshal(body, &p); err != nil {
		return model.ProfileData{}, fmt.Errorf("decoding bluesky profile %s: %w", actor, err)
	}

	handle := p.Handle
	if handle == "" {
		if p.DID == "" {
			return model.ProfileData{}, errors.New("bluesky profile has neither handle nor did")
		}
		handle = actor
	}

	var avatar string
	if av, err := parseHTTPURL(p.Avatar); err == nil {
		avatar = av.String()
	}

	return model.NewProfile(handle+"@"+blueskyAccountHost, href, avatar), nil
}

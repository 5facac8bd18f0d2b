package application

import (
	"net/url"
	"strings"

	"github.com/samber/lo"

	"github.com/ericfisherdev/streetpass/internal/domain/model"
)

// ProfileFeed returns the records classified as profiles, newest first,
// with one entry per profile URL (the newest observation wins). Hidden
// records are dropped unless includeHidden is set.
func ProfileFeed(store *model.HrefStore, includeHidden bool) []model.HrefRecord {
	records := store.Records()

	newestFirst := make([]model.HrefRecord, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		newestFirst = append(newestFirst, records[i])
	}

	profiles := lo.Filter(newestFirst, func(r model.HrefRecord, _ int) bool {
		return r.ProfileData.IsProfile() && (includeHidden || !r.Hidden)
	})

	return lo.UniqBy(profiles, func(r model.HrefRecord) string {
		return r.ProfileData.ProfileURL
	})
}

// countProfiles returns the number of distinct profiles in store.
func countProfiles(store *model.HrefStore) int {
	return len(ProfileFeed(store, true))
}

// DisplayHref shortens href for display: host, path without a trailing
// slash, and query, with a leading "www." removed. Unparseable input is
// returned as is.
func DisplayHref(href string) string {
	u, err := url.Parse(href)
	if err != nil || u.Host == "" {
		return href
	}

	path := strings.TrimSuffix(u.EscapedPath(), "/")
	display := u.Host + path
	if u.RawQuery != "" {
		display += "?" + u.RawQuery
	}

	return strings.TrimPrefix(display, "www.")
}

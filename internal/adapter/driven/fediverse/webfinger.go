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
	webfingerPath   = "/.well-known/webfinger"
	webfingerAccept = "application/jrd+json, application/json"

	relProfilePage = "//webfinger.net/rel/profile-page"
	relAvatar      = "//webfinger.net/rel/avatar"
)

var errNoProfilePage = errors.New("webfinger document has no profile-page link")

// webfingerDocument is a JRD (RFC 7033) document.
type webfingerDocument struct {
	Subject    string          `json:"subject"`
	Aliases    []string        `json:"aliases,omitempty"`
	Properties map[string]any  `json:"properties,omitempty"`
	Links      []webfingerLink `json:"links,omitempty"`
}

type webfingerLink struct {
	Rel        string            `json:"rel"`
	Type       string            `json:"type,omitempty"`
	Href       string            `json:"href,omitempty"`
	Titles     map[string]string `json:"titles,omitempty"`
	Properties map[string]any    `json:"properties,omitempty"`
}

// resolveWebFinger fetches href (following redirects) and queries WebFinger
// at the final origin with the final URL as resource. If that query fails it
// retries once with an acct:@<user>@<host> resource derived from the URL.
func (r *Resolver) resolveWebFinger(ctx context.Context, href string, revalidate bool) (model.ProfileData, error) {
	_, canonical, err := r.get(ctx, href, "", revalidate)
	if err != nil {
		return model.ProfileData{}, err
	}

	body, _, err := r.get(ctx, webfingerURL(canonical, canonical.String()), webfingerAccept, revalidate)
	if err != nil {
		resource, accErr := fallbackResource(canonical)
		if accErr != nil {
			return model.ProfileData{}, errors.Join(err, accErr)
		}

		r.logger.Debug("webfinger lookup failed, retrying with account resource",
			"href", href,
			"resource", resource,
			"error", err,
		)

		body, _, err = r.get(ctx, webfingerURL(canonical, resource), webfingerAccept, revalidate)
		if err != nil {
			return model.ProfileData{}, err
		}
	}

	var doc webfingerDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return model.ProfileData{}, fmt.Errorf("decoding webfinger document: %w", err)
	}

	return profileFromDocument(doc)
}

// profileFromDocument extracts the account, profile page and avatar. The
// first profile-page link is authoritative: if its href is not an absolute
// http(s) URL the document is rejected. Bad avatar links are ignored.
func profileFromDocument(doc webfingerDocument) (model.ProfileData, error) {
	var account string
	if acct, ok := strings.CutPrefix(doc.Subject, "acct:"); ok {
		account = acct
	}

	var profileURL, avatar string
	var sawProfilePage bool
	for _, link := range doc.Links {
		if link.Href == "" {
			continue
		}
		switch {
		case isRel(link.Rel, relProfilePage) && !sawProfilePage:
			sawProfilePage = true
			u, err := parseHTTPURL(link.Href)
			if err != nil {
				return model.ProfileData{}, fmt.Errorf("invalid profile-page href %q: %w", link.Href, err)
			}
			profileURL = u.String()
		case isRel(link.Rel, relAvatar) && avatar == "":
			if u, err := parseHTTPURL(link.Href); err == nil {
				avatar = u.String()
			}
		}
	}

	if profileURL == "" {
		return model.ProfileData{}, errNoProfilePage
	}

	return model.NewProfile(account, profileURL, avatar), nil
}

// isRel matches rel against the http: and https: spellings of a
// webfinger.net relation.
func isRel(rel, withoutScheme string) bool {
	return rel == "http:"+withoutScheme || rel == "https:"+withoutScheme
}

// webfingerURL builds <origin>/.well-known/webfinger?resource=<resource>.
func webfingerURL(origin *url.URL, resource string) string {
	u := url.URL{
		Scheme:   origin.Scheme,
		Host:     origin.Host,
		Path:     webfingerPath,
		RawQuery: url.Values{"resource": {resource}}.Encode(),
	}
	return u.String()
}

// fallbackResource derives acct:@<first-path-segment>@<host> from u. A
// leading "@" on the segment (as in /@alice) is dropped.
func fallbackResource(u *url.URL) (string, error) {
	segment, _, _ := strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
	segment = strings.TrimPrefix(segment, "@")
	host := u.Hostname()
	if segment == "" || host == "" {
		return "", fmt.Errorf("cannot derive account resource from %s", u)
	}
	return "acct:@" + segment + "@" + host, nil
}

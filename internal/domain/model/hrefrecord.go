package model

import "time"

// HrefRecord is one observation of a visited rel=me link, keyed by RelMeHref.
type HrefRecord struct {
	RelMeHref   string
	ProfileData ProfileData
	WebsiteURL  string // Page that announced the link.
	ViewedAt    time.Time
	Hidden      bool
	UpdatedAt   time.Time // Zero until a refresh succeeds.
}

// IsExpiredNegative reports whether r is a NotProfile record older than ttl.
func (r HrefRecord) IsExpiredNegative(now time.Time, ttl time.Duration) bool {
	return !r.ProfileData.IsProfile() && now.Sub(r.ViewedAt) > ttl
}

// LastCheckedAt returns UpdatedAt, or ViewedAt when the record was never refreshed.
func (r HrefRecord) LastCheckedAt() time.Time {
	if r.UpdatedAt.IsZero() {
		return r.ViewedAt
	}
	return r.UpdatedAt
}

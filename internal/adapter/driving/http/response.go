package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/streetpass/internal/application"
	"github.com/ericfisherdev/streetpass/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// ProfileResponse is one entry of the profile feed.
type ProfileResponse struct {
	RelMeHref         string `json:"rel_me_href"`
	Account           string `json:"account,omitempty"`
	ProfileURL        string `json:"profile_url"`
	DisplayProfileURL string `json:"display_profile_url"`
	Avatar            string `json:"avatar,omitempty"`
	WebsiteURL        string `json:"website_url"`
	DisplayWebsiteURL string `json:"display_website_url"`
	ViewedAt          string `json:"viewed_at"`
	UpdatedAt         string `json:"updated_at,omitempty"`
	Hidden            bool   `json:"hidden"`
}

// HrefRecordResponse is the JSON representation of a stored href record.
type HrefRecordResponse struct {
	RelMeHref  string `json:"rel_me_href"`
	Type       string `json:"type"`
	Account    string `json:"account,omitempty"`
	ProfileURL string `json:"profile_url,omitempty"`
	Avatar     string `json:"avatar,omitempty"`
	WebsiteURL string `json:"website_url"`
	ViewedAt   string `json:"viewed_at"`
	UpdatedAt  string `json:"updated_at,omitempty"`
	Hidden     bool   `json:"hidden"`
}

// IconResponse is the JSON representation of the icon state.
type IconResponse struct {
	State       string `json:"state"`
	UnreadCount int    `json:"unread_count"`
	Badge       string `json:"badge"`
}

// FetchProfileUpdateResponse answers a FETCH_PROFILE_UPDATE message.
type FetchProfileUpdateResponse struct {
	Updated bool `json:"updated"`
}

// SetHiddenRequest is the JSON body for the bulk hide endpoint.
type SetHiddenRequest struct {
	Hrefs  []string `json:"hrefs"`
	Hidden bool     `json:"hidden"`
}

// SetHiddenResponse reports how many records were found and updated.
type SetHiddenResponse struct {
	Updated int `json:"updated"`
}

// RefreshResponse reports the outcome of a manual refresh sweep.
type RefreshResponse struct {
	Checked int `json:"checked"`
	Updated int `json:"updated"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// toProfileResponse converts a profile record to its feed representation.
func toProfileResponse(r model.HrefRecord) ProfileResponse {
	return ProfileResponse{
		RelMeHref:         r.RelMeHref,
		Account:           r.ProfileData.Account,
		ProfileURL:        r.ProfileData.ProfileURL,
		DisplayProfileURL: application.DisplayHref(r.ProfileData.ProfileURL),
		Avatar:            r.ProfileData.Avatar,
		WebsiteURL:        r.WebsiteURL,
		DisplayWebsiteURL: application.DisplayHref(r.WebsiteURL),
		ViewedAt:          formatTime(r.ViewedAt),
		UpdatedAt:         formatTime(r.UpdatedAt),
		Hidden:            r.Hidden,
	}
}

// toHrefRecordResponse converts any href record to its JSON representation.
func toHrefRecordResponse(r model.HrefRecord) HrefRecordResponse {
	return HrefRecordResponse{
		RelMeHref:  r.RelMeHref,
		Type:       string(r.ProfileData.Kind),
		Account:    r.ProfileData.Account,
		ProfileURL: r.ProfileData.ProfileURL,
		Avatar:     r.ProfileData.Avatar,
		WebsiteURL: r.WebsiteURL,
		ViewedAt:   formatTime(r.ViewedAt),
		UpdatedAt:  formatTime(r.UpdatedAt),
		Hidden:     r.Hidden,
	}
}

func toIconResponse(s model.IconState) IconResponse {
	return IconResponse{
		State:       string(s.State),
		UnreadCount: s.UnreadCount,
		Badge:       s.BadgeText(),
	}
}

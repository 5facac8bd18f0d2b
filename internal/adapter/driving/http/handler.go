// Package httphandler is the HTTP driving adapter: it accepts inbound
// messages and serves the profile feed and icon state.
package httphandler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ericfisherdev/streetpass/internal/application"
)

const (
	healthPath      = "/api/v1/health"
	maxMessageBytes = 64 << 10
)

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	hrefs     *application.HrefService
	icons     *application.IconService
	refresher *application.RefreshService
	logger    *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(
	hrefs *application.HrefService,
	icons *application.IconService,
	refresher *application.RefreshService,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		hrefs:     hrefs,
		icons:     icons,
		refresher: refresher,
		logger:    logger,
	}
}

// RegisterAPIRoutes registers all API routes on mux.
func RegisterAPIRoutes(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("POST /api/v1/messages", h.PostMessage)
	mux.HandleFunc("GET /api/v1/profiles", h.ListProfiles)
	mux.HandleFunc("GET /api/v1/hrefs", h.ListHrefs)
	mux.HandleFunc("PUT /api/v1/hrefs/hidden", h.SetHidden)
	mux.HandleFunc("GET /api/v1/icon", h.GetIcon)
	mux.HandleFunc("POST /api/v1/icon/seen", h.MarkIconSeen)
	mux.HandleFunc("POST /api/v1/refresh", h.Refresh)
	mux.HandleFunc("GET "+healthPath, h.Health)
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	RegisterAPIRoutes(mux, h)
	return ApplyMiddleware(mux, logger)
}

// PostMessage decodes an inbound message envelope and dispatches it.
// Rejected envelopes never reach the services.
func (h *Handler) PostMessage(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxMessageBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "message too large")
		return
	}

	msg, err := DecodeMessage(body)
	if err != nil {
		h.logger.Debug("message rejected", "error", err)
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	reply, err := h.hrefs.Dispatch(r.Context(), msg)
	if err != nil {
		if errors.Is(err, application.ErrUnknownMessage) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		h.logger.Error("failed to dispatch message", "name", msg.Name(), "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if !reply.HasValue {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, FetchProfileUpdateResponse{Updated: reply.Updated})
}

// ListProfiles returns the profile feed, newest first. Hidden profiles are
// included only with ?include_hidden=true.
func (h *Handler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	includeHidden := false
	if v := r.URL.Query().Get("include_hidden"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid include_hidden")
			return
		}
		includeHidden = parsed
	}

	profiles := h.hrefs.Profiles(r.Context(), includeHidden)

	resp := make([]ProfileResponse, 0, len(profiles))
	for _, p := range profiles {
		resp = append(resp, toProfileResponse(p))
	}

	writeJSON(w, http.StatusOK, resp)
}

// ListHrefs returns every stored href record in insertion order.
func (h *Handler) ListHrefs(w http.ResponseWriter, r *http.Request) {
	records := h.hrefs.Snapshot(r.Context()).Records()

	resp := make([]HrefRecordResponse, 0, len(records))
	for _, rec := range records {
		resp = append(resp, toHrefRecordResponse(rec))
	}

	writeJSON(w, http.StatusOK, resp)
}

// SetHidden sets or clears the hidden flag on the listed records.
func (h *Handler) SetHidden(w http.ResponseWriter, r *http.Request) {
	var req SetHiddenRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMessageBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Hrefs) == 0 {
		writeError(w, http.StatusBadRequest, "hrefs is required")
		return
	}

	updated := h.hrefs.SetHiddenBulk(r.Context(), req.Hrefs, req.Hidden)
	writeJSON(w, http.StatusOK, SetHiddenResponse{Updated: updated})
}

// GetIcon returns the current icon state.
func (h *Handler) GetIcon(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toIconResponse(h.icons.State(r.Context())))
}

// MarkIconSeen turns the icon off and clears the unread count.
func (h *Handler) MarkIconSeen(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toIconResponse(h.icons.MarkSeen(r.Context())))
}

// Refresh runs one refresh sweep over stale profiles.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	summary, err := h.refresher.RefreshNow(r.Context())
	if err != nil {
		h.logger.Warn("refresh sweep not completed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "refresh not completed")
		return
	}
	writeJSON(w, http.StatusOK, RefreshResponse{Checked: summary.Checked, Updated: summary.Updated})
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

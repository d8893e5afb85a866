package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/transsahel/colis-tracker/internal/auth"
	"github.com/transsahel/colis-tracker/internal/pkg/logger"
	"github.com/transsahel/colis-tracker/internal/service/convoy"
	"github.com/transsahel/colis-tracker/internal/service/notify"
	"github.com/transsahel/colis-tracker/internal/service/shipment"
)

// Handlers holds the HTTP handlers and the services they delegate to.
type Handlers struct {
	shipments *shipment.Service
	convoys   *convoy.Service
	notifier  *notify.Notifier
	sessions  *auth.SessionManager
}

// NewHandlers wires the handlers to their services.
func NewHandlers(shipments *shipment.Service, convoys *convoy.Service, notifier *notify.Notifier, sessions *auth.SessionManager) *Handlers {
	return &Handlers{shipments: shipments, convoys: convoys, notifier: notifier, sessions: sessions}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps service sentinels onto HTTP status codes.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrUnauthorized), errors.Is(err, auth.ErrBadLogin):
		respondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, auth.ErrForbidden):
		respondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, shipment.ErrNotFound),
		errors.Is(err, convoy.ErrNotFound),
		errors.Is(err, notify.ErrConvoyNotFound),
		errors.Is(err, notify.ErrShipmentNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, shipment.ErrValidation),
		errors.Is(err, shipment.ErrInvalidStatus),
		errors.Is(err, shipment.ErrUnknownRoute),
		errors.Is(err, convoy.ErrValidation),
		errors.Is(err, convoy.ErrInvalidStatus),
		errors.Is(err, notify.ErrUnknownTemplate),
		errors.Is(err, notify.ErrNoRecipientEmail):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, notify.ErrAlreadyNotified):
		respondError(w, http.StatusConflict, err.Error())
	default:
		logger.Error("request failed", "error", err.Error())
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// --- auth ---

// HandleLogin exchanges credentials for a bearer token.
//
//	POST /auth/login
func (h *Handlers) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	session, err := h.sessions.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"token":      session.Token,
		"expires_at": session.ExpiresAt,
		"principal":  session.Principal,
	})
}

// HandleLogout invalidates the caller's session.
//
//	POST /auth/logout
func (h *Handlers) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Logout(bearerTokenFromRequest(r))
	respondJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// --- shipments ---

// HandleCreateShipment registers a new shipment.
//
//	POST /api/shipments
func (h *Handlers) HandleCreateShipment(w http.ResponseWriter, r *http.Request) {
	var input shipment.CreateInput
	if !decodeBody(w, r, &input) {
		return
	}
	sh, err := h.shipments.Create(r.Context(), principalFrom(r), input)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, sh)
}

// HandleGetShipment returns one shipment.
//
//	GET /api/shipments/{id}
func (h *Handlers) HandleGetShipment(w http.ResponseWriter, r *http.Request) {
	sh, err := h.shipments.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sh)
}

// HandleListShipmentEvents returns a shipment's audit trail.
//
//	GET /api/shipments/{id}/events
func (h *Handlers) HandleListShipmentEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.shipments.Events(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"events": events})
}

// HandleTransition applies a status change to one shipment.
//
//	POST /api/shipments/{id}/status
func (h *Handlers) HandleTransition(w http.ResponseWriter, r *http.Request) {
	var input shipment.TransitionInput
	if !decodeBody(w, r, &input) {
		return
	}
	result, err := h.shipments.Transition(r.Context(), principalFrom(r), chi.URLParam(r, "id"), input)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// HandleCustomEvent appends a free-text history event.
//
//	POST /api/shipments/{id}/events
func (h *Handlers) HandleCustomEvent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Description string     `json:"description"`
		Location    string     `json:"location"`
		OccurredAt  *time.Time `json:"occurred_at,omitempty"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	ev, err := h.shipments.RecordCustomEvent(r.Context(), principalFrom(r),
		chi.URLParam(r, "id"), req.Description, req.Location, req.OccurredAt)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, ev)
}

// HandleDeleteShipment removes a shipment and its history. Admin only.
//
//	DELETE /api/shipments/{id}
func (h *Handlers) HandleDeleteShipment(w http.ResponseWriter, r *http.Request) {
	if err := h.shipments.Delete(r.Context(), principalFrom(r), chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// HandleLookupShipments finds prior shipments by receiver phone.
//
//	GET /api/shipments/lookup?phone=...
func (h *Handlers) HandleLookupShipments(w http.ResponseWriter, r *http.Request) {
	shipments, err := h.shipments.Lookup(r.Context(), r.URL.Query().Get("phone"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"shipments": shipments})
}

// HandleTrack is the public tracking endpoint: no session required, keyed
// by tracking code only.
//
//	GET /track/{code}
func (h *Handlers) HandleTrack(w http.ResponseWriter, r *http.Request) {
	sh, events, err := h.shipments.Track(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"shipment": sh,
		"events":   events,
	})
}

// HandleThankYou sends the one-shot post-delivery thank-you email.
//
//	POST /api/shipments/{id}/thank-you
func (h *Handlers) HandleThankYou(w http.ResponseWriter, r *http.Request) {
	result, err := h.notifier.SendThankYou(r.Context(), principalFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// --- convoys ---

// HandleListConvoys lists recent convoys.
//
//	GET /api/convoys
func (h *Handlers) HandleListConvoys(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	convoys, err := h.convoys.List(r.Context(), limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"convoys": convoys})
}

// HandleGetConvoy returns one convoy with its member count.
//
//	GET /api/convoys/{id}
func (h *Handlers) HandleGetConvoy(w http.ResponseWriter, r *http.Request) {
	c, err := h.convoys.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

// HandleConvoyStatus bulk-updates every shipment of the convoy.
//
//	POST /api/convoys/{id}/status
func (h *Handlers) HandleConvoyStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NewStatus string `json:"new_status"`
		Location  string `json:"location"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	count, err := h.convoys.UpdateConvoy(r.Context(), principalFrom(r),
		chi.URLParam(r, "id"), req.NewStatus, req.Location)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"matched_count": count})
}

// HandleConvoyCityStatus bulk-updates the convoy's shipments for one city.
//
//	POST /api/convoys/{id}/city-status
func (h *Handlers) HandleConvoyCityStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		City      string `json:"city"`
		NewStatus string `json:"new_status"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	count, err := h.convoys.UpdateByCity(r.Context(), principalFrom(r),
		chi.URLParam(r, "id"), req.City, req.NewStatus)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"matched_count": count})
}

// HandleNotifyConvoy emails every distinct receiver of the convoy.
//
//	POST /api/convoys/{id}/notify
func (h *Handlers) HandleNotifyConvoy(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Template      string `json:"template"`
		CustomMessage string `json:"custom_message"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	report, err := h.notifier.NotifyConvoy(r.Context(), principalFrom(r),
		chi.URLParam(r, "id"), req.Template, req.CustomMessage)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

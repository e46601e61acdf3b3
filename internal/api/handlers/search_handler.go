package handlers

import (
	"context"
	"net/http"

	"github.com/zatekoja/foodtruckfinder/internal/application/services"
	"github.com/zatekoja/foodtruckfinder/internal/domain/entities"
)

// SessionStore is the subset of the session registry used by the HTTP API
type SessionStore interface {
	Create(ctx context.Context) (*services.Session, error)
	Get(ctx context.Context, id string) (*services.Session, error)
}

// SearchHandler exposes the proximity search actions of a session
type SearchHandler struct {
	sessions SessionStore
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(sessions SessionStore) *SearchHandler {
	return &SearchHandler{sessions: sessions}
}

// CreateSessionResponse is returned when a session starts
type CreateSessionResponse struct {
	SessionID string                `json:"session_id"`
	State     *entities.SearchState `json:"state"`
}

// SubmitAddressRequest is the body of an address submission.
// Blank addresses are accepted and answered with a status message.
type SubmitAddressRequest struct {
	Address string `json:"address"`
}

// MapClickRequest is the body of a map click
type MapClickRequest struct {
	Lat *float64 `json:"lat" validate:"required,min=-90,max=90"`
	Lng *float64 `json:"lng" validate:"required"`
}

// CreateSession handles POST /api/sessions
func (h *SearchHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.Create(r.Context())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, CreateSessionResponse{
		SessionID: session.ID,
		State:     session.Controller.State(),
	})
}

// GetState handles GET /api/sessions/{id}
func (h *SearchHandler) GetState(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, session.Controller.State())
}

// SubmitAddress handles POST /api/sessions/{id}/address
func (h *SearchHandler) SubmitAddress(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	var req SubmitAddressRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	// the cycle outlives a client disconnect so its outcome is still committed
	state := session.Controller.SubmitAddress(context.WithoutCancel(r.Context()), req.Address)
	respondWithJSON(w, http.StatusOK, state)
}

// ClickMap handles POST /api/sessions/{id}/click
func (h *SearchHandler) ClickMap(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	var req MapClickRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	// panned maps report longitudes outside [-180,180]
	at, err := entities.NewCoordinate(*req.Lat, entities.WrapLongitude(*req.Lng))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	state := session.View.MapClicked(context.WithoutCancel(r.Context()), at)
	respondWithJSON(w, http.StatusOK, state)
}

// GetView handles GET /api/sessions/{id}/view
func (h *SearchHandler) GetView(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, session.View.View())
}

func (h *SearchHandler) session(w http.ResponseWriter, r *http.Request) (*services.Session, bool) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "session ID is required")
		return nil, false
	}
	session, err := h.sessions.Get(r.Context(), id)
	if err != nil {
		respondWithAppError(w, r, err)
		return nil, false
	}
	return session, true
}

// Package handler exposes velocity session capture over HTTP.
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"rangelog/internal/velocity"
	id "rangelog/pkg/domain"
	dErrors "rangelog/pkg/domain-errors"
	"rangelog/pkg/platform/httputil"
	"rangelog/pkg/requestcontext"
)

type Handler struct {
	service *velocity.Service
	logger  *slog.Logger
}

func New(service *velocity.Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", h.HandleCreate)
		r.Get("/", h.HandleList)
		r.Get("/{sessionID}", h.HandleGet)
		r.Post("/{sessionID}/readings", h.HandleAddReading)
		r.Patch("/{sessionID}/readings/{readingID}", h.HandleUpdateReading)
	})
}

// CreateSessionRequest is the POST /sessions body.
type CreateSessionRequest struct {
	Label           string   `json:"label"`
	BulletMassGrams *float64 `json:"bullet_mass_grams,omitempty"`
}

// AddReadingRequest is the POST readings body. Shot defaults to the next
// sequential number when zero.
type AddReadingRequest struct {
	Shot      int       `json:"shot,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Speed     float64   `json:"speed_mps"`
	CleanBore bool      `json:"clean_bore,omitempty"`
	ColdBore  bool      `json:"cold_bore,omitempty"`
	Note      string    `json:"note,omitempty"`
}

// UpdateReadingRequest is the PATCH reading body.
type UpdateReadingRequest struct {
	CleanBore *bool   `json:"clean_bore,omitempty"`
	ColdBore  *bool   `json:"cold_bore,omitempty"`
	Note      *string `json:"note,omitempty"`
}

// SessionsResponse wraps a session list.
type SessionsResponse struct {
	Sessions []*velocity.Session `json:"sessions"`
	Count    int                 `json:"count"`
}

func (h *Handler) owner(w http.ResponseWriter, r *http.Request) (id.OwnerID, bool) {
	owner := requestcontext.OwnerID(r.Context())
	if owner == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeAccessDenied, "owner identity required"))
		return "", false
	}
	return owner, true
}

func (h *Handler) sessionID(w http.ResponseWriter, r *http.Request) (id.SessionID, bool) {
	sessionID, err := id.ParseSessionID(chi.URLParam(r, "sessionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return "", false
	}
	return sessionID, true
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	body, ok := httputil.Decode[CreateSessionRequest](w, r, h.logger)
	if !ok {
		return
	}
	session, err := h.service.CreateSession(r.Context(), owner, body.Label, body.BulletMassGrams)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, session)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	sessions, err := h.service.List(r.Context(), owner)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if sessions == nil {
		sessions = []*velocity.Session{}
	}
	httputil.WriteJSON(w, http.StatusOK, SessionsResponse{Sessions: sessions, Count: len(sessions)})
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	session, err := h.service.Get(r.Context(), owner, sessionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if session == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "session not found"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, session)
}

func (h *Handler) HandleAddReading(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	body, ok := httputil.Decode[AddReadingRequest](w, r, h.logger)
	if !ok {
		return
	}
	session, err := h.service.AddReading(r.Context(), owner, sessionID, velocity.NewReading{
		Shot:      body.Shot,
		Timestamp: body.Timestamp,
		Speed:     body.Speed,
		CleanBore: body.CleanBore,
		ColdBore:  body.ColdBore,
		Note:      body.Note,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, session)
}

func (h *Handler) HandleUpdateReading(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	readingID, err := id.ParseReadingID(chi.URLParam(r, "readingID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	body, ok := httputil.Decode[UpdateReadingRequest](w, r, h.logger)
	if !ok {
		return
	}
	session, err := h.service.UpdateReading(r.Context(), owner, sessionID, readingID, velocity.ReadingUpdate{
		CleanBore: body.CleanBore,
		ColdBore:  body.ColdBore,
		Note:      body.Note,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, session)
}

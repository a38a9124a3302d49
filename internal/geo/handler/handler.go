// Package handler exposes range locations over HTTP.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"rangelog/internal/geo"
	id "rangelog/pkg/domain"
	dErrors "rangelog/pkg/domain-errors"
	"rangelog/pkg/platform/httputil"
	"rangelog/pkg/requestcontext"
)

type Handler struct {
	service *geo.Service
	logger  *slog.Logger
}

func New(service *geo.Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/locations", func(r chi.Router) {
		r.Post("/", h.HandleCreate)
		r.Get("/", h.HandleList)
		r.Get("/{locationID}", h.HandleGet)
	})
}

// CreateLocationRequest is the POST /locations body.
type CreateLocationRequest struct {
	Name        string          `json:"name"`
	FiringPoint geo.Coordinates `json:"firing_point"`
	Target      geo.Coordinates `json:"target"`
}

// LocationsResponse wraps a location list.
type LocationsResponse struct {
	Locations []*geo.Location `json:"locations"`
	Count     int             `json:"count"`
}

func (h *Handler) owner(w http.ResponseWriter, r *http.Request) (id.OwnerID, bool) {
	owner := requestcontext.OwnerID(r.Context())
	if owner == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeAccessDenied, "owner identity required"))
		return "", false
	}
	return owner, true
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	body, ok := httputil.Decode[CreateLocationRequest](w, r, h.logger)
	if !ok {
		return
	}
	location, err := h.service.Create(r.Context(), owner, body.Name, body.FiringPoint, body.Target)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, location)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	locations, err := h.service.List(r.Context(), owner)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if locations == nil {
		locations = []*geo.Location{}
	}
	httputil.WriteJSON(w, http.StatusOK, LocationsResponse{Locations: locations, Count: len(locations)})
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	locationID, err := id.ParseLocationID(chi.URLParam(r, "locationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	location, err := h.service.Get(r.Context(), owner, locationID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if location == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "location not found"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, location)
}

// Package handler exposes environment sources and observations over HTTP.
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"rangelog/internal/environment"
	id "rangelog/pkg/domain"
	dErrors "rangelog/pkg/domain-errors"
	"rangelog/pkg/platform/httputil"
	"rangelog/pkg/requestcontext"
)

type Handler struct {
	service *environment.Service
	logger  *slog.Logger
}

func New(service *environment.Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/environment/sources", func(r chi.Router) {
		r.Post("/", h.HandleCreateSource)
		r.Get("/", h.HandleListSources)
		r.Get("/{sourceID}", h.HandleGetSource)
		r.Post("/{sourceID}/observations", h.HandleAppend)
		r.Get("/{sourceID}/observations", h.HandleListObservations)
	})
}

// CreateSourceRequest is the POST body for a new sensor source.
type CreateSourceRequest struct {
	Name string `json:"name"`
}

// AppendObservationRequest is one sensor sample.
type AppendObservationRequest struct {
	Timestamp        time.Time `json:"timestamp"`
	TemperatureC     *float64  `json:"temperature_c,omitempty"`
	HumidityPct      *float64  `json:"humidity_pct,omitempty"`
	PressureHPa      *float64  `json:"pressure_hpa,omitempty"`
	WindSpeedMPS     *float64  `json:"wind_speed_mps,omitempty"`
	WindDirectionDeg *float64  `json:"wind_direction_deg,omitempty"`
}

// ObservationsResponse wraps an observation list.
type ObservationsResponse struct {
	Observations []environment.Observation `json:"observations"`
	Count        int                       `json:"count"`
}

// SourcesResponse wraps a source list.
type SourcesResponse struct {
	Sources []*environment.Source `json:"sources"`
	Count   int                   `json:"count"`
}

func (h *Handler) owner(w http.ResponseWriter, r *http.Request) (id.OwnerID, bool) {
	owner := requestcontext.OwnerID(r.Context())
	if owner == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeAccessDenied, "owner identity required"))
		return "", false
	}
	return owner, true
}

func (h *Handler) sourceID(w http.ResponseWriter, r *http.Request) (id.SourceID, bool) {
	sourceID, err := id.ParseSourceID(chi.URLParam(r, "sourceID"))
	if err != nil {
		httputil.WriteError(w, err)
		return "", false
	}
	return sourceID, true
}

func (h *Handler) HandleCreateSource(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	body, ok := httputil.Decode[CreateSourceRequest](w, r, h.logger)
	if !ok {
		return
	}
	source, err := h.service.CreateSource(r.Context(), owner, body.Name)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, source)
}

func (h *Handler) HandleListSources(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	sources, err := h.service.ListSources(r.Context(), owner)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if sources == nil {
		sources = []*environment.Source{}
	}
	httputil.WriteJSON(w, http.StatusOK, SourcesResponse{Sources: sources, Count: len(sources)})
}

func (h *Handler) HandleGetSource(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	sourceID, ok := h.sourceID(w, r)
	if !ok {
		return
	}
	source, err := h.service.GetSource(r.Context(), owner, sourceID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if source == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "source not found"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, source)
}

func (h *Handler) HandleAppend(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	sourceID, ok := h.sourceID(w, r)
	if !ok {
		return
	}
	body, ok := httputil.Decode[AppendObservationRequest](w, r, h.logger)
	if !ok {
		return
	}
	err := h.service.Append(r.Context(), owner, environment.Observation{
		SourceID:         sourceID,
		Timestamp:        body.Timestamp,
		TemperatureC:     body.TemperatureC,
		HumidityPct:      body.HumidityPct,
		PressureHPa:      body.PressureHPa,
		WindSpeedMPS:     body.WindSpeedMPS,
		WindDirectionDeg: body.WindDirectionDeg,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// HandleListObservations lists a source's observations, optionally bounded
// by from/to query parameters (RFC 3339, inclusive).
func (h *Handler) HandleListObservations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	sourceID, ok := h.sourceID(w, r)
	if !ok {
		return
	}

	fromRaw, toRaw := r.URL.Query().Get("from"), r.URL.Query().Get("to")
	var (
		observations []environment.Observation
		err          error
	)
	if fromRaw != "" || toRaw != "" {
		from, parseErr := parseTimeParam(fromRaw, "from")
		if parseErr != nil {
			httputil.WriteError(w, parseErr)
			return
		}
		to, parseErr := parseTimeParam(toRaw, "to")
		if parseErr != nil {
			httputil.WriteError(w, parseErr)
			return
		}
		observations, err = h.service.ListBetween(ctx, owner, sourceID, from, to)
	} else {
		observations, err = h.service.ListAll(ctx, owner, sourceID)
	}
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if observations == nil {
		observations = []environment.Observation{}
	}
	httputil.WriteJSON(w, http.StatusOK, ObservationsResponse{Observations: observations, Count: len(observations)})
}

func parseTimeParam(raw, name string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, dErrors.New(dErrors.CodeValidation, name+" is required when bounding observations")
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, dErrors.Newf(dErrors.CodeValidation, "%s must be RFC 3339", name)
	}
	return t, nil
}

// Package handler exposes the engagement engine over HTTP.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"rangelog/internal/engagement/models"
	"rangelog/internal/engagement/service"
	id "rangelog/pkg/domain"
	dErrors "rangelog/pkg/domain-errors"
	"rangelog/pkg/platform/httputil"
	"rangelog/pkg/requestcontext"
)

// Handler wires engagement endpoints to the engine service.
type Handler struct {
	service *service.Service
	logger  *slog.Logger
}

func New(service *service.Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts engagement endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/records", func(r chi.Router) {
		r.Post("/", h.HandleCompose)
		r.Get("/", h.HandleList)
		r.Post("/filter", h.HandleFilter)
		r.Get("/search", h.HandleSearch)
		r.Get("/unique-values", h.HandleUniqueValues)
		r.Post("/batch-delete", h.HandleBatchDelete)

		r.Route("/{recordID}", func(r chi.Router) {
			r.Get("/", h.HandleGet)
			r.Patch("/", h.HandleUpdate)
			r.Delete("/", h.HandleDelete)
			r.Post("/refresh", h.HandleRefresh)
			r.Post("/associate", h.HandleAssociate)
			r.Get("/measurements", h.HandleMeasurements)
			r.Patch("/measurements/{measurementID}", h.HandleUpdateMeasurement)
		})
	})
	r.Get("/summary", h.HandleSummary)
}

func (h *Handler) owner(w http.ResponseWriter, r *http.Request) (id.OwnerID, bool) {
	owner := requestcontext.OwnerID(r.Context())
	if owner == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeAccessDenied, "owner identity required"))
		return "", false
	}
	return owner, true
}

func (h *Handler) recordID(w http.ResponseWriter, r *http.Request) (id.RecordID, bool) {
	recordID, err := id.ParseRecordID(chi.URLParam(r, "recordID"))
	if err != nil {
		httputil.WriteError(w, err)
		return "", false
	}
	return recordID, true
}

func (h *Handler) HandleCompose(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	body, ok := httputil.Decode[ComposeRecordRequest](w, r, h.logger)
	if !ok {
		return
	}
	req, err := body.ToService()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	record, err := h.service.Compose(ctx, owner, req)
	if err != nil {
		h.logger.ErrorContext(ctx, "record composition failed",
			"request_id", requestcontext.RequestID(ctx),
			"session_id", body.SessionID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, record)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	records, err := h.service.List(r.Context(), owner)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, NewRecordsResponse(records))
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	recordID, ok := h.recordID(w, r)
	if !ok {
		return
	}
	record, err := h.service.Get(r.Context(), owner, recordID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if record == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "record not found"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, record)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	recordID, ok := h.recordID(w, r)
	if !ok {
		return
	}
	body, ok := httputil.Decode[UpdateRecordRequest](w, r, h.logger)
	if !ok {
		return
	}
	req, err := body.ToService()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	record, err := h.service.Update(r.Context(), owner, recordID, req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, record)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	recordID, ok := h.recordID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), owner, recordID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleBatchDelete(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	body, ok := httputil.Decode[BatchDeleteRequest](w, r, h.logger)
	if !ok {
		return
	}
	recordIDs, err := body.ToRecordIDs()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	result, err := h.service.DeleteAll(r.Context(), owner, recordIDs)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	recordID, ok := h.recordID(w, r)
	if !ok {
		return
	}
	record, err := h.service.Refresh(r.Context(), owner, recordID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, record)
}

func (h *Handler) HandleAssociate(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	recordID, ok := h.recordID(w, r)
	if !ok {
		return
	}
	body, ok := httputil.DecodeOptional[AssociateRequest](w, r, h.logger)
	if !ok {
		return
	}
	result, err := h.service.Associate(r.Context(), owner, recordID, body.Tolerance())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) HandleMeasurements(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	recordID, ok := h.recordID(w, r)
	if !ok {
		return
	}
	measurements, err := h.service.Measurements(r.Context(), owner, recordID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, NewMeasurementsResponse(measurements))
}

func (h *Handler) HandleUpdateMeasurement(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	recordID, ok := h.recordID(w, r)
	if !ok {
		return
	}
	measurementID, err := id.ParseMeasurementID(chi.URLParam(r, "measurementID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	body, ok := httputil.Decode[UpdateMeasurementRequest](w, r, h.logger)
	if !ok {
		return
	}
	update, err := body.ToService()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	measurement, err := h.service.UpdateMeasurement(r.Context(), owner, recordID, measurementID, update)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, measurement)
}

func (h *Handler) HandleFilter(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	filter, ok := httputil.Decode[models.FilterSet](w, r, h.logger)
	if !ok {
		return
	}
	records, err := h.service.Filter(r.Context(), owner, filter)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, NewRecordsResponse(records))
}

func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	records, err := h.service.Search(r.Context(), owner, r.URL.Query().Get("q"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, NewRecordsResponse(records))
}

func (h *Handler) HandleUniqueValues(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	field := r.URL.Query().Get("field")
	values, err := h.service.UniqueValues(r.Context(), owner, field)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, NewUniqueValuesResponse(field, values))
}

func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	summary, err := h.service.Summary(r.Context(), owner)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, summary)
}

// Package handler exposes the equipment catalog over HTTP.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"rangelog/internal/equipment"
	id "rangelog/pkg/domain"
	dErrors "rangelog/pkg/domain-errors"
	"rangelog/pkg/platform/httputil"
	"rangelog/pkg/requestcontext"
)

type Handler struct {
	service *equipment.Service
	logger  *slog.Logger
}

func New(service *equipment.Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/equipment", func(r chi.Router) {
		r.Post("/projectiles", h.HandleCreateProjectile)
		r.Get("/projectiles", h.HandleListProjectiles)
		r.Get("/projectiles/{projectileID}", h.HandleGetProjectile)

		r.Post("/loads", h.HandleCreateLoad)
		r.Get("/loads", h.HandleListLoads)
		r.Get("/loads/{loadID}", h.HandleGetLoad)

		r.Post("/firearms", h.HandleCreateFirearm)
		r.Get("/firearms", h.HandleListFirearms)
		r.Get("/firearms/{firearmID}", h.HandleGetFirearm)
	})
}

// CreateProjectileRequest is the POST projectiles body.
type CreateProjectileRequest struct {
	Name                 string   `json:"name"`
	MassGrams            float64  `json:"mass_grams"`
	DiameterMM           float64  `json:"diameter_mm"`
	BallisticCoefficient *float64 `json:"ballistic_coefficient,omitempty"`
}

// CreateLoadRequest is the POST loads body.
type CreateLoadRequest struct {
	Name            string   `json:"name"`
	Cartridge       string   `json:"cartridge"`
	ProjectileID    *string  `json:"projectile_id,omitempty"`
	BulletName      string   `json:"bullet_name"`
	BulletMassGrams float64  `json:"bullet_mass_grams"`
	ChargeGrams     *float64 `json:"charge_grams,omitempty"`
}

// CreateFirearmRequest is the POST firearms body.
type CreateFirearmRequest struct {
	Name           string   `json:"name"`
	Caliber        string   `json:"caliber"`
	BarrelLengthCM *float64 `json:"barrel_length_cm,omitempty"`
	TwistRate      string   `json:"twist_rate,omitempty"`
}

func (h *Handler) owner(w http.ResponseWriter, r *http.Request) (id.OwnerID, bool) {
	owner := requestcontext.OwnerID(r.Context())
	if owner == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeAccessDenied, "owner identity required"))
		return "", false
	}
	return owner, true
}

func (h *Handler) HandleCreateProjectile(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	body, ok := httputil.Decode[CreateProjectileRequest](w, r, h.logger)
	if !ok {
		return
	}
	projectile, err := h.service.CreateProjectile(r.Context(), owner, equipment.Projectile{
		Name:                 body.Name,
		MassGrams:            body.MassGrams,
		DiameterMM:           body.DiameterMM,
		BallisticCoefficient: body.BallisticCoefficient,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, projectile)
}

func (h *Handler) HandleListProjectiles(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	projectiles, err := h.service.ListProjectiles(r.Context(), owner)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse("projectiles", projectiles))
}

func (h *Handler) HandleGetProjectile(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	projectileID, err := id.ParseProjectileID(chi.URLParam(r, "projectileID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	projectile, err := h.service.GetProjectile(r.Context(), owner, projectileID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, projectile)
}

func (h *Handler) HandleCreateLoad(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	body, ok := httputil.Decode[CreateLoadRequest](w, r, h.logger)
	if !ok {
		return
	}
	load := equipment.Load{
		Name:            body.Name,
		Cartridge:       body.Cartridge,
		BulletName:      body.BulletName,
		BulletMassGrams: body.BulletMassGrams,
		ChargeGrams:     body.ChargeGrams,
	}
	if body.ProjectileID != nil {
		projectileID, err := id.ParseProjectileID(*body.ProjectileID)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		load.ProjectileID = &projectileID
	}
	created, err := h.service.CreateLoad(r.Context(), owner, load)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) HandleListLoads(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	loads, err := h.service.ListLoads(r.Context(), owner)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse("loads", loads))
}

func (h *Handler) HandleGetLoad(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	loadID, err := id.ParseLoadID(chi.URLParam(r, "loadID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	load, err := h.service.GetLoad(r.Context(), owner, loadID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, load)
}

func (h *Handler) HandleCreateFirearm(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	body, ok := httputil.Decode[CreateFirearmRequest](w, r, h.logger)
	if !ok {
		return
	}
	firearm, err := h.service.CreateFirearm(r.Context(), owner, equipment.Firearm{
		Name:           body.Name,
		Caliber:        body.Caliber,
		BarrelLengthCM: body.BarrelLengthCM,
		TwistRate:      body.TwistRate,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, firearm)
}

func (h *Handler) HandleListFirearms(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	firearms, err := h.service.ListFirearms(r.Context(), owner)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse("firearms", firearms))
}

func (h *Handler) HandleGetFirearm(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	firearmID, err := id.ParseFirearmID(chi.URLParam(r, "firearmID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	firearm, err := h.service.GetFirearm(r.Context(), owner, firearmID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, firearm)
}

func listResponse[T any](key string, items []T) map[string]any {
	if items == nil {
		items = []T{}
	}
	return map[string]any{key: items, "count": len(items)}
}

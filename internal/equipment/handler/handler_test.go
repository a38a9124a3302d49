package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"rangelog/internal/equipment"
	id "rangelog/pkg/domain"
	"rangelog/pkg/requestcontext"
)

type EquipmentHandlerSuite struct {
	suite.Suite
	router chi.Router
	owner  string
}

func TestEquipmentHandlerSuite(t *testing.T) {
	suite.Run(t, new(EquipmentHandlerSuite))
}

func (s *EquipmentHandlerSuite) SetupTest() {
	s.owner = "owner-a"
	service := equipment.NewService(equipment.NewInMemoryStore())

	s.router = chi.NewRouter()
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if raw := r.Header.Get("X-Owner-ID"); raw != "" {
				ctx = requestcontext.WithOwnerID(ctx, id.OwnerID(raw))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	New(service, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(s.router)
}

func (s *EquipmentHandlerSuite) request(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("X-Owner-ID", s.owner)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *EquipmentHandlerSuite) TestProjectiles() {
	var projectileID string

	s.Run("create", func() {
		rec := s.request(http.MethodPost, "/equipment/projectiles", map[string]any{
			"name":        "175gr SMK",
			"mass_grams":  11.34,
			"diameter_mm": 7.82,
		})
		s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
		var body struct {
			ID string `json:"id"`
		}
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
		s.Require().NotEmpty(body.ID)
		projectileID = body.ID
	})

	s.Run("get by id", func() {
		rec := s.request(http.MethodGet, "/equipment/projectiles/"+projectileID, nil)
		s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
		var body struct {
			Name string `json:"name"`
		}
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
		s.Equal("175gr SMK", body.Name)
	})

	s.Run("blank id token is a 400", func() {
		rec := s.request(http.MethodGet, "/equipment/projectiles/%20%20", nil)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("unknown id is a 404", func() {
		rec := s.request(http.MethodGet, "/equipment/projectiles/"+string(id.NewProjectileID()), nil)
		s.Equal(http.StatusNotFound, rec.Code)
	})

	s.Run("list", func() {
		rec := s.request(http.MethodGet, "/equipment/projectiles", nil)
		s.Require().Equal(http.StatusOK, rec.Code)
		var body struct {
			Projectiles []json.RawMessage `json:"projectiles"`
			Count       int               `json:"count"`
		}
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
		s.Equal(1, body.Count)
	})
}

func (s *EquipmentHandlerSuite) TestLoads() {
	s.Run("load referencing a projectile", func() {
		rec := s.request(http.MethodPost, "/equipment/projectiles", map[string]any{
			"name":        "168gr",
			"mass_grams":  10.89,
			"diameter_mm": 7.82,
		})
		s.Require().Equal(http.StatusCreated, rec.Code)
		var projectile struct {
			ID string `json:"id"`
		}
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &projectile))

		rec = s.request(http.MethodPost, "/equipment/loads", map[string]any{
			"name":              "match load",
			"cartridge":         "308 Win",
			"projectile_id":     projectile.ID,
			"bullet_name":       "168gr",
			"bullet_mass_grams": 10.89,
		})
		s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	})

	s.Run("blank projectile reference is a 400", func() {
		rec := s.request(http.MethodPost, "/equipment/loads", map[string]any{
			"name":              "bad reference",
			"projectile_id":     "   ",
			"bullet_name":       "150gr",
			"bullet_mass_grams": 9.72,
		})
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("unknown projectile reference is a 404", func() {
		rec := s.request(http.MethodPost, "/equipment/loads", map[string]any{
			"name":              "orphan",
			"projectile_id":     string(id.NewProjectileID()),
			"bullet_name":       "150gr",
			"bullet_mass_grams": 9.72,
		})
		s.Equal(http.StatusNotFound, rec.Code)
	})

	s.Run("missing bullet mass is a 400", func() {
		rec := s.request(http.MethodPost, "/equipment/loads", map[string]any{
			"name": "no mass",
		})
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *EquipmentHandlerSuite) TestFirearms() {
	rec := s.request(http.MethodPost, "/equipment/firearms", map[string]any{
		"name":    "work rifle",
		"caliber": "308 Win",
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var firearm struct {
		ID string `json:"id"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &firearm))

	s.Run("another owner is denied", func() {
		req := httptest.NewRequest(http.MethodGet, "/equipment/firearms/"+firearm.ID, nil)
		req.Header.Set("X-Owner-ID", "owner-b")
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		s.Equal(http.StatusForbidden, rec.Code)
	})
}

func (s *EquipmentHandlerSuite) TestOwnerIdentityRequired() {
	req := httptest.NewRequest(http.MethodGet, "/equipment/loads", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Equal(http.StatusForbidden, rec.Code)
}

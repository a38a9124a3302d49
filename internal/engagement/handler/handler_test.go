package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"rangelog/internal/engagement/adapters"
	"rangelog/internal/engagement/service"
	"rangelog/internal/engagement/store"
	"rangelog/internal/environment"
	"rangelog/internal/equipment"
	"rangelog/internal/geo"
	"rangelog/internal/velocity"
	id "rangelog/pkg/domain"
	"rangelog/pkg/requestcontext"
)

type EngagementHandlerSuite struct {
	suite.Suite
	router chi.Router
	owner  string

	session  *velocity.Session
	load     *equipment.Load
	firearm  *equipment.Firearm
	location *geo.Location
}

func nopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEngagementHandlerSuite(t *testing.T) {
	suite.Run(t, new(EngagementHandlerSuite))
}

func (s *EngagementHandlerSuite) SetupTest() {
	s.owner = "owner-a"
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), base)

	velocityService := velocity.NewService(velocity.NewInMemoryStore())
	environmentService := environment.NewService(environment.NewInMemoryStore())
	equipmentService := equipment.NewService(equipment.NewInMemoryStore())
	geoService := geo.NewService(geo.NewInMemoryStore())

	engine := service.NewService(
		store.NewMemory(),
		adapters.NewSessionAdapter(velocityService),
		adapters.NewEquipmentAdapter(equipmentService),
		adapters.NewLocationAdapter(geoService),
		adapters.NewEnvironmentAdapter(environmentService),
	)

	owner := id.OwnerID(s.owner)
	var err error
	s.session, err = velocityService.CreateSession(ctx, owner, "morning string", nil)
	s.Require().NoError(err)
	for i, speed := range []float64{790, 792, 794} {
		s.session, err = velocityService.AddReading(ctx, owner, s.session.ID, velocity.NewReading{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Speed:     speed,
		})
		s.Require().NoError(err)
	}
	s.load, err = equipmentService.CreateLoad(ctx, owner, equipment.Load{
		Name:            "match load",
		Cartridge:       "308 Win",
		BulletName:      "175gr SMK",
		BulletMassGrams: 11.34,
	})
	s.Require().NoError(err)
	s.firearm, err = equipmentService.CreateFirearm(ctx, owner, equipment.Firearm{
		Name:    "work rifle",
		Caliber: "308 Win",
	})
	s.Require().NoError(err)
	s.location, err = geoService.Create(ctx, owner, "hillside 600m",
		geo.Coordinates{Latitude: 47.0, Longitude: 19.0, ElevationM: 150},
		geo.Coordinates{Latitude: 47.0053959, Longitude: 19.0, ElevationM: 150},
	)
	s.Require().NoError(err)

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
	New(engine, nopLogger()).Register(s.router)
}

func (s *EngagementHandlerSuite) request(method, path string, body any) *httptest.ResponseRecorder {
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

func (s *EngagementHandlerSuite) composeBody() map[string]any {
	return map[string]any{
		"label":       "qualification string",
		"session_id":  string(s.session.ID),
		"load_id":     string(s.load.ID),
		"firearm_id":  string(s.firearm.ID),
		"location_id": string(s.location.ID),
	}
}

func (s *EngagementHandlerSuite) compose() string {
	rec := s.request(http.MethodPost, "/records", s.composeBody())
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var body struct {
		ID string `json:"id"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.Require().NotEmpty(body.ID)
	return body.ID
}

func (s *EngagementHandlerSuite) TestCompose() {
	s.Run("creates a record", func() {
		rec := s.request(http.MethodPost, "/records", s.composeBody())
		s.Equal(http.StatusCreated, rec.Code, rec.Body.String())

		var body struct {
			Label    string `json:"label"`
			Snapshot struct {
				LoadName string `json:"load_name"`
			} `json:"snapshot"`
		}
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
		s.Equal("qualification string", body.Label)
		s.Equal("match load", body.Snapshot.LoadName)
	})

	s.Run("unknown session is a 404", func() {
		body := s.composeBody()
		body["session_id"] = string(id.NewSessionID())
		rec := s.request(http.MethodPost, "/records", body)
		s.Equal(http.StatusNotFound, rec.Code)
	})

	s.Run("malformed id is a 400", func() {
		body := s.composeBody()
		body["load_id"] = "   "
		rec := s.request(http.MethodPost, "/records", body)
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *EngagementHandlerSuite) TestOwnerIdentityRequired() {
	req := httptest.NewRequest(http.MethodGet, "/records", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Equal(http.StatusForbidden, rec.Code)
}

func (s *EngagementHandlerSuite) TestGet() {
	recordID := s.compose()

	s.Run("found", func() {
		rec := s.request(http.MethodGet, "/records/"+recordID, nil)
		s.Equal(http.StatusOK, rec.Code)
	})

	s.Run("absent is a 404", func() {
		rec := s.request(http.MethodGet, "/records/"+string(id.NewRecordID()), nil)
		s.Equal(http.StatusNotFound, rec.Code)
	})
}

func (s *EngagementHandlerSuite) TestUpdateConflicts() {
	recordID := s.compose()

	s.Run("writing snapshot fields is a conflict", func() {
		rec := s.request(http.MethodPatch, "/records/"+recordID, map[string]any{
			"snapshot": map[string]any{"load_name": "forged"},
		})
		s.Equal(http.StatusConflict, rec.Code)
	})

	s.Run("writing the time span is a conflict", func() {
		rec := s.request(http.MethodPatch, "/records/"+recordID, map[string]any{
			"start_time": "2026-01-01T00:00:00Z",
		})
		s.Equal(http.StatusConflict, rec.Code)
	})

	s.Run("swapping the session is a conflict", func() {
		rec := s.request(http.MethodPatch, "/records/"+recordID, map[string]any{
			"session_id": string(id.NewSessionID()),
		})
		s.Equal(http.StatusConflict, rec.Code)
	})

	s.Run("label updates still work", func() {
		rec := s.request(http.MethodPatch, "/records/"+recordID, map[string]any{
			"label": "renamed",
		})
		s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
		var body struct {
			Label string `json:"label"`
		}
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
		s.Equal("renamed", body.Label)
	})
}

func (s *EngagementHandlerSuite) TestDelete() {
	recordID := s.compose()

	rec := s.request(http.MethodDelete, "/records/"+recordID, nil)
	s.Equal(http.StatusNoContent, rec.Code)

	s.Run("repeat delete stays a 204", func() {
		rec := s.request(http.MethodDelete, "/records/"+recordID, nil)
		s.Equal(http.StatusNoContent, rec.Code)
	})
}

func (s *EngagementHandlerSuite) TestBatchDelete() {
	recordID := s.compose()

	s.Run("empty id list is a 400", func() {
		rec := s.request(http.MethodPost, "/records/batch-delete", map[string]any{
			"record_ids": []string{},
		})
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("partial outcome reported with a 200", func() {
		rec := s.request(http.MethodPost, "/records/batch-delete", map[string]any{
			"record_ids": []string{recordID, string(id.NewRecordID())},
		})
		s.Require().Equal(http.StatusOK, rec.Code)

		var body struct {
			Succeeded int `json:"succeeded"`
			Failed    []struct {
				ID string `json:"id"`
			} `json:"failed"`
		}
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
		// Absent records delete idempotently, so both succeed.
		s.Equal(2, body.Succeeded)
		s.Empty(body.Failed)
	})
}

func (s *EngagementHandlerSuite) TestAssociate() {
	recordID := s.compose()

	s.Run("record without a source is a 400", func() {
		rec := s.request(http.MethodPost, "/records/"+recordID+"/associate", nil)
		s.Equal(http.StatusBadRequest, rec.Code, "empty body must decode, the validation failure comes from the engine")
	})
}

func (s *EngagementHandlerSuite) TestMeasurements() {
	recordID := s.compose()

	rec := s.request(http.MethodGet, "/records/"+recordID+"/measurements", nil)
	s.Require().Equal(http.StatusOK, rec.Code)

	var body struct {
		Measurements []struct {
			ID   string `json:"id"`
			Shot int    `json:"shot"`
		} `json:"measurements"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.Require().Len(body.Measurements, 3)

	s.Run("captured shot data rejects writes", func() {
		path := fmt.Sprintf("/records/%s/measurements/%s", recordID, body.Measurements[0].ID)
		rec := s.request(http.MethodPatch, path, map[string]any{"speed_mps": 900})
		s.Equal(http.StatusConflict, rec.Code)
	})

	s.Run("engagement fields accept writes", func() {
		path := fmt.Sprintf("/records/%s/measurements/%s", recordID, body.Measurements[0].ID)
		rec := s.request(http.MethodPatch, path, map[string]any{"target_distance_m": 600})
		s.Equal(http.StatusOK, rec.Code, rec.Body.String())
	})
}

func (s *EngagementHandlerSuite) TestQueries() {
	s.compose()

	s.Run("filter over the wire", func() {
		rec := s.request(http.MethodPost, "/records/filter", map[string]any{
			"load_name": "match load",
		})
		s.Require().Equal(http.StatusOK, rec.Code)
		var body struct {
			Records []json.RawMessage `json:"records"`
		}
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
		s.Len(body.Records, 1)
	})

	s.Run("search", func() {
		rec := s.request(http.MethodGet, "/records/search?q=qualification", nil)
		s.Equal(http.StatusOK, rec.Code)
	})

	s.Run("unique values rejects unsupported fields", func() {
		rec := s.request(http.MethodGet, "/records/unique-values?field=notes", nil)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("summary", func() {
		rec := s.request(http.MethodGet, "/summary", nil)
		s.Require().Equal(http.StatusOK, rec.Code)
		var body struct {
			TotalRecords int `json:"total_records"`
		}
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
		s.Equal(1, body.TotalRecords)
	})
}

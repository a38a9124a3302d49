// Package adapters binds the engine's ports to the concrete leaf services.
// This keeps the architecture boundaries intact while everything runs in a
// single process.
package adapters

import (
	"context"
	"time"

	"rangelog/internal/engagement/ports"
	"rangelog/internal/environment"
	"rangelog/internal/equipment"
	"rangelog/internal/geo"
	"rangelog/internal/velocity"
	id "rangelog/pkg/domain"
	dErrors "rangelog/pkg/domain-errors"
)

// SessionAdapter implements ports.SessionSource over the velocity service.
type SessionAdapter struct {
	velocity *velocity.Service
}

func NewSessionAdapter(svc *velocity.Service) ports.SessionSource {
	return &SessionAdapter{velocity: svc}
}

func (a *SessionAdapter) SessionForOwner(ctx context.Context, owner id.OwnerID, sessionID id.SessionID) (*ports.SessionData, error) {
	session, err := a.velocity.Get(ctx, owner, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "session not found")
	}

	data := &ports.SessionData{
		Label: session.Label,
		Stats: ports.SessionStatsData{
			Count:  session.Stats.Count,
			Mean:   session.Stats.Mean,
			StdDev: session.Stats.StdDev,
			Min:    session.Stats.Min,
			Max:    session.Stats.Max,
		},
	}
	for _, r := range session.Readings {
		data.Readings = append(data.Readings, ports.ReadingData{
			Shot:      r.Shot,
			Timestamp: r.Timestamp,
			Speed:     r.Speed,
		})
	}
	return data, nil
}

// EquipmentAdapter implements ports.EquipmentSource over the catalog service.
type EquipmentAdapter struct {
	equipment *equipment.Service
}

func NewEquipmentAdapter(svc *equipment.Service) ports.EquipmentSource {
	return &EquipmentAdapter{equipment: svc}
}

func (a *EquipmentAdapter) LoadForOwner(ctx context.Context, owner id.OwnerID, loadID id.LoadID) (*ports.LoadData, error) {
	load, err := a.equipment.GetLoad(ctx, owner, loadID)
	if err != nil {
		return nil, err
	}
	return &ports.LoadData{
		Name:            load.Name,
		Cartridge:       load.Cartridge,
		BulletName:      load.BulletName,
		BulletMassGrams: load.BulletMassGrams,
	}, nil
}

func (a *EquipmentAdapter) FirearmForOwner(ctx context.Context, owner id.OwnerID, firearmID id.FirearmID) (*ports.FirearmData, error) {
	firearm, err := a.equipment.GetFirearm(ctx, owner, firearmID)
	if err != nil {
		return nil, err
	}
	return &ports.FirearmData{
		Name:    firearm.Name,
		Caliber: firearm.Caliber,
	}, nil
}

// LocationAdapter implements ports.LocationSource over the geo service.
type LocationAdapter struct {
	geo *geo.Service
}

func NewLocationAdapter(svc *geo.Service) ports.LocationSource {
	return &LocationAdapter{geo: svc}
}

func (a *LocationAdapter) LocationForOwner(ctx context.Context, owner id.OwnerID, locationID id.LocationID) (*ports.LocationData, error) {
	loc, err := a.geo.Owned(ctx, owner, locationID)
	if err != nil {
		return nil, err
	}
	return &ports.LocationData{
		Name:              loc.Name,
		DistanceM:         loc.DistanceM,
		BearingDeg:        loc.BearingDeg,
		ElevationAngleDeg: loc.ElevationAngleDeg,
	}, nil
}

// EnvironmentAdapter implements ports.EnvironmentSource over the environment
// service.
type EnvironmentAdapter struct {
	environment *environment.Service
}

func NewEnvironmentAdapter(svc *environment.Service) ports.EnvironmentSource {
	return &EnvironmentAdapter{environment: svc}
}

func (a *EnvironmentAdapter) VerifySource(ctx context.Context, owner id.OwnerID, sourceID id.SourceID) error {
	source, err := a.environment.GetSource(ctx, owner, sourceID)
	if err != nil {
		return err
	}
	if source == nil {
		return dErrors.New(dErrors.CodeNotFound, "environment source not found")
	}
	return nil
}

func (a *EnvironmentAdapter) ObservationsBetween(ctx context.Context, owner id.OwnerID, sourceID id.SourceID, from, to time.Time) ([]ports.ObservationData, error) {
	observations, err := a.environment.ListBetween(ctx, owner, sourceID, from, to)
	if err != nil {
		return nil, err
	}
	out := make([]ports.ObservationData, 0, len(observations))
	for _, obs := range observations {
		out = append(out, ports.ObservationData{
			Timestamp:        obs.Timestamp,
			TemperatureC:     obs.TemperatureC,
			HumidityPct:      obs.HumidityPct,
			PressureHPa:      obs.PressureHPa,
			WindSpeedMPS:     obs.WindSpeedMPS,
			WindDirectionDeg: obs.WindDirectionDeg,
		})
	}
	return out, nil
}

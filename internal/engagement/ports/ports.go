// Package ports defines the engine's read contracts over the four leaf
// components. The engine depends on these interfaces, never on the leaf
// packages themselves; adapters bind them to the concrete services. Defined
// per module to keep the dependency one-directional.
package ports

import (
	"context"
	"time"

	id "rangelog/pkg/domain"
)

// ReadingData is the engine's view of one velocity reading.
type ReadingData struct {
	Shot      int
	Timestamp time.Time
	Speed     float64
}

// SessionStatsData mirrors the session's cached aggregate statistics.
type SessionStatsData struct {
	Count  int
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
}

// SessionData is the engine's view of a velocity session.
type SessionData struct {
	Label    string
	Readings []ReadingData
	Stats    SessionStatsData
}

// SessionSource reads velocity sessions. Implementations enforce ownership:
// an existing session owned by someone else yields an access-denied domain
// error, a missing one not-found.
type SessionSource interface {
	SessionForOwner(ctx context.Context, owner id.OwnerID, sessionID id.SessionID) (*SessionData, error)
}

// LoadData is the engine's view of a load spec.
type LoadData struct {
	Name            string
	Cartridge       string
	BulletName      string
	BulletMassGrams float64
}

// FirearmData is the engine's view of a firearm spec.
type FirearmData struct {
	Name    string
	Caliber string
}

// EquipmentSource reads equipment specs visible to an owner (global entries
// pass for any owner).
type EquipmentSource interface {
	LoadForOwner(ctx context.Context, owner id.OwnerID, loadID id.LoadID) (*LoadData, error)
	FirearmForOwner(ctx context.Context, owner id.OwnerID, firearmID id.FirearmID) (*FirearmData, error)
}

// LocationData is the engine's view of a range location.
type LocationData struct {
	Name              string
	DistanceM         float64
	BearingDeg        float64
	ElevationAngleDeg float64
}

// LocationSource reads an owner's range locations.
type LocationSource interface {
	LocationForOwner(ctx context.Context, owner id.OwnerID, locationID id.LocationID) (*LocationData, error)
}

// ObservationData is the engine's view of one environment observation.
// Nil fields were not reported by the sensor.
type ObservationData struct {
	Timestamp        time.Time
	TemperatureC     *float64
	HumidityPct      *float64
	PressureHPa      *float64
	WindSpeedMPS     *float64
	WindDirectionDeg *float64
}

// EnvironmentSource reads an owner's environment observations.
type EnvironmentSource interface {
	// VerifySource fails when the source is missing or owned by another owner.
	VerifySource(ctx context.Context, owner id.OwnerID, sourceID id.SourceID) error
	// ObservationsBetween returns observations with from <= ts <= to,
	// ordered by timestamp ascending.
	ObservationsBetween(ctx context.Context, owner id.OwnerID, sourceID id.SourceID, from, to time.Time) ([]ObservationData, error)
}

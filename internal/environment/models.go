// Package environment owns timestamped environmental observations from one
// or more sensor sources. The store is append-only: observations are never
// updated or deleted. Leaf component; no dependency on the engine.
package environment

import (
	"time"

	id "rangelog/pkg/domain"
	dErrors "rangelog/pkg/domain-errors"
)

// Source is a named sensor stream (a weather meter, a station feed).
type Source struct {
	ID        id.SourceID `json:"id"`
	OwnerID   id.OwnerID  `json:"owner_id"`
	Name      string      `json:"name"`
	CreatedAt time.Time   `json:"created_at"`
}

// Observation is one timestamped sensor sample. Fields are pointers because
// a sensor may report any subset; absence of a field is a distinct signal
// from zero.
type Observation struct {
	SourceID         id.SourceID `json:"source_id"`
	Timestamp        time.Time   `json:"timestamp"`
	TemperatureC     *float64    `json:"temperature_c,omitempty"`
	HumidityPct      *float64    `json:"humidity_pct,omitempty"`
	PressureHPa      *float64    `json:"pressure_hpa,omitempty"`
	WindSpeedMPS     *float64    `json:"wind_speed_mps,omitempty"`
	WindDirectionDeg *float64    `json:"wind_direction_deg,omitempty"`
}

// NewSource constructs a source with validated invariants.
func NewSource(sourceID id.SourceID, owner id.OwnerID, name string, now time.Time) (*Source, error) {
	if owner == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "owner is required")
	}
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "source name is required")
	}
	return &Source{ID: sourceID, OwnerID: owner, Name: name, CreatedAt: now}, nil
}

// Validate checks an observation before append.
func (o Observation) Validate() error {
	if o.Timestamp.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "observation timestamp is required")
	}
	if o.TemperatureC == nil && o.HumidityPct == nil && o.PressureHPa == nil &&
		o.WindSpeedMPS == nil && o.WindDirectionDeg == nil {
		return dErrors.New(dErrors.CodeValidation, "observation must carry at least one field")
	}
	if o.HumidityPct != nil && (*o.HumidityPct < 0 || *o.HumidityPct > 100) {
		return dErrors.New(dErrors.CodeValidation, "humidity must be between 0 and 100")
	}
	return nil
}

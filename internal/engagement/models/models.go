// Package models defines the aggregation engine's entities: the engagement
// record (the denormalized analysis unit) and its per-shot measurements.
package models

import (
	"time"

	id "rangelog/pkg/domain"
	dErrors "rangelog/pkg/domain-errors"
)

// VelocityStats is the engine's cached view of a session's statistics,
// extended with the derived spread figures.
type VelocityStats struct {
	Count         int     `json:"count"`
	Mean          float64 `json:"mean"`
	StdDev        float64 `json:"std_dev"`
	Min           float64 `json:"min"`
	Max           float64 `json:"max"`
	ExtremeSpread float64 `json:"extreme_spread"`
	// CoefficientOfVariation is stddev/mean as a percentage.
	CoefficientOfVariation float64 `json:"coefficient_of_variation"`
}

// EnvironmentSummary holds per-field medians over the observations falling
// inside the record's time span. Nil means no observation in the window
// carried that field: absence of data is a distinct, deliberate signal,
// never zero.
type EnvironmentSummary struct {
	TemperatureC     *float64 `json:"temperature_c,omitempty"`
	HumidityPct      *float64 `json:"humidity_pct,omitempty"`
	PressureHPa      *float64 `json:"pressure_hpa,omitempty"`
	WindSpeedMPS     *float64 `json:"wind_speed_mps,omitempty"`
	WindDirectionDeg *float64 `json:"wind_direction_deg,omitempty"`
}

// Unset reports whether no median field carries data.
func (e EnvironmentSummary) Unset() bool {
	return e.TemperatureC == nil && e.HumidityPct == nil && e.PressureHPa == nil &&
		e.WindSpeedMPS == nil && e.WindDirectionDeg == nil
}

// Snapshot is the denormalized view cached on a record for query
// performance. Copied by value at composition time; later edits to source
// specs do not retroactively change it unless an explicit refresh runs.
type Snapshot struct {
	LoadName        string  `json:"load_name"`
	Cartridge       string  `json:"cartridge"`
	BulletName      string  `json:"bullet_name"`
	BulletMassGrams float64 `json:"bullet_mass_grams"`
	FirearmName     string  `json:"firearm_name"`
	FirearmCaliber  string  `json:"firearm_caliber"`
	LocationName    string  `json:"location_name"`
	DistanceM       float64 `json:"distance_m"`

	Velocity    VelocityStats      `json:"velocity"`
	Environment EnvironmentSummary `json:"environment"`
}

// Record is the engagement record: one velocity session joined with
// equipment, location, and optional environment data.
type Record struct {
	ID      id.RecordID `json:"id"`
	OwnerID id.OwnerID  `json:"owner_id"`
	Label   string      `json:"label"`

	SessionID           id.SessionID  `json:"session_id"`
	LoadID              id.LoadID     `json:"load_id"`
	FirearmID           id.FirearmID  `json:"firearm_id"`
	LocationID          id.LocationID `json:"location_id"`
	EnvironmentSourceID *id.SourceID  `json:"environment_source_id,omitempty"`

	// StartTime/EndTime bound the session's reading timestamps. A record
	// cannot exist without a bounded time span.
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	Snapshot Snapshot `json:"snapshot"`
	Notes    string   `json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate enforces the mandatory-reference invariant.
func (r *Record) Validate() error {
	if r.OwnerID == "" {
		return dErrors.New(dErrors.CodeValidation, "owner is required")
	}
	if r.SessionID == "" {
		return dErrors.New(dErrors.CodeValidation, "session reference is required")
	}
	if r.LoadID == "" {
		return dErrors.New(dErrors.CodeValidation, "load reference is required")
	}
	if r.FirearmID == "" {
		return dErrors.New(dErrors.CodeValidation, "firearm reference is required")
	}
	if r.LocationID == "" {
		return dErrors.New(dErrors.CodeValidation, "location reference is required")
	}
	if r.StartTime.IsZero() || r.EndTime.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "record requires a bounded time span")
	}
	return nil
}

// EnvironmentSnapshot is the per-measurement environment binding produced by
// time-window association. ObservedAt is the matched observation's
// timestamp.
type EnvironmentSnapshot struct {
	ObservedAt       time.Time `json:"observed_at"`
	TemperatureC     *float64  `json:"temperature_c,omitempty"`
	HumidityPct      *float64  `json:"humidity_pct,omitempty"`
	PressureHPa      *float64  `json:"pressure_hpa,omitempty"`
	WindSpeedMPS     *float64  `json:"wind_speed_mps,omitempty"`
	WindDirectionDeg *float64  `json:"wind_direction_deg,omitempty"`
}

// Measurement carries engagement-specific per-shot fields not present on
// the raw reading. One exists per underlying reading at creation time;
// later edits never propagate back to the session.
type Measurement struct {
	ID       id.MeasurementID `json:"id"`
	RecordID id.RecordID      `json:"record_id"`

	Shot      int       `json:"shot"`
	Timestamp time.Time `json:"timestamp"`
	Speed     float64   `json:"speed_mps"`

	TargetDistanceM    *float64 `json:"target_distance_m,omitempty"`
	SightElevationMRAD *float64 `json:"sight_elevation_mrad,omitempty"`
	SightWindageMRAD   *float64 `json:"sight_windage_mrad,omitempty"`

	// Environment is nil until time-window association finds a match.
	Environment *EnvironmentSnapshot `json:"environment,omitempty"`

	Note string `json:"note,omitempty"`
}

// Associated reports whether the measurement already carries an environment
// binding.
func (m *Measurement) Associated() bool {
	return m.Environment != nil
}

// Summary aggregates counts across an owner's records.
type Summary struct {
	TotalRecords      int        `json:"total_records"`
	TotalMeasurements int        `json:"total_measurements"`
	DistinctLoads     int        `json:"distinct_loads"`
	DistinctFirearms  int        `json:"distinct_firearms"`
	EarliestStart     *time.Time `json:"earliest_start,omitempty"`
	LatestStart       *time.Time `json:"latest_start,omitempty"`
}

// BatchResult reports a multi-record operation's partial outcome instead of
// aborting on first failure.
type BatchResult struct {
	Succeeded int          `json:"succeeded"`
	Failed    []BatchError `json:"failed,omitempty"`
}

// BatchError names one failed item and why.
type BatchError struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// Package domain defines the typed identifiers that cross the engine
// boundary. Every identity is an opaque string token: the engine never
// interprets it structurally, it only compares tokens for equality.
package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "rangelog/pkg/domain-errors"
)

type (
	// OwnerID identifies the caller that owns source data and records.
	OwnerID string

	// SessionID identifies a velocity session.
	SessionID string

	// ReadingID identifies a single velocity reading within a session.
	ReadingID string

	// SourceID identifies an environment sensor source.
	SourceID string

	// ProjectileID identifies a projectile spec in the equipment catalog.
	ProjectileID string

	// LoadID identifies a load spec in the equipment catalog.
	LoadID string

	// FirearmID identifies a firearm spec in the equipment catalog.
	FirearmID string

	// LocationID identifies a range location in the geographic catalog.
	LocationID string

	// RecordID identifies an engagement record.
	RecordID string

	// MeasurementID identifies an engagement measurement.
	MeasurementID string
)

// NewRecordID mints a fresh record identity.
func NewRecordID() RecordID { return RecordID(uuid.NewString()) }

// NewMeasurementID mints a fresh measurement identity.
func NewMeasurementID() MeasurementID { return MeasurementID(uuid.NewString()) }

// NewSessionID mints a fresh session identity.
func NewSessionID() SessionID { return SessionID(uuid.NewString()) }

// NewReadingID mints a fresh reading identity.
func NewReadingID() ReadingID { return ReadingID(uuid.NewString()) }

// NewSourceID mints a fresh environment source identity.
func NewSourceID() SourceID { return SourceID(uuid.NewString()) }

// NewProjectileID mints a fresh projectile identity.
func NewProjectileID() ProjectileID { return ProjectileID(uuid.NewString()) }

// NewLoadID mints a fresh load identity.
func NewLoadID() LoadID { return LoadID(uuid.NewString()) }

// NewFirearmID mints a fresh firearm identity.
func NewFirearmID() FirearmID { return FirearmID(uuid.NewString()) }

// NewLocationID mints a fresh location identity.
func NewLocationID() LocationID { return LocationID(uuid.NewString()) }

// parseToken enforces the only invariant opaque tokens carry: they are
// non-empty after trimming. Anything else is the caller's namespace.
func parseToken(raw, what string) (string, error) {
	token := strings.TrimSpace(raw)
	if token == "" {
		return "", dErrors.New(dErrors.CodeValidation, what+" is required")
	}
	return token, nil
}

// ParseOwnerID validates an owner token at a trust boundary.
func ParseOwnerID(raw string) (OwnerID, error) {
	token, err := parseToken(raw, "owner id")
	return OwnerID(token), err
}

// ParseSessionID validates a session token at a trust boundary.
func ParseSessionID(raw string) (SessionID, error) {
	token, err := parseToken(raw, "session id")
	return SessionID(token), err
}

// ParseReadingID validates a reading token at a trust boundary.
func ParseReadingID(raw string) (ReadingID, error) {
	token, err := parseToken(raw, "reading id")
	return ReadingID(token), err
}

// ParseSourceID validates an environment source token at a trust boundary.
func ParseSourceID(raw string) (SourceID, error) {
	token, err := parseToken(raw, "source id")
	return SourceID(token), err
}

// ParseProjectileID validates a projectile token at a trust boundary.
func ParseProjectileID(raw string) (ProjectileID, error) {
	token, err := parseToken(raw, "projectile id")
	return ProjectileID(token), err
}

// ParseLoadID validates a load token at a trust boundary.
func ParseLoadID(raw string) (LoadID, error) {
	token, err := parseToken(raw, "load id")
	return LoadID(token), err
}

// ParseFirearmID validates a firearm token at a trust boundary.
func ParseFirearmID(raw string) (FirearmID, error) {
	token, err := parseToken(raw, "firearm id")
	return FirearmID(token), err
}

// ParseLocationID validates a location token at a trust boundary.
func ParseLocationID(raw string) (LocationID, error) {
	token, err := parseToken(raw, "location id")
	return LocationID(token), err
}

// ParseRecordID validates a record token at a trust boundary.
func ParseRecordID(raw string) (RecordID, error) {
	token, err := parseToken(raw, "record id")
	return RecordID(token), err
}

// ParseMeasurementID validates a measurement token at a trust boundary.
func ParseMeasurementID(raw string) (MeasurementID, error) {
	token, err := parseToken(raw, "measurement id")
	return MeasurementID(token), err
}

// Package geo owns named range locations with precomputed geometry. Leaf
// component; no dependency on the engine.
package geo

import (
	"time"

	id "rangelog/pkg/domain"
	dErrors "rangelog/pkg/domain-errors"
)

// Coordinates is a WGS84 point with elevation in meters.
type Coordinates struct {
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	ElevationM float64 `json:"elevation_m"`
}

// Location is a named firing position and target pair. Geometry is computed
// once at creation and stored, so reads never re-derive it.
type Location struct {
	ID      id.LocationID `json:"id"`
	OwnerID id.OwnerID    `json:"owner_id"`
	Name    string        `json:"name"`

	FiringPoint Coordinates `json:"firing_point"`
	Target      Coordinates `json:"target"`

	// Precomputed geometry.
	DistanceM         float64 `json:"distance_m"`
	BearingDeg        float64 `json:"bearing_deg"`
	ElevationAngleDeg float64 `json:"elevation_angle_deg"`

	CreatedAt time.Time `json:"created_at"`
}

// NewLocation constructs a location, computing its geometry.
func NewLocation(locationID id.LocationID, owner id.OwnerID, name string, firingPoint, target Coordinates, now time.Time) (*Location, error) {
	if owner == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "owner is required")
	}
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "location name is required")
	}
	if err := validateCoordinates(firingPoint); err != nil {
		return nil, err
	}
	if err := validateCoordinates(target); err != nil {
		return nil, err
	}

	loc := &Location{
		ID:          locationID,
		OwnerID:     owner,
		Name:        name,
		FiringPoint: firingPoint,
		Target:      target,
		CreatedAt:   now,
	}
	loc.DistanceM = Distance(firingPoint, target)
	loc.BearingDeg = Bearing(firingPoint, target)
	loc.ElevationAngleDeg = ElevationAngle(firingPoint, target)
	return loc, nil
}

func validateCoordinates(c Coordinates) error {
	if c.Latitude < -90 || c.Latitude > 90 {
		return dErrors.New(dErrors.CodeValidation, "latitude must be between -90 and 90")
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return dErrors.New(dErrors.CodeValidation, "longitude must be between -180 and 180")
	}
	return nil
}

// Package velocity owns raw per-shot velocity readings grouped into
// sessions. It is a leaf component: nothing here depends on the aggregation
// engine or on any other source subsystem.
package velocity

import (
	"time"

	id "rangelog/pkg/domain"
	dErrors "rangelog/pkg/domain-errors"
)

// Reading is a single captured shot. Speed, timestamp and shot number are
// immutable once captured; only the bore flags and note may change.
type Reading struct {
	ID          id.ReadingID `json:"id"`
	SessionID   id.SessionID `json:"session_id"`
	Shot        int          `json:"shot"`
	Timestamp   time.Time    `json:"timestamp"`
	Speed       float64      `json:"speed_mps"`
	Energy      *float64     `json:"energy_joules,omitempty"`
	PowerFactor *float64     `json:"power_factor,omitempty"`
	CleanBore   bool         `json:"clean_bore"`
	ColdBore    bool         `json:"cold_bore"`
	Note        string       `json:"note,omitempty"`
}

// Session is an ordered collection of readings with cached aggregate
// statistics, recomputed whenever membership changes.
type Session struct {
	ID      id.SessionID `json:"id"`
	OwnerID id.OwnerID   `json:"owner_id"`
	Label   string       `json:"label"`

	// BulletMassGrams, when set, lets AddReading derive energy and power
	// factor at capture time.
	BulletMassGrams *float64 `json:"bullet_mass_grams,omitempty"`

	Readings []Reading `json:"readings"`
	Stats    Stats     `json:"stats"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession constructs a session with validated invariants.
func NewSession(sessionID id.SessionID, owner id.OwnerID, label string, bulletMassGrams *float64, now time.Time) (*Session, error) {
	if owner == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "owner is required")
	}
	if label == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "session label is required")
	}
	if bulletMassGrams != nil && *bulletMassGrams <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "bullet mass must be positive")
	}
	return &Session{
		ID:              sessionID,
		OwnerID:         owner,
		Label:           label,
		BulletMassGrams: bulletMassGrams,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// AppendReading adds a reading, deriving energy and power factor when the
// bullet mass is known, and recomputes the cached statistics.
func (s *Session) AppendReading(r Reading) {
	if s.BulletMassGrams != nil {
		massKG := *s.BulletMassGrams / 1000
		energy := 0.5 * massKG * r.Speed * r.Speed
		pf := *s.BulletMassGrams * r.Speed / 1000
		r.Energy = &energy
		r.PowerFactor = &pf
	}
	if r.Shot == 0 {
		r.Shot = len(s.Readings) + 1
	}
	s.Readings = append(s.Readings, r)
	s.Stats = ComputeStats(s.Readings)
}

// Span returns the inclusive [earliest, latest] reading timestamps. The
// boolean is false for an empty session.
func (s *Session) Span() (time.Time, time.Time, bool) {
	if len(s.Readings) == 0 {
		return time.Time{}, time.Time{}, false
	}
	start, end := s.Readings[0].Timestamp, s.Readings[0].Timestamp
	for _, r := range s.Readings[1:] {
		if r.Timestamp.Before(start) {
			start = r.Timestamp
		}
		if r.Timestamp.After(end) {
			end = r.Timestamp
		}
	}
	return start, end, true
}

package models

import (
	"strings"
	"time"

	dErrors "rangelog/pkg/domain-errors"
)

// NumericRange is an inclusive [Min, Max] predicate; either bound may be
// open.
type NumericRange struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// IsSet reports whether either bound is present.
func (r NumericRange) IsSet() bool { return r.Min != nil || r.Max != nil }

// Contains checks v against the set bounds, inclusively.
func (r NumericRange) Contains(v float64) bool {
	if r.Min != nil && v < *r.Min {
		return false
	}
	if r.Max != nil && v > *r.Max {
		return false
	}
	return true
}

// matchesOptional applies the range to a nullable denormalized field. A set
// predicate never matches absent data.
func (r NumericRange) matchesOptional(v *float64) bool {
	if !r.IsSet() {
		return true
	}
	if v == nil {
		return false
	}
	return r.Contains(*v)
}

// DateRange is an inclusive date predicate on the record's start time.
type DateRange struct {
	From *time.Time `json:"from,omitempty"`
	To   *time.Time `json:"to,omitempty"`
}

func (r DateRange) contains(t time.Time) bool {
	if r.From != nil && t.Before(*r.From) {
		return false
	}
	if r.To != nil && t.After(*r.To) {
		return false
	}
	return true
}

// FilterSet is the structured predicate set for Filter. All set predicates
// combine with AND and evaluate against cached denormalized fields only.
type FilterSet struct {
	LoadName     *string `json:"load_name,omitempty"`
	FirearmName  *string `json:"firearm_name,omitempty"`
	LocationName *string `json:"location_name,omitempty"`

	DistanceM       NumericRange `json:"distance_m,omitempty"`
	TemperatureC    NumericRange `json:"temperature_c,omitempty"`
	HumidityPct     NumericRange `json:"humidity_pct,omitempty"`
	WindSpeedMPS    NumericRange `json:"wind_speed_mps,omitempty"`
	BulletMassGrams NumericRange `json:"bullet_mass_grams,omitempty"`

	StartTime DateRange `json:"start_time,omitempty"`
}

// Matches evaluates the record against every set predicate.
func (f FilterSet) Matches(r *Record) bool {
	if f.LoadName != nil && r.Snapshot.LoadName != *f.LoadName {
		return false
	}
	if f.FirearmName != nil && r.Snapshot.FirearmName != *f.FirearmName {
		return false
	}
	if f.LocationName != nil && r.Snapshot.LocationName != *f.LocationName {
		return false
	}
	if f.DistanceM.IsSet() && !f.DistanceM.Contains(r.Snapshot.DistanceM) {
		return false
	}
	if !f.TemperatureC.matchesOptional(r.Snapshot.Environment.TemperatureC) {
		return false
	}
	if !f.HumidityPct.matchesOptional(r.Snapshot.Environment.HumidityPct) {
		return false
	}
	if !f.WindSpeedMPS.matchesOptional(r.Snapshot.Environment.WindSpeedMPS) {
		return false
	}
	if f.BulletMassGrams.IsSet() && !f.BulletMassGrams.Contains(r.Snapshot.BulletMassGrams) {
		return false
	}
	return f.StartTime.contains(r.StartTime)
}

// MatchesSearch performs case-insensitive substring matching with OR
// semantics across the record's text fields.
func (r *Record) MatchesSearch(text string) bool {
	needle := strings.ToLower(text)
	for _, haystack := range []string{
		r.Label,
		r.Notes,
		r.Snapshot.LoadName,
		r.Snapshot.BulletName,
		r.Snapshot.FirearmName,
		r.Snapshot.LocationName,
	} {
		if strings.Contains(strings.ToLower(haystack), needle) {
			return true
		}
	}
	return false
}

// UniqueValueField names a denormalized field supported by UniqueValues.
type UniqueValueField string

const (
	FieldLoadName     UniqueValueField = "load_name"
	FieldBulletName   UniqueValueField = "bullet_name"
	FieldFirearmName  UniqueValueField = "firearm_name"
	FieldLocationName UniqueValueField = "location_name"
	FieldCartridge    UniqueValueField = "cartridge"
)

// ParseUniqueValueField validates a field name against the fixed whitelist.
func ParseUniqueValueField(raw string) (UniqueValueField, error) {
	switch field := UniqueValueField(raw); field {
	case FieldLoadName, FieldBulletName, FieldFirearmName, FieldLocationName, FieldCartridge:
		return field, nil
	default:
		return "", dErrors.Newf(dErrors.CodeValidation, "unsupported field %q", raw)
	}
}

// ValueOf extracts the named denormalized field from a record.
func (f UniqueValueField) ValueOf(r *Record) string {
	switch f {
	case FieldLoadName:
		return r.Snapshot.LoadName
	case FieldBulletName:
		return r.Snapshot.BulletName
	case FieldFirearmName:
		return r.Snapshot.FirearmName
	case FieldLocationName:
		return r.Snapshot.LocationName
	case FieldCartridge:
		return r.Snapshot.Cartridge
	default:
		return ""
	}
}

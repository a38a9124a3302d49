package handler

import (
	"encoding/json"
	"time"

	"rangelog/internal/engagement/service"
	id "rangelog/pkg/domain"
	dErrors "rangelog/pkg/domain-errors"
)

// ComposeRecordRequest is the POST /records body.
type ComposeRecordRequest struct {
	Label               string  `json:"label"`
	SessionID           string  `json:"session_id"`
	LoadID              string  `json:"load_id"`
	FirearmID           string  `json:"firearm_id"`
	LocationID          string  `json:"location_id"`
	EnvironmentSourceID *string `json:"environment_source_id,omitempty"`
	Notes               string  `json:"notes,omitempty"`
}

func (r ComposeRecordRequest) ToService() (service.ComposeRequest, error) {
	sessionID, err := id.ParseSessionID(r.SessionID)
	if err != nil {
		return service.ComposeRequest{}, err
	}
	loadID, err := id.ParseLoadID(r.LoadID)
	if err != nil {
		return service.ComposeRequest{}, err
	}
	firearmID, err := id.ParseFirearmID(r.FirearmID)
	if err != nil {
		return service.ComposeRequest{}, err
	}
	locationID, err := id.ParseLocationID(r.LocationID)
	if err != nil {
		return service.ComposeRequest{}, err
	}
	req := service.ComposeRequest{
		Label:      r.Label,
		SessionID:  sessionID,
		LoadID:     loadID,
		FirearmID:  firearmID,
		LocationID: locationID,
		Notes:      r.Notes,
	}
	if r.EnvironmentSourceID != nil {
		sourceID, err := id.ParseSourceID(*r.EnvironmentSourceID)
		if err != nil {
			return service.ComposeRequest{}, err
		}
		req.EnvironmentSourceID = &sourceID
	}
	return req, nil
}

// UpdateRecordRequest is the PATCH /records/{recordID} body. The derived
// fields are decoded only to detect attempts to write them, which is a
// conflict: they change through reference swaps or an explicit refresh.
type UpdateRecordRequest struct {
	Label  *string `json:"label,omitempty"`
	Notes  *string `json:"notes,omitempty"`
	LoadID *string `json:"load_id,omitempty"`

	FirearmID  *string `json:"firearm_id,omitempty"`
	LocationID *string `json:"location_id,omitempty"`

	EnvironmentSourceID *string `json:"environment_source_id,omitempty"`
	ClearEnvironment    bool    `json:"clear_environment_source,omitempty"`

	Snapshot  json.RawMessage `json:"snapshot,omitempty"`
	StartTime json.RawMessage `json:"start_time,omitempty"`
	EndTime   json.RawMessage `json:"end_time,omitempty"`
	SessionID json.RawMessage `json:"session_id,omitempty"`
}

func (r UpdateRecordRequest) ToService() (service.UpdateRequest, error) {
	if len(r.Snapshot) > 0 || len(r.StartTime) > 0 || len(r.EndTime) > 0 {
		return service.UpdateRequest{}, dErrors.New(dErrors.CodeConflict, "derived fields cannot be written directly")
	}
	if len(r.SessionID) > 0 {
		return service.UpdateRequest{}, dErrors.New(dErrors.CodeConflict, "session reference is fixed for the record's lifetime")
	}

	req := service.UpdateRequest{
		Label: r.Label,
		Notes: r.Notes,
	}
	if r.LoadID != nil {
		loadID, err := id.ParseLoadID(*r.LoadID)
		if err != nil {
			return service.UpdateRequest{}, err
		}
		req.LoadID = &loadID
	}
	if r.FirearmID != nil {
		firearmID, err := id.ParseFirearmID(*r.FirearmID)
		if err != nil {
			return service.UpdateRequest{}, err
		}
		req.FirearmID = &firearmID
	}
	if r.LocationID != nil {
		locationID, err := id.ParseLocationID(*r.LocationID)
		if err != nil {
			return service.UpdateRequest{}, err
		}
		req.LocationID = &locationID
	}
	switch {
	case r.ClearEnvironment:
		req.SetEnvironmentSource = true
	case r.EnvironmentSourceID != nil:
		sourceID, err := id.ParseSourceID(*r.EnvironmentSourceID)
		if err != nil {
			return service.UpdateRequest{}, err
		}
		req.SetEnvironmentSource = true
		req.EnvironmentSourceID = &sourceID
	}
	return req, nil
}

// AssociateRequest is the POST /records/{recordID}/associate body.
type AssociateRequest struct {
	// ToleranceMinutes overrides the default association window when
	// positive.
	ToleranceMinutes int `json:"tolerance_minutes,omitempty"`
}

func (r AssociateRequest) Tolerance() time.Duration {
	return time.Duration(r.ToleranceMinutes) * time.Minute
}

// BatchDeleteRequest is the POST /records/batch-delete body.
type BatchDeleteRequest struct {
	RecordIDs []string `json:"record_ids"`
}

func (r BatchDeleteRequest) ToRecordIDs() ([]id.RecordID, error) {
	if len(r.RecordIDs) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "record_ids is required")
	}
	out := make([]id.RecordID, 0, len(r.RecordIDs))
	for _, raw := range r.RecordIDs {
		recordID, err := id.ParseRecordID(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, recordID)
	}
	return out, nil
}

// UpdateMeasurementRequest is the PATCH measurement body.
type UpdateMeasurementRequest struct {
	TargetDistanceM    *float64 `json:"target_distance_m,omitempty"`
	SightElevationMRAD *float64 `json:"sight_elevation_mrad,omitempty"`
	SightWindageMRAD   *float64 `json:"sight_windage_mrad,omitempty"`
	Note               *string  `json:"note,omitempty"`

	Speed       json.RawMessage `json:"speed_mps,omitempty"`
	Timestamp   json.RawMessage `json:"timestamp,omitempty"`
	Environment json.RawMessage `json:"environment,omitempty"`
}

func (r UpdateMeasurementRequest) ToService() (service.MeasurementUpdate, error) {
	if len(r.Speed) > 0 || len(r.Timestamp) > 0 || len(r.Environment) > 0 {
		return service.MeasurementUpdate{}, dErrors.New(dErrors.CodeConflict, "captured shot data cannot be written directly")
	}
	return service.MeasurementUpdate{
		TargetDistanceM:    r.TargetDistanceM,
		SightElevationMRAD: r.SightElevationMRAD,
		SightWindageMRAD:   r.SightWindageMRAD,
		Note:               r.Note,
	}, nil
}

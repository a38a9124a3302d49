package service

import (
	"context"

	"rangelog/internal/audit"
	"rangelog/internal/engagement/models"
	id "rangelog/pkg/domain"
	dErrors "rangelog/pkg/domain-errors"
	"rangelog/pkg/requestcontext"
)

// UpdateRequest carries the mutable record fields. Nil leaves a field
// untouched. Swapping a reference re-resolves that source and recomputes the
// affected snapshot section; the session reference is fixed for the record's
// lifetime.
type UpdateRequest struct {
	Label  *string
	Notes  *string
	LoadID *id.LoadID

	FirearmID  *id.FirearmID
	LocationID *id.LocationID

	// SetEnvironmentSource distinguishes "leave alone" from "clear": when
	// true, EnvironmentSourceID replaces the current value, nil included.
	SetEnvironmentSource bool
	EnvironmentSourceID  *id.SourceID
}

// Update mutates a record's editable fields. Snapshot fields are derived and
// never directly writable; reference swaps recompute them instead.
func (s *Service) Update(ctx context.Context, owner id.OwnerID, recordID id.RecordID, req UpdateRequest) (*models.Record, error) {
	record, err := s.ownedRecord(ctx, owner, recordID)
	if err != nil {
		return nil, err
	}

	if req.Label != nil {
		if *req.Label == "" {
			return nil, dErrors.New(dErrors.CodeValidation, "label cannot be empty")
		}
		record.Label = *req.Label
	}
	if req.Notes != nil {
		record.Notes = *req.Notes
	}

	if req.LoadID != nil && *req.LoadID != record.LoadID {
		load, err := s.equipment.LoadForOwner(ctx, owner, *req.LoadID)
		if err != nil {
			return nil, err
		}
		record.LoadID = *req.LoadID
		record.Snapshot.LoadName = load.Name
		record.Snapshot.Cartridge = load.Cartridge
		record.Snapshot.BulletName = load.BulletName
		record.Snapshot.BulletMassGrams = load.BulletMassGrams
	}
	if req.FirearmID != nil && *req.FirearmID != record.FirearmID {
		firearm, err := s.equipment.FirearmForOwner(ctx, owner, *req.FirearmID)
		if err != nil {
			return nil, err
		}
		record.FirearmID = *req.FirearmID
		record.Snapshot.FirearmName = firearm.Name
		record.Snapshot.FirearmCaliber = firearm.Caliber
	}
	if req.LocationID != nil && *req.LocationID != record.LocationID {
		location, err := s.locations.LocationForOwner(ctx, owner, *req.LocationID)
		if err != nil {
			return nil, err
		}
		record.LocationID = *req.LocationID
		record.Snapshot.LocationName = location.Name
		record.Snapshot.DistanceM = location.DistanceM
	}
	if req.SetEnvironmentSource {
		if err := s.applyEnvironmentSource(ctx, owner, record, req.EnvironmentSourceID); err != nil {
			return nil, err
		}
	}

	record.UpdatedAt = requestcontext.Now(ctx)
	if err := s.store.UpdateRecord(ctx, record); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update record")
	}

	s.metrics.IncrementRecordOp("update", "ok")
	s.audit.Emit(audit.Event{
		OwnerID:  owner,
		Entity:   "engagement_record",
		EntityID: string(record.ID),
		Action:   "update",
	})
	s.invalidateSummary(ctx, owner)
	return record, nil
}

// applyEnvironmentSource swaps or clears the environment reference and
// recomputes the cached medians. Existing measurement bindings stay as they
// are; a fresh association pass is an explicit, separate call.
func (s *Service) applyEnvironmentSource(ctx context.Context, owner id.OwnerID, record *models.Record, sourceID *id.SourceID) error {
	if sourceID == nil {
		record.EnvironmentSourceID = nil
		record.Snapshot.Environment = models.EnvironmentSummary{}
		return nil
	}
	if err := s.weather.VerifySource(ctx, owner, *sourceID); err != nil {
		return err
	}
	observations, err := s.weather.ObservationsBetween(ctx, owner, *sourceID, record.StartTime, record.EndTime)
	if err != nil {
		return err
	}
	record.EnvironmentSourceID = sourceID
	record.Snapshot.Environment = environmentMedians(observations, record.StartTime, record.EndTime)
	return nil
}

// Refresh re-resolves every referenced source and rebuilds the record's
// denormalized snapshot and time span. Refresh is the only path by which
// later edits to source specs reach an existing record.
func (s *Service) Refresh(ctx context.Context, owner id.OwnerID, recordID id.RecordID) (*models.Record, error) {
	record, err := s.ownedRecord(ctx, owner, recordID)
	if err != nil {
		return nil, err
	}

	gathered, err := s.gatherSources(ctx, owner, ComposeRequest{
		SessionID:           record.SessionID,
		LoadID:              record.LoadID,
		FirearmID:           record.FirearmID,
		LocationID:          record.LocationID,
		EnvironmentSourceID: record.EnvironmentSourceID,
	})
	if err != nil {
		s.metrics.IncrementRecordOp("refresh", "error")
		return nil, err
	}

	start, end, ok := readingSpan(gathered.session.Readings)
	if !ok {
		return nil, dErrors.New(dErrors.CodeValidation, "session has no readings")
	}
	record.StartTime = start
	record.EndTime = end
	record.Snapshot = buildSnapshot(gathered, nil)

	if record.EnvironmentSourceID != nil {
		observations, err := s.weather.ObservationsBetween(ctx, owner, *record.EnvironmentSourceID, start, end)
		if err != nil {
			return nil, err
		}
		record.Snapshot.Environment = environmentMedians(observations, start, end)
	}

	record.UpdatedAt = requestcontext.Now(ctx)
	if err := s.store.UpdateRecord(ctx, record); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update record")
	}

	s.metrics.IncrementRecordOp("refresh", "ok")
	s.audit.Emit(audit.Event{
		OwnerID:  owner,
		Entity:   "engagement_record",
		EntityID: string(record.ID),
		Action:   "refresh",
	})
	s.invalidateSummary(ctx, owner)
	return record, nil
}

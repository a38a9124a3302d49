package service

import (
	"context"

	"rangelog/internal/engagement/models"
	id "rangelog/pkg/domain"
	dErrors "rangelog/pkg/domain-errors"
)

// SummaryCache caches computed summaries per owner. Implementations own
// their TTL policy; the service only asks, stores, and invalidates.
type SummaryCache interface {
	Get(ctx context.Context, owner id.OwnerID) (*models.Summary, bool, error)
	Set(ctx context.Context, owner id.OwnerID, summary *models.Summary) error
	Invalidate(ctx context.Context, owner id.OwnerID) error
}

// Summary aggregates counts across the owner's records. Results come from
// the cache when one is configured; any cache failure falls through to a
// fresh computation.
func (s *Service) Summary(ctx context.Context, owner id.OwnerID) (*models.Summary, error) {
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, owner)
		if err != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "summary cache read failed", "error", err)
		}
		if ok {
			s.metrics.IncrementSummaryCache("hit")
			return cached, nil
		}
		s.metrics.IncrementSummaryCache("miss")
	}

	records, err := s.store.ListRecordsByOwner(ctx, owner)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list records")
	}

	summary := &models.Summary{TotalRecords: len(records)}
	loads := make(map[id.LoadID]struct{})
	firearms := make(map[id.FirearmID]struct{})
	for _, record := range records {
		loads[record.LoadID] = struct{}{}
		firearms[record.FirearmID] = struct{}{}

		start := record.StartTime
		if summary.EarliestStart == nil || start.Before(*summary.EarliestStart) {
			earliest := start
			summary.EarliestStart = &earliest
		}
		if summary.LatestStart == nil || start.After(*summary.LatestStart) {
			latest := start
			summary.LatestStart = &latest
		}

		measurements, err := s.store.ListMeasurements(ctx, record.ID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list measurements")
		}
		summary.TotalMeasurements += len(measurements)
	}
	summary.DistinctLoads = len(loads)
	summary.DistinctFirearms = len(firearms)

	if s.cache != nil {
		if err := s.cache.Set(ctx, owner, summary); err != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "summary cache write failed", "error", err)
		}
	}
	return summary, nil
}

package service

import (
	"context"
	"sort"
	"strings"

	"rangelog/internal/engagement/models"
	id "rangelog/pkg/domain"
)

// Filter returns the owner's records matching every set predicate. Filtering
// reads only the cached denormalized fields: no source component is touched.
// An empty filter set matches everything.
func (s *Service) Filter(ctx context.Context, owner id.OwnerID, filter models.FilterSet) ([]*models.Record, error) {
	records, err := s.List(ctx, owner)
	if err != nil {
		return nil, err
	}
	out := records[:0]
	for _, record := range records {
		if filter.Matches(record) {
			out = append(out, record)
		}
	}
	return out, nil
}

// Search performs case-insensitive substring matching across the record's
// text fields with OR semantics. Empty text matches everything.
func (s *Service) Search(ctx context.Context, owner id.OwnerID, text string) ([]*models.Record, error) {
	records, err := s.List(ctx, owner)
	if err != nil {
		return nil, err
	}
	needle := strings.TrimSpace(text)
	if needle == "" {
		return records, nil
	}
	out := records[:0]
	for _, record := range records {
		if record.MatchesSearch(needle) {
			out = append(out, record)
		}
	}
	return out, nil
}

// UniqueValues returns the sorted distinct non-empty values of one
// whitelisted denormalized field across the owner's records.
func (s *Service) UniqueValues(ctx context.Context, owner id.OwnerID, rawField string) ([]string, error) {
	field, err := models.ParseUniqueValueField(rawField)
	if err != nil {
		return nil, err
	}
	records, err := s.List(ctx, owner)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var out []string
	for _, record := range records {
		v := field.ValueOf(record)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out, nil
}

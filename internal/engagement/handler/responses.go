package handler

import (
	"rangelog/internal/engagement/models"
)

// RecordsResponse wraps a record list.
type RecordsResponse struct {
	Records []*models.Record `json:"records"`
	Count   int              `json:"count"`
}

func NewRecordsResponse(records []*models.Record) RecordsResponse {
	if records == nil {
		records = []*models.Record{}
	}
	return RecordsResponse{Records: records, Count: len(records)}
}

// MeasurementsResponse wraps a record's measurement list.
type MeasurementsResponse struct {
	Measurements []models.Measurement `json:"measurements"`
	Count        int                  `json:"count"`
}

func NewMeasurementsResponse(measurements []models.Measurement) MeasurementsResponse {
	if measurements == nil {
		measurements = []models.Measurement{}
	}
	return MeasurementsResponse{Measurements: measurements, Count: len(measurements)}
}

// UniqueValuesResponse lists the distinct values of one denormalized field.
type UniqueValuesResponse struct {
	Field  string   `json:"field"`
	Values []string `json:"values"`
}

func NewUniqueValuesResponse(field string, values []string) UniqueValuesResponse {
	if values == nil {
		values = []string{}
	}
	return UniqueValuesResponse{Field: field, Values: values}
}

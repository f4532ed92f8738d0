// internal/service/records.go
package service

import (
	"context"
	"fmt"
	"time"

	"airtable-gateway/internal/models"
	"airtable-gateway/internal/schema"
)

// CreateRecord validates the payload against the table schema and creates
// the record. The response echoes the fields as they were sent upstream,
// so rounded numbers show their stored form.
func (s *Service) CreateRecord(ctx context.Context, req models.CreateRecordRequest) (resp *models.CreateRecordResponse, err error) {
	start := time.Now()
	defer func() { s.track(ctx, "create_record", start, err) }()

	ts, err := s.tableSchema(req.Table)
	if err != nil {
		return nil, err
	}

	fields, err := s.validateFields(req.Table, ts, req.Fields, schema.ModeCreate)
	if err != nil {
		return nil, err
	}

	record, err := s.repo.CreateRecord(ctx, req.Table, fields)
	if err != nil {
		return nil, err
	}

	return &models.CreateRecordResponse{
		Success:       true,
		RecordID:      record.ID,
		Message:       fmt.Sprintf("Successfully created record %s", record.ID),
		CreatedFields: fields,
	}, nil
}

// GetRecord fetches a single record by ID.
func (s *Service) GetRecord(ctx context.Context, table, recordID string) (resp *models.GetRecordResponse, err error) {
	start := time.Now()
	defer func() { s.track(ctx, "get_record", start, err) }()

	record, err := s.repo.GetRecord(ctx, table, recordID)
	if err != nil {
		return nil, err
	}

	return &models.GetRecordResponse{
		Success:  true,
		RecordID: recordID,
		Record:   record,
		Message:  fmt.Sprintf("Successfully retrieved record %s", recordID),
	}, nil
}

// GetAllRecords fetches every record of a table.
func (s *Service) GetAllRecords(ctx context.Context, table string) (resp *models.GetRecordsResponse, err error) {
	start := time.Now()
	defer func() { s.track(ctx, "get_all_records", start, err) }()

	records, err := s.repo.GetAllRecords(ctx, table)
	if err != nil {
		return nil, err
	}

	return &models.GetRecordsResponse{
		Success:    true,
		Records:    records,
		TotalCount: len(records),
		Message:    fmt.Sprintf("Successfully retrieved %d records", len(records)),
	}, nil
}

// UpdateRecord validates the partial payload and patches the record.
// Required fields are not enforced here; updates may touch any subset.
func (s *Service) UpdateRecord(ctx context.Context, req models.UpdateRecordRequest) (resp *models.UpdateRecordResponse, err error) {
	start := time.Now()
	defer func() { s.track(ctx, "update_record", start, err) }()

	ts, err := s.tableSchema(req.Table)
	if err != nil {
		return nil, err
	}

	fields, err := s.validateFields(req.Table, ts, req.Fields, schema.ModeUpdate)
	if err != nil {
		return nil, err
	}

	record, err := s.repo.UpdateRecord(ctx, req.Table, req.RecordID, fields)
	if err != nil {
		return nil, err
	}

	return &models.UpdateRecordResponse{
		Success:       true,
		RecordID:      record.ID,
		Message:       fmt.Sprintf("Successfully updated record %s", req.RecordID),
		UpdatedFields: fields,
	}, nil
}

// DeleteRecord deletes a record by ID.
func (s *Service) DeleteRecord(ctx context.Context, req models.DeleteRecordRequest) (resp *models.DeleteRecordResponse, err error) {
	start := time.Now()
	defer func() { s.track(ctx, "delete_record", start, err) }()

	if err := s.repo.DeleteRecord(ctx, req.Table, req.RecordID); err != nil {
		return nil, err
	}

	return &models.DeleteRecordResponse{
		Success:         true,
		Message:         fmt.Sprintf("Successfully deleted record %s", req.RecordID),
		DeletedRecordID: req.RecordID,
	}, nil
}

// SearchRecords returns every record whose field exactly equals the value.
func (s *Service) SearchRecords(ctx context.Context, req models.SearchRecordRequest) (resp *models.SearchRecordResponse, err error) {
	start := time.Now()
	defer func() { s.track(ctx, "search_records", start, err) }()

	records, err := s.repo.SearchRecords(ctx, req.Table, req.Field, req.Value)
	if err != nil {
		return nil, err
	}

	return &models.SearchRecordResponse{
		Success:    true,
		Records:    records,
		TotalFound: len(records),
		Message:    fmt.Sprintf("Found %d records matching '%s' = '%s'", len(records), req.Field, req.Value),
	}, nil
}

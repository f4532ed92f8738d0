// internal/service/leads.go
package service

import (
	"context"
	"fmt"
	"time"

	apperrors "airtable-gateway/internal/common/errors"
	"airtable-gateway/internal/models"
	"airtable-gateway/internal/schema"
)

// GetLeadByPhone looks a lead up by its phone number. Phone numbers are
// treated as unique; when several records carry the same number the oldest
// one wins.
func (s *Service) GetLeadByPhone(ctx context.Context, phone string) (resp *models.LeadResponse, err error) {
	start := time.Now()
	defer func() { s.track(ctx, "get_lead_by_phone", start, err) }()

	record, err := s.repo.FindFirstRecord(ctx, models.LeadsTable, models.LeadFieldPhoneNumber, phone)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, apperrors.NewResourceNotFoundError("Lead", fmt.Sprintf("No lead found with phone %s", phone))
	}

	return &models.LeadResponse{Success: true, Lead: record}, nil
}

// CreateLead validates and creates a lead record.
func (s *Service) CreateLead(ctx context.Context, lead models.Lead) (resp *models.CreateLeadResponse, err error) {
	start := time.Now()
	defer func() { s.track(ctx, "create_lead", start, err) }()

	ts, err := s.tableSchema(models.LeadsTable)
	if err != nil {
		return nil, err
	}

	fields, err := s.validateFields(models.LeadsTable, ts, lead.ToFields(), schema.ModeCreate)
	if err != nil {
		return nil, err
	}

	record, err := s.repo.CreateRecord(ctx, models.LeadsTable, fields)
	if err != nil {
		return nil, err
	}

	return &models.CreateLeadResponse{Success: true, Lead: record}, nil
}

// UpdateLeadStatus sets the status field of a lead. The new status must be
// one of the options the leads schema declares.
func (s *Service) UpdateLeadStatus(ctx context.Context, recordID, status string) (resp *models.UpdateLeadResponse, err error) {
	start := time.Now()
	defer func() { s.track(ctx, "update_lead_status", start, err) }()

	ts, err := s.tableSchema(models.LeadsTable)
	if err != nil {
		return nil, err
	}

	fields, err := s.validateFields(models.LeadsTable, ts, map[string]interface{}{
		models.LeadFieldStatus: status,
	}, schema.ModeUpdate)
	if err != nil {
		return nil, err
	}

	record, err := s.repo.UpdateRecord(ctx, models.LeadsTable, recordID, fields)
	if err != nil {
		return nil, err
	}

	return &models.UpdateLeadResponse{Success: true, UpdatedLead: record}, nil
}

// CreateCall validates and creates a call record.
func (s *Service) CreateCall(ctx context.Context, call models.Call) (resp *models.CreateCallResponse, err error) {
	start := time.Now()
	defer func() { s.track(ctx, "create_call", start, err) }()

	ts, err := s.tableSchema(models.CallsTable)
	if err != nil {
		return nil, err
	}

	fields, err := s.validateFields(models.CallsTable, ts, call.ToFields(), schema.ModeCreate)
	if err != nil {
		return nil, err
	}

	record, err := s.repo.CreateRecord(ctx, models.CallsTable, fields)
	if err != nil {
		return nil, err
	}

	return &models.CreateCallResponse{Success: true, Call: record}, nil
}

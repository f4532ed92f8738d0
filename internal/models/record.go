// internal/models/record.go
package models

import "airtable-gateway/internal/common/airtable"

// --- Request Models ---

type CreateRecordRequest struct {
	Table  string                 `json:"table"`
	Fields map[string]interface{} `json:"fields"`
}

type UpdateRecordRequest struct {
	Table    string                 `json:"table"`
	RecordID string                 `json:"record_id"`
	Fields   map[string]interface{} `json:"fields"`
}

type DeleteRecordRequest struct {
	Table    string `json:"table"`
	RecordID string `json:"record_id"`
}

type SearchRecordRequest struct {
	Table string `json:"table"`
	Field string `json:"field"`
	Value string `json:"value"`
}

// --- Response Models ---

type CreateRecordResponse struct {
	Success       bool                   `json:"success"`
	RecordID      string                 `json:"record_id,omitempty"`
	Message       string                 `json:"message"`
	CreatedFields map[string]interface{} `json:"created_fields,omitempty"`
}

type UpdateRecordResponse struct {
	Success       bool                   `json:"success"`
	RecordID      string                 `json:"record_id,omitempty"`
	Message       string                 `json:"message"`
	UpdatedFields map[string]interface{} `json:"updated_fields,omitempty"`
}

type DeleteRecordResponse struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	DeletedRecordID string `json:"deleted_record_id,omitempty"`
}

type GetRecordResponse struct {
	Success  bool             `json:"success"`
	RecordID string           `json:"record_id,omitempty"`
	Record   *airtable.Record `json:"record,omitempty"`
	Message  string           `json:"message"`
}

type GetRecordsResponse struct {
	Success    bool              `json:"success"`
	Records    []airtable.Record `json:"records"`
	TotalCount int               `json:"total_count"`
	Message    string            `json:"message"`
}

type SearchRecordResponse struct {
	Success    bool              `json:"success"`
	Records    []airtable.Record `json:"records"`
	TotalFound int               `json:"total_found"`
	Message    string            `json:"message"`
}

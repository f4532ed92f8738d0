// internal/service/service_test.go
package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"airtable-gateway/internal/common/airtable"
	"airtable-gateway/internal/common/config"
	apperrors "airtable-gateway/internal/common/errors"
	"airtable-gateway/internal/common/logger"
	"airtable-gateway/internal/models"
	"airtable-gateway/internal/repository"
	"airtable-gateway/internal/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helpers
// ==========================

func intp(i int) *int           { return &i }
func floatp(f float64) *float64 { return &f }

func testRegistry(t *testing.T) *schema.Registry {
	t.Helper()

	leads, err := schema.NewTableSchema("leads_table", "tblLeads", []schema.Field{
		{Name: "name", Spec: schema.FieldSpec{Type: schema.FieldTypeSingleLineText, Required: true}},
		{Name: "lead_phone_number", Spec: schema.FieldSpec{Type: schema.FieldTypePhoneNumber, Required: true}},
		{Name: "alcaldia", Spec: schema.FieldSpec{Type: schema.FieldTypeSingleLineText}},
		{Name: "direccion", Spec: schema.FieldSpec{Type: schema.FieldTypeMultilineText}},
		{Name: "referencias", Spec: schema.FieldSpec{Type: schema.FieldTypeMultilineText}},
		{Name: "cuantas_persons", Spec: schema.FieldSpec{Type: schema.FieldTypeNumber, Precision: intp(0)}},
		{Name: "status", Spec: schema.FieldSpec{Type: schema.FieldTypeSingleSelect, Options: []string{"nuevo", "contactado", "cerrado"}}},
		{Name: "num_llamadas", Spec: schema.FieldSpec{Type: schema.FieldTypeNumber, Precision: intp(0)}},
		{Name: "contactado", Spec: schema.FieldSpec{Type: schema.FieldTypeSingleLineText}},
		{Name: "monto", Spec: schema.FieldSpec{Type: schema.FieldTypeNumber, Precision: intp(2)}},
	})
	require.NoError(t, err)

	calls, err := schema.NewTableSchema("calls_table", "tblCalls", []schema.Field{
		{Name: "call_id", Spec: schema.FieldSpec{Type: schema.FieldTypeSingleLineText, Required: true}},
		{Name: "lead_name", Spec: schema.FieldSpec{Type: schema.FieldTypeSingleLineText}},
		{Name: "lead_phone_number", Spec: schema.FieldSpec{Type: schema.FieldTypePhoneNumber, Required: true}},
		{Name: "call_type", Spec: schema.FieldSpec{Type: schema.FieldTypeSingleSelect, Options: []string{"entrada", "salida"}}},
		{Name: "transcript", Spec: schema.FieldSpec{Type: schema.FieldTypeMultilineText}},
		{Name: "call_datetime", Spec: schema.FieldSpec{Type: schema.FieldTypeDateTime}},
	})
	require.NoError(t, err)

	reg, err := schema.NewRegistry(leads, calls)
	require.NoError(t, err)
	return reg
}

func newTestService(t *testing.T, serverURL string) *Service {
	t.Helper()

	client := airtable.NewClient(config.AirtableConfig{
		APIKey:  "patTestKey",
		BaseID:  "appTestBase",
		BaseURL: serverURL,
		Timeout: 5000,
	})
	repo := repository.New(client, testRegistry(t), nil, 0, logger.NewTestLogger(t))
	return New(repo, schema.NewValidator(schema.PrecisionRound), nil, logger.NewTestLogger(t))
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, body interface{}) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(body))
}

func recordBody(id string, fields map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"id":          id,
		"createdTime": "2025-06-07T19:49:00.000Z",
		"fields":      fields,
	}
}

func requireValidationError(t *testing.T, err error) *apperrors.StandardError {
	t.Helper()
	require.Error(t, err)
	stdErr, ok := err.(*apperrors.StandardError)
	require.True(t, ok)
	require.Equal(t, apperrors.ErrCodeValidation, stdErr.Code)
	return stdErr
}

func fieldErrorCodes(t *testing.T, stdErr *apperrors.StandardError) []string {
	t.Helper()
	fieldErrs, ok := stdErr.Metadata["validation_errors"].([]schema.FieldError)
	require.True(t, ok, "validation errors must ride along in metadata")
	codes := make([]string, len(fieldErrs))
	for i, fe := range fieldErrs {
		codes[i] = fe.Code
	}
	return codes
}

// ==========================
// Record CRUD
// ==========================

func TestService_CreateRecord_ValidatesAndForwards(t *testing.T) {
	var forwarded map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Fields map[string]interface{} `json:"fields"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		forwarded = body.Fields
		writeJSON(t, w, http.StatusOK, recordBody("recNew1", body.Fields))
	}))
	defer server.Close()

	svc := newTestService(t, server.URL)

	resp, err := svc.CreateRecord(context.Background(), models.CreateRecordRequest{
		Table: "leads_table",
		Fields: map[string]interface{}{
			"name":              "Ana",
			"lead_phone_number": "+5215512345678",
			"monto":             99.999,
		},
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "recNew1", resp.RecordID)
	assert.Equal(t, "Successfully created record recNew1", resp.Message)

	// The upstream sees the validated payload, with numbers rounded to
	// their declared precision
	assert.Equal(t, 100.0, forwarded["monto"])
	assert.Equal(t, 100.0, resp.CreatedFields["monto"])
}

func TestService_CreateRecord_ValidationFailure(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer server.Close()

	svc := newTestService(t, server.URL)

	_, err := svc.CreateRecord(context.Background(), models.CreateRecordRequest{
		Table: "leads_table",
		Fields: map[string]interface{}{
			"name":   "Ana",
			"status": "spam",
		},
	})
	stdErr := requireValidationError(t, err)
	assert.Equal(t, "Field validation failed", stdErr.Message)

	codes := fieldErrorCodes(t, stdErr)
	assert.Contains(t, codes, schema.CodeMissingRequiredField)
	assert.Contains(t, codes, schema.CodeInvalidOption)

	// Invalid payloads never reach the upstream
	assert.Equal(t, int32(0), hits.Load())
}

func TestService_CreateRecord_UnknownTable(t *testing.T) {
	svc := newTestService(t, "http://127.0.0.1:1")

	_, err := svc.CreateRecord(context.Background(), models.CreateRecordRequest{
		Table:  "missing_table",
		Fields: map[string]interface{}{"name": "Ana"},
	})
	stdErr := requireValidationError(t, err)
	assert.Contains(t, stdErr.Message, "Unknown table: missing_table")
	assert.Contains(t, stdErr.Details, "leads_table")
}

func TestService_GetRecord(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, recordBody("recLead1", map[string]interface{}{"name": "Ana"}))
	}))
	defer server.Close()

	svc := newTestService(t, server.URL)

	resp, err := svc.GetRecord(context.Background(), "leads_table", "recLead1")
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "recLead1", resp.RecordID)
	assert.Equal(t, "Successfully retrieved record recLead1", resp.Message)
	require.NotNil(t, resp.Record)
	assert.Equal(t, "Ana", resp.Record.Fields["name"])
}

func TestService_GetAllRecords(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]interface{}{
			"records": []interface{}{
				recordBody("rec1", map[string]interface{}{"name": "Ana"}),
				recordBody("rec2", map[string]interface{}{"name": "Luis"}),
			},
		})
	}))
	defer server.Close()

	svc := newTestService(t, server.URL)

	resp, err := svc.GetAllRecords(context.Background(), "leads_table")
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, 2, resp.TotalCount)
	assert.Equal(t, "Successfully retrieved 2 records", resp.Message)
}

func TestService_UpdateRecord_AllowsPartialPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		writeJSON(t, w, http.StatusOK, recordBody("recLead1", map[string]interface{}{"status": "contactado"}))
	}))
	defer server.Close()

	svc := newTestService(t, server.URL)

	resp, err := svc.UpdateRecord(context.Background(), models.UpdateRecordRequest{
		Table:    "leads_table",
		RecordID: "recLead1",
		Fields:   map[string]interface{}{"status": "contactado"},
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "Successfully updated record recLead1", resp.Message)
	assert.Equal(t, "contactado", resp.UpdatedFields["status"])
}

func TestService_UpdateRecord_RejectsUnknownField(t *testing.T) {
	svc := newTestService(t, "http://127.0.0.1:1")

	_, err := svc.UpdateRecord(context.Background(), models.UpdateRecordRequest{
		Table:    "leads_table",
		RecordID: "recLead1",
		Fields:   map[string]interface{}{"nombre": "Ana"},
	})
	stdErr := requireValidationError(t, err)
	codes := fieldErrorCodes(t, stdErr)
	assert.Equal(t, []string{schema.CodeUnknownField}, codes)
}

func TestService_DeleteRecord(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		writeJSON(t, w, http.StatusOK, map[string]interface{}{"deleted": true, "id": "recLead1"})
	}))
	defer server.Close()

	svc := newTestService(t, server.URL)

	resp, err := svc.DeleteRecord(context.Background(), models.DeleteRecordRequest{
		Table:    "leads_table",
		RecordID: "recLead1",
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "Successfully deleted record recLead1", resp.Message)
	assert.Equal(t, "recLead1", resp.DeletedRecordID)
}

func TestService_SearchRecords(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]interface{}{
			"records": []interface{}{
				recordBody("rec1", map[string]interface{}{"status": "nuevo"}),
				recordBody("rec2", map[string]interface{}{"status": "cerrado"}),
			},
		})
	}))
	defer server.Close()

	svc := newTestService(t, server.URL)

	resp, err := svc.SearchRecords(context.Background(), models.SearchRecordRequest{
		Table: "leads_table",
		Field: "status",
		Value: "nuevo",
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.TotalFound)
	assert.Equal(t, "Found 1 records matching 'status' = 'nuevo'", resp.Message)
	require.Len(t, resp.Records, 1)
	assert.Equal(t, "rec1", resp.Records[0].ID)
}

// ==========================
// Lead Operations
// ==========================

func TestService_GetLeadByPhone(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]interface{}{
			"records": []interface{}{
				recordBody("recLead1", map[string]interface{}{"lead_phone_number": "+5215512345678", "name": "Ana"}),
			},
		})
	}))
	defer server.Close()

	svc := newTestService(t, server.URL)

	resp, err := svc.GetLeadByPhone(context.Background(), "+5215512345678")
	require.NoError(t, err)
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Lead)
	assert.Equal(t, "recLead1", resp.Lead.ID)
}

func TestService_GetLeadByPhone_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]interface{}{"records": []interface{}{}})
	}))
	defer server.Close()

	svc := newTestService(t, server.URL)

	_, err := svc.GetLeadByPhone(context.Background(), "+0000000000")
	require.Error(t, err)

	stdErr, ok := err.(*apperrors.StandardError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeNotFound, stdErr.Code)
	assert.Contains(t, stdErr.Message, "Lead not found")
	assert.Contains(t, stdErr.Details, "No lead found with phone +0000000000")
}

func TestService_CreateLead(t *testing.T) {
	var forwarded map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/appTestBase/tblLeads", r.URL.Path)
		var body struct {
			Fields map[string]interface{} `json:"fields"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		forwarded = body.Fields
		writeJSON(t, w, http.StatusOK, recordBody("recNewLead", body.Fields))
	}))
	defer server.Close()

	svc := newTestService(t, server.URL)

	resp, err := svc.CreateLead(context.Background(), models.Lead{
		Name:            "Ana",
		LeadPhoneNumber: "+5215512345678",
		Status:          "nuevo",
		Monto:           floatp(99.999),
		NumLlamadas:     intp(2),
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Lead)
	assert.Equal(t, "recNewLead", resp.Lead.ID)
	assert.Equal(t, 100.0, forwarded["monto"])
	assert.Equal(t, 2.0, forwarded["num_llamadas"])
}

func TestService_CreateLead_MissingPhone(t *testing.T) {
	svc := newTestService(t, "http://127.0.0.1:1")

	_, err := svc.CreateLead(context.Background(), models.Lead{Name: "Ana"})
	stdErr := requireValidationError(t, err)
	codes := fieldErrorCodes(t, stdErr)
	assert.Contains(t, codes, schema.CodeMissingRequiredField)
}

func TestService_UpdateLeadStatus(t *testing.T) {
	var forwarded map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Fields map[string]interface{} `json:"fields"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		forwarded = body.Fields
		writeJSON(t, w, http.StatusOK, recordBody("recLead1", body.Fields))
	}))
	defer server.Close()

	svc := newTestService(t, server.URL)

	resp, err := svc.UpdateLeadStatus(context.Background(), "recLead1", "contactado")
	require.NoError(t, err)
	assert.True(t, resp.Success)
	require.NotNil(t, resp.UpdatedLead)
	assert.Equal(t, map[string]interface{}{"status": "contactado"}, forwarded)
}

func TestService_UpdateLeadStatus_InvalidOption(t *testing.T) {
	svc := newTestService(t, "http://127.0.0.1:1")

	_, err := svc.UpdateLeadStatus(context.Background(), "recLead1", "spam")
	stdErr := requireValidationError(t, err)
	codes := fieldErrorCodes(t, stdErr)
	assert.Equal(t, []string{schema.CodeInvalidOption}, codes)
}

func TestService_CreateCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/appTestBase/tblCalls", r.URL.Path)
		var body struct {
			Fields map[string]interface{} `json:"fields"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		writeJSON(t, w, http.StatusOK, recordBody("recCall1", body.Fields))
	}))
	defer server.Close()

	svc := newTestService(t, server.URL)

	resp, err := svc.CreateCall(context.Background(), models.Call{
		CallID:          "call-001",
		LeadPhoneNumber: "+5215512345678",
		CallType:        "entrada",
		CallDatetime:    "2025-06-07T19:49:00",
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Call)
	assert.Equal(t, "recCall1", resp.Call.ID)
}

func TestService_CreateCall_InvalidType(t *testing.T) {
	svc := newTestService(t, "http://127.0.0.1:1")

	_, err := svc.CreateCall(context.Background(), models.Call{
		CallID:          "call-001",
		LeadPhoneNumber: "+5215512345678",
		CallType:        "videollamada",
	})
	stdErr := requireValidationError(t, err)
	codes := fieldErrorCodes(t, stdErr)
	assert.Equal(t, []string{schema.CodeInvalidOption}, codes)
}

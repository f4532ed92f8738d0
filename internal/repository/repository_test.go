// internal/repository/repository_test.go
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"airtable-gateway/internal/common/airtable"
	"airtable-gateway/internal/common/config"
	apperrors "airtable-gateway/internal/common/errors"
	"airtable-gateway/internal/common/logger"
	"airtable-gateway/internal/schema"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helpers
// ==========================

func testRegistry(t *testing.T) *schema.Registry {
	t.Helper()

	leads, err := schema.NewTableSchema("leads_table", "tblLeads", []schema.Field{
		{Name: "name", Spec: schema.FieldSpec{Type: schema.FieldTypeSingleLineText, Required: true}},
		{Name: "lead_phone_number", Spec: schema.FieldSpec{Type: schema.FieldTypePhoneNumber, Required: true}},
		{Name: "status", Spec: schema.FieldSpec{Type: schema.FieldTypeSingleSelect, Options: []string{"nuevo", "contactado", "cerrado"}}},
		{Name: "num_llamadas", Spec: schema.FieldSpec{Type: schema.FieldTypeNumber}},
	})
	require.NoError(t, err)

	calls, err := schema.NewTableSchema("calls_table", "tblCalls", []schema.Field{
		{Name: "call_id", Spec: schema.FieldSpec{Type: schema.FieldTypeSingleLineText, Required: true}},
		{Name: "lead_phone_number", Spec: schema.FieldSpec{Type: schema.FieldTypePhoneNumber, Required: true}},
	})
	require.NoError(t, err)

	reg, err := schema.NewRegistry(leads, calls)
	require.NoError(t, err)
	return reg
}

func newTestRepository(t *testing.T, serverURL string, cache *redis.Client, ttl time.Duration) *Repository {
	t.Helper()

	client := airtable.NewClient(config.AirtableConfig{
		APIKey:  "patTestKey",
		BaseID:  "appTestBase",
		BaseURL: serverURL,
		Timeout: 5000,
	})
	return New(client, testRegistry(t), cache, ttl, logger.NewTestLogger(t))
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

// ==========================
// Table Resolution
// ==========================

func TestRepository_UnknownTable(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer server.Close()

	repo := newTestRepository(t, server.URL, nil, 0)

	_, err := repo.CreateRecord(context.Background(), "missing_table", map[string]interface{}{"name": "Ana"})
	require.Error(t, err)

	stdErr, ok := err.(*apperrors.StandardError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeValidation, stdErr.Code)
	assert.Contains(t, stdErr.Message, "Unknown table: missing_table")
	assert.Contains(t, stdErr.Details, "calls_table")
	assert.Contains(t, stdErr.Details, "leads_table")

	// The request never reaches the upstream
	assert.Equal(t, int32(0), hits.Load())
}

// ==========================
// Record Operations
// ==========================

func TestRepository_CreateRecord(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/appTestBase/tblLeads", r.URL.Path)
		writeJSON(t, w, http.StatusOK, recordBody("recNew1", map[string]interface{}{"name": "Ana"}))
	}))
	defer server.Close()

	repo := newTestRepository(t, server.URL, nil, 0)

	record, err := repo.CreateRecord(context.Background(), "leads_table", map[string]interface{}{"name": "Ana"})
	require.NoError(t, err)
	assert.Equal(t, "recNew1", record.ID)
	assert.Equal(t, "Ana", record.Fields["name"])
}

func TestRepository_GetAllRecords(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/appTestBase/tblCalls", r.URL.Path)
		writeJSON(t, w, http.StatusOK, map[string]interface{}{
			"records": []interface{}{
				recordBody("recC1", map[string]interface{}{"call_id": "call-1"}),
				recordBody("recC2", map[string]interface{}{"call_id": "call-2"}),
			},
		})
	}))
	defer server.Close()

	repo := newTestRepository(t, server.URL, nil, 0)

	records, err := repo.GetAllRecords(context.Background(), "calls_table")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "recC1", records[0].ID)
}

// ==========================
// Caching
// ==========================

func TestRepository_GetRecord_CachesResult(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		writeJSON(t, w, http.StatusOK, recordBody("recLead1", map[string]interface{}{"name": "Ana", "status": "nuevo"}))
	}))
	defer server.Close()

	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	ttl := 5 * time.Minute

	repo := newTestRepository(t, server.URL, cache, ttl)
	ctx := context.Background()

	first, err := repo.GetRecord(ctx, "leads_table", "recLead1")
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())

	// The entry lands in redis with the configured TTL
	key := "record:leads_table:recLead1"
	require.True(t, mr.Exists(key))
	assert.Equal(t, ttl, mr.TTL(key))

	second, err := repo.GetRecord(ctx, "leads_table", "recLead1")
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load(), "second read must be served from cache")
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Fields["name"], second.Fields["name"])
}

func TestRepository_UpdateRecord_InvalidatesCache(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			hits.Add(1)
		}
		writeJSON(t, w, http.StatusOK, recordBody("recLead1", map[string]interface{}{"status": "contactado"}))
	}))
	defer server.Close()

	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	repo := newTestRepository(t, server.URL, cache, 5*time.Minute)
	ctx := context.Background()

	_, err := repo.GetRecord(ctx, "leads_table", "recLead1")
	require.NoError(t, err)
	key := "record:leads_table:recLead1"
	require.True(t, mr.Exists(key))

	_, err = repo.UpdateRecord(ctx, "leads_table", "recLead1", map[string]interface{}{"status": "contactado"})
	require.NoError(t, err)
	assert.False(t, mr.Exists(key), "update must drop the cached record")

	_, err = repo.GetRecord(ctx, "leads_table", "recLead1")
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load(), "read after invalidation goes back upstream")
}

func TestRepository_DeleteRecord_InvalidatesCache(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			writeJSON(t, w, http.StatusOK, map[string]interface{}{"deleted": true, "id": "recLead1"})
			return
		}
		writeJSON(t, w, http.StatusOK, recordBody("recLead1", map[string]interface{}{"name": "Ana"}))
	}))
	defer server.Close()

	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	repo := newTestRepository(t, server.URL, cache, 5*time.Minute)
	ctx := context.Background()

	_, err := repo.GetRecord(ctx, "leads_table", "recLead1")
	require.NoError(t, err)
	key := "record:leads_table:recLead1"
	require.True(t, mr.Exists(key))

	require.NoError(t, repo.DeleteRecord(ctx, "leads_table", "recLead1"))
	assert.False(t, mr.Exists(key))
}

func TestRepository_CacheUnavailable_FallsBackToUpstream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, recordBody("recLead1", map[string]interface{}{"name": "Ana"}))
	}))
	defer server.Close()

	cache, mock := redismock.NewClientMock()
	key := "record:leads_table:recLead1"
	mock.ExpectGet(key).SetErr(fmt.Errorf("connection refused"))
	mock.Regexp().ExpectSet(key, `.*`, 5*time.Minute).SetErr(fmt.Errorf("connection refused"))

	repo := newTestRepository(t, server.URL, cache, 5*time.Minute)

	record, err := repo.GetRecord(context.Background(), "leads_table", "recLead1")
	require.NoError(t, err, "a broken cache must not fail the read")
	assert.Equal(t, "recLead1", record.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Search
// ==========================

func TestRepository_SearchRecords_ExactMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]interface{}{
			"records": []interface{}{
				recordBody("rec1", map[string]interface{}{"name": "Ana", "status": "nuevo", "num_llamadas": 30}),
				recordBody("rec2", map[string]interface{}{"name": "Luis", "status": "contactado"}),
				recordBody("rec3", map[string]interface{}{"name": "Marta", "status": "nuevo"}),
				recordBody("rec4", map[string]interface{}{"name": "Pedro"}),
			},
		})
	}))
	defer server.Close()

	repo := newTestRepository(t, server.URL, nil, 0)
	ctx := context.Background()

	matches, err := repo.SearchRecords(ctx, "leads_table", "status", "nuevo")
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "rec1", matches[0].ID)
	assert.Equal(t, "rec3", matches[1].ID)

	// Numeric fields never match their string rendering
	matches, err = repo.SearchRecords(ctx, "leads_table", "num_llamadas", "30")
	require.NoError(t, err)
	assert.Empty(t, matches)

	// Records without the field are skipped, not matched against ""
	matches, err = repo.SearchRecords(ctx, "leads_table", "status", "")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestRepository_FindFirstRecord(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]interface{}{
			"records": []interface{}{
				recordBody("rec1", map[string]interface{}{"lead_phone_number": "+5215512345678"}),
				recordBody("rec2", map[string]interface{}{"lead_phone_number": "+5215512345678"}),
			},
		})
	}))
	defer server.Close()

	repo := newTestRepository(t, server.URL, nil, 0)
	ctx := context.Background()

	record, err := repo.FindFirstRecord(ctx, "leads_table", "lead_phone_number", "+5215512345678")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "rec1", record.ID)

	record, err = repo.FindFirstRecord(ctx, "leads_table", "lead_phone_number", "+0000000000")
	require.NoError(t, err)
	assert.Nil(t, record)
}

// ==========================
// Error Mapping
// ==========================

func TestRepository_ErrorMapping(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantCode  apperrors.ErrorCode
		retryable bool
	}{
		{"not found", http.StatusNotFound, apperrors.ErrCodeNotFound, false},
		{"rate limited", http.StatusTooManyRequests, apperrors.ErrCodeRateLimit, true},
		{"unauthorized", http.StatusUnauthorized, apperrors.ErrCodeAuthentication, false},
		{"forbidden", http.StatusForbidden, apperrors.ErrCodeAuthentication, false},
		{"upstream failure", http.StatusInternalServerError, apperrors.ErrCodeExternalService, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeJSON(t, w, tt.status, map[string]interface{}{"error": "boom"})
			}))
			defer server.Close()

			repo := newTestRepository(t, server.URL, nil, 0)

			_, err := repo.GetRecord(context.Background(), "leads_table", "recMissing")
			require.Error(t, err)

			stdErr, ok := err.(*apperrors.StandardError)
			require.True(t, ok)
			assert.Equal(t, tt.wantCode, stdErr.Code)
			assert.Equal(t, tt.retryable, stdErr.Retryable)
		})
	}
}

func TestRepository_ErrorMapping_NotFoundNamesRecord(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusNotFound, map[string]interface{}{"error": "NOT_FOUND"})
	}))
	defer server.Close()

	repo := newTestRepository(t, server.URL, nil, 0)

	_, err := repo.GetRecord(context.Background(), "leads_table", "recGone")
	require.Error(t, err)

	stdErr, ok := err.(*apperrors.StandardError)
	require.True(t, ok)
	assert.Contains(t, stdErr.Message, "Record not found")
	assert.Contains(t, stdErr.Details, "recGone")
	assert.Contains(t, stdErr.Details, "leads_table")
}

func TestRepository_ErrorMapping_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		writeJSON(t, w, http.StatusOK, recordBody("rec1", nil))
	}))
	defer server.Close()

	client := airtable.NewClient(config.AirtableConfig{
		APIKey:  "patTestKey",
		BaseID:  "appTestBase",
		BaseURL: server.URL,
		Timeout: 50,
	})
	repo := New(client, testRegistry(t), nil, 0, logger.NewTestLogger(t))

	_, err := repo.GetRecord(context.Background(), "leads_table", "recSlow")
	require.Error(t, err)

	stdErr, ok := err.(*apperrors.StandardError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeTimeout, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}

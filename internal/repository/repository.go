// internal/repository/repository.go
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"airtable-gateway/internal/common/airtable"
	apperrors "airtable-gateway/internal/common/errors"
	"airtable-gateway/internal/common/logger"
	"airtable-gateway/internal/common/metrics"
	"airtable-gateway/internal/schema"

	"github.com/redis/go-redis/v9"

	goerrors "errors"
)

// Repository is the data access layer. It resolves logical table names
// through the schema registry, forwards record operations to the Airtable
// client, and serves single-record reads through an optional Redis cache.
type Repository struct {
	client   *airtable.Client
	registry *schema.Registry
	cache    *redis.Client
	cacheTTL time.Duration
	logger   logger.Logger
}

// New creates a Repository. Passing a nil redis client disables caching.
func New(client *airtable.Client, registry *schema.Registry, cache *redis.Client, cacheTTL time.Duration, log logger.Logger) *Repository {
	return &Repository{
		client:   client,
		registry: registry,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   log,
	}
}

// Registry exposes the schema registry backing this repository.
func (r *Repository) Registry() *schema.Registry {
	return r.registry
}

// resolveTable maps a logical table name to its Airtable table ID.
func (r *Repository) resolveTable(table string) (string, error) {
	tableID, ok := r.registry.TableID(table)
	if !ok {
		return "", apperrors.NewUnknownTableError(table, r.registry.Tables())
	}
	return tableID, nil
}

// CreateRecord creates a record in the given logical table.
func (r *Repository) CreateRecord(ctx context.Context, table string, fields map[string]interface{}) (*airtable.Record, error) {
	tableID, err := r.resolveTable(table)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	record, err := r.client.CreateRecord(ctx, tableID, fields)
	r.observe("create_record", start, err)
	if err != nil {
		return nil, r.mapClientError(err, table, "")
	}

	r.logger.Info("Record created", map[string]interface{}{
		"table":    table,
		"recordId": record.ID,
	})

	return record, nil
}

// GetRecord fetches a record, serving from cache when possible.
func (r *Repository) GetRecord(ctx context.Context, table, recordID string) (*airtable.Record, error) {
	tableID, err := r.resolveTable(table)
	if err != nil {
		return nil, err
	}

	cacheKey := recordCacheKey(table, recordID)

	if r.cache != nil {
		cached, err := r.cache.Get(ctx, cacheKey).Result()
		if err == nil {
			var record airtable.Record
			if err := json.Unmarshal([]byte(cached), &record); err == nil {
				metrics.RecordCacheHits.WithLabelValues(table).Inc()
				return &record, nil
			}
			// A corrupt entry falls through to a refetch
			_ = r.cache.Del(ctx, cacheKey).Err()
		} else if err != redis.Nil {
			r.logger.Warn("Record cache read failed", map[string]interface{}{
				"table": table,
				"key":   cacheKey,
				"error": err.Error(),
			})
		}
		metrics.RecordCacheMisses.WithLabelValues(table).Inc()
	}

	start := time.Now()
	record, err := r.client.GetRecord(ctx, tableID, recordID)
	r.observe("get_record", start, err)
	if err != nil {
		return nil, r.mapClientError(err, table, recordID)
	}

	if r.cache != nil {
		if data, err := json.Marshal(record); err == nil {
			if err := r.cache.Set(ctx, cacheKey, data, r.cacheTTL).Err(); err != nil {
				r.logger.Warn("Record cache write failed", map[string]interface{}{
					"table": table,
					"key":   cacheKey,
					"error": err.Error(),
				})
			}
		}
	}

	return record, nil
}

// GetAllRecords fetches every record of the given logical table.
func (r *Repository) GetAllRecords(ctx context.Context, table string) ([]airtable.Record, error) {
	tableID, err := r.resolveTable(table)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	records, err := r.client.ListRecords(ctx, tableID)
	r.observe("get_all_records", start, err)
	if err != nil {
		return nil, r.mapClientError(err, table, "")
	}

	return records, nil
}

// UpdateRecord patches fields on a record and invalidates its cache entry.
func (r *Repository) UpdateRecord(ctx context.Context, table, recordID string, fields map[string]interface{}) (*airtable.Record, error) {
	tableID, err := r.resolveTable(table)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	record, err := r.client.UpdateRecord(ctx, tableID, recordID, fields)
	r.observe("update_record", start, err)
	if err != nil {
		return nil, r.mapClientError(err, table, recordID)
	}

	r.invalidate(ctx, table, recordID)

	return record, nil
}

// DeleteRecord deletes a record and invalidates its cache entry.
func (r *Repository) DeleteRecord(ctx context.Context, table, recordID string) error {
	tableID, err := r.resolveTable(table)
	if err != nil {
		return err
	}

	start := time.Now()
	err = r.client.DeleteRecord(ctx, tableID, recordID)
	r.observe("delete_record", start, err)
	if err != nil {
		return r.mapClientError(err, table, recordID)
	}

	r.invalidate(ctx, table, recordID)

	r.logger.Info("Record deleted", map[string]interface{}{
		"table":    table,
		"recordId": recordID,
	})

	return nil
}

// SearchRecords fetches all records of the table and filters them by exact
// field value. Airtable formula queries are deliberately avoided; the filter
// runs client side the way the upstream data is small enough to allow.
func (r *Repository) SearchRecords(ctx context.Context, table, field, value string) ([]airtable.Record, error) {
	records, err := r.GetAllRecords(ctx, table)
	if err != nil {
		return nil, err
	}

	matches := []airtable.Record{}
	for _, record := range records {
		if fieldEquals(record, field, value) {
			matches = append(matches, record)
		}
	}

	return matches, nil
}

// FindFirstRecord returns the first record matching the field value, or nil
// when nothing matches.
func (r *Repository) FindFirstRecord(ctx context.Context, table, field, value string) (*airtable.Record, error) {
	matches, err := r.SearchRecords(ctx, table, field, value)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	return &matches[0], nil
}

// fieldEquals compares a record field against the search value. Only string
// fields can match; numeric fields never equal their string rendering.
func fieldEquals(record airtable.Record, field, value string) bool {
	v, ok := record.Fields[field]
	if !ok {
		return false
	}
	s, ok := v.(string)
	return ok && s == value
}

func recordCacheKey(table, recordID string) string {
	return fmt.Sprintf("record:%s:%s", table, recordID)
}

// invalidate drops the cache entry for a record after a write.
func (r *Repository) invalidate(ctx context.Context, table, recordID string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Del(ctx, recordCacheKey(table, recordID)).Err(); err != nil {
		r.logger.Warn("Record cache invalidation failed", map[string]interface{}{
			"table":    table,
			"recordId": recordID,
			"error":    err.Error(),
		})
	}
}

// observe records the Prometheus counters for one upstream call.
func (r *Repository) observe(operation string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.AirtableRequestsTotal.WithLabelValues(operation, status).Inc()
	metrics.AirtableRequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// mapClientError converts transport-level failures into StandardErrors.
func (r *Repository) mapClientError(err error, table, recordID string) error {
	switch {
	case goerrors.Is(err, airtable.ErrRecordNotFound):
		details := fmt.Sprintf("table '%s'", table)
		if recordID != "" {
			details = fmt.Sprintf("%s in table '%s'", recordID, table)
		}
		return apperrors.NewResourceNotFoundError("Record", details)
	case goerrors.Is(err, airtable.ErrRateLimited):
		return apperrors.NewRateLimitError("Airtable", err.Error())
	case goerrors.Is(err, airtable.ErrUnauthorized):
		return apperrors.NewAuthenticationError(err.Error())
	}

	if goerrors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewTimeoutError("Airtable", err)
	}
	var netErr net.Error
	if goerrors.As(err, &netErr) && netErr.Timeout() {
		return apperrors.NewTimeoutError("Airtable", err)
	}

	return apperrors.NewExternalServiceError("Airtable", err)
}

// internal/service/service.go
package service

import (
	"context"
	"fmt"
	"time"

	apperrors "airtable-gateway/internal/common/errors"
	"airtable-gateway/internal/common/logger"
	"airtable-gateway/internal/common/metrics"
	"airtable-gateway/internal/common/observability"
	"airtable-gateway/internal/repository"
	"airtable-gateway/internal/schema"
)

// Service is the business logic layer. It validates payloads against the
// schema registry before anything leaves the process, and forwards the
// validated fields to the repository.
type Service struct {
	repo      *repository.Repository
	validator *schema.Validator
	obs       *observability.Observability
	logger    logger.Logger
}

// New creates a Service. obs may be nil when telemetry is not wired up.
func New(repo *repository.Repository, validator *schema.Validator, obs *observability.Observability, log logger.Logger) *Service {
	return &Service{
		repo:      repo,
		validator: validator,
		obs:       obs,
		logger:    log,
	}
}

// tableSchema looks up the schema for a logical table name.
func (s *Service) tableSchema(table string) (*schema.TableSchema, error) {
	ts, ok := s.repo.Registry().Get(table)
	if !ok {
		return nil, apperrors.NewUnknownTableError(table, s.repo.Registry().Tables())
	}
	return ts, nil
}

// validateFields runs schema validation and converts failures into the
// error envelope handlers return. The validated payload comes back with
// numbers already rounded to their declared precision.
func (s *Service) validateFields(table string, ts *schema.TableSchema, fields map[string]interface{}, mode schema.Mode) (map[string]interface{}, error) {
	result := s.validator.ValidateJSON(ts, fields, mode)
	if !result.Valid {
		for _, fieldErr := range result.Errors {
			metrics.ValidationFailures.WithLabelValues(table, fieldErr.Code).Inc()
		}
		s.logger.Warn("Field validation failed", map[string]interface{}{
			"table":  table,
			"mode":   mode.String(),
			"errors": result.GetErrorMessages(),
		})
		details := fmt.Sprintf("%d validation error(s) for table '%s'", len(result.Errors), table)
		return nil, apperrors.NewValidationError("Field validation failed", details).
			WithMetadata("validation_errors", result.Errors)
	}
	return result.Payload.Fields(), nil
}

// track emits the operation counter and duration for one business call.
func (s *Service) track(ctx context.Context, operation string, start time.Time, err error) {
	if s.obs == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	s.obs.RecordOperation(ctx, operation, status)
	s.obs.RecordOperationDuration(ctx, operation, time.Since(start), status)
}

// internal/models/health.go
package models

import "airtable-gateway/internal/schema"

// HealthResponse is returned by the root and health endpoints.
type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
}

// ReadyResponse reports per-dependency readiness.
type ReadyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// SchemasResponse describes every table the registry knows about.
type SchemasResponse struct {
	Success         bool                        `json:"success"`
	AvailableTables []string                    `json:"available_tables"`
	Schemas         map[string]schema.TableInfo `json:"schemas"`
	TotalTables     int                         `json:"total_tables"`
}

// ConfigResponse exposes the sanitized application configuration.
type ConfigResponse struct {
	Success bool                   `json:"success"`
	Config  map[string]interface{} `json:"config"`
	Message string                 `json:"message"`
}

// internal/common/config/config.go
package config

import "strings"

// Config is the main application configuration struct.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	Airtable   AirtableConfig   `mapstructure:"airtable"`
	Schemas    SchemasConfig    `mapstructure:"schemas"`
	Validation ValidationConfig `mapstructure:"validation"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int    `mapstructure:"write_timeout"`    // milliseconds
	IdleTimeout     int    `mapstructure:"idle_timeout"`     // milliseconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
}

// AirtableConfig holds credentials and connection settings for the Airtable API.
type AirtableConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseID  string `mapstructure:"base_id"`
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

// SchemasConfig points at the directory of extracted table schema documents.
type SchemasConfig struct {
	Dir string `mapstructure:"dir"`
}

// ValidationConfig controls payload validation behavior.
type ValidationConfig struct {
	// PrecisionPolicy is "round" or "reject" for number fields that carry
	// more decimal places than their schema precision.
	PrecisionPolicy string `mapstructure:"precision_policy"`
}

// CacheConfig holds settings for the record read cache.
type CacheConfig struct {
	Enabled bool        `mapstructure:"enabled"`
	TTL     int         `mapstructure:"ttl"` // milliseconds
	Redis   RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// Sanitized returns the configuration as a map safe to expose over the API,
// with credentials masked.
func (c *Config) Sanitized() map[string]interface{} {
	return map[string]interface{}{
		"app": map[string]interface{}{
			"name":        c.App.Name,
			"version":     c.App.Version,
			"environment": c.App.Environment,
		},
		"server": map[string]interface{}{
			"host": c.Server.Host,
			"port": c.Server.Port,
		},
		"airtable": map[string]interface{}{
			"api_key_configured": c.Airtable.APIKey != "",
			"base_id":            maskIdentifier(c.Airtable.BaseID),
			"base_url":           c.Airtable.BaseURL,
			"timeout_ms":         c.Airtable.Timeout,
		},
		"schemas": map[string]interface{}{
			"dir": c.Schemas.Dir,
		},
		"validation": map[string]interface{}{
			"precision_policy": c.Validation.PrecisionPolicy,
		},
		"cache": map[string]interface{}{
			"enabled": c.Cache.Enabled,
			"ttl_ms":  c.Cache.TTL,
		},
		"logging": map[string]interface{}{
			"level":  c.Logging.Level,
			"format": c.Logging.Format,
		},
	}
}

// maskIdentifier keeps the first four characters and masks the rest.
func maskIdentifier(id string) string {
	if len(id) <= 4 {
		return id
	}
	return id[:4] + strings.Repeat("*", len(id)-4)
}

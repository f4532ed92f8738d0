package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"airtable-gateway/internal/common/config"
	httpclient "airtable-gateway/internal/common/http"
)

var (
	// ErrRecordNotFound indicates the record or table does not exist upstream.
	ErrRecordNotFound = errors.New("record not found")
	// ErrRateLimited indicates Airtable returned 429.
	ErrRateLimited = errors.New("rate limited by airtable")
	// ErrUnauthorized indicates the API key was rejected.
	ErrUnauthorized = errors.New("airtable rejected credentials")
)

// Client is a thin wrapper over the Airtable REST API for a single base.
type Client struct {
	apiKey     string
	baseID     string
	baseURL    string
	httpClient *httpclient.Client
}

// Record is an Airtable record as it appears on the wire.
type Record struct {
	ID          string                 `json:"id,omitempty"`
	CreatedTime string                 `json:"createdTime,omitempty"`
	Fields      map[string]interface{} `json:"fields"`
}

type recordList struct {
	Records []Record `json:"records"`
	Offset  string   `json:"offset,omitempty"`
}

// MetaTable describes one table from the base schema metadata endpoint.
type MetaTable struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Fields      []MetaField `json:"fields"`
}

// MetaField describes one field from the base schema metadata endpoint. The
// options payload varies per field type, so it stays raw until the caller
// knows what to decode it into.
type MetaField struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Type        string          `json:"type"`
	Description string          `json:"description,omitempty"`
	Options     json.RawMessage `json:"options,omitempty"`
}

func NewClient(cfg config.AirtableConfig) *Client {
	return &Client{
		apiKey:     cfg.APIKey,
		baseID:     cfg.BaseID,
		baseURL:    cfg.BaseURL,
		httpClient: httpclient.NewClient(config.GetDuration(cfg.Timeout)),
	}
}

// CreateRecord creates one record in the given table and returns it with its
// assigned record ID.
func (c *Client) CreateRecord(ctx context.Context, tableID string, fields map[string]interface{}) (*Record, error) {
	u := fmt.Sprintf("%s/%s/%s", c.baseURL, c.baseID, tableID)

	payload := map[string]interface{}{
		"fields": fields,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal fields: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, c.apiError("create record", resp.StatusCode, body)
	}

	var record Record
	if err := json.Unmarshal(body, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if record.ID == "" {
		return nil, fmt.Errorf("no record id in response")
	}

	return &record, nil
}

// GetRecord fetches one record by ID.
func (c *Client) GetRecord(ctx context.Context, tableID, recordID string) (*Record, error) {
	u := fmt.Sprintf("%s/%s/%s/%s", c.baseURL, c.baseID, tableID, recordID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.apiError("get record", resp.StatusCode, body)
	}

	var record Record
	if err := json.Unmarshal(body, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return &record, nil
}

// UpdateRecord patches the given fields on an existing record. Fields not
// named in the payload keep their current values.
func (c *Client) UpdateRecord(ctx context.Context, tableID, recordID string, fields map[string]interface{}) (*Record, error) {
	u := fmt.Sprintf("%s/%s/%s/%s", c.baseURL, c.baseID, tableID, recordID)

	payload := map[string]interface{}{
		"fields": fields,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal fields: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, u, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.apiError("update record", resp.StatusCode, body)
	}

	var record Record
	if err := json.Unmarshal(body, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return &record, nil
}

// DeleteRecord deletes one record by ID.
func (c *Client) DeleteRecord(ctx context.Context, tableID, recordID string) error {
	u := fmt.Sprintf("%s/%s/%s/%s", c.baseURL, c.baseID, tableID, recordID)

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return c.apiError("delete record", resp.StatusCode, body)
	}

	var deleteResp struct {
		Deleted bool   `json:"deleted"`
		ID      string `json:"id"`
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &deleteResp); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
		if !deleteResp.Deleted {
			return fmt.Errorf("record %s was not deleted", recordID)
		}
	}

	return nil
}

// ListRecords fetches every record in the table, following offset pagination
// until Airtable stops returning an offset token.
func (c *Client) ListRecords(ctx context.Context, tableID string) ([]Record, error) {
	records := []Record{}
	offset := ""

	for {
		u := fmt.Sprintf("%s/%s/%s", c.baseURL, c.baseID, tableID)
		if offset != "" {
			q := url.Values{}
			q.Set("offset", offset)
			u += "?" + q.Encode()
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to execute request: %w", err)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read response body: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			return nil, c.apiError("list records", resp.StatusCode, body)
		}

		var page recordList
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("failed to unmarshal response: %w", err)
		}

		records = append(records, page.Records...)

		if page.Offset == "" {
			return records, nil
		}
		offset = page.Offset
	}
}

// BaseSchema fetches the table schemas of the configured base from the
// metadata API.
func (c *Client) BaseSchema(ctx context.Context) ([]MetaTable, error) {
	u := fmt.Sprintf("%s/meta/bases/%s/tables", c.baseURL, c.baseID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.apiError("fetch base schema", resp.StatusCode, body)
	}

	var result struct {
		Tables []MetaTable `json:"tables"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return result.Tables, nil
}

// apiError turns a non-2xx Airtable response into a sentinel-wrapped error.
func (c *Client) apiError(operation string, status int, body []byte) error {
	switch status {
	case http.StatusNotFound:
		return fmt.Errorf("failed to %s (status %d): %w", operation, status, ErrRecordNotFound)
	case http.StatusTooManyRequests:
		return fmt.Errorf("failed to %s (status %d): %w", operation, status, ErrRateLimited)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("failed to %s (status %d): %w", operation, status, ErrUnauthorized)
	}
	return fmt.Errorf("failed to %s (status %d): %s", operation, status, errorMessage(body))
}

// errorMessage extracts the message from an Airtable error envelope, falling
// back to the raw body.
func errorMessage(body []byte) string {
	var envelope struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		if envelope.Error.Type != "" {
			return fmt.Sprintf("%s: %s", envelope.Error.Type, envelope.Error.Message)
		}
		return envelope.Error.Message
	}
	return string(body)
}

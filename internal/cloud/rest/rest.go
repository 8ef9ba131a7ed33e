// Package rest implements cloud.RecordService against an HTTP JSON
// record-service API.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/jmhart/boxinv/internal/cloud"
)

type Client struct {
	baseURL   string
	container string
	token     string
	client    *http.Client
}

func NewClient(baseURL, container, token string) *Client {
	return &Client{
		baseURL:   baseURL,
		container: container,
		token:     token,
		client:    &http.Client{},
	}
}

func (c *Client) EnumerateZones(ctx context.Context) ([]cloud.Zone, error) {
	var resp struct {
		Zones []cloud.Zone `json:"zones"`
	}
	if err := c.post(ctx, c.containerPath("zones/list"), struct{}{}, &resp); err != nil {
		return nil, fmt.Errorf("failed to enumerate zones: %w", err)
	}
	return resp.Zones, nil
}

func (c *Client) CreateZone(ctx context.Context, zone string) error {
	req := cloud.Zone{Name: zone}
	if err := c.post(ctx, c.containerPath("zones/create"), req, nil); err != nil {
		return fmt.Errorf("failed to create zone %q: %w", zone, err)
	}
	return nil
}

func (c *Client) DeleteZone(ctx context.Context, zone string) error {
	req := cloud.Zone{Name: zone}
	err := c.post(ctx, c.containerPath("zones/delete"), req, nil)
	if err != nil {
		// Deleting an absent zone is a no-op so that a retried share can
		// always start from the reset phase.
		var se *statusError
		if errors.As(err, &se) && se.code == http.StatusNotFound {
			return nil
		}
		return fmt.Errorf("failed to delete zone %q: %w", zone, err)
	}
	return nil
}

func (c *Client) EnumerateRecords(ctx context.Context, zone, cursor string) ([]cloud.Record, string, error) {
	req := struct {
		Cursor string `json:"cursor,omitempty"`
	}{Cursor: cursor}
	var resp struct {
		Records []cloud.Record `json:"records"`
		Cursor  string         `json:"cursor"`
	}
	if err := c.post(ctx, c.zonePath(zone, "records/query"), req, &resp); err != nil {
		var se *statusError
		if errors.As(err, &se) && se.code == http.StatusNotFound {
			return nil, "", nil
		}
		return nil, "", fmt.Errorf("failed to enumerate records in zone %q: %w", zone, err)
	}
	return resp.Records, resp.Cursor, nil
}

func (c *Client) BatchModify(ctx context.Context, zone string, save []cloud.Record, del []string, opts cloud.BatchOptions) error {
	req := struct {
		Save           []cloud.Record       `json:"save,omitempty"`
		Delete         []string             `json:"delete,omitempty"`
		Atomic         bool                 `json:"atomic"`
		ConflictPolicy cloud.ConflictPolicy `json:"conflictPolicy"`
	}{Save: save, Delete: del, Atomic: opts.Atomic, ConflictPolicy: opts.Conflict}

	if err := c.post(ctx, c.zonePath(zone, "records/modify"), req, nil); err != nil {
		return fmt.Errorf("failed to modify records in zone %q: %w", zone, err)
	}
	return nil
}

func (c *Client) ShareURL(zone, shareName string) string {
	return fmt.Sprintf("%s/share/%s/%s/%s",
		c.baseURL, url.PathEscape(c.container), url.PathEscape(zone), url.PathEscape(shareName))
}

func (c *Client) containerPath(suffix string) string {
	return fmt.Sprintf("/containers/%s/%s", url.PathEscape(c.container), suffix)
}

func (c *Client) zonePath(zone, suffix string) string {
	return fmt.Sprintf("/containers/%s/zones/%s/%s", url.PathEscape(c.container), url.PathEscape(zone), suffix)
}

// statusError carries a non-2xx response with the server's reason.
type statusError struct {
	code   int
	reason string
}

func (e *statusError) Error() string {
	if e.reason != "" {
		return fmt.Sprintf("server returned status %d: %s", e.code, e.reason)
	}
	return fmt.Sprintf("server returned status %d", e.code)
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call record service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Error("failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errBody struct {
			Reason string `json:"reason"`
		}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		_ = json.Unmarshal(body, &errBody)
		return &statusError{code: resp.StatusCode, reason: errBody.Reason}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

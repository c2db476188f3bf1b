// Package postgrest implements service.Backend on a PostgREST table,
// such as a Supabase project's REST endpoint.
package postgrest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tasksync/internal/service"
)

// APITimeout is the timeout for API calls.
const APITimeout = 5 * time.Second

// Client implements service.Backend over the PostgREST HTTP API.
type Client struct {
	endpoint string // {base}/rest/v1/{table}
	key      string
	http     *http.Client
}

// New creates a client for table at baseURL, authenticating with key.
// If httpClient is nil, http.DefaultClient is used.
func New(baseURL, key, table string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		endpoint: strings.TrimRight(baseURL, "/") + "/rest/v1/" + url.PathEscape(table),
		key:      key,
		http:     httpClient,
	}
}

// row is the table's record shape.
type row struct {
	ID          json.RawMessage `json:"id"`
	Task        string          `json:"task"`
	IsCompleted bool            `json:"is_completed"`
	CreatedAt   string          `json:"created_at"`
}

type insertRow struct {
	Task        string `json:"task"`
	IsCompleted bool   `json:"is_completed"`
}

type patchRow struct {
	IsCompleted bool `json:"is_completed"`
}

// List returns all rows ordered by created_at descending.
func (c *Client) List(ctx context.Context) ([]service.Task, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("order", "created_at.desc")

	var rows []row
	if err := c.do(ctx, http.MethodGet, q, nil, &rows); err != nil {
		return nil, err
	}
	return toTasks(rows)
}

// Create inserts one row and returns it as stored.
func (c *Client) Create(ctx context.Context, text string) (service.Task, error) {
	var rows []row
	body := []insertRow{{Task: text, IsCompleted: false}}
	if err := c.do(ctx, http.MethodPost, url.Values{"select": {"*"}}, body, &rows); err != nil {
		return service.Task{}, err
	}
	if len(rows) == 0 {
		return service.Task{}, errors.New("postgrest: insert returned no rows")
	}
	return rows[0].toTask()
}

// Update sets is_completed on the row with id.
func (c *Client) Update(ctx context.Context, id string, isCompleted bool) error {
	var rows []row
	if err := c.do(ctx, http.MethodPatch, idFilter(id), patchRow{IsCompleted: isCompleted}, &rows); err != nil {
		return err
	}
	if len(rows) == 0 {
		return service.ErrNotFound
	}
	return nil
}

// Delete removes the row with id.
func (c *Client) Delete(ctx context.Context, id string) error {
	var rows []row
	if err := c.do(ctx, http.MethodDelete, idFilter(id), nil, &rows); err != nil {
		return err
	}
	if len(rows) == 0 {
		return service.ErrNotFound
	}
	return nil
}

func idFilter(id string) url.Values {
	return url.Values{"id": {"eq." + id}}
}

// do sends one request and decodes the JSON response into out.
// Every request asks for the affected rows back so writes can detect a missing id.
func (c *Client) do(ctx context.Context, method string, q url.Values, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("postgrest: encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	target := c.endpoint
	if len(q) > 0 {
		target += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("postgrest: build request: %w", err)
	}
	req.Header.Set("apikey", c.key)
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Prefer", "return=representation")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return wrapError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return wrapError(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp.StatusCode, data)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("postgrest: malformed response: %w", err)
	}
	return nil
}

// apiError is the PostgREST error body.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func statusError(status int, body []byte) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return service.ErrUnauthorized
	case http.StatusNotFound:
		return service.ErrNotFound
	}
	var e apiError
	if err := json.Unmarshal(body, &e); err == nil && e.Message != "" {
		return fmt.Errorf("postgrest: %d %s: %s", status, e.Code, e.Message)
	}
	return fmt.Errorf("postgrest: unexpected status %d", status)
}

func wrapError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return service.ErrTimeout
	}
	return err
}

func toTasks(rows []row) ([]service.Task, error) {
	out := make([]service.Task, 0, len(rows))
	for _, r := range rows {
		t, err := r.toTask()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// Timestamp layouts accepted for created_at: timestamptz, then plain timestamp (taken as UTC).
var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999"}

func (r row) toTask() (service.Task, error) {
	id, err := rawID(r.ID)
	if err != nil {
		return service.Task{}, err
	}
	t := service.Task{ID: id, Task: r.Task, IsCompleted: r.IsCompleted}
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, r.CreatedAt); err == nil {
			t.CreatedAt = ts
			return t, nil
		}
	}
	return service.Task{}, fmt.Errorf("postgrest: malformed created_at %q", r.CreatedAt)
}

// rawID renders a string, numeric or uuid id as an opaque string.
func rawID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return "", errors.New("postgrest: row without id")
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("postgrest: malformed id: %w", err)
		}
		return s, nil
	}
	return string(raw), nil
}

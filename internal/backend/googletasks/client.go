// Package googletasks implements service.Backend on one Google Tasks list.
package googletasks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	tasks "google.golang.org/api/tasks/v1"

	"tasksync/internal/config"
	"tasksync/internal/service"
)

const (
	// DefaultListID is the special ID for the default list.
	DefaultListID = "@default"

	// PageSize is the number of tasks fetched per request.
	PageSize = 100

	// APITimeout is the timeout for API calls.
	APITimeout = 5 * time.Second

	// Scope is the OAuth scope for Google Tasks.
	Scope = "https://www.googleapis.com/auth/tasks"

	// createdMarker prefixes the creation time kept in task notes.
	// Google Tasks does not expose when a task was created.
	createdMarker = "created_at:"

	statusCompleted   = "completed"
	statusNeedsAction = "needsAction"
)

// Client implements service.Backend using Google Tasks API.
type Client struct {
	svc    *tasks.Service
	listID string
	now    func() time.Time
}

// New creates a new Google Tasks client for the configured list.
// Requires oauth_client.json and token.json to exist.
func New(ctx context.Context, cfg *config.Config) (*Client, error) {
	oauthConfig, err := LoadOAuthConfig(cfg)
	if err != nil {
		return nil, err
	}
	token, err := LoadToken(cfg)
	if err != nil {
		return nil, err
	}

	// Create token source that auto-refreshes
	tokenSource := oauthConfig.TokenSource(ctx, token)
	httpClient := oauth2.NewClient(ctx, tokenSource)

	return NewWithHTTPClient(ctx, httpClient, cfg.Settings.ListID)
}

// NewWithHTTPClient creates a client with a custom HTTP client.
// Extra options (for example option.WithEndpoint) are passed to the Tasks service.
func NewWithHTTPClient(ctx context.Context, httpClient *http.Client, listID string, opts ...option.ClientOption) (*Client, error) {
	if listID == "" {
		listID = DefaultListID
	}
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	svc, err := tasks.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create tasks service: %w", err)
	}
	return &Client{svc: svc, listID: listID, now: time.Now}, nil
}

// List returns every task in the list, completed and hidden ones included,
// newest first.
func (c *Client) List(ctx context.Context) ([]service.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	result := []service.Task{}
	err := c.svc.Tasks.List(c.listID).
		MaxResults(PageSize).
		ShowCompleted(true).
		ShowHidden(true).
		ShowDeleted(false).
		Pages(ctx, func(resp *tasks.Tasks) error {
			for _, t := range resp.Items {
				result = append(result, toTask(t))
			}
			return nil
		})
	if err != nil {
		return nil, wrapError(err)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// Create inserts a task at the top of the list.
func (c *Client) Create(ctx context.Context, text string) (service.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	created := c.now().UTC()
	t, err := c.svc.Tasks.Insert(c.listID, &tasks.Task{
		Title:  text,
		Status: statusNeedsAction,
		Notes:  createdMarker + created.Format(time.RFC3339Nano),
	}).Context(ctx).Do()
	if err != nil {
		return service.Task{}, wrapError(err)
	}
	return toTask(t), nil
}

// Update sets the task status to completed or needsAction.
func (c *Client) Update(ctx context.Context, id string, isCompleted bool) error {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	patch := &tasks.Task{Status: statusNeedsAction}
	if isCompleted {
		patch.Status = statusCompleted
	} else {
		// The API keeps the completion date unless it is cleared explicitly.
		patch.NullFields = []string{"Completed"}
	}

	_, err := c.svc.Tasks.Patch(c.listID, id, patch).Context(ctx).Do()
	if err != nil {
		return wrapError(err)
	}
	return nil
}

// Delete deletes a task.
func (c *Client) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	err := c.svc.Tasks.Delete(c.listID, id).Context(ctx).Do()
	if err != nil {
		return wrapError(err)
	}
	return nil
}

// toTask converts an API task. CreatedAt comes from the notes marker,
// falling back to the last update time for tasks created elsewhere.
func toTask(t *tasks.Task) service.Task {
	return service.Task{
		ID:          t.Id,
		Task:        t.Title,
		IsCompleted: t.Status == statusCompleted,
		CreatedAt:   createdAt(t),
	}
}

func createdAt(t *tasks.Task) time.Time {
	for _, line := range strings.Split(t.Notes, "\n") {
		if v, ok := strings.CutPrefix(strings.TrimSpace(line), createdMarker); ok {
			if ts, err := time.Parse(time.RFC3339Nano, v); err == nil {
				return ts
			}
		}
	}
	if ts, err := time.Parse(time.RFC3339, t.Updated); err == nil {
		return ts
	}
	return time.Time{}
}

// wrapError classifies API errors into service sentinels.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	// Check for timeout
	if errors.Is(err, context.DeadlineExceeded) {
		return service.ErrTimeout
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w (run: tasksync login)", service.ErrUnauthorized)
		case http.StatusNotFound:
			return service.ErrNotFound
		}
	}

	return err
}

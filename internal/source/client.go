// Package source talks to the remote dataset backends: one HTTP endpoint
// per dataset returning its rows, some of which accept row updates.
package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/leapstack-labs/ssot/pkg/core"
)

// DefaultBaseURL is where the backends are expected during development.
const DefaultBaseURL = "http://localhost:3000"

// maxErrorBody bounds how much of a failure response is read.
const maxErrorBody = 64 << 10

// Config configures a Client.
type Config struct {
	// Endpoints maps a dataset to its full GET URL. Missing datasets fall
	// back to DefaultBaseURL plus the catalog path.
	Endpoints map[core.DatasetID]string
	// Timeout applies to each request. Zero means no timeout.
	Timeout time.Duration
	// HTTPClient overrides the client used for requests.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client fetches and updates datasets.
type Client struct {
	mu        sync.RWMutex
	endpoints map[core.DatasetID]string
	http      *http.Client
	logger    *slog.Logger
}

// New creates a client.
func New(cfg Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	c := &Client{http: hc, logger: logger}
	c.SetEndpoints(cfg.Endpoints)
	return c
}

// DefaultEndpoints returns the endpoint of every dataset under base.
func DefaultEndpoints(base string) map[core.DatasetID]string {
	base = strings.TrimRight(base, "/")
	out := make(map[core.DatasetID]string)
	for _, s := range core.Specs() {
		out[s.ID] = base + s.Path
	}
	return out
}

// SetEndpoints swaps the endpoint table, e.g. after a config reload.
func (c *Client) SetEndpoints(endpoints map[core.DatasetID]string) {
	table := DefaultEndpoints(DefaultBaseURL)
	for id, u := range endpoints {
		if u != "" {
			table[id] = strings.TrimRight(u, "/")
		}
	}
	c.mu.Lock()
	c.endpoints = table
	c.mu.Unlock()
}

// Endpoint returns the GET URL of a dataset.
func (c *Client) Endpoint(id core.DatasetID) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	u, ok := c.endpoints[id]
	if !ok {
		return "", fmt.Errorf("no endpoint for dataset %q", id)
	}
	return u, nil
}

type fetchResponse struct {
	Data json.RawMessage `json:"data"`
}

// Fetch retrieves the full dataset.
func (c *Client) Fetch(ctx context.Context, id core.DatasetID) (*core.Dataset, error) {
	spec, ok := core.Spec(id)
	if !ok {
		return nil, fmt.Errorf("unknown dataset %q", id)
	}
	endpoint, err := c.Endpoint(id)
	if err != nil {
		return nil, err
	}
	fail := func(status int, err error) error {
		return &FetchError{Dataset: id, Status: status, Message: spec.FetchFailure, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("fetch failed", "dataset", id, "url", endpoint, "error", err)
		return nil, fail(0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Warn("fetch rejected", "dataset", id, "url", endpoint, "status", resp.StatusCode)
		return nil, fail(resp.StatusCode, nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fail(resp.StatusCode, fmt.Errorf("read body: %w", err))
	}

	var payload fetchResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fail(resp.StatusCode, fmt.Errorf("decode response: %w", err))
	}

	var (
		rows    []core.Row
		columns []string
	)
	if len(payload.Data) > 0 {
		rows, columns, err = core.DecodeRows(payload.Data)
		if err != nil {
			return nil, fail(resp.StatusCode, err)
		}
	}

	ds := core.NewDataset(id, rows, columns)
	c.logger.Debug("fetched dataset",
		"dataset", id,
		"rows", ds.Len(),
		"columns", len(ds.Columns),
		"duration", time.Since(start),
	)
	return ds, nil
}

// Update sends row to the action's sub-resource of the dataset endpoint.
func (c *Client) Update(ctx context.Context, id core.DatasetID, action core.EditAction, row core.Row) error {
	endpoint, err := c.Endpoint(id)
	if err != nil {
		return err
	}
	target := endpoint + "/" + strings.TrimLeft(action.SubResource, "/")
	fail := func(status int, msg string, err error) error {
		if msg == "" {
			msg = action.FailureMessage
		}
		return &UpdateError{Dataset: id, Action: action.Name, Status: status, Message: msg, Err: err}
	}

	body, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("failed to marshal row: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("update failed", "dataset", id, "action", action.Name, "error", err)
		return fail(0, "", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Warn("update rejected", "dataset", id, "action", action.Name, "status", resp.StatusCode)
		return fail(resp.StatusCode, strings.TrimSpace(string(text)), nil)
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	c.logger.Info("row updated", "dataset", id, "action", action.Name)
	return nil
}

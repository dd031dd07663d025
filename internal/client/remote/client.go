// Package remote talks to the table store service over HTTPS.
package remote

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

	"go.uber.org/zap"

	"github.com/atinyakov/nomoslink/internal/models"
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Code, e.Body)
}

// Client implements the sync engine's Remote over the HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// New returns a client for baseURL, e.g. "https://localhost:8443".
func New(baseURL string, hc *http.Client, logger *zap.Logger) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc, logger: logger}
}

func (c *Client) tableURL(table string, elems ...string) string {
	u := c.baseURL + "/api/tables/" + url.PathEscape(table)
	for _, e := range elems {
		u += "/" + url.PathEscape(e)
	}
	return u
}

func (c *Client) do(ctx context.Context, method, target string, body []byte) ([]byte, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, r)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	c.logger.Debug("remote call", zap.String("method", method), zap.String("url", target),
		zap.Int("status", resp.StatusCode))
	return data, nil
}

// SelectAll returns every row of table as a JSON array.
func (c *Client) SelectAll(ctx context.Context, table string) (json.RawMessage, error) {
	data, err := c.do(ctx, http.MethodGet, c.tableURL(table), nil)
	if err != nil {
		return nil, err
	}
	if !json.Valid(data) {
		return nil, errors.New("select: response is not JSON")
	}
	return json.RawMessage(data), nil
}

// Upsert writes rows keyed by id.
func (c *Client) Upsert(ctx context.Context, table string, rows json.RawMessage) error {
	_, err := c.do(ctx, http.MethodPut, c.tableURL(table), rows)
	return err
}

// Update merges patch into every row whose filter field matches.
func (c *Client) Update(ctx context.Context, table string, filter models.Filter, patch map[string]any) error {
	body, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("encode patch: %w", err)
	}
	q := url.Values{"field": {filter.Field}, "value": {filter.Value}}
	_, err = c.do(ctx, http.MethodPatch, c.tableURL(table)+"?"+q.Encode(), body)
	return err
}

// Delete removes one row.
func (c *Client) Delete(ctx context.Context, table, id string) error {
	_, err := c.do(ctx, http.MethodDelete, c.tableURL(table, id), nil)
	return err
}

// Ping checks the service health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	return err
}

// Setter receives connectivity updates.
type Setter interface {
	SetOnline(bool)
}

// DefaultPingInterval is used by Watch when given a non-positive interval.
const DefaultPingInterval = 15 * time.Second

// Watch pings the service every interval and reports reachability to s
// until ctx is done.
func (c *Client) Watch(ctx context.Context, s Setter, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultPingInterval
	}
	check := func() {
		pctx, cancel := context.WithTimeout(ctx, interval)
		defer cancel()
		err := c.Ping(pctx)
		if err != nil {
			c.logger.Debug("remote unreachable", zap.Error(err))
		}
		s.SetOnline(err == nil)
	}

	check()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			check()
		}
	}
}

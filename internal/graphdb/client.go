// Copyright (c) 2025 the graphseed authors
// graphseed - GraphDB repository provisioning and RDF import tool
// This source code is licensed under the MIT license found in the LICENSE file.

// Package graphdb implements a client for the GraphDB management REST API
// and the RDF4J repository endpoints. It covers the surface graphseed
// needs: health checks, repository provisioning, statement import and
// SPARQL queries.
package graphdb

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spendcast/graphseed/internal/logging"
)

// Config carries the connection settings for a GraphDB instance.
type Config struct {
	// URL is the base URL of the instance, e.g. http://localhost:7200.
	URL      string
	Username string
	Password string
	// Timeout bounds a single HTTP request. Zero means 30s.
	Timeout time.Duration
	// Retries is the number of attempts for retryable requests. Zero means 5.
	Retries int
}

// Client talks to one GraphDB instance.
type Client struct {
	baseURL    string
	username   string
	password   string
	retries    int
	httpClient *http.Client
}

// New creates a Client for the given configuration.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	retries := cfg.Retries
	if retries <= 0 {
		retries = 5
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		username:   cfg.Username,
		password:   cfg.Password,
		retries:    retries,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the base URL of the instance.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// RepositoryEndpoint returns the SPARQL query endpoint for a repository.
func (c *Client) RepositoryEndpoint(repoID string) string {
	return c.baseURL + "/repositories/" + url.PathEscape(repoID)
}

// request describes one HTTP exchange. The body is kept as a byte slice so
// retried attempts can replay it; streaming uploads go through doStream.
type request struct {
	method      string
	path        string
	query       url.Values
	contentType string
	accept      string
	body        []byte
}

// newHTTPRequest materializes a request against the client's base URL.
func (c *Client) newHTTPRequest(ctx context.Context, req request, body io.Reader) (*http.Request, error) {
	u := c.baseURL + req.path
	if len(req.query) > 0 {
		u += "?" + req.query.Encode()
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, u, body)
	if err != nil {
		return nil, err
	}
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	if req.accept != "" {
		httpReq.Header.Set("Accept", req.accept)
	}
	if c.username != "" {
		httpReq.SetBasicAuth(c.username, c.password)
	}
	return httpReq, nil
}

// do executes a request with retries on transient failures. 4xx responses
// are never retried. The returned response body is fully read and the
// response closed; callers get the raw bytes.
func (c *Client) do(ctx context.Context, req request) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < c.retries; attempt++ {
		if attempt > 0 {
			if err := sleepBackoff(ctx, attempt); err != nil {
				return nil, err
			}
			logging.Debugf("graphdb: retrying %s %s (attempt %d/%d)", req.method, req.path, attempt+1, c.retries)
		}

		var body io.Reader
		if req.body != nil {
			body = bytes.NewReader(req.body)
		}
		httpReq, err := c.newHTTPRequest(ctx, req, body)
		if err != nil {
			return nil, err
		}

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = fmt.Errorf("request %s %s: %w", req.method, req.path, err)
			continue
		}

		data, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = fmt.Errorf("read response for %s %s: %w", req.method, req.path, readErr)
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return data, nil
		}

		apiErr := newAPIError(resp.StatusCode, req.method, req.path, data)
		if !apiErr.Retryable() {
			return nil, apiErr
		}
		lastErr = apiErr
	}
	return nil, fmt.Errorf("giving up after %d attempts: %w", c.retries, lastErr)
}

// doStream executes a request whose body cannot be replayed (dataset
// uploads). It is attempted exactly once.
func (c *Client) doStream(ctx context.Context, req request, body io.Reader) error {
	httpReq, err := c.newHTTPRequest(ctx, req, body)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", req.method, req.path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, errBodyLimit))
	return newAPIError(resp.StatusCode, req.method, req.path, data)
}

// maxBackoff caps the delay between retry attempts.
const maxBackoff = 8 * time.Second

// backoffDelay returns the exponential delay for the given attempt, capped at
// maxBackoff. Doubling stops at the cap so large attempt counts (WaitUntilReady
// polls indefinitely) cannot overflow the duration.
func backoffDelay(attempt int) time.Duration {
	base := 500 * time.Millisecond
	for i := 1; i < attempt && base < maxBackoff; i++ {
		base *= 2
	}
	if base > maxBackoff {
		base = maxBackoff
	}
	return base
}

// sleepBackoff waits for an exponentially growing interval with jitter, or
// returns early when the context is done.
func sleepBackoff(ctx context.Context, attempt int) error {
	base := backoffDelay(attempt)
	jitter := time.Duration(rand.Int63n(int64(base) / 2))
	select {
	case <-time.After(base + jitter):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

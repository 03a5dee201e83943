// Copyright (c) 2025 the graphseed authors
// graphseed - GraphDB repository provisioning and RDF import tool
// This source code is licensed under the MIT license found in the LICENSE file.

package graphdb

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spendcast/graphseed/internal/logging"
)

// Ping checks whether the instance answers its protocol endpoint. It makes a
// single attempt; use WaitUntilReady to poll a starting instance.
func (c *Client) Ping(ctx context.Context) error {
	httpReq, err := c.newHTTPRequest(ctx, request{method: http.MethodGet, path: "/protocol"}, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("graphdb unreachable at %s: %w", c.baseURL, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("graphdb at %s answered %d to protocol probe", c.baseURL, resp.StatusCode)
	}
	return nil
}

// WaitUntilReady polls the instance until it answers or the context expires.
// The poll interval grows exponentially with jitter, capped at 8s.
func (c *Client) WaitUntilReady(ctx context.Context) error {
	start := time.Now()
	for attempt := 1; ; attempt++ {
		err := c.Ping(ctx)
		if err == nil {
			if attempt > 1 {
				logging.Infof("graphdb ready after %s", time.Since(start).Round(time.Millisecond))
			}
			return nil
		}
		logging.Debugf("waiting for graphdb: %v", err)
		if sleepErr := sleepBackoff(ctx, attempt); sleepErr != nil {
			return fmt.Errorf("graphdb did not become ready after %s: %w", time.Since(start).Round(time.Second), err)
		}
	}
}

// ProtocolVersion returns the RDF4J protocol version the server speaks.
func (c *Client) ProtocolVersion(ctx context.Context) (string, error) {
	data, err := c.do(ctx, request{method: http.MethodGet, path: "/protocol"})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// Copyright (c) 2025 the graphseed authors
// graphseed - GraphDB repository provisioning and RDF import tool
// This source code is licensed under the MIT license found in the LICENSE file.

package graphdb

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/spendcast/graphseed/internal/sparql"
)

// Query runs a SPARQL read query against a repository and decodes the
// application/sparql-results+json response.
func (c *Client) Query(ctx context.Context, repoID, query string) (*sparql.Results, error) {
	form := url.Values{"query": {query}}
	data, err := c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/repositories/" + url.PathEscape(repoID),
		contentType: "application/x-www-form-urlencoded",
		accept:      "application/sparql-results+json",
		body:        []byte(form.Encode()),
	})
	if err != nil {
		return nil, fmt.Errorf("query repository %s: %w", repoID, err)
	}
	res, err := sparql.DecodeResults(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("query repository %s: %w", repoID, err)
	}
	return res, nil
}

// Ask runs an ASK query and returns its boolean answer.
func (c *Client) Ask(ctx context.Context, repoID, query string) (bool, error) {
	res, err := c.Query(ctx, repoID, query)
	if err != nil {
		return false, err
	}
	if !res.IsAsk() {
		return false, fmt.Errorf("query against repository %s did not return a boolean", repoID)
	}
	return *res.Boolean, nil
}

// Update runs a SPARQL update against a repository's statements endpoint.
func (c *Client) Update(ctx context.Context, repoID, update string) error {
	form := url.Values{"update": {update}}
	_, err := c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/repositories/" + url.PathEscape(repoID) + "/statements",
		contentType: "application/x-www-form-urlencoded",
		body:        []byte(form.Encode()),
	})
	if err != nil {
		return fmt.Errorf("update repository %s: %w", repoID, err)
	}
	return nil
}

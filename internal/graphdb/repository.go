// Copyright (c) 2025 the graphseed authors
// graphseed - GraphDB repository provisioning and RDF import tool
// This source code is licensed under the MIT license found in the LICENSE file.

package graphdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// RepositoryInfo is one entry from the repository management API.
type RepositoryInfo struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Type     string `json:"type"`
	State    string `json:"state"`
	Readable bool   `json:"readable"`
	Writable bool   `json:"writable"`
}

// RepositorySpec describes a repository to create. The zero value of
// Ruleset means the server default.
type RepositorySpec struct {
	ID      string
	Title   string
	Ruleset string
}

// createBody is the JSON config document the management API accepts for
// GraphDB free/SE repositories.
type createBody struct {
	ID     string           `json:"id"`
	Title  string           `json:"title,omitempty"`
	Type   string           `json:"type"`
	Params map[string]param `json:"params,omitempty"`
}

type param struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ListRepositories returns all repositories visible to the client.
func (c *Client) ListRepositories(ctx context.Context) ([]RepositoryInfo, error) {
	data, err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/rest/repositories",
		accept: "application/json",
	})
	if err != nil {
		return nil, err
	}
	var repos []RepositoryInfo
	if err := json.Unmarshal(data, &repos); err != nil {
		return nil, fmt.Errorf("invalid repository list from server: %w", err)
	}
	return repos, nil
}

// RepositoryExists reports whether a repository with the given ID exists.
func (c *Client) RepositoryExists(ctx context.Context, repoID string) (bool, error) {
	repos, err := c.ListRepositories(ctx)
	if err != nil {
		return false, err
	}
	for _, r := range repos {
		if r.ID == repoID {
			return true, nil
		}
	}
	return false, nil
}

// CreateRepository creates a repository via the management API. Creating a
// repository that already exists returns an error for which IsConflict is
// true; callers wanting idempotency check existence first or test the error.
func (c *Client) CreateRepository(ctx context.Context, spec RepositorySpec) error {
	if strings.TrimSpace(spec.ID) == "" {
		return fmt.Errorf("repository id must not be empty")
	}
	body := createBody{
		ID:    spec.ID,
		Title: spec.Title,
		Type:  "free",
	}
	if spec.Ruleset != "" {
		body.Params = map[string]param{
			"ruleset": {Name: "ruleset", Value: spec.Ruleset},
		}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	_, err = c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/rest/repositories",
		contentType: "application/json",
		body:        payload,
	})
	if err != nil {
		return fmt.Errorf("create repository %s: %w", spec.ID, err)
	}
	return nil
}

// DeleteRepository removes a repository and all its data.
func (c *Client) DeleteRepository(ctx context.Context, repoID string) error {
	_, err := c.do(ctx, request{
		method: http.MethodDelete,
		path:   "/rest/repositories/" + url.PathEscape(repoID),
	})
	if err != nil {
		return fmt.Errorf("delete repository %s: %w", repoID, err)
	}
	return nil
}

// RepositorySize returns the number of statements in a repository.
func (c *Client) RepositorySize(ctx context.Context, repoID string) (int64, error) {
	data, err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/repositories/" + url.PathEscape(repoID) + "/size",
	})
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("unexpected size response %q for repository %s", strings.TrimSpace(string(data)), repoID)
	}
	return n, nil
}

// Copyright (c) 2025 the graphseed authors
// graphseed - GraphDB repository provisioning and RDF import tool
// This source code is licensed under the MIT license found in the LICENSE file.

package graphdb

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// errBodyLimit caps how much of an error response body is kept for messages.
const errBodyLimit = 2048

// APIError is a non-2xx response from GraphDB.
type APIError struct {
	StatusCode int
	Method     string
	Path       string
	Body       string
}

// newAPIError builds an APIError with a trimmed body snippet.
func newAPIError(status int, method, path string, body []byte) *APIError {
	snippet := strings.TrimSpace(string(body))
	if len(snippet) > errBodyLimit {
		snippet = snippet[:errBodyLimit]
	}
	return &APIError{StatusCode: status, Method: method, Path: path, Body: snippet}
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("graphdb: %s %s returned %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("graphdb: %s %s returned %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// Retryable reports whether the request may succeed on a later attempt.
// Server errors and rate limiting are retryable; client errors are not.
func (e *APIError) Retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// IsConflict reports whether err is a 409 from the API, e.g. creating a
// repository that already exists.
func IsConflict(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict
}

// IsUnauthorized reports whether err is a 401 or 403 from the API.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
}

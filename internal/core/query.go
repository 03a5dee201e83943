// Copyright (c) 2025 the graphseed authors
// graphseed - GraphDB repository provisioning and RDF import tool
// This source code is licensed under the MIT license found in the LICENSE file.

package core

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spendcast/graphseed/internal/sparql"
)

// QueryOptions controls query validation and execution.
type QueryOptions struct {
	// RequiredPrefixes lists prefix labels the query must reference.
	RequiredPrefixes []string
	// SkipValidation sends the query to the server unchecked.
	SkipValidation bool
}

// ExecuteQuery validates a SPARQL read query and runs it against a
// repository.
func ExecuteQuery(ctx context.Context, gc GraphClient, repoID, query string, opts QueryOptions) (*sparql.Results, error) {
	if !opts.SkipValidation {
		if err := sparql.Validate(query, opts.RequiredPrefixes); err != nil {
			return nil, fmt.Errorf("invalid query: %w", err)
		}
	}
	return gc.Query(ctx, repoID, query)
}

// ReadQueryInput resolves the query text for the query command: a literal
// query string, an @file reference, or "-" for stdin.
func ReadQueryInput(arg string, stdin io.Reader) (string, error) {
	switch {
	case arg == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read query from stdin: %w", err)
		}
		return string(data), nil
	case strings.HasPrefix(arg, "@"):
		data, err := os.ReadFile(arg[1:])
		if err != nil {
			return "", fmt.Errorf("read query file: %w", err)
		}
		return string(data), nil
	default:
		return arg, nil
	}
}

// RunQueryCmd runs the query command logic.
func RunQueryCmd(ctx context.Context, gc GraphClient, repoID, query string, opts QueryOptions) (*sparql.Results, error) {
	return ExecuteQuery(ctx, gc, repoID, query, opts)
}

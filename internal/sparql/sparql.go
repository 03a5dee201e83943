// Copyright (c) 2025 the graphseed authors
// graphseed - GraphDB repository provisioning and RDF import tool
// This source code is licensed under the MIT license found in the LICENSE file.

// Package sparql contains SPARQL query validation and result decoding.
// Validation is intentionally shallow: it catches the mistakes that are
// cheap to detect client-side (wrong query form, unbalanced braces, missing
// prefixes) and leaves full parsing to the server.
package sparql

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// query forms accepted for read queries.
var queryForms = []string{"SELECT", "ASK", "CONSTRUCT", "DESCRIBE"}

// Validate performs basic validation of a SPARQL query. requiredPrefixes
// lists prefix labels (e.g. "pfm:") that must appear somewhere in the query;
// pass nil when no prefixes are mandated.
func Validate(query string, requiredPrefixes []string) error {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return fmt.Errorf("query is empty")
	}

	var missing []string
	for _, prefix := range requiredPrefixes {
		if !strings.Contains(query, prefix) {
			missing = append(missing, prefix)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required prefixes: %s", strings.Join(missing, ", "))
	}

	if !hasQueryForm(trimmed) {
		return fmt.Errorf("query must start with SELECT, ASK, CONSTRUCT, or DESCRIBE")
	}

	if strings.Count(query, "{") != strings.Count(query, "}") {
		return fmt.Errorf("unbalanced braces in SPARQL query")
	}
	if !strings.Contains(query, "{") {
		return fmt.Errorf("missing WHERE clause with braces")
	}

	return nil
}

// hasQueryForm reports whether the query body (after any PREFIX/BASE
// preamble) starts with an accepted read query form.
func hasQueryForm(query string) bool {
	body := stripPreamble(query)
	upper := strings.ToUpper(body)
	for _, form := range queryForms {
		if strings.HasPrefix(upper, form) {
			return true
		}
	}
	return false
}

// stripPreamble skips leading PREFIX and BASE declarations and comment lines.
func stripPreamble(query string) string {
	rest := strings.TrimSpace(query)
	for {
		upper := strings.ToUpper(rest)
		switch {
		case strings.HasPrefix(rest, "#"):
			idx := strings.IndexByte(rest, '\n')
			if idx < 0 {
				return ""
			}
			rest = strings.TrimSpace(rest[idx+1:])
		case strings.HasPrefix(upper, "PREFIX") || strings.HasPrefix(upper, "BASE"):
			// A declaration ends at the closing '>' of its IRI.
			idx := strings.IndexByte(rest, '>')
			if idx < 0 {
				return rest
			}
			rest = strings.TrimSpace(rest[idx+1:])
		default:
			return rest
		}
	}
}

// Term is one RDF term in a result binding, as encoded by the
// application/sparql-results+json format.
type Term struct {
	Type     string `json:"type"` // uri, literal or bnode
	Value    string `json:"value"`
	Datatype string `json:"datatype,omitempty"`
	Lang     string `json:"xml:lang,omitempty"`
}

// Results is a decoded application/sparql-results+json document.
type Results struct {
	Head struct {
		Vars []string `json:"vars"`
	} `json:"head"`
	Boolean *bool `json:"boolean,omitempty"` // set for ASK queries
	Results struct {
		Bindings []map[string]Term `json:"bindings"`
	} `json:"results"`
}

// DecodeResults reads a SPARQL JSON results document from r.
func DecodeResults(r io.Reader) (*Results, error) {
	var res Results
	if err := json.NewDecoder(r).Decode(&res); err != nil {
		return nil, fmt.Errorf("invalid SPARQL results document: %w", err)
	}
	return &res, nil
}

// IsAsk reports whether the results came from an ASK query.
func (r *Results) IsAsk() bool {
	return r.Boolean != nil
}

// Table flattens the bindings into rows ordered by the head vars. Unbound
// variables render as empty strings.
func (r *Results) Table() (header []string, rows [][]string) {
	header = r.Head.Vars
	rows = make([][]string, 0, len(r.Results.Bindings))
	for _, binding := range r.Results.Bindings {
		row := make([]string, len(header))
		for i, v := range header {
			if term, ok := binding[v]; ok {
				row[i] = term.Value
			}
		}
		rows = append(rows, row)
	}
	return header, rows
}

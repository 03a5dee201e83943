// Copyright (c) 2025 the graphseed authors
// graphseed - GraphDB repository provisioning and RDF import tool
// This source code is licensed under the MIT license found in the LICENSE file.

package sparql

import (
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	cases := []struct {
		name     string
		query    string
		prefixes []string
		wantErr  string
	}{
		{name: "select", query: "SELECT ?s WHERE { ?s ?p ?o }"},
		{name: "ask", query: "ASK { ?s ?p ?o }"},
		{name: "construct", query: "CONSTRUCT { ?s ?p ?o } WHERE { ?s ?p ?o }"},
		{name: "describe", query: "DESCRIBE <urn:x> { }"},
		{name: "lowercase form", query: "select ?s where { ?s ?p ?o }"},
		{
			name:  "prefix preamble",
			query: "PREFIX foaf: <http://xmlns.com/foaf/0.1/>\nSELECT ?n WHERE { ?p foaf:name ?n }",
		},
		{
			name:  "comment preamble",
			query: "# all names\nSELECT ?n WHERE { ?p ?q ?n }",
		},
		{name: "empty", query: "   ", wantErr: "empty"},
		{name: "update form", query: "INSERT DATA { <urn:a> <urn:b> <urn:c> }", wantErr: "must start with"},
		{name: "unbalanced", query: "SELECT ?s WHERE { ?s ?p ?o", wantErr: "unbalanced"},
		{name: "no braces", query: "SELECT ?s", wantErr: "braces"},
		{
			name:     "missing required prefix",
			query:    "SELECT ?s WHERE { ?s ?p ?o }",
			prefixes: []string{"pfm:"},
			wantErr:  "missing required prefixes: pfm:",
		},
		{
			name:     "required prefix present",
			query:    "PREFIX pfm: <urn:pfm#>\nSELECT ?s WHERE { ?s pfm:x ?o }",
			prefixes: []string{"pfm:"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.query, tc.prefixes)
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("Validate = %v, want error containing %q", err, tc.wantErr)
			}
		})
	}
}

func TestDecodeResultsSelect(t *testing.T) {
	doc := `{
		"head": {"vars": ["name", "amount"]},
		"results": {"bindings": [
			{"name": {"type": "literal", "value": "groceries"}, "amount": {"type": "literal", "value": "12.50", "datatype": "http://www.w3.org/2001/XMLSchema#decimal"}},
			{"name": {"type": "literal", "value": "rent"}}
		]}
	}`
	res, err := DecodeResults(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("DecodeResults: %v", err)
	}
	if res.IsAsk() {
		t.Error("SELECT results must not report IsAsk")
	}
	header, rows := res.Table()
	if len(header) != 2 || header[0] != "name" {
		t.Errorf("header = %v", header)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0][1] != "12.50" {
		t.Errorf("rows[0][1] = %q, want 12.50", rows[0][1])
	}
	// Unbound variables render empty.
	if rows[1][1] != "" {
		t.Errorf("rows[1][1] = %q, want empty", rows[1][1])
	}
}

func TestDecodeResultsAsk(t *testing.T) {
	res, err := DecodeResults(strings.NewReader(`{"head":{},"boolean":true}`))
	if err != nil {
		t.Fatalf("DecodeResults: %v", err)
	}
	if !res.IsAsk() || !*res.Boolean {
		t.Errorf("ASK result not decoded: %+v", res)
	}
}

func TestDecodeResultsInvalid(t *testing.T) {
	if _, err := DecodeResults(strings.NewReader("not json")); err == nil {
		t.Fatal("expected an error for invalid JSON")
	}
}

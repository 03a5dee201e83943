// Copyright (c) 2025 the graphseed authors
// graphseed - GraphDB repository provisioning and RDF import tool
// This source code is licensed under the MIT license found in the LICENSE file.

package graphdb

import "testing"

func TestParseFormat(t *testing.T) {
	cases := []struct {
		in      string
		want    RDFFormat
		wantErr bool
	}{
		{"turtle", FormatTurtle, false},
		{"ttl", FormatTurtle, false},
		{" TTL ", FormatTurtle, false},
		{"nt", FormatNTriples, false},
		{"n-triples", FormatNTriples, false},
		{"nq", FormatNQuads, false},
		{"n3", FormatN3, false},
		{"rdf/xml", FormatRDFXML, false},
		{"json-ld", FormatJSONLD, false},
		{"trig", FormatTriG, false},
		{"csv", "", true},
		{"", "", true},
	}
	for _, tc := range cases {
		got, err := ParseFormat(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseFormat(%q) succeeded, want error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseFormat(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseFormat(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestFormatForExtension(t *testing.T) {
	cases := map[string]RDFFormat{
		".ttl":    FormatTurtle,
		".TTL":    FormatTurtle,
		".nt":     FormatNTriples,
		".nq":     FormatNQuads,
		".n3":     FormatN3,
		".trig":   FormatTriG,
		".rdf":    FormatRDFXML,
		".owl":    FormatRDFXML,
		".jsonld": FormatJSONLD,
	}
	for ext, want := range cases {
		got, ok := FormatForExtension(ext)
		if !ok || got != want {
			t.Errorf("FormatForExtension(%q) = (%s, %v), want %s", ext, got, ok, want)
		}
	}
	if _, ok := FormatForExtension(".csv"); ok {
		t.Error("FormatForExtension(.csv) should not resolve")
	}
}

func TestContentType(t *testing.T) {
	ct, err := FormatTurtle.ContentType()
	if err != nil || ct != "text/turtle" {
		t.Errorf("ContentType(turtle) = (%s, %v)", ct, err)
	}
	if _, err := RDFFormat("bogus").ContentType(); err == nil {
		t.Error("expected an error for an unknown format")
	}
}

func TestAPIErrorRetryable(t *testing.T) {
	cases := []struct {
		status int
		want   bool
	}{
		{500, true},
		{503, true},
		{429, true},
		{404, false},
		{409, false},
		{400, false},
	}
	for _, tc := range cases {
		e := &APIError{StatusCode: tc.status}
		if e.Retryable() != tc.want {
			t.Errorf("Retryable(%d) = %v, want %v", tc.status, e.Retryable(), tc.want)
		}
	}
}

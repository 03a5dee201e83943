// Copyright (c) 2025 the graphseed authors
// graphseed - GraphDB repository provisioning and RDF import tool
// This source code is licensed under the MIT license found in the LICENSE file.

package graphdb

import (
	"fmt"
	"sort"
	"strings"
)

// RDFFormat identifies an RDF serialization accepted for import.
type RDFFormat string

const (
	FormatTurtle   RDFFormat = "turtle"
	FormatTriG     RDFFormat = "trig"
	FormatNTriples RDFFormat = "ntriples"
	FormatNQuads   RDFFormat = "nquads"
	FormatN3       RDFFormat = "n3"
	FormatRDFXML   RDFFormat = "rdfxml"
	FormatJSONLD   RDFFormat = "jsonld"
)

// contentTypes maps formats to the MIME types RDF4J expects.
var contentTypes = map[RDFFormat]string{
	FormatTurtle:   "text/turtle",
	FormatTriG:     "application/trig",
	FormatNTriples: "application/n-triples",
	FormatNQuads:   "application/n-quads",
	FormatN3:       "text/n3",
	FormatRDFXML:   "application/rdf+xml",
	FormatJSONLD:   "application/ld+json",
}

// extensions maps file extensions (without compression suffixes) to formats.
var extensions = map[string]RDFFormat{
	".ttl":    FormatTurtle,
	".trig":   FormatTriG,
	".nt":     FormatNTriples,
	".nq":     FormatNQuads,
	".n3":     FormatN3,
	".rdf":    FormatRDFXML,
	".xml":    FormatRDFXML,
	".owl":    FormatRDFXML,
	".jsonld": FormatJSONLD,
}

// ContentType returns the MIME type for the format, or an error for an
// unknown format name.
func (f RDFFormat) ContentType() (string, error) {
	if ct, ok := contentTypes[f]; ok {
		return ct, nil
	}
	return "", fmt.Errorf("unsupported RDF format %q (supported: %s)", f, supportedFormats())
}

// ParseFormat normalizes a user-supplied format name.
func ParseFormat(name string) (RDFFormat, error) {
	f := RDFFormat(strings.ToLower(strings.TrimSpace(name)))
	switch f {
	case "ttl":
		f = FormatTurtle
	case "nt", "n-triples":
		f = FormatNTriples
	case "nq", "n-quads":
		f = FormatNQuads
	case "rdf", "rdf-xml", "rdf/xml":
		f = FormatRDFXML
	case "json-ld":
		f = FormatJSONLD
	}
	if _, ok := contentTypes[f]; !ok {
		return "", fmt.Errorf("unsupported RDF format %q (supported: %s)", name, supportedFormats())
	}
	return f, nil
}

// FormatForExtension guesses the format from a file extension like ".ttl".
// Compression suffixes must already be stripped by the caller.
func FormatForExtension(ext string) (RDFFormat, bool) {
	f, ok := extensions[strings.ToLower(ext)]
	return f, ok
}

func supportedFormats() string {
	names := make([]string, 0, len(contentTypes))
	for f := range contentTypes {
		names = append(names, string(f))
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

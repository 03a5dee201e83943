// Copyright (c) 2025 the graphseed authors
// graphseed - GraphDB repository provisioning and RDF import tool
// This source code is licensed under the MIT license found in the LICENSE file.

package source

import (
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// compressionSuffixes lists the recognized compression file suffixes.
var compressionSuffixes = []string{".gz", ".gzip", ".zst", ".zstd"}

// stripCompressionSuffix removes one trailing compression suffix so the RDF
// extension underneath can be inspected.
func stripCompressionSuffix(name string) string {
	lower := strings.ToLower(name)
	for _, suffix := range compressionSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return name[:len(name)-len(suffix)]
		}
	}
	return name
}

// decompress wraps r in a decompressing reader when name carries a known
// compression suffix, and returns r unchanged otherwise.
func decompress(name string, r io.Reader) (io.Reader, error) {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".gz") || strings.HasSuffix(lower, ".gzip"):
		return gzip.NewReader(r)
	case strings.HasSuffix(lower, ".zst") || strings.HasSuffix(lower, ".zstd"):
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return dec.IOReadCloser(), nil
	default:
		return r, nil
	}
}

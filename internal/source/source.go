// Copyright (c) 2025 the graphseed authors
// graphseed - GraphDB repository provisioning and RDF import tool
// This source code is licensed under the MIT license found in the LICENSE file.

// Package source fetches RDF datasets from local files, HTTP(S) URLs and
// SFTP servers. Fetched payloads are transparently decompressed and hashed
// so imports can be skipped when the content is unchanged.
package source

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/spendcast/graphseed/internal/graphdb"
)

// KnownHostStore looks up trusted SSH host keys for sftp:// sources.
type KnownHostStore interface {
	GetKnownHostKey(hostname string) (string, error)
}

// Fetcher retrieves dataset payloads. The zero value is not usable; use New.
type Fetcher struct {
	httpClient *http.Client
	hostKeys   KnownHostStore
	// SSHKeyPath optionally points at a private key file used for sftp://
	// sources before falling back to a running SSH agent.
	SSHKeyPath string
}

// New creates a Fetcher. hostKeys may be nil when no sftp sources are used.
func New(hostKeys KnownHostStore) *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		hostKeys:   hostKeys,
	}
}

// Payload is a fetched dataset ready for import. Close must be called; it
// releases the underlying file, response body or SFTP connection.
type Payload struct {
	// Reader yields the decompressed RDF data and hashes it as it is read.
	Reader io.Reader
	// Format is the detected RDF serialization.
	Format graphdb.RDFFormat

	closers []io.Closer
	hasher  hash.Hash
}

// Close releases the payload's resources.
func (p *Payload) Close() error {
	var firstErr error
	// Close in reverse order: decompressors before their underlying stream.
	for i := len(p.closers) - 1; i >= 0; i-- {
		if err := p.closers[i].Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ContentHash returns the hex SHA-256 of the decompressed content read so
// far. Call it after the reader has been fully consumed.
func (p *Payload) ContentHash() string {
	return hex.EncodeToString(p.hasher.Sum(nil))
}

// Fetch opens the given source. Supported schemes are http, https and sftp;
// anything else is treated as a local file path. The format is detected from
// the source name unless formatOverride is non-empty.
func (f *Fetcher) Fetch(ctx context.Context, source, formatOverride string) (*Payload, error) {
	var (
		rc   io.ReadCloser
		name string
		err  error
	)
	switch scheme(source) {
	case "http", "https":
		rc, name, err = f.fetchHTTP(ctx, source)
	case "sftp":
		rc, name, err = f.fetchSFTP(ctx, source)
	default:
		rc, name, err = fetchLocal(source)
	}
	if err != nil {
		return nil, err
	}

	payload := &Payload{hasher: sha256.New(), closers: []io.Closer{rc}}

	reader, err := decompress(name, rc)
	if err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("open %s: %w", source, err)
	}
	if closer, ok := reader.(io.Closer); ok && closer != rc {
		payload.closers = append(payload.closers, closer)
	}

	format, err := resolveFormat(name, formatOverride)
	if err != nil {
		_ = payload.Close()
		return nil, err
	}

	payload.Format = format
	payload.Reader = io.TeeReader(reader, payload.hasher)
	return payload, nil
}

// scheme extracts the URL scheme, or "" for plain paths. Windows drive
// letters ("C:\data") are not schemes.
func scheme(source string) string {
	idx := strings.Index(source, "://")
	if idx <= 1 {
		return ""
	}
	return strings.ToLower(source[:idx])
}

// DetectFormat resolves the RDF format for a source name, stripping any
// compression suffix first.
func DetectFormat(source string) (graphdb.RDFFormat, error) {
	return resolveFormat(source, "")
}

func resolveFormat(name, override string) (graphdb.RDFFormat, error) {
	if override != "" {
		return graphdb.ParseFormat(override)
	}
	base := stripCompressionSuffix(name)
	if f, ok := graphdb.FormatForExtension(path.Ext(base)); ok {
		return f, nil
	}
	return "", fmt.Errorf("cannot detect RDF format of %s; set an explicit format", name)
}

func fetchLocal(p string) (io.ReadCloser, string, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, "", fmt.Errorf("open dataset file: %w", err)
	}
	return f, p, nil
}

func (f *Fetcher) fetchHTTP(ctx context.Context, rawURL string) (io.ReadCloser, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, "", fmt.Errorf("fetch %s: server answered %d", rawURL, resp.StatusCode)
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		_ = resp.Body.Close()
		return nil, "", err
	}
	return resp.Body, u.Path, nil
}

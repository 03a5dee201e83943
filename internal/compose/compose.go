// Copyright (c) 2025 the graphseed authors
// graphseed - GraphDB repository provisioning and RDF import tool
// This source code is licensed under the MIT license found in the LICENSE file.

// Package compose scaffolds a working directory for `graphseed init`: a
// docker-compose file that runs GraphDB with a persistent volume and a
// starter graphseed.yaml declaring one repository and one dataset.
package compose

import (
	"fmt"
	"os"
	"path/filepath"
)

// Default GraphDB container settings written into the compose file.
const (
	defaultImage = "ontotext/graphdb:10.6.4"
	defaultPort  = 7200
)

// Options controls what init writes.
type Options struct {
	// Dir is the target directory; it is created when missing.
	Dir string
	// RepoID seeds the starter config. Empty means "graphseed".
	RepoID string
	// Force overwrites existing files.
	Force bool
}

// Scaffold writes docker-compose.yaml and graphseed.yaml into the target
// directory. Existing files are left alone unless Force is set; the returned
// slice lists the files actually written.
func Scaffold(opts Options) ([]string, error) {
	if opts.Dir == "" {
		opts.Dir = "."
	}
	if opts.RepoID == "" {
		opts.RepoID = "graphseed"
	}
	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		return nil, fmt.Errorf("create directory %s: %w", opts.Dir, err)
	}

	// Fixed order so the written list and the first --force refusal are
	// deterministic.
	files := []struct {
		name    string
		content string
	}{
		{"docker-compose.yaml", composeFile()},
		{"graphseed.yaml", starterConfig(opts.RepoID)},
	}

	var written []string
	for _, f := range files {
		name, content := f.name, f.content
		path := filepath.Join(opts.Dir, name)
		if !opts.Force {
			if _, err := os.Stat(path); err == nil {
				return written, fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return written, fmt.Errorf("write %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}

func composeFile() string {
	return fmt.Sprintf(`services:
  graphdb:
    image: %s
    restart: unless-stopped
    ports:
      - "%d:7200"
    environment:
      GDB_HEAP_SIZE: 2g
    volumes:
      - graphdb-data:/opt/graphdb/home
    healthcheck:
      test: ["CMD", "curl", "-f", "http://localhost:7200/protocol"]
      interval: 10s
      timeout: 5s
      retries: 12

volumes:
  graphdb-data:
`, defaultImage, defaultPort)
}

func starterConfig(repoID string) string {
	return fmt.Sprintf(`# graphseed configuration. Run 'graphseed provision' to create the
# repositories below, then 'graphseed import' to load the datasets.

database:
  type: sqlite
  dsn: graphseed.db

graphdb:
  url: http://localhost:%d
  # username: admin
  # password: set via GRAPHSEED_GRAPHDB_PASSWORD

repositories:
  - id: %s
    title: %s repository
    ruleset: rdfsplus-optimized

datasets:
  - name: example
    repository: %s
    source: data/example.ttl
    graph: https://example.org/graphs/example
    replace: true
`, defaultPort, repoID, repoID, repoID)
}

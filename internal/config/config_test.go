// Copyright (c) 2025 the graphseed authors
// graphseed - GraphDB repository provisioning and RDF import tool
// This source code is licensed under the MIT license found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
)

const sampleConfig = `database:
  type: sqlite
  dsn: ./graphseed.db

graphdb:
  url: http://localhost:7200
  username: admin
  timeout: 45s
  retries: 3

repositories:
  - id: spendcast
    title: Spendcast
    ruleset: rdfsplus-optimized

datasets:
  - name: spend
    repository: spendcast
    source: data/spend.ttl.gz
    graph: https://example.org/graphs/spend
    replace: true
    schedule: "30 2 * * *"

language: en
ssh_key_path: /home/ops/.ssh/graphseed_ed25519
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "graphseed.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigFromFile(t *testing.T) {
	path := writeConfig(t, sampleConfig)
	cmd := &cobra.Command{}

	cfg, err := LoadConfig[Config](cmd, nil, &path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Database.Type != "sqlite" || cfg.Database.Dsn != "./graphseed.db" {
		t.Errorf("database = %+v", cfg.Database)
	}
	if cfg.GraphDB.URL != "http://localhost:7200" || cfg.GraphDB.Username != "admin" {
		t.Errorf("graphdb = %+v", cfg.GraphDB)
	}
	if cfg.GraphDB.Retries != 3 {
		t.Errorf("retries = %d", cfg.GraphDB.Retries)
	}

	if len(cfg.Repositories) != 1 || cfg.Repositories[0].Ruleset != "rdfsplus-optimized" {
		t.Errorf("repositories = %+v", cfg.Repositories)
	}
	if len(cfg.Datasets) != 1 {
		t.Fatalf("datasets = %+v", cfg.Datasets)
	}
	ds := cfg.Datasets[0]
	if ds.Name != "spend" || ds.Repository != "spendcast" || !ds.Replace || ds.Schedule != "30 2 * * *" {
		t.Errorf("dataset = %+v", ds)
	}
	if cfg.SSHKeyPath != "/home/ops/.ssh/graphseed_ed25519" {
		t.Errorf("ssh_key_path = %q", cfg.SSHKeyPath)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, "language: de\n")
	cmd := &cobra.Command{}
	defaults := map[string]any{
		"database.type": "sqlite",
		"graphdb.url":   "http://localhost:7200",
	}

	cfg, err := LoadConfig[Config](cmd, defaults, &path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Database.Type != "sqlite" {
		t.Errorf("default database.type not applied: %q", cfg.Database.Type)
	}
	if cfg.GraphDB.URL != "http://localhost:7200" {
		t.Errorf("default graphdb.url not applied: %q", cfg.GraphDB.URL)
	}
	// File values beat defaults.
	if cfg.Language != "de" {
		t.Errorf("language = %q", cfg.Language)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	path := writeConfig(t, sampleConfig)
	t.Setenv("GRAPHSEED_DATABASE_DSN", "postgres://override")
	cmd := &cobra.Command{}

	cfg, err := LoadConfig[Config](cmd, nil, &path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Database.Dsn != "postgres://override" {
		t.Errorf("env override not applied: %q", cfg.Database.Dsn)
	}
}

func TestLoadConfigFlagOverride(t *testing.T) {
	path := writeConfig(t, sampleConfig)
	cmd := &cobra.Command{}
	cmd.Flags().String("database.type", "", "")
	if err := cmd.Flags().Set("database.type", "mysql"); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig[Config](cmd, nil, &path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Database.Type != "mysql" {
		t.Errorf("flag override not applied: %q", cfg.Database.Type)
	}
}

func TestLoadConfigBadYAML(t *testing.T) {
	path := writeConfig(t, "database: [not: valid\n")
	cmd := &cobra.Command{}
	if _, err := LoadConfig[Config](cmd, nil, &path); err == nil {
		t.Fatal("expected an error for malformed YAML")
	}
}

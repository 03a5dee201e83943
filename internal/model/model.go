// Copyright (c) 2025 the graphseed authors
// graphseed - GraphDB repository provisioning and RDF import tool
// This source code is licensed under the MIT license found in the LICENSE file.

// Package model contains the shared data structures used across graphseed:
// declared repositories and datasets, import ledger records, audit entries
// and the backup envelope.
package model

import (
	"fmt"
	"time"
)

// Repository describes a GraphDB repository that graphseed manages.
// The declared form comes from graphseed.yaml; the provisioned form is
// recorded in the state ledger.
type Repository struct {
	ID      int
	RepoID  string // GraphDB repository id, e.g. "spendcast"
	Title   string
	Ruleset string // e.g. "rdfsplus-optimized"

	// ConfigHash is the hash of the repository parameters at provision
	// time. A changed hash on a later run is reported as drift.
	ConfigHash    string
	ProvisionedAt time.Time
}

// String returns the repository id, or id (title) when a title is set.
func (r Repository) String() string {
	if r.Title != "" {
		return fmt.Sprintf("%s (%s)", r.RepoID, r.Title)
	}
	return r.RepoID
}

// Dataset describes an RDF source bound to a repository.
type Dataset struct {
	Name       string
	Repository string
	Source     string // local path, http(s):// or sftp:// location
	Format     string // RDF format; empty means detect from extension
	Graph      string // optional named graph IRI
	Replace    bool   // replace the named graph instead of adding to it
	Schedule   string // optional cron spec used by `graphseed serve`
}

// String returns the name->repository representation.
func (d Dataset) String() string {
	return fmt.Sprintf("%s->%s", d.Name, d.Repository)
}

// Import status values recorded in the ledger.
const (
	ImportStatusOK      = "ok"
	ImportStatusFailed  = "failed"
	ImportStatusSkipped = "skipped"
)

// ImportRecord is one row of the import ledger. A dataset import is
// idempotent: when the latest successful record for (dataset, repository)
// carries the same content hash, the import is skipped.
type ImportRecord struct {
	ID          int
	RunID       string // correlates all records of one import run
	Dataset     string
	Repository  string
	Source      string
	ContentHash string // sha256 of the decoded RDF payload
	Bytes       int64
	Status      string
	Error       string
	ImportedAt  time.Time
}

// String returns the dataset->repository representation of the record.
func (r ImportRecord) String() string {
	return fmt.Sprintf("%s->%s", r.Dataset, r.Repository)
}

// AuditLogEntry represents a single logged action in the audit trail.
type AuditLogEntry struct {
	ID        int
	Timestamp string
	Username  string
	Action    string
	Details   string
}

// RepoState classifies a repository in a status report.
type RepoState string

const (
	RepoStateOK         RepoState = "ok"         // declared, present
	RepoStateMissing    RepoState = "missing"    // declared, absent on the server
	RepoStateUndeclared RepoState = "undeclared" // present on the server, not declared
)

// RepoStatus is the per-repository result of `graphseed status`.
type RepoStatus struct {
	RepoID     string
	Title      string
	State      RepoState
	Size       int64 // statement count, -1 when unknown
	LastImport *ImportRecord
}

// DatasetDrift reports a dataset whose current content hash differs from
// the last successfully imported one.
type DatasetDrift struct {
	Dataset     Dataset
	LedgerHash  string
	CurrentHash string
}

// BackupData is the envelope for a full state-ledger backup. It is stored
// as zstd-compressed JSON and is portable across database backends.
type BackupData struct {
	Version      int             `json:"version"`
	ExportedAt   time.Time       `json:"exported_at"`
	Repositories []Repository    `json:"repositories"`
	Imports      []ImportRecord  `json:"imports"`
	AuditLog     []AuditLogEntry `json:"audit_log"`
	KnownHosts   []KnownHost     `json:"known_hosts"`
}

// KnownHost is a trusted SSH host key used for sftp:// dataset sources.
type KnownHost struct {
	Hostname string `json:"hostname"`
	Key      string `json:"key"`
}

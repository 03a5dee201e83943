// Copyright (c) 2025 the graphseed authors
// graphseed - GraphDB repository provisioning and RDF import tool
// This source code is licensed under the MIT license found in the LICENSE file.

// Package core contains the command facades behind the CLI and TUI. The
// facades are deterministic: they operate via small interfaces describing
// the side-effect boundaries (state ledger, GraphDB API, dataset fetching)
// and return results instead of printing.
package core

import (
	"context"
	"io"

	"github.com/spendcast/graphseed/internal/graphdb"
	"github.com/spendcast/graphseed/internal/model"
	"github.com/spendcast/graphseed/internal/source"
	"github.com/spendcast/graphseed/internal/sparql"
)

// Store defines the state-ledger operations used by the facades.
// Implementations delegate to the DB layer.
type Store interface {
	UpsertRepository(repoID, title, ruleset, configHash string) error
	GetRepository(repoID string) (*model.Repository, error)
	GetAllRepositories() ([]model.Repository, error)
	DeleteRepository(repoID string) error

	RecordImport(rec model.ImportRecord) (int, error)
	GetLatestImport(dataset, repository string) (*model.ImportRecord, error)
	GetRecentImports(limit int) ([]model.ImportRecord, error)

	// Host keys for sftp:// dataset sources
	GetKnownHostKey(hostname string) (string, error)
	AddKnownHostKey(hostname, key string) error

	// Backup helpers
	ExportDataForBackup() (*model.BackupData, error)
	ImportDataFromBackup(*model.BackupData) error
	IntegrateDataFromBackup(*model.BackupData) error
}

// GraphClient is the subset of the GraphDB API the facades use.
type GraphClient interface {
	Ping(ctx context.Context) error
	WaitUntilReady(ctx context.Context) error
	ProtocolVersion(ctx context.Context) (string, error)
	ListRepositories(ctx context.Context) ([]graphdb.RepositoryInfo, error)
	CreateRepository(ctx context.Context, spec graphdb.RepositorySpec) error
	DeleteRepository(ctx context.Context, repoID string) error
	RepositorySize(ctx context.Context, repoID string) (int64, error)
	ImportStatements(ctx context.Context, repoID string, r io.Reader, format graphdb.RDFFormat, graph string, replace bool) error
	ClearGraph(ctx context.Context, repoID, graph string) error
	Query(ctx context.Context, repoID, query string) (*sparql.Results, error)
}

// Fetcher retrieves dataset payloads from their sources.
type Fetcher interface {
	Fetch(ctx context.Context, src, formatOverride string) (*source.Payload, error)
}

// Reporter receives progress output during long-running operations.
type Reporter interface {
	Reportf(format string, args ...any)
}

// HostFetcher fetches host key material from a remote host.
type HostFetcher interface {
	FetchHostKey(host string) (string, error)
}

// StoreFactory creates stores for migration targets.
type StoreFactory interface {
	NewStoreFromDSN(dbType, dsn string) (Store, error)
}

// DBMaintainer runs engine-specific maintenance operations.
type DBMaintainer interface {
	RunDBMaintenance(dbType, dsn string, skipIntegrity bool) error
}

// Copyright (c) 2025 the graphseed authors
// graphseed - GraphDB repository provisioning and RDF import tool
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"github.com/spendcast/graphseed/internal/model"
)

// Store defines the interface for all state-ledger operations in graphseed.
// This allows for multiple database backends to be implemented.
type Store interface {
	// Repository ledger methods
	UpsertRepository(repoID, title, ruleset, configHash string) error
	GetRepository(repoID string) (*model.Repository, error)
	GetAllRepositories() ([]model.Repository, error)
	DeleteRepository(repoID string) error

	// Import ledger methods
	RecordImport(rec model.ImportRecord) (int, error)
	GetLatestImport(dataset, repository string) (*model.ImportRecord, error)
	GetRecentImports(limit int) ([]model.ImportRecord, error)

	// Known host methods (sftp:// dataset sources)
	GetKnownHostKey(hostname string) (string, error)
	AddKnownHostKey(hostname, key string) error

	// Audit log methods
	GetAllAuditLogEntries() ([]model.AuditLogEntry, error)
	LogAction(action string, details string) error

	// Backup methods
	ExportDataForBackup() (*model.BackupData, error)
	ImportDataFromBackup(backup *model.BackupData) error
	IntegrateDataFromBackup(backup *model.BackupData) error
}

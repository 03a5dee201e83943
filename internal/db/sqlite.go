// Copyright (c) 2025 the graphseed authors
// graphseed - GraphDB repository provisioning and RDF import tool
// This source code is licensed under the MIT license found in the LICENSE file.

// package db provides the data access layer for graphseed.
// This file contains the SQLite implementation of the ledger store.
package db // import "github.com/spendcast/graphseed/internal/db"

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spendcast/graphseed/internal/model"
	"github.com/uptrace/bun"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SqliteStore is the SQLite implementation of the Store interface.
type SqliteStore struct {
	bun *bun.DB
}

// UpsertRepository records a provisioned repository in the ledger.
func (s *SqliteStore) UpsertRepository(repoID, title, ruleset, configHash string) error {
	err := UpsertRepositoryBun(s.bun, repoID, title, ruleset, configHash)
	if err == nil {
		_ = s.LogAction("PROVISION_REPOSITORY", fmt.Sprintf("repository: %s", repoID))
	}
	return err
}

// GetRepository retrieves a single repository record by its GraphDB id.
func (s *SqliteStore) GetRepository(repoID string) (*model.Repository, error) {
	return GetRepositoryBun(s.bun, repoID)
}

// GetAllRepositories retrieves all repository records from the ledger.
func (s *SqliteStore) GetAllRepositories() ([]model.Repository, error) {
	return GetAllRepositoriesBun(s.bun)
}

// DeleteRepository removes a repository record from the ledger.
func (s *SqliteStore) DeleteRepository(repoID string) error {
	err := DeleteRepositoryBun(s.bun, repoID)
	if err == nil {
		_ = s.LogAction("DROP_REPOSITORY", fmt.Sprintf("repository: %s", repoID))
	}
	return err
}

// RecordImport appends an import record to the ledger.
func (s *SqliteStore) RecordImport(rec model.ImportRecord) (int, error) {
	id, err := RecordImportBun(s.bun, rec)
	if err == nil && rec.Status == model.ImportStatusOK {
		_ = s.LogAction("IMPORT_DATASET", fmt.Sprintf("dataset: %s, hash: %s", rec.String(), rec.ContentHash))
	}
	return id, err
}

// GetLatestImport returns the most recent successful import for a dataset, or nil.
func (s *SqliteStore) GetLatestImport(dataset, repository string) (*model.ImportRecord, error) {
	return GetLatestImportBun(s.bun, dataset, repository)
}

// GetRecentImports returns the most recent import records, newest first.
func (s *SqliteStore) GetRecentImports(limit int) ([]model.ImportRecord, error) {
	return GetRecentImportsBun(s.bun, limit)
}

// GetKnownHostKey retrieves the trusted public key for a given hostname.
func (s *SqliteStore) GetKnownHostKey(hostname string) (string, error) {
	var key string
	err := QueryRawInto(context.Background(), s.bun, &key, "SELECT key FROM known_hosts WHERE hostname = ?", hostname)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil // No key found is not an error, it's a state.
		}
		return "", err
	}
	return key, nil
}

// AddKnownHostKey adds a new trusted host key to the database.
func (s *SqliteStore) AddKnownHostKey(hostname, key string) error {
	// INSERT OR REPLACE will add the key if it doesn't exist, or update it if
	// it does. Useful if a host is legitimately re-provisioned.
	_, err := ExecRaw(context.Background(), s.bun, "INSERT OR REPLACE INTO known_hosts (hostname, key) VALUES (?, ?)", hostname, key)
	if err == nil {
		_ = s.LogAction("TRUST_HOST", fmt.Sprintf("hostname: %s", hostname))
	}
	return err
}

// GetAllAuditLogEntries retrieves all entries from the audit log, most recent first.
func (s *SqliteStore) GetAllAuditLogEntries() ([]model.AuditLogEntry, error) {
	return GetAllAuditLogEntriesBun(s.bun)
}

// LogAction records an audit trail event.
func (s *SqliteStore) LogAction(action string, details string) error {
	return LogActionBun(s.bun, action, details)
}

// ExportDataForBackup retrieves all data from the database for a backup.
// It uses a transaction to ensure a consistent snapshot of the data.
func (s *SqliteStore) ExportDataForBackup() (*model.BackupData, error) {
	return ExportDataForBackupBun(s.bun)
}

// ImportDataFromBackup restores the database from a backup data structure.
// It performs a full wipe-and-replace within a single transaction to ensure atomicity.
func (s *SqliteStore) ImportDataFromBackup(backup *model.BackupData) error {
	return ImportDataFromBackupBun(s.bun, backup)
}

// IntegrateDataFromBackup restores data from a backup in a non-destructive way,
// skipping entries that already exist.
func (s *SqliteStore) IntegrateDataFromBackup(backup *model.BackupData) error {
	return IntegrateDataFromBackupBun(s.bun, backup)
}

// Copyright (c) 2025 the graphseed authors
// graphseed - GraphDB repository provisioning and RDF import tool
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"database/sql"
	"fmt"
	"os/user"
	"time"

	"github.com/spendcast/graphseed/internal/model"
	"github.com/uptrace/bun"
)

// RepositoryModel maps the `repositories` table for Bun queries.
type RepositoryModel struct {
	bun.BaseModel `bun:"table:repositories"`
	ID            int       `bun:"id,pk,autoincrement"`
	RepoID        string    `bun:"repo_id"`
	Title         string    `bun:"title"`
	Ruleset       string    `bun:"ruleset"`
	ConfigHash    string    `bun:"config_hash"`
	ProvisionedAt time.Time `bun:"provisioned_at"`
}

// ImportModel maps the `imports` table.
type ImportModel struct {
	bun.BaseModel `bun:"table:imports"`
	ID            int            `bun:"id,pk,autoincrement"`
	RunID         string         `bun:"run_id"`
	Dataset       string         `bun:"dataset"`
	Repository    string         `bun:"repository"`
	Source        string         `bun:"source"`
	ContentHash   string         `bun:"content_hash"`
	Bytes         int64          `bun:"bytes"`
	Status        string         `bun:"status"`
	Error         sql.NullString `bun:"error"`
	ImportedAt    time.Time      `bun:"imported_at"`
}

// AuditLogModel maps the audit_log table.
type AuditLogModel struct {
	bun.BaseModel `bun:"table:audit_log"`
	ID            int    `bun:"id,pk,autoincrement"`
	Timestamp     string `bun:"timestamp"`
	Username      string `bun:"username"`
	Action        string `bun:"action"`
	Details       string `bun:"details"`
}

// KnownHostModel maps known_hosts.
type KnownHostModel struct {
	bun.BaseModel `bun:"table:known_hosts"`
	Hostname      string `bun:"hostname,pk"`
	Key           string `bun:"key"`
}

func repositoryModelToModel(m RepositoryModel) model.Repository {
	return model.Repository{
		ID:            m.ID,
		RepoID:        m.RepoID,
		Title:         m.Title,
		Ruleset:       m.Ruleset,
		ConfigHash:    m.ConfigHash,
		ProvisionedAt: m.ProvisionedAt,
	}
}

func importModelToModel(m ImportModel) model.ImportRecord {
	rec := model.ImportRecord{
		ID:          m.ID,
		RunID:       m.RunID,
		Dataset:     m.Dataset,
		Repository:  m.Repository,
		Source:      m.Source,
		ContentHash: m.ContentHash,
		Bytes:       m.Bytes,
		Status:      m.Status,
		ImportedAt:  m.ImportedAt,
	}
	if m.Error.Valid {
		rec.Error = m.Error.String
	}
	return rec
}

// UpsertRepositoryBun inserts or updates a repository ledger record keyed by
// repo_id. The update path refreshes title, ruleset and config hash but keeps
// the original provisioned_at timestamp.
func UpsertRepositoryBun(bdb *bun.DB, repoID, title, ruleset, configHash string) error {
	ctx := context.Background()

	var existing RepositoryModel
	err := bdb.NewSelect().Model(&existing).Where("repo_id = ?", repoID).Limit(1).Scan(ctx)
	if err != nil && err != sql.ErrNoRows {
		return err
	}
	if err == sql.ErrNoRows {
		_, err = bdb.NewInsert().Model(&RepositoryModel{
			RepoID:        repoID,
			Title:         title,
			Ruleset:       ruleset,
			ConfigHash:    configHash,
			ProvisionedAt: time.Now().UTC(),
		}).Exec(ctx)
		return MapDBError(err)
	}

	_, err = bdb.NewUpdate().Model(&RepositoryModel{}).
		Set("title = ?", title).
		Set("ruleset = ?", ruleset).
		Set("config_hash = ?", configHash).
		Where("repo_id = ?", repoID).
		Exec(ctx)
	return err
}

// GetRepositoryBun returns the ledger record for a repository id, or nil.
func GetRepositoryBun(bdb *bun.DB, repoID string) (*model.Repository, error) {
	ctx := context.Background()

	var m RepositoryModel
	err := bdb.NewSelect().Model(&m).Where("repo_id = ?", repoID).Limit(1).Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	repo := repositoryModelToModel(m)
	return &repo, nil
}

// GetAllRepositoriesBun returns all repository ledger records ordered by repo_id.
func GetAllRepositoriesBun(bdb *bun.DB) ([]model.Repository, error) {
	ctx := context.Background()

	var ms []RepositoryModel
	if err := bdb.NewSelect().Model(&ms).Order("repo_id ASC").Scan(ctx); err != nil {
		return nil, err
	}
	repos := make([]model.Repository, 0, len(ms))
	for _, m := range ms {
		repos = append(repos, repositoryModelToModel(m))
	}
	return repos, nil
}

// DeleteRepositoryBun removes a repository ledger record by repo_id.
func DeleteRepositoryBun(bdb *bun.DB, repoID string) error {
	ctx := context.Background()
	_, err := bdb.NewDelete().Model(&RepositoryModel{}).Where("repo_id = ?", repoID).Exec(ctx)
	return err
}

// RecordImportBun appends a record to the import ledger and returns its id.
func RecordImportBun(bdb *bun.DB, rec model.ImportRecord) (int, error) {
	ctx := context.Background()

	m := &ImportModel{
		RunID:       rec.RunID,
		Dataset:     rec.Dataset,
		Repository:  rec.Repository,
		Source:      rec.Source,
		ContentHash: rec.ContentHash,
		Bytes:       rec.Bytes,
		Status:      rec.Status,
		ImportedAt:  rec.ImportedAt,
	}
	if m.ImportedAt.IsZero() {
		m.ImportedAt = time.Now().UTC()
	}
	if rec.Error != "" {
		m.Error = sql.NullString{String: rec.Error, Valid: true}
	}
	if _, err := bdb.NewInsert().Model(m).Exec(ctx); err != nil {
		return 0, err
	}
	return m.ID, nil
}

// GetLatestImportBun returns the most recent successful import for the
// (dataset, repository) pair, or nil when the dataset has never been imported.
func GetLatestImportBun(bdb *bun.DB, dataset, repository string) (*model.ImportRecord, error) {
	ctx := context.Background()

	var m ImportModel
	err := bdb.NewSelect().Model(&m).
		Where("dataset = ?", dataset).
		Where("repository = ?", repository).
		Where("status = ?", model.ImportStatusOK).
		Order("imported_at DESC").
		Order("id DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	rec := importModelToModel(m)
	return &rec, nil
}

// GetRecentImportsBun returns up to limit import records, newest first.
func GetRecentImportsBun(bdb *bun.DB, limit int) ([]model.ImportRecord, error) {
	ctx := context.Background()

	var ms []ImportModel
	q := bdb.NewSelect().Model(&ms).Order("imported_at DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	recs := make([]model.ImportRecord, 0, len(ms))
	for _, m := range ms {
		recs = append(recs, importModelToModel(m))
	}
	return recs, nil
}

// LogActionBun appends an entry to the audit log. The operating system user
// of the process is recorded alongside the action.
func LogActionBun(bdb *bun.DB, action, details string) error {
	ctx := context.Background()

	username := "unknown"
	if u, err := user.Current(); err == nil && u.Username != "" {
		username = u.Username
	}

	_, err := bdb.NewInsert().Model(&AuditLogModel{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Username:  username,
		Action:    action,
		Details:   details,
	}).Exec(ctx)
	return err
}

// GetAllAuditLogEntriesBun returns the audit log, most recent first.
func GetAllAuditLogEntriesBun(bdb *bun.DB) ([]model.AuditLogEntry, error) {
	ctx := context.Background()

	var ms []AuditLogModel
	if err := bdb.NewSelect().Model(&ms).Order("id DESC").Scan(ctx); err != nil {
		return nil, err
	}
	entries := make([]model.AuditLogEntry, 0, len(ms))
	for _, m := range ms {
		entries = append(entries, model.AuditLogEntry{
			ID:        m.ID,
			Timestamp: m.Timestamp,
			Username:  m.Username,
			Action:    m.Action,
			Details:   m.Details,
		})
	}
	return entries, nil
}

// ExportDataForBackupBun snapshots the full ledger inside a transaction so a
// backup is internally consistent.
func ExportDataForBackupBun(bdb *bun.DB) (*model.BackupData, error) {
	ctx := context.Background()

	tx, err := bdb.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	backup := &model.BackupData{
		Version:    1,
		ExportedAt: time.Now().UTC(),
	}

	var repos []RepositoryModel
	if err := tx.NewSelect().Model(&repos).Order("id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("backup: export repositories: %w", err)
	}
	for _, m := range repos {
		backup.Repositories = append(backup.Repositories, repositoryModelToModel(m))
	}

	var imports []ImportModel
	if err := tx.NewSelect().Model(&imports).Order("id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("backup: export imports: %w", err)
	}
	for _, m := range imports {
		backup.Imports = append(backup.Imports, importModelToModel(m))
	}

	var audits []AuditLogModel
	if err := tx.NewSelect().Model(&audits).Order("id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("backup: export audit log: %w", err)
	}
	for _, m := range audits {
		backup.AuditLog = append(backup.AuditLog, model.AuditLogEntry{
			ID:        m.ID,
			Timestamp: m.Timestamp,
			Username:  m.Username,
			Action:    m.Action,
			Details:   m.Details,
		})
	}

	var hosts []KnownHostModel
	if err := tx.NewSelect().Model(&hosts).Order("hostname ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("backup: export known hosts: %w", err)
	}
	for _, m := range hosts {
		backup.KnownHosts = append(backup.KnownHosts, model.KnownHost{Hostname: m.Hostname, Key: m.Key})
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return backup, nil
}

// ImportDataFromBackupBun performs a full wipe-and-replace restore within a
// single transaction to ensure atomicity.
func ImportDataFromBackupBun(bdb *bun.DB, backup *model.BackupData) error {
	ctx := context.Background()

	tx, err := bdb.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	// Bun requires a WHERE clause on deletes; raw statements keep the wipe explicit.
	for _, table := range []string{"imports", "repositories", "audit_log", "known_hosts"} {
		if _, err := ExecRaw(ctx, tx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("restore: wipe %s: %w", table, err)
		}
	}

	if err := insertBackupRows(ctx, tx, backup, false); err != nil {
		return err
	}
	return tx.Commit()
}

// IntegrateDataFromBackupBun restores data from a backup in a non-destructive
// way, skipping entries that already exist.
func IntegrateDataFromBackupBun(bdb *bun.DB, backup *model.BackupData) error {
	ctx := context.Background()

	tx, err := bdb.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := insertBackupRows(ctx, tx, backup, true); err != nil {
		return err
	}
	return tx.Commit()
}

// insertBackupRows writes backup contents into the ledger tables. When
// skipExisting is set, rows whose natural key is already present are left
// untouched.
func insertBackupRows(ctx context.Context, tx bun.Tx, backup *model.BackupData, skipExisting bool) error {
	for _, r := range backup.Repositories {
		if skipExisting {
			exists, err := tx.NewSelect().Model(&RepositoryModel{}).Where("repo_id = ?", r.RepoID).Exists(ctx)
			if err != nil {
				return err
			}
			if exists {
				continue
			}
		}
		if _, err := tx.NewInsert().Model(&RepositoryModel{
			RepoID:        r.RepoID,
			Title:         r.Title,
			Ruleset:       r.Ruleset,
			ConfigHash:    r.ConfigHash,
			ProvisionedAt: r.ProvisionedAt,
		}).Exec(ctx); err != nil {
			return fmt.Errorf("restore: insert repository %s: %w", r.RepoID, err)
		}
	}

	for _, rec := range backup.Imports {
		if skipExisting && rec.RunID != "" {
			exists, err := tx.NewSelect().Model(&ImportModel{}).
				Where("run_id = ?", rec.RunID).
				Where("dataset = ?", rec.Dataset).
				Exists(ctx)
			if err != nil {
				return err
			}
			if exists {
				continue
			}
		}
		m := &ImportModel{
			RunID:       rec.RunID,
			Dataset:     rec.Dataset,
			Repository:  rec.Repository,
			Source:      rec.Source,
			ContentHash: rec.ContentHash,
			Bytes:       rec.Bytes,
			Status:      rec.Status,
			ImportedAt:  rec.ImportedAt,
		}
		if rec.Error != "" {
			m.Error = sql.NullString{String: rec.Error, Valid: true}
		}
		if _, err := tx.NewInsert().Model(m).Exec(ctx); err != nil {
			return fmt.Errorf("restore: insert import %s: %w", rec.Dataset, err)
		}
	}

	for _, e := range backup.AuditLog {
		if _, err := tx.NewInsert().Model(&AuditLogModel{
			Timestamp: e.Timestamp,
			Username:  e.Username,
			Action:    e.Action,
			Details:   e.Details,
		}).Exec(ctx); err != nil {
			return fmt.Errorf("restore: insert audit entry: %w", err)
		}
	}

	for _, h := range backup.KnownHosts {
		if skipExisting {
			exists, err := tx.NewSelect().Model(&KnownHostModel{}).Where("hostname = ?", h.Hostname).Exists(ctx)
			if err != nil {
				return err
			}
			if exists {
				continue
			}
		}
		if _, err := tx.NewInsert().Model(&KnownHostModel{Hostname: h.Hostname, Key: h.Key}).Exec(ctx); err != nil {
			return fmt.Errorf("restore: insert known host %s: %w", h.Hostname, err)
		}
	}

	return nil
}

// Copyright (c) 2025 the graphseed authors
// graphseed - GraphDB repository provisioning and RDF import tool
// This source code is licensed under the MIT license found in the LICENSE file.
package cli

import (
	log "github.com/charmbracelet/log"
	"golang.org/x/crypto/ssh"

	"github.com/spendcast/graphseed/internal/core"
	"github.com/spendcast/graphseed/internal/db"
	"github.com/spendcast/graphseed/internal/model"
	"github.com/spendcast/graphseed/internal/source"
)

// dbStoreAdapter exposes the package-level db store as a core.Store, for
// code paths where the store was initialized elsewhere (tests, TUI).
type dbStoreAdapter struct{}

func (dbStoreAdapter) UpsertRepository(repoID, title, ruleset, configHash string) error {
	return db.UpsertRepository(repoID, title, ruleset, configHash)
}
func (dbStoreAdapter) GetRepository(repoID string) (*model.Repository, error) {
	return db.GetRepository(repoID)
}
func (dbStoreAdapter) GetAllRepositories() ([]model.Repository, error) {
	return db.GetAllRepositories()
}
func (dbStoreAdapter) DeleteRepository(repoID string) error {
	return db.DeleteRepository(repoID)
}
func (dbStoreAdapter) RecordImport(rec model.ImportRecord) (int, error) {
	return db.RecordImport(rec)
}
func (dbStoreAdapter) GetLatestImport(dataset, repository string) (*model.ImportRecord, error) {
	return db.GetLatestImport(dataset, repository)
}
func (dbStoreAdapter) GetRecentImports(limit int) ([]model.ImportRecord, error) {
	return db.GetRecentImports(limit)
}
func (dbStoreAdapter) GetKnownHostKey(hostname string) (string, error) {
	return db.GetKnownHostKey(hostname)
}
func (dbStoreAdapter) AddKnownHostKey(hostname, key string) error {
	return db.AddKnownHostKey(hostname, key)
}
func (dbStoreAdapter) ExportDataForBackup() (*model.BackupData, error) {
	return db.ExportDataForBackup()
}
func (dbStoreAdapter) ImportDataFromBackup(backup *model.BackupData) error {
	return db.ImportDataFromBackup(backup)
}
func (dbStoreAdapter) IntegrateDataFromBackup(backup *model.BackupData) error {
	return db.IntegrateDataFromBackup(backup)
}

var _ core.Store = dbStoreAdapter{}

// newFetcher builds a dataset fetcher wired to the ledger's known_hosts and
// the configured SSH key.
func newFetcher() *source.Fetcher {
	f := source.New(appStore)
	f.SSHKeyPath = appConfig.SSHKeyPath
	return f
}

// cliHostFetcher adapts source.GetRemoteHostKey to core.HostFetcher.
type cliHostFetcher struct{}

func (cliHostFetcher) FetchHostKey(host string) (string, error) {
	key, err := source.GetRemoteHostKey(host)
	if err != nil {
		return "", err
	}
	return string(ssh.MarshalAuthorizedKey(key)), nil
}

var _ core.HostFetcher = cliHostFetcher{}

// cliReporter implements core.Reporter by printing through the CLI logger.
type cliReporter struct{}

func (r *cliReporter) Reportf(format string, args ...any) {
	log.Infof(format, args...)
}

var _ core.Reporter = (*cliReporter)(nil)

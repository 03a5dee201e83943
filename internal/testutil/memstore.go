// Copyright (c) 2025 the graphseed authors
// graphseed - GraphDB repository provisioning and RDF import tool
// This source code is licensed under the MIT license found in the LICENSE file.

// Package testutil provides in-memory test doubles for the state ledger and
// the GraphDB API so facade tests run without a database or a server.
package testutil

import (
	"sync"
	"time"

	"github.com/spendcast/graphseed/internal/model"
)

// MemStore is an in-memory state ledger. It mirrors the semantics of the DB
// stores closely enough for facade tests: GetLatestImport only considers
// successful imports, GetRecentImports returns newest first.
type MemStore struct {
	mu sync.Mutex

	Repos      map[string]model.Repository
	Imports    []model.ImportRecord
	KnownHosts map[string]string
	AuditLog   []model.AuditLogEntry

	// Err, when set, is returned by every method. Use it to simulate a
	// broken ledger.
	Err error

	nextID int
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		Repos:      make(map[string]model.Repository),
		KnownHosts: make(map[string]string),
	}
}

func (m *MemStore) UpsertRepository(repoID, title, ruleset, configHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	existing, ok := m.Repos[repoID]
	if !ok {
		m.nextID++
		existing = model.Repository{ID: m.nextID, RepoID: repoID, ProvisionedAt: time.Now()}
	}
	existing.Title = title
	existing.Ruleset = ruleset
	existing.ConfigHash = configHash
	m.Repos[repoID] = existing
	return nil
}

func (m *MemStore) GetRepository(repoID string) (*model.Repository, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	r, ok := m.Repos[repoID]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *MemStore) GetAllRepositories() ([]model.Repository, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]model.Repository, 0, len(m.Repos))
	for _, r := range m.Repos {
		out = append(out, r)
	}
	return out, nil
}

func (m *MemStore) DeleteRepository(repoID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	delete(m.Repos, repoID)
	return nil
}

func (m *MemStore) RecordImport(rec model.ImportRecord) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	m.nextID++
	rec.ID = m.nextID
	if rec.ImportedAt.IsZero() {
		rec.ImportedAt = time.Now()
	}
	m.Imports = append(m.Imports, rec)
	return rec.ID, nil
}

func (m *MemStore) GetLatestImport(dataset, repository string) (*model.ImportRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var newest *model.ImportRecord
	for i := range m.Imports {
		rec := m.Imports[i]
		if rec.Dataset != dataset || rec.Repository != repository || rec.Status != model.ImportStatusOK {
			continue
		}
		if newest == nil || !rec.ImportedAt.Before(newest.ImportedAt) {
			newest = &m.Imports[i]
		}
	}
	if newest == nil {
		return nil, nil
	}
	cp := *newest
	return &cp, nil
}

func (m *MemStore) GetRecentImports(limit int) ([]model.ImportRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]model.ImportRecord, 0, limit)
	for i := len(m.Imports) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.Imports[i])
	}
	return out, nil
}

func (m *MemStore) GetKnownHostKey(hostname string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	return m.KnownHosts[hostname], nil
}

func (m *MemStore) AddKnownHostKey(hostname, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	// Matches the DB stores: re-adding replaces the key.
	m.KnownHosts[hostname] = key
	return nil
}

func (m *MemStore) GetAllAuditLogEntries() ([]model.AuditLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]model.AuditLogEntry, len(m.AuditLog))
	copy(out, m.AuditLog)
	return out, nil
}

func (m *MemStore) ExportDataForBackup() (*model.BackupData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	data := &model.BackupData{Version: 1, ExportedAt: time.Now()}
	for _, r := range m.Repos {
		data.Repositories = append(data.Repositories, r)
	}
	data.Imports = append(data.Imports, m.Imports...)
	data.AuditLog = append(data.AuditLog, m.AuditLog...)
	for host, key := range m.KnownHosts {
		data.KnownHosts = append(data.KnownHosts, model.KnownHost{Hostname: host, Key: key})
	}
	return data, nil
}

func (m *MemStore) ImportDataFromBackup(data *model.BackupData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Repos = make(map[string]model.Repository, len(data.Repositories))
	m.KnownHosts = make(map[string]string, len(data.KnownHosts))
	m.Imports = nil
	m.AuditLog = nil
	for _, r := range data.Repositories {
		m.Repos[r.RepoID] = r
	}
	m.Imports = append(m.Imports, data.Imports...)
	m.AuditLog = append(m.AuditLog, data.AuditLog...)
	for _, kh := range data.KnownHosts {
		m.KnownHosts[kh.Hostname] = kh.Key
	}
	return nil
}

func (m *MemStore) IntegrateDataFromBackup(data *model.BackupData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	for _, r := range data.Repositories {
		if _, exists := m.Repos[r.RepoID]; !exists {
			m.Repos[r.RepoID] = r
		}
	}
	for _, kh := range data.KnownHosts {
		if _, exists := m.KnownHosts[kh.Hostname]; !exists {
			m.KnownHosts[kh.Hostname] = kh.Key
		}
	}
	return nil
}

// Copyright (c) 2025 the graphseed authors
// graphseed - GraphDB repository provisioning and RDF import tool
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spendcast/graphseed/internal/model"
)

// newTestStore opens a fresh SQLite ledger in a temp directory and runs the
// embedded migrations.
func newTestStore(t *testing.T) Store {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "ledger.db")
	s, err := New("sqlite", dsn)
	if err != nil {
		t.Fatalf("New(sqlite): %v", err)
	}
	return s
}

func TestRepositoryLedger(t *testing.T) {
	s := newTestStore(t)

	if err := s.UpsertRepository("spendcast", "Spendcast", "rdfsplus-optimized", "h1"); err != nil {
		t.Fatalf("UpsertRepository: %v", err)
	}
	r, err := s.GetRepository("spendcast")
	if err != nil {
		t.Fatalf("GetRepository: %v", err)
	}
	if r == nil || r.Title != "Spendcast" || r.Ruleset != "rdfsplus-optimized" || r.ConfigHash != "h1" {
		t.Fatalf("unexpected repository: %+v", r)
	}
	if r.ProvisionedAt.IsZero() {
		t.Error("ProvisionedAt not set")
	}

	// Upsert updates in place.
	if err := s.UpsertRepository("spendcast", "Spendcast", "owl-horst", "h2"); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	r, _ = s.GetRepository("spendcast")
	if r.Ruleset != "owl-horst" || r.ConfigHash != "h2" {
		t.Errorf("upsert did not update: %+v", r)
	}
	all, err := s.GetAllRepositories()
	if err != nil || len(all) != 1 {
		t.Errorf("GetAllRepositories = %d entries (%v), want 1", len(all), err)
	}

	if err := s.DeleteRepository("spendcast"); err != nil {
		t.Fatalf("DeleteRepository: %v", err)
	}
	if r, _ := s.GetRepository("spendcast"); r != nil {
		t.Error("repository still present after delete")
	}
}

func TestGetRepositoryMissingReturnsNil(t *testing.T) {
	s := newTestStore(t)
	r, err := s.GetRepository("nope")
	if err != nil {
		t.Fatalf("GetRepository: %v", err)
	}
	if r != nil {
		t.Errorf("missing repository = %+v, want nil", r)
	}
}

func TestImportLedger(t *testing.T) {
	s := newTestStore(t)

	base := time.Now().Add(-time.Hour)
	records := []model.ImportRecord{
		{RunID: "r1", Dataset: "spend", Repository: "spendcast", ContentHash: "aaa", Bytes: 10, Status: model.ImportStatusOK, ImportedAt: base},
		{RunID: "r2", Dataset: "spend", Repository: "spendcast", ContentHash: "bbb", Bytes: 12, Status: model.ImportStatusOK, ImportedAt: base.Add(10 * time.Minute)},
		{RunID: "r3", Dataset: "spend", Repository: "spendcast", ContentHash: "ccc", Status: model.ImportStatusFailed, Error: "boom", ImportedAt: base.Add(20 * time.Minute)},
	}
	for _, rec := range records {
		if _, err := s.RecordImport(rec); err != nil {
			t.Fatalf("RecordImport: %v", err)
		}
	}

	// The latest *successful* import wins, not the failed one.
	last, err := s.GetLatestImport("spend", "spendcast")
	if err != nil {
		t.Fatalf("GetLatestImport: %v", err)
	}
	if last == nil || last.ContentHash != "bbb" {
		t.Fatalf("latest import = %+v, want the r2 record", last)
	}

	recent, err := s.GetRecentImports(2)
	if err != nil {
		t.Fatalf("GetRecentImports: %v", err)
	}
	if len(recent) != 2 || recent[0].RunID != "r3" {
		t.Errorf("recent = %+v, want newest first", recent)
	}

	if rec, _ := s.GetLatestImport("other", "spendcast"); rec != nil {
		t.Errorf("unknown dataset = %+v, want nil", rec)
	}
}

func TestKnownHosts(t *testing.T) {
	s := newTestStore(t)

	if key, err := s.GetKnownHostKey("files.example.org"); err != nil || key != "" {
		t.Fatalf("unknown host = (%q, %v), want empty", key, err)
	}
	if err := s.AddKnownHostKey("files.example.org", "ssh-ed25519 AAAA..."); err != nil {
		t.Fatalf("AddKnownHostKey: %v", err)
	}
	key, err := s.GetKnownHostKey("files.example.org")
	if err != nil || key != "ssh-ed25519 AAAA..." {
		t.Errorf("GetKnownHostKey = (%q, %v)", key, err)
	}
	// Re-adding replaces the key; a host may legitimately be re-provisioned.
	if err := s.AddKnownHostKey("files.example.org", "ssh-rsa BBBB..."); err != nil {
		t.Fatalf("replace host key: %v", err)
	}
	if key, _ := s.GetKnownHostKey("files.example.org"); key != "ssh-rsa BBBB..." {
		t.Errorf("key after replace = %q", key)
	}
}

func TestAuditLog(t *testing.T) {
	s := newTestStore(t)

	if err := s.LogAction("provision", "created repository spendcast"); err != nil {
		t.Fatalf("LogAction: %v", err)
	}
	entries, err := s.GetAllAuditLogEntries()
	if err != nil {
		t.Fatalf("GetAllAuditLogEntries: %v", err)
	}
	if len(entries) != 1 || entries[0].Action != "provision" {
		t.Errorf("entries = %+v", entries)
	}
}

func TestBackupRoundTrip(t *testing.T) {
	s := newTestStore(t)
	if err := s.UpsertRepository("spendcast", "Spendcast", "rdfsplus-optimized", "h1"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.RecordImport(model.ImportRecord{RunID: "r1", Dataset: "spend", Repository: "spendcast", Status: model.ImportStatusOK, ContentHash: "aaa"}); err != nil {
		t.Fatal(err)
	}
	if err := s.AddKnownHostKey("files.example.org", "ssh-ed25519 AAAA..."); err != nil {
		t.Fatal(err)
	}

	data, err := s.ExportDataForBackup()
	if err != nil {
		t.Fatalf("ExportDataForBackup: %v", err)
	}
	if len(data.Repositories) != 1 || len(data.Imports) != 1 || len(data.KnownHosts) != 1 {
		t.Fatalf("backup data: %+v", data)
	}

	target := newTestStore(t)
	if err := target.ImportDataFromBackup(data); err != nil {
		t.Fatalf("ImportDataFromBackup: %v", err)
	}
	if r, _ := target.GetRepository("spendcast"); r == nil {
		t.Error("repository not restored")
	}
	if rec, _ := target.GetLatestImport("spend", "spendcast"); rec == nil || rec.ContentHash != "aaa" {
		t.Errorf("import ledger not restored: %+v", rec)
	}
}

func TestIntegrateDataFromBackupKeepsExisting(t *testing.T) {
	s := newTestStore(t)
	if err := s.UpsertRepository("spendcast", "Local", "owl-horst", "local"); err != nil {
		t.Fatal(err)
	}

	other := newTestStore(t)
	if err := other.UpsertRepository("spendcast", "Imported", "rdfsplus-optimized", "imported"); err != nil {
		t.Fatal(err)
	}
	if err := other.UpsertRepository("archive", "Archive", "", "a1"); err != nil {
		t.Fatal(err)
	}
	data, err := other.ExportDataForBackup()
	if err != nil {
		t.Fatal(err)
	}

	if err := s.IntegrateDataFromBackup(data); err != nil {
		t.Fatalf("IntegrateDataFromBackup: %v", err)
	}
	r, _ := s.GetRepository("spendcast")
	if r == nil || r.Title != "Local" {
		t.Errorf("integrate overwrote an existing row: %+v", r)
	}
	if r, _ := s.GetRepository("archive"); r == nil {
		t.Error("integrate did not add the new row")
	}
}

func TestNewRejectsUnknownDBType(t *testing.T) {
	if _, err := New("oracle", "x"); err == nil {
		t.Fatal("expected an error for an unsupported database type")
	}
}

func TestDBMaintenanceSqlite(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "ledger.db")
	if _, err := New("sqlite", dsn); err != nil {
		t.Fatal(err)
	}
	if err := RunDBMaintenance("sqlite", dsn, false); err != nil {
		t.Fatalf("RunDBMaintenance: %v", err)
	}
}

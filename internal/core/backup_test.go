// Copyright (c) 2025 the graphseed authors
// graphseed - GraphDB repository provisioning and RDF import tool
// This source code is licensed under the MIT license found in the LICENSE file.

package core_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/spendcast/graphseed/internal/core"
	"github.com/spendcast/graphseed/internal/model"
	"github.com/spendcast/graphseed/internal/testutil"
)

func seededStore(t *testing.T) *testutil.MemStore {
	t.Helper()
	st := testutil.NewMemStore()
	if err := st.UpsertRepository("spendcast", "Spendcast", "rdfsplus-optimized", "h1"); err != nil {
		t.Fatal(err)
	}
	if _, err := st.RecordImport(model.ImportRecord{RunID: "r1", Dataset: "spend", Repository: "spendcast", Status: model.ImportStatusOK, ContentHash: "abc"}); err != nil {
		t.Fatal(err)
	}
	if err := st.AddKnownHostKey("files.example.org", "ssh-ed25519 AAAA..."); err != nil {
		t.Fatal(err)
	}
	return st
}

func TestBackupRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := seededStore(t)

	data, err := core.Backup(ctx, st)
	if err != nil {
		t.Fatalf("Backup: %v", err)
	}
	var buf bytes.Buffer
	if err := core.WriteBackup(ctx, data, &buf); err != nil {
		t.Fatalf("WriteBackup: %v", err)
	}
	// zstd magic number.
	if !bytes.HasPrefix(buf.Bytes(), []byte{0x28, 0xb5, 0x2f, 0xfd}) {
		t.Error("backup is not zstd compressed")
	}

	target := testutil.NewMemStore()
	if err := core.Restore(ctx, &buf, core.RestoreOptions{Full: true}, target); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if r, _ := target.GetRepository("spendcast"); r == nil || r.Ruleset != "rdfsplus-optimized" {
		t.Errorf("repository not restored: %+v", r)
	}
	if rec, _ := target.GetLatestImport("spend", "spendcast"); rec == nil || rec.ContentHash != "abc" {
		t.Errorf("import ledger not restored: %+v", rec)
	}
	if key, _ := target.GetKnownHostKey("files.example.org"); key == "" {
		t.Error("known hosts not restored")
	}
}

func TestRestoreIntegrateKeepsExisting(t *testing.T) {
	ctx := context.Background()
	st := seededStore(t)

	var buf bytes.Buffer
	data, err := core.Backup(ctx, st)
	if err != nil {
		t.Fatal(err)
	}
	if err := core.WriteBackup(ctx, data, &buf); err != nil {
		t.Fatal(err)
	}

	target := testutil.NewMemStore()
	if err := target.UpsertRepository("spendcast", "Existing", "owl-horst", "local-hash"); err != nil {
		t.Fatal(err)
	}
	if err := core.Restore(ctx, &buf, core.RestoreOptions{}, target); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	// Non-destructive: the pre-existing entry wins.
	r, _ := target.GetRepository("spendcast")
	if r == nil || r.Ruleset != "owl-horst" {
		t.Errorf("integration restore must not overwrite: %+v", r)
	}
}

func TestRestoreRejectsGarbage(t *testing.T) {
	target := testutil.NewMemStore()
	err := core.Restore(context.Background(), bytes.NewReader([]byte("not a backup")), core.RestoreOptions{}, target)
	if err == nil {
		t.Fatal("expected an error for a non-zstd input")
	}
}

func TestMigrate(t *testing.T) {
	st := seededStore(t)
	target := testutil.NewMemStore()
	factory := fakeFactory{store: target, calls: &factoryCall{}}

	if err := core.Migrate(context.Background(), factory, st, "postgres", "host=db"); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if factory.seenType() != "postgres" || factory.seenDsn() != "host=db" {
		t.Errorf("factory called with (%s, %s)", factory.seenType(), factory.seenDsn())
	}
	if r, _ := target.GetRepository("spendcast"); r == nil {
		t.Error("data not migrated to the target store")
	}
}

func TestMigrateFactoryError(t *testing.T) {
	st := seededStore(t)
	factory := fakeFactory{err: errors.New("bad dsn")}
	if err := core.Migrate(context.Background(), factory, st, "postgres", "x"); err == nil {
		t.Fatal("expected the factory error to propagate")
	}
}

func TestTrustHost(t *testing.T) {
	st := testutil.NewMemStore()
	hf := fakeHostFetcher{key: "ssh-ed25519 AAAA... host"}

	key, err := core.TrustHost(context.Background(), "files.example.org", hf, st, true)
	if err != nil {
		t.Fatalf("TrustHost: %v", err)
	}
	if key != hf.key {
		t.Errorf("key = %q", key)
	}
	if saved, _ := st.GetKnownHostKey("files.example.org"); saved != hf.key {
		t.Errorf("saved key = %q", saved)
	}

	// Without save the ledger stays untouched.
	st2 := testutil.NewMemStore()
	if _, err := core.TrustHost(context.Background(), "files.example.org", hf, st2, false); err != nil {
		t.Fatal(err)
	}
	if saved, _ := st2.GetKnownHostKey("files.example.org"); saved != "" {
		t.Error("key saved despite save=false")
	}
}

type fakeFactory struct {
	store *testutil.MemStore
	err   error

	calls *factoryCall
}

type factoryCall struct {
	dbType, dsn string
}

func (f fakeFactory) NewStoreFromDSN(dbType, dsn string) (core.Store, error) {
	if f.calls != nil {
		f.calls.dbType, f.calls.dsn = dbType, dsn
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.store, nil
}

func (f fakeFactory) seenType() string {
	if f.calls == nil {
		return ""
	}
	return f.calls.dbType
}

func (f fakeFactory) seenDsn() string {
	if f.calls == nil {
		return ""
	}
	return f.calls.dsn
}

type fakeHostFetcher struct {
	key string
	err error
}

func (f fakeHostFetcher) FetchHostKey(host string) (string, error) {
	return f.key, f.err
}

// Copyright (c) 2025 the graphseed authors
// graphseed - GraphDB repository provisioning and RDF import tool
// This source code is licensed under the MIT license found in the LICENSE file.

package core

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/spendcast/graphseed/internal/model"
)

// RestoreOptions controls restore behavior.
type RestoreOptions struct {
	// Full wipes the ledger before importing (true) or merges the backup
	// into the existing ledger (false).
	Full bool
}

// DBMaintenanceOptions configures database maintenance operations.
type DBMaintenanceOptions struct {
	// SkipIntegrity skips expensive integrity checks.
	SkipIntegrity bool
}

// Backup exports the ledger into BackupData using the Store.
func Backup(ctx context.Context, st Store) (*model.BackupData, error) {
	return st.ExportDataForBackup()
}

// WriteBackup writes zstd-compressed JSON backup data to w.
func WriteBackup(ctx context.Context, data *model.BackupData, w io.Writer) error {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("create zstd writer: %w", err)
	}
	defer func() { _ = zw.Close() }()
	enc := json.NewEncoder(zw)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("encode backup: %w", err)
	}
	return nil
}

// Restore reads a zstd-compressed JSON backup and imports it via the Store.
func Restore(ctx context.Context, r io.Reader, opts RestoreOptions, st Store) error {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return fmt.Errorf("create zstd reader: %w", err)
	}
	defer zr.Close()
	var data model.BackupData
	if err := json.NewDecoder(zr).Decode(&data); err != nil {
		return fmt.Errorf("decode backup: %w", err)
	}
	if opts.Full {
		return st.ImportDataFromBackup(&data)
	}
	return st.IntegrateDataFromBackup(&data)
}

// Migrate exports the ledger from the current store and imports it into a
// newly created target store.
func Migrate(ctx context.Context, factory StoreFactory, st Store, targetType, targetDsn string) error {
	data, err := st.ExportDataForBackup()
	if err != nil {
		return fmt.Errorf("export backup: %w", err)
	}
	targetStore, err := factory.NewStoreFromDSN(targetType, targetDsn)
	if err != nil {
		return fmt.Errorf("init target store: %w", err)
	}
	if err := targetStore.ImportDataFromBackup(data); err != nil {
		return fmt.Errorf("import to target: %w", err)
	}
	return nil
}

// TrustHost fetches a host key and optionally saves it in the store.
func TrustHost(ctx context.Context, canonicalHost string, hf HostFetcher, st Store, save bool) (string, error) {
	key, err := hf.FetchHostKey(canonicalHost)
	if err != nil {
		return "", fmt.Errorf("fetch host key: %w", err)
	}
	if save {
		if err := st.AddKnownHostKey(canonicalHost, key); err != nil {
			return key, fmt.Errorf("save known host key: %w", err)
		}
	}
	return key, nil
}

// CLI-facing wrappers that call the facades above.

func RunBackupCmd(ctx context.Context, st Store) (*model.BackupData, error) {
	return Backup(ctx, st)
}

func RunWriteBackupCmd(ctx context.Context, data *model.BackupData, w io.Writer) error {
	return WriteBackup(ctx, data, w)
}

func RunRestoreCmd(ctx context.Context, r io.Reader, opts RestoreOptions, st Store) error {
	return Restore(ctx, r, opts, st)
}

func RunMigrateCmd(ctx context.Context, factory StoreFactory, st Store, targetType, targetDsn string) error {
	return Migrate(ctx, factory, st, targetType, targetDsn)
}

func RunTrustHostCmd(ctx context.Context, canonicalHost string, hf HostFetcher, st Store, save bool) (string, error) {
	return TrustHost(ctx, canonicalHost, hf, st, save)
}

func RunDBMaintainCmd(ctx context.Context, maint DBMaintainer, dbType, dsn string, opts DBMaintenanceOptions) error {
	return maint.RunDBMaintenance(dbType, dsn, opts.SkipIntegrity)
}

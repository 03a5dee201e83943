// Copyright (c) 2025 the graphseed authors
// graphseed - GraphDB repository provisioning and RDF import tool
// This source code is licensed under the MIT license found in the LICENSE file.

// package db provides the data access layer for the graphseed state ledger.
// It abstracts the underlying database (e.g., SQLite, PostgreSQL) behind a
// consistent interface, allowing the rest of the application to interact with
// the database in a uniform way.
package db // import "github.com/spendcast/graphseed/internal/db"

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spendcast/graphseed/internal/model"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "modernc.org/sqlite"

	// SQL drivers required for integration tests and runtime.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// package-level variables
var (
	store Store
	//go:embed migrations
	embeddedMigrations embed.FS
	// sqlOpenFunc allows tests to override database opening behavior.
	sqlOpenFunc = sql.Open
)

// InitDB initializes the database connection based on the provided type and DSN.
// It sets the global `store` variable to the appropriate database implementation
// and runs any pending database migrations.
func InitDB(dbType, dsn string) error {
	s, err := NewStoreFromDSN(dbType, dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	store = s
	return nil
}

// New initializes and returns a bun-backed Store for the given dbType and dsn.
// It is a small convenience wrapper around NewStoreFromDSN that also sets the
// package-level `store` used by the package helpers.
func New(dbType, dsn string) (Store, error) {
	s, err := NewStoreFromDSN(dbType, dsn)
	if err != nil {
		return nil, err
	}
	store = s
	return s, nil
}

// IsInitialized reports whether the package-level store has been set.
func IsInitialized() bool {
	return store != nil
}

// RunDBMaintenance performs engine-specific maintenance tasks for the given
// database DSN. It is safe to call for SQLite/Postgres/MySQL. For SQLite this
// will run PRAGMA optimize, VACUUM and WAL checkpoint. For Postgres it runs
// VACUUM ANALYZE. For MySQL it runs OPTIMIZE TABLE for all tables.
func RunDBMaintenance(dbType, dsn string, skipIntegrity bool) error {
	driverName := dbType
	if dbType == "postgres" {
		driverName = "pgx"
	}
	sqlDB, err := sqlOpenFunc(driverName, dsn)
	if err != nil {
		return fmt.Errorf("failed to open database for maintenance: %w", err)
	}
	defer func() { _ = sqlDB.Close() }()

	// Small timeout for maintenance operations to avoid blocking CI.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	switch dbType {
	case "sqlite":
		// PRAGMA optimize may not be supported or useful in some environments
		// (e.g., in-memory filesystems); treat optimize errors as non-fatal.
		if _, err := sqlDB.ExecContext(ctx, "PRAGMA optimize;"); err != nil {
			dbLogf("db: sqlite optimize failed (ignored): %v", err)
		}
		if _, err := sqlDB.ExecContext(ctx, "VACUUM;"); err != nil {
			return fmt.Errorf("sqlite vacuum failed: %w", err)
		}
		// WAL checkpoint; ignore errors if not supported.
		_, _ = sqlDB.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE);")
		if !skipIntegrity {
			var res string
			if row := sqlDB.QueryRowContext(ctx, "PRAGMA integrity_check;"); row != nil {
				_ = row.Scan(&res)
				if res != "ok" {
					return fmt.Errorf("sqlite integrity_check failed: %s", res)
				}
			}
		}
	case "postgres":
		if _, err := sqlDB.ExecContext(ctx, "VACUUM ANALYZE;"); err != nil {
			return fmt.Errorf("postgres vacuum failed: %w", err)
		}
	case "mysql":
		rows, err := sqlDB.QueryContext(ctx, "SHOW TABLES")
		if err != nil {
			return fmt.Errorf("mysql show tables failed: %w", err)
		}
		defer func() { _ = rows.Close() }()
		var table string
		var lastErr error
		for rows.Next() {
			if err := rows.Scan(&table); err != nil {
				return fmt.Errorf("mysql read table name failed: %w", err)
			}
			if _, err := sqlDB.ExecContext(ctx, fmt.Sprintf("OPTIMIZE TABLE %s", table)); err != nil {
				// Non-fatal per-table: remember last error and continue
				dbLogf("db: mysql optimize table %s failed: %v", table, err)
				lastErr = err
			}
		}
		if lastErr != nil {
			return fmt.Errorf("mysql optimize encountered errors: %w", lastErr)
		}
	default:
		return fmt.Errorf("unsupported db type for maintenance: %s", dbType)
	}
	return nil
}

// NewStoreFromDSN opens a sql.DB for the given DSN, runs migrations, and
// returns a Store backed by a long-lived *bun.DB. This hides *sql.DB usage
// from higher-level callers.
func NewStoreFromDSN(dbType, dsn string) (Store, error) {
	driverName := dbType
	// The pgx stdlib registers driver name "pgx"; map "postgres" to that driver.
	if dbType == "postgres" {
		driverName = "pgx"
	}
	start := time.Now()
	sqlDB, err := sqlOpenFunc(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure DB connection pool with sensible defaults. Values can be
	// overridden via environment variables for CI or production tuning.
	const (
		defaultMaxOpenConns    = 25
		defaultMaxIdleConns    = 25
		defaultConnMaxLifetime = 5 * time.Minute
	)

	maxOpen := defaultMaxOpenConns
	if v := os.Getenv("GRAPHSEED_DB_MAX_OPEN_CONNS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			maxOpen = n
		}
	}
	maxIdle := defaultMaxIdleConns
	if v := os.Getenv("GRAPHSEED_DB_MAX_IDLE_CONNS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			maxIdle = n
		}
	}

	// For in-memory SQLite databases, force a single open connection to avoid
	// the SQLite per-connection in-memory database semantics which can make
	// schema changes invisible across different connections.
	if dbType == "sqlite" && strings.Contains(dsn, "memory") {
		maxOpen = 1
		maxIdle = 1
	}
	connMax := defaultConnMaxLifetime
	if v := os.Getenv("GRAPHSEED_DB_CONN_MAX_LIFETIME_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			connMax = time.Duration(n) * time.Second
		}
	}

	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(connMax)
	connIdle := 60 // seconds
	if v := os.Getenv("GRAPHSEED_DB_CONN_MAX_IDLE_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			connIdle = n
		}
	}
	sqlDB.SetConnMaxIdleTime(time.Duration(connIdle) * time.Second)

	openDur := time.Since(start)
	dbLogf("db: opened %s driver in %s (conn max open=%d, idle=%ds, maxLifetime=%s)", driverName, openDur, maxOpen, connIdle, connMax)

	migStart := time.Now()
	if err := RunMigrations(sqlDB, dbType); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	dbLogf("db: migrations for %s completed in %s", dbType, time.Since(migStart))

	bunDB := createBunDB(sqlDB, dbType)
	switch dbType {
	case "sqlite":
		return &SqliteStore{bun: bunDB}, nil
	case "postgres":
		return &PostgresStore{bun: bunDB}, nil
	case "mysql":
		return &MySQLStore{bun: bunDB}, nil
	default:
		return nil, fmt.Errorf("unsupported database type for store creation: '%s'", dbType)
	}
}

// createBunDB constructs a *bun.DB for the provided *sql.DB and dbType.
// Centralizing construction makes it easier to apply consistent options
// and to test Bun initialization in one place.
func createBunDB(sqlDB *sql.DB, dbType string) *bun.DB {
	switch dbType {
	case "sqlite":
		return bun.NewDB(sqlDB, sqlitedialect.New())
	case "postgres":
		return bun.NewDB(sqlDB, pgdialect.New())
	case "mysql":
		return bun.NewDB(sqlDB, mysqldialect.New())
	default:
		// Fallback to SQLite dialect as a safe default; callers should validate dbType earlier.
		return bun.NewDB(sqlDB, sqlitedialect.New())
	}
}

// RunMigrations applies the necessary database migrations for a given database connection.
func RunMigrations(db *sql.DB, dbType string) error {
	start := time.Now()
	dbLogf("db: starting migrations for %s", dbType)
	migrationsPath := fmt.Sprintf("migrations/%s", dbType)

	entries, err := fs.ReadDir(embeddedMigrations, migrationsPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// No migrations embedded for this DB type.
			dbLogf("db: applied migrations for %s in %s", dbType, time.Since(start))
			return nil
		}
		return fmt.Errorf("failed to read embedded migrations (%s): %w", migrationsPath, err)
	}

	// Collect .up.sql files and sort them
	var ups []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(name, ".up.sql") {
			ups = append(ups, name)
		}
	}
	sort.Strings(ups)

	if err := ensureSchemaMigrationsTable(db, dbType); err != nil {
		return fmt.Errorf("failed to ensure schema_migrations table: %w", err)
	}

	for _, fname := range ups {
		version := strings.TrimSuffix(fname, ".up.sql")

		// Check if already applied.
		var exists int
		query := "SELECT 1 FROM schema_migrations WHERE version = ?"
		if dbType == "postgres" {
			query = "SELECT 1 FROM schema_migrations WHERE version = $1"
		}
		err := db.QueryRow(query, version).Scan(&exists)
		if err == nil {
			// applied, skip
			continue
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("failed to check migration version %s: %w", version, err)
		}

		data, err := embeddedMigrations.ReadFile(path.Join(migrationsPath, fname))
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", fname, err)
		}

		// Apply within a transaction
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %s: %w", version, err)
		}
		if _, err := tx.Exec(string(data)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to execute migration %s: %w", version, err)
		}

		insertQuery := "INSERT INTO schema_migrations(version, applied_at) VALUES(?, ?)"
		if dbType == "postgres" {
			insertQuery = "INSERT INTO schema_migrations(version, applied_at) VALUES($1, $2)"
		}
		if _, err := tx.Exec(insertQuery, version, time.Now()); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %s: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to commit migration %s: %w", version, err)
		}
	}

	return nil
}

// ensureSchemaMigrationsTable creates schema_migrations if missing.
func ensureSchemaMigrationsTable(db *sql.DB, dbType string) error {
	// MySQL does not permit TEXT/BLOB columns to be indexed without a length,
	// so use a VARCHAR with a safe length there. Other engines can use TEXT.
	if dbType == "mysql" {
		if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (version VARCHAR(191) PRIMARY KEY, applied_at TIMESTAMP)`); err != nil {
			return err
		}
		return nil
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY, applied_at TIMESTAMP)`); err != nil {
		return err
	}
	return nil
}

// UpsertRepository records a provisioned repository in the ledger.
func UpsertRepository(repoID, title, ruleset, configHash string) error {
	return store.UpsertRepository(repoID, title, ruleset, configHash)
}

// GetRepository retrieves a single provisioned repository record.
func GetRepository(repoID string) (*model.Repository, error) {
	return store.GetRepository(repoID)
}

// GetAllRepositories retrieves all provisioned repository records.
func GetAllRepositories() ([]model.Repository, error) {
	return store.GetAllRepositories()
}

// DeleteRepository removes a repository record from the ledger.
func DeleteRepository(repoID string) error {
	return store.DeleteRepository(repoID)
}

// RecordImport appends an import record to the ledger.
func RecordImport(rec model.ImportRecord) (int, error) {
	return store.RecordImport(rec)
}

// GetLatestImport returns the most recent successful import for a dataset, or nil.
func GetLatestImport(dataset, repository string) (*model.ImportRecord, error) {
	return store.GetLatestImport(dataset, repository)
}

// GetRecentImports returns the most recent import records, newest first.
func GetRecentImports(limit int) ([]model.ImportRecord, error) {
	return store.GetRecentImports(limit)
}

// GetKnownHostKey retrieves the trusted public key for a given hostname.
func GetKnownHostKey(hostname string) (string, error) {
	return store.GetKnownHostKey(hostname)
}

// AddKnownHostKey adds a new trusted host key to the database.
func AddKnownHostKey(hostname, key string) error {
	return store.AddKnownHostKey(hostname, key)
}

// GetAllAuditLogEntries retrieves all entries from the audit log, most recent first.
func GetAllAuditLogEntries() ([]model.AuditLogEntry, error) {
	return store.GetAllAuditLogEntries()
}

// LogAction records an audit trail event.
func LogAction(action string, details string) error {
	return store.LogAction(action, details)
}

// ExportDataForBackup retrieves all data from the database for a backup.
func ExportDataForBackup() (*model.BackupData, error) {
	return store.ExportDataForBackup()
}

// ImportDataFromBackup restores the database from a backup data structure.
func ImportDataFromBackup(backup *model.BackupData) error {
	return store.ImportDataFromBackup(backup)
}

// IntegrateDataFromBackup restores the database from a backup data structure in a non-destructive way.
func IntegrateDataFromBackup(backup *model.BackupData) error {
	return store.IntegrateDataFromBackup(backup)
}

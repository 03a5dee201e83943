// Copyright (c) 2025 the graphseed authors
// graphseed - GraphDB repository provisioning and RDF import tool
// This source code is licensed under the MIT license found in the LICENSE file.

// admin.go holds the ledger housekeeping commands: trust-host, backup,
// restore, migrate and db-maintain.

package cli

import (
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	log "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/crypto/ssh"

	"github.com/spendcast/graphseed/internal/core"
	"github.com/spendcast/graphseed/internal/i18n"
)

var fullRestore bool

// trustHostCmd fetches and stores the SSH host key of an sftp:// source host.
var trustHostCmd = &cobra.Command{
	Use:   "trust-host <host[:port]>",
	Short: "Add an SFTP host's public key to the list of known hosts",
	Long: `Connects to an SFTP source host for the first time, retrieves its public
key, and prompts to save it in the state ledger. This is a required step
before graphseed can fetch datasets from that host.`,
	Args:    cobra.ExactArgs(1),
	PreRunE: setupDefaultServices,
	Run: func(cmd *cobra.Command, args []string) {
		target := args[0]
		if strings.Contains(target, "@") {
			target = target[strings.Index(target, "@")+1:]
		}
		canonicalHost := target
		if _, _, err := net.SplitHostPort(target); err == nil {
			canonicalHost, _, _ = net.SplitHostPort(target)
		}

		fmt.Printf("%s\n", i18n.T("trust_host.retrieving", target))
		// Fetch the key via the core facade without saving yet; saving happens
		// after the operator has confirmed the fingerprint.
		keyStr, err := core.RunTrustHostCmd(cmd.Context(), target, cliHostFetcher{}, appStore, false)
		if err != nil {
			log.Fatalf("%s", i18n.T("trust_host.error_get_key", err))
		}
		if pubKey, _, _, _, perr := ssh.ParseAuthorizedKey([]byte(keyStr)); perr == nil {
			fmt.Printf("%s\n", i18n.T("trust_host.unknown_host", canonicalHost))
			fmt.Printf("%s\n", i18n.T("trust_host.fingerprint", ssh.FingerprintSHA256(pubKey)))
		}

		ans := promptForConfirmation(i18n.T("trust_host.confirm_prompt"))
		if ans != "yes" && ans != "y" {
			fmt.Println(i18n.T("trust_host.cancelled"))
			return
		}
		if err := appStore.AddKnownHostKey(canonicalHost, keyStr); err != nil {
			log.Fatalf("%s", i18n.T("trust_host.error_save", err))
		}
		fmt.Printf("%s\n", i18n.T("trust_host.added", canonicalHost))
	},
}

// backupCmd dumps the state ledger into a compressed JSON file.
var backupCmd = &cobra.Command{
	Use:   "backup [output-file]",
	Short: "Create a compressed (zstd) JSON backup of the state ledger",
	Long: `Dumps the entire state ledger (provisioned repositories, the import
ledger, audit log and known hosts) into a single, Zstandard-compressed
JSON file.

If an output file is specified, '.zst' will be appended to the name if
it's not already present. If no output file is specified, a default
filename 'graphseed-backup-YYYY-MM-DD.json.zst' is used.

This file can be used for disaster recovery or for migrating to a
different database backend.`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: setupDefaultServices,
	Run: func(cmd *cobra.Command, args []string) {
		var outputFile string
		if len(args) == 0 {
			outputFile = fmt.Sprintf("graphseed-backup-%s.json.zst", time.Now().Format("2006-01-02"))
		} else {
			outputFile = args[0]
			if !strings.HasSuffix(outputFile, ".zst") {
				outputFile += ".zst"
			}
		}
		fmt.Println(i18n.T("backup.cli_starting"))
		data, err := core.RunBackupCmd(cmd.Context(), appStore)
		if err != nil {
			log.Fatalf("%s", i18n.T("backup.cli_error_export", err))
		}
		outf, err := os.Create(outputFile)
		if err != nil {
			log.Fatalf("%s", i18n.T("backup.cli_error_write", err))
		}
		defer func() { _ = outf.Close() }()
		if err := core.RunWriteBackupCmd(cmd.Context(), data, outf); err != nil {
			log.Fatalf("%s", i18n.T("backup.cli_error_write", err))
		}
		fmt.Println(i18n.T("backup.cli_success", outputFile))
	},
}

// restoreCmd restores the state ledger from a compressed JSON backup file.
var restoreCmd = &cobra.Command{
	Use:   "restore <backup-file.zst>",
	Short: "Restore the state ledger from a compressed JSON backup",
	Long: `Restores the state ledger from a Zstandard-compressed JSON backup file.
By default, this command performs a non-destructive "integration"
restore, only adding data that does not already exist.

To perform a full, destructive restore that WIPES all existing ledger
data before importing, use the --full flag.`,
	Args:    cobra.ExactArgs(1),
	PreRunE: setupDefaultServices,
	Run: func(cmd *cobra.Command, args []string) {
		inputFile := args[0]
		fmt.Println(i18n.T("restore.cli_starting", inputFile))
		f, err := os.Open(inputFile)
		if err != nil {
			log.Fatalf("%s", i18n.T("restore.cli_error_read", err))
		}
		defer func() { _ = f.Close() }()
		if err := core.RunRestoreCmd(cmd.Context(), f, core.RestoreOptions{Full: fullRestore}, appStore); err != nil {
			log.Fatalf("%s", i18n.T("restore.cli_error_import", err))
		}
		fmt.Println(i18n.T("restore.cli_success"))
	},
}

// migrateCmd moves the state ledger to a different database backend.
var migrateCmd = &cobra.Command{
	Use:   "migrate --database.type <db-type> --database.dsn <target-dsn>",
	Short: "Migrate the state ledger to a new database",
	Long: `Exports all data from the current ledger database and imports it into a
new target database given by --database.type and --database.dsn. The
target schema is created automatically.

Example:
  graphseed migrate --database.type postgres --database.dsn "host=localhost user=graphseed dbname=graphseed"`,
	PreRunE: setupDefaultServices,
	RunE: func(cmd *cobra.Command, args []string) error {
		targetType := viper.GetString("database.type")
		targetDsn := viper.GetString("database.dsn")
		if targetType == "" || targetDsn == "" {
			log.Fatalf("%s", i18n.T("migrate.cli_error_flags"))
		}
		fmt.Println(i18n.T("migrate.cli_starting_backup"))
		if err := core.RunMigrateCmd(cmd.Context(), core.DBStoreFactory{}, appStore, targetType, targetDsn); err != nil {
			log.Fatalf("%s", i18n.T("migrate.cli_error_backup", err))
		}
		fmt.Println(i18n.T("migrate.cli_success"))
		fmt.Println(i18n.T("migrate.cli_next_steps"))
		return nil
	},
}

// dbMaintainCmd runs database maintenance tasks for the configured database.
var dbMaintainCmd = &cobra.Command{
	Use:     "db-maintain",
	Short:   "Run database maintenance (VACUUM/OPTIMIZE) for the configured DB",
	Long:    `Runs engine-specific maintenance tasks (VACUUM, OPTIMIZE TABLE, PRAGMA optimize).`,
	PreRunE: setupDefaultServices,
	Run: func(cmd *cobra.Command, args []string) {
		skipIntegrity, _ := cmd.Flags().GetBool("skip-integrity")
		opts := core.DBMaintenanceOptions{SkipIntegrity: skipIntegrity}
		if err := core.RunDBMaintainCmd(cmd.Context(), core.DBMaintenance{}, appConfig.Database.Type, appConfig.Database.Dsn, opts); err != nil {
			fmt.Printf("%s\n", i18n.T("db_maintain.failed", err))
			os.Exit(1)
		}
		fmt.Println(i18n.T("db_maintain.success"))
	},
}

func init() {
	restoreCmd.Flags().BoolVar(&fullRestore, "full", false, "Perform a full, destructive restore (wipes all existing ledger data first)")
	dbMaintainCmd.Flags().Bool("skip-integrity", false, "Skip integrity_check (SQLite) during maintenance")
}

// Copyright (c) 2025 the graphseed authors
// graphseed - GraphDB repository provisioning and RDF import tool
// This source code is licensed under the MIT license found in the LICENSE file.

// main.go sets up the command-line interface (CLI) for graphseed using the
// Cobra library. It defines the root command, subcommands (like provision,
// import, status), flags, and the main entry point for execution.

package cli

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"strings"

	log "github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/spendcast/graphseed/internal/config"
	"github.com/spendcast/graphseed/internal/core"
	"github.com/spendcast/graphseed/internal/db"
	"github.com/spendcast/graphseed/internal/graphdb"
	"github.com/spendcast/graphseed/internal/i18n"
	"github.com/spendcast/graphseed/internal/state"
	"github.com/spendcast/graphseed/ui/tui"
)

var version = "dev"   // this will be set by the linker
var gitCommit = "dev" // set at build time with the short commit SHA
var buildDate = ""    // set at build time (RFC3339)

var cfgFile string
var verbose bool
var showVersionFlag bool

var appConfig config.Config
var appStore core.Store

func setupDefaultServices(cmd *cobra.Command, args []string) error {
	// A .env next to the compose file is the common place for the GraphDB
	// password; load it before viper reads the environment.
	_ = godotenv.Load()

	optionalConfigPath, err := getConfigPathFromCli(cmd)
	if err != nil {
		return err
	}

	defaults := map[string]any{
		"database.type": "sqlite",
		"database.dsn":  "./graphseed.db",
		"graphdb.url":   "http://localhost:7200",
		"language":      "en",
	}

	appConfig, err = config.LoadConfig[config.Config](cmd, defaults, optionalConfigPath)
	// A "file not found" error is expected on first run; create a default
	// config so subsequent runs have a persisted file to inspect.
	if errors.As(err, &viper.ConfigFileNotFoundError{}) {
		if writeErr := config.WriteConfigFile(&appConfig, false); writeErr != nil {
			log.Warnf("Warning: could not write default config file: %v", writeErr)
		}
	} else if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	// Post-process config to ensure critical values are not empty, falling
	// back to defaults when the user's config file has empty values.
	if appConfig.Database.Type == "" {
		appConfig.Database.Type = defaults["database.type"].(string)
	}
	if appConfig.Database.Dsn == "" {
		appConfig.Database.Dsn = defaults["database.dsn"].(string)
	}
	if appConfig.GraphDB.URL == "" {
		appConfig.GraphDB.URL = defaults["graphdb.url"].(string)
	}
	if appConfig.Language == "" {
		appConfig.Language = defaults["language"].(string)
	}

	i18n.Init(appConfig.Language)

	if !db.IsInitialized() {
		st, err := db.New(appConfig.Database.Type, appConfig.Database.Dsn)
		if err != nil {
			return errors.New(i18n.T("config.error_init_db", err))
		}
		appStore = st
	} else if appStore == nil {
		appStore = dbStoreAdapter{}
	}

	return nil
}

// Execute runs the CLI entrypoint. The root main package should call this
// function and handle process exit.
func Execute() error {
	defer state.PasswordCache.Clear()

	rootCmd := NewRootCmd()
	return rootCmd.Execute()
}

func applyDefaultFlags(cmd *cobra.Command) {
	// Avoid redefining flags if they already exist (NewRootCmd may be called
	// multiple times in tests which creates a new root but uses package-level
	// subcommands). pflag panics on duplicate flag definitions, so check first.
	if cmd.Flags().Lookup("database.type") == nil {
		cmd.Flags().String("database.type", "sqlite", "Database type (e.g., sqlite, postgres)")
	}
	if cmd.Flags().Lookup("database.dsn") == nil {
		cmd.Flags().String("database.dsn", "./graphseed.db", "Database connection string (DSN)")
	}
}

func getConfigPathFromCli(cmd *cobra.Command) (*string, error) {
	// Only proceed if the user has explicitly set the --config flag.
	if cmd.Flags().Changed("config") {
		path, err := cmd.Flags().GetString("config")
		if err != nil {
			return nil, fmt.Errorf("could not read --config flag: %w", err)
		}
		if path == "" {
			return nil, nil
		}
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file specified via --config flag not found or is not accessible: %w", err)
		}
		return &path, nil
	}
	return nil, nil
}

// NewRootCmd creates and configures a new root cobra command. This function
// is used to create the main application command as well as fresh instances
// for isolated testing.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graphseed",
		Short: "graphseed provisions GraphDB repositories and imports RDF datasets.",
		Long: `graphseed automates the setup of a GraphDB instance: it waits for the
server to come up, creates the repositories declared in graphseed.yaml,
and imports RDF datasets from local files, HTTP(S) URLs or SFTP servers.
Imports are idempotent: unchanged datasets are skipped based on their
content hash, recorded in a local state ledger.

Running without a subcommand will launch the interactive dashboard.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if showVersionFlag {
				fmt.Printf("%s\n", compositeVersion())
				os.Exit(0)
			}
			if verbose {
				db.SetDebug(true)
			}
			return setupDefaultServices(cmd, args)
		},
		Run: func(cmd *cobra.Command, args []string) {
			// Config, i18n and the ledger are initialized by PersistentPreRunE.
			tui.Run(appStore, newGraphClient(), &appConfig)
		},
	}

	cmd.Version = compositeVersion()

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output (sets -v for DB logs)")
	cmd.PersistentFlags().BoolVarP(&showVersionFlag, "version", "V", false, "Print version and exit")
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file")
	cmd.PersistentFlags().String("language", "en", `output language ("en", "de")`)
	applyDefaultFlags(cmd)

	applyDefaultFlags(provisionCmd)
	applyDefaultFlags(importCmd)
	applyDefaultFlags(statusCmd)
	applyDefaultFlags(queryCmd)
	applyDefaultFlags(dropCmd)
	applyDefaultFlags(watchCmd)
	applyDefaultFlags(serveCmd)
	applyDefaultFlags(trustHostCmd)
	applyDefaultFlags(dbMaintainCmd)
	applyDefaultFlags(restoreCmd)
	applyDefaultFlags(migrateCmd)

	// A lightweight `version` subcommand so users and CI can run
	// `graphseed version`.
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			v, c, d := resolveBuildVersion(nil)
			fmt.Printf("version: %s\n", v)
			fmt.Printf("commit: %s\n", c)
			if d != "" {
				fmt.Printf("built: %s\n", d)
			}
		},
	}

	cmd.AddCommand(
		initCmd,
		provisionCmd,
		importCmd,
		statusCmd,
		queryCmd,
		dropCmd,
		watchCmd,
		serveCmd,
		trustHostCmd,
		backupCmd,
		restoreCmd,
		migrateCmd,
		dbMaintainCmd,
		versionCmd,
	)

	return cmd
}

func compositeVersion() string {
	v, c, d := resolveBuildVersion(nil)
	out := v
	if c != "" && c != "dev" {
		out = out + " (" + c + ")"
	}
	if d != "" {
		out = out + " built: " + d
	}
	return out
}

// resolveBuildVersion computes the best-available version, commit and build
// date for the running binary. If `info` is nil, it reads build info from
// the runtime. This helper is separated to make unit testing straightforward.
func resolveBuildVersion(info *debug.BuildInfo) (versionOut, commitOut, dateOut string) {
	resolvedVersion := version
	resolvedCommit := gitCommit
	resolvedDate := buildDate

	var ok bool
	if info == nil {
		if infoLocal, found := debug.ReadBuildInfo(); found {
			info = infoLocal
			ok = true
		}
	} else {
		ok = true
	}

	if ok && info != nil {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			resolvedVersion = info.Main.Version
		}
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				if s.Value != "" {
					resolvedCommit = s.Value
				}
			case "vcs.time":
				if s.Value != "" {
					resolvedDate = s.Value
				}
			}
		}
	}

	// As a last resort, if no version was discovered but a gitCommit was
	// provided via ldflags, show that to aid support.
	if resolvedVersion == "dev" && gitCommit != "dev" && gitCommit != "" {
		resolvedVersion = gitCommit
	}

	return resolvedVersion, resolvedCommit, resolvedDate
}

// newGraphClient builds the GraphDB client from the loaded config, pulling
// the password from the cache or a terminal prompt when the config carries a
// username but no password.
func newGraphClient() *graphdb.Client {
	cfg := graphdb.Config{
		URL:      appConfig.GraphDB.URL,
		Username: appConfig.GraphDB.Username,
		Password: appConfig.GraphDB.Password,
		Timeout:  appConfig.GraphDB.Timeout,
		Retries:  appConfig.GraphDB.Retries,
	}
	if cfg.Username != "" && cfg.Password == "" {
		if cached := state.PasswordCache.Get(); cached != nil {
			cfg.Password = string(cached)
		} else if term.IsTerminal(int(os.Stdin.Fd())) {
			fmt.Printf("%s", i18n.T("graphdb.password_prompt", cfg.Username))
			bytePassword, err := term.ReadPassword(int(os.Stdin.Fd()))
			fmt.Println()
			if err == nil {
				state.PasswordCache.Set(bytePassword)
				cfg.Password = string(bytePassword)
			}
		}
	}
	return graphdb.New(cfg)
}

// promptForConfirmation displays a prompt and reads a line from stdin.
func promptForConfirmation(prompt string) string {
	fmt.Print(prompt)
	var answer string
	_, _ = fmt.Fscanln(os.Stdin, &answer)
	return strings.TrimSpace(strings.ToLower(answer))
}

// Copyright (c) 2025 the graphseed authors
// graphseed - GraphDB repository provisioning and RDF import tool
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/spendcast/graphseed/internal/core"
	"github.com/spendcast/graphseed/internal/i18n"
	"github.com/spendcast/graphseed/internal/scheduler"
	"github.com/spendcast/graphseed/internal/watch"
)

var importForce bool
var importParallel int

// importCmd imports the declared datasets into their repositories.
var importCmd = &cobra.Command{
	Use:   "import [dataset...]",
	Short: "Import the declared RDF datasets",
	Long: `Fetches the datasets declared in graphseed.yaml and imports them into
their repositories. Each dataset's content hash is recorded in the state
ledger; a dataset whose hash matches the last successful import is
skipped. Use --force to import regardless.

Specifying dataset names restricts the run to those datasets.`,
	PreRunE: setupDefaultServices,
	Run: func(cmd *cobra.Command, args []string) {
		results, err := runImport(cmd.Context(), args, importForce)
		if err != nil {
			log.Fatalf("%s", i18n.T("import.error", err))
		}

		failed := 0
		for _, r := range results {
			switch {
			case r.Error != nil:
				failed++
				fmt.Printf("%s\n", i18n.T("import.dataset_failed", r.Dataset.String(), r.Error))
			case r.Skipped:
				fmt.Printf("%s\n", i18n.T("import.dataset_skipped", r.Dataset.String()))
			default:
				fmt.Printf("%s\n", i18n.T("import.dataset_success", r.Dataset.String(), r.Bytes))
			}
		}
		if failed > 0 {
			os.Exit(1)
		}
	},
}

// runImport executes an import run for the named datasets (all when empty).
func runImport(ctx context.Context, names []string, force bool) ([]core.ImportResult, error) {
	gc := newGraphClient()
	opts := core.ImportOptions{
		Force:    force,
		Parallel: importParallel,
		Only:     names,
	}
	return core.RunImportCmd(ctx, appStore, gc, newFetcher(), appConfig.Datasets, opts, &cliReporter{})
}

// watchCmd re-imports local datasets when their source files change.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch local dataset sources and re-import on change",
	Long: `Watches the local source files of the declared datasets and re-imports a
dataset whenever its file changes. Remote (http/sftp) sources cannot be
watched; schedule those with 'graphseed serve' instead.`,
	PreRunE: setupDefaultServices,
	Run: func(cmd *cobra.Command, args []string) {
		w, err := watch.New(appConfig.Datasets, func(ctx context.Context, names []string) error {
			_, err := runImport(ctx, names, false)
			return err
		})
		if err != nil {
			log.Fatalf("%s", i18n.T("watch.error_setup", err))
		}
		for _, p := range w.Paths() {
			fmt.Printf("%s\n", i18n.T("watch.watching", p))
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := w.Run(ctx); err != nil && ctx.Err() == nil {
			log.Fatalf("%s", i18n.T("watch.error_run", err))
		}
		fmt.Println(i18n.T("watch.stopped"))
	},
}

// serveCmd runs scheduled imports for datasets carrying a cron schedule.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run scheduled dataset imports",
	Long: `Runs in the foreground and imports every dataset with a cron schedule on
its schedule. Starting up runs one provision+import pass so the instance
converges right away. A run that is still going when the next tick fires
is skipped, not queued. Stop with Ctrl-C.`,
	PreRunE: setupDefaultServices,
	Run: func(cmd *cobra.Command, args []string) {
		s, err := scheduler.New(appConfig.Datasets, func(ctx context.Context, names []string) error {
			_, err := runImport(ctx, names, false)
			return err
		})
		if err != nil {
			log.Fatalf("%s", i18n.T("serve.error_setup", err))
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if _, err := core.RunServeStartupCmd(ctx, appStore, newGraphClient(), newFetcher(), appConfig.Repositories, appConfig.Datasets, &cliReporter{}); err != nil {
			log.Fatalf("%s", i18n.T("serve.error_setup", err))
		}
		fmt.Printf("%s\n", i18n.T("serve.started", s.Entries()))

		_ = s.Run(ctx)
		fmt.Println(i18n.T("serve.stopped"))
	},
}

func init() {
	importCmd.Flags().BoolVar(&importForce, "force", false, "Import even when the content hash is unchanged")
	importCmd.Flags().IntVar(&importParallel, "parallel", 0, "Max concurrent dataset imports (0 = default)")
}

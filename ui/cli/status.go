// Copyright (c) 2025 the graphseed authors
// graphseed - GraphDB repository provisioning and RDF import tool
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	log "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/spendcast/graphseed/internal/core"
	"github.com/spendcast/graphseed/internal/i18n"
	"github.com/spendcast/graphseed/internal/model"
)

var statusCheckDrift bool

// statusCmd reports server health and the state of the declared repositories.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server health and repository state",
	Long: `Checks that GraphDB is reachable and classifies every repository as ok
(declared and present), missing (declared but absent) or undeclared
(present on the server but not in graphseed.yaml).

With --check-drift, every dataset is fetched and its content hash is
compared against the last successful import. This downloads the datasets.`,
	PreRunE: setupDefaultServices,
	Run: func(cmd *cobra.Command, args []string) {
		gc := newGraphClient()
		report, err := core.RunStatusCmd(cmd.Context(), appStore, gc, &appConfig, newFetcher(), core.StatusOptions{CheckDrift: statusCheckDrift})
		if err != nil && report == nil {
			log.Fatalf("%s", i18n.T("status.error", err))
		}

		if report.Healthy {
			fmt.Printf("%s\n", i18n.T("status.healthy", appConfig.GraphDB.URL, report.ProtocolVersion))
		} else {
			fmt.Printf("%s\n", i18n.T("status.unreachable", appConfig.GraphDB.URL, err))
		}

		if len(report.Repositories) > 0 {
			w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
			fmt.Fprintln(w, i18n.T("status.table_header"))
			for _, rs := range report.Repositories {
				size := "-"
				if rs.Size >= 0 {
					size = fmt.Sprintf("%d", rs.Size)
				}
				lastImport := "-"
				if rs.LastImport != nil {
					lastImport = rs.LastImport.ImportedAt.Format("2006-01-02 15:04")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", rs.RepoID, rs.State, size, lastImport)
			}
			_ = w.Flush()
		}

		for _, d := range report.Drift {
			fmt.Printf("%s\n", i18n.T("status.dataset_drift", d.Dataset.String()))
		}

		exitCode := 0
		if !report.Healthy {
			exitCode = 1
		}
		for _, rs := range report.Repositories {
			if rs.State == model.RepoStateMissing {
				exitCode = 1
			}
		}
		if len(report.Drift) > 0 {
			exitCode = 1
		}
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var queryRepo string
var queryJSON bool
var queryNoValidate bool

// queryCmd runs a SPARQL read query against a repository.
var queryCmd = &cobra.Command{
	Use:   "query <query|@file|->",
	Short: "Run a SPARQL query against a repository",
	Long: `Runs a SPARQL SELECT, ASK, CONSTRUCT or DESCRIBE query. The query can be
given inline, as @file, or as - to read from stdin. Results are printed
as a table, or as raw SPARQL JSON with --json.

The query is validated client-side (query form, balanced braces) before
being sent; use --no-validate to skip that.`,
	Args:    cobra.ExactArgs(1),
	PreRunE: setupDefaultServices,
	Run: func(cmd *cobra.Command, args []string) {
		repoID := queryRepo
		if repoID == "" {
			if len(appConfig.Repositories) == 1 {
				repoID = appConfig.Repositories[0].ID
			} else {
				log.Fatalf("%s", i18n.T("query.error_no_repo"))
			}
		}

		query, err := core.ReadQueryInput(args[0], os.Stdin)
		if err != nil {
			log.Fatalf("%s", i18n.T("query.error_read", err))
		}

		gc := newGraphClient()
		res, err := core.RunQueryCmd(cmd.Context(), gc, repoID, query, core.QueryOptions{SkipValidation: queryNoValidate})
		if err != nil {
			log.Fatalf("%s", i18n.T("query.error_execute", err))
		}

		if queryJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(res); err != nil {
				log.Fatalf("%v", err)
			}
			return
		}

		if res.IsAsk() {
			fmt.Printf("%t\n", *res.Boolean)
			return
		}

		header, rows := res.Table()
		w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
		fmt.Fprintln(w, strings.Join(header, "\t"))
		for _, row := range rows {
			fmt.Fprintln(w, strings.Join(row, "\t"))
		}
		_ = w.Flush()
		fmt.Printf("%s\n", i18n.T("query.row_count", len(rows)))
	},
}

func init() {
	statusCmd.Flags().BoolVar(&statusCheckDrift, "check-drift", false, "Fetch datasets and compare content hashes against the ledger")
	queryCmd.Flags().StringVarP(&queryRepo, "repository", "r", "", "Repository to query (defaults to the only declared one)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "Print raw SPARQL JSON results")
	queryCmd.Flags().BoolVar(&queryNoValidate, "no-validate", false, "Skip client-side query validation")
}

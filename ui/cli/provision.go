// Copyright (c) 2025 the graphseed authors
// graphseed - GraphDB repository provisioning and RDF import tool
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"fmt"
	"os"

	log "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/spendcast/graphseed/internal/compose"
	"github.com/spendcast/graphseed/internal/core"
	"github.com/spendcast/graphseed/internal/i18n"
)

// initCmd scaffolds a working directory: a docker-compose file for GraphDB
// and a starter graphseed.yaml.
var initCmd = &cobra.Command{
	Use:   "init [directory]",
	Short: "Scaffold a docker-compose setup and starter config",
	Long: `Writes a docker-compose.yaml that runs GraphDB with a persistent volume
and a starter graphseed.yaml declaring one repository and one dataset.
Existing files are not overwritten unless --force is given.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dir := "."
		if len(args) > 0 {
			dir = args[0]
		}
		force, _ := cmd.Flags().GetBool("force")
		repoID, _ := cmd.Flags().GetString("repository")

		written, err := compose.Scaffold(compose.Options{Dir: dir, RepoID: repoID, Force: force})
		if err != nil {
			log.Fatalf("%s", i18n.T("init.error_scaffold", err))
		}
		for _, f := range written {
			fmt.Printf("%s\n", i18n.T("init.wrote_file", f))
		}
		fmt.Println(i18n.T("init.next_steps"))
	},
}

// provisionCmd creates the declared repositories on the GraphDB server.
var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Create the declared repositories on the GraphDB server",
	Long: `Waits for GraphDB to become ready, then creates every repository declared
in graphseed.yaml that does not yet exist. Existing repositories are left
untouched; a parameter change since the last provision is reported as
drift, never reconciled destructively.`,
	PreRunE: setupDefaultServices,
	Run: func(cmd *cobra.Command, args []string) {
		gc := newGraphClient()
		results, err := core.RunProvisionCmd(cmd.Context(), appStore, gc, appConfig.Repositories, &cliReporter{})
		if err != nil {
			log.Fatalf("%s", i18n.T("provision.error", err))
		}

		failed := 0
		for _, r := range results {
			switch {
			case r.Error != nil:
				failed++
				fmt.Printf("%s\n", i18n.T("provision.repo_failed", r.RepoID, r.Error))
			case r.Created:
				fmt.Printf("%s\n", i18n.T("provision.repo_created", r.RepoID))
			case r.ConfigDrift:
				fmt.Printf("%s\n", i18n.T("provision.repo_drift", r.RepoID))
			default:
				fmt.Printf("%s\n", i18n.T("provision.repo_exists", r.RepoID))
			}
		}
		if failed > 0 {
			os.Exit(1)
		}
	},
}

// dropCmd deletes a repository and its ledger entry.
var dropCmd = &cobra.Command{
	Use:   "drop <repository-id>",
	Short: "Delete a repository and all its data",
	Long: `Deletes a repository from the GraphDB server and removes it from the
state ledger. This is destructive and cannot be undone.`,
	Args:    cobra.ExactArgs(1),
	PreRunE: setupDefaultServices,
	Run: func(cmd *cobra.Command, args []string) {
		repoID := args[0]
		force, _ := cmd.Flags().GetBool("force")

		if !force {
			ans := promptForConfirmation(i18n.T("drop.confirm_prompt", repoID))
			if ans != "yes" && ans != "y" {
				fmt.Println(i18n.T("drop.cancelled"))
				return
			}
		}

		gc := newGraphClient()
		if err := core.RunDropCmd(cmd.Context(), appStore, gc, repoID); err != nil {
			log.Fatalf("%s", i18n.T("drop.error", repoID, err))
		}
		fmt.Printf("%s\n", i18n.T("drop.success", repoID))
	},
}

func init() {
	initCmd.Flags().Bool("force", false, "Overwrite existing files")
	initCmd.Flags().String("repository", "", "Repository id for the starter config")
	dropCmd.Flags().Bool("force", false, "Skip the confirmation prompt")
}

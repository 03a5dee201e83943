// Copyright (c) 2025 the graphseed authors
// graphseed - GraphDB repository provisioning and RDF import tool
// This source code is licensed under the MIT license found in the LICENSE file.

package core_test

import (
	"context"
	"testing"

	"github.com/spendcast/graphseed/internal/config"
	"github.com/spendcast/graphseed/internal/core"
	"github.com/spendcast/graphseed/internal/graphdb"
	"github.com/spendcast/graphseed/internal/testutil"
)

func TestProvisionCreatesMissingRepositories(t *testing.T) {
	st := testutil.NewMemStore()
	gc := testutil.NewFakeGraphClient()
	repos := []config.RepositoryConfig{
		{ID: "spendcast", Title: "Spendcast", Ruleset: "rdfsplus-optimized"},
	}

	results, err := core.ProvisionRepositories(context.Background(), st, gc, repos, nil)
	if err != nil {
		t.Fatalf("ProvisionRepositories: %v", err)
	}
	if len(results) != 1 || !results[0].Created || results[0].Error != nil {
		t.Fatalf("unexpected results: %+v", results)
	}
	if len(gc.Created) != 1 || gc.Created[0] != "spendcast" {
		t.Errorf("created on server: %v", gc.Created)
	}

	ledgered, err := st.GetRepository("spendcast")
	if err != nil || ledgered == nil {
		t.Fatalf("repository not recorded in ledger: %v", err)
	}
	if ledgered.ConfigHash != core.RepositoryConfigHash(repos[0]) {
		t.Error("ledger hash does not match the declared parameters")
	}
}

func TestProvisionLeavesExistingUntouched(t *testing.T) {
	st := testutil.NewMemStore()
	gc := testutil.NewFakeGraphClient("spendcast")
	repos := []config.RepositoryConfig{{ID: "spendcast", Ruleset: "rdfsplus-optimized"}}
	if err := st.UpsertRepository("spendcast", "", "rdfsplus-optimized", core.RepositoryConfigHash(repos[0])); err != nil {
		t.Fatal(err)
	}

	results, err := core.ProvisionRepositories(context.Background(), st, gc, repos, nil)
	if err != nil {
		t.Fatalf("ProvisionRepositories: %v", err)
	}
	if results[0].Created || results[0].ConfigDrift || results[0].Error != nil {
		t.Errorf("unexpected result for an up-to-date repository: %+v", results[0])
	}
	if len(gc.Created) != 0 {
		t.Errorf("server create calls: %v", gc.Created)
	}
}

func TestProvisionAdoptsUnledgeredRepository(t *testing.T) {
	st := testutil.NewMemStore()
	gc := testutil.NewFakeGraphClient("spendcast")
	repos := []config.RepositoryConfig{{ID: "spendcast"}}

	results, err := core.ProvisionRepositories(context.Background(), st, gc, repos, nil)
	if err != nil {
		t.Fatalf("ProvisionRepositories: %v", err)
	}
	if results[0].Created || results[0].Error != nil {
		t.Errorf("adoption must not count as creation: %+v", results[0])
	}
	if r, _ := st.GetRepository("spendcast"); r == nil {
		t.Error("adopted repository missing from the ledger")
	}
}

func TestProvisionReportsConfigDrift(t *testing.T) {
	st := testutil.NewMemStore()
	gc := testutil.NewFakeGraphClient("spendcast")
	if err := st.UpsertRepository("spendcast", "old title", "owl-horst", "stale-hash"); err != nil {
		t.Fatal(err)
	}
	repos := []config.RepositoryConfig{{ID: "spendcast", Title: "new title", Ruleset: "rdfsplus-optimized"}}

	results, err := core.ProvisionRepositories(context.Background(), st, gc, repos, nil)
	if err != nil {
		t.Fatalf("ProvisionRepositories: %v", err)
	}
	if !results[0].ConfigDrift {
		t.Error("expected drift for changed parameters")
	}
	// Drift is reported, never reconciled.
	r, _ := st.GetRepository("spendcast")
	if r.ConfigHash != "stale-hash" {
		t.Error("drift must not rewrite the ledger")
	}
	if len(gc.Deleted) != 0 || len(gc.Created) != 0 {
		t.Error("drift must not touch the server")
	}
}

func TestProvisionRecoversFromCreateRace(t *testing.T) {
	st := testutil.NewMemStore()
	// A concurrent provisioner wins the race: the repository appears between
	// List and Create, so Create answers 409.
	gc := testutil.NewFakeGraphClient()
	gc.CreateErr = &graphdb.APIError{StatusCode: 409, Method: "POST", Path: "/rest/repositories"}

	results, err := core.ProvisionRepositories(context.Background(), st, gc,
		[]config.RepositoryConfig{{ID: "spendcast"}}, nil)
	if err != nil {
		t.Fatalf("ProvisionRepositories: %v", err)
	}
	if results[0].Error != nil {
		t.Fatalf("conflict must be recovered: %v", results[0].Error)
	}
	if r, _ := st.GetRepository("spendcast"); r == nil {
		t.Error("race winner's repository missing from the ledger")
	}
}

func TestDropRepository(t *testing.T) {
	st := testutil.NewMemStore()
	gc := testutil.NewFakeGraphClient("spendcast")
	if err := st.UpsertRepository("spendcast", "", "", "h"); err != nil {
		t.Fatal(err)
	}

	if err := core.DropRepository(context.Background(), st, gc, "spendcast"); err != nil {
		t.Fatalf("DropRepository: %v", err)
	}
	if _, exists := gc.Repos["spendcast"]; exists {
		t.Error("repository still on the server")
	}
	if r, _ := st.GetRepository("spendcast"); r != nil {
		t.Error("repository still in the ledger")
	}
}

func TestDropRepositoryToleratesMissing(t *testing.T) {
	st := testutil.NewMemStore()
	gc := testutil.NewFakeGraphClient()
	if err := st.UpsertRepository("spendcast", "", "", "h"); err != nil {
		t.Fatal(err)
	}
	if err := core.DropRepository(context.Background(), st, gc, "spendcast"); err != nil {
		t.Fatalf("dropping a server-absent repository must still clean the ledger: %v", err)
	}
	if r, _ := st.GetRepository("spendcast"); r != nil {
		t.Error("ledger entry not removed")
	}
}

func TestRepositoryConfigHashChangesWithParams(t *testing.T) {
	a := core.RepositoryConfigHash(config.RepositoryConfig{ID: "r", Title: "t", Ruleset: "x"})
	b := core.RepositoryConfigHash(config.RepositoryConfig{ID: "r", Title: "t", Ruleset: "y"})
	if a == b {
		t.Error("different rulesets must hash differently")
	}
	if a != core.RepositoryConfigHash(config.RepositoryConfig{ID: "r", Title: "t", Ruleset: "x"}) {
		t.Error("hash must be deterministic")
	}
}

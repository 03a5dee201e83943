// Copyright (c) 2025 the graphseed authors
// graphseed - GraphDB repository provisioning and RDF import tool
// This source code is licensed under the MIT license found in the LICENSE file.

package core_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spendcast/graphseed/internal/config"
	"github.com/spendcast/graphseed/internal/core"
	"github.com/spendcast/graphseed/internal/model"
	"github.com/spendcast/graphseed/internal/source"
	"github.com/spendcast/graphseed/internal/testutil"
)

const turtleSample = "<urn:a> <urn:b> <urn:c> .\n"

func writeDataset(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestImportDatasets(t *testing.T) {
	st := testutil.NewMemStore()
	gc := testutil.NewFakeGraphClient("spendcast")
	path := writeDataset(t, "spend.ttl", turtleSample)
	datasets := []config.DatasetConfig{
		{Name: "spend", Repository: "spendcast", Source: path, Graph: "http://example.org/g"},
	}

	results, err := core.ImportDatasets(context.Background(), st, gc, source.New(st), datasets, core.ImportOptions{}, nil)
	if err != nil {
		t.Fatalf("ImportDatasets: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}
	res := results[0]
	if res.Error != nil || res.Skipped {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Bytes != int64(len(turtleSample)) {
		t.Errorf("bytes = %d, want %d", res.Bytes, len(turtleSample))
	}
	if string(gc.Repos["spendcast"]["http://example.org/g"]) != turtleSample {
		t.Error("statements not uploaded into the named graph")
	}

	rec, err := st.GetLatestImport("spend", "spendcast")
	if err != nil || rec == nil {
		t.Fatalf("no ledger record: %v", err)
	}
	if rec.Status != model.ImportStatusOK || rec.ContentHash != res.ContentHash {
		t.Errorf("ledger record: %+v", rec)
	}
	if rec.RunID == "" {
		t.Error("ledger record has no run id")
	}
}

func TestImportSkipsUnchangedContent(t *testing.T) {
	st := testutil.NewMemStore()
	gc := testutil.NewFakeGraphClient("spendcast")
	path := writeDataset(t, "spend.ttl", turtleSample)
	datasets := []config.DatasetConfig{{Name: "spend", Repository: "spendcast", Source: path}}
	fetcher := source.New(st)

	first, err := core.ImportDatasets(context.Background(), st, gc, fetcher, datasets, core.ImportOptions{}, nil)
	if err != nil || first[0].Error != nil {
		t.Fatalf("first import: %v / %v", err, first[0].Error)
	}

	second, err := core.ImportDatasets(context.Background(), st, gc, fetcher, datasets, core.ImportOptions{}, nil)
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if !second[0].Skipped {
		t.Error("unchanged content must be skipped")
	}
	// The default graph holds exactly one copy.
	if string(gc.Repos["spendcast"][""]) != turtleSample {
		t.Error("skipped import must not upload again")
	}
}

func TestImportForceReimports(t *testing.T) {
	st := testutil.NewMemStore()
	gc := testutil.NewFakeGraphClient("spendcast")
	path := writeDataset(t, "spend.ttl", turtleSample)
	datasets := []config.DatasetConfig{{Name: "spend", Repository: "spendcast", Source: path}}
	fetcher := source.New(st)

	if _, err := core.ImportDatasets(context.Background(), st, gc, fetcher, datasets, core.ImportOptions{}, nil); err != nil {
		t.Fatal(err)
	}
	results, err := core.ImportDatasets(context.Background(), st, gc, fetcher, datasets, core.ImportOptions{Force: true}, nil)
	if err != nil {
		t.Fatalf("forced import: %v", err)
	}
	if results[0].Skipped {
		t.Error("force must bypass the hash check")
	}
}

func TestImportChangedContentReimports(t *testing.T) {
	st := testutil.NewMemStore()
	gc := testutil.NewFakeGraphClient("spendcast")
	dir := t.TempDir()
	path := filepath.Join(dir, "spend.ttl")
	if err := os.WriteFile(path, []byte(turtleSample), 0644); err != nil {
		t.Fatal(err)
	}
	datasets := []config.DatasetConfig{{Name: "spend", Repository: "spendcast", Source: path, Replace: true}}
	fetcher := source.New(st)

	if _, err := core.ImportDatasets(context.Background(), st, gc, fetcher, datasets, core.ImportOptions{}, nil); err != nil {
		t.Fatal(err)
	}
	updated := turtleSample + "<urn:d> <urn:e> <urn:f> .\n"
	if err := os.WriteFile(path, []byte(updated), 0644); err != nil {
		t.Fatal(err)
	}
	results, err := core.ImportDatasets(context.Background(), st, gc, fetcher, datasets, core.ImportOptions{}, nil)
	if err != nil {
		t.Fatalf("re-import: %v", err)
	}
	if results[0].Skipped || results[0].Error != nil {
		t.Fatalf("changed content must be re-imported: %+v", results[0])
	}
	if string(gc.Repos["spendcast"][""]) != updated {
		t.Error("replace import must overwrite the graph")
	}
}

func TestImportFailureIsRecordedAndIsolated(t *testing.T) {
	st := testutil.NewMemStore()
	gc := testutil.NewFakeGraphClient("spendcast")
	good := writeDataset(t, "good.ttl", turtleSample)
	datasets := []config.DatasetConfig{
		{Name: "bad", Repository: "spendcast", Source: filepath.Join(t.TempDir(), "missing.ttl")},
		{Name: "good", Repository: "spendcast", Source: good},
	}

	results, err := core.ImportDatasets(context.Background(), st, gc, source.New(st), datasets, core.ImportOptions{Parallel: 1}, nil)
	if err != nil {
		t.Fatalf("ImportDatasets: %v", err)
	}
	if results[0].Error == nil {
		t.Error("missing source must fail")
	}
	if results[1].Error != nil {
		t.Errorf("one failing dataset must not abort the others: %v", results[1].Error)
	}

	// The failure lands in the ledger too.
	recent, err := st.GetRecentImports(10)
	if err != nil {
		t.Fatal(err)
	}
	var sawFailed bool
	for _, rec := range recent {
		if rec.Dataset == "bad" && rec.Status == model.ImportStatusFailed && rec.Error != "" {
			sawFailed = true
		}
	}
	if !sawFailed {
		t.Error("failed import not recorded in the ledger")
	}
}

func TestImportOnlyFilter(t *testing.T) {
	st := testutil.NewMemStore()
	gc := testutil.NewFakeGraphClient("spendcast")
	a := writeDataset(t, "a.ttl", turtleSample)
	b := writeDataset(t, "b.ttl", turtleSample)
	datasets := []config.DatasetConfig{
		{Name: "a", Repository: "spendcast", Source: a, Graph: "urn:graph:a"},
		{Name: "b", Repository: "spendcast", Source: b, Graph: "urn:graph:b"},
	}

	results, err := core.ImportDatasets(context.Background(), st, gc, source.New(st), datasets,
		core.ImportOptions{Only: []string{"b"}}, nil)
	if err != nil {
		t.Fatalf("ImportDatasets: %v", err)
	}
	if len(results) != 1 || results[0].Dataset.Name != "b" {
		t.Fatalf("only filter not applied: %+v", results)
	}
	if _, ok := gc.Repos["spendcast"]["urn:graph:a"]; ok {
		t.Error("filtered-out dataset was imported")
	}

	if _, err := core.ImportDatasets(context.Background(), st, gc, source.New(st), datasets,
		core.ImportOptions{Only: []string{"nope"}}, nil); err == nil {
		t.Error("unknown dataset name must be an error")
	}
}

func TestServeStartupProvisionsAndImports(t *testing.T) {
	st := testutil.NewMemStore()
	gc := testutil.NewFakeGraphClient()
	path := writeDataset(t, "spend.ttl", turtleSample)
	repos := []config.RepositoryConfig{{ID: "spendcast", Title: "Spendcast", Ruleset: "rdfsplus-optimized"}}
	datasets := []config.DatasetConfig{{Name: "spend", Repository: "spendcast", Source: path}}

	results, err := core.RunServeStartupCmd(context.Background(), st, gc, source.New(st), repos, datasets, nil)
	if err != nil {
		t.Fatalf("RunServeStartupCmd: %v", err)
	}

	// The repository was provisioned before the import ran against it.
	if _, ok := gc.Repos["spendcast"]; !ok {
		t.Fatal("repository not created on the server")
	}
	if r, _ := st.GetRepository("spendcast"); r == nil {
		t.Error("repository not recorded in the ledger")
	}
	if len(results) != 1 || results[0].Error != nil || results[0].Skipped {
		t.Fatalf("unexpected import results: %+v", results)
	}
	if rec, _ := st.GetLatestImport("spend", "spendcast"); rec == nil {
		t.Error("import not recorded in the ledger")
	}
}

// Copyright (c) 2025 the graphseed authors
// graphseed - GraphDB repository provisioning and RDF import tool
// This source code is licensed under the MIT license found in the LICENSE file.

package core

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/spendcast/graphseed/internal/config"
	"github.com/spendcast/graphseed/internal/model"
)

// defaultImportParallelism bounds concurrent dataset imports when the caller
// does not set one.
const defaultImportParallelism = 4

// ImportOptions controls a dataset import run.
type ImportOptions struct {
	// Force imports even when the content hash matches the last
	// successful import.
	Force bool
	// Parallel bounds concurrent dataset imports. Zero means the default.
	Parallel int
	// Only restricts the run to the named datasets; empty means all.
	Only []string
}

// ImportResult is the outcome for one dataset.
type ImportResult struct {
	Dataset model.Dataset
	// Skipped is true when the content was unchanged and Force was not set.
	Skipped     bool
	ContentHash string
	Bytes       int64
	Duration    time.Duration
	Error       error
}

// ImportDatasets fetches and imports the declared datasets. Each payload is
// spooled to a temporary file while its content hash is computed; when the
// hash matches the last successful import for the (dataset, repository) pair
// the upload is skipped. Every outcome is recorded in the ledger under a
// shared run id.
func ImportDatasets(ctx context.Context, st Store, gc GraphClient, fetcher Fetcher, datasets []config.DatasetConfig, opts ImportOptions, rep Reporter) ([]ImportResult, error) {
	targets, err := selectDatasets(datasets, opts.Only)
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		return nil, nil
	}

	if err := gc.WaitUntilReady(ctx); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	parallel := opts.Parallel
	if parallel <= 0 {
		parallel = defaultImportParallelism
	}

	results := make([]ImportResult, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for i, dc := range targets {
		g.Go(func() error {
			results[i] = importOne(gctx, st, gc, fetcher, dc, runID, opts.Force, rep)
			// Failures are carried in the result; only a cancelled context
			// aborts the remaining datasets.
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// selectDatasets resolves the --only filter against the declared datasets.
func selectDatasets(datasets []config.DatasetConfig, only []string) ([]config.DatasetConfig, error) {
	if len(only) == 0 {
		return datasets, nil
	}
	byName := make(map[string]config.DatasetConfig, len(datasets))
	for _, dc := range datasets {
		byName[dc.Name] = dc
	}
	selected := make([]config.DatasetConfig, 0, len(only))
	for _, name := range only {
		dc, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("unknown dataset: %s", name)
		}
		selected = append(selected, dc)
	}
	return selected, nil
}

func importOne(ctx context.Context, st Store, gc GraphClient, fetcher Fetcher, dc config.DatasetConfig, runID string, force bool, rep Reporter) ImportResult {
	ds := model.Dataset{
		Name:       dc.Name,
		Repository: dc.Repository,
		Source:     dc.Source,
		Format:     dc.Format,
		Graph:      dc.Graph,
		Replace:    dc.Replace,
		Schedule:   dc.Schedule,
	}
	start := time.Now()
	res := ImportResult{Dataset: ds}

	record := func(status string, fail error) {
		rec := model.ImportRecord{
			RunID:       runID,
			Dataset:     ds.Name,
			Repository:  ds.Repository,
			Source:      ds.Source,
			ContentHash: res.ContentHash,
			Bytes:       res.Bytes,
			Status:      status,
		}
		if fail != nil {
			rec.Error = fail.Error()
		}
		if _, err := st.RecordImport(rec); err != nil && res.Error == nil {
			res.Error = fmt.Errorf("record import of %s: %w", ds, err)
		}
	}

	payload, err := fetcher.Fetch(ctx, dc.Source, dc.Format)
	if err != nil {
		res.Error = err
		record(model.ImportStatusFailed, err)
		return res
	}
	defer func() { _ = payload.Close() }()

	// Spool the decompressed payload so the hash is known before uploading
	// and the upload can stream from disk.
	spool, err := os.CreateTemp("", "graphseed-import-*")
	if err != nil {
		res.Error = err
		record(model.ImportStatusFailed, err)
		return res
	}
	defer func() {
		_ = spool.Close()
		_ = os.Remove(spool.Name())
	}()

	n, err := io.Copy(spool, payload.Reader)
	if err != nil {
		res.Error = fmt.Errorf("fetch %s: %w", ds.Source, err)
		record(model.ImportStatusFailed, res.Error)
		return res
	}
	res.Bytes = n
	res.ContentHash = payload.ContentHash()

	if !force {
		last, lerr := st.GetLatestImport(ds.Name, ds.Repository)
		if lerr != nil {
			res.Error = fmt.Errorf("read ledger for %s: %w", ds, lerr)
			record(model.ImportStatusFailed, res.Error)
			return res
		}
		if last != nil && last.ContentHash == res.ContentHash {
			res.Skipped = true
			res.Duration = time.Since(start)
			if rep != nil {
				rep.Reportf("%s: unchanged, skipping\n", ds)
			}
			record(model.ImportStatusSkipped, nil)
			return res
		}
	}

	if _, err := spool.Seek(0, io.SeekStart); err != nil {
		res.Error = err
		record(model.ImportStatusFailed, err)
		return res
	}
	if err := gc.ImportStatements(ctx, ds.Repository, spool, payload.Format, ds.Graph, ds.Replace); err != nil {
		res.Error = err
		record(model.ImportStatusFailed, err)
		return res
	}

	res.Duration = time.Since(start)
	if rep != nil {
		rep.Reportf("%s: imported %d bytes in %s\n", ds, res.Bytes, res.Duration.Round(time.Millisecond))
	}
	record(model.ImportStatusOK, nil)
	return res
}

// RunImportCmd runs the import command logic.
func RunImportCmd(ctx context.Context, st Store, gc GraphClient, fetcher Fetcher, datasets []config.DatasetConfig, opts ImportOptions, rep Reporter) ([]ImportResult, error) {
	return ImportDatasets(ctx, st, gc, fetcher, datasets, opts, rep)
}

// ServeStartup runs one provision+import convergence pass. The serve daemon
// calls it before handing control to the scheduler so a fresh daemon
// converges immediately instead of idling until the first cron tick.
// Per-dataset import failures are carried in the results, not the error.
func ServeStartup(ctx context.Context, st Store, gc GraphClient, fetcher Fetcher, repos []config.RepositoryConfig, datasets []config.DatasetConfig, rep Reporter) ([]ImportResult, error) {
	if _, err := ProvisionRepositories(ctx, st, gc, repos, rep); err != nil {
		return nil, err
	}
	return ImportDatasets(ctx, st, gc, fetcher, datasets, ImportOptions{}, rep)
}

// RunServeStartupCmd is the facade for the serve command's startup pass.
func RunServeStartupCmd(ctx context.Context, st Store, gc GraphClient, fetcher Fetcher, repos []config.RepositoryConfig, datasets []config.DatasetConfig, rep Reporter) ([]ImportResult, error) {
	return ServeStartup(ctx, st, gc, fetcher, repos, datasets, rep)
}

// Copyright (c) 2025 the graphseed authors
// graphseed - GraphDB repository provisioning and RDF import tool
// This source code is licensed under the MIT license found in the LICENSE file.

package core

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/spendcast/graphseed/internal/config"
	"github.com/spendcast/graphseed/internal/model"
)

// StatusReport is the result of `graphseed status`.
type StatusReport struct {
	Healthy         bool
	ProtocolVersion string
	Repositories    []model.RepoStatus
	Drift           []model.DatasetDrift
}

// StatusOptions controls how much work the status command does.
type StatusOptions struct {
	// CheckDrift fetches every dataset and compares its content hash with
	// the last successful import. This downloads the datasets.
	CheckDrift bool
}

// Status inspects the server and the ledger and classifies every repository
// as ok, missing or undeclared.
func Status(ctx context.Context, st Store, gc GraphClient, cfg *config.Config, fetcher Fetcher, opts StatusOptions) (*StatusReport, error) {
	report := &StatusReport{}

	if err := gc.Ping(ctx); err != nil {
		// An unreachable server still yields a report; the ledger side is
		// useful on its own.
		return report, err
	}
	report.Healthy = true
	if v, err := gc.ProtocolVersion(ctx); err == nil {
		report.ProtocolVersion = v
	}

	serverRepos, err := gc.ListRepositories(ctx)
	if err != nil {
		return report, fmt.Errorf("list repositories: %w", err)
	}
	onServer := make(map[string]bool, len(serverRepos))
	for _, r := range serverRepos {
		onServer[r.ID] = true
	}
	declared := make(map[string]bool, len(cfg.Repositories))

	for _, rc := range cfg.Repositories {
		declared[rc.ID] = true
		rs := model.RepoStatus{RepoID: rc.ID, Title: rc.Title, State: model.RepoStateMissing, Size: -1}
		if onServer[rc.ID] {
			rs.State = model.RepoStateOK
			if size, err := gc.RepositorySize(ctx, rc.ID); err == nil {
				rs.Size = size
			}
		}
		if last := latestImportForRepo(st, cfg.Datasets, rc.ID); last != nil {
			rs.LastImport = last
		}
		report.Repositories = append(report.Repositories, rs)
	}
	for _, r := range serverRepos {
		if declared[r.ID] {
			continue
		}
		report.Repositories = append(report.Repositories, model.RepoStatus{
			RepoID: r.ID,
			Title:  r.Title,
			State:  model.RepoStateUndeclared,
			Size:   -1,
		})
	}
	sort.Slice(report.Repositories, func(i, j int) bool {
		return report.Repositories[i].RepoID < report.Repositories[j].RepoID
	})

	if opts.CheckDrift {
		drift, err := detectDrift(ctx, st, fetcher, cfg.Datasets)
		if err != nil {
			return report, err
		}
		report.Drift = drift
	}
	return report, nil
}

// latestImportForRepo returns the newest successful import among the
// datasets bound to a repository.
func latestImportForRepo(st Store, datasets []config.DatasetConfig, repoID string) *model.ImportRecord {
	var newest *model.ImportRecord
	for _, dc := range datasets {
		if dc.Repository != repoID {
			continue
		}
		rec, err := st.GetLatestImport(dc.Name, dc.Repository)
		if err != nil || rec == nil {
			continue
		}
		if newest == nil || rec.ImportedAt.After(newest.ImportedAt) {
			newest = rec
		}
	}
	return newest
}

// detectDrift re-fetches each dataset and compares its hash against the
// ledger. Datasets that were never imported are reported with an empty
// ledger hash.
func detectDrift(ctx context.Context, st Store, fetcher Fetcher, datasets []config.DatasetConfig) ([]model.DatasetDrift, error) {
	var drift []model.DatasetDrift
	for _, dc := range datasets {
		ds := model.Dataset{
			Name:       dc.Name,
			Repository: dc.Repository,
			Source:     dc.Source,
			Format:     dc.Format,
			Graph:      dc.Graph,
		}
		payload, err := fetcher.Fetch(ctx, dc.Source, dc.Format)
		if err != nil {
			return drift, fmt.Errorf("fetch %s for drift check: %w", ds, err)
		}
		if _, err := io.Copy(io.Discard, payload.Reader); err != nil {
			_ = payload.Close()
			return drift, fmt.Errorf("read %s for drift check: %w", ds, err)
		}
		current := payload.ContentHash()
		_ = payload.Close()

		last, err := st.GetLatestImport(dc.Name, dc.Repository)
		if err != nil {
			return drift, err
		}
		ledgerHash := ""
		if last != nil {
			ledgerHash = last.ContentHash
		}
		if ledgerHash != current {
			drift = append(drift, model.DatasetDrift{
				Dataset:     ds,
				LedgerHash:  ledgerHash,
				CurrentHash: current,
			})
		}
	}
	return drift, nil
}

// RunStatusCmd runs the status command logic.
func RunStatusCmd(ctx context.Context, st Store, gc GraphClient, cfg *config.Config, fetcher Fetcher, opts StatusOptions) (*StatusReport, error) {
	return Status(ctx, st, gc, cfg, fetcher, opts)
}

// Copyright (c) 2025 the graphseed authors
// graphseed - GraphDB repository provisioning and RDF import tool
// This source code is licensed under the MIT license found in the LICENSE file.

package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/spendcast/graphseed/internal/config"
	"github.com/spendcast/graphseed/internal/graphdb"
)

// ProvisionResult is the outcome for one declared repository.
type ProvisionResult struct {
	RepoID string
	// Created is true when the repository was created on this run; false
	// means it already existed.
	Created bool
	// ConfigDrift is true when the repository exists but its declared
	// parameters differ from the ones recorded at provision time.
	ConfigDrift bool
	Error       error
}

// RepositoryConfigHash returns the hash recorded in the ledger at provision
// time. Any parameter change shows up as drift on the next run.
func RepositoryConfigHash(rc config.RepositoryConfig) string {
	h := sha256.New()
	h.Write([]byte(rc.ID))
	h.Write([]byte{0})
	h.Write([]byte(rc.Title))
	h.Write([]byte{0})
	h.Write([]byte(rc.Ruleset))
	return hex.EncodeToString(h.Sum(nil))
}

// ProvisionRepositories creates every declared repository that does not yet
// exist on the server and records it in the ledger. Existing repositories
// are left untouched; a parameter change since the recorded provision is
// reported as drift, never reconciled destructively.
func ProvisionRepositories(ctx context.Context, st Store, gc GraphClient, repos []config.RepositoryConfig, rep Reporter) ([]ProvisionResult, error) {
	if err := gc.WaitUntilReady(ctx); err != nil {
		return nil, err
	}

	existing, err := gc.ListRepositories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list repositories: %w", err)
	}
	present := make(map[string]bool, len(existing))
	for _, r := range existing {
		present[r.ID] = true
	}

	results := make([]ProvisionResult, 0, len(repos))
	for _, rc := range repos {
		res := ProvisionResult{RepoID: rc.ID}
		hash := RepositoryConfigHash(rc)

		if present[rc.ID] {
			ledgered, lerr := st.GetRepository(rc.ID)
			if lerr != nil {
				res.Error = fmt.Errorf("read ledger for %s: %w", rc.ID, lerr)
				results = append(results, res)
				continue
			}
			if ledgered == nil {
				// Adopted: exists on the server but not in the ledger.
				if err := st.UpsertRepository(rc.ID, rc.Title, rc.Ruleset, hash); err != nil {
					res.Error = fmt.Errorf("adopt repository %s: %w", rc.ID, err)
				} else if rep != nil {
					rep.Reportf("adopted existing repository %s\n", rc.ID)
				}
			} else if ledgered.ConfigHash != hash {
				res.ConfigDrift = true
				if rep != nil {
					rep.Reportf("repository %s exists but its declared parameters changed; not reconciling\n", rc.ID)
				}
			}
			results = append(results, res)
			continue
		}

		err := gc.CreateRepository(ctx, graphdb.RepositorySpec{
			ID:      rc.ID,
			Title:   rc.Title,
			Ruleset: rc.Ruleset,
		})
		if err != nil {
			// A concurrent provisioner may have won the race.
			if graphdb.IsConflict(err) {
				if uerr := st.UpsertRepository(rc.ID, rc.Title, rc.Ruleset, hash); uerr != nil {
					err = uerr
				} else {
					err = nil
				}
			}
			if err != nil {
				res.Error = err
				results = append(results, res)
				continue
			}
			results = append(results, res)
			continue
		}

		res.Created = true
		if err := st.UpsertRepository(rc.ID, rc.Title, rc.Ruleset, hash); err != nil {
			res.Error = fmt.Errorf("record provision of %s: %w", rc.ID, err)
		} else if rep != nil {
			rep.Reportf("created repository %s\n", rc.ID)
		}
		results = append(results, res)
	}
	return results, nil
}

// DropRepository deletes a repository from the server and from the ledger.
// Dropping a repository that is already gone from the server only cleans up
// the ledger entry.
func DropRepository(ctx context.Context, st Store, gc GraphClient, repoID string) error {
	if err := gc.DeleteRepository(ctx, repoID); err != nil && !graphdb.IsNotFound(err) {
		return err
	}
	return st.DeleteRepository(repoID)
}

// CLI-facing wrappers that call the facades above.

// RunProvisionCmd runs the provision command logic.
func RunProvisionCmd(ctx context.Context, st Store, gc GraphClient, repos []config.RepositoryConfig, rep Reporter) ([]ProvisionResult, error) {
	return ProvisionRepositories(ctx, st, gc, repos, rep)
}

// RunDropCmd runs the drop command logic for a single repository.
func RunDropCmd(ctx context.Context, st Store, gc GraphClient, repoID string) error {
	return DropRepository(ctx, st, gc, repoID)
}

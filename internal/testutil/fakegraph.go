// Copyright (c) 2025 the graphseed authors
// graphseed - GraphDB repository provisioning and RDF import tool
// This source code is licensed under the MIT license found in the LICENSE file.

package testutil

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/spendcast/graphseed/internal/graphdb"
	"github.com/spendcast/graphseed/internal/sparql"
)

// FakeGraphClient simulates the GraphDB REST API in memory. Repositories map
// repo ids to imported payloads keyed by graph IRI ("" is the default graph).
type FakeGraphClient struct {
	mu sync.Mutex

	Repos map[string]map[string][]byte

	// Down simulates an unreachable server: every call fails.
	Down bool
	// PingErr overrides just the health check.
	PingErr error
	// CreateErr, when set, is returned from CreateRepository.
	CreateErr error
	// ImportErr, when set, is returned from ImportStatements.
	ImportErr error
	// QueryResults is returned from Query when set.
	QueryResults *sparql.Results

	Created []string
	Deleted []string
	Queries []string
}

// NewFakeGraphClient returns a fake with the given pre-existing repositories.
func NewFakeGraphClient(repoIDs ...string) *FakeGraphClient {
	f := &FakeGraphClient{Repos: make(map[string]map[string][]byte)}
	for _, id := range repoIDs {
		f.Repos[id] = make(map[string][]byte)
	}
	return f
}

func (f *FakeGraphClient) down() error {
	if f.Down {
		return fmt.Errorf("connection refused")
	}
	return nil
}

func (f *FakeGraphClient) Ping(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PingErr != nil {
		return f.PingErr
	}
	return f.down()
}

func (f *FakeGraphClient) WaitUntilReady(ctx context.Context) error {
	return f.Ping(ctx)
}

func (f *FakeGraphClient) ProtocolVersion(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.down(); err != nil {
		return "", err
	}
	return "12", nil
}

func (f *FakeGraphClient) ListRepositories(ctx context.Context) ([]graphdb.RepositoryInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.down(); err != nil {
		return nil, err
	}
	out := make([]graphdb.RepositoryInfo, 0, len(f.Repos))
	for id := range f.Repos {
		out = append(out, graphdb.RepositoryInfo{ID: id, Type: "free", Readable: true, Writable: true})
	}
	return out, nil
}

func (f *FakeGraphClient) CreateRepository(ctx context.Context, spec graphdb.RepositorySpec) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.down(); err != nil {
		return err
	}
	if f.CreateErr != nil {
		return f.CreateErr
	}
	if _, exists := f.Repos[spec.ID]; exists {
		return &graphdb.APIError{StatusCode: 409, Method: "POST", Path: "/rest/repositories"}
	}
	f.Repos[spec.ID] = make(map[string][]byte)
	f.Created = append(f.Created, spec.ID)
	return nil
}

func (f *FakeGraphClient) DeleteRepository(ctx context.Context, repoID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.down(); err != nil {
		return err
	}
	if _, exists := f.Repos[repoID]; !exists {
		return &graphdb.APIError{StatusCode: 404, Method: "DELETE", Path: "/rest/repositories/" + repoID}
	}
	delete(f.Repos, repoID)
	f.Deleted = append(f.Deleted, repoID)
	return nil
}

func (f *FakeGraphClient) RepositorySize(ctx context.Context, repoID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.down(); err != nil {
		return 0, err
	}
	graphs, exists := f.Repos[repoID]
	if !exists {
		return 0, &graphdb.APIError{StatusCode: 404, Method: "GET", Path: "/repositories/" + repoID + "/size"}
	}
	var size int64
	for _, data := range graphs {
		size += int64(len(data))
	}
	return size, nil
}

func (f *FakeGraphClient) ImportStatements(ctx context.Context, repoID string, r io.Reader, format graphdb.RDFFormat, graph string, replace bool) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.down(); err != nil {
		return err
	}
	if f.ImportErr != nil {
		return f.ImportErr
	}
	graphs, exists := f.Repos[repoID]
	if !exists {
		return &graphdb.APIError{StatusCode: 404, Method: "POST", Path: "/repositories/" + repoID + "/statements"}
	}
	if replace {
		graphs[graph] = data
	} else {
		graphs[graph] = append(graphs[graph], data...)
	}
	return nil
}

func (f *FakeGraphClient) ClearGraph(ctx context.Context, repoID, graph string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.down(); err != nil {
		return err
	}
	graphs, exists := f.Repos[repoID]
	if !exists {
		return &graphdb.APIError{StatusCode: 404, Method: "DELETE", Path: "/repositories/" + repoID + "/statements"}
	}
	delete(graphs, graph)
	return nil
}

func (f *FakeGraphClient) Query(ctx context.Context, repoID, query string) (*sparql.Results, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.down(); err != nil {
		return nil, err
	}
	f.Queries = append(f.Queries, query)
	if f.QueryResults != nil {
		return f.QueryResults, nil
	}
	return &sparql.Results{}, nil
}

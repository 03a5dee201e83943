// Copyright (c) 2025 the graphseed authors
// graphseed - GraphDB repository provisioning and RDF import tool
// This source code is licensed under the MIT license found in the LICENSE file.

package core_test

import (
	"context"
	"testing"

	"github.com/spendcast/graphseed/internal/config"
	"github.com/spendcast/graphseed/internal/core"
	"github.com/spendcast/graphseed/internal/model"
	"github.com/spendcast/graphseed/internal/testutil"
)

func TestBuildDashboardData(t *testing.T) {
	st := testutil.NewMemStore()
	gc := testutil.NewFakeGraphClient("spendcast", "scratch")
	cfg := &config.Config{
		Repositories: []config.RepositoryConfig{{ID: "spendcast"}, {ID: "archive"}},
	}
	for i := 0; i < 12; i++ {
		if _, err := st.RecordImport(model.ImportRecord{Dataset: "spend", Repository: "spendcast", Status: model.ImportStatusOK}); err != nil {
			t.Fatal(err)
		}
	}
	st.AuditLog = append(st.AuditLog, model.AuditLogEntry{Action: "provision", Details: "spendcast"})

	data, err := core.BuildDashboardData(context.Background(), st, gc, cfg, "http://localhost:7200")
	if err != nil {
		t.Fatalf("BuildDashboardData: %v", err)
	}
	if !data.Healthy || data.Endpoint != "http://localhost:7200" {
		t.Errorf("health/endpoint: %+v", data)
	}
	if data.RepoOK != 1 || data.RepoMissing != 1 || data.RepoUndeclared != 1 {
		t.Errorf("counts = ok:%d missing:%d undeclared:%d", data.RepoOK, data.RepoMissing, data.RepoUndeclared)
	}
	if len(data.RecentImports) != 10 {
		t.Errorf("recent imports = %d, want capped at 10", len(data.RecentImports))
	}
	if len(data.RecentLogs) != 1 {
		t.Errorf("recent logs = %d, want 1", len(data.RecentLogs))
	}
}

func TestBuildDashboardDataServerDown(t *testing.T) {
	st := testutil.NewMemStore()
	gc := testutil.NewFakeGraphClient()
	gc.Down = true
	cfg := &config.Config{Repositories: []config.RepositoryConfig{{ID: "spendcast"}}}

	data, err := core.BuildDashboardData(context.Background(), st, gc, cfg, "http://localhost:7200")
	if err != nil {
		t.Fatalf("a down server must still produce a dashboard: %v", err)
	}
	if data.Healthy {
		t.Error("dashboard must report the server as down")
	}
}

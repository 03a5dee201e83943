// Copyright (c) 2025 the graphseed authors
// graphseed - GraphDB repository provisioning and RDF import tool
// This source code is licensed under the MIT license found in the LICENSE file.

package core

import (
	"context"

	"github.com/spendcast/graphseed/internal/config"
	"github.com/spendcast/graphseed/internal/model"
)

// DashboardData holds aggregated values for the status dashboard.
type DashboardData struct {
	Healthy         bool
	Endpoint        string
	ProtocolVersion string
	Repositories    []model.RepoStatus
	RepoOK          int
	RepoMissing     int
	RepoUndeclared  int
	RecentImports   []model.ImportRecord
	RecentLogs      []model.AuditLogEntry
}

// AuditLogReader exposes the audit trail for the dashboard.
type AuditLogReader interface {
	GetAllAuditLogEntries() ([]model.AuditLogEntry, error)
}

// BuildDashboardData collects server state, the import ledger and recent
// audit entries, and computes the aggregates the dashboard renders.
func BuildDashboardData(ctx context.Context, st Store, gc GraphClient, cfg *config.Config, endpoint string) (DashboardData, error) {
	out := DashboardData{Endpoint: endpoint}

	report, err := Status(ctx, st, gc, cfg, nil, StatusOptions{})
	if err != nil && !report.Healthy {
		// Keep rendering the ledger side when the server is down.
		out.Repositories = report.Repositories
	} else if err != nil {
		return out, err
	} else {
		out.Repositories = report.Repositories
	}
	out.Healthy = report.Healthy
	out.ProtocolVersion = report.ProtocolVersion

	for _, rs := range out.Repositories {
		switch rs.State {
		case model.RepoStateOK:
			out.RepoOK++
		case model.RepoStateMissing:
			out.RepoMissing++
		case model.RepoStateUndeclared:
			out.RepoUndeclared++
		}
	}

	const maxRecent = 10
	imports, err := st.GetRecentImports(maxRecent)
	if err != nil {
		return out, err
	}
	out.RecentImports = imports

	if reader, ok := st.(AuditLogReader); ok {
		logs, err := reader.GetAllAuditLogEntries()
		if err != nil {
			return out, err
		}
		const maxLogs = 5
		if len(logs) > maxLogs {
			logs = logs[:maxLogs]
		}
		out.RecentLogs = logs
	}

	return out, nil
}

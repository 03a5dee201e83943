// Copyright (c) 2025 the graphseed authors
// graphseed - GraphDB repository provisioning and RDF import tool
// This source code is licensed under the MIT license found in the LICENSE file.

package core

import (
	"github.com/spendcast/graphseed/internal/db"
)

// DBStoreFactory creates ledger stores from DSNs, for migrate targets.
type DBStoreFactory struct{}

// NewStoreFromDSN opens a ledger store for the given database type and DSN.
func (DBStoreFactory) NewStoreFromDSN(dbType, dsn string) (Store, error) {
	return db.NewStoreFromDSN(dbType, dsn)
}

// DBMaintenance runs engine-specific maintenance through the DB layer.
type DBMaintenance struct{}

// RunDBMaintenance delegates to the DB layer maintenance routine.
func (DBMaintenance) RunDBMaintenance(dbType, dsn string, skipIntegrity bool) error {
	return db.RunDBMaintenance(dbType, dsn, skipIntegrity)
}

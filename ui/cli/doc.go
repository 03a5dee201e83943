// Copyright (c) 2025 the graphseed authors
// graphseed - GraphDB repository provisioning and RDF import tool
// This source code is licensed under the MIT license found in the LICENSE file.
//
// Package cli implements the command-line interface for graphseed using Cobra.
// It wires configuration, default services, and provides commands that delegate
// to deterministic `core` facades. CLI code should remain thin and delegate
// business logic to `core` and adapter packages.
package cli

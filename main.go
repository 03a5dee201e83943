// Copyright (c) 2025 the graphseed authors
// graphseed - GraphDB repository provisioning and RDF import tool
// This source code is licensed under the MIT license found in the LICENSE file.

// Command-line entrypoint for graphseed.
//
// Usage:
//
//	go run . [flags]
//	./graphseed [flags]
//
// This launches the graphseed CLI. See --help for options.
package main

import (
	"log"
	"os"

	"github.com/spendcast/graphseed/ui/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		log.Printf("graphseed error: %v", err)
		os.Exit(1)
	}
}

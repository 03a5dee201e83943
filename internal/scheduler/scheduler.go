// Copyright (c) 2025 the graphseed authors
// graphseed - GraphDB repository provisioning and RDF import tool
// This source code is licensed under the MIT license found in the LICENSE file.

// Package scheduler runs scheduled dataset imports for `graphseed serve`.
// Each dataset with a cron schedule gets its own entry; a run that is still
// going when the next tick fires is skipped, not queued.
package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/spendcast/graphseed/internal/config"
	"github.com/spendcast/graphseed/internal/logging"
)

// ImportFunc runs an import for the named datasets.
type ImportFunc func(ctx context.Context, names []string) error

// Scheduler drives cron-scheduled dataset imports.
type Scheduler struct {
	cron     *cron.Cron
	importFn ImportFunc
	entries  int

	mu      sync.Mutex
	running map[string]bool
}

// New builds a Scheduler from the datasets carrying a schedule. It returns
// an error when a schedule does not parse, or when no dataset has one.
func New(datasets []config.DatasetConfig, importFn ImportFunc) (*Scheduler, error) {
	s := &Scheduler{
		cron:     cron.New(),
		importFn: importFn,
		running:  make(map[string]bool),
	}
	for _, dc := range datasets {
		if dc.Schedule == "" {
			continue
		}
		name := dc.Name
		_, err := s.cron.AddFunc(dc.Schedule, func() {
			s.runOne(name)
		})
		if err != nil {
			return nil, fmt.Errorf("invalid schedule %q for dataset %s: %w", dc.Schedule, dc.Name, err)
		}
		s.entries++
	}
	if s.entries == 0 {
		return nil, fmt.Errorf("no datasets with a schedule")
	}
	return s, nil
}

// Entries returns the number of scheduled datasets.
func (s *Scheduler) Entries() int {
	return s.entries
}

// Run starts the cron loop and blocks until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Start()
	<-ctx.Done()
	stopCtx := s.cron.Stop()
	// Let in-flight imports finish before returning.
	<-stopCtx.Done()
	return ctx.Err()
}

// runOne imports a single dataset, skipping when the previous run of the
// same dataset has not finished.
func (s *Scheduler) runOne(name string) {
	s.mu.Lock()
	if s.running[name] {
		s.mu.Unlock()
		logging.Infof("scheduled import of %s skipped: previous run still in progress", name)
		return
	}
	s.running[name] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.running, name)
		s.mu.Unlock()
	}()

	logging.Infof("scheduled import of %s starting", name)
	if err := s.importFn(context.Background(), []string{name}); err != nil {
		logging.Errorf("scheduled import of %s failed: %v", name, err)
	}
}

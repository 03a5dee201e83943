// Copyright (c) 2025 the graphseed authors
// graphseed - GraphDB repository provisioning and RDF import tool
// This source code is licensed under the MIT license found in the LICENSE file.

// Package watch re-imports datasets when their local source files change.
// Only file-path sources can be watched; http(s) and sftp sources are
// covered by the cron scheduler instead.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/spendcast/graphseed/internal/config"
	"github.com/spendcast/graphseed/internal/logging"
)

// debounceWindow coalesces the event bursts editors and copy tools produce
// into a single import per file.
const debounceWindow = 500 * time.Millisecond

// ImportFunc runs an import for the named datasets.
type ImportFunc func(ctx context.Context, names []string) error

// Watcher maps filesystem events back to the datasets they affect.
type Watcher struct {
	fsw      *fsnotify.Watcher
	byPath   map[string][]string // absolute source path -> dataset names
	importFn ImportFunc
}

// New creates a Watcher over the local-file datasets in the config. It
// returns an error when none of the datasets have a watchable source.
func New(datasets []config.DatasetConfig, importFn ImportFunc) (*Watcher, error) {
	byPath := make(map[string][]string)
	for _, dc := range datasets {
		if !isLocalSource(dc.Source) {
			continue
		}
		abs, err := filepath.Abs(dc.Source)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", dc.Source, err)
		}
		byPath[abs] = append(byPath[abs], dc.Name)
	}
	if len(byPath) == 0 {
		return nil, fmt.Errorf("no local dataset sources to watch")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	// Watch the containing directories: editors replace files via rename,
	// which drops a watch placed on the file itself.
	dirs := make(map[string]bool)
	for p := range byPath {
		dirs[filepath.Dir(p)] = true
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	return &Watcher{fsw: fsw, byPath: byPath, importFn: importFn}, nil
}

// Paths returns the watched source paths.
func (w *Watcher) Paths() []string {
	paths := make([]string, 0, len(w.byPath))
	for p := range w.byPath {
		paths = append(paths, p)
	}
	return paths
}

// Run blocks, re-importing affected datasets as their sources change, until
// the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.fsw.Close() }()

	pending := make(map[string]bool)
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}
			names, watched := w.byPath[abs]
			if !watched {
				continue
			}
			for _, name := range names {
				pending[name] = true
			}
			if timer == nil {
				timer = time.NewTimer(debounceWindow)
			} else {
				timer.Reset(debounceWindow)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			names := make([]string, 0, len(pending))
			for name := range pending {
				names = append(names, name)
			}
			pending = make(map[string]bool)

			logging.Infof("source change detected, re-importing: %v", names)
			if err := w.importFn(ctx, names); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logging.Errorf("re-import failed: %v", err)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			logging.Errorf("watch error: %v", err)
		}
	}
}

// isLocalSource reports whether a dataset source is a plain file path.
func isLocalSource(src string) bool {
	for _, prefix := range []string{"http://", "https://", "sftp://"} {
		if strings.HasPrefix(src, prefix) {
			return false
		}
	}
	return true
}

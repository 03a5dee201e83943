// Copyright (c) 2025 the graphseed authors
// graphseed - GraphDB repository provisioning and RDF import tool
// This source code is licensed under the MIT license found in the LICENSE file.

package watch

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/spendcast/graphseed/internal/config"
)

func TestNewSkipsRemoteSources(t *testing.T) {
	dir := t.TempDir()
	local := filepath.Join(dir, "spend.ttl")
	if err := os.WriteFile(local, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	datasets := []config.DatasetConfig{
		{Name: "local", Source: local},
		{Name: "remote", Source: "https://example.org/a.ttl"},
		{Name: "sftp", Source: "sftp://files.example.org/a.ttl"},
	}

	w, err := New(datasets, func(ctx context.Context, names []string) error { return nil })
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer func() { _ = w.fsw.Close() }()

	paths := w.Paths()
	if len(paths) != 1 || paths[0] != local {
		t.Errorf("paths = %v, want only the local source", paths)
	}
}

func TestNewFailsWithoutLocalSources(t *testing.T) {
	datasets := []config.DatasetConfig{
		{Name: "remote", Source: "https://example.org/a.ttl"},
	}
	if _, err := New(datasets, nil); err == nil {
		t.Fatal("expected an error when nothing can be watched")
	}
}

func TestRunDebouncesAndImports(t *testing.T) {
	dir := t.TempDir()
	local := filepath.Join(dir, "spend.ttl")
	if err := os.WriteFile(local, []byte("v1"), 0644); err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	var calls [][]string
	imported := make(chan struct{}, 8)
	w, err := New([]config.DatasetConfig{{Name: "spend", Source: local}},
		func(ctx context.Context, names []string) error {
			mu.Lock()
			sort.Strings(names)
			calls = append(calls, names)
			mu.Unlock()
			imported <- struct{}{}
			return nil
		})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// A burst of writes must coalesce into one import.
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(local, []byte("v2"), 0644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(50 * time.Millisecond)
	}

	select {
	case <-imported:
	case <-time.After(5 * time.Second):
		t.Fatal("no import triggered by the file change")
	}

	cancel()
	if err := <-done; err != context.Canceled {
		t.Errorf("Run returned %v, want context.Canceled", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(calls) != 1 {
		t.Errorf("imports = %d, want 1 (debounced)", len(calls))
	}
	if len(calls) > 0 && (len(calls[0]) != 1 || calls[0][0] != "spend") {
		t.Errorf("imported datasets = %v", calls[0])
	}
}

func TestIsLocalSource(t *testing.T) {
	cases := map[string]bool{
		"data/spend.ttl":                true,
		"/abs/spend.ttl":                true,
		"http://example.org/a.ttl":      false,
		"https://example.org/a.ttl":     false,
		"sftp://files.example.org/a.nt": false,
	}
	for src, want := range cases {
		if got := isLocalSource(src); got != want {
			t.Errorf("isLocalSource(%q) = %v, want %v", src, got, want)
		}
	}
}

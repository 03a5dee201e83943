// Copyright (c) 2025 the graphseed authors
// graphseed - GraphDB repository provisioning and RDF import tool
// This source code is licensed under the MIT license found in the LICENSE file.

package logging

import (
	"bytes"
	"strings"
	"testing"

	clog "github.com/charmbracelet/log"
)

// TestLoggingHelpersWriteToBuffer verifies the helper functions write
// formatted messages through the package-level logger `L`. The test swaps `L`
// with a buffer-backed logger and restores it afterwards.
func TestLoggingHelpersWriteToBuffer(t *testing.T) {
	var buf bytes.Buffer
	prev := L
	L = clog.New(&buf)
	L.SetLevel(clog.DebugLevel)
	defer func() { L = prev }()

	Debugf("hello %s", "dbg")
	Infof("info %d", 1)
	Warnf("warn")
	Errorf("err %v", "E")

	out := buf.String()
	for _, want := range []string{"hello dbg", "info 1", "warn", "err E"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in output: %s", want, out)
		}
	}
}

func TestSetDebugTogglesDebugOutput(t *testing.T) {
	var buf bytes.Buffer
	prev := L
	L = clog.New(&buf)
	defer func() { L = prev; SetDebug(false) }()

	SetDebug(false)
	Debugf("hidden")
	if strings.Contains(buf.String(), "hidden") {
		t.Errorf("debug output emitted while disabled: %s", buf.String())
	}

	SetDebug(true)
	Debugf("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Errorf("debug output missing while enabled: %s", buf.String())
	}
}

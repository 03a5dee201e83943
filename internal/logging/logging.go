// Copyright (c) 2025 the graphseed authors
// graphseed - GraphDB repository provisioning and RDF import tool
// This source code is licensed under the MIT license found in the LICENSE file.

package logging

import (
	"fmt"
	"os"

	clog "github.com/charmbracelet/log"
)

// L is the package-level logger. Callers should use the helper functions
// below; the CLI shares the same backend so diagnostic output from the
// internal packages matches the command output.
var L = clog.New(os.Stderr)

// SetDebug enables or disables debug logging for the application.
func SetDebug(enabled bool) {
	if enabled {
		L.SetLevel(clog.DebugLevel)
	} else {
		L.SetLevel(clog.InfoLevel)
	}
}

// Debugf logs a debug-level formatted message.
func Debugf(format string, v ...any) {
	L.Debug(fmt.Sprintf(format, v...))
}

// Infof logs an info-level formatted message.
func Infof(format string, v ...any) {
	L.Info(fmt.Sprintf(format, v...))
}

// Warnf logs a warning-level formatted message.
func Warnf(format string, v ...any) {
	L.Warn(fmt.Sprintf(format, v...))
}

// Errorf logs an error-level formatted message.
func Errorf(format string, v ...any) {
	L.Error(fmt.Sprintf(format, v...))
}

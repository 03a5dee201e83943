// Copyright (c) 2025 the graphseed authors
// graphseed - GraphDB repository provisioning and RDF import tool
// This source code is licensed under the MIT license found in the LICENSE file.

// package state provides a secure, in-memory cache for transient application
// state. The GraphDB admin password can arrive via flag, prompt or TUI input
// and is shared between those layers through this cache instead of being
// copied into long-lived structs.
package state

import "sync"

// PasswordCache is a concurrency-safe, in-memory "mailbox" for the GraphDB
// admin password. It uses a byte slice instead of a string so the sensitive
// data can be explicitly zeroed out after use.
var PasswordCache = &passwordMailbox{}

type passwordMailbox struct {
	value []byte
	mu    sync.RWMutex
}

// Set stores a copy of the password in the cache. It overwrites any existing value.
func (p *passwordMailbox) Set(pass []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if pass == nil {
		p.value = nil
		return
	}
	// Store a copy so the caller's original slice isn't held by the cache.
	p.value = make([]byte, len(pass))
	copy(p.value, pass)
}

// Get retrieves a copy of the password from the cache. The caller is
// responsible for zeroing out the returned byte slice after use.
func (p *passwordMailbox) Get() []byte {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.value == nil {
		return nil
	}

	passCopy := make([]byte, len(p.value))
	copy(passCopy, p.value)
	return passCopy
}

// Clear securely wipes the password from the cache memory.
func (p *passwordMailbox) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.value {
		p.value[i] = 0
	}
	p.value = nil
}

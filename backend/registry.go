// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package backend

import (
	"fmt"
	"slices"
	"sync"
)

// Factory creates a backend instance for the given configuration.
type Factory func(Config) RenderBackend

var (
	registryMu sync.RWMutex
	backends   = make(map[string]Factory)
	// Priority order for Default (first registered wins). BackendGPU is
	// only chosen by name since it needs a hardware adapter.
	backendPriority = []string{BackendWindow, BackendEbiten, BackendSoftware}
)

// Register registers a backend factory under name. Backend packages call it
// from init. A second registration under the same name replaces the first.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	backends[name] = f
}

// Unregister removes a backend. Used by tests.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(backends, name)
}

// Available returns the registered backend names, sorted.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Get returns a backend instance by name.
func Get(name string, cfg Config) (RenderBackend, error) {
	registryMu.RLock()
	f, ok := backends[name]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q (registered: %v)", ErrBackendNotAvailable, name, Available())
	}
	return f(cfg), nil
}

// Default returns the highest-priority registered backend:
// window, then ebiten, then software.
func Default(cfg Config) (RenderBackend, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	for _, name := range backendPriority {
		if f, ok := backends[name]; ok {
			return f(cfg), nil
		}
	}
	return nil, ErrBackendNotAvailable
}

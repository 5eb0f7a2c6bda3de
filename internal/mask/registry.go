package mask

import (
	"fmt"
	"sync"
)

var (
	defaultsMu sync.RWMutex
	defaults   = make(map[string]Source)
)

// RegisterDefault adds a process-wide mask definition. Engines copy the
// defaults when they are created, so registering never changes an existing
// engine.
func RegisterDefault(name string, src Source) error {
	if name == "" {
		return fmt.Errorf("%w: empty mask name", ErrInvalidMaskDefinition)
	}
	if err := src.Validate(); err != nil {
		return fmt.Errorf("mask %q: %w", name, err)
	}
	defaultsMu.Lock()
	defaults[name] = src
	defaultsMu.Unlock()
	return nil
}

// UnregisterDefault removes a process-wide mask definition.
func UnregisterDefault(name string) {
	defaultsMu.Lock()
	delete(defaults, name)
	defaultsMu.Unlock()
}

// Defaults returns a copy of the process-wide mask definitions.
func Defaults() map[string]Source {
	defaultsMu.RLock()
	defer defaultsMu.RUnlock()
	out := make(map[string]Source, len(defaults))
	for name, src := range defaults {
		out[name] = src
	}
	return out
}

package toolkit

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/danmuck/wisp/protocol"
)

// Registry owns a toolkit's action set. Registration happens before the
// service starts; after that the set is read-only and lookups run
// concurrently from handler goroutines.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register adds one handler under its own name.
func (r *Registry) Register(h Handler) error {
	if h == nil {
		return ErrNilHandler
	}
	name := h.Name()
	if strings.TrimSpace(name) == "" {
		return ErrBlankActionName
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateAction, name)
	}
	r.handlers[name] = h
	return nil
}

// Resolve returns the handler registered under name.
func (r *Registry) Resolve(name string) (Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrActionNotFound, name)
	}
	return h, nil
}

// Names returns the registered action names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len reports the number of registered actions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers)
}

// Definitions gathers every action's definition concurrently. One
// failure fails the gather; registration is all-or-nothing.
func (r *Registry) Definitions(ctx context.Context) (map[string]protocol.ActionDefinition, error) {
	r.mu.RLock()
	handlers := make([]Handler, 0, len(r.handlers))
	for _, h := range r.handlers {
		handlers = append(handlers, h)
	}
	r.mu.RUnlock()

	type described struct {
		name string
		def  protocol.ActionDefinition
		err  error
	}
	results := make(chan described, len(handlers))
	for _, h := range handlers {
		h := h
		go func() {
			def, err := h.Definition(ctx)
			results <- described{name: h.Name(), def: def, err: err}
		}()
	}

	defs := make(map[string]protocol.ActionDefinition, len(handlers))
	var firstErr error
	for range handlers {
		d := <-results
		if d.err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("toolkit: definition %q: %w", d.name, d.err)
			}
			continue
		}
		defs[d.name] = d.def
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return defs, nil
}

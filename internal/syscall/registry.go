package syscall

import (
	"fmt"
	"strings"
)

// Handler implements one registered command. args excludes the command
// token itself.
type Handler func(ctx *ExecContext, args []string) Result

// Registry is a case-insensitive, map-based command registry — the
// teacher's Register/MustRegister shape, adapted to a fixed, enumerable
// command set (spec §4.7) rather than a compiled pattern grammar.
type Registry struct {
	handlers map[string]Handler
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: map[string]Handler{}}
}

// Register adds a handler under name, case-insensitively. Re-
// registering an existing name is a programmer error.
func (r *Registry) Register(name string, h Handler) error {
	key := strings.ToLower(name)
	if _, exists := r.handlers[key]; exists {
		return fmt.Errorf("syscall: duplicate handler registration for %q", name)
	}
	r.handlers[key] = h
	return nil
}

// MustRegister panics on a duplicate registration; used at init time for
// the engine's fixed built-in command set.
func (r *Registry) MustRegister(name string, h Handler) {
	if err := r.Register(name, h); err != nil {
		panic(err)
	}
}

// Lookup finds a handler by name, case-insensitively.
func (r *Registry) Lookup(name string) (Handler, bool) {
	h, ok := r.handlers[strings.ToLower(name)]
	return h, ok
}

package cmd

import (
	"strings"
	"sync"
)

// Registry stores commands by name and alias. Lookups are case-insensitive.
// It does not perform dispatch; each adapter looks up commands and invokes
// them with its own payload.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]Command
	order    []Command
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]Command)}
}

// Register adds a command under its name and the aliases of its root command.
// Registering a name twice replaces the earlier command.
func (r *Registry) Register(c Command) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := strings.ToLower(c.Name())
	if prev, ok := r.commands[name]; ok {
		r.removeLocked(prev)
	}

	r.commands[name] = c
	if a, ok := Root(c).(Aliaser); ok {
		for _, alias := range a.Aliases() {
			r.commands[strings.ToLower(alias)] = c
		}
	}
	r.order = append(r.order, c)
}

func (r *Registry) removeLocked(c Command) {
	for k, v := range r.commands {
		if v == c {
			delete(r.commands, k)
		}
	}
	for i, v := range r.order {
		if v == c {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Get returns the command registered under name or alias.
func (r *Registry) Get(name string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.commands[strings.ToLower(name)]
	return c, ok
}

// All returns the registered commands in registration order, without aliases.
func (r *Registry) All() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Command, len(r.order))
	copy(out, r.order)
	return out
}

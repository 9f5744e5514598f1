// Package cmd provides a transport-agnostic command core: a command is something
// with a name, description, and Run(ctx, invocation). How messages are turned
// into invocations (Discord chat, console) is defined by adapters that wrap this.
package cmd

import "context"

// Invocation carries what any command runner can pass: the resolved command
// name, the whitespace-split arguments, the raw argument text and an opaque
// payload. Adapters set Data to their own session type.
type Invocation struct {
	Name string
	Args []string
	Raw  string
	Data interface{}
}

// Command is the universal contract: identity plus execution.
type Command interface {
	Name() string
	Description() string
	Run(ctx context.Context, inv *Invocation) error
}

// Aliaser is implemented by commands reachable under extra names.
type Aliaser interface {
	Aliases() []string
}

// Usager is implemented by commands that document their arguments.
type Usager interface {
	Usage() string
}

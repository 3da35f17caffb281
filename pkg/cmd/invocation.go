// Package cmd is the transport-neutral command core. A command has a name, a
// description and Run; adapters decide how it is registered and what they put
// in Invocation.Data.
package cmd

import "context"

// Invocation is what an adapter hands to Run.
type Invocation struct {
	Args []string
	// Data carries the adapter's own context, e.g. a Discord interaction.
	Data any
}

type Command interface {
	Name() string
	Description() string
	Run(ctx context.Context, inv *Invocation) error
}

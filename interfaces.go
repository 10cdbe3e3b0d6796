package claimhooks

import (
	"context"
)

// HookBuilder produces one hook. Builders are run in registration order.
type HookBuilder interface {
	// Name identifies the hook in logs and errors (e.g. "permit", "claim")
	Name() string

	// Build constructs the hook. It may read chain state through ctx-bound calls.
	Build(ctx context.Context) (Hook, error)
}

// HookBuilderFunc adapts a function to HookBuilder
type HookBuilderFunc struct {
	HookName string
	Fn       func(ctx context.Context) (Hook, error)
}

// Name implements HookBuilder
func (f HookBuilderFunc) Name() string { return f.HookName }

// Build implements HookBuilder
func (f HookBuilderFunc) Build(ctx context.Context) (Hook, error) { return f.Fn(ctx) }

// Validator checks a serialized AppData document before it is hashed
type Validator interface {
	Validate(data string) error
}

// Publisher stores an AppData document in a registry keyed by its hash
type Publisher interface {
	// PutAppData uploads appData and returns the hash the registry reports
	PutAppData(ctx context.Context, appData AppData) (string, error)
}

// StatusError is implemented by publish errors that carry the registry's
// response status
type StatusError interface {
	error
	Status() int
}

package ports

import (
	"context"

	"github.com/aretw0/funnel/pkg/domain"
)

// FlagStore defines the interface for persisting funnel flags of one scope.
// A scope is keyed by an opaque id (the visitor id for local flags, the browser
// session id for session flags).
type FlagStore interface {
	// Load returns all flags for id. An unknown id yields an empty, non-nil set.
	Load(ctx context.Context, id string) (domain.Flags, error)

	// Set writes a single flag. Flags are additive: Set never clears other keys.
	Set(ctx context.Context, id, key, value string) error

	// Delete removes every flag of id.
	Delete(ctx context.Context, id string) error
}

// FlagLister is implemented by stores that can enumerate the ids they hold.
type FlagLister interface {
	List(ctx context.Context) ([]string, error)
}

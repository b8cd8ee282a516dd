package middleware

import (
	"context"
	"fmt"

	"github.com/aretw0/funnel/pkg/ports"
)

// Middleware allows wrapping a FlagStore to add behavior.
type Middleware func(ports.FlagStore) ports.FlagStore

// Chain applies middlewares so the first one is the outermost.
func Chain(store ports.FlagStore, mws ...Middleware) ports.FlagStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}

func listNext(ctx context.Context, next ports.FlagStore) ([]string, error) {
	lister, ok := next.(ports.FlagLister)
	if !ok {
		return nil, fmt.Errorf("flag store %T cannot list ids", next)
	}
	return lister.List(ctx)
}

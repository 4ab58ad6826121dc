package middleware

import (
	"context"
	"fmt"

	"github.com/aretw0/strata/pkg/ports"
)

// Middleware allows wrapping an AssetStore to add behavior.
type Middleware func(ports.AssetStore) ports.AssetStore

// Chain applies middlewares so that the first one is the outermost.
func Chain(store ports.AssetStore, mws ...Middleware) ports.AssetStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}

// watchThrough forwards Watch to the wrapped store when it supports it.
func watchThrough(ctx context.Context, next ports.AssetStore) (<-chan string, error) {
	w, ok := next.(ports.Watchable)
	if !ok {
		return nil, fmt.Errorf("store %T does not support watching", next)
	}
	return w.Watch(ctx)
}

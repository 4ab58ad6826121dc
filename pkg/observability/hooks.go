package observability

import (
	"context"

	"github.com/aretw0/strata/pkg/domain"
)

// Chain merges hook sets; each callback runs in argument order.
func Chain(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range sets {
		out.OnIndexBuilt = chain(out.OnIndexBuilt, h.OnIndexBuilt)
		out.OnInvalidate = chain(out.OnInvalidate, h.OnInvalidate)
		out.OnCompositionError = chain(out.OnCompositionError, h.OnCompositionError)
	}
	return out
}

func chain[E any](first, second func(context.Context, E)) func(context.Context, E) {
	switch {
	case first == nil:
		return second
	case second == nil:
		return first
	}
	return func(ctx context.Context, ev E) {
		first(ctx, ev)
		second(ctx, ev)
	}
}

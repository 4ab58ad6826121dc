package composition

import (
	"context"
	"time"

	"github.com/aretw0/strata/pkg/domain"
)

// LayerChanged implements registry.Listener. It runs synchronously inside
// the mutating call: every cached index that consulted the changed site goes
// back to unresolved, and cached values of edited attributes are dropped.
func (c *Composer) LayerChanged(events []domain.ChangeEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, ev := range events {
		var consumers []domain.Path
		switch {
		case !ev.Kind.AffectsIndex():
			consumers = c.deps.consumersOfSite(ev.Site())
			for _, p := range consumers {
				c.dropValue(p, ev.Attribute)
			}
		case ev.Kind == domain.ChangeDefaultTarget:
			consumers = c.deps.consumersOfDefault(ev.LayerID)
			c.invalidate(consumers)
		case ev.Kind == domain.ChangeLayerRegistered:
			c.memo.purgeMissing(ev.LayerID)
			consumers = c.deps.consumersOfIdentifier(ev.LayerID)
			c.invalidate(consumers)
		case ev.Kind == domain.ChangeLayerReloaded:
			// Reloads arrive as per-spec events followed by this marker.
			continue
		default:
			consumers = c.deps.consumersOfSite(ev.Site())
			c.invalidate(consumers)
		}

		if len(consumers) == 0 {
			continue
		}
		c.logger.Debug("Composed prims invalidated",
			"stage", c.stageID,
			"kind", ev.Kind,
			"layer", ev.LayerID,
			"path", ev.Path,
			"count", len(consumers),
		)
		if c.hooks.OnInvalidate != nil {
			c.hooks.OnInvalidate(context.Background(), &domain.InvalidationEvent{
				EventBase:   domain.EventBase{Timestamp: time.Now(), StageID: c.stageID},
				Change:      ev,
				Invalidated: consumers,
			})
		}
	}
}

// invalidate marks the cached indices of consumers as stale. Their arcs are
// reported as unresolved until the next read rebuilds them.
func (c *Composer) invalidate(consumers []domain.Path) {
	for _, p := range consumers {
		if cached, ok := c.indexes[p]; ok && !cached.stale {
			cached.stale = true
			cached.index = unresolvedCopy(cached.index)
		}
		delete(c.values, p)
		c.deps.forget(p)
	}
}

func (c *Composer) dropValue(consumer domain.Path, attr string) {
	if vals, ok := c.values[consumer]; ok {
		delete(vals, attr)
	}
}

func unresolvedCopy(idx *domain.PrimIndex) *domain.PrimIndex {
	out := *idx
	out.Arcs = make([]domain.Arc, len(idx.Arcs))
	for i, a := range idx.Arcs {
		a.Status = domain.ArcUnresolved
		a.Target = domain.Site{}
		a.Error = ""
		out.Arcs[i] = a
	}
	out.Errors = nil
	return &out
}

package registry

import (
	"github.com/aretw0/strata/pkg/domain"
	"github.com/aretw0/strata/pkg/layer"
)

// Watch subscribes listener to the changes of identifier. The identifier
// does not need to be loaded: registering it later notifies the listener.
func (r *Registry) Watch(identifier string, listener Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.listeners[identifier]
	if !ok {
		set = make(map[Listener]struct{})
		r.listeners[identifier] = set
	}
	set[listener] = struct{}{}
}

// Unwatch removes every subscription held by listener.
func (r *Registry) Unwatch(listener Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, set := range r.listeners {
		delete(set, listener)
		if len(set) == 0 {
			delete(r.listeners, id)
		}
	}
}

// View runs fn under the read side of the edit lock. No edit (and no change
// processing) can interleave with fn.
func (r *Registry) View(fn func()) {
	r.editMu.RLock()
	defer r.editMu.RUnlock()
	fn()
}

// BeginEdit implements layer.Coordinator.
func (r *Registry) BeginEdit() {
	r.editMu.Lock()
}

// EndEdit implements layer.Coordinator: listeners of the edited layer see
// the events before the edit lock is released.
func (r *Registry) EndEdit(l *layer.Layer, events []domain.ChangeEvent) {
	defer r.editMu.Unlock()
	if len(events) == 0 {
		return
	}
	r.dispatch(l.Identifier(), events)
}

// dispatch delivers events to the listeners of identifier.
// The caller holds editMu.
func (r *Registry) dispatch(identifier string, events []domain.ChangeEvent) {
	r.mu.Lock()
	targets := make([]Listener, 0, len(r.listeners[identifier]))
	for listener := range r.listeners[identifier] {
		targets = append(targets, listener)
	}
	r.mu.Unlock()

	for _, listener := range targets {
		listener.LayerChanged(events)
	}
	r.logger.Debug("Layer change dispatched",
		"layer", identifier,
		"events", len(events),
		"listeners", len(targets),
	)
}

// Announce tells the watchers of an identifier that is not held that its
// source may now open it. Composed prims that failed to open it retry on
// their next read. Held identifiers are ignored; they change through Reload.
func (r *Registry) Announce(identifier string) {
	r.editMu.Lock()
	defer r.editMu.Unlock()
	if _, held := r.Get(identifier); held {
		return
	}
	r.dispatch(identifier, []domain.ChangeEvent{{
		Kind:    domain.ChangeLayerRegistered,
		LayerID: identifier,
	}})
}

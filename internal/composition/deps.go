package composition

import (
	"maps"
	"slices"

	"github.com/aretw0/strata/pkg/domain"
)

// depSet is everything one expansion consulted.
type depSet struct {
	sites    map[domain.Site]struct{} // specs read, present or not
	defaults map[string]struct{}      // layers whose default target was used
	missing  map[string]struct{}      // identifiers that failed to open
	versions map[string]uint64        // layer versions at read time
}

func newDepSet() *depSet {
	return &depSet{
		sites:    make(map[domain.Site]struct{}),
		defaults: make(map[string]struct{}),
		missing:  make(map[string]struct{}),
		versions: make(map[string]uint64),
	}
}

func (d *depSet) merge(o *depSet) {
	maps.Copy(d.sites, o.sites)
	maps.Copy(d.defaults, o.defaults)
	maps.Copy(d.missing, o.missing)
	maps.Copy(d.versions, o.versions)
}

type consumerSet map[domain.Path]struct{}

// depTable maps what was consulted back to the composed prims (consumers)
// whose index consulted it.
type depTable struct {
	bySite       map[domain.Site]consumerSet
	byDefault    map[string]consumerSet
	byIdentifier map[string]consumerSet
	byConsumer   map[domain.Path]*depSet
}

func newDepTable() *depTable {
	return &depTable{
		bySite:       make(map[domain.Site]consumerSet),
		byDefault:    make(map[string]consumerSet),
		byIdentifier: make(map[string]consumerSet),
		byConsumer:   make(map[domain.Path]*depSet),
	}
}

func addConsumer[K comparable](m map[K]consumerSet, key K, consumer domain.Path) {
	set, ok := m[key]
	if !ok {
		set = make(consumerSet)
		m[key] = set
	}
	set[consumer] = struct{}{}
}

func dropConsumer[K comparable](m map[K]consumerSet, key K, consumer domain.Path) {
	if set, ok := m[key]; ok {
		delete(set, consumer)
		if len(set) == 0 {
			delete(m, key)
		}
	}
}

// record replaces the dependencies of consumer.
func (t *depTable) record(consumer domain.Path, deps *depSet) {
	t.forget(consumer)
	for site := range deps.sites {
		addConsumer(t.bySite, site, consumer)
	}
	for id := range deps.defaults {
		addConsumer(t.byDefault, id, consumer)
	}
	for id := range deps.missing {
		addConsumer(t.byIdentifier, id, consumer)
	}
	t.byConsumer[consumer] = deps
}

// forget removes every edge owned by consumer.
func (t *depTable) forget(consumer domain.Path) {
	deps, ok := t.byConsumer[consumer]
	if !ok {
		return
	}
	for site := range deps.sites {
		dropConsumer(t.bySite, site, consumer)
	}
	for id := range deps.defaults {
		dropConsumer(t.byDefault, id, consumer)
	}
	for id := range deps.missing {
		dropConsumer(t.byIdentifier, id, consumer)
	}
	delete(t.byConsumer, consumer)
}

func sortedConsumers(set consumerSet) []domain.Path {
	return slices.Sorted(maps.Keys(set))
}

func (t *depTable) consumersOfSite(site domain.Site) []domain.Path {
	return sortedConsumers(t.bySite[site])
}

func (t *depTable) consumersOfDefault(layerID string) []domain.Path {
	return sortedConsumers(t.byDefault[layerID])
}

func (t *depTable) consumersOfIdentifier(id string) []domain.Path {
	return sortedConsumers(t.byIdentifier[id])
}

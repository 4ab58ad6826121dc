package composition

import "github.com/aretw0/strata/pkg/domain"

// expansion is the strength-ordered contribution of one site, relative to
// that site: arc depths start at zero and transforms at identity.
type expansion struct {
	entries []domain.IndexEntry
	arcs    []domain.Arc
	errors  []*domain.CompositionError
	deps    *depSet
	visited map[domain.Site]struct{}

	// cycleTo is set when a reference below led back to a site on the
	// current chain other than this one. The expansion is then void.
	cycleTo   *domain.Site
	truncated bool // some arc hit the depth cap
	height    int  // longest arc chain below the site
}

func newExpansion(site domain.Site) *expansion {
	return &expansion{
		deps:    newDepSet(),
		visited: map[domain.Site]struct{}{site: {}},
	}
}

// memoTable caches expansions by site. An entry is reused only while every
// layer it read is at the same version and none of the sites it expanded is
// on the chain currently being built.
type memoTable struct {
	entries map[domain.Site]*expansion
}

func newMemoTable() *memoTable {
	return &memoTable{entries: make(map[domain.Site]*expansion)}
}

func (m *memoTable) store(site domain.Site, e *expansion) {
	if e.cycleTo != nil || e.truncated {
		return
	}
	m.entries[site] = e
}

func (m *memoTable) lookup(site domain.Site, c *Composer, onChain map[domain.Site]bool, depth int) (*expansion, bool) {
	e, ok := m.entries[site]
	if !ok {
		return nil, false
	}
	if depth+e.height > c.maxDepth {
		return nil, false
	}
	for id, version := range e.deps.versions {
		l, ok := c.layerFor(id)
		if !ok || l.Version() != version {
			delete(m.entries, site)
			return nil, false
		}
	}
	for s := range e.visited {
		if onChain[s] {
			return nil, false
		}
	}
	return e, true
}

// purgeMissing drops expansions that failed to open identifier.
func (m *memoTable) purgeMissing(identifier string) {
	for site, e := range m.entries {
		if _, ok := e.deps.missing[identifier]; ok {
			delete(m.entries, site)
		}
	}
}

func (m *memoTable) reset() {
	clear(m.entries)
}

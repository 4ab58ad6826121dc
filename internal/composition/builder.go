package composition

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/strata/pkg/domain"
	"github.com/aretw0/strata/pkg/layer"
)

// builder carries the state of one BuildIndex call.
type builder struct {
	c       *Composer
	ctx     context.Context
	chain   []domain.Site
	onChain map[domain.Site]bool
}

// BuildIndex composes the prim at path of the root layer. Strength order is
// the local spec, then each direct reference in list order (recursively
// flattened), then arcs inherited from ancestors, nearest first.
func (c *Composer) BuildIndex(ctx context.Context, path domain.Path) (*domain.PrimIndex, *depSet) {
	b := &builder{c: c, ctx: ctx, onChain: make(map[domain.Site]bool)}
	exp := b.expand(c.root, path, 0)

	idx := &domain.PrimIndex{
		Root:    domain.Site{LayerID: c.root.Identifier(), Path: path},
		Entries: exp.entries,
		Arcs:    exp.arcs,
		Errors:  exp.errors,
	}
	return idx, exp.deps
}

func (b *builder) push(site domain.Site) {
	b.chain = append(b.chain, site)
	b.onChain[site] = true
}

func (b *builder) pop() {
	site := b.chain[len(b.chain)-1]
	b.chain = b.chain[:len(b.chain)-1]
	delete(b.onChain, site)
}

func (b *builder) chainString(to domain.Site) string {
	parts := make([]string, 0, len(b.chain)+1)
	for _, s := range b.chain {
		parts = append(parts, s.String())
	}
	parts = append(parts, to.String())
	return strings.Join(parts, " -> ")
}

// expand returns the contribution of (l, path) given the current chain.
func (b *builder) expand(l *layer.Layer, path domain.Path, depth int) *expansion {
	site := domain.Site{LayerID: l.Identifier(), Path: path}
	if exp, ok := b.c.memo.lookup(site, b.c, b.onChain, depth); ok {
		b.c.stats.memoHits++
		return exp
	}

	b.push(site)
	defer b.pop()

	exp := newExpansion(site)
	exp.deps.sites[site] = struct{}{}
	exp.deps.versions[l.Identifier()] = l.Version()

	if spec, ok := l.Prim(path); ok {
		exp.entries = append(exp.entries, domain.IndexEntry{Site: site, Transform: domain.IdentityTransform})
		for _, ref := range spec.References {
			if b.follow(exp, l, site, site, ref, "", depth) {
				return exp
			}
		}
	}

	for _, anc := range path.Ancestors() {
		ancSite := domain.Site{LayerID: l.Identifier(), Path: anc}
		exp.deps.sites[ancSite] = struct{}{}
		spec, ok := l.Prim(anc)
		if !ok {
			continue
		}
		for _, ref := range spec.References {
			if b.follow(exp, l, site, ancSite, ref, anc, depth) {
				return exp
			}
		}
	}

	b.c.memo.store(site, exp)
	return exp
}

// follow resolves one reference owned by source and merges the target's
// expansion into exp. For ancestral arcs, mapFrom is the ancestor path and
// the target is mapped down to the prim being expanded. It returns true when
// exp became void because of a cycle through an outer site.
func (b *builder) follow(exp *expansion, owner *layer.Layer, site, source domain.Site, ref domain.Reference, mapFrom domain.Path, depth int) bool {
	arc := domain.Arc{
		Source:    source,
		Reference: ref.Clone(),
		Status:    domain.ArcUnresolved,
		Transform: ref.EffectiveTransform(),
		Ancestral: mapFrom != "",
	}
	fail := func(kind domain.ErrorKind, detail string) {
		arc.Status = domain.ArcErrored
		cerr := &domain.CompositionError{Kind: kind, Site: source, Reference: ref.Clone(), Detail: detail}
		arc.Error = cerr.Error()
		exp.arcs = append(exp.arcs, arc)
		exp.errors = append(exp.errors, cerr)
	}

	tl, tp, aerr := b.c.resolveArc(b.ctx, ref, owner, exp.deps)
	if aerr != nil {
		fail(aerr.kind, aerr.detail)
		return false
	}
	// A prim cannot reference itself or its own namespace.
	if tl == owner && tp.HasPrefix(source.Path) {
		arc.Target = domain.Site{LayerID: tl.Identifier(), Path: tp}
		fail(domain.ErrorReferenceCycle, fmt.Sprintf("%s references its own namespace at %s", source, tp))
		return false
	}
	if arc.Ancestral {
		tp = site.Path.ReplacePrefix(mapFrom, tp)
	}
	target := domain.Site{LayerID: tl.Identifier(), Path: tp}
	arc.Target = target

	if b.onChain[target] {
		if target == site {
			fail(domain.ErrorReferenceCycle, b.chainString(target))
			return false
		}
		exp.cycleTo = &target
		return true
	}
	if depth+1 > b.c.maxDepth {
		exp.truncated = true
		fail(domain.ErrorDepthExceeded, fmt.Sprintf("limit is %d arcs", b.c.maxDepth))
		return false
	}

	sub := b.expand(tl, tp, depth+1)
	exp.deps.merge(sub.deps)
	for s := range sub.visited {
		exp.visited[s] = struct{}{}
	}
	if sub.cycleTo != nil {
		if *sub.cycleTo == site {
			fail(domain.ErrorReferenceCycle, b.chainString(target)+" -> "+site.String())
			return false
		}
		exp.cycleTo = sub.cycleTo
		return true
	}

	arc.Status = domain.ArcResolved
	exp.arcs = append(exp.arcs, arc)
	exp.truncated = exp.truncated || sub.truncated
	exp.height = max(exp.height, sub.height+1)
	exp.errors = append(exp.errors, sub.errors...)

	lift := func(a domain.Arc) domain.Arc {
		a.Depth++
		a.Transform = arc.Transform.Compose(a.Transform)
		a.Reference = a.Reference.Clone()
		return a
	}
	for _, a := range sub.arcs {
		exp.arcs = append(exp.arcs, lift(a))
	}

	seen := make(map[domain.Site]bool, len(exp.entries))
	for _, e := range exp.entries {
		seen[e.Site] = true
	}
	for _, e := range sub.entries {
		if seen[e.Site] {
			continue
		}
		seen[e.Site] = true
		e.Transform = arc.Transform.Compose(e.Transform)
		if e.Via == nil {
			via := arc
			e.Via = &via
		} else {
			via := lift(*e.Via)
			e.Via = &via
		}
		exp.entries = append(exp.entries, e)
	}
	return false
}

// buildStats counts work done by the composer.
type buildStats struct {
	builds    int
	cacheHits int
	memoHits  int
	lastBuild time.Duration
}

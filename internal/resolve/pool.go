package resolve

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// PoolEntry is one candidate in the Pool, addressed by a dense 1-based
// id. A positive literal of id means "install this"; negative means
// "do not install this" (§3, GLOSSARY).
type PoolEntry struct {
	ID        int
	Pkg       *Package
	RepoIndex int
}

// Pool is the immutable, bounded transitive candidate closure computed
// for one request (§3, §4.1).
type Pool struct {
	entries []*PoolEntry // entries[0] is an unused sentinel; ids are 1-based
	byName  map[string][]int
	names   []string // first-seen order, for deterministic iteration
	byPkg   map[*Package]int
}

func newPool() *Pool {
	return &Pool{
		entries: []*PoolEntry{nil},
		byName:  map[string][]int{},
		byPkg:   map[*Package]int{},
	}
}

func (p *Pool) addEntry(pkg *Package, repoIndex int) int {
	id := len(p.entries)
	p.entries = append(p.entries, &PoolEntry{ID: id, Pkg: pkg, RepoIndex: repoIndex})
	p.byPkg[pkg] = id
	return id
}

// IDOf returns the pool id of a specific Package value, used to resolve
// AliasOf pointers back into literals (§4.3 rule 1).
func (p *Pool) IDOf(pkg *Package) (int, bool) {
	id, ok := p.byPkg[pkg]
	return id, ok
}

func (p *Pool) registerName(name string, id int) {
	ids, had := p.byName[name]
	if !had {
		p.names = append(p.names, name)
	}
	for _, existing := range ids {
		if existing == id {
			return
		}
	}
	p.byName[name] = append(ids, id)
}

func (p *Pool) Entry(id int) *PoolEntry {
	if id <= 0 || id >= len(p.entries) {
		return nil
	}
	return p.entries[id]
}

func (p *Pool) Len() int { return len(p.entries) - 1 }

// IDs returns every id in the pool, in ascending (insertion) order.
func (p *Pool) IDs() []int {
	out := make([]int, 0, p.Len())
	for i := 1; i < len(p.entries); i++ {
		out = append(out, i)
	}
	return out
}

// IDsForName returns the ids registered under name, including ids
// contributed via `provide`/`replace` links, in insertion order.
func (p *Pool) IDsForName(name string) []int {
	return p.byName[name]
}

// Names returns every name the pool indexes, in first-seen order, for
// deterministic iteration (§5).
func (p *Pool) Names() []string {
	return append([]string(nil), p.names...)
}

// nameState tracks the accumulated constraint seen so far for one name
// during BFS expansion, and whether that accumulated constraint has
// already been resolved against the repository set.
type nameState struct {
	constraint Constraint
	seen       string // String() snapshot of constraint at last processing
	processed  bool
}

// PoolBuilder computes the bounded transitive candidate closure for a
// Request against a RepositorySet (§4.1).
type PoolBuilder struct {
	Repos            *RepositorySet
	StabilityFor     map[string]Stability
	DefaultStability Stability
	Platform         PlatformFilter
	PoolOptimizer    bool
	Logger           *logrus.Logger
}

func (b *PoolBuilder) logger() *logrus.Logger {
	if b.Logger == nil {
		return logrus.New()
	}
	return b.Logger
}

// Build performs the breadth-first expansion described in §4.1: for
// each name not yet pulled, query every repository in order for
// packages whose version satisfies the union of all constraints seen
// for that name so far, filter by stability and platform, and enqueue
// the names reachable from each accepted package's require/replace/
// provide links. Every package a repository reports as providing or
// replacing the name is enqueued under its own name as well.
func (b *PoolBuilder) Build(req *Request) (*Pool, error) {
	l := b.logger()
	pool := newPool()
	states := map[string]*nameState{}
	var queue []string

	addConstraint := func(name string, c Constraint) {
		st, ok := states[name]
		if !ok {
			st = &nameState{constraint: None{}}
			states[name] = st
		}
		widened := unionConstraint(st.constraint, c)
		if widened.String() != st.constraint.String() {
			st.constraint = widened
			st.processed = false
		}
		if !st.processed {
			queue = append(queue, name)
		}
	}

	for _, rr := range req.Requires {
		addConstraint(rr.Name, rr.Constraint)
	}
	for _, f := range req.Fixed {
		addConstraint(f.Name, Exactly(f.Version))
	}

	addedKey := map[string]bool{}
	providerPulled := map[string]bool{}

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		st := states[name]
		if st.processed && st.seen == st.constraint.String() {
			continue
		}

		if b.Platform.Ignores(name) {
			l.WithField("name", name).Debug("platform requirement ignored, not pulling candidates")
			st.processed = true
			st.seen = st.constraint.String()
			continue
		}

		repoPkgs, err := b.Repos.FindPackages(name, st.constraint)
		if err != nil {
			return nil, err
		}

		acceptableStability := b.DefaultStability
		if s, ok := b.StabilityFor[name]; ok {
			acceptableStability = s
		}

		for _, rp := range repoPkgs {
			if rp.pkg.Version.Stability() > acceptableStability {
				continue
			}
			key := fmt.Sprintf("%d|%s|%s", rp.repoIndex, rp.pkg.Name, rp.pkg.Version.String())
			if addedKey[key] {
				continue
			}
			addedKey[key] = true

			id := pool.addEntry(rp.pkg, rp.repoIndex)
			pool.registerName(rp.pkg.Name, id)

			for _, lnk := range rp.pkg.EffectiveLinks() {
				switch lnk.Kind {
				case Provide, Replace:
					pool.registerName(lnk.Target, id)
					addConstraint(lnk.Target, Any{})
				case Require:
					addConstraint(lnk.Target, lnk.Constraint)
				}
			}
		}

		// Packages that provide or replace name are pulled in under their
		// own names, once each.
		providers, err := b.Repos.GetProviders(name)
		if err != nil {
			return nil, err
		}
		for _, rp := range providers {
			via := rp.rec.ViaPackage
			if via != name && !providerPulled[via] {
				providerPulled[via] = true
				addConstraint(via, Any{})
			}
		}

		st.processed = true
		st.seen = st.constraint.String()
	}

	if b.PoolOptimizer {
		pool.optimize(states)
	}

	return pool, nil
}

// unionConstraint widens a previously accumulated constraint with a
// newly observed one. None is the identity for union.
func unionConstraint(acc, c Constraint) Constraint {
	if _, ok := acc.(None); ok {
		return c
	}
	if _, ok := c.(None); ok {
		return acc
	}
	return Or{Items: []Constraint{acc, c}}
}

// optimize removes candidates proven to be dominated: versions of a
// name below the minimum the request graph could ever accept, per the
// accumulated constraint recorded for that name during BFS. This is a
// behavior-preserving simplification (§4.1); the unoptimized path
// yields the same final decisions, just with a larger intermediate
// pool for the solver to reason over.
func (p *Pool) optimize(states map[string]*nameState) {
	for name, st := range states {
		lb, ok := lowerBound(st.constraint)
		if !ok {
			continue
		}
		ids := p.byName[name]
		kept := ids[:0:0]
		for _, id := range ids {
			e := p.Entry(id)
			if e.Pkg.Name == name && !e.Pkg.Version.IsBranch() && e.Pkg.Version.Compare(lb) < 0 {
				continue
			}
			kept = append(kept, id)
		}
		p.byName[name] = kept
	}
}

// lowerBound extracts the strongest lower bound a constraint
// guarantees: the max of the conjunction arms that have a bound, or the
// min of the disjunction arms. ok=false when no conjunction arm, or any
// disjunction arm, reduces to a bound (e.g. plain != or *).
func lowerBound(c Constraint) (Version, bool) {
	switch t := c.(type) {
	case Primitive:
		if t.Version.IsBranch() {
			return Version{}, false
		}
		switch t.Op {
		case OpGe, OpGt, OpEq, OpTilde:
			return t.Version, true
		}
		return Version{}, false
	case And:
		var best Version
		found := false
		for _, it := range t.Items {
			if v, ok := lowerBound(it); ok {
				if !found || v.Compare(best) > 0 {
					best, found = v, true
				}
			}
		}
		return best, found
	case Or:
		var best Version
		found := false
		for _, it := range t.Items {
			v, ok := lowerBound(it)
			if !ok {
				return Version{}, false
			}
			if !found || v.Compare(best) < 0 {
				best, found = v, true
			}
		}
		return best, found
	}
	return Version{}, false
}

package resolve

// UpdatePolicy controls which installed packages become fixed before
// rule generation (§6). The four-way split is dep's own
// rootdata.chngall / chng / rlm distinction (SPEC_FULL.md).
type UpdatePolicy int

const (
	// OnlyListed fixes every previously-installed package except the
	// ones named in Request.UpdateNames.
	OnlyListed UpdatePolicy = iota
	// ListedWithTransitive frees the named packages and anything that
	// transitively depends on them to move; the root's own direct
	// requirements on unrelated names stay fixed.
	ListedWithTransitive
	// ListedWithTransitiveNoRoot is ListedWithTransitive, except every
	// package the root directly requires is additionally fixed at its
	// locked version, even if it transitively depends on a named
	// package — only its own transitive dependents may move.
	ListedWithTransitiveNoRoot
	// All frees every previously-installed package to move.
	All
)

// RootRequirement is a root-level require instruction.
type RootRequirement struct {
	Name       string
	Constraint Constraint
	Dev        bool
}

// FixedRequirement pins a name to an exact previously-decided version
// (a locked package the update policy did not free, or an explicit
// `require --exact`).
type FixedRequirement struct {
	Name    string
	Version Version
}

// Request is the root-level set of instructions driving one solve: what
// to require, what to pin, what to remove, and how aggressively to let
// the rest of the locked state move (§4.1).
type Request struct {
	Requires     []RootRequirement
	Fixed        []FixedRequirement
	Remove       []string
	UpdatePolicy UpdatePolicy
	// UpdateNames is consulted by every UpdatePolicy except All: for
	// OnlyListed it lists the packages allowed to change, and the two
	// transitive policies free these names plus their locked dependents.
	UpdateNames []string
}

func (r *Request) wantsUpdate(name string) bool {
	for _, n := range r.UpdateNames {
		if n == name {
			return true
		}
	}
	return false
}

// PlatformFilter decides whether a platform requirement should be
// ignored before rule generation (§6 ignorePlatformReqs option).
type PlatformFilter struct {
	IgnoreAll   bool
	IgnoreNames map[string]bool
}

func (f PlatformFilter) Ignores(name string) bool {
	if f.IgnoreAll {
		return true
	}
	return f.IgnoreNames != nil && f.IgnoreNames[name]
}

// Options bundles the enumerated, closed configuration surface (§6).
// Any field outside this struct is rejected by construction: there is
// no loosely-typed map of options anywhere in the core.
type Options struct {
	PreferStable       bool
	PreferLowest       bool
	UpdatePolicy       UpdatePolicy
	IgnorePlatformReqs PlatformFilter
	PoolOptimizer      bool
}

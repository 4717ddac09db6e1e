package resolve

import "sort"

// OperationKind is the closed set of steps a Transaction can contain
// (§4.5).
type OperationKind int

const (
	Install OperationKind = iota
	Update
	Uninstall
	MarkAliasInstalled
	MarkAliasUninstalled
)

func (k OperationKind) String() string {
	switch k {
	case Install:
		return "install"
	case Update:
		return "update"
	case Uninstall:
		return "uninstall"
	case MarkAliasInstalled:
		return "mark-alias-installed"
	case MarkAliasUninstalled:
		return "mark-alias-uninstalled"
	default:
		return "?"
	}
}

// Operation is one step of a Transaction.
type Operation struct {
	Kind         OperationKind
	Package      *Package
	PriorVersion Version // set only for Update
}

// Transaction is the ordered set of install/update/uninstall steps
// needed to move from a prior LockedState to a solved Assignment
// (§4.5). Root is excluded from topological edges since it is never
// modeled as a pool package.
type Transaction struct {
	ops []Operation
}

// Operations returns the steps in execution order: installs and
// updates come first, dependency-before-dependent (so nothing is
// installed before what it requires), followed by uninstalls of
// packages no longer wanted, dependent-before-dependency (so nothing
// is removed while still required by another removal in the same
// batch).
func (t *Transaction) Operations() []Operation {
	return append([]Operation(nil), t.ops...)
}

// TransactionBuilder diffs a solved Assignment against a prior
// LockedState (§4.5). Grounded on golang-dep/lock.go and result.go's
// diffing of a prior Lock against the solver's chosen project set.
type TransactionBuilder struct {
	Locked *LockedState
}

// Build computes the Transaction. decided is the assignment the solver
// produced, carrying its own Pool reference. Alias state of packages
// being installed or updated is read off each decided package's Kind;
// for removals it comes from LockedPackage.IsAlias.
func (b *TransactionBuilder) Build(decided *Assignment) (*Transaction, error) {
	installedByName := map[string]*Package{}
	for _, pkg := range decided.InstalledPackages() {
		installedByName[pkg.Name] = pkg
	}

	lockedByName := map[string]LockedPackage{}
	for _, lp := range lockedPackages(b.Locked) {
		lockedByName[lp.Name] = lp
	}

	var ops []Operation

	// Installs and updates, in dependency-before-dependent order.
	var toPlace []*Package
	for _, pkg := range installedByName {
		lp, had := lockedByName[pkg.Name]
		if !had {
			toPlace = append(toPlace, pkg)
			continue
		}
		if !lp.Version.Equal(pkg.Version) {
			toPlace = append(toPlace, pkg)
		}
	}
	for _, pkg := range topoSort(toPlace) {
		if pkg.IsAlias() {
			ops = append(ops, Operation{Kind: MarkAliasInstalled, Package: pkg})
			continue
		}
		if lp, had := lockedByName[pkg.Name]; had {
			ops = append(ops, Operation{Kind: Update, Package: pkg, PriorVersion: lp.Version})
		} else {
			ops = append(ops, Operation{Kind: Install, Package: pkg})
		}
	}

	// Uninstalls, in dependent-before-dependency order (reverse of the
	// install topology over the packages being removed).
	var toRemove []string
	for name := range lockedByName {
		if _, still := installedByName[name]; !still {
			toRemove = append(toRemove, name)
		}
	}
	sort.Strings(toRemove)
	for _, name := range reverseRemovalOrder(toRemove, lockedByName) {
		lp := lockedByName[name]
		kind := Uninstall
		if lp.IsAlias {
			kind = MarkAliasUninstalled
		}
		ops = append(ops, Operation{Kind: kind, Package: &Package{Name: lp.Name, Version: lp.Version}})
	}

	return &Transaction{ops: ops}, nil
}

// topoSort orders pkgs so that, for every Require link from a to b
// where b is also among pkgs, b precedes a (dependency before
// dependent). A dependency that isn't being placed (already correct at
// its locked version) needs no edge here. Ties fall back to name order
// for determinism.
func topoSort(pkgs []*Package) []*Package {
	sort.Slice(pkgs, func(i, j int) bool { return pkgs[i].Name < pkgs[j].Name })

	visited := map[string]int{} // 0 unvisited, 1 in-progress, 2 done
	var order []*Package
	byName := map[string]*Package{}
	for _, p := range pkgs {
		byName[p.Name] = p
	}

	var visit func(p *Package)
	visit = func(p *Package) {
		if visited[p.Name] == 2 || visited[p.Name] == 1 {
			return
		}
		visited[p.Name] = 1
		for _, lnk := range p.LinksOfKind(Require) {
			if dep, ok := byName[lnk.Target]; ok {
				visit(dep)
			}
		}
		visited[p.Name] = 2
		order = append(order, p)
	}
	for _, p := range pkgs {
		visit(p)
	}
	return order
}

// reverseRemovalOrder orders names being uninstalled so a package is
// removed only after everything that (at lock time) required it has
// already been removed.
func reverseRemovalOrder(names []string, lockedByName map[string]LockedPackage) []string {
	byName := map[string]LockedPackage{}
	for _, n := range names {
		byName[n] = lockedByName[n]
	}

	visited := map[string]int{}
	var order []string

	var visit func(n string)
	visit = func(n string) {
		if visited[n] == 2 || visited[n] == 1 {
			return
		}
		visited[n] = 1
		for _, other := range names {
			if other == n {
				continue
			}
			for _, req := range byName[other].Requires {
				if req == n {
					visit(other)
				}
			}
		}
		visited[n] = 2
		order = append(order, n)
	}
	for _, n := range names {
		visit(n)
	}
	return order
}

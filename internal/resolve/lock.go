package resolve

// LockedPackage mirrors one entry of the persisted lock document (§6):
// name, version, and the requires it had at lock time, used to compute
// transitive "allowed to change" sets for UpdatePolicy.
type LockedPackage struct {
	Name     string
	Version  Version
	Dev      bool
	Requires []string
	// IsAlias marks a locked entry that was installed as a root alias, so
	// its removal must emit MarkAliasUninstalled rather than Uninstall
	// (§4.5).
	IsAlias bool
}

// LockedState is the read-only prior (locked/installed) package set the
// Locked state adapter injects as preference and, depending on
// UpdatePolicy, as fixed assignments (§4.1).
type LockedState struct {
	Packages []LockedPackage
}

func (ls *LockedState) get(name string) (LockedPackage, bool) {
	if ls == nil {
		return LockedPackage{}, false
	}
	for _, p := range ls.Packages {
		if p.Name == name {
			return p, true
		}
	}
	return LockedPackage{}, false
}

// freedSet computes the set of locked package names allowed to move
// under ListedWithTransitive / ListedWithTransitiveNoRoot: the named
// packages themselves, plus every locked package that transitively
// requires one of them (SPEC_FULL.md resolves the update policy
// ambiguity this way, following dep's rootdata.chngall/chng handling).
func (ls *LockedState) freedSet(updateNames []string) map[string]bool {
	freed := map[string]bool{}
	for _, n := range updateNames {
		freed[n] = true
	}
	if ls == nil {
		return freed
	}

	// reverse edges: target -> dependents that require it
	dependents := map[string][]string{}
	for _, p := range ls.Packages {
		for _, req := range p.Requires {
			dependents[req] = append(dependents[req], p.Name)
		}
	}

	queue := append([]string(nil), updateNames...)
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, dep := range dependents[n] {
			if !freed[dep] {
				freed[dep] = true
				queue = append(queue, dep)
			}
		}
	}
	return freed
}

func isRootDirect(name string, req *Request) bool {
	for _, rr := range req.Requires {
		if rr.Name == name {
			return true
		}
	}
	return false
}

// effectiveFixed folds the UpdatePolicy's decision about which locked
// packages become hard-fixed into req.Fixed, leaving the rest as mere
// preferences for Policy to honor (§4.1, §4.2 rule 6: "a soft
// preference encoded by ordering... unless it is fixed").
func effectiveFixed(req *Request, locked *LockedState) []FixedRequirement {
	out := append([]FixedRequirement(nil), req.Fixed...)
	if locked == nil {
		return out
	}

	already := map[string]bool{}
	for _, f := range req.Fixed {
		already[f.Name] = true
	}

	var freed map[string]bool
	switch req.UpdatePolicy {
	case ListedWithTransitive, ListedWithTransitiveNoRoot:
		freed = locked.freedSet(req.UpdateNames)
	}

	for _, lp := range lockedPackages(locked) {
		if already[lp.Name] {
			continue
		}
		switch req.UpdatePolicy {
		case All:
			continue
		case OnlyListed:
			if req.wantsUpdate(lp.Name) {
				continue
			}
			out = append(out, FixedRequirement{Name: lp.Name, Version: lp.Version})
		case ListedWithTransitive:
			if freed[lp.Name] {
				continue
			}
			out = append(out, FixedRequirement{Name: lp.Name, Version: lp.Version})
		case ListedWithTransitiveNoRoot:
			if isRootDirect(lp.Name, req) {
				out = append(out, FixedRequirement{Name: lp.Name, Version: lp.Version})
				continue
			}
			if freed[lp.Name] {
				continue
			}
			out = append(out, FixedRequirement{Name: lp.Name, Version: lp.Version})
		}
	}
	return out
}

func lockedPackages(ls *LockedState) []LockedPackage {
	if ls == nil {
		return nil
	}
	return ls.Packages
}

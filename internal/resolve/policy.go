package resolve

import "sort"

// Policy ranks candidate literals for branching and for result
// selection among otherwise-tied candidates (§4.3). It has no
// observable side effect: deterministic given its inputs.
type Policy struct {
	PreferStable bool
	PreferLowest bool
	PreferLocked bool
}

// SelectPreferred returns literals reordered into preferred-first order
// per the eight lexicographic rules of §4.3.
func (p *Policy) SelectPreferred(pool *Pool, literals []int, requiredName string, locked *LockedState) []int {
	out := append([]int(nil), literals...)
	origIndex := make(map[int]int, len(out))
	for i, l := range out {
		origIndex[l] = i
	}
	set := make(map[int]bool, len(out))
	for _, l := range out {
		set[l] = true
	}

	reqVendor := VendorPrefix(requiredName)

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a == b {
			return false
		}
		ea, eb := pool.Entry(abs(a)), pool.Entry(abs(b))
		if ea == nil || eb == nil {
			return origIndex[a] < origIndex[b]
		}

		// 1. Root-package aliases sort first when their alias-of is
		// also among the literals.
		ra, rb := isSelectableRootAlias(pool, ea, set), isSelectableRootAlias(pool, eb, set)
		if ra != rb {
			return ra
		}

		// 2. Locked candidates sort first if PreferLocked is set.
		if p.PreferLocked {
			la, lb := isLocked(ea, locked), isLocked(eb, locked)
			if la != lb {
				return la
			}
		}

		// 3. Lower-indexed repository first.
		if ea.RepoIndex != eb.RepoIndex {
			return ea.RepoIndex < eb.RepoIndex
		}

		// 4. preferStable: stable before non-stable for the same name.
		if p.PreferStable && ea.Pkg.Name == eb.Pkg.Name {
			sa, sb := ea.Pkg.Version.Stability(), eb.Pkg.Version.Stability()
			if sa != sb {
				return sa < sb
			}
		}

		// 6. dev-* branches rank below numeric versions.
		ba, bb := ea.Pkg.Version.IsBranch(), eb.Pkg.Version.IsBranch()
		if ba != bb {
			return !ba
		}

		// 5. Ascending or descending version order.
		if !ba && !bb {
			c := ea.Pkg.Version.Compare(eb.Pkg.Version)
			if c != 0 {
				if p.PreferLowest {
					return c < 0
				}
				return c > 0
			}
		}

		// 7. Same-vendor-prefix replacer preference, when the literal
		// set provides a replaced name.
		if reqVendor != "" {
			va, vb := VendorPrefix(ea.Pkg.Name) == reqVendor, VendorPrefix(eb.Pkg.Name) == reqVendor
			if va != vb {
				return va
			}
		}

		// 8. Stable insertion order.
		return origIndex[a] < origIndex[b]
	})

	return out
}

func isSelectableRootAlias(pool *Pool, e *PoolEntry, set map[int]bool) bool {
	if !e.Pkg.IsRootAlias() || e.Pkg.AliasOf == nil {
		return false
	}
	targetID, ok := pool.IDOf(e.Pkg.AliasOf)
	if !ok {
		return false
	}
	return set[targetID] || set[-targetID]
}

func isLocked(e *PoolEntry, locked *LockedState) bool {
	if locked == nil {
		return false
	}
	lp, ok := locked.get(e.Pkg.Name)
	return ok && lp.Version.Equal(e.Pkg.Version)
}

func abs(i int) int {
	if i < 0 {
		return -i
	}
	return i
}

package resolve

import (
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// RuleKind tags why a Rule exists, consumed by the Problem explainer
// (§3, §4.2).
type RuleKind int

const (
	RootRequireRule RuleKind = iota
	FixedRule
	PackageRequireRule
	PackageConflictRule
	SameNameRule
	LearnedRule
)

func (k RuleKind) String() string {
	switch k {
	case RootRequireRule:
		return "root-require"
	case FixedRule:
		return "fixed"
	case PackageRequireRule:
		return "package-require"
	case PackageConflictRule:
		return "package-conflict"
	case SameNameRule:
		return "same-name"
	case LearnedRule:
		return "learned"
	default:
		return "?"
	}
}

// Reason carries the origin link used only by the explainer (§3).
type Reason interface {
	Describe(pool *Pool) string
}

type rootRequireReason struct {
	Name       string
	Constraint Constraint
}

func (r rootRequireReason) Describe(pool *Pool) string {
	return "root requires " + r.Name + " " + r.Constraint.String()
}

type packageRequireReason struct {
	SourceID int
	Link     Link
}

func (r packageRequireReason) Describe(pool *Pool) string {
	src := pool.Entry(r.SourceID)
	return describePackage(src) + " requires " + r.Link.Target + " " + r.Link.Constraint.String()
}

type conflictReason struct {
	SourceID int
	TargetID int
	Link     Link
}

func (r conflictReason) Describe(pool *Pool) string {
	src := pool.Entry(r.SourceID)
	tgt := pool.Entry(r.TargetID)
	return describePackage(src) + " conflicts with " + describePackage(tgt)
}

type sameNameReason struct {
	Name string
}

func (r sameNameReason) Describe(pool *Pool) string {
	return "only one package may provide " + r.Name
}

type fixedReason struct {
	Name    string
	Version Version
}

func (r fixedReason) Describe(pool *Pool) string {
	return r.Name + " is fixed at " + r.Version.String()
}

type removeReason struct {
	Name string
}

func (r removeReason) Describe(pool *Pool) string {
	return r.Name + " was explicitly requested for removal"
}

func describePackage(e *PoolEntry) string {
	if e == nil {
		return "<unknown>"
	}
	return e.Pkg.Name + " " + e.Pkg.Version.String()
}

// Rule is a disjunction of literals plus a tag and an optional reason
// (§3).
type Rule struct {
	Literals []int
	Kind     RuleKind
	Reason   Reason
}

// RuleSet is the deduplicated CNF-like output of the rule generator
// (§4.2). Rules are deduplicated by literal-set hash; two identical
// clauses from different reasons keep the earliest reason.
type RuleSet struct {
	Rules []*Rule
	seen  map[string]int
}

func newRuleSet() *RuleSet {
	return &RuleSet{seen: map[string]int{}}
}

func (rs *RuleSet) add(lits []int, kind RuleKind, reason Reason) *Rule {
	key := ruleKey(lits)
	if idx, ok := rs.seen[key]; ok {
		return rs.Rules[idx]
	}
	r := &Rule{Literals: lits, Kind: kind, Reason: reason}
	rs.seen[key] = len(rs.Rules)
	rs.Rules = append(rs.Rules, r)
	return r
}

// AddLearned appends a clause discovered during conflict analysis. It
// participates in the same dedup table as the hard rules.
func (rs *RuleSet) AddLearned(lits []int) *Rule {
	return rs.add(lits, LearnedRule, nil)
}

func ruleKey(lits []int) string {
	sorted := append([]int(nil), lits...)
	sort.Ints(sorted)
	parts := make([]string, len(sorted))
	for i, l := range sorted {
		parts[i] = strconv.Itoa(l)
	}
	return strings.Join(parts, ",")
}

// RuleGenerator walks a Pool and emits the rule kinds described in
// §4.2.
type RuleGenerator struct {
	Pool     *Pool
	Request  *Request
	Locked   *LockedState
	Platform PlatformFilter
	Logger   *logrus.Logger
}

func (g *RuleGenerator) logger() *logrus.Logger {
	if g.Logger == nil {
		return logrus.New()
	}
	return g.Logger
}

// Generate produces the full rule set, or an error when a root
// requirement or a fixed package proves impossible to satisfy even
// before any search begins (§4.2, §7).
func (g *RuleGenerator) Generate() (*RuleSet, error) {
	l := g.logger()
	rs := newRuleSet()
	pool := g.Pool

	// 1. Root-require rules.
	for _, rr := range g.Request.Requires {
		if g.Platform.Ignores(rr.Name) {
			continue
		}
		lits := literalsAdmitting(pool, rr.Name, rr.Constraint)
		if len(lits) == 0 {
			l.WithField("name", rr.Name).Warn("root requirement has no candidates")
			return nil, &RequirementNotFoundError{Name: rr.Name, Constraint: rr.Constraint}
		}
		rs.add(lits, RootRequireRule, rootRequireReason{Name: rr.Name, Constraint: rr.Constraint})
	}

	// 2 & 3. Package-require and package-conflict rules, walked in
	// ascending id order for determinism (§5).
	for _, id := range pool.IDs() {
		e := pool.Entry(id)
		for _, lnk := range e.Pkg.EffectiveLinks() {
			switch lnk.Kind {
			case Require:
				targets := literalsAdmitting(pool, lnk.Target, lnk.Constraint)
				lits := append([]int{-id}, targets...)
				rs.add(lits, PackageRequireRule, packageRequireReason{SourceID: id, Link: lnk})
			case Conflict:
				for _, t := range literalsAdmitting(pool, lnk.Target, lnk.Constraint) {
					if t == id {
						continue
					}
					rs.add([]int{-id, -t}, PackageConflictRule, conflictReason{SourceID: id, TargetID: t, Link: lnk})
				}
			}
		}
	}

	// 4. Same-name rules: at most one id per effective name.
	for _, name := range pool.Names() {
		ids := pool.IDsForName(name)
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				rs.add([]int{-ids[i], -ids[j]}, SameNameRule, sameNameReason{Name: name})
			}
		}
	}

	// 5. Fixed-package rules, including those the locked-state adapter
	// promoted from "preferred" to "hard fixed" per UpdatePolicy.
	for _, f := range effectiveFixed(g.Request, g.Locked) {
		ids := pool.IDsForName(f.Name)
		target := -1
		for _, id := range ids {
			e := pool.Entry(id)
			if e.Pkg.Name == f.Name && e.Pkg.Version.Equal(f.Version) {
				target = id
				break
			}
		}
		if target == -1 {
			return nil, &FixedConflictError{Name: f.Name}
		}
		rs.add([]int{target}, FixedRule, fixedReason{Name: f.Name, Version: f.Version})
		for _, id := range ids {
			if id != target {
				rs.add([]int{-id}, FixedRule, fixedReason{Name: f.Name, Version: f.Version})
			}
		}
	}

	// 6. Installed-package preference is a Policy concern (§4.2 rule 6);
	// no hard rule is added here for locked-but-not-fixed packages.

	// Explicit removals (Request.Remove) forbid every id registered
	// under the removed name, regardless of update policy.
	for _, name := range g.Request.Remove {
		for _, id := range pool.IDsForName(name) {
			rs.add([]int{-id}, FixedRule, removeReason{Name: name})
		}
	}

	return rs, nil
}

// literalsAdmitting returns the positive literals for every id
// registered under name whose provided version satisfies constraint,
// in pool insertion order.
func literalsAdmitting(pool *Pool, name string, constraint Constraint) []int {
	var out []int
	for _, id := range pool.IDsForName(name) {
		e := pool.Entry(id)
		if constraint.AdmitsVersion(e.Pkg.Version) {
			out = append(out, id)
		}
	}
	return out
}

package resolve

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func buildPool(t *testing.T, repos []Repository, req *Request) *Pool {
	t.Helper()
	builder := &PoolBuilder{Repos: &RepositorySet{Repos: repos}, DefaultStability: StabilityStable}
	pool, err := builder.Build(req)
	require.NoError(t, err)
	return pool
}

func TestRuleGeneratorRootRequire(t *testing.T) {
	repo := &fakeRepo{packages: []*Package{pkg("a", "1.0.0"), pkg("a", "2.0.0")}}
	req := &Request{Requires: []RootRequirement{{Name: "a", Constraint: ge("1.0.0")}}}
	pool := buildPool(t, []Repository{repo}, req)

	gen := &RuleGenerator{Pool: pool, Request: req}
	rs, err := gen.Generate()
	require.NoError(t, err)

	var found bool
	for _, r := range rs.Rules {
		if r.Kind == RootRequireRule {
			found = true
			require.Len(t, r.Literals, 2)
		}
	}
	require.True(t, found)
}

func TestRuleGeneratorRootRequireNotFound(t *testing.T) {
	repo := &fakeRepo{packages: []*Package{pkg("a", "1.0.0")}}
	req := &Request{Requires: []RootRequirement{{Name: "a", Constraint: ge("2.0.0")}}}
	pool := buildPool(t, []Repository{repo}, req)

	gen := &RuleGenerator{Pool: pool, Request: req}
	_, err := gen.Generate()
	require.Error(t, err)
	_, ok := err.(*RequirementNotFoundError)
	require.True(t, ok)
}

func TestRuleGeneratorPackageRequireAndConflict(t *testing.T) {
	repo := &fakeRepo{packages: []*Package{
		pkg("a", "1.0.0", requireLink("b", ge("2.0.0"))),
		pkg("b", "2.0.0"),
		pkg("c", "1.0.0", Link{Target: "a", Kind: Conflict, Constraint: Any{}}),
	}}
	req := &Request{Requires: []RootRequirement{
		{Name: "a", Constraint: Any{}},
		{Name: "c", Constraint: Any{}},
	}}
	pool := buildPool(t, []Repository{repo}, req)

	gen := &RuleGenerator{Pool: pool, Request: req}
	rs, err := gen.Generate()
	require.NoError(t, err)

	var sawRequire, sawConflict bool
	for _, r := range rs.Rules {
		if r.Kind == PackageRequireRule {
			sawRequire = true
		}
		if r.Kind == PackageConflictRule {
			sawConflict = true
			require.Len(t, r.Literals, 2)
		}
	}
	require.True(t, sawRequire)
	require.True(t, sawConflict)
}

func TestRuleGeneratorSameNameAtMostOne(t *testing.T) {
	repo := &fakeRepo{packages: []*Package{pkg("a", "1.0.0"), pkg("a", "2.0.0"), pkg("a", "3.0.0")}}
	req := &Request{Requires: []RootRequirement{{Name: "a", Constraint: Any{}}}}
	pool := buildPool(t, []Repository{repo}, req)

	gen := &RuleGenerator{Pool: pool, Request: req}
	rs, err := gen.Generate()
	require.NoError(t, err)

	count := 0
	for _, r := range rs.Rules {
		if r.Kind == SameNameRule {
			count++
		}
	}
	require.Equal(t, 3, count) // C(3,2) pairs
}

func TestRuleGeneratorFixedPackage(t *testing.T) {
	repo := &fakeRepo{packages: []*Package{pkg("a", "1.0.0"), pkg("a", "2.0.0")}}
	req := &Request{
		Requires: []RootRequirement{{Name: "a", Constraint: Any{}}},
		Fixed:    []FixedRequirement{{Name: "a", Version: MustParse("2.0.0")}},
	}
	pool := buildPool(t, []Repository{repo}, req)

	gen := &RuleGenerator{Pool: pool, Request: req}
	rs, err := gen.Generate()
	require.NoError(t, err)

	var positiveUnit, negativeUnit int
	for _, r := range rs.Rules {
		if r.Kind == FixedRule && len(r.Literals) == 1 {
			if r.Literals[0] > 0 {
				positiveUnit++
			} else {
				negativeUnit++
			}
		}
	}
	require.Equal(t, 1, positiveUnit)
	require.Equal(t, 1, negativeUnit)
}

func TestRuleGeneratorExplicitRemove(t *testing.T) {
	repo := &fakeRepo{packages: []*Package{pkg("a", "1.0.0")}}
	req := &Request{
		Requires: []RootRequirement{{Name: "a", Constraint: Any{}}},
		Remove:   []string{"a"},
	}
	pool := buildPool(t, []Repository{repo}, req)

	gen := &RuleGenerator{Pool: pool, Request: req}
	rs, err := gen.Generate()
	require.NoError(t, err)

	var sawRemove bool
	for _, r := range rs.Rules {
		if r.Kind == FixedRule && len(r.Literals) == 1 && r.Literals[0] < 0 {
			if _, ok := r.Reason.(removeReason); ok {
				sawRemove = true
			}
		}
	}
	require.True(t, sawRemove)
}

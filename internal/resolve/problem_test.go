package resolve

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRequirementNotFoundErrorNamesPackage(t *testing.T) {
	repo := &fakeRepo{packages: []*Package{pkg("a", "1.0.0")}}
	req := &Request{Requires: []RootRequirement{{Name: "a", Constraint: ge("2.0.0")}}}
	pool := buildPool(t, []Repository{repo}, req)

	gen := &RuleGenerator{Pool: pool, Request: req}
	_, err := gen.Generate()
	require.Error(t, err)

	notFound, ok := err.(*RequirementNotFoundError)
	require.True(t, ok)
	require.Contains(t, notFound.Error(), "a")
}

func TestProblemPrettyListsSteps(t *testing.T) {
	repo := &fakeRepo{packages: []*Package{
		pkg("a", "1.0.0", requireLink("b", ge("5.0.0"))),
		pkg("b", "1.0.0"),
	}}
	req := &Request{Requires: []RootRequirement{{Name: "a", Constraint: Any{}}}}
	pool := buildPool(t, []Repository{repo}, req)

	gen := &RuleGenerator{Pool: pool, Request: req}
	rs, err := gen.Generate()
	require.NoError(t, err)

	solver, err := NewSolver(pool, rs, nil, &Policy{}, nil)
	require.NoError(t, err)
	assignment, problem, err := solver.Solve(rs)
	require.NoError(t, err)
	require.Nil(t, assignment)
	require.NotNil(t, problem)
	require.NotEmpty(t, problem.Pretty())
	require.Contains(t, problem.Pretty(), "requires")
}

func TestRewritePlatformRequirement(t *testing.T) {
	err := &RequirementNotFoundError{Name: "ext-foo", Constraint: Any{}}
	platform := PlatformFilter{IgnoreNames: map[string]bool{"ext-foo": true}}

	rewritten := RewritePlatformRequirement(err, platform)
	platErr, ok := rewritten.(*PlatformRequirementError)
	require.True(t, ok)
	require.Equal(t, "ext-foo", platErr.Name)
}

func TestRewritePlatformRequirementPassesThroughWhenNotIgnored(t *testing.T) {
	err := &RequirementNotFoundError{Name: "a", Constraint: Any{}}
	platform := PlatformFilter{}

	rewritten := RewritePlatformRequirement(err, platform)
	require.Equal(t, err, rewritten)
}

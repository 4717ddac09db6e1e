package resolve

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func solveScenario(t *testing.T, repos []Repository, req *Request, locked *LockedState, policy *Policy) (*Assignment, *Problem) {
	t.Helper()
	pool := buildPool(t, repos, req)
	gen := &RuleGenerator{Pool: pool, Request: req, Locked: locked}
	rs, err := gen.Generate()
	require.NoError(t, err)
	if policy == nil {
		policy = &Policy{}
	}
	solver, err := NewSolver(pool, rs, locked, policy, nil)
	require.NoError(t, err)
	assignment, problem, err := solver.Solve(rs)
	require.NoError(t, err)
	return assignment, problem
}

func TestSolverInstallsSingleCandidate(t *testing.T) {
	repo := &fakeRepo{packages: []*Package{pkg("a", "1.0.0")}}
	req := &Request{Requires: []RootRequirement{{Name: "a", Constraint: Any{}}}}

	assignment, problem := solveScenario(t, []Repository{repo}, req, nil, nil)
	require.Nil(t, problem)
	require.Len(t, assignment.InstalledPackages(), 1)
	require.Equal(t, "a", assignment.InstalledPackages()[0].Name)
}

func TestSolverPicksHighestVersionAndExcludesOthers(t *testing.T) {
	repo := &fakeRepo{packages: []*Package{
		pkg("a", "1.0.0", requireLink("b", ge("2.0.0"))),
		pkg("b", "1.0.0"),
		pkg("b", "2.0.0"),
		pkg("b", "3.0.0"),
	}}
	req := &Request{Requires: []RootRequirement{{Name: "a", Constraint: Any{}}}}

	assignment, problem := solveScenario(t, []Repository{repo}, req, nil, nil)
	require.Nil(t, problem)
	installed := assignment.InstalledPackages()
	require.Len(t, installed, 2)
	var bFound bool
	for _, p := range installed {
		if p.Name == "b" {
			bFound = true
			require.True(t, p.Version.Equal(MustParse("3.0.0")))
		}
	}
	require.True(t, bFound)
}

func TestSolverReportsConflictBetweenRootRequirements(t *testing.T) {
	repo := &fakeRepo{packages: []*Package{
		pkg("a", "1.0.0"),
		pkg("c", "1.0.0", Link{Target: "a", Kind: Conflict, Constraint: Any{}}),
	}}
	req := &Request{Requires: []RootRequirement{
		{Name: "a", Constraint: Any{}},
		{Name: "c", Constraint: Any{}},
	}}

	assignment, problem := solveScenario(t, []Repository{repo}, req, nil, nil)
	require.Nil(t, assignment)
	require.NotNil(t, problem)
	require.NotEmpty(t, problem.Steps)
	require.Contains(t, problem.Summary(), "conflicts with")
}

func TestSolverHonorsFixedVersion(t *testing.T) {
	repo := &fakeRepo{packages: []*Package{pkg("a", "1.0.0"), pkg("a", "2.0.0")}}
	req := &Request{
		Requires: []RootRequirement{{Name: "a", Constraint: Any{}}},
		Fixed:    []FixedRequirement{{Name: "a", Version: MustParse("1.0.0")}},
	}

	assignment, problem := solveScenario(t, []Repository{repo}, req, nil, nil)
	require.Nil(t, problem)
	installed := assignment.InstalledPackages()
	require.Len(t, installed, 1)
	require.True(t, installed[0].Version.Equal(MustParse("1.0.0")))
}

func TestSolverPreferLockedBeatsHigherVersion(t *testing.T) {
	repo := &fakeRepo{packages: []*Package{pkg("a", "1.0.0"), pkg("a", "2.0.0")}}
	req := &Request{
		Requires:     []RootRequirement{{Name: "a", Constraint: Any{}}},
		UpdatePolicy: All,
	}
	locked := &LockedState{Packages: []LockedPackage{{Name: "a", Version: MustParse("1.0.0")}}}

	assignment, problem := solveScenario(t, []Repository{repo}, req, locked, &Policy{PreferLocked: true})
	require.Nil(t, problem)
	installed := assignment.InstalledPackages()
	require.Len(t, installed, 1)
	require.True(t, installed[0].Version.Equal(MustParse("1.0.0")))
}

func TestSolverSameNameExcludesLosers(t *testing.T) {
	repo := &fakeRepo{packages: []*Package{pkg("a", "1.0.0"), pkg("a", "2.0.0"), pkg("a", "3.0.0")}}
	req := &Request{Requires: []RootRequirement{{Name: "a", Constraint: Any{}}}}

	assignment, problem := solveScenario(t, []Repository{repo}, req, nil, nil)
	require.Nil(t, problem)
	require.Len(t, assignment.InstalledPackages(), 1)
}

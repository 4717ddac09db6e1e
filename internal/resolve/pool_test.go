package resolve

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeRepo is a minimal in-memory Repository for tests.
type fakeRepo struct {
	name     string
	packages []*Package
}

func (r *fakeRepo) RepoName() string { return r.name }

func (r *fakeRepo) FindPackages(name string, constraint Constraint) ([]*Package, error) {
	var out []*Package
	for _, p := range r.packages {
		if p.Name != name {
			continue
		}
		if constraint == nil || constraint.AdmitsVersion(p.Version) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeRepo) GetProviders(name string) ([]ProviderRecord, error) {
	var out []ProviderRecord
	for _, p := range r.packages {
		for _, l := range p.EffectiveLinks() {
			if (l.Kind == Provide || l.Kind == Replace) && l.Target == name {
				out = append(out, ProviderRecord{Name: name, Version: p.Version, ViaPackage: p.Name})
			}
		}
		if p.Name == name {
			out = append(out, ProviderRecord{Name: name, Version: p.Version, ViaPackage: p.Name})
		}
	}
	return out, nil
}

func (r *fakeRepo) GetPackages() ([]*Package, error) { return r.packages, nil }

func pkg(name, version string, links ...Link) *Package {
	return &Package{Name: name, Version: MustParse(version), Links: links}
}

func ge(v string) Constraint { return Primitive{Op: OpGe, Version: MustParse(v)} }

func requireLink(target string, c Constraint) Link {
	return Link{Target: target, Constraint: c, Kind: Require}
}

func TestPoolBuilderPullsTransitiveRequires(t *testing.T) {
	repo := &fakeRepo{name: "main", packages: []*Package{
		pkg("a", "1.0.0", requireLink("b", ge("2.0.0"))),
		pkg("b", "2.0.0"),
		pkg("b", "1.0.0"),
	}}
	builder := &PoolBuilder{
		Repos:            &RepositorySet{Repos: []Repository{repo}},
		DefaultStability: StabilityStable,
	}
	req := &Request{Requires: []RootRequirement{{Name: "a", Constraint: ge("1.0.0")}}}

	pool, err := builder.Build(req)
	require.NoError(t, err)
	require.Len(t, pool.IDsForName("a"), 1)
	// Only b 2.0.0 is pulled in: FindPackages filters against the
	// accumulated constraint (>= 2.0.0), which 1.0.0 does not satisfy.
	bIDs := pool.IDsForName("b")
	require.Len(t, bIDs, 1)
	require.True(t, pool.Entry(bIDs[0]).Pkg.Version.Equal(MustParse("2.0.0")))
}

func TestPoolBuilderRegistersProvideAndReplaceTargets(t *testing.T) {
	repo := &fakeRepo{name: "main", packages: []*Package{
		pkg("a", "1.0.0", requireLink("virtual", ge("1.0.0"))),
		pkg("provider", "1.0.0", Link{Target: "virtual", Kind: Provide, Constraint: Any{}}),
	}}
	builder := &PoolBuilder{
		Repos:            &RepositorySet{Repos: []Repository{repo}},
		DefaultStability: StabilityStable,
	}
	req := &Request{Requires: []RootRequirement{{Name: "a", Constraint: ge("1.0.0")}}}

	pool, err := builder.Build(req)
	require.NoError(t, err)
	virtualIDs := pool.IDsForName("virtual")
	require.Len(t, virtualIDs, 1)
	require.Equal(t, "provider", pool.Entry(virtualIDs[0]).Pkg.Name)
}

func TestPoolBuilderFiltersByStability(t *testing.T) {
	repo := &fakeRepo{name: "main", packages: []*Package{
		pkg("a", "1.0.0-beta1"),
		pkg("a", "1.0.0"),
	}}
	builder := &PoolBuilder{
		Repos:            &RepositorySet{Repos: []Repository{repo}},
		DefaultStability: StabilityStable,
	}
	req := &Request{Requires: []RootRequirement{{Name: "a", Constraint: Any{}}}}

	pool, err := builder.Build(req)
	require.NoError(t, err)
	ids := pool.IDsForName("a")
	require.Len(t, ids, 1)
	require.True(t, pool.Entry(ids[0]).Pkg.Version.Equal(MustParse("1.0.0")))
}

func TestPoolIDOfResolvesAlias(t *testing.T) {
	target := pkg("real", "1.0.0")
	alias := &Package{Name: "alias", Version: MustParse("9.0.0"), Kind: RootAlias, AliasOf: target}
	repo := &fakeRepo{packages: []*Package{target, alias}}
	builder := &PoolBuilder{Repos: &RepositorySet{Repos: []Repository{repo}}, DefaultStability: StabilityStable}
	req := &Request{Requires: []RootRequirement{
		{Name: "real", Constraint: Any{}},
		{Name: "alias", Constraint: Any{}},
	}}

	pool, err := builder.Build(req)
	require.NoError(t, err)
	id, ok := pool.IDOf(target)
	require.True(t, ok)
	require.Equal(t, pool.Entry(id).Pkg, target)
}

package resolve

// ProviderRecord carries the version a name is effectively provided at:
// the replacer/provider's own version for replaced names, the package's
// own version otherwise (§3, Pool invariant).
type ProviderRecord struct {
	Name    string
	Version Version
	// ViaPackage is the name of the package contributing this record
	// (itself, for a direct package; the replacer/provider, otherwise).
	ViaPackage string
}

// Repository is the narrow, read-only collaborator contract consumed by
// the pool builder (§6). No mutation; implementations may fetch
// metadata lazily, but every call is synchronous from the core's
// perspective (§5 "suspension points").
type Repository interface {
	// FindPackages returns every package this repository holds under
	// name whose version satisfies constraint. A nil constraint means
	// "any version". Returns (nil, nil) rather than an error when the
	// name is simply absent from this repository (§9 design note:
	// RepoExists/VendorCodeExists folds into an empty-slice return).
	FindPackages(name string, constraint Constraint) ([]*Package, error)
	// GetProviders returns every ProviderRecord this repository
	// contributes for name, whether via direct package, `provide`, or
	// `replace` links.
	GetProviders(name string) ([]ProviderRecord, error)
	// GetPackages returns every package this repository holds.
	GetPackages() ([]*Package, error)
	RepoName() string
}

// RepositorySet aggregates candidate sources in priority order. Lower
// index is higher priority (§3 Pool invariant: "repository order
// determines tie-breaks").
type RepositorySet struct {
	Repos []Repository
}

// FindPackages queries every repository in order for packages whose
// version satisfies constraint, tagging each result with the index of
// the repository it came from.
func (rs *RepositorySet) FindPackages(name string, constraint Constraint) ([]repoPackage, error) {
	var out []repoPackage
	for idx, repo := range rs.Repos {
		pkgs, err := repo.FindPackages(name, constraint)
		if err != nil {
			return nil, &PoolBuildAbortedError{Cause: err}
		}
		for _, p := range pkgs {
			out = append(out, repoPackage{pkg: p, repoIndex: idx})
		}
	}
	return out, nil
}

// GetProviders aggregates provider records across every repository,
// tagging each with the contributing repository's priority index.
func (rs *RepositorySet) GetProviders(name string) ([]repoProvider, error) {
	var out []repoProvider
	for idx, repo := range rs.Repos {
		recs, err := repo.GetProviders(name)
		if err != nil {
			return nil, &PoolBuildAbortedError{Cause: err}
		}
		for _, r := range recs {
			out = append(out, repoProvider{rec: r, repoIndex: idx})
		}
	}
	return out, nil
}

type repoPackage struct {
	pkg       *Package
	repoIndex int
}

type repoProvider struct {
	rec       ProviderRecord
	repoIndex int
}

// PlatformProbe answers "what version (if any) does the runtime have for
// this platform package name?" A returned ok=false, disabled=true means
// "disabled" per §6; ok=false, disabled=false means "not present".
type PlatformProbe interface {
	Probe(name string) (v Version, ok bool, disabled bool)
}

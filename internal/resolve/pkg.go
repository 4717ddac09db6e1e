package resolve

// LinkKind closes the enumeration of directed edges a package can carry
// (§3, §9 design note: "the Link kind is a closed enumeration").
type LinkKind int

const (
	Require LinkKind = iota
	DevRequire
	Provide
	Conflict
	Replace
)

func (k LinkKind) String() string {
	switch k {
	case Require:
		return "requires"
	case DevRequire:
		return "requires-dev"
	case Provide:
		return "provides"
	case Conflict:
		return "conflicts"
	case Replace:
		return "replaces"
	default:
		return "?"
	}
}

// Link is a directed edge (source, target, constraint, kind).
type Link struct {
	Source     string
	Target     string
	Constraint Constraint
	Kind       LinkKind
}

// Kind tags the dynamic-polymorphism variants the original PHP
// PackageInterface hierarchy expressed as subclasses (§9 design note).
type Kind int

const (
	Normal Kind = iota
	Alias
	RootAlias
	Metapackage
)

// Package is an immutable descriptor: name, version, links, stability,
// and flags. Two different Package values may share (name, version) if
// they originate from different repositories; the Pool keeps them
// distinct by id (§3).
type Package struct {
	Name      string
	Version   Version
	Links     []Link
	Stability Stability
	Kind      Kind
	// AliasOf is set when Kind is Alias or RootAlias; the alias
	// re-exports AliasOf's links with self.version rewritten.
	AliasOf *Package
	// InstallPath is empty for metapackages (§3).
	InstallPath string
}

func (p *Package) IsMetapackage() bool {
	return p.Kind == Metapackage
}

func (p *Package) IsAlias() bool {
	return p.Kind == Alias || p.Kind == RootAlias
}

func (p *Package) IsRootAlias() bool {
	return p.Kind == RootAlias
}

// EffectiveLinks returns the links a package contributes to rule
// generation: for aliases, the target's links with self.version
// rewritten to an exact equality on the alias's own version, preserving
// the pretty form elsewhere for diagnostics (§9).
func (p *Package) EffectiveLinks() []Link {
	if !p.IsAlias() || p.AliasOf == nil {
		return p.Links
	}
	out := make([]Link, len(p.AliasOf.Links))
	for i, l := range p.AliasOf.Links {
		out[i] = Link{
			Source:     p.Name,
			Target:     l.Target,
			Constraint: RewriteSelfVersion(l.Constraint, p.Version),
			Kind:       l.Kind,
		}
	}
	return out
}

// LinksOfKind filters EffectiveLinks down to one kind.
func (p *Package) LinksOfKind(k LinkKind) []Link {
	var out []Link
	for _, l := range p.EffectiveLinks() {
		if l.Kind == k {
			out = append(out, l)
		}
	}
	return out
}

// VendorPrefix returns the portion of a "vendor/package" name before the
// separator, or "" if the name carries no vendor prefix. Used by Policy
// rule 7 (§4.3) and scenario 6 (§8).
func VendorPrefix(name string) string {
	for i := 0; i < len(name); i++ {
		if name[i] == '/' {
			return name[:i]
		}
	}
	return ""
}

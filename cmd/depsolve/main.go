// Command depsolve is a thin JSON-scenario exerciser for the resolver
// library. It is not part of the library's public surface (§1
// non-goal): no CLI flag set is a specification deliverable, it just
// gives the engine one runnable entry point, the way golang-dep's
// main.go dispatches a flag.Args()[0] command without ever reaching
// for cobra or kingpin.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/depsolve/resolver/internal/resolve"
)

func main() {
	scenarioPath := flag.String("scenario", "", "path to a JSON scenario file")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	if *scenarioPath == "" {
		fmt.Fprintln(os.Stderr, "usage: depsolve -scenario path/to/scenario.json")
		os.Exit(2)
	}

	logger := logrus.New()
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	if err := run(*scenarioPath, logger); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(path string, logger *logrus.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var doc scenarioDoc
	if err := json.NewDecoder(f).Decode(&doc); err != nil {
		return fmt.Errorf("parsing scenario: %w", err)
	}

	repos, err := doc.buildRepositorySet()
	if err != nil {
		return err
	}
	req, err := doc.buildRequest()
	if err != nil {
		return err
	}
	locked := doc.buildLockedState()
	opts := doc.Options.toOptions()

	builder := &resolve.PoolBuilder{
		Repos:            repos,
		DefaultStability: resolve.StabilityStable,
		Platform:         opts.IgnorePlatformReqs,
		PoolOptimizer:    opts.PoolOptimizer,
		Logger:           logger,
	}
	pool, err := builder.Build(req)
	if err != nil {
		return fmt.Errorf("building pool: %w", err)
	}

	gen := &resolve.RuleGenerator{Pool: pool, Request: req, Locked: locked, Platform: opts.IgnorePlatformReqs, Logger: logger}
	rules, err := gen.Generate()
	if err != nil {
		return fmt.Errorf("generating rules: %w", err)
	}

	policy := &resolve.Policy{PreferStable: opts.PreferStable, PreferLowest: opts.PreferLowest, PreferLocked: locked != nil}
	solver, err := resolve.NewSolver(pool, rules, locked, policy, logger)
	if err != nil {
		return fmt.Errorf("building solver: %w", err)
	}

	assignment, problem, err := solver.Solve(rules)
	if err != nil {
		return err
	}
	if problem != nil {
		fmt.Println("UNSOLVABLE:")
		fmt.Println(problem.Pretty())
		os.Exit(1)
		return nil
	}

	txBuilder := &resolve.TransactionBuilder{Locked: locked}
	tx, err := txBuilder.Build(assignment)
	if err != nil {
		return fmt.Errorf("building transaction: %w", err)
	}

	for _, op := range tx.Operations() {
		switch op.Kind {
		case resolve.Update:
			fmt.Printf("%s %s %s -> %s\n", op.Kind, op.Package.Name, op.PriorVersion, op.Package.Version)
		default:
			fmt.Printf("%s %s %s\n", op.Kind, op.Package.Name, op.Package.Version)
		}
	}
	return nil
}

// scenarioDoc is the on-disk JSON shape this exerciser reads. It has no
// bearing on the library's own config surface (Options, §6); it exists
// only to drive the CLI.
type scenarioDoc struct {
	Repositories []repoDoc      `json:"repositories"`
	Root         rootDoc        `json:"root"`
	Locked       *lockedDoc     `json:"locked"`
	Options      optionsDoc     `json:"options"`
}

type repoDoc struct {
	Name     string      `json:"name"`
	Packages []pkgDoc    `json:"packages"`
}

type pkgDoc struct {
	Name      string    `json:"name"`
	Version   string    `json:"version"`
	Stability string    `json:"stability"`
	Kind      string    `json:"kind"`
	AliasOf   string    `json:"aliasOf"`
	Links     []linkDoc `json:"links"`
}

type linkDoc struct {
	Target     string `json:"target"`
	Constraint string `json:"constraint"`
	Kind       string `json:"kind"`
}

type rootDoc struct {
	Requires     []requireDoc `json:"requires"`
	Fixed        []fixedDoc   `json:"fixed"`
	Remove       []string     `json:"remove"`
	UpdatePolicy string       `json:"updatePolicy"`
	UpdateNames  []string     `json:"updateNames"`
}

type requireDoc struct {
	Name       string `json:"name"`
	Constraint string `json:"constraint"`
	Dev        bool   `json:"dev"`
}

type fixedDoc struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type lockedDoc struct {
	Packages []lockedPkgDoc `json:"packages"`
}

type lockedPkgDoc struct {
	Name     string   `json:"name"`
	Version  string   `json:"version"`
	Dev      bool     `json:"dev"`
	Requires []string `json:"requires"`
	IsAlias  bool     `json:"isAlias"`
}

type optionsDoc struct {
	PreferStable       bool `json:"preferStable"`
	PreferLowest       bool `json:"preferLowest"`
	IgnorePlatformAll  bool `json:"ignorePlatformAll"`
	PoolOptimizer      bool `json:"poolOptimizer"`
}

func (o optionsDoc) toOptions() resolve.Options {
	return resolve.Options{
		PreferStable:       o.PreferStable,
		PreferLowest:       o.PreferLowest,
		IgnorePlatformReqs: resolve.PlatformFilter{IgnoreAll: o.IgnorePlatformAll},
		PoolOptimizer:      o.PoolOptimizer,
	}
}

func (d *scenarioDoc) buildRepositorySet() (*resolve.RepositorySet, error) {
	rs := &resolve.RepositorySet{}
	for _, rd := range d.Repositories {
		repo, err := rd.build()
		if err != nil {
			return nil, err
		}
		rs.Repos = append(rs.Repos, repo)
	}
	return rs, nil
}

func (rd repoDoc) build() (*memRepository, error) {
	repo := &memRepository{name: rd.Name}
	byName := map[string]*resolve.Package{}
	for _, pd := range rd.Packages {
		pkg, err := pd.build()
		if err != nil {
			return nil, err
		}
		byName[pkg.Name+"@"+pkg.Version.String()] = pkg
		repo.packages = append(repo.packages, pkg)
	}
	for i, pd := range rd.Packages {
		if pd.AliasOf == "" {
			continue
		}
		target, ok := byName[pd.AliasOf]
		if !ok {
			return nil, fmt.Errorf("repository %s: package %s aliases unknown %s", rd.Name, pd.Name, pd.AliasOf)
		}
		repo.packages[i].AliasOf = target
	}
	return repo, nil
}

func (pd pkgDoc) build() (*resolve.Package, error) {
	v, err := resolve.Parse(pd.Version)
	if err != nil {
		return nil, err
	}
	links := make([]resolve.Link, 0, len(pd.Links))
	for _, ld := range pd.Links {
		c, err := parseConstraint(ld.Constraint)
		if err != nil {
			return nil, err
		}
		links = append(links, resolve.Link{
			Source:     pd.Name,
			Target:     ld.Target,
			Constraint: c,
			Kind:       parseLinkKind(ld.Kind),
		})
	}
	return &resolve.Package{
		Name:    pd.Name,
		Version: v,
		Links:   links,
		Kind:    parseKind(pd.Kind),
	}, nil
}

func parseLinkKind(s string) resolve.LinkKind {
	switch s {
	case "requires-dev":
		return resolve.DevRequire
	case "provides":
		return resolve.Provide
	case "conflicts":
		return resolve.Conflict
	case "replaces":
		return resolve.Replace
	default:
		return resolve.Require
	}
}

func parseKind(s string) resolve.Kind {
	switch s {
	case "alias":
		return resolve.Alias
	case "root-alias":
		return resolve.RootAlias
	case "metapackage":
		return resolve.Metapackage
	default:
		return resolve.Normal
	}
}

// parseConstraint accepts "*", a single "<op><version>" primitive, a
// comma-separated conjunction, or a "||"-separated disjunction.
func parseConstraint(s string) (resolve.Constraint, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "*" {
		return resolve.Any{}, nil
	}
	if strings.Contains(s, "||") {
		var items []resolve.Constraint
		for _, part := range strings.Split(s, "||") {
			c, err := parseConstraint(part)
			if err != nil {
				return nil, err
			}
			items = append(items, c)
		}
		return resolve.Or{Items: items}, nil
	}
	if strings.Contains(s, ",") {
		var items []resolve.Constraint
		for _, part := range strings.Split(s, ",") {
			c, err := parseConstraint(part)
			if err != nil {
				return nil, err
			}
			items = append(items, c)
		}
		return resolve.And{Items: items}, nil
	}
	return parsePrimitive(s)
}

func parsePrimitive(s string) (resolve.Constraint, error) {
	s = strings.TrimSpace(s)
	ops := []struct {
		prefix string
		op     resolve.Op
	}{
		{">=", resolve.OpGe},
		{"<=", resolve.OpLe},
		{"~=", resolve.OpTilde},
		{"!=", resolve.OpNeq},
		{">", resolve.OpGt},
		{"<", resolve.OpLt},
		{"=", resolve.OpEq},
	}
	for _, o := range ops {
		if strings.HasPrefix(s, o.prefix) {
			v, err := resolve.Parse(strings.TrimSpace(strings.TrimPrefix(s, o.prefix)))
			if err != nil {
				return nil, err
			}
			return resolve.Primitive{Op: o.op, Version: v}, nil
		}
	}
	v, err := resolve.Parse(s)
	if err != nil {
		return nil, err
	}
	return resolve.Primitive{Op: resolve.OpEq, Version: v}, nil
}

func (d *scenarioDoc) buildRequest() (*resolve.Request, error) {
	req := &resolve.Request{
		Remove:       d.Root.Remove,
		UpdatePolicy: parseUpdatePolicy(d.Root.UpdatePolicy),
		UpdateNames:  d.Root.UpdateNames,
	}
	for _, rr := range d.Root.Requires {
		c, err := parseConstraint(rr.Constraint)
		if err != nil {
			return nil, err
		}
		req.Requires = append(req.Requires, resolve.RootRequirement{Name: rr.Name, Constraint: c, Dev: rr.Dev})
	}
	for _, fd := range d.Root.Fixed {
		v, err := resolve.Parse(fd.Version)
		if err != nil {
			return nil, err
		}
		req.Fixed = append(req.Fixed, resolve.FixedRequirement{Name: fd.Name, Version: v})
	}
	return req, nil
}

func parseUpdatePolicy(s string) resolve.UpdatePolicy {
	switch s {
	case "listed-with-transitive":
		return resolve.ListedWithTransitive
	case "listed-with-transitive-no-root":
		return resolve.ListedWithTransitiveNoRoot
	case "all":
		return resolve.All
	default:
		return resolve.OnlyListed
	}
}

func (d *scenarioDoc) buildLockedState() *resolve.LockedState {
	if d.Locked == nil {
		return nil
	}
	ls := &resolve.LockedState{}
	for _, lp := range d.Locked.Packages {
		v, err := resolve.Parse(lp.Version)
		if err != nil {
			continue
		}
		ls.Packages = append(ls.Packages, resolve.LockedPackage{
			Name:     lp.Name,
			Version:  v,
			Dev:      lp.Dev,
			Requires: lp.Requires,
			IsAlias:  lp.IsAlias,
		})
	}
	return ls
}

// memRepository is an in-memory Repository backing the JSON scenario
// format; it has no bearing on any real package source (§6 keeps that
// external).
type memRepository struct {
	name     string
	packages []*resolve.Package
}

func (r *memRepository) RepoName() string { return r.name }

func (r *memRepository) FindPackages(name string, constraint resolve.Constraint) ([]*resolve.Package, error) {
	var out []*resolve.Package
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

func (r *memRepository) GetProviders(name string) ([]resolve.ProviderRecord, error) {
	var out []resolve.ProviderRecord
	for _, p := range r.packages {
		for _, l := range p.EffectiveLinks() {
			if (l.Kind == resolve.Provide || l.Kind == resolve.Replace) && l.Target == name {
				out = append(out, resolve.ProviderRecord{Name: name, Version: p.Version, ViaPackage: p.Name})
			}
		}
		if p.Name == name {
			out = append(out, resolve.ProviderRecord{Name: name, Version: p.Version, ViaPackage: p.Name})
		}
	}
	return out, nil
}

func (r *memRepository) GetPackages() ([]*resolve.Package, error) {
	return r.packages, nil
}

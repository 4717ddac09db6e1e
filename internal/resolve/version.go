package resolve

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Stability is the ordered stability marker used to break ties between
// otherwise-equal version tuples. Lower is more stable.
type Stability int

const (
	StabilityDev Stability = 20
	StabilityAlpha Stability = 15
	StabilityBeta Stability = 10
	StabilityRC Stability = 5
	StabilityStable Stability = 0
)

func (s Stability) String() string {
	switch s {
	case StabilityDev:
		return "dev"
	case StabilityAlpha:
		return "alpha"
	case StabilityBeta:
		return "beta"
	case StabilityRC:
		return "RC"
	default:
		return "stable"
	}
}

var stabilityNames = map[string]Stability{
	"dev":     StabilityDev,
	"alpha":   StabilityAlpha,
	"a":       StabilityAlpha,
	"beta":    StabilityBeta,
	"b":       StabilityBeta,
	"rc":      StabilityRC,
	"stable":  StabilityStable,
}

// Version is a normalized four-segment numeric tuple plus a stability
// marker and an optional branch name, mirroring golang-dep's layering of
// a semverVersion over *semver.Version (version.go in the teacher).
type Version struct {
	sv        *semver.Version
	build     int64
	stability Stability
	tagNum    int64 // numeric suffix of the stability tag, e.g. 2 in "beta2"
	branch    string
	raw       string
}

// Branch constructs a floating dev-<ident> version, which never
// satisfies a bounded numeric range unless explicitly requested (§3).
func Branch(ident string) Version {
	return Version{branch: ident, stability: StabilityDev, raw: "dev-" + ident}
}

func (v Version) IsBranch() bool {
	return v.branch != ""
}

func (v Version) BranchName() string {
	return v.branch
}

func (v Version) Stability() Stability {
	return v.stability
}

func (v Version) String() string {
	if v.raw != "" {
		return v.raw
	}
	return "0.0.0.0"
}

// Parse normalizes a version string into its four-segment tuple and
// stability marker. Accepted forms: "1.2.3", "1.2.3.4", "1.2.3-beta2",
// "1.2.3-RC1", "dev-master".
func Parse(s string) (Version, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Version{}, fmt.Errorf("resolve: empty version string")
	}
	if strings.HasPrefix(s, "dev-") {
		return Branch(strings.TrimPrefix(s, "dev-")), nil
	}

	core := s
	stability := StabilityStable
	var build, tagNum int64
	if i := strings.IndexAny(s, "-+"); i >= 0 {
		core = s[:i]
		tag := strings.TrimLeft(s[i+1:], "-+")
		name, num := splitStabilityTag(tag)
		if st, ok := stabilityNames[strings.ToLower(name)]; ok {
			stability = st
			if num != "" {
				if n, err := strconv.ParseInt(num, 10, 64); err == nil {
					tagNum = n
				}
			}
		}
	}

	parts := strings.Split(core, ".")
	for len(parts) < 3 {
		parts = append(parts, "0")
	}
	var fourth string
	if len(parts) >= 4 {
		fourth = parts[3]
		parts = parts[:3]
	}
	semCore := strings.Join(parts, ".")

	sv, err := semver.NewVersion(semCore)
	if err != nil {
		return Version{}, fmt.Errorf("resolve: invalid version %q: %w", s, err)
	}

	if fourth != "" {
		if n, err := strconv.ParseInt(fourth, 10, 64); err == nil {
			build = n
		}
	}

	return Version{sv: sv, build: build, stability: stability, tagNum: tagNum, raw: s}, nil
}

// MustParse panics on invalid version strings. Intended for tests and
// literal version tables, not for parsing untrusted input.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

func splitStabilityTag(tag string) (name, num string) {
	i := 0
	for i < len(tag) && (tag[i] < '0' || tag[i] > '9') {
		i++
	}
	return tag[:i], tag[i:]
}

// Compare orders by the four-segment tuple, then by stability, then by
// the stability tag's number; a lower stability number is more stable
// and therefore greater when both tuples tie.
func (v Version) Compare(o Version) int {
	if v.IsBranch() || o.IsBranch() {
		if v.IsBranch() && o.IsBranch() {
			return strings.Compare(v.branch, o.branch)
		}
		// dev branches sort below numeric versions. Policy ranks them the
		// same way; an explicitly requested branch is honoured only by
		// Primitive.AdmitsVersion's exact-equality check.
		if v.IsBranch() {
			return -1
		}
		return 1
	}

	if c := v.sv.Compare(o.sv); c != 0 {
		return c
	}
	if v.build != o.build {
		if v.build < o.build {
			return -1
		}
		return 1
	}
	// Lower stability number is "more stable" and compares greater, so
	// equal tuples order dev < alpha < beta < RC < stable.
	if v.stability != o.stability {
		if v.stability > o.stability {
			return -1
		}
		return 1
	}
	if v.tagNum != o.tagNum {
		if v.tagNum < o.tagNum {
			return -1
		}
		return 1
	}
	return 0
}

func (v Version) Equal(o Version) bool {
	return v.Compare(o) == 0
}

func (v Version) LessThan(o Version) bool {
	return v.Compare(o) < 0
}

package resolve

import (
	"sort"
	"strings"
)

// Problem is the minimized explanation of why the solver proved the
// rule set unsatisfiable (§4.6): the reason chain leading to the
// falsified clause, deduplicated and ordered with the falsified clause
// first, followed depth-first by the rules that forced its literals, the way
// `golang-dep/errors.go`'s `disjointConstraintFailure.Error()` renders
// one conflict as a short prose chain rather than dumping the full CNF.
//
// Platform lists names of platform requirements a PlatformFilter
// disabled; Pretty appends one platform-specific line per name.
// buildProblem leaves it empty, and RewritePlatformRequirement reports
// through a PlatformRequirementError rather than this field.
type Problem struct {
	Steps    []string
	Platform []string
}

// buildProblem walks the reason chain backward from the falsified
// clause at conflIdx, through each trail literal's propagating clause,
// collecting a minimized, deduplicated set of human-readable steps
// (§4.6).
func (s *Solver) buildProblem(conflIdx int) *Problem {
	var steps []string
	seenStep := map[string]bool{}
	visited := map[int]bool{}

	var walk func(idx int)
	walk = func(idx int) {
		if idx < 0 || visited[idx] {
			return
		}
		visited[idx] = true
		c := s.db.clause(idx)
		if c.reason != nil {
			d := c.reason.Describe(s.pool)
			if !seenStep[d] {
				seenStep[d] = true
				steps = append(steps, d)
			}
		}
		for _, lit := range c.lits {
			v := abs(lit)
			if v < len(s.reason) && s.reason[v] >= 0 && s.reason[v] != idx {
				walk(s.reason[v])
			}
		}
	}
	walk(conflIdx)

	return &Problem{Steps: steps}
}

// RewritePlatformRequirement recognizes a RequirementNotFoundError whose
// name the given PlatformFilter disables and turns it into the
// platform-specific phrasing §4.6 calls for, instead of a bare
// "no candidates" message. Generation-time errors pass through
// unchanged when the filter does not ignore the name.
func RewritePlatformRequirement(err *RequirementNotFoundError, platform PlatformFilter) error {
	if err == nil || !platform.Ignores(err.Name) {
		return err
	}
	return &PlatformRequirementError{
		Name:   err.Name,
		Reason: "no candidate satisfies " + err.Constraint.String() + " on the active platform",
	}
}

// Summary is the one-line form used by VersionConflictError.Error().
func (p *Problem) Summary() string {
	if len(p.Steps) == 0 {
		return "unsatisfiable rule set"
	}
	return p.Steps[0]
}

// Pretty renders the full minimized reason chain, one step per line,
// in Steps order (falsified clause first), platform-specific lines
// appended last.
func (p *Problem) Pretty() string {
	var b strings.Builder
	for i, step := range p.Steps {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("  - ")
		b.WriteString(step)
	}
	if len(p.Platform) > 0 {
		names := append([]string(nil), p.Platform...)
		sort.Strings(names)
		for _, n := range names {
			b.WriteString("\n  - ")
			b.WriteString(n)
			b.WriteString(" requires a platform capability this run disabled")
		}
	}
	return b.String()
}

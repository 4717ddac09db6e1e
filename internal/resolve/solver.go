package resolve

import (
	"github.com/sirupsen/logrus"
)

// defaultLearnedCap bounds the learned-clause store (§4.4); on
// overflow, clauses with below-median activity are dropped, unless
// they are currently serving as some variable's propagation reason.
const defaultLearnedCap = 5000

// Solver is a CDCL-style SAT solver over Pool-derived literals:
// decisions, unit propagation via watched literals, 1-UIP conflict
// analysis, non-chronological backjumping, and clause learning (§4.4).
type Solver struct {
	pool    *Pool
	locked  *LockedState
	policy  *Policy
	logger  *logrus.Logger
	db      *clauseDB
	nvars   int

	value  []lbool
	level  []int
	reason []int // clause index that forced this var's assignment, or -1

	trail           []int
	trailLevelStart []int
	qhead           int

	// learnedPositiveLiteral is set the first time conflict analysis
	// asserts a positive literal for a variable previously assigned
	// false, per §4.4's "critical subtlety" and §8 scenario 5.
	learnedPositiveLiteral bool

	// initialConflict holds the index of a unit clause that contradicted
	// an already-enqueued literal while the solver was being built, i.e.
	// a level-0 conflict discovered before Solve's main loop ever runs.
	initialConflict int

	ShouldAbort func() bool
}

// NewSolver constructs a solver over pool using the rules in rs. A nil
// logger defaults to logrus.New(), mirroring golang-dep's NewSolver.
func NewSolver(pool *Pool, rs *RuleSet, locked *LockedState, policy *Policy, logger *logrus.Logger) (*Solver, error) {
	if logger == nil {
		logger = logrus.New()
	}
	if policy == nil {
		policy = &Policy{}
	}
	n := pool.Len()
	s := &Solver{
		pool:   pool,
		locked: locked,
		policy: policy,
		logger: logger,
		db:     newClauseDB(defaultLearnedCap),
		nvars:  n,
		value:  make([]lbool, n+1),
		level:  make([]int, n+1),
		reason: make([]int, n+1),
	}
	for v := range s.reason {
		s.reason[v] = -1
		s.level[v] = -1
	}
	s.initialConflict = -1

	for _, r := range rs.Rules {
		idx := s.db.addClause(r.Literals, r.Kind, r.Reason, false)
		if len(r.Literals) == 1 && s.initialConflict == -1 {
			lit := r.Literals[0]
			switch s.litValue(lit) {
			case lFalse:
				s.initialConflict = idx
			case lUnassigned:
				s.enqueue(lit, idx)
			}
		}
	}
	return s, nil
}

func (s *Solver) litValue(lit int) lbool {
	v := abs(lit)
	val := s.value[v]
	if val == lUnassigned {
		return lUnassigned
	}
	if lit > 0 {
		return val
	}
	return negateLB(val)
}

func (s *Solver) enqueue(lit int, reasonClause int) bool {
	v := abs(lit)
	switch s.litValue(lit) {
	case lTrue:
		return true
	case lFalse:
		return false
	}
	if lit > 0 {
		s.value[v] = lTrue
	} else {
		s.value[v] = lFalse
	}
	s.level[v] = s.decisionLevel()
	s.reason[v] = reasonClause
	s.trail = append(s.trail, lit)
	return true
}

func (s *Solver) decisionLevel() int {
	return len(s.trailLevelStart)
}

func (s *Solver) newDecisionLevel() {
	s.trailLevelStart = append(s.trailLevelStart, len(s.trail))
}

// propagate runs unit propagation to fixpoint, returning the index of a
// falsified clause on conflict, or -1 once the queue drains clean
// (§4.4 step 1).
func (s *Solver) propagate() int {
	for s.qhead < len(s.trail) {
		lit := s.trail[s.qhead]
		s.qhead++
		falseLit := -lit

		watchList := s.db.watchers[falseLit]
		keep := watchList[:0]

		for i := 0; i < len(watchList); i++ {
			ci := watchList[i]
			c := s.db.clause(ci)

			var other int
			if c.lits[0] == falseLit {
				other = c.lits[1]
			} else {
				other = c.lits[0]
			}

			if s.litValue(other) == lTrue {
				keep = append(keep, ci)
				continue
			}

			foundNew := false
			for k := 2; k < len(c.lits); k++ {
				if s.litValue(c.lits[k]) != lFalse {
					newWatch := c.lits[k]
					if c.lits[0] == falseLit {
						c.lits[0], c.lits[k] = c.lits[k], c.lits[0]
					} else {
						c.lits[1], c.lits[k] = c.lits[k], c.lits[1]
					}
					s.db.watchers[newWatch] = append(s.db.watchers[newWatch], ci)
					foundNew = true
					break
				}
			}
			if foundNew {
				continue
			}

			if s.litValue(other) == lFalse {
				// Conflict: put back everything not yet scanned, then
				// report it.
				keep = append(keep, watchList[i:]...)
				s.db.watchers[falseLit] = keep
				return ci
			}

			// Unit: other is forced true.
			s.enqueue(other, ci)
			keep = append(keep, ci)
		}
		s.db.watchers[falseLit] = keep
	}
	return -1
}

// analyze computes the 1-UIP learned clause for the conflict at
// clauseIdx, returning the clause (asserting literal first) and the
// backjump level (§4.4 step 2-3).
func (s *Solver) analyze(clauseIdx int) ([]int, int) {
	seen := make(map[int]bool)
	counter := 0
	var p int
	learnt := []int{0}
	trailIdx := len(s.trail) - 1
	confl := clauseIdx
	curLevel := s.decisionLevel()

	for {
		c := s.db.clause(confl)
		c.activity++
		for _, lit := range c.lits {
			if lit == p {
				continue
			}
			v := abs(lit)
			if seen[v] || s.level[v] < 0 {
				continue
			}
			if s.level[v] == 0 {
				continue
			}
			seen[v] = true
			if s.level[v] == curLevel {
				counter++
			} else {
				learnt = append(learnt, lit)
			}
		}

		for !seen[abs(s.trail[trailIdx])] {
			trailIdx--
		}
		p = s.trail[trailIdx]
		v := abs(p)
		trailIdx--
		seen[v] = false
		counter--
		if counter == 0 {
			break
		}
		confl = s.reason[v]
	}
	learnt[0] = -p

	btlevel := 0
	if len(learnt) > 1 {
		maxI := 1
		for i := 2; i < len(learnt); i++ {
			if s.level[abs(learnt[i])] > s.level[abs(learnt[maxI])] {
				maxI = i
			}
		}
		learnt[1], learnt[maxI] = learnt[maxI], learnt[1]
		btlevel = s.level[abs(learnt[1])]
	}

	if learnt[0] > 0 {
		s.learnedPositiveLiteral = true
	}

	return learnt, btlevel
}

// backjump undoes every assignment made above level (§4.4 step 3).
func (s *Solver) backjump(level int) {
	for s.decisionLevel() > level {
		start := s.trailLevelStart[len(s.trailLevelStart)-1]
		for i := len(s.trail) - 1; i >= start; i-- {
			v := abs(s.trail[i])
			s.value[v] = lUnassigned
			s.reason[v] = -1
			s.level[v] = -1
		}
		s.trail = s.trail[:start]
		s.trailLevelStart = s.trailLevelStart[:len(s.trailLevelStart)-1]
	}
	s.qhead = len(s.trail)
}

// decide picks the next unassigned literal via Policy, prioritizing
// literals that appear in an unresolved root-require rule (§4.4 step 4).
// Same-name rules get no priority: once every root-require rule is
// resolved, Policy picks among all unassigned ids. Returns ok=false once
// every variable is assigned.
func (s *Solver) decide(rs *RuleSet) (int, bool) {
	prioritized, name := s.unresolvedPriorityLiterals(rs)
	if len(prioritized) > 0 {
		ordered := s.policy.SelectPreferred(s.pool, prioritized, name, s.locked)
		return ordered[0], true
	}

	var rest []int
	for _, id := range s.pool.IDs() {
		if s.value[id] == lUnassigned {
			rest = append(rest, id)
		}
	}
	if len(rest) == 0 {
		return 0, false
	}
	ordered := s.policy.SelectPreferred(s.pool, rest, "", s.locked)
	return ordered[0], true
}

// unresolvedPriorityLiterals scans root-require rules (and no other
// kind) for one that is not yet satisfied and still has an unassigned
// literal.
func (s *Solver) unresolvedPriorityLiterals(rs *RuleSet) ([]int, string) {
	for _, r := range rs.Rules {
		if r.Kind != RootRequireRule {
			continue
		}
		if s.clauseSatisfied(r.Literals) {
			continue
		}
		lits := s.unassignedOf(r.Literals)
		if len(lits) > 0 {
			name := ""
			if rr, ok := r.Reason.(rootRequireReason); ok {
				name = rr.Name
			}
			return lits, name
		}
	}
	return nil, ""
}

func (s *Solver) clauseSatisfied(lits []int) bool {
	for _, l := range lits {
		if s.litValue(l) == lTrue {
			return true
		}
	}
	return false
}

func (s *Solver) unassignedOf(lits []int) []int {
	var out []int
	for _, l := range lits {
		if s.litValue(l) == lUnassigned {
			out = append(out, l)
		}
	}
	return out
}

// Solve runs the CDCL loop to completion: a result model, a conflict
// Problem, or a cooperative abort (§4.4 step 5, §5).
func (s *Solver) Solve(rs *RuleSet) (*Assignment, *Problem, error) {
	if s.initialConflict != -1 {
		return nil, s.buildProblem(s.initialConflict), nil
	}

	for {
		confl := s.propagate()
		if confl != -1 {
			if s.decisionLevel() == 0 {
				return nil, s.buildProblem(confl), nil
			}
			learnt, btlevel := s.analyze(confl)
			idx := s.db.addClause(learnt, LearnedRule, nil, true)
			if s.logger.Level >= logrus.DebugLevel {
				s.logger.WithFields(logrus.Fields{
					"learnedSize": len(learnt),
					"backjumpTo":  btlevel,
				}).Debug("learned clause from conflict")
			}
			s.backjump(btlevel)
			s.enqueue(learnt[0], idx)
			s.maybeEvictLearned()
			continue
		}

		if s.ShouldAbort != nil && s.ShouldAbort() {
			return nil, nil, &AbortedError{}
		}

		lit, ok := s.decide(rs)
		if !ok {
			break
		}
		if s.logger.Level >= logrus.DebugLevel {
			s.logger.WithFields(logrus.Fields{
				"literal": lit,
				"level":   s.decisionLevel() + 1,
			}).Debug("branching on literal")
		}
		s.newDecisionLevel()
		s.enqueue(lit, -1)
	}

	return s.extractAssignment(), nil, nil
}

func (s *Solver) extractAssignment() *Assignment {
	a := &Assignment{Pool: s.pool}
	for _, id := range s.pool.IDs() {
		a.Decided = append(a.Decided, s.value[id] == lTrue)
	}
	return a
}

// LearnedPositiveLiteral reports whether conflict analysis, at any
// point during this solve, asserted a positive literal for a variable
// previously assigned false (§4.4, §8 scenario 5).
func (s *Solver) LearnedPositiveLiteral() bool {
	return s.learnedPositiveLiteral
}

// maybeEvictLearned drops below-median-activity learned clauses once
// the learned store exceeds its cap, skipping any clause still serving
// as a live propagation reason (§4.4).
func (s *Solver) maybeEvictLearned() {
	if len(s.db.learnedIdx) <= s.db.cap {
		return
	}
	live := make(map[int]bool, len(s.trail))
	for v := 1; v <= s.nvars; v++ {
		if s.reason[v] >= 0 {
			live[s.reason[v]] = true
		}
	}

	activities := make([]float64, 0, len(s.db.learnedIdx))
	for _, idx := range s.db.learnedIdx {
		activities = append(activities, s.db.clause(idx).activity)
	}
	median := medianOf(activities)

	kept := s.db.learnedIdx[:0:0]
	for _, idx := range s.db.learnedIdx {
		c := s.db.clause(idx)
		if !live[idx] && c.activity < median {
			s.removeClauseWatches(idx)
			continue
		}
		kept = append(kept, idx)
	}
	s.db.learnedIdx = kept
}

func (s *Solver) removeClauseWatches(idx int) {
	c := s.db.clause(idx)
	if len(c.lits) < 2 {
		return
	}
	for _, w := range c.lits[:2] {
		list := s.db.watchers[w]
		for i, ci := range list {
			if ci == idx {
				s.db.watchers[w] = append(list[:i], list[i+1:]...)
				break
			}
		}
	}
	c.lits = nil
}

func medianOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := append([]float64(nil), xs...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j-1] > sorted[j]; j-- {
			sorted[j-1], sorted[j] = sorted[j], sorted[j-1]
		}
	}
	return sorted[len(sorted)/2]
}

// Assignment is the solver's per-literal model: Decided[i] is whether
// pool id i+1 was assigned true.
type Assignment struct {
	Pool    *Pool
	Decided []bool
}

func (a *Assignment) IsInstalled(id int) bool {
	if id <= 0 || id > len(a.Decided) {
		return false
	}
	return a.Decided[id-1]
}

// InstalledPackages returns every decided-true package, in ascending id
// order (deterministic per §5).
func (a *Assignment) InstalledPackages() []*Package {
	var out []*Package
	for _, id := range a.Pool.IDs() {
		if a.IsInstalled(id) {
			out = append(out, a.Pool.Entry(id).Pkg)
		}
	}
	return out
}

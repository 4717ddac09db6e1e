package resolve

// lbool is a three-valued literal value.
type lbool int8

const (
	lUnassigned lbool = 0
	lTrue       lbool = 1
	lFalse      lbool = 2
)

func negateLB(v lbool) lbool {
	switch v {
	case lTrue:
		return lFalse
	case lFalse:
		return lTrue
	default:
		return lUnassigned
	}
}

// clause is a rule materialized for the solver: its first two literals
// (when len >= 2) are the two watched literals (§4.4).
type clause struct {
	lits     []int
	kind     RuleKind
	reason   Reason
	learned  bool
	activity float64
}

// clauseDB is the watch-literal-indexed clause database (§4.4): two
// literals per clause are watched, and only clauses watching a literal
// that was just falsified are revisited during propagation.
type clauseDB struct {
	clauses    []*clause
	watchers   map[int][]int // literal -> clause indices watching it
	learnedIdx []int
	cap        int
}

func newClauseDB(cap int) *clauseDB {
	return &clauseDB{watchers: map[int][]int{}, cap: cap}
}

// addClause registers a new clause and, for clauses of length >= 2,
// watches its first two literals. Unit clauses are the caller's
// responsibility to enqueue directly.
func (db *clauseDB) addClause(lits []int, kind RuleKind, reason Reason, learned bool) int {
	idx := len(db.clauses)
	c := &clause{lits: append([]int(nil), lits...), kind: kind, reason: reason, learned: learned}
	db.clauses = append(db.clauses, c)
	if len(c.lits) >= 2 {
		db.watchers[c.lits[0]] = append(db.watchers[c.lits[0]], idx)
		db.watchers[c.lits[1]] = append(db.watchers[c.lits[1]], idx)
	}
	if learned {
		db.learnedIdx = append(db.learnedIdx, idx)
	}
	return idx
}

func (db *clauseDB) clause(idx int) *clause {
	return db.clauses[idx]
}

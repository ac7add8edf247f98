package storage

import "strings"

// clauses keeps WHERE predicates and their bound values in lock-step: every
// predicate is added together with exactly one parameter, numbered in order.
type clauses struct {
	d     Dialect
	where []string
	args  []any
}

func newClauses(d Dialect, leading ...any) *clauses {
	return &clauses{d: d, args: append([]any(nil), leading...)}
}

// add binds arg to the next positional parameter and appends the predicate
// produced from its placeholder. User values only ever travel as parameters.
func (c *clauses) add(arg any, predicate func(ph string) string) {
	c.args = append(c.args, arg)
	c.where = append(c.where, predicate(c.d.Placeholder(len(c.args))))
}

func (c *clauses) String() string {
	if len(c.where) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(c.where, " AND ")
}

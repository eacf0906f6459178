package repository

import (
	"fmt"
	"strings"
)

// Predicate accumulates WHERE-clause fragments together with their bound
// values. Placeholder numbers are not chosen while conditions are added;
// Render assigns them in one final pass, so callers can reserve leading
// parameters (the hybrid search binds the query vector as $1) without any
// manual index bookkeeping.
type Predicate struct {
	parts []predicatePart
}

type predicatePart struct {
	// expr contains one '?' per bound value, replaced with $n at render time.
	expr string
	args []any
}

// And appends one fragment. expr must contain exactly one '?' per value in
// args, in binding order.
func (p *Predicate) And(expr string, args ...any) {
	p.parts = append(p.parts, predicatePart{expr: expr, args: args})
}

// Empty reports whether no conditions were added.
func (p *Predicate) Empty() bool {
	return len(p.parts) == 0
}

// Render produces the clause to append to a base query's WHERE section
// (each fragment prefixed with " AND "), the ordered bound values, and the
// final parameter index. Placeholders are numbered start+1, start+2, ...,
// so a caller that already bound start parameters can append further
// clauses beginning at the returned index + 1.
func (p *Predicate) Render(start int) (string, []any, int) {
	if len(p.parts) == 0 {
		return "", []any{}, start
	}

	var clause strings.Builder
	args := make([]any, 0, len(p.parts))
	n := start

	for _, part := range p.parts {
		expr := part.expr
		for range part.args {
			n++
			expr = strings.Replace(expr, "?", fmt.Sprintf("$%d", n), 1)
		}
		clause.WriteString(" AND ")
		clause.WriteString(expr)
		args = append(args, part.args...)
	}

	return clause.String(), args, n
}

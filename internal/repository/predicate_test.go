package repository

import (
	"reflect"
	"testing"
)

func TestPredicateRenderEmpty(t *testing.T) {
	p := &Predicate{}
	clause, args, n := p.Render(0)

	if clause != "" {
		t.Errorf("clause = %q, want empty", clause)
	}
	if len(args) != 0 {
		t.Errorf("args = %v, want empty", args)
	}
	if n != 0 {
		t.Errorf("final index = %d, want 0", n)
	}
}

func TestPredicateRenderNumbering(t *testing.T) {
	p := &Predicate{}
	p.And("gender IN ('무관', ?)", "남성")
	p.And("hourly_wage >= ?", 12000)

	clause, args, n := p.Render(0)
	want := " AND gender IN ('무관', $1) AND hourly_wage >= $2"
	if clause != want {
		t.Errorf("clause = %q, want %q", clause, want)
	}
	if !reflect.DeepEqual(args, []any{"남성", 12000}) {
		t.Errorf("args = %v", args)
	}
	if n != 2 {
		t.Errorf("final index = %d, want 2", n)
	}
}

func TestPredicateRenderReservedLeadingParameter(t *testing.T) {
	// The hybrid search binds the query vector as $1 before the predicate.
	p := &Predicate{}
	p.And("category = ?", "IT/인터넷")

	clause, _, n := p.Render(1)
	want := " AND category = $2"
	if clause != want {
		t.Errorf("clause = %q, want %q", clause, want)
	}
	if n != 2 {
		t.Errorf("final index = %d, want 2", n)
	}
}

func TestPredicateRenderMultiplePlaceholdersPerFragment(t *testing.T) {
	p := &Predicate{}
	p.And("start_time BETWEEN ? AND ?", "09:00", "10:00")

	clause, args, n := p.Render(0)
	want := " AND start_time BETWEEN $1 AND $2"
	if clause != want {
		t.Errorf("clause = %q, want %q", clause, want)
	}
	if len(args) != 2 || n != 2 {
		t.Errorf("args = %v, final index = %d", args, n)
	}
}

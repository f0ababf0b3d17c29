package parser_test

import (
	"testing"

	"github.com/graphshape/graphshape/lib/ast"
)

func filterCond(t *testing.T, input string) ast.Expr {
	t.Helper()
	pattern := selectPattern(t, input)
	f, ok := pattern.(ast.FilterPattern)
	if !ok {
		t.Fatalf("expected filter pattern, got %T", pattern)
	}
	return f.Cond
}

func TestParseSignedNumberInfix(t *testing.T) {
	// The sign stays attached to the number at the lexical level, so the
	// parser rebuilds the subtraction.
	cond := filterCond(t, `SELECT * WHERE { FILTER(?x -3 > 0) }`)

	cmp, ok := cond.(*ast.BinaryExpr)
	if !ok || cmp.Operator != ">" {
		t.Fatalf("expected comparison, got %#v", cond)
	}
	sub, ok := cmp.Left.(*ast.BinaryExpr)
	if !ok || sub.Operator != "-" {
		t.Fatalf("expected subtraction on the left, got %#v", cmp.Left)
	}

	stmt := mustParse(t, `SELECT * WHERE { FILTER(?x -3 > 0) }`)
	want := `SELECT * WHERE { FILTER (?x - 3 > 0) }`
	if got := mustRender(t, stmt); got != want {
		t.Fatalf("render mismatch\nwant %q\ngot  %q", want, got)
	}
}

func TestParseSignedNumberMultiplicative(t *testing.T) {
	stmt := mustParse(t, `SELECT * WHERE { FILTER(?x -3 * 2 > 0) }`)
	want := `SELECT * WHERE { FILTER (?x - 3 * 2 > 0) }`
	if got := mustRender(t, stmt); got != want {
		t.Fatalf("render mismatch\nwant %q\ngot  %q", want, got)
	}
}

func TestParseUnaryOperators(t *testing.T) {
	cond := filterCond(t, `SELECT * WHERE { FILTER(+?x = 1) }`)
	cmp := cond.(*ast.BinaryExpr)
	if _, ok := cmp.Left.(*ast.VarRef); !ok {
		t.Fatalf("unary plus should reduce to its operand, got %T", cmp.Left)
	}

	stmt := mustParse(t, `SELECT * WHERE { FILTER(!!bound(?x)) }`)
	want := `SELECT * WHERE { FILTER (!!BOUND(?x)) }`
	if got := mustRender(t, stmt); got != want {
		t.Fatalf("render mismatch\nwant %q\ngot  %q", want, got)
	}

	stmt = mustParse(t, `SELECT * WHERE { FILTER(- (?a + ?b) > 0) }`)
	want = `SELECT * WHERE { FILTER (-(?a + ?b) > 0) }`
	if got := mustRender(t, stmt); got != want {
		t.Fatalf("render mismatch\nwant %q\ngot  %q", want, got)
	}
}

func TestParsePrecedence(t *testing.T) {
	stmt := mustParse(t, `SELECT * WHERE { FILTER(?a = 1 || ?b = 2 && ?c = 3) }`)
	want := `SELECT * WHERE { FILTER (?a = 1 || ?b = 2 && ?c = 3) }`
	if got := mustRender(t, stmt); got != want {
		t.Fatalf("render mismatch\nwant %q\ngot  %q", want, got)
	}

	cond := filterCond(t, `SELECT * WHERE { FILTER(?a = 1 || ?b = 2 && ?c = 3) }`)
	or := cond.(*ast.BinaryExpr)
	if or.Operator != "||" {
		t.Fatalf("expected || at the top, got %q", or.Operator)
	}
	and := or.Right.(*ast.BinaryExpr)
	if and.Operator != "&&" {
		t.Fatalf("expected && under ||, got %q", and.Operator)
	}
}

func TestParseParenthesizedGrouping(t *testing.T) {
	// Explicit grouping below || must survive the round trip.
	stmt := mustParse(t, `SELECT * WHERE { FILTER((?a || ?b) && ?c) }`)
	want := `SELECT * WHERE { FILTER ((?a || ?b) && ?c) }`
	if got := mustRender(t, stmt); got != want {
		t.Fatalf("render mismatch\nwant %q\ngot  %q", want, got)
	}
}

func TestParseInList(t *testing.T) {
	stmt := mustParse(t, `SELECT * WHERE { FILTER(?x IN (1, 2, 3)) }`)
	want := `SELECT * WHERE { FILTER (?x IN (1, 2, 3)) }`
	if got := mustRender(t, stmt); got != want {
		t.Fatalf("render mismatch\nwant %q\ngot  %q", want, got)
	}

	stmt = mustParse(t, `SELECT * WHERE { FILTER(?x NOT IN ()) }`)
	want = `SELECT * WHERE { FILTER (?x NOT IN ()) }`
	if got := mustRender(t, stmt); got != want {
		t.Fatalf("render mismatch\nwant %q\ngot  %q", want, got)
	}
}

func TestParseExistsExpressions(t *testing.T) {
	cond := filterCond(t, `SELECT * WHERE { FILTER EXISTS { ?s :p ?o } }`)
	exists, ok := cond.(*ast.ExistsExpr)
	if !ok || exists.Not {
		t.Fatalf("expected EXISTS, got %#v", cond)
	}

	stmt := mustParse(t, `SELECT * WHERE { FILTER NOT EXISTS { ?s :p ?o } }`)
	want := `SELECT * WHERE { FILTER (NOT EXISTS { ?s :p ?o . }) }`
	if got := mustRender(t, stmt); got != want {
		t.Fatalf("render mismatch\nwant %q\ngot  %q", want, got)
	}
}

func TestParseBuiltinCanonicalization(t *testing.T) {
	stmt := mustParse(t, `SELECT * WHERE { FILTER(strlen(?s) > 3 && langMatches(lang(?s), "en")) }`)
	want := `SELECT * WHERE { FILTER (STRLEN(?s) > 3 && LANGMATCHES(LANG(?s), "en")) }`
	if got := mustRender(t, stmt); got != want {
		t.Fatalf("render mismatch\nwant %q\ngot  %q", want, got)
	}

	// Unrecognized names keep their spelling.
	stmt = mustParse(t, `SELECT * WHERE { FILTER(myFunc(?x)) }`)
	want = `SELECT * WHERE { FILTER (myFunc(?x)) }`
	if got := mustRender(t, stmt); got != want {
		t.Fatalf("render mismatch\nwant %q\ngot  %q", want, got)
	}
}

func TestParseIRIFunctionCalls(t *testing.T) {
	stmt := mustParse(t, `SELECT * WHERE { FILTER(<http://example.org/fn>(?x, 2)) }`)
	want := `SELECT * WHERE { FILTER (<http://example.org/fn>(?x, 2)) }`
	if got := mustRender(t, stmt); got != want {
		t.Fatalf("render mismatch\nwant %q\ngot  %q", want, got)
	}

	stmt = mustParse(t, `SELECT * WHERE { FILTER(ex:check(?x)) }`)
	want = `SELECT * WHERE { FILTER (ex:check(?x)) }`
	if got := mustRender(t, stmt); got != want {
		t.Fatalf("render mismatch\nwant %q\ngot  %q", want, got)
	}
}

func TestParseTripleTermFunctions(t *testing.T) {
	stmt := mustParse(t, `SELECT * WHERE { FILTER(isTRIPLE(?t) && SUBJECT(?t) = ?s) }`)
	want := `SELECT * WHERE { FILTER (ISTRIPLE(?t) && SUBJECT(?t) = ?s) }`
	if got := mustRender(t, stmt); got != want {
		t.Fatalf("render mismatch\nwant %q\ngot  %q", want, got)
	}
}

func TestParseAggregates(t *testing.T) {
	stmt := mustParse(t, `SELECT (GROUP_CONCAT(DISTINCT ?n; separator = ", ") AS ?all) (SAMPLE(?x) AS ?any) (COUNT(*) AS ?c)
WHERE { ?g :n ?n }
GROUP BY ?g
HAVING (COUNT(*) > 1)`)

	q := stmt.(*ast.SelectQuery)
	agg := q.Columns[0].Expr.(*ast.AggregateExpr)
	if agg.Func != ast.AggGroupConcat || !agg.Distinct || agg.Separator != ", " {
		t.Fatalf("unexpected aggregate: %#v", agg)
	}

	want := `SELECT (GROUP_CONCAT(DISTINCT ?n; SEPARATOR = ", ") AS ?all) (SAMPLE(?x) AS ?any) (COUNT(*) AS ?c) WHERE { ?g :n ?n . } GROUP BY ?g HAVING (COUNT(*) > 1)`
	if got := mustRender(t, stmt); got != want {
		t.Fatalf("render mismatch\nwant %q\ngot  %q", want, got)
	}
}

func TestParseQuotedTripleInExpression(t *testing.T) {
	cond := filterCond(t, `SELECT * WHERE { FILTER(?t = << ?s :p ?o >>) }`)

	cmp := cond.(*ast.BinaryExpr)
	term, ok := cmp.Right.(*ast.TermExpr)
	if !ok {
		t.Fatalf("expected term expression, got %T", cmp.Right)
	}
	if _, ok := term.Term.(ast.QuotedTriple); !ok {
		t.Fatalf("expected quoted triple, got %T", term.Term)
	}
}

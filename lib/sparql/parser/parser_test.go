package parser_test

import (
	"strings"
	"testing"

	"github.com/graphshape/graphshape/lib/ast"
	"github.com/graphshape/graphshape/lib/render"
	"github.com/graphshape/graphshape/lib/sparql/lexer"
	"github.com/graphshape/graphshape/lib/sparql/parser"
)

func mustParse(t *testing.T, input string) ast.Statement {
	t.Helper()
	p := parser.New(lexer.New(input))
	stmt := p.ParseStatement()
	if errs := p.Errors(); len(errs) > 0 {
		t.Fatalf("parse error: %v", errs[0])
	}
	if stmt == nil {
		t.Fatalf("no statement parsed")
	}
	return stmt
}

func mustRender(t *testing.T, stmt ast.Statement) string {
	t.Helper()
	out, err := render.SPARQL(stmt)
	if err != nil {
		t.Fatalf("render error: %v", err)
	}
	return out
}

func parseErrors(t *testing.T, input string) []error {
	t.Helper()
	p := parser.New(lexer.New(input))
	p.ParseStatement()
	errs := p.Errors()
	if len(errs) == 0 {
		t.Fatalf("expected parse errors, got none")
	}
	return errs
}

func TestParseSelectQuery(t *testing.T) {
	stmt := mustParse(t, `PREFIX foaf: <http://xmlns.com/foaf/0.1/>
SELECT DISTINCT ?name ?age
WHERE {
  ?p a foaf:Person ;
     foaf:name ?name ;
     foaf:age ?age .
  FILTER (?age > 21)
}
ORDER BY DESC(?age) ?name
LIMIT 10 OFFSET 5`)

	q, ok := stmt.(*ast.SelectQuery)
	if !ok {
		t.Fatalf("expected *ast.SelectQuery, got %T", stmt)
	}
	if !q.Distinct {
		t.Fatalf("expected DISTINCT")
	}
	if !q.IsReadOnly() {
		t.Fatalf("SELECT should classify as read-only")
	}

	want := `PREFIX foaf: <http://xmlns.com/foaf/0.1/> SELECT DISTINCT ?name ?age WHERE { ?p a foaf:Person . ?p foaf:name ?name . ?p foaf:age ?age . FILTER (?age > 21) } ORDER BY DESC(?age) ?name LIMIT 10 OFFSET 5`
	if got := mustRender(t, stmt); got != want {
		t.Fatalf("render mismatch\nwant %q\ngot  %q", want, got)
	}
}

func TestParseBaseResolution(t *testing.T) {
	stmt := mustParse(t, `BASE <http://example.org/data/>
SELECT ?x WHERE { <item> <p> ?x }`)

	want := `BASE <http://example.org/data/> SELECT ?x WHERE { <http://example.org/data/item> <http://example.org/data/p> ?x . }`
	if got := mustRender(t, stmt); got != want {
		t.Fatalf("render mismatch\nwant %q\ngot  %q", want, got)
	}
}

func TestParseBaseLastWins(t *testing.T) {
	stmt := mustParse(t, `BASE <http://example.org/a/>
BASE <b/>
SELECT ?x WHERE { <c> <p> ?x }`)

	q := stmt.(*ast.SelectQuery)
	if q.Prologue.Base != "http://example.org/a/b/" {
		t.Fatalf("expected resolved base, got %q", q.Prologue.Base)
	}

	bp, ok := q.Pattern.(ast.BasicPattern)
	if !ok {
		t.Fatalf("expected basic pattern, got %T", q.Pattern)
	}
	subj := bp.Triples[0].Subject.(ast.IRI)
	if subj.Value != "http://example.org/a/b/c" {
		t.Fatalf("expected subject resolved against final base, got %q", subj.Value)
	}
}

func TestParseMalformedPrefix(t *testing.T) {
	errs := parseErrors(t, `PREFIX foaf:name <http://xmlns.com/foaf/0.1/> SELECT ?x WHERE { ?x ?p ?o }`)
	if !strings.Contains(errs[0].Error(), "malformed prefix declaration") {
		t.Fatalf("unexpected error: %v", errs[0])
	}
}

func TestParseVersionDeclaration(t *testing.T) {
	stmt := mustParse(t, `VERSION "1.2" SELECT ?s WHERE { ?s ?p ?o }`)
	q := stmt.(*ast.SelectQuery)
	if q.Prologue.Version != "1.2" {
		t.Fatalf("expected version 1.2, got %q", q.Prologue.Version)
	}
	want := `VERSION "1.2" SELECT ?s WHERE { ?s ?p ?o . }`
	if got := mustRender(t, stmt); got != want {
		t.Fatalf("render mismatch\nwant %q\ngot  %q", want, got)
	}
}

func TestParseOptionalDotsEquivalent(t *testing.T) {
	withDots := mustParse(t, `SELECT ?o WHERE { ?s <http://ex/p> ?o . ?o <http://ex/q> ?v . }`)
	without := mustParse(t, `SELECT ?o WHERE { ?s <http://ex/p> ?o ?o <http://ex/q> ?v }`)
	if mustRender(t, withDots) != mustRender(t, without) {
		t.Fatalf("dot separators changed the parse:\n%s\n%s",
			mustRender(t, withDots), mustRender(t, without))
	}
}

func TestParseOptionalMinus(t *testing.T) {
	stmt := mustParse(t, `SELECT ?s WHERE { ?s :p ?o OPTIONAL { ?s :q ?r } MINUS { ?s :bad true } }`)

	q := stmt.(*ast.SelectQuery)
	minus, ok := q.Pattern.(ast.MinusPattern)
	if !ok {
		t.Fatalf("expected minus at top, got %T", q.Pattern)
	}
	if _, ok := minus.Left.(ast.OptionalPattern); !ok {
		t.Fatalf("expected optional under minus, got %T", minus.Left)
	}

	want := `SELECT ?s WHERE { ?s :p ?o . OPTIONAL { ?s :q ?r . } MINUS { ?s :bad true . } }`
	if got := mustRender(t, stmt); got != want {
		t.Fatalf("render mismatch\nwant %q\ngot  %q", want, got)
	}
}

func TestParseUnionLeftAssociative(t *testing.T) {
	stmt := mustParse(t, `SELECT ?a WHERE { { ?a :p 1 } UNION { ?a :p 2 } UNION { ?a :p 3 } }`)

	q := stmt.(*ast.SelectQuery)
	outer, ok := q.Pattern.(ast.UnionPattern)
	if !ok {
		t.Fatalf("expected union, got %T", q.Pattern)
	}
	if _, ok := outer.Left.(ast.UnionPattern); !ok {
		t.Fatalf("expected left-nested union, got %T", outer.Left)
	}

	want := `SELECT ?a WHERE { { { ?a :p 1 . } UNION { ?a :p 2 . } } UNION { ?a :p 3 . } }`
	if got := mustRender(t, stmt); got != want {
		t.Fatalf("render mismatch\nwant %q\ngot  %q", want, got)
	}
}

func TestParseBindAndValues(t *testing.T) {
	stmt := mustParse(t, `SELECT ?y WHERE { ?s :p ?x BIND (?x + 1 AS ?y) VALUES ?z { 1 2 } }`)

	want := `SELECT ?y WHERE { ?s :p ?x . BIND (?x + 1 AS ?y) VALUES (?z) { (1) (2) } }`
	if got := mustRender(t, stmt); got != want {
		t.Fatalf("render mismatch\nwant %q\ngot  %q", want, got)
	}
}

func TestParseValuesUndef(t *testing.T) {
	stmt := mustParse(t, `SELECT ?a WHERE { VALUES (?a ?b) { (1 UNDEF) (:x "s") } }`)

	q := stmt.(*ast.SelectQuery)
	v, ok := q.Pattern.(ast.ValuesPattern)
	if !ok {
		t.Fatalf("expected values pattern, got %T", q.Pattern)
	}
	if len(v.Vars) != 2 || len(v.Rows) != 2 {
		t.Fatalf("expected 2 vars and 2 rows, got %d and %d", len(v.Vars), len(v.Rows))
	}
	if v.Rows[0][1] != nil {
		t.Fatalf("UNDEF should parse as nil, got %#v", v.Rows[0][1])
	}

	want := `SELECT ?a WHERE { VALUES (?a ?b) { (1 UNDEF) (:x "s") } }`
	if got := mustRender(t, stmt); got != want {
		t.Fatalf("render mismatch\nwant %q\ngot  %q", want, got)
	}
}

func TestParseValuesRowWidthMismatch(t *testing.T) {
	errs := parseErrors(t, `SELECT ?a WHERE { VALUES (?a ?b) { (1) } }`)
	if !strings.Contains(errs[0].Error(), "VALUES row has 1 terms for 2 variables") {
		t.Fatalf("unexpected error: %v", errs[0])
	}
}

func TestParseGraphAndService(t *testing.T) {
	stmt := mustParse(t, `SELECT ?s WHERE { GRAPH ?g { ?s ?p ?o } SERVICE SILENT <http://ex/sparql> { ?s ?q ?v } }`)

	want := `SELECT ?s WHERE { GRAPH ?g { ?s ?p ?o . } SERVICE SILENT <http://ex/sparql> { ?s ?q ?v . } }`
	if got := mustRender(t, stmt); got != want {
		t.Fatalf("render mismatch\nwant %q\ngot  %q", want, got)
	}
}

func TestParseSubSelect(t *testing.T) {
	stmt := mustParse(t, `SELECT ?s WHERE { { SELECT ?s WHERE { ?s ?p ?o } LIMIT 1 } }`)

	q := stmt.(*ast.SelectQuery)
	sub, ok := q.Pattern.(ast.SubSelectPattern)
	if !ok {
		t.Fatalf("expected sub-select, got %T", q.Pattern)
	}
	if sub.Query.Limit == nil || sub.Query.Limit.Count == nil {
		t.Fatalf("sub-select lost its LIMIT")
	}

	want := `SELECT ?s WHERE { { SELECT ?s WHERE { ?s ?p ?o . } LIMIT 1 } }`
	if got := mustRender(t, stmt); got != want {
		t.Fatalf("render mismatch\nwant %q\ngot  %q", want, got)
	}
}

func TestParseLateral(t *testing.T) {
	stmt := mustParse(t, `SELECT ?s WHERE { ?s :p ?o LATERAL { ?o :q ?v } }`)

	q := stmt.(*ast.SelectQuery)
	lat, ok := q.Pattern.(ast.LateralPattern)
	if !ok {
		t.Fatalf("expected lateral, got %T", q.Pattern)
	}
	if _, ok := lat.Left.(ast.BasicPattern); !ok {
		t.Fatalf("expected basic pattern on the left, got %T", lat.Left)
	}

	want := `SELECT ?s WHERE { ?s :p ?o . LATERAL { ?o :q ?v . } }`
	if got := mustRender(t, stmt); got != want {
		t.Fatalf("render mismatch\nwant %q\ngot  %q", want, got)
	}
}

func TestParseDatasetClauses(t *testing.T) {
	stmt := mustParse(t, `SELECT ?s FROM <http://g1> FROM NAMED <http://g2> WHERE { ?s ?p ?o }`)

	q := stmt.(*ast.SelectQuery)
	if len(q.Datasets) != 2 || q.Datasets[0].Named || !q.Datasets[1].Named {
		t.Fatalf("unexpected dataset clauses: %#v", q.Datasets)
	}

	want := `SELECT ?s FROM <http://g1> FROM NAMED <http://g2> WHERE { ?s ?p ?o . }`
	if got := mustRender(t, stmt); got != want {
		t.Fatalf("render mismatch\nwant %q\ngot  %q", want, got)
	}
}

func TestParseTrailingValuesClause(t *testing.T) {
	stmt := mustParse(t, `SELECT ?x WHERE { ?x :p ?o } VALUES ?x { :a }`)

	q := stmt.(*ast.SelectQuery)
	if q.Values == nil {
		t.Fatalf("expected trailing VALUES clause")
	}

	want := `SELECT ?x WHERE { ?x :p ?o . } VALUES (?x) { (:a) }`
	if got := mustRender(t, stmt); got != want {
		t.Fatalf("render mismatch\nwant %q\ngot  %q", want, got)
	}
}

func TestParseAskQuery(t *testing.T) {
	stmt := mustParse(t, `ASK { ?s :p ?o }`)
	if _, ok := stmt.(*ast.AskQuery); !ok {
		t.Fatalf("expected *ast.AskQuery, got %T", stmt)
	}
	want := `ASK WHERE { ?s :p ?o . }`
	if got := mustRender(t, stmt); got != want {
		t.Fatalf("render mismatch\nwant %q\ngot  %q", want, got)
	}
}

func TestParseDescribeQuery(t *testing.T) {
	stmt := mustParse(t, `DESCRIBE ?x <http://example.org/thing>`)
	q := stmt.(*ast.DescribeQuery)
	if q.Star || len(q.Terms) != 2 {
		t.Fatalf("unexpected describe terms: %#v", q)
	}
	want := `DESCRIBE ?x <http://example.org/thing>`
	if got := mustRender(t, stmt); got != want {
		t.Fatalf("render mismatch\nwant %q\ngot  %q", want, got)
	}

	stmt = mustParse(t, `DESCRIBE * WHERE { ?x :p ?o }`)
	want = `DESCRIBE * WHERE { ?x :p ?o . }`
	if got := mustRender(t, stmt); got != want {
		t.Fatalf("render mismatch\nwant %q\ngot  %q", want, got)
	}
}

func TestParseConstructQuery(t *testing.T) {
	stmt := mustParse(t, `CONSTRUCT { ?s :p ?o . } WHERE { ?s :q ?o } LIMIT 5`)

	q := stmt.(*ast.ConstructQuery)
	if len(q.Template) != 1 {
		t.Fatalf("expected 1 template triple, got %d", len(q.Template))
	}

	want := `CONSTRUCT { ?s :p ?o . } WHERE { ?s :q ?o . } LIMIT 5`
	if got := mustRender(t, stmt); got != want {
		t.Fatalf("render mismatch\nwant %q\ngot  %q", want, got)
	}
}

func TestParseConstructTemplateRejectsPaths(t *testing.T) {
	errs := parseErrors(t, `CONSTRUCT { ?s :p/:q ?o } WHERE { ?s ?p ?o }`)
	found := false
	for _, err := range errs {
		if strings.Contains(err.Error(), "property paths are not allowed in a CONSTRUCT template") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected template path rejection, got %v", errs)
	}
}

func TestParseInsertData(t *testing.T) {
	stmt := mustParse(t, `INSERT DATA { :s :p 1 . GRAPH <http://g> { :s :q 2 } }`)

	ins := stmt.(*ast.InsertDataStatement)
	if len(ins.Quads) != 2 {
		t.Fatalf("expected 2 quads, got %d", len(ins.Quads))
	}
	if ins.Quads[0].Graph != nil {
		t.Fatalf("first quad should target the default graph")
	}
	if ins.Quads[1].Graph == nil {
		t.Fatalf("second quad should carry a graph name")
	}
	if !ins.IsModification() {
		t.Fatalf("INSERT DATA should classify as modification")
	}

	want := `INSERT DATA { :s :p 1 . GRAPH <http://g> { :s :q 2 . } }`
	if got := mustRender(t, stmt); got != want {
		t.Fatalf("render mismatch\nwant %q\ngot  %q", want, got)
	}
}

func TestParseDeleteDataRejectsVariables(t *testing.T) {
	errs := parseErrors(t, `DELETE DATA { :s :p ?o }`)
	if !strings.Contains(errs[0].Error(), "DELETE DATA cannot contain variable ?o") {
		t.Fatalf("unexpected error: %v", errs[0])
	}
}

func TestParseDeleteInsertWhere(t *testing.T) {
	stmt := mustParse(t, `DELETE { ?s :old ?o } INSERT { ?s :new ?o } WHERE { ?s :old ?o }`)

	di := stmt.(*ast.DeleteInsertStatement)
	if len(di.DeleteTemplate) != 1 || len(di.InsertTemplate) != 1 {
		t.Fatalf("unexpected templates: %#v", di)
	}

	want := `DELETE { ?s :old ?o . } INSERT { ?s :new ?o . } WHERE { ?s :old ?o . }`
	if got := mustRender(t, stmt); got != want {
		t.Fatalf("render mismatch\nwant %q\ngot  %q", want, got)
	}
}

func TestParseInsertWhere(t *testing.T) {
	stmt := mustParse(t, `INSERT { ?s :new ?o } WHERE { ?s :old ?o }`)

	di := stmt.(*ast.DeleteInsertStatement)
	if len(di.DeleteTemplate) != 0 || len(di.InsertTemplate) != 1 {
		t.Fatalf("unexpected templates: %#v", di)
	}

	want := `INSERT { ?s :new ?o . } WHERE { ?s :old ?o . }`
	if got := mustRender(t, stmt); got != want {
		t.Fatalf("render mismatch\nwant %q\ngot  %q", want, got)
	}
}

func TestParseLoadStatement(t *testing.T) {
	stmt := mustParse(t, `LOAD SILENT <http://example.org/data.ttl> INTO GRAPH <http://example.org/g>`)

	load := stmt.(*ast.LoadStatement)
	if !load.Silent || load.Source != "http://example.org/data.ttl" || load.Into != "http://example.org/g" {
		t.Fatalf("unexpected load statement: %#v", load)
	}
	if !load.IsModification() {
		t.Fatalf("LOAD should classify as modification")
	}

	want := `LOAD SILENT <http://example.org/data.ttl> INTO GRAPH <http://example.org/g>`
	if got := mustRender(t, stmt); got != want {
		t.Fatalf("render mismatch\nwant %q\ngot  %q", want, got)
	}
}

func TestParseGraphManagement(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`CLEAR DEFAULT`, `CLEAR DEFAULT`},
		{`CLEAR SILENT GRAPH <http://example.org/g>`, `CLEAR SILENT GRAPH <http://example.org/g>`},
		{`CREATE SILENT GRAPH <http://example.org/g>`, `CREATE SILENT GRAPH <http://example.org/g>`},
		{`DROP NAMED`, `DROP NAMED`},
		{`DROP ALL`, `DROP ALL`},
		{`DROP GRAPH <http://example.org/g>`, `DROP GRAPH <http://example.org/g>`},
	}
	for _, tt := range tests {
		stmt := mustParse(t, tt.input)
		if got := mustRender(t, stmt); got != tt.want {
			t.Fatalf("%s: render mismatch\nwant %q\ngot  %q", tt.input, tt.want, got)
		}
	}

	if !mustParse(t, `CREATE GRAPH <http://example.org/g>`).IsSchemaDefinition() {
		t.Fatalf("CREATE GRAPH should classify as schema definition")
	}
	if !mustParse(t, `DROP ALL`).IsSchemaDefinition() {
		t.Fatalf("DROP should classify as schema definition")
	}
	if !mustParse(t, `CLEAR ALL`).IsModification() {
		t.Fatalf("CLEAR should classify as modification")
	}
}

func TestParseTrailingTokens(t *testing.T) {
	errs := parseErrors(t, `SELECT ?x WHERE { ?x :p ?y } extra junk`)
	found := false
	for _, err := range errs {
		if strings.Contains(err.Error(), "after statement") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected trailing token error, got %v", errs)
	}
}

func TestParseUnsupportedStatement(t *testing.T) {
	errs := parseErrors(t, `FROB ?x`)
	if !strings.Contains(errs[0].Error(), "unsupported statement starting with") {
		t.Fatalf("unexpected error: %v", errs[0])
	}
}

func TestParseErrorPositions(t *testing.T) {
	errs := parseErrors(t, "SELECT ?x\nWHERE ( ?x :p ?o }")
	if !strings.HasPrefix(errs[0].Error(), "line 2, column ") {
		t.Fatalf("expected positioned error, got %v", errs[0])
	}
}

func TestParseUnterminatedStringIsLexError(t *testing.T) {
	p := parser.New(lexer.New(`SELECT ?x WHERE { ?x :p "open }`))
	p.ParseStatement()
	errs := p.Errors()
	if len(errs) == 0 {
		t.Fatalf("expected errors")
	}
	found := false
	for _, err := range errs {
		if _, ok := err.(*parser.LexError); ok {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a lexical error, got %v", errs)
	}
}

func TestParseHelper(t *testing.T) {
	stmt, err := parser.Parse(`ASK { ?s ?p ?o }`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := stmt.(*ast.AskQuery); !ok {
		t.Fatalf("expected *ast.AskQuery, got %T", stmt)
	}

	if _, err := parser.Parse(`SELECT WHERE { }`); err == nil {
		t.Fatalf("expected error for empty projection")
	}
}

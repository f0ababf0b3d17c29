package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/graphshape/graphshape/lib/ast"
)

// SPARQL serializes a statement to canonical SPARQL text. Keywords are
// upper-cased, triples carry explicit dot terminators, and expressions are
// parenthesized where precedence requires it.
func SPARQL(stmt ast.Statement) (string, error) {
	r := &sparqlRenderer{}
	r.statement(stmt)
	if r.err != nil {
		return "", r.err
	}
	return r.b.String(), nil
}

type sparqlRenderer struct {
	b   strings.Builder
	err error
}

func (r *sparqlRenderer) write(s string) {
	if r.err == nil {
		r.b.WriteString(s)
	}
}

func (r *sparqlRenderer) writef(format string, args ...interface{}) {
	if r.err == nil {
		fmt.Fprintf(&r.b, format, args...)
	}
}

func (r *sparqlRenderer) fail(format string, args ...interface{}) {
	if r.err == nil {
		r.err = fmt.Errorf(format, args...)
	}
}

func (r *sparqlRenderer) statement(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.SelectQuery:
		r.prologue(s.Prologue)
		r.selectQuery(s)
	case *ast.AskQuery:
		r.prologue(s.Prologue)
		r.write("ASK")
		r.datasets(s.Datasets)
		r.write(" WHERE ")
		r.group(s.Pattern)
	case *ast.ConstructQuery:
		r.prologue(s.Prologue)
		r.constructQuery(s)
	case *ast.DescribeQuery:
		r.prologue(s.Prologue)
		r.describeQuery(s)
	case *ast.InsertDataStatement:
		r.prologue(s.Prologue)
		r.write("INSERT DATA ")
		r.quadBlock(s.Quads)
	case *ast.DeleteDataStatement:
		r.prologue(s.Prologue)
		r.write("DELETE DATA ")
		r.quadBlock(s.Quads)
	case *ast.DeleteInsertStatement:
		r.prologue(s.Prologue)
		if len(s.DeleteTemplate) > 0 || len(s.InsertTemplate) == 0 {
			r.write("DELETE ")
			r.quadBlock(s.DeleteTemplate)
			r.write(" ")
		}
		if len(s.InsertTemplate) > 0 {
			r.write("INSERT ")
			r.quadBlock(s.InsertTemplate)
			r.write(" ")
		}
		r.write("WHERE ")
		r.group(s.Where)
	case *ast.LoadStatement:
		r.prologue(s.Prologue)
		r.write("LOAD ")
		if s.Silent {
			r.write("SILENT ")
		}
		r.write(r.iriString(s.Source))
		if s.Into != "" {
			r.writef(" INTO GRAPH %s", r.iriString(s.Into))
		}
	case *ast.ClearStatement:
		r.prologue(s.Prologue)
		r.write("CLEAR ")
		if s.Silent {
			r.write("SILENT ")
		}
		r.graphTarget(s.Target)
	case *ast.CreateSPARQLGraphStatement:
		r.prologue(s.Prologue)
		r.write("CREATE ")
		if s.Silent {
			r.write("SILENT ")
		}
		r.writef("GRAPH %s", r.iriString(s.Graph))
	case *ast.DropSPARQLGraphStatement:
		r.prologue(s.Prologue)
		r.write("DROP ")
		if s.Silent {
			r.write("SILENT ")
		}
		r.graphTarget(s.Target)
	default:
		r.fail("cannot render %T as SPARQL", stmt)
	}
}

func (r *sparqlRenderer) prologue(p ast.Prologue) {
	if p.Base != "" {
		r.writef("BASE <%s> ", p.Base)
	}
	if p.Version != "" {
		r.writef("VERSION %s ", sparqlQuote(p.Version))
	}
	for _, decl := range p.Prefixes {
		r.writef("PREFIX %s: <%s> ", decl.Prefix, decl.IRI)
	}
}

func (r *sparqlRenderer) datasets(clauses []ast.DatasetClause) {
	for _, c := range clauses {
		if c.Named {
			r.writef(" FROM NAMED %s", r.iriString(c.IRI))
		} else {
			r.writef(" FROM %s", r.iriString(c.IRI))
		}
	}
}

// iriString renders a dataset or management-statement IRI that may be stored
// either as an absolute IRI or as a prefixed name spelling.
func (r *sparqlRenderer) iriString(iri string) string {
	if isPrefixedSpelling(iri) {
		return iri
	}
	return "<" + iri + ">"
}

func isPrefixedSpelling(s string) bool {
	return !strings.ContainsAny(s, "/#") && !strings.Contains(s, "://") && strings.Count(s, ":") == 1 && !strings.HasPrefix(s, "urn:")
}

func (r *sparqlRenderer) selectQuery(q *ast.SelectQuery) {
	if q == nil {
		r.fail("nil select query")
		return
	}

	r.write("SELECT ")
	if q.Distinct {
		r.write("DISTINCT ")
	}
	if q.Reduced {
		r.write("REDUCED ")
	}
	for i, item := range q.Columns {
		if i > 0 {
			r.write(" ")
		}
		if item.Alias != "" {
			r.write("(")
			r.expr(item.Expr, 0)
			r.writef(" AS ?%s)", item.Alias)
			continue
		}
		r.expr(item.Expr, 0)
	}

	r.datasets(q.Datasets)

	r.write(" WHERE ")
	r.group(q.Pattern)

	if len(q.GroupBy) > 0 {
		r.write(" GROUP BY")
		for _, e := range q.GroupBy {
			r.write(" ")
			r.expr(e, 0)
		}
	}
	if q.Having != nil {
		r.write(" HAVING (")
		r.expr(q.Having, 0)
		r.write(")")
	}
	if len(q.OrderBy) > 0 {
		r.write(" ORDER BY")
		for _, item := range q.OrderBy {
			if item.Descending {
				r.write(" DESC(")
				r.expr(item.Expr, 0)
				r.write(")")
				continue
			}
			if v, ok := item.Expr.(*ast.VarRef); ok {
				r.writef(" ?%s", v.Name)
				continue
			}
			r.write(" ASC(")
			r.expr(item.Expr, 0)
			r.write(")")
		}
	}
	r.limit(q.Limit)
	if q.Values != nil {
		r.write(" ")
		r.values(*q.Values)
	}
}

func (r *sparqlRenderer) limit(l *ast.LimitClause) {
	if l == nil {
		return
	}
	if l.Count != nil {
		r.write(" LIMIT ")
		r.expr(l.Count, 0)
	}
	if l.Offset != nil {
		r.write(" OFFSET ")
		r.expr(l.Offset, 0)
	}
}

func (r *sparqlRenderer) constructQuery(q *ast.ConstructQuery) {
	r.write("CONSTRUCT { ")
	for _, t := range q.Template {
		r.triple(t)
		r.write(" ")
	}
	r.write("}")
	r.datasets(q.Datasets)
	r.write(" WHERE ")
	r.group(q.Pattern)
	if len(q.OrderBy) > 0 {
		r.write(" ORDER BY")
		for _, item := range q.OrderBy {
			if item.Descending {
				r.write(" DESC(")
				r.expr(item.Expr, 0)
				r.write(")")
				continue
			}
			if v, ok := item.Expr.(*ast.VarRef); ok {
				r.writef(" ?%s", v.Name)
				continue
			}
			r.write(" ASC(")
			r.expr(item.Expr, 0)
			r.write(")")
		}
	}
	r.limit(q.Limit)
}

func (r *sparqlRenderer) describeQuery(q *ast.DescribeQuery) {
	r.write("DESCRIBE")
	if q.Star {
		r.write(" *")
	}
	for _, t := range q.Terms {
		r.write(" ")
		r.term(t)
	}
	r.datasets(q.Datasets)
	if q.Pattern != nil {
		r.write(" WHERE ")
		r.group(q.Pattern)
	}
}

func (r *sparqlRenderer) graphTarget(t ast.GraphTarget) {
	switch t.Kind {
	case ast.TargetDefault:
		r.write("DEFAULT")
	case ast.TargetNamed:
		r.write("NAMED")
	case ast.TargetAll:
		r.write("ALL")
	case ast.TargetGraph:
		r.writef("GRAPH %s", r.iriString(t.IRI))
	}
}

func (r *sparqlRenderer) quadBlock(quads []ast.Quad) {
	r.write("{ ")
	var openGraph ast.Term
	graphOpen := false
	for _, q := range quads {
		sameGraph := (q.Graph == nil && !graphOpen) || (graphOpen && q.Graph == openGraph)
		if !sameGraph {
			if graphOpen {
				r.write("} ")
			}
			graphOpen = q.Graph != nil
			openGraph = q.Graph
			if graphOpen {
				r.write("GRAPH ")
				r.term(q.Graph)
				r.write(" { ")
			}
		}
		r.triple(q.Triple)
		r.write(" ")
	}
	if graphOpen {
		r.write("} ")
	}
	r.write("}")
}

// group renders a graph pattern inside braces.
func (r *sparqlRenderer) group(p ast.GraphPattern) {
	r.write("{ ")
	r.pattern(p)
	r.write("}")
}

func (r *sparqlRenderer) pattern(p ast.GraphPattern) {
	switch n := p.(type) {
	case nil:
		// empty group
	case ast.BasicPattern:
		for _, t := range n.Triples {
			r.triple(t)
			r.write(" ")
		}
	case ast.JoinPattern:
		r.pattern(n.Left)
		r.pattern(n.Right)
	case ast.OptionalPattern:
		r.pattern(n.Left)
		r.write("OPTIONAL ")
		r.group(n.Right)
		r.write(" ")
	case ast.UnionPattern:
		r.group(n.Left)
		r.write(" UNION ")
		r.group(n.Right)
		r.write(" ")
	case ast.MinusPattern:
		r.pattern(n.Left)
		r.write("MINUS ")
		r.group(n.Right)
		r.write(" ")
	case ast.FilterPattern:
		r.pattern(n.Base)
		r.write("FILTER (")
		r.expr(n.Cond, 0)
		r.write(") ")
	case ast.BindPattern:
		r.pattern(n.Base)
		r.write("BIND (")
		r.expr(n.Expr, 0)
		r.writef(" AS ?%s) ", n.Var)
	case ast.ValuesPattern:
		r.values(n)
		r.write(" ")
	case ast.GraphGraphPattern:
		r.write("GRAPH ")
		r.term(n.Name)
		r.write(" ")
		r.group(n.Inner)
		r.write(" ")
	case ast.ServicePattern:
		r.write("SERVICE ")
		if n.Silent {
			r.write("SILENT ")
		}
		r.term(n.Endpoint)
		r.write(" ")
		r.group(n.Inner)
		r.write(" ")
	case ast.SubSelectPattern:
		r.write("{ ")
		r.selectQuery(n.Query)
		r.write(" } ")
	case ast.LateralPattern:
		r.pattern(n.Left)
		r.write("LATERAL ")
		r.group(n.Right)
		r.write(" ")
	case ast.PropertyPathPattern:
		r.term(n.Subject)
		r.write(" ")
		r.path(n.Path, 0)
		r.write(" ")
		r.term(n.Object)
		r.write(" . ")
	default:
		r.fail("cannot render %T as a graph pattern", p)
	}
}

func (r *sparqlRenderer) values(v ast.ValuesPattern) {
	r.write("VALUES (")
	for i, name := range v.Vars {
		if i > 0 {
			r.write(" ")
		}
		r.writef("?%s", name)
	}
	r.write(") { ")
	for _, row := range v.Rows {
		r.write("(")
		for i, t := range row {
			if i > 0 {
				r.write(" ")
			}
			if t == nil {
				r.write("UNDEF")
				continue
			}
			r.term(t)
		}
		r.write(") ")
	}
	r.write("}")
}

func (r *sparqlRenderer) triple(t ast.TriplePattern) {
	r.term(t.Subject)
	r.write(" ")
	r.term(t.Predicate)
	r.write(" ")
	r.term(t.Object)
	r.write(" .")
}

func (r *sparqlRenderer) term(t ast.Term) {
	switch n := t.(type) {
	case ast.Var:
		r.writef("?%s", n.Name)
	case ast.IRI:
		if n.Value == ast.RDFType {
			r.write("a")
			return
		}
		r.writef("<%s>", n.Value)
	case ast.PrefixedName:
		r.writef("%s:%s", n.Prefix, n.Local)
	case ast.BlankNode:
		r.writef("_:%s", n.ID)
	case ast.LiteralTerm:
		r.literal(n.Literal)
	case ast.QuotedTriple:
		r.write("<< ")
		r.term(n.Subject)
		r.write(" ")
		r.term(n.Predicate)
		r.write(" ")
		r.term(n.Object)
		r.write(" >>")
	case ast.ReifiedTriple:
		r.write("<< ")
		r.term(n.Subject)
		r.write(" ")
		r.term(n.Predicate)
		r.write(" ")
		r.term(n.Object)
		if n.Reifier != nil {
			r.write(" ~ ")
			r.term(n.Reifier)
		} else {
			r.write(" ~")
		}
		r.write(" >>")
	default:
		r.fail("cannot render %T as an RDF term", t)
	}
}

func (r *sparqlRenderer) literal(lit ast.Literal) {
	switch lit.Kind {
	case ast.LitInt:
		r.write(strconv.FormatInt(lit.Int, 10))
	case ast.LitDouble:
		r.write(formatDouble(lit.Double))
	case ast.LitBool:
		if lit.Bool {
			r.write("true")
		} else {
			r.write("false")
		}
	case ast.LitString:
		r.write(sparqlQuote(lit.Str))
	case ast.LitLang:
		r.writef("%s@%s", sparqlQuote(lit.Str), lit.Lang)
	case ast.LitDirLang:
		r.writef("%s@%s--%s", sparqlQuote(lit.Str), lit.Lang, lit.Dir)
	case ast.LitTyped:
		r.writef("%s^^%s", sparqlQuote(lit.Str), r.iriString(lit.Datatype))
	default:
		r.fail("cannot render literal kind %d as SPARQL", lit.Kind)
	}
}

// formatDouble keeps a decimal point or exponent so the literal lexes as a
// double rather than an integer.
func formatDouble(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func sparqlQuote(s string) string {
	replacer := strings.NewReplacer(
		"\\", "\\\\",
		"\"", "\\\"",
		"\n", "\\n",
		"\r", "\\r",
		"\t", "\\t",
	)
	return "\"" + replacer.Replace(s) + "\""
}

func (r *sparqlRenderer) path(p ast.PropertyPath, parent int) {
	// Precedence: alternatives 1, sequences 2, inverse 3, quantifiers 4.
	switch n := p.(type) {
	case ast.PathIRI:
		r.term(n.Term)
	case ast.InversePath:
		r.write("^")
		r.path(n.Path, 3)
	case ast.SequencePath:
		if parent > 2 {
			r.write("(")
		}
		r.path(n.Left, 2)
		r.write("/")
		r.path(n.Right, 2)
		if parent > 2 {
			r.write(")")
		}
	case ast.AlternativePath:
		if parent > 1 {
			r.write("(")
		}
		r.path(n.Left, 1)
		r.write("|")
		r.path(n.Right, 1)
		if parent > 1 {
			r.write(")")
		}
	case ast.ZeroOrMorePath:
		r.path(n.Path, 4)
		r.write("*")
	case ast.OneOrMorePath:
		r.path(n.Path, 4)
		r.write("+")
	case ast.ZeroOrOnePath:
		r.path(n.Path, 4)
		r.write("?")
	case ast.NegatedPath:
		r.write("!(")
		for i, member := range n.Paths {
			if i > 0 {
				r.write("|")
			}
			r.path(member, 1)
		}
		r.write(")")
	default:
		r.fail("cannot render %T as a property path", p)
	}
}

// Operator precedence levels for parenthesization, mirroring the parser.
func sparqlOperatorPrecedence(op string) int {
	switch op {
	case "||":
		return 1
	case "&&":
		return 2
	case "=", "!=", "<", "<=", ">", ">=":
		return 3
	case "+", "-":
		return 4
	case "*", "/":
		return 5
	default:
		return 3
	}
}

func (r *sparqlRenderer) expr(e ast.Expr, parent int) {
	switch n := e.(type) {
	case *ast.VarRef:
		r.writef("?%s", n.Name)
	case *ast.StarExpr:
		r.write("*")
	case *ast.LiteralExpr:
		r.literal(n.Value)
	case *ast.TermExpr:
		r.term(n.Term)
	case *ast.BinaryExpr:
		prec := sparqlOperatorPrecedence(n.Operator)
		if prec < parent {
			r.write("(")
		}
		r.expr(n.Left, prec)
		r.writef(" %s ", n.Operator)
		r.expr(n.Right, prec+1)
		if prec < parent {
			r.write(")")
		}
	case *ast.UnaryExpr:
		r.write(n.Operator)
		if _, nested := n.Expr.(*ast.UnaryExpr); nested {
			r.expr(n.Expr, 6)
		} else if needsUnaryParens(n.Expr) {
			r.write("(")
			r.expr(n.Expr, 0)
			r.write(")")
		} else {
			r.expr(n.Expr, 6)
		}
	case *ast.FuncCall:
		r.writef("%s(", strings.Join(n.Name.Parts, ""))
		for i, a := range n.Args {
			if i > 0 {
				r.write(", ")
			}
			r.expr(a, 0)
		}
		r.write(")")
	case *ast.AggregateExpr:
		r.writef("%s(", n.Func)
		if n.Distinct {
			r.write("DISTINCT ")
		}
		if n.Star {
			r.write("*")
		} else if n.Arg != nil {
			r.expr(n.Arg, 0)
		}
		if n.Separator != "" {
			r.writef("; SEPARATOR = %s", sparqlQuote(n.Separator))
		}
		r.write(")")
	case *ast.InExpr:
		r.expr(n.Expr, 4)
		if n.Not {
			r.write(" NOT")
		}
		r.write(" IN (")
		for i, v := range n.List {
			if i > 0 {
				r.write(", ")
			}
			r.expr(v, 0)
		}
		r.write(")")
	case *ast.ExistsExpr:
		if n.Not {
			r.write("NOT ")
		}
		r.write("EXISTS ")
		r.group(n.Pattern)
	default:
		r.fail("cannot render %T as a SPARQL expression", e)
	}
}

// needsUnaryParens reports whether a unary operand must be bracketed to
// survive a round trip: binary operands rebind without parentheses.
func needsUnaryParens(e ast.Expr) bool {
	switch e.(type) {
	case *ast.BinaryExpr, *ast.InExpr:
		return true
	default:
		return false
	}
}

package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/graphshape/graphshape/lib/ast"
)

// SQL serializes a statement to canonical SQL/PGQ text. The output reparses
// to an equal tree: keywords are upper-cased, spacing is normalized, and
// subexpressions are parenthesized where precedence requires it.
func SQL(stmt ast.Statement) (string, error) {
	r := &sqlRenderer{}
	r.statement(stmt)
	if r.err != nil {
		return "", r.err
	}
	return r.b.String(), nil
}

type sqlRenderer struct {
	b   strings.Builder
	err error
}

func (r *sqlRenderer) write(s string) {
	if r.err == nil {
		r.b.WriteString(s)
	}
}

func (r *sqlRenderer) writef(format string, args ...interface{}) {
	if r.err == nil {
		fmt.Fprintf(&r.b, format, args...)
	}
}

func (r *sqlRenderer) fail(format string, args ...interface{}) {
	if r.err == nil {
		r.err = fmt.Errorf(format, args...)
	}
}

func (r *sqlRenderer) statement(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.SelectQuery:
		r.selectQuery(s)
	case *ast.InsertQuery:
		r.insertQuery(s)
	case *ast.UpdateQuery:
		r.updateQuery(s)
	case *ast.DeleteQuery:
		r.deleteQuery(s)
	case *ast.CreateGraphStatement:
		r.createGraph(s)
	case *ast.DropGraphStatement:
		r.write("DROP PROPERTY GRAPH ")
		if s.IfExists {
			r.write("IF EXISTS ")
		}
		r.write(s.Name)
	default:
		r.fail("cannot render %T as SQL", stmt)
	}
}

func (r *sqlRenderer) selectQuery(q *ast.SelectQuery) {
	if q == nil {
		r.fail("nil select query")
		return
	}

	if q.With != nil {
		r.write("WITH ")
		if q.With.Recursive {
			r.write("RECURSIVE ")
		}
		for i, cte := range q.With.CTEs {
			if i > 0 {
				r.write(", ")
			}
			r.write(cte.Name)
			if len(cte.Columns) > 0 {
				r.writef(" (%s)", strings.Join(cte.Columns, ", "))
			}
			r.write(" AS ")
			if cte.Materialized {
				r.write("MATERIALIZED ")
			}
			r.write("(")
			r.selectQuery(cte.Select)
			r.write(")")
		}
		r.write(" ")
	}

	r.write("SELECT ")
	if q.Distinct {
		r.write("DISTINCT ")
	}
	for i, item := range q.Columns {
		if i > 0 {
			r.write(", ")
		}
		r.expr(item.Expr, 0)
		if item.Alias != "" {
			r.writef(" AS %s", item.Alias)
		}
	}

	if q.From != nil {
		r.write(" FROM ")
		r.dataSource(q.From)
	}
	if q.Where != nil {
		r.write(" WHERE ")
		r.expr(q.Where, 0)
	}
	if len(q.GroupBy) > 0 {
		r.write(" GROUP BY ")
		for i, e := range q.GroupBy {
			if i > 0 {
				r.write(", ")
			}
			r.expr(e, 0)
		}
	}
	if q.Having != nil {
		r.write(" HAVING ")
		r.expr(q.Having, 0)
	}
	if len(q.OrderBy) > 0 {
		r.write(" ORDER BY ")
		for i, item := range q.OrderBy {
			if i > 0 {
				r.write(", ")
			}
			r.expr(item.Expr, 0)
			if item.Descending {
				r.write(" DESC")
			}
		}
	}
	if q.Limit != nil {
		if q.Limit.Count != nil {
			r.write(" LIMIT ")
			r.expr(q.Limit.Count, 0)
		}
		if q.Limit.Offset != nil {
			r.write(" OFFSET ")
			r.expr(q.Limit.Offset, 0)
		}
	}

	for _, op := range q.SetOps {
		r.writef(" %s ", op.Operator)
		if op.All {
			r.write("ALL ")
		}
		r.write("(")
		r.selectQuery(op.Select)
		r.write(")")
	}
}

func (r *sqlRenderer) dataSource(src ast.DataSource) {
	switch s := src.(type) {
	case *ast.TableRef:
		r.write(strings.Join(s.Name.Parts, "."))
		if s.Alias != "" {
			r.writef(" AS %s", s.Alias)
		}
	case *ast.SubquerySource:
		r.write("(")
		r.selectQuery(s.Select)
		r.write(")")
		if s.Alias != "" {
			r.writef(" AS %s", s.Alias)
		}
	case *ast.JoinSource:
		r.dataSource(s.Left)
		r.write(" ")
		if s.Natural {
			r.write("NATURAL ")
		}
		switch s.Type {
		case ast.JoinInner:
			r.write("JOIN ")
		case ast.JoinCross:
			r.write("CROSS JOIN ")
		default:
			r.writef("%s JOIN ", s.Type)
		}
		if s.Lateral {
			r.write("LATERAL ")
		}
		r.dataSource(s.Right)
		if s.On != nil {
			r.write(" ON ")
			r.expr(s.On, 0)
		}
		if len(s.Using) > 0 {
			r.writef(" USING (%s)", strings.Join(s.Using, ", "))
		}
	case *ast.GraphTableSource:
		r.graphTable(s)
	default:
		r.fail("cannot render %T as a table source", src)
	}
}

func (r *sqlRenderer) graphTable(s *ast.GraphTableSource) {
	r.writef("GRAPH_TABLE(%s, MATCH ", s.GraphName)
	for i, path := range s.Match.Paths {
		if i > 0 {
			r.write(", ")
		}
		r.pathPattern(path)
	}
	if s.Where != nil {
		r.write(" WHERE ")
		r.expr(s.Where, 0)
	}
	if len(s.Columns) > 0 {
		r.write(" COLUMNS (")
		for i, col := range s.Columns {
			if i > 0 {
				r.write(", ")
			}
			r.expr(col.Expr, 0)
			if col.Alias != "" {
				r.writef(" AS %s", col.Alias)
			}
		}
		r.write(")")
	}
	r.write(")")
	if s.Alias != "" {
		r.writef(" AS %s", s.Alias)
	}
}

func (r *sqlRenderer) pathPattern(p *ast.PathPattern) {
	if p.Variable != "" {
		r.writef("%s = ", p.Variable)
	}
	if p.Mode != "" && p.Mode != ast.ModeWalk {
		r.writef("%s ", p.Mode)
	}
	for _, el := range p.Elements {
		r.pathElement(el)
	}
}

func (r *sqlRenderer) pathElement(el ast.PathElement) {
	switch e := el.(type) {
	case *ast.NodePattern:
		r.write("(")
		r.elementContents(e.Variable, e.Labels, e.Properties, e.Where)
		r.write(")")
	case *ast.EdgePattern:
		r.edgePattern(e)
	case *ast.QuantifiedPathElement:
		r.quantifiedElement(e)
	case *ast.PathAlternation:
		r.alternation(e)
	default:
		r.fail("cannot render %T as a path element", el)
	}
}

func (r *sqlRenderer) edgePattern(e *ast.EdgePattern) {
	bare := e.Variable == "" && len(e.Labels) == 0 && len(e.Properties) == 0 && e.Where == nil
	if bare {
		switch e.Direction {
		case ast.DirectionOutgoing:
			r.write("->")
		case ast.DirectionIncoming:
			r.write("<-")
		case ast.DirectionUndirected:
			r.write("-")
		default:
			// The "any" direction has no bare form.
			r.write("<-[]->")
		}
		return
	}

	switch e.Direction {
	case ast.DirectionOutgoing:
		r.write("-[")
	case ast.DirectionIncoming, ast.DirectionAny:
		r.write("<-[")
	default:
		r.write("-[")
	}
	r.elementContents(e.Variable, e.Labels, e.Properties, e.Where)
	switch e.Direction {
	case ast.DirectionOutgoing, ast.DirectionAny:
		r.write("]->")
	default:
		r.write("]-")
	}
}

func (r *sqlRenderer) elementContents(variable string, labels ast.LabelSet, props []ast.PropertyFilter, where ast.Expr) {
	r.write(variable)
	if len(labels) > 0 {
		r.writef(":%s", strings.Join(labels.Sorted(), "|"))
	}
	if len(props) > 0 {
		if variable != "" || len(labels) > 0 {
			r.write(" ")
		}
		r.write("{")
		for i, pf := range props {
			if i > 0 {
				r.write(", ")
			}
			r.writef("%s: ", pf.Name)
			r.expr(pf.Value, 0)
		}
		r.write("}")
	}
	if where != nil {
		if variable != "" || len(labels) > 0 || len(props) > 0 {
			r.write(" ")
		}
		r.write("WHERE ")
		r.expr(where, 0)
	}
}

func (r *sqlRenderer) quantifiedElement(e *ast.QuantifiedPathElement) {
	if len(e.Inner.Elements) == 1 {
		if edge, ok := e.Inner.Elements[0].(*ast.EdgePattern); ok {
			r.edgePattern(edge)
			r.quantifier(e.Quantifier)
			return
		}
		if alt, ok := e.Inner.Elements[0].(*ast.PathAlternation); ok {
			r.alternation(alt)
			r.quantifier(e.Quantifier)
			return
		}
	}
	r.write("(")
	r.pathPattern(e.Inner)
	r.write(")")
	r.quantifier(e.Quantifier)
}

func (r *sqlRenderer) alternation(a *ast.PathAlternation) {
	r.write("(")
	for i, branch := range a.Branches {
		if i > 0 {
			r.write(" | ")
		}
		r.pathPattern(branch)
	}
	r.write(")")
}

func (r *sqlRenderer) quantifier(q ast.PathQuantifier) {
	switch q.Kind {
	case ast.QuantExactly:
		r.writef("{%d}", q.Min)
	case ast.QuantRange:
		r.writef("{%d,%d}", q.Min, q.Max)
	case ast.QuantOneOrMore:
		r.write("+")
	case ast.QuantZeroOrMore:
		r.write("*")
	}
}

func (r *sqlRenderer) insertQuery(q *ast.InsertQuery) {
	r.writef("INSERT INTO %s", strings.Join(q.Table.Name.Parts, "."))
	if len(q.Columns) > 0 {
		r.writef(" (%s)", strings.Join(q.Columns, ", "))
	}
	if q.Select != nil {
		r.write(" ")
		r.selectQuery(q.Select)
		return
	}
	r.write(" VALUES ")
	for i, row := range q.Rows {
		if i > 0 {
			r.write(", ")
		}
		r.write("(")
		for j, v := range row {
			if j > 0 {
				r.write(", ")
			}
			r.expr(v, 0)
		}
		r.write(")")
	}
}

func (r *sqlRenderer) updateQuery(q *ast.UpdateQuery) {
	r.writef("UPDATE %s", strings.Join(q.Table.Name.Parts, "."))
	if q.Table.Alias != "" {
		r.writef(" AS %s", q.Table.Alias)
	}
	r.write(" SET ")
	for i, a := range q.Assignments {
		if i > 0 {
			r.write(", ")
		}
		r.writef("%s = ", strings.Join(a.Column.Parts, "."))
		r.expr(a.Value, 0)
	}
	if q.Where != nil {
		r.write(" WHERE ")
		r.expr(q.Where, 0)
	}
}

func (r *sqlRenderer) deleteQuery(q *ast.DeleteQuery) {
	r.writef("DELETE FROM %s", strings.Join(q.Table.Name.Parts, "."))
	if q.Table.Alias != "" {
		r.writef(" AS %s", q.Table.Alias)
	}
	if q.Where != nil {
		r.write(" WHERE ")
		r.expr(q.Where, 0)
	}
}

func (r *sqlRenderer) createGraph(s *ast.CreateGraphStatement) {
	r.write("CREATE PROPERTY GRAPH ")
	if s.IfNotExists {
		r.write("IF NOT EXISTS ")
	}
	r.write(s.Name)
	r.write(" VERTEX TABLES (")
	for i := range s.VertexTables {
		if i > 0 {
			r.write(", ")
		}
		v := &s.VertexTables[i]
		r.write(v.TableName)
		if v.Alias != "" {
			r.writef(" AS %s", v.Alias)
		}
		if len(v.KeyColumns) > 0 {
			r.writef(" KEY (%s)", strings.Join(v.KeyColumns, ", "))
		}
		r.labelAndProperties(v.Label, v.Properties)
	}
	r.write(")")
	if len(s.EdgeTables) > 0 {
		r.write(" EDGE TABLES (")
		for i := range s.EdgeTables {
			if i > 0 {
				r.write(", ")
			}
			e := &s.EdgeTables[i]
			r.write(e.TableName)
			if e.Alias != "" {
				r.writef(" AS %s", e.Alias)
			}
			if len(e.KeyColumns) > 0 {
				r.writef(" KEY (%s)", strings.Join(e.KeyColumns, ", "))
			}
			r.vertexReference("SOURCE", e.Source)
			r.vertexReference("DESTINATION", e.Destination)
			r.labelAndProperties(e.Label, e.Properties)
		}
		r.write(")")
	}
}

func (r *sqlRenderer) vertexReference(role string, ref ast.VertexReference) {
	if ref.TableName == "" {
		return
	}
	if len(ref.Keys) == 0 {
		r.writef(" %s %s", role, ref.TableName)
		return
	}
	sources := make([]string, len(ref.Keys))
	targets := make([]string, len(ref.Keys))
	for i, k := range ref.Keys {
		sources[i] = k.Source
		targets[i] = k.Target
	}
	r.writef(" %s KEY (%s) REFERENCES %s (%s)",
		role, strings.Join(sources, ", "), ref.TableName, strings.Join(targets, ", "))
}

func (r *sqlRenderer) labelAndProperties(label *ast.LabelExpression, props ast.PropertiesSpec) {
	if label != nil && len(label.Names) > 0 {
		r.writef(" LABEL %s", strings.Join(label.Names, " | "))
	}
	switch props.Kind {
	case ast.PropertiesAllColumns:
		r.write(" PROPERTIES ALL COLUMNS")
	case ast.PropertiesAllExcept:
		r.writef(" PROPERTIES ALL COLUMNS EXCEPT (%s)", strings.Join(props.Except, ", "))
	case ast.PropertiesList:
		r.writef(" PROPERTIES (%s)", strings.Join(props.Columns, ", "))
	case ast.PropertiesNone:
		r.write(" NO PROPERTIES")
	}
}

// Operator precedence levels for parenthesization, mirroring the parser.
func sqlOperatorPrecedence(op string) int {
	switch op {
	case "OR":
		return 1
	case "AND":
		return 2
	case "=", "!=", "<>", "<", "<=", ">", ">=", "NOT":
		return 3
	case "+", "-":
		return 4
	case "*", "/", "%":
		return 5
	default:
		return 3
	}
}

// expr renders an expression, parenthesizing when its precedence is below
// the surrounding context.
func (r *sqlRenderer) expr(e ast.Expr, parent int) {
	switch n := e.(type) {
	case *ast.Identifier:
		r.write(strings.Join(n.Parts, "."))
	case *ast.VarRef:
		r.write(n.Name)
	case *ast.LiteralExpr:
		r.sqlLiteral(n.Value)
	case *ast.StarExpr:
		if n.Table != nil {
			r.writef("%s.*", strings.Join(n.Table.Parts, "."))
		} else {
			r.write("*")
		}
	case *ast.BinaryExpr:
		prec := sqlOperatorPrecedence(n.Operator)
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
		if n.Operator == "NOT" {
			r.write("NOT ")
		} else {
			r.write(n.Operator)
		}
		r.expr(n.Expr, 6)
	case *ast.FuncCall:
		r.writef("%s(", strings.Join(n.Name.Parts, "."))
		for i, a := range n.Args {
			if i > 0 {
				r.write(", ")
			}
			r.expr(a, 0)
		}
		r.write(")")
	case *ast.AggregateExpr:
		r.aggregate(n)
	case *ast.CaseExpr:
		r.write("CASE")
		if n.Operand != nil {
			r.write(" ")
			r.expr(n.Operand, 0)
		}
		for _, w := range n.Whens {
			r.write(" WHEN ")
			r.expr(w.Condition, 0)
			r.write(" THEN ")
			r.expr(w.Result, 0)
		}
		if n.Else != nil {
			r.write(" ELSE ")
			r.expr(n.Else, 0)
		}
		r.write(" END")
	case *ast.InExpr:
		r.expr(n.Expr, 4)
		if n.Not {
			r.write(" NOT")
		}
		r.write(" IN (")
		if n.Subquery != nil {
			r.selectQuery(n.Subquery)
		} else {
			for i, v := range n.List {
				if i > 0 {
					r.write(", ")
				}
				r.expr(v, 0)
			}
		}
		r.write(")")
	case *ast.ExistsExpr:
		if n.Not {
			r.write("NOT ")
		}
		r.write("EXISTS (")
		r.selectQuery(n.Subquery)
		r.write(")")
	case *ast.BetweenExpr:
		r.expr(n.Expr, 4)
		if n.Not {
			r.write(" NOT")
		}
		r.write(" BETWEEN ")
		r.expr(n.Lower, 4)
		r.write(" AND ")
		r.expr(n.Upper, 4)
	case *ast.LikeExpr:
		r.expr(n.Expr, 4)
		if n.Not {
			r.write(" NOT")
		}
		r.write(" LIKE ")
		r.expr(n.Pattern, 4)
	case *ast.IsNullExpr:
		r.expr(n.Expr, 4)
		if n.Not {
			r.write(" IS NOT NULL")
		} else {
			r.write(" IS NULL")
		}
	case *ast.SubqueryExpr:
		r.write("(")
		r.selectQuery(n.Select)
		r.write(")")
	default:
		r.fail("cannot render %T as a SQL expression", e)
	}
}

func (r *sqlRenderer) aggregate(n *ast.AggregateExpr) {
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
		r.writef(", %s", sqlQuote(n.Separator))
	}
	r.write(")")
}

func (r *sqlRenderer) sqlLiteral(lit ast.Literal) {
	switch lit.Kind {
	case ast.LitNull:
		r.write("NULL")
	case ast.LitInt:
		r.write(strconv.FormatInt(lit.Int, 10))
	case ast.LitDouble:
		r.write(strconv.FormatFloat(lit.Double, 'g', -1, 64))
	case ast.LitBool:
		if lit.Bool {
			r.write("TRUE")
		} else {
			r.write("FALSE")
		}
	case ast.LitString:
		r.write(sqlQuote(lit.Str))
	default:
		// Language-tagged and typed literals have no SQL surface form;
		// fall back to the plain string body.
		r.write(sqlQuote(lit.Str))
	}
}

func sqlQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

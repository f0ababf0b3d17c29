package ast

// Expr models expressions from both surface syntaxes. Consumers dispatch with
// exhaustive type switches; the set of implementations is closed.
type Expr interface {
	exprNode()
}

// Identifier models possibly qualified SQL identifiers (a.b.c).
type Identifier struct {
	Parts []string
}

func (*Identifier) exprNode() {}

// VarRef references a SPARQL variable inside an expression.
type VarRef struct {
	Name string
}

func (*VarRef) exprNode() {}

// LiteralExpr wraps a Literal used in expression position.
type LiteralExpr struct {
	Value Literal
}

func (*LiteralExpr) exprNode() {}

// TermExpr wraps a non-variable RDF term (IRI, prefixed name, quoted triple)
// used in expression position.
type TermExpr struct {
	Term Term
}

func (*TermExpr) exprNode() {}

// StarExpr denotes the wildcard selector, optionally table-qualified.
type StarExpr struct {
	Table *Identifier
}

func (*StarExpr) exprNode() {}

// BinaryExpr models binary operations like a+b, a AND b, ?x && ?y. The
// operator is stored in canonical upper-case / symbolic form.
type BinaryExpr struct {
	Left     Expr
	Operator string
	Right    Expr
}

func (*BinaryExpr) exprNode() {}

// UnaryExpr models prefix operators ("-", "!", "NOT"). Unary plus never
// appears here: the parsers reduce +x to x itself, while -x and !x always
// wrap, so !!x nests rather than cancels.
type UnaryExpr struct {
	Operator string
	Expr     Expr
}

func (*UnaryExpr) exprNode() {}

// FuncCall models function invocations, both recognized built-ins (stored
// with canonical upper-case names) and arbitrary unrecognized functions. The
// argument list is preserved in order and in full.
type FuncCall struct {
	Name Identifier
	Args []Expr
}

func (*FuncCall) exprNode() {}

// AggregateFunc enumerates aggregate call forms.
type AggregateFunc string

const (
	AggCount       AggregateFunc = "COUNT"
	AggSum         AggregateFunc = "SUM"
	AggAvg         AggregateFunc = "AVG"
	AggMin         AggregateFunc = "MIN"
	AggMax         AggregateFunc = "MAX"
	AggGroupConcat AggregateFunc = "GROUP_CONCAT"
	AggSample      AggregateFunc = "SAMPLE"
)

// AggregateExpr models aggregate calls. Star marks COUNT(*); Separator is the
// GROUP_CONCAT separator ("" when unspecified).
type AggregateExpr struct {
	Func      AggregateFunc
	Distinct  bool
	Star      bool
	Arg       Expr
	Separator string
}

func (*AggregateExpr) exprNode() {}

// CaseExpr represents CASE constructs, with an optional operand for the
// simple form.
type CaseExpr struct {
	Operand Expr
	Whens   []WhenClause
	Else    Expr
}

func (*CaseExpr) exprNode() {}

// WhenClause holds one CASE branch.
type WhenClause struct {
	Condition Expr
	Result    Expr
}

// InExpr models IN and NOT IN over a value list or a subquery.
type InExpr struct {
	Expr     Expr
	Not      bool
	List     []Expr
	Subquery *SelectQuery
}

func (*InExpr) exprNode() {}

// ExistsExpr models EXISTS/NOT EXISTS. Exactly one of Subquery (SQL) or
// Pattern (SPARQL) is set.
type ExistsExpr struct {
	Not      bool
	Subquery *SelectQuery
	Pattern  GraphPattern
}

func (*ExistsExpr) exprNode() {}

// BetweenExpr models x [NOT] BETWEEN lower AND upper.
type BetweenExpr struct {
	Expr  Expr
	Not   bool
	Lower Expr
	Upper Expr
}

func (*BetweenExpr) exprNode() {}

// LikeExpr models x [NOT] LIKE pattern.
type LikeExpr struct {
	Expr    Expr
	Not     bool
	Pattern Expr
}

func (*LikeExpr) exprNode() {}

// IsNullExpr models x IS [NOT] NULL.
type IsNullExpr struct {
	Expr Expr
	Not  bool
}

func (*IsNullExpr) exprNode() {}

// SubqueryExpr wraps a scalar subquery.
type SubqueryExpr struct {
	Select *SelectQuery
}

func (*SubqueryExpr) exprNode() {}

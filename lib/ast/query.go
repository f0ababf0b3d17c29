package ast

// Statement is the root type for parsed statements in either dialect. The
// classification predicates are derived, mutually exclusive properties.
type Statement interface {
	statementNode()
	IsReadOnly() bool
	IsModification() bool
	IsSchemaDefinition() bool
}

// Classification markers. Each statement embeds exactly one.
type readOnly struct{}

func (readOnly) statementNode()           {}
func (readOnly) IsReadOnly() bool         { return true }
func (readOnly) IsModification() bool     { return false }
func (readOnly) IsSchemaDefinition() bool { return false }

type modification struct{}

func (modification) statementNode()           {}
func (modification) IsReadOnly() bool         { return false }
func (modification) IsModification() bool     { return true }
func (modification) IsSchemaDefinition() bool { return false }

type schemaDefinition struct{}

func (schemaDefinition) statementNode()           {}
func (schemaDefinition) IsReadOnly() bool         { return false }
func (schemaDefinition) IsModification() bool     { return false }
func (schemaDefinition) IsSchemaDefinition() bool { return true }

// DataSource represents selectable FROM-clause sources.
type DataSource interface {
	dataSourceNode()
}

// TableRef is a named table with an optional alias.
type TableRef struct {
	Name  *Identifier
	Alias string
}

// SubquerySource wraps a subquery used as a table expression.
type SubquerySource struct {
	Select *SelectQuery
	Alias  string
}

// JoinType enumerates ANSI join types.
type JoinType string

const (
	JoinInner JoinType = "INNER"
	JoinLeft  JoinType = "LEFT"
	JoinRight JoinType = "RIGHT"
	JoinFull  JoinType = "FULL"
	JoinCross JoinType = "CROSS"
)

// JoinSource represents a JOIN between two sources. Natural and Lateral
// modify the join form; On and Using are mutually exclusive condition forms
// and both may be absent.
type JoinSource struct {
	Left    DataSource
	Right   DataSource
	Type    JoinType
	Natural bool
	Lateral bool
	On      Expr
	Using   []string
}

// GraphTableSource is a FROM GRAPH_TABLE(...) table source: the point where
// the SQL dialect funnels into the shared graph-pattern grammar.
type GraphTableSource struct {
	GraphName string
	Match     *MatchPattern
	Where     Expr
	Columns   []SelectItem
	Alias     string
}

func (*TableRef) dataSourceNode()         {}
func (*SubquerySource) dataSourceNode()   {}
func (*JoinSource) dataSourceNode()       {}
func (*GraphTableSource) dataSourceNode() {}

// SelectItem is one projection entry.
type SelectItem struct {
	Expr  Expr
	Alias string
}

// OrderItem is one ORDER BY term.
type OrderItem struct {
	Expr       Expr
	Descending bool
}

// LimitClause captures LIMIT/OFFSET values; either may be nil.
type LimitClause struct {
	Count  Expr
	Offset Expr
}

// WithClause stores common table expressions.
type WithClause struct {
	Recursive bool
	CTEs      []CommonTableExpression
}

// CommonTableExpression is one named subquery, with an optional explicit
// column list and materialization hint.
type CommonTableExpression struct {
	Name         string
	Columns      []string
	Materialized bool
	Select       *SelectQuery
}

// SetOperator describes set combination types.
type SetOperator string

const (
	SetOpUnion     SetOperator = "UNION"
	SetOpIntersect SetOperator = "INTERSECT"
	SetOpExcept    SetOperator = "EXCEPT"
)

// SetOperation combines the current SELECT with another.
type SetOperation struct {
	Operator SetOperator
	All      bool
	Select   *SelectQuery
}

// PrefixDecl is one SPARQL PREFIX declaration, in declaration order.
type PrefixDecl struct {
	Prefix string
	IRI    string
}

// DatasetClause is one FROM / FROM NAMED dataset IRI. Clauses accumulate in
// order without deduplication.
type DatasetClause struct {
	IRI   string
	Named bool
}

// Prologue carries the SPARQL query header shared by all query forms. Base
// holds the final resolved base IRI (relative references are resolved during
// parsing, last BASE wins).
type Prologue struct {
	Base     string
	Version  string
	Prefixes []PrefixDecl
}

// SelectQuery is the shared SELECT form. SQL populates From/Where; SPARQL
// populates Pattern plus the prologue and dataset clauses. The solution
// modifiers are common to both.
type SelectQuery struct {
	readOnly
	Prologue Prologue
	Datasets []DatasetClause

	With     *WithClause
	Distinct bool
	Reduced  bool
	Columns  []SelectItem

	From    DataSource   // SQL
	Where   Expr         // SQL
	Pattern GraphPattern // SPARQL

	GroupBy []Expr
	Having  Expr
	OrderBy []OrderItem
	Limit   *LimitClause
	SetOps  []SetOperation
	Values  *ValuesPattern // trailing SPARQL VALUES clause
}

// ProjectedVariables returns the variable names the query projects, in
// projection order. A star projection exposes every pattern variable.
func (q *SelectQuery) ProjectedVariables() []string {
	var out []string
	star := len(q.Columns) == 0
	for _, item := range q.Columns {
		switch e := item.Expr.(type) {
		case *StarExpr:
			star = true
		case *VarRef:
			out = append(out, e.Name)
		default:
			if item.Alias != "" {
				out = append(out, item.Alias)
			}
		}
	}
	if star && q.Pattern != nil {
		return Variables(q.Pattern)
	}
	return out
}

// InsertQuery models SQL INSERT.
type InsertQuery struct {
	modification
	Table   *TableRef
	Columns []string
	Rows    [][]Expr
	Select  *SelectQuery
}

// UpdateQuery models SQL UPDATE.
type UpdateQuery struct {
	modification
	Table       *TableRef
	Assignments []Assignment
	Where       Expr
}

// Assignment is one column = expr pair in UPDATE SET.
type Assignment struct {
	Column *Identifier
	Value  Expr
}

// DeleteQuery models SQL DELETE.
type DeleteQuery struct {
	modification
	Table *TableRef
	Where Expr
}

// DropGraphStatement models DROP PROPERTY GRAPH.
type DropGraphStatement struct {
	schemaDefinition
	IfExists bool
	Name     string
}

// AskQuery is the SPARQL ASK form.
type AskQuery struct {
	readOnly
	Prologue Prologue
	Datasets []DatasetClause
	Pattern  GraphPattern
}

// ConstructQuery is the SPARQL CONSTRUCT form.
type ConstructQuery struct {
	readOnly
	Prologue Prologue
	Datasets []DatasetClause
	Template []TriplePattern
	Pattern  GraphPattern
	OrderBy  []OrderItem
	Limit    *LimitClause
}

// DescribeQuery is the SPARQL DESCRIBE form. Star describes every pattern
// variable; otherwise Terms lists the described IRIs/variables.
type DescribeQuery struct {
	readOnly
	Prologue Prologue
	Datasets []DatasetClause
	Star     bool
	Terms    []Term
	Pattern  GraphPattern
}

// InsertDataStatement is INSERT DATA { quads }.
type InsertDataStatement struct {
	modification
	Prologue Prologue
	Quads    []Quad
}

// DeleteDataStatement is DELETE DATA { quads }.
type DeleteDataStatement struct {
	modification
	Prologue Prologue
	Quads    []Quad
}

// DeleteInsertStatement is DELETE {...} [INSERT {...}] WHERE {...}. Either
// template (but not both) may be empty.
type DeleteInsertStatement struct {
	modification
	Prologue       Prologue
	DeleteTemplate []Quad
	InsertTemplate []Quad
	Where          GraphPattern
}

// LoadStatement is LOAD [SILENT] <source> [INTO GRAPH <graph>].
type LoadStatement struct {
	modification
	Prologue Prologue
	Silent   bool
	Source   string
	Into     string
}

// GraphTargetKind discriminates graph management targets.
type GraphTargetKind int

const (
	TargetDefault GraphTargetKind = iota
	TargetNamed
	TargetAll
	TargetGraph
)

// GraphTarget is the DEFAULT | NAMED | ALL | GRAPH <iri> operand of graph
// management statements.
type GraphTarget struct {
	Kind GraphTargetKind
	IRI  string
}

// ClearStatement is CLEAR [SILENT] target.
type ClearStatement struct {
	modification
	Prologue Prologue
	Silent   bool
	Target   GraphTarget
}

// CreateSPARQLGraphStatement is SPARQL CREATE [SILENT] GRAPH <iri>.
type CreateSPARQLGraphStatement struct {
	schemaDefinition
	Prologue Prologue
	Silent   bool
	Graph    string
}

// DropSPARQLGraphStatement is SPARQL DROP [SILENT] target.
type DropSPARQLGraphStatement struct {
	schemaDefinition
	Prologue Prologue
	Silent   bool
	Target   GraphTarget
}

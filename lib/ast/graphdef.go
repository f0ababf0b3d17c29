package ast

// PropertiesKind discriminates PropertiesSpec.
type PropertiesKind int

const (
	PropertiesAllColumns PropertiesKind = iota
	PropertiesAllExcept
	PropertiesList
	PropertiesNone
)

// PropertiesSpec selects which table columns become graph element properties.
type PropertiesSpec struct {
	Kind    PropertiesKind
	Except  []string // PropertiesAllExcept
	Columns []string // PropertiesList
}

// LabelExpression names the labels attached to a vertex or edge table.
type LabelExpression struct {
	Names []string
}

// KeyColumnMapping maps one edge-table column to a vertex-table key column.
type KeyColumnMapping struct {
	Source string
	Target string
}

// VertexReference is the SOURCE/DESTINATION side of an edge table: a
// foreign-key mapping to a named vertex table.
type VertexReference struct {
	TableName string
	Keys      []KeyColumnMapping
}

// VertexTableDefinition declares one vertex table of a property graph.
type VertexTableDefinition struct {
	TableName  string
	Alias      string
	KeyColumns []string
	Label      *LabelExpression
	Properties PropertiesSpec
}

// Identity returns the name the table is referenced by: the alias when
// present, the table name otherwise.
func (v *VertexTableDefinition) Identity() string {
	if v.Alias != "" {
		return v.Alias
	}
	return v.TableName
}

// EdgeTableDefinition declares one edge table of a property graph.
type EdgeTableDefinition struct {
	TableName   string
	Alias       string
	KeyColumns  []string
	Label       *LabelExpression
	Properties  PropertiesSpec
	Source      VertexReference
	Destination VertexReference
}

// Identity returns the name the table is referenced by.
func (e *EdgeTableDefinition) Identity() string {
	if e.Alias != "" {
		return e.Alias
	}
	return e.TableName
}

// CreateGraphStatement is a parsed CREATE PROPERTY GRAPH statement.
// Constructed by the SQL parser or by GraphBuilder, consumed once by
// Validate, otherwise immutable.
type CreateGraphStatement struct {
	schemaDefinition
	IfNotExists  bool
	Name         string
	VertexTables []VertexTableDefinition
	EdgeTables   []EdgeTableDefinition
}

// GraphBuilder assembles a CreateGraphStatement fluently, as an alternative
// construction path to the SQL parser.
type GraphBuilder struct {
	stmt CreateGraphStatement
}

// NewGraphBuilder starts a builder for the named graph.
func NewGraphBuilder(name string) *GraphBuilder {
	return &GraphBuilder{stmt: CreateGraphStatement{Name: name}}
}

// IfNotExists marks the statement as conditional.
func (b *GraphBuilder) IfNotExists() *GraphBuilder {
	b.stmt.IfNotExists = true
	return b
}

// VertexBuilder configures one vertex table.
type VertexBuilder struct {
	parent *GraphBuilder
	def    VertexTableDefinition
}

// Vertex starts a vertex table definition.
func (b *GraphBuilder) Vertex(tableName string) *VertexBuilder {
	return &VertexBuilder{parent: b, def: VertexTableDefinition{TableName: tableName, Properties: PropertiesSpec{Kind: PropertiesAllColumns}}}
}

func (v *VertexBuilder) As(alias string) *VertexBuilder {
	v.def.Alias = alias
	return v
}

func (v *VertexBuilder) Key(columns ...string) *VertexBuilder {
	v.def.KeyColumns = append(v.def.KeyColumns, columns...)
	return v
}

func (v *VertexBuilder) Label(names ...string) *VertexBuilder {
	v.def.Label = &LabelExpression{Names: names}
	return v
}

func (v *VertexBuilder) Properties(spec PropertiesSpec) *VertexBuilder {
	v.def.Properties = spec
	return v
}

// Done appends the vertex definition and returns to the graph builder.
func (v *VertexBuilder) Done() *GraphBuilder {
	v.parent.stmt.VertexTables = append(v.parent.stmt.VertexTables, v.def)
	return v.parent
}

// EdgeBuilder configures one edge table.
type EdgeBuilder struct {
	parent *GraphBuilder
	def    EdgeTableDefinition
}

// Edge starts an edge table definition.
func (b *GraphBuilder) Edge(tableName string) *EdgeBuilder {
	return &EdgeBuilder{parent: b, def: EdgeTableDefinition{TableName: tableName, Properties: PropertiesSpec{Kind: PropertiesAllColumns}}}
}

func (e *EdgeBuilder) As(alias string) *EdgeBuilder {
	e.def.Alias = alias
	return e
}

func (e *EdgeBuilder) Key(columns ...string) *EdgeBuilder {
	e.def.KeyColumns = append(e.def.KeyColumns, columns...)
	return e
}

func (e *EdgeBuilder) Label(names ...string) *EdgeBuilder {
	e.def.Label = &LabelExpression{Names: names}
	return e
}

func (e *EdgeBuilder) Properties(spec PropertiesSpec) *EdgeBuilder {
	e.def.Properties = spec
	return e
}

// Source sets the source vertex reference.
func (e *EdgeBuilder) Source(table string, keys ...KeyColumnMapping) *EdgeBuilder {
	e.def.Source = VertexReference{TableName: table, Keys: keys}
	return e
}

// Destination sets the destination vertex reference.
func (e *EdgeBuilder) Destination(table string, keys ...KeyColumnMapping) *EdgeBuilder {
	e.def.Destination = VertexReference{TableName: table, Keys: keys}
	return e
}

// Done appends the edge definition and returns to the graph builder.
func (e *EdgeBuilder) Done() *GraphBuilder {
	e.parent.stmt.EdgeTables = append(e.parent.stmt.EdgeTables, e.def)
	return e.parent
}

// Build returns the assembled statement.
func (b *GraphBuilder) Build() *CreateGraphStatement {
	stmt := b.stmt
	return &stmt
}

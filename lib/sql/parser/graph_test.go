package parser_test

import (
	"strings"
	"testing"

	"github.com/graphshape/graphshape/lib/ast"
)

func parseGraphTable(t *testing.T, sql string) *ast.GraphTableSource {
	t.Helper()
	stmt := mustParse(t, sql)
	selectStmt, ok := stmt.(*ast.SelectQuery)
	if !ok {
		t.Fatalf("expected SelectQuery, got %T", stmt)
	}
	src, ok := selectStmt.From.(*ast.GraphTableSource)
	if !ok {
		t.Fatalf("expected GraphTableSource, got %T", selectStmt.From)
	}
	return src
}

func singleEdge(t *testing.T, path *ast.PathPattern) *ast.EdgePattern {
	t.Helper()
	if len(path.Elements) != 3 {
		t.Fatalf("expected node-edge-node, got %d elements", len(path.Elements))
	}
	edge, ok := path.Elements[1].(*ast.EdgePattern)
	if !ok {
		t.Fatalf("expected edge pattern, got %T", path.Elements[1])
	}
	return edge
}

func TestParseGraphTableSource(t *testing.T) {
	sql := `SELECT gt.friend FROM GRAPH_TABLE(social, MATCH (a:Person)-[e:knows]->(b:Person) WHERE a.age > 21 COLUMNS (b.name AS friend)) AS gt`
	src := parseGraphTable(t, sql)

	if src.GraphName != "social" || src.Alias != "gt" {
		t.Fatalf("unexpected graph table %+v", src)
	}
	if src.Where == nil {
		t.Fatalf("expected WHERE clause inside GRAPH_TABLE")
	}
	if len(src.Columns) != 1 || src.Columns[0].Alias != "friend" {
		t.Fatalf("unexpected COLUMNS %+v", src.Columns)
	}
	if len(src.Match.Paths) != 1 {
		t.Fatalf("expected one path, got %d", len(src.Match.Paths))
	}

	path := src.Match.Paths[0]
	node := path.Elements[0].(*ast.NodePattern)
	if node.Variable != "a" || !node.Labels.Has("Person") {
		t.Fatalf("unexpected first node %+v", node)
	}
	edge := singleEdge(t, path)
	if edge.Variable != "e" || !edge.Labels.Has("knows") || edge.Direction != ast.DirectionOutgoing {
		t.Fatalf("unexpected edge %+v", edge)
	}

	rendered := mustRender(t, mustParse(t, sql))
	expected := "SELECT gt.friend FROM GRAPH_TABLE(social, MATCH (a:Person)-[e:knows]->(b:Person) WHERE a.age > 21 COLUMNS (b.name AS friend)) AS gt"
	if rendered != expected {
		t.Fatalf("render mismatch:\nexpected: %s\n   actual: %s", expected, rendered)
	}
}

func TestParseEdgeDirections(t *testing.T) {
	cases := []struct {
		pattern   string
		direction ast.EdgeDirection
	}{
		{`(a)-[e]->(b)`, ast.DirectionOutgoing},
		{`(a)<-[e]-(b)`, ast.DirectionIncoming},
		{`(a)<-[e]->(b)`, ast.DirectionAny},
		{`(a)<[e]-(b)`, ast.DirectionIncoming},
		{`(a)<[e]->(b)`, ast.DirectionAny},
		{`(a)-[e]-(b)`, ast.DirectionUndirected},
	}
	for _, tc := range cases {
		src := parseGraphTable(t, `SELECT 1 FROM GRAPH_TABLE(g, MATCH `+tc.pattern+`)`)
		edge := singleEdge(t, src.Match.Paths[0])
		if edge.Direction != tc.direction {
			t.Fatalf("%s: expected direction %s, got %s", tc.pattern, tc.direction, edge.Direction)
		}
	}
}

func TestParseBareEdges(t *testing.T) {
	cases := []struct {
		pattern   string
		direction ast.EdgeDirection
	}{
		{`(a)->(b)`, ast.DirectionOutgoing},
		{`(a)<-(b)`, ast.DirectionIncoming},
		{`(a)-(b)`, ast.DirectionUndirected},
	}
	for _, tc := range cases {
		src := parseGraphTable(t, `SELECT 1 FROM GRAPH_TABLE(g, MATCH `+tc.pattern+`)`)
		edge := singleEdge(t, src.Match.Paths[0])
		if edge.Direction != tc.direction {
			t.Fatalf("%s: expected direction %s, got %s", tc.pattern, tc.direction, edge.Direction)
		}
		if edge.Variable != "" || len(edge.Labels) != 0 {
			t.Fatalf("%s: bare edge must carry no decorations, got %+v", tc.pattern, edge)
		}
	}
}

func TestParseFullArrowBeforeBracketRejected(t *testing.T) {
	errs := parseErrors(t, `SELECT 1 FROM GRAPH_TABLE(g, MATCH (a)->[e]->(b))`)
	if len(errs) == 0 {
		t.Fatalf("expected error for ->[e]")
	}
	if !strings.Contains(errs[0].Error(), "full arrow before '['") {
		t.Fatalf("unexpected error: %v", errs[0])
	}

	errs = parseErrors(t, `SELECT 1 FROM GRAPH_TABLE(g, MATCH (a)<(b))`)
	if len(errs) == 0 {
		t.Fatalf("expected error for bare '<'")
	}
	if !strings.Contains(errs[0].Error(), "'<' must be followed by '['") {
		t.Fatalf("unexpected error: %v", errs[0])
	}
}

func TestParsePathModesAndBinding(t *testing.T) {
	src := parseGraphTable(t, `SELECT 1 FROM GRAPH_TABLE(g, MATCH p = ANY SHORTEST (a)-[e]->(b), TRAIL (c)-[f]->(d))`)
	if len(src.Match.Paths) != 2 {
		t.Fatalf("expected two paths, got %d", len(src.Match.Paths))
	}
	first := src.Match.Paths[0]
	if first.Variable != "p" || first.Mode != ast.ModeAnyShortest {
		t.Fatalf("unexpected first path %+v", first)
	}
	second := src.Match.Paths[1]
	if second.Variable != "" || second.Mode != ast.ModeTrail {
		t.Fatalf("unexpected second path %+v", second)
	}
}

func TestParseQuantifiedEdge(t *testing.T) {
	src := parseGraphTable(t, `SELECT 1 FROM GRAPH_TABLE(g, MATCH (a)-[e:knows]->{1,3}(b))`)
	path := src.Match.Paths[0]
	if len(path.Elements) != 3 {
		t.Fatalf("expected 3 elements, got %d", len(path.Elements))
	}
	quant, ok := path.Elements[1].(*ast.QuantifiedPathElement)
	if !ok {
		t.Fatalf("expected quantified element, got %T", path.Elements[1])
	}
	if quant.Quantifier.Kind != ast.QuantRange || quant.Quantifier.Min != 1 || quant.Quantifier.Max != 3 {
		t.Fatalf("unexpected quantifier %+v", quant.Quantifier)
	}
	if len(quant.Inner.Elements) != 1 {
		t.Fatalf("expected single-edge inner path, got %d elements", len(quant.Inner.Elements))
	}
	if _, ok := quant.Inner.Elements[0].(*ast.EdgePattern); !ok {
		t.Fatalf("expected inner edge, got %T", quant.Inner.Elements[0])
	}
}

func TestParseQuantifierForms(t *testing.T) {
	cases := []struct {
		pattern string
		kind    ast.QuantifierKind
	}{
		{`(a)-[e]->+(b)`, ast.QuantOneOrMore},
		{`(a)-[e]->*(b)`, ast.QuantZeroOrMore},
		{`(a)-[e]->{2}(b)`, ast.QuantExactly},
	}
	for _, tc := range cases {
		src := parseGraphTable(t, `SELECT 1 FROM GRAPH_TABLE(g, MATCH `+tc.pattern+`)`)
		quant, ok := src.Match.Paths[0].Elements[1].(*ast.QuantifiedPathElement)
		if !ok {
			t.Fatalf("%s: expected quantified element", tc.pattern)
		}
		if quant.Quantifier.Kind != tc.kind {
			t.Fatalf("%s: expected kind %d, got %d", tc.pattern, tc.kind, quant.Quantifier.Kind)
		}
	}
}

func TestParseQuantifierBoundOrder(t *testing.T) {
	errs := parseErrors(t, `SELECT 1 FROM GRAPH_TABLE(g, MATCH (a)-[e]->{3,1}(b))`)
	if len(errs) == 0 {
		t.Fatalf("expected error for inverted bounds")
	}
	if !strings.Contains(errs[0].Error(), "below lower bound") {
		t.Fatalf("unexpected error: %v", errs[0])
	}
}

func TestParseGroupSplicing(t *testing.T) {
	// An un-quantified single-branch group contributes its elements directly.
	src := parseGraphTable(t, `SELECT 1 FROM GRAPH_TABLE(g, MATCH (a)((-[e]->(m)-[f]->(b))))`)
	path := src.Match.Paths[0]
	if len(path.Elements) != 5 {
		t.Fatalf("expected spliced node-edge-node-edge-node, got %d elements", len(path.Elements))
	}
	for i, el := range path.Elements {
		_, isNode := el.(*ast.NodePattern)
		if (i%2 == 0) != isNode {
			t.Fatalf("element %d has wrong kind %T", i, el)
		}
	}
}

func TestParsePathAlternation(t *testing.T) {
	src := parseGraphTable(t, `SELECT 1 FROM GRAPH_TABLE(g, MATCH (a)(-[e:knows]-> | -[f:likes]->){1,2}(b))`)
	path := src.Match.Paths[0]
	quant, ok := path.Elements[1].(*ast.QuantifiedPathElement)
	if !ok {
		t.Fatalf("expected quantified alternation, got %T", path.Elements[1])
	}
	alt, ok := quant.Inner.Elements[0].(*ast.PathAlternation)
	if !ok {
		t.Fatalf("expected alternation inside quantifier, got %T", quant.Inner.Elements[0])
	}
	if len(alt.Branches) != 2 {
		t.Fatalf("expected two branches, got %d", len(alt.Branches))
	}
}

func TestParseNodeProperties(t *testing.T) {
	src := parseGraphTable(t, `SELECT 1 FROM GRAPH_TABLE(g, MATCH (a:Person|Robot {name: 'Ada', age: 36} WHERE a.active = TRUE)-[e]->(b))`)
	node := src.Match.Paths[0].Elements[0].(*ast.NodePattern)
	if !node.Labels.Has("Person") || !node.Labels.Has("Robot") {
		t.Fatalf("unexpected labels %v", node.Labels.Sorted())
	}
	if len(node.Properties) != 2 || node.Properties[0].Name != "name" {
		t.Fatalf("unexpected properties %+v", node.Properties)
	}
	if node.Where == nil {
		t.Fatalf("expected inline WHERE")
	}
}

func TestParseCreateGraphStatement(t *testing.T) {
	sql := `CREATE PROPERTY GRAPH IF NOT EXISTS social
VERTEX TABLES (
  persons AS person KEY (id) LABEL Person PROPERTIES ALL COLUMNS,
  cities KEY (id) LABEL City NO PROPERTIES
)
EDGE TABLES (
  knows KEY (src, dst) SOURCE KEY (src) REFERENCES persons (id) DESTINATION KEY (dst) REFERENCES persons (id) LABEL knows PROPERTIES (since)
)`

	stmt := mustParse(t, sql)
	createStmt, ok := stmt.(*ast.CreateGraphStatement)
	if !ok {
		t.Fatalf("expected CreateGraphStatement, got %T", stmt)
	}
	if !createStmt.IfNotExists || createStmt.Name != "social" {
		t.Fatalf("unexpected statement header %+v", createStmt)
	}
	if len(createStmt.VertexTables) != 2 || len(createStmt.EdgeTables) != 1 {
		t.Fatalf("unexpected table counts %d/%d", len(createStmt.VertexTables), len(createStmt.EdgeTables))
	}
	if createStmt.VertexTables[0].Identity() != "person" {
		t.Fatalf("alias should win identity, got %q", createStmt.VertexTables[0].Identity())
	}
	if createStmt.VertexTables[1].Properties.Kind != ast.PropertiesNone {
		t.Fatalf("expected NO PROPERTIES on cities")
	}
	edge := createStmt.EdgeTables[0]
	if edge.Source.TableName != "persons" || len(edge.Source.Keys) != 1 {
		t.Fatalf("unexpected source reference %+v", edge.Source)
	}
	if edge.Source.Keys[0] != (ast.KeyColumnMapping{Source: "src", Target: "id"}) {
		t.Fatalf("unexpected key mapping %+v", edge.Source.Keys[0])
	}
	if !createStmt.IsSchemaDefinition() {
		t.Fatalf("CREATE PROPERTY GRAPH must classify as schema definition")
	}

	rendered := mustRender(t, createStmt)
	expected := "CREATE PROPERTY GRAPH IF NOT EXISTS social VERTEX TABLES (persons AS person KEY (id) LABEL Person PROPERTIES ALL COLUMNS, cities KEY (id) LABEL City NO PROPERTIES) EDGE TABLES (knows KEY (src, dst) SOURCE KEY (src) REFERENCES persons (id) DESTINATION KEY (dst) REFERENCES persons (id) LABEL knows PROPERTIES (since))"
	if rendered != expected {
		t.Fatalf("render mismatch:\nexpected: %s\n   actual: %s", expected, rendered)
	}
}

func TestParseCreateGraphKeyCountMismatch(t *testing.T) {
	sql := `CREATE PROPERTY GRAPH g VERTEX TABLES (v KEY (id)) EDGE TABLES (e KEY (id) SOURCE KEY (a, b) REFERENCES v (id) DESTINATION v)`
	errs := parseErrors(t, sql)
	if len(errs) == 0 {
		t.Fatalf("expected key count mismatch error")
	}
	if !strings.Contains(errs[0].Error(), "key column count mismatch") {
		t.Fatalf("unexpected error: %v", errs[0])
	}
}

func TestParseDropGraphStatement(t *testing.T) {
	stmt := mustParse(t, `DROP PROPERTY GRAPH IF EXISTS analytics.social`)
	dropStmt, ok := stmt.(*ast.DropGraphStatement)
	if !ok {
		t.Fatalf("expected DropGraphStatement, got %T", stmt)
	}
	if !dropStmt.IfExists || dropStmt.Name != "analytics.social" {
		t.Fatalf("unexpected DROP %+v", dropStmt)
	}
	rendered := mustRender(t, dropStmt)
	if rendered != "DROP PROPERTY GRAPH IF EXISTS analytics.social" {
		t.Fatalf("render mismatch: %s", rendered)
	}
}

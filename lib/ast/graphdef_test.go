package ast_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphshape/graphshape/lib/ast"
	"github.com/graphshape/graphshape/lib/render"
)

func TestGraphBuilderMirrorsParsedForm(t *testing.T) {
	stmt := ast.NewGraphBuilder("social").
		IfNotExists().
		Vertex("persons").Key("id").Label("Person").Done().
		Vertex("cities").Key("id").Label("City").
		Properties(ast.PropertiesSpec{Kind: ast.PropertiesNone}).Done().
		Edge("knows").Key("src", "dst").
		Source("persons", ast.KeyColumnMapping{Source: "src", Target: "id"}).
		Destination("persons", ast.KeyColumnMapping{Source: "dst", Target: "id"}).
		Label("knows").
		Properties(ast.PropertiesSpec{Kind: ast.PropertiesList, Columns: []string{"since"}}).
		Done().
		Build()

	require.Empty(t, stmt.Validate())

	out, err := render.SQL(stmt)
	require.NoError(t, err)
	assert.Equal(t, `CREATE PROPERTY GRAPH IF NOT EXISTS social`+
		` VERTEX TABLES (persons KEY (id) LABEL Person PROPERTIES ALL COLUMNS,`+
		` cities KEY (id) LABEL City NO PROPERTIES)`+
		` EDGE TABLES (knows KEY (src, dst)`+
		` SOURCE KEY (src) REFERENCES persons (id)`+
		` DESTINATION KEY (dst) REFERENCES persons (id)`+
		` LABEL knows PROPERTIES (since))`, out)
}

func TestGraphBuilderDefaults(t *testing.T) {
	stmt := ast.NewGraphBuilder("g").
		Vertex("nodes").Key("id").Done().
		Build()

	require.Len(t, stmt.VertexTables, 1)
	v := stmt.VertexTables[0]
	assert.Equal(t, "nodes", v.Identity())
	assert.Equal(t, ast.PropertiesAllColumns, v.Properties.Kind)
	assert.Nil(t, v.Label)
}

func TestLabelSet(t *testing.T) {
	s := ast.NewLabelSet("Robot", "Person")
	assert.True(t, s.Has("Person"))
	assert.False(t, s.Has("City"))
	assert.Equal(t, []string{"Person", "Robot"}, s.Sorted())
	assert.Nil(t, ast.NewLabelSet())
}

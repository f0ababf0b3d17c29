package parser

import (
	"strconv"
	"strings"

	"github.com/graphshape/graphshape/lib/ast"
	"github.com/graphshape/graphshape/lib/token"
)

// parseCreateGraphStatement parses CREATE PROPERTY GRAPH with its VERTEX
// TABLES and EDGE TABLES blocks. The current token is CREATE.
func (p *Parser) parseCreateGraphStatement() ast.Statement {
	if !p.expectPeek(token.PROPERTY) {
		return nil
	}
	if !p.expectPeek(token.GRAPH) {
		return nil
	}

	stmt := &ast.CreateGraphStatement{}

	if p.peekTokenIs(token.IF) {
		p.nextToken()
		if !p.expectPeek(token.NOT) {
			return stmt
		}
		if !p.expectPeek(token.EXISTS) {
			return stmt
		}
		stmt.IfNotExists = true
	}

	if !p.expectPeek(token.IDENT) {
		return stmt
	}
	stmt.Name = strings.Join(p.parseQualifiedName().Parts, ".")

	if !p.expectPeek(token.VERTEX) {
		return stmt
	}
	if !p.expectPeek(token.TABLES) {
		return stmt
	}
	if !p.expectPeek(token.LPAREN) {
		return stmt
	}
	for {
		stmt.VertexTables = append(stmt.VertexTables, p.parseVertexTableDefinition())
		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
			continue
		}
		break
	}
	if !p.expectPeek(token.RPAREN) {
		return stmt
	}

	if p.peekTokenIs(token.EDGE) {
		p.nextToken()
		if !p.expectPeek(token.TABLES) {
			return stmt
		}
		if !p.expectPeek(token.LPAREN) {
			return stmt
		}
		for {
			stmt.EdgeTables = append(stmt.EdgeTables, p.parseEdgeTableDefinition())
			if p.peekTokenIs(token.COMMA) {
				p.nextToken()
				continue
			}
			break
		}
		if !p.expectPeek(token.RPAREN) {
			return stmt
		}
	}

	return stmt
}

func (p *Parser) parseDropGraphStatement() ast.Statement {
	if !p.expectPeek(token.PROPERTY) {
		return nil
	}
	if !p.expectPeek(token.GRAPH) {
		return nil
	}

	stmt := &ast.DropGraphStatement{}
	if p.peekTokenIs(token.IF) {
		p.nextToken()
		if !p.expectPeek(token.EXISTS) {
			return stmt
		}
		stmt.IfExists = true
	}
	if !p.expectPeek(token.IDENT) {
		return stmt
	}
	stmt.Name = strings.Join(p.parseQualifiedName().Parts, ".")
	return stmt
}

func (p *Parser) parseVertexTableDefinition() ast.VertexTableDefinition {
	def := ast.VertexTableDefinition{Properties: ast.PropertiesSpec{Kind: ast.PropertiesAllColumns}}
	if !p.expectPeek(token.IDENT) {
		return def
	}
	def.TableName = p.curToken.Literal
	if p.peekTokenIs(token.AS) {
		p.nextToken()
		if p.expectPeek(token.IDENT) {
			def.Alias = p.curToken.Literal
		}
	}

	for {
		switch {
		case p.peekTokenIs(token.KEY):
			p.nextToken()
			def.KeyColumns = p.parseParenNameList()
		case p.peekTokenIs(token.LABEL):
			p.nextToken()
			if def.Label == nil {
				def.Label = &ast.LabelExpression{}
			}
			def.Label.Names = append(def.Label.Names, p.parseLabelNames()...)
		case p.peekTokenIs(token.PROPERTIES):
			p.nextToken()
			def.Properties = p.parsePropertiesSpec()
		case p.peekTokenIs(token.NO):
			p.nextToken()
			if p.expectPeek(token.PROPERTIES) {
				def.Properties = ast.PropertiesSpec{Kind: ast.PropertiesNone}
			}
		default:
			return def
		}
	}
}

func (p *Parser) parseEdgeTableDefinition() ast.EdgeTableDefinition {
	def := ast.EdgeTableDefinition{Properties: ast.PropertiesSpec{Kind: ast.PropertiesAllColumns}}
	if !p.expectPeek(token.IDENT) {
		return def
	}
	def.TableName = p.curToken.Literal
	if p.peekTokenIs(token.AS) {
		p.nextToken()
		if p.expectPeek(token.IDENT) {
			def.Alias = p.curToken.Literal
		}
	}

	for {
		switch {
		case p.peekTokenIs(token.KEY):
			p.nextToken()
			def.KeyColumns = p.parseParenNameList()
		case p.peekTokenIs(token.LABEL):
			p.nextToken()
			if def.Label == nil {
				def.Label = &ast.LabelExpression{}
			}
			def.Label.Names = append(def.Label.Names, p.parseLabelNames()...)
		case p.peekTokenIs(token.PROPERTIES):
			p.nextToken()
			def.Properties = p.parsePropertiesSpec()
		case p.peekTokenIs(token.NO):
			p.nextToken()
			if p.expectPeek(token.PROPERTIES) {
				def.Properties = ast.PropertiesSpec{Kind: ast.PropertiesNone}
			}
		case p.peekTokenIs(token.SOURCE):
			p.nextToken()
			def.Source = p.parseVertexReference()
		case p.peekTokenIs(token.DESTINATION):
			p.nextToken()
			def.Destination = p.parseVertexReference()
		default:
			return def
		}
	}
}

// parseVertexReference parses the SOURCE/DESTINATION side of an edge table:
// either KEY (cols) REFERENCES table (cols) or a bare vertex table name.
func (p *Parser) parseVertexReference() ast.VertexReference {
	ref := ast.VertexReference{}

	if !p.peekTokenIs(token.KEY) {
		if p.expectPeek(token.IDENT) {
			ref.TableName = p.curToken.Literal
		}
		return ref
	}

	p.nextToken()
	sourceCols := p.parseParenNameList()
	if !p.expectPeek(token.REFERENCES) {
		return ref
	}
	if !p.expectPeek(token.IDENT) {
		return ref
	}
	ref.TableName = p.curToken.Literal

	targetCols := sourceCols
	if p.peekTokenIs(token.LPAREN) {
		targetCols = p.parseParenNameList()
	}
	if len(targetCols) != len(sourceCols) {
		p.addError(p.curToken.Pos, "key column count mismatch: %d columns reference %d", len(sourceCols), len(targetCols))
		return ref
	}
	for i, src := range sourceCols {
		ref.Keys = append(ref.Keys, ast.KeyColumnMapping{Source: src, Target: targetCols[i]})
	}
	return ref
}

func (p *Parser) parseParenNameList() []string {
	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	var names []string
	for p.expectPeek(token.IDENT) {
		names = append(names, p.curToken.Literal)
		if !p.peekTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
	}
	p.expectPeek(token.RPAREN)
	return names
}

func (p *Parser) parseLabelNames() []string {
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	names := []string{p.curToken.Literal}
	for p.peekTokenIs(token.PIPE) {
		p.nextToken()
		if !p.expectPeek(token.IDENT) {
			break
		}
		names = append(names, p.curToken.Literal)
	}
	return names
}

func (p *Parser) parsePropertiesSpec() ast.PropertiesSpec {
	switch {
	case p.peekTokenIs(token.ALL):
		p.nextToken()
		if !p.expectPeek(token.COLUMNS) {
			return ast.PropertiesSpec{Kind: ast.PropertiesAllColumns}
		}
		if p.peekTokenIs(token.EXCEPT) {
			p.nextToken()
			return ast.PropertiesSpec{Kind: ast.PropertiesAllExcept, Except: p.parseParenNameList()}
		}
		return ast.PropertiesSpec{Kind: ast.PropertiesAllColumns}
	case p.peekTokenIs(token.LPAREN):
		return ast.PropertiesSpec{Kind: ast.PropertiesList, Columns: p.parseParenNameList()}
	default:
		p.addError(p.peekToken.Pos, "expected ALL COLUMNS or a column list after PROPERTIES, got %s", p.peekToken.Type)
		return ast.PropertiesSpec{Kind: ast.PropertiesAllColumns}
	}
}

// parseGraphTableSource parses FROM GRAPH_TABLE(graph, MATCH ... [WHERE ...]
// [COLUMNS (...)]) with the current token on GRAPH_TABLE.
func (p *Parser) parseGraphTableSource() ast.DataSource {
	src := &ast.GraphTableSource{}
	if !p.expectPeek(token.LPAREN) {
		return src
	}
	if !p.expectPeek(token.IDENT) {
		return src
	}
	src.GraphName = strings.Join(p.parseQualifiedName().Parts, ".")
	if !p.expectPeek(token.COMMA) {
		return src
	}
	if !p.expectPeek(token.MATCH) {
		return src
	}

	match := &ast.MatchPattern{}
	p.nextToken()
	match.Paths = append(match.Paths, p.parsePathPattern())
	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		match.Paths = append(match.Paths, p.parsePathPattern())
	}
	src.Match = match

	if p.peekTokenIs(token.WHERE) {
		p.nextToken()
		p.nextToken()
		src.Where = p.parseExpression(lowest)
	}

	if p.peekTokenIs(token.COLUMNS) {
		p.nextToken()
		if p.expectPeek(token.LPAREN) {
			p.nextToken()
			src.Columns = p.parseSelectList()
			p.expectPeek(token.RPAREN)
		}
	}

	p.expectPeek(token.RPAREN)
	src.Alias = p.parseAliasIfPresent()
	return src
}

// parsePathPattern parses one MATCH path, with optional "p =" binding and
// path mode prefix, with the current token on the first path token.
func (p *Parser) parsePathPattern() *ast.PathPattern {
	path := &ast.PathPattern{Mode: ast.ModeWalk}

	if p.curTokenIs(token.IDENT) && p.peekTokenIs(token.EQ) {
		path.Variable = p.curToken.Literal
		p.nextToken()
		p.nextToken()
	}

	switch p.curToken.Type {
	case token.ANY:
		if p.expectPeek(token.SHORTEST) {
			path.Mode = ast.ModeAnyShortest
		}
		p.nextToken()
	case token.ALL:
		if p.expectPeek(token.SHORTEST) {
			path.Mode = ast.ModeAllShortest
		}
		p.nextToken()
	case token.WALK:
		path.Mode = ast.ModeWalk
		p.nextToken()
	case token.SIMPLE:
		path.Mode = ast.ModeSimple
		p.nextToken()
	case token.TRAIL:
		path.Mode = ast.ModeTrail
		p.nextToken()
	case token.ACYCLIC:
		path.Mode = ast.ModeAcyclic
		p.nextToken()
	}

	path.Elements = p.parsePathElements()
	return path
}

// parsePathElements parses the element sequence of a path with the current
// token on the first element's opening token.
func (p *Parser) parsePathElements() []ast.PathElement {
	elements := p.parsePathElement()
	for p.peekStartsPathStep() {
		p.nextToken()
		elements = append(elements, p.parsePathElement()...)
	}
	return elements
}

func (p *Parser) peekStartsPathStep() bool {
	switch p.peekToken.Type {
	case token.MINUS, token.ARROW, token.LARROW, token.LT, token.LPAREN:
		return true
	default:
		return false
	}
}

// parsePathElement returns one or more elements: a plain parenthesized
// sub-path splices its elements into the enclosing sequence.
func (p *Parser) parsePathElement() []ast.PathElement {
	p.depth++
	if p.depth > MaxParserDepth {
		p.addError(p.curToken.Pos, "path nesting too deep")
		p.depth--
		return nil
	}
	defer func() { p.depth-- }()

	switch p.curToken.Type {
	case token.LPAREN:
		if p.peekStartsPathStep() {
			return p.parseGroupElement()
		}
		return []ast.PathElement{p.parseNodePattern()}
	case token.MINUS, token.ARROW, token.LARROW, token.LT:
		return p.parseEdgeElement()
	default:
		p.addError(p.curToken.Pos, "unexpected token %s in path pattern", p.curToken.Type)
		return nil
	}
}

func (p *Parser) parseNodePattern() *ast.NodePattern {
	node := &ast.NodePattern{}
	node.Variable, node.Labels, node.Properties, node.Where = p.parseElementContents(token.RPAREN)
	return node
}

// parseEdgeElement parses an edge pattern and resolves its direction from
// the opening/closing token combination:
//
//	-[..]->   outgoing      <-[..]-   incoming     <-[..]->  any
//	<[..]-    incoming      <[..]->   any          -[..]-    undirected
//
// A full arrow before the bracket, as in ->[r], is rejected.
func (p *Parser) parseEdgeElement() []ast.PathElement {
	edge := &ast.EdgePattern{}

	switch p.curToken.Type {
	case token.ARROW:
		if p.peekTokenIs(token.LBRACKET) {
			p.addError(p.peekToken.Pos, "edge pattern cannot place a full arrow before '[': write -[...]-> instead of ->[...]")
			return nil
		}
		edge.Direction = ast.DirectionOutgoing

	case token.MINUS:
		if p.peekTokenIs(token.LBRACKET) {
			p.nextToken()
			edge.Variable, edge.Labels, edge.Properties, edge.Where = p.parseElementContents(token.RBRACKET)
			switch {
			case p.peekTokenIs(token.ARROW):
				p.nextToken()
				edge.Direction = ast.DirectionOutgoing
			case p.peekTokenIs(token.MINUS):
				p.nextToken()
				edge.Direction = ast.DirectionUndirected
			default:
				p.addError(p.peekToken.Pos, "expected '->' or '-' to close edge pattern, got %s", p.peekToken.Type)
				return nil
			}
		} else {
			edge.Direction = ast.DirectionUndirected
		}

	case token.LARROW:
		if p.peekTokenIs(token.LBRACKET) {
			p.nextToken()
			edge.Variable, edge.Labels, edge.Properties, edge.Where = p.parseElementContents(token.RBRACKET)
			switch {
			case p.peekTokenIs(token.MINUS):
				p.nextToken()
				edge.Direction = ast.DirectionIncoming
			case p.peekTokenIs(token.ARROW):
				p.nextToken()
				edge.Direction = ast.DirectionAny
			default:
				p.addError(p.peekToken.Pos, "expected '-' or '->' to close edge pattern, got %s", p.peekToken.Type)
				return nil
			}
		} else {
			edge.Direction = ast.DirectionIncoming
		}

	case token.LT:
		if !p.peekTokenIs(token.LBRACKET) {
			p.addError(p.curToken.Pos, "incomplete edge pattern: '<' must be followed by '['")
			return nil
		}
		p.nextToken()
		edge.Variable, edge.Labels, edge.Properties, edge.Where = p.parseElementContents(token.RBRACKET)
		switch {
		case p.peekTokenIs(token.MINUS):
			p.nextToken()
			edge.Direction = ast.DirectionIncoming
		case p.peekTokenIs(token.ARROW):
			p.nextToken()
			edge.Direction = ast.DirectionAny
		default:
			p.addError(p.peekToken.Pos, "expected '-' or '->' to close edge pattern, got %s", p.peekToken.Type)
			return nil
		}
	}

	if q := p.parseQuantifierIfPresent(); q != nil {
		inner := &ast.PathPattern{Mode: ast.ModeWalk, Elements: []ast.PathElement{edge}}
		return []ast.PathElement{&ast.QuantifiedPathElement{Inner: inner, Quantifier: *q}}
	}
	return []ast.PathElement{edge}
}

// parseGroupElement parses a parenthesized sub-path, its |-separated
// alternation branches, and an optional trailing quantifier.
func (p *Parser) parseGroupElement() []ast.PathElement {
	p.nextToken()
	branches := []*ast.PathPattern{{Mode: ast.ModeWalk, Elements: p.parsePathElements()}}
	for p.peekTokenIs(token.PIPE) {
		p.nextToken()
		p.nextToken()
		branches = append(branches, &ast.PathPattern{Mode: ast.ModeWalk, Elements: p.parsePathElements()})
	}
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	quant := p.parseQuantifierIfPresent()

	if len(branches) > 1 {
		alt := &ast.PathAlternation{Branches: branches}
		if quant == nil {
			return []ast.PathElement{alt}
		}
		inner := &ast.PathPattern{Mode: ast.ModeWalk, Elements: []ast.PathElement{alt}}
		return []ast.PathElement{&ast.QuantifiedPathElement{Inner: inner, Quantifier: *quant}}
	}

	if quant != nil {
		return []ast.PathElement{&ast.QuantifiedPathElement{Inner: branches[0], Quantifier: *quant}}
	}
	// Plain grouping has no semantic weight: splice the elements through.
	return branches[0].Elements
}

// parseElementContents parses the shared interior of node and edge patterns:
// [variable] [: label {| label}] [{properties}] [WHERE cond], then the
// closing end token.
func (p *Parser) parseElementContents(end token.Type) (string, ast.LabelSet, []ast.PropertyFilter, ast.Expr) {
	var (
		variable string
		labels   ast.LabelSet
		props    []ast.PropertyFilter
		where    ast.Expr
	)

	if p.peekTokenIs(token.IDENT) {
		p.nextToken()
		variable = p.curToken.Literal
	}

	if p.peekTokenIs(token.COLON) {
		p.nextToken()
		labels = ast.NewLabelSet(p.parseLabelNames()...)
	}

	if p.peekTokenIs(token.LBRACE) {
		p.nextToken()
		props = p.parsePropertyFilters()
	}

	if p.peekTokenIs(token.WHERE) {
		p.nextToken()
		p.nextToken()
		where = p.parseExpression(lowest)
	}

	p.expectPeek(end)
	return variable, labels, props, where
}

// parsePropertyFilters parses an inline {name: expr, ...} map with the
// current token on '{'.
func (p *Parser) parsePropertyFilters() []ast.PropertyFilter {
	var props []ast.PropertyFilter
	for {
		if !p.expectPeek(token.IDENT) {
			return props
		}
		name := p.curToken.Literal
		if !p.expectPeek(token.COLON) {
			return props
		}
		p.nextToken()
		props = append(props, ast.PropertyFilter{Name: name, Value: p.parseExpression(lowest)})
		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
			continue
		}
		break
	}
	p.expectPeek(token.RBRACE)
	return props
}

// parseQuantifierIfPresent consumes a {n}, {m,n}, + or * repetition bound
// if one follows the element just parsed.
func (p *Parser) parseQuantifierIfPresent() *ast.PathQuantifier {
	switch p.peekToken.Type {
	case token.PLUS:
		p.nextToken()
		q := ast.OneOrMore()
		return &q
	case token.STAR:
		p.nextToken()
		q := ast.ZeroOrMore()
		return &q
	case token.LBRACE:
		p.nextToken()
		if !p.expectPeek(token.NUMBER) {
			return nil
		}
		min, err := strconv.Atoi(p.curToken.Literal)
		if err != nil {
			p.addError(p.curToken.Pos, "quantifier bound must be an integer, got %q", p.curToken.Literal)
			return nil
		}
		if !p.peekTokenIs(token.COMMA) {
			p.expectPeek(token.RBRACE)
			q := ast.Exactly(min)
			return &q
		}
		p.nextToken()
		if !p.expectPeek(token.NUMBER) {
			return nil
		}
		max, err := strconv.Atoi(p.curToken.Literal)
		if err != nil {
			p.addError(p.curToken.Pos, "quantifier bound must be an integer, got %q", p.curToken.Literal)
			return nil
		}
		if max < min {
			p.addError(p.curToken.Pos, "quantifier upper bound %d is below lower bound %d", max, min)
		}
		p.expectPeek(token.RBRACE)
		q := ast.Range(min, max)
		return &q
	default:
		return nil
	}
}

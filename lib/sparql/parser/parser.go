package parser

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/graphshape/graphshape/lib/ast"
	"github.com/graphshape/graphshape/lib/sparql/lexer"
	"github.com/graphshape/graphshape/lib/token"
)

// MaxParserDepth limits recursion depth to prevent stack overflow.
const MaxParserDepth = 100

// Option configures a Parser at construction time.
type Option func(*Parser)

// WithDebug makes the parser write rule-entry traces to w.
func WithDebug(w io.Writer) Option {
	return func(p *Parser) { p.debug = w }
}

// Parser consumes SPARQL tokens and produces unified AST nodes.
type Parser struct {
	l      *lexer.Lexer
	errors []error
	debug  io.Writer

	curToken  token.Token
	peekToken token.Token

	depth int

	// base is the current base IRI; each BASE declaration resolves against
	// the previous one, last one wins.
	base string

	// blankCounter numbers parser-generated blank nodes, unique per parse.
	blankCounter int
}

// New returns a parser over the provided lexer.
func New(l *lexer.Lexer, opts ...Option) *Parser {
	p := &Parser{l: l, errors: make([]error, 0)}
	for _, opt := range opts {
		opt(p)
	}
	p.nextToken()
	p.nextToken()
	return p
}

// Parse is a convenience wrapper: it parses a single statement and returns
// the first error encountered, if any.
func Parse(input string) (ast.Statement, error) {
	p := New(lexer.New(input))
	stmt := p.ParseStatement()
	if errs := p.Errors(); len(errs) > 0 {
		return nil, errs[0]
	}
	return stmt, nil
}

// Errors exposes parsing errors encountered so far.
func (p *Parser) Errors() []error {
	return p.errors
}

func (p *Parser) addError(pos token.Position, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	p.errors = append(p.errors, &SyntaxError{Pos: pos, Msg: msg})
}

func (p *Parser) debugf(format string, args ...interface{}) {
	if p.debug != nil {
		fmt.Fprintf(p.debug, format+"\n", args...)
	}
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
	if p.peekToken.Type == token.ILLEGAL {
		p.errors = append(p.errors, &LexError{Pos: p.peekToken.Pos, Msg: p.peekToken.Literal})
		p.peekToken.Type = token.EOF
	}
}

func (p *Parser) curTokenIs(t token.Type) bool  { return p.curToken.Type == t }
func (p *Parser) peekTokenIs(t token.Type) bool { return p.peekToken.Type == t }

func (p *Parser) expectPeek(t token.Type) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.addError(p.peekToken.Pos, "expected %s, got %s", t, p.peekToken.Type)
	return false
}

func (p *Parser) newBlank() ast.BlankNode {
	id := fmt.Sprintf("b%d", p.blankCounter)
	p.blankCounter++
	return ast.BlankNode{ID: id}
}

// resolveIRI resolves ref against the current base IRI. Absolute references
// and references with no base in scope pass through unchanged.
func (p *Parser) resolveIRI(ref string) string {
	if p.base == "" {
		return ref
	}
	return resolveAgainst(p.base, ref)
}

func resolveAgainst(base, ref string) string {
	refURL, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	if refURL.IsAbs() {
		return ref
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return ref
	}
	return baseURL.ResolveReference(refURL).String()
}

// ParseStatement parses one SPARQL query or update statement.
func (p *Parser) ParseStatement() ast.Statement {
	prologue := p.parsePrologue()

	var stmt ast.Statement
	switch p.curToken.Type {
	case token.SELECT:
		stmt = p.parseSelectQuery(prologue, true)
	case token.ASK:
		stmt = p.parseAskQuery(prologue)
	case token.CONSTRUCT:
		stmt = p.parseConstructQuery(prologue)
	case token.DESCRIBE:
		stmt = p.parseDescribeQuery(prologue)
	case token.INSERT:
		stmt = p.parseInsertUpdate(prologue)
	case token.DELETE:
		stmt = p.parseDeleteUpdate(prologue)
	case token.LOAD:
		stmt = p.parseLoadStatement(prologue)
	case token.CLEAR:
		stmt = p.parseClearStatement(prologue)
	case token.CREATE:
		stmt = p.parseCreateGraphStatement(prologue)
	case token.DROP:
		stmt = p.parseDropGraphStatement(prologue)
	default:
		p.addError(p.curToken.Pos, "unsupported statement starting with %s", p.curToken.Type)
	}

	for p.peekTokenIs(token.SEMICOLON) {
		p.nextToken()
	}
	if !p.peekTokenIs(token.EOF) {
		p.addError(p.peekToken.Pos, "unexpected token %s after statement", p.peekToken.Type)
	}

	return stmt
}

// parsePrologue collects BASE, PREFIX and VERSION declarations, in any order
// and repetition, leaving the current token on the first query keyword.
func (p *Parser) parsePrologue() ast.Prologue {
	prologue := ast.Prologue{}
	for {
		switch p.curToken.Type {
		case token.BASE:
			if !p.expectPeek(token.IRIREF) {
				return prologue
			}
			if p.base == "" {
				p.base = p.curToken.Literal
			} else {
				p.base = resolveAgainst(p.base, p.curToken.Literal)
			}
			prologue.Base = p.base
		case token.PREFIX:
			if !p.expectPeek(token.PNAME) {
				return prologue
			}
			name := p.curToken.Literal
			colon := strings.Index(name, ":")
			if colon < 0 || colon != len(name)-1 {
				p.addError(p.curToken.Pos, "malformed prefix declaration %q", name)
				return prologue
			}
			prefix := name[:colon]
			if !p.expectPeek(token.IRIREF) {
				return prologue
			}
			prologue.Prefixes = append(prologue.Prefixes, ast.PrefixDecl{Prefix: prefix, IRI: p.resolveIRI(p.curToken.Literal)})
		case token.VERSION:
			if !p.expectPeek(token.STRING) {
				return prologue
			}
			prologue.Version = p.curToken.Literal
		default:
			return prologue
		}
		p.nextToken()
	}
}

func (p *Parser) parseDatasetClauses() []ast.DatasetClause {
	var clauses []ast.DatasetClause
	for p.peekTokenIs(token.FROM) {
		p.nextToken()
		clause := ast.DatasetClause{}
		if p.peekTokenIs(token.NAMED) {
			p.nextToken()
			clause.Named = true
		}
		iri, ok := p.expectIRIString()
		if !ok {
			return clauses
		}
		clause.IRI = iri
		clauses = append(clauses, clause)
	}
	return clauses
}

// expectIRIString consumes an IRI reference or prefixed name and returns its
// string form: resolved absolute IRI, or the raw prefix:local spelling.
func (p *Parser) expectIRIString() (string, bool) {
	switch p.peekToken.Type {
	case token.IRIREF:
		p.nextToken()
		return p.resolveIRI(p.curToken.Literal), true
	case token.PNAME:
		p.nextToken()
		return p.curToken.Literal, true
	default:
		p.addError(p.peekToken.Pos, "expected IRI, got %s", p.peekToken.Type)
		return "", false
	}
}

// parseSelectQuery parses the SELECT form with the current token on SELECT.
// Dataset clauses are only accepted at the top level, not in sub-selects.
func (p *Parser) parseSelectQuery(prologue ast.Prologue, topLevel bool) *ast.SelectQuery {
	p.depth++
	if p.depth > MaxParserDepth {
		p.addError(p.curToken.Pos, "maximum nesting depth exceeded")
		p.depth--
		return nil
	}
	defer func() { p.depth-- }()

	p.debugf("parseSelectQuery at %v", p.curToken.Pos)
	q := &ast.SelectQuery{Prologue: prologue}

	switch {
	case p.peekTokenIs(token.DISTINCT):
		p.nextToken()
		q.Distinct = true
	case p.peekTokenIs(token.REDUCED):
		p.nextToken()
		q.Reduced = true
	}

	q.Columns = p.parseProjection()

	if topLevel {
		q.Datasets = p.parseDatasetClauses()
	}

	if p.peekTokenIs(token.WHERE) {
		p.nextToken()
	}
	if !p.expectPeek(token.LBRACE) {
		return q
	}
	q.Pattern = p.parseGroupGraphPattern()

	p.parseSolutionModifiers(q)

	if p.peekTokenIs(token.VALUES) {
		p.nextToken()
		values := p.parseInlineData()
		q.Values = &values
	}

	return q
}

func (p *Parser) parseProjection() []ast.SelectItem {
	var items []ast.SelectItem
	for {
		switch p.peekToken.Type {
		case token.STAR:
			p.nextToken()
			items = append(items, ast.SelectItem{Expr: &ast.StarExpr{}})
		case token.VAR:
			p.nextToken()
			items = append(items, ast.SelectItem{Expr: &ast.VarRef{Name: p.curToken.Literal}})
		case token.LPAREN:
			p.nextToken()
			p.nextToken()
			expr := p.parseExpression(lowest)
			if !p.expectPeek(token.AS) {
				return items
			}
			if !p.expectPeek(token.VAR) {
				return items
			}
			alias := p.curToken.Literal
			if !p.expectPeek(token.RPAREN) {
				return items
			}
			items = append(items, ast.SelectItem{Expr: expr, Alias: alias})
		default:
			if len(items) == 0 {
				p.addError(p.peekToken.Pos, "SELECT requires a projection")
			}
			return items
		}
	}
}

func (p *Parser) parseSolutionModifiers(q *ast.SelectQuery) {
	if p.peekTokenIs(token.GROUP) {
		p.nextToken()
		if !p.expectPeek(token.BY) {
			return
		}
		q.GroupBy = p.parseGroupConditions()
	}

	if p.peekTokenIs(token.HAVING) {
		p.nextToken()
		p.nextToken()
		q.Having = p.parseExpression(lowest)
	}

	if p.peekTokenIs(token.ORDER) {
		p.nextToken()
		if !p.expectPeek(token.BY) {
			return
		}
		q.OrderBy = p.parseOrderConditions()
	}

	for p.peekTokenIs(token.LIMIT) || p.peekTokenIs(token.OFFSET) {
		p.nextToken()
		isLimit := p.curTokenIs(token.LIMIT)
		if !p.expectPeek(token.NUMBER) {
			return
		}
		count := &ast.LiteralExpr{Value: numberLiteral(p.curToken.Literal)}
		if q.Limit == nil {
			q.Limit = &ast.LimitClause{}
		}
		if isLimit {
			q.Limit.Count = count
		} else {
			q.Limit.Offset = count
		}
	}
}

// parseGroupConditions parses GROUP BY terms: variables, function calls, or
// bracketed expressions.
func (p *Parser) parseGroupConditions() []ast.Expr {
	var conds []ast.Expr
	for {
		switch p.peekToken.Type {
		case token.VAR:
			p.nextToken()
			conds = append(conds, &ast.VarRef{Name: p.curToken.Literal})
		case token.LPAREN:
			p.nextToken()
			p.nextToken()
			conds = append(conds, p.parseExpression(lowest))
			if !p.expectPeek(token.RPAREN) {
				return conds
			}
		case token.IDENT, token.IRIREF, token.PNAME:
			p.nextToken()
			conds = append(conds, p.parseExpression(lowest))
		default:
			if len(conds) == 0 {
				p.addError(p.peekToken.Pos, "GROUP BY requires at least one grouping term")
			}
			return conds
		}
	}
}

func (p *Parser) parseOrderConditions() []ast.OrderItem {
	var items []ast.OrderItem
	for {
		switch p.peekToken.Type {
		case token.ASC, token.DESC:
			p.nextToken()
			descending := p.curTokenIs(token.DESC)
			if !p.expectPeek(token.LPAREN) {
				return items
			}
			p.nextToken()
			expr := p.parseExpression(lowest)
			if !p.expectPeek(token.RPAREN) {
				return items
			}
			items = append(items, ast.OrderItem{Expr: expr, Descending: descending})
		case token.VAR:
			p.nextToken()
			items = append(items, ast.OrderItem{Expr: &ast.VarRef{Name: p.curToken.Literal}})
		case token.LPAREN:
			p.nextToken()
			p.nextToken()
			expr := p.parseExpression(lowest)
			if !p.expectPeek(token.RPAREN) {
				return items
			}
			items = append(items, ast.OrderItem{Expr: expr})
		case token.IDENT:
			p.nextToken()
			items = append(items, ast.OrderItem{Expr: p.parseExpression(lowest)})
		default:
			if len(items) == 0 {
				p.addError(p.peekToken.Pos, "ORDER BY requires at least one ordering term")
			}
			return items
		}
	}
}

func (p *Parser) parseAskQuery(prologue ast.Prologue) *ast.AskQuery {
	q := &ast.AskQuery{Prologue: prologue}
	q.Datasets = p.parseDatasetClauses()
	if p.peekTokenIs(token.WHERE) {
		p.nextToken()
	}
	if !p.expectPeek(token.LBRACE) {
		return q
	}
	q.Pattern = p.parseGroupGraphPattern()
	return q
}

func (p *Parser) parseConstructQuery(prologue ast.Prologue) *ast.ConstructQuery {
	q := &ast.ConstructQuery{Prologue: prologue}

	if !p.expectPeek(token.LBRACE) {
		return q
	}
	q.Template = p.parseTripleTemplate()

	q.Datasets = p.parseDatasetClauses()

	if p.peekTokenIs(token.WHERE) {
		p.nextToken()
	}
	if !p.expectPeek(token.LBRACE) {
		return q
	}
	q.Pattern = p.parseGroupGraphPattern()

	if p.peekTokenIs(token.ORDER) {
		p.nextToken()
		if !p.expectPeek(token.BY) {
			return q
		}
		q.OrderBy = p.parseOrderConditions()
	}
	for p.peekTokenIs(token.LIMIT) || p.peekTokenIs(token.OFFSET) {
		p.nextToken()
		isLimit := p.curTokenIs(token.LIMIT)
		if !p.expectPeek(token.NUMBER) {
			return q
		}
		count := &ast.LiteralExpr{Value: numberLiteral(p.curToken.Literal)}
		if q.Limit == nil {
			q.Limit = &ast.LimitClause{}
		}
		if isLimit {
			q.Limit.Count = count
		} else {
			q.Limit.Offset = count
		}
	}
	return q
}

func (p *Parser) parseDescribeQuery(prologue ast.Prologue) *ast.DescribeQuery {
	q := &ast.DescribeQuery{Prologue: prologue}

	if p.peekTokenIs(token.STAR) {
		p.nextToken()
		q.Star = true
	} else {
		for {
			switch p.peekToken.Type {
			case token.VAR:
				p.nextToken()
				q.Terms = append(q.Terms, ast.Var{Name: p.curToken.Literal})
			case token.IRIREF:
				p.nextToken()
				q.Terms = append(q.Terms, ast.IRI{Value: p.resolveIRI(p.curToken.Literal)})
			case token.PNAME:
				p.nextToken()
				q.Terms = append(q.Terms, p.prefixedName(p.curToken.Literal))
			default:
				if len(q.Terms) == 0 {
					p.addError(p.peekToken.Pos, "DESCRIBE requires * or at least one term")
				}
				goto terms
			}
		}
	}
terms:

	q.Datasets = p.parseDatasetClauses()

	if p.peekTokenIs(token.WHERE) {
		p.nextToken()
		if !p.expectPeek(token.LBRACE) {
			return q
		}
		q.Pattern = p.parseGroupGraphPattern()
	} else if p.peekTokenIs(token.LBRACE) {
		p.nextToken()
		q.Pattern = p.parseGroupGraphPattern()
	}
	return q
}

// parseInsertUpdate parses INSERT DATA and the insert-only form of
// DELETE/INSERT WHERE, with the current token on INSERT.
func (p *Parser) parseInsertUpdate(prologue ast.Prologue) ast.Statement {
	if p.peekTokenIs(token.DATA) {
		p.nextToken()
		stmt := &ast.InsertDataStatement{Prologue: prologue}
		if !p.expectPeek(token.LBRACE) {
			return stmt
		}
		stmt.Quads = p.parseQuadBlock()
		return stmt
	}

	stmt := &ast.DeleteInsertStatement{Prologue: prologue}
	if !p.expectPeek(token.LBRACE) {
		return stmt
	}
	stmt.InsertTemplate = p.parseQuadBlock()
	if !p.expectPeek(token.WHERE) {
		return stmt
	}
	if !p.expectPeek(token.LBRACE) {
		return stmt
	}
	stmt.Where = p.parseGroupGraphPattern()
	return stmt
}

// parseDeleteUpdate parses DELETE DATA and DELETE {...} [INSERT {...}]
// WHERE {...}, with the current token on DELETE.
func (p *Parser) parseDeleteUpdate(prologue ast.Prologue) ast.Statement {
	if p.peekTokenIs(token.DATA) {
		p.nextToken()
		stmt := &ast.DeleteDataStatement{Prologue: prologue}
		if !p.expectPeek(token.LBRACE) {
			return stmt
		}
		stmt.Quads = p.parseQuadBlock()
		for _, q := range stmt.Quads {
			for _, v := range q.Triple.Variables() {
				p.addError(p.curToken.Pos, "DELETE DATA cannot contain variable ?%s", v)
			}
		}
		return stmt
	}

	stmt := &ast.DeleteInsertStatement{Prologue: prologue}
	if !p.expectPeek(token.LBRACE) {
		return stmt
	}
	stmt.DeleteTemplate = p.parseQuadBlock()
	if p.peekTokenIs(token.INSERT) {
		p.nextToken()
		if !p.expectPeek(token.LBRACE) {
			return stmt
		}
		stmt.InsertTemplate = p.parseQuadBlock()
	}
	if !p.expectPeek(token.WHERE) {
		return stmt
	}
	if !p.expectPeek(token.LBRACE) {
		return stmt
	}
	stmt.Where = p.parseGroupGraphPattern()
	return stmt
}

func (p *Parser) parseLoadStatement(prologue ast.Prologue) *ast.LoadStatement {
	stmt := &ast.LoadStatement{Prologue: prologue}
	if p.peekTokenIs(token.SILENT) {
		p.nextToken()
		stmt.Silent = true
	}
	source, ok := p.expectIRIString()
	if !ok {
		return stmt
	}
	stmt.Source = source
	if p.peekTokenIs(token.INTO) {
		p.nextToken()
		if !p.expectPeek(token.GRAPH) {
			return stmt
		}
		into, ok := p.expectIRIString()
		if !ok {
			return stmt
		}
		stmt.Into = into
	}
	return stmt
}

func (p *Parser) parseClearStatement(prologue ast.Prologue) *ast.ClearStatement {
	stmt := &ast.ClearStatement{Prologue: prologue}
	if p.peekTokenIs(token.SILENT) {
		p.nextToken()
		stmt.Silent = true
	}
	stmt.Target = p.parseGraphTarget()
	return stmt
}

func (p *Parser) parseCreateGraphStatement(prologue ast.Prologue) *ast.CreateSPARQLGraphStatement {
	stmt := &ast.CreateSPARQLGraphStatement{Prologue: prologue}
	if p.peekTokenIs(token.SILENT) {
		p.nextToken()
		stmt.Silent = true
	}
	if !p.expectPeek(token.GRAPH) {
		return stmt
	}
	graph, ok := p.expectIRIString()
	if !ok {
		return stmt
	}
	stmt.Graph = graph
	return stmt
}

func (p *Parser) parseDropGraphStatement(prologue ast.Prologue) *ast.DropSPARQLGraphStatement {
	stmt := &ast.DropSPARQLGraphStatement{Prologue: prologue}
	if p.peekTokenIs(token.SILENT) {
		p.nextToken()
		stmt.Silent = true
	}
	stmt.Target = p.parseGraphTarget()
	return stmt
}

func (p *Parser) parseGraphTarget() ast.GraphTarget {
	switch p.peekToken.Type {
	case token.DEFAULT:
		p.nextToken()
		return ast.GraphTarget{Kind: ast.TargetDefault}
	case token.NAMED:
		p.nextToken()
		return ast.GraphTarget{Kind: ast.TargetNamed}
	case token.ALL:
		p.nextToken()
		return ast.GraphTarget{Kind: ast.TargetAll}
	case token.GRAPH:
		p.nextToken()
		iri, _ := p.expectIRIString()
		return ast.GraphTarget{Kind: ast.TargetGraph, IRI: iri}
	default:
		p.addError(p.peekToken.Pos, "expected DEFAULT, NAMED, ALL or GRAPH, got %s", p.peekToken.Type)
		return ast.GraphTarget{}
	}
}

// parseGroupGraphPattern parses the body of a group with the current token
// on the opening brace, consuming through the closing brace.
func (p *Parser) parseGroupGraphPattern() ast.GraphPattern {
	p.depth++
	if p.depth > MaxParserDepth {
		p.addError(p.curToken.Pos, "pattern nesting too deep")
		p.depth--
		return ast.BasicPattern{}
	}
	defer func() { p.depth-- }()

	if p.peekTokenIs(token.SELECT) {
		p.nextToken()
		q := p.parseSelectQuery(ast.Prologue{}, false)
		p.expectPeek(token.RBRACE)
		return ast.SubSelectPattern{Query: q}
	}

	var acc ast.GraphPattern
	for {
		if p.peekTokenIs(token.RBRACE) {
			p.nextToken()
			break
		}
		if p.peekTokenIs(token.EOF) {
			p.addError(p.peekToken.Pos, "unterminated group graph pattern")
			break
		}

		p.nextToken()
		switch p.curToken.Type {
		case token.DOT:
			// Separators between pattern elements are optional.
		case token.OPTIONAL:
			if !p.expectPeek(token.LBRACE) {
				return orEmpty(acc)
			}
			acc = ast.OptionalPattern{Left: orEmpty(acc), Right: p.parseGroupGraphPattern()}
		case token.MINUSKW:
			if !p.expectPeek(token.LBRACE) {
				return orEmpty(acc)
			}
			acc = ast.MinusPattern{Left: orEmpty(acc), Right: p.parseGroupGraphPattern()}
		case token.LATERAL:
			if !p.expectPeek(token.LBRACE) {
				return orEmpty(acc)
			}
			acc = ast.LateralPattern{Left: orEmpty(acc), Right: p.parseGroupGraphPattern()}
		case token.GRAPH:
			name := p.parseVarOrIRI()
			if !p.expectPeek(token.LBRACE) {
				return orEmpty(acc)
			}
			acc = joinPatterns(acc, ast.GraphGraphPattern{Name: name, Inner: p.parseGroupGraphPattern()})
		case token.SERVICE:
			silent := false
			if p.peekTokenIs(token.SILENT) {
				p.nextToken()
				silent = true
			}
			endpoint := p.parseVarOrIRI()
			if !p.expectPeek(token.LBRACE) {
				return orEmpty(acc)
			}
			acc = joinPatterns(acc, ast.ServicePattern{Endpoint: endpoint, Inner: p.parseGroupGraphPattern(), Silent: silent})
		case token.FILTER:
			p.nextToken()
			acc = ast.FilterPattern{Base: orEmpty(acc), Cond: p.parseExpression(lowest)}
		case token.BIND:
			if !p.expectPeek(token.LPAREN) {
				return orEmpty(acc)
			}
			p.nextToken()
			expr := p.parseExpression(lowest)
			if !p.expectPeek(token.AS) {
				return orEmpty(acc)
			}
			if !p.expectPeek(token.VAR) {
				return orEmpty(acc)
			}
			name := p.curToken.Literal
			if !p.expectPeek(token.RPAREN) {
				return orEmpty(acc)
			}
			acc = ast.BindPattern{Base: orEmpty(acc), Var: name, Expr: expr}
		case token.VALUES:
			acc = joinPatterns(acc, p.parseInlineData())
		case token.LBRACE:
			element := p.parseGroupGraphPattern()
			for p.peekTokenIs(token.UNION) {
				p.nextToken()
				if !p.expectPeek(token.LBRACE) {
					break
				}
				element = ast.UnionPattern{Left: element, Right: p.parseGroupGraphPattern()}
			}
			acc = joinPatterns(acc, element)
		default:
			acc = joinPatterns(acc, p.parseTriplesBlock())
		}
	}

	return orEmpty(acc)
}

func orEmpty(p ast.GraphPattern) ast.GraphPattern {
	if p == nil {
		return ast.BasicPattern{}
	}
	return p
}

func joinPatterns(left, right ast.GraphPattern) ast.GraphPattern {
	if left == nil {
		return right
	}
	if lb, ok := left.(ast.BasicPattern); ok {
		if rb, ok := right.(ast.BasicPattern); ok {
			return ast.BasicPattern{Triples: append(append([]ast.TriplePattern{}, lb.Triples...), rb.Triples...)}
		}
	}
	return ast.JoinPattern{Left: left, Right: right}
}

func (p *Parser) parseVarOrIRI() ast.Term {
	switch p.peekToken.Type {
	case token.VAR:
		p.nextToken()
		return ast.Var{Name: p.curToken.Literal}
	case token.IRIREF:
		p.nextToken()
		return ast.IRI{Value: p.resolveIRI(p.curToken.Literal)}
	case token.PNAME:
		p.nextToken()
		return p.prefixedName(p.curToken.Literal)
	default:
		p.addError(p.peekToken.Pos, "expected variable or IRI, got %s", p.peekToken.Type)
		return nil
	}
}

func (p *Parser) prefixedName(literal string) ast.PrefixedName {
	colon := strings.Index(literal, ":")
	if colon < 0 {
		return ast.PrefixedName{Local: literal}
	}
	return ast.PrefixedName{Prefix: literal[:colon], Local: literal[colon+1:]}
}

// parseInlineData parses a VALUES block with the current token on VALUES.
func (p *Parser) parseInlineData() ast.ValuesPattern {
	values := ast.ValuesPattern{}

	switch p.peekToken.Type {
	case token.VAR:
		p.nextToken()
		values.Vars = []string{p.curToken.Literal}
		if !p.expectPeek(token.LBRACE) {
			return values
		}
		for !p.peekTokenIs(token.RBRACE) && !p.peekTokenIs(token.EOF) {
			p.nextToken()
			values.Rows = append(values.Rows, []ast.Term{p.parseDataTerm()})
		}
		p.expectPeek(token.RBRACE)
	case token.LPAREN:
		p.nextToken()
		for p.peekTokenIs(token.VAR) {
			p.nextToken()
			values.Vars = append(values.Vars, p.curToken.Literal)
		}
		if !p.expectPeek(token.RPAREN) {
			return values
		}
		if !p.expectPeek(token.LBRACE) {
			return values
		}
		for p.peekTokenIs(token.LPAREN) {
			p.nextToken()
			var row []ast.Term
			for !p.peekTokenIs(token.RPAREN) && !p.peekTokenIs(token.EOF) {
				p.nextToken()
				row = append(row, p.parseDataTerm())
			}
			p.expectPeek(token.RPAREN)
			if len(row) != len(values.Vars) {
				p.addError(p.curToken.Pos, "VALUES row has %d terms for %d variables", len(row), len(values.Vars))
			}
			values.Rows = append(values.Rows, row)
		}
		p.expectPeek(token.RBRACE)
	default:
		p.addError(p.peekToken.Pos, "expected variable or variable list after VALUES, got %s", p.peekToken.Type)
	}

	return values
}

// parseDataTerm parses a VALUES data entry with the current token on it. A
// nil return marks UNDEF.
func (p *Parser) parseDataTerm() ast.Term {
	switch p.curToken.Type {
	case token.UNDEF:
		return nil
	case token.IRIREF:
		return ast.IRI{Value: p.resolveIRI(p.curToken.Literal)}
	case token.PNAME:
		return p.prefixedName(p.curToken.Literal)
	case token.NUMBER:
		return ast.LiteralTerm{Literal: numberLiteral(p.curToken.Literal)}
	case token.STRING:
		return p.parseStringTerm()
	case token.TRUE:
		return ast.LiteralTerm{Literal: ast.BoolLiteral(true)}
	case token.FALSE:
		return ast.LiteralTerm{Literal: ast.BoolLiteral(false)}
	case token.QTOPEN:
		return p.parseQuotedTriple(nil)
	default:
		p.addError(p.curToken.Pos, "invalid VALUES term %s", p.curToken.Type)
		return nil
	}
}

// parseQuadBlock parses { triples (GRAPH name { triples })* } with the
// current token on the opening brace.
func (p *Parser) parseQuadBlock() []ast.Quad {
	var quads []ast.Quad
	for {
		if p.peekTokenIs(token.RBRACE) {
			p.nextToken()
			return quads
		}
		if p.peekTokenIs(token.EOF) {
			p.addError(p.peekToken.Pos, "unterminated quad block")
			return quads
		}

		p.nextToken()
		switch p.curToken.Type {
		case token.DOT:
			// optional separator
		case token.GRAPH:
			name := p.parseVarOrIRI()
			if !p.expectPeek(token.LBRACE) {
				return quads
			}
			for !p.peekTokenIs(token.RBRACE) && !p.peekTokenIs(token.EOF) {
				p.nextToken()
				if p.curTokenIs(token.DOT) {
					continue
				}
				for _, t := range p.parseTripleChunk() {
					quads = append(quads, ast.Quad{Graph: name, Triple: t})
				}
			}
			p.expectPeek(token.RBRACE)
		default:
			for _, t := range p.parseTripleChunk() {
				quads = append(quads, ast.Quad{Triple: t})
			}
		}
	}
}

// parseTripleChunk parses one triples-same-subject group into plain triples,
// rejecting property paths, which quad data cannot contain.
func (p *Parser) parseTripleChunk() []ast.TriplePattern {
	sink := &tripleSink{}
	p.parseTriplesSameSubject(sink)
	if len(sink.segments) > 0 {
		p.addError(p.curToken.Pos, "property paths are not allowed in triple data")
	}
	return sink.triples
}

// parseTripleTemplate parses a CONSTRUCT template with the current token on
// the opening brace.
func (p *Parser) parseTripleTemplate() []ast.TriplePattern {
	sink := &tripleSink{}
	for {
		if p.peekTokenIs(token.RBRACE) {
			p.nextToken()
			break
		}
		if p.peekTokenIs(token.EOF) {
			p.addError(p.peekToken.Pos, "unterminated template")
			break
		}
		p.nextToken()
		if p.curTokenIs(token.DOT) {
			continue
		}
		p.parseTriplesSameSubject(sink)
	}
	if len(sink.segments) > 0 {
		p.addError(p.curToken.Pos, "property paths are not allowed in a CONSTRUCT template")
	}
	return sink.triples
}

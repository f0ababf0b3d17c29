package parser

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/graphshape/graphshape/lib/ast"
	"github.com/graphshape/graphshape/lib/sql/lexer"
	"github.com/graphshape/graphshape/lib/token"
)

const (
	// MaxParserDepth limits recursion depth to prevent stack overflow.
	MaxParserDepth = 100
	// MaxExpressionCount limits number of expressions in lists.
	MaxExpressionCount = 1000
)

// Option configures a Parser at construction time.
type Option func(*Parser)

// WithDebug makes the parser write rule-entry traces to w. The toggle is
// per-instance; parsing is correct with or without it.
func WithDebug(w io.Writer) Option {
	return func(p *Parser) { p.debug = w }
}

// Parser consumes SQL/PGQ tokens and produces unified AST nodes.
type Parser struct {
	l      *lexer.Lexer
	errors []error
	debug  io.Writer

	curToken  token.Token
	peekToken token.Token

	depth int
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

// ParseStatement parses a top-level SQL statement.
func (p *Parser) ParseStatement() ast.Statement {
	var stmt ast.Statement

	switch p.curToken.Type {
	case token.WITH:
		with := p.parseWithClause()
		if p.curTokenIs(token.SELECT) {
			selectStmt := p.parseSelectStatement()
			if selectStmt != nil {
				selectStmt.With = with
			}
			stmt = selectStmt
		}
	case token.SELECT:
		stmt = p.parseSelectStatement()
	case token.INSERT:
		stmt = p.parseInsertStatement()
	case token.UPDATE:
		stmt = p.parseUpdateStatement()
	case token.DELETE:
		stmt = p.parseDeleteStatement()
	case token.CREATE:
		stmt = p.parseCreateGraphStatement()
	case token.DROP:
		stmt = p.parseDropGraphStatement()
	default:
		p.addError(p.curToken.Pos, "unsupported statement starting with %s", p.curToken.Type)
	}

	consumedSemicolon := p.consumeSemicolons()
	if !p.peekTokenIs(token.EOF) {
		tok := p.peekToken
		if consumedSemicolon {
			tok = p.curToken
		}
		p.addError(tok.Pos, "unexpected token %s after statement", tok.Type)
	}

	return stmt
}

func (p *Parser) consumeSemicolons() bool {
	consumed := false
	for p.curTokenIs(token.SEMICOLON) || p.peekTokenIs(token.SEMICOLON) {
		consumed = true
		p.nextToken()
	}
	return consumed
}

func (p *Parser) parseWithClause() *ast.WithClause {
	clause := &ast.WithClause{}
	if p.peekTokenIs(token.RECURSIVE) {
		p.nextToken()
		clause.Recursive = true
	}

	for {
		if !p.expectPeek(token.IDENT) {
			return clause
		}
		cte := ast.CommonTableExpression{Name: p.curToken.Literal}

		if p.peekTokenIs(token.LPAREN) {
			p.expectPeek(token.LPAREN)
			if p.expectPeek(token.IDENT) {
				cte.Columns = append(cte.Columns, p.curToken.Literal)
				for p.peekTokenIs(token.COMMA) {
					p.nextToken()
					if !p.expectPeek(token.IDENT) {
						return clause
					}
					cte.Columns = append(cte.Columns, p.curToken.Literal)
				}
			}
			if !p.expectPeek(token.RPAREN) {
				return clause
			}
		}

		if !p.expectPeek(token.AS) {
			return clause
		}
		if p.peekTokenIs(token.MATERIALIZE) {
			p.nextToken()
			cte.Materialized = true
		}
		if !p.expectPeek(token.LPAREN) {
			return clause
		}

		p.nextToken()
		switch p.curToken.Type {
		case token.WITH:
			innerWith := p.parseWithClause()
			if !p.curTokenIs(token.SELECT) {
				p.addError(p.curToken.Pos, "WITH subquery must start with SELECT, got %s", p.curToken.Type)
				return clause
			}
			cte.Select = p.parseSelectStatement()
			if cte.Select != nil {
				cte.Select.With = innerWith
			}
		case token.SELECT:
			cte.Select = p.parseSelectStatement()
		default:
			p.addError(p.curToken.Pos, "WITH subquery must start with SELECT, got %s", p.curToken.Type)
			return clause
		}

		if !p.expectPeek(token.RPAREN) {
			return clause
		}

		clause.CTEs = append(clause.CTEs, cte)

		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
			continue
		}
		break
	}

	if !p.expectPeek(token.SELECT) {
		return clause
	}
	return clause
}

func (p *Parser) parseSelectStatement() *ast.SelectQuery {
	p.depth++
	if p.depth > MaxParserDepth {
		p.addError(p.curToken.Pos, "maximum nesting depth exceeded")
		p.depth--
		return nil
	}
	defer func() { p.depth-- }()

	stmt := p.parseSelectCore()
	if stmt == nil {
		return nil
	}
	return p.parseSetOperations(stmt)
}

func (p *Parser) parseSelectCore() *ast.SelectQuery {
	p.debugf("parseSelectCore at %v", p.curToken.Pos)
	stmt := &ast.SelectQuery{}

	if p.peekTokenIs(token.DISTINCT) {
		p.nextToken()
		stmt.Distinct = true
	}

	p.nextToken()
	stmt.Columns = p.parseSelectList()

	if p.peekTokenIs(token.FROM) {
		p.expectPeek(token.FROM)
		p.nextToken()
		stmt.From = p.parseTableExpression()
	}

	if p.peekTokenIs(token.WHERE) {
		p.expectPeek(token.WHERE)
		p.nextToken()
		stmt.Where = p.parseExpression(lowest)
	}

	if p.peekTokenIs(token.GROUP) {
		p.expectPeek(token.GROUP)
		if p.expectPeek(token.BY) {
			p.nextToken()
			stmt.GroupBy = p.parseExpressionList()
		}
	}

	if p.peekTokenIs(token.HAVING) {
		p.expectPeek(token.HAVING)
		p.nextToken()
		stmt.Having = p.parseExpression(lowest)
	}

	if p.peekTokenIs(token.ORDER) {
		p.expectPeek(token.ORDER)
		if p.expectPeek(token.BY) {
			p.nextToken()
			stmt.OrderBy = p.parseOrderList()
		}
	}

	if p.peekTokenIs(token.LIMIT) {
		p.expectPeek(token.LIMIT)
		p.nextToken()
		limit := &ast.LimitClause{Count: p.parseExpression(lowest)}
		if p.peekTokenIs(token.OFFSET) {
			p.expectPeek(token.OFFSET)
			p.nextToken()
			limit.Offset = p.parseExpression(lowest)
		}
		stmt.Limit = limit
	} else if p.peekTokenIs(token.OFFSET) {
		p.expectPeek(token.OFFSET)
		p.nextToken()
		stmt.Limit = &ast.LimitClause{Offset: p.parseExpression(lowest)}
	}

	return stmt
}

func (p *Parser) parseSetOperations(stmt *ast.SelectQuery) *ast.SelectQuery {
	for {
		op, ok := p.peekSetOperator()
		if !ok {
			return stmt
		}

		p.nextToken()
		all := false
		if p.peekTokenIs(token.ALL) {
			p.nextToken()
			all = true
		}

		var right *ast.SelectQuery
		if p.peekTokenIs(token.LPAREN) {
			p.expectPeek(token.LPAREN)
			p.nextToken()
			switch p.curToken.Type {
			case token.WITH:
				with := p.parseWithClause()
				if !p.curTokenIs(token.SELECT) {
					return stmt
				}
				right = p.parseSelectStatement()
				if right != nil {
					right.With = with
				}
			case token.SELECT:
				right = p.parseSelectStatement()
			default:
				p.addError(p.curToken.Pos, "set operator requires SELECT, got %s", p.curToken.Type)
				return stmt
			}
			if !p.expectPeek(token.RPAREN) {
				return stmt
			}
		} else {
			if !p.expectPeek(token.SELECT) {
				return stmt
			}
			right = p.parseSelectStatement()
		}

		stmt.SetOps = append(stmt.SetOps, ast.SetOperation{Operator: op, All: all, Select: right})
	}
}

func (p *Parser) peekSetOperator() (ast.SetOperator, bool) {
	switch p.peekToken.Type {
	case token.UNION:
		return ast.SetOpUnion, true
	case token.INTERSECT:
		return ast.SetOpIntersect, true
	case token.EXCEPT:
		return ast.SetOpExcept, true
	default:
		return "", false
	}
}

func (p *Parser) parseSelectList() []ast.SelectItem {
	items := make([]ast.SelectItem, 0)

	for {
		var expr ast.Expr
		switch p.curToken.Type {
		case token.STAR:
			expr = &ast.StarExpr{}
		default:
			expr = p.parseExpression(lowest)
		}

		alias := p.parseAliasIfPresent()
		items = append(items, ast.SelectItem{Expr: expr, Alias: alias})

		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
			p.nextToken()
			continue
		}
		break
	}

	return items
}

func (p *Parser) parseOrderList() []ast.OrderItem {
	items := make([]ast.OrderItem, 0)

	for {
		expr := p.parseExpression(lowest)
		descending := false
		if p.peekTokenIs(token.DESC) || p.peekTokenIs(token.ASC) {
			p.nextToken()
			descending = p.curTokenIs(token.DESC)
		}
		items = append(items, ast.OrderItem{Expr: expr, Descending: descending})
		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
			p.nextToken()
			continue
		}
		break
	}

	return items
}

func (p *Parser) parseExpressionList() []ast.Expr {
	exprs := []ast.Expr{p.parseExpression(lowest)}
	for p.peekTokenIs(token.COMMA) {
		if len(exprs) >= MaxExpressionCount {
			p.addError(p.peekToken.Pos, "maximum expression count exceeded")
			break
		}
		p.nextToken()
		p.nextToken()
		exprs = append(exprs, p.parseExpression(lowest))
	}
	return exprs
}

func (p *Parser) parseAliasIfPresent() string {
	if p.peekTokenIs(token.AS) {
		p.nextToken()
		if !p.expectPeek(token.IDENT) {
			return ""
		}
		return p.curToken.Literal
	}
	if p.peekTokenIs(token.IDENT) {
		p.nextToken()
		return p.curToken.Literal
	}
	return ""
}

func (p *Parser) parseTableExpression() ast.DataSource {
	left := p.parseTableFactor()

	for {
		if !p.peekStartsJoin() {
			return left
		}

		p.nextToken()
		joinType := ast.JoinInner
		natural := false
		lateral := false

		if p.curTokenIs(token.NATURAL) {
			natural = true
			p.nextToken()
		}

		switch p.curToken.Type {
		case token.JOIN:
			// implicit INNER
		case token.INNER:
			p.expectPeek(token.JOIN)
		case token.LEFT:
			joinType = ast.JoinLeft
			if p.peekTokenIs(token.OUTER) {
				p.nextToken()
			}
			p.expectPeek(token.JOIN)
		case token.RIGHT:
			joinType = ast.JoinRight
			if p.peekTokenIs(token.OUTER) {
				p.nextToken()
			}
			p.expectPeek(token.JOIN)
		case token.FULL:
			joinType = ast.JoinFull
			if p.peekTokenIs(token.OUTER) {
				p.nextToken()
			}
			p.expectPeek(token.JOIN)
		case token.CROSS:
			joinType = ast.JoinCross
			p.expectPeek(token.JOIN)
		default:
			p.addError(p.curToken.Pos, "unexpected token %s in join", p.curToken.Type)
			return left
		}

		if p.peekTokenIs(token.LATERAL) {
			p.nextToken()
			lateral = true
		}

		p.nextToken()
		right := p.parseTableFactor()
		join := &ast.JoinSource{Left: left, Right: right, Type: joinType, Natural: natural, Lateral: lateral}
		switch {
		case p.peekTokenIs(token.ON):
			p.expectPeek(token.ON)
			p.nextToken()
			join.On = p.parseExpression(lowest)
		case p.peekTokenIs(token.USING):
			p.expectPeek(token.USING)
			if p.expectPeek(token.LPAREN) {
				for p.expectPeek(token.IDENT) {
					join.Using = append(join.Using, p.curToken.Literal)
					if !p.peekTokenIs(token.COMMA) {
						break
					}
					p.nextToken()
				}
				p.expectPeek(token.RPAREN)
			}
		}
		left = join
	}
}

func (p *Parser) peekStartsJoin() bool {
	switch p.peekToken.Type {
	case token.JOIN, token.INNER, token.LEFT, token.RIGHT, token.FULL, token.CROSS, token.NATURAL:
		return true
	default:
		return false
	}
}

func (p *Parser) parseTableFactor() ast.DataSource {
	switch p.curToken.Type {
	case token.IDENT:
		ident := p.parseQualifiedName()
		tbl := &ast.TableRef{Name: ident}
		if alias := p.parseAliasIfPresent(); alias != "" {
			tbl.Alias = alias
		}
		return tbl
	case token.GRAPHTABLE:
		return p.parseGraphTableSource()
	case token.LPAREN:
		p.nextToken()
		switch p.curToken.Type {
		case token.WITH:
			with := p.parseWithClause()
			if !p.curTokenIs(token.SELECT) {
				return nil
			}
			sub := p.parseSelectStatement()
			if sub != nil {
				sub.With = with
			}
			if !p.expectPeek(token.RPAREN) {
				return nil
			}
			return &ast.SubquerySource{Select: sub, Alias: p.parseAliasIfPresent()}
		case token.SELECT:
			sub := p.parseSelectStatement()
			if !p.expectPeek(token.RPAREN) {
				return nil
			}
			return &ast.SubquerySource{Select: sub, Alias: p.parseAliasIfPresent()}
		default:
			nested := p.parseTableExpression()
			if !p.expectPeek(token.RPAREN) {
				return nested
			}
			return nested
		}
	default:
		p.addError(p.curToken.Pos, "unexpected token %s in FROM clause", p.curToken.Type)
		return nil
	}
}

func (p *Parser) parseQualifiedName() *ast.Identifier {
	parts := []string{p.curToken.Literal}
	for p.peekTokenIs(token.DOT) {
		p.nextToken()
		if !p.expectPeek(token.IDENT) {
			return &ast.Identifier{Parts: parts}
		}
		parts = append(parts, p.curToken.Literal)
	}
	return &ast.Identifier{Parts: parts}
}

func (p *Parser) parseInsertStatement() *ast.InsertQuery {
	stmt := &ast.InsertQuery{}
	if !p.expectPeek(token.INTO) {
		return stmt
	}
	if !p.expectPeek(token.IDENT) {
		return stmt
	}
	stmt.Table = &ast.TableRef{Name: p.parseQualifiedName()}
	if p.peekTokenIs(token.LPAREN) {
		p.nextToken()
		for p.expectPeek(token.IDENT) {
			stmt.Columns = append(stmt.Columns, p.curToken.Literal)
			if !p.peekTokenIs(token.COMMA) {
				break
			}
			p.nextToken()
		}
		p.expectPeek(token.RPAREN)
	}
	if p.peekTokenIs(token.VALUES) {
		p.expectPeek(token.VALUES)
		for p.expectPeek(token.LPAREN) {
			p.nextToken()
			row := []ast.Expr{p.parseExpression(lowest)}
			for p.peekTokenIs(token.COMMA) {
				p.nextToken()
				p.nextToken()
				row = append(row, p.parseExpression(lowest))
			}
			stmt.Rows = append(stmt.Rows, row)
			if !p.expectPeek(token.RPAREN) {
				break
			}
			if p.peekTokenIs(token.COMMA) {
				p.nextToken()
				continue
			}
			break
		}
	} else if p.peekTokenIs(token.SELECT) {
		p.nextToken()
		stmt.Select = p.parseSelectStatement()
	}
	return stmt
}

func (p *Parser) parseUpdateStatement() *ast.UpdateQuery {
	stmt := &ast.UpdateQuery{}
	if !p.expectPeek(token.IDENT) {
		return stmt
	}
	stmt.Table = &ast.TableRef{Name: p.parseQualifiedName()}
	if alias := p.parseAliasIfPresent(); alias != "" {
		stmt.Table.Alias = alias
	}
	if !p.expectPeek(token.SET) {
		return stmt
	}
	p.nextToken()
	stmt.Assignments = append(stmt.Assignments, p.parseAssignment())
	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		stmt.Assignments = append(stmt.Assignments, p.parseAssignment())
	}
	if p.peekTokenIs(token.WHERE) {
		p.expectPeek(token.WHERE)
		p.nextToken()
		stmt.Where = p.parseExpression(lowest)
	}
	return stmt
}

func (p *Parser) parseAssignment() ast.Assignment {
	name := p.parseQualifiedName()
	if !p.expectPeek(token.EQ) {
		return ast.Assignment{Column: name}
	}
	p.nextToken()
	value := p.parseExpression(lowest)
	return ast.Assignment{Column: name, Value: value}
}

func (p *Parser) parseDeleteStatement() *ast.DeleteQuery {
	stmt := &ast.DeleteQuery{}
	if !p.expectPeek(token.FROM) {
		return stmt
	}
	if !p.expectPeek(token.IDENT) {
		return stmt
	}
	stmt.Table = &ast.TableRef{Name: p.parseQualifiedName()}
	if alias := p.parseAliasIfPresent(); alias != "" {
		stmt.Table.Alias = alias
	}
	if p.peekTokenIs(token.WHERE) {
		p.expectPeek(token.WHERE)
		p.nextToken()
		stmt.Where = p.parseExpression(lowest)
	}
	return stmt
}

const (
	_ int = iota
	lowest
	precedenceOr
	precedenceAnd
	precedenceNot
	precedenceComparison
	precedenceSum
	precedenceProduct
	precedencePrefix
	precedenceCall
)

var precedences = map[token.Type]int{
	token.OR:      precedenceOr,
	token.AND:     precedenceAnd,
	token.NOT:     precedenceComparison,
	token.EQ:      precedenceComparison,
	token.NEQ:     precedenceComparison,
	token.LT:      precedenceComparison,
	token.LTE:     precedenceComparison,
	token.GT:      precedenceComparison,
	token.GTE:     precedenceComparison,
	token.IN:      precedenceComparison,
	token.BETWEEN: precedenceComparison,
	token.LIKE:    precedenceComparison,
	token.IS:      precedenceComparison,
	token.PLUS:    precedenceSum,
	token.MINUS:   precedenceSum,
	token.STAR:    precedenceProduct,
	token.SLASH:   precedenceProduct,
	token.PERCENT: precedenceProduct,
	token.DOT:     precedenceCall,
	token.LPAREN:  precedenceCall,
}

func (p *Parser) peekPrecedence() int {
	if prec, ok := precedences[p.peekToken.Type]; ok {
		return prec
	}
	return lowest
}

func (p *Parser) curPrecedence() int {
	if prec, ok := precedences[p.curToken.Type]; ok {
		return prec
	}
	return lowest
}

func (p *Parser) parseExpression(precedence int) ast.Expr {
	p.depth++
	if p.depth > MaxParserDepth {
		p.addError(p.curToken.Pos, "expression nesting too deep")
		p.depth--
		return nil
	}
	defer func() { p.depth-- }()

	var left ast.Expr

	switch p.curToken.Type {
	case token.IDENT:
		left = p.parseQualifiedName()
	case token.NUMBER:
		left = &ast.LiteralExpr{Value: numberLiteral(p.curToken.Literal)}
	case token.STRING:
		left = &ast.LiteralExpr{Value: ast.StringLiteral(p.curToken.Literal)}
	case token.TRUE:
		left = &ast.LiteralExpr{Value: ast.BoolLiteral(true)}
	case token.FALSE:
		left = &ast.LiteralExpr{Value: ast.BoolLiteral(false)}
	case token.NULL:
		left = &ast.LiteralExpr{Value: ast.NullLiteral()}
	case token.STAR:
		left = &ast.StarExpr{}
	case token.PLUS:
		// Unary plus is the identity and reduces to its operand.
		p.nextToken()
		left = p.parseExpression(precedencePrefix)
	case token.MINUS:
		p.nextToken()
		expr := p.parseExpression(precedencePrefix)
		left = &ast.UnaryExpr{Operator: "-", Expr: expr}
	case token.NOT:
		if p.peekTokenIs(token.EXISTS) {
			p.nextToken()
			left = p.parseExistsExpression(true)
		} else {
			p.nextToken()
			expr := p.parseExpression(precedencePrefix)
			left = &ast.UnaryExpr{Operator: "NOT", Expr: expr}
		}
	case token.CASE:
		left = p.parseCaseExpression()
	case token.LPAREN:
		p.nextToken()
		if p.curTokenIs(token.SELECT) {
			sub := p.parseSelectStatement()
			if !p.expectPeek(token.RPAREN) {
				return nil
			}
			left = &ast.SubqueryExpr{Select: sub}
		} else {
			expr := p.parseExpression(lowest)
			if !p.expectPeek(token.RPAREN) {
				return expr
			}
			left = expr
		}
	case token.EXISTS:
		left = p.parseExistsExpression(false)
	default:
		p.addError(p.curToken.Pos, "unexpected token %s", p.curToken.Type)
		return nil
	}

	for !terminatesExpression(p.peekToken.Type) {
		prec := p.peekPrecedence()
		if precedence >= prec {
			break
		}

		p.nextToken()
		left = p.parseInfixExpression(left)
	}

	return left
}

func numberLiteral(lit string) ast.Literal {
	if !strings.ContainsAny(lit, ".eE") {
		if v, err := strconv.ParseInt(lit, 10, 64); err == nil {
			return ast.IntLiteral(v)
		}
	}
	v, _ := strconv.ParseFloat(lit, 64)
	return ast.DoubleLiteral(v)
}

func terminatesExpression(t token.Type) bool {
	switch t {
	case token.SEMICOLON, token.COMMA, token.RPAREN, token.RBRACKET, token.RBRACE,
		token.GROUP, token.ORDER, token.LIMIT, token.OFFSET, token.HAVING,
		token.UNION, token.INTERSECT, token.EXCEPT,
		token.WHEN, token.THEN, token.ELSE, token.END, token.COLUMNS:
		return true
	default:
		return false
	}
}

func (p *Parser) parseExistsExpression(negate bool) ast.Expr {
	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	p.nextToken()
	sub := p.parseSelectStatement()
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	return &ast.ExistsExpr{Not: negate, Subquery: sub}
}

func (p *Parser) parseCaseExpression() ast.Expr {
	expr := &ast.CaseExpr{}
	if !p.peekTokenIs(token.WHEN) {
		p.nextToken()
		expr.Operand = p.parseExpression(lowest)
	}
	for p.peekTokenIs(token.WHEN) {
		p.nextToken()
		p.nextToken()
		when := ast.WhenClause{Condition: p.parseExpression(lowest)}
		if !p.expectPeek(token.THEN) {
			return expr
		}
		p.nextToken()
		when.Result = p.parseExpression(lowest)
		expr.Whens = append(expr.Whens, when)
	}
	if p.peekTokenIs(token.ELSE) {
		p.nextToken()
		p.nextToken()
		expr.Else = p.parseExpression(lowest)
	}
	p.expectPeek(token.END)
	return expr
}

func (p *Parser) parseInfixExpression(left ast.Expr) ast.Expr {
	switch p.curToken.Type {
	case token.PLUS, token.MINUS, token.STAR, token.SLASH, token.PERCENT,
		token.EQ, token.NEQ, token.LT, token.LTE, token.GT, token.GTE,
		token.AND, token.OR:
		operator := strings.ToUpper(p.curToken.Literal)
		precedence := p.curPrecedence()
		p.nextToken()
		right := p.parseExpression(precedence)
		return &ast.BinaryExpr{Left: left, Operator: operator, Right: right}
	case token.IN:
		return p.parseInExpression(left, false)
	case token.LIKE:
		return p.parseLikeExpression(left, false)
	case token.BETWEEN:
		return p.parseBetweenExpression(left, false)
	case token.IS:
		return p.parseIsNullExpression(left)
	case token.NOT:
		switch {
		case p.peekTokenIs(token.IN):
			p.nextToken()
			return p.parseInExpression(left, true)
		case p.peekTokenIs(token.LIKE):
			p.nextToken()
			return p.parseLikeExpression(left, true)
		case p.peekTokenIs(token.BETWEEN):
			p.nextToken()
			return p.parseBetweenExpression(left, true)
		default:
			operator := "NOT"
			precedence := p.curPrecedence()
			p.nextToken()
			right := p.parseExpression(precedence)
			return &ast.BinaryExpr{Left: left, Operator: operator, Right: right}
		}
	case token.LPAREN:
		ident, ok := left.(*ast.Identifier)
		if !ok {
			return left
		}
		return p.parseCallExpression(ident)
	case token.DOT:
		ident, ok := left.(*ast.Identifier)
		if !ok {
			return left
		}
		p.nextToken()
		if p.curTokenIs(token.STAR) {
			return &ast.StarExpr{Table: ident}
		}
		if !p.curTokenIs(token.IDENT) {
			p.addError(p.curToken.Pos, "expected identifier after '.', got %s", p.curToken.Type)
			return left
		}
		parts := append(append([]string{}, ident.Parts...), p.curToken.Literal)
		return &ast.Identifier{Parts: parts}
	default:
		return left
	}
}

var aggregateFuncs = map[string]ast.AggregateFunc{
	"COUNT":        ast.AggCount,
	"SUM":          ast.AggSum,
	"AVG":          ast.AggAvg,
	"MIN":          ast.AggMin,
	"MAX":          ast.AggMax,
	"GROUP_CONCAT": ast.AggGroupConcat,
}

// builtinFuncs holds the recognized scalar built-ins. Matching is
// case-insensitive; recognized names are canonicalized to upper case, and
// anything else stays a generic call with its spelling preserved.
var builtinFuncs = map[string]struct{}{
	"ABS": {}, "CEIL": {}, "FLOOR": {}, "ROUND": {},
	"COALESCE": {}, "NULLIF": {},
	"UPPER": {}, "LOWER": {}, "LENGTH": {}, "SUBSTR": {}, "CONCAT": {},
	"REPLACE": {}, "TRIM": {}, "REGEX": {},
}

// parseCallExpression parses a function or aggregate invocation with the
// current token on '('.
func (p *Parser) parseCallExpression(ident *ast.Identifier) ast.Expr {
	name := strings.Join(ident.Parts, ".")
	upper := strings.ToUpper(name)

	if agg, ok := aggregateFuncs[upper]; ok && len(ident.Parts) == 1 {
		return p.parseAggregateCall(agg)
	}

	if _, ok := builtinFuncs[upper]; ok && len(ident.Parts) == 1 {
		ident = &ast.Identifier{Parts: []string{upper}}
	}

	call := &ast.FuncCall{Name: *ident}
	if p.peekTokenIs(token.RPAREN) {
		p.expectPeek(token.RPAREN)
		return call
	}
	p.nextToken()
	call.Args = append(call.Args, p.parseExpression(lowest))
	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		call.Args = append(call.Args, p.parseExpression(lowest))
	}
	p.expectPeek(token.RPAREN)
	return call
}

func (p *Parser) parseAggregateCall(agg ast.AggregateFunc) ast.Expr {
	expr := &ast.AggregateExpr{Func: agg}
	if p.peekTokenIs(token.RPAREN) {
		p.addError(p.peekToken.Pos, "aggregate %s requires an argument", agg)
		p.nextToken()
		return expr
	}
	p.nextToken()
	if p.curTokenIs(token.DISTINCT) {
		expr.Distinct = true
		p.nextToken()
	}
	if p.curTokenIs(token.STAR) {
		expr.Star = true
	} else {
		expr.Arg = p.parseExpression(lowest)
	}
	if agg == ast.AggGroupConcat && p.peekTokenIs(token.COMMA) {
		p.nextToken()
		if p.expectPeek(token.STRING) {
			expr.Separator = p.curToken.Literal
		}
	}
	p.expectPeek(token.RPAREN)
	return expr
}

func (p *Parser) parseInExpression(left ast.Expr, not bool) ast.Expr {
	expr := &ast.InExpr{Expr: left, Not: not}
	if !p.expectPeek(token.LPAREN) {
		return expr
	}
	p.nextToken()
	if p.curTokenIs(token.SELECT) {
		expr.Subquery = p.parseSelectStatement()
		if !p.expectPeek(token.RPAREN) {
			return expr
		}
		return expr
	}
	expr.List = append(expr.List, p.parseExpression(lowest))
	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		expr.List = append(expr.List, p.parseExpression(lowest))
	}
	p.expectPeek(token.RPAREN)
	return expr
}

func (p *Parser) parseLikeExpression(left ast.Expr, not bool) ast.Expr {
	p.nextToken()
	pattern := p.parseExpression(precedenceComparison)
	return &ast.LikeExpr{Expr: left, Not: not, Pattern: pattern}
}

func (p *Parser) parseBetweenExpression(left ast.Expr, not bool) ast.Expr {
	between := &ast.BetweenExpr{Expr: left, Not: not}
	p.nextToken()
	between.Lower = p.parseExpression(precedenceComparison)
	if !p.expectPeek(token.AND) {
		return between
	}
	p.nextToken()
	between.Upper = p.parseExpression(precedenceComparison)
	return between
}

func (p *Parser) parseIsNullExpression(left ast.Expr) ast.Expr {
	not := false
	if p.peekTokenIs(token.NOT) {
		p.nextToken()
		not = true
	}
	if !p.expectPeek(token.NULL) {
		return left
	}
	return &ast.IsNullExpr{Expr: left, Not: not}
}

package parser

import (
	"strconv"
	"strings"

	"github.com/graphshape/graphshape/lib/ast"
	"github.com/graphshape/graphshape/lib/token"
)

const (
	_ int = iota
	lowest
	precedenceOr
	precedenceAnd
	precedenceComparison
	precedenceSum
	precedenceProduct
	precedencePrefix
)

var precedences = map[token.Type]int{
	token.OR:    precedenceOr,
	token.AND:   precedenceAnd,
	token.EQ:    precedenceComparison,
	token.NEQ:   precedenceComparison,
	token.LT:    precedenceComparison,
	token.LTE:   precedenceComparison,
	token.GT:    precedenceComparison,
	token.GTE:   precedenceComparison,
	token.IN:    precedenceComparison,
	token.NOT:   precedenceComparison,
	token.PLUS:  precedenceSum,
	token.MINUS: precedenceSum,
	token.STAR:  precedenceProduct,
	token.SLASH: precedenceProduct,
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

// aggregateFuncs maps recognized aggregate spellings, case-insensitively, to
// their canonical forms.
var aggregateFuncs = map[string]ast.AggregateFunc{
	"COUNT":        ast.AggCount,
	"SUM":          ast.AggSum,
	"AVG":          ast.AggAvg,
	"MIN":          ast.AggMin,
	"MAX":          ast.AggMax,
	"SAMPLE":       ast.AggSample,
	"GROUP_CONCAT": ast.AggGroupConcat,
}

// builtinFuncs holds the SPARQL built-in call names, including the 1.2
// additions for base direction and triple terms. Recognized spellings
// canonicalize to upper case; anything else remains a generic call with its
// spelling preserved.
var builtinFuncs = map[string]struct{}{
	"STR": {}, "LANG": {}, "LANGMATCHES": {}, "LANGDIR": {}, "DATATYPE": {},
	"BOUND": {}, "IRI": {}, "URI": {}, "BNODE": {}, "RAND": {},
	"ABS": {}, "CEIL": {}, "FLOOR": {}, "ROUND": {},
	"CONCAT": {}, "STRLEN": {}, "UCASE": {}, "LCASE": {},
	"ENCODE_FOR_URI": {}, "CONTAINS": {}, "STRSTARTS": {}, "STRENDS": {},
	"STRBEFORE": {}, "STRAFTER": {},
	"YEAR": {}, "MONTH": {}, "DAY": {}, "HOURS": {}, "MINUTES": {},
	"SECONDS": {}, "TIMEZONE": {}, "TZ": {}, "NOW": {},
	"UUID": {}, "STRUUID": {},
	"MD5": {}, "SHA1": {}, "SHA256": {}, "SHA384": {}, "SHA512": {},
	"COALESCE": {}, "IF": {}, "STRLANG": {}, "STRLANGDIR": {}, "STRDT": {},
	"SAMETERM": {}, "ISIRI": {}, "ISURI": {}, "ISBLANK": {}, "ISLITERAL": {},
	"ISNUMERIC": {}, "REGEX": {}, "SUBSTR": {}, "REPLACE": {},
	"HASLANG": {}, "HASLANGDIR": {},
	"TRIPLE": {}, "SUBJECT": {}, "PREDICATE": {}, "OBJECT": {}, "ISTRIPLE": {},
}

// parseExpression parses a SPARQL expression with the current token on its
// first token, using precedence climbing.
func (p *Parser) parseExpression(precedence int) ast.Expr {
	p.depth++
	if p.depth > MaxParserDepth {
		p.addError(p.curToken.Pos, "expression nesting too deep")
		p.depth--
		return nil
	}
	defer func() { p.depth-- }()

	left := p.parseUnaryExpression()

	for {
		// A signed numeric literal directly after an operand is an
		// additive operation: the sign stays attached to the number at the
		// lexical level, so ?x-3 subtracts 3 from ?x.
		if p.peekTokenIs(token.NUMBER) && isSignedNumber(p.peekToken.Literal) && precedence < precedenceSum {
			p.nextToken()
			lit := p.curToken.Literal
			operator := "+"
			if lit[0] == '-' {
				operator = "-"
			}
			right := ast.Expr(&ast.LiteralExpr{Value: numberLiteral(lit[1:])})
			for p.peekTokenIs(token.STAR) || p.peekTokenIs(token.SLASH) {
				p.nextToken()
				mulOp := p.curToken.Literal
				p.nextToken()
				right = &ast.BinaryExpr{Left: right, Operator: mulOp, Right: p.parseUnaryExpression()}
			}
			left = &ast.BinaryExpr{Left: left, Operator: operator, Right: right}
			continue
		}

		prec := p.peekPrecedence()
		if precedence >= prec {
			return left
		}
		p.nextToken()
		left = p.parseInfixExpression(left)
	}
}

func isSignedNumber(lit string) bool {
	return lit != "" && (lit[0] == '+' || lit[0] == '-')
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

func (p *Parser) parseUnaryExpression() ast.Expr {
	switch p.curToken.Type {
	case token.BANG:
		p.nextToken()
		return &ast.UnaryExpr{Operator: "!", Expr: p.parseUnaryExpression()}
	case token.MINUS:
		p.nextToken()
		return &ast.UnaryExpr{Operator: "-", Expr: p.parseUnaryExpression()}
	case token.PLUS:
		// Unary plus is the identity and reduces to its operand.
		p.nextToken()
		return p.parseUnaryExpression()
	default:
		return p.parsePrimaryExpression()
	}
}

func (p *Parser) parsePrimaryExpression() ast.Expr {
	switch p.curToken.Type {
	case token.VAR:
		return &ast.VarRef{Name: p.curToken.Literal}
	case token.NUMBER:
		return &ast.LiteralExpr{Value: numberLiteral(p.curToken.Literal)}
	case token.STRING:
		term := p.parseStringTerm()
		if lt, ok := term.(ast.LiteralTerm); ok {
			return &ast.LiteralExpr{Value: lt.Literal}
		}
		return &ast.TermExpr{Term: term}
	case token.TRUE:
		return &ast.LiteralExpr{Value: ast.BoolLiteral(true)}
	case token.FALSE:
		return &ast.LiteralExpr{Value: ast.BoolLiteral(false)}
	case token.LPAREN:
		p.nextToken()
		expr := p.parseExpression(lowest)
		p.expectPeek(token.RPAREN)
		return expr
	case token.EXISTS:
		return p.parseExistsExpression(false)
	case token.NOT:
		if !p.expectPeek(token.EXISTS) {
			return nil
		}
		return p.parseExistsExpression(true)
	case token.IDENT:
		return p.parseCallExpression(p.curToken.Literal)
	case token.IRIREF:
		iri := p.resolveIRI(p.curToken.Literal)
		if p.peekTokenIs(token.LPAREN) {
			// Custom function call by IRI; the angle-bracketed spelling is
			// kept so the call serializes back unchanged.
			return p.parseArgsFor(&ast.FuncCall{Name: ast.Identifier{Parts: []string{"<" + iri + ">"}}})
		}
		return &ast.TermExpr{Term: ast.IRI{Value: iri}}
	case token.PNAME:
		name := p.curToken.Literal
		if p.peekTokenIs(token.LPAREN) {
			return p.parseArgsFor(&ast.FuncCall{Name: ast.Identifier{Parts: []string{name}}})
		}
		return &ast.TermExpr{Term: p.prefixedName(name)}
	case token.QTOPEN:
		return &ast.TermExpr{Term: p.parseQuotedTriple(nil)}
	default:
		p.addError(p.curToken.Pos, "unexpected token %s in expression", p.curToken.Type)
		return nil
	}
}

func (p *Parser) parseInfixExpression(left ast.Expr) ast.Expr {
	switch p.curToken.Type {
	case token.OR, token.AND, token.EQ, token.NEQ, token.LT, token.LTE,
		token.GT, token.GTE, token.PLUS, token.MINUS, token.STAR, token.SLASH:
		operator := p.curToken.Literal
		precedence := p.curPrecedence()
		p.nextToken()
		return &ast.BinaryExpr{Left: left, Operator: operator, Right: p.parseExpression(precedence)}
	case token.IN:
		return p.parseInList(left, false)
	case token.NOT:
		if !p.expectPeek(token.IN) {
			return left
		}
		return p.parseInList(left, true)
	default:
		return left
	}
}

func (p *Parser) parseInList(left ast.Expr, not bool) ast.Expr {
	expr := &ast.InExpr{Expr: left, Not: not}
	if !p.expectPeek(token.LPAREN) {
		return expr
	}
	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		return expr
	}
	p.nextToken()
	expr.List = append(expr.List, p.parseExpression(lowest))
	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		expr.List = append(expr.List, p.parseExpression(lowest))
	}
	p.expectPeek(token.RPAREN)
	return expr
}

// parseExistsExpression parses [NOT] EXISTS { pattern } with the current
// token on EXISTS.
func (p *Parser) parseExistsExpression(not bool) ast.Expr {
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	return &ast.ExistsExpr{Not: not, Pattern: p.parseGroupGraphPattern()}
}

// parseCallExpression parses an aggregate or built-in call with the current
// token on the function name.
func (p *Parser) parseCallExpression(name string) ast.Expr {
	upper := strings.ToUpper(name)

	if agg, ok := aggregateFuncs[upper]; ok {
		return p.parseAggregateCall(agg)
	}

	if _, ok := builtinFuncs[upper]; ok {
		name = upper
	}
	call := &ast.FuncCall{Name: ast.Identifier{Parts: []string{name}}}
	if !p.peekTokenIs(token.LPAREN) {
		p.addError(p.peekToken.Pos, "expected argument list after %s", name)
		return call
	}
	return p.parseArgsFor(call)
}

// parseArgsFor parses the argument list of call, with '(' as the peek token.
func (p *Parser) parseArgsFor(call *ast.FuncCall) ast.Expr {
	p.nextToken()
	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
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

// parseAggregateCall parses an aggregate invocation, including COUNT(*),
// DISTINCT arguments, and the GROUP_CONCAT separator clause.
func (p *Parser) parseAggregateCall(agg ast.AggregateFunc) ast.Expr {
	expr := &ast.AggregateExpr{Func: agg}
	if !p.expectPeek(token.LPAREN) {
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

	if agg == ast.AggGroupConcat && p.peekTokenIs(token.SEMICOLON) {
		p.nextToken()
		if !p.expectPeek(token.IDENT) {
			return expr
		}
		if !strings.EqualFold(p.curToken.Literal, "SEPARATOR") {
			p.addError(p.curToken.Pos, "expected SEPARATOR, got %q", p.curToken.Literal)
			return expr
		}
		if !p.expectPeek(token.EQ) {
			return expr
		}
		if !p.expectPeek(token.STRING) {
			return expr
		}
		expr.Separator = p.curToken.Literal
	}

	p.expectPeek(token.RPAREN)
	return expr
}

package parser

import (
	"strings"

	"github.com/graphshape/graphshape/lib/ast"
	"github.com/graphshape/graphshape/lib/token"
)

// tripleSink accumulates the output of the triples grammar in source order.
// Plain triples merge into basic patterns; property-path triples become
// separate segments so the algebra keeps them distinct.
type tripleSink struct {
	triples  []ast.TriplePattern
	segments []ast.GraphPattern
}

func (s *tripleSink) addTriple(t ast.TriplePattern) {
	s.triples = append(s.triples, t)
}

func (s *tripleSink) addPath(pp ast.PropertyPathPattern) {
	s.flush()
	s.segments = append(s.segments, pp)
}

func (s *tripleSink) flush() {
	if len(s.triples) > 0 {
		s.segments = append(s.segments, ast.BasicPattern{Triples: s.triples})
		s.triples = nil
	}
}

func (s *tripleSink) pattern() ast.GraphPattern {
	s.flush()
	if len(s.segments) == 0 {
		return ast.BasicPattern{}
	}
	acc := s.segments[0]
	for _, seg := range s.segments[1:] {
		acc = ast.JoinPattern{Left: acc, Right: seg}
	}
	return acc
}

// parseTriplesBlock parses consecutive triples-same-subject groups with the
// current token on the first subject token. Dot separators between groups
// are optional; a trailing dot is allowed.
func (p *Parser) parseTriplesBlock() ast.GraphPattern {
	sink := &tripleSink{}
	for {
		p.parseTriplesSameSubject(sink)
		if p.peekTokenIs(token.DOT) {
			p.nextToken()
		}
		if p.peekStartsTriples() {
			p.nextToken()
			continue
		}
		break
	}
	return sink.pattern()
}

func (p *Parser) peekStartsTriples() bool {
	switch p.peekToken.Type {
	case token.VAR, token.IRIREF, token.PNAME, token.BLANK, token.NUMBER,
		token.STRING, token.TRUE, token.FALSE, token.LBRACKET, token.LPAREN,
		token.QTOPEN:
		return true
	default:
		return false
	}
}

func (p *Parser) peekStartsVerb() bool {
	switch p.peekToken.Type {
	case token.VAR, token.IRIREF, token.PNAME, token.A, token.BANG,
		token.CARET, token.LPAREN:
		return true
	default:
		return false
	}
}

// parseTriplesSameSubject parses one subject and its predicate-object list
// with the current token on the subject's first token.
func (p *Parser) parseTriplesSameSubject(sink *tripleSink) {
	if p.curTokenIs(token.LBRACKET) {
		subject, hadProperties := p.parseBlankNodePropertyList(sink)
		if p.peekStartsVerb() {
			p.nextToken()
			p.parsePredicateObjectList(subject, sink)
		} else if !hadProperties {
			p.addError(p.curToken.Pos, "blank node has neither properties nor a predicate-object list")
		}
		return
	}

	subject := p.parseObject(sink)
	if !p.peekStartsVerb() {
		p.addError(p.peekToken.Pos, "expected predicate, got %s", p.peekToken.Type)
		return
	}
	p.nextToken()
	p.parsePredicateObjectList(subject, sink)
}

// parsePredicateObjectList parses verb-object groups separated by ';' with
// objects separated by ','. A trailing semicolon is allowed. The current
// token is on the first verb token.
func (p *Parser) parsePredicateObjectList(subject ast.Term, sink *tripleSink) {
	p.depth++
	if p.depth > MaxParserDepth {
		p.addError(p.curToken.Pos, "triple nesting too deep")
		p.depth--
		return
	}
	defer func() { p.depth-- }()

	for {
		var predicate ast.Term
		var path ast.PropertyPath

		if p.curTokenIs(token.VAR) {
			predicate = ast.Var{Name: p.curToken.Literal}
		} else {
			parsed := p.parsePath()
			if iri, ok := parsed.(ast.PathIRI); ok {
				predicate = iri.Term
			} else {
				path = parsed
			}
		}

		for {
			p.nextToken()
			object := p.parseObject(sink)

			if path != nil {
				sink.addPath(ast.PropertyPathPattern{Subject: subject, Path: path, Object: object})
			} else {
				triple := ast.TriplePattern{Subject: subject, Predicate: predicate, Object: object}
				sink.addTriple(triple)
				if p.peekTokenIs(token.ANNOPEN) {
					p.nextToken()
					p.parseAnnotation(triple, sink)
				}
			}

			if p.peekTokenIs(token.COMMA) {
				p.nextToken()
				continue
			}
			break
		}

		if p.peekTokenIs(token.SEMICOLON) {
			p.nextToken()
			if p.peekStartsVerb() {
				p.nextToken()
				continue
			}
		}
		return
	}
}

// parseAnnotation desugars an RDF-star annotation block: each entry becomes
// a triple whose subject is the quoted form of the annotated triple. The
// current token is on '{|'.
func (p *Parser) parseAnnotation(base ast.TriplePattern, sink *tripleSink) {
	subject := ast.QuotedTriple{Subject: base.Subject, Predicate: base.Predicate, Object: base.Object}
	if !p.peekStartsVerb() {
		p.addError(p.peekToken.Pos, "annotation block requires a predicate-object list")
		return
	}
	p.nextToken()
	p.parsePredicateObjectList(subject, sink)
	p.expectPeek(token.ANNCLOSE)
}

// parseObject parses one term in subject or object position with the current
// token on its first token, including the forms that synthesize triples:
// blank node property lists and collections.
func (p *Parser) parseObject(sink *tripleSink) ast.Term {
	switch p.curToken.Type {
	case token.LBRACKET:
		if sink == nil {
			p.addError(p.curToken.Pos, "blank node property list is not allowed here")
			return nil
		}
		node, _ := p.parseBlankNodePropertyList(sink)
		return node
	case token.LPAREN:
		if sink == nil {
			p.addError(p.curToken.Pos, "collection is not allowed here")
			return nil
		}
		return p.parseCollection(sink)
	default:
		return p.parseTerm(sink)
	}
}

// parseTerm parses a simple term or quoted/reified triple with the current
// token on it.
func (p *Parser) parseTerm(sink *tripleSink) ast.Term {
	switch p.curToken.Type {
	case token.VAR:
		return ast.Var{Name: p.curToken.Literal}
	case token.IRIREF:
		return ast.IRI{Value: p.resolveIRI(p.curToken.Literal)}
	case token.PNAME:
		return p.prefixedName(p.curToken.Literal)
	case token.BLANK:
		return ast.BlankNode{ID: p.curToken.Literal}
	case token.NUMBER:
		return ast.LiteralTerm{Literal: numberLiteral(p.curToken.Literal)}
	case token.STRING:
		return p.parseStringTerm()
	case token.TRUE:
		return ast.LiteralTerm{Literal: ast.BoolLiteral(true)}
	case token.FALSE:
		return ast.LiteralTerm{Literal: ast.BoolLiteral(false)}
	case token.A:
		return ast.IRI{Value: ast.RDFType}
	case token.QTOPEN:
		return p.parseQuotedTriple(sink)
	default:
		p.addError(p.curToken.Pos, "expected RDF term, got %s", p.curToken.Type)
		return nil
	}
}

// parseStringTerm parses a string literal and its optional language tag
// (with base direction) or datatype suffix, with the current token on the
// string.
func (p *Parser) parseStringTerm() ast.Term {
	value := p.curToken.Literal

	switch p.peekToken.Type {
	case token.LANGTAG:
		p.nextToken()
		tag := p.curToken.Literal
		if i := strings.Index(tag, "--"); i >= 0 {
			lang, dir := tag[:i], tag[i+2:]
			if dir != string(ast.DirLTR) && dir != string(ast.DirRTL) {
				p.addError(p.curToken.Pos, "invalid base direction %q: must be ltr or rtl", dir)
				return ast.LiteralTerm{Literal: ast.LangLiteral(value, lang)}
			}
			return ast.LiteralTerm{Literal: ast.DirLangLiteral(value, lang, ast.Direction(dir))}
		}
		return ast.LiteralTerm{Literal: ast.LangLiteral(value, tag)}
	case token.DTYPE:
		p.nextToken()
		switch p.peekToken.Type {
		case token.IRIREF:
			p.nextToken()
			return ast.LiteralTerm{Literal: ast.TypedLiteral(value, p.resolveIRI(p.curToken.Literal))}
		case token.PNAME:
			p.nextToken()
			return ast.LiteralTerm{Literal: ast.TypedLiteral(value, p.curToken.Literal)}
		default:
			p.addError(p.peekToken.Pos, "expected datatype IRI after ^^, got %s", p.peekToken.Type)
			return ast.LiteralTerm{Literal: ast.StringLiteral(value)}
		}
	}

	return ast.LiteralTerm{Literal: ast.StringLiteral(value)}
}

// parseBlankNodePropertyList parses [ predicateObjectList ] with the current
// token on '['. It allocates a fresh blank node and reports whether the list
// carried any properties.
func (p *Parser) parseBlankNodePropertyList(sink *tripleSink) (ast.BlankNode, bool) {
	node := p.newBlank()
	if p.peekTokenIs(token.RBRACKET) {
		p.nextToken()
		return node, false
	}
	p.nextToken()
	p.parsePredicateObjectList(node, sink)
	p.expectPeek(token.RBRACKET)
	return node, true
}

// parseCollection parses an RDF collection with the current token on '('.
// The empty collection is rdf:nil; n elements synthesize 2n list triples.
func (p *Parser) parseCollection(sink *tripleSink) ast.Term {
	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		return ast.IRI{Value: ast.RDFNil}
	}

	var elements []ast.Term
	for !p.peekTokenIs(token.RPAREN) && !p.peekTokenIs(token.EOF) {
		p.nextToken()
		elements = append(elements, p.parseObject(sink))
	}
	p.expectPeek(token.RPAREN)

	head := p.newBlank()
	node := head
	for i, el := range elements {
		sink.addTriple(ast.TriplePattern{Subject: node, Predicate: ast.IRI{Value: ast.RDFFirst}, Object: el})
		rest := ast.Term(ast.IRI{Value: ast.RDFNil})
		if i < len(elements)-1 {
			next := p.newBlank()
			rest = next
			sink.addTriple(ast.TriplePattern{Subject: node, Predicate: ast.IRI{Value: ast.RDFRest}, Object: next})
			node = next
			continue
		}
		sink.addTriple(ast.TriplePattern{Subject: node, Predicate: ast.IRI{Value: ast.RDFRest}, Object: rest})
	}
	return head
}

// parseQuotedTriple parses the RDF-star forms with the current token on '<<':
// a triple term <<( s p o )>>, a quoted triple << s p o >>, or a reified
// triple << s p o ~reifier >>.
func (p *Parser) parseQuotedTriple(sink *tripleSink) ast.Term {
	p.depth++
	if p.depth > MaxParserDepth {
		p.addError(p.curToken.Pos, "triple term nesting too deep")
		p.depth--
		return nil
	}
	defer func() { p.depth-- }()

	if p.peekTokenIs(token.LPAREN) {
		p.nextToken()
		p.nextToken()
		subject := p.parseTerm(sink)
		p.nextToken()
		predicate := p.parseVerbTerm()
		p.nextToken()
		object := p.parseTerm(sink)
		p.expectPeek(token.RPAREN)
		p.expectPeek(token.QTCLOSE)
		return ast.QuotedTriple{Subject: subject, Predicate: predicate, Object: object}
	}

	p.nextToken()
	subject := p.parseTerm(sink)
	p.nextToken()
	predicate := p.parseVerbTerm()
	p.nextToken()
	object := p.parseTerm(sink)

	if p.peekTokenIs(token.TILDE) {
		p.nextToken()
		var reifier ast.Term
		if !p.peekTokenIs(token.QTCLOSE) {
			p.nextToken()
			reifier = p.parseTerm(sink)
		}
		p.expectPeek(token.QTCLOSE)
		return ast.ReifiedTriple{Subject: subject, Predicate: predicate, Object: object, Reifier: reifier}
	}

	p.expectPeek(token.QTCLOSE)
	return ast.QuotedTriple{Subject: subject, Predicate: predicate, Object: object}
}

// parseVerbTerm parses a predicate-position term: a variable, IRI, prefixed
// name, or the "a" shorthand.
func (p *Parser) parseVerbTerm() ast.Term {
	switch p.curToken.Type {
	case token.VAR:
		return ast.Var{Name: p.curToken.Literal}
	case token.IRIREF:
		return ast.IRI{Value: p.resolveIRI(p.curToken.Literal)}
	case token.PNAME:
		return p.prefixedName(p.curToken.Literal)
	case token.A:
		return ast.IRI{Value: ast.RDFType}
	default:
		p.addError(p.curToken.Pos, "expected predicate, got %s", p.curToken.Type)
		return nil
	}
}

// parsePath parses a property path with the current token on its first
// token. Alternatives bind loosest, then sequences, then inverse, then the
// quantifier suffixes.
func (p *Parser) parsePath() ast.PropertyPath {
	p.depth++
	if p.depth > MaxParserDepth {
		p.addError(p.curToken.Pos, "path nesting too deep")
		p.depth--
		return nil
	}
	defer func() { p.depth-- }()

	left := p.parsePathSequence()
	for p.peekTokenIs(token.PIPE) {
		p.nextToken()
		p.nextToken()
		left = ast.AlternativePath{Left: left, Right: p.parsePathSequence()}
	}
	return left
}

func (p *Parser) parsePathSequence() ast.PropertyPath {
	left := p.parsePathEltOrInverse()
	for p.peekTokenIs(token.SLASH) {
		p.nextToken()
		p.nextToken()
		left = ast.SequencePath{Left: left, Right: p.parsePathEltOrInverse()}
	}
	return left
}

func (p *Parser) parsePathEltOrInverse() ast.PropertyPath {
	if p.curTokenIs(token.CARET) {
		p.nextToken()
		return ast.InversePath{Path: p.parsePathElt()}
	}
	return p.parsePathElt()
}

func (p *Parser) parsePathElt() ast.PropertyPath {
	primary := p.parsePathPrimary()
	switch p.peekToken.Type {
	case token.QUESTION:
		p.nextToken()
		return ast.ZeroOrOnePath{Path: primary}
	case token.STAR:
		p.nextToken()
		return ast.ZeroOrMorePath{Path: primary}
	case token.PLUS:
		p.nextToken()
		return ast.OneOrMorePath{Path: primary}
	default:
		return primary
	}
}

func (p *Parser) parsePathPrimary() ast.PropertyPath {
	switch p.curToken.Type {
	case token.A:
		return ast.PathIRI{Term: ast.IRI{Value: ast.RDFType}}
	case token.IRIREF:
		return ast.PathIRI{Term: ast.IRI{Value: p.resolveIRI(p.curToken.Literal)}}
	case token.PNAME:
		return ast.PathIRI{Term: p.prefixedName(p.curToken.Literal)}
	case token.BANG:
		return p.parseNegatedPath()
	case token.LPAREN:
		p.nextToken()
		inner := p.parsePath()
		p.expectPeek(token.RPAREN)
		return inner
	default:
		p.addError(p.curToken.Pos, "expected property path, got %s", p.curToken.Type)
		return nil
	}
}

// parseNegatedPath parses !member or !(member|member|...) with the current
// token on '!'.
func (p *Parser) parseNegatedPath() ast.PropertyPath {
	neg := ast.NegatedPath{}
	if p.peekTokenIs(token.LPAREN) {
		p.nextToken()
		p.nextToken()
		neg.Paths = append(neg.Paths, p.parseNegatedMember())
		for p.peekTokenIs(token.PIPE) {
			p.nextToken()
			p.nextToken()
			neg.Paths = append(neg.Paths, p.parseNegatedMember())
		}
		p.expectPeek(token.RPAREN)
		return neg
	}
	p.nextToken()
	neg.Paths = append(neg.Paths, p.parseNegatedMember())
	return neg
}

func (p *Parser) parseNegatedMember() ast.PropertyPath {
	if p.curTokenIs(token.CARET) {
		p.nextToken()
		return ast.InversePath{Path: p.parseNegatedIRI()}
	}
	return p.parseNegatedIRI()
}

func (p *Parser) parseNegatedIRI() ast.PropertyPath {
	switch p.curToken.Type {
	case token.A:
		return ast.PathIRI{Term: ast.IRI{Value: ast.RDFType}}
	case token.IRIREF:
		return ast.PathIRI{Term: ast.IRI{Value: p.resolveIRI(p.curToken.Literal)}}
	case token.PNAME:
		return ast.PathIRI{Term: p.prefixedName(p.curToken.Literal)}
	default:
		p.addError(p.curToken.Pos, "negated property set members must be IRIs, got %s", p.curToken.Type)
		return nil
	}
}

package lexer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/graphshape/graphshape/lib/token"
)

// Lexer converts SPARQL query text into a stream of tokens. It shares the
// token model with the SQL profile but recognizes the Turtle-derived lexical
// forms: IRIs, prefixed names, variables, blank node labels, language tags
// with optional base direction, and long (triple-quoted) string literals.
type Lexer struct {
	input        string
	position     int
	readPosition int
	ch           rune
	line         int
	column       int
}

// New creates a new Lexer instance.
func New(input string) *Lexer {
	l := &Lexer{input: input, line: 1}
	l.readRune()
	return l
}

// NextToken advances and returns the next token. Malformed input never
// panics: an ILLEGAL token carries a diagnostic message, which the parser
// converts into a positioned lexical error.
func (l *Lexer) NextToken() token.Token {
	l.skipWhitespaceAndComments()

	startPos := l.pos()
	tok := token.Token{Type: token.ILLEGAL, Literal: string(l.ch), Pos: startPos}

	switch l.ch {
	case 0:
		tok.Type = token.EOF
		tok.Literal = ""
		return tok
	case ',':
		tok = l.makeSimple(token.COMMA, startPos)
	case ';':
		tok = l.makeSimple(token.SEMICOLON, startPos)
	case '(':
		tok = l.makeSimple(token.LPAREN, startPos)
	case ')':
		tok = l.makeSimple(token.RPAREN, startPos)
	case '[':
		tok = l.makeSimple(token.LBRACKET, startPos)
	case ']':
		tok = l.makeSimple(token.RBRACKET, startPos)
	case '{':
		if l.peekRune() == '|' {
			l.readRune()
			tok = token.Token{Type: token.ANNOPEN, Literal: "{|", Pos: startPos}
		} else {
			tok = l.makeSimple(token.LBRACE, startPos)
		}
	case '}':
		tok = l.makeSimple(token.RBRACE, startPos)
	case '.':
		if unicode.IsDigit(l.peekRune()) {
			return l.readNumber(startPos)
		}
		tok = l.makeSimple(token.DOT, startPos)
	case '*':
		tok = l.makeSimple(token.STAR, startPos)
	case '/':
		tok = l.makeSimple(token.SLASH, startPos)
	case '%':
		tok = l.makeSimple(token.PERCENT, startPos)
	case '~':
		tok = l.makeSimple(token.TILDE, startPos)
	case '=':
		tok = l.makeSimple(token.EQ, startPos)
	case '+':
		if l.startsNumber() {
			return l.readNumber(startPos)
		}
		tok = l.makeSimple(token.PLUS, startPos)
	case '-':
		if l.startsNumber() {
			return l.readNumber(startPos)
		}
		tok = l.makeSimple(token.MINUS, startPos)
	case '|':
		switch l.peekRune() {
		case '|':
			l.readRune()
			tok = token.Token{Type: token.OR, Literal: "||", Pos: startPos}
		case '}':
			l.readRune()
			tok = token.Token{Type: token.ANNCLOSE, Literal: "|}", Pos: startPos}
		default:
			tok = l.makeSimple(token.PIPE, startPos)
		}
	case '&':
		if l.peekRune() == '&' {
			l.readRune()
			tok = token.Token{Type: token.AND, Literal: "&&", Pos: startPos}
		}
	case '!':
		if l.peekRune() == '=' {
			l.readRune()
			tok = token.Token{Type: token.NEQ, Literal: "!=", Pos: startPos}
		} else {
			tok = l.makeSimple(token.BANG, startPos)
		}
	case '^':
		if l.peekRune() == '^' {
			l.readRune()
			tok = token.Token{Type: token.DTYPE, Literal: "^^", Pos: startPos}
		} else {
			tok = l.makeSimple(token.CARET, startPos)
		}
	case '>':
		switch l.peekRune() {
		case '=':
			l.readRune()
			tok = token.Token{Type: token.GTE, Literal: ">=", Pos: startPos}
		case '>':
			l.readRune()
			tok = token.Token{Type: token.QTCLOSE, Literal: ">>", Pos: startPos}
		default:
			tok = l.makeSimple(token.GT, startPos)
		}
	case '<':
		switch l.peekRune() {
		case '=':
			l.readRune()
			tok = token.Token{Type: token.LTE, Literal: "<=", Pos: startPos}
		case '<':
			l.readRune()
			tok = token.Token{Type: token.QTOPEN, Literal: "<<", Pos: startPos}
		default:
			if iri, ok, bad := l.tryReadIRI(); bad != "" {
				return token.Token{Type: token.ILLEGAL, Literal: bad, Pos: startPos}
			} else if ok {
				return token.Token{Type: token.IRIREF, Literal: iri, Pos: startPos}
			}
			tok = l.makeSimple(token.LT, startPos)
		}
	case '?', '$':
		if isNameStart(l.peekRune()) || unicode.IsDigit(l.peekRune()) {
			l.readRune()
			name := l.readName()
			return token.Token{Type: token.VAR, Literal: name, Pos: startPos}
		}
		tok = l.makeSimple(token.QUESTION, startPos)
	case '@':
		l.readRune()
		tag := l.readLangTag()
		if tag == "" {
			return token.Token{Type: token.ILLEGAL, Literal: "empty language tag", Pos: startPos}
		}
		return token.Token{Type: token.LANGTAG, Literal: tag, Pos: startPos}
	case '_':
		if l.peekRune() == ':' {
			l.readRune()
			l.readRune()
			label := l.readName()
			if label == "" {
				return token.Token{Type: token.ILLEGAL, Literal: "empty blank node label", Pos: startPos}
			}
			return token.Token{Type: token.BLANK, Literal: label, Pos: startPos}
		}
		return l.readWord(startPos)
	case '\'', '"':
		return l.readStringLiteral(startPos)
	case ':':
		// Prefixed name with the empty prefix.
		l.readRune()
		local := l.readLocalName()
		return token.Token{Type: token.PNAME, Literal: ":" + local, Pos: startPos}
	default:
		if isNameStart(l.ch) {
			return l.readWord(startPos)
		}
		if unicode.IsDigit(l.ch) {
			return l.readNumber(startPos)
		}
	}

	l.readRune()
	return tok
}

// readWord reads an identifier and classifies it as a prefixed name, the "a"
// keyword, a SPARQL keyword, or a plain identifier.
func (l *Lexer) readWord(startPos token.Position) token.Token {
	word := l.readName()
	if l.ch == ':' {
		l.readRune()
		local := l.readLocalName()
		return token.Token{Type: token.PNAME, Literal: word + ":" + local, Pos: startPos}
	}
	if word == "a" {
		return token.Token{Type: token.A, Literal: "a", Pos: startPos}
	}
	upper := strings.ToUpper(word)
	if t := token.LookupSPARQL(upper); t != token.IDENT {
		return token.Token{Type: t, Literal: upper, Pos: startPos}
	}
	return token.Token{Type: token.IDENT, Literal: word, Pos: startPos}
}

// startsNumber reports whether the rune after a +/- sign begins a numeric
// literal; signed numbers keep their sign attached, per the SPARQL grammar.
func (l *Lexer) startsNumber() bool {
	next := l.peekRune()
	if unicode.IsDigit(next) {
		return true
	}
	if next == '.' {
		r, _ := utf8.DecodeRuneInString(l.input[l.readPosition+1:])
		return unicode.IsDigit(r)
	}
	return false
}

func (l *Lexer) readNumber(startPos token.Position) token.Token {
	start := l.position
	if l.ch == '+' || l.ch == '-' {
		l.readRune()
	}
	for unicode.IsDigit(l.ch) {
		l.readRune()
	}
	if l.ch == '.' && unicode.IsDigit(l.peekRune()) {
		l.readRune()
		for unicode.IsDigit(l.ch) {
			l.readRune()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		mark := l.position
		l.readRune()
		if l.ch == '+' || l.ch == '-' {
			l.readRune()
		}
		if !unicode.IsDigit(l.ch) {
			return token.Token{Type: token.ILLEGAL, Literal: "malformed double literal " + l.input[start:mark+1], Pos: startPos}
		}
		for unicode.IsDigit(l.ch) {
			l.readRune()
		}
	}
	return token.Token{Type: token.NUMBER, Literal: l.input[start:l.position], Pos: startPos}
}

// tryReadIRI attempts to read an IRIREF after the current '<'. It returns
// ok=false without consuming input when the bracketed region cannot be an
// IRI (whitespace before any '>'), so '<' falls through to the less-than
// operator. The third return value is a diagnostic for malformed escapes.
func (l *Lexer) tryReadIRI() (string, bool, string) {
	// Scan ahead on raw bytes first.
	i := l.readPosition
	for {
		if i >= len(l.input) {
			return "", false, ""
		}
		r, size := utf8.DecodeRuneInString(l.input[i:])
		if r == '>' {
			break
		}
		if r == '<' || r == '"' || unicode.IsSpace(r) {
			return "", false, ""
		}
		i += size
	}

	var builder strings.Builder
	for {
		l.readRune()
		switch l.ch {
		case '>':
			l.readRune()
			return builder.String(), true, ""
		case '\\':
			r, ok := l.readUnicodeEscape()
			if !ok {
				return "", true, "invalid escape sequence in IRI"
			}
			builder.WriteRune(r)
		default:
			builder.WriteRune(l.ch)
		}
	}
}

// readUnicodeEscape decodes \uXXXX or \UXXXXXXXX with l.ch on the backslash.
func (l *Lexer) readUnicodeEscape() (rune, bool) {
	l.readRune()
	var width int
	switch l.ch {
	case 'u':
		width = 4
	case 'U':
		width = 8
	default:
		return 0, false
	}
	var value rune
	for i := 0; i < width; i++ {
		l.readRune()
		d := hexDigit(l.ch)
		if d < 0 {
			return 0, false
		}
		value = value<<4 | rune(d)
	}
	if !utf8.ValidRune(value) {
		return 0, false
	}
	return value, true
}

func hexDigit(r rune) int {
	switch {
	case r >= '0' && r <= '9':
		return int(r - '0')
	case r >= 'a' && r <= 'f':
		return int(r-'a') + 10
	case r >= 'A' && r <= 'F':
		return int(r-'A') + 10
	}
	return -1
}

// readStringLiteral reads a short or long (triple-quoted) string with the
// current rune on the opening quote.
func (l *Lexer) readStringLiteral(startPos token.Position) token.Token {
	quote := l.ch
	long := false
	if l.peekRune() == quote {
		// Either an empty string or the start of a long string.
		l.readRune()
		if l.peekRune() == quote {
			l.readRune()
			long = true
		} else {
			l.readRune()
			return token.Token{Type: token.STRING, Literal: "", Pos: startPos}
		}
	}

	var builder strings.Builder
	for {
		l.readRune()
		switch l.ch {
		case 0:
			return token.Token{Type: token.ILLEGAL, Literal: "unterminated string literal", Pos: startPos}
		case '\n':
			if !long {
				return token.Token{Type: token.ILLEGAL, Literal: "unterminated string literal", Pos: startPos}
			}
			builder.WriteRune(l.ch)
		case quote:
			if !long {
				l.readRune()
				return token.Token{Type: token.STRING, Literal: builder.String(), Pos: startPos}
			}
			if l.peekRune() == quote {
				l.readRune()
				if l.peekRune() == quote {
					l.readRune()
					l.readRune()
					return token.Token{Type: token.STRING, Literal: builder.String(), Pos: startPos}
				}
				builder.WriteRune(quote)
				builder.WriteRune(quote)
			} else {
				builder.WriteRune(quote)
			}
		case '\\':
			switch l.peekRune() {
			case 't':
				builder.WriteRune('\t')
				l.readRune()
			case 'n':
				builder.WriteRune('\n')
				l.readRune()
			case 'r':
				builder.WriteRune('\r')
				l.readRune()
			case 'b':
				builder.WriteRune('\b')
				l.readRune()
			case 'f':
				builder.WriteRune('\f')
				l.readRune()
			case '"':
				builder.WriteRune('"')
				l.readRune()
			case '\'':
				builder.WriteRune('\'')
				l.readRune()
			case '\\':
				builder.WriteRune('\\')
				l.readRune()
			case 'u', 'U':
				r, ok := l.readUnicodeEscape()
				if !ok {
					return token.Token{Type: token.ILLEGAL, Literal: "invalid escape sequence in string literal", Pos: startPos}
				}
				builder.WriteRune(r)
				// readUnicodeEscape leaves l.ch on the final hex digit,
				// matching the single-character escape cases above.
			default:
				return token.Token{Type: token.ILLEGAL, Literal: "invalid escape sequence in string literal", Pos: startPos}
			}
		default:
			builder.WriteRune(l.ch)
		}
	}
}

// readLangTag reads a BCP 47-style tag, permitting the SPARQL 1.2 base
// direction suffix (en--ltr). The current rune is the first tag character.
func (l *Lexer) readLangTag() string {
	start := l.position
	for unicode.IsLetter(l.ch) || unicode.IsDigit(l.ch) || l.ch == '-' {
		l.readRune()
	}
	return l.input[start:l.position]
}

// readName reads a plain name (identifier or variable name).
func (l *Lexer) readName() string {
	start := l.position
	for isNamePart(l.ch) {
		l.readRune()
	}
	return l.input[start:l.position]
}

// readLocalName reads the local part of a prefixed name. Dots are permitted
// inside but not at the end, per the PN_LOCAL production.
func (l *Lexer) readLocalName() string {
	start := l.position
	for isNamePart(l.ch) || (l.ch == '.' && isNamePart(l.peekRune())) {
		l.readRune()
	}
	return l.input[start:l.position]
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		for unicode.IsSpace(l.ch) {
			l.readRune()
		}
		if l.ch == '#' {
			for l.ch != '\n' && l.ch != 0 {
				l.readRune()
			}
			continue
		}
		return
	}
}

func (l *Lexer) pos() token.Position {
	return token.Position{Line: l.line, Column: l.column, Offset: l.position}
}

func (l *Lexer) makeSimple(t token.Type, pos token.Position) token.Token {
	return token.Token{Type: t, Literal: string(l.ch), Pos: pos}
}

func (l *Lexer) readRune() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.position = l.readPosition
		return
	}
	r, size := utf8.DecodeRuneInString(l.input[l.readPosition:])
	l.position = l.readPosition
	l.readPosition += size
	l.ch = r
	if r == '\n' {
		l.line++
		l.column = 0
	} else {
		l.column++
	}
}

func (l *Lexer) peekRune() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

func isNameStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isNamePart(r rune) bool {
	return r == '_' || r == '-' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

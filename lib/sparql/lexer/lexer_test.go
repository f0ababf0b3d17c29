package lexer

import (
	"strings"
	"testing"

	"github.com/graphshape/graphshape/lib/token"
)

func TestNextTokenSelect(t *testing.T) {
	input := `PREFIX foaf: <http://xmlns.com/foaf/0.1/>
SELECT ?name WHERE {
  ?person a foaf:Person ;
          foaf:name ?name .
}`

	expected := []token.Token{
		{Type: token.PREFIX, Literal: "PREFIX"},
		{Type: token.PNAME, Literal: "foaf:"},
		{Type: token.IRIREF, Literal: "http://xmlns.com/foaf/0.1/"},
		{Type: token.SELECT, Literal: "SELECT"},
		{Type: token.VAR, Literal: "name"},
		{Type: token.WHERE, Literal: "WHERE"},
		{Type: token.LBRACE, Literal: "{"},
		{Type: token.VAR, Literal: "person"},
		{Type: token.A, Literal: "a"},
		{Type: token.PNAME, Literal: "foaf:Person"},
		{Type: token.SEMICOLON, Literal: ";"},
		{Type: token.PNAME, Literal: "foaf:name"},
		{Type: token.VAR, Literal: "name"},
		{Type: token.DOT, Literal: "."},
		{Type: token.RBRACE, Literal: "}"},
		{Type: token.EOF, Literal: ""},
	}

	l := New(input)
	for i, exp := range expected {
		tok := l.NextToken()
		if tok.Type != exp.Type || tok.Literal != exp.Literal {
			t.Fatalf("token[%d] - expected %#v, got %#v", i, exp, tok)
		}
	}
}

func TestNextTokenKeywordsCaseInsensitive(t *testing.T) {
	l := New(`select Where filter OPTIONAL`)
	expected := []token.Token{
		{Type: token.SELECT, Literal: "SELECT"},
		{Type: token.WHERE, Literal: "WHERE"},
		{Type: token.FILTER, Literal: "FILTER"},
		{Type: token.OPTIONAL, Literal: "OPTIONAL"},
		{Type: token.EOF, Literal: ""},
	}
	for i, exp := range expected {
		tok := l.NextToken()
		if tok.Type != exp.Type || tok.Literal != exp.Literal {
			t.Fatalf("token[%d] - expected %#v, got %#v", i, exp, tok)
		}
	}
}

func TestNextTokenVariablesAndBlanks(t *testing.T) {
	l := New(`?x $y _:b1 :local ?x-3`)
	expected := []token.Token{
		{Type: token.VAR, Literal: "x"},
		{Type: token.VAR, Literal: "y"},
		{Type: token.BLANK, Literal: "b1"},
		{Type: token.PNAME, Literal: ":local"},
		// '-' is a name character, so the sign folds into the variable name.
		{Type: token.VAR, Literal: "x-3"},
		{Type: token.EOF, Literal: ""},
	}
	for i, exp := range expected {
		tok := l.NextToken()
		if tok.Type != exp.Type || tok.Literal != exp.Literal {
			t.Fatalf("token[%d] - expected %#v, got %#v", i, exp, tok)
		}
	}
}

func TestNextTokenNumbers(t *testing.T) {
	l := New(`42 +5 -3.2 .5 1e3 -1.5E-2`)
	expected := []string{"42", "+5", "-3.2", ".5", "1e3", "-1.5E-2"}
	for i, exp := range expected {
		tok := l.NextToken()
		if tok.Type != token.NUMBER || tok.Literal != exp {
			t.Fatalf("token[%d] - expected NUMBER %q, got %s %q", i, exp, tok.Type, tok.Literal)
		}
	}
}

func TestNextTokenMalformedDouble(t *testing.T) {
	l := New(`1e+`)
	tok := l.NextToken()
	if tok.Type != token.ILLEGAL {
		t.Fatalf("expected ILLEGAL, got %s %q", tok.Type, tok.Literal)
	}
	if !strings.Contains(tok.Literal, "malformed double literal") {
		t.Fatalf("unexpected diagnostic %q", tok.Literal)
	}
}

func TestNextTokenOperators(t *testing.T) {
	l := New(`&& || != ! ^^ ^ << >> {| |} <= >= < > ~`)
	expected := []token.Type{
		token.AND, token.OR, token.NEQ, token.BANG,
		token.DTYPE, token.CARET,
		token.QTOPEN, token.QTCLOSE,
		token.ANNOPEN, token.ANNCLOSE,
		token.LTE, token.GTE, token.LT, token.GT, token.TILDE,
		token.EOF,
	}
	for i, exp := range expected {
		tok := l.NextToken()
		if tok.Type != exp {
			t.Fatalf("token[%d] - expected %s, got %s (%q)", i, exp, tok.Type, tok.Literal)
		}
	}
}

func TestNextTokenIRIVersusLessThan(t *testing.T) {
	l := New(`<http://example.org/x>`)
	tok := l.NextToken()
	if tok.Type != token.IRIREF || tok.Literal != "http://example.org/x" {
		t.Fatalf("expected IRIREF, got %s %q", tok.Type, tok.Literal)
	}

	// Whitespace inside the bracketed region means it cannot be an IRI, so
	// '<' is the comparison operator.
	l = New(`?x < 3`)
	expected := []token.Type{token.VAR, token.LT, token.NUMBER, token.EOF}
	for i, exp := range expected {
		tok := l.NextToken()
		if tok.Type != exp {
			t.Fatalf("token[%d] - expected %s, got %s (%q)", i, exp, tok.Type, tok.Literal)
		}
	}
}

func TestNextTokenIRIUnicodeEscape(t *testing.T) {
	l := New("<http://example.org/\\u00E9>")
	tok := l.NextToken()
	if tok.Type != token.IRIREF || tok.Literal != "http://example.org/é" {
		t.Fatalf("expected decoded IRIREF, got %s %q", tok.Type, tok.Literal)
	}
}

func TestNextTokenStrings(t *testing.T) {
	l := New(`'simple' "double" "esc\t\"q\"" '' """long
string""" '''it's long'''`)
	expected := []string{
		"simple",
		"double",
		"esc\t\"q\"",
		"",
		"long\nstring",
		"it's long",
	}
	for i, exp := range expected {
		tok := l.NextToken()
		if tok.Type != token.STRING || tok.Literal != exp {
			t.Fatalf("token[%d] - expected STRING %q, got %s %q", i, exp, tok.Type, tok.Literal)
		}
	}
}

func TestNextTokenUnterminatedString(t *testing.T) {
	l := New(`"open`)
	tok := l.NextToken()
	if tok.Type != token.ILLEGAL || tok.Literal != "unterminated string literal" {
		t.Fatalf("expected ILLEGAL, got %s %q", tok.Type, tok.Literal)
	}

	l = New("\"line\nbreak\"")
	tok = l.NextToken()
	if tok.Type != token.ILLEGAL {
		t.Fatalf("newline in short string: expected ILLEGAL, got %s %q", tok.Type, tok.Literal)
	}
}

func TestNextTokenLangTags(t *testing.T) {
	l := New(`"chat"@en "chat"@en--ltr`)

	tok := l.NextToken()
	if tok.Type != token.STRING {
		t.Fatalf("expected STRING, got %s", tok.Type)
	}
	tok = l.NextToken()
	if tok.Type != token.LANGTAG || tok.Literal != "en" {
		t.Fatalf("expected LANGTAG en, got %s %q", tok.Type, tok.Literal)
	}

	tok = l.NextToken()
	if tok.Type != token.STRING {
		t.Fatalf("expected STRING, got %s", tok.Type)
	}
	tok = l.NextToken()
	if tok.Type != token.LANGTAG || tok.Literal != "en--ltr" {
		t.Fatalf("expected LANGTAG en--ltr, got %s %q", tok.Type, tok.Literal)
	}
}

func TestNextTokenComments(t *testing.T) {
	l := New(`SELECT # trailing comment
?x`)
	expected := []token.Type{token.SELECT, token.VAR, token.EOF}
	for i, exp := range expected {
		tok := l.NextToken()
		if tok.Type != exp {
			t.Fatalf("token[%d] - expected %s, got %s (%q)", i, exp, tok.Type, tok.Literal)
		}
	}
}

func TestNextTokenPrefixedNameWithDots(t *testing.T) {
	l := New(`ex:a.b.c .`)
	tok := l.NextToken()
	if tok.Type != token.PNAME || tok.Literal != "ex:a.b.c" {
		t.Fatalf("expected PNAME ex:a.b.c, got %s %q", tok.Type, tok.Literal)
	}
	tok = l.NextToken()
	if tok.Type != token.DOT {
		t.Fatalf("expected DOT, got %s %q", tok.Type, tok.Literal)
	}
}

func TestTokenPositions(t *testing.T) {
	l := New("SELECT\n  ?x")
	tok := l.NextToken()
	if tok.Pos.Line != 1 || tok.Pos.Column != 1 {
		t.Fatalf("SELECT at line %d column %d", tok.Pos.Line, tok.Pos.Column)
	}
	tok = l.NextToken()
	if tok.Pos.Line != 2 || tok.Pos.Column != 3 {
		t.Fatalf("?x at line %d column %d", tok.Pos.Line, tok.Pos.Column)
	}
}

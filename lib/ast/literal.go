package ast

// LiteralKind discriminates the Literal union.
type LiteralKind int

const (
	LitNull LiteralKind = iota
	LitInt
	LitDouble
	LitString
	LitBool
	LitLang    // string with language tag
	LitDirLang // string with language tag and base direction
	LitTyped   // string with datatype IRI
)

// Direction is the base direction of a directional language-tagged literal.
type Direction string

const (
	DirLTR Direction = "ltr"
	DirRTL Direction = "rtl"
)

// Literal is the tagged union over all literal value forms shared by the two
// dialects. Values are immutable once constructed; equality is structural
// (plain == works because every field is comparable).
type Literal struct {
	Kind     LiteralKind
	Int      int64
	Double   float64
	Str      string
	Bool     bool
	Lang     string
	Dir      Direction
	Datatype string
}

func NullLiteral() Literal            { return Literal{Kind: LitNull} }
func IntLiteral(v int64) Literal      { return Literal{Kind: LitInt, Int: v} }
func DoubleLiteral(v float64) Literal { return Literal{Kind: LitDouble, Double: v} }
func StringLiteral(v string) Literal  { return Literal{Kind: LitString, Str: v} }
func BoolLiteral(v bool) Literal      { return Literal{Kind: LitBool, Bool: v} }

// LangLiteral builds a language-tagged string literal.
func LangLiteral(v, lang string) Literal {
	return Literal{Kind: LitLang, Str: v, Lang: lang}
}

// DirLangLiteral builds a language-tagged string literal with an explicit base
// direction, per SPARQL 1.2.
func DirLangLiteral(v, lang string, dir Direction) Literal {
	return Literal{Kind: LitDirLang, Str: v, Lang: lang, Dir: dir}
}

// TypedLiteral builds a literal with an explicit datatype IRI.
func TypedLiteral(v, datatype string) Literal {
	return Literal{Kind: LitTyped, Str: v, Datatype: datatype}
}

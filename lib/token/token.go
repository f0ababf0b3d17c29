package token

// Type identifies the lexical class of a token.
type Type string

// Position points to a location in the source query text. Line and Column are
// 1-based; Offset is the byte offset from the start of the input.
type Position struct {
	Line   int
	Column int
	Offset int
}

// Token holds the type, literal representation, and source location. Both
// lexical profiles (SQL-like and SPARQL-like) produce this same token shape.
type Token struct {
	Type    Type
	Literal string
	Pos     Position
}

// Token types shared by both profiles.
const (
	ILLEGAL Type = "ILLEGAL"
	EOF     Type = "EOF"

	IDENT  Type = "IDENT"
	NUMBER Type = "NUMBER"
	STRING Type = "STRING"

	COMMA     Type = ","
	SEMICOLON Type = ";"
	COLON     Type = ":"
	LPAREN    Type = "("
	RPAREN    Type = ")"
	LBRACKET  Type = "["
	RBRACKET  Type = "]"
	LBRACE    Type = "{"
	RBRACE    Type = "}"
	DOT       Type = "."
	STAR      Type = "*"
	PLUS      Type = "+"
	MINUS     Type = "-"
	SLASH     Type = "/"
	PERCENT   Type = "%"
	CARET     Type = "^"
	PIPE      Type = "|"
	BANG      Type = "!"
	QUESTION  Type = "?"
	TILDE     Type = "~"
	EQ        Type = "="
	NEQ       Type = "NEQ"
	LT        Type = "<"
	LTE       Type = "<="
	GT        Type = ">"
	GTE       Type = ">="

	// Graph pattern punctuation (SQL/PGQ edge arrows, RDF-star brackets).
	ARROW    Type = "->"
	LARROW   Type = "<-"
	QTOPEN   Type = "<<"
	QTCLOSE  Type = ">>"
	ANNOPEN  Type = "{|"
	ANNCLOSE Type = "|}"

	// SPARQL-profile lexical forms. The literal carries the decoded payload:
	// the IRI without angle brackets, the variable name without its sigil,
	// the blank node label without the "_:" prefix, the language tag without
	// the leading "@".
	IRIREF  Type = "IRIREF"
	PNAME   Type = "PNAME"
	VAR     Type = "VAR"
	BLANK   Type = "BLANK"
	LANGTAG Type = "LANGTAG"
	DTYPE   Type = "^^"

	// Shared keywords.
	SELECT   Type = "SELECT"
	DISTINCT Type = "DISTINCT"
	WHERE    Type = "WHERE"
	FROM     Type = "FROM"
	GROUP    Type = "GROUP"
	BY       Type = "BY"
	HAVING   Type = "HAVING"
	ORDER    Type = "ORDER"
	ASC      Type = "ASC"
	DESC     Type = "DESC"
	LIMIT    Type = "LIMIT"
	OFFSET   Type = "OFFSET"
	AS       Type = "AS"
	INSERT   Type = "INSERT"
	DELETE   Type = "DELETE"
	CREATE   Type = "CREATE"
	DROP     Type = "DROP"
	UNION    Type = "UNION"
	ALL      Type = "ALL"
	NOT      Type = "NOT"
	IN       Type = "IN"
	EXISTS   Type = "EXISTS"
	TRUE     Type = "TRUE"
	FALSE    Type = "FALSE"
	GRAPH    Type = "GRAPH"
	AND      Type = "AND"
	OR       Type = "OR"

	// SQL keywords.
	UPDATE      Type = "UPDATE"
	INTO        Type = "INTO"
	VALUES      Type = "VALUES"
	SET         Type = "SET"
	IF          Type = "IF"
	WITH        Type = "WITH"
	RECURSIVE   Type = "RECURSIVE"
	MATERIALIZE Type = "MATERIALIZED"
	JOIN        Type = "JOIN"
	INNER       Type = "INNER"
	LEFT        Type = "LEFT"
	RIGHT       Type = "RIGHT"
	FULL        Type = "FULL"
	OUTER       Type = "OUTER"
	CROSS       Type = "CROSS"
	NATURAL     Type = "NATURAL"
	LATERAL     Type = "LATERAL"
	ON          Type = "ON"
	USING       Type = "USING"
	NULL        Type = "NULL"
	BETWEEN     Type = "BETWEEN"
	LIKE        Type = "LIKE"
	IS          Type = "IS"
	INTERSECT   Type = "INTERSECT"
	EXCEPT      Type = "EXCEPT"
	CASE        Type = "CASE"
	WHEN        Type = "WHEN"
	THEN        Type = "THEN"
	ELSE        Type = "ELSE"
	END         Type = "END"

	// SQL/PGQ keywords.
	PROPERTY    Type = "PROPERTY"
	GRAPHTABLE  Type = "GRAPH_TABLE"
	VERTEX      Type = "VERTEX"
	EDGE        Type = "EDGE"
	TABLE       Type = "TABLE"
	TABLES      Type = "TABLES"
	KEY         Type = "KEY"
	LABEL       Type = "LABEL"
	PROPERTIES  Type = "PROPERTIES"
	COLUMNS     Type = "COLUMNS"
	NO          Type = "NO"
	SOURCE      Type = "SOURCE"
	DESTINATION Type = "DESTINATION"
	REFERENCES  Type = "REFERENCES"
	MATCH       Type = "MATCH"
	ANY         Type = "ANY"
	SHORTEST    Type = "SHORTEST"
	WALK        Type = "WALK"
	SIMPLE      Type = "SIMPLE"
	TRAIL       Type = "TRAIL"
	ACYCLIC     Type = "ACYCLIC"

	// SPARQL keywords.
	ASK       Type = "ASK"
	CONSTRUCT Type = "CONSTRUCT"
	DESCRIBE  Type = "DESCRIBE"
	OPTIONAL  Type = "OPTIONAL"
	MINUSKW   Type = "MINUS"
	SERVICE   Type = "SERVICE"
	SILENT    Type = "SILENT"
	BIND      Type = "BIND"
	UNDEF     Type = "UNDEF"
	FILTER    Type = "FILTER"
	PREFIX    Type = "PREFIX"
	BASE      Type = "BASE"
	VERSION   Type = "VERSION"
	NAMED     Type = "NAMED"
	REDUCED   Type = "REDUCED"
	DATA      Type = "DATA"
	LOAD      Type = "LOAD"
	CLEAR     Type = "CLEAR"
	DEFAULT   Type = "DEFAULT"
	A         Type = "a"
)

var sqlKeywords = map[string]Type{
	"SELECT":       SELECT,
	"DISTINCT":     DISTINCT,
	"WHERE":        WHERE,
	"FROM":         FROM,
	"GROUP":        GROUP,
	"BY":           BY,
	"HAVING":       HAVING,
	"ORDER":        ORDER,
	"ASC":          ASC,
	"DESC":         DESC,
	"LIMIT":        LIMIT,
	"OFFSET":       OFFSET,
	"AS":           AS,
	"INSERT":       INSERT,
	"UPDATE":       UPDATE,
	"DELETE":       DELETE,
	"CREATE":       CREATE,
	"DROP":         DROP,
	"INTO":         INTO,
	"VALUES":       VALUES,
	"SET":          SET,
	"IF":           IF,
	"WITH":         WITH,
	"RECURSIVE":    RECURSIVE,
	"MATERIALIZED": MATERIALIZE,
	"JOIN":         JOIN,
	"INNER":        INNER,
	"LEFT":         LEFT,
	"RIGHT":        RIGHT,
	"FULL":         FULL,
	"OUTER":        OUTER,
	"CROSS":        CROSS,
	"NATURAL":      NATURAL,
	"LATERAL":      LATERAL,
	"ON":           ON,
	"USING":        USING,
	"AND":          AND,
	"OR":           OR,
	"NOT":          NOT,
	"NULL":         NULL,
	"TRUE":         TRUE,
	"FALSE":        FALSE,
	"IN":           IN,
	"EXISTS":       EXISTS,
	"BETWEEN":      BETWEEN,
	"LIKE":         LIKE,
	"IS":           IS,
	"UNION":        UNION,
	"INTERSECT":    INTERSECT,
	"EXCEPT":       EXCEPT,
	"ALL":          ALL,
	"CASE":         CASE,
	"WHEN":         WHEN,
	"THEN":         THEN,
	"ELSE":         ELSE,
	"END":          END,
	"PROPERTY":     PROPERTY,
	"GRAPH":        GRAPH,
	"GRAPH_TABLE":  GRAPHTABLE,
	"VERTEX":       VERTEX,
	"EDGE":         EDGE,
	"TABLE":        TABLE,
	"TABLES":       TABLES,
	"KEY":          KEY,
	"LABEL":        LABEL,
	"PROPERTIES":   PROPERTIES,
	"COLUMNS":      COLUMNS,
	"NO":           NO,
	"SOURCE":       SOURCE,
	"DESTINATION":  DESTINATION,
	"REFERENCES":   REFERENCES,
	"MATCH":        MATCH,
	"ANY":          ANY,
	"SHORTEST":     SHORTEST,
	"WALK":         WALK,
	"SIMPLE":       SIMPLE,
	"TRAIL":        TRAIL,
	"ACYCLIC":      ACYCLIC,
}

var sparqlKeywords = map[string]Type{
	"SELECT":    SELECT,
	"DISTINCT":  DISTINCT,
	"REDUCED":   REDUCED,
	"WHERE":     WHERE,
	"FROM":      FROM,
	"NAMED":     NAMED,
	"GROUP":     GROUP,
	"BY":        BY,
	"HAVING":    HAVING,
	"ORDER":     ORDER,
	"ASC":       ASC,
	"DESC":      DESC,
	"LIMIT":     LIMIT,
	"OFFSET":    OFFSET,
	"AS":        AS,
	"ASK":       ASK,
	"CONSTRUCT": CONSTRUCT,
	"DESCRIBE":  DESCRIBE,
	"OPTIONAL":  OPTIONAL,
	"UNION":     UNION,
	"MINUS":     MINUSKW,
	"GRAPH":     GRAPH,
	"SERVICE":   SERVICE,
	"SILENT":    SILENT,
	"BIND":      BIND,
	"VALUES":    VALUES,
	"UNDEF":     UNDEF,
	"FILTER":    FILTER,
	"LATERAL":   LATERAL,
	"PREFIX":    PREFIX,
	"BASE":      BASE,
	"VERSION":   VERSION,
	"INSERT":    INSERT,
	"DELETE":    DELETE,
	"DATA":      DATA,
	"LOAD":      LOAD,
	"INTO":      INTO,
	"CLEAR":     CLEAR,
	"CREATE":    CREATE,
	"DROP":      DROP,
	"DEFAULT":   DEFAULT,
	"ALL":       ALL,
	"NOT":       NOT,
	"IN":        IN,
	"EXISTS":    EXISTS,
	"TRUE":      TRUE,
	"FALSE":     FALSE,
}

// LookupSQL returns the SQL-profile keyword token for an identifier, or IDENT.
// The lookup key must already be upper-cased.
func LookupSQL(ident string) Type {
	if tok, ok := sqlKeywords[ident]; ok {
		return tok
	}
	return IDENT
}

// LookupSPARQL returns the SPARQL-profile keyword token for an identifier, or
// IDENT. SPARQL keywords are case-insensitive except for "a", which the
// lexer handles before calling here.
func LookupSPARQL(ident string) Type {
	if tok, ok := sparqlKeywords[ident]; ok {
		return tok
	}
	return IDENT
}

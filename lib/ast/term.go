package ast

import "sort"

// Term is an RDF term position in a triple pattern: variable, IRI, prefixed
// name, blank node, literal, or an RDF-star quoted/reified triple.
type Term interface {
	termNode()
}

// Var is a SPARQL variable (?name or $name); Name carries no sigil.
type Var struct {
	Name string
}

// IRI is an absolute or already-resolved IRI reference without the angle
// brackets.
type IRI struct {
	Value string
}

// PrefixedName is an unexpanded prefix:local name.
type PrefixedName struct {
	Prefix string
	Local  string
}

// BlankNode identifies a blank node. IDs generated by a parser are unique
// within that parse.
type BlankNode struct {
	ID string
}

// LiteralTerm wraps a Literal used in term position.
type LiteralTerm struct {
	Literal Literal
}

// QuotedTriple is an RDF-star triple term: << s p o >> or <<( s p o )>>.
type QuotedTriple struct {
	Subject   Term
	Predicate Term
	Object    Term
}

// ReifiedTriple is an RDF 1.2 reified triple << s p o ~reifier >>. Reifier is
// nil when the reifier is implicit.
type ReifiedTriple struct {
	Subject   Term
	Predicate Term
	Object    Term
	Reifier   Term
}

func (Var) termNode()           {}
func (IRI) termNode()           {}
func (PrefixedName) termNode()  {}
func (BlankNode) termNode()     {}
func (LiteralTerm) termNode()   {}
func (QuotedTriple) termNode()  {}
func (ReifiedTriple) termNode() {}

// TriplePattern is one subject/predicate/object pattern.
type TriplePattern struct {
	Subject   Term
	Predicate Term
	Object    Term
}

// Variables returns the sorted set of variable names appearing anywhere in
// the triple, recursing into quoted and reified terms.
func (t TriplePattern) Variables() []string {
	set := map[string]struct{}{}
	collectTermVars(t.Subject, set)
	collectTermVars(t.Predicate, set)
	collectTermVars(t.Object, set)
	return sortedVars(set)
}

func collectTermVars(term Term, set map[string]struct{}) {
	switch v := term.(type) {
	case Var:
		set[v.Name] = struct{}{}
	case QuotedTriple:
		collectTermVars(v.Subject, set)
		collectTermVars(v.Predicate, set)
		collectTermVars(v.Object, set)
	case ReifiedTriple:
		collectTermVars(v.Subject, set)
		collectTermVars(v.Predicate, set)
		collectTermVars(v.Object, set)
		if v.Reifier != nil {
			collectTermVars(v.Reifier, set)
		}
	}
}

func sortedVars(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Quad tags a triple with an optional named graph. A nil Graph means the
// default graph; there is no sentinel IRI.
type Quad struct {
	Graph  Term
	Triple TriplePattern
}

// Well-known RDF vocabulary IRIs used by collection and annotation
// desugaring.
const (
	RDFFirst = "http://www.w3.org/1999/02/22-rdf-syntax-ns#first"
	RDFRest  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#rest"
	RDFNil   = "http://www.w3.org/1999/02/22-rdf-syntax-ns#nil"
	RDFType  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"
)

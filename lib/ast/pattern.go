package ast

// GraphPattern is the SPARQL algebra tree produced by both front ends'
// graph-pattern sub-grammars.
type GraphPattern interface {
	graphPatternNode()
}

// BasicPattern is a basic graph pattern: a set of triple patterns implicitly
// conjoined.
type BasicPattern struct {
	Triples []TriplePattern
}

// JoinPattern composes two patterns sequentially.
type JoinPattern struct {
	Left  GraphPattern
	Right GraphPattern
}

// OptionalPattern is left OPTIONAL { right }.
type OptionalPattern struct {
	Left  GraphPattern
	Right GraphPattern
}

// UnionPattern is { left } UNION { right }; chains are left-associative.
type UnionPattern struct {
	Left  GraphPattern
	Right GraphPattern
}

// MinusPattern is left MINUS { right }.
type MinusPattern struct {
	Left  GraphPattern
	Right GraphPattern
}

// FilterPattern attaches a FILTER constraint to a pattern.
type FilterPattern struct {
	Base GraphPattern
	Cond Expr
}

// BindPattern is base BIND(expr AS ?var).
type BindPattern struct {
	Base GraphPattern
	Var  string
	Expr Expr
}

// ValuesPattern is an inline VALUES data block. A nil Term in a row marks an
// UNDEF binding.
type ValuesPattern struct {
	Vars []string
	Rows [][]Term
}

// GraphGraphPattern scopes a pattern to a named graph.
type GraphGraphPattern struct {
	Name  Term
	Inner GraphPattern
}

// ServicePattern delegates a pattern to a remote endpoint.
type ServicePattern struct {
	Endpoint Term
	Inner    GraphPattern
	Silent   bool
}

// SubSelectPattern embeds a sub-SELECT inside a group graph pattern.
type SubSelectPattern struct {
	Query *SelectQuery
}

// LateralPattern is left LATERAL { right }.
type LateralPattern struct {
	Left  GraphPattern
	Right GraphPattern
}

// PropertyPathPattern is a triple whose predicate position uses path syntax.
// Bare IRI predicates stay ordinary TriplePatterns.
type PropertyPathPattern struct {
	Subject Term
	Path    PropertyPath
	Object  Term
}

func (BasicPattern) graphPatternNode()        {}
func (JoinPattern) graphPatternNode()         {}
func (OptionalPattern) graphPatternNode()     {}
func (UnionPattern) graphPatternNode()        {}
func (MinusPattern) graphPatternNode()        {}
func (FilterPattern) graphPatternNode()       {}
func (BindPattern) graphPatternNode()         {}
func (ValuesPattern) graphPatternNode()       {}
func (GraphGraphPattern) graphPatternNode()   {}
func (ServicePattern) graphPatternNode()      {}
func (SubSelectPattern) graphPatternNode()    {}
func (LateralPattern) graphPatternNode()      {}
func (PropertyPathPattern) graphPatternNode() {}

// PropertyPath is the closed recursive grammar over SPARQL property paths.
type PropertyPath interface {
	propertyPathNode()
}

// PathIRI is a single predicate IRI (or prefixed name, or rdf:type for "a").
type PathIRI struct {
	Term Term
}

// InversePath is ^path.
type InversePath struct {
	Path PropertyPath
}

// SequencePath is a/b.
type SequencePath struct {
	Left  PropertyPath
	Right PropertyPath
}

// AlternativePath is a|b.
type AlternativePath struct {
	Left  PropertyPath
	Right PropertyPath
}

// ZeroOrMorePath is path*.
type ZeroOrMorePath struct {
	Path PropertyPath
}

// OneOrMorePath is path+.
type OneOrMorePath struct {
	Path PropertyPath
}

// ZeroOrOnePath is path?.
type ZeroOrOnePath struct {
	Path PropertyPath
}

// NegatedPath is a negated property set !iri or !(iri1|^iri2|...). Inverse
// members are wrapped in InversePath.
type NegatedPath struct {
	Paths []PropertyPath
}

func (PathIRI) propertyPathNode()         {}
func (InversePath) propertyPathNode()     {}
func (SequencePath) propertyPathNode()    {}
func (AlternativePath) propertyPathNode() {}
func (ZeroOrMorePath) propertyPathNode()  {}
func (OneOrMorePath) propertyPathNode()   {}
func (ZeroOrOnePath) propertyPathNode()   {}
func (NegatedPath) propertyPathNode()     {}

// Variables returns the sorted set of variables a pattern may expose.
// Variables visible only on the right side of a MINUS are excluded.
func Variables(p GraphPattern) []string {
	set := map[string]struct{}{}
	collectPatternVars(p, set)
	return sortedVars(set)
}

func collectPatternVars(p GraphPattern, set map[string]struct{}) {
	switch n := p.(type) {
	case BasicPattern:
		for _, t := range n.Triples {
			collectTermVars(t.Subject, set)
			collectTermVars(t.Predicate, set)
			collectTermVars(t.Object, set)
		}
	case JoinPattern:
		collectPatternVars(n.Left, set)
		collectPatternVars(n.Right, set)
	case OptionalPattern:
		collectPatternVars(n.Left, set)
		collectPatternVars(n.Right, set)
	case UnionPattern:
		collectPatternVars(n.Left, set)
		collectPatternVars(n.Right, set)
	case MinusPattern:
		collectPatternVars(n.Left, set)
	case FilterPattern:
		collectPatternVars(n.Base, set)
	case BindPattern:
		collectPatternVars(n.Base, set)
		set[n.Var] = struct{}{}
	case ValuesPattern:
		for _, v := range n.Vars {
			set[v] = struct{}{}
		}
	case GraphGraphPattern:
		collectTermVars(n.Name, set)
		collectPatternVars(n.Inner, set)
	case ServicePattern:
		collectTermVars(n.Endpoint, set)
		collectPatternVars(n.Inner, set)
	case SubSelectPattern:
		for _, v := range n.Query.ProjectedVariables() {
			set[v] = struct{}{}
		}
	case LateralPattern:
		collectPatternVars(n.Left, set)
		collectPatternVars(n.Right, set)
	case PropertyPathPattern:
		collectTermVars(n.Subject, set)
		collectTermVars(n.Object, set)
	}
}

// RequiredVariables returns the sorted set of variables guaranteed to be
// bound in every solution of the pattern. It is always a subset of
// Variables(p).
func RequiredVariables(p GraphPattern) []string {
	set := requiredPatternVars(p)
	return sortedVars(set)
}

func requiredPatternVars(p GraphPattern) map[string]struct{} {
	set := map[string]struct{}{}
	switch n := p.(type) {
	case BasicPattern:
		for _, t := range n.Triples {
			collectTermVars(t.Subject, set)
			collectTermVars(t.Predicate, set)
			collectTermVars(t.Object, set)
		}
	case JoinPattern:
		set = requiredPatternVars(n.Left)
		for v := range requiredPatternVars(n.Right) {
			set[v] = struct{}{}
		}
	case OptionalPattern:
		set = requiredPatternVars(n.Left)
	case UnionPattern:
		left := requiredPatternVars(n.Left)
		right := requiredPatternVars(n.Right)
		for v := range left {
			if _, ok := right[v]; ok {
				set[v] = struct{}{}
			}
		}
	case MinusPattern:
		set = requiredPatternVars(n.Left)
	case FilterPattern:
		set = requiredPatternVars(n.Base)
	case BindPattern:
		set = requiredPatternVars(n.Base)
		set[n.Var] = struct{}{}
	case ValuesPattern:
		// A variable is required only when no row leaves it UNDEF.
		for i, v := range n.Vars {
			bound := true
			for _, row := range n.Rows {
				if i >= len(row) || row[i] == nil {
					bound = false
					break
				}
			}
			if bound && len(n.Rows) > 0 {
				set[v] = struct{}{}
			}
		}
	case GraphGraphPattern:
		set = requiredPatternVars(n.Inner)
	case ServicePattern:
		set = requiredPatternVars(n.Inner)
	case SubSelectPattern:
		for _, v := range n.Query.ProjectedVariables() {
			set[v] = struct{}{}
		}
	case LateralPattern:
		set = requiredPatternVars(n.Left)
		for v := range requiredPatternVars(n.Right) {
			set[v] = struct{}{}
		}
	case PropertyPathPattern:
		collectTermVars(n.Subject, set)
		collectTermVars(n.Object, set)
	}
	return set
}

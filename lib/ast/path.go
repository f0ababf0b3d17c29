package ast

import "sort"

// EdgeDirection enumerates resolved edge directions in a path pattern.
type EdgeDirection string

const (
	DirectionOutgoing   EdgeDirection = "OUTGOING"
	DirectionIncoming   EdgeDirection = "INCOMING"
	DirectionAny        EdgeDirection = "ANY"
	DirectionUndirected EdgeDirection = "UNDIRECTED"
)

// PathMode constrains which traversals satisfy a path pattern.
type PathMode string

const (
	ModeWalk        PathMode = "WALK"
	ModeSimple      PathMode = "SIMPLE"
	ModeTrail       PathMode = "TRAIL"
	ModeAcyclic     PathMode = "ACYCLIC"
	ModeAnyShortest PathMode = "ANY SHORTEST"
	ModeAllShortest PathMode = "ALL SHORTEST"
)

// QuantifierKind discriminates PathQuantifier.
type QuantifierKind int

const (
	QuantExactly QuantifierKind = iota
	QuantRange
	QuantOneOrMore
	QuantZeroOrMore
)

// PathQuantifier is a repetition bound on a path element: {n}, {m,n}, + or *.
type PathQuantifier struct {
	Kind QuantifierKind
	Min  int
	Max  int
}

func Exactly(n int) PathQuantifier      { return PathQuantifier{Kind: QuantExactly, Min: n, Max: n} }
func Range(min, max int) PathQuantifier { return PathQuantifier{Kind: QuantRange, Min: min, Max: max} }
func OneOrMore() PathQuantifier         { return PathQuantifier{Kind: QuantOneOrMore, Min: 1} }
func ZeroOrMore() PathQuantifier        { return PathQuantifier{Kind: QuantZeroOrMore} }

// LabelSet holds the |-separated label alternatives of a node or edge
// pattern. Any one label matching satisfies the pattern; order is not
// significant.
type LabelSet map[string]struct{}

// NewLabelSet builds a set from the given labels.
func NewLabelSet(labels ...string) LabelSet {
	if len(labels) == 0 {
		return nil
	}
	s := make(LabelSet, len(labels))
	for _, l := range labels {
		s[l] = struct{}{}
	}
	return s
}

// Has reports whether the set contains label.
func (s LabelSet) Has(label string) bool {
	_, ok := s[label]
	return ok
}

// Sorted returns the labels in lexical order, for deterministic rendering.
func (s LabelSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for l := range s {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// PropertyFilter is one key: value entry of an inline {..} property map.
type PropertyFilter struct {
	Name  string
	Value Expr
}

// PathElement is one step of a path pattern: a node, an edge, a quantified
// sub-path, or an alternation of sub-paths.
type PathElement interface {
	pathElementNode()
}

// NodePattern is (v:Label1|Label2 {k: e} WHERE cond).
type NodePattern struct {
	Variable   string
	Labels     LabelSet
	Properties []PropertyFilter
	Where      Expr
}

// EdgePattern is a bracketed or bare edge with its resolved direction.
type EdgePattern struct {
	Variable   string
	Labels     LabelSet
	Direction  EdgeDirection
	Properties []PropertyFilter
	Where      Expr
}

// QuantifiedPathElement repeats an inner path pattern.
type QuantifiedPathElement struct {
	Inner      *PathPattern
	Quantifier PathQuantifier
}

// PathAlternation matches any one of its branches.
type PathAlternation struct {
	Branches []*PathPattern
}

func (*NodePattern) pathElementNode()           {}
func (*EdgePattern) pathElementNode()           {}
func (*QuantifiedPathElement) pathElementNode() {}
func (*PathAlternation) pathElementNode()       {}

// PathPattern is one MATCH path: an alternating sequence of node and
// edge-or-quantified elements, starting and ending with a node.
type PathPattern struct {
	Variable string
	Mode     PathMode
	Elements []PathElement
}

// Variables returns the sorted set of element variables the path defines,
// descending into quantified sub-paths and alternation branches.
func (p *PathPattern) Variables() []string {
	set := map[string]struct{}{}
	p.collectVars(set)
	return sortedVars(set)
}

func (p *PathPattern) collectVars(set map[string]struct{}) {
	if p == nil {
		return
	}
	if p.Variable != "" {
		set[p.Variable] = struct{}{}
	}
	for _, el := range p.Elements {
		switch e := el.(type) {
		case *NodePattern:
			if e.Variable != "" {
				set[e.Variable] = struct{}{}
			}
		case *EdgePattern:
			if e.Variable != "" {
				set[e.Variable] = struct{}{}
			}
		case *QuantifiedPathElement:
			e.Inner.collectVars(set)
		case *PathAlternation:
			for _, b := range e.Branches {
				b.collectVars(set)
			}
		}
	}
}

// MatchPattern is the MATCH clause of a GRAPH_TABLE source: one or more
// comma-separated paths.
type MatchPattern struct {
	Paths []*PathPattern
}

// Variables returns the sorted set of variables defined across all paths.
func (m *MatchPattern) Variables() []string {
	set := map[string]struct{}{}
	for _, p := range m.Paths {
		p.collectVars(set)
	}
	return sortedVars(set)
}

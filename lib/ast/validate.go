package ast

import "fmt"

// SchemaValidationError reports one CREATE PROPERTY GRAPH inconsistency.
// Validation errors are advisory: the statement remains usable for
// introspection and re-serialization.
type SchemaValidationError struct {
	Msg string
}

func (e *SchemaValidationError) Error() string { return e.Msg }

// PatternValidationError reports one GRAPH_TABLE pattern inconsistency.
type PatternValidationError struct {
	Msg string
}

func (e *PatternValidationError) Error() string { return e.Msg }

func schemaErrorf(format string, args ...any) error {
	return &SchemaValidationError{Msg: fmt.Sprintf(format, args...)}
}

func patternErrorf(format string, args ...any) error {
	return &PatternValidationError{Msg: fmt.Sprintf(format, args...)}
}

// Validate checks the graph definition and returns the complete set of
// violations in one pass. It never mutates the statement and never stops at
// the first problem.
func (s *CreateGraphStatement) Validate() []error {
	var errs []error

	vertexNames := map[string]bool{}
	for i := range s.VertexTables {
		v := &s.VertexTables[i]
		id := v.Identity()
		if vertexNames[id] {
			errs = append(errs, schemaErrorf("duplicate vertex table %q", id))
		}
		vertexNames[id] = true
		if len(v.KeyColumns) == 0 {
			errs = append(errs, schemaErrorf("vertex table %q has no key columns", id))
		}
	}

	edgeNames := map[string]bool{}
	for i := range s.EdgeTables {
		e := &s.EdgeTables[i]
		id := e.Identity()
		if edgeNames[id] {
			errs = append(errs, schemaErrorf("duplicate edge table %q", id))
		}
		edgeNames[id] = true
		if len(e.KeyColumns) == 0 {
			errs = append(errs, schemaErrorf("edge table %q has no key columns", id))
		}
		if !vertexNames[e.Source.TableName] {
			errs = append(errs, schemaErrorf("edge table %q source references unknown vertex table %q", id, e.Source.TableName))
		}
		if !vertexNames[e.Destination.TableName] {
			errs = append(errs, schemaErrorf("edge table %q destination references unknown vertex table %q", id, e.Destination.TableName))
		}
	}

	return errs
}

// Validate checks the match pattern and returns the complete set of
// violations: an empty pattern and any structural path defect.
func (m *MatchPattern) Validate() []error {
	var errs []error
	if m == nil || len(m.Paths) == 0 {
		errs = append(errs, patternErrorf("match pattern has no paths"))
		return errs
	}
	for i, p := range m.Paths {
		errs = append(errs, validatePathShape(p, fmt.Sprintf("path %d", i+1))...)
	}
	return errs
}

// validatePathShape enforces the node/edge alternation invariant: elements
// alternate between nodes and edge-or-quantified elements, starting and
// ending with a node.
func validatePathShape(p *PathPattern, where string) []error {
	var errs []error
	if len(p.Elements) == 0 {
		errs = append(errs, patternErrorf("%s is empty", where))
		return errs
	}
	for i, el := range p.Elements {
		_, isNode := el.(*NodePattern)
		if i%2 == 0 && !isNode {
			errs = append(errs, patternErrorf("%s: element %d must be a node pattern", where, i+1))
		}
		if i%2 == 1 && isNode {
			errs = append(errs, patternErrorf("%s: element %d must be an edge pattern", where, i+1))
		}
		switch e := el.(type) {
		case *QuantifiedPathElement:
			errs = append(errs, validateQuantifiedInner(e.Inner, where)...)
		case *PathAlternation:
			for _, b := range e.Branches {
				errs = append(errs, validateQuantifiedInner(b, where+" (alternation branch)")...)
			}
		}
	}
	if _, ok := p.Elements[len(p.Elements)-1].(*NodePattern); !ok {
		errs = append(errs, patternErrorf("%s must end with a node pattern", where))
	}
	return errs
}

// validateQuantifiedInner checks the body of a quantified element. A single
// quantified edge, as in -[e:knows]->{1,3}, is valid, as is an alternation
// whose branches are single edges; anything longer is a sub-path and must
// satisfy the full alternation invariant.
func validateQuantifiedInner(p *PathPattern, where string) []error {
	if len(p.Elements) == 1 {
		switch inner := p.Elements[0].(type) {
		case *EdgePattern:
			return nil
		case *PathAlternation:
			var errs []error
			for _, b := range inner.Branches {
				errs = append(errs, validateQuantifiedInner(b, where+" (alternation branch)")...)
			}
			return errs
		}
	}
	return validatePathShape(p, where+" (quantified group)")
}

// Validate checks the graph table source: the match pattern itself plus
// every COLUMNS expression referencing only variables some path element
// defines. The complete violation set is returned.
func (g *GraphTableSource) Validate() []error {
	var errs []error
	if g.Match == nil {
		errs = append(errs, patternErrorf("graph table has no MATCH pattern"))
		return errs
	}
	errs = append(errs, g.Match.Validate()...)

	defined := map[string]bool{}
	for _, v := range g.Match.Variables() {
		defined[v] = true
	}
	for _, col := range g.Columns {
		for _, ref := range exprColumnRoots(col.Expr) {
			if !defined[ref] {
				errs = append(errs, patternErrorf("COLUMNS expression references undefined variable %q", ref))
			}
		}
	}
	return errs
}

// exprColumnRoots collects the root identifiers an expression references:
// for a qualified name like n.name the root is the element variable n.
func exprColumnRoots(e Expr) []string {
	set := map[string]struct{}{}
	collectExprRoots(e, set)
	return sortedVars(set)
}

func collectExprRoots(e Expr, set map[string]struct{}) {
	switch n := e.(type) {
	case *Identifier:
		if len(n.Parts) > 0 {
			set[n.Parts[0]] = struct{}{}
		}
	case *VarRef:
		set[n.Name] = struct{}{}
	case *BinaryExpr:
		collectExprRoots(n.Left, set)
		collectExprRoots(n.Right, set)
	case *UnaryExpr:
		collectExprRoots(n.Expr, set)
	case *FuncCall:
		for _, a := range n.Args {
			collectExprRoots(a, set)
		}
	case *AggregateExpr:
		if n.Arg != nil {
			collectExprRoots(n.Arg, set)
		}
	case *CaseExpr:
		if n.Operand != nil {
			collectExprRoots(n.Operand, set)
		}
		for _, w := range n.Whens {
			collectExprRoots(w.Condition, set)
			collectExprRoots(w.Result, set)
		}
		if n.Else != nil {
			collectExprRoots(n.Else, set)
		}
	case *InExpr:
		collectExprRoots(n.Expr, set)
		for _, v := range n.List {
			collectExprRoots(v, set)
		}
	case *BetweenExpr:
		collectExprRoots(n.Expr, set)
		collectExprRoots(n.Lower, set)
		collectExprRoots(n.Upper, set)
	case *LikeExpr:
		collectExprRoots(n.Expr, set)
		collectExprRoots(n.Pattern, set)
	case *IsNullExpr:
		collectExprRoots(n.Expr, set)
	}
}

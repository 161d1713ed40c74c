// Package asg holds the abstract semantic graph: the typed, resolved
// form of the AST, plus the analysis that builds it. The graph is
// built in two phases — allocate all top-level fields first, then fill
// their bodies — so that forward and cyclic references resolve without
// interior mutability tricks.
package asg

import (
	"github.com/protospec-dev/protospec/internal/ordered"
)

// Program is an analyzed schema: four ordered tables keyed by name.
// Insertion order is preserved because it drives both emission order
// and forward-only visibility.
type Program struct {
	Types      ordered.Map[*Field]
	Consts     ordered.Map[*Const]
	Transforms ordered.Map[*Transform]
	Functions  ordered.Map[*Function]
}

// ScanCycles marks every top-level field whose own name is reachable
// from its type graph as maybe-cyclical. Generated code boxes the
// recursion edge for such types.
func (p *Program) ScanCycles() {
	p.Types.Range(func(_ string, field *Field) bool {
		reached := map[string]bool{}
		collectReachableFields(field, reached)
		if reached[field.Name] {
			field.IsMaybeCyclical = true
		}
		return true
	})
}

// collectReachableFields walks Array elements, Container items, and
// Ref targets, recording every named field reached.
func collectReachableFields(field *Field, target map[string]bool) {
	switch t := field.Type.(type) {
	case *ArrayType:
		if !target[t.Element.Name] {
			target[t.Element.Name] = true
			collectReachableFields(t.Element, target)
		}
	case *ContainerType:
		t.Items.Range(func(_ string, child *Field) bool {
			if !target[child.Name] {
				target[child.Name] = true
				collectReachableFields(child, target)
			}
			return true
		})
	case *RefType:
		if !target[t.Target.Name] {
			target[t.Target.Name] = true
			collectReachableFields(t.Target, target)
		}
	}
}

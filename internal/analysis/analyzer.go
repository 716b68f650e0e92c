// Package analysis computes the structural feature vector the prover
// router bases its candidate ranking on. Analyze is a pure function over
// the arena's immutable nodes and is safe to call from any goroutine
// without synchronization.
package analysis

import "noesis/internal/logic"

// FormulaType classifies a formula into the routing buckets.
type FormulaType string

const (
	TypePropositional FormulaType = "propositional"
	TypeQuantified    FormulaType = "quantified-propositional"
	TypeFOL           FormulaType = "pure-fol"
	TypeModal         FormulaType = "modal"
	TypeTemporal      FormulaType = "temporal"
	TypeDeontic       FormulaType = "deontic"
	TypeCognitive     FormulaType = "cognitive"
	TypeMixedModal    FormulaType = "mixed-modal"
	TypeArithmetic    FormulaType = "arithmetic"
)

// Features is the analyzer output for one formula.
type Features struct {
	ASTDepth         int            `json:"ast_depth"`
	QuantifierDepth  int            `json:"quantifier_depth"`
	OperatorCounts   map[string]int `json:"operator_counts"`
	AtomCount        int            `json:"atom_count"`
	ModalNesting     int            `json:"modal_nesting"`
	HasModal         bool           `json:"has_modal"`
	HasTemporal      bool           `json:"has_temporal"`
	HasDeontic       bool           `json:"has_deontic"`
	HasCognitive     bool           `json:"has_cognitive"`
	HasArithmetic    bool           `json:"has_arithmetic"`
	HasQuantifier    bool           `json:"has_quantifier"`
	HasNonGroundAtom bool           `json:"has_non_ground_atom"`
	ComplexityScore  int            `json:"complexity_score"`
	Type             FormulaType    `json:"formula_type"`
}

// arithmeticSymbols are the function and predicate symbols whose
// presence flags a formula as arithmetic. The parsers normalize the
// infix operators to these names.
var arithmeticSymbols = map[string]bool{
	"add": true, "sub": true, "mul": true, "div": true,
	"lt": true, "leq": true, "gt": true, "geq": true,
	"sum": true, "diff": true, "prod": true, "quot": true,
	"succ": true,
}

// Analyze computes the feature vector for f.
func Analyze(a *logic.Arena, f logic.FormulaID) Features {
	ft := Features{OperatorCounts: make(map[string]int)}
	walk(a, f, 0, 0, 0, &ft)
	ft.ComplexityScore = score(ft)
	ft.Type = classify(ft)
	return ft
}

// AnalyzeAll folds the features of a goal and its axioms, keeping the
// maximum depths and the union of the capability flags. The router uses
// it so an arithmetic axiom steers routing even under a plain goal.
func AnalyzeAll(a *logic.Arena, goal logic.FormulaID, axioms []logic.FormulaID) Features {
	ft := Analyze(a, goal)
	for _, ax := range axioms {
		merge(&ft, Analyze(a, ax))
	}
	ft.ComplexityScore = score(ft)
	ft.Type = classify(ft)
	return ft
}

func merge(dst *Features, src Features) {
	if src.ASTDepth > dst.ASTDepth {
		dst.ASTDepth = src.ASTDepth
	}
	if src.QuantifierDepth > dst.QuantifierDepth {
		dst.QuantifierDepth = src.QuantifierDepth
	}
	if src.ModalNesting > dst.ModalNesting {
		dst.ModalNesting = src.ModalNesting
	}
	for k, v := range src.OperatorCounts {
		dst.OperatorCounts[k] += v
	}
	dst.AtomCount += src.AtomCount
	dst.HasModal = dst.HasModal || src.HasModal
	dst.HasTemporal = dst.HasTemporal || src.HasTemporal
	dst.HasDeontic = dst.HasDeontic || src.HasDeontic
	dst.HasCognitive = dst.HasCognitive || src.HasCognitive
	dst.HasArithmetic = dst.HasArithmetic || src.HasArithmetic
	dst.HasQuantifier = dst.HasQuantifier || src.HasQuantifier
	dst.HasNonGroundAtom = dst.HasNonGroundAtom || src.HasNonGroundAtom
}

func walk(a *logic.Arena, id logic.FormulaID, depth, qdepth, mdepth int, ft *Features) {
	if depth+1 > ft.ASTDepth {
		ft.ASTDepth = depth + 1
	}
	if qdepth > ft.QuantifierDepth {
		ft.QuantifierDepth = qdepth
	}
	if mdepth > ft.ModalNesting {
		ft.ModalNesting = mdepth
	}
	f := a.Formula(id)
	switch f.Kind {
	case logic.KindAtom:
		ft.AtomCount++
		if arithmeticSymbols[f.Sym] {
			ft.HasArithmetic = true
		}
		for _, arg := range f.Args {
			walkTerm(a, arg, ft)
		}
	case logic.KindNot:
		ft.OperatorCounts["not"]++
		walk(a, f.Subs[0], depth+1, qdepth, mdepth, ft)
	case logic.KindAnd, logic.KindOr, logic.KindImplies, logic.KindIff:
		ft.OperatorCounts[f.Kind.String()]++
		walk(a, f.Subs[0], depth+1, qdepth, mdepth, ft)
		walk(a, f.Subs[1], depth+1, qdepth, mdepth, ft)
	case logic.KindQuantifier:
		ft.HasQuantifier = true
		ft.OperatorCounts[f.Quant().String()]++
		walk(a, f.Subs[0], depth+1, qdepth+1, mdepth, ft)
	case logic.KindModal:
		ft.HasModal = true
		ft.OperatorCounts[f.Modal().String()]++
		walk(a, f.Subs[0], depth+1, qdepth, mdepth+1, ft)
	case logic.KindTemporal:
		ft.HasTemporal = true
		ft.OperatorCounts[f.Temporal().String()]++
		for _, sub := range f.Subs {
			walk(a, sub, depth+1, qdepth, mdepth+1, ft)
		}
	case logic.KindDeontic:
		ft.HasDeontic = true
		ft.OperatorCounts[f.Deontic().String()]++
		walkTerm(a, f.Agent, ft)
		walk(a, f.Subs[0], depth+1, qdepth, mdepth+1, ft)
	case logic.KindCognitive:
		ft.HasCognitive = true
		ft.OperatorCounts[f.Cognitive().String()]++
		if f.Agent != logic.NoTerm {
			walkTerm(a, f.Agent, ft)
		}
		walk(a, f.Subs[0], depth+1, qdepth, mdepth+1, ft)
	}
}

func walkTerm(a *logic.Arena, id logic.TermID, ft *Features) {
	t := a.Term(id)
	switch t.Kind {
	case logic.TermVar:
		ft.HasNonGroundAtom = true
	case logic.TermConst:
		if isNumeral(t.Name) {
			ft.HasArithmetic = true
		}
	case logic.TermApp:
		if arithmeticSymbols[t.Name] {
			ft.HasArithmetic = true
		}
		for _, arg := range t.Args {
			walkTerm(a, arg, ft)
		}
	}
}

func isNumeral(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// score folds the feature vector into a 0..100 complexity estimate.
// Connective count and depth dominate; modal nesting and quantifier
// depth are weighted above plain connectives since they blow up search.
func score(ft Features) int {
	connectives := 0
	for _, n := range ft.OperatorCounts {
		connectives += n
	}
	s := 2*connectives + 3*ft.ASTDepth + 8*ft.QuantifierDepth + 6*ft.ModalNesting + ft.AtomCount
	if ft.HasArithmetic {
		s += 10
	}
	if s > 100 {
		s = 100
	}
	return s
}

func classify(ft Features) FormulaType {
	modalish := 0
	if ft.HasModal {
		modalish++
	}
	if ft.HasTemporal {
		modalish++
	}
	if ft.HasDeontic {
		modalish++
	}
	if ft.HasCognitive {
		modalish++
	}
	switch {
	case modalish > 1:
		return TypeMixedModal
	case ft.HasCognitive:
		return TypeCognitive
	case ft.HasDeontic:
		return TypeDeontic
	case ft.HasTemporal:
		return TypeTemporal
	case ft.HasModal:
		return TypeModal
	case ft.HasArithmetic:
		return TypeArithmetic
	case ft.HasQuantifier && !ft.HasNonGroundAtom:
		return TypeQuantified
	case ft.HasQuantifier || ft.HasNonGroundAtom:
		return TypeFOL
	default:
		return TypePropositional
	}
}

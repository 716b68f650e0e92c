package syntax

import (
	"strings"

	"noesis/internal/logic"
)

// =============================================================================
// MODAL-LOGIC STRING FORM
// =============================================================================
//
// The boxed propositional form consumed by tableaux provers:
// `[](p -> <>q)`. The fragment is propositional plus Necessity ([]) and
// Possibility (<>). Serializing temporal operators folds Always into []
// and Eventually into <> with a lossy warning; everything else outside
// the fragment is a TranslationError. Atoms with arguments are
// propositionalized into opaque identifiers (lossy warning) so that
// first-order goals can still reach a propositional tableaux engine.

// ModalConverter handles the modal-logic string form.
type ModalConverter struct{}

func (ModalConverter) Name() string   { return "modal" }
func (ModalConverter) Lossless() bool { return false }

func (ModalConverter) Validate(input string) ValidationResult {
	a := logic.NewArena()
	if _, err := (ModalConverter{}).Parse(a, input); err != nil {
		return ValidationResult{Errors: []string{err.Error()}}
	}
	return ValidationResult{Valid: true}
}

// Parse reads the modal string form. The token stream is the native one;
// the grammar is the propositional subset plus [] and <>.
func (ModalConverter) Parse(a *logic.Arena, input string) (logic.FormulaID, error) {
	toks, lerr := lexNative(input)
	if lerr != nil {
		return logic.NoFormula, lerr
	}
	p := &modalParser{arena: a, toks: toks}
	f, err := p.parseIff()
	if err != nil {
		return logic.NoFormula, err
	}
	if p.peek().kind != tokEOF {
		return logic.NoFormula, &ValidationError{Span: p.peek().span, Message: "unexpected input after formula"}
	}
	return f, nil
}

func (ModalConverter) Serialize(a *logic.Arena, f logic.FormulaID) (string, []string, error) {
	s := &modalSerializer{arena: a}
	var b strings.Builder
	if err := s.write(&b, f); err != nil {
		return "", nil, err
	}
	return b.String(), s.warnings, nil
}

// -----------------------------------------------------------------------------

type modalParser struct {
	arena *logic.Arena
	toks  []token
	pos   int
}

func (p *modalParser) peek() token { return p.toks[p.pos] }
func (p *modalParser) next() token { t := p.toks[p.pos]; p.pos++; return t }

func (p *modalParser) parseIff() (logic.FormulaID, error) {
	left, err := p.parseImplies()
	if err != nil {
		return logic.NoFormula, err
	}
	for p.peek().kind == tokIff {
		p.next()
		right, err := p.parseImplies()
		if err != nil {
			return logic.NoFormula, err
		}
		left = p.arena.MkIff(left, right)
	}
	return left, nil
}

func (p *modalParser) parseImplies() (logic.FormulaID, error) {
	left, err := p.parseOr()
	if err != nil {
		return logic.NoFormula, err
	}
	if p.peek().kind == tokImplies {
		p.next()
		right, err := p.parseImplies()
		if err != nil {
			return logic.NoFormula, err
		}
		return p.arena.MkImplies(left, right), nil
	}
	return left, nil
}

func (p *modalParser) parseOr() (logic.FormulaID, error) {
	left, err := p.parseAnd()
	if err != nil {
		return logic.NoFormula, err
	}
	for p.peek().kind == tokOr {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return logic.NoFormula, err
		}
		left = p.arena.MkOr(left, right)
	}
	return left, nil
}

func (p *modalParser) parseAnd() (logic.FormulaID, error) {
	left, err := p.parseUnary()
	if err != nil {
		return logic.NoFormula, err
	}
	for p.peek().kind == tokAnd {
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return logic.NoFormula, err
		}
		left = p.arena.MkAnd(left, right)
	}
	return left, nil
}

func (p *modalParser) parseUnary() (logic.FormulaID, error) {
	switch p.peek().kind {
	case tokNot:
		p.next()
		f, err := p.parseUnary()
		if err != nil {
			return logic.NoFormula, err
		}
		return p.arena.MkNot(f), nil
	case tokBox:
		p.next()
		f, err := p.parseUnary()
		if err != nil {
			return logic.NoFormula, err
		}
		return p.arena.MkModal(logic.Necessity, f), nil
	case tokDiamond:
		p.next()
		f, err := p.parseUnary()
		if err != nil {
			return logic.NoFormula, err
		}
		return p.arena.MkModal(logic.Possibility, f), nil
	case tokLParen:
		p.next()
		f, err := p.parseIff()
		if err != nil {
			return logic.NoFormula, err
		}
		if p.peek().kind != tokRParen {
			return logic.NoFormula, &ValidationError{Span: p.peek().span, Message: "expected ')'"}
		}
		p.next()
		return f, nil
	case tokIdent:
		return p.arena.MkAtom(p.next().text), nil
	default:
		return logic.NoFormula, &ValidationError{Span: p.peek().span, Message: "expected a modal formula"}
	}
}

// -----------------------------------------------------------------------------

type modalSerializer struct {
	arena    *logic.Arena
	warnings []string
}

func (s *modalSerializer) warn(msg string) {
	for _, w := range s.warnings {
		if w == msg {
			return
		}
	}
	s.warnings = append(s.warnings, msg)
}

func (s *modalSerializer) write(b *strings.Builder, id logic.FormulaID) error {
	f := s.arena.Formula(id)
	switch f.Kind {
	case logic.KindAtom:
		b.WriteString(s.propositionalize(id, f))
		return nil
	case logic.KindNot:
		b.WriteByte('~')
		return s.write(b, f.Subs[0])
	case logic.KindAnd, logic.KindOr, logic.KindImplies, logic.KindIff:
		op := " & "
		switch f.Kind {
		case logic.KindOr:
			op = " | "
		case logic.KindImplies:
			op = " -> "
		case logic.KindIff:
			op = " <-> "
		}
		b.WriteByte('(')
		if err := s.write(b, f.Subs[0]); err != nil {
			return err
		}
		b.WriteString(op)
		if err := s.write(b, f.Subs[1]); err != nil {
			return err
		}
		b.WriteByte(')')
		return nil
	case logic.KindModal:
		if f.Modal() == logic.Possibility {
			b.WriteString("<>")
		} else {
			b.WriteString("[]")
		}
		return s.write(b, f.Subs[0])
	case logic.KindTemporal:
		switch f.Temporal() {
		case logic.Always:
			s.warn("temporal Always encoded as modal []")
			b.WriteString("[]")
			return s.write(b, f.Subs[0])
		case logic.Eventually:
			s.warn("temporal Eventually encoded as modal <>")
			b.WriteString("<>")
			return s.write(b, f.Subs[0])
		default:
			return &TranslationError{Format: "modal", Construct: "temporal " + f.Temporal().String()}
		}
	case logic.KindQuantifier:
		return &TranslationError{Format: "modal", Construct: "quantifier"}
	case logic.KindDeontic:
		return &TranslationError{Format: "modal", Construct: "deontic operator"}
	case logic.KindCognitive:
		return &TranslationError{Format: "modal", Construct: "cognitive operator"}
	default:
		return &TranslationError{Format: "modal", Construct: f.Kind.String()}
	}
}

// propositionalize folds an atom with arguments into an opaque
// propositional identifier.
func (s *modalSerializer) propositionalize(id logic.FormulaID, f logic.Formula) string {
	if len(f.Args) == 0 {
		return f.Sym
	}
	s.warn("first-order atom propositionalized")
	raw := s.arena.Canonical(id)
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '(' || r == ',':
			b.WriteByte('_')
		}
	}
	return b.String()
}

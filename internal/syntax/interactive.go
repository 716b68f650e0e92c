package syntax

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"noesis/internal/logic"
)

// =============================================================================
// INTERACTIVE-PROVER DIALECTS (LEAN, COQ)
// =============================================================================
//
// Both dialects share one expression core (application by juxtaposition,
// the usual connective precedence, comma-scoped binders) and differ only
// in a spelling table and the theorem wrapper. The FOL fragment is
// lossless; modal, temporal, deontic and cognitive operators are a
// TranslationError in both dialects.

// dialect is the spelling table for one interactive prover.
type dialect struct {
	name    string
	forall  string
	exists  string
	implies string
	and     string
	or      string
	not     string
	iff     string
	binder  string // separates binder list from body
	// wrapper formats: name, expression
	theorem string
}

var leanDialect = dialect{
	name:    "lean",
	forall:  "∀",
	exists:  "∃",
	implies: "→",
	and:     "∧",
	or:      "∨",
	not:     "¬",
	iff:     "↔",
	binder:  ",",
	theorem: "theorem %s : %s := by\n  sorry\n",
}

var coqDialect = dialect{
	name:    "coq",
	forall:  "forall",
	exists:  "exists",
	implies: "->",
	and:     "/\\",
	or:      "\\/",
	not:     "~",
	iff:     "<->",
	binder:  ",",
	theorem: "Theorem %s : %s.\nProof.\nAdmitted.\n",
}

// InteractiveConverter handles one interactive-prover dialect.
type InteractiveConverter struct {
	d dialect
}

// NewLeanConverter returns the Lean dialect converter.
func NewLeanConverter() InteractiveConverter { return InteractiveConverter{d: leanDialect} }

// NewCoqConverter returns the Coq dialect converter.
func NewCoqConverter() InteractiveConverter { return InteractiveConverter{d: coqDialect} }

func (c InteractiveConverter) Name() string   { return c.d.name }
func (c InteractiveConverter) Lossless() bool { return true }

func (c InteractiveConverter) Validate(input string) ValidationResult {
	a := logic.NewArena()
	if _, err := c.Parse(a, input); err != nil {
		return ValidationResult{Errors: []string{err.Error()}}
	}
	return ValidationResult{Valid: true}
}

// Serialize renders the bare expression. Theorem renders a complete
// theorem file body for the interactive bridge.
func (c InteractiveConverter) Serialize(a *logic.Arena, f logic.FormulaID) (string, []string, error) {
	var b strings.Builder
	if err := c.write(&b, a, f, nil, false); err != nil {
		return "", nil, err
	}
	return b.String(), nil, nil
}

// Theorem wraps the serialized expression in the dialect's theorem
// declaration.
func (c InteractiveConverter) Theorem(a *logic.Arena, name string, f logic.FormulaID) (string, error) {
	expr, _, err := c.Serialize(a, f)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(c.d.theorem, name, expr), nil
}

func (c InteractiveConverter) write(b *strings.Builder, a *logic.Arena, id logic.FormulaID, binders []string, nested bool) error {
	f := a.Formula(id)
	switch f.Kind {
	case logic.KindAtom:
		c.writeAtom(b, a, f, binders, nested)
		return nil
	case logic.KindNot:
		b.WriteString(c.d.not)
		b.WriteByte(' ')
		return c.writeGrouped(b, a, f.Subs[0], binders)
	case logic.KindAnd, logic.KindOr, logic.KindImplies, logic.KindIff:
		op := c.d.and
		switch f.Kind {
		case logic.KindOr:
			op = c.d.or
		case logic.KindImplies:
			op = c.d.implies
		case logic.KindIff:
			op = c.d.iff
		}
		b.WriteByte('(')
		if err := c.write(b, a, f.Subs[0], binders, true); err != nil {
			return err
		}
		b.WriteByte(' ')
		b.WriteString(op)
		b.WriteByte(' ')
		if err := c.write(b, a, f.Subs[1], binders, true); err != nil {
			return err
		}
		b.WriteByte(')')
		return nil
	case logic.KindQuantifier:
		q := c.d.forall
		if f.Quant() == logic.Exists {
			q = c.d.exists
		}
		name := f.Sym
		if name == "" {
			name = fmt.Sprintf("x%d", len(binders))
		}
		fmt.Fprintf(b, "(%s %s%s ", q, name, c.d.binder)
		if err := c.write(b, a, f.Subs[0], append(binders, name), true); err != nil {
			return err
		}
		b.WriteByte(')')
		return nil
	default:
		return &TranslationError{Format: c.d.name, Construct: f.Kind.String()}
	}
}

func (c InteractiveConverter) writeGrouped(b *strings.Builder, a *logic.Arena, id logic.FormulaID, binders []string) error {
	f := a.Formula(id)
	if f.Kind == logic.KindAtom && len(f.Args) == 0 {
		b.WriteString(f.Sym)
		return nil
	}
	b.WriteByte('(')
	if err := c.write(b, a, id, binders, true); err != nil {
		return err
	}
	b.WriteByte(')')
	return nil
}

// writeAtom renders application by juxtaposition: `P x (f y)`.
func (c InteractiveConverter) writeAtom(b *strings.Builder, a *logic.Arena, f logic.Formula, binders []string, nested bool) {
	if len(f.Args) == 0 {
		b.WriteString(f.Sym)
		return
	}
	if nested {
		b.WriteByte('(')
	}
	b.WriteString(f.Sym)
	for _, arg := range f.Args {
		b.WriteByte(' ')
		c.writeTerm(b, a, arg, binders)
	}
	if nested {
		b.WriteByte(')')
	}
}

func (c InteractiveConverter) writeTerm(b *strings.Builder, a *logic.Arena, id logic.TermID, binders []string) {
	t := a.Term(id)
	switch t.Kind {
	case logic.TermVar:
		if t.Index >= 0 {
			pos := len(binders) - 1 - t.Index
			if pos >= 0 && pos < len(binders) {
				b.WriteString(binders[pos])
				return
			}
		}
		b.WriteString(t.Name)
	case logic.TermConst:
		b.WriteString(t.Name)
	case logic.TermApp:
		b.WriteByte('(')
		b.WriteString(t.Name)
		for _, arg := range t.Args {
			b.WriteByte(' ')
			c.writeTerm(b, a, arg, binders)
		}
		b.WriteByte(')')
	}
}

// -----------------------------------------------------------------------------
// Expression parser (shared core)
// -----------------------------------------------------------------------------

// Parse reads the expression core of the dialect. Application is by
// juxtaposition; the first symbol of an application is the predicate.
func (c InteractiveConverter) Parse(a *logic.Arena, input string) (logic.FormulaID, error) {
	p := &iaParser{arena: a, d: c.d, input: input}
	f, err := p.parseIff()
	if err != nil {
		return logic.NoFormula, err
	}
	p.skipSpace()
	if p.pos != len(p.input) {
		return logic.NoFormula, p.fail("unexpected input after expression")
	}
	return f, nil
}

type iaParser struct {
	arena   *logic.Arena
	d       dialect
	input   string
	pos     int
	binders []string
}

func (p *iaParser) fail(format string, args ...interface{}) error {
	end := p.pos + 1
	if end > len(p.input) {
		end = len(p.input)
	}
	return &ValidationError{Span: Span{p.pos, end}, Message: fmt.Sprintf(format, args...)}
}

func (p *iaParser) skipSpace() {
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			p.pos++
			continue
		}
		break
	}
}

// eatOp consumes op if present at the cursor. Word operators (forall,
// exists) must end at a word boundary.
func (p *iaParser) eatOp(op string) bool {
	p.skipSpace()
	if !strings.HasPrefix(p.input[p.pos:], op) {
		return false
	}
	last, _ := utf8.DecodeLastRuneInString(op)
	if unicode.IsLetter(last) {
		rest := p.input[p.pos+len(op):]
		if rest != "" {
			r, _ := utf8.DecodeRuneInString(rest)
			if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
				return false
			}
		}
	}
	p.pos += len(op)
	return true
}

func (p *iaParser) parseIff() (logic.FormulaID, error) {
	left, err := p.parseImplies()
	if err != nil {
		return logic.NoFormula, err
	}
	for p.eatOp(p.d.iff) {
		right, err := p.parseImplies()
		if err != nil {
			return logic.NoFormula, err
		}
		left = p.arena.MkIff(left, right)
	}
	return left, nil
}

func (p *iaParser) parseImplies() (logic.FormulaID, error) {
	left, err := p.parseOr()
	if err != nil {
		return logic.NoFormula, err
	}
	if p.eatOp(p.d.implies) {
		right, err := p.parseImplies()
		if err != nil {
			return logic.NoFormula, err
		}
		return p.arena.MkImplies(left, right), nil
	}
	return left, nil
}

func (p *iaParser) parseOr() (logic.FormulaID, error) {
	left, err := p.parseAnd()
	if err != nil {
		return logic.NoFormula, err
	}
	for p.eatOp(p.d.or) {
		right, err := p.parseAnd()
		if err != nil {
			return logic.NoFormula, err
		}
		left = p.arena.MkOr(left, right)
	}
	return left, nil
}

func (p *iaParser) parseAnd() (logic.FormulaID, error) {
	left, err := p.parseUnary()
	if err != nil {
		return logic.NoFormula, err
	}
	for p.eatOp(p.d.and) {
		right, err := p.parseUnary()
		if err != nil {
			return logic.NoFormula, err
		}
		left = p.arena.MkAnd(left, right)
	}
	return left, nil
}

func (p *iaParser) parseUnary() (logic.FormulaID, error) {
	if p.eatOp(p.d.not) {
		f, err := p.parseUnary()
		if err != nil {
			return logic.NoFormula, err
		}
		return p.arena.MkNot(f), nil
	}
	if p.eatOp(p.d.forall) {
		return p.parseBinder(logic.Forall)
	}
	if p.eatOp(p.d.exists) {
		return p.parseBinder(logic.Exists)
	}
	p.skipSpace()
	if p.pos < len(p.input) && p.input[p.pos] == '(' {
		p.pos++
		f, err := p.parseIff()
		if err != nil {
			return logic.NoFormula, err
		}
		p.skipSpace()
		if p.pos >= len(p.input) || p.input[p.pos] != ')' {
			return logic.NoFormula, p.fail("expected ')'")
		}
		p.pos++
		return f, nil
	}
	return p.parseApplication()
}

func (p *iaParser) parseBinder(kind logic.QuantKind) (logic.FormulaID, error) {
	var names []string
	for {
		p.skipSpace()
		name, ok := p.ident()
		if !ok {
			break
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		return logic.NoFormula, p.fail("expected a bound variable")
	}
	p.skipSpace()
	if p.pos >= len(p.input) || p.input[p.pos] != ',' {
		return logic.NoFormula, p.fail("expected ',' after binder")
	}
	p.pos++
	p.binders = append(p.binders, names...)
	body, err := p.parseIff()
	if err != nil {
		return logic.NoFormula, err
	}
	p.binders = p.binders[:len(p.binders)-len(names)]
	for i := len(names) - 1; i >= 0; i-- {
		body = p.arena.MkQuantifier(kind, names[i], body)
	}
	return body, nil
}

// parseApplication parses `P t1 t2 ...` where each argument is an
// identifier or a parenthesized term application.
func (p *iaParser) parseApplication() (logic.FormulaID, error) {
	p.skipSpace()
	sym, ok := p.ident()
	if !ok {
		return logic.NoFormula, p.fail("expected an expression")
	}
	var args []logic.TermID
	for {
		t, ok, err := p.tryTerm()
		if err != nil {
			return logic.NoFormula, err
		}
		if !ok {
			break
		}
		args = append(args, t)
	}
	if err := p.arena.Signatures().CheckPred(sym, len(args)); err != nil {
		return logic.NoFormula, p.fail("%s", err.Error())
	}
	return p.arena.MkAtom(sym, args...), nil
}

func (p *iaParser) tryTerm() (logic.TermID, bool, error) {
	p.skipSpace()
	if p.pos < len(p.input) && p.input[p.pos] == '(' {
		mark := p.pos
		p.pos++
		p.skipSpace()
		sym, ok := p.ident()
		if !ok {
			p.pos = mark
			return logic.NoTerm, false, nil
		}
		var args []logic.TermID
		for {
			t, ok, err := p.tryTerm()
			if err != nil {
				return logic.NoTerm, false, err
			}
			if !ok {
				break
			}
			args = append(args, t)
		}
		p.skipSpace()
		if p.pos >= len(p.input) || p.input[p.pos] != ')' {
			return logic.NoTerm, false, p.fail("expected ')' in term")
		}
		p.pos++
		if len(args) == 0 {
			return p.resolveTerm(sym), true, nil
		}
		return p.arena.MkApp(sym, args...), true, nil
	}
	name, ok := p.ident()
	if !ok {
		return logic.NoTerm, false, nil
	}
	return p.resolveTerm(name), true, nil
}

func (p *iaParser) resolveTerm(name string) logic.TermID {
	for i := len(p.binders) - 1; i >= 0; i-- {
		if p.binders[i] == name {
			return p.arena.MkVar(name, len(p.binders)-1-i)
		}
	}
	if isVarName(name) {
		return p.arena.MkFreeVar(name)
	}
	return p.arena.MkConst(name)
}

// ident reads one identifier or numeral, refusing dialect word
// operators.
func (p *iaParser) ident() (string, bool) {
	start := p.pos
	for p.pos < len(p.input) {
		r, size := utf8.DecodeRuneInString(p.input[p.pos:])
		if r == '_' || r == '\'' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			if !asciiWordRune(r) {
				break
			}
			p.pos += size
			continue
		}
		break
	}
	if p.pos == start {
		return "", false
	}
	name := p.input[start:p.pos]
	if name == p.d.forall || name == p.d.exists {
		p.pos = start
		return "", false
	}
	return name, true
}

// asciiWordRune keeps identifiers ASCII so the unicode connectives of the
// Lean dialect never glue onto a neighboring name.
func asciiWordRune(r rune) bool {
	return r == '_' || r == '\'' ||
		(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

package syntax

import (
	"fmt"
	"strings"
	"unicode"

	"noesis/internal/logic"
)

// =============================================================================
// TPTP FOF
// =============================================================================
//
// `fof(name, role, formula).` with the usual FOF operators: ! [X] : for
// forall, ? [X] : for exists, =>, <=>, &, |, ~, and = / != on terms.
// Variables are uppercase, functions/predicates/constants lowercase.
// The FOL fragment round-trips losslessly. Modal, temporal, deontic and
// cognitive constructs are relationally encoded on serialization: the
// operand formula is reified into a term and wrapped in a predicate
// (`nec(...)`, `always(...)`, `obligatory(Agent, ...)`, ...), with a
// lossy warning. The parse direction reads plain FOF only and does not
// undo the encoding.

// TPTPConverter handles TPTP FOF.
type TPTPConverter struct{}

func (TPTPConverter) Name() string   { return "tptp" }
func (TPTPConverter) Lossless() bool { return false }

func (TPTPConverter) Validate(input string) ValidationResult {
	a := logic.NewArena()
	if _, err := (TPTPConverter{}).Parse(a, input); err != nil {
		return ValidationResult{Errors: []string{err.Error()}}
	}
	return ValidationResult{Valid: true}
}

// Parse reads one fof annotated formula, or a bare FOF formula when the
// fof(...) wrapper is absent.
func (TPTPConverter) Parse(a *logic.Arena, input string) (logic.FormulaID, error) {
	p := &tptpParser{arena: a, input: input}
	p.skipSpace()
	if p.hasKeyword("fof") {
		return p.parseAnnotated()
	}
	f, err := p.parseFormula()
	if err != nil {
		return logic.NoFormula, err
	}
	p.skipSpace()
	if p.pos != len(p.input) {
		return logic.NoFormula, p.fail("unexpected input after formula")
	}
	return f, p.checkScopes()
}

// Serialize emits `fof(goal, conjecture, <formula>).`.
func (TPTPConverter) Serialize(a *logic.Arena, f logic.FormulaID) (string, []string, error) {
	return SerializeTPTP(a, f, "goal", "conjecture")
}

// SerializeTPTP emits one annotated formula with the given name and role
// (axiom or conjecture).
func SerializeTPTP(a *logic.Arena, f logic.FormulaID, name, role string) (string, []string, error) {
	s := &tptpSerializer{arena: a}
	var b strings.Builder
	fmt.Fprintf(&b, "fof(%s, %s, ", name, role)
	if err := s.write(&b, f, nil); err != nil {
		return "", nil, err
	}
	b.WriteString(").")
	return b.String(), s.warnings, nil
}

// -----------------------------------------------------------------------------
// Serializer
// -----------------------------------------------------------------------------

type tptpSerializer struct {
	arena    *logic.Arena
	warnings []string
}

func (s *tptpSerializer) warn(msg string) {
	for _, w := range s.warnings {
		if w == msg {
			return
		}
	}
	s.warnings = append(s.warnings, msg)
}

func (s *tptpSerializer) write(b *strings.Builder, id logic.FormulaID, binders []string) error {
	f := s.arena.Formula(id)
	switch f.Kind {
	case logic.KindAtom:
		s.writeAtom(b, f, binders)
		return nil
	case logic.KindNot:
		b.WriteString("~ ")
		return s.writeGrouped(b, f.Subs[0], binders)
	case logic.KindAnd, logic.KindOr, logic.KindImplies, logic.KindIff:
		op := " & "
		switch f.Kind {
		case logic.KindOr:
			op = " | "
		case logic.KindImplies:
			op = " => "
		case logic.KindIff:
			op = " <=> "
		}
		b.WriteByte('(')
		if err := s.write(b, f.Subs[0], binders); err != nil {
			return err
		}
		b.WriteString(op)
		if err := s.write(b, f.Subs[1], binders); err != nil {
			return err
		}
		b.WriteByte(')')
		return nil
	case logic.KindQuantifier:
		q := "!"
		if f.Quant() == logic.Exists {
			q = "?"
		}
		name := tptpVarName(f.Sym, len(binders))
		fmt.Fprintf(b, "%s [%s] : ", q, name)
		return s.writeGrouped(b, f.Subs[0], append(binders, name))
	case logic.KindModal, logic.KindTemporal, logic.KindDeontic, logic.KindCognitive:
		return s.writeEncoded(b, id, f, binders)
	default:
		return &TranslationError{Format: "tptp", Construct: f.Kind.String()}
	}
}

func (s *tptpSerializer) writeGrouped(b *strings.Builder, id logic.FormulaID, binders []string) error {
	f := s.arena.Formula(id)
	if f.Kind == logic.KindAtom {
		s.writeAtom(b, f, binders)
		return nil
	}
	b.WriteByte('(')
	if err := s.write(b, id, binders); err != nil {
		return err
	}
	b.WriteByte(')')
	return nil
}

// writeEncoded wraps a non-FOL construct in a predicate over the reified
// operand.
func (s *tptpSerializer) writeEncoded(b *strings.Builder, id logic.FormulaID, f logic.Formula, binders []string) error {
	s.warn("non-first-order construct relationally encoded")
	var pred string
	switch f.Kind {
	case logic.KindModal:
		pred = strings.ToLower(f.Modal().String())
	case logic.KindTemporal:
		pred = strings.ToLower(f.Temporal().String())
	case logic.KindDeontic:
		pred = strings.ToLower(f.Deontic().String())
	case logic.KindCognitive:
		pred = strings.ToLower(f.Cognitive().String())
	}
	b.WriteString(pred)
	b.WriteByte('(')
	first := true
	if f.Agent != logic.NoTerm {
		s.writeTerm(b, f.Agent, binders)
		first = false
	}
	for _, sub := range f.Subs {
		if !first {
			b.WriteString(", ")
		}
		first = false
		if err := s.reify(b, sub, binders); err != nil {
			return err
		}
	}
	b.WriteByte(')')
	return nil
}

// reify lowers a formula into term position for the relational encoding.
func (s *tptpSerializer) reify(b *strings.Builder, id logic.FormulaID, binders []string) error {
	f := s.arena.Formula(id)
	switch f.Kind {
	case logic.KindAtom:
		s.writeAtom(b, f, binders)
		return nil
	case logic.KindNot:
		b.WriteString("not(")
		if err := s.reify(b, f.Subs[0], binders); err != nil {
			return err
		}
		b.WriteByte(')')
		return nil
	case logic.KindAnd, logic.KindOr, logic.KindImplies, logic.KindIff:
		fn := map[logic.FormulaKind]string{
			logic.KindAnd: "and", logic.KindOr: "or",
			logic.KindImplies: "implies", logic.KindIff: "iff",
		}[f.Kind]
		b.WriteString(fn)
		b.WriteByte('(')
		if err := s.reify(b, f.Subs[0], binders); err != nil {
			return err
		}
		b.WriteString(", ")
		if err := s.reify(b, f.Subs[1], binders); err != nil {
			return err
		}
		b.WriteByte(')')
		return nil
	case logic.KindModal, logic.KindTemporal, logic.KindDeontic, logic.KindCognitive:
		return s.writeEncoded(b, id, f, binders)
	default:
		return &TranslationError{Format: "tptp", Construct: "reified " + f.Kind.String()}
	}
}

func (s *tptpSerializer) writeAtom(b *strings.Builder, f logic.Formula, binders []string) {
	b.WriteString(lowerFirst(f.Sym))
	if len(f.Args) == 0 {
		return
	}
	b.WriteByte('(')
	for i, arg := range f.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		s.writeTerm(b, arg, binders)
	}
	b.WriteByte(')')
}

func (s *tptpSerializer) writeTerm(b *strings.Builder, id logic.TermID, binders []string) {
	t := s.arena.Term(id)
	switch t.Kind {
	case logic.TermVar:
		if t.Index >= 0 {
			pos := len(binders) - 1 - t.Index
			if pos >= 0 && pos < len(binders) {
				b.WriteString(binders[pos])
				return
			}
		}
		b.WriteString(tptpVarName(t.Name, 0))
	case logic.TermConst:
		b.WriteString(lowerFirst(t.Name))
	case logic.TermApp:
		b.WriteString(lowerFirst(t.Name))
		b.WriteByte('(')
		for i, arg := range t.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			s.writeTerm(b, arg, binders)
		}
		b.WriteByte(')')
	}
}

// tptpVarName uppercases a variable name to meet the TPTP convention.
func tptpVarName(name string, depth int) string {
	if name == "" {
		return fmt.Sprintf("V%d", depth)
	}
	r := []rune(name)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func lowerFirst(name string) string {
	if name == "" {
		return name
	}
	r := []rune(name)
	if unicode.IsUpper(r[0]) {
		r[0] = unicode.ToLower(r[0])
		return string(r)
	}
	return name
}

// -----------------------------------------------------------------------------
// Parser
// -----------------------------------------------------------------------------

type tptpParser struct {
	arena   *logic.Arena
	input   string
	pos     int
	binders []string
	bound   map[string]bool
	freeUse map[string]Span
}

func (p *tptpParser) fail(format string, args ...interface{}) error {
	end := p.pos + 1
	if end > len(p.input) {
		end = len(p.input)
	}
	return &ValidationError{Span: Span{p.pos, end}, Message: fmt.Sprintf(format, args...)}
}

func (p *tptpParser) skipSpace() {
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			p.pos++
			continue
		}
		// % line comments
		if c == '%' {
			for p.pos < len(p.input) && p.input[p.pos] != '\n' {
				p.pos++
			}
			continue
		}
		break
	}
}

func (p *tptpParser) hasKeyword(kw string) bool {
	if !strings.HasPrefix(p.input[p.pos:], kw) {
		return false
	}
	rest := p.input[p.pos+len(kw):]
	return rest != "" && rest[0] == '('
}

func (p *tptpParser) eat(s string) bool {
	p.skipSpace()
	if strings.HasPrefix(p.input[p.pos:], s) {
		p.pos += len(s)
		return true
	}
	return false
}

func (p *tptpParser) expectLit(s string) error {
	if !p.eat(s) {
		return p.fail("expected %q", s)
	}
	return nil
}

func (p *tptpParser) parseAnnotated() (logic.FormulaID, error) {
	if err := p.expectLit("fof"); err != nil {
		return logic.NoFormula, err
	}
	if err := p.expectLit("("); err != nil {
		return logic.NoFormula, err
	}
	if _, err := p.ident(); err != nil { // formula name
		return logic.NoFormula, err
	}
	if err := p.expectLit(","); err != nil {
		return logic.NoFormula, err
	}
	role, err := p.ident()
	if err != nil {
		return logic.NoFormula, err
	}
	switch role {
	case "axiom", "conjecture", "hypothesis", "lemma", "definition", "negated_conjecture":
	default:
		return logic.NoFormula, p.fail("unknown fof role %q", role)
	}
	if err := p.expectLit(","); err != nil {
		return logic.NoFormula, err
	}
	f, err := p.parseFormula()
	if err != nil {
		return logic.NoFormula, err
	}
	if err := p.expectLit(")"); err != nil {
		return logic.NoFormula, err
	}
	if err := p.expectLit("."); err != nil {
		return logic.NoFormula, err
	}
	p.skipSpace()
	if p.pos != len(p.input) {
		return logic.NoFormula, p.fail("unexpected input after fof formula")
	}
	return f, p.checkScopes()
}

func (p *tptpParser) checkScopes() error {
	for name, span := range p.freeUse {
		if p.bound[name] {
			return &ValidationError{Span: span, Message: fmt.Sprintf("variable %s used outside the scope of its binder", name)}
		}
	}
	return nil
}

// parseFormula: <=> lowest, then =>, |, &, unary.
func (p *tptpParser) parseFormula() (logic.FormulaID, error) {
	left, err := p.parseOrAnd()
	if err != nil {
		return logic.NoFormula, err
	}
	p.skipSpace()
	if p.eat("<=>") {
		right, err := p.parseFormula()
		if err != nil {
			return logic.NoFormula, err
		}
		return p.arena.MkIff(left, right), nil
	}
	if p.eat("=>") {
		right, err := p.parseFormula()
		if err != nil {
			return logic.NoFormula, err
		}
		return p.arena.MkImplies(left, right), nil
	}
	return left, nil
}

func (p *tptpParser) parseOrAnd() (logic.FormulaID, error) {
	left, err := p.parseUnary()
	if err != nil {
		return logic.NoFormula, err
	}
	for {
		p.skipSpace()
		if p.pos < len(p.input) && p.input[p.pos] == '|' {
			p.pos++
			right, err := p.parseUnary()
			if err != nil {
				return logic.NoFormula, err
			}
			left = p.arena.MkOr(left, right)
			continue
		}
		if p.pos < len(p.input) && p.input[p.pos] == '&' {
			p.pos++
			right, err := p.parseUnary()
			if err != nil {
				return logic.NoFormula, err
			}
			left = p.arena.MkAnd(left, right)
			continue
		}
		return left, nil
	}
}

func (p *tptpParser) parseUnary() (logic.FormulaID, error) {
	p.skipSpace()
	if p.pos >= len(p.input) {
		return logic.NoFormula, p.fail("unexpected end of input")
	}
	switch p.input[p.pos] {
	case '~':
		p.pos++
		f, err := p.parseUnary()
		if err != nil {
			return logic.NoFormula, err
		}
		return p.arena.MkNot(f), nil
	case '!', '?':
		kind := logic.Forall
		if p.input[p.pos] == '?' {
			kind = logic.Exists
		}
		p.pos++
		if err := p.expectLit("["); err != nil {
			return logic.NoFormula, err
		}
		var names []string
		for {
			name, err := p.ident()
			if err != nil {
				return logic.NoFormula, err
			}
			if !isTPTPVar(name) {
				return logic.NoFormula, p.fail("bound variable %q must be uppercase", name)
			}
			names = append(names, name)
			if p.eat(",") {
				continue
			}
			break
		}
		if err := p.expectLit("]"); err != nil {
			return logic.NoFormula, err
		}
		if err := p.expectLit(":"); err != nil {
			return logic.NoFormula, err
		}
		for _, n := range names {
			p.binders = append(p.binders, n)
			if p.bound == nil {
				p.bound = map[string]bool{}
			}
			p.bound[n] = true
		}
		body, err := p.parseUnary()
		if err != nil {
			return logic.NoFormula, err
		}
		p.binders = p.binders[:len(p.binders)-len(names)]
		for i := len(names) - 1; i >= 0; i-- {
			body = p.arena.MkQuantifier(kind, strings.ToLower(names[i]), body)
		}
		return body, nil
	case '(':
		p.pos++
		f, err := p.parseFormula()
		if err != nil {
			return logic.NoFormula, err
		}
		if err := p.expectLit(")"); err != nil {
			return logic.NoFormula, err
		}
		return f, nil
	case '$':
		p.pos++
		name, err := p.ident()
		if err != nil {
			return logic.NoFormula, err
		}
		switch name {
		case "true":
			return p.arena.MkAtom("true"), nil
		case "false":
			return p.arena.MkAtom("false"), nil
		}
		return logic.NoFormula, p.fail("unknown defined symbol $%s", name)
	default:
		return p.parseAtomOrEquality()
	}
}

func (p *tptpParser) parseAtomOrEquality() (logic.FormulaID, error) {
	left, err := p.parseTerm()
	if err != nil {
		return logic.NoFormula, err
	}
	p.skipSpace()
	if p.eat("!=") {
		right, err := p.parseTerm()
		if err != nil {
			return logic.NoFormula, err
		}
		return p.arena.MkNot(p.arena.MkAtom("eq", left, right)), nil
	}
	if p.pos < len(p.input) && p.input[p.pos] == '=' && !strings.HasPrefix(p.input[p.pos:], "=>") {
		p.pos++
		right, err := p.parseTerm()
		if err != nil {
			return logic.NoFormula, err
		}
		return p.arena.MkAtom("eq", left, right), nil
	}
	// A bare term in formula position must be a predicate application.
	t := p.arena.Term(left)
	switch t.Kind {
	case logic.TermApp:
		if err := p.arena.Signatures().CheckPred(t.Name, len(t.Args)); err != nil {
			return logic.NoFormula, p.fail("%s", err.Error())
		}
		return p.arena.MkAtom(t.Name, t.Args...), nil
	case logic.TermConst:
		return p.arena.MkAtom(t.Name), nil
	default:
		return logic.NoFormula, p.fail("a variable is not a formula")
	}
}

func (p *tptpParser) parseTerm() (logic.TermID, error) {
	name, err := p.ident()
	if err != nil {
		return logic.NoTerm, err
	}
	if isTPTPVar(name) {
		for i := len(p.binders) - 1; i >= 0; i-- {
			if p.binders[i] == name {
				return p.arena.MkVar(strings.ToLower(name), len(p.binders)-1-i), nil
			}
		}
		if p.freeUse == nil {
			p.freeUse = map[string]Span{}
		}
		if _, ok := p.freeUse[name]; !ok {
			p.freeUse[name] = Span{p.pos - len(name), p.pos}
		}
		return p.arena.MkFreeVar(strings.ToLower(name)), nil
	}
	p.skipSpace()
	if p.pos < len(p.input) && p.input[p.pos] == '(' {
		p.pos++
		var args []logic.TermID
		for {
			arg, err := p.parseTerm()
			if err != nil {
				return logic.NoTerm, err
			}
			args = append(args, arg)
			if p.eat(",") {
				continue
			}
			break
		}
		if err := p.expectLit(")"); err != nil {
			return logic.NoTerm, err
		}
		return p.arena.MkApp(name, args...), nil
	}
	return p.arena.MkConst(name), nil
}

func (p *tptpParser) ident() (string, error) {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			p.pos++
			continue
		}
		break
	}
	if p.pos == start {
		return "", p.fail("expected an identifier")
	}
	return p.input[start:p.pos], nil
}

func isTPTPVar(name string) bool {
	return name != "" && name[0] >= 'A' && name[0] <= 'Z'
}

package syntax

import (
	"fmt"

	"noesis/internal/logic"
)

// =============================================================================
// NATIVE TDFOL/DCEC SYNTAX
// =============================================================================
//
// Grammar sketch (maximal binder scope, standard precedence):
//
//	formula  := iff
//	iff      := implies ('<->' implies)*
//	implies  := or ('->' implies)?
//	or       := and ('|' and)*
//	and      := unary ('&' unary)*
//	unary    := '~' unary | '[]' unary | '<>' unary
//	          | ('forall'|'exists') ident+ '.' formula
//	          | operator-form | comparison | atom | '(' formula ')'
//
// Operator forms: Nec(p) Pos(p) Always(p) Eventually(p) Next(p)
// Until(p, q) Since(p, q) Common(p), and the bracketed agent forms
// Obligatory[a](p) Permitted[a](p) Forbidden[a](p) (short O/P/F) and
// Knows[a](p) Believes[a](p) Perceives[a](p) Desires[a](p)
// Intends[a](p) Says[a](p) (short K/B/D/I/S). Long operator names are
// reserved words; the short forms are operators only when followed by
// '[', so P(x) stays an ordinary predicate.
//
// Identifier classification in term position: an identifier bound by an
// enclosing quantifier is a bound variable; otherwise it is a free
// variable when it looks like one (first letter in u..z, any remaining
// characters digits) and a constant otherwise. Numerals are constants.
// Comparison operators normalize to the predicates eq/lt/leq/gt/geq and
// arithmetic operators to the functions add/sub/mul/div, matching the
// display printer, so print-then-parse is stable.

// unaryOps maps reserved operator names to their constructors' tags.
var modalOps = map[string]logic.ModalKind{"Nec": logic.Necessity, "Pos": logic.Possibility}

var temporalOps = map[string]logic.TemporalKind{
	"Always": logic.Always, "Eventually": logic.Eventually, "Next": logic.Next,
	"Until": logic.Until, "Since": logic.Since,
}

var deonticOps = map[string]logic.DeonticKind{
	"Obligatory": logic.Obligatory, "O": logic.Obligatory,
	"Permitted": logic.Permitted, "P": logic.Permitted,
	"Forbidden": logic.Forbidden, "F": logic.Forbidden,
}

var cognitiveOps = map[string]logic.CognitiveKind{
	"Knows": logic.Knows, "K": logic.Knows,
	"Believes": logic.Believes, "B": logic.Believes,
	"Perceives": logic.Perceives, "Desires": logic.Desires,
	"D": logic.Desires, "Intends": logic.Intends, "I": logic.Intends,
	"Says": logic.Says, "S": logic.Says,
}

// reserved reports whether an identifier may not be used as a predicate,
// function, variable or constant symbol.
func reserved(name string) bool {
	switch name {
	case "forall", "exists", "Common":
		return true
	}
	if _, ok := modalOps[name]; ok {
		return true
	}
	if _, ok := temporalOps[name]; ok {
		return true
	}
	// Single-letter deontic/cognitive shorthands are operators only when
	// bracketed, so they stay available as ordinary symbols.
	if _, ok := deonticOps[name]; ok && len(name) > 1 {
		return true
	}
	if _, ok := cognitiveOps[name]; ok && len(name) > 1 {
		return true
	}
	return false
}

// isVarName reports whether a surface identifier denotes a free variable
// rather than a constant: first letter in u..z, any remaining characters
// digits (x, y, z2, v0 ...).
func isVarName(name string) bool {
	if name == "" || name[0] < 'u' || name[0] > 'z' {
		return false
	}
	for i := 1; i < len(name); i++ {
		if name[i] < '0' || name[i] > '9' {
			return false
		}
	}
	return true
}

type nativeParser struct {
	arena   *logic.Arena
	toks    []token
	pos     int
	meta    bool // accept ?metavariables (rule-pattern mode)
	binders []string
	// scope tracking: a name both bound somewhere and used free somewhere
	// is a scope violation, reported as a ValidationError rather than a
	// silent free variable.
	bound    map[string]bool
	freeUses map[string]Span
	// Function signatures seen while speculatively parsing a comparison
	// are held here and registered only when the comparison commits, so
	// a rewound attempt leaves no trace in the signature table.
	speculating  bool
	pendingFuncs []pendingFunc
}

type pendingFunc struct {
	name  string
	arity int
	span  Span
}

// ParseNative parses one formula in the native surface syntax.
func ParseNative(a *logic.Arena, input string) (logic.FormulaID, error) {
	return parseNative(a, input, false)
}

// ParsePattern parses a rule pattern: native syntax extended with ?p
// formula metavariables and ?x term metavariables.
func ParsePattern(a *logic.Arena, input string) (logic.FormulaID, error) {
	return parseNative(a, input, true)
}

// ParseTerm parses a single term in the native surface syntax.
func ParseTerm(a *logic.Arena, input string) (logic.TermID, error) {
	toks, lerr := lexNative(input)
	if lerr != nil {
		return logic.NoTerm, lerr
	}
	p := &nativeParser{arena: a, toks: toks, bound: map[string]bool{}, freeUses: map[string]Span{}}
	t, err := p.parseTermExpr()
	if err != nil {
		return logic.NoTerm, err
	}
	if p.peek().kind != tokEOF {
		return logic.NoTerm, p.errHere("unexpected %s after term", p.peek().kind)
	}
	return t, nil
}

func parseNative(a *logic.Arena, input string, meta bool) (logic.FormulaID, error) {
	toks, lerr := lexNative(input)
	if lerr != nil {
		return logic.NoFormula, lerr
	}
	p := &nativeParser{
		arena:    a,
		toks:     toks,
		meta:     meta,
		bound:    map[string]bool{},
		freeUses: map[string]Span{},
	}
	f, err := p.parseFormula()
	if err != nil {
		return logic.NoFormula, err
	}
	if p.peek().kind != tokEOF {
		return logic.NoFormula, p.errHere("unexpected %s after formula", p.peek().kind)
	}
	for name, span := range p.freeUses {
		if p.bound[name] {
			return logic.NoFormula, &ValidationError{
				Span:    span,
				Message: fmt.Sprintf("variable %q used outside the scope of its binder", name),
			}
		}
	}
	return f, nil
}

func (p *nativeParser) peek() token  { return p.toks[p.pos] }
func (p *nativeParser) next() token  { t := p.toks[p.pos]; p.pos++; return t }
func (p *nativeParser) at(k tokKind) bool { return p.toks[p.pos].kind == k }

func (p *nativeParser) expect(k tokKind) (token, error) {
	if !p.at(k) {
		return token{}, p.errHere("expected %s, found %s", k, p.peek().kind)
	}
	return p.next(), nil
}

func (p *nativeParser) errHere(format string, args ...interface{}) error {
	return &ValidationError{Span: p.peek().span, Message: fmt.Sprintf(format, args...)}
}

// -----------------------------------------------------------------------------
// Formula grammar
// -----------------------------------------------------------------------------

func (p *nativeParser) parseFormula() (logic.FormulaID, error) {
	return p.parseIff()
}

func (p *nativeParser) parseIff() (logic.FormulaID, error) {
	left, err := p.parseImplies()
	if err != nil {
		return logic.NoFormula, err
	}
	for p.at(tokIff) {
		p.next()
		right, err := p.parseImplies()
		if err != nil {
			return logic.NoFormula, err
		}
		left = p.arena.MkIff(left, right)
	}
	return left, nil
}

func (p *nativeParser) parseImplies() (logic.FormulaID, error) {
	left, err := p.parseOr()
	if err != nil {
		return logic.NoFormula, err
	}
	if p.at(tokImplies) {
		p.next()
		right, err := p.parseImplies() // right associative
		if err != nil {
			return logic.NoFormula, err
		}
		return p.arena.MkImplies(left, right), nil
	}
	return left, nil
}

func (p *nativeParser) parseOr() (logic.FormulaID, error) {
	left, err := p.parseAnd()
	if err != nil {
		return logic.NoFormula, err
	}
	for p.at(tokOr) {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return logic.NoFormula, err
		}
		left = p.arena.MkOr(left, right)
	}
	return left, nil
}

func (p *nativeParser) parseAnd() (logic.FormulaID, error) {
	left, err := p.parseUnary()
	if err != nil {
		return logic.NoFormula, err
	}
	for p.at(tokAnd) {
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return logic.NoFormula, err
		}
		left = p.arena.MkAnd(left, right)
	}
	return left, nil
}

func (p *nativeParser) parseUnary() (logic.FormulaID, error) {
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
	case tokMeta:
		if !p.meta {
			return logic.NoFormula, p.errHere("metavariable %s not allowed outside rule patterns", p.peek().text)
		}
		t := p.next()
		return p.arena.MkMeta(t.text), nil
	case tokIdent:
		if p.peek().text == "forall" || p.peek().text == "exists" {
			return p.parseQuantifier()
		}
		return p.parsePrimary()
	default:
		return p.parsePrimary()
	}
}

func (p *nativeParser) parseQuantifier() (logic.FormulaID, error) {
	kw := p.next().text
	kind := logic.Forall
	if kw == "exists" {
		kind = logic.Exists
	}
	var names []string
	for p.at(tokIdent) {
		name := p.next().text
		if reserved(name) {
			return logic.NoFormula, p.errHere("reserved word %q cannot be bound", name)
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		return logic.NoFormula, p.errHere("expected bound variable after %q", kw)
	}
	if _, err := p.expect(tokDot); err != nil {
		return logic.NoFormula, err
	}
	for _, name := range names {
		p.binders = append(p.binders, name)
		p.bound[name] = true
	}
	body, err := p.parseFormula()
	if err != nil {
		return logic.NoFormula, err
	}
	p.binders = p.binders[:len(p.binders)-len(names)]
	for i := len(names) - 1; i >= 0; i-- {
		body = p.arena.MkQuantifier(kind, names[i], body)
	}
	return body, nil
}

// parsePrimary handles operator forms, atoms, comparisons and grouping.
// A '(' is ambiguous between a grouped formula and a parenthesized
// arithmetic term, so comparisons are tried first and the position is
// rewound on failure; interning makes the abandoned attempt harmless,
// and function signatures it saw are only registered on commit.
func (p *nativeParser) parsePrimary() (logic.FormulaID, error) {
	if p.at(tokIdent) {
		name := p.peek().text
		if f, ok, err := p.parseOperatorForm(name); ok {
			return f, err
		}
	}

	mark := p.pos
	p.speculating = true
	f, cmpErr := p.parseComparison()
	p.speculating = false
	if cmpErr == nil {
		if err := p.commitFuncs(); err != nil {
			return logic.NoFormula, err
		}
		return f, nil
	}
	p.pendingFuncs = p.pendingFuncs[:0]
	p.pos = mark

	switch p.peek().kind {
	case tokLParen:
		p.next()
		f, err := p.parseFormula()
		if err != nil {
			return logic.NoFormula, err
		}
		if _, err := p.expect(tokRParen); err != nil {
			return logic.NoFormula, err
		}
		return f, nil
	case tokIdent:
		return p.parseAtom()
	default:
		return logic.NoFormula, p.errHere("expected a formula, found %s", p.peek().kind)
	}
}

// parseOperatorForm recognizes the named modal/temporal/deontic/cognitive
// operators. Returns ok=false when name is not an operator in this
// position (short forms without a bracket).
func (p *nativeParser) parseOperatorForm(name string) (logic.FormulaID, bool, error) {
	following := p.toks[p.pos+1].kind

	if k, ok := modalOps[name]; ok {
		p.next()
		body, err := p.parenFormula()
		if err != nil {
			return logic.NoFormula, true, err
		}
		return p.arena.MkModal(k, body), true, nil
	}
	if k, ok := temporalOps[name]; ok {
		p.next()
		if k.Binary() {
			first, second, err := p.parenFormulaPair()
			if err != nil {
				return logic.NoFormula, true, err
			}
			return p.arena.MkTemporal(k, first, second), true, nil
		}
		body, err := p.parenFormula()
		if err != nil {
			return logic.NoFormula, true, err
		}
		return p.arena.MkTemporal(k, body, logic.NoFormula), true, nil
	}
	if name == "Common" {
		p.next()
		body, err := p.parenFormula()
		if err != nil {
			return logic.NoFormula, true, err
		}
		return p.arena.MkCognitive(logic.Common, logic.NoTerm, body), true, nil
	}
	if k, ok := deonticOps[name]; ok && (len(name) > 1 || following == tokLBrack) {
		p.next()
		agent, body, err := p.agentForm(name)
		if err != nil {
			return logic.NoFormula, true, err
		}
		return p.arena.MkDeontic(k, agent, body), true, nil
	}
	if k, ok := cognitiveOps[name]; ok && (len(name) > 1 || following == tokLBrack) {
		p.next()
		agent, body, err := p.agentForm(name)
		if err != nil {
			return logic.NoFormula, true, err
		}
		return p.arena.MkCognitive(k, agent, body), true, nil
	}
	return logic.NoFormula, false, nil
}

func (p *nativeParser) parenFormula() (logic.FormulaID, error) {
	if _, err := p.expect(tokLParen); err != nil {
		return logic.NoFormula, err
	}
	f, err := p.parseFormula()
	if err != nil {
		return logic.NoFormula, err
	}
	if _, err := p.expect(tokRParen); err != nil {
		return logic.NoFormula, err
	}
	return f, nil
}

func (p *nativeParser) parenFormulaPair() (logic.FormulaID, logic.FormulaID, error) {
	if _, err := p.expect(tokLParen); err != nil {
		return logic.NoFormula, logic.NoFormula, err
	}
	first, err := p.parseFormula()
	if err != nil {
		return logic.NoFormula, logic.NoFormula, err
	}
	if _, err := p.expect(tokComma); err != nil {
		return logic.NoFormula, logic.NoFormula, err
	}
	second, err := p.parseFormula()
	if err != nil {
		return logic.NoFormula, logic.NoFormula, err
	}
	if _, err := p.expect(tokRParen); err != nil {
		return logic.NoFormula, logic.NoFormula, err
	}
	return first, second, nil
}

func (p *nativeParser) agentForm(op string) (logic.TermID, logic.FormulaID, error) {
	if _, err := p.expect(tokLBrack); err != nil {
		return logic.NoTerm, logic.NoFormula, err
	}
	agent, err := p.parseTermExpr()
	if err != nil {
		return logic.NoTerm, logic.NoFormula, err
	}
	if _, err := p.expect(tokRBrack); err != nil {
		return logic.NoTerm, logic.NoFormula, err
	}
	body, err := p.parenFormula()
	if err != nil {
		return logic.NoTerm, logic.NoFormula, err
	}
	return agent, body, nil
}

// parseAtom parses an ordinary predicate application or nullary atom.
func (p *nativeParser) parseAtom() (logic.FormulaID, error) {
	nameTok, err := p.expect(tokIdent)
	if err != nil {
		return logic.NoFormula, err
	}
	name := nameTok.text
	if reserved(name) {
		return logic.NoFormula, &ValidationError{Span: nameTok.span, Message: fmt.Sprintf("reserved word %q cannot be a predicate", name)}
	}
	if !p.at(tokLParen) {
		if err := p.arena.Signatures().CheckPred(name, 0); err != nil {
			return logic.NoFormula, &ValidationError{Span: nameTok.span, Message: err.Error()}
		}
		return p.arena.MkAtom(name), nil
	}
	p.next()
	var args []logic.TermID
	for {
		arg, err := p.parseTermExpr()
		if err != nil {
			return logic.NoFormula, err
		}
		args = append(args, arg)
		if p.at(tokComma) {
			p.next()
			continue
		}
		break
	}
	if _, err := p.expect(tokRParen); err != nil {
		return logic.NoFormula, err
	}
	if err := p.arena.Signatures().CheckPred(name, len(args)); err != nil {
		return logic.NoFormula, &ValidationError{Span: nameTok.span, Message: err.Error()}
	}
	return p.arena.MkAtom(name, args...), nil
}

// parseComparison parses `term relop term`, normalizing the operator to
// its named predicate.
func (p *nativeParser) parseComparison() (logic.FormulaID, error) {
	left, err := p.parseTermExpr()
	if err != nil {
		return logic.NoFormula, err
	}
	var pred string
	negated := false
	switch p.peek().kind {
	case tokEq:
		pred = "eq"
	case tokNeq:
		pred, negated = "eq", true
	case tokLt:
		pred = "lt"
	case tokLeq:
		pred = "leq"
	case tokGt:
		pred = "gt"
	case tokGeq:
		pred = "geq"
	default:
		return logic.NoFormula, p.errHere("expected a comparison operator")
	}
	p.next()
	right, err := p.parseTermExpr()
	if err != nil {
		return logic.NoFormula, err
	}
	atom := p.arena.MkAtom(pred, left, right)
	if negated {
		return p.arena.MkNot(atom), nil
	}
	return atom, nil
}

// -----------------------------------------------------------------------------
// Term grammar (with arithmetic)
// -----------------------------------------------------------------------------

func (p *nativeParser) parseTermExpr() (logic.TermID, error) {
	left, err := p.parseTermFactor()
	if err != nil {
		return logic.NoTerm, err
	}
	for p.at(tokPlus) || p.at(tokMinus) {
		fn := "add"
		if p.next().kind == tokMinus {
			fn = "sub"
		}
		right, err := p.parseTermFactor()
		if err != nil {
			return logic.NoTerm, err
		}
		left = p.arena.MkApp(fn, left, right)
	}
	return left, nil
}

func (p *nativeParser) parseTermFactor() (logic.TermID, error) {
	left, err := p.parseTermPrimary()
	if err != nil {
		return logic.NoTerm, err
	}
	for p.at(tokStar) || p.at(tokSlash) {
		fn := "mul"
		if p.next().kind == tokSlash {
			fn = "div"
		}
		right, err := p.parseTermPrimary()
		if err != nil {
			return logic.NoTerm, err
		}
		left = p.arena.MkApp(fn, left, right)
	}
	return left, nil
}

func (p *nativeParser) parseTermPrimary() (logic.TermID, error) {
	switch p.peek().kind {
	case tokNumber:
		return p.arena.MkConst(p.next().text), nil
	case tokLParen:
		p.next()
		t, err := p.parseTermExpr()
		if err != nil {
			return logic.NoTerm, err
		}
		if _, err := p.expect(tokRParen); err != nil {
			return logic.NoTerm, err
		}
		return t, nil
	case tokMeta:
		if !p.meta {
			return logic.NoTerm, p.errHere("metavariable %s not allowed outside rule patterns", p.peek().text)
		}
		return p.arena.MkFreeVar(p.next().text), nil
	case tokIdent:
		nameTok := p.next()
		name := nameTok.text
		if reserved(name) {
			return logic.NoTerm, &ValidationError{Span: nameTok.span, Message: fmt.Sprintf("reserved word %q cannot be a term", name)}
		}
		if p.at(tokLParen) {
			p.next()
			var args []logic.TermID
			for {
				arg, err := p.parseTermExpr()
				if err != nil {
					return logic.NoTerm, err
				}
				args = append(args, arg)
				if p.at(tokComma) {
					p.next()
					continue
				}
				break
			}
			if _, err := p.expect(tokRParen); err != nil {
				return logic.NoTerm, err
			}
			if p.speculating {
				if want, ok := p.arena.Signatures().FuncArity(name); ok && want != len(args) {
					serr := &logic.SignatureError{Symbol: name, Want: want, Got: len(args)}
					return logic.NoTerm, &ValidationError{Span: nameTok.span, Message: serr.Error()}
				}
				p.pendingFuncs = append(p.pendingFuncs, pendingFunc{name, len(args), nameTok.span})
			} else if err := p.arena.Signatures().CheckFunc(name, len(args)); err != nil {
				return logic.NoTerm, &ValidationError{Span: nameTok.span, Message: err.Error()}
			}
			return p.arena.MkApp(name, args...), nil
		}
		return p.resolveName(name, nameTok.span), nil
	default:
		return logic.NoTerm, p.errHere("expected a term, found %s", p.peek().kind)
	}
}

// commitFuncs registers the function signatures collected during a
// comparison parse that committed.
func (p *nativeParser) commitFuncs() error {
	for _, pf := range p.pendingFuncs {
		if err := p.arena.Signatures().CheckFunc(pf.name, pf.arity); err != nil {
			return &ValidationError{Span: pf.span, Message: err.Error()}
		}
	}
	p.pendingFuncs = p.pendingFuncs[:0]
	return nil
}

// resolveName classifies a bare identifier in term position.
func (p *nativeParser) resolveName(name string, span Span) logic.TermID {
	for i := len(p.binders) - 1; i >= 0; i-- {
		if p.binders[i] == name {
			return p.arena.MkVar(name, len(p.binders)-1-i)
		}
	}
	if isVarName(name) {
		if _, seen := p.freeUses[name]; !seen {
			p.freeUses[name] = span
		}
		return p.arena.MkFreeVar(name)
	}
	return p.arena.MkConst(name)
}

// -----------------------------------------------------------------------------
// Converter
// -----------------------------------------------------------------------------

// NativeConverter is the lossless native TDFOL/DCEC surface syntax.
type NativeConverter struct{}

func (NativeConverter) Name() string   { return "native" }
func (NativeConverter) Lossless() bool { return true }

func (NativeConverter) Validate(input string) ValidationResult {
	a := logic.NewArena()
	if _, err := ParseNative(a, input); err != nil {
		return ValidationResult{Errors: []string{err.Error()}}
	}
	return ValidationResult{Valid: true}
}

func (NativeConverter) Parse(a *logic.Arena, input string) (logic.FormulaID, error) {
	return ParseNative(a, input)
}

func (NativeConverter) Serialize(a *logic.Arena, f logic.FormulaID) (string, []string, error) {
	return a.String(f), nil, nil
}

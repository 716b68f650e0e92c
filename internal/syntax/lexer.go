package syntax

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

// =============================================================================
// NATIVE LEXER
// =============================================================================

type tokKind uint8

const (
	tokEOF tokKind = iota
	tokIdent
	tokNumber
	tokMeta // ?name
	tokLParen
	tokRParen
	tokLBrack
	tokRBrack
	tokComma
	tokDot
	tokNot     // ~
	tokAnd     // &
	tokOr      // |
	tokImplies // ->
	tokIff     // <->
	tokBox     // []
	tokDiamond // <>
	tokEq      // =
	tokNeq     // !=
	tokLt      // <
	tokLeq     // <=
	tokGt      // >
	tokGeq     // >=
	tokPlus
	tokMinus
	tokStar
	tokSlash
)

func (k tokKind) String() string {
	switch k {
	case tokEOF:
		return "end of input"
	case tokIdent:
		return "identifier"
	case tokNumber:
		return "number"
	case tokMeta:
		return "metavariable"
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	case tokLBrack:
		return "'['"
	case tokRBrack:
		return "']'"
	case tokComma:
		return "','"
	case tokDot:
		return "'.'"
	case tokNot:
		return "'~'"
	case tokAnd:
		return "'&'"
	case tokOr:
		return "'|'"
	case tokImplies:
		return "'->'"
	case tokIff:
		return "'<->'"
	case tokBox:
		return "'[]'"
	case tokDiamond:
		return "'<>'"
	default:
		return "operator"
	}
}

type token struct {
	kind tokKind
	text string
	span Span
}

// lexNative tokenizes the native surface syntax. The same token stream
// serves the pattern parser (meta mode) and the modal string parser,
// which uses a subset of the tokens.
func lexNative(input string) ([]token, *ValidationError) {
	var toks []token
	i := 0
	n := len(input)
	emit := func(k tokKind, start, end int) {
		toks = append(toks, token{kind: k, text: input[start:end], span: Span{start, end}})
	}
	for i < n {
		c := input[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(':
			emit(tokLParen, i, i+1)
			i++
		case c == ')':
			emit(tokRParen, i, i+1)
			i++
		case c == '[':
			if i+1 < n && input[i+1] == ']' {
				emit(tokBox, i, i+2)
				i += 2
			} else {
				emit(tokLBrack, i, i+1)
				i++
			}
		case c == ']':
			emit(tokRBrack, i, i+1)
			i++
		case c == ',':
			emit(tokComma, i, i+1)
			i++
		case c == '.':
			emit(tokDot, i, i+1)
			i++
		case c == '~':
			emit(tokNot, i, i+1)
			i++
		case c == '&':
			// accept '&&' as sugar
			if i+1 < n && input[i+1] == '&' {
				emit(tokAnd, i, i+2)
				i += 2
			} else {
				emit(tokAnd, i, i+1)
				i++
			}
		case c == '|':
			if i+1 < n && input[i+1] == '|' {
				emit(tokOr, i, i+2)
				i += 2
			} else {
				emit(tokOr, i, i+1)
				i++
			}
		case c == '-':
			if i+1 < n && input[i+1] == '>' {
				emit(tokImplies, i, i+2)
				i += 2
			} else {
				emit(tokMinus, i, i+1)
				i++
			}
		case c == '<':
			switch {
			case i+2 < n && input[i+1] == '-' && input[i+2] == '>':
				emit(tokIff, i, i+3)
				i += 3
			case i+1 < n && input[i+1] == '>':
				emit(tokDiamond, i, i+2)
				i += 2
			case i+1 < n && input[i+1] == '=':
				emit(tokLeq, i, i+2)
				i += 2
			default:
				emit(tokLt, i, i+1)
				i++
			}
		case c == '>':
			if i+1 < n && input[i+1] == '=' {
				emit(tokGeq, i, i+2)
				i += 2
			} else {
				emit(tokGt, i, i+1)
				i++
			}
		case c == '=':
			emit(tokEq, i, i+1)
			i++
		case c == '!':
			if i+1 < n && input[i+1] == '=' {
				emit(tokNeq, i, i+2)
				i += 2
			} else {
				return nil, &ValidationError{Span: Span{i, i + 1}, Message: "unexpected '!'"}
			}
		case c == '+':
			emit(tokPlus, i, i+1)
			i++
		case c == '*':
			emit(tokStar, i, i+1)
			i++
		case c == '/':
			emit(tokSlash, i, i+1)
			i++
		case c == '?':
			start := i
			i++
			j := scanIdent(input, i)
			if j == i {
				return nil, &ValidationError{Span: Span{start, i}, Message: "'?' must be followed by a metavariable name"}
			}
			i = j
			emit(tokMeta, start, i)
		case c >= '0' && c <= '9':
			start := i
			for i < n && input[i] >= '0' && input[i] <= '9' {
				i++
			}
			emit(tokNumber, start, i)
		default:
			start := i
			j := scanIdent(input, i)
			if j == i {
				r, size := utf8.DecodeRuneInString(input[i:])
				return nil, &ValidationError{
					Span:    Span{i, i + size},
					Message: fmt.Sprintf("unexpected character %q", r),
				}
			}
			i = j
			emit(tokIdent, start, i)
		}
	}
	toks = append(toks, token{kind: tokEOF, span: Span{n, n}})
	return toks, nil
}

func scanIdent(input string, i int) int {
	n := len(input)
	start := i
	for i < n {
		r, size := utf8.DecodeRuneInString(input[i:])
		if r == '_' || r == '\'' || unicode.IsLetter(r) || (i > start && unicode.IsDigit(r)) {
			i += size
			continue
		}
		break
	}
	return i
}

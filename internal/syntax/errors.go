// Package syntax implements the surface syntaxes of the system: the
// native TDFOL/DCEC text form, a modal-logic string form, TPTP FOF, the
// Lean and Coq interactive-prover dialects, and an English gloss. Each
// converter produces and consumes the arena formula model; a registry
// dispatches conversions by format name.
package syntax

import "fmt"

// Span marks a byte range in an input string.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// ValidationError reports malformed or ill-scoped input. Parsers return
// it instead of producing a partial AST; input carrying one never
// reaches a prover.
type ValidationError struct {
	Span    Span
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid formula at %d..%d: %s", e.Span.Start, e.Span.End, e.Message)
}

// TranslationError reports a formula using a construct the target syntax
// cannot express. The router treats it as a skip, not a failure.
type TranslationError struct {
	Format    string
	Construct string
}

func (e *TranslationError) Error() string {
	return fmt.Sprintf("%s cannot express %s", e.Format, e.Construct)
}

// ValidationResult is the outcome of Validate on one input string.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// ConversionResult carries a converted formula. Exactly one of Formula
// (a parse target) or Text (a serialization target) is meaningful,
// depending on the direction requested.
type ConversionResult struct {
	Text       string
	Warnings   []string
	Confidence float64
}

// Package bridge adapts external and delegate provers behind one closed
// capability interface. Adapters differ only in grammar and transport;
// the router and cache see nothing but Bridge.
package bridge

import (
	"context"
	"fmt"
	"time"

	"noesis/internal/analysis"
	"noesis/internal/logic"
	"noesis/internal/proof"
)

// CapabilitySet declares which formula features an adapter can handle.
// The router filters candidates through Supports before ranking.
type CapabilitySet struct {
	Propositional bool
	FirstOrder    bool
	Arithmetic    bool
	Modal         bool
	Temporal      bool
	Deontic       bool
	Cognitive     bool
}

// Supports reports whether every feature present in ft is covered.
func (c CapabilitySet) Supports(ft analysis.Features) bool {
	switch {
	case !c.Propositional:
		return false
	case ft.HasQuantifier && !c.FirstOrder:
		return false
	case ft.HasArithmetic && !c.Arithmetic:
		return false
	case ft.HasModal && !c.Modal:
		return false
	case ft.HasTemporal && !c.Temporal:
		return false
	case ft.HasDeontic && !c.Deontic:
		return false
	case ft.HasCognitive && !c.Cognitive:
		return false
	}
	return true
}

// Bridge is one prover adapter. Translate renders the problem in the
// adapter's input grammar, Invoke carries it over the adapter's
// transport, ParseResult maps the raw reply back to a Result. The split
// keeps translation testable without the transport.
type Bridge interface {
	// Name identifies the adapter instance, e.g. "smt-z3".
	Name() string
	// Method is the result/cache method tag, e.g. "smt".
	Method() string
	Capabilities() CapabilitySet
	Translate(a *logic.Arena, goal logic.FormulaID, axioms []logic.FormulaID) (string, error)
	Invoke(ctx context.Context, input string, timeout time.Duration) (string, error)
	ParseResult(raw string) proof.Result
}

// Error wraps a transport failure with the adapter and operation that
// produced it.
type Error struct {
	Bridge string
	Op     string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("bridge %s: %s: %v", e.Bridge, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Prove runs the translate/invoke/parse pipeline for one adapter.
// Translation and transport failures become Error results; the router
// records them as failed attempts and moves on.
func Prove(ctx context.Context, b Bridge, a *logic.Arena, goal logic.FormulaID, axioms []logic.FormulaID, timeout time.Duration) proof.Result {
	start := time.Now()
	input, err := b.Translate(a, goal, axioms)
	if err != nil {
		return proof.ErrorResult(b.Method(), err.Error(), time.Since(start))
	}
	raw, err := b.Invoke(ctx, input, timeout)
	if err != nil {
		return proof.ErrorResult(b.Method(), err.Error(), time.Since(start))
	}
	res := b.ParseResult(raw)
	res.Method = b.Method()
	res.ElapsedMS = time.Since(start).Milliseconds()
	return res
}

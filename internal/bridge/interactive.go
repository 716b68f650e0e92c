package bridge

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"noesis/internal/logic"
	"noesis/internal/proof"
	"noesis/internal/syntax"
)

// =============================================================================
// INTERACTIVE PROVER ADAPTERS
// =============================================================================

// Interactive checks a generated theorem file with an interactive
// prover. The axioms become the antecedent of one implication and the
// proof body is a general automation tactic; the adapter reads success
// or failure off the checker output.
type Interactive struct {
	run     runner
	conv    syntax.InteractiveConverter
	wrapper string
	ext     string
	failure []string
}

// NewLean creates the Lean 4 adapter. Empty binary means lean on PATH.
func NewLean(binary string) *Interactive {
	if binary == "" {
		binary = "lean"
	}
	return &Interactive{
		run:     runner{bridge: "lean-" + filepath.Base(binary), binary: binary},
		conv:    syntax.NewLeanConverter(),
		wrapper: "theorem goal : %s := by\n  tauto\n",
		ext:     ".lean",
		failure: []string{"error", "sorry", "unsolved goals"},
	}
}

// NewCoq creates the Coq adapter. Empty binary means coqc on PATH.
func NewCoq(binary string) *Interactive {
	if binary == "" {
		binary = "coqc"
	}
	return &Interactive{
		run:     runner{bridge: "coq-" + filepath.Base(binary), binary: binary},
		conv:    syntax.NewCoqConverter(),
		wrapper: "Theorem goal : %s.\nProof.\n  firstorder.\nQed.\n",
		ext:     ".v",
		failure: []string{"Error", "Admitted"},
	}
}

func (i *Interactive) Name() string   { return i.run.bridge }
func (i *Interactive) Method() string { return "interactive" }

func (i *Interactive) Capabilities() CapabilitySet {
	return CapabilitySet{Propositional: true, FirstOrder: true}
}

// Translate renders ax1 -> (ax2 -> ... -> goal) and wraps it as a
// theorem with an automation proof body.
func (i *Interactive) Translate(a *logic.Arena, goal logic.FormulaID, axioms []logic.FormulaID) (string, error) {
	obligation := goal
	for j := len(axioms) - 1; j >= 0; j-- {
		obligation = a.MkImplies(axioms[j], obligation)
	}
	body, _, err := i.conv.Serialize(a, obligation)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(i.wrapper, body), nil
}

func (i *Interactive) Invoke(ctx context.Context, input string, timeout time.Duration) (string, error) {
	return i.run.runFile(ctx, input, i.ext, timeout)
}

// ParseResult treats a clean check as Proved. A failed tactic leaves
// the goal open, which says nothing about its negation, so failures are
// Unknown rather than Disproved.
func (i *Interactive) ParseResult(raw string) proof.Result {
	for _, marker := range i.failure {
		if strings.Contains(raw, marker) {
			return proof.Result{Status: proof.StatusUnknown, Message: "checker rejected the proof script"}
		}
	}
	return proof.Result{Status: proof.StatusProved, Message: "theorem file checked"}
}

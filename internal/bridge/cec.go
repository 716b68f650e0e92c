package bridge

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"noesis/internal/kb"
	"noesis/internal/logic"
	"noesis/internal/proof"
	"noesis/internal/prover"
	"noesis/internal/rules"
	"noesis/internal/syntax"
)

// =============================================================================
// CEC DELEGATE
// =============================================================================

// CEC is the cognitive event calculus delegate: the native engine
// restricted to the cognitive and deontic rule categories (plus the
// classical ones they lean on), running in process. The resolution
// fallback stays off; its clausal fragment cannot express the modal
// operators this delegate exists for.
type CEC struct {
	prover *prover.Prover
	cfg    prover.Config
}

// NewCEC creates the delegate over a shared rule registry.
func NewCEC(registry *rules.Registry) *CEC {
	cfg := prover.DefaultConfig()
	cfg.Categories = []rules.Category{
		rules.CategoryCognitive,
		rules.CategoryDeontic,
		rules.CategoryPropositional,
		rules.CategoryQuantifier,
	}
	cfg.DisableResolution = true
	return &CEC{prover: prover.New(registry, nil), cfg: cfg}
}

func (c *CEC) Name() string   { return "cec" }
func (c *CEC) Method() string { return "cec" }

func (c *CEC) Capabilities() CapabilitySet {
	return CapabilitySet{Propositional: true, FirstOrder: true, Deontic: true, Cognitive: true}
}

// Translate writes the problem in canonical native syntax, goal first.
// The delegate is in process, but keeping the translate/invoke split
// keeps its input inspectable like any other adapter's.
func (c *CEC) Translate(a *logic.Arena, goal logic.FormulaID, axioms []logic.FormulaID) (string, error) {
	var b strings.Builder
	b.WriteString(a.Canonical(goal) + "\n")
	for _, ax := range axioms {
		b.WriteString(a.Canonical(ax) + "\n")
	}
	return b.String(), nil
}

func (c *CEC) Invoke(ctx context.Context, input string, timeout time.Duration) (string, error) {
	lines := strings.Split(strings.TrimSuffix(input, "\n"), "\n")
	a := logic.NewArena()
	goal, err := syntax.ParseNative(a, lines[0])
	if err != nil {
		return "", &Error{Bridge: c.Name(), Op: "parse goal", Err: err}
	}
	axioms := make([]logic.FormulaID, 0, len(lines)-1)
	for _, line := range lines[1:] {
		ax, err := syntax.ParseNative(a, line)
		if err != nil {
			return "", &Error{Bridge: c.Name(), Op: "parse axiom", Err: err}
		}
		axioms = append(axioms, ax)
	}

	cfg := c.cfg
	if timeout > 0 {
		cfg.Timeout = timeout
	}
	res := c.prover.Prove(ctx, kb.NewSnapshot(a, axioms...), goal, cfg)
	blob, err := res.JSON()
	if err != nil {
		return "", &Error{Bridge: c.Name(), Op: "encode result", Err: err}
	}
	return string(blob), nil
}

func (c *CEC) ParseResult(raw string) proof.Result {
	var res proof.Result
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		return proof.Result{Status: proof.StatusError, Message: "bad delegate output: " + err.Error()}
	}
	return res
}

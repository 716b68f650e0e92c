package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"noesis/internal/logic"
	"noesis/internal/proof"
)

// =============================================================================
// NEURAL (SEMANTIC) ADAPTER
// =============================================================================

// Completer is the LLM surface the neural adapter needs. Tests use a
// fake; production uses GenAI.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// GenAI is the production Completer over the Gemini API.
type GenAI struct {
	client *genai.Client
	model  string
}

// NewGenAI creates a Gemini-backed completer.
func NewGenAI(ctx context.Context, apiKey, model string) (*GenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GenAI{client: client, model: model}, nil
}

func (g *GenAI) Complete(ctx context.Context, system, user string) (string, error) {
	result, err := g.client.Models.GenerateContent(ctx,
		g.model,
		genai.Text(user),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		},
	)
	if err != nil {
		return "", fmt.Errorf("GenAI completion failed: %w", err)
	}
	return result.Text(), nil
}

const neuralSystemPrompt = `You are a logic assistant judging entailment.
Given axioms and a goal in a first-order/modal logic notation, decide
whether the axioms entail the goal. Respond with ONLY a JSON object:
{"status": "proved"|"disproved"|"unknown", "confidence": 0.0-1.0, "rationale": "..."}
Use "proved" only when the entailment is certain, "disproved" only when
the axioms entail the negation of the goal.`

// Neural is the last-resort semantic prover. Its verdict is advisory:
// answers below the confidence threshold degrade to Unknown, and the
// rationale travels in the result message.
type Neural struct {
	llm       Completer
	threshold float64
}

// NewNeural creates the adapter. threshold <= 0 selects 0.75.
func NewNeural(llm Completer, threshold float64) *Neural {
	if threshold <= 0 {
		threshold = 0.75
	}
	return &Neural{llm: llm, threshold: threshold}
}

func (n *Neural) Name() string   { return "neural" }
func (n *Neural) Method() string { return "neural" }

func (n *Neural) Capabilities() CapabilitySet {
	return CapabilitySet{
		Propositional: true, FirstOrder: true, Arithmetic: true,
		Modal: true, Temporal: true, Deontic: true, Cognitive: true,
	}
}

func (n *Neural) Translate(a *logic.Arena, goal logic.FormulaID, axioms []logic.FormulaID) (string, error) {
	var b strings.Builder
	b.WriteString("Axioms:\n")
	for _, ax := range axioms {
		b.WriteString("  " + a.Canonical(ax) + "\n")
	}
	b.WriteString("Goal:\n  " + a.Canonical(goal) + "\n")
	return b.String(), nil
}

func (n *Neural) Invoke(ctx context.Context, input string, timeout time.Duration) (string, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	raw, err := n.llm.Complete(ctx, neuralSystemPrompt, input)
	if err != nil {
		return "", &Error{Bridge: n.Name(), Op: "complete", Err: err}
	}
	return raw, nil
}

type neuralVerdict struct {
	Status     string  `json:"status"`
	Confidence float64 `json:"confidence"`
	Rationale  string  `json:"rationale"`
}

func (n *Neural) ParseResult(raw string) proof.Result {
	v, ok := decodeVerdict(raw)
	if !ok {
		return proof.Result{Status: proof.StatusUnknown, Message: "unparseable model response"}
	}
	msg := fmt.Sprintf("confidence %.2f: %s", v.Confidence, v.Rationale)
	if v.Confidence < n.threshold {
		return proof.Result{Status: proof.StatusUnknown, Message: "below confidence threshold, " + msg}
	}
	switch v.Status {
	case "proved":
		return proof.Result{Status: proof.StatusProved, Message: msg}
	case "disproved":
		return proof.Result{Status: proof.StatusDisproved, Message: msg}
	default:
		return proof.Result{Status: proof.StatusUnknown, Message: msg}
	}
}

// decodeVerdict tries the reply as plain JSON, then a fenced block,
// then the outermost braced object. Models decorate their output; the
// contract survives all three shapes.
func decodeVerdict(raw string) (neuralVerdict, bool) {
	candidates := []string{strings.TrimSpace(raw)}
	if i := strings.Index(raw, "```"); i >= 0 {
		rest := raw[i+3:]
		rest = strings.TrimPrefix(rest, "json")
		if j := strings.Index(rest, "```"); j >= 0 {
			candidates = append(candidates, strings.TrimSpace(rest[:j]))
		}
	}
	if i := strings.IndexByte(raw, '{'); i >= 0 {
		if j := strings.LastIndexByte(raw, '}'); j > i {
			candidates = append(candidates, raw[i:j+1])
		}
	}
	for _, cand := range candidates {
		var v neuralVerdict
		if err := json.Unmarshal([]byte(cand), &v); err == nil && v.Status != "" {
			return v, true
		}
	}
	return neuralVerdict{}, false
}

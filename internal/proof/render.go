package proof

import (
	"fmt"
	"strings"
)

// =============================================================================
// DERIVATION RENDERING
// =============================================================================

// RenderTree draws the derivation as an ASCII tree rooted at the final
// conclusion. Steps are expected in derivation order (premises before the
// steps that use them); the last step's conclusion is the goal.
func RenderTree(r Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s (%dms)\n", strings.ToUpper(string(r.Status)), r.Method, r.ElapsedMS)
	if len(r.Steps) == 0 {
		if r.Message != "" {
			fmt.Fprintf(&b, "  %s\n", r.Message)
		}
		return b.String()
	}

	// Index each derived conclusion by its producing step so premises can
	// be expanded recursively. Base facts have no producing step.
	byConclusion := make(map[string]Step, len(r.Steps))
	for _, s := range r.Steps {
		byConclusion[s.Conclusion] = s
	}

	goal := r.Steps[len(r.Steps)-1]
	renderStep(&b, goal, byConclusion, "", true, true, make(map[string]bool))
	return b.String()
}

func renderStep(b *strings.Builder, s Step, byConclusion map[string]Step, prefix string, last, root bool, onPath map[string]bool) {
	branch := "├── "
	childPrefix := prefix + "│   "
	if last {
		branch = "└── "
		childPrefix = prefix + "    "
	}
	if root {
		branch = ""
		childPrefix = ""
	}
	fmt.Fprintf(b, "%s%s%s   [%s]\n", prefix, branch, s.Conclusion, s.RuleName)

	onPath[s.Conclusion] = true
	defer delete(onPath, s.Conclusion)

	for i, prem := range s.Premises {
		lastPrem := i == len(s.Premises)-1
		sub, derived := byConclusion[prem]
		if derived && !onPath[prem] {
			renderStep(b, sub, byConclusion, childPrefix, lastPrem, false, onPath)
			continue
		}
		pb := "├── "
		if lastPrem {
			pb = "└── "
		}
		fmt.Fprintf(b, "%s%s%s   [axiom]\n", childPrefix, pb, prem)
	}
}

// RenderAttempts lists every prover attempt on one line each, in the
// order they were made.
func RenderAttempts(r Result) string {
	if len(r.Attempts) == 0 {
		return "(no attempts; served from cache)\n"
	}
	var b strings.Builder
	for i, at := range r.Attempts {
		fmt.Fprintf(&b, "%d. %-12s %-10s %dms", i+1, at.Method, at.Status, at.ElapsedMS)
		if at.Error != "" {
			fmt.Fprintf(&b, "  %s", at.Error)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

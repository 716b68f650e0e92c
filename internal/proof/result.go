// Package proof defines the result types shared by every prover in the
// system and the renderers that present derivations to callers.
package proof

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Status classifies the outcome of a proof attempt.
type Status string

const (
	StatusProved    Status = "proved"
	StatusDisproved Status = "disproved"
	StatusTimeout   Status = "timeout"
	StatusUnknown   Status = "unknown"
	StatusError     Status = "error"
)

// Conclusive reports whether the status settles the goal either way.
// Timeout, Unknown and Error all leave the question open and let the
// router fall through to the next candidate.
func (s Status) Conclusive() bool {
	return s == StatusProved || s == StatusDisproved
}

// Step is one application of a named inference rule. Premises and
// conclusion are canonical formula strings so a Result stays meaningful
// outside the arena that produced it.
type Step struct {
	RuleName   string   `json:"rule_name"`
	Premises   []string `json:"premises"`
	Conclusion string   `json:"conclusion"`
}

// Attempt records one prover invocation made while answering a request,
// including the ones that failed. The router aggregates every attempt
// into the final Result even on success.
type Attempt struct {
	ID        string `json:"id"`
	Method    string `json:"method"`
	Status    Status `json:"status"`
	ElapsedMS int64  `json:"elapsed_ms"`
	Error     string `json:"error,omitempty"`
}

// Result is the outcome of a proof obligation. Immutable once returned;
// the cache stores it as-is and hands copies to later callers.
type Result struct {
	Status    Status    `json:"status"`
	Method    string    `json:"method"`
	ElapsedMS int64     `json:"elapsed_ms"`
	Steps     []Step    `json:"steps,omitempty"`
	Attempts  []Attempt `json:"attempts,omitempty"`
	Message   string    `json:"message,omitempty"`
}

// NewAttempt builds an attempt record with a fresh id.
func NewAttempt(method string, status Status, elapsed time.Duration, errMsg string) Attempt {
	return Attempt{
		ID:        uuid.NewString(),
		Method:    method,
		Status:    status,
		ElapsedMS: elapsed.Milliseconds(),
		Error:     errMsg,
	}
}

// ErrorResult builds a terminal error Result.
func ErrorResult(method, msg string, elapsed time.Duration) Result {
	return Result{
		Status:    StatusError,
		Method:    method,
		ElapsedMS: elapsed.Milliseconds(),
		Message:   msg,
	}
}

// StatusResult builds a step-free Result with the given status.
func StatusResult(status Status, method string, elapsed time.Duration) Result {
	return Result{Status: status, Method: method, ElapsedMS: elapsed.Milliseconds()}
}

// JSON renders the result as indented JSON, the interchange form handed
// to collaborators.
func (r Result) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

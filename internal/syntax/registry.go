package syntax

import (
	"fmt"
	"sort"

	"noesis/internal/logic"
)

// Converter is one surface syntax. Parse builds a formula in the given
// arena; Serialize renders one out of it, returning lossy-encoding
// warnings alongside the text.
type Converter interface {
	Name() string
	Lossless() bool
	Validate(input string) ValidationResult
	Parse(a *logic.Arena, input string) (logic.FormulaID, error)
	Serialize(a *logic.Arena, f logic.FormulaID) (string, []string, error)
}

// Registry maps format names to converters. The zero registry is empty;
// NewRegistry returns one with every supported syntax installed.
type Registry struct {
	converters map[string]Converter
}

// NewRegistry builds a registry with the five supported syntaxes plus
// the NL gloss.
func NewRegistry() *Registry {
	r := &Registry{converters: make(map[string]Converter)}
	r.Register(NativeConverter{})
	r.Register(ModalConverter{})
	r.Register(TPTPConverter{})
	r.Register(NewLeanConverter())
	r.Register(NewCoqConverter())
	r.Register(NLConverter{})
	return r
}

// Register installs a converter under its name.
func (r *Registry) Register(c Converter) { r.converters[c.Name()] = c }

// Get returns the converter for a format name.
func (r *Registry) Get(name string) (Converter, bool) {
	c, ok := r.converters[name]
	return c, ok
}

// Formats lists the registered format names, sorted.
func (r *Registry) Formats() []string {
	out := make([]string, 0, len(r.converters))
	for name := range r.converters {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Convert parses input in the `from` syntax and serializes it in the
// `to` syntax. Confidence starts at 1.0 and decays with each lossy
// warning.
func (r *Registry) Convert(a *logic.Arena, input, from, to string) (ConversionResult, error) {
	src, ok := r.converters[from]
	if !ok {
		return ConversionResult{}, fmt.Errorf("unknown source format %q", from)
	}
	dst, ok := r.converters[to]
	if !ok {
		return ConversionResult{}, fmt.Errorf("unknown target format %q", to)
	}
	f, err := src.Parse(a, input)
	if err != nil {
		return ConversionResult{}, err
	}
	text, warnings, err := dst.Serialize(a, f)
	if err != nil {
		return ConversionResult{}, err
	}
	confidence := 1.0 - 0.15*float64(len(warnings))
	if confidence < 0.3 {
		confidence = 0.3
	}
	return ConversionResult{Text: text, Warnings: warnings, Confidence: confidence}, nil
}

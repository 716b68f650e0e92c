package logic

import (
	"fmt"
	"sync"
)

// SignatureError reports a function or predicate symbol used with an arity
// that conflicts with its registered signature.
type SignatureError struct {
	Symbol    string
	Want      int
	Got       int
	Predicate bool
}

func (e *SignatureError) Error() string {
	kind := "function"
	if e.Predicate {
		kind = "predicate"
	}
	return fmt.Sprintf("%s %q used with %d arguments, registered with %d", kind, e.Symbol, e.Got, e.Want)
}

// SignatureTable records the arity of every function and predicate symbol
// seen by an arena. The first use of a symbol registers its signature;
// parsers call Check before constructing nodes and surface conflicts as
// validation errors. Programmatic constructors register silently and are
// trusted to stay consistent (rule conclusions only reuse symbols from
// matched facts).
type SignatureTable struct {
	mu    sync.RWMutex
	funcs map[string]int
	preds map[string]int
}

// NewSignatureTable creates an empty table.
func NewSignatureTable() *SignatureTable {
	return &SignatureTable{
		funcs: make(map[string]int),
		preds: make(map[string]int),
	}
}

// CheckFunc reports whether sym may be used as a function of the given
// arity, registering the signature on first use.
func (st *SignatureTable) CheckFunc(sym string, arity int) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if want, ok := st.funcs[sym]; ok && want != arity {
		return &SignatureError{Symbol: sym, Want: want, Got: arity}
	}
	st.funcs[sym] = arity
	return nil
}

// CheckPred reports whether sym may be used as a predicate of the given
// arity, registering the signature on first use.
func (st *SignatureTable) CheckPred(sym string, arity int) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if want, ok := st.preds[sym]; ok && want != arity {
		return &SignatureError{Symbol: sym, Want: want, Got: arity, Predicate: true}
	}
	st.preds[sym] = arity
	return nil
}

// FuncArity returns the registered arity of a function symbol.
func (st *SignatureTable) FuncArity(sym string) (int, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	n, ok := st.funcs[sym]
	return n, ok
}

// PredArity returns the registered arity of a predicate symbol.
func (st *SignatureTable) PredArity(sym string) (int, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	n, ok := st.preds[sym]
	return n, ok
}

func (st *SignatureTable) observeFunc(sym string, arity int) {
	st.mu.Lock()
	if _, ok := st.funcs[sym]; !ok {
		st.funcs[sym] = arity
	}
	st.mu.Unlock()
}

func (st *SignatureTable) observePred(sym string, arity int) {
	st.mu.Lock()
	if _, ok := st.preds[sym]; !ok {
		st.preds[sym] = arity
	}
	st.mu.Unlock()
}

package expr

import (
	"strings"

	"github.com/jetdb/jetdb/pkg/jeterr"
	"github.com/jetdb/jetdb/pkg/value"
)

// Function is a built-in function implementation: args are already
// evaluated Values, ctx supplies temporal config/bindings/random state.
type Function func(ctx *EvalContext, args []value.Value) (value.Value, error)

// FunctionLookup is the case-insensitive function registry, matching
// jackcess's DefaultFunctions.FUNCS + DatabaseImpl.toLookupName pattern.
type FunctionLookup struct {
	funcs map[string]Function
}

func NewFunctionLookup() *FunctionLookup {
	fl := &FunctionLookup{funcs: make(map[string]Function)}
	registerBuiltins(fl)
	return fl
}

func (fl *FunctionLookup) Register(name string, fn Function) {
	fl.funcs[toLookupName(name)] = fn
}

func (fl *FunctionLookup) Lookup(name string) (Function, bool) {
	fn, ok := fl.funcs[toLookupName(name)]
	return fn, ok
}

func toLookupName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// Bindings holds named field/variable values an expression can reference
// (e.g. [id], [data] in a calculated-column expression).
type Bindings map[string]value.Value

// EvalContext bundles everything a function/operator evaluation needs
// beyond its immediate arguments: the function registry, a temporal
// configuration for date formatting, field bindings, and per-context
// random state. Grounded on original_source's impl/DBEvalContext.
type EvalContext struct {
	Functions *FunctionLookup
	Temporal  *value.TemporalConfig
	Bindings  Bindings
	Random    *RandomContext
}

func NewEvalContext() *EvalContext {
	return &EvalContext{
		Functions: NewFunctionLookup(),
		Temporal:  value.US(),
		Bindings:  make(Bindings),
		Random:    &RandomContext{},
	}
}

func (c *EvalContext) Lookup(name string) (value.Value, error) {
	v, ok := c.Bindings[name]
	if !ok {
		return value.Null, jeterr.New(jeterr.EvalArgument, "EvalContext.Lookup", "unknown identifier %q", name)
	}
	return v, nil
}

// Call dispatches a function call by name, matching against the
// registry's case-insensitive lookup.
func (c *EvalContext) Call(name string, args []value.Value) (value.Value, error) {
	fn, ok := c.Functions.Lookup(name)
	if !ok {
		return value.Null, jeterr.New(jeterr.EvalArgument, "EvalContext.Call", "unknown function %q", name)
	}
	return fn(c, args)
}

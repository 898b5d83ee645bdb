package lang

import "github.com/novalang/nova/novaerr"

// Env implements the lexical scope chain: a mapping from identifier to
// value plus an optional link to an enclosing scope.
type Env struct {
	parent *Env
	values map[string]Value
}

func NewEnv(parent *Env) *Env {
	return &Env{parent: parent, values: make(map[string]Value)}
}

// Define introduces a binding in this scope, shadowing any outer one.
// A "let" declaration always defines in the current scope, never an
// enclosing one.
func (e *Env) Define(name string, val Value) {
	e.values[name] = val
}

// Set mutates an existing binding, targeting the innermost scope that
// already defines the name.
func (e *Env) Set(name string, val Value) error {
	for env := e; env != nil; env = env.parent {
		if _, ok := env.values[name]; ok {
			env.values[name] = val
			return nil
		}
	}
	return novaerr.Runtimef(novaerr.Position{}, "assignment to undefined name %q", name)
}

// Get looks up a name by walking the chain from innermost outward.
func (e *Env) Get(name string) (Value, bool) {
	for env := e; env != nil; env = env.parent {
		if v, ok := env.values[name]; ok {
			return v, true
		}
	}
	return Value{}, false
}

func (e *Env) Parent() *Env { return e.parent }

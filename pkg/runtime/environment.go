package runtime

import (
	"sort"
)

// Environment is the two-level scope model: a global map plus a stack of
// local frames. Lookups only consult the top frame before falling back to
// globals, so a function body never sees its caller's locals.
type Environment struct {
	globals map[string]Binding
	frames  []map[string]Binding
}

// NewEnvironment creates an environment with an empty global scope.
func NewEnvironment() *Environment {
	return &Environment{globals: make(map[string]Binding)}
}

// Get resolves a name against the top local frame, then the globals.
func (e *Environment) Get(name string) (Binding, error) {
	if n := len(e.frames); n > 0 {
		if b, ok := e.frames[n-1][name]; ok {
			return b, nil
		}
	}
	if b, ok := e.globals[name]; ok {
		return b, nil
	}
	return nil, Errorf(UndefinedVariable, "undefined variable '%s'", name)
}

// Set binds a name in the top frame when local is requested and a frame is
// active; otherwise it binds globally.
func (e *Environment) Set(name string, binding Binding, local bool) {
	if n := len(e.frames); local && n > 0 {
		e.frames[n-1][name] = binding
		return
	}
	e.globals[name] = binding
}

func (e *Environment) PushScope() {
	e.frames = append(e.frames, make(map[string]Binding))
}

// PopScope discards the top frame. Popping with no active frame is a no-op.
func (e *Environment) PopScope() {
	if n := len(e.frames); n > 0 {
		e.frames[n-1] = nil
		e.frames = e.frames[:n-1]
	}
}

// Depth reports the number of active local frames.
func (e *Environment) Depth() int {
	return len(e.frames)
}

// Globals returns a shallow copy of the global bindings.
func (e *Environment) Globals() map[string]Binding {
	out := make(map[string]Binding, len(e.globals))
	for k, v := range e.globals {
		out[k] = v
	}
	return out
}

// Keys returns the global names in sorted order (useful for determinism in tests).
func (e *Environment) Keys() []string {
	keys := make([]string, 0, len(e.globals))
	for k := range e.globals {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

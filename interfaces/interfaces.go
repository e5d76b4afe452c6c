// Package interfaces models the typed input/output contract of a task or
// workflow, and derives that contract from a Go handler signature.
package interfaces

import (
	"sort"

	"github.com/zclconf/go-cty/cty"
)

// Variable is one named input or output of a task or workflow.
type Variable struct {
	Name string
	Type cty.Type
	// Default, when set, makes an input optional. It is always compatible
	// with Type; compatibility is checked at declaration time.
	Default  *cty.Value
	Required bool
}

// TypedInterface is the ordered input/output contract. It is built once and
// never mutated afterwards.
type TypedInterface struct {
	Inputs  []Variable
	Outputs []Variable
}

// Input returns the input variable with the given name.
func (ti *TypedInterface) Input(name string) (Variable, bool) {
	return lookup(ti.Inputs, name)
}

// Output returns the output variable with the given name.
func (ti *TypedInterface) Output(name string) (Variable, bool) {
	return lookup(ti.Outputs, name)
}

// InputNames returns the input names in declaration order.
func (ti *TypedInterface) InputNames() []string {
	return names(ti.Inputs)
}

// OutputNames returns the output names in declaration order.
func (ti *TypedInterface) OutputNames() []string {
	return names(ti.Outputs)
}

// UnknownInputs returns the names in args that are not declared inputs,
// sorted. Invocation surfaces use it to reject stray arguments.
func (ti *TypedInterface) UnknownInputs(args map[string]any) []string {
	var unknown []string
	for name := range args {
		if _, ok := ti.Input(name); !ok {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	return unknown
}

func lookup(vars []Variable, name string) (Variable, bool) {
	for _, v := range vars {
		if v.Name == name {
			return v, true
		}
	}
	return Variable{}, false
}

func names(vars []Variable) []string {
	out := make([]string, len(vars))
	for i, v := range vars {
		out[i] = v.Name
	}
	return out
}

package promise

import (
	"context"
	"fmt"

	"github.com/YmirKhang/flytekit/typemap"
	"github.com/zclconf/go-cty/cty"
)

// BindingData is a closed variant wrapping either a literal value or a
// promise reference. Exactly one of the two is ever set.
type BindingData struct {
	scalar cty.Value
	ref    *NodeOutput
}

// LiteralData wraps a literal value as binding data.
func LiteralData(val cty.Value) BindingData {
	return BindingData{scalar: val}
}

// ReferenceData wraps a node-output reference as binding data.
func ReferenceData(ref NodeOutput) BindingData {
	return BindingData{ref: &ref}
}

// Literal returns the literal value when the binding is by value.
func (d BindingData) Literal() (cty.Value, bool) {
	if d.ref != nil {
		return cty.NilVal, false
	}
	return d.scalar, true
}

// Reference returns the node-output reference when the binding is by reference.
func (d BindingData) Reference() (NodeOutput, bool) {
	if d.ref == nil {
		return NodeOutput{}, false
	}
	return *d.ref, true
}

// Binding associates a destination variable name with its binding data. It is
// used both for node inputs and for workflow-level output bindings.
type Binding struct {
	Var  string
	Data BindingData
}

// FromArg is the single resolution point turning a caller-supplied argument
// into a Binding for the destination variable. A pending promise binds by
// reference; a ready promise binds its literal by value; a cty.Value or a
// native Go value is converted to the declared type and bound by value.
func FromArg(ctx context.Context, varName string, arg any, want cty.Type) (Binding, error) {
	switch v := arg.(type) {
	case *Promise:
		// A nil promise means the caller looked up an input that was never
		// supplied, e.g. an optional workflow input omitted at invocation.
		if v == nil {
			return Binding{}, fmt.Errorf("binding %q: nil promise, no value was supplied", varName)
		}
		if ref, pending := v.Ref(); pending {
			return Binding{Var: varName, Data: ReferenceData(ref)}, nil
		}
		val, err := v.Value()
		if err != nil {
			return Binding{}, err
		}
		converted, err := typemap.Convert(ctx, val, want)
		if err != nil {
			return Binding{}, fmt.Errorf("binding %q: %w", varName, err)
		}
		return Binding{Var: varName, Data: LiteralData(converted)}, nil
	case nil:
		return Binding{}, fmt.Errorf("binding %q: nil argument", varName)
	default:
		val, err := typemap.ToLiteral(ctx, v, want)
		if err != nil {
			return Binding{}, fmt.Errorf("binding %q: %w", varName, err)
		}
		return Binding{Var: varName, Data: LiteralData(val)}, nil
	}
}

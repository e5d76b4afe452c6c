package task

import (
	"context"
	"fmt"
	"reflect"

	"github.com/YmirKhang/flytekit/ctxlog"
	"github.com/YmirKhang/flytekit/typemap"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Run is the raw literal-in, literal-out execution primitive: it decodes the
// literal map into the handler's input struct, applies declared defaults,
// invokes the handler through reflection, and encodes the results back into
// a literal map keyed by declared output name. Both the local invoker and the
// graph engine dispatch through it.
func (t *Task) Run(ctx context.Context, literals map[string]cty.Value) (map[string]cty.Value, error) {
	logger := ctxlog.FromContext(ctx).With("task", t.name)
	logger.Debug("Running task handler.", "inputs", len(literals))

	callArgs := []reflect.Value{reflect.ValueOf(ctx)}
	if t.inType != nil {
		inPtr := reflect.New(t.inType)
		for _, in := range t.iface.Inputs {
			val, supplied := literals[in.Name]
			if !supplied {
				if in.Default != nil {
					val = *in.Default
				} else if in.Required {
					return nil, fmt.Errorf("task %q: missing required input %q", t.name, in.Name)
				} else {
					continue
				}
			}
			field := inPtr.Elem().Field(t.inFields[in.Name])
			if err := gocty.FromCtyValue(val, field.Addr().Interface()); err != nil {
				return nil, fmt.Errorf("task %q: decoding input %q: %w", t.name, in.Name, err)
			}
		}
		callArgs = append(callArgs, inPtr)
	}

	results := t.fn.Call(callArgs)
	if errResult := results[len(results)-1].Interface(); errResult != nil {
		return nil, fmt.Errorf("task %q failed: %w", t.name, errResult.(error))
	}

	out := make(map[string]cty.Value, len(t.iface.Outputs))
	if len(t.iface.Outputs) == 0 {
		return out, nil
	}

	outVal := results[0]
	if t.outType != nil {
		if outVal.IsNil() {
			return nil, fmt.Errorf("task %q returned nil outputs with a declared output interface", t.name)
		}
		outStruct := outVal.Elem()
		for _, decl := range t.iface.Outputs {
			field := outStruct.Field(t.outFields[decl.Name])
			lit, err := typemap.ToLiteral(ctx, field.Interface(), decl.Type)
			if err != nil {
				return nil, fmt.Errorf("task %q: encoding output %q: %w", t.name, decl.Name, err)
			}
			out[decl.Name] = lit
		}
	} else {
		decl := t.iface.Outputs[0]
		lit, err := typemap.ToLiteral(ctx, outVal.Interface(), decl.Type)
		if err != nil {
			return nil, fmt.Errorf("task %q: encoding output %q: %w", t.name, decl.Name, err)
		}
		out[decl.Name] = lit
	}

	logger.Debug("Task handler finished.", "outputs", len(out))
	return out, nil
}

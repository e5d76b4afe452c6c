package workflow

import (
	"context"
	"fmt"

	"github.com/YmirKhang/flytekit/ctxlog"
	"github.com/YmirKhang/flytekit/flytectx"
	"github.com/YmirKhang/flytekit/interfaces"
	"github.com/YmirKhang/flytekit/promise"
	"github.com/YmirKhang/flytekit/typemap"
	"github.com/zclconf/go-cty/cty"
)

// Workflow is the callable wrapper around a compiled Definition. Invocations
// read the definition immutably; only the handler is re-run.
type Workflow struct {
	def *Definition
	fn  HandlerFunc
}

// Definition returns the immutable compiled artifact.
func (w *Workflow) Definition() *Definition { return w.def }

// Execute invokes the workflow with named literal arguments. Inside an active
// compilation pass this would have to register a sub-workflow node, which is
// not supported; otherwise the handler is replayed under a fresh local
// execution context with ready promises.
func (w *Workflow) Execute(ctx context.Context, args map[string]any) (any, error) {
	name := w.def.ID().Name
	if flytectx.CurrentMode(ctx) == flytectx.ModeCompilation {
		return nil, fmt.Errorf("workflow %q invoked during a compilation pass; sub-workflows are not supported: %w",
			name, flytectx.ErrUnsupportedNesting)
	}

	lctx, err := flytectx.WithLocalExecution(ctx)
	if err != nil {
		return nil, fmt.Errorf("invoking workflow %q: %w", name, err)
	}
	return w.localExecute(lctx, args)
}

// localExecute converts the native arguments to literals, replays the handler
// with ready promises, and assembles the returned values against the declared
// output names.
func (w *Workflow) localExecute(ctx context.Context, args map[string]any) (any, error) {
	name := w.def.ID().Name
	iface := w.def.Interface()
	logger := ctxlog.FromContext(ctx).With("workflow", name)
	logger.Debug("Executing workflow locally.", "args", len(args))

	if unknown := iface.UnknownInputs(args); len(unknown) > 0 {
		return nil, fmt.Errorf("workflow %q: unknown argument(s): %v", name, unknown)
	}

	inputs := make(map[string]*promise.Promise, len(iface.Inputs))
	for _, in := range iface.Inputs {
		arg, supplied := args[in.Name]
		if !supplied {
			if in.Default != nil {
				inputs[in.Name] = promise.Ready(in.Name, *in.Default)
				continue
			}
			if !in.Required {
				continue
			}
			return nil, fmt.Errorf("workflow %q: missing required argument %q", name, in.Name)
		}
		lit, err := typemap.ToLiteral(ctx, arg, in.Type)
		if err != nil {
			logger.Warn("Workflow input conversion failed.", "input", in.Name, "error", err)
			return nil, fmt.Errorf("workflow %q input %q: %w", name, in.Name, err)
		}
		inputs[in.Name] = promise.Ready(in.Name, lit)
	}

	outs, err := w.fn(ctx, inputs)
	if err != nil {
		return nil, fmt.Errorf("workflow %q: %w", name, err)
	}
	if outs.Len() != len(iface.Outputs) {
		return nil, fmt.Errorf("workflow %q declares %d output(s) but its handler returned %d: %w",
			name, len(iface.Outputs), outs.Len(), ErrOutputArity)
	}

	literals := make(map[string]cty.Value, outs.Len())
	for i, decl := range iface.Outputs {
		val, err := outs.Promises()[i].Value()
		if err != nil {
			return nil, fmt.Errorf("workflow %q output %q: %w", name, decl.Name, err)
		}
		literals[decl.Name] = val
	}

	return AssembleOutputs(iface, literals)
}

// AssembleOutputs converts a literal map back to the native shape the invoker
// returns: nothing for zero declared outputs, the bare value for one, and a
// name-keyed map for several.
func AssembleOutputs(iface *interfaces.TypedInterface, literals map[string]cty.Value) (any, error) {
	switch len(iface.Outputs) {
	case 0:
		return nil, nil
	case 1:
		return typemap.FromLiteral(literals[iface.Outputs[0].Name])
	default:
		return typemap.MapFromLiterals(literals)
	}
}

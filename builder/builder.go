// Package builder intercepts task invocations during a compilation pass,
// turning each call site into a registered graph node and a set of pending
// output promises.
package builder

import (
	"context"
	"fmt"
	"strings"

	"github.com/YmirKhang/flytekit/ctxlog"
	"github.com/YmirKhang/flytekit/flytectx"
	"github.com/YmirKhang/flytekit/interfaces"
	"github.com/YmirKhang/flytekit/node"
	"github.com/YmirKhang/flytekit/promise"
)

// CreateAndLink resolves the caller-supplied arguments into bindings,
// registers a node for the named task in the active compilation pass, and
// returns one pending promise per declared output of the callee. Calling it
// outside an active compilation is a programming error and fails fast.
func CreateAndLink(ctx context.Context, name string, iface *interfaces.TypedInterface, args map[string]any) (promise.Outputs, error) {
	cs := flytectx.CompilationStateFrom(ctx)
	if cs == nil {
		return promise.Outputs{}, fmt.Errorf("task %q invoked outside a compilation pass: %w", name, flytectx.ErrNoCompilation)
	}
	logger := ctxlog.FromContext(ctx)

	if err := rejectUnknownArgs(name, iface, args); err != nil {
		return promise.Outputs{}, err
	}

	bindings := make([]promise.Binding, 0, len(iface.Inputs))
	for _, in := range iface.Inputs {
		arg, supplied := args[in.Name]
		if !supplied {
			if in.Default != nil {
				bindings = append(bindings, promise.Binding{Var: in.Name, Data: promise.LiteralData(*in.Default)})
				continue
			}
			if !in.Required {
				continue
			}
			return promise.Outputs{}, fmt.Errorf("task %q: missing required argument %q", name, in.Name)
		}
		b, err := promise.FromArg(ctx, in.Name, arg, in.Type)
		if err != nil {
			return promise.Outputs{}, fmt.Errorf("task %q: %w", name, err)
		}
		bindings = append(bindings, b)
	}

	n := &node.Node{
		ID:        cs.NextNodeID(name),
		Name:      name,
		Bindings:  bindings,
		Interface: iface,
	}
	if err := cs.Add(n); err != nil {
		return promise.Outputs{}, err
	}
	logger.Debug("Registered node.", "id", n.ID, "task", name, "bindings", len(bindings))

	switch len(iface.Outputs) {
	case 0:
		return promise.NoOutputs(), nil
	case 1:
		return promise.OneOutput(promise.Pending(iface.Outputs[0].Name, n.ID)), nil
	default:
		promises := make([]*promise.Promise, len(iface.Outputs))
		for i, out := range iface.Outputs {
			promises[i] = promise.Pending(out.Name, n.ID)
		}
		return promise.ManyOutputs(promises...), nil
	}
}

// rejectUnknownArgs fails when the caller supplies an argument the callee's
// interface does not declare.
func rejectUnknownArgs(name string, iface *interfaces.TypedInterface, args map[string]any) error {
	if unknown := iface.UnknownInputs(args); len(unknown) > 0 {
		return fmt.Errorf("task %q: unknown argument(s): %s", name, strings.Join(unknown, ", "))
	}
	return nil
}

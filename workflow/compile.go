package workflow

import (
	"context"
	"fmt"

	"github.com/YmirKhang/flytekit/ctxlog"
	"github.com/YmirKhang/flytekit/flytectx"
	"github.com/YmirKhang/flytekit/identifier"
	"github.com/YmirKhang/flytekit/interfaces"
	"github.com/YmirKhang/flytekit/node"
	"github.com/YmirKhang/flytekit/promise"
)

// options carries the declaration-time knobs for Compile.
type options struct {
	project string
	domain  string
	version string
}

// Option customizes a workflow declaration.
type Option func(*options)

// WithProject sets the project part of the workflow identifier.
func WithProject(project string) Option {
	return func(o *options) { o.project = project }
}

// WithDomain sets the domain part of the workflow identifier.
func WithDomain(domain string) Option {
	return func(o *options) { o.domain = domain }
}

// WithVersion sets the version part of the workflow identifier.
func WithVersion(version string) Option {
	return func(o *options) { o.version = version }
}

// Compile traces the handler exactly once under a fresh compilation context
// and packages the result into an immutable Definition wrapped in an invoker.
// Unlike a task, a workflow cannot be understood from its signature alone:
// the body itself expresses the graph, so the body must run here.
func Compile(ctx context.Context, name string, iface *interfaces.TypedInterface, fn HandlerFunc, opts ...Option) (*Workflow, error) {
	logger := ctxlog.FromContext(ctx).With("workflow", name)

	o := options{project: "default", domain: "development", version: "v1"}
	for _, opt := range opts {
		opt(&o)
	}

	cctx, cs, err := flytectx.WithCompilation(ctx)
	if err != nil {
		return nil, fmt.Errorf("declaring workflow %q: %w", name, err)
	}

	// One pending promise per declared input, referencing the sentinel start
	// node: "value supplied by the caller at invocation time".
	inputs := make(map[string]*promise.Promise, len(iface.Inputs))
	for _, in := range iface.Inputs {
		inputs[in.Name] = promise.Pending(in.Name, node.StartNodeID)
	}

	outs, err := fn(cctx, inputs)
	if err != nil {
		return nil, fmt.Errorf("tracing workflow %q: %w", name, err)
	}

	if outs.Len() != len(iface.Outputs) {
		return nil, fmt.Errorf("workflow %q declares %d output(s) but its handler returned %d: %w",
			name, len(iface.Outputs), outs.Len(), ErrOutputArity)
	}

	// Each returned promise maps positionally to a declared output. A pending
	// promise binds by reference, a ready one passes its literal through.
	bindings := make([]promise.Binding, 0, len(iface.Outputs))
	for i, decl := range iface.Outputs {
		b, err := promise.FromArg(cctx, decl.Name, outs.Promises()[i], decl.Type)
		if err != nil {
			return nil, fmt.Errorf("workflow %q output %q: %w", name, decl.Name, err)
		}
		bindings = append(bindings, b)
	}

	def := &Definition{
		id:             identifier.New(identifier.ResourceWorkflow, o.project, o.domain, name, o.version),
		iface:          iface,
		nodes:          cs.Nodes(),
		outputBindings: bindings,
	}
	logger.Debug("Workflow compiled.", "id", def.id.String(), "nodes", len(def.nodes), "output_bindings", len(bindings))

	return &Workflow{def: def, fn: fn}, nil
}

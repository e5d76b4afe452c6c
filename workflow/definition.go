// Package workflow compiles a user-authored workflow handler into an
// immutable typed graph definition, and wraps that definition in an invoker
// that replays the handler locally with literal values.
package workflow

import (
	"context"
	"errors"

	"github.com/YmirKhang/flytekit/identifier"
	"github.com/YmirKhang/flytekit/interfaces"
	"github.com/YmirKhang/flytekit/node"
	"github.com/YmirKhang/flytekit/promise"
)

// ErrOutputArity marks a mismatch between the number of declared outputs and
// the number of values a workflow handler returned. Raised at declaration
// time, fatal to that workflow's registration.
var ErrOutputArity = errors.New("workflow output arity mismatch")

// HandlerFunc is the authoring surface of a workflow: a function of named
// input promises returning the closed outputs variant. The same handler is
// traced once at compile time with pending promises and replayed at
// invocation time with ready ones.
type HandlerFunc func(ctx context.Context, inputs map[string]*promise.Promise) (promise.Outputs, error)

// Definition is the immutable compiled artifact: identifier, typed interface,
// node list and output bindings. It is constructed exactly once per workflow
// declaration and read immutably by every subsequent invocation.
type Definition struct {
	id             identifier.Identifier
	iface          *interfaces.TypedInterface
	nodes          []*node.Node
	outputBindings []promise.Binding
}

// ID returns the workflow's identifier.
func (d *Definition) ID() identifier.Identifier { return d.id }

// Interface returns the workflow's typed input/output contract.
func (d *Definition) Interface() *interfaces.TypedInterface { return d.iface }

// Nodes returns the compiled nodes in trace order. The slice is shared;
// callers must not modify it.
func (d *Definition) Nodes() []*node.Node { return d.nodes }

// OutputBindings returns one binding per declared output, in declaration
// order. The slice is shared; callers must not modify it.
func (d *Definition) OutputBindings() []promise.Binding { return d.outputBindings }

// Package promise models deferred values flowing through a workflow body.
// A Promise is either "ready" (it carries a literal) or "pending" (it carries
// a symbolic reference to a future node output) — never both, never neither.
package promise

import (
	"errors"
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// ErrUnresolved is returned when a pending promise is asked for its value
// outside a compilation pass.
var ErrUnresolved = errors.New("unresolved promise reference")

// NodeOutput is a symbolic reference to one output of a future node.
type NodeOutput struct {
	NodeID string
	Var    string
}

// Promise is a deferred value identified by the variable name it represents.
type Promise struct {
	varName string
	val     cty.Value
	ref     *NodeOutput
}

// Ready wraps a literal value as a resolved promise.
func Ready(varName string, val cty.Value) *Promise {
	return &Promise{varName: varName, val: val}
}

// Pending creates a promise referencing the named output of a future node.
func Pending(varName, nodeID string) *Promise {
	return &Promise{varName: varName, ref: &NodeOutput{NodeID: nodeID, Var: varName}}
}

// Var returns the variable name this promise represents.
func (p *Promise) Var() string {
	return p.varName
}

// IsReady reports whether the promise holds a literal value.
func (p *Promise) IsReady() bool {
	return p.ref == nil
}

// Value returns the literal held by a ready promise. Asking a pending promise
// for its value is a resolution failure.
func (p *Promise) Value() (cty.Value, error) {
	if p.ref != nil {
		return cty.NilVal, fmt.Errorf("promise %q still references node %q output %q: %w",
			p.varName, p.ref.NodeID, p.ref.Var, ErrUnresolved)
	}
	return p.val, nil
}

// Ref returns the node-output reference of a pending promise.
func (p *Promise) Ref() (NodeOutput, bool) {
	if p.ref == nil {
		return NodeOutput{}, false
	}
	return *p.ref, true
}

func (p *Promise) String() string {
	if p.ref != nil {
		return fmt.Sprintf("Promise(%s <- %s.%s)", p.varName, p.ref.NodeID, p.ref.Var)
	}
	return fmt.Sprintf("Promise(%s = %s)", p.varName, p.val.GoString())
}

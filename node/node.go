// Package node defines the unit of work registered in a compiled workflow
// graph. Nodes are append-only within a compilation pass and never mutated
// after creation.
package node

import (
	"sort"

	"github.com/YmirKhang/flytekit/interfaces"
	"github.com/YmirKhang/flytekit/promise"
)

// StartNodeID is the sentinel node id whose outputs are the caller-supplied
// workflow inputs, not yet known at compile time.
const StartNodeID = "start-node"

// Node is one registered unit of work: a task invocation (or, in the future,
// a nested workflow) with its input bindings and typed interface.
type Node struct {
	// ID is unique within one compilation pass.
	ID string
	// Name is the registered name of the task the node invokes.
	Name string
	// Bindings associate each callee input with a literal or an upstream
	// node-output reference, in the callee's declared input order.
	Bindings []promise.Binding
	// Interface is the callee's typed input/output contract.
	Interface *interfaces.TypedInterface
}

// Upstream returns the distinct ids of the nodes this node's bindings
// reference, sorted for determinism. The start node is excluded: real
// dependency order is derived from these references, not from trace order.
func (n *Node) Upstream() []string {
	set := make(map[string]struct{})
	for _, b := range n.Bindings {
		if ref, ok := b.Data.Reference(); ok && ref.NodeID != StartNodeID {
			set[ref.NodeID] = struct{}{}
		}
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

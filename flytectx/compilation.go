package flytectx

import (
	"errors"
	"fmt"

	"github.com/YmirKhang/flytekit/node"
)

// ErrDuplicateNodeID marks a node id collision within one compilation pass.
// Ids are synthesized from a per-pass sequence, so a collision is an internal
// invariant violation, not a user error.
var ErrDuplicateNodeID = errors.New("duplicate node id")

// CompilationState owns the growing node list of a single compilation pass.
// It lives exactly as long as the compilation context that created it.
type CompilationState struct {
	nodes []*node.Node
	seen  map[string]struct{}
	seq   int
}

func newCompilationState() *CompilationState {
	return &CompilationState{seen: make(map[string]struct{})}
}

// NextNodeID synthesizes the id for the next node registered against the
// named task. Ids encode the registration sequence, which makes traces easy
// to read; execution order is still derived from bindings, never from ids.
func (cs *CompilationState) NextNodeID(taskName string) string {
	id := fmt.Sprintf("n%d-%s", cs.seq, taskName)
	cs.seq++
	return id
}

// Add appends a node to the pass. The list is append-only and preserves call
// order.
func (cs *CompilationState) Add(n *node.Node) error {
	if _, dup := cs.seen[n.ID]; dup {
		return fmt.Errorf("node id %q registered twice in one compilation pass: %w", n.ID, ErrDuplicateNodeID)
	}
	cs.seen[n.ID] = struct{}{}
	cs.nodes = append(cs.nodes, n)
	return nil
}

// Nodes returns the registered nodes in call order. The slice is shared;
// callers must not modify it.
func (cs *CompilationState) Nodes() []*node.Node {
	return cs.nodes
}

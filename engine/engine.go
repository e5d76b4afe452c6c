// Package engine executes a compiled workflow definition node-by-node, the
// way a remote scheduler would, but in-process: dependency order is derived
// from bindings (never from trace order), ready nodes run on a bounded worker
// pool, and failing nodes are retried with capped exponential backoff.
package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/YmirKhang/flytekit/ctxlog"
	"github.com/YmirKhang/flytekit/node"
	"github.com/YmirKhang/flytekit/promise"
	"github.com/YmirKhang/flytekit/registry"
	"github.com/YmirKhang/flytekit/typemap"
	"github.com/YmirKhang/flytekit/workflow"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/zclconf/go-cty/cty"
)

// Engine schedules compiled workflow graphs against a task registry.
type Engine struct {
	reg        *registry.Registry
	workers    int
	maxRetries uint64
}

// Option customizes an Engine.
type Option func(*Engine)

// WithWorkers bounds the number of nodes executing concurrently.
func WithWorkers(n int) Option {
	return func(e *Engine) { e.workers = n }
}

// WithMaxRetries sets how many times a failing node is retried before its
// error surfaces. Zero disables retries.
func WithMaxRetries(n uint64) Option {
	return func(e *Engine) { e.maxRetries = n }
}

// New creates an Engine resolving task names against the given registry.
func New(reg *registry.Registry, opts ...Option) *Engine {
	e := &Engine{reg: reg, workers: 4, maxRetries: 2}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs every node of the definition in dependency order and resolves
// the workflow's output bindings. The result has the same shape local replay
// produces: nothing, a bare value, or a name-keyed map.
func (e *Engine) Execute(ctx context.Context, def *workflow.Definition, args map[string]any) (any, error) {
	runID := uuid.NewString()
	ctx = ctxlog.With(ctx, "run_id", runID, "workflow", def.ID().String())
	logger := ctxlog.FromContext(ctx)
	logger.Info("Starting local graph run.", "nodes", len(def.Nodes()))

	store, err := e.seedInputs(ctx, def, args)
	if err != nil {
		return nil, err
	}

	if err := e.dispatch(ctx, def.Nodes(), store); err != nil {
		return nil, err
	}

	literals := make(map[string]cty.Value, len(def.OutputBindings()))
	for _, b := range def.OutputBindings() {
		if val, ok := b.Data.Literal(); ok {
			literals[b.Var] = val
			continue
		}
		ref, _ := b.Data.Reference()
		val, ok := store.get(ref)
		if !ok {
			return nil, fmt.Errorf("internal: output %q references %s.%s which was never produced", b.Var, ref.NodeID, ref.Var)
		}
		literals[b.Var] = val
	}

	logger.Info("Graph run finished.", "outputs", len(literals))
	return workflow.AssembleOutputs(def.Interface(), literals)
}

// seedInputs validates the named arguments against the workflow interface and
// publishes them as start-node outputs.
func (e *Engine) seedInputs(ctx context.Context, def *workflow.Definition, args map[string]any) (*outputStore, error) {
	iface := def.Interface()
	name := def.ID().Name

	if unknown := iface.UnknownInputs(args); len(unknown) > 0 {
		return nil, fmt.Errorf("workflow %q: unknown argument(s): %v", name, unknown)
	}

	store := newOutputStore()
	for _, in := range iface.Inputs {
		arg, supplied := args[in.Name]
		if !supplied {
			if in.Default != nil {
				store.set(promise.NodeOutput{NodeID: node.StartNodeID, Var: in.Name}, *in.Default)
				continue
			}
			if !in.Required {
				continue
			}
			return nil, fmt.Errorf("workflow %q: missing required argument %q", name, in.Name)
		}
		lit, err := typemap.ToLiteral(ctx, arg, in.Type)
		if err != nil {
			return nil, fmt.Errorf("workflow %q input %q: %w", name, in.Name, err)
		}
		store.set(promise.NodeOutput{NodeID: node.StartNodeID, Var: in.Name}, lit)
	}
	return store, nil
}

// dispatch runs nodes wave by wave: each wave is every not-yet-run node whose
// upstream nodes have all completed. An empty wave with work remaining means
// the bindings reference something unsatisfiable, which is an internal bug.
func (e *Engine) dispatch(ctx context.Context, nodes []*node.Node, store *outputStore) error {
	logger := ctxlog.FromContext(ctx)
	done := make(map[string]bool, len(nodes))

	for len(done) < len(nodes) {
		var wave []*node.Node
		for _, n := range nodes {
			if done[n.ID] {
				continue
			}
			ready := true
			for _, up := range n.Upstream() {
				if !done[up] {
					ready = false
					break
				}
			}
			if ready {
				wave = append(wave, n)
			}
		}
		if len(wave) == 0 {
			return fmt.Errorf("internal: dependency deadlock, %d node(s) can never run", len(nodes)-len(done))
		}
		logger.Debug("Dispatching wave.", "ready", len(wave), "done", len(done))

		sem := make(chan struct{}, e.workers)
		var wg sync.WaitGroup
		var mu sync.Mutex
		var firstErr error
		for _, n := range wave {
			sem <- struct{}{}
			wg.Add(1)
			go func(n *node.Node) {
				defer func() { <-sem; wg.Done() }()
				if err := e.runNode(ctx, n, store); err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
				}
			}(n)
		}
		wg.Wait()
		if firstErr != nil {
			return firstErr
		}
		for _, n := range wave {
			done[n.ID] = true
		}
	}
	return nil
}

// runNode resolves a node's bindings, invokes its task with retries, and
// publishes the outputs.
func (e *Engine) runNode(ctx context.Context, n *node.Node, store *outputStore) error {
	logger := ctxlog.FromContext(ctx).With("node", n.ID)
	logger.Debug("Running node.", "task", n.Name)

	t, ok := e.reg.Task(n.Name)
	if !ok {
		return fmt.Errorf("internal: node %q references unregistered task %q", n.ID, n.Name)
	}

	literals := make(map[string]cty.Value, len(n.Bindings))
	for _, b := range n.Bindings {
		if val, ok := b.Data.Literal(); ok {
			literals[b.Var] = val
			continue
		}
		ref, _ := b.Data.Reference()
		val, ok := store.get(ref)
		if !ok {
			return fmt.Errorf("internal: node %q input %q references %s.%s which was never produced", n.ID, b.Var, ref.NodeID, ref.Var)
		}
		literals[b.Var] = val
	}

	var outputs map[string]cty.Value
	attempt := 0
	operation := func() error {
		attempt++
		out, err := t.Run(ctx, literals)
		if err != nil {
			logger.Warn("Node attempt failed.", "attempt", attempt, "error", err)
			return err
		}
		outputs = out
		return nil
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), e.maxRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return fmt.Errorf("node %q: %w", n.ID, err)
	}

	for name, val := range outputs {
		store.set(promise.NodeOutput{NodeID: n.ID, Var: name}, val)
	}
	logger.Debug("Node finished.", "attempts", attempt, "outputs", len(outputs))
	return nil
}

// outputStore caches produced node outputs by (node id, variable) for
// downstream binding resolution. Safe for concurrent use.
type outputStore struct {
	mu   sync.RWMutex
	vals map[promise.NodeOutput]cty.Value
}

func newOutputStore() *outputStore {
	return &outputStore{vals: make(map[promise.NodeOutput]cty.Value)}
}

func (s *outputStore) set(ref promise.NodeOutput, val cty.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vals[ref] = val
}

func (s *outputStore) get(ref promise.NodeOutput) (cty.Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.vals[ref]
	return val, ok
}

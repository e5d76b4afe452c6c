// Package flytectx tracks whether workflow tracing is currently compiling a
// graph or evaluating promises locally. The state is scoped through
// context.Context values: entering a mode derives a child context, and the
// parent state is restored on every exit path simply by the child context
// going out of scope. Two goroutines holding independent contexts can never
// observe each other's node list or mode.
package flytectx

import (
	"context"
	"errors"
	"fmt"

	"github.com/YmirKhang/flytekit/ctxlog"
)

// Mode is the execution mode carried by an active context. A context with no
// state attached is uninitialized.
type Mode int

const (
	ModeUninitialized Mode = iota
	ModeCompilation
	ModeLocalExecution
)

func (m Mode) String() string {
	switch m {
	case ModeCompilation:
		return "compilation"
	case ModeLocalExecution:
		return "local-execution"
	default:
		return "uninitialized"
	}
}

var (
	// ErrUnsupportedNesting is returned when a compilation is entered, or a
	// workflow invoked, while a compilation pass is already active.
	// Sub-workflow composition is a documented limitation, not implemented.
	ErrUnsupportedNesting = errors.New("nested compilation is not supported")

	// ErrNoCompilation is returned when graph construction is attempted
	// outside an active compilation pass. This is a programming error.
	ErrNoCompilation = errors.New("no active compilation context")
)

// key is an unexported type to prevent collisions with other packages' keys.
type key struct{}

var stateKey = key{}

// state is the per-context execution state. The compilation state is only set
// in compilation mode.
type state struct {
	mode Mode
	comp *CompilationState
}

func stateFrom(ctx context.Context) *state {
	s, _ := ctx.Value(stateKey).(*state)
	return s
}

// CurrentMode reports the mode of the given context.
func CurrentMode(ctx context.Context) Mode {
	if s := stateFrom(ctx); s != nil {
		return s.mode
	}
	return ModeUninitialized
}

// CompilationStateFrom returns the live compilation state, or nil when the
// context is not in compilation mode.
func CompilationStateFrom(ctx context.Context) *CompilationState {
	if s := stateFrom(ctx); s != nil && s.mode == ModeCompilation {
		return s.comp
	}
	return nil
}

// WithCompilation enters compilation mode, allocating a fresh, empty node
// list. Entering while any mode is already active is an unsupported-nesting
// error.
func WithCompilation(ctx context.Context) (context.Context, *CompilationState, error) {
	if s := stateFrom(ctx); s != nil {
		return nil, nil, fmt.Errorf("cannot start a compilation inside an active %s context: %w", s.mode, ErrUnsupportedNesting)
	}
	cs := newCompilationState()
	ctxlog.FromContext(ctx).Debug("Entering compilation context.")
	return context.WithValue(ctx, stateKey, &state{mode: ModeCompilation, comp: cs}), cs, nil
}

// WithLocalExecution enters local-execution mode. Entering while a
// compilation pass is active is an unsupported-nesting error; nesting inside
// another local execution is allowed and restores the parent on exit.
func WithLocalExecution(ctx context.Context) (context.Context, error) {
	if s := stateFrom(ctx); s != nil && s.mode == ModeCompilation {
		return nil, fmt.Errorf("cannot execute locally inside an active compilation context: %w", ErrUnsupportedNesting)
	}
	ctxlog.FromContext(ctx).Debug("Entering local execution context.")
	return context.WithValue(ctx, stateKey, &state{mode: ModeLocalExecution}), nil
}

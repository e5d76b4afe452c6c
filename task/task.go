// Package task provides the local task runtime primitive: a named Go handler
// with a typed interface derived from its signature. During a compilation
// pass a call registers a graph node; during local execution it evaluates the
// handler on literal values.
package task

import (
	"context"
	"fmt"
	"reflect"

	"github.com/YmirKhang/flytekit/builder"
	"github.com/YmirKhang/flytekit/flytectx"
	"github.com/YmirKhang/flytekit/interfaces"
	"github.com/YmirKhang/flytekit/promise"
	"github.com/YmirKhang/flytekit/typemap"
	"github.com/zclconf/go-cty/cty"
)

// Task wraps a registered Go handler of shape
// func(ctx context.Context, in *In) (Out, error), where the input struct and
// the result may each be absent.
type Task struct {
	name  string
	iface *interfaces.TypedInterface
	fn    reflect.Value

	inType    reflect.Type // input struct type, nil when the handler takes none
	inFields  map[string]int
	outType   reflect.Type // multi-output struct type, nil for zero or bare outputs
	outFields map[string]int
}

// Option customizes a task at declaration time.
type Option func(*Task) error

// WithDefault declares a default literal for the named input, making it
// optional. A default whose type is incompatible with the input's declared
// type is a definition error.
func WithDefault(name string, val cty.Value) Option {
	return func(t *Task) error {
		return t.ApplyDefault(context.Background(), name, val)
	}
}

// ApplyDefault sets a default literal on the named input, coercing it to the
// input's declared type. An incompatible default is a definition error.
func (t *Task) ApplyDefault(ctx context.Context, name string, val cty.Value) error {
	for i, in := range t.iface.Inputs {
		if in.Name != name {
			continue
		}
		converted, err := typemap.Convert(ctx, val, in.Type)
		if err != nil {
			return fmt.Errorf("default for input %q: %w", name, err)
		}
		t.iface.Inputs[i].Default = &converted
		t.iface.Inputs[i].Required = false
		return nil
	}
	return fmt.Errorf("default declared for unknown input %q", name)
}

// New derives the task's typed interface from the handler signature and
// applies declaration options. Definition errors are fatal to registration.
func New(name string, fn any, opts ...Option) (*Task, error) {
	if name == "" {
		return nil, fmt.Errorf("task name cannot be empty")
	}
	iface, err := interfaces.ForFunc(fn)
	if err != nil {
		return nil, fmt.Errorf("task %q: %w", name, err)
	}

	t := &Task{
		name:  name,
		iface: iface,
		fn:    reflect.ValueOf(fn),
	}

	ft := t.fn.Type()
	if ft.NumIn() == 2 {
		t.inType = ft.In(1).Elem()
		if t.inFields, err = fieldIndex(t.inType); err != nil {
			return nil, fmt.Errorf("task %q: %w", name, err)
		}
	}
	if ft.NumOut() == 2 {
		if out := ft.Out(0); out.Kind() == reflect.Pointer && out.Elem().Kind() == reflect.Struct {
			t.outType = out.Elem()
			if t.outFields, err = fieldIndex(t.outType); err != nil {
				return nil, fmt.Errorf("task %q: %w", name, err)
			}
		}
	}

	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, fmt.Errorf("task %q: %w", name, err)
		}
	}
	return t, nil
}

// Name returns the task's registered name.
func (t *Task) Name() string { return t.name }

// Interface returns the task's typed input/output contract.
func (t *Task) Interface() *interfaces.TypedInterface { return t.iface }

// Call invokes the task according to the current execution mode: a
// compilation pass registers a node and returns pending promises; local
// execution evaluates the handler. A call with no active context runs the
// task locally under a context of its own.
func (t *Task) Call(ctx context.Context, args map[string]any) (promise.Outputs, error) {
	switch flytectx.CurrentMode(ctx) {
	case flytectx.ModeCompilation:
		return builder.CreateAndLink(ctx, t.name, t.iface, args)
	case flytectx.ModeLocalExecution:
		return t.localCall(ctx, args)
	default:
		lctx, err := flytectx.WithLocalExecution(ctx)
		if err != nil {
			return promise.Outputs{}, err
		}
		return t.localCall(lctx, args)
	}
}

// localCall resolves the arguments to literals and evaluates the handler.
// Every promise supplied must already be ready; a pending promise here means
// a reference escaped its compilation pass.
func (t *Task) localCall(ctx context.Context, args map[string]any) (promise.Outputs, error) {
	if unknown := t.iface.UnknownInputs(args); len(unknown) > 0 {
		return promise.Outputs{}, fmt.Errorf("task %q: unknown argument(s): %v", t.name, unknown)
	}

	literals := make(map[string]cty.Value, len(args))
	for _, in := range t.iface.Inputs {
		arg, supplied := args[in.Name]
		if !supplied {
			continue // Run applies defaults and enforces required inputs.
		}
		var (
			val cty.Value
			err error
		)
		if p, ok := arg.(*promise.Promise); ok {
			if p == nil {
				return promise.Outputs{}, fmt.Errorf("task %q input %q: nil promise, no value was supplied", t.name, in.Name)
			}
			if val, err = p.Value(); err == nil {
				val, err = typemap.Convert(ctx, val, in.Type)
			}
		} else {
			val, err = typemap.ToLiteral(ctx, arg, in.Type)
		}
		if err != nil {
			return promise.Outputs{}, fmt.Errorf("task %q input %q: %w", t.name, in.Name, err)
		}
		literals[in.Name] = val
	}

	outLits, err := t.Run(ctx, literals)
	if err != nil {
		return promise.Outputs{}, err
	}

	switch len(t.iface.Outputs) {
	case 0:
		return promise.NoOutputs(), nil
	case 1:
		name := t.iface.Outputs[0].Name
		return promise.OneOutput(promise.Ready(name, outLits[name])), nil
	default:
		promises := make([]*promise.Promise, len(t.iface.Outputs))
		for i, out := range t.iface.Outputs {
			promises[i] = promise.Ready(out.Name, outLits[out.Name])
		}
		return promise.ManyOutputs(promises...), nil
	}
}

// fieldIndex maps resolved variable names to struct field positions.
func fieldIndex(t reflect.Type) (map[string]int, error) {
	fields, err := interfaces.StructFields(t)
	if err != nil {
		return nil, err
	}
	idx := make(map[string]int, len(fields))
	for _, f := range fields {
		idx[f.Name] = f.Index
	}
	return idx, nil
}

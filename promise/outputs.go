package promise

// outputsKind tags the closed Outputs variant.
type outputsKind int

const (
	outputsNone outputsKind = iota
	outputsSingle
	outputsMultiple
)

// Outputs is the closed variant a handler returns: no outputs, a single
// promise, or an ordered sequence of promises. Resolving the shape once here
// removes type-ambiguous branching from everything downstream.
type Outputs struct {
	kind     outputsKind
	promises []*Promise
}

// NoOutputs declares that a handler produced no outputs.
func NoOutputs() Outputs {
	return Outputs{kind: outputsNone}
}

// OneOutput wraps a single output promise.
func OneOutput(p *Promise) Outputs {
	return Outputs{kind: outputsSingle, promises: []*Promise{p}}
}

// ManyOutputs wraps an ordered sequence of output promises.
func ManyOutputs(ps ...*Promise) Outputs {
	return Outputs{kind: outputsMultiple, promises: ps}
}

// Empty reports whether no outputs were produced.
func (o Outputs) Empty() bool {
	return o.kind == outputsNone
}

// Len returns the number of output promises.
func (o Outputs) Len() int {
	return len(o.promises)
}

// Promises returns the output promises in order. The slice is shared; callers
// must not modify it.
func (o Outputs) Promises() []*Promise {
	return o.promises
}

package main

import (
	"context"
	"fmt"

	"github.com/YmirKhang/flytekit/interfaces"
	"github.com/YmirKhang/flytekit/promise"
	"github.com/YmirKhang/flytekit/registry"
	"github.com/YmirKhang/flytekit/task"
	"github.com/YmirKhang/flytekit/workflow"
	"github.com/zclconf/go-cty/cty"
)

// sampleRows stands in for a data source the row_count task would query.
var sampleRows = []string{
	"alpha", "bravo", "charlie", "delta", "echo",
	"foxtrot", "golf", "hotel",
}

type rowCountInput struct {
	Limit int `flyte:"limit"`
}

func rowCount(_ context.Context, in *rowCountInput) (int, error) {
	if in.Limit < 0 {
		return 0, fmt.Errorf("limit must be non-negative, got %d", in.Limit)
	}
	if in.Limit < len(sampleRows) {
		return in.Limit, nil
	}
	return len(sampleRows), nil
}

type describeInput struct {
	Count int `flyte:"count"`
}

func describeCount(_ context.Context, in *describeInput) (string, error) {
	return fmt.Sprintf("counted %d row(s)", in.Count), nil
}

// buildRegistry registers the example tasks.
func buildRegistry() (*registry.Registry, error) {
	reg := registry.New()

	countTask, err := task.New("row_count", rowCount, task.WithDefault("limit", cty.NumberIntVal(5)))
	if err != nil {
		return nil, err
	}
	reg.Register(countTask)

	describeTask, err := task.New("describe_count", describeCount)
	if err != nil {
		return nil, err
	}
	reg.Register(describeTask)

	return reg, nil
}

// compileExample declares the row_report workflow: count rows up to the
// caller's limit, then describe the count. Two declared outputs exercise the
// positional zip against the handler's returned promises.
func compileExample(ctx context.Context, reg *registry.Registry) (*workflow.Workflow, error) {
	countTask, _ := reg.Task("row_count")
	describeTask, _ := reg.Task("describe_count")

	iface := &interfaces.TypedInterface{
		Inputs: []interfaces.Variable{
			{Name: "limit", Type: cty.Number, Required: true},
		},
		Outputs: []interfaces.Variable{
			{Name: "count", Type: cty.Number, Required: true},
			{Name: "summary", Type: cty.String, Required: true},
		},
	}

	handler := func(ctx context.Context, inputs map[string]*promise.Promise) (promise.Outputs, error) {
		counted, err := countTask.Call(ctx, map[string]any{"limit": inputs["limit"]})
		if err != nil {
			return promise.Outputs{}, err
		}
		described, err := describeTask.Call(ctx, map[string]any{"count": counted.Promises()[0]})
		if err != nil {
			return promise.Outputs{}, err
		}
		return promise.ManyOutputs(counted.Promises()[0], described.Promises()[0]), nil
	}

	return workflow.Compile(ctx, "row_report", iface, handler)
}

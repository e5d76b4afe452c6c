package task

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/YmirKhang/flytekit/ctxlog"
	"github.com/YmirKhang/flytekit/flytectx"
	"github.com/YmirKhang/flytekit/promise"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

type countInput struct {
	Limit int `flyte:"limit"`
}

func countHandler(_ context.Context, in *countInput) (int, error) {
	return in.Limit * 2, nil
}

type reportOutput struct {
	Count   int    `flyte:"count"`
	Summary string `flyte:"summary"`
}

func reportHandler(_ context.Context, in *countInput) (*reportOutput, error) {
	return &reportOutput{Count: in.Limit, Summary: "ok"}, nil
}

func TestNew(t *testing.T) {
	t.Run("derives the interface from the handler", func(t *testing.T) {
		tk, err := New("double", countHandler)
		require.NoError(t, err)
		assert.Equal(t, "double", tk.Name())
		assert.Equal(t, []string{"limit"}, tk.Interface().InputNames())
		assert.Equal(t, []string{"o0"}, tk.Interface().OutputNames())
	})

	t.Run("empty name rejected", func(t *testing.T) {
		_, err := New("", countHandler)
		assert.ErrorContains(t, err, "name cannot be empty")
	})

	t.Run("default makes an input optional", func(t *testing.T) {
		tk, err := New("double", countHandler, WithDefault("limit", cty.NumberIntVal(4)))
		require.NoError(t, err)

		limit, ok := tk.Interface().Input("limit")
		require.True(t, ok)
		assert.False(t, limit.Required)
		require.NotNil(t, limit.Default)
	})

	t.Run("incompatible default is a definition error", func(t *testing.T) {
		_, err := New("double", countHandler, WithDefault("limit", cty.StringVal("lots")))
		assert.ErrorContains(t, err, "default for input")
	})

	t.Run("default for unknown input is a definition error", func(t *testing.T) {
		_, err := New("double", countHandler, WithDefault("bogus", cty.NumberIntVal(1)))
		assert.ErrorContains(t, err, "unknown input")
	})
}

func TestApplyDefault(t *testing.T) {
	t.Run("incompatibility warns through the caller's logger", func(t *testing.T) {
		tk, err := New("double", countHandler)
		require.NoError(t, err)

		var buf bytes.Buffer
		ctx := ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(&buf, nil)))

		err = tk.ApplyDefault(ctx, "limit", cty.StringVal("lots"))
		require.Error(t, err)
		assert.Contains(t, buf.String(), "coercion failed")
	})

	t.Run("compatible default applies", func(t *testing.T) {
		tk, err := New("double", countHandler)
		require.NoError(t, err)

		require.NoError(t, tk.ApplyDefault(context.Background(), "limit", cty.NumberIntVal(7)))
		limit, ok := tk.Interface().Input("limit")
		require.True(t, ok)
		require.NotNil(t, limit.Default)
		assert.True(t, cty.NumberIntVal(7).RawEquals(*limit.Default))
	})
}

func TestRun(t *testing.T) {
	ctx := context.Background()

	t.Run("literal in, literal out", func(t *testing.T) {
		tk, err := New("double", countHandler)
		require.NoError(t, err)

		out, err := tk.Run(ctx, map[string]cty.Value{"limit": cty.NumberIntVal(5)})
		require.NoError(t, err)
		assert.True(t, cty.NumberIntVal(10).RawEquals(out["o0"]))
	})

	t.Run("default applied when input is absent", func(t *testing.T) {
		tk, err := New("double", countHandler, WithDefault("limit", cty.NumberIntVal(3)))
		require.NoError(t, err)

		out, err := tk.Run(ctx, nil)
		require.NoError(t, err)
		assert.True(t, cty.NumberIntVal(6).RawEquals(out["o0"]))
	})

	t.Run("missing required input rejected", func(t *testing.T) {
		tk, err := New("double", countHandler)
		require.NoError(t, err)

		_, err = tk.Run(ctx, nil)
		assert.ErrorContains(t, err, "missing required input")
	})

	t.Run("handler errors are wrapped, not swallowed", func(t *testing.T) {
		boom := errors.New("boom")
		failing := func(_ context.Context, _ *countInput) (int, error) { return 0, boom }
		tk, err := New("fails", failing)
		require.NoError(t, err)

		_, err = tk.Run(ctx, map[string]cty.Value{"limit": cty.NumberIntVal(1)})
		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("multi-output handler produces named literals", func(t *testing.T) {
		tk, err := New("report", reportHandler)
		require.NoError(t, err)

		out, err := tk.Run(ctx, map[string]cty.Value{"limit": cty.NumberIntVal(7)})
		require.NoError(t, err)
		assert.True(t, cty.NumberIntVal(7).RawEquals(out["count"]))
		assert.Equal(t, "ok", out["summary"].AsString())
	})
}

func TestCall(t *testing.T) {
	t.Run("compilation registers a node and returns pending promises", func(t *testing.T) {
		tk, err := New("double", countHandler)
		require.NoError(t, err)

		cctx, cs, err := flytectx.WithCompilation(context.Background())
		require.NoError(t, err)

		outs, err := tk.Call(cctx, map[string]any{"limit": 5})
		require.NoError(t, err)
		require.Len(t, cs.Nodes(), 1)
		assert.Equal(t, "double", cs.Nodes()[0].Name)
		require.Equal(t, 1, outs.Len())
		assert.False(t, outs.Promises()[0].IsReady())
	})

	t.Run("local execution evaluates the handler", func(t *testing.T) {
		tk, err := New("double", countHandler)
		require.NoError(t, err)

		lctx, err := flytectx.WithLocalExecution(context.Background())
		require.NoError(t, err)

		outs, err := tk.Call(lctx, map[string]any{"limit": 5})
		require.NoError(t, err)
		require.Equal(t, 1, outs.Len())

		val, err := outs.Promises()[0].Value()
		require.NoError(t, err)
		assert.True(t, cty.NumberIntVal(10).RawEquals(val))
	})

	t.Run("standalone call runs locally", func(t *testing.T) {
		tk, err := New("double", countHandler)
		require.NoError(t, err)

		outs, err := tk.Call(context.Background(), map[string]any{"limit": 2})
		require.NoError(t, err)

		val, err := outs.Promises()[0].Value()
		require.NoError(t, err)
		assert.True(t, cty.NumberIntVal(4).RawEquals(val))
	})

	t.Run("ready promises unwrap in local mode", func(t *testing.T) {
		tk, err := New("double", countHandler)
		require.NoError(t, err)

		lctx, err := flytectx.WithLocalExecution(context.Background())
		require.NoError(t, err)

		outs, err := tk.Call(lctx, map[string]any{"limit": promise.Ready("limit", cty.NumberIntVal(6))})
		require.NoError(t, err)

		val, err := outs.Promises()[0].Value()
		require.NoError(t, err)
		assert.True(t, cty.NumberIntVal(12).RawEquals(val))
	})

	t.Run("pending promise in local mode is an unresolved reference", func(t *testing.T) {
		tk, err := New("double", countHandler)
		require.NoError(t, err)

		lctx, err := flytectx.WithLocalExecution(context.Background())
		require.NoError(t, err)

		_, err = tk.Call(lctx, map[string]any{"limit": promise.Pending("limit", "n0-ghost")})
		require.Error(t, err)
		assert.ErrorIs(t, err, promise.ErrUnresolved)
	})

	t.Run("nil promise in local mode is an invocation error", func(t *testing.T) {
		tk, err := New("double", countHandler)
		require.NoError(t, err)

		lctx, err := flytectx.WithLocalExecution(context.Background())
		require.NoError(t, err)

		// The lookup of an unsupplied workflow input yields a typed-nil
		// *Promise; forwarding it must error rather than dereference nil.
		var p *promise.Promise
		_, err = tk.Call(lctx, map[string]any{"limit": p})
		require.Error(t, err)
		assert.ErrorContains(t, err, "nil promise")
	})

	t.Run("unknown argument rejected in local mode", func(t *testing.T) {
		tk, err := New("double", countHandler)
		require.NoError(t, err)

		lctx, err := flytectx.WithLocalExecution(context.Background())
		require.NoError(t, err)

		_, err = tk.Call(lctx, map[string]any{"limit": 1, "bogus": 2})
		assert.ErrorContains(t, err, "unknown argument")
	})
}

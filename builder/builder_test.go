package builder

import (
	"context"
	"testing"

	"github.com/YmirKhang/flytekit/flytectx"
	"github.com/YmirKhang/flytekit/interfaces"
	"github.com/YmirKhang/flytekit/node"
	"github.com/YmirKhang/flytekit/promise"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func rowCountInterface() *interfaces.TypedInterface {
	return &interfaces.TypedInterface{
		Inputs: []interfaces.Variable{
			{Name: "limit", Type: cty.Number, Required: true},
		},
		Outputs: []interfaces.Variable{
			{Name: "count", Type: cty.Number, Required: true},
		},
	}
}

func TestCreateAndLink(t *testing.T) {
	t.Run("fails fast outside a compilation pass", func(t *testing.T) {
		_, err := CreateAndLink(context.Background(), "row_count", rowCountInterface(), nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, flytectx.ErrNoCompilation)
	})

	t.Run("pending promise binds by reference", func(t *testing.T) {
		cctx, cs, err := flytectx.WithCompilation(context.Background())
		require.NoError(t, err)

		outs, err := CreateAndLink(cctx, "row_count", rowCountInterface(), map[string]any{
			"limit": promise.Pending("limit", node.StartNodeID),
		})
		require.NoError(t, err)

		require.Len(t, cs.Nodes(), 1)
		n := cs.Nodes()[0]
		assert.Equal(t, "n0-row_count", n.ID)
		require.Len(t, n.Bindings, 1)
		ref, ok := n.Bindings[0].Data.Reference()
		require.True(t, ok)
		assert.Equal(t, promise.NodeOutput{NodeID: node.StartNodeID, Var: "limit"}, ref)

		require.Equal(t, 1, outs.Len())
		p := outs.Promises()[0]
		assert.Equal(t, "count", p.Var())
		outRef, pending := p.Ref()
		require.True(t, pending)
		assert.Equal(t, "n0-row_count", outRef.NodeID)
	})

	t.Run("ready literal binds by value", func(t *testing.T) {
		cctx, cs, err := flytectx.WithCompilation(context.Background())
		require.NoError(t, err)

		_, err = CreateAndLink(cctx, "row_count", rowCountInterface(), map[string]any{"limit": 5})
		require.NoError(t, err)

		val, ok := cs.Nodes()[0].Bindings[0].Data.Literal()
		require.True(t, ok)
		assert.True(t, cty.NumberIntVal(5).RawEquals(val))
	})

	t.Run("default fills a missing optional argument", func(t *testing.T) {
		def := cty.NumberIntVal(10)
		iface := rowCountInterface()
		iface.Inputs[0].Default = &def
		iface.Inputs[0].Required = false

		cctx, cs, err := flytectx.WithCompilation(context.Background())
		require.NoError(t, err)

		_, err = CreateAndLink(cctx, "row_count", iface, nil)
		require.NoError(t, err)

		val, ok := cs.Nodes()[0].Bindings[0].Data.Literal()
		require.True(t, ok)
		assert.True(t, def.RawEquals(val))
	})

	t.Run("missing required argument rejected", func(t *testing.T) {
		cctx, _, err := flytectx.WithCompilation(context.Background())
		require.NoError(t, err)

		_, err = CreateAndLink(cctx, "row_count", rowCountInterface(), nil)
		assert.ErrorContains(t, err, "missing required argument")
	})

	t.Run("nil promise argument rejected", func(t *testing.T) {
		cctx, _, err := flytectx.WithCompilation(context.Background())
		require.NoError(t, err)

		var p *promise.Promise
		_, err = CreateAndLink(cctx, "row_count", rowCountInterface(), map[string]any{"limit": p})
		require.Error(t, err)
		assert.ErrorContains(t, err, "nil promise")
	})

	t.Run("unknown argument rejected", func(t *testing.T) {
		cctx, _, err := flytectx.WithCompilation(context.Background())
		require.NoError(t, err)

		_, err = CreateAndLink(cctx, "row_count", rowCountInterface(), map[string]any{
			"limit": 1,
			"bogus": 2,
		})
		assert.ErrorContains(t, err, "unknown argument")
	})

	t.Run("nodes accumulate in call order with unique ids", func(t *testing.T) {
		cctx, cs, err := flytectx.WithCompilation(context.Background())
		require.NoError(t, err)

		for i := 0; i < 3; i++ {
			_, err := CreateAndLink(cctx, "row_count", rowCountInterface(), map[string]any{"limit": i})
			require.NoError(t, err)
		}

		require.Len(t, cs.Nodes(), 3)
		assert.Equal(t, "n0-row_count", cs.Nodes()[0].ID)
		assert.Equal(t, "n1-row_count", cs.Nodes()[1].ID)
		assert.Equal(t, "n2-row_count", cs.Nodes()[2].ID)
	})

	t.Run("zero-output task yields no promises", func(t *testing.T) {
		iface := &interfaces.TypedInterface{}
		cctx, _, err := flytectx.WithCompilation(context.Background())
		require.NoError(t, err)

		outs, err := CreateAndLink(cctx, "notify", iface, nil)
		require.NoError(t, err)
		assert.True(t, outs.Empty())
	})

	t.Run("multi-output task yields one pending promise per output", func(t *testing.T) {
		iface := &interfaces.TypedInterface{
			Outputs: []interfaces.Variable{
				{Name: "count", Type: cty.Number, Required: true},
				{Name: "summary", Type: cty.String, Required: true},
			},
		}
		cctx, _, err := flytectx.WithCompilation(context.Background())
		require.NoError(t, err)

		outs, err := CreateAndLink(cctx, "report", iface, nil)
		require.NoError(t, err)
		require.Equal(t, 2, outs.Len())
		assert.Equal(t, "count", outs.Promises()[0].Var())
		assert.Equal(t, "summary", outs.Promises()[1].Var())
	})
}

func TestUpstream(t *testing.T) {
	cctx, cs, err := flytectx.WithCompilation(context.Background())
	require.NoError(t, err)

	first, err := CreateAndLink(cctx, "row_count", rowCountInterface(), map[string]any{
		"limit": promise.Pending("limit", node.StartNodeID),
	})
	require.NoError(t, err)

	_, err = CreateAndLink(cctx, "row_count", rowCountInterface(), map[string]any{
		"limit": first.Promises()[0],
	})
	require.NoError(t, err)

	// Start-node references are not dependencies; real edges come from node
	// output references.
	assert.Empty(t, cs.Nodes()[0].Upstream())
	assert.Equal(t, []string{"n0-row_count"}, cs.Nodes()[1].Upstream())
}

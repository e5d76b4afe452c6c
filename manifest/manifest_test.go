package manifest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestLoadBytes(t *testing.T) {
	ctx := context.Background()

	t.Run("full task block", func(t *testing.T) {
		src := []byte(`
task "row_count" {
  description = "Counts rows up to a limit."

  input "limit" {
    type    = number
    default = 5
  }

  input "filter" {
    type     = string
    optional = true
  }

  output "count" {
    type = number
  }
}
`)
		defs, err := LoadBytes(ctx, "tasks.hcl", src)
		require.NoError(t, err)
		require.Len(t, defs, 1)

		def := defs["row_count"]
		require.NotNil(t, def)
		assert.Equal(t, "Counts rows up to a limit.", def.Description)

		require.Len(t, def.Interface.Inputs, 2)
		limit := def.Interface.Inputs[0]
		assert.Equal(t, "limit", limit.Name)
		assert.Equal(t, cty.Number, limit.Type)
		require.NotNil(t, limit.Default)
		assert.True(t, cty.NumberIntVal(5).RawEquals(*limit.Default))
		assert.False(t, limit.Required)

		filter := def.Interface.Inputs[1]
		assert.Equal(t, cty.String, filter.Type)
		assert.False(t, filter.Required)
		assert.Nil(t, filter.Default)

		require.Len(t, def.Interface.Outputs, 1)
		assert.Equal(t, "count", def.Interface.Outputs[0].Name)
		assert.Equal(t, cty.Number, def.Interface.Outputs[0].Type)
	})

	t.Run("collection and dynamic types", func(t *testing.T) {
		src := []byte(`
task "shapes" {
  input "names" {
    type = list(string)
  }
  input "weights" {
    type = map(number)
  }
  input "tags" {
    type = set(string)
  }
  input "anything" {
    type = any
  }
}
`)
		defs, err := LoadBytes(ctx, "shapes.hcl", src)
		require.NoError(t, err)

		in := defs["shapes"].Interface.Inputs
		require.Len(t, in, 4)
		assert.Equal(t, cty.List(cty.String), in[0].Type)
		assert.Equal(t, cty.Map(cty.Number), in[1].Type)
		assert.Equal(t, cty.Set(cty.String), in[2].Type)
		assert.Equal(t, cty.DynamicPseudoType, in[3].Type)
	})

	t.Run("error cases", func(t *testing.T) {
		testCases := []struct {
			name   string
			src    string
			errMsg string
		}{
			{
				"unknown type keyword",
				`task "t" {
  input "x" { type = widget }
}`,
				"unknown primitive type",
			},
			{
				"collection of any rejected",
				`task "t" {
  input "x" { type = list(any) }
}`,
				"cannot contain type 'any'",
			},
			{
				"default incompatible with declared type",
				`task "t" {
  input "x" {
    type    = number
    default = "not-a-number"
  }
}`,
				"default incompatible",
			},
			{
				"duplicate task name",
				`task "t" { }
task "t" { }`,
				"declared more than once",
			},
		}
		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := LoadBytes(ctx, "bad.hcl", []byte(tc.src))
				require.Error(t, err)
				assert.ErrorContains(t, err, tc.errMsg)
			})
		}
	})
}

func TestLoadDir(t *testing.T) {
	ctx := context.Background()

	t.Run("merges manifests across nested directories", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "a.hcl"), []byte(`
task "row_count" {
  input "limit" { type = number }
  output "count" { type = number }
}
`), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "b.hcl"), []byte(`
task "describe_count" {
  input "count" { type = number }
  output "summary" { type = string }
}
`), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("not hcl"), 0o644))

		defs, err := LoadDir(ctx, dir)
		require.NoError(t, err)
		assert.Len(t, defs, 2)
		assert.Contains(t, defs, "row_count")
		assert.Contains(t, defs, "describe_count")
	})

	t.Run("duplicate across files is an error", func(t *testing.T) {
		dir := t.TempDir()
		block := []byte(`task "row_count" { }`)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "a.hcl"), block, 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "b.hcl"), block, 0o644))

		_, err := LoadDir(ctx, dir)
		require.Error(t, err)
		assert.ErrorContains(t, err, "declared more than once")
	})

	t.Run("empty directory yields no definitions", func(t *testing.T) {
		defs, err := LoadDir(ctx, t.TempDir())
		require.NoError(t, err)
		assert.Empty(t, defs)
	})
}

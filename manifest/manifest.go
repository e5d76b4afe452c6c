// Package manifest loads task interface declarations from HCL files, so a
// task's typed contract can live alongside the grid of workflows that use it
// and be parity-checked against the registered Go handler.
package manifest

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/YmirKhang/flytekit/ctxlog"
	"github.com/YmirKhang/flytekit/interfaces"
	"github.com/YmirKhang/flytekit/typemap"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// TaskDefinition is a task interface declared in a manifest.
type TaskDefinition struct {
	Name        string
	Description string
	Interface   *interfaces.TypedInterface
}

// LoadDir recursively loads every .hcl manifest under the given path and
// returns the declared task definitions keyed by task name. Declaring the
// same task twice, in one file or across files, is an error.
func LoadDir(ctx context.Context, path string) (map[string]*TaskDefinition, error) {
	logger := ctxlog.FromContext(ctx)

	paths, err := findHCLFiles(path)
	if err != nil {
		return nil, fmt.Errorf("scanning manifest path %q: %w", path, err)
	}
	if len(paths) == 0 {
		logger.Warn("No .hcl manifest files found.", "path", path)
		return map[string]*TaskDefinition{}, nil
	}

	parser := hclparse.NewParser()
	defs := make(map[string]*TaskDefinition)
	for _, filePath := range paths {
		file, diags := parser.ParseHCLFile(filePath)
		if diags.HasErrors() {
			return nil, fmt.Errorf("parsing manifest %s: %w", filePath, diags)
		}
		if err := decodeInto(ctx, file, filePath, defs); err != nil {
			return nil, err
		}
		logger.Debug("Loaded manifest file.", "file", filePath)
	}

	logger.Info("Task manifests loaded.", "files", len(paths), "tasks", len(defs))
	return defs, nil
}

// LoadBytes parses a single in-memory manifest, e.g. in tests.
func LoadBytes(ctx context.Context, filename string, src []byte) (map[string]*TaskDefinition, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing manifest %s: %w", filename, diags)
	}
	defs := make(map[string]*TaskDefinition)
	if err := decodeInto(ctx, file, filename, defs); err != nil {
		return nil, err
	}
	return defs, nil
}

// decodeInto decodes one parsed file and merges its task blocks into defs.
func decodeInto(ctx context.Context, file *hcl.File, filename string, defs map[string]*TaskDefinition) error {
	var cfg fileConfig
	if diags := gohcl.DecodeBody(file.Body, nil, &cfg); diags.HasErrors() {
		return fmt.Errorf("decoding manifest %s: %w", filename, diags)
	}

	for _, block := range cfg.Tasks {
		if _, dup := defs[block.Name]; dup {
			return fmt.Errorf("manifest %s: task %q declared more than once", filename, block.Name)
		}
		def, err := definitionFromBlock(ctx, block)
		if err != nil {
			return fmt.Errorf("manifest %s: task %q: %w", filename, block.Name, err)
		}
		defs[block.Name] = def
	}
	return nil
}

// definitionFromBlock translates one task block into a TypedInterface,
// validating each default against its declared type.
func definitionFromBlock(ctx context.Context, block *taskBlock) (*TaskDefinition, error) {
	iface := &interfaces.TypedInterface{}

	for _, in := range block.Inputs {
		ty, err := typeExprToCtyType(in.Type)
		if err != nil {
			return nil, fmt.Errorf("input %q: %w", in.Name, err)
		}
		v := interfaces.Variable{Name: in.Name, Type: ty, Required: !in.Optional}
		if in.Default != nil {
			converted, err := typemap.Convert(ctx, *in.Default, ty)
			if err != nil {
				return nil, fmt.Errorf("input %q: default incompatible with declared type: %w", in.Name, err)
			}
			v.Default = &converted
			v.Required = false
		}
		iface.Inputs = append(iface.Inputs, v)
	}

	for _, out := range block.Outputs {
		ty, err := typeExprToCtyType(out.Type)
		if err != nil {
			return nil, fmt.Errorf("output %q: %w", out.Name, err)
		}
		iface.Outputs = append(iface.Outputs, interfaces.Variable{Name: out.Name, Type: ty, Required: true})
	}

	return &TaskDefinition{Name: block.Name, Description: block.Description, Interface: iface}, nil
}

// findHCLFiles recursively collects .hcl files under root. A single .hcl file
// path is returned as-is.
func findHCLFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".hcl") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

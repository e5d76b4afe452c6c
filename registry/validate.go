package registry

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/YmirKhang/flytekit/ctxlog"
	"github.com/YmirKhang/flytekit/interfaces"
	"github.com/YmirKhang/flytekit/manifest"
	"github.com/zclconf/go-cty/cty"
)

// ValidateParity performs a strict check between manifest-declared task
// interfaces and the registered Go handlers: every declared task must be
// registered, and each declared input and output must exist on the handler
// side with an equal type. A manifest type of `any` disables the type check
// for that variable.
func (r *Registry) ValidateParity(ctx context.Context, defs map[string]*manifest.TaskDefinition) error {
	logger := ctxlog.FromContext(ctx)
	var errs []string

	for name, def := range defs {
		t, ok := r.tasks[name]
		if !ok {
			errs = append(errs, fmt.Sprintf("task '%s': declared in manifest but no handler is registered", name))
			continue
		}
		errs = append(errs, compareVariables(logger.With("task", name), name, "input", def.Interface.Inputs, t.Interface().Inputs)...)
		errs = append(errs, compareVariables(logger.With("task", name), name, "output", def.Interface.Outputs, t.Interface().Outputs)...)
	}

	if len(errs) > 0 {
		return fmt.Errorf("manifest parity validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

// ApplyManifestDefaults copies declared defaults from manifests onto the
// matching registered task inputs that do not already carry one. Must run
// before any workflow declaration uses those tasks.
func (r *Registry) ApplyManifestDefaults(ctx context.Context, defs map[string]*manifest.TaskDefinition) error {
	for name, def := range defs {
		t, ok := r.tasks[name]
		if !ok {
			continue // parity validation reports this
		}
		for _, in := range def.Interface.Inputs {
			if in.Default == nil {
				continue
			}
			existing, ok := t.Interface().Input(in.Name)
			if !ok || existing.Default != nil {
				continue
			}
			if err := t.ApplyDefault(ctx, in.Name, *in.Default); err != nil {
				return fmt.Errorf("task %q: %w", name, err)
			}
			ctxlog.FromContext(ctx).Debug("Applied manifest default.", "task", name, "input", in.Name)
		}
	}
	return nil
}

// compareVariables checks presence both ways and type equality per variable.
func compareVariables(logger *slog.Logger, taskName, kind string, declared, registered []interfaces.Variable) []string {
	var errs []string

	have := make(map[string]interfaces.Variable, len(registered))
	for _, v := range registered {
		have[v.Name] = v
	}
	want := make(map[string]interfaces.Variable, len(declared))
	for _, v := range declared {
		want[v.Name] = v
	}

	for name := range have {
		if _, ok := want[name]; !ok {
			errs = append(errs, fmt.Sprintf("task '%s': handler has %s '%s' which is not declared in the manifest", taskName, kind, name))
		}
	}
	for name, decl := range want {
		reg, ok := have[name]
		if !ok {
			errs = append(errs, fmt.Sprintf("task '%s': manifest declares %s '%s' which is not found on the handler", taskName, kind, name))
			continue
		}
		if decl.Type.Equals(cty.DynamicPseudoType) {
			logger.Warn("Manifest declares 'any' type, which disables static type checking.", "variable", name)
			continue
		}
		if !decl.Type.Equals(reg.Type) {
			errs = append(errs, fmt.Sprintf("task '%s', %s '%s': type mismatch, manifest requires '%s' but handler provides '%s'",
				taskName, kind, name, decl.Type.FriendlyName(), reg.Type.FriendlyName()))
		}
	}
	return errs
}

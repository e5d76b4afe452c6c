package interfaces

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/YmirKhang/flytekit/typemap"
)

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// Field describes one exported struct field that participates in a typed
// interface: its resolved variable name, position, optionality and literal type.
type Field struct {
	Name     string
	Index    int
	Optional bool
	Type     reflect.Type
}

// StructFields resolves the interface-relevant fields of a struct type. The
// variable name comes from the `flyte:"name"` tag when present, otherwise the
// lowercased field name; a tag of "-" excludes the field. The `optional` tag
// option marks an input as not required.
func StructFields(t reflect.Type) ([]Field, error) {
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("expected a struct type, got %s", t)
	}

	var fields []Field
	seen := make(map[string]struct{})
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}

		name := strings.ToLower(sf.Name)
		optional := false
		if tag, ok := sf.Tag.Lookup("flyte"); ok {
			parts := strings.Split(tag, ",")
			if parts[0] == "-" {
				continue
			}
			if parts[0] != "" {
				name = parts[0]
			}
			for _, opt := range parts[1:] {
				if opt == "optional" {
					optional = true
				}
			}
		}

		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("duplicate variable name %q in %s", name, t)
		}
		seen[name] = struct{}{}
		fields = append(fields, Field{Name: name, Index: i, Optional: optional, Type: sf.Type})
	}
	return fields, nil
}

// ForFunc derives a TypedInterface from a Go handler signature. Supported
// shapes are:
//
//	func(ctx context.Context) error
//	func(ctx context.Context) (T, error)
//	func(ctx context.Context, in *In) error
//	func(ctx context.Context, in *In) (T, error)
//
// The fields of the input struct In become inputs. When T is a pointer to a
// struct its fields become the outputs; any other T becomes a single output
// with the synthesized positional name "o0".
func ForFunc(fn any) (*TypedInterface, error) {
	t := reflect.TypeOf(fn)
	if t == nil || t.Kind() != reflect.Func {
		return nil, fmt.Errorf("handler must be a function, got %T", fn)
	}

	if t.NumIn() < 1 || t.NumIn() > 2 || t.In(0) != contextType {
		return nil, fmt.Errorf("handler %s must take (context.Context) or (context.Context, *struct)", t)
	}
	if t.NumOut() < 1 || t.NumOut() > 2 || t.Out(t.NumOut()-1) != errorType {
		return nil, fmt.Errorf("handler %s must return error as its last result", t)
	}

	ti := &TypedInterface{}

	if t.NumIn() == 2 {
		inputs, err := variablesForStruct(t.In(1), true)
		if err != nil {
			return nil, fmt.Errorf("deriving handler inputs: %w", err)
		}
		ti.Inputs = inputs
	}

	if t.NumOut() == 2 {
		out := t.Out(0)
		if out.Kind() == reflect.Pointer && out.Elem().Kind() == reflect.Struct {
			outputs, err := variablesForStruct(out, false)
			if err != nil {
				return nil, fmt.Errorf("deriving handler outputs: %w", err)
			}
			ti.Outputs = outputs
		} else {
			ty, err := typemap.ImpliedTypeOf(out)
			if err != nil {
				return nil, fmt.Errorf("deriving handler output: %w", err)
			}
			ti.Outputs = []Variable{{Name: "o0", Type: ty, Required: true}}
		}
	}

	return ti, nil
}

// variablesForStruct turns a pointer-to-struct type into an ordered variable list.
func variablesForStruct(t reflect.Type, asInputs bool) ([]Variable, error) {
	if t.Kind() != reflect.Pointer || t.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("expected a pointer to struct, got %s", t)
	}

	fields, err := StructFields(t.Elem())
	if err != nil {
		return nil, err
	}

	vars := make([]Variable, 0, len(fields))
	for _, f := range fields {
		ty, err := typemap.ImpliedTypeOf(f.Type)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		required := true
		if asInputs && f.Optional {
			required = false
		}
		vars = append(vars, Variable{Name: f.Name, Type: ty, Required: required})
	}
	return vars, nil
}

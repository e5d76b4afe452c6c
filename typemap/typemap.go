// Package typemap converts between native Go values and the platform's typed
// literal representation. A literal is a cty.Value; a literal map is keyed by
// variable name. Conversion failures are logged and returned unchanged, never
// silently downgraded to a default.
package typemap

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/YmirKhang/flytekit/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// ErrConversion marks a native-to-literal or literal-to-native failure.
var ErrConversion = errors.New("literal conversion failed")

// ImpliedType infers the cty type that represents a native Go value.
func ImpliedType(v any) (cty.Type, error) {
	ty, err := gocty.ImpliedType(v)
	if err != nil {
		return cty.NilType, fmt.Errorf("could not imply literal type for %T: %w", v, err)
	}
	return ty, nil
}

// ImpliedTypeOf infers the cty type for a Go reflect.Type, e.g. a struct field.
func ImpliedTypeOf(t reflect.Type) (cty.Type, error) {
	ty, err := gocty.ImpliedType(reflect.Zero(t).Interface())
	if err != nil {
		return cty.NilType, fmt.Errorf("could not imply literal type for %s: %w", t, err)
	}
	return ty, nil
}

// ToLiteral converts a native Go value into a literal of the declared type.
// A cty.Value passed in is converted (not re-encoded) to the declared type.
func ToLiteral(ctx context.Context, v any, want cty.Type) (cty.Value, error) {
	logger := ctxlog.FromContext(ctx)

	if ctyVal, ok := v.(cty.Value); ok {
		return Convert(ctx, ctyVal, want)
	}

	target := want
	if want == cty.DynamicPseudoType {
		implied, err := ImpliedType(v)
		if err != nil {
			logger.Warn("Failed to imply literal type for untyped input.", "value_type", fmt.Sprintf("%T", v), "error", err)
			return cty.NilVal, errors.Join(ErrConversion, err)
		}
		target = implied
	}

	val, err := gocty.ToCtyValue(v, target)
	if err != nil {
		logger.Warn("Failed to convert native value to literal.", "value_type", fmt.Sprintf("%T", v), "want", target.FriendlyName(), "error", err)
		return cty.NilVal, fmt.Errorf("converting %T to %s: %w", v, target.FriendlyName(), errors.Join(ErrConversion, err))
	}
	return val, nil
}

// Convert coerces a literal to the declared type, e.g. when checking that a
// default value is compatible with its input's declared type.
func Convert(ctx context.Context, val cty.Value, want cty.Type) (cty.Value, error) {
	if want == cty.DynamicPseudoType {
		return val, nil
	}
	converted, err := convert.Convert(val, want)
	if err != nil {
		ctxlog.FromContext(ctx).Warn("Literal type coercion failed.",
			"have", val.Type().FriendlyName(), "want", want.FriendlyName(), "error", err)
		return cty.NilVal, fmt.Errorf("cannot convert %s to %s: %w", val.Type().FriendlyName(), want.FriendlyName(), errors.Join(ErrConversion, err))
	}
	return converted, nil
}

// FromLiteral converts a literal back to a native Go value: primitives become
// string/float64/bool, objects and maps become map[string]any, lists and
// tuples become []any.
func FromLiteral(val cty.Value) (any, error) {
	if !val.IsKnown() || val.IsNull() {
		return nil, nil
	}
	if val.Type().IsPrimitiveType() {
		switch val.Type() {
		case cty.String:
			return val.AsString(), nil
		case cty.Number:
			f, _ := val.AsBigFloat().Float64()
			return f, nil
		case cty.Bool:
			return val.True(), nil
		default:
			return nil, fmt.Errorf("unsupported primitive type %s: %w", val.Type().FriendlyName(), ErrConversion)
		}
	}
	if val.Type().IsObjectType() || val.Type().IsMapType() {
		out := make(map[string]any)
		for it := val.ElementIterator(); it.Next(); {
			k, v := it.Element()
			native, err := FromLiteral(v)
			if err != nil {
				return nil, err
			}
			out[k.AsString()] = native
		}
		return out, nil
	}
	if val.Type().IsTupleType() || val.Type().IsListType() || val.Type().IsSetType() {
		var out []any
		for it := val.ElementIterator(); it.Next(); {
			_, v := it.Element()
			native, err := FromLiteral(v)
			if err != nil {
				return nil, err
			}
			out = append(out, native)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported literal type %s: %w", val.Type().FriendlyName(), ErrConversion)
}

// MapFromLiterals converts a literal map back to a map of native Go values.
func MapFromLiterals(literals map[string]cty.Value) (map[string]any, error) {
	out := make(map[string]any, len(literals))
	for name, val := range literals {
		native, err := FromLiteral(val)
		if err != nil {
			return nil, fmt.Errorf("output %q: %w", name, err)
		}
		out[name] = native
	}
	return out, nil
}

package registry

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// DecodeParams decodes node parameters into target, a pointer to a struct
// with `cty:"name"` field tags. Fields keep their current values unless a
// parameter overrides them, so callers pre-fill target with defaults.
// Unknown parameters and values that cannot be converted to the field type
// are reported together.
func DecodeParams(params map[string]cty.Value, target any) error {
	if rt := reflect.TypeOf(target); rt != nil && rt.Kind() == reflect.Pointer &&
		rt.Elem().Kind() == reflect.Struct && rt.Elem().NumField() == 0 {
		return rejectAll(params)
	}
	ty, err := gocty.ImpliedType(target)
	if err != nil {
		return fmt.Errorf("cannot decode params into %T: %w", target, err)
	}
	if !ty.IsObjectType() {
		return fmt.Errorf("cannot decode params into %T: not a struct", target)
	}
	current, err := gocty.ToCtyValue(target, ty)
	if err != nil {
		return fmt.Errorf("cannot read defaults from %T: %w", target, err)
	}

	attrs := make(map[string]cty.Value, len(ty.AttributeTypes()))
	for name, v := range current.AsValueMap() {
		attrs[name] = v
	}

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []string
	for _, name := range names {
		want, ok := ty.AttributeTypes()[name]
		if !ok {
			errs = append(errs, fmt.Sprintf("unsupported parameter '%s'", name))
			continue
		}
		v, err := convert.Convert(params[name], want)
		if err != nil {
			errs = append(errs, fmt.Sprintf("parameter '%s': %s", name, err))
			continue
		}
		attrs[name] = v
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid params:\n- %s", strings.Join(errs, "\n- "))
	}

	if len(attrs) == 0 {
		return nil
	}
	if err := gocty.FromCtyValue(cty.ObjectVal(attrs), target); err != nil {
		return fmt.Errorf("failed to decode params: %w", err)
	}
	return nil
}

// rejectAll reports every parameter as unsupported, for passes that take
// none.
func rejectAll(params map[string]cty.Value) error {
	if len(params) == 0 {
		return nil
	}
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, fmt.Sprintf("unsupported parameter '%s'", name))
	}
	sort.Strings(names)
	return fmt.Errorf("invalid params:\n- %s", strings.Join(names, "\n- "))
}

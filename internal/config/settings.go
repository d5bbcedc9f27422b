package config

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/magiconair/properties"
	"github.com/pelletier/go-toml/v2"
	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"
)

// LoadSettings reads a settings file into a flat property map. The format is
// chosen by extension: .properties, .toml, .yaml or .yml. Nested tables are
// flattened into dotted names.
func LoadSettings(path string) (map[string]cty.Value, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".properties":
		p, err := properties.LoadFile(path, properties.UTF8)
		if err != nil {
			return nil, fmt.Errorf("failed to load settings %s: %w", path, err)
		}
		return fromProperties(p), nil
	case ".toml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read settings %s: %w", path, err)
		}
		return ParseTOML(data)
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read settings %s: %w", path, err)
		}
		return ParseYAML(data)
	default:
		return nil, fmt.Errorf("unsupported settings format %q for %s", filepath.Ext(path), path)
	}
}

// ParseProperties parses Java-style properties text. Values that look like
// booleans or numbers become bool and number properties.
func ParseProperties(src string) (map[string]cty.Value, error) {
	p, err := properties.LoadString(src)
	if err != nil {
		return nil, fmt.Errorf("failed to parse properties: %w", err)
	}
	return fromProperties(p), nil
}

// ParseTOML parses TOML settings.
func ParseTOML(data []byte) (map[string]cty.Value, error) {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse toml settings: %w", err)
	}
	return flatten(raw)
}

// ParseYAML parses YAML settings.
func ParseYAML(data []byte) (map[string]cty.Value, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse yaml settings: %w", err)
	}
	return flatten(raw)
}

func fromProperties(p *properties.Properties) map[string]cty.Value {
	out := make(map[string]cty.Value, p.Len())
	for _, key := range p.Keys() {
		raw, _ := p.Get(key)
		out[key] = scalarFromString(raw)
	}
	return out
}

// scalarFromString keeps "nan" as a string; cty numbers cannot hold NaN.
func scalarFromString(raw string) cty.Value {
	trimmed := strings.TrimSpace(raw)
	switch strings.ToLower(trimmed) {
	case "true":
		return cty.True
	case "false":
		return cty.False
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil && !math.IsNaN(f) {
		return cty.NumberFloatVal(f)
	}
	return cty.StringVal(raw)
}

func flatten(raw map[string]any) (map[string]cty.Value, error) {
	out := make(map[string]cty.Value)
	if err := flattenInto(out, "", raw); err != nil {
		return nil, err
	}
	return out, nil
}

func flattenInto(out map[string]cty.Value, prefix string, raw map[string]any) error {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		name := k
		if prefix != "" {
			name = prefix + "." + k
		}
		if sub, ok := raw[k].(map[string]any); ok {
			if err := flattenInto(out, name, sub); err != nil {
				return err
			}
			continue
		}
		v, err := ValueOf(raw[k])
		if err != nil {
			return fmt.Errorf("setting %q: %w", name, err)
		}
		out[name] = v
	}
	return nil
}

// ValueOf converts a decoded JSON, TOML or YAML scalar (or list of scalars)
// into a cty value. NaN has no cty representation and is rejected.
func ValueOf(raw any) (cty.Value, error) {
	switch v := raw.(type) {
	case nil:
		return cty.NullVal(cty.DynamicPseudoType), nil
	case bool:
		return cty.BoolVal(v), nil
	case string:
		return cty.StringVal(v), nil
	case int:
		return cty.NumberIntVal(int64(v)), nil
	case int64:
		return cty.NumberIntVal(v), nil
	case uint64:
		return cty.NumberVal(new(big.Float).SetUint64(v)), nil
	case float64:
		if math.IsNaN(v) {
			return cty.NilVal, errors.New("NaN is not a number value")
		}
		return cty.NumberFloatVal(v), nil
	case []any:
		if len(v) == 0 {
			return cty.EmptyTupleVal, nil
		}
		elems := make([]cty.Value, len(v))
		for i, e := range v {
			ev, err := ValueOf(e)
			if err != nil {
				return cty.NilVal, err
			}
			elems[i] = ev
		}
		return cty.TupleVal(elems), nil
	default:
		return cty.NilVal, fmt.Errorf("unsupported value of type %T", raw)
	}
}

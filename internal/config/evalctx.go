package config

import (
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// EvalContext exposes the store's properties as HCL variables, nesting
// dotted names into objects so that `rendering.ssao` resolves in condition
// expressions. When a name is both a value and a prefix of other names the
// longer names win.
func (s *Store) EvalContext() *hcl.EvalContext {
	root := make(map[string]any)
	for _, name := range s.names {
		insertPath(root, strings.Split(name, "."), s.values[name])
	}

	vars := make(map[string]cty.Value, len(root))
	for k, v := range root {
		vars[k] = toObject(v)
	}
	return &hcl.EvalContext{Variables: vars}
}

func insertPath(tree map[string]any, path []string, v cty.Value) {
	head := path[0]
	if len(path) == 1 {
		if _, isTree := tree[head].(map[string]any); !isTree {
			tree[head] = v
		}
		return
	}
	sub, ok := tree[head].(map[string]any)
	if !ok {
		sub = make(map[string]any)
		tree[head] = sub
	}
	insertPath(sub, path[1:], v)
}

func toObject(node any) cty.Value {
	switch n := node.(type) {
	case cty.Value:
		return n
	case map[string]any:
		attrs := make(map[string]cty.Value, len(n))
		for k, v := range n {
			attrs[k] = toObject(v)
		}
		return cty.ObjectVal(attrs)
	default:
		return cty.NilVal
	}
}

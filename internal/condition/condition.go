// Package condition provides the predicates that gate render nodes. A node
// whose conditions do not all hold is left out of the task list.
package condition

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/rendergraph/internal/config"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// Condition is a boolean predicate evaluated during task list rebuilds.
type Condition interface {
	Holds() (bool, error)
	String() string
}

// Properties is implemented by conditions that read from the property
// store. A node subscribes to these properties so that a change triggers a
// rebuild.
type Properties interface {
	Properties() []string
}

type funcCondition struct {
	name string
	fn   func() bool
}

// Func wraps a plain Go predicate.
func Func(name string, fn func() bool) Condition {
	return &funcCondition{name: name, fn: fn}
}

func (c *funcCondition) Holds() (bool, error) { return c.fn(), nil }
func (c *funcCondition) String() string       { return c.name }

type propertyCondition struct {
	store *config.Store
	name  string
}

// Property holds while the named boolean property is true. A missing
// property is an error rather than false.
func Property(store *config.Store, name string) Condition {
	return &propertyCondition{store: store, name: name}
}

func (c *propertyCondition) Holds() (bool, error) {
	v, ok := c.store.Get(c.name)
	if !ok {
		return false, fmt.Errorf("condition references unknown property %q", c.name)
	}
	return asBool(v, c.name)
}

func (c *propertyCondition) String() string       { return c.name }
func (c *propertyCondition) Properties() []string { return []string{c.name} }

type expressionCondition struct {
	store *config.Store
	expr  hcl.Expression
	src   string
	props []string
}

// Expression parses an HCL expression such as `rendering.blur.intensity != 0`
// that is evaluated against the store's properties.
func Expression(store *config.Store, src string) (Condition, error) {
	expr, diags := hclsyntax.ParseExpression([]byte(src), "condition", hcl.InitialPos)
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid condition %q: %w", src, diags)
	}
	return FromHCL(store, expr, src), nil
}

// FromHCL wraps an already parsed expression.
func FromHCL(store *config.Store, expr hcl.Expression, src string) Condition {
	var props []string
	seen := make(map[string]bool)
	for _, traversal := range expr.Variables() {
		name := traversalName(traversal)
		if name != "" && !seen[name] {
			seen[name] = true
			props = append(props, name)
		}
	}
	return &expressionCondition{store: store, expr: expr, src: src, props: props}
}

func (c *expressionCondition) Holds() (bool, error) {
	v, diags := c.expr.Value(c.store.EvalContext())
	if diags.HasErrors() {
		return false, fmt.Errorf("failed to evaluate condition %q: %w", c.src, diags)
	}
	return asBool(v, c.src)
}

func (c *expressionCondition) String() string       { return c.src }
func (c *expressionCondition) Properties() []string { return c.props }

type allCondition struct {
	conds []Condition
}

// All holds when every wrapped condition holds. An empty All always holds.
func All(conds ...Condition) Condition {
	return &allCondition{conds: conds}
}

func (c *allCondition) Holds() (bool, error) {
	var errs []error
	for _, cond := range c.conds {
		ok, err := cond.Holds()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !ok {
			return false, nil
		}
	}
	if len(errs) > 0 {
		return false, errors.Join(errs...)
	}
	return true, nil
}

func (c *allCondition) String() string {
	parts := make([]string, len(c.conds))
	for i, cond := range c.conds {
		parts[i] = cond.String()
	}
	return "all(" + strings.Join(parts, ", ") + ")"
}

func (c *allCondition) Properties() []string {
	var out []string
	for _, cond := range c.conds {
		if p, ok := cond.(Properties); ok {
			out = append(out, p.Properties()...)
		}
	}
	return out
}

func asBool(v cty.Value, what string) (bool, error) {
	if v.IsNull() || !v.IsKnown() {
		return false, fmt.Errorf("condition %q evaluated to an unknown or null value", what)
	}
	b, err := convert.Convert(v, cty.Bool)
	if err != nil {
		return false, fmt.Errorf("condition %q is not a boolean: %w", what, err)
	}
	return b.True(), nil
}

// traversalName turns `rendering.blur.intensity` back into the dotted
// property name. Index steps end the name.
func traversalName(t hcl.Traversal) string {
	if len(t) == 0 {
		return ""
	}
	parts := []string{t.RootName()}
	for _, step := range t[1:] {
		attr, ok := step.(hcl.TraverseAttr)
		if !ok {
			break
		}
		parts = append(parts, attr.Name)
	}
	return strings.Join(parts, ".")
}

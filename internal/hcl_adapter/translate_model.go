// This file translates the HCL schema structs into the format-agnostic graph
// definition of the config package.

package hcl_adapter

import (
	"context"
	"fmt"

	"github.com/vk/rendergraph/internal/config"
	"github.com/vk/rendergraph/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

func translateNode(ctx context.Context, n *NodeBlock, src []byte) (*config.NodeDefinition, error) {
	logger := ctxlog.FromContext(ctx).With("node", n.ID, "type", n.Type)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("Translating HCL node to graph definition.")

	def := &config.NodeDefinition{
		ID:        n.ID,
		Type:      n.Type,
		DeclRange: n.DeclRange,
	}
	if isExprDefined(ctx, n.Condition, "condition") {
		def.Condition = n.Condition
		def.ConditionSource = string(n.Condition.Range().SliceBytes(src))
	}

	if n.Params != nil {
		params, err := attributeValues(n.Params.Body)
		if err != nil {
			return nil, fmt.Errorf("%s: params of node %s: %w", n.DeclRange, n.ID, err)
		}
		def.Params = params
	}
	return def, nil
}

func translateConnection(c *ConnectBlock) *config.ConnectionDefinition {
	return &config.ConnectionDefinition{
		From:      c.From,
		FromSlot:  slotOrDefault(c.FromSlot),
		To:        c.To,
		ToSlot:    slotOrDefault(c.ToSlot),
		DeclRange: c.DeclRange,
	}
}

func slotOrDefault(slot *int) int {
	if slot == nil {
		return 1
	}
	return *slot
}

func translateProperty(ctx context.Context, p *PropertyBlock) (*config.PropertyDefinition, error) {
	var ty cty.Type
	if isExprDefined(ctx, p.Type, "type") {
		parsed, err := typeExprToCtyType(ctx, p.Type)
		if err != nil {
			return nil, fmt.Errorf("%s: property %q: %w", p.DeclRange, p.Name, err)
		}
		ty = parsed
	}

	val, diags := p.Default.Value(nil)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%s: invalid default for property %q: %w", p.DeclRange, p.Name, diags)
	}
	if ty == cty.NilType {
		ty = val.Type()
	} else if ty != cty.DynamicPseudoType {
		converted, err := convert.Convert(val, ty)
		if err != nil {
			return nil, fmt.Errorf("%s: default for property %q does not match type %s: %w", p.DeclRange, p.Name, ty.FriendlyName(), err)
		}
		val = converted
	}

	return &config.PropertyDefinition{
		Name:        p.Name,
		Type:        ty,
		Default:     val,
		Description: p.Description,
		DeclRange:   p.DeclRange,
	}, nil
}

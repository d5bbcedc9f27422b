package config

import (
	"context"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// GraphDefinition is the format-agnostic description of a render graph.
type GraphDefinition struct {
	Properties  []*PropertyDefinition
	Nodes       []*NodeDefinition
	Connections []*ConnectionDefinition
}

// PropertyDefinition declares a configuration property and its default.
type PropertyDefinition struct {
	Name        string
	Type        cty.Type
	Default     cty.Value
	Description string
	DeclRange   hcl.Range
}

// NodeDefinition declares one node of the graph.
type NodeDefinition struct {
	// ID is the node's address in "module:name" form.
	ID   string
	Type string
	// Condition gates the node on the property store. Nil means always on.
	Condition       hcl.Expression
	ConditionSource string
	Params          map[string]cty.Value
	DeclRange       hcl.Range
}

// ConnectionDefinition wires an output slot of one node to an input slot of
// another.
type ConnectionDefinition struct {
	From      string
	FromSlot  int
	To        string
	ToSlot    int
	DeclRange hcl.Range
}

// Loader reads graph definitions from files.
type Loader interface {
	Load(ctx context.Context, paths ...string) (*GraphDefinition, error)
}

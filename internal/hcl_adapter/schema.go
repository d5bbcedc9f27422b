// This file contains the gohcl schema structs for graph definition files.

package hcl_adapter

import "github.com/hashicorp/hcl/v2"

// NodeBlock is a `node "module:name" { ... }` block.
type NodeBlock struct {
	ID        string         `hcl:"id,label"`
	Type      string         `hcl:"type"`
	Condition hcl.Expression `hcl:"condition,optional"`
	Params    *ParamsBlock   `hcl:"params,block"`
	DeclRange hcl.Range      `hcl:",def_range"`
}

// ParamsBlock holds arbitrary pass parameters as attributes.
type ParamsBlock struct {
	Body hcl.Body `hcl:",remain"`
}

// ConnectBlock wires an output slot into an input slot. Slots default to 1.
type ConnectBlock struct {
	From      string    `hcl:"from"`
	FromSlot  *int      `hcl:"from_slot,optional"`
	To        string    `hcl:"to"`
	ToSlot    *int      `hcl:"to_slot,optional"`
	DeclRange hcl.Range `hcl:",def_range"`
}

// PropertyBlock declares a configuration property, e.g.
//
//	property "rendering.ssao" {
//	  type    = bool
//	  default = true
//	}
type PropertyBlock struct {
	Name        string         `hcl:"name,label"`
	Type        hcl.Expression `hcl:"type,optional"`
	Default     hcl.Expression `hcl:"default"`
	Description string         `hcl:"description,optional"`
	DeclRange   hcl.Range      `hcl:",def_range"`
}

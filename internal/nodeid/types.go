// internal/nodeid/types.go
package nodeid

// Address is the structured representation of a unique node identifier.
type Address struct {
	// Module is the providing module, e.g. "engine".
	Module string
	// Name is the module-local name, e.g. "fbo.ssaoBlurred".
	Name string
}

// New builds an Address from already validated parts.
func New(module, name string) Address {
	return Address{Module: module, Name: name}
}

// IsZero reports whether the address is unset.
func (a Address) IsZero() bool {
	return a.Module == "" && a.Name == ""
}

// internal/nodeid/address.go
package nodeid

// String serializes the Address into its canonical `module:name` form.
func (a Address) String() string {
	if a.IsZero() {
		return ""
	}
	return a.Module + ":" + a.Name
}

// Equal reports whether two addresses identify the same node.
func (a Address) Equal(other Address) bool {
	return a == other
}

// MustParse is like Parse but panics on malformed input. It is meant for
// identifiers that are compile-time constants in pass implementations.
func MustParse(rawID string) Address {
	addr, err := Parse(rawID)
	if err != nil {
		panic(err)
	}
	return addr
}

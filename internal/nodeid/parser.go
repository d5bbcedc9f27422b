// internal/nodeid/parser.go
package nodeid

import (
	"fmt"
	"regexp"
	"strings"
)

// moduleRegex matches the providing-module part of an identifier.
var moduleRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// segmentRegex matches a single dot-separated segment of the name part.
var segmentRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// isValidSegmentName checks for undesirable but technically valid names.
func isValidSegmentName(name string) bool {
	return name != "-" && name != "_"
}

// Parse creates a new Address by parsing its canonical string representation.
func Parse(rawID string) (Address, error) {
	if rawID == "" {
		return Address{}, fmt.Errorf("identifier cannot be empty")
	}

	module, name, ok := strings.Cut(rawID, ":")
	if !ok {
		return Address{}, fmt.Errorf("identifier %q is missing the module separator ':'", rawID)
	}
	if !moduleRegex.MatchString(module) {
		return Address{}, fmt.Errorf("invalid module name: %q", module)
	}
	if name == "" {
		return Address{}, fmt.Errorf("identifier %q has an empty name", rawID)
	}

	for _, segment := range strings.Split(name, ".") {
		if segment == "" {
			return Address{}, fmt.Errorf("identifier name contains empty segment")
		}
		if !segmentRegex.MatchString(segment) {
			return Address{}, fmt.Errorf("invalid name segment format: %q", segment)
		}
		if !isValidSegmentName(segment) {
			return Address{}, fmt.Errorf("invalid segment name: %q", segment)
		}
	}

	return Address{Module: module, Name: name}, nil
}

package instance

import (
	"strings"

	"github.com/pojntfx/pojde-rs/internal/errors"
)

// Naming maps user-facing instance names to runtime container names by
// prepending a fixed prefix.
type Naming struct {
	prefix string
}

// NewNaming returns a Naming for prefix.
func NewNaming(prefix string) Naming {
	return Naming{prefix: prefix}
}

// Prefix returns the runtime name prefix.
func (n Naming) Prefix() string {
	return n.prefix
}

// ToRuntimeName returns the runtime name of an instance.
func (n Naming) ToRuntimeName(name string) string {
	return n.prefix + name
}

// FromRuntimeName returns the instance name of a runtime name. One leading
// "/" is ignored, as runtimes report names with it. Names without the
// prefix, or consisting of the prefix alone, are not instances.
func (n Naming) FromRuntimeName(runtimeName string) (string, error) {
	trimmed := strings.TrimPrefix(runtimeName, "/")
	name, ok := strings.CutPrefix(trimmed, n.prefix)
	if !ok || name == "" {
		return "", errors.NotAnInstance(runtimeName)
	}
	return name, nil
}

// ListFilter is the runtime name filter selecting instance containers.
func (n Naming) ListFilter() string {
	return "/" + n.prefix
}

package state

import (
	"fmt"
	"strings"
)

// Path addresses a single attribute as "subsystem.entity.attribute".
// A segment starting with '$' is a symbolic binding that must be resolved
// against an invocation context before the path can be looked up.
type Path string

// ErrPathShape indicates a path does not have the subsystem.entity.attribute shape.
var ErrPathShape = fmt.Errorf("path must have the form subsystem.entity.attribute")

// Segments returns the dot-separated segments of the path.
func (p Path) Segments() []string {
	return strings.Split(string(p), ".")
}

// Validate checks that the path has exactly three non-empty segments.
func (p Path) Validate() error {
	segs := p.Segments()
	if len(segs) != 3 {
		return fmt.Errorf("%w: %q has %d segments", ErrPathShape, p, len(segs))
	}
	for _, s := range segs {
		if s == "" {
			return fmt.Errorf("%w: %q has an empty segment", ErrPathShape, p)
		}
	}
	return nil
}

// Subsystem returns the first path segment.
func (p Path) Subsystem() string { return p.segment(0) }

// Entity returns the second path segment.
func (p Path) Entity() string { return p.segment(1) }

// Attribute returns the third path segment.
func (p Path) Attribute() string { return p.segment(2) }

func (p Path) segment(i int) string {
	segs := p.Segments()
	if i >= len(segs) {
		return ""
	}
	return segs[i]
}

// IsTemplate reports whether any segment is a symbolic binding.
func (p Path) IsTemplate() bool {
	for _, s := range p.Segments() {
		if strings.HasPrefix(s, "$") {
			return true
		}
	}
	return false
}

// Resolve substitutes symbolic segments from the given bindings.
// An unresolved binding is an error: admission cannot reason about a
// footprint it cannot name.
func (p Path) Resolve(bindings map[string]string) (Path, error) {
	if !p.IsTemplate() {
		return p, nil
	}

	segs := p.Segments()
	for i, s := range segs {
		if !strings.HasPrefix(s, "$") {
			continue
		}
		name := strings.TrimPrefix(s, "$")
		value, ok := bindings[name]
		if !ok {
			return "", fmt.Errorf("unbound symbol %q in path %q", name, p)
		}
		segs[i] = value
	}

	return Path(strings.Join(segs, ".")), nil
}

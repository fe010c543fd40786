package ast

import "questforge/apcore/pkg/state"

// InvariantType discriminates the declarative invariant variants.
type InvariantType string

const (
	// InvariantBounds constrains a numeric attribute to [Min, Max].
	InvariantBounds InvariantType = "bounds"

	// InvariantRequiredKeys requires every entity of a subsystem to carry
	// the listed attributes.
	InvariantRequiredKeys InvariantType = "required_keys"

	// InvariantReference requires a string attribute to name an existing
	// entity of the referenced subsystem ("" means no reference).
	InvariantReference InvariantType = "reference"
)

// Invariant is one declarative snapshot invariant. Invariants are checked
// after every tick's effects; a violation rolls the whole batch back.
type Invariant struct {
	Type InvariantType

	// Path selects the constrained attribute for Bounds and Reference.
	// The entity segment may be the wildcard "*" to constrain every
	// entity of the subsystem.
	Path state.Path

	// Min and Max bound a Bounds invariant.
	Min float64
	Max float64

	// Subsystem and Keys drive a RequiredKeys invariant.
	Subsystem string
	Keys      []string

	// RefSubsystem names the subsystem a Reference invariant points into.
	RefSubsystem string

	Location Location
}

package ast

import "fmt"

// Location records where a node came from in its authoring source.
type Location struct {
	File string
	Line int
}

// String formats the location as "file:line".
func (l Location) String() string {
	if l.File == "" {
		return fmt.Sprintf("line %d", l.Line)
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

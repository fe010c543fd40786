package errors

import (
	"fmt"
	"strings"

	"questforge/apcore/pkg/rules/ast"
)

// ErrorType categorizes the kind of problem found in a rule file.
type ErrorType string

const (
	ErrorTypeSyntax     ErrorType = "syntax"     // YAML syntax error
	ErrorTypeStructural ErrorType = "structural" // missing/invalid fields
	ErrorTypeSemantic   ErrorType = "semantic"   // bad path, unknown operator
	ErrorTypeIO         ErrorType = "io"         // file I/O error
)

// Error is one problem in a rule file, with its source location.
type Error struct {
	Type     ErrorType
	Message  string
	Location ast.Location
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Location.Line > 0 || e.Location.File != "" {
		return fmt.Sprintf("[%s] %s (%s)", e.Type, e.Message, e.Location)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// ErrorList accumulates errors across a whole rule file.
type ErrorList struct {
	Errors []*Error
}

// NewErrorList creates an empty error list.
func NewErrorList() *ErrorList {
	return &ErrorList{Errors: make([]*Error, 0)}
}

// Add appends an error to the list.
func (el *ErrorList) Add(err *Error) {
	el.Errors = append(el.Errors, err)
}

// AddError creates and appends an error from its parts.
func (el *ErrorList) AddError(errType ErrorType, message string, location ast.Location) {
	el.Add(&Error{Type: errType, Message: message, Location: location})
}

// HasErrors reports whether any errors were collected.
func (el *ErrorList) HasErrors() bool { return len(el.Errors) > 0 }

// Count returns the number of collected errors.
func (el *ErrorList) Count() int { return len(el.Errors) }

// Error implements the error interface over the whole list.
func (el *ErrorList) Error() string {
	if !el.HasErrors() {
		return ""
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "found %d error(s):\n", el.Count())
	for _, err := range el.Errors {
		sb.WriteString("  ")
		sb.WriteString(err.Error())
		sb.WriteString("\n")
	}
	return sb.String()
}

// ToError returns nil when the list is empty, otherwise the list itself.
func (el *ErrorList) ToError() error {
	if !el.HasErrors() {
		return nil
	}
	return el
}

package diag

import "fmt"

// DuplicateNameError reports a name that is already taken in a scope: child
// instance names, statement labels, ports, variables, parameters and FSMs.
type DuplicateNameError struct {
	Kind  string
	Name  string
	Scope string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("%s %q already exists in %s", e.Kind, e.Name, e.Scope)
}

// NotFoundError reports a missing child, label, port or variable.
type NotFoundError struct {
	Kind  string
	Name  string
	Scope string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q does not exist in %s", e.Kind, e.Name, e.Scope)
}

// DirectionError reports an assignment between two signals whose directions
// cannot be reconciled.
type DirectionError struct {
	To   string
	From string
}

func (e *DirectionError) Error() string {
	return fmt.Sprintf("%s cannot be wired to %s; check the module hierarchy and port directions", e.From, e.To)
}

// UnknownSignalError reports a signal name that is not a port or variable of
// the generator it was used with.
type UnknownSignalError struct {
	Name  string
	Scope string
}

func (e *UnknownSignalError) Error() string {
	return fmt.Sprintf("signal %q is not a port or variable of %s", e.Name, e.Scope)
}

// PreconditionError reports a violated precondition, such as an unhashable
// cache key or an ambiguous clock.
type PreconditionError struct {
	Msg string
}

func (e *PreconditionError) Error() string {
	return e.Msg
}

// Preconditionf builds a PreconditionError.
func Preconditionf(format string, args ...any) error {
	return &PreconditionError{Msg: fmt.Sprintf(format, args...)}
}

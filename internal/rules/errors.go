package rules

import (
	"errors"
	"fmt"
)

var (
	ErrMissingRules = errors.New("rules parameter is missing")
	ErrMissingState = errors.New("cannot execute query on missing state")
)

// DeclarationError reports a rule that cannot be compiled. Index is the
// rule's position within the batch being registered.
type DeclarationError struct {
	Index  int
	Name   string
	Reason string
}

func (e *DeclarationError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("rule %d (%s): %s", e.Index, e.Name, e.Reason)
	}
	return fmt.Sprintf("rule %d: %s", e.Index, e.Reason)
}

// IsDeclarationError reports whether err wraps a DeclarationError.
func IsDeclarationError(err error) bool {
	var de *DeclarationError
	return errors.As(err, &de)
}

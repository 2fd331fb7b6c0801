package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when an operation addresses an identity absent from the tree.
var ErrNotFound = errors.New("identity not found")

// ErrIndexOutOfBounds is returned when a reorder index is outside the list.
var ErrIndexOutOfBounds = errors.New("index out of bounds")

// ErrInvalidText is returned when raw script text fails to parse or validate.
var ErrInvalidText = errors.New("invalid script text")

// ErrStructuralViolation is returned when children are added under a verb that disallows them.
var ErrStructuralViolation = errors.New("structural violation")

// ErrScriptNotFound is returned when a script ID cannot be found in the store.
var ErrScriptNotFound = errors.New("site script not found")

// ErrDesignNotFound is returned when a site design ID cannot be found in the store.
var ErrDesignNotFound = errors.New("site design not found")

// ErrInvalidDesign is returned when a site design is incomplete or references scripts
// that do not exist.
var ErrInvalidDesign = errors.New("invalid site design")

// ErrSessionNotFound is returned when no editing session is open for a script ID.
var ErrSessionNotFound = errors.New("session not found")

// CorruptionError reports broken identity bookkeeping: the same identity resolved to two
// nodes. It is raised with panic, never returned.
type CorruptionError struct {
	Identity string
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("corrupted document: identity %q is not unique", e.Identity)
}

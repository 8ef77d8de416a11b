package economy

import (
	"errors"
	"fmt"
)

// User-facing rejection reasons. All of these leave state untouched; the
// caller is told why and the session continues.
var (
	ErrUnknownType           = errors.New("unknown type")
	ErrPrerequisiteNotMet    = errors.New("prerequisite not met")
	ErrInsufficientResources = errors.New("insufficient resources")
	ErrAlreadyOwned          = errors.New("complex already owned")
	ErrNotCancelable         = errors.New("booster cannot be canceled")
	ErrBoosterLimit          = errors.New("active booster limit reached")
	ErrMaxLevel              = errors.New("complex is at maximum level")
	ErrBonusAlreadyClaimed   = errors.New("daily bonus already claimed")
)

// UnknownTypeError wraps ErrUnknownType with the offending identifier and,
// when one exists, the closest known identifier.
type UnknownTypeError struct {
	Kind       string // "complex" or "booster"
	Type       string
	Suggestion string
}

func (e *UnknownTypeError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("unknown %s type %q (did you mean %q?)", e.Kind, e.Type, e.Suggestion)
	}
	return fmt.Sprintf("unknown %s type %q", e.Kind, e.Type)
}

func (e *UnknownTypeError) Unwrap() error { return ErrUnknownType }

// PrerequisiteError wraps ErrPrerequisiteNotMet with the missing requirement.
type PrerequisiteError struct {
	Required string
	Level    int
}

func (e *PrerequisiteError) Error() string {
	return fmt.Sprintf("requires %s at level %d", e.Required, e.Level)
}

func (e *PrerequisiteError) Unwrap() error { return ErrPrerequisiteNotMet }

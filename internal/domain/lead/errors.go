package lead

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrLeadNotFound    = errors.New("lead not found")
	ErrForbidden       = errors.New("permission denied")
	ErrOwnerNotAllowed = errors.New("you may only assign leads to yourself or the pool")
	ErrInvalidOwner    = errors.New("owner must be an active staff user")
	ErrPhoneExists     = errors.New("phone already exists")
	ErrNotAvailable    = errors.New("lead is no longer in the pool")
	ErrEmptySelection  = errors.New("no leads selected")
)

// ValidationError carries per-field messages.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = message
}

func (e *ValidationError) Empty() bool { return len(e.Fields) == 0 }

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

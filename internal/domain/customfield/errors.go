package customfield

import "errors"

var (
	ErrFieldNotFound = errors.New("field definition not found")
	ErrFieldExists   = errors.New("field name already exists")
	ErrForbidden     = errors.New("admin access required")
)

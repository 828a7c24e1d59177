package user

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserInactive       = errors.New("user is inactive")
	ErrUsernameExists     = errors.New("username already exists")
	ErrCannotDeleteSelf   = errors.New("cannot delete the current user")
	ErrForbidden          = errors.New("admin access required")
)

package reminder

import "errors"

var (
	ErrUnexpectedStatus = errors.New("webhook returned unexpected status")
	ErrNoRecipient      = errors.New("reminder has no recipient")
)

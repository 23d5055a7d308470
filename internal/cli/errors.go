package cli

import (
	"errors"
)

var (
	ErrNotSignedIn   = errors.New("not signed in; run \"waiter login\" first")
	ErrPickerClosed  = errors.New("picker closed without a selection")
	ErrInvalidLogin  = errors.New("email and password are required")
	ErrUnknownOutput = errors.New("output format must be yaml or json")
)

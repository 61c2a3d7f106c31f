package userlocale

import "errors"

// ErrEmptyIdentifier is returned by UserID when no identifier is set.
var ErrEmptyIdentifier = errors.New("userlocale: user identifier is empty")

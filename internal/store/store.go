package store

import "errors"

// ErrNotFound is returned when a row a caller asked for does not exist.
// Handlers map it to 404 (or 401 when the missing row is an account that
// was expected to exist).
var ErrNotFound = errors.New("not found")

package service

import "errors"

// ErrNotFound is returned when a looked-up record does not exist. Handlers
// translate it to 404.
var ErrNotFound = errors.New("record not found")

// ErrConflict is returned when a write would break a business rule that is
// not a plain field-validation failure (overlapping rental, restricted
// delete). Handlers translate it to 409.
var ErrConflict = errors.New("conflict")

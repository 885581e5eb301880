package common

import "errors"

// Shared persistence sentinels. Repositories translate driver errors into
// these so handlers never inspect SQLSTATEs.
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

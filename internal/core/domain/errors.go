package domain

import "errors"

// ErrDuplicateKey is returned by repositories when an insert loses a race on
// a unique constraint (transaction hash, webhook event id). Services map it
// to a conflict response.
var ErrDuplicateKey = errors.New("duplicate key")

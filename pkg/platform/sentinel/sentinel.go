package sentinel

import "errors"

// Sentinel errors for persistence facts. Stores return these (optionally wrapped)
// and services translate them into domain errors:
//   - ErrNotFound: record does not exist
//   - ErrAlreadyUsed: a unique identity (email, phone) is already taken
//   - ErrConflict: the record changed since it was read (version mismatch)
//   - ErrUnavailable: backing service temporarily unavailable
var (
	ErrNotFound    = errors.New("not found")
	ErrAlreadyUsed = errors.New("already used")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)

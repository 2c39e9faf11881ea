package postgres

import "errors"

// Sentinel errors, adapted from the teacher's
// internal/database/postgres/errors.go down to what a Store actually
// surfaces to callers; the full DatabaseError/QueryError/TimeoutError
// hierarchy there answered to an alert pipeline's retry middleware this
// repository doesn't carry (see DESIGN.md).
var (
	ErrNotConnected     = errors.New("archive/postgres: pool is not connected")
	ErrConnectionFailed = errors.New("archive/postgres: failed to connect")
	ErrConnectionClosed = errors.New("archive/postgres: pool is closed")
)

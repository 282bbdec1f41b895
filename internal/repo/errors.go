package repo

import (
	"errors"

	"github.com/lib/pq"
)

// Sentinel errors let handlers map store outcomes to status codes without
// inspecting driver errors themselves.
var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation (code 23505).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

package repository

import (
	"errors"

	"github.com/lib/pq"
)

// ErrNoRowsAffected signals that a conditional write matched nothing. The
// service layer translates it into a state or conflict error.
var ErrNoRowsAffected = errors.New("no rows affected")

const uniqueViolationCode = "23505"

// IsUniqueViolation reports whether the error is a Postgres unique
// constraint violation, the storage-level loser of a concurrent race.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == uniqueViolationCode
	}
	return false
}

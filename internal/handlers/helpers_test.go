package handlers

import (
	"database/sql"

	"github.com/lib/pq"
)

func duplicateEmailErr() error {
	return &pq.Error{Code: "23505", Constraint: "users_email_key"}
}

func errNoRows() error {
	return sql.ErrNoRows
}

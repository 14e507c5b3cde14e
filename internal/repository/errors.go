package repository

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueColumns maps index/constraint fragments to the form field they guard.
var uniqueColumns = []struct {
	fragment string
	field    string
}{
	{"internal_code", "internal_code"},
	{"vin", "vin"},
	{"license_plate", "license_plate"},
	{"email", "email"},
}

// UniqueViolationField inspects a write error and, when it is a
// unique-constraint violation, returns the field the violated index covers.
// Postgres errors are decoded via pgconn; the sqlite driver used in tests is
// matched on its message.
func UniqueViolationField(err error) (string, bool) {
	if err == nil {
		return "", false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code != "23505" {
			return "", false
		}
		return matchUniqueField(pgErr.ConstraintName + " " + pgErr.Detail)
	}

	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value") {
		return matchUniqueField(msg)
	}

	return "", false
}

func matchUniqueField(detail string) (string, bool) {
	for _, c := range uniqueColumns {
		if strings.Contains(detail, c.fragment) {
			return c.field, true
		}
	}
	return "", false
}

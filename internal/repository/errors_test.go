package repository

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestUniqueViolationField(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		field    string
		expected bool
	}{
		{
			name:     "sqlite duplicate plate",
			err:      errors.New("UNIQUE constraint failed: vehicles.license_plate"),
			field:    "license_plate",
			expected: true,
		},
		{
			name:     "postgres duplicate email",
			err:      &pgconn.PgError{Code: "23505", ConstraintName: "idx_users_email"},
			field:    "email",
			expected: true,
		},
		{
			name:     "postgres non-unique violation",
			err:      &pgconn.PgError{Code: "23503", ConstraintName: "fk_rentals_vehicle"},
			expected: false,
		},
		{
			name:     "unique violation on unmapped column",
			err:      errors.New("UNIQUE constraint failed: widgets.serial_number"),
			expected: false,
		},
		{
			name:     "unrelated error",
			err:      errors.New("connection reset"),
			expected: false,
		},
		{
			name:     "nil error",
			expected: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			field, ok := UniqueViolationField(tc.err)
			assert.Equal(t, tc.expected, ok)
			assert.Equal(t, tc.field, field)
		})
	}
}

func TestParseDateColumn(t *testing.T) {
	got := parseDateColumn("2024-07-01")
	if assert.NotNil(t, got) {
		assert.Equal(t, "2024-07-01", got.Format("2006-01-02"))
	}

	got = parseDateColumn("2024-07-01 00:00:00+00:00")
	if assert.NotNil(t, got) {
		assert.Equal(t, "2024-07-01", got.Format("2006-01-02"))
	}

	assert.Nil(t, parseDateColumn(""))
	assert.Nil(t, parseDateColumn("not-a-date-at-all"))
}

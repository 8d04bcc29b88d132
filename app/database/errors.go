package database

import (
	"errors"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrDuplicateKey is returned when a write violates a uniqueness constraint.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrNotFound is returned when an update-by-identity matches no row.
	ErrNotFound = errors.New("not found")
)

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}

	switch sqliteErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		// Primary result code only when extended codes are disabled on the connection.
		return strings.Contains(sqliteErr.Error(), "UNIQUE constraint failed")
	}
	return false
}

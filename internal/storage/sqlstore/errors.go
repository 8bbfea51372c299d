package sqlstore

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mmynk/splitledger/internal/storage"
)

// isUniqueViolation reports whether err was caused by a UNIQUE or PRIMARY KEY
// constraint. When column is non-empty the violation must mention it.
func isUniqueViolation(err error, column string) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		case sqlite3.SQLITE_CONSTRAINT:
			// Extended codes disabled: fall back to the message.
			if !strings.Contains(sqliteErr.Error(), "UNIQUE constraint failed") {
				return false
			}
		default:
			return false
		}
		return column == "" || strings.Contains(sqliteErr.Error(), column)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code != "23505" {
			return false
		}
		return column == "" ||
			strings.Contains(pqErr.Constraint, strings.ReplaceAll(column, ".", "_")) ||
			strings.Contains(pqErr.Detail, "("+columnName(column)+")")
	}

	return false
}

// isForeignKeyViolation reports whether err was caused by a FOREIGN KEY constraint.
func isForeignKeyViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY ||
			strings.Contains(sqliteErr.Error(), "FOREIGN KEY constraint failed")
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23503"
	}
	return false
}

// isUnavailable reports whether err means the database could not be reached
// or is too contended to serve the request right now.
func isUnavailable(err error) bool {
	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return true
		}
		return false
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		class := string(pqErr.Code.Class())
		return class == "08" || class == "57"
	}

	return false
}

// wrap annotates err with the failed operation and tags connectivity
// failures with storage.ErrUnavailable.
func wrap(op string, err error) error {
	if isUnavailable(err) {
		return fmt.Errorf("failed to %s: %w: %w", op, storage.ErrUnavailable, err)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

func columnName(qualified string) string {
	if i := strings.LastIndexByte(qualified, '.'); i >= 0 {
		return qualified[i+1:]
	}
	return qualified
}

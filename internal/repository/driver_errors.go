package repository

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// uniqueViolation reports whether err is a unique/primary key violation
// raised by one of the supported drivers. The returned description is
// the lower-cased name of the violated key only: the MySQL key name, the
// Postgres constraint, or the sqlite column list. Duplicated values are
// never part of it.
func uniqueViolation(err error) (string, bool) {
	if err == nil {
		return "", false
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == 1062 {
		return strings.ToLower(afterLast(me.Message, "for key '", "'")), true
	}
	var pe *pq.Error
	if errors.As(err, &pe) && pe.Code == "23505" {
		return strings.ToLower(pe.Constraint), true
	}
	var se sqlite3.Error
	if errors.As(err, &se) &&
		(se.ExtendedCode == sqlite3.ErrConstraintUnique || se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey) {
		return strings.ToLower(afterLast(se.Error(), "failed: ", "")), true
	}
	return "", false
}

// afterLast returns the part of msg following the last marker, without
// the trailing suffix. msg is returned unchanged when marker is absent.
func afterLast(msg, marker, suffix string) string {
	i := strings.LastIndex(msg, marker)
	if i < 0 {
		return msg
	}
	return strings.TrimSuffix(msg[i+len(marker):], suffix)
}

// keyIs reports whether a key description names column. MySQL reports
// primary key violations as key 'PRIMARY' (or 'table.PRIMARY'), so
// primary=true also matches that form.
func keyIs(desc, column string, primary bool) bool {
	if strings.Contains(desc, column) {
		return true
	}
	return primary && (desc == "primary" || strings.HasSuffix(desc, ".primary"))
}

// classify maps driver errors onto the package sentinels. Errors that
// do not belong to a known class are returned unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) || errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}

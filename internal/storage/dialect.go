package storage

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Driver names a supported relational store.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

func (d Driver) IsValid() bool {
	return d == DriverSQLite || d == DriverPostgres
}

func (d Driver) String() string { return string(d) }

// Dialect isolates the SQL differences between the supported stores.
// Both dialects use positional placeholders that may be referenced more than once.
type Dialect interface {
	Name() Driver
	// Placeholder returns the n-th (1-based) positional parameter.
	Placeholder(n int) string
	// DateOf truncates a timestamp column to its calendar date.
	DateOf(column string) string
	// DateParam casts a bound YYYY-MM-DD parameter to a date.
	DateParam(placeholder string) string
	// Lower folds the case of a text expression with Unicode rules.
	Lower(expr string) string
	// TagsJSON is a correlated subquery returning the tags of paymentID as a JSON array.
	TagsJSON(paymentID string) string
	BindTime(t time.Time) any
	IsUniqueViolation(err error) bool
}

func DialectFor(d Driver) (Dialect, error) {
	switch d {
	case DriverSQLite:
		return sqliteDialect{}, nil
	case DriverPostgres:
		return postgresDialect{}, nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", d)
	}
}

// sqliteLowerFunc replaces the built-in lower(), which only folds ASCII.
const sqliteLowerFunc = "unicode_lower"

func init() {
	if err := sqlite.RegisterDeterministicScalarFunction(sqliteLowerFunc, 1, unicodeLower); err != nil {
		panic(fmt.Sprintf("register %s: %v", sqliteLowerFunc, err))
	}
}

func unicodeLower(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return nil, fmt.Errorf("%s: unsupported argument type %T", sqliteLowerFunc, v)
	}
}

type sqliteDialect struct{}

func (sqliteDialect) Name() Driver { return DriverSQLite }

func (sqliteDialect) Placeholder(n int) string { return "?" + strconv.Itoa(n) }

func (sqliteDialect) DateOf(column string) string { return "date(" + column + ")" }

func (sqliteDialect) DateParam(ph string) string { return "date(" + ph + ")" }

func (sqliteDialect) Lower(expr string) string { return sqliteLowerFunc + "(" + expr + ")" }

func (sqliteDialect) TagsJSON(paymentID string) string {
	return "(SELECT json_group_array(json_object('id', t.id, 'key', t.tag_key, 'value', t.tag_value)) " +
		"FROM tags t WHERE t.payment_id = " + paymentID + ")"
}

// BindTime stores timestamps as sortable UTC text that date() understands.
func (sqliteDialect) BindTime(t time.Time) any {
	return t.UTC().Format(sqliteTimeLayout)
}

func (sqliteDialect) IsUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

type postgresDialect struct{}

func (postgresDialect) Name() Driver { return DriverPostgres }

func (postgresDialect) Placeholder(n int) string { return "$" + strconv.Itoa(n) }

func (postgresDialect) DateOf(column string) string { return "DATE(" + column + ")" }

func (postgresDialect) DateParam(ph string) string { return ph + "::date" }

func (postgresDialect) Lower(expr string) string { return "LOWER(" + expr + ")" }

func (postgresDialect) TagsJSON(paymentID string) string {
	return "(SELECT COALESCE(json_agg(json_build_object('id', t.id, 'key', t.tag_key, 'value', t.tag_value) ORDER BY t.tag_key, t.id), '[]'::json) " +
		"FROM tags t WHERE t.payment_id = " + paymentID + ")"
}

func (postgresDialect) BindTime(t time.Time) any { return t.UTC() }

const pgUniqueViolation = "23505"

func (postgresDialect) IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

const sqliteTimeLayout = "2006-01-02 15:04:05"

// scanTime accepts the timestamp representations both drivers hand back.
type scanTime struct {
	time.Time
}

func (t *scanTime) Scan(v any) error {
	switch x := v.(type) {
	case time.Time:
		t.Time = x.UTC()
		return nil
	case string:
		return t.parse(x)
	case []byte:
		return t.parse(string(x))
	case nil:
		t.Time = time.Time{}
		return nil
	default:
		return fmt.Errorf("unsupported timestamp type %T", v)
	}
}

func (t *scanTime) parse(s string) error {
	for _, layout := range []string{sqliteTimeLayout, "2006-01-02 15:04:05.999999999-07:00", time.RFC3339Nano, "2006-01-02T15:04:05"} {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("unparseable timestamp %q", s)
}

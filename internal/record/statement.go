package record

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Op names the persistence operation a statement belongs to.
type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
	OpGet    Op = "get"
	OpAll    Op = "all"
)

// StatementError reports a statement the driver rejected.
// Error() surfaces the driver's own text.
type StatementError struct {
	Op    Op
	Table string
	Err   error
}

func (e *StatementError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Table, e.Err)
}

func (e *StatementError) Unwrap() error {
	return e.Err
}

// IsStatementError returns true if err is or wraps a *StatementError.
func IsStatementError(err error) bool {
	var se *StatementError
	return errors.As(err, &se)
}

// Exec prepares query on conn and executes it once with args.
// Use sql.Named for the :name parameters in query.
func Exec(ctx context.Context, conn *sqlx.Conn, op Op, table, query string, args ...any) (sql.Result, error) {
	stmt, err := conn.PrepareContext(ctx, query)
	if err != nil {
		return nil, statementErr(op, table, err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, args...)
	if err != nil {
		return nil, statementErr(op, table, err)
	}
	return result, nil
}

// InsertID executes an INSERT and returns the store-generated key.
func InsertID(ctx context.Context, conn *sqlx.Conn, table, query string, args ...any) (int64, error) {
	result, err := Exec(ctx, conn, OpInsert, table, query, args...)
	if err != nil {
		return 0, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, statementErr(OpInsert, table, fmt.Errorf("last insert id: %w", err))
	}
	return id, nil
}

// GetRow scans the single row matched by query into dest.
// A query that matches nothing returns found=false and no error.
func GetRow(ctx context.Context, conn *sqlx.Conn, table string, dest any, query string, args ...any) (bool, error) {
	err := conn.GetContext(ctx, dest, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, statementErr(OpGet, table, err)
	}
	return true, nil
}

// SelectRows scans every row matched by query into dest, a pointer to a slice.
func SelectRows(ctx context.Context, conn *sqlx.Conn, table string, dest any, query string, args ...any) error {
	if err := conn.SelectContext(ctx, dest, query, args...); err != nil {
		return statementErr(OpAll, table, err)
	}
	return nil
}

// statementErr classifies a driver error. Cancellation is the caller's
// doing, not a bad statement, so it is wrapped plainly.
func statementErr(op Op, table string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s %s: %w", op, table, err)
	}
	return &StatementError{Op: op, Table: table, Err: err}
}

// Package repository is the data-access layer.  TableReader serves the
// admin list views; StatsRepo backs the dashboard; UserRepo and TokenRepo
// hold the server's own auth state.
package repository

import (
	"errors"
	"fmt"
)

var (
	ErrTableNotFound = errors.New("table not found")
	ErrUnknownView   = errors.New("unknown view")
	ErrUnknownColumn = errors.New("unknown column")
	ErrInvalidPage   = errors.New("invalid page request")
	ErrUserNotFound  = errors.New("user not found")
	ErrEmailExists   = errors.New("email already exists")
)

// Kind classifies a FetchError.
type Kind string

const (
	KindTableNotFound Kind = "table_not_found"
	KindInvalid       Kind = "invalid"
	KindUnavailable   Kind = "unavailable"
	KindQuery         Kind = "query_error"
)

// FetchError is how FetchPage reports failure.  It is returned as a value
// on the result, never as a panic.
type FetchError struct {
	Kind  Kind
	Table string
	Err   error
}

func (e *FetchError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("%s (%s): %v", e.Kind, e.Table, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Retryable reports whether the same request may succeed later.
func (e *FetchError) Retryable() bool {
	return e.Kind == KindQuery || e.Kind == KindUnavailable
}

func fetchErr(kind Kind, table string, err error) *FetchError {
	return &FetchError{Kind: kind, Table: table, Err: err}
}

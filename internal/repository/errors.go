package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Kind classifies a storage failure.
type Kind int

const (
	KindGeneric Kind = iota
	KindDuplicate
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindDuplicate:
		return "duplicate"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "generic"
	}
}

// Sentinel errors. A *StorageError matches the sentinel of its Kind with errors.Is.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrDuplicate       = errors.New("duplicate entity")
	ErrNotFound        = errors.New("entity not found")
	ErrConflict        = errors.New("concurrent modification")
)

// PostgreSQL SQLSTATE codes we classify.
const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// StorageError wraps a failure from the database layer.
type StorageError struct {
	Op     string
	Entity string
	Kind   Kind
	Err    error
}

func (e *StorageError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s: %s", e.Op, e.Entity, e.Kind)
	}
	return fmt.Sprintf("%s %s: %s: %v", e.Op, e.Entity, e.Kind, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match the Kind sentinels.
func (e *StorageError) Is(target error) bool {
	switch target {
	case ErrDuplicate:
		return e.Kind == KindDuplicate
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrConflict:
		return e.Kind == KindConflict
	}
	return false
}

// wrapError classifies err and wraps it in a StorageError.
func wrapError(op, entity string, err error) error {
	return &StorageError{Op: op, Entity: entity, Kind: classify(err), Err: err}
}

func classify(err error) Kind {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return KindGeneric
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		return KindDuplicate
	case pgSerializationFailure, pgDeadlockDetected:
		return KindConflict
	default:
		return KindGeneric
	}
}

package store

import (
	"errors"
	"fmt"

	"finadvisor/internal/identity"
)

type Resource string

const (
	ResourceTransactions Resource = "transactions"
	ResourceBudgets      Resource = "budgets"
	ResourceProfile      Resource = "user profile"
)

type Op string

const (
	OpRead  Op = "read"
	OpWrite Op = "write"
)

var (
	ErrUnauthenticated  = errors.New("not authenticated")
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotFound         = errors.New("not found")
)

// PermissionError names the resource a denied operation targeted.
type PermissionError struct {
	Resource Resource
	Op       Op
	Err      error
}

func (e *PermissionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: permission denied: %v", e.Op, e.Resource, e.Err)
	}
	return fmt.Sprintf("%s %s: permission denied", e.Op, e.Resource)
}

func (e *PermissionError) Is(target error) bool {
	return target == ErrPermissionDenied
}

func (e *PermissionError) Unwrap() error {
	return e.Err
}

// Denied builds a PermissionError.
func Denied(res Resource, op Op, cause error) error {
	return &PermissionError{Resource: res, Op: op, Err: cause}
}

// Rules decides whether an identity may perform op on its own resource.
type Rules interface {
	Check(id identity.Identity, res Resource, op Op) error
}

type RulesFunc func(id identity.Identity, res Resource, op Op) error

func (f RulesFunc) Check(id identity.Identity, res Resource, op Op) error {
	return f(id, res, op)
}

var (
	// OwnerOnly lets any signed-in identity use its own documents.
	OwnerOnly Rules = RulesFunc(func(id identity.Identity, _ Resource, _ Op) error {
		if id.IsZero() {
			return ErrUnauthenticated
		}
		return nil
	})

	// ReadOnly allows reads and denies every write.
	ReadOnly Rules = RulesFunc(func(id identity.Identity, res Resource, op Op) error {
		if err := OwnerOnly.Check(id, res, op); err != nil {
			return err
		}
		if op == OpWrite {
			return Denied(res, op, nil)
		}
		return nil
	})
)

// Package identity issues the opaque per-user handle that scopes every
// stored document.
package identity

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Identity is an opaque user handle. The zero value means "not signed in".
type Identity string

func (i Identity) IsZero() bool {
	return strings.TrimSpace(string(i)) == ""
}

func (i Identity) String() string {
	return string(i)
}

// Provider yields the current identity once it is available.
type Provider interface {
	SignIn(ctx context.Context) (Identity, error)
}

// Anonymous signs in without credentials. The identity is created on first
// use and kept in a file so it stays stable across restarts.
type Anonymous struct {
	path string
}

func NewAnonymous(path string) *Anonymous {
	return &Anonymous{path: path}
}

// SignIn implements Provider
func (a *Anonymous) SignIn(ctx context.Context) (Identity, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	b, err := os.ReadFile(a.path)
	switch {
	case err == nil:
		id := Identity(strings.TrimSpace(string(b)))
		if !id.IsZero() {
			return id, nil
		}
	case !errors.Is(err, os.ErrNotExist):
		return "", fmt.Errorf("read identity file: %w", err)
	}

	id := Identity(uuid.NewString())
	if err := os.MkdirAll(filepath.Dir(a.path), 0o755); err != nil {
		return "", fmt.Errorf("create identity directory: %w", err)
	}
	if err := os.WriteFile(a.path, []byte(id.String()+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("write identity file: %w", err)
	}
	return id, nil
}

// Static always returns the same identity.
type Static Identity

// SignIn implements Provider
func (s Static) SignIn(ctx context.Context) (Identity, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if Identity(s).IsZero() {
		return "", errors.New("static identity is empty")
	}
	return Identity(s), nil
}

package identity

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
)

func TestAnonymousIsStable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "identity")
	p := NewAnonymous(path)

	first, err := p.SignIn(context.Background())
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if _, err := uuid.Parse(first.String()); err != nil {
		t.Fatalf("expected uuid identity, got %q", first)
	}

	second, err := NewAnonymous(path).SignIn(context.Background())
	if err != nil {
		t.Fatalf("second sign in: %v", err)
	}
	if first != second {
		t.Fatalf("identity changed across sign-ins: %q != %q", first, second)
	}
}

func TestAnonymousRegeneratesEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity")
	if err := os.WriteFile(path, []byte("  \n"), 0o600); err != nil {
		t.Fatal(err)
	}
	id, err := NewAnonymous(path).SignIn(context.Background())
	if err != nil || id.IsZero() {
		t.Fatalf("expected fresh identity, got %q err=%v", id, err)
	}
}

func TestStatic(t *testing.T) {
	if _, err := Static("").SignIn(context.Background()); err == nil {
		t.Fatal("expected error for empty static identity")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Static("u1").SignIn(ctx); err == nil {
		t.Fatal("expected context error")
	}
	id, err := Static("u1").SignIn(context.Background())
	if err != nil || id != "u1" {
		t.Fatalf("unexpected %q %v", id, err)
	}
}

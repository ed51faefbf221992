package memory

import (
	"context"
	"testing"

	"finadvisor/internal/core"
)

func TestMirrorAppendAndDelete(t *testing.T) {
	ctx := context.Background()
	m := New()
	tx := core.Transaction{
		ID:       "tx-1",
		Type:     core.Expense,
		Category: "Rent",
		Amount:   core.Money{Cents: 90000},
		Date:     core.NewDate(2025, 2, 1),
	}

	ref, err := m.AppendTransaction(ctx, tx)
	if err != nil || ref != "mem:2" {
		t.Fatalf("unexpected append: ref=%q err=%v", ref, err)
	}
	if ref, _ := m.AppendTransaction(ctx, tx); ref != "mem:2" {
		t.Fatalf("duplicate append should point at existing row, got %q", ref)
	}
	if rows := m.Rows(); len(rows) != 2 || rows[1][0] != "tx-1" {
		t.Fatalf("unexpected rows %v", rows)
	}

	if err := m.DeleteTransaction(ctx, "tx-1"); err != nil {
		t.Fatal(err)
	}
	if err := m.DeleteTransaction(ctx, "tx-1"); err != nil {
		t.Fatalf("deleting a missing row must succeed: %v", err)
	}
	if rows := m.Rows(); len(rows) != 1 {
		t.Fatalf("only the header should remain, got %v", rows)
	}
}

func TestMirrorRejectsInvalidTransaction(t *testing.T) {
	if _, err := New().AppendTransaction(context.Background(), core.Transaction{ID: "x"}); err == nil {
		t.Fatal("expected validation error")
	}
}

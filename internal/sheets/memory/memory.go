// Package memory is a TransactionMirror kept in process memory. The worker
// falls back to it when no spreadsheet is configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	"finadvisor/internal/core"
	"finadvisor/internal/sheets"
)

type Mirror struct {
	mu   sync.Mutex
	rows [][]any
}

func New() *Mirror {
	return &Mirror{rows: [][]any{sheets.Header}}
}

// AppendTransaction implements sheets.TransactionMirror
func (m *Mirror) AppendTransaction(_ context.Context, tx core.Transaction) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := sheets.FindRow(m.rows, tx.ID); i >= 0 {
		return fmt.Sprintf("mem:%d", i+1), nil
	}
	m.rows = append(m.rows, sheets.Row(tx))
	return fmt.Sprintf("mem:%d", len(m.rows)), nil
}

// DeleteTransaction implements sheets.TransactionMirror
func (m *Mirror) DeleteTransaction(_ context.Context, txID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := sheets.FindRow(m.rows, txID); i > 0 {
		m.rows = append(m.rows[:i:i], m.rows[i+1:]...)
	}
	return nil
}

// Rows returns a copy of the sheet, header included.
func (m *Mirror) Rows() [][]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]any, len(m.rows))
	for i, r := range m.rows {
		out[i] = append([]any(nil), r...)
	}
	return out
}

// Package sheets mirrors transactions into a spreadsheet, one row per
// transaction keyed by its ID in column A.
package sheets

import (
	"context"
	"fmt"
	"strings"

	"finadvisor/internal/core"
)

// TransactionMirror is the outbound port the sync worker writes to.
type TransactionMirror interface {
	// AppendTransaction adds a row for tx and returns a reference to it.
	// Appending an ID that is already present is a no-op.
	AppendTransaction(ctx context.Context, tx core.Transaction) (rowRef string, err error)
	// DeleteTransaction removes the row whose column A equals txID. A missing
	// row is not an error.
	DeleteTransaction(ctx context.Context, txID string) error
}

// Header is the first row of a mirror sheet.
var Header = []any{"ID", "Date", "Type", "Category", "Amount", "Description"}

// Row renders tx as [id, date, type, category, amount, description].
func Row(tx core.Transaction) []any {
	return []any{tx.ID, tx.Date.String(), string(tx.Type), tx.Category, tx.Amount.String(), tx.Description}
}

// FindRow returns the zero-based index of the row whose first cell is txID,
// or -1.
func FindRow(values [][]any, txID string) int {
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(row[0])) == txID {
			return i
		}
	}
	return -1
}

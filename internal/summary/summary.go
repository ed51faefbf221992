// Package summary computes the dashboard totals from a transaction snapshot.
package summary

import (
	"sort"
	"time"

	"finadvisor/internal/core"
)

// MonthLayout formats the current year-month window, e.g. "2025-03".
const MonthLayout = "2006-01"

// Summary is the derived view of a transaction snapshot.
type Summary struct {
	TotalIncome  core.Money
	TotalExpense core.Money
	NetSavings   core.Money
	// MonthlySpendingByCategory holds expense totals for Month only.
	// Categories without spend in Month are absent.
	MonthlySpendingByCategory map[string]core.Money
	Month                     string
}

// Compute aggregates txs. now only selects the current year-month.
func Compute(txs []core.Transaction, now time.Time) Summary {
	s := Summary{
		MonthlySpendingByCategory: make(map[string]core.Money),
		Month:                     now.Format(MonthLayout),
	}
	for _, tx := range txs {
		switch tx.Type {
		case core.Income:
			s.TotalIncome = s.TotalIncome.Add(tx.Amount)
		case core.Expense:
			s.TotalExpense = s.TotalExpense.Add(tx.Amount)
			if tx.Date.YearMonth() == s.Month {
				s.MonthlySpendingByCategory[tx.Category] = s.MonthlySpendingByCategory[tx.Category].Add(tx.Amount)
			}
		}
	}
	for category, spent := range s.MonthlySpendingByCategory {
		if spent.Cents <= 0 {
			delete(s.MonthlySpendingByCategory, category)
		}
	}
	s.NetSavings = s.TotalIncome.Sub(s.TotalExpense)
	return s
}

// Categories returns the month-spend categories in lexical order.
func (s Summary) Categories() []string {
	out := make([]string, 0, len(s.MonthlySpendingByCategory))
	for category := range s.MonthlySpendingByCategory {
		out = append(out, category)
	}
	sort.Strings(out)
	return out
}

// SavingsRate returns net savings over income in basis points, or 0 without income.
func (s Summary) SavingsRate() int64 {
	if s.TotalIncome.Cents <= 0 {
		return 0
	}
	return s.NetSavings.Cents * 10000 / s.TotalIncome.Cents
}

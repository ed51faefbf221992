// Package categories holds the fixed income/expense category sets and the
// rules for extending the expense set with user-defined names.
package categories

import (
	"strings"

	"finadvisor/internal/core"
)

var (
	predefinedExpense = []string{
		"Groceries", "Utilities", "Rent", "Transport", "Entertainment", "Dining Out",
		"Healthcare", "Education", "Shopping", "Travel", "Other",
	}
	predefinedIncome = []string{"Salary", "Freelance", "Investments", "Gift", "Other"}
)

// PredefinedExpense returns a copy of the built-in expense categories.
func PredefinedExpense() []string {
	return append([]string(nil), predefinedExpense...)
}

// PredefinedIncome returns a copy of the built-in income categories.
func PredefinedIncome() []string {
	return append([]string(nil), predefinedIncome...)
}

// AllExpenseCategories returns the predefined expense categories followed by custom.
func AllExpenseCategories(custom []string) []string {
	out := make([]string, 0, len(predefinedExpense)+len(custom))
	out = append(out, predefinedExpense...)
	return append(out, custom...)
}

// TryAddCustomCategory returns custom with name appended. The name is trimmed;
// an empty name or one already present in the predefined or custom set
// (exact, case-sensitive) fails with core.ErrDuplicateCategory. The input
// slice is never modified.
func TryAddCustomCategory(name string, custom []string) ([]string, error) {
	name = strings.TrimSpace(name)
	if name == "" || contains(predefinedExpense, name) || contains(custom, name) {
		return nil, core.ErrDuplicateCategory
	}
	out := make([]string, 0, len(custom)+1)
	out = append(out, custom...)
	return append(out, name), nil
}

func IsExpenseCategory(name string, custom []string) bool {
	return contains(predefinedExpense, name) || contains(custom, name)
}

func IsIncomeCategory(name string) bool {
	return contains(predefinedIncome, name)
}

func contains(list []string, name string) bool {
	for _, v := range list {
		if v == name {
			return true
		}
	}
	return false
}

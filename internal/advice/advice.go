// Package advice turns a summary and the budget map into advisory messages.
package advice

import (
	"fmt"

	"finadvisor/internal/core"
	"finadvisor/internal/summary"
)

const (
	HighExpenseWarning    = "Your expenses are quite high relative to your income. Consider reviewing your spending habits."
	LowSavingsWarning     = "Your savings rate is low. Try to save at least 10-20% of your income each month."
	PositiveReinforcement = "You're doing great with your finances! Keep up the good work."
)

type Rule string

const (
	RuleHighExpense Rule = "high_expense"
	RuleLowSavings  Rule = "low_savings"
	RuleOverBudget  Rule = "over_budget"
	RulePositive    Rule = "positive"
)

// Advisory is one evaluated rule. Category is set for RuleOverBudget only.
type Advisory struct {
	Rule     Rule
	Category string
	Message  string
}

// OverBudgetWarning names the category whose month spend exceeds its budget.
func OverBudgetWarning(category string) string {
	return fmt.Sprintf("You've exceeded your budget for \"%s\" this month. Consider cutting back in this area.", category)
}

// Evaluate returns the advisory messages in priority order.
func Evaluate(s summary.Summary, budgets core.BudgetMap) []string {
	detailed := EvaluateDetailed(s, budgets)
	out := make([]string, len(detailed))
	for i, a := range detailed {
		out[i] = a.Message
	}
	return out
}

// EvaluateDetailed applies every rule in order: high expense ratio, low
// savings rate, over-budget categories (lexical order), and a positive
// message when nothing else fired. Ratios are compared on integer cents.
func EvaluateDetailed(s summary.Summary, budgets core.BudgetMap) []Advisory {
	var out []Advisory
	income := s.TotalIncome.Cents
	expense := s.TotalExpense.Cents

	if income > 0 {
		// expense/income > 0.8
		if expense*5 > income*4 {
			out = append(out, Advisory{Rule: RuleHighExpense, Message: HighExpenseWarning})
		}
		// (income-expense)/income < 0.1
		if (income-expense)*10 < income {
			out = append(out, Advisory{Rule: RuleLowSavings, Message: LowSavingsWarning})
		}
	}

	for _, category := range s.Categories() {
		limit, ok := budgets[category]
		if !ok || limit.Cents <= 0 {
			continue
		}
		if s.MonthlySpendingByCategory[category].Cents > limit.Cents {
			out = append(out, Advisory{Rule: RuleOverBudget, Category: category, Message: OverBudgetWarning(category)})
		}
	}

	if len(out) == 0 {
		out = append(out, Advisory{Rule: RulePositive, Message: PositiveReinforcement})
	}
	return out
}

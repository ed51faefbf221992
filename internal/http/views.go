package http

import (
	"strings"

	"finadvisor/internal/core"
	"finadvisor/internal/session"
)

// recentTransactions is how many transactions the dashboard lists.
const recentTransactions = 5

var screenLabels = map[session.Screen]string{
	session.ScreenDashboard:      "Dashboard",
	session.ScreenAddTransaction: "Add Transaction",
	session.ScreenBudgetPlanner:  "Budget Planner",
	session.ScreenUserProfile:    "Profile",
}

type navItem struct {
	Screen string
	Label  string
	Active bool
}

type summaryCard struct {
	Label string
	Class string
	Value string
}

type spendingRow struct {
	Category string
	Spent    string
	Budget   string
	Percent  int
	Over     bool
}

type transactionRow struct {
	ID          string
	Date        string
	Type        string
	TypeLabel   string
	Category    string
	Amount      string
	Description string
}

type budgetField struct {
	Category string
	Name     string
	Value    string
}

type categoryGroup struct {
	Type       string
	Label      string
	Categories []string
}

type pageData struct {
	Title       string
	Loading     bool
	DarkMode    bool
	ThemeLabel  string
	Screen      string
	Nav         []navItem
	Status      statusData
	Identity    string
	ProfileName string

	Cards        []summaryCard
	Month        string
	Spending     []spendingRow
	Advice       []string
	Transactions []transactionRow

	CategoryGroups []categoryGroup
	Today          string

	BudgetFields []budgetField
}

type statusData struct {
	Message string
	Kind    string
}

func formatMoney(m core.Money) string {
	return "$" + m.String()
}

func newStatus(message string) statusData {
	return statusData{Message: message, Kind: string(notificationKind(message))}
}

// newPageData turns a session snapshot into template data.
func newPageData(st session.State, today string) pageData {
	data := pageData{
		Title:       "Personal Finance Advisor",
		Loading:     !st.AuthReady,
		DarkMode:    st.DarkMode,
		ThemeLabel:  "Dark Mode",
		Screen:      string(st.Screen),
		Status:      newStatus(st.Status),
		Identity:    st.Identity.String(),
		ProfileName: st.ProfileName,
		Month:       st.Summary.Month,
		Advice:      st.Advice,
		Today:       today,
	}
	if st.DarkMode {
		data.ThemeLabel = "Light Mode"
	}

	for _, sc := range session.Screens() {
		data.Nav = append(data.Nav, navItem{
			Screen: string(sc),
			Label:  screenLabels[sc],
			Active: sc == st.Screen,
		})
	}

	data.Cards = []summaryCard{
		{Label: "Total Income", Class: "summary-income", Value: formatMoney(st.Summary.TotalIncome)},
		{Label: "Total Expenses", Class: "summary-expense", Value: formatMoney(st.Summary.TotalExpense)},
		{Label: "Net Savings", Class: "summary-savings", Value: formatMoney(st.Summary.NetSavings)},
	}

	for _, category := range st.Summary.Categories() {
		spent := st.Summary.MonthlySpendingByCategory[category]
		row := spendingRow{Category: category, Spent: formatMoney(spent)}
		if limit, ok := st.Budgets[category]; ok && limit.Cents > 0 {
			row.Budget = formatMoney(limit)
			row.Over = spent.Cents > limit.Cents
			row.Percent = int(min(spent.Cents*100/limit.Cents, 100))
		}
		data.Spending = append(data.Spending, row)
	}

	for i, tx := range st.Transactions {
		if i == recentTransactions {
			break
		}
		data.Transactions = append(data.Transactions, transactionRow{
			ID:          tx.ID,
			Date:        tx.Date.String(),
			Type:        string(tx.Type),
			TypeLabel:   typeLabel(tx.Type),
			Category:    tx.Category,
			Amount:      formatMoney(tx.Amount),
			Description: tx.Description,
		})
	}

	data.CategoryGroups = []categoryGroup{
		{Type: string(core.Expense), Label: "Expense", Categories: st.ExpenseCategories},
		{Type: string(core.Income), Label: "Income", Categories: st.IncomeCategories},
	}

	for _, category := range st.ExpenseCategories {
		f := budgetField{Category: category, Name: budgetFieldPrefix + category}
		if limit, ok := st.Budgets[category]; ok {
			f.Value = limit.String()
		}
		data.BudgetFields = append(data.BudgetFields, f)
	}
	return data
}

func typeLabel(t core.TransactionType) string {
	s := string(t)
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

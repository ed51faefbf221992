package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"finadvisor/internal/advice"
	"finadvisor/internal/core"
	"finadvisor/internal/log"
	"finadvisor/internal/session"
)

// reportTransactions caps the transaction list of the full report.
const reportTransactions = 10

func reportCmd(a *app) *cobra.Command {
	var monthOnly bool
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the monthly summary and advice",
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Keep stdout for the report itself.
			a.logger = log.New(log.Config{
				Handler: slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelWarn}),
			})
			return a.report(cmd.Context(), cmd.OutOrStdout(), monthOnly)
		},
	}
	cmd.Flags().BoolVar(&monthOnly, "month-only", false, "omit the transaction list")
	return cmd
}

func (a *app) report(ctx context.Context, w io.Writer, monthOnly bool) error {
	sess, _, closeAll, err := a.openSession(ctx)
	if err != nil {
		return err
	}
	defer closeAll()

	if err := sess.Start(ctx); err != nil {
		return err
	}
	st := sess.State()
	_, err = io.WriteString(w, renderReport(st, monthOnly))
	return err
}

type palette struct {
	title   lipgloss.Color
	text    lipgloss.Color
	muted   lipgloss.Color
	income  lipgloss.Color
	expense lipgloss.Color
	accent  lipgloss.Color
}

var (
	lightPalette = palette{
		title:   lipgloss.Color("#4F46E5"),
		text:    lipgloss.Color("#1F2937"),
		muted:   lipgloss.Color("#6B7280"),
		income:  lipgloss.Color("#059669"),
		expense: lipgloss.Color("#DC2626"),
		accent:  lipgloss.Color("#D97706"),
	}
	darkPalette = palette{
		title:   lipgloss.Color("#818CF8"),
		text:    lipgloss.Color("#F9FAFB"),
		muted:   lipgloss.Color("#9CA3AF"),
		income:  lipgloss.Color("#34D399"),
		expense: lipgloss.Color("#F87171"),
		accent:  lipgloss.Color("#FBBF24"),
	}
)

type reportStyles struct {
	title, heading, label, muted, income, expense, warn lipgloss.Style
	box                                                 lipgloss.Style
}

func newReportStyles(dark bool) reportStyles {
	p := lightPalette
	if dark {
		p = darkPalette
	}
	return reportStyles{
		title:   lipgloss.NewStyle().Bold(true).Foreground(p.title),
		heading: lipgloss.NewStyle().Bold(true).Underline(true).Foreground(p.text),
		label:   lipgloss.NewStyle().Foreground(p.text).Width(16),
		muted:   lipgloss.NewStyle().Foreground(p.muted),
		income:  lipgloss.NewStyle().Bold(true).Foreground(p.income),
		expense: lipgloss.NewStyle().Bold(true).Foreground(p.expense),
		warn:    lipgloss.NewStyle().Foreground(p.accent),
		box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.muted).
			Padding(0, 1),
	}
}

func money(m core.Money) string {
	return "$" + m.String()
}

// renderReport lays out the summary, per-category spending, advice and,
// unless monthOnly, the most recent transactions.
func renderReport(st session.State, monthOnly bool) string {
	s := newReportStyles(st.DarkMode)
	var b strings.Builder

	b.WriteString(s.title.Render("Personal Finance Advisor"))
	b.WriteString("\n")
	if st.ProfileName != "" {
		b.WriteString(fmt.Sprintf("Welcome, %s!\n", st.ProfileName))
	}
	b.WriteString(s.muted.Render("Your User ID: " + st.Identity.String()))
	b.WriteString("\n\n")

	rate := st.Summary.SavingsRate()
	cards := lipgloss.JoinVertical(lipgloss.Left,
		s.label.Render("Total Income")+s.income.Render(money(st.Summary.TotalIncome)),
		s.label.Render("Total Expenses")+s.expense.Render(money(st.Summary.TotalExpense)),
		s.label.Render("Net Savings")+savingsStyle(s, st.Summary.NetSavings).Render(money(st.Summary.NetSavings)),
		s.label.Render("Savings Rate")+percent(rate),
	)
	b.WriteString(s.box.Render(cards))
	b.WriteString("\n\n")

	b.WriteString(s.heading.Render(fmt.Sprintf("Current Month Spending by Category (%s)", st.Summary.Month)))
	b.WriteString("\n")
	categories := st.Summary.Categories()
	if len(categories) == 0 {
		b.WriteString(s.muted.Render("No expenses recorded for the current month yet."))
		b.WriteString("\n")
	}
	for _, category := range categories {
		spent := st.Summary.MonthlySpendingByCategory[category]
		line := s.label.Render(category) + money(spent)
		if limit, ok := st.Budgets[category]; ok && limit.Cents > 0 {
			line += s.muted.Render(" / " + money(limit))
			if spent.Cents > limit.Cents {
				line += " " + s.expense.Render("over budget")
			}
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(s.heading.Render("Financial Advice"))
	b.WriteString("\n")
	for _, adv := range st.Advisories {
		style := s.warn
		if adv.Rule == advice.RulePositive {
			style = s.income
		}
		b.WriteString("• " + style.Render(adv.Message))
		b.WriteString("\n")
	}

	if monthOnly {
		return b.String()
	}

	b.WriteString("\n")
	b.WriteString(s.heading.Render("Recent Transactions"))
	b.WriteString("\n")
	if len(st.Transactions) == 0 {
		b.WriteString(s.muted.Render("No transactions recorded yet. Add some to get started!"))
		b.WriteString("\n")
	}
	for i, tx := range st.Transactions {
		if i == reportTransactions {
			break
		}
		amount := s.income.Render("+" + money(tx.Amount))
		if tx.Type == core.Expense {
			amount = s.expense.Render("-" + money(tx.Amount))
		}
		line := fmt.Sprintf("%s  %s %s", s.muted.Render(tx.Date.String()), s.label.Render(tx.Category), amount)
		if tx.Description != "" {
			line += "  " + s.muted.Render(tx.Description)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func savingsStyle(s reportStyles, net core.Money) lipgloss.Style {
	if net.Cents < 0 {
		return s.expense
	}
	return s.income
}

// percent formats basis points, e.g. 1250 as "12.50%".
func percent(bp int64) string {
	sign := ""
	if bp < 0 {
		sign = "-"
		bp = -bp
	}
	return fmt.Sprintf("%s%d.%02d%%", sign, bp/100, bp%100)
}

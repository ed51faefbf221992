package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// DateLayout is the ISO calendar date layout used for every stored date.
const DateLayout = "2006-01-02"

type (
	TransactionType string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Transaction is an immutable income or expense record. ID is assigned
	// by the document store on creation.
	Transaction struct {
		ID          string
		Type        TransactionType
		Category    string
		Amount      Money
		Date        Date
		Description string
		CreatedAt   time.Time // informational only
	}

	// BudgetMap maps an expense category to its monthly limit.
	BudgetMap map[string]Money

	// BudgetDocument is the per-identity budgets document.
	BudgetDocument struct {
		Budgets          BudgetMap
		CustomCategories []string
	}

	// BudgetPatch is a merge upsert of the budgets document: nil fields are
	// left untouched.
	BudgetPatch struct {
		Budgets          *BudgetMap
		CustomCategories *[]string
	}

	Profile struct {
		Name string
	}
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidType       = errors.New("invalid transaction type")
	ErrInvalidDate       = errors.New("invalid date")
	ErrEmptyCategory     = errors.New("empty category")
	ErrDuplicateCategory = errors.New("invalid or duplicate category name")
)

// ValidationError reports a locally detected input problem. It never
// reaches the document store.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve) || errors.Is(err, ErrDuplicateCategory)
}

func (t TransactionType) IsValid() bool {
	switch t {
	case Income, Expense:
		return true
	default:
		return false
	}
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// YearMonth returns the first 7 characters of the ISO date, e.g. "2025-03".
func (d Date) YearMonth() string {
	s := d.String()
	if len(s) < 7 {
		return ""
	}
	return s[:7]
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if !t.Type.IsValid() {
		return invalid("type", ErrInvalidType)
	}
	if strings.TrimSpace(t.Category) == "" {
		return invalid("category", ErrEmptyCategory)
	}
	if err := t.Amount.Validate(); err != nil {
		return invalid("amount", err)
	}
	if err := t.Date.Validate(); err != nil {
		return invalid("date", err)
	}
	if len(t.Description) > 200 {
		return invalid("description", errors.New("description too long (max 200 characters)"))
	}
	return nil
}

// Clone returns a deep copy so snapshots handed to subscribers stay immutable.
func (b BudgetMap) Clone() BudgetMap {
	out := make(BudgetMap, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

func (d BudgetDocument) Clone() BudgetDocument {
	return BudgetDocument{
		Budgets:          d.Budgets.Clone(),
		CustomCategories: append([]string(nil), d.CustomCategories...),
	}
}

// Apply merges the patch into the document and returns the result.
func (p BudgetPatch) Apply(d BudgetDocument) BudgetDocument {
	out := d.Clone()
	if p.Budgets != nil {
		out.Budgets = p.Budgets.Clone()
	}
	if p.CustomCategories != nil {
		out.CustomCategories = append([]string(nil), (*p.CustomCategories)...)
	}
	return out
}

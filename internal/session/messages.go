package session

import (
	"errors"
	"fmt"

	"finadvisor/internal/store"
)

// Status messages shown after an intent.
const (
	MsgMissingFields       = "Please fill in all required fields (Type, Category, Amount, Date)."
	MsgInvalidType         = "Please choose income or expense."
	MsgInvalidAmount       = "Please enter a valid, non-negative amount."
	MsgInvalidDate         = "Please enter a valid date (YYYY-MM-DD)."
	MsgUnknownCategory     = "Please choose a category from the list."
	MsgDescriptionTooLong  = "Description is too long (max 200 characters)."
	MsgTransactionAdded    = "Transaction added successfully!"
	MsgTransactionDeleted  = "Transaction deleted successfully!"
	MsgBudgetsUpdated      = "Budgets updated successfully!"
	MsgDuplicateCategory   = "Invalid or duplicate category name."
	MsgProfileUpdated      = "User name updated successfully!"
	MsgNotAuthenticated    = "Error: Not authenticated. Please try again."
	MsgInitializationError = "Error: Could not initialize the application. Please try again."
)

// CategoryAdded is shown after a custom category was stored.
func CategoryAdded(name string) string {
	return fmt.Sprintf("Category \"%s\" added!", name)
}

// intent names a user action in the two forms failure messages need.
type intent struct {
	name       string
	permission string // e.g. "writing transactions"
	failure    string // e.g. "add transaction"
}

var (
	intentAddTransaction    = intent{"add_transaction", "writing transactions", "add transaction"}
	intentDeleteTransaction = intent{"delete_transaction", "deleting transactions", "delete transaction"}
	intentUpdateBudgets     = intent{"update_budgets", "updating budgets", "update budgets"}
	intentAddCategory       = intent{"add_custom_category", "adding custom categories", "add custom category"}
	intentUpdateProfile     = intent{"update_profile", "updating user name", "update user name"}
)

// failureMessage maps a store error to the text shown for in.
func failureMessage(err error, in intent) string {
	switch {
	case errors.Is(err, store.ErrUnauthenticated):
		return MsgNotAuthenticated
	case errors.Is(err, store.ErrPermissionDenied):
		return fmt.Sprintf("Error: Permission denied. Check security rules for %s.", in.permission)
	default:
		return fmt.Sprintf("Error: Could not %s.", in.failure)
	}
}

// loadFailureMessage maps a subscription error for res.
func loadFailureMessage(err error, res store.Resource) string {
	if errors.Is(err, store.ErrPermissionDenied) {
		return fmt.Sprintf("Error: Permission denied. Please check your security rules for %s.", res)
	}
	return fmt.Sprintf("Error: Could not load %s.", res)
}

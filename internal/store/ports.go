// Package store defines the per-identity document store contract and the
// pieces shared by its backends.
package store

import (
	"context"

	"finadvisor/internal/core"
	"finadvisor/internal/feed"
	"finadvisor/internal/identity"
)

// Ports for the persistence collaborator. Every call is scoped to one identity.
type (
	TransactionStore interface {
		// CreateTransaction stores tx and returns the assigned ID.
		CreateTransaction(ctx context.Context, id identity.Identity, tx core.Transaction) (string, error)
		DeleteTransaction(ctx context.Context, id identity.Identity, txID string) error
		// SubscribeTransactions yields the full transaction set on every change.
		SubscribeTransactions(ctx context.Context, id identity.Identity) (*feed.Subscription[[]core.Transaction], error)
	}

	BudgetStore interface {
		// UpsertBudgets merges the patch into the budgets document, creating it if absent.
		UpsertBudgets(ctx context.Context, id identity.Identity, patch core.BudgetPatch) error
		// SubscribeBudgets yields the budgets document; an absent document is the empty one.
		SubscribeBudgets(ctx context.Context, id identity.Identity) (*feed.Subscription[core.BudgetDocument], error)
	}

	ProfileStore interface {
		UpsertProfile(ctx context.Context, id identity.Identity, p core.Profile) error
		SubscribeProfile(ctx context.Context, id identity.Identity) (*feed.Subscription[core.Profile], error)
	}

	DocumentStore interface {
		TransactionStore
		BudgetStore
		ProfileStore
	}
)

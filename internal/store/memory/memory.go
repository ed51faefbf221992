// Package memory is an in-process document store. Data lives for the
// lifetime of the process.
package memory

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"finadvisor/internal/categories"
	"finadvisor/internal/core"
	"finadvisor/internal/feed"
	"finadvisor/internal/identity"
	"finadvisor/internal/store"
)

// SeedFile lists custom categories every new budgets document starts with.
const SeedFile = "seed_categories.txt"

type Store struct {
	mu    sync.Mutex
	rules store.Rules
	seed  []string
	now   func() time.Time

	transactions map[identity.Identity][]core.Transaction
	budgets      map[identity.Identity]core.BudgetDocument
	profiles     map[identity.Identity]core.Profile

	txFeeds      *store.Registry[[]core.Transaction]
	budgetFeeds  *store.Registry[core.BudgetDocument]
	profileFeeds *store.Registry[core.Profile]
}

type Option func(*Store)

// WithRules replaces the default OwnerOnly access policy.
func WithRules(r store.Rules) Option {
	return func(s *Store) { s.rules = r }
}

// WithSeed sets the custom categories new budgets documents start with.
func WithSeed(custom []string) Option {
	return func(s *Store) { s.seed = seedCategories(custom) }
}

// WithClock overrides the CreatedAt clock.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(opts ...Option) *Store {
	s := &Store{
		rules:        store.OwnerOnly,
		now:          time.Now,
		transactions: make(map[identity.Identity][]core.Transaction),
		budgets:      make(map[identity.Identity]core.BudgetDocument),
		profiles:     make(map[identity.Identity]core.Profile),
		txFeeds:      store.NewRegistry[[]core.Transaction](),
		budgetFeeds:  store.NewRegistry[core.BudgetDocument](),
		profileFeeds: store.NewRegistry[core.Profile](),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewFromDir builds a store seeded from <dir>/seed_categories.txt when present.
func NewFromDir(dir string, opts ...Option) *Store {
	seed := readLines(filepath.Join(dir, SeedFile))
	return New(append([]Option{WithSeed(seed)}, opts...)...)
}

func (s *Store) check(ctx context.Context, id identity.Identity, res store.Resource, op store.Op) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.rules.Check(id, res, op)
}

// CreateTransaction implements store.TransactionStore
func (s *Store) CreateTransaction(ctx context.Context, id identity.Identity, tx core.Transaction) (string, error) {
	if err := s.check(ctx, id, store.ResourceTransactions, store.OpWrite); err != nil {
		return "", err
	}
	if err := tx.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tx.ID = uuid.NewString()
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = s.now()
	}
	list := append(append([]core.Transaction(nil), s.transactions[id]...), tx)
	s.transactions[id] = list
	s.txFeeds.Publish(id, list)
	return tx.ID, nil
}

// DeleteTransaction implements store.TransactionStore
func (s *Store) DeleteTransaction(ctx context.Context, id identity.Identity, txID string) error {
	if err := s.check(ctx, id, store.ResourceTransactions, store.OpWrite); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.transactions[id]
	list := make([]core.Transaction, 0, len(cur))
	for _, tx := range cur {
		if tx.ID != txID {
			list = append(list, tx)
		}
	}
	if len(list) == len(cur) {
		return fmt.Errorf("transaction %s: %w", txID, store.ErrNotFound)
	}
	s.transactions[id] = list
	s.txFeeds.Publish(id, list)
	return nil
}

// SubscribeTransactions implements store.TransactionStore
func (s *Store) SubscribeTransactions(ctx context.Context, id identity.Identity) (*feed.Subscription[[]core.Transaction], error) {
	if err := s.check(ctx, id, store.ResourceTransactions, store.OpRead); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.txFeeds.Subscribe(id, func() ([]core.Transaction, error) {
		return s.transactions[id], nil
	})
}

// UpsertBudgets implements store.BudgetStore
func (s *Store) UpsertBudgets(ctx context.Context, id identity.Identity, patch core.BudgetPatch) error {
	if err := s.check(ctx, id, store.ResourceBudgets, store.OpWrite); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := patch.Apply(s.budgetDoc(id))
	s.budgets[id] = doc
	s.budgetFeeds.Publish(id, doc.Clone())
	return nil
}

// SubscribeBudgets implements store.BudgetStore
func (s *Store) SubscribeBudgets(ctx context.Context, id identity.Identity) (*feed.Subscription[core.BudgetDocument], error) {
	if err := s.check(ctx, id, store.ResourceBudgets, store.OpRead); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.budgetFeeds.Subscribe(id, func() (core.BudgetDocument, error) {
		return s.budgetDoc(id).Clone(), nil
	})
}

// budgetDoc returns the stored document or a fresh seeded one. Callers hold s.mu.
func (s *Store) budgetDoc(id identity.Identity) core.BudgetDocument {
	if doc, ok := s.budgets[id]; ok {
		return doc
	}
	return core.BudgetDocument{
		Budgets:          core.BudgetMap{},
		CustomCategories: append([]string(nil), s.seed...),
	}
}

// UpsertProfile implements store.ProfileStore
func (s *Store) UpsertProfile(ctx context.Context, id identity.Identity, p core.Profile) error {
	if err := s.check(ctx, id, store.ResourceProfile, store.OpWrite); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[id] = p
	s.profileFeeds.Publish(id, p)
	return nil
}

// SubscribeProfile implements store.ProfileStore
func (s *Store) SubscribeProfile(ctx context.Context, id identity.Identity) (*feed.Subscription[core.Profile], error) {
	if err := s.check(ctx, id, store.ResourceProfile, store.OpRead); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profileFeeds.Subscribe(id, func() (core.Profile, error) {
		return s.profiles[id], nil
	})
}

// seedCategories keeps the names that would be accepted as custom categories.
func seedCategories(in []string) []string {
	var out []string
	for _, name := range in {
		next, err := categories.TryAddCustomCategory(name, out)
		if err != nil {
			continue
		}
		out = next
	}
	return out
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}

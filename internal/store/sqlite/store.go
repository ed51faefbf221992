// Package sqlite is the durable document store, one row set per identity
// in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	sqlitedrv "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"finadvisor/internal/core"
	"finadvisor/internal/feed"
	"finadvisor/internal/identity"
	"finadvisor/internal/log"
	"finadvisor/internal/store"
)

type Store struct {
	db     *sql.DB
	rules  store.Rules
	now    func() time.Time
	logger *log.Logger

	// mu orders write, reload and publish so feeds never go backwards.
	mu           sync.Mutex
	txFeeds      *store.Registry[[]core.Transaction]
	budgetFeeds  *store.Registry[core.BudgetDocument]
	profileFeeds *store.Registry[core.Profile]
}

type Option func(*Store)

func WithRules(r store.Rules) Option {
	return func(s *Store) { s.rules = r }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Open creates the database directory, applies migrations and returns a
// ready store.
func Open(dbPath string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{
		db:           db,
		rules:        store.OwnerOnly,
		now:          time.Now,
		logger:       log.Discard(),
		txFeeds:      store.NewRegistry[[]core.Transaction](),
		budgetFeeds:  store.NewRegistry[core.BudgetDocument](),
		profileFeeds: store.NewRegistry[core.Profile](),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping reports whether the database answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
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
	tx.ID = uuid.NewString()
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = s.now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (id, identity, type, category, amount_cents, date, description, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, id.String(), string(tx.Type), tx.Category, tx.Amount.Cents,
		tx.Date.String(), tx.Description, tx.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return "", fmt.Errorf("create transaction: %w", mapError(err, store.ResourceTransactions, store.OpWrite))
	}

	s.logger.InfoContext(ctx, "Transaction saved to SQLite",
		log.NewFields().
			WithIdentity(id.String()).
			WithTransaction(tx.ID, string(tx.Type), tx.Category, tx.Amount.Cents).
			ToSlice()...)

	s.reloadTransactions(ctx, id)
	return tx.ID, nil
}

// DeleteTransaction implements store.TransactionStore
func (s *Store) DeleteTransaction(ctx context.Context, id identity.Identity, txID string) error {
	if err := s.check(ctx, id, store.ResourceTransactions, store.OpWrite); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE identity = ? AND id = ?`, id.String(), txID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", mapError(err, store.ResourceTransactions, store.OpWrite))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("transaction %s: %w", txID, store.ErrNotFound)
	}

	s.reloadTransactions(ctx, id)
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
		return s.ListTransactions(ctx, id)
	})
}

// ListTransactions returns id's transactions in insertion order.
func (s *Store) ListTransactions(ctx context.Context, id identity.Identity) ([]core.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, type, category, amount_cents, date, description, created_at
		 FROM transactions WHERE identity = ? ORDER BY rowid`, id.String())
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", mapError(err, store.ResourceTransactions, store.OpRead))
	}
	defer rows.Close()

	out := []core.Transaction{}
	for rows.Next() {
		var (
			tx               core.Transaction
			txType, date, ca string
		)
		if err := rows.Scan(&tx.ID, &txType, &tx.Category, &tx.Amount.Cents, &date, &tx.Description, &ca); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		tx.Type = core.TransactionType(txType)
		if tx.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("transaction %s: %w", tx.ID, err)
		}
		tx.CreatedAt, _ = time.Parse(time.RFC3339Nano, ca)
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// reloadTransactions publishes the fresh set to an open feed. Callers hold s.mu.
func (s *Store) reloadTransactions(ctx context.Context, id identity.Identity) {
	if !s.txFeeds.Active(id) {
		return
	}
	txs, err := s.ListTransactions(ctx, id)
	if err != nil {
		s.logger.Failure(ctx, "Failed to reload transactions", log.OpRead, err, log.FieldIdentity, id.String())
		return
	}
	s.txFeeds.Publish(id, txs)
}

// UpsertBudgets implements store.BudgetStore
func (s *Store) UpsertBudgets(ctx context.Context, id identity.Identity, patch core.BudgetPatch) error {
	if err := s.check(ctx, id, store.ResourceBudgets, store.OpWrite); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dbtx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin budgets upsert: %w", mapError(err, store.ResourceBudgets, store.OpWrite))
	}
	defer dbtx.Rollback()

	cur, err := loadBudgets(ctx, dbtx, id)
	if err != nil {
		return err
	}
	doc := patch.Apply(cur)

	budgets, custom, err := encodeBudgets(doc)
	if err != nil {
		return err
	}
	_, err = dbtx.ExecContext(ctx,
		`INSERT INTO budget_documents (identity, budgets, custom_categories, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (identity) DO UPDATE SET
		   budgets = excluded.budgets,
		   custom_categories = excluded.custom_categories,
		   updated_at = excluded.updated_at`,
		id.String(), budgets, custom, s.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("upsert budgets: %w", mapError(err, store.ResourceBudgets, store.OpWrite))
	}
	if err := dbtx.Commit(); err != nil {
		return fmt.Errorf("commit budgets upsert: %w", mapError(err, store.ResourceBudgets, store.OpWrite))
	}

	s.budgetFeeds.Publish(id, doc)
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
		return loadBudgets(ctx, s.db, id)
	})
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// loadBudgets reads the budgets document; an absent row is the empty document.
func loadBudgets(ctx context.Context, q querier, id identity.Identity) (core.BudgetDocument, error) {
	var budgets, custom string
	err := q.QueryRowContext(ctx,
		`SELECT budgets, custom_categories FROM budget_documents WHERE identity = ?`, id.String()).
		Scan(&budgets, &custom)
	if errors.Is(err, sql.ErrNoRows) {
		return core.BudgetDocument{Budgets: core.BudgetMap{}}, nil
	}
	if err != nil {
		return core.BudgetDocument{}, fmt.Errorf("load budgets: %w", mapError(err, store.ResourceBudgets, store.OpRead))
	}
	return decodeBudgets(budgets, custom)
}

func encodeBudgets(doc core.BudgetDocument) (string, string, error) {
	cents := make(map[string]int64, len(doc.Budgets))
	for k, v := range doc.Budgets {
		cents[k] = v.Cents
	}
	b, err := json.Marshal(cents)
	if err != nil {
		return "", "", fmt.Errorf("encode budgets: %w", err)
	}
	custom := doc.CustomCategories
	if custom == nil {
		custom = []string{}
	}
	c, err := json.Marshal(custom)
	if err != nil {
		return "", "", fmt.Errorf("encode custom categories: %w", err)
	}
	return string(b), string(c), nil
}

func decodeBudgets(budgets, custom string) (core.BudgetDocument, error) {
	var cents map[string]int64
	if err := json.Unmarshal([]byte(budgets), &cents); err != nil {
		return core.BudgetDocument{}, fmt.Errorf("decode budgets: %w", err)
	}
	doc := core.BudgetDocument{Budgets: make(core.BudgetMap, len(cents))}
	for k, v := range cents {
		doc.Budgets[k] = core.Money{Cents: v}
	}
	if err := json.Unmarshal([]byte(custom), &doc.CustomCategories); err != nil {
		return core.BudgetDocument{}, fmt.Errorf("decode custom categories: %w", err)
	}
	return doc, nil
}

// UpsertProfile implements store.ProfileStore
func (s *Store) UpsertProfile(ctx context.Context, id identity.Identity, p core.Profile) error {
	if err := s.check(ctx, id, store.ResourceProfile, store.OpWrite); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO profiles (identity, name, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT (identity) DO UPDATE SET name = excluded.name, updated_at = excluded.updated_at`,
		id.String(), p.Name, s.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("upsert profile: %w", mapError(err, store.ResourceProfile, store.OpWrite))
	}
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
		var p core.Profile
		err := s.db.QueryRowContext(ctx,
			`SELECT name FROM profiles WHERE identity = ?`, id.String()).Scan(&p.Name)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return core.Profile{}, fmt.Errorf("load profile: %w", mapError(err, store.ResourceProfile, store.OpRead))
		}
		return p, nil
	})
}

// mapError turns SQLite access failures into store.ErrPermissionDenied.
func mapError(err error, res store.Resource, op store.Op) error {
	var se *sqlitedrv.Error
	if errors.As(err, &se) {
		switch se.Code() & 0xff {
		case sqlite3.SQLITE_READONLY, sqlite3.SQLITE_PERM, sqlite3.SQLITE_AUTH:
			return store.Denied(res, op, err)
		}
	}
	return err
}

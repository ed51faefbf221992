// Package session is the application layer: it signs in, keeps live
// snapshots of the identity's documents, recomputes the summary and advice
// on every change and turns user intents into store calls and status
// messages.
package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"finadvisor/internal/advice"
	"finadvisor/internal/categories"
	"finadvisor/internal/core"
	"finadvisor/internal/feed"
	"finadvisor/internal/identity"
	"finadvisor/internal/log"
	"finadvisor/internal/store"
	"finadvisor/internal/summary"
)

// State is an immutable snapshot of everything a front end renders.
type State struct {
	AuthReady         bool
	Identity          identity.Identity
	Screen            Screen
	Transactions      []core.Transaction // date descending
	Budgets           core.BudgetMap
	CustomCategories  []string
	ExpenseCategories []string
	IncomeCategories  []string
	ProfileName       string
	Summary           summary.Summary
	Advice            []string
	Advisories        []advice.Advisory
	Status            string
	DarkMode          bool
}

// TransactionInput is the raw add-transaction form.
type TransactionInput struct {
	Type        string
	Category    string
	Amount      string
	Date        string
	Description string
}

type Config struct {
	Identity       identity.Provider
	Store          store.DocumentStore
	Preferences    *Preferences
	StatusDuration time.Duration
	Clock          func() time.Time
	Logger         *log.Logger
}

type Session struct {
	provider identity.Provider
	store    store.DocumentStore
	prefs    *Preferences
	clock    func() time.Time
	logger   *log.Logger
	router   *Router
	notifier *Notifier
	state    *feed.Feed[State]

	// pubMu keeps snapshots published in the order they were taken.
	pubMu sync.Mutex

	mu        sync.Mutex
	authReady bool
	id        identity.Identity
	gen       uint64
	txs       []core.Transaction
	budgets   core.BudgetDocument
	profile   core.Profile
	stop      context.CancelFunc
	watchers  sync.WaitGroup
}

func New(cfg Config) *Session {
	s := &Session{
		provider: cfg.Identity,
		store:    cfg.Store,
		prefs:    cfg.Preferences,
		clock:    cfg.Clock,
		logger:   cfg.Logger,
		router:   NewRouter(),
		budgets:  core.BudgetDocument{Budgets: core.BudgetMap{}},
	}
	if s.prefs == nil {
		s.prefs = &Preferences{}
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.logger == nil {
		s.logger = log.Discard()
	}
	s.logger = s.logger.WithComponent(log.ComponentSession)
	s.notifier = NewNotifier(cfg.StatusDuration, s.publish)
	s.state = feed.New(s.snapshot())
	return s
}

// Start signs in and opens the document subscriptions.
func (s *Session) Start(ctx context.Context) error {
	id, err := s.provider.SignIn(ctx)
	if err != nil {
		s.logger.Failure(ctx, "Sign-in failed", log.OpSignIn, err)
		s.notifier.Show(MsgInitializationError)
		return fmt.Errorf("sign in: %w", err)
	}
	s.logger.InfoContext(ctx, "Signed in", log.FieldIdentity, id.String())
	return s.SetIdentity(ctx, id)
}

// SetIdentity switches the session to id. Subscriptions of the previous
// identity are closed before new ones are opened and its data is dropped.
func (s *Session) SetIdentity(ctx context.Context, id identity.Identity) error {
	s.stopWatching()

	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.id = id
	s.authReady = true
	s.txs = nil
	s.budgets = core.BudgetDocument{Budgets: core.BudgetMap{}}
	s.profile = core.Profile{}
	watchCtx, cancel := context.WithCancel(context.Background())
	s.stop = cancel
	s.mu.Unlock()
	s.publish()

	if id.IsZero() {
		return nil
	}

	var (
		txSub      *feed.Subscription[[]core.Transaction]
		budgetSub  *feed.Subscription[core.BudgetDocument]
		profileSub *feed.Subscription[core.Profile]
	)
	var g errgroup.Group
	g.Go(func() error {
		sub, err := s.store.SubscribeTransactions(ctx, id)
		txSub = sub
		return s.subscribeFailed(ctx, err, store.ResourceTransactions)
	})
	g.Go(func() error {
		sub, err := s.store.SubscribeBudgets(ctx, id)
		budgetSub = sub
		return s.subscribeFailed(ctx, err, store.ResourceBudgets)
	})
	g.Go(func() error {
		sub, err := s.store.SubscribeProfile(ctx, id)
		profileSub = sub
		return s.subscribeFailed(ctx, err, store.ResourceProfile)
	})
	err := g.Wait()

	if txSub != nil {
		watch(watchCtx, &s.watchers, txSub, func(v []core.Transaction) {
			s.apply(gen, func() { s.txs = v })
		})
	}
	if budgetSub != nil {
		watch(watchCtx, &s.watchers, budgetSub, func(v core.BudgetDocument) {
			s.apply(gen, func() { s.budgets = v })
		})
	}
	if profileSub != nil {
		watch(watchCtx, &s.watchers, profileSub, func(v core.Profile) {
			s.apply(gen, func() { s.profile = v })
		})
	}
	return err
}

func (s *Session) subscribeFailed(ctx context.Context, err error, res store.Resource) error {
	if err == nil {
		return nil
	}
	s.logger.Failure(ctx, "Subscription failed", log.OpSubscribe, err, log.FieldResource, string(res))
	s.notifier.Show(loadFailureMessage(err, res))
	return fmt.Errorf("subscribe %s: %w", res, err)
}

// watch applies the current value once, then again after every change,
// until ctx is done. The subscription is closed on exit.
func watch[T any](ctx context.Context, wg *sync.WaitGroup, sub *feed.Subscription[T], apply func(T)) {
	apply(sub.Current())
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case <-sub.Changed():
				apply(sub.Current())
			}
		}
	}()
}

// apply runs fn under the lock unless the identity changed since gen.
func (s *Session) apply(gen uint64, fn func()) {
	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return
	}
	fn()
	s.mu.Unlock()
	s.publish()
}

func (s *Session) stopWatching() {
	s.mu.Lock()
	stop := s.stop
	s.stop = nil
	s.mu.Unlock()
	if stop != nil {
		stop()
	}
	s.watchers.Wait()
}

// Close releases every subscription. The session must not be used afterwards.
func (s *Session) Close() {
	s.stopWatching()
	s.notifier.Stop()
}

// State returns the latest snapshot.
func (s *Session) State() State {
	return s.state.Current()
}

// Updates returns a subscription signalled on every state change. Callers
// close it when done.
func (s *Session) Updates() *feed.Subscription[State] {
	return s.state.Subscribe()
}

func (s *Session) Router() *Router {
	return s.router
}

func (s *Session) publish() {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	s.state.Publish(s.snapshot())
}

func (s *Session) snapshot() State {
	s.mu.Lock()
	txs := sortByDateDesc(s.txs)
	budgets := s.budgets.Clone()
	st := State{
		AuthReady:        s.authReady,
		Identity:         s.id,
		ProfileName:      s.profile.Name,
		Transactions:     txs,
		Budgets:          budgets.Budgets,
		CustomCategories: budgets.CustomCategories,
	}
	s.mu.Unlock()

	st.Screen = s.router.Current()
	st.ExpenseCategories = categories.AllExpenseCategories(st.CustomCategories)
	st.IncomeCategories = categories.PredefinedIncome()
	st.Summary = summary.Compute(txs, s.clock())
	st.Advisories = advice.EvaluateDetailed(st.Summary, st.Budgets)
	st.Advice = make([]string, len(st.Advisories))
	for i, a := range st.Advisories {
		st.Advice[i] = a.Message
	}
	st.Status = s.notifier.Current()
	st.DarkMode = s.prefs.DarkMode()
	return st
}

// sortByDateDesc returns a copy ordered newest first; equal dates keep
// store order.
func sortByDateDesc(in []core.Transaction) []core.Transaction {
	out := append([]core.Transaction(nil), in...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date.Time)
	})
	return out
}

// Navigate switches screen.
func (s *Session) Navigate(sc Screen) {
	s.router.Navigate(sc)
	s.publish()
}

// Cancel returns to the dashboard.
func (s *Session) Cancel() {
	s.router.Cancel()
	s.publish()
}

func (s *Session) show(msg string) {
	s.notifier.Show(msg)
}

func (s *Session) complete(msg string) {
	s.router.Complete()
	s.show(msg)
}

// signedIn returns the current identity or reports the intent as
// unauthenticated without touching the store.
func (s *Session) signedIn() (identity.Identity, error) {
	s.mu.Lock()
	id := s.id
	s.mu.Unlock()
	if id.IsZero() {
		s.show(MsgNotAuthenticated)
		return "", store.ErrUnauthenticated
	}
	return id, nil
}

func (s *Session) rejected(field, msg string, err error) error {
	s.show(msg)
	return &core.ValidationError{Field: field, Err: err}
}

func (s *Session) failed(ctx context.Context, id identity.Identity, in intent, err error) error {
	s.logger.Failure(ctx, "Intent failed", in.name, err, log.FieldIdentity, id.String())
	s.show(failureMessage(err, in))
	return err
}

var errMissing = errors.New("required")

// AddTransaction validates the form and stores a new transaction.
func (s *Session) AddTransaction(ctx context.Context, in TransactionInput) error {
	id, err := s.signedIn()
	if err != nil {
		return err
	}

	typ := strings.TrimSpace(in.Type)
	category := strings.TrimSpace(in.Category)
	amount := strings.TrimSpace(in.Amount)
	date := strings.TrimSpace(in.Date)
	switch {
	case typ == "":
		return s.rejected("type", MsgMissingFields, errMissing)
	case category == "":
		return s.rejected("category", MsgMissingFields, errMissing)
	case amount == "":
		return s.rejected("amount", MsgMissingFields, errMissing)
	case date == "":
		return s.rejected("date", MsgMissingFields, errMissing)
	}

	txType := core.TransactionType(typ)
	if !txType.IsValid() {
		return s.rejected("type", MsgInvalidType, core.ErrInvalidType)
	}
	cents, err := core.ParseAmountToCents(amount)
	if err != nil {
		return s.rejected("amount", MsgInvalidAmount, err)
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return s.rejected("date", MsgInvalidDate, err)
	}
	if !s.knownCategory(txType, category) {
		return s.rejected("category", MsgUnknownCategory, fmt.Errorf("unknown %s category %q", txType, category))
	}

	tx := core.Transaction{
		Type:        txType,
		Category:    category,
		Amount:      core.Money{Cents: cents},
		Date:        d,
		Description: strings.TrimSpace(in.Description),
		CreatedAt:   s.clock(),
	}
	if err := tx.Validate(); err != nil {
		return s.rejected("description", MsgDescriptionTooLong, err)
	}

	txID, err := s.store.CreateTransaction(ctx, id, tx)
	if err != nil {
		return s.failed(ctx, id, intentAddTransaction, err)
	}
	s.logger.InfoContext(ctx, "Transaction added",
		log.NewFields().
			WithIdentity(id.String()).
			WithTransaction(txID, string(tx.Type), tx.Category, cents).
			ToSlice()...)
	s.complete(MsgTransactionAdded)
	return nil
}

func (s *Session) knownCategory(t core.TransactionType, name string) bool {
	if t == core.Income {
		return categories.IsIncomeCategory(name)
	}
	s.mu.Lock()
	custom := s.budgets.CustomCategories
	s.mu.Unlock()
	return categories.IsExpenseCategory(name, custom)
}

// DeleteTransaction removes a transaction. The screen does not change.
func (s *Session) DeleteTransaction(ctx context.Context, txID string) error {
	id, err := s.signedIn()
	if err != nil {
		return err
	}
	if err := s.store.DeleteTransaction(ctx, id, txID); err != nil {
		return s.failed(ctx, id, intentDeleteTransaction, err)
	}
	s.logger.InfoContext(ctx, "Transaction deleted",
		log.FieldIdentity, id.String(), log.FieldTransactionID, txID)
	s.show(MsgTransactionDeleted)
	return nil
}

// UpdateBudgets keeps the positive limits for known expense categories. Only
// the budgets field is patched; custom categories are left to the store.
func (s *Session) UpdateBudgets(ctx context.Context, raw map[string]string) error {
	id, err := s.signedIn()
	if err != nil {
		return err
	}

	s.mu.Lock()
	custom := append([]string(nil), s.budgets.CustomCategories...)
	s.mu.Unlock()

	budgets := core.FilterBudgets(raw)
	for name := range budgets {
		if !categories.IsExpenseCategory(name, custom) {
			delete(budgets, name)
		}
	}

	if err := s.store.UpsertBudgets(ctx, id, core.BudgetPatch{Budgets: &budgets}); err != nil {
		return s.failed(ctx, id, intentUpdateBudgets, err)
	}
	s.mu.Lock()
	if s.id == id {
		s.budgets.Budgets = budgets.Clone()
	}
	s.mu.Unlock()
	s.logger.InfoContext(ctx, "Budgets updated",
		log.FieldIdentity, id.String(), "budget_count", len(budgets))
	s.complete(MsgBudgetsUpdated)
	return nil
}

// AddCustomCategory appends name to the custom expense categories. Last
// writer wins when two sessions add at once.
func (s *Session) AddCustomCategory(ctx context.Context, name string) error {
	id, err := s.signedIn()
	if err != nil {
		return err
	}

	s.mu.Lock()
	custom := append([]string(nil), s.budgets.CustomCategories...)
	s.mu.Unlock()

	next, err := categories.TryAddCustomCategory(name, custom)
	if err != nil {
		s.show(MsgDuplicateCategory)
		return err
	}

	if err := s.store.UpsertBudgets(ctx, id, core.BudgetPatch{CustomCategories: &next}); err != nil {
		return s.failed(ctx, id, intentAddCategory, err)
	}

	added := next[len(next)-1]
	s.mu.Lock()
	if s.id == id {
		s.budgets.CustomCategories = next
	}
	s.mu.Unlock()
	s.logger.InfoContext(ctx, "Custom category added",
		log.FieldIdentity, id.String(), log.FieldCategory, added)
	s.show(CategoryAdded(added))
	return nil
}

// UpdateProfileName stores the display name.
func (s *Session) UpdateProfileName(ctx context.Context, name string) error {
	id, err := s.signedIn()
	if err != nil {
		return err
	}
	p := core.Profile{Name: strings.TrimSpace(name)}
	if err := s.store.UpsertProfile(ctx, id, p); err != nil {
		return s.failed(ctx, id, intentUpdateProfile, err)
	}
	s.mu.Lock()
	if s.id == id {
		s.profile = p
	}
	s.mu.Unlock()
	s.logger.InfoContext(ctx, "Profile updated", log.FieldIdentity, id.String())
	s.complete(MsgProfileUpdated)
	return nil
}

// ToggleDarkMode flips the theme preference and persists it.
func (s *Session) ToggleDarkMode() error {
	err := s.prefs.SetDarkMode(!s.prefs.DarkMode())
	s.publish()
	if err != nil {
		s.logger.Failure(context.Background(), "Failed to save preferences", log.OpUpdate, err)
		return err
	}
	return nil
}

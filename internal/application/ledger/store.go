// Package ledger maintains the local mirror of a user's remote ledger and
// exposes the mutation API consumed by the presentation layer.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/budget-tracker/ledger/internal/application/adapter"
	"github.com/budget-tracker/ledger/internal/domain/entity"
	domainerror "github.com/budget-tracker/ledger/internal/domain/error"
)

// BindToken identifies one binding of the store to a user. Snapshot applies
// carry the token they were issued under; a stale token means the
// subscription was torn down while the delivery was in flight, and the
// delivery is discarded.
type BindToken uint64

// Store is the process-local authoritative mirror of one user's ledger: two
// ordered sequences replaced wholesale by subscription pushes, plus the
// mutation API and the per-operation error channel.
//
// The sequences are mutated only by snapshot applies and by Clear; mutation
// calls never splice the mirror. A successful mutation therefore does not
// imply the read accessors already reflect it — consistency arrives with the
// next push.
type Store struct {
	remote adapter.RemoteLedger

	mu           sync.RWMutex
	token        BindToken
	ownerID      uuid.UUID
	bound        bool
	transactions []entity.Transaction
	categories   []entity.Category
	txLoaded     bool
	catLoaded    bool
	lastErr      error

	obsMu     sync.Mutex
	observers map[uint64]func()
	nextObs   uint64
}

// NewStore creates a Store backed by the given remote ledger. The store
// starts unbound and empty.
func NewStore(remote adapter.RemoteLedger) *Store {
	return &Store{
		remote:    remote,
		observers: make(map[uint64]func()),
	}
}

// Bind marks the store as mirroring the given owner and returns the token
// subscription callbacks must present. Any previously issued token becomes
// stale. The mirror is cleared and the loading flag reset.
func (s *Store) Bind(ownerID uuid.UUID) BindToken {
	s.mu.Lock()
	s.token++
	s.ownerID = ownerID
	s.bound = true
	s.transactions = nil
	s.categories = nil
	s.txLoaded = false
	s.catLoaded = false
	tok := s.token
	s.mu.Unlock()

	s.notify()
	return tok
}

// Unbind clears the mirror and invalidates all previously issued tokens.
// After Unbind returns, no in-flight snapshot delivery can touch the mirror.
func (s *Store) Unbind() {
	s.mu.Lock()
	s.token++
	s.ownerID = uuid.Nil
	s.bound = false
	s.transactions = nil
	s.categories = nil
	s.txLoaded = false
	s.catLoaded = false
	s.mu.Unlock()

	s.notify()
}

// ApplyTransactions replaces the mirrored transaction sequence with the
// snapshot, provided the token is still current.
func (s *Store) ApplyTransactions(tok BindToken, snapshot []entity.Transaction) {
	s.mu.Lock()
	if tok != s.token {
		s.mu.Unlock()
		slog.Debug("Discarding stale transaction snapshot", "token", tok)
		return
	}
	s.transactions = snapshot
	s.txLoaded = true
	s.mu.Unlock()

	s.notify()
}

// ApplyCategories replaces the mirrored category sequence with the snapshot,
// provided the token is still current.
func (s *Store) ApplyCategories(tok BindToken, snapshot []entity.Category) {
	s.mu.Lock()
	if tok != s.token {
		s.mu.Unlock()
		slog.Debug("Discarding stale category snapshot", "token", tok)
		return
	}
	s.categories = snapshot
	s.catLoaded = true
	s.mu.Unlock()

	s.notify()
}

// Transactions returns a copy of the mirrored transactions in canonical
// order (date descending, as delivered).
func (s *Store) Transactions() []entity.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entity.Transaction, len(s.transactions))
	copy(out, s.transactions)
	return out
}

// Categories returns a copy of the mirrored categories in canonical order
// (name ascending, as delivered).
func (s *Store) Categories() []entity.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entity.Category, len(s.categories))
	copy(out, s.categories)
	return out
}

// Loading reports whether the store is bound but has not yet received an
// initial snapshot from each active subscription.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bound && !(s.txLoaded && s.catLoaded)
}

// Err returns the most recent operation error, or nil.
func (s *Store) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// ClearError resets the error channel independently of any mutation.
func (s *Store) ClearError() {
	s.mu.Lock()
	s.lastErr = nil
	s.mu.Unlock()
}

// OnChange registers fn to run after every applied snapshot, bind and
// unbind. Callbacks run on the delivering goroutine and must not block.
func (s *Store) OnChange(fn func()) adapter.Unsubscribe {
	s.obsMu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	s.obsMu.Unlock()

	return func() {
		s.obsMu.Lock()
		delete(s.observers, id)
		s.obsMu.Unlock()
	}
}

func (s *Store) notify() {
	s.obsMu.Lock()
	fns := make([]func(), 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	s.obsMu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// CreateTransaction validates the input against the current mirror and
// submits the write. The mirror is not touched; it catches up on the next
// subscription push.
func (s *Store) CreateTransaction(ctx context.Context, input adapter.CreateTransactionInput) (uuid.UUID, error) {
	s.ClearError()

	ownerID, err := s.boundOwner()
	if err != nil {
		return uuid.Nil, s.record(err)
	}
	if err := s.validateTransactionFields(input.Type, input.Amount, input.Category, input.Date, true); err != nil {
		return uuid.Nil, s.record(err)
	}

	id, err := s.remote.CreateTransaction(ctx, ownerID, input)
	if err != nil {
		return uuid.Nil, s.record(fmt.Errorf("create transaction: %w", err))
	}
	return id, nil
}

// UpdateTransaction validates the present patch fields against the current
// mirror and submits the partial update.
func (s *Store) UpdateTransaction(ctx context.Context, id uuid.UUID, patch adapter.TransactionPatch) error {
	s.ClearError()

	if _, err := s.boundOwner(); err != nil {
		return s.record(err)
	}
	if err := s.validateTransactionPatch(id, patch); err != nil {
		return s.record(err)
	}

	if err := s.remote.UpdateTransaction(ctx, id, patch); err != nil {
		return s.record(fmt.Errorf("update transaction: %w", err))
	}
	return nil
}

// DeleteTransaction submits a transaction delete.
func (s *Store) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	s.ClearError()

	if _, err := s.boundOwner(); err != nil {
		return s.record(err)
	}

	if err := s.remote.DeleteTransaction(ctx, id); err != nil {
		return s.record(fmt.Errorf("delete transaction: %w", err))
	}
	return nil
}

// CreateCategory validates the input against the current mirror and submits
// the write.
func (s *Store) CreateCategory(ctx context.Context, input adapter.CreateCategoryInput) (uuid.UUID, error) {
	s.ClearError()

	ownerID, err := s.boundOwner()
	if err != nil {
		return uuid.Nil, s.record(err)
	}
	if err := s.validateNewCategory(input); err != nil {
		return uuid.Nil, s.record(err)
	}

	id, err := s.remote.CreateCategory(ctx, ownerID, input)
	if err != nil {
		return uuid.Nil, s.record(fmt.Errorf("create category: %w", err))
	}
	return id, nil
}

// UpdateCategory validates the present patch fields and submits the partial
// update. Renames do not cascade to transactions referencing the old name.
func (s *Store) UpdateCategory(ctx context.Context, id uuid.UUID, patch adapter.CategoryPatch) error {
	s.ClearError()

	if _, err := s.boundOwner(); err != nil {
		return s.record(err)
	}
	if err := s.validateCategoryPatch(id, patch); err != nil {
		return s.record(err)
	}

	if err := s.remote.UpdateCategory(ctx, id, patch); err != nil {
		return s.record(fmt.Errorf("update category: %w", err))
	}
	return nil
}

// DeleteCategory submits a category delete. Transactions referencing the
// category keep their (now dangling) name reference.
func (s *Store) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	s.ClearError()

	if _, err := s.boundOwner(); err != nil {
		return s.record(err)
	}

	if err := s.remote.DeleteCategory(ctx, id); err != nil {
		return s.record(fmt.Errorf("delete category: %w", err))
	}
	return nil
}

func (s *Store) boundOwner() (uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.bound {
		return uuid.Nil, domainerror.NewLedgerError(
			domainerror.ErrCodeNotBound,
			"no active user session",
			domainerror.ErrNotBound,
		)
	}
	return s.ownerID, nil
}

func (s *Store) record(err error) error {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
	return err
}

func (s *Store) validateTransactionFields(
	txType entity.TransactionType,
	amount decimal.Decimal,
	category string,
	date time.Time,
	requireAll bool,
) error {
	if !txType.Valid() {
		return domainerror.NewLedgerError(
			domainerror.ErrCodeInvalidTransactionType,
			"transaction type must be 'expense' or 'income'",
			domainerror.ErrInvalidTransactionType,
		)
	}
	if amount.Sign() <= 0 {
		return domainerror.NewLedgerError(
			domainerror.ErrCodeInvalidAmount,
			"amount must be greater than zero",
			domainerror.ErrInvalidAmount,
		)
	}
	if requireAll && date.IsZero() {
		return domainerror.NewLedgerError(
			domainerror.ErrCodeMissingDate,
			"transaction date is required",
			domainerror.ErrMissingDate,
		)
	}
	if requireAll && category == "" {
		return domainerror.NewLedgerError(
			domainerror.ErrCodeMissingCategory,
			"category is required",
			domainerror.ErrMissingCategory,
		)
	}
	if category != "" {
		return s.validateCategoryReference(category, txType)
	}
	return nil
}

// validateCategoryReference enforces the soft invariant that a transaction's
// category names an existing category eligible for its type. The check runs
// against the mirror, so it reflects the owner's categories as of the last
// push.
func (s *Store) validateCategoryReference(name string, txType entity.TransactionType) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.categories {
		if c.Name != name {
			continue
		}
		if !c.EligibleFor(txType) {
			return domainerror.NewLedgerError(
				domainerror.ErrCodeCategoryNotEligible,
				fmt.Sprintf("category %q is not eligible for %s transactions", name, txType),
				domainerror.ErrCategoryNotEligible,
			)
		}
		return nil
	}
	return domainerror.NewLedgerError(
		domainerror.ErrCodeUnknownCategory,
		fmt.Sprintf("category %q does not exist", name),
		domainerror.ErrUnknownCategory,
	)
}

func (s *Store) validateTransactionPatch(id uuid.UUID, patch adapter.TransactionPatch) error {
	if patch.Type == nil && patch.Amount == nil && patch.Category == nil &&
		patch.Date == nil && patch.Description == nil {
		return domainerror.NewLedgerError(
			domainerror.ErrCodeEmptyPatch,
			"no fields to update",
			domainerror.ErrEmptyPatch,
		)
	}

	if patch.Type != nil && !patch.Type.Valid() {
		return domainerror.NewLedgerError(
			domainerror.ErrCodeInvalidTransactionType,
			"transaction type must be 'expense' or 'income'",
			domainerror.ErrInvalidTransactionType,
		)
	}
	if patch.Amount != nil && patch.Amount.Sign() <= 0 {
		return domainerror.NewLedgerError(
			domainerror.ErrCodeInvalidAmount,
			"amount must be greater than zero",
			domainerror.ErrInvalidAmount,
		)
	}

	// A category or type change must still reference an eligible category.
	// The effective type is the patched one if present, otherwise the
	// mirrored transaction's current type.
	if patch.Category != nil || patch.Type != nil {
		effType, effCategory, ok := s.effectiveTransactionTarget(id, patch)
		if !ok {
			return domainerror.NewLedgerError(
				domainerror.ErrCodeTransactionNotFound,
				"transaction not found",
				domainerror.ErrTransactionNotFound,
			)
		}
		if effCategory == "" {
			return domainerror.NewLedgerError(
				domainerror.ErrCodeMissingCategory,
				"category is required",
				domainerror.ErrMissingCategory,
			)
		}
		return s.validateCategoryReference(effCategory, effType)
	}
	return nil
}

func (s *Store) effectiveTransactionTarget(id uuid.UUID, patch adapter.TransactionPatch) (entity.TransactionType, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.transactions {
		if t.ID != id {
			continue
		}
		txType := t.Type
		category := t.Category
		if patch.Type != nil {
			txType = *patch.Type
		}
		if patch.Category != nil {
			category = *patch.Category
		}
		return txType, category, true
	}
	return "", "", false
}

func (s *Store) validateNewCategory(input adapter.CreateCategoryInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return domainerror.NewLedgerError(
			domainerror.ErrCodeMissingCategoryName,
			"category name is required",
			domainerror.ErrMissingCategoryName,
		)
	}
	if !input.Type.Valid() {
		return domainerror.NewLedgerError(
			domainerror.ErrCodeInvalidCategoryType,
			"category type must be 'expense', 'income' or 'both'",
			domainerror.ErrInvalidCategoryType,
		)
	}
	return s.checkDuplicateName(input.Name, uuid.Nil)
}

func (s *Store) validateCategoryPatch(id uuid.UUID, patch adapter.CategoryPatch) error {
	if patch.Name == nil && patch.Type == nil && patch.Color == nil {
		return domainerror.NewLedgerError(
			domainerror.ErrCodeEmptyPatch,
			"no fields to update",
			domainerror.ErrEmptyPatch,
		)
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return domainerror.NewLedgerError(
			domainerror.ErrCodeMissingCategoryName,
			"category name is required",
			domainerror.ErrMissingCategoryName,
		)
	}
	if patch.Type != nil && !patch.Type.Valid() {
		return domainerror.NewLedgerError(
			domainerror.ErrCodeInvalidCategoryType,
			"category type must be 'expense', 'income' or 'both'",
			domainerror.ErrInvalidCategoryType,
		)
	}
	if patch.Name != nil {
		return s.checkDuplicateName(*patch.Name, id)
	}
	return nil
}

func (s *Store) checkDuplicateName(name string, exclude uuid.UUID) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.categories {
		if c.ID != exclude && strings.EqualFold(c.Name, name) {
			return domainerror.NewLedgerError(
				domainerror.ErrCodeDuplicateCategoryName,
				fmt.Sprintf("category %q already exists", name),
				domainerror.ErrDuplicateCategoryName,
			)
		}
	}
	return nil
}

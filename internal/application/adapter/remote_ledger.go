// Package adapter defines interfaces that will be implemented in the integration layer.
package adapter

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/budget-tracker/ledger/internal/domain/entity"
)

// Unsubscribe tears down a live subscription. After it returns, no further
// snapshot is delivered from that subscription instance, even if one was
// already in flight.
type Unsubscribe func()

// CreateTransactionInput carries the fields for a new transaction. The store
// assigns the ID and the creation instant.
type CreateTransactionInput struct {
	Type        entity.TransactionType
	Amount      decimal.Decimal
	Category    string
	Date        time.Time
	Description string
}

// TransactionPatch describes a partial transaction update. Nil fields are
// left untouched.
type TransactionPatch struct {
	Type        *entity.TransactionType
	Amount      *decimal.Decimal
	Category    *string
	Date        *time.Time
	Description *string
}

// CreateCategoryInput carries the fields for a new category.
type CreateCategoryInput struct {
	Name  string
	Type  entity.CategoryType
	Color string
}

// CategoryPatch describes a partial category update. Nil fields are left
// untouched.
type CategoryPatch struct {
	Name  *string
	Type  *entity.CategoryType
	Color *string
}

// RemoteLedger is the remote document store seen through domain-typed
// operations. Writes are point operations against a per-user collection;
// reads happen exclusively through live subscriptions that deliver the full
// materialized result set in canonical order (transactions: date descending,
// categories: name ascending) on open and on every subsequent change.
//
// Date round trip: implementations persist dates as absolute instants and
// are the single place responsible for normalizing them back to calendar
// dates (midnight UTC) on read. The round trip is idempotent regardless of
// the timezone offset of the instant supplied on write.
type RemoteLedger interface {
	// CreateTransaction stores a new transaction for the owner and returns
	// the store-assigned ID.
	CreateTransaction(ctx context.Context, ownerID uuid.UUID, input CreateTransactionInput) (uuid.UUID, error)

	// UpdateTransaction applies a partial update to an existing transaction.
	UpdateTransaction(ctx context.Context, id uuid.UUID, patch TransactionPatch) error

	// DeleteTransaction removes a transaction from the store.
	DeleteTransaction(ctx context.Context, id uuid.UUID) error

	// CreateCategory stores a new category for the owner and returns the
	// store-assigned ID.
	CreateCategory(ctx context.Context, ownerID uuid.UUID, input CreateCategoryInput) (uuid.UUID, error)

	// UpdateCategory applies a partial update to an existing category.
	UpdateCategory(ctx context.Context, id uuid.UUID, patch CategoryPatch) error

	// DeleteCategory removes a category from the store. Transactions
	// referencing the category by name are left untouched.
	DeleteCategory(ctx context.Context, id uuid.UUID) error

	// SubscribeTransactions opens a live query over the owner's transactions,
	// date descending. fn receives the full current list immediately and
	// again after every change until the returned Unsubscribe is called.
	SubscribeTransactions(ctx context.Context, ownerID uuid.UUID, fn func([]entity.Transaction)) (Unsubscribe, error)

	// SubscribeCategories opens a live query over the owner's categories,
	// name ascending, with the same delivery contract as
	// SubscribeTransactions.
	SubscribeCategories(ctx context.Context, ownerID uuid.UUID, fn func([]entity.Category)) (Unsubscribe, error)
}

// Package entity defines the core business entities for the domain layer.
package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType represents the type of transaction (expense or income).
type TransactionType string

const (
	TransactionTypeExpense TransactionType = "expense"
	TransactionTypeIncome  TransactionType = "income"
)

// Valid reports whether the transaction type is one of the known values.
func (t TransactionType) Valid() bool {
	return t == TransactionTypeExpense || t == TransactionTypeIncome
}

// Transaction represents a single income or expense entry in a user's ledger.
//
// Category is a name-based weak reference to a Category owned by the same
// user: renaming or deleting a category does not cascade to existing
// transactions. Date carries calendar-date meaning only and is always
// normalized to midnight UTC; CreatedAt is the server-assigned creation
// instant, used for audit only and never for sorting or business logic.
type Transaction struct {
	ID          uuid.UUID
	OwnerID     uuid.UUID
	Type        TransactionType
	Amount      decimal.Decimal // Always positive; Type determines how it contributes.
	Category    string
	Date        time.Time
	Description string
	CreatedAt   time.Time
}

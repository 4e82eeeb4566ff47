// Package model defines database models for the persistence layer.
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/budget-tracker/ledger/internal/domain/entity"
)

// TransactionModel represents the transactions table in the database.
//
// DateMillis holds the transaction's calendar date as an absolute instant
// (Unix milliseconds of midnight UTC). Persisting the instant and
// re-normalizing on read keeps the round trip stable across timezones.
type TransactionModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OwnerID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Type        string          `gorm:"type:varchar(10);not null;index"`
	Amount      decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	Category    string          `gorm:"type:varchar(50);not null"`
	DateMillis  int64           `gorm:"not null;index"`
	Description string          `gorm:"type:varchar(255)"`
	CreatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for the TransactionModel.
func (TransactionModel) TableName() string {
	return "transactions"
}

// ToEntity converts a TransactionModel to a domain Transaction entity.
func (m *TransactionModel) ToEntity() entity.Transaction {
	return entity.Transaction{
		ID:          m.ID,
		OwnerID:     m.OwnerID,
		Type:        entity.TransactionType(m.Type),
		Amount:      m.Amount,
		Category:    m.Category,
		Date:        entity.DateOf(time.UnixMilli(m.DateMillis)),
		Description: m.Description,
		CreatedAt:   m.CreatedAt,
	}
}

// DateToMillis converts an instant to the stored representation of its
// calendar date.
func DateToMillis(t time.Time) int64 {
	return entity.DateOf(t).UnixMilli()
}

// Package entity defines the core business entities for the domain layer.
package entity

import (
	"github.com/google/uuid"
)

// CategoryType represents the transaction types a category is eligible for.
type CategoryType string

const (
	CategoryTypeExpense CategoryType = "expense"
	CategoryTypeIncome  CategoryType = "income"
	CategoryTypeBoth    CategoryType = "both"
)

// Valid reports whether the category type is one of the known values.
func (t CategoryType) Valid() bool {
	return t == CategoryTypeExpense || t == CategoryTypeIncome || t == CategoryTypeBoth
}

// DefaultCategoryColor is the display color used when none is provided.
const DefaultCategoryColor = "#6366F1"

// Category represents a user-defined transaction category.
//
// Name is unique per user, enforced by the mutation layer rather than by
// storage. Color is a display token the core logic never interprets.
type Category struct {
	ID      uuid.UUID
	OwnerID uuid.UUID
	Name    string
	Type    CategoryType
	Color   string
}

// EligibleFor reports whether a transaction of the given type may reference
// this category. Categories typed "both" are eligible for either type.
func (c Category) EligibleFor(t TransactionType) bool {
	return c.Type == CategoryTypeBoth || string(c.Type) == string(t)
}

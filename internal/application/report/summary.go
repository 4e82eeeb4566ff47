// Package report derives filtered views and time-bucketed aggregates from a
// ledger snapshot. Every function is pure: deterministic for its inputs,
// no side effects, no retained state. Callers pass the Store's current
// snapshot; results are freshly allocated and never alias the input.
package report

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/budget-tracker/ledger/internal/domain/entity"
)

// MonthSummary aggregates one calendar month of a ledger.
type MonthSummary struct {
	Income   decimal.Decimal
	Expenses decimal.Decimal
	Net      decimal.Decimal // Income - Expenses
}

// CurrentMonthSummary sums the transactions whose calendar date falls within
// the month of ref, inclusive of both month boundaries. Accumulation is
// exact decimal arithmetic rounded to two fraction digits.
func CurrentMonthSummary(transactions []entity.Transaction, ref time.Time) MonthSummary {
	y, m, _ := ref.UTC().Date()
	return monthSummary(transactions, y, m)
}

func monthSummary(transactions []entity.Transaction, year int, month time.Month) MonthSummary {
	income := decimal.Zero
	expenses := decimal.Zero

	for _, t := range transactions {
		d := entity.DateOf(t.Date)
		if d.Year() != year || d.Month() != month {
			continue
		}
		switch t.Type {
		case entity.TransactionTypeIncome:
			income = income.Add(t.Amount)
		case entity.TransactionTypeExpense:
			expenses = expenses.Add(t.Amount)
		}
	}

	income = income.Round(2)
	expenses = expenses.Round(2)
	return MonthSummary{
		Income:   income,
		Expenses: expenses,
		Net:      income.Sub(expenses),
	}
}

// Recent returns the first n transactions of the canonically sorted
// sequence. Fewer than n transactions yield the whole sequence unchanged.
func Recent(transactions []entity.Transaction, n int) []entity.Transaction {
	if n < 0 {
		n = 0
	}
	if n > len(transactions) {
		n = len(transactions)
	}
	out := make([]entity.Transaction, n)
	copy(out, transactions[:n])
	return out
}

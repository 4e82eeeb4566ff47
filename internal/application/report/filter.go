// Package report derives filtered views and time-bucketed aggregates from a
// ledger snapshot.
package report

import (
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/budget-tracker/ledger/internal/domain/entity"
)

// Filter narrows a transaction sequence. The zero value matches everything.
// Date bounds compare calendar dates, not instants, and are inclusive.
type Filter struct {
	Type     entity.TransactionType // empty: all types
	Category string                 // empty: all categories; otherwise exact match
	DateFrom *time.Time
	DateTo   *time.Time
	Search   string // case-insensitive substring over category and description
}

// SortKey selects the order of a filtered transaction list.
type SortKey string

const (
	SortDateDesc    SortKey = "date-desc"
	SortDateAsc     SortKey = "date-asc"
	SortAmountDesc  SortKey = "amount-desc"
	SortAmountAsc   SortKey = "amount-asc"
	SortCategoryAsc SortKey = "category" // locale-aware string compare
)

// FilterAndSort filters transactions and sorts the survivors by the given
// key. Filtering and sorting are independent and total: an empty filter with
// an unknown or empty sort key returns the input's canonical order. The
// input slice is never modified.
func FilterAndSort(transactions []entity.Transaction, f Filter, key SortKey) []entity.Transaction {
	out := make([]entity.Transaction, 0, len(transactions))
	search := strings.ToLower(f.Search)

	for _, t := range transactions {
		if f.Type != "" && t.Type != f.Type {
			continue
		}
		if f.Category != "" && t.Category != f.Category {
			continue
		}
		if f.DateFrom != nil && !entity.SameDateOrAfter(t.Date, *f.DateFrom) {
			continue
		}
		if f.DateTo != nil && !entity.SameDateOrBefore(t.Date, *f.DateTo) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(t.Category), search) &&
			!strings.Contains(strings.ToLower(t.Description), search) {
			continue
		}
		out = append(out, t)
	}

	sortTransactions(out, key)
	return out
}

func sortTransactions(transactions []entity.Transaction, key SortKey) {
	switch key {
	case SortDateDesc:
		sort.SliceStable(transactions, func(i, j int) bool {
			return entity.DateOf(transactions[i].Date).After(entity.DateOf(transactions[j].Date))
		})
	case SortDateAsc:
		sort.SliceStable(transactions, func(i, j int) bool {
			return entity.DateOf(transactions[i].Date).Before(entity.DateOf(transactions[j].Date))
		})
	case SortAmountDesc:
		sort.SliceStable(transactions, func(i, j int) bool {
			return transactions[i].Amount.GreaterThan(transactions[j].Amount)
		})
	case SortAmountAsc:
		sort.SliceStable(transactions, func(i, j int) bool {
			return transactions[i].Amount.LessThan(transactions[j].Amount)
		})
	case SortCategoryAsc:
		c := collate.New(language.Und)
		sort.SliceStable(transactions, func(i, j int) bool {
			return c.CompareString(transactions[i].Category, transactions[j].Category) < 0
		})
	}
}

// EligibleCategories returns the categories a transaction of the given type
// may reference: those whose type matches, plus "both" categories. Order is
// preserved from the input (canonical name ascending when fed from the
// store).
func EligibleCategories(categories []entity.Category, t entity.TransactionType) []entity.Category {
	out := make([]entity.Category, 0, len(categories))
	for _, c := range categories {
		if c.EligibleFor(t) {
			out = append(out, c)
		}
	}
	return out
}

// CategoryNames returns the distinct category names referenced by the
// transactions, sorted ascending with a locale-aware compare. Dangling
// references to renamed or deleted categories are included as-is.
func CategoryNames(transactions []entity.Transaction) []string {
	seen := make(map[string]struct{})
	for _, t := range transactions {
		if t.Category != "" {
			seen[t.Category] = struct{}{}
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	c := collate.New(language.Und)
	c.SortStrings(names)
	return names
}

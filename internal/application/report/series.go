// Package report derives filtered views and time-bucketed aggregates from a
// ledger snapshot.
package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/budget-tracker/ledger/internal/domain/entity"
)

// MonthPoint is one month's aggregate in a yearly series.
type MonthPoint struct {
	Month    time.Month
	Income   decimal.Decimal
	Expenses decimal.Decimal
	Net      decimal.Decimal // per-month, not a running total
}

// YearSummary aggregates a full yearly series.
//
// The monthly averages always divide by 12, even when only part of the year
// has data. Reported figures depend on this divisor staying fixed.
type YearSummary struct {
	TotalIncome        decimal.Decimal
	TotalExpenses      decimal.Decimal
	Net                decimal.Decimal
	AvgMonthlyIncome   decimal.Decimal
	AvgMonthlyExpenses decimal.Decimal
}

var twelve = decimal.NewFromInt(12)

// YearlySeries buckets the given year's transactions by calendar month. The
// result always holds exactly 12 entries, January through December, with
// zero values for months that have no transactions.
func YearlySeries(transactions []entity.Transaction, year int) []MonthPoint {
	series := make([]MonthPoint, 0, 12)
	for month := time.January; month <= time.December; month++ {
		s := monthSummary(transactions, year, month)
		series = append(series, MonthPoint{
			Month:    month,
			Income:   s.Income,
			Expenses: s.Expenses,
			Net:      s.Net,
		})
	}
	return series
}

// SummarizeYear totals a yearly series.
func SummarizeYear(series []MonthPoint) YearSummary {
	totalIncome := decimal.Zero
	totalExpenses := decimal.Zero
	for _, p := range series {
		totalIncome = totalIncome.Add(p.Income)
		totalExpenses = totalExpenses.Add(p.Expenses)
	}

	return YearSummary{
		TotalIncome:        totalIncome,
		TotalExpenses:      totalExpenses,
		Net:                totalIncome.Sub(totalExpenses),
		AvgMonthlyIncome:   totalIncome.DivRound(twelve, 2),
		AvgMonthlyExpenses: totalExpenses.DivRound(twelve, 2),
	}
}

// AvailableYears returns the distinct calendar years present among the
// transaction dates, descending.
func AvailableYears(transactions []entity.Transaction) []int {
	seen := make(map[int]struct{})
	for _, t := range transactions {
		seen[entity.DateOf(t.Date).Year()] = struct{}{}
	}

	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years
}

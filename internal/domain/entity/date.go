// Package entity defines the core business entities for the domain layer.
package entity

import "time"

// DateOf truncates an instant to its calendar date, canonically represented
// as midnight UTC. All date comparisons and bucketing in the ledger operate
// on this normalized form, which makes the persisted round trip stable
// across timezone offsets.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameDateOrAfter reports whether a's calendar date is on or after b's.
func SameDateOrAfter(a, b time.Time) bool {
	return !DateOf(a).Before(DateOf(b))
}

// SameDateOrBefore reports whether a's calendar date is on or before b's.
func SameDateOrBefore(a, b time.Time) bool {
	return !DateOf(a).After(DateOf(b))
}

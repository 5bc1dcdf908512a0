package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a validated financial record as seen by the duplicate
// matcher. The caller supplies one per row plus the collections of already
// known records; the engine never owns or persists these.
type Transaction struct {
	Date        time.Time
	Amount      decimal.Decimal // signed: negative = expense, positive = income
	Institution string
	Account     string
	Statement   string // original statement text as exported by the bank
	Merchant    string
}

// SameDay reports whether two transactions fall on the same calendar date.
func (t Transaction) SameDay(o Transaction) bool {
	y1, m1, d1 := t.Date.Date()
	y2, m2, d2 := o.Date.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

package domain

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// PriceAt returns the price in effect at the given instant.
//
// Each history entry holds the price that was replaced at its Date, so the
// price in effect at t is the one replaced by the first change after t. With
// no later change the current price applies. Queries older than the first
// logged change get the oldest superseded price; the log cannot say what the
// price was before that.
func (p Product) PriceAt(at time.Time) decimal.Decimal {
	if len(p.PriceHistory) == 0 {
		return p.Price
	}

	history := slices.Clone(p.PriceHistory)
	slices.SortStableFunc(history, func(a, b PriceChange) int {
		return a.Date.Compare(b.Date)
	})
	for _, change := range history {
		if change.Date.After(at) {
			return change.Price
		}
	}
	return p.Price
}

// LastPriceChange reports the most recent history entry, if any.
func (p Product) LastPriceChange() (PriceChange, bool) {
	if len(p.PriceHistory) == 0 {
		return PriceChange{}, false
	}
	latest := p.PriceHistory[0]
	for _, change := range p.PriceHistory[1:] {
		if change.Date.After(latest.Date) {
			latest = change
		}
	}
	return latest, true
}

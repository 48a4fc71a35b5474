package report

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"

	"kasirlite/internal/domain"
	"kasirlite/internal/store"
)

type Period string

const (
	Daily   Period = "daily"
	Weekly  Period = "weekly"
	General Period = "general"
)

func ParsePeriod(raw string) (Period, error) {
	switch p := Period(strings.ToLower(strings.TrimSpace(raw))); p {
	case Daily, Weekly, General:
		return p, nil
	default:
		return "", errors.Wrapf(store.ErrInvalidArgument, "unknown report period %q", raw)
	}
}

// WindowStart returns the inclusive lower bound for the period, computed in
// now's location. General has no bound.
func WindowStart(period Period, now time.Time) (time.Time, bool) {
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch period {
	case Daily:
		return startOfDay, true
	case Weekly:
		return startOfDay.AddDate(0, 0, -7), true
	default:
		return time.Time{}, false
	}
}

// FilterByWindow keeps sales dated at or after the window start. There is no
// upper bound, so future-dated sales are kept.
func FilterByWindow(sales []domain.Sale, period Period, now time.Time) []domain.Sale {
	start, bounded := WindowStart(period, now)
	filtered := make([]domain.Sale, 0, len(sales))
	for _, sale := range sales {
		if bounded && sale.Date.Before(start) {
			continue
		}
		filtered = append(filtered, sale)
	}
	return filtered
}

// TotalForWindow sums sale totals; malformed totals add nothing.
func TotalForWindow(sales []domain.Sale) decimal.Decimal {
	total := decimal.Zero
	for _, sale := range sales {
		total = total.Add(sale.TotalOrZero())
	}
	return domain.RoundMoney(total)
}

package report

import (
	"time"

	"github.com/shopspring/decimal"

	"kasirlite/internal/domain"
)

// Report is the assembled view printed by the CLI. Daily reports carry
// per-product groups and minute buckets; weekly and general reports carry
// day buckets.
type Report struct {
	Period      Period           `json:"period"`
	GeneratedAt time.Time        `json:"generatedAt"`
	Since       *time.Time       `json:"since,omitempty"`
	Total       decimal.Decimal  `json:"total"`
	SaleCount   int              `json:"saleCount"`
	Products    []ProductSummary `json:"products,omitempty"`
	Buckets     []DateBucket     `json:"buckets"`
	Top         []ProductRevenue `json:"top"`
}

func Build(period Period, sales []domain.Sale, products []domain.Product, now time.Time, topN int) Report {
	filtered := FilterByWindow(sales, period, now)

	r := Report{
		Period:      period,
		GeneratedAt: now,
		Total:       TotalForWindow(filtered),
		SaleCount:   len(filtered),
		Top:         TopProducts(filtered, topN, products),
	}
	if start, ok := WindowStart(period, now); ok {
		r.Since = &start
	}

	if period == Daily {
		r.Products = GroupDaily(filtered)
		r.Buckets = GroupByDate(filtered, ByMinute, now.Location())
	} else {
		r.Buckets = GroupByDate(filtered, ByDay, now.Location())
	}
	return r
}

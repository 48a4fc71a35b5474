package report

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"kasirlite/internal/domain"
)

// ProductSummary is one row of the daily report.
type ProductSummary struct {
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	Total       decimal.Decimal `json:"total"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Titles      []string        `json:"titles"`
}

type Granularity int

const (
	ByMinute Granularity = iota
	ByDay
)

func (g Granularity) layout() string {
	if g == ByMinute {
		return "15:04"
	}
	return "2006-01-02"
}

func (g Granularity) truncate(t time.Time) time.Time {
	if g == ByMinute {
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, t.Location())
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

type DateBucket struct {
	Key   string          `json:"key"`
	Start time.Time       `json:"start"`
	Sales []domain.Sale   `json:"sales"`
	Total decimal.Decimal `json:"total"`
}

type ProductRevenue struct {
	ProductID   int64           `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	Revenue     decimal.Decimal `json:"revenue"`
}

// GroupDaily groups sales by product name. The unit price shown is the one
// on the first sale seen for that name.
func GroupDaily(sales []domain.Sale) []ProductSummary {
	index := make(map[string]int)
	result := make([]ProductSummary, 0)
	seenTitles := make(map[string]map[string]struct{})

	for _, sale := range sales {
		i, ok := index[sale.ProductName]
		if !ok {
			i = len(result)
			index[sale.ProductName] = i
			result = append(result, ProductSummary{
				ProductName: sale.ProductName,
				Total:       decimal.Zero,
				UnitPrice:   sale.EffectiveUnitPrice(),
				Titles:      []string{},
			})
			seenTitles[sale.ProductName] = make(map[string]struct{})
		}

		summary := &result[i]
		summary.Quantity += sale.Quantity
		summary.Total = summary.Total.Add(sale.TotalOrZero())

		title := strings.TrimSpace(sale.Title)
		if title == "" {
			continue
		}
		if _, dup := seenTitles[sale.ProductName][title]; !dup {
			seenTitles[sale.ProductName][title] = struct{}{}
			summary.Titles = append(summary.Titles, title)
		}
	}

	for i := range result {
		result[i].Total = domain.RoundMoney(result[i].Total)
	}
	slices.SortStableFunc(result, func(a, b ProductSummary) int {
		return compareNames(a.ProductName, b.ProductName)
	})
	return result
}

// GroupByDate buckets sales by minute or calendar day in loc. Buckets are
// keyed by their start instant, so a minute bucket never mixes sales from
// different days even though Key only shows "15:04". Buckets are ordered
// most recent first.
func GroupByDate(sales []domain.Sale, granularity Granularity, loc *time.Location) []DateBucket {
	if loc == nil {
		loc = time.Local
	}

	index := make(map[int64]int)
	buckets := make([]DateBucket, 0)
	for _, sale := range sales {
		local := sale.Date.In(loc)
		bucketStart := granularity.truncate(local)
		i, ok := index[bucketStart.Unix()]
		if !ok {
			i = len(buckets)
			index[bucketStart.Unix()] = i
			buckets = append(buckets, DateBucket{
				Key:   local.Format(granularity.layout()),
				Start: bucketStart,
				Total: decimal.Zero,
			})
		}
		buckets[i].Sales = append(buckets[i].Sales, sale)
		buckets[i].Total = buckets[i].Total.Add(sale.TotalOrZero())
	}

	for i := range buckets {
		buckets[i].Total = domain.RoundMoney(buckets[i].Total)
		slices.SortStableFunc(buckets[i].Sales, func(a, b domain.Sale) int {
			if c := compareNames(a.ProductName, b.ProductName); c != 0 {
				return c
			}
			return b.EffectiveUnitPrice().Cmp(a.EffectiveUnitPrice())
		})
	}
	slices.SortStableFunc(buckets, func(a, b DateBucket) int {
		return b.Start.Compare(a.Start)
	})
	return buckets
}

// TopProducts ranks products by revenue, pricing each sale at the catalog
// price in effect on its date. Sales of deleted products use their stored
// unit price. n <= 0 returns every product.
func TopProducts(sales []domain.Sale, n int, products []domain.Product) []ProductRevenue {
	catalog := make(map[int64]domain.Product, len(products))
	for _, p := range products {
		catalog[p.ID] = p
	}

	index := make(map[int64]int)
	ranked := make([]ProductRevenue, 0)
	for _, sale := range sales {
		unitPrice := sale.EffectiveUnitPrice()
		name := sale.ProductName
		if product, ok := catalog[sale.ProductID]; ok {
			unitPrice = product.PriceAt(sale.Date)
			name = product.Name
		}

		i, ok := index[sale.ProductID]
		if !ok {
			i = len(ranked)
			index[sale.ProductID] = i
			ranked = append(ranked, ProductRevenue{ProductID: sale.ProductID, ProductName: name, Revenue: decimal.Zero})
		}
		ranked[i].Quantity += sale.Quantity
		ranked[i].Revenue = ranked[i].Revenue.Add(unitPrice.Mul(decimal.NewFromInt(int64(sale.Quantity))))
	}

	for i := range ranked {
		ranked[i].Revenue = domain.RoundMoney(ranked[i].Revenue)
	}
	slices.SortStableFunc(ranked, func(a, b ProductRevenue) int {
		if c := b.Revenue.Cmp(a.Revenue); c != 0 {
			return c
		}
		if c := compareNames(a.ProductName, b.ProductName); c != 0 {
			return c
		}
		return cmp.Compare(a.ProductID, b.ProductID)
	})
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

func compareNames(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

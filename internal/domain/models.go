package domain

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Stored files use plain JSON numbers for money.
	decimal.MarshalJSONWithoutQuotes = true
}

type Product struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	Stock        int             `json:"stock"`
	PriceHistory []PriceChange   `json:"priceHistory"`
}

// PriceChange records the price that was superseded at Date.
type PriceChange struct {
	Price decimal.Decimal `json:"price"`
	Date  time.Time       `json:"date"`
}

type SaleLineItem struct {
	ProductID   int64           `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	LineTotal   decimal.Decimal `json:"lineTotal"`
}

// Sale is an immutable committed record. ProductName and UnitPrice are
// snapshots taken at commit time and survive later product edits.
type Sale struct {
	ID          int64               `json:"id"`
	ProductID   int64               `json:"productId"`
	ProductName string              `json:"productName"`
	Quantity    int                 `json:"quantity"`
	UnitPrice   decimal.NullDecimal `json:"unitPrice"`
	Total       decimal.NullDecimal `json:"total"`
	Date        time.Time           `json:"date"`
	Title       string              `json:"title,omitempty"`
	GroupID     string              `json:"groupId,omitempty"`
}

type PendingSale struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Items       []SaleLineItem  `json:"items"`
	Total       decimal.Decimal `json:"total"`
	CreatedAt   time.Time       `json:"createdAt"`
	LastUpdated time.Time       `json:"lastUpdated"`
}

// Snapshot is the whole persisted store: catalog plus sales log.
type Snapshot struct {
	Products []Product `json:"products"`
	Sales    []Sale    `json:"sales"`
}

// DraftLine is a draft item resolved against the current catalog. Drafts are
// stored apart from the catalog, so the product may have been deleted.
type DraftLine struct {
	SaleLineItem
	Label    string `json:"label"`
	Dangling bool   `json:"dangling"`
}

type DraftView struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Lines       []DraftLine     `json:"lines"`
	Total       decimal.Decimal `json:"total"`
	CreatedAt   time.Time       `json:"createdAt"`
	LastUpdated time.Time       `json:"lastUpdated"`
}

// DeletedProductLabel is shown for draft lines whose product no longer exists.
const DeletedProductLabel = "deleted product"

type saleJSON struct {
	ID          int64           `json:"id"`
	ProductID   int64           `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	UnitPrice   json.RawMessage `json:"unitPrice"`
	Total       json.RawMessage `json:"total"`
	Date        time.Time       `json:"date"`
	Title       string          `json:"title"`
	GroupID     string          `json:"groupId"`
}

// UnmarshalJSON accepts legacy records: a missing, null or non-numeric
// unitPrice/total decodes to an invalid NullDecimal instead of failing.
func (s *Sale) UnmarshalJSON(data []byte) error {
	var raw saleJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = Sale{
		ID:          raw.ID,
		ProductID:   raw.ProductID,
		ProductName: raw.ProductName,
		Quantity:    raw.Quantity,
		UnitPrice:   lenientDecimal(raw.UnitPrice),
		Total:       lenientDecimal(raw.Total),
		Date:        raw.Date,
		Title:       raw.Title,
		GroupID:     raw.GroupID,
	}
	return nil
}

func lenientDecimal(raw json.RawMessage) decimal.NullDecimal {
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" {
		return decimal.NullDecimal{}
	}
	text = strings.Trim(text, `"`)
	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// EffectiveUnitPrice is the stored unit price, or total/quantity for legacy
// records that never stored one.
func (s Sale) EffectiveUnitPrice() decimal.Decimal {
	if s.UnitPrice.Valid {
		return s.UnitPrice.Decimal
	}
	if s.Total.Valid && s.Quantity > 0 {
		return RoundMoney(s.Total.Decimal.Div(decimal.NewFromInt(int64(s.Quantity))))
	}
	return decimal.Zero
}

// TotalOrZero treats malformed totals as contributing nothing.
func (s Sale) TotalOrZero() decimal.Decimal {
	if s.Total.Valid {
		return s.Total.Decimal
	}
	return decimal.Zero
}

func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

func LineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return RoundMoney(unitPrice.Mul(decimal.NewFromInt(int64(quantity))))
}

func CloneProduct(p Product) Product {
	cloned := p
	if p.PriceHistory != nil {
		cloned.PriceHistory = append([]PriceChange(nil), p.PriceHistory...)
	}
	return cloned
}

func ClonePendingSale(p PendingSale) PendingSale {
	cloned := p
	if p.Items != nil {
		cloned.Items = append([]SaleLineItem(nil), p.Items...)
	}
	return cloned
}

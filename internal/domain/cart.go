package domain

import (
	"github.com/shopspring/decimal"
)

// Cart is an uncommitted list of line items. The zero value is empty.
type Cart struct {
	Items []SaleLineItem `json:"items"`
}

// Add appends a line priced with the given snapshot of the product.
func (c *Cart) Add(product Product, quantity int) SaleLineItem {
	item := SaleLineItem{
		ProductID:   product.ID,
		ProductName: product.Name,
		Quantity:    quantity,
		UnitPrice:   product.Price,
		LineTotal:   LineTotal(product.Price, quantity),
	}
	c.Items = append(c.Items, item)
	return item
}

// Remove drops the line at index and reports whether it existed.
func (c *Cart) Remove(index int) bool {
	if index < 0 || index >= len(c.Items) {
		return false
	}
	c.Items = append(c.Items[:index:index], c.Items[index+1:]...)
	return true
}

func (c *Cart) Empty() bool {
	return len(c.Items) == 0
}

func (c *Cart) Total() decimal.Decimal {
	return ItemsTotal(c.Items)
}

func ItemsTotal(items []SaleLineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal)
	}
	return RoundMoney(total)
}

// QuantitiesByProduct sums requested quantities per product id.
func QuantitiesByProduct(items []SaleLineItem) map[int64]int {
	agg := make(map[int64]int, len(items))
	for _, item := range items {
		agg[item.ProductID] += item.Quantity
	}
	return agg
}

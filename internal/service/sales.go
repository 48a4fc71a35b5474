package service

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"kasirlite/internal/domain"
	"kasirlite/internal/store"
)

// AddLineItem appends a line to cart priced at the product's current price.
// The price is not re-read at commit time.
func (s *Service) AddLineItem(ctx context.Context, cart *domain.Cart, productID int64, quantity int) (domain.SaleLineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity < 1 {
		return domain.SaleLineItem{}, errors.Wrapf(store.ErrInvalidArgument, "quantity %d", quantity)
	}
	product, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return domain.SaleLineItem{}, err
	}
	return cart.Add(*product, quantity), nil
}

func (s *Service) RemoveLineItem(cart *domain.Cart, index int) error {
	if !cart.Remove(index) {
		return errors.Wrapf(store.ErrInvalidArgument, "line item %d out of range", index)
	}
	return nil
}

// Commit turns the cart into sales. Stock is checked per product across the
// whole cart and the commit is all-or-nothing. On success the cart is
// emptied. An empty cart commits nothing.
func (s *Service) Commit(ctx context.Context, cart *domain.Cart, title string) ([]domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cart.Empty() {
		return []domain.Sale{}, nil
	}

	sales, err := s.buildSales(ctx, cart.Items, title, "", s.now())
	if err != nil {
		return nil, err
	}
	committed, err := s.repo.CommitSales(ctx, store.SaleBatch{Sales: sales})
	if err != nil {
		return nil, err
	}
	cart.Items = nil

	s.persistStore(ctx)
	s.logger.Info("sale committed", zap.Int("lines", len(committed)), zap.String("title", title))
	return committed, nil
}

func (s *Service) ListSales(ctx context.Context) ([]domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.repo.ListSales(ctx)
}

// buildSales converts line items into sale records. The product name is
// taken from the catalog at commit time; the unit price is the one
// snapshotted when the line was added.
func (s *Service) buildSales(ctx context.Context, items []domain.SaleLineItem, title string, groupID string, at time.Time) ([]domain.Sale, error) {
	sales := make([]domain.Sale, 0, len(items))
	for _, item := range items {
		if item.Quantity < 1 {
			return nil, errors.Wrapf(store.ErrInvalidArgument, "quantity %d for product %d", item.Quantity, item.ProductID)
		}
		product, err := s.repo.GetProduct(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		sales = append(sales, domain.Sale{
			ID:          s.ids.Next(),
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    item.Quantity,
			UnitPrice:   decimal.NewNullDecimal(item.UnitPrice),
			Total:       decimal.NewNullDecimal(domain.LineTotal(item.UnitPrice, item.Quantity)),
			Date:        at,
			Title:       strings.TrimSpace(title),
			GroupID:     groupID,
		})
	}
	return sales, nil
}

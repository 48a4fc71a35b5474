package service

import (
	"context"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"kasirlite/internal/domain"
	"kasirlite/internal/store"
)

func (s *Service) AddProduct(ctx context.Context, name string, price decimal.Decimal, initialStock int) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Product{}, errors.Wrap(store.ErrInvalidArgument, "product name is required")
	}
	if price.IsNegative() {
		return domain.Product{}, errors.Wrapf(store.ErrInvalidArgument, "negative price %s", price)
	}
	if initialStock < 0 {
		return domain.Product{}, errors.Wrapf(store.ErrInvalidArgument, "negative stock %d", initialStock)
	}

	created, err := s.repo.CreateProduct(ctx, domain.Product{
		ID:           s.ids.Next(),
		Name:         name,
		Price:        domain.RoundMoney(price),
		Stock:        initialStock,
		PriceHistory: []domain.PriceChange{},
	})
	if err != nil {
		return domain.Product{}, err
	}

	s.persistStore(ctx)
	s.logger.Info("product added", zap.Int64("product_id", created.ID), zap.String("name", created.Name))
	return *created, nil
}

// UpdatePrice records the superseded price in the product's history before
// setting the new one. Setting the current price again changes nothing.
func (s *Service) UpdatePrice(ctx context.Context, productID int64, newPrice decimal.Decimal) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if newPrice.IsNegative() {
		return domain.Product{}, errors.Wrapf(store.ErrInvalidArgument, "negative price %s", newPrice)
	}
	newPrice = domain.RoundMoney(newPrice)

	product, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return domain.Product{}, err
	}
	if product.Price.Equal(newPrice) {
		return *product, nil
	}

	if err := s.repo.RecordPriceChange(ctx, productID, product.Price, s.now()); err != nil {
		return domain.Product{}, err
	}
	updated, err := s.repo.SetPrice(ctx, productID, newPrice)
	if err != nil {
		return domain.Product{}, err
	}

	s.persistStore(ctx)
	return *updated, nil
}

// UpdateStock sets the absolute stock level.
func (s *Service) UpdateStock(ctx context.Context, productID int64, newStock int) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated, err := s.repo.SetStock(ctx, productID, newStock)
	if err != nil {
		return domain.Product{}, err
	}
	s.persistStore(ctx)
	return *updated, nil
}

// DecrementStock removes quantity units, rejecting rather than clamping when
// stock is short.
func (s *Service) DecrementStock(ctx context.Context, productID int64, quantity int) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity < 1 {
		return domain.Product{}, errors.Wrapf(store.ErrInvalidArgument, "quantity %d", quantity)
	}
	updated, err := s.repo.DecrementStock(ctx, productID, quantity)
	if err != nil {
		return domain.Product{}, err
	}
	s.persistStore(ctx)
	return *updated, nil
}

// RenameProduct changes the catalog name only; committed sales keep the
// name they were sold under.
func (s *Service) RenameProduct(ctx context.Context, productID int64, name string) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated, err := s.repo.RenameProduct(ctx, productID, strings.TrimSpace(name))
	if err != nil {
		return domain.Product{}, err
	}
	s.persistStore(ctx)
	return *updated, nil
}

// DeleteProduct removes a product from the catalog. Sales keep their
// snapshots; drafts referencing it are left as they are.
func (s *Service) DeleteProduct(ctx context.Context, productID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.DeleteProduct(ctx, productID); err != nil {
		return err
	}
	s.persistStore(ctx)
	s.logger.Info("product deleted", zap.Int64("product_id", productID))
	return nil
}

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.repo.ListProducts(ctx)
}

func (s *Service) GetProduct(ctx context.Context, productID int64) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return domain.Product{}, err
	}
	return *product, nil
}

// PriceHistory returns the product's superseded prices, oldest first.
func (s *Service) PriceHistory(ctx context.Context, productID int64) ([]domain.PriceChange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	history := slices.Clone(product.PriceHistory)
	slices.SortStableFunc(history, func(a, b domain.PriceChange) int {
		return a.Date.Compare(b.Date)
	})
	if history == nil {
		history = []domain.PriceChange{}
	}
	return history, nil
}

// LowStock lists products whose stock is at or below threshold, emptiest first.
func (s *Service) LowStock(ctx context.Context, threshold int) ([]domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	low := make([]domain.Product, 0)
	for _, p := range products {
		if p.Stock <= threshold {
			low = append(low, p)
		}
	}
	slices.SortStableFunc(low, func(a, b domain.Product) int {
		return a.Stock - b.Stock
	})
	return low, nil
}

package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"

	"kasirlite/internal/domain"
	"kasirlite/internal/store"
)

// Store is the authoritative in-memory ledger. Every method copies on the
// way in and out so callers never share slices with the store.
type Store struct {
	mu         sync.RWMutex
	products   map[int64]domain.Product
	sales      []domain.Sale
	draftsByID map[string]domain.PendingSale
}

func New() *Store {
	return &Store{
		products:   make(map[int64]domain.Product),
		sales:      make([]domain.Sale, 0, 128),
		draftsByID: make(map[string]domain.PendingSale),
	}
}

// NewSeeded returns a store holding the given snapshot, for tests and demos.
func NewSeeded(snapshot domain.Snapshot) *Store {
	s := New()
	_ = s.Restore(context.Background(), snapshot)
	return s
}

func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		products = append(products, domain.CloneProduct(p))
	}
	slices.SortFunc(products, func(a, b domain.Product) int {
		if c := strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
			return c
		}
		return cmpInt64(a.ID, b.ID)
	})
	return products, nil
}

func (s *Store) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, exists := s.products[id]
	if !exists {
		return nil, errors.Wrapf(store.ErrNotFound, "product %d", id)
	}
	copyProduct := domain.CloneProduct(product)
	return &copyProduct, nil
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(product.Name) == "" || product.Price.IsNegative() || product.Stock < 0 {
		return nil, errors.Wrap(store.ErrInvalidArgument, "product requires a name, a non-negative price and stock")
	}
	if _, exists := s.products[product.ID]; exists {
		return nil, errors.Wrapf(store.ErrInvalidArgument, "product id %d already exists", product.ID)
	}
	if product.PriceHistory == nil {
		product.PriceHistory = []domain.PriceChange{}
	}

	s.products[product.ID] = domain.CloneProduct(product)
	created := domain.CloneProduct(product)
	return &created, nil
}

func (s *Store) RenameProduct(_ context.Context, id int64, name string) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(name) == "" {
		return nil, errors.Wrap(store.ErrInvalidArgument, "product name is required")
	}
	product, exists := s.products[id]
	if !exists {
		return nil, errors.Wrapf(store.ErrNotFound, "product %d", id)
	}
	product.Name = name
	s.products[id] = product

	updated := domain.CloneProduct(product)
	return &updated, nil
}

func (s *Store) DeleteProduct(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[id]; !exists {
		return errors.Wrapf(store.ErrNotFound, "product %d", id)
	}
	delete(s.products, id)
	return nil
}

func (s *Store) RecordPriceChange(_ context.Context, id int64, previousPrice decimal.Decimal, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, exists := s.products[id]
	if !exists {
		return errors.Wrapf(store.ErrNotFound, "product %d", id)
	}
	product.PriceHistory = append(slices.Clone(product.PriceHistory), domain.PriceChange{
		Price: previousPrice,
		Date:  at,
	})
	s.products[id] = product
	return nil
}

func (s *Store) SetPrice(_ context.Context, id int64, price decimal.Decimal) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if price.IsNegative() {
		return nil, errors.Wrapf(store.ErrInvalidArgument, "negative price %s", price)
	}
	product, exists := s.products[id]
	if !exists {
		return nil, errors.Wrapf(store.ErrNotFound, "product %d", id)
	}
	product.Price = price
	s.products[id] = product

	updated := domain.CloneProduct(product)
	return &updated, nil
}

func (s *Store) SetStock(_ context.Context, id int64, stock int) (*domain.Product, error) {
	if stock < 0 {
		return nil, errors.Wrapf(store.ErrInvalidArgument, "negative stock %d", stock)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	product, exists := s.products[id]
	if !exists {
		return nil, errors.Wrapf(store.ErrNotFound, "product %d", id)
	}
	product.Stock = stock
	s.products[id] = product

	updated := domain.CloneProduct(product)
	return &updated, nil
}

func (s *Store) DecrementStock(_ context.Context, id int64, quantity int) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkStockLocked(map[int64]int{id: quantity}); err != nil {
		return nil, err
	}
	s.decrementLocked(id, quantity)

	updated := domain.CloneProduct(s.products[id])
	return &updated, nil
}

func (s *Store) CommitSales(_ context.Context, batch store.SaleBatch) ([]domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(batch.Sales) == 0 && len(batch.ConsumedDrafts) == 0 {
		return []domain.Sale{}, nil
	}

	for _, draftID := range batch.ConsumedDrafts {
		if _, exists := s.draftsByID[draftID]; !exists {
			return nil, errors.Wrapf(store.ErrNotFound, "pending sale %s", draftID)
		}
	}

	requested := make(map[int64]int, len(batch.Sales))
	saleIDs := make(map[int64]struct{}, len(batch.Sales))
	for _, sale := range batch.Sales {
		if _, dup := saleIDs[sale.ID]; dup {
			return nil, errors.Wrapf(store.ErrInvalidArgument, "duplicate sale id %d", sale.ID)
		}
		saleIDs[sale.ID] = struct{}{}
		if sale.Quantity < 1 {
			return nil, errors.Wrapf(store.ErrInvalidArgument, "sale %d has quantity %d", sale.ID, sale.Quantity)
		}
		requested[sale.ProductID] += sale.Quantity
	}
	if err := s.checkStockLocked(requested); err != nil {
		return nil, err
	}

	// Everything below is infallible; the batch is applied as a whole.
	for _, sale := range batch.Sales {
		s.decrementLocked(sale.ProductID, sale.Quantity)
	}
	s.sales = append(s.sales, batch.Sales...)
	for _, draftID := range batch.ConsumedDrafts {
		delete(s.draftsByID, draftID)
	}

	return slices.Clone(batch.Sales), nil
}

// checkStockLocked validates all requested quantities and reports every
// shortage at once. Unknown products fail with ErrNotFound.
func (s *Store) checkStockLocked(requested map[int64]int) error {
	ids := make([]int64, 0, len(requested))
	for id := range requested {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	var shortages []store.Shortage
	for _, id := range ids {
		qty := requested[id]
		if qty < 1 {
			return errors.Wrapf(store.ErrInvalidArgument, "quantity %d for product %d", qty, id)
		}
		product, exists := s.products[id]
		if !exists {
			return errors.Wrapf(store.ErrNotFound, "product %d", id)
		}
		if qty > product.Stock {
			shortages = append(shortages, store.Shortage{
				ProductID:   id,
				ProductName: product.Name,
				Requested:   qty,
				Available:   product.Stock,
			})
		}
	}
	if len(shortages) > 0 {
		return &store.StockError{Shortages: shortages}
	}
	return nil
}

func (s *Store) decrementLocked(id int64, quantity int) {
	product := s.products[id]
	product.Stock -= quantity
	s.products[id] = product
}

func (s *Store) ListSales(_ context.Context) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.sales), nil
}

func (s *Store) SaveDraft(_ context.Context, draft domain.PendingSale) (*domain.PendingSale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if draft.ID == "" {
		return nil, errors.Wrap(store.ErrInvalidArgument, "pending sale id is required")
	}
	s.draftsByID[draft.ID] = domain.ClonePendingSale(draft)
	saved := domain.ClonePendingSale(draft)
	return &saved, nil
}

func (s *Store) GetDraft(_ context.Context, id string) (*domain.PendingSale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	draft, exists := s.draftsByID[id]
	if !exists {
		return nil, errors.Wrapf(store.ErrNotFound, "pending sale %s", id)
	}
	result := domain.ClonePendingSale(draft)
	return &result, nil
}

// ListDrafts returns drafts most recently updated first.
func (s *Store) ListDrafts(_ context.Context) ([]domain.PendingSale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.PendingSale, 0, len(s.draftsByID))
	for _, draft := range s.draftsByID {
		result = append(result, domain.ClonePendingSale(draft))
	}
	slices.SortFunc(result, func(a, b domain.PendingSale) int {
		if c := b.LastUpdated.Compare(a.LastUpdated); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return result, nil
}

func (s *Store) DeleteDraft(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.draftsByID[id]; !exists {
		return errors.Wrapf(store.ErrNotFound, "pending sale %s", id)
	}
	delete(s.draftsByID, id)
	return nil
}

// Snapshot returns products ordered by id and sales in commit order.
func (s *Store) Snapshot(_ context.Context) (domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		products = append(products, domain.CloneProduct(p))
	}
	slices.SortFunc(products, func(a, b domain.Product) int {
		return cmpInt64(a.ID, b.ID)
	})
	return domain.Snapshot{
		Products: products,
		Sales:    slices.Clone(s.sales),
	}, nil
}

func (s *Store) Restore(_ context.Context, snapshot domain.Snapshot) error {
	if err := store.ValidateSnapshot(snapshot); err != nil {
		return err
	}

	products := make(map[int64]domain.Product, len(snapshot.Products))
	for _, p := range snapshot.Products {
		cloned := domain.CloneProduct(p)
		// Prices are held at two decimals, as every write path does.
		cloned.Price = domain.RoundMoney(cloned.Price)
		if cloned.PriceHistory == nil {
			cloned.PriceHistory = []domain.PriceChange{}
		}
		products[p.ID] = cloned
	}
	sales := make([]domain.Sale, 0, len(snapshot.Sales)+128)
	sales = append(sales, snapshot.Sales...)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.products = products
	s.sales = sales
	return nil
}

func (s *Store) RestoreDrafts(_ context.Context, drafts []domain.PendingSale) error {
	byID := make(map[string]domain.PendingSale, len(drafts))
	for _, draft := range drafts {
		if draft.ID == "" {
			return errors.Wrap(store.ErrInvalidArgument, "pending sale without id")
		}
		if _, dup := byID[draft.ID]; dup {
			return errors.Wrapf(store.ErrInvalidArgument, "duplicate pending sale id %s", draft.ID)
		}
		byID[draft.ID] = domain.ClonePendingSale(draft)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.draftsByID = byID
	return nil
}

func cmpInt64(a int64, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"

	"kasirlite/internal/domain"
)

//go:generate mockgen -destination=mock/persistence_mock.go -package=mock kasirlite/internal/store Persistence

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrPersistence       = errors.New("persistence failure")
)

// Shortage describes one product that cannot cover a requested quantity.
type Shortage struct {
	ProductID   int64
	ProductName string
	Requested   int
	Available   int
}

// StockError lists every product that failed a stock check. It matches
// ErrInsufficientStock under errors.Is.
type StockError struct {
	Shortages []Shortage
}

func (e *StockError) Error() string {
	parts := make([]string, 0, len(e.Shortages))
	for _, s := range e.Shortages {
		parts = append(parts, fmt.Sprintf("%s (id %d): requested %d, available %d", s.ProductName, s.ProductID, s.Requested, s.Available))
	}
	return "insufficient stock: " + strings.Join(parts, "; ")
}

func (e *StockError) Unwrap() error {
	return ErrInsufficientStock
}

// SaleBatch is committed atomically: every sale is stock-checked (summed per
// product) before any stock moves, and the listed drafts are removed with it.
type SaleBatch struct {
	Sales          []domain.Sale
	ConsumedDrafts []string
}

// Repository is the in-memory ledger that owns products, their price
// history, the sales log and pending drafts.
type Repository interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	RenameProduct(ctx context.Context, id int64, name string) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	RecordPriceChange(ctx context.Context, id int64, previousPrice decimal.Decimal, at time.Time) error
	SetPrice(ctx context.Context, id int64, price decimal.Decimal) (*domain.Product, error)
	SetStock(ctx context.Context, id int64, stock int) (*domain.Product, error)
	DecrementStock(ctx context.Context, id int64, quantity int) (*domain.Product, error)
	CommitSales(ctx context.Context, batch SaleBatch) ([]domain.Sale, error)
	ListSales(ctx context.Context) ([]domain.Sale, error)
	SaveDraft(ctx context.Context, draft domain.PendingSale) (*domain.PendingSale, error)
	GetDraft(ctx context.Context, id string) (*domain.PendingSale, error)
	ListDrafts(ctx context.Context) ([]domain.PendingSale, error)
	DeleteDraft(ctx context.Context, id string) error
	Snapshot(ctx context.Context) (domain.Snapshot, error)
	Restore(ctx context.Context, snapshot domain.Snapshot) error
	RestoreDrafts(ctx context.Context, drafts []domain.PendingSale) error
}

// Persistence loads and saves whole collections. The store and the drafts
// are independent units; a save always overwrites the previous contents.
type Persistence interface {
	LoadStore(ctx context.Context) (domain.Snapshot, error)
	SaveStore(ctx context.Context, snapshot domain.Snapshot) error
	LoadDrafts(ctx context.Context) ([]domain.PendingSale, error)
	SaveDrafts(ctx context.Context, drafts []domain.PendingSale) error
}

// ValidateSnapshot checks the invariants an imported or loaded store must hold.
func ValidateSnapshot(snapshot domain.Snapshot) error {
	productIDs := make(map[int64]struct{}, len(snapshot.Products))
	for _, p := range snapshot.Products {
		if _, dup := productIDs[p.ID]; dup {
			return errors.Wrapf(ErrInvalidArgument, "duplicate product id %d", p.ID)
		}
		productIDs[p.ID] = struct{}{}
		if p.Stock < 0 {
			return errors.Wrapf(ErrInvalidArgument, "product %d has negative stock %d", p.ID, p.Stock)
		}
		if p.Price.IsNegative() {
			return errors.Wrapf(ErrInvalidArgument, "product %d has negative price", p.ID)
		}
	}

	saleIDs := make(map[int64]struct{}, len(snapshot.Sales))
	for _, s := range snapshot.Sales {
		if _, dup := saleIDs[s.ID]; dup {
			return errors.Wrapf(ErrInvalidArgument, "duplicate sale id %d", s.ID)
		}
		saleIDs[s.ID] = struct{}{}
		if s.Quantity < 1 {
			return errors.Wrapf(ErrInvalidArgument, "sale %d has non-positive quantity %d", s.ID, s.Quantity)
		}
	}
	return nil
}

package memory

import (
	"context"
	"slices"
	"sync"

	"kasirlite/internal/domain"
)

// Backend is a store.Persistence kept in process memory. It backs ephemeral
// runs and tests; FailSaves makes every save return the given error.
type Backend struct {
	mu         sync.Mutex
	snapshot   domain.Snapshot
	drafts     []domain.PendingSale
	storeSaves int
	draftSaves int
	FailSaves  error
}

func NewBackend() *Backend {
	return &Backend{}
}

func (b *Backend) LoadStore(_ context.Context) (domain.Snapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return cloneSnapshot(b.snapshot), nil
}

func (b *Backend) SaveStore(_ context.Context, snapshot domain.Snapshot) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.FailSaves != nil {
		return b.FailSaves
	}
	b.snapshot = cloneSnapshot(snapshot)
	b.storeSaves++
	return nil
}

func (b *Backend) LoadDrafts(_ context.Context) ([]domain.PendingSale, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return cloneDrafts(b.drafts), nil
}

func (b *Backend) SaveDrafts(_ context.Context, drafts []domain.PendingSale) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.FailSaves != nil {
		return b.FailSaves
	}
	b.drafts = cloneDrafts(drafts)
	b.draftSaves++
	return nil
}

// Saves reports how many store and draft saves succeeded.
func (b *Backend) Saves() (storeSaves int, draftSaves int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.storeSaves, b.draftSaves
}

func cloneSnapshot(src domain.Snapshot) domain.Snapshot {
	products := make([]domain.Product, 0, len(src.Products))
	for _, p := range src.Products {
		products = append(products, domain.CloneProduct(p))
	}
	sales := slices.Clone(src.Sales)
	if sales == nil {
		sales = []domain.Sale{}
	}
	return domain.Snapshot{Products: products, Sales: sales}
}

func cloneDrafts(src []domain.PendingSale) []domain.PendingSale {
	drafts := make([]domain.PendingSale, 0, len(src))
	for _, d := range src {
		drafts = append(drafts, domain.ClonePendingSale(d))
	}
	return drafts
}

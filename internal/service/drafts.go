package service

import (
	"context"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"kasirlite/internal/domain"
	"kasirlite/internal/store"
	"kasirlite/internal/xid"
)

// SaveDraft stores a new pending sale. Drafts never touch stock or the
// sales log until completed.
func (s *Service) SaveDraft(ctx context.Context, items []domain.SaleLineItem, title string) (domain.PendingSale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	normalized, err := normalizeItems(items)
	if err != nil {
		return domain.PendingSale{}, err
	}

	now := s.now()
	saved, err := s.repo.SaveDraft(ctx, domain.PendingSale{
		ID:          xid.New("draft"),
		Title:       strings.TrimSpace(title),
		Items:       normalized,
		Total:       domain.ItemsTotal(normalized),
		CreatedAt:   now,
		LastUpdated: now,
	})
	if err != nil {
		return domain.PendingSale{}, err
	}

	s.persistDrafts(ctx)
	return *saved, nil
}

// UpdateDraft replaces the items and title of an existing draft.
func (s *Service) UpdateDraft(ctx context.Context, draftID string, items []domain.SaleLineItem, title string) (domain.PendingSale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	draft, err := s.repo.GetDraft(ctx, draftID)
	if err != nil {
		return domain.PendingSale{}, err
	}
	normalized, err := normalizeItems(items)
	if err != nil {
		return domain.PendingSale{}, err
	}
	draft.Items = normalized
	draft.Title = strings.TrimSpace(title)
	return s.saveDraftLocked(ctx, *draft)
}

func (s *Service) AddDraftItem(ctx context.Context, draftID string, productID int64, quantity int) (domain.PendingSale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity < 1 {
		return domain.PendingSale{}, errors.Wrapf(store.ErrInvalidArgument, "quantity %d", quantity)
	}
	draft, err := s.repo.GetDraft(ctx, draftID)
	if err != nil {
		return domain.PendingSale{}, err
	}
	product, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return domain.PendingSale{}, err
	}

	cart := domain.Cart{Items: draft.Items}
	cart.Add(*product, quantity)
	draft.Items = cart.Items
	return s.saveDraftLocked(ctx, *draft)
}

func (s *Service) RemoveDraftItem(ctx context.Context, draftID string, index int) (domain.PendingSale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	draft, err := s.repo.GetDraft(ctx, draftID)
	if err != nil {
		return domain.PendingSale{}, err
	}
	cart := domain.Cart{Items: draft.Items}
	if !cart.Remove(index) {
		return domain.PendingSale{}, errors.Wrapf(store.ErrInvalidArgument, "line item %d out of range", index)
	}
	draft.Items = cart.Items
	return s.saveDraftLocked(ctx, *draft)
}

func (s *Service) saveDraftLocked(ctx context.Context, draft domain.PendingSale) (domain.PendingSale, error) {
	if draft.Items == nil {
		draft.Items = []domain.SaleLineItem{}
	}
	draft.Total = domain.ItemsTotal(draft.Items)
	draft.LastUpdated = s.now()

	saved, err := s.repo.SaveDraft(ctx, draft)
	if err != nil {
		return domain.PendingSale{}, err
	}
	s.persistDrafts(ctx)
	return *saved, nil
}

func (s *Service) GetDraft(ctx context.Context, draftID string) (domain.PendingSale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	draft, err := s.repo.GetDraft(ctx, draftID)
	if err != nil {
		return domain.PendingSale{}, err
	}
	return *draft, nil
}

// ListDrafts returns pending sales, most recently updated first.
func (s *Service) ListDrafts(ctx context.Context) ([]domain.PendingSale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.repo.ListDrafts(ctx)
}

// DescribeDraft resolves each draft line against the current catalog. Lines
// whose product was deleted are flagged and labelled as such.
func (s *Service) DescribeDraft(ctx context.Context, draftID string) (domain.DraftView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	draft, err := s.repo.GetDraft(ctx, draftID)
	if err != nil {
		return domain.DraftView{}, err
	}

	view := domain.DraftView{
		ID:          draft.ID,
		Title:       draft.Title,
		Lines:       make([]domain.DraftLine, 0, len(draft.Items)),
		Total:       draft.Total,
		CreatedAt:   draft.CreatedAt,
		LastUpdated: draft.LastUpdated,
	}
	for _, item := range draft.Items {
		line := domain.DraftLine{SaleLineItem: item}
		product, err := s.repo.GetProduct(ctx, item.ProductID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			line.Label = domain.DeletedProductLabel
			line.Dangling = true
		case err != nil:
			return domain.DraftView{}, err
		default:
			line.Label = product.Name
		}
		view.Lines = append(view.Lines, line)
	}
	return view, nil
}

// CompleteDraft commits the draft's items under its title and removes the
// draft in the same step. Sales carry the draft id as their group id. An
// empty draft commits nothing and is kept.
func (s *Service) CompleteDraft(ctx context.Context, draftID string) ([]domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	draft, err := s.repo.GetDraft(ctx, draftID)
	if err != nil {
		return nil, err
	}
	if len(draft.Items) == 0 {
		return []domain.Sale{}, nil
	}
	sales, err := s.buildSales(ctx, draft.Items, draft.Title, draft.ID, s.now())
	if err != nil {
		return nil, err
	}
	committed, err := s.repo.CommitSales(ctx, store.SaleBatch{Sales: sales, ConsumedDrafts: []string{draft.ID}})
	if err != nil {
		return nil, err
	}

	s.persistStore(ctx)
	s.persistDrafts(ctx)
	s.logger.Info("pending sale completed", zap.String("draft_id", draft.ID), zap.Int("lines", len(committed)))
	return committed, nil
}

// CompleteAllDrafts commits every pending sale as one batch. Quantities are
// summed per product across all drafts before the stock check; on failure
// nothing changes. On success every draft is cleared, empty ones included.
func (s *Service) CompleteAllDrafts(ctx context.Context) ([]domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	drafts, err := s.repo.ListDrafts(ctx)
	if err != nil {
		return nil, err
	}
	// Oldest draft first so sale ids follow draft creation order.
	slices.SortStableFunc(drafts, func(a, b domain.PendingSale) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	now := s.now()
	batch := store.SaleBatch{ConsumedDrafts: make([]string, 0, len(drafts))}
	committedDrafts := 0
	for _, draft := range drafts {
		batch.ConsumedDrafts = append(batch.ConsumedDrafts, draft.ID)
		if len(draft.Items) == 0 {
			continue
		}
		sales, err := s.buildSales(ctx, draft.Items, draft.Title, draft.ID, now)
		if err != nil {
			return nil, errors.Wrapf(err, "pending sale %s", draft.ID)
		}
		batch.Sales = append(batch.Sales, sales...)
		committedDrafts++
	}

	committed, err := s.repo.CommitSales(ctx, batch)
	if err != nil {
		return nil, err
	}
	if len(batch.ConsumedDrafts) == 0 {
		return committed, nil
	}

	if len(batch.Sales) > 0 {
		s.persistStore(ctx)
	}
	s.persistDrafts(ctx)
	s.logger.Info("all pending sales completed",
		zap.Int("drafts", committedDrafts),
		zap.Int("empty_drafts_cleared", len(drafts)-committedDrafts),
		zap.Int("lines", len(committed)),
	)
	return committed, nil
}

func (s *Service) DiscardDraft(ctx context.Context, draftID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.DeleteDraft(ctx, draftID); err != nil {
		return err
	}
	s.persistDrafts(ctx)
	return nil
}

// normalizeItems validates quantities and recomputes line totals from the
// snapshotted unit prices.
func normalizeItems(items []domain.SaleLineItem) ([]domain.SaleLineItem, error) {
	normalized := make([]domain.SaleLineItem, 0, len(items))
	for i, item := range items {
		if item.Quantity < 1 {
			return nil, errors.Wrapf(store.ErrInvalidArgument, "line item %d has quantity %d", i, item.Quantity)
		}
		if item.UnitPrice.IsNegative() {
			return nil, errors.Wrapf(store.ErrInvalidArgument, "line item %d has negative price", i)
		}
		item.LineTotal = domain.LineTotal(item.UnitPrice, item.Quantity)
		normalized = append(normalized, item)
	}
	return normalized, nil
}

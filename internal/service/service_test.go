package service

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap/zaptest"

	"kasirlite/internal/clock"
	"kasirlite/internal/domain"
	"kasirlite/internal/report"
	"kasirlite/internal/store"
	"kasirlite/internal/store/memory"
	"kasirlite/internal/store/mock"
)

var start = time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

type fixture struct {
	svc     *Service
	backend *memory.Backend
	clock   *clock.Mock
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	clk := clock.NewMock(start)
	backend := memory.NewBackend()
	svc := New(memory.New(), backend, zaptest.NewLogger(t), clk, time.UTC)
	svc.Load(context.Background())
	return fixture{svc: svc, backend: backend, clock: clk}
}

func money(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func (f fixture) addProduct(t *testing.T, name string, price string, stock int) domain.Product {
	t.Helper()

	p, err := f.svc.AddProduct(context.Background(), name, money(price), stock)
	require.NoError(t, err)
	return p
}

func (f fixture) stockOf(t *testing.T, id int64) int {
	t.Helper()

	p, err := f.svc.GetProduct(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func snapshotComparers() cmp.Options {
	return cmp.Options{
		cmp.Comparer(func(a, b decimal.NullDecimal) bool {
			return a.Valid == b.Valid && a.Decimal.Equal(b.Decimal)
		}),
		cmpopts.EquateEmpty(),
	}
}

func TestAddProductValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddProduct(ctx, "  ", money("1"), 1)
	require.ErrorIs(t, err, store.ErrInvalidArgument)
	_, err = f.svc.AddProduct(ctx, "Kopi", money("-1"), 1)
	require.ErrorIs(t, err, store.ErrInvalidArgument)
	_, err = f.svc.AddProduct(ctx, "Kopi", money("1"), -1)
	require.ErrorIs(t, err, store.ErrInvalidArgument)

	a := f.addProduct(t, " Kopi ", "4.5", 10)
	b := f.addProduct(t, "Teh", "3", 10)
	assert.Equal(t, "Kopi", a.Name)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Empty(t, a.PriceHistory)
	assert.NotNil(t, a.PriceHistory)
}

func TestUpdatePriceHistoryCountsOnlyRealChanges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.addProduct(t, "Kopi", "10", 1)

	changes := 0
	current := money("10")
	for _, next := range []string{"10", "12", "12", "9", "9", "9", "15", "15.00"} {
		f.clock.Add(time.Minute)
		price := money(next)
		if !price.Equal(current) {
			changes++
			current = price
		}
		_, err := f.svc.UpdatePrice(ctx, p.ID, price)
		require.NoError(t, err)
	}

	history, err := f.svc.PriceHistory(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, history, changes)

	superseded := make([]string, 0, len(history))
	for _, h := range history {
		superseded = append(superseded, h.Price.String())
	}
	assert.Equal(t, []string{"10", "12", "9"}, superseded)

	_, err = f.svc.UpdatePrice(ctx, 42, money("1"))
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = f.svc.UpdatePrice(ctx, p.ID, money("-2"))
	require.ErrorIs(t, err, store.ErrInvalidArgument)
}

func TestUpdatePriceOnImportedUnroundedPrice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.ImportStore(ctx, strings.NewReader(
		`{"products":[{"id":1,"name":"Kopi","price":4.255,"stock":1,"priceHistory":[]}],"sales":[]}`,
	)))

	_, err := f.svc.UpdatePrice(ctx, 1, money("4.255"))
	require.NoError(t, err)

	history, err := f.svc.PriceHistory(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestPriceAtFollowsRecordedTimeline(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.addProduct(t, "Kopi", "10", 1)

	t1 := start.Add(time.Hour)
	f.clock.Set(t1)
	_, err := f.svc.UpdatePrice(ctx, p.ID, money("12"))
	require.NoError(t, err)

	t2 := start.Add(2 * time.Hour)
	f.clock.Set(t2)
	_, err = f.svc.UpdatePrice(ctx, p.ID, money("9"))
	require.NoError(t, err)

	p, err = f.svc.GetProduct(ctx, p.ID)
	require.NoError(t, err)

	assert.True(t, p.PriceAt(start.Add(-time.Hour)).Equal(money("10")), "before history: oldest entry")
	assert.True(t, p.PriceAt(t1.Add(-time.Second)).Equal(money("10")))
	assert.True(t, p.PriceAt(t1).Equal(money("12")))
	assert.True(t, p.PriceAt(t1.Add(30*time.Minute)).Equal(money("12")))
	assert.True(t, p.PriceAt(t2).Equal(money("9")), "at latest change: current price")
	assert.True(t, p.PriceAt(t2.Add(24*time.Hour)).Equal(money("9")))
}

func TestUpdateAndDecrementStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.addProduct(t, "Kopi", "4", 5)

	_, err := f.svc.UpdateStock(ctx, p.ID, -1)
	require.ErrorIs(t, err, store.ErrInvalidArgument)
	_, err = f.svc.UpdateStock(ctx, 999, 3)
	require.ErrorIs(t, err, store.ErrNotFound)

	updated, err := f.svc.UpdateStock(ctx, p.ID, 8)
	require.NoError(t, err)
	assert.Equal(t, 8, updated.Stock)

	_, err = f.svc.DecrementStock(ctx, p.ID, 9)
	require.ErrorIs(t, err, store.ErrInsufficientStock)
	assert.Equal(t, 8, f.stockOf(t, p.ID))

	_, err = f.svc.DecrementStock(ctx, p.ID, 0)
	require.ErrorIs(t, err, store.ErrInvalidArgument)

	updated, err = f.svc.DecrementStock(ctx, p.ID, 8)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.Stock)
}

func TestRenameDeleteListAndLowStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	kopi := f.addProduct(t, "kopi", "4", 2)
	teh := f.addProduct(t, "Teh", "3", 10)
	air := f.addProduct(t, "Air", "2", 1)

	_, err := f.svc.RenameProduct(ctx, kopi.ID, "")
	require.ErrorIs(t, err, store.ErrInvalidArgument)
	renamed, err := f.svc.RenameProduct(ctx, kopi.ID, "Kopi Susu")
	require.NoError(t, err)
	assert.Equal(t, "Kopi Susu", renamed.Name)

	products, err := f.svc.ListProducts(ctx)
	require.NoError(t, err)
	names := make([]string, 0, len(products))
	for _, p := range products {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"Air", "Kopi Susu", "Teh"}, names)

	low, err := f.svc.LowStock(ctx, 2)
	require.NoError(t, err)
	require.Len(t, low, 2)
	assert.Equal(t, air.ID, low[0].ID)
	assert.Equal(t, kopi.ID, low[1].ID)

	require.NoError(t, f.svc.DeleteProduct(ctx, teh.ID))
	require.ErrorIs(t, f.svc.DeleteProduct(ctx, teh.ID), store.ErrNotFound)
	_, err = f.svc.GetProduct(ctx, teh.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestCommitCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	kopi := f.addProduct(t, "Kopi", "4", 5)
	teh := f.addProduct(t, "Teh", "3", 5)

	var cart domain.Cart
	_, err := f.svc.AddLineItem(ctx, &cart, kopi.ID, 2)
	require.NoError(t, err)
	_, err = f.svc.AddLineItem(ctx, &cart, teh.ID, 1)
	require.NoError(t, err)
	assert.True(t, cart.Total().Equal(money("11")))

	// The price captured at add time wins over a later change.
	_, err = f.svc.UpdatePrice(ctx, kopi.ID, money("6"))
	require.NoError(t, err)

	sales, err := f.svc.Commit(ctx, &cart, "meja 3")
	require.NoError(t, err)
	require.Len(t, sales, 2)
	assert.True(t, cart.Empty())

	assert.Equal(t, kopi.ID, sales[0].ProductID)
	assert.Equal(t, "Kopi", sales[0].ProductName)
	assert.True(t, sales[0].UnitPrice.Decimal.Equal(money("4")))
	assert.True(t, sales[0].Total.Decimal.Equal(money("8")))
	assert.Equal(t, "meja 3", sales[0].Title)
	assert.Equal(t, start, sales[0].Date)
	assert.NotEqual(t, sales[0].ID, sales[1].ID)

	assert.Equal(t, 3, f.stockOf(t, kopi.ID))
	assert.Equal(t, 4, f.stockOf(t, teh.ID))

	all, err := f.svc.ListSales(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestCommitIsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	kopi := f.addProduct(t, "Kopi", "4", 5)
	teh := f.addProduct(t, "Teh", "3", 3)

	var cart domain.Cart
	_, err := f.svc.AddLineItem(ctx, &cart, kopi.ID, 2)
	require.NoError(t, err)
	_, err = f.svc.AddLineItem(ctx, &cart, teh.ID, 4)
	require.NoError(t, err)

	_, err = f.svc.Commit(ctx, &cart, "")
	require.ErrorIs(t, err, store.ErrInsufficientStock)

	var stockErr *store.StockError
	require.True(t, errors.As(err, &stockErr))
	require.Len(t, stockErr.Shortages, 1)
	assert.Equal(t, teh.ID, stockErr.Shortages[0].ProductID)
	assert.Equal(t, 4, stockErr.Shortages[0].Requested)
	assert.Equal(t, 3, stockErr.Shortages[0].Available)

	assert.Equal(t, 5, f.stockOf(t, kopi.ID))
	assert.Equal(t, 3, f.stockOf(t, teh.ID))
	assert.Len(t, cart.Items, 2, "cart is kept for correction")

	sales, err := f.svc.ListSales(ctx)
	require.NoError(t, err)
	assert.Empty(t, sales)
}

func TestCommitAggregatesSameProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	kopi := f.addProduct(t, "Kopi", "4", 5)

	var cart domain.Cart
	for i := 0; i < 2; i++ {
		_, err := f.svc.AddLineItem(ctx, &cart, kopi.ID, 3)
		require.NoError(t, err)
	}

	_, err := f.svc.Commit(ctx, &cart, "")
	require.ErrorIs(t, err, store.ErrInsufficientStock)
	assert.Equal(t, 5, f.stockOf(t, kopi.ID))
}

func TestCartEdgeCases(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	kopi := f.addProduct(t, "Kopi", "4", 5)
	storeSaves, _ := f.backend.Saves()

	var cart domain.Cart
	sales, err := f.svc.Commit(ctx, &cart, "")
	require.NoError(t, err)
	assert.Empty(t, sales)
	afterSaves, _ := f.backend.Saves()
	assert.Equal(t, storeSaves, afterSaves, "empty commit does not save")

	_, err = f.svc.AddLineItem(ctx, &cart, kopi.ID, 0)
	require.ErrorIs(t, err, store.ErrInvalidArgument)
	_, err = f.svc.AddLineItem(ctx, &cart, 404, 1)
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = f.svc.AddLineItem(ctx, &cart, kopi.ID, 1)
	require.NoError(t, err)
	_, err = f.svc.AddLineItem(ctx, &cart, kopi.ID, 2)
	require.NoError(t, err)
	require.ErrorIs(t, f.svc.RemoveLineItem(&cart, 2), store.ErrInvalidArgument)
	require.NoError(t, f.svc.RemoveLineItem(&cart, 0))
	assert.True(t, cart.Total().Equal(money("8")))

	require.NoError(t, f.svc.DeleteProduct(ctx, kopi.ID))
	_, err = f.svc.Commit(ctx, &cart, "")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func (f fixture) draftWith(t *testing.T, title string, productID int64, qty int) domain.PendingSale {
	t.Helper()
	ctx := context.Background()

	var cart domain.Cart
	_, err := f.svc.AddLineItem(ctx, &cart, productID, qty)
	require.NoError(t, err)
	draft, err := f.svc.SaveDraft(ctx, cart.Items, title)
	require.NoError(t, err)
	return draft
}

func TestDraftLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	kopi := f.addProduct(t, "Kopi", "4", 10)
	teh := f.addProduct(t, "Teh", "3", 10)

	first := f.draftWith(t, "bu ani", kopi.ID, 1)
	assert.True(t, strings.HasPrefix(first.ID, "draft-"))
	assert.Equal(t, start, first.CreatedAt)
	assert.True(t, first.Total.Equal(money("4")))

	f.clock.Add(time.Minute)
	second := f.draftWith(t, "pak budi", teh.ID, 2)

	drafts, err := f.svc.ListDrafts(ctx)
	require.NoError(t, err)
	require.Len(t, drafts, 2)
	assert.Equal(t, second.ID, drafts[0].ID)

	f.clock.Add(time.Minute)
	updated, err := f.svc.AddDraftItem(ctx, first.ID, teh.ID, 2)
	require.NoError(t, err)
	require.Len(t, updated.Items, 2)
	assert.True(t, updated.Total.Equal(money("10")))
	assert.Equal(t, start, updated.CreatedAt)
	assert.Equal(t, start.Add(2*time.Minute), updated.LastUpdated)

	drafts, err = f.svc.ListDrafts(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, drafts[0].ID)

	updated, err = f.svc.RemoveDraftItem(ctx, first.ID, 0)
	require.NoError(t, err)
	require.Len(t, updated.Items, 1)
	assert.Equal(t, teh.ID, updated.Items[0].ProductID)
	_, err = f.svc.RemoveDraftItem(ctx, first.ID, 5)
	require.ErrorIs(t, err, store.ErrInvalidArgument)

	f.clock.Add(time.Minute)
	updated, err = f.svc.UpdateDraft(ctx, first.ID, updated.Items, "bu ani (revisi)")
	require.NoError(t, err)
	assert.Equal(t, "bu ani (revisi)", updated.Title)
	assert.Equal(t, start.Add(3*time.Minute), updated.LastUpdated)

	_, err = f.svc.UpdateDraft(ctx, "draft-missing", nil, "x")
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = f.svc.SaveDraft(ctx, []domain.SaleLineItem{{ProductID: kopi.ID, Quantity: 0}}, "x")
	require.ErrorIs(t, err, store.ErrInvalidArgument)

	// Drafts never move stock.
	assert.Equal(t, 10, f.stockOf(t, kopi.ID))
	assert.Equal(t, 10, f.stockOf(t, teh.ID))

	require.NoError(t, f.svc.DiscardDraft(ctx, second.ID))
	require.ErrorIs(t, f.svc.DiscardDraft(ctx, second.ID), store.ErrNotFound)
	_, err = f.svc.GetDraft(ctx, second.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestCompleteDraft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	kopi := f.addProduct(t, "Kopi", "4", 10)
	draft := f.draftWith(t, "bu ani", kopi.ID, 3)

	f.clock.Add(time.Hour)
	sales, err := f.svc.CompleteDraft(ctx, draft.ID)
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, draft.ID, sales[0].GroupID)
	assert.Equal(t, "bu ani", sales[0].Title)
	assert.Equal(t, start.Add(time.Hour), sales[0].Date)
	assert.Equal(t, 7, f.stockOf(t, kopi.ID))

	_, err = f.svc.GetDraft(ctx, draft.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = f.svc.CompleteDraft(ctx, draft.ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	_, draftSaves := f.backend.Saves()
	assert.Positive(t, draftSaves)
}

func TestCompleteDraftFailureKeepsDraft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	kopi := f.addProduct(t, "Kopi", "4", 2)
	draft := f.draftWith(t, "borongan", kopi.ID, 3)

	_, err := f.svc.CompleteDraft(ctx, draft.ID)
	require.ErrorIs(t, err, store.ErrInsufficientStock)

	kept, err := f.svc.GetDraft(ctx, draft.ID)
	require.NoError(t, err)
	assert.Len(t, kept.Items, 1)
	assert.Equal(t, 2, f.stockOf(t, kopi.ID))
}

func TestCompleteAllDraftsAggregatesAcrossDrafts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	kopi := f.addProduct(t, "Kopi", "4", 5)

	first := f.draftWith(t, "satu", kopi.ID, 3)
	f.clock.Add(time.Second)
	second := f.draftWith(t, "dua", kopi.ID, 3)

	_, err := f.svc.CompleteAllDrafts(ctx)
	require.ErrorIs(t, err, store.ErrInsufficientStock)
	assert.Equal(t, 5, f.stockOf(t, kopi.ID))

	drafts, err := f.svc.ListDrafts(ctx)
	require.NoError(t, err)
	require.Len(t, drafts, 2)
	sales, err := f.svc.ListSales(ctx)
	require.NoError(t, err)
	assert.Empty(t, sales)

	_, err = f.svc.UpdateDraft(ctx, first.ID, []domain.SaleLineItem{{
		ProductID: kopi.ID,
		Quantity:  2,
		UnitPrice: money("4"),
	}}, first.Title)
	require.NoError(t, err)

	committed, err := f.svc.CompleteAllDrafts(ctx)
	require.NoError(t, err)
	require.Len(t, committed, 2)
	for _, sale := range committed {
		assert.Equal(t, kopi.ID, sale.ProductID)
	}
	assert.Equal(t, first.ID, committed[0].GroupID)
	assert.Equal(t, second.ID, committed[1].GroupID)
	assert.Equal(t, 0, f.stockOf(t, kopi.ID))

	drafts, err = f.svc.ListDrafts(ctx)
	require.NoError(t, err)
	assert.Empty(t, drafts)
	sales, err = f.svc.ListSales(ctx)
	require.NoError(t, err)
	assert.Len(t, sales, 2)
}

func TestCompleteEmptyDraftIsNoOp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	empty, err := f.svc.SaveDraft(ctx, nil, "kosong")
	require.NoError(t, err)

	sales, err := f.svc.CompleteDraft(ctx, empty.ID)
	require.NoError(t, err)
	assert.Empty(t, sales)

	_, err = f.svc.GetDraft(ctx, empty.ID)
	require.NoError(t, err)
}

func TestCompleteAllDraftsClearsEmptyDrafts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.SaveDraft(ctx, nil, "kosong")
	require.NoError(t, err)

	sales, err := f.svc.CompleteAllDrafts(ctx)
	require.NoError(t, err)
	assert.Empty(t, sales)

	drafts, err := f.svc.ListDrafts(ctx)
	require.NoError(t, err)
	assert.Empty(t, drafts)
}

func TestCompleteAllDraftsMixedEmptyAndFilled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	kopi := f.addProduct(t, "Kopi", "4", 5)

	f.draftWith(t, "satu", kopi.ID, 2)
	f.clock.Add(time.Second)
	_, err := f.svc.SaveDraft(ctx, nil, "kosong")
	require.NoError(t, err)

	sales, err := f.svc.CompleteAllDrafts(ctx)
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, 3, f.stockOf(t, kopi.ID))

	drafts, err := f.svc.ListDrafts(ctx)
	require.NoError(t, err)
	assert.Empty(t, drafts)
}

func TestCompleteAllDraftsFailureKeepsEmptyDrafts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	kopi := f.addProduct(t, "Kopi", "4", 1)

	f.draftWith(t, "kebanyakan", kopi.ID, 2)
	_, err := f.svc.SaveDraft(ctx, nil, "kosong")
	require.NoError(t, err)

	_, err = f.svc.CompleteAllDrafts(ctx)
	require.ErrorIs(t, err, store.ErrInsufficientStock)

	drafts, err := f.svc.ListDrafts(ctx)
	require.NoError(t, err)
	assert.Len(t, drafts, 2)
}

func TestDescribeDraftFlagsDeletedProducts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	kopi := f.addProduct(t, "Kopi", "4", 5)
	teh := f.addProduct(t, "Teh", "3", 5)

	draft := f.draftWith(t, "campur", kopi.ID, 1)
	draft, err := f.svc.AddDraftItem(ctx, draft.ID, teh.ID, 1)
	require.NoError(t, err)
	_, err = f.svc.RenameProduct(ctx, kopi.ID, "Kopi Hitam")
	require.NoError(t, err)
	require.NoError(t, f.svc.DeleteProduct(ctx, teh.ID))

	view, err := f.svc.DescribeDraft(ctx, draft.ID)
	require.NoError(t, err)
	require.Len(t, view.Lines, 2)
	assert.Equal(t, "Kopi Hitam", view.Lines[0].Label)
	assert.False(t, view.Lines[0].Dangling)
	assert.Equal(t, domain.DeletedProductLabel, view.Lines[1].Label)
	assert.True(t, view.Lines[1].Dangling)
	assert.Equal(t, "Teh", view.Lines[1].ProductName)

	_, err = f.svc.CompleteDraft(ctx, draft.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestSaveFailuresAreSwallowed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.backend.FailSaves = errors.New("disk full")

	kopi := f.addProduct(t, "Kopi", "4", 5)
	var cart domain.Cart
	_, err := f.svc.AddLineItem(ctx, &cart, kopi.ID, 1)
	require.NoError(t, err)
	_, err = f.svc.Commit(ctx, &cart, "")
	require.NoError(t, err)
	assert.Equal(t, 4, f.stockOf(t, kopi.ID))

	storeSaves, _ := f.backend.Saves()
	assert.Zero(t, storeSaves)
}

func TestLoadFallsBackToEmptyStore(t *testing.T) {
	ctrl := gomock.NewController(t)
	persistence := mock.NewMockPersistence(ctrl)
	persistence.EXPECT().LoadStore(gomock.Any()).Return(domain.Snapshot{}, store.ErrPersistence)
	persistence.EXPECT().LoadDrafts(gomock.Any()).Return(nil, store.ErrPersistence)

	svc := New(memory.New(), persistence, zaptest.NewLogger(t), clock.NewMock(start), time.UTC)
	svc.Load(context.Background())

	products, err := svc.ListProducts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestLoadRejectsInvalidStoredData(t *testing.T) {
	backend := memory.NewBackend()
	ctx := context.Background()
	require.NoError(t, backend.SaveStore(ctx, domain.Snapshot{
		Products: []domain.Product{
			{ID: 1, Name: "A", Price: money("1"), Stock: 1},
			{ID: 1, Name: "B", Price: money("1"), Stock: 1},
		},
	}))

	svc := New(memory.New(), backend, zaptest.NewLogger(t), clock.NewMock(start), time.UTC)
	svc.Load(ctx)

	products, err := svc.ListProducts(ctx)
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestLoadedIDsAreNotReissued(t *testing.T) {
	backend := memory.NewBackend()
	ctx := context.Background()
	future := start.Add(time.Hour).UnixMilli()
	require.NoError(t, backend.SaveStore(ctx, domain.Snapshot{
		Products: []domain.Product{{ID: future, Name: "Kopi", Price: money("4"), Stock: 3}},
	}))
	require.NoError(t, backend.SaveDrafts(ctx, []domain.PendingSale{{ID: "draft-a", Title: "a", CreatedAt: start, LastUpdated: start}}))

	svc := New(memory.New(), backend, zaptest.NewLogger(t), clock.NewMock(start), time.UTC)
	svc.Load(ctx)

	created, err := svc.AddProduct(ctx, "Teh", money("3"), 1)
	require.NoError(t, err)
	assert.Greater(t, created.ID, future)

	drafts, err := svc.ListDrafts(ctx)
	require.NoError(t, err)
	require.Len(t, drafts, 1)
}

func TestExportImportRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	kopi := f.addProduct(t, "Kopi", "4.25", 10)
	f.addProduct(t, "Teh", "3", 4)

	f.clock.Add(time.Hour)
	_, err := f.svc.UpdatePrice(ctx, kopi.ID, money("5"))
	require.NoError(t, err)

	var cart domain.Cart
	_, err = f.svc.AddLineItem(ctx, &cart, kopi.ID, 2)
	require.NoError(t, err)
	_, err = f.svc.Commit(ctx, &cart, "pagi")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.svc.ExportStore(ctx, &buf))

	other := newFixture(t)
	require.NoError(t, other.svc.ImportStore(ctx, bytes.NewReader(buf.Bytes())))

	want, err := f.svc.repo.Snapshot(ctx)
	require.NoError(t, err)
	got, err := other.svc.repo.Snapshot(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff(want, got, snapshotComparers()); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}

	storeSaves, _ := other.backend.Saves()
	assert.Equal(t, 1, storeSaves)
}

func TestExportImportFile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addProduct(t, "Kopi", "4", 10)

	path := t.TempDir() + "/export.json"
	require.NoError(t, f.svc.ExportFile(ctx, path))

	other := newFixture(t)
	require.NoError(t, other.svc.ImportFile(ctx, path))
	products, err := other.svc.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Kopi", products[0].Name)

	err = other.svc.ImportFile(ctx, t.TempDir()+"/missing.json")
	require.ErrorIs(t, err, store.ErrPersistence)
}

func TestImportRejectsInvalidDocument(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addProduct(t, "Kopi", "4", 10)

	err := f.svc.ImportStore(ctx, strings.NewReader(`{"products":[{"id":1,"name":"A","price":1,"stock":-3}],"sales":[]}`))
	require.ErrorIs(t, err, store.ErrInvalidArgument)

	err = f.svc.ImportStore(ctx, strings.NewReader(`{not json`))
	require.ErrorIs(t, err, store.ErrPersistence)

	products, err := f.svc.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 1, "failed import keeps the current store")
}

func TestImportSurfacesSaveFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.backend.FailSaves = errors.New("read-only volume")

	err := f.svc.ImportStore(ctx, strings.NewReader(`{"products":[],"sales":[]}`))
	require.ErrorIs(t, err, store.ErrPersistence)
}

func TestReport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	kopi := f.addProduct(t, "Kopi", "4", 10)

	var cart domain.Cart
	_, err := f.svc.AddLineItem(ctx, &cart, kopi.ID, 2)
	require.NoError(t, err)
	_, err = f.svc.Commit(ctx, &cart, "pagi")
	require.NoError(t, err)

	f.clock.Add(24 * time.Hour)
	daily, err := f.svc.Report(ctx, report.Daily, 3)
	require.NoError(t, err)
	assert.Zero(t, daily.SaleCount)

	weekly, err := f.svc.Report(ctx, report.Weekly, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, weekly.SaleCount)
	assert.True(t, weekly.Total.Equal(money("8")))
	require.Len(t, weekly.Top, 1)
	assert.Equal(t, "Kopi", weekly.Top[0].ProductName)
}

package postgres

import (
	"context"
	_ "embed"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"kasirlite/internal/domain"
	"kasirlite/internal/store"
)

//go:embed schema.sql
var schema string

// insertChunk keeps bulk inserts well below the 65535 bind parameter limit.
const insertChunk = 500

// Store keeps the ledger in PostgreSQL. Saves replace whole tables inside
// one transaction, matching the whole-store semantics of the file backend.
type Store struct {
	db *sqlx.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sqlx.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(2)
	db.SetMaxOpenConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "apply schema")
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

type productRow struct {
	ID    int64           `db:"id"`
	Name  string          `db:"name"`
	Price decimal.Decimal `db:"price"`
	Stock int             `db:"stock"`
}

type priceChangeRow struct {
	ProductID int64           `db:"product_id"`
	Position  int             `db:"position"`
	Price     decimal.Decimal `db:"price"`
	ChangedAt time.Time       `db:"changed_at"`
}

type saleRow struct {
	ID          int64               `db:"id"`
	Position    int                 `db:"position"`
	ProductID   int64               `db:"product_id"`
	ProductName string              `db:"product_name"`
	Quantity    int                 `db:"quantity"`
	UnitPrice   decimal.NullDecimal `db:"unit_price"`
	Total       decimal.NullDecimal `db:"total"`
	SoldAt      time.Time           `db:"sold_at"`
	Title       string              `db:"title"`
	GroupID     string              `db:"group_id"`
}

type pendingSaleRow struct {
	ID          string          `db:"id"`
	Title       string          `db:"title"`
	Items       []byte          `db:"items"`
	Total       decimal.Decimal `db:"total"`
	CreatedAt   time.Time       `db:"created_at"`
	LastUpdated time.Time       `db:"last_updated"`
}

func (s *Store) LoadStore(ctx context.Context) (domain.Snapshot, error) {
	var products []productRow
	if err := s.db.SelectContext(ctx, &products, `
		SELECT id, name, price, stock
		FROM products
		ORDER BY id
	`); err != nil {
		return domain.Snapshot{}, persistenceErr(err, "select products")
	}

	var changes []priceChangeRow
	if err := s.db.SelectContext(ctx, &changes, `
		SELECT product_id, position, price, changed_at
		FROM product_price_changes
		ORDER BY product_id, position
	`); err != nil {
		return domain.Snapshot{}, persistenceErr(err, "select price changes")
	}

	var sales []saleRow
	if err := s.db.SelectContext(ctx, &sales, `
		SELECT id, position, product_id, product_name, quantity, unit_price, total, sold_at, title, group_id
		FROM sales
		ORDER BY position
	`); err != nil {
		return domain.Snapshot{}, persistenceErr(err, "select sales")
	}

	historyByProduct := make(map[int64][]domain.PriceChange, len(products))
	for _, c := range changes {
		historyByProduct[c.ProductID] = append(historyByProduct[c.ProductID], domain.PriceChange{
			Price: c.Price,
			Date:  c.ChangedAt,
		})
	}

	snapshot := domain.Snapshot{
		Products: make([]domain.Product, 0, len(products)),
		Sales:    make([]domain.Sale, 0, len(sales)),
	}
	for _, p := range products {
		history := historyByProduct[p.ID]
		if history == nil {
			history = []domain.PriceChange{}
		}
		snapshot.Products = append(snapshot.Products, domain.Product{
			ID:           p.ID,
			Name:         p.Name,
			Price:        p.Price,
			Stock:        p.Stock,
			PriceHistory: history,
		})
	}
	for _, r := range sales {
		snapshot.Sales = append(snapshot.Sales, domain.Sale{
			ID:          r.ID,
			ProductID:   r.ProductID,
			ProductName: r.ProductName,
			Quantity:    r.Quantity,
			UnitPrice:   r.UnitPrice,
			Total:       r.Total,
			Date:        r.SoldAt,
			Title:       r.Title,
			GroupID:     r.GroupID,
		})
	}
	return snapshot, nil
}

func (s *Store) SaveStore(ctx context.Context, snapshot domain.Snapshot) error {
	products := make([]productRow, 0, len(snapshot.Products))
	changes := make([]priceChangeRow, 0, len(snapshot.Products))
	for _, p := range snapshot.Products {
		products = append(products, productRow{ID: p.ID, Name: p.Name, Price: p.Price, Stock: p.Stock})
		for i, c := range p.PriceHistory {
			changes = append(changes, priceChangeRow{ProductID: p.ID, Position: i, Price: c.Price, ChangedAt: c.Date})
		}
	}
	sales := make([]saleRow, 0, len(snapshot.Sales))
	for i, sale := range snapshot.Sales {
		sales = append(sales, saleRow{
			ID:          sale.ID,
			Position:    i,
			ProductID:   sale.ProductID,
			ProductName: sale.ProductName,
			Quantity:    sale.Quantity,
			UnitPrice:   sale.UnitPrice,
			Total:       sale.Total,
			SoldAt:      sale.Date,
			Title:       sale.Title,
			GroupID:     sale.GroupID,
		})
	}

	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM product_price_changes`); err != nil {
			return persistenceErr(err, "clear price changes")
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM products`); err != nil {
			return persistenceErr(err, "clear products")
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM sales`); err != nil {
			return persistenceErr(err, "clear sales")
		}
		if err := insertRows(ctx, tx, `
			INSERT INTO products (id, name, price, stock)
			VALUES (:id, :name, :price, :stock)
		`, products); err != nil {
			return persistenceErr(err, "insert products")
		}
		if err := insertRows(ctx, tx, `
			INSERT INTO product_price_changes (product_id, position, price, changed_at)
			VALUES (:product_id, :position, :price, :changed_at)
		`, changes); err != nil {
			return persistenceErr(err, "insert price changes")
		}
		if err := insertRows(ctx, tx, `
			INSERT INTO sales (id, position, product_id, product_name, quantity, unit_price, total, sold_at, title, group_id)
			VALUES (:id, :position, :product_id, :product_name, :quantity, :unit_price, :total, :sold_at, :title, :group_id)
		`, sales); err != nil {
			return persistenceErr(err, "insert sales")
		}
		return nil
	})
}

func (s *Store) LoadDrafts(ctx context.Context) ([]domain.PendingSale, error) {
	var rows []pendingSaleRow
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT id, title, items, total, created_at, last_updated
		FROM pending_sales
		ORDER BY last_updated DESC, id
	`); err != nil {
		return nil, persistenceErr(err, "select pending sales")
	}

	drafts := make([]domain.PendingSale, 0, len(rows))
	for _, r := range rows {
		var items []domain.SaleLineItem
		if err := json.Unmarshal(r.Items, &items); err != nil {
			return nil, persistenceErr(err, "decode pending sale "+r.ID)
		}
		drafts = append(drafts, domain.PendingSale{
			ID:          r.ID,
			Title:       r.Title,
			Items:       items,
			Total:       r.Total,
			CreatedAt:   r.CreatedAt,
			LastUpdated: r.LastUpdated,
		})
	}
	return drafts, nil
}

func (s *Store) SaveDrafts(ctx context.Context, drafts []domain.PendingSale) error {
	rows := make([]pendingSaleRow, 0, len(drafts))
	for _, d := range drafts {
		items := d.Items
		if items == nil {
			items = []domain.SaleLineItem{}
		}
		payload, err := json.Marshal(items)
		if err != nil {
			return persistenceErr(err, "encode pending sale "+d.ID)
		}
		rows = append(rows, pendingSaleRow{
			ID:          d.ID,
			Title:       d.Title,
			Items:       payload,
			Total:       d.Total,
			CreatedAt:   d.CreatedAt,
			LastUpdated: d.LastUpdated,
		})
	}

	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM pending_sales`); err != nil {
			return persistenceErr(err, "clear pending sales")
		}
		if err := insertRows(ctx, tx, `
			INSERT INTO pending_sales (id, title, items, total, created_at, last_updated)
			VALUES (:id, :title, :items, :total, :created_at, :last_updated)
		`, rows); err != nil {
			return persistenceErr(err, "insert pending sales")
		}
		return nil
	})
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return persistenceErr(err, "begin tx")
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return persistenceErr(err, "commit tx")
	}
	return nil
}

func insertRows[T any](ctx context.Context, tx *sqlx.Tx, query string, rows []T) error {
	for start := 0; start < len(rows); start += insertChunk {
		end := min(start+insertChunk, len(rows))
		if _, err := tx.NamedExecContext(ctx, query, rows[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func persistenceErr(err error, op string) error {
	return errors.Mark(errors.Wrap(err, op), store.ErrPersistence)
}

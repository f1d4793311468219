// Package persistence provides database adapters implementing outbound ports.
package persistence

import (
	"context"
	"database/sql"

	"engage_server/core/domain"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// CatalogAdapter implements out.ProductCatalog using PostgreSQL.
type CatalogAdapter struct {
	db *sqlx.DB
}

// NewCatalogAdapter creates a new CatalogAdapter.
func NewCatalogAdapter(db *sqlx.DB) *CatalogAdapter {
	return &CatalogAdapter{db: db}
}

// productRow represents the database row for affiliate products.
type productRow struct {
	ID             int64          `db:"id"`
	Name           string         `db:"name"`
	Description    sql.NullString `db:"description"`
	Category       string         `db:"category"`
	Price          float64        `db:"price"`
	Currency       string         `db:"currency"`
	CommissionRate float64        `db:"commission_rate"`
	AffiliateURL   sql.NullString `db:"affiliate_url"`
	Active         bool           `db:"active"`
}

func (r *productRow) toEntity() domain.Product {
	p := domain.Product{
		ID:             r.ID,
		Name:           r.Name,
		Category:       r.Category,
		Price:          r.Price,
		Currency:       r.Currency,
		CommissionRate: r.CommissionRate,
	}
	if r.Description.Valid {
		p.Description = r.Description.String
	}
	if r.AffiliateURL.Valid {
		p.AffiliateURL = r.AffiliateURL.String
	}
	return p
}

const productColumns = `id, name, description, category, price, currency, commission_rate, affiliate_url, active`

// ListActive returns every product available for promotion.
func (a *CatalogAdapter) ListActive(ctx context.Context) ([]domain.Product, error) {
	const query = `
		SELECT ` + productColumns + `
		FROM products
		WHERE active = true
		ORDER BY id
	`

	var rows []productRow
	if err := a.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}
	return toProducts(rows), nil
}

// ListByCategory returns active products in a category.
func (a *CatalogAdapter) ListByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	const query = `
		SELECT ` + productColumns + `
		FROM products
		WHERE active = true AND category = $1
		ORDER BY id
	`

	var rows []productRow
	if err := a.db.SelectContext(ctx, &rows, query, category); err != nil {
		return nil, err
	}
	return toProducts(rows), nil
}

// GetByIDs resolves products by id. Missing ids are silently skipped.
func (a *CatalogAdapter) GetByIDs(ctx context.Context, ids []int64) ([]domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	const query = `
		SELECT ` + productColumns + `
		FROM products
		WHERE id = ANY($1)
	`

	var rows []productRow
	if err := a.db.SelectContext(ctx, &rows, query, pq.Array(ids)); err != nil {
		return nil, err
	}
	return toProducts(rows), nil
}

func toProducts(rows []productRow) []domain.Product {
	products := make([]domain.Product, 0, len(rows))
	for i := range rows {
		products = append(products, rows[i].toEntity())
	}
	return products
}

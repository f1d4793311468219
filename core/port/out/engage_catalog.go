package out

import (
	"context"

	"engage_server/core/domain"
)

// ProductCatalog is the outbound port to the affiliate product catalog.
// The catalog is owned elsewhere; the core only reads candidates from it.
type ProductCatalog interface {
	// ListActive returns every product currently available for promotion.
	// Rows are returned as stored; data quality filtering happens in the
	// matcher, not here.
	ListActive(ctx context.Context) ([]domain.Product, error)

	// ListByCategory returns active products in a category.
	ListByCategory(ctx context.Context, category string) ([]domain.Product, error)

	// GetByIDs resolves products by id, preserving no particular order.
	GetByIDs(ctx context.Context, ids []int64) ([]domain.Product, error)
}

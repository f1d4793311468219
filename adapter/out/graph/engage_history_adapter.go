package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// =============================================================================
// Neo4j Visitor History Adapter
// =============================================================================

// HistoryAdapter implements out.HistoryStore using Neo4j. Visitors and
// products are nodes; each click fattens the CLICKED edge between them.
// Engagement strength is click count with recency as the tie-break.
type HistoryAdapter struct {
	driver neo4j.DriverWithContext
	dbName string
}

// NewHistoryAdapter creates a new Neo4j history adapter.
func NewHistoryAdapter(driver neo4j.DriverWithContext, dbName string) *HistoryAdapter {
	return &HistoryAdapter{
		driver: driver,
		dbName: dbName,
	}
}

// EnsureIndexes creates necessary indexes and constraints.
func (a *HistoryAdapter) EnsureIndexes(ctx context.Context) error {
	session := a.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: a.dbName})
	defer session.Close(ctx)

	queries := []string{
		`CREATE CONSTRAINT visitor_id_unique IF NOT EXISTS FOR (v:Visitor) REQUIRE v.visitor_id IS UNIQUE`,
		`CREATE CONSTRAINT product_id_unique IF NOT EXISTS FOR (p:Product) REQUIRE p.product_id IS UNIQUE`,
	}

	for _, query := range queries {
		_, err := session.Run(ctx, query, nil)
		if err != nil {
			// Ignore if already exists
			continue
		}
	}

	return nil
}

// RecordProductClick upserts the visitor, the product and the CLICKED
// edge between them, bumping the click count and last-clicked time.
func (a *HistoryAdapter) RecordProductClick(ctx context.Context, visitorID uuid.UUID, productID int64, at time.Time) error {
	session := a.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: a.dbName})
	defer session.Close(ctx)

	query := `
		MERGE (v:Visitor {visitor_id: $visitorID})
		MERGE (p:Product {product_id: $productID})
		MERGE (v)-[c:CLICKED]->(p)
		ON CREATE SET c.count = 1, c.last_clicked_at = $at
		ON MATCH SET c.count = c.count + 1, c.last_clicked_at = $at
	`

	params := map[string]interface{}{
		"visitorID": visitorID.String(),
		"productID": productID,
		"at":        at.UTC().Unix(),
	}

	_, err := session.Run(ctx, query, params)
	if err != nil {
		return fmt.Errorf("failed to record product click: %w", err)
	}

	return nil
}

// TopProductsForVisitor returns product ids ordered by click count, then
// most recent click.
func (a *HistoryAdapter) TopProductsForVisitor(ctx context.Context, visitorID uuid.UUID, limit int) ([]int64, error) {
	session := a.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: a.dbName})
	defer session.Close(ctx)

	query := `
		MATCH (v:Visitor {visitor_id: $visitorID})-[c:CLICKED]->(p:Product)
		RETURN p.product_id AS product_id
		ORDER BY c.count DESC, c.last_clicked_at DESC
		LIMIT $limit
	`

	params := map[string]interface{}{
		"visitorID": visitorID.String(),
		"limit":     limit,
	}

	result, err := session.Run(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to query visitor history: %w", err)
	}

	var ids []int64
	for result.Next(ctx) {
		record := result.Record()
		if raw, ok := record.Get("product_id"); ok {
			if id, ok := raw.(int64); ok {
				ids = append(ids, id)
			}
		}
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("failed to read visitor history: %w", err)
	}

	return ids, nil
}

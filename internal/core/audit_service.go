package core

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// AuditService produces read-only stock snapshots for shelf audits. Product
// snapshots requested from a scan leave an AUD entry in the ledger so audit
// rounds are reconstructable; location and full snapshots do not touch the
// ledger.
type AuditService interface {
	// ProductSnapshot returns one product's live batches and total, recording
	// an AUD movement.
	ProductSnapshot(ctx context.Context, tenantID, productID uuid.UUID, userID *int) (*ProductStock, error)

	// LocationSnapshot returns the stock at a location, optionally including
	// its whole subtree.
	LocationSnapshot(ctx context.Context, tenantID, locationID uuid.UUID, recursive bool) (*LocationAudit, error)

	// FullSnapshot returns one non-recursive snapshot per location that holds
	// products, ordered by path.
	FullSnapshot(ctx context.Context, tenantID uuid.UUID) ([]LocationAudit, error)
}

type auditService struct {
	pool      *pgxpool.Pool
	locations LocationService
}

// NewAuditService constructs an AuditService backed by PostgreSQL.
func NewAuditService(pool *pgxpool.Pool, locations LocationService) AuditService {
	return &auditService{pool: pool, locations: locations}
}

func (s *auditService) ProductSnapshot(ctx context.Context, tenantID, productID uuid.UUID, userID *int) (*ProductStock, error) {
	product, err := fetchProduct(ctx, s.pool, tenantID, productID)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, quantity, expiration_date, opened_units, open_expires_at
		FROM batches
		WHERE tenant_id = $1 AND product_id = $2 AND NOT is_depleted AND quantity > 0
		ORDER BY expiration_date ASC NULLS LAST, entry_date ASC, id ASC
	`, tenantID, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to query batches for audit: %w", err)
	}
	defer rows.Close()

	stock := &ProductStock{
		ProductID: product.ID,
		Product:   product.Name,
		Unit:      product.Unit,
		Batches:   []BatchSummary{},
	}
	for rows.Next() {
		var b Batch
		if err := rows.Scan(&b.ID, &b.Quantity, &b.ExpirationDate, &b.OpenedUnits, &b.OpenExpiresAt); err != nil {
			return nil, fmt.Errorf("failed to scan batch: %w", err)
		}
		accumulate(stock, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if _, err := insertMovement(ctx, s.pool, tenantID, product.ID, product.LocationID, decimal.Zero, MovementAudit, map[string]any{
		"action":         "audit",
		"total_quantity": stock.TotalQuantity,
		"batch_count":    len(stock.Batches),
	}, userID); err != nil {
		return nil, err
	}
	return stock, nil
}

func (s *auditService) LocationSnapshot(ctx context.Context, tenantID, locationID uuid.UUID, recursive bool) (*LocationAudit, error) {
	path, err := s.locations.Path(ctx, tenantID, locationID)
	if err != nil {
		return nil, err
	}

	scope := `SELECT $2::uuid AS id`
	if recursive {
		scope = `
			WITH RECURSIVE subtree AS (
				SELECT id FROM locations WHERE tenant_id = $1 AND id = $2
				UNION ALL
				SELECT l.id FROM locations l JOIN subtree st ON l.parent_id = st.id
				WHERE l.tenant_id = $1
			)
			SELECT id FROM subtree`
	}

	rows, err := s.pool.Query(ctx, `
		SELECT p.id, p.name, p.unit,
		       b.id, b.quantity, b.expiration_date, b.opened_units, b.open_expires_at
		FROM products p
		JOIN batches b ON b.tenant_id = p.tenant_id AND b.product_id = p.id
		WHERE p.tenant_id = $1
		  AND p.location_id IN (`+scope+`)
		  AND NOT b.is_depleted AND b.quantity > 0
		ORDER BY p.name ASC, b.expiration_date ASC NULLS LAST, b.entry_date ASC, b.id ASC
	`, tenantID, locationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query location stock: %w", err)
	}
	defer rows.Close()

	byProduct := map[uuid.UUID]*ProductStock{}
	var order []uuid.UUID
	for rows.Next() {
		var (
			pid        uuid.UUID
			name, unit string
			b          Batch
		)
		if err := rows.Scan(&pid, &name, &unit, &b.ID, &b.Quantity, &b.ExpirationDate, &b.OpenedUnits, &b.OpenExpiresAt); err != nil {
			return nil, fmt.Errorf("failed to scan location stock: %w", err)
		}
		stock, ok := byProduct[pid]
		if !ok {
			stock = &ProductStock{ProductID: pid, Product: name, Unit: unit, Batches: []BatchSummary{}}
			byProduct[pid] = stock
			order = append(order, pid)
		}
		accumulate(stock, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	audit := &LocationAudit{
		LocationID:    locationID,
		Location:      path,
		Recursive:     recursive,
		TotalProducts: len(order),
		Items:         make([]ProductStock, 0, len(order)),
	}
	for _, pid := range order {
		audit.Items = append(audit.Items, *byProduct[pid])
	}
	return audit, nil
}

func (s *auditService) FullSnapshot(ctx context.Context, tenantID uuid.UUID) ([]LocationAudit, error) {
	roots, err := s.locations.Tree(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	paths := map[uuid.UUID]string{}
	var walk func(n *LocationNode)
	walk = func(n *LocationNode) {
		paths[n.ID] = n.Path
		for _, c := range n.Children {
			walk(c)
		}
	}
	for _, r := range roots {
		walk(r)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT p.location_id, p.id, p.name, p.unit,
		       b.id, b.quantity, b.expiration_date, b.opened_units, b.open_expires_at
		FROM products p
		JOIN batches b ON b.tenant_id = p.tenant_id AND b.product_id = p.id
		WHERE p.tenant_id = $1 AND p.location_id IS NOT NULL
		  AND NOT b.is_depleted AND b.quantity > 0
		ORDER BY p.name ASC, b.expiration_date ASC NULLS LAST, b.entry_date ASC, b.id ASC
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query full stock snapshot: %w", err)
	}
	defer rows.Close()

	stocks := map[uuid.UUID]map[uuid.UUID]*ProductStock{}
	productOrder := map[uuid.UUID][]uuid.UUID{}
	var locationOrder []uuid.UUID
	for rows.Next() {
		var (
			locID      uuid.UUID
			pid        uuid.UUID
			name, unit string
			b          Batch
		)
		if err := rows.Scan(&locID, &pid, &name, &unit, &b.ID, &b.Quantity, &b.ExpirationDate, &b.OpenedUnits, &b.OpenExpiresAt); err != nil {
			return nil, fmt.Errorf("failed to scan full snapshot: %w", err)
		}
		if _, ok := stocks[locID]; !ok {
			stocks[locID] = map[uuid.UUID]*ProductStock{}
			locationOrder = append(locationOrder, locID)
		}
		stock, ok := stocks[locID][pid]
		if !ok {
			stock = &ProductStock{ProductID: pid, Product: name, Unit: unit, Batches: []BatchSummary{}}
			stocks[locID][pid] = stock
			productOrder[locID] = append(productOrder[locID], pid)
		}
		accumulate(stock, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]LocationAudit, 0, len(locationOrder))
	for _, locID := range locationOrder {
		audit := LocationAudit{
			LocationID:    locID,
			Location:      paths[locID],
			TotalProducts: len(productOrder[locID]),
			Items:         make([]ProductStock, 0, len(productOrder[locID])),
		}
		for _, pid := range productOrder[locID] {
			audit.Items = append(audit.Items, *stocks[locID][pid])
		}
		out = append(out, audit)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Location) < strings.ToLower(out[j].Location)
	})
	return out, nil
}

// accumulate folds one live batch into a product snapshot: running total,
// batch summary, and the nearest effective expiration (opened units may
// expire before their label).
func accumulate(stock *ProductStock, b *Batch) {
	stock.TotalQuantity = stock.TotalQuantity.Add(b.Quantity)
	stock.Batches = append(stock.Batches, BatchSummary{
		ID:             b.ID,
		Quantity:       b.Quantity,
		ExpirationDate: b.ExpirationDate,
		Opened:         b.Opened(),
	})
	if exp := b.EffectiveExpiration(); exp != nil {
		if stock.NearestExpiration == nil || exp.Before(*stock.NearestExpiration) {
			stock.NearestExpiration = exp
		}
	}
}

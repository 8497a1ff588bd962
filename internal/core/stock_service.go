package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// StockService owns every stock mutation: receipts, consumption, the
// opened-unit state machine, and stock-take corrections. Each operation is
// one all-or-nothing transaction; candidate batch rows are locked FOR UPDATE
// before any quantity is read for decrement, so two concurrent issues against
// the same product serialize at the row-lock level.
type StockService interface {
	// Receive records a goods receipt: a new batch (each receipt is its own
	// lot, never merged) plus an IN movement. When in.NewProduct is set the
	// product is created inline, deduplicated by the normalized-name key.
	Receive(ctx context.Context, tenantID uuid.UUID, in ReceiveInput) (*ReceiveResult, error)

	// Consume issues stock FIFO-by-expiry: soonest expiration first, nulls
	// last, then oldest entry date, with an opened unit always consumed
	// before sealed stock. Appends a single OUT movement recording the
	// per-batch ledger. Never commits a partial allocation.
	Consume(ctx context.Context, tenantID uuid.UUID, in ConsumeInput) (*ConsumeResult, error)

	// Open unseals one unit: CLOSED -> OPEN on the first batch in consumption
	// order. At most one opened unit may exist per product.
	Open(ctx context.Context, tenantID, productID uuid.UUID, userID *int) (*OpenResult, error)

	// AdjustBatch sets a batch's quantity to a counted value (stock-take
	// correction) and records the delta as an ADJ movement. Depleted batches
	// stay depleted; corrections for them are new receipts.
	AdjustBatch(ctx context.Context, tenantID uuid.UUID, in AdjustInput) (*AdjustResult, error)

	// ListMovements returns ledger entries, newest first.
	ListMovements(ctx context.Context, tenantID uuid.UUID, f MovementFilter) ([]Movement, error)
}

// ReceiveInput describes one goods receipt. Exactly one of ProductID or
// NewProduct must be set.
type ReceiveInput struct {
	ProductID      *uuid.UUID
	NewProduct     *NewProductSpec
	LocationID     *uuid.UUID // explicit location; falls back to the product's default
	Quantity       decimal.Decimal
	ExpirationDate *time.Time
	Notes          string
	UserID         *int
}

// ReceiveResult reports the created lot.
type ReceiveResult struct {
	Product        *Product
	ProductCreated bool
	Batch          *Batch
	Remaining      decimal.Decimal
	MovementID     uuid.UUID
}

// ConsumeInput describes one issue request. OpenNext additionally unseals a
// new unit after the consumption; it requires Quantity == 1 and no unit
// already open.
type ConsumeInput struct {
	ProductID  uuid.UUID
	Quantity   decimal.Decimal
	LocationID *uuid.UUID
	OpenNext   bool
	UserID     *int
}

// ConsumeResult is the consumption ledger of one successful issue.
type ConsumeResult struct {
	Product       *Product
	Consumed      []BatchTake
	Remaining     decimal.Decimal
	MovementID    uuid.UUID
	OpenedBatchID *int64
	OpenExpiresAt *time.Time
}

// OpenResult reports a CLOSED -> OPEN transition.
type OpenResult struct {
	BatchID       int64
	OpenedAt      time.Time
	OpenExpiresAt *time.Time
	MovementID    uuid.UUID
}

// AdjustInput sets a batch to a counted quantity.
type AdjustInput struct {
	BatchID     int64
	NewQuantity decimal.Decimal
	Reason      string
	UserID      *int
}

// AdjustResult reports the applied correction.
type AdjustResult struct {
	Batch      *Batch
	Delta      decimal.Decimal
	MovementID uuid.UUID
}

type stockService struct {
	pool     *pgxpool.Pool
	products ProductService
}

// NewStockService constructs a StockService backed by PostgreSQL.
func NewStockService(pool *pgxpool.Pool, products ProductService) StockService {
	return &stockService{pool: pool, products: products}
}

// ── Receive ───────────────────────────────────────────────────────────────────

func (s *stockService) Receive(ctx context.Context, tenantID uuid.UUID, in ReceiveInput) (*ReceiveResult, error) {
	if !in.Quantity.IsPositive() {
		return nil, Errf(ErrInvalidQuantity, "receive quantity must be positive, got %s", in.Quantity).
			WithMeta("requested", in.Quantity.String())
	}
	if (in.ProductID == nil) == (in.NewProduct == nil) {
		return nil, Errf(ErrInvalidPayload, "exactly one of product reference or new-product spec is required")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		product *Product
		created bool
	)
	if in.ProductID != nil {
		product, err = fetchProduct(ctx, tx, tenantID, *in.ProductID)
		if err != nil {
			return nil, err
		}
	} else {
		spec := *in.NewProduct
		if spec.Name == "" {
			return nil, Errf(ErrInvalidPayload, "product name is required")
		}
		if spec.Unit == "" {
			return nil, Errf(ErrInvalidPayload, "product unit is required")
		}
		if in.LocationID == nil {
			return nil, Errf(ErrLocationRequired, "a location is required when creating a product")
		}
		product, created, err = s.products.CreateOrGetTx(ctx, tx, tenantID, spec, *in.LocationID)
		if err != nil {
			return nil, err
		}
	}

	locationID := in.LocationID
	if locationID == nil {
		locationID = product.LocationID
	}
	if locationID == nil {
		return nil, Errf(ErrLocationRequired, "no location given and product %q has no default", product.Name)
	}
	if err := verifyLocationTx(ctx, tx, tenantID, *locationID); err != nil {
		return nil, err
	}

	batch := &Batch{
		TenantID:       tenantID,
		ProductID:      product.ID,
		Quantity:       in.Quantity,
		ExpirationDate: in.ExpirationDate,
		Notes:          in.Notes,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO batches (tenant_id, product_id, quantity, expiration_date, notes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, entry_date, created_at
	`, tenantID, product.ID, in.Quantity, in.ExpirationDate, in.Notes).
		Scan(&batch.ID, &batch.EntryDate, &batch.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert batch: %w", err)
	}

	movementID, err := insertMovement(ctx, tx, tenantID, product.ID, locationID, in.Quantity, MovementIn, map[string]any{
		"batch_id":   batch.ID,
		"entry_date": batch.EntryDate.Format("2006-01-02"),
	}, in.UserID)
	if err != nil {
		return nil, err
	}

	remaining, err := remainingStockTx(ctx, tx, tenantID, product.ID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit goods receipt: %w", err)
	}

	// The QR image write goes to blob storage, not the database, so it runs
	// after commit. A failed write is retried on the next image request.
	if created {
		if err := s.products.EnsureQRImage(ctx, product); err != nil {
			log.Printf("qr image for product %s not stored: %v", product.ID, err)
		}
	}

	return &ReceiveResult{
		Product:        product,
		ProductCreated: created,
		Batch:          batch,
		Remaining:      remaining,
		MovementID:     movementID,
	}, nil
}

// ── Consume ───────────────────────────────────────────────────────────────────

func (s *stockService) Consume(ctx context.Context, tenantID uuid.UUID, in ConsumeInput) (*ConsumeResult, error) {
	if !in.Quantity.IsPositive() {
		return nil, Errf(ErrInvalidQuantity, "consume quantity must be positive, got %s", in.Quantity).
			WithMeta("requested", in.Quantity.String())
	}
	if in.OpenNext && !in.Quantity.Equal(decimal.NewFromInt(1)) {
		return nil, Errf(ErrInvalidQuantity, "opening a new unit requires consuming exactly 1, got %s", in.Quantity).
			WithMeta("requested", in.Quantity.String())
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	product, err := fetchProduct(ctx, tx, tenantID, in.ProductID)
	if err != nil {
		return nil, err
	}
	if in.OpenNext && !product.TrackOpenState {
		return nil, Errf(ErrOpenNotTracked, "product %q does not track opened units", product.Name)
	}

	batches, err := lockCandidateBatches(ctx, tx, tenantID, product.ID)
	if err != nil {
		return nil, err
	}
	if in.OpenNext && findOpened(batches) != nil {
		return nil, Errf(ErrAlreadyOpen, "a unit of %q is already open", product.Name)
	}

	available := totalAvailable(batches)
	takes, err := planAllocation(batches, in.Quantity)
	if err != nil {
		return nil, err
	}

	for _, take := range takes {
		if err := applyTake(ctx, tx, take); err != nil {
			return nil, err
		}
	}

	meta := map[string]any{"consumed": takes}

	// Apply the takes to the in-memory snapshot so the open target is picked
	// from post-consumption quantities.
	var openedBatchID *int64
	var openExpires *time.Time
	if in.OpenNext {
		applyTakesLocally(batches, takes)
		target := pickOpenTarget(batches)
		if target == nil {
			return nil, Errf(ErrNoStock, "no stock left to open a new unit of %q", product.Name)
		}
		openExpires, err = markOpenedTx(ctx, tx, target.ID, product.OpenShelfLifeDays)
		if err != nil {
			return nil, err
		}
		openedBatchID = &target.ID
		meta["opened_batch_id"] = target.ID
	}

	movementID, err := insertMovement(ctx, tx, tenantID, product.ID, consumeLocation(in.LocationID, product), in.Quantity.Neg(), MovementOut, meta, in.UserID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit consumption: %w", err)
	}

	return &ConsumeResult{
		Product:       product,
		Consumed:      takes,
		Remaining:     available.Sub(in.Quantity),
		MovementID:    movementID,
		OpenedBatchID: openedBatchID,
		OpenExpiresAt: openExpires,
	}, nil
}

// ── Open ──────────────────────────────────────────────────────────────────────

func (s *stockService) Open(ctx context.Context, tenantID, productID uuid.UUID, userID *int) (*OpenResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	product, err := fetchProduct(ctx, tx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	if !product.TrackOpenState {
		return nil, Errf(ErrOpenNotTracked, "product %q does not track opened units", product.Name)
	}

	batches, err := lockCandidateBatches(ctx, tx, tenantID, product.ID)
	if err != nil {
		return nil, err
	}
	if opened := findOpened(batches); opened != nil {
		return nil, Errf(ErrAlreadyOpen, "a unit of %q is already open (batch %d)", product.Name, opened.ID).
			WithMeta("batch_id", fmt.Sprint(opened.ID))
	}
	target := pickOpenTarget(batches)
	if target == nil {
		return nil, Errf(ErrNoStock, "no batch of %q has stock to open", product.Name)
	}

	openExpires, err := markOpenedTx(ctx, tx, target.ID, product.OpenShelfLifeDays)
	if err != nil {
		return nil, err
	}

	// Opening changes no quantity, but the ledger still records the event so
	// the opened-unit timeline can be reconstructed.
	movementID, err := insertMovement(ctx, tx, tenantID, product.ID, product.LocationID, decimal.Zero, MovementAdjust, map[string]any{
		"action":   "open",
		"batch_id": target.ID,
	}, userID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit open: %w", err)
	}

	return &OpenResult{
		BatchID:       target.ID,
		OpenedAt:      time.Now(),
		OpenExpiresAt: openExpires,
		MovementID:    movementID,
	}, nil
}

// ── Adjust ────────────────────────────────────────────────────────────────────

func (s *stockService) AdjustBatch(ctx context.Context, tenantID uuid.UUID, in AdjustInput) (*AdjustResult, error) {
	if in.NewQuantity.IsNegative() {
		return nil, Errf(ErrInvalidQuantity, "adjusted quantity cannot be negative, got %s", in.NewQuantity).
			WithMeta("requested", in.NewQuantity.String())
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	b := &Batch{TenantID: tenantID}
	err = tx.QueryRow(ctx, `
		SELECT id, product_id, quantity, entry_date, expiration_date,
		       opened_units, opened_at, open_expires_at, is_depleted, depleted_at, notes, created_at
		FROM batches
		WHERE tenant_id = $1 AND id = $2
		FOR UPDATE
	`, tenantID, in.BatchID).Scan(
		&b.ID, &b.ProductID, &b.Quantity, &b.EntryDate, &b.ExpirationDate,
		&b.OpenedUnits, &b.OpenedAt, &b.OpenExpiresAt, &b.IsDepleted, &b.DepletedAt, &b.Notes, &b.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, Errf(ErrInvalidPayload, "batch %d not found", in.BatchID)
		}
		return nil, fmt.Errorf("failed to lock batch %d: %w", in.BatchID, err)
	}
	if b.IsDepleted {
		return nil, Errf(ErrBatchDepleted, "batch %d is depleted; record a new receipt instead", b.ID).
			WithMeta("batch_id", fmt.Sprint(b.ID))
	}

	delta := in.NewQuantity.Sub(b.Quantity)
	depleting := in.NewQuantity.IsZero()
	_, err = tx.Exec(ctx, `
		UPDATE batches
		SET quantity        = $1,
		    opened_units    = CASE WHEN $2 THEN 0 ELSE opened_units END,
		    opened_at       = CASE WHEN $2 THEN NULL ELSE opened_at END,
		    open_expires_at = CASE WHEN $2 THEN NULL ELSE open_expires_at END,
		    is_depleted     = $2,
		    depleted_at     = CASE WHEN $2 THEN NOW() ELSE depleted_at END
		WHERE id = $3
	`, in.NewQuantity, depleting, b.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to adjust batch %d: %w", b.ID, err)
	}

	movementID, err := insertMovement(ctx, tx, tenantID, b.ProductID, nil, delta, MovementAdjust, map[string]any{
		"action":       "stocktake",
		"batch_id":     b.ID,
		"old_quantity": b.Quantity,
		"new_quantity": in.NewQuantity,
		"reason":       in.Reason,
	}, in.UserID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit adjustment: %w", err)
	}

	b.Quantity = in.NewQuantity
	if depleting {
		now := time.Now()
		b.IsDepleted, b.DepletedAt = true, &now
		b.OpenedUnits, b.OpenedAt, b.OpenExpiresAt = 0, nil, nil
	}
	return &AdjustResult{Batch: b, Delta: delta, MovementID: movementID}, nil
}

// ── Movements ─────────────────────────────────────────────────────────────────

func (s *stockService) ListMovements(ctx context.Context, tenantID uuid.UUID, f MovementFilter) ([]Movement, error) {
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := `
		SELECT id, product_id, location_id, quantity, movement_type, metadata, created_by, created_at
		FROM movements
		WHERE tenant_id = $1`
	args := []any{tenantID}
	if f.ProductID != nil {
		args = append(args, *f.ProductID)
		query += fmt.Sprintf(" AND product_id = $%d", len(args))
	}
	if f.Type != nil {
		args = append(args, string(*f.Type))
		query += fmt.Sprintf(" AND movement_type = $%d", len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query movements: %w", err)
	}
	defer rows.Close()

	var out []Movement
	for rows.Next() {
		m := Movement{TenantID: tenantID}
		var metadata []byte
		if err := rows.Scan(&m.ID, &m.ProductID, &m.LocationID, &m.Quantity, &m.Type, &metadata, &m.CreatedBy, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan movement: %w", err)
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &m.Metadata); err != nil {
				return nil, fmt.Errorf("failed to decode movement metadata: %w", err)
			}
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ── Shared transaction helpers ────────────────────────────────────────────────

// fetchProduct loads a product scoped to the tenant.
func fetchProduct(ctx context.Context, q querier, tenantID, productID uuid.UUID) (*Product, error) {
	p := &Product{TenantID: tenantID}
	err := q.QueryRow(ctx, `
		SELECT id, name, sku, category, unit, min_stock, qr_payload, qr_image_key,
		       nfc_tag_uid, track_open_state, open_shelf_life_days, notes, location_id, created_at
		FROM products
		WHERE tenant_id = $1 AND id = $2
	`, tenantID, productID).Scan(
		&p.ID, &p.Name, &p.SKU, &p.Category, &p.Unit, &p.MinStock, &p.QRPayload, &p.QRImageKey,
		&p.NFCTagUID, &p.TrackOpenState, &p.OpenShelfLifeDays, &p.Notes, &p.LocationID, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, Errf(ErrMissingProduct, "product %s not found", productID)
		}
		return nil, fmt.Errorf("failed to fetch product %s: %w", productID, err)
	}
	return p, nil
}

// verifyLocationTx confirms the location exists within the tenant.
func verifyLocationTx(ctx context.Context, tx pgx.Tx, tenantID, locationID uuid.UUID) error {
	var exists bool
	err := tx.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM locations WHERE tenant_id = $1 AND id = $2)",
		tenantID, locationID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to verify location %s: %w", locationID, err)
	}
	if !exists {
		return Errf(ErrLocationNotFound, "location %s not found", locationID)
	}
	return nil
}

// lockCandidateBatches locks every allocatable batch of the product FOR
// UPDATE, in the base consumption order. The lock scope is "all live batches
// of one product": concurrent issues for a popular product serialize here.
func lockCandidateBatches(ctx context.Context, tx pgx.Tx, tenantID, productID uuid.UUID) ([]Batch, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, quantity, entry_date, expiration_date,
		       opened_units, opened_at, open_expires_at, is_depleted, depleted_at
		FROM batches
		WHERE tenant_id = $1 AND product_id = $2 AND NOT is_depleted AND quantity > 0
		ORDER BY expiration_date ASC NULLS LAST, entry_date ASC, id ASC
		FOR UPDATE
	`, tenantID, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock batches for product %s: %w", productID, err)
	}
	defer rows.Close()

	var batches []Batch
	for rows.Next() {
		b := Batch{TenantID: tenantID, ProductID: productID}
		if err := rows.Scan(&b.ID, &b.Quantity, &b.EntryDate, &b.ExpirationDate,
			&b.OpenedUnits, &b.OpenedAt, &b.OpenExpiresAt, &b.IsDepleted, &b.DepletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan batch: %w", err)
		}
		batches = append(batches, b)
	}
	return batches, rows.Err()
}

// applyTake writes one planned decrement. Depletion is a one-time
// transition: is_depleted only ever flips false -> true, and depleted_at is
// written exactly once. Drawing from a batch with an opened unit consumes
// that unit, so the open fields are cleared.
func applyTake(ctx context.Context, tx pgx.Tx, take BatchTake) error {
	_, err := tx.Exec(ctx, `
		UPDATE batches
		SET quantity        = $1,
		    opened_units    = CASE WHEN $2 THEN 0 ELSE opened_units END,
		    opened_at       = CASE WHEN $2 THEN NULL ELSE opened_at END,
		    open_expires_at = CASE WHEN $2 THEN NULL ELSE open_expires_at END,
		    is_depleted     = is_depleted OR $3,
		    depleted_at     = CASE WHEN $3 AND NOT is_depleted THEN NOW() ELSE depleted_at END
		WHERE id = $4
	`, take.NewQuantity, take.clearedOpen || take.depleted, take.depleted, take.BatchID)
	if err != nil {
		return fmt.Errorf("failed to decrement batch %d: %w", take.BatchID, err)
	}
	return nil
}

// applyTakesLocally mirrors applyTake onto the in-memory batch snapshot.
func applyTakesLocally(batches []Batch, takes []BatchTake) {
	byID := make(map[int64]*Batch, len(batches))
	for i := range batches {
		byID[batches[i].ID] = &batches[i]
	}
	for _, take := range takes {
		b, ok := byID[take.BatchID]
		if !ok {
			continue
		}
		b.Quantity = take.NewQuantity
		if take.depleted {
			b.IsDepleted = true
		}
		if take.clearedOpen || take.depleted {
			b.OpenedUnits, b.OpenedAt, b.OpenExpiresAt = 0, nil, nil
		}
	}
}

// markOpenedTx flips a batch to OPEN and returns the computed open expiry
// (entry + shelf life), or nil when the product has no shelf-life default.
func markOpenedTx(ctx context.Context, tx pgx.Tx, batchID int64, shelfLifeDays *int) (*time.Time, error) {
	var openExpires *time.Time
	err := tx.QueryRow(ctx, `
		UPDATE batches
		SET opened_units    = 1,
		    opened_at       = NOW(),
		    open_expires_at = CASE WHEN $1::int IS NOT NULL THEN CURRENT_DATE + $1::int ELSE NULL END
		WHERE id = $2
		RETURNING open_expires_at
	`, shelfLifeDays, batchID).Scan(&openExpires)
	if err != nil {
		return nil, fmt.Errorf("failed to open unit on batch %d: %w", batchID, err)
	}
	return openExpires, nil
}

// insertMovement appends one immutable ledger row.
func insertMovement(ctx context.Context, q querier, tenantID, productID uuid.UUID, locationID *uuid.UUID,
	quantity decimal.Decimal, mtype MovementType, metadata map[string]any, userID *int) (uuid.UUID, error) {

	encoded, err := json.Marshal(metadata)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to encode movement metadata: %w", err)
	}

	var id uuid.UUID
	err = q.QueryRow(ctx, `
		INSERT INTO movements (tenant_id, product_id, location_id, quantity, movement_type, metadata, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, tenantID, productID, locationID, quantity, string(mtype), string(encoded), userID).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert %s movement: %w", mtype, err)
	}
	return id, nil
}

// remainingStockTx sums live stock for a product.
func remainingStockTx(ctx context.Context, tx pgx.Tx, tenantID, productID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(quantity), 0)
		FROM batches
		WHERE tenant_id = $1 AND product_id = $2 AND NOT is_depleted
	`, tenantID, productID).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum stock for product %s: %w", productID, err)
	}
	return total, nil
}

// consumeLocation picks the movement's location: explicit request first,
// then the product's default.
func consumeLocation(explicit *uuid.UUID, product *Product) *uuid.UUID {
	if explicit != nil {
		return explicit
	}
	return product.LocationID
}

package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"smart-inventory/internal/blob"
	"smart-inventory/internal/qr"
)

// zeroUUID stands in for NULL in the product and location uniqueness indexes.
const zeroUUID = "00000000-0000-0000-0000-000000000000"

// ProductService owns the product catalog: creation with name-based
// deduplication, scan payload resolution, and the QR image lifecycle.
type ProductService interface {
	// List returns the tenant's products with location paths and live stock
	// totals, sorted by name.
	List(ctx context.Context, tenantID uuid.UUID) ([]Product, error)

	// GetByID loads one product.
	GetByID(ctx context.Context, tenantID, productID uuid.UUID) (*Product, error)

	// ResolveScanPayload maps a scanned code ("PRD:<uuid>") to its product.
	ResolveScanPayload(ctx context.Context, tenantID uuid.UUID, payload string) (*Product, error)

	// CreateOrGetTx creates a product inside the caller's transaction, or
	// returns the existing one when a product with the same normalized name
	// already lives at the location. The bool reports whether a row was
	// created.
	CreateOrGetTx(ctx context.Context, tx pgx.Tx, tenantID uuid.UUID, spec NewProductSpec, locationID uuid.UUID) (*Product, bool, error)

	// EnsureQRImage renders and stores the product's QR PNG if it has none.
	EnsureQRImage(ctx context.Context, product *Product) error

	// QRImage returns the product's QR PNG, generating it on demand.
	QRImage(ctx context.Context, tenantID, productID uuid.UUID) ([]byte, string, error)
}

// NewProductSpec describes a product to create inline during a goods receipt.
type NewProductSpec struct {
	Name              string
	Category          string
	Unit              string
	MinStock          decimal.Decimal
	TrackOpenState    bool
	OpenShelfLifeDays *int
	NFCTagUID         string
	Notes             string
}

type productService struct {
	pool   *pgxpool.Pool
	blobs  blob.Store
	qrSize int
}

// NewProductService constructs a ProductService backed by PostgreSQL, with QR
// images stored in the given blob store.
func NewProductService(pool *pgxpool.Pool, blobs blob.Store, qrSize int) ProductService {
	return &productService{pool: pool, blobs: blobs, qrSize: qrSize}
}

func (s *productService) List(ctx context.Context, tenantID uuid.UUID) ([]Product, error) {
	rows, err := s.pool.Query(ctx, `
		WITH RECURSIVE paths AS (
			SELECT id, name::text AS path
			FROM locations
			WHERE tenant_id = $1 AND parent_id IS NULL
			UNION ALL
			SELECT l.id, pa.path || ' / ' || l.name
			FROM locations l
			JOIN paths pa ON l.parent_id = pa.id
			WHERE l.tenant_id = $1
		)
		SELECT p.id, p.name, p.sku, p.category, p.unit, p.min_stock, p.qr_payload, p.qr_image_key,
		       p.nfc_tag_uid, p.track_open_state, p.open_shelf_life_days, p.notes, p.location_id, p.created_at,
		       COALESCE(pa.path, ''),
		       COALESCE(SUM(b.quantity) FILTER (WHERE NOT b.is_depleted), 0)
		FROM products p
		LEFT JOIN paths pa ON pa.id = p.location_id
		LEFT JOIN batches b ON b.tenant_id = p.tenant_id AND b.product_id = p.id
		WHERE p.tenant_id = $1
		GROUP BY p.id, pa.path
		ORDER BY p.name ASC
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p := Product{TenantID: tenantID}
		if err := rows.Scan(
			&p.ID, &p.Name, &p.SKU, &p.Category, &p.Unit, &p.MinStock, &p.QRPayload, &p.QRImageKey,
			&p.NFCTagUID, &p.TrackOpenState, &p.OpenShelfLifeDays, &p.Notes, &p.LocationID, &p.CreatedAt,
			&p.LocationPath, &p.TotalStock,
		); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *productService) GetByID(ctx context.Context, tenantID, productID uuid.UUID) (*Product, error) {
	return fetchProduct(ctx, s.pool, tenantID, productID)
}

func (s *productService) ResolveScanPayload(ctx context.Context, tenantID uuid.UUID, payload string) (*Product, error) {
	payload = strings.TrimSpace(payload)
	if !strings.HasPrefix(payload, ScanPrefix) {
		return nil, Errf(ErrInvalidPayload, "scan payload must start with %q", ScanPrefix)
	}
	id, err := uuid.Parse(strings.TrimPrefix(payload, ScanPrefix))
	if err != nil {
		return nil, Errf(ErrInvalidPayload, "scan payload carries no valid product id")
	}
	return fetchProduct(ctx, s.pool, tenantID, id)
}

func (s *productService) CreateOrGetTx(ctx context.Context, tx pgx.Tx, tenantID uuid.UUID, spec NewProductSpec, locationID uuid.UUID) (*Product, bool, error) {
	nameKey := NameKey(spec.Name)
	if nameKey == "" {
		return nil, false, Errf(ErrInvalidPayload, "product name is required")
	}

	id := uuid.New()
	p := &Product{
		ID:                id,
		TenantID:          tenantID,
		Name:              strings.TrimSpace(spec.Name),
		SKU:               MakeSKU(spec.Name, id.String()),
		Category:          spec.Category,
		Unit:              spec.Unit,
		MinStock:          spec.MinStock,
		QRPayload:         ScanPrefix + id.String(),
		NFCTagUID:         spec.NFCTagUID,
		TrackOpenState:    spec.TrackOpenState,
		OpenShelfLifeDays: spec.OpenShelfLifeDays,
		Notes:             spec.Notes,
		LocationID:        &locationID,
	}

	// Two concurrent receipts for the same new product race on the
	// normalized-name index; the loser's insert becomes a no-op and both end
	// up with the winner's row.
	tag, err := tx.Exec(ctx, `
		INSERT INTO products (id, tenant_id, name, name_key, sku, category, unit, min_stock,
		                      qr_payload, nfc_tag_uid, track_open_state, open_shelf_life_days, notes, location_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (tenant_id, COALESCE(location_id, '`+zeroUUID+`'::uuid), name_key) DO NOTHING
	`, p.ID, tenantID, p.Name, nameKey, p.SKU, p.Category, p.Unit, p.MinStock,
		p.QRPayload, p.NFCTagUID, p.TrackOpenState, p.OpenShelfLifeDays, p.Notes, locationID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to insert product %q: %w", p.Name, err)
	}
	if tag.RowsAffected() > 0 {
		return p, true, nil
	}

	existing := &Product{TenantID: tenantID}
	err = tx.QueryRow(ctx, `
		SELECT id, name, sku, category, unit, min_stock, qr_payload, qr_image_key,
		       nfc_tag_uid, track_open_state, open_shelf_life_days, notes, location_id, created_at
		FROM products
		WHERE tenant_id = $1 AND COALESCE(location_id, '`+zeroUUID+`'::uuid) = $2 AND name_key = $3
	`, tenantID, locationID, nameKey).Scan(
		&existing.ID, &existing.Name, &existing.SKU, &existing.Category, &existing.Unit, &existing.MinStock,
		&existing.QRPayload, &existing.QRImageKey, &existing.NFCTagUID, &existing.TrackOpenState,
		&existing.OpenShelfLifeDays, &existing.Notes, &existing.LocationID, &existing.CreatedAt,
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load existing product %q: %w", p.Name, err)
	}
	return existing, false, nil
}

func (s *productService) EnsureQRImage(ctx context.Context, product *Product) error {
	if product.QRImageKey != "" {
		return nil
	}
	key, err := s.storeQRImage(ctx, product)
	if err != nil {
		return err
	}
	product.QRImageKey = key
	return nil
}

func (s *productService) QRImage(ctx context.Context, tenantID, productID uuid.UUID) ([]byte, string, error) {
	product, err := fetchProduct(ctx, s.pool, tenantID, productID)
	if err != nil {
		return nil, "", err
	}
	if product.QRImageKey != "" {
		data, ct, err := s.blobs.Get(ctx, product.QRImageKey)
		if err == nil {
			return data, ct, nil
		}
		if !errors.Is(err, blob.ErrNotFound) {
			return nil, "", fmt.Errorf("failed to load qr image %s: %w", product.QRImageKey, err)
		}
		// The key points at nothing (blob store wiped or migrated); fall
		// through and regenerate.
	}
	if _, err := s.storeQRImage(ctx, product); err != nil {
		return nil, "", err
	}
	return s.blobs.Get(ctx, product.QRImageKey)
}

// storeQRImage renders the scan payload, writes the PNG to blob storage, and
// records the key on the product row.
func (s *productService) storeQRImage(ctx context.Context, product *Product) (string, error) {
	png, err := qr.EncodePNG(product.QRPayload, s.qrSize)
	if err != nil {
		return "", fmt.Errorf("failed to render qr code for product %s: %w", product.ID, err)
	}
	key := fmt.Sprintf("qr/product-%s-%s.png", Slugify(product.Name), product.ID.String()[:8])
	if err := s.blobs.Put(ctx, key, png, "image/png"); err != nil {
		return "", fmt.Errorf("failed to store qr image %s: %w", key, err)
	}
	if _, err := s.pool.Exec(ctx,
		"UPDATE products SET qr_image_key = $1 WHERE tenant_id = $2 AND id = $3",
		key, product.TenantID, product.ID,
	); err != nil {
		return "", fmt.Errorf("failed to record qr image key for product %s: %w", product.ID, err)
	}
	product.QRImageKey = key
	return key, nil
}

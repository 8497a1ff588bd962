package app

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"smart-inventory/internal/core"
)

// ScanResult is the outcome of one scan step. Exactly one of the payload
// fields is set, matching the request mode.
type ScanResult struct {
	Mode     ScanMode             `json:"mode"`
	Receive  *ReceiveView         `json:"receive,omitempty"`
	Consume  *ConsumeView         `json:"consume,omitempty"`
	Audit    *core.ProductStock   `json:"audit,omitempty"`
	AuditAll []core.LocationAudit `json:"audit_all,omitempty"`
}

// ReceiveView reports a goods receipt.
type ReceiveView struct {
	Product        ProductView     `json:"product"`
	ProductCreated bool            `json:"product_created"`
	BatchID        int64           `json:"batch_id"`
	EntryDate      string          `json:"entry_date"`
	Quantity       decimal.Decimal `json:"quantity"`
	Remaining      decimal.Decimal `json:"remaining"`
	MovementID     uuid.UUID       `json:"movement_id"`
}

// ConsumeView reports a consumption with its per-batch ledger.
type ConsumeView struct {
	Product       ProductView      `json:"product"`
	Consumed      []core.BatchTake `json:"consumed"`
	Remaining     decimal.Decimal  `json:"remaining"`
	MovementID    uuid.UUID        `json:"movement_id"`
	OpenedBatchID *int64           `json:"opened_batch_id,omitempty"`
	OpenExpiresAt *time.Time       `json:"open_expires_at,omitempty"`
}

// ProductView is the wire shape of a product.
type ProductView struct {
	ID                uuid.UUID       `json:"id"`
	Name              string          `json:"name"`
	SKU               string          `json:"sku"`
	Category          string          `json:"category,omitempty"`
	Unit              string          `json:"unit"`
	MinStock          decimal.Decimal `json:"min_stock"`
	QRPayload         string          `json:"qr_payload"`
	TrackOpenState    bool            `json:"track_open_state"`
	OpenShelfLifeDays *int            `json:"open_shelf_life_days,omitempty"`
	Notes             string          `json:"notes,omitempty"`
	LocationID        *uuid.UUID      `json:"location_id,omitempty"`
	LocationPath      string          `json:"location_path,omitempty"`
	TotalStock        decimal.Decimal `json:"total_stock"`
	LowStock          bool            `json:"low_stock"`
	CreatedAt         time.Time       `json:"created_at"`
}

// ProductListResult is the catalog listing.
type ProductListResult struct {
	Products []ProductView `json:"products"`
	Total    int           `json:"total"`
	LowStock int           `json:"low_stock"`
}

// ProductDetailResult is one product with its live batches.
type ProductDetailResult struct {
	Product ProductView         `json:"product"`
	Batches []core.BatchSummary `json:"batches"`
}

// MovementView is the wire shape of a ledger entry.
type MovementView struct {
	ID         uuid.UUID         `json:"id"`
	ProductID  uuid.UUID         `json:"product_id"`
	LocationID *uuid.UUID        `json:"location_id,omitempty"`
	Quantity   decimal.Decimal   `json:"quantity"`
	Type       core.MovementType `json:"type"`
	Metadata   map[string]any    `json:"metadata,omitempty"`
	CreatedBy  *int              `json:"created_by,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

// MovementListResult is a ledger listing, newest first.
type MovementListResult struct {
	Movements []MovementView `json:"movements"`
	Total     int            `json:"total"`
}

func productView(p *core.Product) ProductView {
	return ProductView{
		ID:                p.ID,
		Name:              p.Name,
		SKU:               p.SKU,
		Category:          p.Category,
		Unit:              p.Unit,
		MinStock:          p.MinStock,
		QRPayload:         p.QRPayload,
		TrackOpenState:    p.TrackOpenState,
		OpenShelfLifeDays: p.OpenShelfLifeDays,
		Notes:             p.Notes,
		LocationID:        p.LocationID,
		LocationPath:      p.LocationPath,
		TotalStock:        p.TotalStock,
		LowStock:          p.LowStock(),
		CreatedAt:         p.CreatedAt,
	}
}

package core

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MovementType classifies a ledger entry.
type MovementType string

const (
	MovementIn     MovementType = "IN"  // goods receipt
	MovementOut    MovementType = "OUT" // consumption / issue
	MovementAdjust MovementType = "ADJ" // stock-take correction or opened-unit event
	MovementAudit  MovementType = "AUD" // audit snapshot request
)

// ScanPrefix is the payload prefix printed into product QR codes.
const ScanPrefix = "PRD:"

// Tenant is the isolation boundary. Every entity and every query is scoped
// to exactly one tenant.
type Tenant struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
}

// Location is a node in a tenant's storage tree. The display path is computed
// by walking parent pointers, root first ("Pantry / Shelf 2 / Red Box").
type Location struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	Name      string
	ParentID  *uuid.UUID
	Path      string
	CreatedAt time.Time
}

// LocationNode is a location with its resolved children, as returned by the
// tree listing.
type LocationNode struct {
	ID       uuid.UUID       `json:"id"`
	Name     string          `json:"name"`
	Path     string          `json:"path"`
	ParentID *uuid.UUID      `json:"parent_id"`
	Children []*LocationNode `json:"children"`
}

// Product is an item tracked by the inventory. Stock lives in batches; the
// product row carries identity, the scan payload, and open-state settings.
type Product struct {
	ID                uuid.UUID
	TenantID          uuid.UUID
	Name              string
	SKU               string
	Category          string
	Unit              string
	MinStock          decimal.Decimal
	QRPayload         string
	QRImageKey        string
	NFCTagUID         string
	TrackOpenState    bool
	OpenShelfLifeDays *int
	Notes             string
	LocationID        *uuid.UUID
	LocationPath      string
	CreatedAt         time.Time

	// TotalStock is filled by listing queries (sum over non-depleted batches).
	TotalStock decimal.Decimal
}

// LowStock reports whether the product's total stock has fallen to or below
// its minimum-stock threshold. A zero threshold disables the flag.
func (p *Product) LowStock() bool {
	return p.MinStock.IsPositive() && p.TotalStock.LessThanOrEqual(p.MinStock)
}

// Batch is one lot of a product received at one time. Quantity only ever
// decreases after creation (allocation or adjustment); the row is never
// deleted. At most one unit of a batch can be "opened" at a time.
type Batch struct {
	ID             int64
	TenantID       uuid.UUID
	ProductID      uuid.UUID
	Quantity       decimal.Decimal
	EntryDate      time.Time
	ExpirationDate *time.Time
	OpenedUnits    int
	OpenedAt       *time.Time
	OpenExpiresAt  *time.Time
	IsDepleted     bool
	DepletedAt     *time.Time
	Notes          string
	CreatedAt      time.Time
}

// Opened reports whether the batch currently holds an opened unit.
func (b *Batch) Opened() bool { return b.OpenedUnits > 0 }

// EffectiveExpiration is the earlier of the printed expiration date and the
// opened-unit expiry. An opened perishable may expire sooner than its label.
func (b *Batch) EffectiveExpiration() *time.Time {
	exp := b.ExpirationDate
	if b.OpenedUnits > 0 && b.OpenExpiresAt != nil {
		if exp == nil || b.OpenExpiresAt.Before(*exp) {
			exp = b.OpenExpiresAt
		}
	}
	return exp
}

// Movement is an immutable ledger entry. Positive quantity is stock in,
// negative is stock out; ADJ rows carry the signed correction delta.
type Movement struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	ProductID  uuid.UUID
	LocationID *uuid.UUID
	Quantity   decimal.Decimal
	Type       MovementType
	Metadata   map[string]any
	CreatedBy  *int
	CreatedAt  time.Time
}

// MovementFilter narrows a movement listing.
type MovementFilter struct {
	ProductID *uuid.UUID
	Type      *MovementType
	Limit     int
}

// BatchTake records how much one allocation drew from one batch.
type BatchTake struct {
	BatchID     int64           `json:"batch_id"`
	Taken       decimal.Decimal `json:"taken"`
	NewQuantity decimal.Decimal `json:"new_quantity"`

	depleted    bool
	clearedOpen bool
}

// BatchSummary is the per-batch slice of an audit snapshot.
type BatchSummary struct {
	ID             int64           `json:"id"`
	Quantity       decimal.Decimal `json:"quantity"`
	ExpirationDate *time.Time      `json:"expiration_date"`
	Opened         bool            `json:"opened"`
}

// ProductStock is one product's stock snapshot within an audit.
type ProductStock struct {
	ProductID         uuid.UUID       `json:"product_id"`
	Product           string          `json:"product"`
	Unit              string          `json:"unit"`
	TotalQuantity     decimal.Decimal `json:"total_quantity"`
	NearestExpiration *time.Time      `json:"nearest_expiration"`
	Batches           []BatchSummary  `json:"batches"`
}

// LocationAudit is the stock snapshot of one location (optionally including
// its whole subtree).
type LocationAudit struct {
	LocationID    uuid.UUID      `json:"location_id"`
	Location      string         `json:"location"`
	Recursive     bool           `json:"recursive"`
	TotalProducts int            `json:"total_products"`
	Items         []ProductStock `json:"items"`
}

// User is an operator account for the browser UI.
type User struct {
	ID           int
	TenantID     uuid.UUID
	Username     string
	PasswordHash string
	Role         string
	IsActive     bool
	CreatedAt    time.Time
}

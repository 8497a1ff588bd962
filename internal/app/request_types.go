package app

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ScanRequest is one scan-driven workflow step. Payload carries the scanned
// code ("PRD:<uuid>"); for IN scans of an unknown item NewProduct describes
// the product to create instead.
type ScanRequest struct {
	Mode       ScanMode           `json:"mode"`
	Payload    string             `json:"payload"`
	Quantity   decimal.Decimal    `json:"quantity"`
	Location   string             `json:"location"`   // UUID or name; optional when the product has a default
	Expiration string             `json:"expiration"` // YYYY-MM-DD, optional
	Notes      string             `json:"notes"`
	OpenNext   bool               `json:"open_next"` // OUT only: unseal a new unit after consuming
	NewProduct *NewProductRequest `json:"new_product,omitempty"`

	UserID *int `json:"-"`
}

// NewProductRequest describes a product created inline by an IN scan.
type NewProductRequest struct {
	Name              string          `json:"name"`
	Category          string          `json:"category"`
	Unit              string          `json:"unit"`
	MinStock          decimal.Decimal `json:"min_stock"`
	TrackOpenState    bool            `json:"track_open_state"`
	OpenShelfLifeDays *int            `json:"open_shelf_life_days"`
	NFCTagUID         string          `json:"nfc_tag_uid"`
	Notes             string          `json:"notes"`
}

// AdjustRequest sets a batch to a counted quantity.
type AdjustRequest struct {
	BatchID     int64           `json:"batch_id"`
	NewQuantity decimal.Decimal `json:"new_quantity"`
	Reason      string          `json:"reason"`

	UserID *int `json:"-"`
}

// MovementListRequest narrows a ledger listing.
type MovementListRequest struct {
	ProductID *uuid.UUID
	Type      string
	Limit     int
}

// LocationUpdateRequest renames and/or moves a location. An empty ParentRef
// leaves the parent untouched; "root" moves the location to the top level.
type LocationUpdateRequest struct {
	ID        uuid.UUID
	Name      string
	ParentRef string
}

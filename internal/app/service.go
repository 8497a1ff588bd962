package app

import (
	"context"

	"github.com/google/uuid"

	"smart-inventory/internal/core"
)

// ScanMode selects what a scanned code means in the current workflow step.
type ScanMode string

const (
	ScanIn         ScanMode = "IN"       // goods receipt
	ScanOut        ScanMode = "OUT"      // consumption
	ScanAudit      ScanMode = "AUD"      // per-product stock check
	ScanAuditTotal ScanMode = "AUDTOTAL" // whole-inventory stock check
)

// ApplicationService is the single interface all UI adapters (web API, server
// rendered pages) call. It decouples presentation from business logic.
// Implementations must contain no display logic of any kind.
type ApplicationService interface {
	// Scan executes one scan-driven workflow step: IN receives stock (creating
	// the product on first sight), OUT consumes FIFO-by-expiry, AUD snapshots
	// one product, AUDTOTAL snapshots the whole inventory.
	Scan(ctx context.Context, tenantID uuid.UUID, req ScanRequest) (*ScanResult, error)

	// OpenProduct unseals one unit of a product outside a consumption.
	OpenProduct(ctx context.Context, tenantID, productID uuid.UUID, userID *int) (*core.OpenResult, error)

	// AdjustBatch sets a batch to a counted quantity after a stock-take.
	AdjustBatch(ctx context.Context, tenantID uuid.UUID, req AdjustRequest) (*core.AdjustResult, error)

	// ListProducts returns the catalog with stock totals and low-stock flags.
	ListProducts(ctx context.Context, tenantID uuid.UUID) (*ProductListResult, error)

	// GetProduct returns one product with its live batches.
	GetProduct(ctx context.Context, tenantID, productID uuid.UUID) (*ProductDetailResult, error)

	// ProductQRImage returns the product's QR label as PNG bytes.
	ProductQRImage(ctx context.Context, tenantID, productID uuid.UUID) ([]byte, string, error)

	// ListMovements returns ledger entries, newest first.
	ListMovements(ctx context.Context, tenantID uuid.UUID, req MovementListRequest) (*MovementListResult, error)

	// LocationTree returns the tenant's storage tree.
	LocationTree(ctx context.Context, tenantID uuid.UUID) ([]*core.LocationNode, error)

	// CreateLocation adds a location; parentRef may be empty, a UUID, or a name.
	CreateLocation(ctx context.Context, tenantID uuid.UUID, name, parentRef string) (*core.Location, error)

	// UpdateLocation renames and/or moves a location.
	UpdateLocation(ctx context.Context, tenantID uuid.UUID, req LocationUpdateRequest) (*core.Location, error)

	// DeleteLocation removes an empty leaf location.
	DeleteLocation(ctx context.Context, tenantID, locationID uuid.UUID) error

	// AuditLocation snapshots the stock at one location, optionally with its
	// whole subtree.
	AuditLocation(ctx context.Context, tenantID uuid.UUID, locationRef string, recursive bool) (*core.LocationAudit, error)

	// AuditAll snapshots every stocked location.
	AuditAll(ctx context.Context, tenantID uuid.UUID) ([]core.LocationAudit, error)

	// Login authenticates an operator.
	Login(ctx context.Context, username, password string) (*core.User, error)

	// Health verifies the database connection.
	Health(ctx context.Context) error
}

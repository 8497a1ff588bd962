package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"smart-inventory/internal/core"
)

type appService struct {
	pool      *pgxpool.Pool
	stock     core.StockService
	products  core.ProductService
	locations core.LocationService
	audits    core.AuditService
	users     core.UserService
}

// NewAppService constructs an appService that satisfies ApplicationService.
func NewAppService(
	pool *pgxpool.Pool,
	stock core.StockService,
	products core.ProductService,
	locations core.LocationService,
	audits core.AuditService,
	users core.UserService,
) ApplicationService {
	return &appService{
		pool:      pool,
		stock:     stock,
		products:  products,
		locations: locations,
		audits:    audits,
		users:     users,
	}
}

func (s *appService) Scan(ctx context.Context, tenantID uuid.UUID, req ScanRequest) (*ScanResult, error) {
	switch req.Mode {
	case ScanIn:
		return s.scanIn(ctx, tenantID, req)
	case ScanOut:
		return s.scanOut(ctx, tenantID, req)
	case ScanAudit:
		product, err := s.products.ResolveScanPayload(ctx, tenantID, req.Payload)
		if err != nil {
			return nil, err
		}
		snap, err := s.audits.ProductSnapshot(ctx, tenantID, product.ID, req.UserID)
		if err != nil {
			return nil, err
		}
		return &ScanResult{Mode: ScanAudit, Audit: snap}, nil
	case ScanAuditTotal:
		all, err := s.audits.FullSnapshot(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		return &ScanResult{Mode: ScanAuditTotal, AuditAll: all}, nil
	default:
		return nil, core.Errf(core.ErrInvalidPayload, "unknown scan mode %q", req.Mode)
	}
}

func (s *appService) scanIn(ctx context.Context, tenantID uuid.UUID, req ScanRequest) (*ScanResult, error) {
	expiration, err := parseDate(req.Expiration)
	if err != nil {
		return nil, err
	}
	locationID, err := s.resolveLocationRef(ctx, tenantID, req.Location)
	if err != nil {
		return nil, err
	}

	in := core.ReceiveInput{
		LocationID:     locationID,
		Quantity:       req.Quantity,
		ExpirationDate: expiration,
		Notes:          req.Notes,
		UserID:         req.UserID,
	}
	if req.NewProduct != nil {
		in.NewProduct = &core.NewProductSpec{
			Name:              req.NewProduct.Name,
			Category:          req.NewProduct.Category,
			Unit:              req.NewProduct.Unit,
			MinStock:          req.NewProduct.MinStock,
			TrackOpenState:    req.NewProduct.TrackOpenState,
			OpenShelfLifeDays: req.NewProduct.OpenShelfLifeDays,
			NFCTagUID:         req.NewProduct.NFCTagUID,
			Notes:             req.NewProduct.Notes,
		}
	} else {
		product, err := s.products.ResolveScanPayload(ctx, tenantID, req.Payload)
		if err != nil {
			return nil, err
		}
		id := product.ID
		in.ProductID = &id
	}

	res, err := s.stock.Receive(ctx, tenantID, in)
	if err != nil {
		return nil, err
	}

	view := productView(res.Product)
	view.TotalStock = res.Remaining
	view.LowStock = res.Product.MinStock.IsPositive() && res.Remaining.LessThanOrEqual(res.Product.MinStock)
	return &ScanResult{Mode: ScanIn, Receive: &ReceiveView{
		Product:        view,
		ProductCreated: res.ProductCreated,
		BatchID:        res.Batch.ID,
		EntryDate:      res.Batch.EntryDate.Format("2006-01-02"),
		Quantity:       res.Batch.Quantity,
		Remaining:      res.Remaining,
		MovementID:     res.MovementID,
	}}, nil
}

func (s *appService) scanOut(ctx context.Context, tenantID uuid.UUID, req ScanRequest) (*ScanResult, error) {
	product, err := s.products.ResolveScanPayload(ctx, tenantID, req.Payload)
	if err != nil {
		return nil, err
	}
	locationID, err := s.resolveLocationRef(ctx, tenantID, req.Location)
	if err != nil {
		return nil, err
	}

	res, err := s.stock.Consume(ctx, tenantID, core.ConsumeInput{
		ProductID:  product.ID,
		Quantity:   req.Quantity,
		LocationID: locationID,
		OpenNext:   req.OpenNext,
		UserID:     req.UserID,
	})
	if err != nil {
		return nil, err
	}

	view := productView(res.Product)
	view.TotalStock = res.Remaining
	view.LowStock = res.Product.MinStock.IsPositive() && res.Remaining.LessThanOrEqual(res.Product.MinStock)
	return &ScanResult{Mode: ScanOut, Consume: &ConsumeView{
		Product:       view,
		Consumed:      res.Consumed,
		Remaining:     res.Remaining,
		MovementID:    res.MovementID,
		OpenedBatchID: res.OpenedBatchID,
		OpenExpiresAt: res.OpenExpiresAt,
	}}, nil
}

func (s *appService) OpenProduct(ctx context.Context, tenantID, productID uuid.UUID, userID *int) (*core.OpenResult, error) {
	return s.stock.Open(ctx, tenantID, productID, userID)
}

func (s *appService) AdjustBatch(ctx context.Context, tenantID uuid.UUID, req AdjustRequest) (*core.AdjustResult, error) {
	return s.stock.AdjustBatch(ctx, tenantID, core.AdjustInput{
		BatchID:     req.BatchID,
		NewQuantity: req.NewQuantity,
		Reason:      req.Reason,
		UserID:      req.UserID,
	})
}

func (s *appService) ListProducts(ctx context.Context, tenantID uuid.UUID) (*ProductListResult, error) {
	products, err := s.products.List(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	result := &ProductListResult{Products: make([]ProductView, 0, len(products)), Total: len(products)}
	for i := range products {
		view := productView(&products[i])
		if view.LowStock {
			result.LowStock++
		}
		result.Products = append(result.Products, view)
	}
	return result, nil
}

func (s *appService) GetProduct(ctx context.Context, tenantID, productID uuid.UUID) (*ProductDetailResult, error) {
	product, err := s.products.GetByID(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, quantity, expiration_date, opened_units
		FROM batches
		WHERE tenant_id = $1 AND product_id = $2 AND NOT is_depleted AND quantity > 0
		ORDER BY expiration_date ASC NULLS LAST, entry_date ASC, id ASC
	`, tenantID, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to query product batches: %w", err)
	}
	defer rows.Close()

	detail := &ProductDetailResult{Batches: []core.BatchSummary{}}
	for rows.Next() {
		var b core.BatchSummary
		var openedUnits int
		if err := rows.Scan(&b.ID, &b.Quantity, &b.ExpirationDate, &openedUnits); err != nil {
			return nil, fmt.Errorf("failed to scan batch: %w", err)
		}
		b.Opened = openedUnits > 0
		product.TotalStock = product.TotalStock.Add(b.Quantity)
		detail.Batches = append(detail.Batches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if product.LocationID != nil {
		if path, err := s.locations.Path(ctx, tenantID, *product.LocationID); err == nil {
			product.LocationPath = path
		}
	}
	detail.Product = productView(product)
	return detail, nil
}

func (s *appService) ProductQRImage(ctx context.Context, tenantID, productID uuid.UUID) ([]byte, string, error) {
	return s.products.QRImage(ctx, tenantID, productID)
}

func (s *appService) ListMovements(ctx context.Context, tenantID uuid.UUID, req MovementListRequest) (*MovementListResult, error) {
	filter := core.MovementFilter{ProductID: req.ProductID, Limit: req.Limit}
	if req.Type != "" {
		switch t := core.MovementType(req.Type); t {
		case core.MovementIn, core.MovementOut, core.MovementAdjust, core.MovementAudit:
			filter.Type = &t
		default:
			return nil, core.Errf(core.ErrInvalidPayload, "unknown movement type %q", req.Type)
		}
	}

	movements, err := s.stock.ListMovements(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}

	result := &MovementListResult{Movements: make([]MovementView, 0, len(movements)), Total: len(movements)}
	for _, m := range movements {
		result.Movements = append(result.Movements, MovementView{
			ID:         m.ID,
			ProductID:  m.ProductID,
			LocationID: m.LocationID,
			Quantity:   m.Quantity,
			Type:       m.Type,
			Metadata:   m.Metadata,
			CreatedBy:  m.CreatedBy,
			CreatedAt:  m.CreatedAt,
		})
	}
	return result, nil
}

func (s *appService) LocationTree(ctx context.Context, tenantID uuid.UUID) ([]*core.LocationNode, error) {
	return s.locations.Tree(ctx, tenantID)
}

func (s *appService) CreateLocation(ctx context.Context, tenantID uuid.UUID, name, parentRef string) (*core.Location, error) {
	parentID, err := s.resolveLocationRef(ctx, tenantID, parentRef)
	if err != nil {
		return nil, err
	}
	return s.locations.Create(ctx, tenantID, name, parentID)
}

func (s *appService) UpdateLocation(ctx context.Context, tenantID uuid.UUID, req LocationUpdateRequest) (*core.Location, error) {
	update := core.LocationUpdate{ID: req.ID}
	if req.Name != "" {
		update.Name = &req.Name
	}
	switch req.ParentRef {
	case "":
	case "root":
		update.ClearParent = true
	default:
		parentID, err := s.resolveLocationRef(ctx, tenantID, req.ParentRef)
		if err != nil {
			return nil, err
		}
		update.ParentID = parentID
	}
	return s.locations.Update(ctx, tenantID, update)
}

func (s *appService) DeleteLocation(ctx context.Context, tenantID, locationID uuid.UUID) error {
	return s.locations.Delete(ctx, tenantID, locationID)
}

func (s *appService) AuditLocation(ctx context.Context, tenantID uuid.UUID, locationRef string, recursive bool) (*core.LocationAudit, error) {
	loc, err := s.locations.ResolveRef(ctx, tenantID, locationRef)
	if err != nil {
		return nil, err
	}
	return s.audits.LocationSnapshot(ctx, tenantID, loc.ID, recursive)
}

func (s *appService) AuditAll(ctx context.Context, tenantID uuid.UUID) ([]core.LocationAudit, error) {
	return s.audits.FullSnapshot(ctx, tenantID)
}

func (s *appService) Login(ctx context.Context, username, password string) (*core.User, error) {
	return s.users.Authenticate(ctx, username, password)
}

func (s *appService) Health(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// resolveLocationRef maps an optional location reference (empty, UUID, or
// name) to a location id.
func (s *appService) resolveLocationRef(ctx context.Context, tenantID uuid.UUID, ref string) (*uuid.UUID, error) {
	if ref == "" {
		return nil, nil
	}
	loc, err := s.locations.ResolveRef(ctx, tenantID, ref)
	if err != nil {
		return nil, err
	}
	id := loc.ID
	return &id, nil
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, core.Errf(core.ErrInvalidPayload, "invalid date %q, want YYYY-MM-DD", s)
	}
	return &t, nil
}

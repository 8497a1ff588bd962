package core_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"smart-inventory/internal/blob"
	"smart-inventory/internal/core"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

var (
	testTenant   = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	testLocation = uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000001")
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database to avoid wiping the live app database.
	// Set TEST_DATABASE_URL in your .env or environment to run integration tests.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set — skipping integration test to protect live database")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE movements, batches, products, locations, users, tenants CASCADE;

		INSERT INTO tenants (id, name) VALUES ('00000000-0000-0000-0000-000000000001', 'Test Tenant');

		INSERT INTO locations (id, tenant_id, name) VALUES
		('aaaaaaaa-0000-0000-0000-000000000001', '00000000-0000-0000-0000-000000000001', 'Pantry');
	`)
	if err != nil {
		t.Fatalf("Failed to seed test database: %v", err)
	}

	return pool
}

func newStockService(pool *pgxpool.Pool) (core.StockService, core.ProductService) {
	products := core.NewProductService(pool, blob.NewMemory(), 0)
	return core.NewStockService(pool, products), products
}

func receiveNew(t *testing.T, stock core.StockService, spec core.NewProductSpec, quantity string, expiration *time.Time) *core.ReceiveResult {
	t.Helper()
	res, err := stock.Receive(context.Background(), testTenant, core.ReceiveInput{
		NewProduct:     &spec,
		LocationID:     &testLocation,
		Quantity:       decimal.RequireFromString(quantity),
		ExpirationDate: expiration,
	})
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	return res
}

func TestStockService_ReceiveConsumeRoundTrip(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	stock, _ := newStockService(pool)
	ctx := context.Background()

	res := receiveNew(t, stock, core.NewProductSpec{Name: "Tomato Sauce", Unit: "jar"}, "5", nil)
	if !res.ProductCreated {
		t.Fatal("expected the product to be created inline")
	}
	if res.Product.SKU == "" || res.Product.QRPayload != core.ScanPrefix+res.Product.ID.String() {
		t.Errorf("product identity not assigned: sku=%q payload=%q", res.Product.SKU, res.Product.QRPayload)
	}
	if !res.Remaining.Equal(decimal.NewFromInt(5)) {
		t.Errorf("remaining = %s, want 5", res.Remaining)
	}

	out, err := stock.Consume(ctx, testTenant, core.ConsumeInput{
		ProductID: res.Product.ID,
		Quantity:  decimal.NewFromInt(5),
	})
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if len(out.Consumed) != 1 || !out.Consumed[0].Taken.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("consumed = %+v, want one take of 5", out.Consumed)
	}
	if !out.Remaining.IsZero() {
		t.Errorf("remaining = %s, want 0", out.Remaining)
	}

	// Draining the batch must mark it depleted exactly once.
	var depleted bool
	var depletedAt *time.Time
	err = pool.QueryRow(ctx,
		"SELECT is_depleted, depleted_at FROM batches WHERE id = $1", out.Consumed[0].BatchID,
	).Scan(&depleted, &depletedAt)
	if err != nil {
		t.Fatalf("query batch: %v", err)
	}
	if !depleted || depletedAt == nil {
		t.Errorf("batch not marked depleted (depleted=%v, at=%v)", depleted, depletedAt)
	}

	// Ledger: one IN and one OUT.
	movements, err := stock.ListMovements(ctx, testTenant, core.MovementFilter{ProductID: &res.Product.ID})
	if err != nil {
		t.Fatalf("list movements: %v", err)
	}
	if len(movements) != 2 {
		t.Fatalf("movements = %d, want 2", len(movements))
	}
	if movements[0].Type != core.MovementOut || movements[1].Type != core.MovementIn {
		t.Errorf("movement order = %s, %s; want OUT then IN (newest first)", movements[0].Type, movements[1].Type)
	}
	if !movements[0].Quantity.Equal(decimal.NewFromInt(-5)) {
		t.Errorf("OUT quantity = %s, want -5", movements[0].Quantity)
	}
}

func TestStockService_ConsumeFollowsExpiryOrder(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	stock, _ := newStockService(pool)
	ctx := context.Background()

	late := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	soon := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	res := receiveNew(t, stock, core.NewProductSpec{Name: "Milk", Unit: "l"}, "2", &late)
	pid := res.Product.ID
	soonRes, err := stock.Receive(ctx, testTenant, core.ReceiveInput{
		ProductID:      &pid,
		Quantity:       decimal.NewFromInt(2),
		ExpirationDate: &soon,
	})
	if err != nil {
		t.Fatalf("second receive: %v", err)
	}

	out, err := stock.Consume(ctx, testTenant, core.ConsumeInput{ProductID: pid, Quantity: decimal.NewFromInt(3)})
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if len(out.Consumed) != 2 {
		t.Fatalf("consumed = %+v, want 2 takes", out.Consumed)
	}
	if out.Consumed[0].BatchID != soonRes.Batch.ID {
		t.Errorf("first take came from batch %d, want the soonest-expiring %d", out.Consumed[0].BatchID, soonRes.Batch.ID)
	}
	if !out.Consumed[0].Taken.Equal(decimal.NewFromInt(2)) || !out.Consumed[1].Taken.Equal(decimal.NewFromInt(1)) {
		t.Errorf("takes = %+v, want 2 then 1", out.Consumed)
	}
}

func TestStockService_InsufficientStockLeavesNothingConsumed(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	stock, _ := newStockService(pool)
	ctx := context.Background()

	res := receiveNew(t, stock, core.NewProductSpec{Name: "Flour", Unit: "kg"}, "4", nil)

	_, err := stock.Consume(ctx, testTenant, core.ConsumeInput{ProductID: res.Product.ID, Quantity: decimal.NewFromInt(5)})
	derr, ok := core.AsDomain(err)
	if !ok || derr.Code != core.ErrInsufficientStock {
		t.Fatalf("err = %v, want %s", err, core.ErrInsufficientStock)
	}
	if derr.Meta["available"] != "4" || derr.Meta["requested"] != "5" {
		t.Errorf("meta = %v, want available=4 requested=5", derr.Meta)
	}

	var qty decimal.Decimal
	if err := pool.QueryRow(ctx, "SELECT quantity FROM batches WHERE id = $1", res.Batch.ID).Scan(&qty); err != nil {
		t.Fatalf("query batch: %v", err)
	}
	if !qty.Equal(decimal.NewFromInt(4)) {
		t.Errorf("batch quantity = %s after failed consume, want 4 untouched", qty)
	}
}

func TestStockService_OpenedUnitConsumedFirst(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	stock, _ := newStockService(pool)
	ctx := context.Background()

	days := 5
	soon := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	late := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	res := receiveNew(t, stock, core.NewProductSpec{
		Name: "Yogurt", Unit: "cup", TrackOpenState: true, OpenShelfLifeDays: &days,
	}, "1", &soon)
	pid := res.Product.ID
	lateRes, err := stock.Receive(ctx, testTenant, core.ReceiveInput{
		ProductID:      &pid,
		Quantity:       decimal.NewFromInt(1),
		ExpirationDate: &late,
	})
	if err != nil {
		t.Fatalf("second receive: %v", err)
	}

	// Open a unit from the later-expiring batch by opening after the sooner
	// batch is the natural target, then verify consumption prefers the open one.
	opened, err := stock.Open(ctx, testTenant, pid, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if opened.BatchID != res.Batch.ID {
		t.Fatalf("opened batch %d, want the soonest-expiring %d", opened.BatchID, res.Batch.ID)
	}
	if opened.OpenExpiresAt == nil {
		t.Fatal("open expiry not computed despite a shelf-life default")
	}

	// Re-opening while a unit is open must fail.
	if _, err := stock.Open(ctx, testTenant, pid, nil); err == nil {
		t.Fatal("second open succeeded, want ALREADY_OPEN")
	} else if derr, ok := core.AsDomain(err); !ok || derr.Code != core.ErrAlreadyOpen {
		t.Fatalf("second open err = %v, want %s", err, core.ErrAlreadyOpen)
	}

	// A batch expiring even sooner arrives after the open; the opened unit
	// still goes first.
	sooner := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	if _, err := stock.Receive(ctx, testTenant, core.ReceiveInput{
		ProductID:      &pid,
		Quantity:       decimal.NewFromInt(1),
		ExpirationDate: &sooner,
	}); err != nil {
		t.Fatalf("third receive: %v", err)
	}

	out, err := stock.Consume(ctx, testTenant, core.ConsumeInput{ProductID: pid, Quantity: decimal.NewFromInt(1)})
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if out.Consumed[0].BatchID != opened.BatchID {
		t.Errorf("consumed from batch %d, want the opened %d", out.Consumed[0].BatchID, opened.BatchID)
	}
	_ = lateRes
}

func TestStockService_OpenNotTracked(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	stock, _ := newStockService(pool)

	res := receiveNew(t, stock, core.NewProductSpec{Name: "Rice", Unit: "kg"}, "3", nil)

	_, err := stock.Open(context.Background(), testTenant, res.Product.ID, nil)
	if derr, ok := core.AsDomain(err); !ok || derr.Code != core.ErrOpenNotTracked {
		t.Fatalf("err = %v, want %s", err, core.ErrOpenNotTracked)
	}
}

func TestStockService_ConsumeAndOpenNext(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	stock, _ := newStockService(pool)
	ctx := context.Background()

	res := receiveNew(t, stock, core.NewProductSpec{
		Name: "Juice", Unit: "bottle", TrackOpenState: true,
	}, "3", nil)

	out, err := stock.Consume(ctx, testTenant, core.ConsumeInput{
		ProductID: res.Product.ID,
		Quantity:  decimal.NewFromInt(1),
		OpenNext:  true,
	})
	if err != nil {
		t.Fatalf("consume+open: %v", err)
	}
	if out.OpenedBatchID == nil {
		t.Fatal("no unit opened")
	}

	var openedUnits int
	if err := pool.QueryRow(ctx, "SELECT opened_units FROM batches WHERE id = $1", *out.OpenedBatchID).Scan(&openedUnits); err != nil {
		t.Fatalf("query batch: %v", err)
	}
	if openedUnits != 1 {
		t.Errorf("opened_units = %d, want 1", openedUnits)
	}

	// OpenNext with quantity != 1 is rejected up front.
	_, err = stock.Consume(ctx, testTenant, core.ConsumeInput{
		ProductID: res.Product.ID,
		Quantity:  decimal.NewFromInt(2),
		OpenNext:  true,
	})
	if derr, ok := core.AsDomain(err); !ok || derr.Code != core.ErrInvalidQuantity {
		t.Fatalf("err = %v, want %s", err, core.ErrInvalidQuantity)
	}
}

func TestStockService_AdjustBatch(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	stock, _ := newStockService(pool)
	ctx := context.Background()

	res := receiveNew(t, stock, core.NewProductSpec{Name: "Sugar", Unit: "kg"}, "10", nil)

	adj, err := stock.AdjustBatch(ctx, testTenant, core.AdjustInput{
		BatchID:     res.Batch.ID,
		NewQuantity: decimal.NewFromInt(7),
		Reason:      "stocktake",
	})
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if !adj.Delta.Equal(decimal.NewFromInt(-3)) {
		t.Errorf("delta = %s, want -3", adj.Delta)
	}

	// Adjusting to zero depletes; a second adjustment must be refused.
	if _, err := stock.AdjustBatch(ctx, testTenant, core.AdjustInput{
		BatchID:     res.Batch.ID,
		NewQuantity: decimal.Zero,
	}); err != nil {
		t.Fatalf("adjust to zero: %v", err)
	}
	_, err = stock.AdjustBatch(ctx, testTenant, core.AdjustInput{
		BatchID:     res.Batch.ID,
		NewQuantity: decimal.NewFromInt(2),
	})
	if derr, ok := core.AsDomain(err); !ok || derr.Code != core.ErrBatchDepleted {
		t.Fatalf("err = %v, want %s", err, core.ErrBatchDepleted)
	}
}

func TestStockService_ConcurrentConsumeOneWinner(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	stock, _ := newStockService(pool)
	ctx := context.Background()

	res := receiveNew(t, stock, core.NewProductSpec{Name: "Coffee", Unit: "bag"}, "1", nil)

	var wg sync.WaitGroup
	errCh := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := stock.Consume(ctx, testTenant, core.ConsumeInput{
				ProductID: res.Product.ID,
				Quantity:  decimal.NewFromInt(1),
			})
			errCh <- err
		}()
	}
	wg.Wait()
	close(errCh)

	var successes, conflicts int
	for err := range errCh {
		if err == nil {
			successes++
			continue
		}
		derr, ok := core.AsDomain(err)
		if !ok || (derr.Code != core.ErrInsufficientStock && derr.Code != core.ErrConcurrencyConflict) {
			t.Errorf("unexpected racer error: %v", err)
			continue
		}
		conflicts++
	}
	if successes != 1 || conflicts != 1 {
		t.Errorf("successes = %d, conflicts = %d; want exactly one of each", successes, conflicts)
	}

	var qty decimal.Decimal
	if err := pool.QueryRow(ctx, "SELECT quantity FROM batches WHERE id = $1", res.Batch.ID).Scan(&qty); err != nil {
		t.Fatalf("query batch: %v", err)
	}
	if !qty.IsZero() {
		t.Errorf("batch quantity = %s, want 0 (never negative)", qty)
	}
}

func TestProductService_DuplicateNameMergesOnReceive(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	stock, _ := newStockService(pool)

	first := receiveNew(t, stock, core.NewProductSpec{Name: "Café Molido", Unit: "bag"}, "1", nil)
	second := receiveNew(t, stock, core.NewProductSpec{Name: "cafe  molido", Unit: "bag"}, "2", nil)

	if second.ProductCreated {
		t.Fatal("second receive created a duplicate product")
	}
	if first.Product.ID != second.Product.ID {
		t.Errorf("products differ: %s vs %s", first.Product.ID, second.Product.ID)
	}
	if first.Batch.ID == second.Batch.ID {
		t.Error("receipts must stay separate batches")
	}
	if !second.Remaining.Equal(decimal.NewFromInt(3)) {
		t.Errorf("remaining = %s, want 3", second.Remaining)
	}
}

func TestProductService_ResolveScanPayload(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	stock, products := newStockService(pool)
	ctx := context.Background()

	res := receiveNew(t, stock, core.NewProductSpec{Name: "Honey", Unit: "jar"}, "1", nil)

	p, err := products.ResolveScanPayload(ctx, testTenant, res.Product.QRPayload)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if p.ID != res.Product.ID {
		t.Errorf("resolved %s, want %s", p.ID, res.Product.ID)
	}

	if _, err := products.ResolveScanPayload(ctx, testTenant, "garbage"); err == nil {
		t.Fatal("garbage payload resolved")
	} else if derr, ok := core.AsDomain(err); !ok || derr.Code != core.ErrInvalidPayload {
		t.Fatalf("err = %v, want %s", err, core.ErrInvalidPayload)
	}

	missing := core.ScanPrefix + uuid.NewString()
	if _, err := products.ResolveScanPayload(ctx, testTenant, missing); err == nil {
		t.Fatal("unknown product resolved")
	} else if derr, ok := core.AsDomain(err); !ok || derr.Code != core.ErrMissingProduct {
		t.Fatalf("err = %v, want %s", err, core.ErrMissingProduct)
	}
}

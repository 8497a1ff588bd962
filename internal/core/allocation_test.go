package core

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func date(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func qty(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestSortForConsumptionExpiryOrder(t *testing.T) {
	batches := []Batch{
		{ID: 1, Quantity: qty("1"), ExpirationDate: date("2025-01-01")},
		{ID: 2, Quantity: qty("1"), ExpirationDate: nil},
		{ID: 3, Quantity: qty("1"), ExpirationDate: date("2024-06-01")},
	}
	sortForConsumption(batches)

	got := []int64{batches[0].ID, batches[1].ID, batches[2].ID}
	want := []int64{3, 1, 2}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v (soonest expiry first, nulls last)", got, want)
		}
	}
}

func TestSortForConsumptionOpenedFirst(t *testing.T) {
	batches := []Batch{
		{ID: 1, Quantity: qty("1"), ExpirationDate: date("2024-01-01")},
		{ID: 2, Quantity: qty("1"), ExpirationDate: date("2030-01-01"), OpenedUnits: 1},
	}
	sortForConsumption(batches)

	if batches[0].ID != 2 {
		t.Fatalf("opened batch must come first even with a later expiry, got batch %d", batches[0].ID)
	}
}

func TestSortForConsumptionEntryDateTieBreak(t *testing.T) {
	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	batches := []Batch{
		{ID: 1, Quantity: qty("1"), EntryDate: newer},
		{ID: 2, Quantity: qty("1"), EntryDate: older},
	}
	sortForConsumption(batches)

	if batches[0].ID != 2 {
		t.Fatalf("older entry date must come first, got batch %d", batches[0].ID)
	}
}

func TestPlanAllocationSpansBatches(t *testing.T) {
	batches := []Batch{
		{ID: 1, Quantity: qty("2"), ExpirationDate: date("2024-06-01")},
		{ID: 2, Quantity: qty("5"), ExpirationDate: date("2025-01-01")},
	}
	takes, err := planAllocation(batches, qty("3"))
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(takes) != 2 {
		t.Fatalf("takes = %d, want 2", len(takes))
	}
	if takes[0].BatchID != 1 || !takes[0].Taken.Equal(qty("2")) || !takes[0].depleted {
		t.Errorf("first take = %+v, want batch 1 fully drained", takes[0])
	}
	if takes[1].BatchID != 2 || !takes[1].Taken.Equal(qty("1")) || takes[1].depleted {
		t.Errorf("second take = %+v, want 1 from batch 2", takes[1])
	}
	if !takes[1].NewQuantity.Equal(qty("4")) {
		t.Errorf("batch 2 new quantity = %s, want 4", takes[1].NewQuantity)
	}

	// Planning must not touch the inputs.
	for _, b := range batches {
		if b.IsDepleted {
			t.Errorf("batch %d mutated by planning", b.ID)
		}
	}
}

func TestPlanAllocationExactSum(t *testing.T) {
	batches := []Batch{
		{ID: 1, Quantity: qty("1.5")},
		{ID: 2, Quantity: qty("2.25")},
		{ID: 3, Quantity: qty("4")},
	}
	requested := qty("3.75")
	takes, err := planAllocation(batches, requested)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	sum := decimal.Zero
	for _, take := range takes {
		sum = sum.Add(take.Taken)
	}
	if !sum.Equal(requested) {
		t.Fatalf("takes sum to %s, want %s", sum, requested)
	}
}

func TestPlanAllocationInsufficientStock(t *testing.T) {
	batches := []Batch{
		{ID: 1, Quantity: qty("4")},
	}
	_, err := planAllocation(batches, qty("5"))
	derr, ok := AsDomain(err)
	if !ok || derr.Code != ErrInsufficientStock {
		t.Fatalf("err = %v, want %s", err, ErrInsufficientStock)
	}
	if derr.Meta["available"] != "4" || derr.Meta["requested"] != "5" {
		t.Errorf("meta = %v, want available=4 requested=5", derr.Meta)
	}
}

func TestPlanAllocationRejectsNonPositive(t *testing.T) {
	for _, q := range []string{"0", "-1"} {
		_, err := planAllocation(nil, qty(q))
		if derr, ok := AsDomain(err); !ok || derr.Code != ErrInvalidQuantity {
			t.Errorf("quantity %s: err = %v, want %s", q, err, ErrInvalidQuantity)
		}
	}
}

func TestPlanAllocationOpenedConsumedFirst(t *testing.T) {
	batches := []Batch{
		{ID: 1, Quantity: qty("3"), ExpirationDate: date("2024-01-01")},
		{ID: 2, Quantity: qty("1"), ExpirationDate: date("2030-01-01"), OpenedUnits: 1},
	}
	takes, err := planAllocation(batches, qty("1"))
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(takes) != 1 || takes[0].BatchID != 2 {
		t.Fatalf("takes = %+v, want the opened batch 2 only", takes)
	}
	if !takes[0].clearedOpen || !takes[0].depleted {
		t.Errorf("take = %+v, want opened unit consumed and batch drained", takes[0])
	}
}

func TestPickOpenTargetSkipsEmpty(t *testing.T) {
	batches := []Batch{
		{ID: 1, Quantity: qty("0"), ExpirationDate: date("2024-01-01")},
		{ID: 2, Quantity: qty("2"), ExpirationDate: date("2025-01-01")},
	}
	target := pickOpenTarget(batches)
	if target == nil || target.ID != 2 {
		t.Fatalf("target = %+v, want batch 2", target)
	}
}

func TestPickOpenTargetNoStock(t *testing.T) {
	if target := pickOpenTarget(nil); target != nil {
		t.Fatalf("target = %+v, want nil", target)
	}
}

func TestFindOpened(t *testing.T) {
	batches := []Batch{
		{ID: 1, Quantity: qty("1")},
		{ID: 2, Quantity: qty("1"), OpenedUnits: 1, OpenExpiresAt: date("2024-05-01")},
		{ID: 3, Quantity: qty("1"), OpenedUnits: 1, OpenExpiresAt: date("2024-04-01")},
	}
	found := findOpened(batches)
	if found == nil || found.ID != 3 {
		t.Fatalf("found = %+v, want batch 3 (soonest open expiry)", found)
	}
	if findOpened(batches[:1]) != nil {
		t.Fatal("no opened batch expected")
	}
}

func TestEffectiveExpiration(t *testing.T) {
	b := Batch{ExpirationDate: date("2024-12-01")}
	if got := b.EffectiveExpiration(); !got.Equal(*date("2024-12-01")) {
		t.Errorf("sealed batch expiration = %v", got)
	}

	b.OpenedUnits = 1
	b.OpenExpiresAt = date("2024-06-01")
	if got := b.EffectiveExpiration(); !got.Equal(*date("2024-06-01")) {
		t.Errorf("opened batch must expire at the open expiry, got %v", got)
	}

	b.OpenExpiresAt = date("2025-06-01")
	if got := b.EffectiveExpiration(); !got.Equal(*date("2024-12-01")) {
		t.Errorf("label expiry wins when sooner, got %v", got)
	}
}

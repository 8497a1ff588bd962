package core_test

import (
	"context"
	"testing"

	"smart-inventory/internal/core"

	"github.com/google/uuid"
)

func TestLocationService_TreeAndPaths(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	locations := core.NewLocationService(pool)
	ctx := context.Background()

	shelf, err := locations.Create(ctx, testTenant, "Shelf 2", &testLocation)
	if err != nil {
		t.Fatalf("create shelf: %v", err)
	}
	box, err := locations.Create(ctx, testTenant, "Red Box", &shelf.ID)
	if err != nil {
		t.Fatalf("create box: %v", err)
	}

	path, err := locations.Path(ctx, testTenant, box.ID)
	if err != nil {
		t.Fatalf("path: %v", err)
	}
	if path != "Pantry / Shelf 2 / Red Box" {
		t.Errorf("path = %q, want %q", path, "Pantry / Shelf 2 / Red Box")
	}

	roots, err := locations.Tree(ctx, testTenant)
	if err != nil {
		t.Fatalf("tree: %v", err)
	}
	if len(roots) != 1 || roots[0].Name != "Pantry" {
		t.Fatalf("roots = %+v, want single Pantry root", roots)
	}
	if len(roots[0].Children) != 1 || roots[0].Children[0].Path != "Pantry / Shelf 2" {
		t.Errorf("children = %+v", roots[0].Children)
	}
}

func TestLocationService_DuplicateSiblingRejected(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	locations := core.NewLocationService(pool)
	ctx := context.Background()

	if _, err := locations.Create(ctx, testTenant, "Shelf", &testLocation); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := locations.Create(ctx, testTenant, "shelf", &testLocation)
	if derr, ok := core.AsDomain(err); !ok || derr.Code != core.ErrDuplicateName {
		t.Fatalf("err = %v, want %s", err, core.ErrDuplicateName)
	}

	// The same name under a different parent is fine.
	other, err := locations.Create(ctx, testTenant, "Cellar", nil)
	if err != nil {
		t.Fatalf("create root: %v", err)
	}
	if _, err := locations.Create(ctx, testTenant, "Shelf", &other.ID); err != nil {
		t.Fatalf("same name, different parent: %v", err)
	}
}

func TestLocationService_UpdateRejectsCycles(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	locations := core.NewLocationService(pool)
	ctx := context.Background()

	a, err := locations.Create(ctx, testTenant, "A", &testLocation)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	b, err := locations.Create(ctx, testTenant, "B", &a.ID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Moving A under its own descendant B would orphan the subtree.
	_, err = locations.Update(ctx, testTenant, core.LocationUpdate{ID: a.ID, ParentID: &b.ID})
	if derr, ok := core.AsDomain(err); !ok || derr.Code != core.ErrInvalidPayload {
		t.Fatalf("err = %v, want %s", err, core.ErrInvalidPayload)
	}
	_, err = locations.Update(ctx, testTenant, core.LocationUpdate{ID: a.ID, ParentID: &a.ID})
	if derr, ok := core.AsDomain(err); !ok || derr.Code != core.ErrInvalidPayload {
		t.Fatalf("self-parent err = %v, want %s", err, core.ErrInvalidPayload)
	}

	// A legal move to the root.
	moved, err := locations.Update(ctx, testTenant, core.LocationUpdate{ID: b.ID, ClearParent: true})
	if err != nil {
		t.Fatalf("move to root: %v", err)
	}
	if moved.ParentID != nil {
		t.Errorf("parent = %v, want nil", moved.ParentID)
	}
}

func TestLocationService_DeleteGuards(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	locations := core.NewLocationService(pool)
	stock, _ := newStockService(pool)
	ctx := context.Background()

	// Pantry holds a product (via a receipt), so it refuses deletion.
	receiveNew(t, stock, core.NewProductSpec{Name: "Pasta", Unit: "box"}, "1", nil)
	err := locations.Delete(ctx, testTenant, testLocation)
	if derr, ok := core.AsDomain(err); !ok || derr.Code != core.ErrLocationInUse {
		t.Fatalf("err = %v, want %s", err, core.ErrLocationInUse)
	}

	// An empty leaf goes away.
	leaf, err := locations.Create(ctx, testTenant, "Empty Shelf", &testLocation)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := locations.Delete(ctx, testTenant, leaf.ID); err != nil {
		t.Fatalf("delete leaf: %v", err)
	}

	if err := locations.Delete(ctx, testTenant, uuid.New()); err == nil {
		t.Fatal("deleting a missing location succeeded")
	}
}

func TestLocationService_ResolveRef(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	locations := core.NewLocationService(pool)
	ctx := context.Background()

	byID, err := locations.ResolveRef(ctx, testTenant, testLocation.String())
	if err != nil {
		t.Fatalf("resolve by id: %v", err)
	}
	if byID.ID != testLocation {
		t.Errorf("resolved %s, want %s", byID.ID, testLocation)
	}

	byName, err := locations.ResolveRef(ctx, testTenant, "pantry")
	if err != nil {
		t.Fatalf("resolve by name: %v", err)
	}
	if byName.ID != testLocation {
		t.Errorf("resolved %s, want %s", byName.ID, testLocation)
	}

	_, err = locations.ResolveRef(ctx, testTenant, "attic")
	if derr, ok := core.AsDomain(err); !ok || derr.Code != core.ErrLocationNotFound {
		t.Fatalf("err = %v, want %s", err, core.ErrLocationNotFound)
	}
}

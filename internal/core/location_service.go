package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PathSeparator joins location names into a display path, root first.
const PathSeparator = " / "

// LocationService manages the per-tenant storage tree.
type LocationService interface {
	// Tree returns the tenant's locations as a forest of root nodes with
	// resolved paths, children sorted by name.
	Tree(ctx context.Context, tenantID uuid.UUID) ([]*LocationNode, error)

	// Create adds a location under the given parent (nil for a root). Names
	// are unique case-insensitively among siblings.
	Create(ctx context.Context, tenantID uuid.UUID, name string, parentID *uuid.UUID) (*Location, error)

	// Update renames and/or reparents a location. Moving a location under
	// itself or one of its descendants is rejected.
	Update(ctx context.Context, tenantID uuid.UUID, in LocationUpdate) (*Location, error)

	// Delete removes an empty leaf location. Locations with children,
	// products, batches, or ledger history refuse deletion.
	Delete(ctx context.Context, tenantID, locationID uuid.UUID) error

	// ResolveRef maps a location reference (UUID string or case-insensitive
	// name) to its location.
	ResolveRef(ctx context.Context, tenantID uuid.UUID, ref string) (*Location, error)

	// Path returns the display path of a location ("Pantry / Shelf 2").
	Path(ctx context.Context, tenantID, locationID uuid.UUID) (string, error)
}

// LocationUpdate describes a rename and/or move. Nil fields are left
// untouched; ClearParent moves the location to the root.
type LocationUpdate struct {
	ID          uuid.UUID
	Name        *string
	ParentID    *uuid.UUID
	ClearParent bool
}

type locationService struct {
	pool *pgxpool.Pool
}

// NewLocationService constructs a LocationService backed by PostgreSQL.
func NewLocationService(pool *pgxpool.Pool) LocationService {
	return &locationService{pool: pool}
}

func (s *locationService) Tree(ctx context.Context, tenantID uuid.UUID) ([]*LocationNode, error) {
	locations, err := s.loadAll(ctx, s.pool, tenantID)
	if err != nil {
		return nil, err
	}
	return buildTree(locations), nil
}

func (s *locationService) Create(ctx context.Context, tenantID uuid.UUID, name string, parentID *uuid.UUID) (*Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, Errf(ErrInvalidPayload, "location name is required")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if parentID != nil {
		if err := verifyLocationTx(ctx, tx, tenantID, *parentID); err != nil {
			return nil, err
		}
	}

	loc := &Location{TenantID: tenantID, Name: name, ParentID: parentID}
	err = tx.QueryRow(ctx, `
		INSERT INTO locations (tenant_id, name, parent_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (tenant_id, COALESCE(parent_id, '`+zeroUUID+`'::uuid), LOWER(name)) DO NOTHING
		RETURNING id, created_at
	`, tenantID, name, parentID).Scan(&loc.ID, &loc.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, Errf(ErrDuplicateName, "a location named %q already exists here", name)
		}
		return nil, fmt.Errorf("failed to insert location %q: %w", name, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit location: %w", err)
	}
	return loc, nil
}

func (s *locationService) Update(ctx context.Context, tenantID uuid.UUID, in LocationUpdate) (*Location, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	loc := &Location{TenantID: tenantID}
	err = tx.QueryRow(ctx, `
		SELECT id, name, parent_id, created_at
		FROM locations
		WHERE tenant_id = $1 AND id = $2
		FOR UPDATE
	`, tenantID, in.ID).Scan(&loc.ID, &loc.Name, &loc.ParentID, &loc.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, Errf(ErrLocationNotFound, "location %s not found", in.ID)
		}
		return nil, fmt.Errorf("failed to lock location %s: %w", in.ID, err)
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, Errf(ErrInvalidPayload, "location name is required")
		}
		loc.Name = name
	}
	switch {
	case in.ClearParent:
		loc.ParentID = nil
	case in.ParentID != nil:
		if *in.ParentID == loc.ID {
			return nil, Errf(ErrInvalidPayload, "a location cannot be its own parent")
		}
		if err := verifyLocationTx(ctx, tx, tenantID, *in.ParentID); err != nil {
			return nil, err
		}
		// Walk the new parent's ancestry; hitting the moved node means the
		// move would create a cycle.
		ancestor := in.ParentID
		for ancestor != nil {
			if *ancestor == loc.ID {
				return nil, Errf(ErrInvalidPayload, "cannot move a location under its own descendant")
			}
			var next *uuid.UUID
			err := tx.QueryRow(ctx,
				"SELECT parent_id FROM locations WHERE tenant_id = $1 AND id = $2",
				tenantID, *ancestor,
			).Scan(&next)
			if err != nil {
				return nil, fmt.Errorf("failed to walk location ancestry: %w", err)
			}
			ancestor = next
		}
		loc.ParentID = in.ParentID
	}

	tag, err := tx.Exec(ctx, `
		UPDATE locations SET name = $1, parent_id = $2
		WHERE tenant_id = $3 AND id = $4
		  AND NOT EXISTS (
			SELECT 1 FROM locations
			WHERE tenant_id = $3 AND id <> $4
			  AND COALESCE(parent_id, '`+zeroUUID+`'::uuid) = COALESCE($2, '`+zeroUUID+`'::uuid)
			  AND LOWER(name) = LOWER($1)
		  )
	`, loc.Name, loc.ParentID, tenantID, loc.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to update location %s: %w", loc.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, Errf(ErrDuplicateName, "a location named %q already exists here", loc.Name)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit location update: %w", err)
	}
	return loc, nil
}

func (s *locationService) Delete(ctx context.Context, tenantID, locationID uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var inUse bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM locations WHERE tenant_id = $1 AND parent_id = $2)
		    OR EXISTS (SELECT 1 FROM products  WHERE tenant_id = $1 AND location_id = $2)
		    OR EXISTS (SELECT 1 FROM movements WHERE tenant_id = $1 AND location_id = $2)
	`, tenantID, locationID).Scan(&inUse)
	if err != nil {
		return fmt.Errorf("failed to check location usage: %w", err)
	}
	if inUse {
		return Errf(ErrLocationInUse, "location %s still has children, products, or history", locationID)
	}

	tag, err := tx.Exec(ctx,
		"DELETE FROM locations WHERE tenant_id = $1 AND id = $2",
		tenantID, locationID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete location %s: %w", locationID, err)
	}
	if tag.RowsAffected() == 0 {
		return Errf(ErrLocationNotFound, "location %s not found", locationID)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit location delete: %w", err)
	}
	return nil
}

func (s *locationService) ResolveRef(ctx context.Context, tenantID uuid.UUID, ref string) (*Location, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, Errf(ErrLocationRequired, "a location reference is required")
	}

	loc := &Location{TenantID: tenantID}
	if id, err := uuid.Parse(ref); err == nil {
		err = s.pool.QueryRow(ctx,
			"SELECT id, name, parent_id, created_at FROM locations WHERE tenant_id = $1 AND id = $2",
			tenantID, id,
		).Scan(&loc.ID, &loc.Name, &loc.ParentID, &loc.CreatedAt)
		if err == nil {
			return loc, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("failed to resolve location %s: %w", id, err)
		}
		return nil, Errf(ErrLocationNotFound, "location %s not found", id)
	}

	err := s.pool.QueryRow(ctx, `
		SELECT id, name, parent_id, created_at
		FROM locations
		WHERE tenant_id = $1 AND LOWER(name) = LOWER($2)
		ORDER BY created_at ASC
		LIMIT 1
	`, tenantID, ref).Scan(&loc.ID, &loc.Name, &loc.ParentID, &loc.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, Errf(ErrLocationNotFound, "location %q not found", ref)
		}
		return nil, fmt.Errorf("failed to resolve location %q: %w", ref, err)
	}
	return loc, nil
}

func (s *locationService) Path(ctx context.Context, tenantID, locationID uuid.UUID) (string, error) {
	var path string
	err := s.pool.QueryRow(ctx, `
		WITH RECURSIVE chain AS (
			SELECT id, name, parent_id, name::text AS path
			FROM locations
			WHERE tenant_id = $1 AND id = $2
			UNION ALL
			SELECT l.id, l.name, l.parent_id, l.name || '`+PathSeparator+`' || c.path
			FROM locations l
			JOIN chain c ON l.id = c.parent_id
			WHERE l.tenant_id = $1
		)
		SELECT path FROM chain WHERE parent_id IS NULL
	`, tenantID, locationID).Scan(&path)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", Errf(ErrLocationNotFound, "location %s not found", locationID)
		}
		return "", fmt.Errorf("failed to compute location path: %w", err)
	}
	return path, nil
}

func (s *locationService) loadAll(ctx context.Context, q querier, tenantID uuid.UUID) ([]Location, error) {
	rows, err := q.Query(ctx,
		"SELECT id, name, parent_id, created_at FROM locations WHERE tenant_id = $1",
		tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load locations: %w", err)
	}
	defer rows.Close()

	var out []Location
	for rows.Next() {
		l := Location{TenantID: tenantID}
		if err := rows.Scan(&l.ID, &l.Name, &l.ParentID, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan location: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// buildTree assembles a forest from flat rows, filling paths root-first and
// sorting siblings by name. Orphaned nodes (parent missing) surface as roots
// rather than vanishing.
func buildTree(locations []Location) []*LocationNode {
	nodes := make(map[uuid.UUID]*LocationNode, len(locations))
	for _, l := range locations {
		nodes[l.ID] = &LocationNode{ID: l.ID, Name: l.Name, ParentID: l.ParentID, Children: []*LocationNode{}}
	}

	var roots []*LocationNode
	for _, l := range locations {
		node := nodes[l.ID]
		if l.ParentID != nil {
			if parent, ok := nodes[*l.ParentID]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}

	var fill func(n *LocationNode, prefix string)
	fill = func(n *LocationNode, prefix string) {
		if prefix == "" {
			n.Path = n.Name
		} else {
			n.Path = prefix + PathSeparator + n.Name
		}
		sort.Slice(n.Children, func(i, j int) bool {
			return strings.ToLower(n.Children[i].Name) < strings.ToLower(n.Children[j].Name)
		})
		for _, c := range n.Children {
			fill(c, n.Path)
		}
	}
	sort.Slice(roots, func(i, j int) bool {
		return strings.ToLower(roots[i].Name) < strings.ToLower(roots[j].Name)
	})
	for _, r := range roots {
		fill(r, "")
	}
	return roots
}

package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

// ErrBadCredentials is returned by Authenticate for an unknown username, a
// wrong password, or a deactivated account. Callers must not distinguish.
var ErrBadCredentials = errors.New("invalid username or password")

// UserService manages operator accounts for the browser UI.
type UserService interface {
	// Authenticate verifies a username/password pair against the stored
	// bcrypt hash.
	Authenticate(ctx context.Context, username, password string) (*User, error)

	// GetByID loads one user.
	GetByID(ctx context.Context, id int) (*User, error)

	// Create adds a user with a bcrypt-hashed password.
	Create(ctx context.Context, tenantID uuid.UUID, username, password, role string) (*User, error)
}

type userService struct {
	pool *pgxpool.Pool
}

// NewUserService constructs a UserService backed by PostgreSQL.
func NewUserService(pool *pgxpool.Pool) UserService {
	return &userService{pool: pool}
}

func (s *userService) Authenticate(ctx context.Context, username, password string) (*User, error) {
	u := &User{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, tenant_id, username, password_hash, role, is_active, created_at
		FROM users
		WHERE LOWER(username) = LOWER($1)
	`, username).Scan(&u.ID, &u.TenantID, &u.Username, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Burn a comparison so unknown usernames cost the same as wrong
			// passwords.
			_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5B718d7d1Sh0GxaXBbEUJVmxpsS.i"), []byte(password))
			return nil, ErrBadCredentials
		}
		return nil, fmt.Errorf("failed to load user %q: %w", username, err)
	}
	if !u.IsActive {
		return nil, ErrBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrBadCredentials
	}
	return u, nil
}

func (s *userService) GetByID(ctx context.Context, id int) (*User, error) {
	u := &User{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, tenant_id, username, password_hash, role, is_active, created_at
		FROM users
		WHERE id = $1
	`, id).Scan(&u.ID, &u.TenantID, &u.Username, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %d not found", id)
		}
		return nil, fmt.Errorf("failed to load user %d: %w", id, err)
	}
	return u, nil
}

func (s *userService) Create(ctx context.Context, tenantID uuid.UUID, username, password, role string) (*User, error) {
	if username == "" || password == "" {
		return nil, Errf(ErrInvalidPayload, "username and password are required")
	}
	if role == "" {
		role = "staff"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := &User{TenantID: tenantID, Username: username, PasswordHash: string(hash), Role: role, IsActive: true}
	err = s.pool.QueryRow(ctx, `
		INSERT INTO users (tenant_id, username, password_hash, role, is_active)
		VALUES ($1, $2, $3, $4, TRUE)
		ON CONFLICT (username) DO NOTHING
		RETURNING id, created_at
	`, tenantID, username, string(hash), role).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, Errf(ErrDuplicateName, "username %q is taken", username)
		}
		return nil, fmt.Errorf("failed to insert user %q: %w", username, err)
	}
	return u, nil
}

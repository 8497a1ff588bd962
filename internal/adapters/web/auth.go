package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"smart-inventory/internal/core"
)

type authClaimsKey struct{}

// AuthClaims holds the authenticated user's identity extracted from the JWT.
type AuthClaims struct {
	UserID   int
	TenantID uuid.UUID
	Role     string
}

// authFromContext returns the auth claims stored in ctx, or nil.
func authFromContext(ctx context.Context) *AuthClaims {
	v, _ := ctx.Value(authClaimsKey{}).(*AuthClaims)
	return v
}

// jwtClaims is the JWT payload struct used for signing and parsing.
type jwtClaims struct {
	UserID   int    `json:"user_id"`
	TenantID string `json:"tenant_id"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// tenantID returns the tenant of the current request: the session's tenant
// when authenticated, otherwise the configured default tenant.
func (h *Handler) tenantID(r *http.Request) uuid.UUID {
	if claims := authFromContext(r.Context()); claims != nil {
		return claims.TenantID
	}
	return h.defaultTenant
}

// userID returns the acting user, or nil for anonymous requests.
func userID(r *http.Request) *int {
	if claims := authFromContext(r.Context()); claims != nil {
		id := claims.UserID
		return &id
	}
	return nil
}

// parseSession validates the auth_token cookie and returns the claims, or nil.
func (h *Handler) parseSession(r *http.Request) *AuthClaims {
	cookie, err := r.Cookie("auth_token")
	if err != nil {
		return nil
	}

	claims := &jwtClaims{}
	token, err := jwt.ParseWithClaims(cookie.Value, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(h.jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return nil
	}
	tenant, err := uuid.Parse(claims.TenantID)
	if err != nil {
		return nil
	}
	return &AuthClaims{UserID: claims.UserID, TenantID: tenant, Role: claims.Role}
}

// ResolveIdentity is chi middleware for API routes: a valid session injects
// AuthClaims into the context, an absent or invalid one leaves the request
// anonymous (handlers then scope to the default tenant).
func (h *Handler) ResolveIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claims := h.parseSession(r); claims != nil {
			r = r.WithContext(context.WithValue(r.Context(), authClaimsKey{}, claims))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuthBrowser is middleware for HTML page routes. Unauthenticated
// requests are redirected to /login with a 303.
func (h *Handler) RequireAuthBrowser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := h.parseSession(r)
		if claims == nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		ctx := context.WithValue(r.Context(), authClaimsKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// issueSession signs a JWT for the user and sets the auth cookie.
func (h *Handler) issueSession(w http.ResponseWriter, user *core.User) error {
	claims := &jwtClaims{
		UserID:   user.ID,
		TenantID: user.TenantID.String(),
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(h.sessionTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(h.jwtSecret))
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    signed,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(h.sessionTTL.Seconds()),
	})
	return nil
}

func clearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
	})
}

// login handles POST /api/auth/login.
func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, "invalid username or password", "UNAUTHORIZED", http.StatusUnauthorized)
		return
	}
	if err := h.issueSession(w, user); err != nil {
		writeError(w, r, "token generation failed", "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}

	type response struct {
		Username string `json:"username"`
		Role     string `json:"role"`
		TenantID string `json:"tenant_id"`
	}
	writeJSON(w, response{Username: user.Username, Role: user.Role, TenantID: user.TenantID.String()})
}

// logout handles POST /api/auth/logout. It clears the auth cookie.
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	clearSession(w)
	w.WriteHeader(http.StatusNoContent)
}

// me handles GET /api/auth/me. It returns the current session identity.
func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())
	if claims == nil {
		writeError(w, r, "not authenticated", "UNAUTHORIZED", http.StatusUnauthorized)
		return
	}

	type response struct {
		UserID   int    `json:"user_id"`
		Role     string `json:"role"`
		TenantID string `json:"tenant_id"`
	}
	writeJSON(w, response{UserID: claims.UserID, Role: claims.Role, TenantID: claims.TenantID.String()})
}

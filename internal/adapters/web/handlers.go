package web

import (
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"smart-inventory/internal/app"
	webui "smart-inventory/web"
)

// Options configures the HTTP handler.
type Options struct {
	AllowedOrigins string
	JWTSecret      string
	SessionTTL     time.Duration
	DefaultTenant  uuid.UUID
}

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc           app.ApplicationService
	router        chi.Router
	jwtSecret     string
	sessionTTL    time.Duration
	defaultTenant uuid.UUID
	fileServer    http.Handler
	pages         *pageRenderer
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, opts Options) http.Handler {
	staticFS, err := fs.Sub(webui.Static, "static")
	if err != nil {
		panic("web/static embed sub-FS failed: " + err.Error())
	}

	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 12 * time.Hour
	}

	h := &Handler{
		svc:           svc,
		jwtSecret:     opts.JWTSecret,
		sessionTTL:    opts.SessionTTL,
		defaultTenant: opts.DefaultTenant,
		fileServer:    http.FileServer(http.FS(staticFS)),
		pages:         newPageRenderer(),
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(Recoverer)
	r.Use(Metrics)
	r.Use(CORS(opts.AllowedOrigins))

	// ── Health and metrics (public) ───────────────────────────────────────────
	r.Get("/api/health", h.health)
	r.Method(http.MethodGet, "/metrics", MetricsHandler())

	// ── Auth (public API) ─────────────────────────────────────────────────────
	r.Group(func(r chi.Router) {
		r.Use(RequestBodyLimit(1 << 16)) // 64 KB is plenty for credentials
		r.Post("/api/auth/login", h.login)
		r.Post("/api/auth/logout", h.logout)
	})

	// ── Static files served at /static/* ─────────────────────────────────────
	r.Get("/static/*", func(w http.ResponseWriter, req *http.Request) {
		http.StripPrefix("/static", h.fileServer).ServeHTTP(w, req)
	})

	// ── Browser login/logout (public HTML) ───────────────────────────────────
	r.Get("/login", h.loginPage)
	r.Post("/login", h.loginFormSubmit)
	r.Post("/logout", h.logoutPage)

	// ── Protected browser routes (redirect to /login if unauthenticated) ─────
	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuthBrowser)
		r.Get("/", h.scanPage) // scanning is the primary workflow
		r.Get("/dashboard", h.dashboardPage)
		r.Get("/locations", h.locationsPage)
		r.Get("/products", h.productsPage)
		r.Get("/products/{id}", h.productDetailPage)
	})

	// ── API routes. A valid session pins the tenant; anonymous scanners fall
	// back to the default tenant so a kitchen tablet works without accounts. ──
	r.Group(func(r chi.Router) {
		r.Use(h.ResolveIdentity)
		r.Use(RequestBodyLimit(1 << 20)) // 1 MB

		r.Get("/api/auth/me", h.me)

		// Scan-driven workflows
		r.Post("/api/scan", h.apiScan)
		r.Post("/api/open", h.apiOpen)
		r.Post("/api/batches/{id}/adjust", h.apiAdjustBatch)

		// Catalog
		r.Get("/api/products", h.apiListProducts)
		r.Get("/api/products/{id}", h.apiGetProduct)
		r.Get("/api/products/{id}/qr", h.apiProductQR)

		// Ledger
		r.Get("/api/movements", h.apiListMovements)

		// Locations
		r.Get("/api/locations/tree", h.apiLocationTree)
		r.Post("/api/locations", h.apiCreateLocation)
		r.Put("/api/locations/{id}", h.apiUpdateLocation)
		r.Delete("/api/locations/{id}", h.apiDeleteLocation)

		// Audits
		r.Get("/api/audit", h.apiAuditLocation)
		r.Get("/api/audit/all", h.apiAuditAll)
	})

	h.router = r
	return r
}

// health returns service and database status.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Status string `json:"status"`
	}
	if err := h.svc.Health(r.Context()); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(response{Status: "degraded"})
		return
	}
	writeJSON(w, response{Status: "ok"})
}

// pathUUID extracts and parses the {id} URL parameter.
func pathUUID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "id"))
}

// decodeJSON decodes the request body into v and returns false + writes an
// appropriate error response on failure. Returns HTTP 413 when the body
// exceeds the size limit set by RequestBodyLimit middleware; HTTP 400 for all
// other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}

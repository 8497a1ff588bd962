package web

import (
	"html/template"
	"log"
	"net/http"

	"smart-inventory/internal/app"
	webui "smart-inventory/web"
)

// pageRenderer holds the parsed server-rendered page templates. Each page is
// parsed together with the base layout so {{template "base"}} resolves.
type pageRenderer struct {
	templates map[string]*template.Template
}

var pageNames = []string{"login", "scan", "dashboard", "locations", "products", "product_detail"}

func newPageRenderer() *pageRenderer {
	r := &pageRenderer{templates: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		r.templates[name] = template.Must(template.ParseFS(
			webui.Templates,
			"templates/base.html",
			"templates/"+name+".html",
		))
	}
	return r
}

func (pr *pageRenderer) render(w http.ResponseWriter, name string, data any) {
	tmpl, ok := pr.templates[name]
	if !ok {
		http.Error(w, "unknown page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base", data); err != nil {
		log.Printf("render %s: %v", name, err)
	}
}

type pageData struct {
	Title  string
	Active string
	Error  string
	Data   any
}

// ── Login page ────────────────────────────────────────────────────────────────

// loginPage handles GET /login — renders the sign-in page.
// Redirects to / if already authenticated.
func (h *Handler) loginPage(w http.ResponseWriter, r *http.Request) {
	if h.parseSession(r) != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.pages.render(w, "login", pageData{Title: "Sign in"})
}

// loginFormSubmit handles POST /login — form-based login.
func (h *Handler) loginFormSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.pages.render(w, "login", pageData{Title: "Sign in", Error: "Invalid form submission."})
		return
	}

	user, err := h.svc.Login(r.Context(), r.FormValue("username"), r.FormValue("password"))
	if err != nil {
		h.pages.render(w, "login", pageData{Title: "Sign in", Error: "Invalid username or password."})
		return
	}
	if err := h.issueSession(w, user); err != nil {
		h.pages.render(w, "login", pageData{Title: "Sign in", Error: "Could not start a session."})
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// logoutPage handles POST /logout.
func (h *Handler) logoutPage(w http.ResponseWriter, r *http.Request) {
	clearSession(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// ── Application pages ─────────────────────────────────────────────────────────

func movementPageRequest() app.MovementListRequest {
	return app.MovementListRequest{Limit: 20}
}

// scanPage handles GET / — the scanner workflow, the app's home screen.
func (h *Handler) scanPage(w http.ResponseWriter, r *http.Request) {
	h.pages.render(w, "scan", pageData{Title: "Scan", Active: "scan"})
}

// dashboardPage handles GET /dashboard — stock overview with low-stock flags
// and recent ledger activity.
func (h *Handler) dashboardPage(w http.ResponseWriter, r *http.Request) {
	tenant := h.tenantID(r)

	products, err := h.svc.ListProducts(r.Context(), tenant)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	movements, err := h.svc.ListMovements(r.Context(), tenant, movementPageRequest())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.pages.render(w, "dashboard", pageData{
		Title:  "Dashboard",
		Active: "dashboard",
		Data: struct {
			Products  any
			Movements any
		}{products, movements},
	})
}

// locationsPage handles GET /locations — the storage tree.
func (h *Handler) locationsPage(w http.ResponseWriter, r *http.Request) {
	tree, err := h.svc.LocationTree(r.Context(), h.tenantID(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.pages.render(w, "locations", pageData{Title: "Locations", Active: "locations", Data: tree})
}

// productsPage handles GET /products — the catalog listing.
func (h *Handler) productsPage(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListProducts(r.Context(), h.tenantID(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.pages.render(w, "products", pageData{Title: "Products", Active: "products", Data: result})
}

// productDetailPage handles GET /products/{id} — one product with its batches
// and printable QR label.
func (h *Handler) productDetailPage(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	detail, err := h.svc.GetProduct(r.Context(), h.tenantID(r), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.pages.render(w, "product_detail", pageData{Title: detail.Product.Name, Active: "products", Data: detail})
}

/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/machines/*      Fleet management + sale recording
  /api/transactions    Recent ledger view
  /api/expenses/*      Expense tracking
  /api/employees/*     Staff records
  /api/dashboard       Derived totals

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Machine routes
		r.Route("/machines", func(r chi.Router) {
			r.Get("/", h.ListMachines)
			r.Post("/", h.CreateMachine)
			r.Put("/{id}", h.UpdateMachine)
			r.Delete("/{id}", h.DeleteMachine)
			r.Post("/{id}/sales", h.RecordSale)
			r.Post("/{id}/adjustments", h.AdjustRevenue)
			r.Get("/{id}/transactions", h.GetMachineTransactions)
		})

		// Transaction routes (read-only: the ledger is append-only)
		r.Get("/transactions", h.ListTransactions)

		// Expense routes
		r.Route("/expenses", func(r chi.Router) {
			r.Get("/", h.ListExpenses)
			r.Post("/", h.CreateExpense)
			r.Delete("/{id}", h.DeleteExpense)
		})

		// Employee routes
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
			r.Put("/{id}", h.UpdateEmployee)
			r.Delete("/{id}", h.DeleteEmployee)
		})

		// Dashboard
		r.Get("/dashboard", h.GetDashboard)
	})

	return r
}

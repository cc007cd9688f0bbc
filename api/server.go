/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/login, /api/logout     Session auth
  /api/checkin/{token}        Public badge check-in
  /api/* (rest)               Admin-only, behind RequireAdmin
  /static/*                   Generated badge images

SEE ALSO:
  - handlers.go: Handler implementations
  - auth.go: Session middleware
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

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

	r.Route("/api", func(r chi.Router) {
		// Public routes: login and badge check-in.
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Post("/checkin/{token}", h.Checkin)

		// Everything else requires an admin session.
		r.Group(func(r chi.Router) {
			r.Use(h.RequireAdmin)

			r.Get("/dashboard", h.Dashboard)

			r.Route("/employees", func(r chi.Router) {
				r.Get("/", h.ListEmployees)
				r.Post("/", h.CreateEmployee)
				r.Post("/{id}/activate", h.ActivateEmployee)
				r.Post("/{id}/deactivate", h.DeactivateEmployee)
				r.Post("/{id}/qr", h.RegenerateQR)
			})

			r.Get("/attendance", h.RecentAttendance)

			r.Route("/alerts", func(r chi.Router) {
				r.Get("/", h.ListAlerts)
				r.Post("/{id}/toggle-read", h.ToggleAlertRead)
			})

			r.Route("/rules", func(r chi.Router) {
				r.Get("/", h.ListRules)
				r.Put("/{id}", h.UpdateRule)
			})

			r.Route("/reports", func(r chi.Router) {
				r.Get("/{employeeID}", h.EmployeeReport)
				r.Get("/{employeeID}/pdf", h.EmployeeReportPDF)
				r.Get("/{employeeID}/xlsx", h.EmployeeReportExcel)
			})

			r.Post("/admin/run", h.RunBatchNow)
		})
	})

	// Generated badge images.
	if h.StaticDir != "" {
		fs := http.StripPrefix("/static/", http.FileServer(http.Dir(h.StaticDir)))
		r.Get("/static/*", fs.ServeHTTP)
	}

	return r
}

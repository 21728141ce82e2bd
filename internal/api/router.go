// Package api exposes the ledger over JSON/HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"

	"github.com/mmynk/treasurer/internal/auth"
	"github.com/mmynk/treasurer/internal/metrics"
	"github.com/mmynk/treasurer/internal/middleware"
	"github.com/mmynk/treasurer/internal/service"
)

// Options tunes the router.
type Options struct {
	// MaxImportBytes caps the size of an uploaded import file.
	MaxImportBytes int64

	// ImportLimiter throttles the import endpoint; nil means unlimited.
	ImportLimiter *rate.Limiter

	// Now is the clock used for export file names. Defaults to time.Now.
	Now func() time.Time
}

// Handler serves the API routes.
type Handler struct {
	auth     *service.AuthService
	sessions *service.Sessions
	opts     Options
}

// NewRouter creates the chi router with all middleware and routes wired up.
// users is consulted on every authenticated request so tokens of deleted
// accounts stop working.
func NewRouter(authSvc *service.AuthService, sessions *service.Sessions, jwtManager *auth.JWTManager, users middleware.UserLookup, opts Options) chi.Router {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.MaxImportBytes <= 0 {
		opts.MaxImportBytes = 10 << 20
	}
	h := &Handler{auth: authSvc, sessions: sessions, opts: opts}

	r := chi.NewRouter()
	r.Use(middleware.Logging)
	r.Use(middleware.CORS)

	r.Get("/health", healthHandler)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/signup", h.Signup)
		r.Post("/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(jwtManager, users))

			r.Post("/logout", h.Logout)
			r.Delete("/account", h.DeleteAccount)

			r.Get("/ledger", h.GetLedger)
			r.Get("/summary", h.GetSummary)

			r.Route("/students", func(r chi.Router) {
				r.Post("/", h.AddStudent)
				r.Post("/bulk", h.BulkAddStudents)
				r.Put("/{id}", h.EditStudent)
				r.Delete("/{id}", h.DeleteStudent)
				r.Put("/{id}/payments/{categoryID}", h.SetPayment)
				r.Post("/{id}/payments/{categoryID}/toggle", h.TogglePayment)
			})
			r.Delete("/sections/{section}", h.DeleteSection)

			r.Route("/categories", func(r chi.Router) {
				r.Post("/", h.AddCategory)
				r.Put("/{id}", h.EditCategory)
				r.Delete("/{id}", h.DeleteCategory)
			})
			r.Put("/active-category", h.SetActiveCategory)

			r.Get("/export", h.Export)
			r.Group(func(r chi.Router) {
				if opts.ImportLimiter != nil {
					r.Use(middleware.RateLimit(opts.ImportLimiter))
				}
				r.Post("/import", h.Import)
			})
		})
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     One zerolog line per request
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. Metrics:    Prometheus request count and latency by route
  5. CORS:       Cross-origin requests for the frontend

ROUTE GROUPS:
  /api/employees/*      Directory, utilization, draft save, skills, history
  /api/projects/*       Projects and lifecycle
  /api/accounts/*       Client accounts and metrics
  /api/allocations/*    Allocations and removal with history
  /api/transitions/*    History records and comments
  /api/board/*          Drag-and-drop sessions
  /api/scenarios/*      Demo scenarios (when enabled)
  /metrics              Prometheus
  /healthz              Liveness

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/haashirideassion/workforcemanagement-sub000/metrics"
)

// RouterOptions configures the optional parts of the router.
type RouterOptions struct {
	AllowedOrigins  []string
	EnableScenarios bool
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173", "http://localhost:8080"}
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(requestLogger(h.log))
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Employee routes
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
			r.Get("/{id}", h.GetEmployee)
			r.Put("/{id}", h.UpdateEmployee)
			r.Delete("/{id}", h.DeleteEmployee)
			r.Put("/{id}/status", h.ChangeEmployeeStatus)
			r.Get("/{id}/utilization", h.GetEmployeeUtilization)
			r.Get("/{id}/allocations", h.ListEmployeeAllocations)
			r.Put("/{id}/allocations", h.SaveAllocationDraft)
			r.Get("/{id}/skills", h.GetEmployeeSkills)
			r.Put("/{id}/skills", h.SetEmployeeSkills)
			r.Get("/{id}/transitions", h.GetEmployeeHistory)
		})

		// Project routes
		r.Route("/projects", func(r chi.Router) {
			r.Get("/", h.ListProjects)
			r.Post("/", h.CreateProject)
			r.Get("/{id}", h.GetProject)
			r.Put("/{id}", h.UpdateProject)
			r.Delete("/{id}", h.DeleteProject)
			r.Put("/{id}/status", h.ChangeProjectStatus)
			r.Get("/{id}/allocations", h.ListProjectAllocations)
		})

		// Account routes
		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", h.ListAccounts)
			r.Post("/", h.CreateAccount)
			r.Get("/{id}", h.GetAccount)
			r.Put("/{id}", h.UpdateAccount)
			r.Delete("/{id}", h.DeleteAccount)
			r.Get("/{id}/metrics", h.GetAccountMetrics)
		})

		// Allocation routes
		r.Route("/allocations", func(r chi.Router) {
			r.Get("/", h.ListAllocations)
			r.Post("/", h.CreateAllocation)
			r.Get("/{id}", h.GetAllocation)
			r.Put("/{id}", h.UpdateAllocation)
			r.Post("/{id}/remove", h.RemoveAllocation)
		})

		// Transition routes
		r.Route("/transitions", func(r chi.Router) {
			r.Get("/{id}", h.GetTransition)
			r.Post("/{id}/comments", h.AddComment)
			r.Delete("/{id}/comments/{commentID}", h.DeleteComment)
		})

		r.Get("/skills", h.ListSkills)
		r.Post("/skills", h.CreateSkill)

		// Views
		r.Get("/utilization", h.ListUtilization)
		r.Get("/bench", h.GetBench)
		r.Get("/dashboard", h.GetDashboard)
		r.Get("/generations", h.GetGenerations)

		// Admin routes
		r.Post("/admin/sweep", h.TriggerSweep)

		// Board routes
		r.Route("/board/sessions", func(r chi.Router) {
			r.Post("/", h.OpenBoardSession)
			r.Get("/{id}", h.GetBoardSession)
			r.Delete("/{id}", h.CloseBoardSession)
			r.Post("/{id}/grab", h.Grab)
			r.Post("/{id}/release", h.Release)
			r.Post("/{id}/drop", h.Drop)
			r.Post("/{id}/unassign", h.RequestRemoval)
			r.Post("/{id}/assign", h.ConfirmAssignment)
			r.Post("/{id}/remove", h.ConfirmRemoval)
			r.Post("/{id}/cancel", h.CancelBoard)
		})

		// Scenario routes
		if opts.EnableScenarios {
			r.Route("/scenarios", func(r chi.Router) {
				r.Get("/", h.ListScenarios)
				r.Get("/current", h.GetCurrentScenario)
				r.Post("/load", h.LoadScenario)
				r.Post("/reset", h.ResetDatabase)
			})
		}
	})

	return r
}

// requestLogger logs one line per request with its id, status and duration.
func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			ev := logger.Info()
			if status >= http.StatusInternalServerError {
				ev = logger.Warn()
			}
			ev.Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("request")
		})
	}
}

package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"service-dispatch/internal/http/handlers"
)

// Middlewares are applied after the base chi middleware, in order.
type Middlewares []func(http.Handler) http.Handler

// Debug is the pprof handler mounted under /debug; nil disables it.
type Debug http.Handler

// New constructs a chi-based http.Handler with base middleware and routes.
func New(
	base *handlers.Handlers,
	agents *handlers.AgentHandler,
	assignments *handlers.AssignmentHandler,
	orders *handlers.OrdersHandler,
	mws Middlewares,
	debug Debug,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Second))
	for _, mw := range mws {
		r.Use(mw)
	}

	r.Get("/ping", base.Ping)
	r.Method(http.MethodHead, "/healthcheck", http.HandlerFunc(base.HealthcheckHead))
	r.Handle("/metrics", promhttp.Handler())
	if debug != nil {
		r.Mount("/debug", http.Handler(debug))
	}

	r.Route("/agents", func(r chi.Router) {
		r.Get("/", agents.List)
		r.Post("/", agents.Create)
		r.Get("/{agentId}", agents.GetByID)
		r.Put("/{agentId}", agents.Update)
		r.Delete("/{agentId}", agents.Delete)
	})

	r.Get("/orders/unassigned", orders.ListUnassigned)

	r.Route("/assignments", func(r chi.Router) {
		r.Get("/", assignments.List)
		r.Post("/", assignments.Create)
		r.Put("/", assignments.Update)
		r.Post("/bulk", assignments.BulkUpdate)
		r.Get("/{orderId}", assignments.GetByOrder)
		r.Delete("/{orderId}", assignments.Unassign)
	})

	r.NotFound(http.HandlerFunc(base.NotFound))

	return r
}

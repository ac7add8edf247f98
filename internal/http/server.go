package http

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"expenses/internal/core"
	"expenses/internal/log"
	"expenses/internal/middleware/ratelimit"
	"expenses/internal/middleware/security"
	"expenses/internal/middleware/trace"
	"expenses/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// Ports consumed by the handlers; the services package implements them.
type (
	PaymentAPI interface {
		Create(ctx context.Context, d core.PaymentDraft) (core.Payment, error)
		Update(ctx context.Context, id uuid.UUID, d core.PaymentDraft) (core.Payment, error)
		Delete(ctx context.Context, id uuid.UUID) error
		Get(ctx context.Context, id uuid.UUID) (core.Payment, error)
		List(ctx context.Context, page, size int64, f core.PaymentFilters) ([]core.Payment, error)
	}

	CatalogAPI interface {
		CreateWallet(ctx context.Context, name string) (core.Wallet, error)
		ListWallets(ctx context.Context) ([]core.Wallet, error)
		DeleteWallet(ctx context.Context, id uuid.UUID) error
		CreateCategory(ctx context.Context, name string, icon *string, kind string) (core.Category, error)
		ListCategories(ctx context.Context, kind string) ([]core.Category, error)
	}

	BalanceAPI interface {
		Balance(ctx context.Context, req services.BalanceRequest) (core.Balance, error)
	}

	Pinger interface {
		Ping(ctx context.Context) error
	}
)

// Deps bundles what NewServer needs.
type Deps struct {
	Payments PaymentAPI
	Catalog  CatalogAPI
	Balance  BalanceAPI
	Ready    Pinger
	Logger   *log.Logger

	RateLimitPerMinute int
}

type Server struct {
	http.Server
	logger   *log.Logger
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	payments PaymentAPI
	catalog  CatalogAPI
	balance  BalanceAPI
	ready    Pinger

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, d Deps) *Server {
	logger := d.Logger
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	detector := security.NewDetector(logger)
	s := &Server{
		logger:   logger,
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: d.RateLimitPerMinute}),
		detector: detector,
		tracer:   trace.NewMiddleware(logger, detector.ClientIP),
		payments: d.Payments,
		catalog:  d.Catalog,
		balance:  d.Balance,
		ready:    d.Ready,
	}

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(s.tracer.Middleware)
	r.Use(log.Middleware(s.logger))
	r.Use(log.RequestIDMiddleware(func(r *http.Request) string { return trace.GetRequestID(r.Context()) }))
	r.Use(middleware.Recoverer)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.detector.Middleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("no such endpoint").Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		MethodNotAllowedError(allowedMethods(r, req.URL.Path)).Write(w)
	})

	r.Get("/healthz", handleHealth)
	r.Get("/health", handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.limiter.Middleware(s.detector.ClientIP, func(w http.ResponseWriter, r *http.Request) {
			TooManyRequestsError().Write(w)
		}))

		r.Route("/payments", func(r chi.Router) {
			r.Get("/", s.handleListPayments)
			r.Post("/", s.handleCreatePayment)
			r.Get("/categories", s.handleListCategories)
			r.Get("/{id}", s.handleGetPayment)
			r.Put("/{id}", s.handleUpdatePayment)
			r.Delete("/{id}", s.handleDeletePayment)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", s.handleListCategories)
			r.Post("/", s.handleCreateCategory)
		})

		r.Route("/wallets", func(r chi.Router) {
			r.Get("/", s.handleListWallets)
			r.Post("/", s.handleCreateWallet)
			r.Delete("/{id}", s.handleDeleteWallet)
		})

		r.Get("/balance", s.handleBalance)
	})

	return r
}

var routedMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete}

// allowedMethods lists the methods routes serves for path, for the Allow header.
func allowedMethods(routes chi.Routes, path string) string {
	var allowed []string
	for _, m := range routedMethods {
		if routes.Match(chi.NewRouteContext(), m, path) {
			allowed = append(allowed, m)
		}
	}
	return strings.Join(allowed, ", ")
}

// RunBackground prunes rate limiter state until ctx is done.
func (s *Server) RunBackground(ctx context.Context) error {
	return s.limiter.Run(ctx, 5*time.Minute)
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		err = s.Server.Shutdown(ctx)
	})
	return err
}

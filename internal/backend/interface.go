package backend

import (
	"context"
	"time"

	"expenses/internal/cache"
	apphttp "expenses/internal/http"
	"expenses/internal/log"
	"expenses/internal/services"
	"expenses/internal/storage"

	"github.com/google/uuid"
)

// CleanupFunc releases the resources held by a Bundle.
type CleanupFunc func() error

// Bundle is everything the HTTP server needs, built from one Config.
type Bundle struct {
	Store         *storage.Store
	Payments      *services.PaymentService
	Catalog       *services.CatalogService
	Balance       *services.BalanceService
	CategoryCache *cache.LRUCache[uuid.UUID]

	// EventsEnabled is false when no broker is configured or it was unreachable at startup.
	EventsEnabled bool
	Cleanup       CleanupFunc
}

// HTTPDeps adapts the bundle to the server's dependencies.
func (b *Bundle) HTTPDeps(logger *log.Logger, rateLimitPerMinute int) apphttp.Deps {
	return apphttp.Deps{
		Payments:           b.Payments,
		Catalog:            b.Catalog,
		Balance:            b.Balance,
		Ready:              b.Store,
		Logger:             logger,
		RateLimitPerMinute: rateLimitPerMinute,
	}
}

// Factory builds bundles from configuration.
type Factory interface {
	Create(ctx context.Context, config Config) (*Bundle, error)
}

// Config holds what the factory needs to build a Bundle.
type Config struct {
	Store storage.Config

	CategoryCacheSize int
	CategoryCacheTTL  time.Duration

	// AMQP is optional; an empty URL disables event publication.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

package backend

import (
	"context"
	"errors"
	"fmt"

	"expenses/internal/amqp"
	"expenses/internal/cache"
	"expenses/internal/log"
	"expenses/internal/services"
	"expenses/internal/storage"

	"github.com/google/uuid"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{logger: logger}
}

// Create opens the store, connects the optional broker and builds the services.
func (f *DefaultFactory) Create(ctx context.Context, config Config) (*Bundle, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	logger := f.logger.WithComponent(log.ComponentBackend)

	store, err := storage.Open(ctx, config.Store)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", config.Store.Driver, err)
	}

	// A nil *amqp.Client must not end up inside the interface.
	var events services.EventPublisher
	var amqpClient *amqp.Client
	if config.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without events", log.FieldError, err.Error())
			amqpClient = nil
		} else {
			events = amqpClient
			logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	categoryIDs := cache.NewLRUCache[uuid.UUID](config.CategoryCacheSize, config.CategoryCacheTTL)
	categories := services.NewCategoryResolver(store, categoryIDs)
	wallets := services.NewWalletResolver(store)

	bundle := &Bundle{
		Store:         store,
		Payments:      services.NewPaymentService(store, categories, wallets, events, f.logger),
		Catalog:       services.NewCatalogService(store, store, f.logger),
		Balance:       services.NewBalanceService(store, wallets),
		CategoryCache: categoryIDs,
		EventsEnabled: events != nil,
	}
	bundle.Cleanup = func() error {
		var errs []error
		if amqpClient != nil {
			errs = append(errs, amqpClient.Close())
		}
		errs = append(errs, store.Close())
		return errors.Join(errs...)
	}

	logger.InfoContext(ctx, "Initialized backend",
		"driver", config.Store.Driver.String(),
		"events_enabled", bundle.EventsEnabled)
	return bundle, nil
}

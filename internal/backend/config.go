package backend

import (
	"fmt"

	"expenses/internal/config"
	"expenses/internal/storage"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	driver := storage.Driver(appConfig.StoreDriver)
	if !driver.IsValid() {
		return Config{}, fmt.Errorf("invalid store driver in config: %s", appConfig.StoreDriver)
	}
	dsn := appConfig.SQLiteDBPath
	if driver == storage.DriverPostgres {
		dsn = appConfig.DatabaseURL
	}

	return Config{
		Store: storage.Config{
			Driver:          driver,
			DSN:             dsn,
			MaxOpenConns:    appConfig.DBMaxOpenConns,
			MinIdleConns:    appConfig.DBMinIdleConns,
			ConnMaxIdleTime: appConfig.DBConnMaxIdleTime,
			AcquireTimeout:  appConfig.DBAcquireTimeout,
		},
		CategoryCacheSize: appConfig.CategoryCacheSize,
		CategoryCacheTTL:  appConfig.CategoryCacheTTL,
		AMQPURL:           appConfig.AMQPURL,
		AMQPExchange:      appConfig.AMQPExchange,
		AMQPQueue:         appConfig.AMQPQueue,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Store.Driver.IsValid() {
		return fmt.Errorf("invalid store driver: %s", c.Store.Driver)
	}
	if c.Store.DSN == "" {
		return fmt.Errorf("a data source is required for the %s driver", c.Store.Driver)
	}
	if c.CategoryCacheSize < 1 {
		return fmt.Errorf("category cache size must be at least 1")
	}
	// AMQP is optional, so we don't validate it
	return nil
}

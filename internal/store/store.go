package store

import (
	"context"
	"fmt"

	config "example.com/photofeed/internal/init"
	"example.com/photofeed/internal/logger"
)

var logg = logger.New()

// KVStore is the process-wide persisted key/value store. Get reports a
// missing key as ok == false with a nil error.
type KVStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close()
}

// Open returns the store selected by cfg.StoreDriver.
func Open(ctx context.Context, cfg *config.Config) (KVStore, error) {
	switch cfg.StoreDriver {
	case "sqlite", "":
		s, err := NewSQLite(ctx, cfg.SQLiteDSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "cassandra":
		s, err := NewCassandra(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "memory":
		return NewMock(), nil
	default:
		return nil, fmt.Errorf("unknown store driver: %s", cfg.StoreDriver)
	}
}

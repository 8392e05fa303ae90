package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/syssam/crudl"
	"github.com/syssam/crudl/config"
	"github.com/syssam/crudl/dialect"
	"github.com/syssam/crudl/dialect/memory"
	crudlredis "github.com/syssam/crudl/dialect/redis"
	crudlsql "github.com/syssam/crudl/dialect/sql"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// openStore opens the configured document store. The returned function
// releases it.
func openStore(ctx context.Context, cfg config.StoreConfig, logger zerolog.Logger) (crudl.Store, func() error, error) {
	switch cfg.Dialect {
	case dialect.Memory:
		return memory.NewStore(), func() error { return nil }, nil
	case dialect.SQLite, dialect.Postgres, dialect.MySQL:
		drv, err := crudlsql.Open(cfg.Dialect, cfg.DSN,
			crudlsql.WithSlowThreshold(cfg.SlowThreshold),
			crudlsql.WithLogger(logger),
		)
		if err != nil {
			return nil, nil, err
		}
		if cfg.Dialect == dialect.SQLite {
			drv.DB().SetMaxOpenConns(1)
		}
		if err := drv.DB().PingContext(ctx); err != nil {
			drv.Close()
			return nil, nil, fmt.Errorf("ping %s: %w", cfg.Dialect, err)
		}
		return crudlsql.NewStore(drv), drv.Close, nil
	case dialect.Redis:
		opts := &redis.Options{Addr: cfg.DSN}
		if strings.Contains(cfg.DSN, "://") {
			var err error
			if opts, err = redis.ParseURL(cfg.DSN); err != nil {
				return nil, nil, fmt.Errorf("parse redis url: %w", err)
			}
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("ping redis: %w", err)
		}
		store := crudlredis.NewStore(client, crudlredis.WithPrefix(cfg.Prefix))
		return store, store.Close, nil
	}
	return nil, nil, fmt.Errorf("unsupported dialect %q", cfg.Dialect)
}

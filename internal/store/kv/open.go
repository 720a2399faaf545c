package kv

import (
	"context"
	"database/sql"
	"fmt"

	"wonderwomen/internal/pkg/config"
	"wonderwomen/pkg/database"
)

// SQLBacked 基于 database/sql 的后端，暴露连接池供监控
type SQLBacked interface {
	SQLDB() (*sql.DB, error)
}

// Open 按配置创建存储后端
func Open(ctx context.Context, cfg config.Config) (Storage, error) {
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		return NewMemory(), nil
	case config.DriverFile:
		return NewFile(cfg.Storage.Path)
	case config.DriverSQLite:
		return NewSQLite(cfg.Storage.Path)
	case config.DriverPostgres:
		db, err := database.OpenPostgres(cfg.Database)
		if err != nil {
			return nil, err
		}
		return NewGormFromDB(db), nil
	case config.DriverRedis:
		client, err := database.OpenRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		return NewRedisFromClient(client), nil
	case config.DriverNATS:
		return NewNATS(ctx, cfg.NATS.URL, cfg.NATS.Bucket)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

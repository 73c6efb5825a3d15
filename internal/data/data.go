// Package data provides the persistence layer of SnakeKeeper: the account
// file, circuit-breaker markers, audit log, notifiers, monitor state and the
// game transport.
package data

import (
	"SnakeKeeper/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// ProviderSet is data providers.
var ProviderSet = wire.NewSet(
	NewData,
	NewRedisClient,
	NewMySQLClient,
	NewAccountStore,
	NewMarkerStore,
	NewAuditLogger,
	NewNotifier,
	NewMonitorStateStore,
	NewDailyRecordStore,
	NewGameTransport,
)

// Data holds the optional shared backends. Either client may be nil when
// not configured.
type Data struct {
	rdb *redis.Client
	db  *gorm.DB
}

// NewData creates a new Data instance.
func NewData(_ *conf.Data, logger log.Logger, rdb *redis.Client, db *gorm.DB) (*Data, func(), error) {
	helper := log.NewHelper(logger)

	if rdb == nil {
		helper.Debug("redis not configured")
	}
	if db == nil {
		helper.Debug("mysql not configured")
	}

	cleanup := func() {
		helper.Info("closing the data resources")
	}
	return &Data{rdb: rdb, db: db}, cleanup, nil
}

// Redis returns the redis client, or nil.
func (d *Data) Redis() *redis.Client {
	return d.rdb
}

// DB returns the gorm handle, or nil.
func (d *Data) DB() *gorm.DB {
	return d.db
}

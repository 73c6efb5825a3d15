package data

import (
	"context"
	"fmt"

	"SnakeKeeper/internal/conf"
	"SnakeKeeper/internal/model"

	"github.com/go-kratos/kratos/v2/log"
)

// Marker backends.
const (
	MarkerDriverFile  = "file"
	MarkerDriverRedis = "redis"
	MarkerDriverMySQL = "mysql"
)

// MarkerStore is a durable per-account circuit-breaker flag.
// Only existence matters; the creation time is kept for diagnostics.
type MarkerStore interface {
	Exists(ctx context.Context, key string) (bool, error)
	// Create stores the mark unless it already exists. An existing mark keeps
	// its original timestamp and created is false.
	Create(ctx context.Context, key string) (created bool, err error)
	// Delete removes the mark. Deleting an absent mark is not an error.
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) ([]*model.Mark, error)
}

// NewMarkerStore selects the backend named by marker.driver.
func NewMarkerStore(mc *conf.Marker, sc *conf.Store, d *Data, logger log.Logger) (MarkerStore, error) {
	driver := MarkerDriverFile
	if mc != nil && mc.Driver != "" {
		driver = mc.Driver
	}

	helper := log.NewHelper(logger)
	switch driver {
	case MarkerDriverFile:
		dir := "."
		if sc != nil && sc.DataDir != "" {
			dir = sc.DataDir
		}
		helper.Infof("circuit-breaker marks stored in %s", dir)
		return NewFileMarkerStore(dir), nil
	case MarkerDriverRedis:
		if d == nil || d.Redis() == nil {
			return nil, fmt.Errorf("marker driver %q requires data.redis.addr", driver)
		}
		helper.Info("circuit-breaker marks stored in redis")
		return NewRedisMarkerStore(d.Redis()), nil
	case MarkerDriverMySQL:
		if d == nil || d.DB() == nil {
			return nil, fmt.Errorf("marker driver %q requires data.database.source", driver)
		}
		helper.Info("circuit-breaker marks stored in mysql")
		return NewGormMarkerStore(d.DB())
	default:
		return nil, fmt.Errorf("unknown marker driver %q", driver)
	}
}

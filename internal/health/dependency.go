package health

import (
	"context"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// dependencyChecker adapts a probe function into a Checker. Both
// backends reduce to "ping under the probe context", so the per-backend
// types collapse into a name plus a probe.
type dependencyChecker struct {
	name  string
	probe func(ctx context.Context) error
}

func (c *dependencyChecker) Check(ctx context.Context) CheckResult {
	res := CheckResult{Name: c.name, Healthy: true}
	if err := c.probe(ctx); err != nil {
		res.Healthy = false
		res.Error = err.Error()
	}
	return res
}

func NewDBChecker(db *gorm.DB) Checker {
	if db == nil {
		return nil
	}
	return &dependencyChecker{
		name: "db",
		probe: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
}

func NewRedisChecker(client redis.UniversalClient) Checker {
	if client == nil {
		return nil
	}
	return &dependencyChecker{
		name: "redis",
		probe: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		},
	}
}

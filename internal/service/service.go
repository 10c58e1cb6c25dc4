// Package service holds the fee ledger use cases: fee catalog and ledger
// administration, payment reconciliation and the nightly automation jobs.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/segyhp/student-fees/internal/config"
	customError "github.com/segyhp/student-fees/pkg/errors"
	"github.com/segyhp/student-fees/pkg/utils"
)

// Cache keys for ledger aggregates
const (
	statsCacheKey   = "fees:stats"
	reportsCacheKey = "fees:reports"
)

// Cache is the read cache used for stats and reports
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Locker keeps a named job to one running instance
type Locker interface {
	TryLock(ctx context.Context, name string, ttl time.Duration) (token string, ok bool, err error)
	Unlock(ctx context.Context, name, token string) error
}

// Clock returns the current time
type Clock func() time.Time

// calendar turns the clock into business dates in the configured zone
type calendar struct {
	now Clock
	loc *time.Location
}

func newCalendar(cfg *config.Config) calendar {
	return calendar{now: time.Now, loc: cfg.GetLocation()}
}

func (c calendar) today() time.Time {
	return utils.DateOnly(c.now().In(c.loc))
}

// dbError passes business errors through and wraps anything else
func dbError(err error) error {
	var be *customError.BusinessError
	if errors.As(err, &be) {
		return err
	}
	return customError.WrapDatabaseError(err)
}

// invalidateAggregates drops cached stats after a ledger write. A failure
// only means the cache serves stale numbers until it expires.
func invalidateAggregates(ctx context.Context, cache Cache, logger *slog.Logger) {
	if cache == nil {
		return
	}
	if err := cache.Delete(ctx, statsCacheKey, reportsCacheKey); err != nil {
		logger.WarnContext(ctx, "invalidate fee aggregates", "error", err)
	}
}

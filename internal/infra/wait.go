package infra

import (
	"context"
	"fmt"
	"time"

	"github.com/avast/retry-go/v5"
	"go.uber.org/zap"
)

// WaitFor дожидается готовности зависимости (Postgres, Redis) при старте.
// Только для bootstrap: на горячем пути запросов повторов нет.
func WaitFor(ctx context.Context, logger *zap.Logger, name string, attempts uint, ping func(ctx context.Context) error) error {
	r := retry.New(
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.DelayType(func(n uint, err error, config retry.DelayContext) time.Duration {
			return retry.BackOffDelay(n, err, config)
		}),
	)

	err := r.Do(func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()

		if err := ping(pingCtx); err != nil {
			logger.Warn("dependency not ready", zap.String("dependency", name), zap.Error(err))
			return err
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s unreachable: %w", name, err)
	}

	logger.Info("dependency ready", zap.String("dependency", name))
	return nil
}

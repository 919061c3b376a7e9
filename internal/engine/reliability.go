package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"github.com/xela07ax/superai/internal/infra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// serverSideError реализуют ошибки, которые говорят об отказе самого апстрима.
type serverSideError interface {
	ServerSide() bool
}

// ReliabilityWrapper защищает один апстрим: лимит исходящего трафика и предохранитель.
// Повторов нет: один входящий вызов дает не больше одного исходящего.
// Обе защиты выключены по умолчанию (rate_limit=0, cb_failures=0): тогда вызов идет напрямую
// и вызовы не влияют друг на друга.
type ReliabilityWrapper struct {
	name    string
	cb      *gobreaker.CircuitBreaker // nil: предохранитель выключен
	limiter *rate.Limiter             // nil: лимит выключен
	metrics *Metrics
}

func NewReliabilityWrapper(name string, cfg infra.UpstreamConfig, metrics *Metrics, logger *zap.Logger) *ReliabilityWrapper {
	w := &ReliabilityWrapper{
		name:    name,
		metrics: metrics,
	}

	if cfg.RateLimit > 0 {
		w.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)
	}

	if cfg.CBFailures > 0 {
		failures := cfg.CBFailures

		// Настройка предохранителя
		w.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: cfg.CBMaxRequests,
			Interval:    cfg.CBInterval,
			Timeout:     cfg.CBTimeout, // Время, через которое CB попробует "закрыться"
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= failures
			},
			// 4xx означает проблему запроса, а не апстрима: предохранитель не трогаем
			IsSuccessful: func(err error) bool {
				if err == nil {
					return true
				}
				var sErr serverSideError
				if errors.As(err, &sErr) {
					return !sErr.ServerSide()
				}
				return false
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
				logger.Warn("circuit breaker state changed",
					zap.String("upstream", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()))
			},
		})
	}

	return w
}

// Call выполняет fn под защитой лимитера и предохранителя (если они включены).
func (w *ReliabilityWrapper) Call(ctx context.Context, fn func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	// 1. Rate Limiter (ждем, а не отбрасываем)
	if w.limiter != nil {
		if err := w.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%s: rate limit wait: %w", w.name, err)
		}
	}

	// 2. Circuit Breaker
	start := time.Now()
	var (
		res interface{}
		err error
	)
	if w.cb != nil {
		res, err = w.cb.Execute(func() (interface{}, error) {
			return fn(ctx)
		})
	} else {
		res, err = fn(ctx)
	}

	outcome := "success"
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		outcome = "rejected"
	case err != nil:
		outcome = "failure"
	}
	w.metrics.UpstreamDuration.WithLabelValues(w.name, outcome).Observe(time.Since(start).Seconds())

	if err != nil {
		return nil, err
	}
	return res, nil
}

// State: текущее состояние предохранителя (для тестов и /health).
// Выключенный предохранитель всегда закрыт.
func (w *ReliabilityWrapper) State() gobreaker.State {
	if w.cb == nil {
		return gobreaker.StateClosed
	}
	return w.cb.State()
}

package audit

/*
Журнал вызовов прокси (Audit Trail).

- Non-blocking: Record не ждет БД, событие уходит в буферизированный канал.
  Переполнение буфера: сброс события с ошибкой в логе (Load Shedding).
- Batching: воркер копит события и пишет пачкой по размеру или по таймеру.
- Drain: Stop закрывает канал, воркер вычитывает остаток и делает финальный flush.

Журнал только наблюдает: ничего из него не влияет на ответы прокси.
*/

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Storage определяет, куда физически будут сохраняться события
type Storage interface {
	// WriteBatch сохраняет пачку событий за один раз
	WriteBatch(ctx context.Context, events []Event) error
}

type Auditor interface {
	Record(event Event)
}

type Options struct {
	BufferSize    int
	BatchSize     int
	FlushInterval time.Duration
	BufferGauge   prometheus.Gauge // Может быть nil
}

type Journal struct {
	ch     chan Event
	repo   Storage
	opts   Options
	logger *zap.Logger
	wg     sync.WaitGroup

	// Record держит RLock на время отправки, Stop берет Lock перед close(ch):
	// отправка в закрытый канал невозможна
	mu     sync.RWMutex
	closed bool
}

func NewJournal(repo Storage, opts Options, logger *zap.Logger) *Journal {
	if opts.BufferSize <= 0 {
		opts.BufferSize = 1000
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = 500 * time.Millisecond
	}
	return &Journal{
		ch:     make(chan Event, opts.BufferSize),
		repo:   repo,
		opts:   opts,
		logger: logger.Named("audit"),
	}
}

func (j *Journal) Start() {
	j.wg.Add(1)
	go j.worker()
}

// Stop «запирает» вход в канал и ждет, пока воркер всё допишет.
func (j *Journal) Stop() {
	j.mu.Lock()
	if j.closed {
		j.mu.Unlock()
		return
	}
	j.closed = true
	j.logger.Info("stopping audit journal: closing channel and flushing buffer")
	close(j.ch)
	j.mu.Unlock()

	j.wg.Wait()
	j.logger.Info("audit journal stopped gracefully")
}

func (j *Journal) Record(event Event) {
	// Убеждаемся, что таймстемп всегда проставлен
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	j.mu.RLock()
	defer j.mu.RUnlock()

	if j.closed {
		j.logger.Warn("audit event dropped: journal is stopping", zap.String("id", event.ID))
		return
	}

	// Load Shedding: при переполнении не блокируем горячий путь
	select {
	case j.ch <- event:
		j.observeFill()
	default:
		j.logger.Error("audit_buffer_overflow",
			zap.String("component", event.Component),
			zap.String("trace_id", event.TraceID),
		)
	}
}

func (j *Journal) observeFill() {
	if j.opts.BufferGauge != nil {
		j.opts.BufferGauge.Set(float64(len(j.ch)))
	}
}

func (j *Journal) worker() {
	defer j.wg.Done()

	batch := make([]Event, 0, j.opts.BatchSize)
	ticker := time.NewTicker(j.opts.FlushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		// Background: контекст запроса к этому моменту уже закрыт
		if err := j.repo.WriteBatch(context.Background(), batch); err != nil {
			j.logger.Error("audit flush failed", zap.Int("events", len(batch)), zap.Error(err))
		}
		batch = batch[:0]
		j.observeFill()
	}

	for {
		select {
		case event, ok := <-j.ch:
			if !ok {
				// Канал закрыт в Stop(): остаток уже вычитан, финальный сброс
				flush()
				return
			}
			batch = append(batch, event)
			if len(batch) >= j.opts.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type memStorage struct {
	mu      sync.Mutex
	batches [][]Event
	err     error
}

func (m *memStorage) WriteBatch(_ context.Context, events []Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches = append(m.batches, append([]Event(nil), events...))
	return m.err
}

func (m *memStorage) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, b := range m.batches {
		n += len(b)
	}
	return n
}

func TestJournal_DrainsOnStop(t *testing.T) {
	store := &memStorage{}
	j := NewJournal(store, Options{BufferSize: 100, BatchSize: 50, FlushInterval: time.Hour}, zap.NewNop())
	j.Start()

	for i := 0; i < 7; i++ {
		j.Record(Event{ID: "e", Component: "diagnosis", Status: StatusSuccess})
	}
	j.Stop()

	assert.Equal(t, 7, store.count())
	for _, b := range store.batches {
		for _, e := range b {
			assert.False(t, e.Timestamp.IsZero())
		}
	}
}

func TestJournal_FlushesByBatchSize(t *testing.T) {
	store := &memStorage{}
	j := NewJournal(store, Options{BufferSize: 100, BatchSize: 3, FlushInterval: time.Hour}, zap.NewNop())
	j.Start()
	defer j.Stop()

	for i := 0; i < 6; i++ {
		j.Record(Event{ID: "e"})
	}

	require.Eventually(t, func() bool { return store.count() == 6 }, time.Second, 10*time.Millisecond)
	store.mu.Lock()
	defer store.mu.Unlock()
	for _, b := range store.batches {
		assert.Len(t, b, 3)
	}
}

func TestJournal_FlushesByTimer(t *testing.T) {
	store := &memStorage{}
	j := NewJournal(store, Options{BufferSize: 10, BatchSize: 100, FlushInterval: 20 * time.Millisecond}, zap.NewNop())
	j.Start()
	defer j.Stop()

	j.Record(Event{ID: "single"})

	require.Eventually(t, func() bool { return store.count() == 1 }, time.Second, 10*time.Millisecond)
}

func TestJournal_DropsAfterStop(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	store := &memStorage{}
	j := NewJournal(store, Options{}, zap.New(core))
	j.Start()
	j.Stop()
	j.Stop() // повторный вызов безопасен

	j.Record(Event{ID: "late"})
	assert.Zero(t, store.count())
	assert.Equal(t, 1, logs.FilterMessage("audit event dropped: journal is stopping").Len())
}

func TestJournal_OverflowDoesNotBlock(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	store := &memStorage{}
	// Воркер не запущен: буфер на одно событие
	j := NewJournal(store, Options{BufferSize: 1, BatchSize: 10, FlushInterval: time.Hour}, zap.New(core))

	done := make(chan struct{})
	go func() {
		j.Record(Event{ID: "1"})
		j.Record(Event{ID: "2"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Record blocked on a full buffer")
	}
	assert.Equal(t, 1, logs.FilterMessage("audit_buffer_overflow").Len())

	j.Start()
	j.Stop()
	assert.Equal(t, 1, store.count())
}

func TestJournal_StorageErrorIsLogged(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	store := &memStorage{err: errors.New("db down")}
	j := NewJournal(store, Options{}, zap.New(core))
	j.Start()

	j.Record(Event{ID: "1"})
	j.Stop()

	assert.Equal(t, 1, logs.FilterMessage("audit flush failed").Len())
}

func TestLogStorage(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	s := NewLogStorage(zap.New(core))

	require.NoError(t, s.WriteBatch(context.Background(), []Event{
		{ID: "1", Component: "automation", Operation: "trigger-agent", Status: StatusSuccess},
		{ID: "2", Component: "diagnosis", Operation: "diagnose", Status: StatusFailed, ErrorKind: "upstream"},
	}))

	entries := logs.FilterMessage("audit event").All()
	require.Len(t, entries, 2)
	assert.Equal(t, "upstream", entries[1].ContextMap()["error_kind"])
}

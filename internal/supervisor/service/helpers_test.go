package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/xela07ax/superai/internal/audit"
	"github.com/xela07ax/superai/internal/connectors"
	"github.com/xela07ax/superai/internal/engine"
	"github.com/xela07ax/superai/internal/feed"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type recordingAuditor struct {
	mu     sync.Mutex
	events []audit.Event
}

func (r *recordingAuditor) Record(e audit.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingAuditor) all() []audit.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]audit.Event(nil), r.events...)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []feed.Event
}

func (p *recordingPublisher) Publish(e feed.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) all() []feed.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]feed.Event(nil), p.events...)
}

type fakeChat struct {
	calls   int
	lastKey string
	lastReq connectors.ChatRequest
	reply   string
	err     error
}

func (f *fakeChat) Complete(_ context.Context, apiKey string, req connectors.ChatRequest) (string, error) {
	f.calls++
	f.lastKey = apiKey
	f.lastReq = req
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

type fakePlatform struct {
	triggerCalls int
	historyCalls int
	lastToken    string
	lastTrigger  connectors.TriggerPayload
	lastConvID   string
	result       json.RawMessage
	err          error
}

func (f *fakePlatform) TriggerAgent(_ context.Context, token string, payload connectors.TriggerPayload) (json.RawMessage, error) {
	f.triggerCalls++
	f.lastToken = token
	f.lastTrigger = payload
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakePlatform) GetConversation(_ context.Context, token, conversationID string) (json.RawMessage, error) {
	f.historyCalls++
	f.lastToken = token
	f.lastConvID = conversationID
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type testEnv struct {
	tracker   *Tracker
	auditor   *recordingAuditor
	publisher *recordingPublisher
	logger    *zap.Logger
	logs      *observer.ObservedLogs
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)
	auditor := &recordingAuditor{}
	return &testEnv{
		tracker:   NewTracker(auditor, engine.NewMetrics(nil), logger),
		auditor:   auditor,
		publisher: &recordingPublisher{},
		logger:    logger,
		logs:      logs,
	}
}

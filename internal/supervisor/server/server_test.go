package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/superai/internal/audit"
	"github.com/xela07ax/superai/internal/connectors"
	"github.com/xela07ax/superai/internal/domain"
	"github.com/xela07ax/superai/internal/engine"
	"github.com/xela07ax/superai/internal/feed"
	"github.com/xela07ax/superai/internal/infra"
	"github.com/xela07ax/superai/internal/supervisor/handler"
	"github.com/xela07ax/superai/internal/supervisor/service"
	"go.uber.org/zap"
)

type nopAuditor struct{}

func (nopAuditor) Record(audit.Event) {}

type stubAuditLogs struct {
	gotAgent string
	gotLimit int
}

func (s *stubAuditLogs) FetchLogs(_ context.Context, agentID, _ string, limit int) ([]audit.Event, error) {
	s.gotAgent = agentID
	s.gotLimit = limit
	return []audit.Event{{ID: "e1", AgentID: agentID, Status: audit.StatusSuccess}}, nil
}

type stubStats struct {
	stats *domain.ActivityStats
	err   error
}

func (s stubStats) GetActivityStats(context.Context) (*domain.ActivityStats, error) {
	return s.stats, s.err
}

// upstreams: поддельные Grok и Relevance AI с фиксированным статусом ответа.
type upstreams struct {
	grok      *httptest.Server
	relevance *httptest.Server
	calls     int32
}

func newUpstreams(t *testing.T, status int) *upstreams {
	t.Helper()
	u := &upstreams{}

	u.grok = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&u.calls, 1)
		if status != http.StatusOK {
			http.Error(w, `{"error":"upstream down"}`, status)
			return
		}
		_, _ = io.WriteString(w, `{"choices":[{"message":{"content":"Mock analysis text"}}]}`)
	}))
	t.Cleanup(u.grok.Close)

	u.relevance = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&u.calls, 1)
		if status != http.StatusOK {
			http.Error(w, `{"error":"upstream down"}`, status)
			return
		}
		switch {
		case r.URL.Path == "/latest/agents/trigger":
			_, _ = io.WriteString(w, `{"status":"queued"}`)
		case strings.HasPrefix(r.URL.Path, "/latest/agents/conversations/"):
			_, _ = io.WriteString(w, `{"messages":[]}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(u.relevance.Close)

	return u
}

func newTestServer(t *testing.T, u *upstreams, secrets infra.SecretProvider, stats handler.StatsService) *SupervisorServer {
	return newTestServerWithAudit(t, u, secrets, stats, nil)
}

func newTestServerWithAudit(
	t *testing.T,
	u *upstreams,
	secrets infra.SecretProvider,
	stats handler.StatsService,
	logs handler.AuditLogProvider,
) *SupervisorServer {
	t.Helper()
	logger := zap.NewNop()
	reg := prometheus.NewRegistry()
	metrics := engine.NewMetrics(reg)

	upCfg := defaultUpstreamConfig(t)
	chat := engine.NewProtectedChat(
		connectors.NewChatClient(u.grok.URL, u.grok.Client()),
		engine.NewReliabilityWrapper("grok", upCfg, metrics, logger))
	platform := engine.NewProtectedPlatform(
		connectors.NewRelevanceClient(u.relevance.URL+"/latest", u.relevance.Client()),
		engine.NewReliabilityWrapper("relevance", upCfg, metrics, logger))

	tracker := service.NewTracker(nopAuditor{}, metrics, logger)
	diag := service.NewDiagnosisService(chat, secrets, infra.GrokConfig{
		Model: "grok-2-1212", APIKeyEnv: "GROK_API_KEY", Temperature: 0.3, MaxTokens: 800,
	}, tracker, feed.NopPublisher{}, logger)
	auto := service.NewAutomationService(platform, secrets, infra.RelevanceConfig{
		ProjectID: "p1", AuthTokenEnv: "RELEVANCE_AI_AUTH_TOKEN",
	}, tracker, feed.NopPublisher{}, logger)

	var statsH *handler.StatsHandler
	if stats != nil {
		statsH = handler.NewStatsHandler(stats, logger)
	}
	var auditH *handler.AuditHandler
	if logs != nil {
		auditH = handler.NewAuditHandler(logs, logger)
	}

	return NewSupervisorServer(logger, reg,
		handler.NewDiagnosisHandler(diag),
		handler.NewAutomationHandler(auto),
		statsH,
		auditH)
}

// defaultUpstreamConfig возвращает настройки апстримов из дефолтов конфигурации.
func defaultUpstreamConfig(t *testing.T) infra.UpstreamConfig {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: {}\n"), 0o600))
	cfg, err := infra.LoadConfig(path)
	require.NoError(t, err)
	return cfg.Upstream
}

func allSecrets() infra.StaticSecrets {
	return infra.StaticSecrets{"GROK_API_KEY": "k", "RELEVANCE_AI_AUTH_TOKEN": "t"}
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestPreflight(t *testing.T) {
	u := newUpstreams(t, http.StatusOK)
	srv := newTestServer(t, u, allSecrets(), nil)

	for _, path := range []string{PathDiagnose, PathAutomation} {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, path, strings.NewReader("garbage")))

		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Empty(t, rec.Body.String())
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "authorization, x-client-info, apikey, content-type",
			rec.Header().Get("Access-Control-Allow-Headers"))
	}
	assert.Zero(t, atomic.LoadInt32(&u.calls))
}

func TestDiagnoseEndToEnd(t *testing.T) {
	u := newUpstreams(t, http.StatusOK)
	srv := newTestServer(t, u, allSecrets(), nil)

	rec := post(t, srv, PathDiagnose,
		`{"analysisType":"health-check","agentData":{"name":"Chat Agent","successRate":97,"latency":120}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, rec.Header().Get(engine.HeaderTraceID))

	out := decode(t, rec)
	assert.Equal(t, "Mock analysis text", out["analysis"])
	assert.Equal(t, "grok-2-1212", out["model"])
	assert.Equal(t, "health-check", out["analysisType"])

	ts, err := time.Parse(time.RFC3339Nano, out["timestamp"].(string))
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), ts, time.Minute)
}

func TestTriggerEndToEnd(t *testing.T) {
	u := newUpstreams(t, http.StatusOK)
	srv := newTestServer(t, u, allSecrets(), nil)

	rec := post(t, srv, PathAutomation, `{"action":"trigger-agent","agentId":"abc123"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"result":{"status":"queued"}}`, rec.Body.String())

	rec = post(t, srv, PathAutomation, `{"action":"agent-history","conversationId":"c-1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"conversations":{"messages":[]}}`, rec.Body.String())
}

func TestListAgentsEndToEnd(t *testing.T) {
	u := newUpstreams(t, http.StatusOK)
	srv := newTestServer(t, u, allSecrets(), nil)

	rec := post(t, srv, PathAutomation, `{"action":"list-agents"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	out := decode(t, rec)
	assert.Equal(t, []interface{}{}, out["agents"])
	assert.Equal(t, service.ListAgentsUnsupported, out["message"])
	assert.Zero(t, atomic.LoadInt32(&u.calls))
}

func TestUpstreamFailuresReturn500(t *testing.T) {
	u := newUpstreams(t, http.StatusServiceUnavailable)
	srv := newTestServer(t, u, allSecrets(), nil)

	for _, at := range []string{"diagnose", "suggest-fix", "health-check"} {
		t.Run(at, func(t *testing.T) {
			rec := post(t, srv, PathDiagnose,
				`{"analysisType":"`+at+`","agentData":{"name":"a"},"incidentData":{"agentName":"a"}}`)
			require.Equal(t, http.StatusInternalServerError, rec.Code)

			out := decode(t, rec)
			assert.Equal(t, "Grok API error", out["error"])
			assert.Equal(t, service.DiagnosisFallback, out["fallback"])
			assert.NotContains(t, rec.Body.String(), "upstream down")
			assert.Equal(t, string(domain.KindUpstream), rec.Header().Get(engine.HeaderErrorKind))
		})
	}

	for _, body := range []string{
		`{"action":"trigger-agent","agentId":"abc123"}`,
		`{"action":"agent-history","conversationId":"c-1"}`,
	} {
		rec := post(t, srv, PathAutomation, body)
		require.Equal(t, http.StatusInternalServerError, rec.Code)

		out := decode(t, rec)
		assert.Contains(t, out["error"], "Relevance AI")
		assert.NotContains(t, out, "fallback")
	}
}

func TestEveryRequestReachesUpstream(t *testing.T) {
	u := newUpstreams(t, http.StatusServiceUnavailable)
	srv := newTestServer(t, u, allSecrets(), nil)

	const inbound = 8
	for i := 0; i < inbound; i++ {
		rec := post(t, srv, PathDiagnose, `{"analysisType":"health-check","agentData":{"name":"a"}}`)
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Grok API error", decode(t, rec)["error"])
	}
	for i := 0; i < inbound; i++ {
		rec := post(t, srv, PathAutomation, `{"action":"trigger-agent","agentId":"abc123"}`)
		require.Equal(t, http.StatusInternalServerError, rec.Code)
	}

	// Отказы одних вызовов не влияют на другие: каждый доходит до апстрима ровно один раз
	assert.Equal(t, int32(2*inbound), atomic.LoadInt32(&u.calls))
}

func TestErrorResponses(t *testing.T) {
	u := newUpstreams(t, http.StatusOK)

	tests := []struct {
		name    string
		secrets infra.StaticSecrets
		path    string
		body    string
		want    string
		kind    domain.ErrorKind
	}{
		{"missing grok key", infra.StaticSecrets{}, PathDiagnose, `{"analysisType":"diagnose"}`,
			"Grok API key not configured", domain.KindConfiguration},
		{"missing relevance token", infra.StaticSecrets{}, PathAutomation, `{"action":"list-agents"}`,
			"RELEVANCE_AI_AUTH_TOKEN is not configured", domain.KindConfiguration},
		{"invalid action", allSecrets(), PathAutomation, `{"action":"explode"}`,
			"Invalid action", domain.KindInvalidAction},
		{"malformed diagnose body", allSecrets(), PathDiagnose, `{`,
			"Invalid request body", domain.KindParse},
		{"malformed automation body", allSecrets(), PathAutomation, ``,
			"Invalid request body", domain.KindParse},
		{"missing relevance token with malformed body", infra.StaticSecrets{}, PathAutomation, `{"action":`,
			"RELEVANCE_AI_AUTH_TOKEN is not configured", domain.KindConfiguration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, u, tt.secrets, nil)
			rec := post(t, srv, tt.path, tt.body)

			require.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Equal(t, tt.want, decode(t, rec)["error"])
			assert.Equal(t, string(tt.kind), rec.Header().Get(engine.HeaderErrorKind))
			assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestHandlerPanicReturnsJSONError(t *testing.T) {
	u := newUpstreams(t, http.StatusOK)
	// Без провайдера секретов сервис падает на первом обращении к нему
	srv := newTestServer(t, u, nil, nil)

	rec := post(t, srv, PathAutomation, `{"action":"list-agents"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Unknown error", decode(t, rec)["error"])
	assert.Equal(t, string(domain.KindInternal), rec.Header().Get(engine.HeaderErrorKind))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Zero(t, atomic.LoadInt32(&u.calls))
}

func TestServiceRoutes(t *testing.T) {
	u := newUpstreams(t, http.StatusOK)

	t.Run("health and metrics", func(t *testing.T) {
		srv := newTestServer(t, u, allSecrets(), nil)

		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, PathHealth, nil))
		assert.Equal(t, http.StatusOK, rec.Code)

		post(t, srv, PathAutomation, `{"action":"list-agents"}`)
		rec = httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, PathMetrics, nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "superai_requests_total")

		rec = httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, PathStats, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("stats", func(t *testing.T) {
		srv := newTestServer(t, u, allSecrets(), stubStats{stats: &domain.ActivityStats{
			TotalRequests: 3, ByOperation: map[string]int64{"diagnosis:diagnose": 3},
		}})

		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, PathStats, nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, float64(3), decode(t, rec)["total_requests"])
	})

	t.Run("stats failure", func(t *testing.T) {
		srv := newTestServer(t, u, allSecrets(), stubStats{err: errors.New("db down")})

		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, PathStats, nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Failed to fetch stats", decode(t, rec)["error"])
	})

	t.Run("audit logs", func(t *testing.T) {
		logs := &stubAuditLogs{}
		srv := newTestServerWithAudit(t, u, allSecrets(), nil, logs)

		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, PathAudit+"?agent_id=abc123&limit=5", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "abc123", logs.gotAgent)
		assert.Equal(t, 5, logs.gotLimit)

		var events []audit.Event
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
		require.Len(t, events, 1)
		assert.Equal(t, "e1", events[0].ID)
	})
}

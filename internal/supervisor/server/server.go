package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xela07ax/superai/internal/engine"
	"github.com/xela07ax/superai/internal/supervisor/handler"
	"go.uber.org/zap"
)

// Пути совпадают с именами функций, которые вызывает дашборд.
const (
	PathDiagnose   = "/functions/v1/supervisor-diagnose"
	PathAutomation = "/functions/v1/relevance-agents"
	PathStats      = "/v1/stats"
	PathAudit      = "/v1/audit"
	PathHealth     = "/health"
	PathMetrics    = "/metrics"
)

type SupervisorServer struct {
	router *chi.Mux
	logger *zap.Logger

	gatherer prometheus.Gatherer

	// Обработчики
	diagnosisHandler  *handler.DiagnosisHandler  // DiagnosisProxy
	automationHandler *handler.AutomationHandler // AutomationProxy
	statsHandler      *handler.StatsHandler      // nil, если журнал не в БД
	auditHandler      *handler.AuditHandler      // nil, если журнал не в БД
}

// NewSupervisorServer инициализирует HTTP-сервер со всеми зависимостями
func NewSupervisorServer(
	logger *zap.Logger,
	gatherer prometheus.Gatherer,
	diagH *handler.DiagnosisHandler,
	autoH *handler.AutomationHandler,
	statsH *handler.StatsHandler,
	auditH *handler.AuditHandler,
) *SupervisorServer {
	s := &SupervisorServer{
		router:            chi.NewRouter(),
		logger:            logger.Named("http"),
		gatherer:          gatherer,
		diagnosisHandler:  diagH,
		automationHandler: autoH,
		statsHandler:      statsH,
		auditHandler:      auditH,
	}

	s.routes()
	return s
}

func (s *SupervisorServer) routes() {
	r := s.router

	// --- 1. Глобальные инфраструктурные Middleware ---
	r.Use(middleware.RealIP)
	r.Use(engine.TracingMiddleware)
	r.Use(engine.AccessLog(s.logger))
	r.Use(middleware.Recoverer)

	// --- 2. Прокси-функции ---
	// Любой метод попадает в обработчик: OPTIONS отвечает CORS, остальное разбирается как тело
	r.Group(func(r chi.Router) {
		r.Use(engine.CORS)
		r.Use(handler.Recoverer(s.logger))

		r.HandleFunc(PathDiagnose, s.diagnosisHandler.Diagnose)
		r.HandleFunc(PathAutomation, s.automationHandler.Dispatch)
	})

	// --- 3. Служебные роуты ---
	r.Get(PathHealth, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	if s.gatherer != nil {
		r.Handle(PathMetrics, promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	if s.statsHandler != nil {
		r.Get(PathStats, s.statsHandler.GetStats)
	}
	if s.auditHandler != nil {
		r.Get(PathAudit, s.auditHandler.GetLogs)
	}
}

// ServeHTTP позволяет использовать SupervisorServer как стандартный http.Handler
func (s *SupervisorServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

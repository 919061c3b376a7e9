package cmd

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/xela07ax/superai/internal/audit"
	"github.com/xela07ax/superai/internal/connectors"
	"github.com/xela07ax/superai/internal/engine"
	"github.com/xela07ax/superai/internal/feed"
	"github.com/xela07ax/superai/internal/infra"
	"github.com/xela07ax/superai/internal/repository/postgres"
	"github.com/xela07ax/superai/internal/supervisor/service"
	"go.uber.org/zap"
)

// dependencyAttempts: сколько раз ждем Postgres/Redis при старте.
const dependencyAttempts = 5

// app: собранные зависимости процесса.
type app struct {
	cfg      *infra.Config
	logger   *zap.Logger
	registry *prometheus.Registry
	metrics  *engine.Metrics

	journal   *audit.Journal
	auditRepo *postgres.AuditRepo // nil, если database.url пуст
	rdb       *redis.Client       // nil, если redis.addr пуст

	diagnosis  *service.DiagnosisService
	automation *service.AutomationService
}

func loadConfigAndLogger() (*infra.Config, *zap.Logger, error) {
	cfg, err := infra.LoadConfig(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	logger, err := infra.NewLogger(cfg.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logger, nil
}

// buildApp собирает слои (Dependency Injection).
// withInfra=false: без Postgres и Redis (одноразовый CLI-вызов).
func buildApp(ctx context.Context, cfg *infra.Config, logger *zap.Logger, withInfra bool) (*app, error) {
	a := &app{
		cfg:      cfg,
		logger:   logger,
		registry: prometheus.NewRegistry(),
	}
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.metrics = engine.NewMetrics(a.registry)

	// 1. Журнал аудита: Postgres или лог
	var storage audit.Storage = audit.NewLogStorage(logger)
	if withInfra && cfg.Database.Enabled() {
		repo, err := postgres.NewAuditRepo(cfg.Database.URL, cfg.Database.MaxConns)
		if err != nil {
			return nil, err
		}
		if err := infra.WaitFor(ctx, logger, "postgres", dependencyAttempts, repo.Ping); err != nil {
			repo.Close()
			return nil, err
		}
		if err := repo.EnsureSchema(ctx); err != nil {
			repo.Close()
			return nil, err
		}
		a.auditRepo = repo
		storage = repo
	}
	a.journal = audit.NewJournal(storage, audit.Options{
		BufferSize:    cfg.Audit.BufferSize,
		BatchSize:     cfg.Audit.BatchSize,
		FlushInterval: cfg.Audit.FlushInterval,
		BufferGauge:   a.metrics.AuditBufferFill,
	}, logger)
	a.journal.Start()

	// 2. Лента супервизора: Redis или ничего
	var publisher feed.Publisher = feed.NopPublisher{}
	if withInfra && cfg.Redis.Enabled() {
		rdb := newRedisClient(cfg.Redis)
		ping := func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		if err := infra.WaitFor(ctx, logger, "redis", dependencyAttempts, ping); err != nil {
			rdb.Close()
			a.close()
			return nil, err
		}
		a.rdb = rdb
		publisher = feed.NewRedisPublisher(rdb, cfg.Redis.Channel, logger)
	}

	// 3. Апстримы под защитой лимитера и предохранителя
	httpClient := &http.Client{Timeout: cfg.Upstream.Timeout}

	chat := engine.NewProtectedChat(
		connectors.NewChatClient(cfg.Grok.BaseURL, httpClient),
		engine.NewReliabilityWrapper(connectors.GrokService, cfg.Upstream, a.metrics, logger),
	)
	platform := engine.NewProtectedPlatform(
		connectors.NewRelevanceClient(cfg.Relevance.Endpoint(), httpClient),
		engine.NewReliabilityWrapper("Relevance AI", cfg.Upstream, a.metrics, logger),
	)

	// 4. Сервисы
	tracker := service.NewTracker(a.journal, a.metrics, logger)
	secrets := infra.EnvSecrets{}
	a.diagnosis = service.NewDiagnosisService(chat, secrets, cfg.Grok, tracker, publisher, logger)
	a.automation = service.NewAutomationService(platform, secrets, cfg.Relevance, tracker, publisher, logger)

	return a, nil
}

func newRedisClient(cfg infra.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// close освобождает ресурсы; журнал дописывается до конца.
func (a *app) close() {
	if a.journal != nil {
		a.journal.Stop()
	}
	if a.auditRepo != nil {
		if err := a.auditRepo.Close(); err != nil {
			a.logger.Warn("failed to close audit repo", zap.Error(err))
		}
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Warn("failed to close redis client", zap.Error(err))
		}
	}
}

package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/xela07ax/superai/internal/supervisor/handler"
	"github.com/xela07ax/superai/internal/supervisor/server"
	"go.uber.org/zap"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the proxy HTTP server",
	Long: `Start the HTTP server hosting both proxy functions:
  POST /functions/v1/supervisor-diagnose
  POST /functions/v1/relevance-agents
plus /health, /metrics and (with a database) /v1/stats and /v1/audit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfigAndLogger()
		if err != nil {
			return err
		}
		defer logger.Sync()

		// Контекст жизненного цикла: SIGINT/SIGTERM запускают остановку
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := buildApp(ctx, cfg, logger, true)
		if err != nil {
			logger.Error("failed to build app", zap.Error(err))
			return err
		}
		defer a.close()

		// Сводка и журнал доступны только при хранении аудита в БД
		var (
			statsH *handler.StatsHandler
			auditH *handler.AuditHandler
		)
		if a.auditRepo != nil {
			statsH = handler.NewStatsHandler(a.auditRepo, logger)
			auditH = handler.NewAuditHandler(a.auditRepo, logger)
		}

		router := server.NewSupervisorServer(
			logger,
			a.registry,
			handler.NewDiagnosisHandler(a.diagnosis),
			handler.NewAutomationHandler(a.automation),
			statsH,
			auditH,
		)

		srv := &http.Server{
			Addr:         cfg.Server.Addr(),
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Info("SuperAI proxy started", zap.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			if err != nil {
				logger.Error("listen failed", zap.Error(err))
				return err
			}
		case <-ctx.Done():
		}

		logger.Info("SuperAI proxy stopping...")

		// Даем время на завершение текущих запросов
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", zap.Error(err))
			return err
		}
		logger.Info("SuperAI proxy exited properly")
		return nil
	},
}

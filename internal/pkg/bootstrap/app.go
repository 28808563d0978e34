package bootstrap

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/smiles-unlimited/ufund/internal/pkg/config"
	"github.com/smiles-unlimited/ufund/internal/pkg/logger"
	"github.com/smiles-unlimited/ufund/internal/pkg/tracing"
)

// AppCtx carries everything a service needs to wire itself up.
type AppCtx struct {
	Mux *http.ServeMux
	Cfg *config.Config
}

// AppInfo describes one service process.
type AppInfo struct {
	ServiceName string
	// RegisterHandlers lets the service build its dependency graph and mount
	// its routes. It may return a cleanup function, run during shutdown.
	RegisterHandlers func(appCtx AppCtx) func()
}

// StartService runs the shared startup and graceful-shutdown sequence:
// config, logger, tracer, HTTP server, then teardown in reverse order.
func StartService(info AppInfo) {
	cfg, err := config.Load(os.Getenv("UFUND_CONFIG"))
	if err != nil {
		logger.Ctx(context.Background()).Fatal().Err(err).Msg("failed to load config")
	}
	if info.ServiceName == "" {
		info.ServiceName = cfg.Service.Name
	}
	logger.Init(info.ServiceName)

	tp, err := tracing.InitTracerProvider(info.ServiceName, cfg.Infra.Jaeger.Endpoint)
	if err != nil {
		logger.Ctx(context.Background()).Fatal().Err(err).Msg("failed to initialize tracer provider")
	}

	mux := http.NewServeMux()
	var cleanup func()
	if info.RegisterHandlers != nil {
		cleanup = info.RegisterHandlers(AppCtx{Mux: mux, Cfg: cfg})
	}

	server := &http.Server{Addr: ":" + strconv.Itoa(cfg.Service.Port), Handler: mux}
	go func() {
		logger.Ctx(context.Background()).Info().
			Str("addr", server.Addr).
			Msgf("%s listening", info.ServiceName)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Ctx(context.Background()).Fatal().Err(err).Msg("http server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Ctx(context.Background()).Info().Msgf("shutting down %s", info.ServiceName)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Teardown is last-in first-out: routes stop accepting work, the tracer
	// flushes, then service-specific resources close.
	if err := server.Shutdown(ctx); err != nil {
		logger.Ctx(ctx).Error().Err(err).Msg("error shutting down http server")
	}
	if err := tp.Shutdown(ctx); err != nil {
		logger.Ctx(ctx).Error().Err(err).Msg("error shutting down tracer provider")
	}
	if cleanup != nil {
		cleanup()
	}
	logger.Ctx(ctx).Info().Msgf("%s gracefully shut down", info.ServiceName)
}

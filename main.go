package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"vaultdrop/withdrawal"

	"github.com/heroiclabs/nakama-common/runtime"
)

const (
	dataDirEnvKey  = "withdrawal_data_dir"
	defaultDataDir = "data/withdrawal"
)

// newScheduler builds the scheduler driving the inbox scan.
var newScheduler = func(logger runtime.Logger) withdrawal.Scheduler {
	return withdrawal.NewCronScheduler(logger)
}

type nakamaPlugin struct {
	dataDir string
	logger  runtime.Logger
}

func (p *nakamaPlugin) DataFolder() string      { return p.dataDir }
func (p *nakamaPlugin) Logger() runtime.Logger { return p.logger }

// noinspection GoUnusedExportedFunction
func InitModule(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	initStart := time.Now()

	logger.Info("Loading Vaultdrop withdrawal plugin...")

	dataDir := defaultDataDir
	if env, ok := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string); ok && env[dataDirEnvKey] != "" {
		dataDir = env[dataDirEnvKey]
	}
	plugin := &nakamaPlugin{dataDir: dataDir, logger: logger.WithField("plugin", "withdrawal")}

	catalog, err := withdrawal.LoadItemCatalog(plugin)
	if err != nil {
		logger.Error("Failed to load item catalog: %v", err)
		return err
	}

	host := withdrawal.NewNakamaHost(nk, catalog, plugin.Logger())
	engine := withdrawal.NewEngine(plugin, host, catalog, newScheduler(plugin.Logger()))
	engine.SetAuthProvider(withdrawal.NewSessionAuth(nk))
	engine.SetLanguageResolver(host)
	engine.AddPublisher(withdrawal.NewNakamaEventPublisher(nk))

	metrics := withdrawal.NewMetrics("vaultdrop")
	engine.SetMetrics(metrics)

	if err := engine.Enable(ctx); err != nil {
		logger.Error("Failed to enable withdrawal engine: %v", err)
		return err
	}

	if err := withdrawal.RegisterRpcs(engine, initializer); err != nil {
		logger.Error("Failed to register withdrawal RPCs: %v", err)
		engine.Disable()
		return err
	}

	var metricsServer *http.Server
	if addr := engine.Config().MetricsAddress; addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		metricsServer = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Metrics server stopped: %v", err)
			}
		}()
		logger.Info("Serving withdrawal metrics on %s", addr)
	}

	err = initializer.RegisterShutdown(func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) {
		engine.Disable()
		if metricsServer != nil {
			if err := metricsServer.Shutdown(ctx); err != nil {
				logger.Warn("Failed to stop metrics server: %v", err)
			}
		}
	})
	if err != nil {
		logger.Error("Failed to register shutdown hook: %v", err)
		engine.Disable()
		if metricsServer != nil {
			_ = metricsServer.Close()
		}
		return err
	}

	logger.Info("Vaultdrop withdrawal plugin loaded in '%d' msec.", time.Since(initStart).Milliseconds())
	return nil
}

package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"farmstead/internal/amqp"
	"farmstead/internal/backend"
	"farmstead/internal/cli"
	apphttp "farmstead/internal/http"
	"farmstead/internal/services"
)

// publisherOrNil avoids handing the server a non-nil interface wrapping a
// nil client.
func publisherOrNil(c *amqp.Client) services.RecordChangePublisher {
	if c == nil {
		return nil
	}
	return c
}

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}

	factory := backend.NewFactory(logger)
	result, err := factory.CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to create backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	amqpClient := backend.NewAMQPClient(backendCfg, logger)

	srv := apphttp.NewServer(":"+cfg.Port, result.Store, publisherOrNil(amqpClient),
		apphttp.WithTrustedProxies(cfg.TrustedProxies),
		apphttp.WithCacheTTL(cfg.CacheTTL),
		apphttp.WithCacheCleanupInterval(cfg.CacheCleanupInterval),
	)

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Error("AMQP close error", "error", err)
			}
		}
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", "error", err)
			}
		}
	})

	logger.Info("Starting farmstead server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	<-done
	logger.Info("Server stopped gracefully")
}

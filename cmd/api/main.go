// Package main provides the entry point for the vault API server.
package main

import (
	"context"
	"os"

	"github.com/narvanalabs/vaulty/internal/api"
	"github.com/narvanalabs/vaulty/internal/bootstrap"
	"github.com/narvanalabs/vaulty/internal/shutdown"
	"github.com/narvanalabs/vaulty/pkg/config"
	"github.com/narvanalabs/vaulty/pkg/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Configuration errors are reported before the configured logger exists.
	log := logger.Default()

	cfg, err := config.Load()
	if err != nil {
		log.Error("failed to load configuration", "error", err)
		return 1
	}

	log = logger.FromConfig(cfg.LogLevel, cfg.LogFormat)

	if cfg.UsingDefaultKeys() {
		log.Warn("using development fallback keys; set JWT_SECRET and AES_SECRET or STRICT_KEYS=true")
	}

	st, err := bootstrap.OpenStore(cfg, log.WithComponent("store").Logger)
	if err != nil {
		log.Error("failed to open store", "error", err, "driver", cfg.DatabaseDriver)
		return 1
	}

	cipher, err := bootstrap.NewCipher(cfg, log.WithComponent("secrets").Logger)
	if err != nil {
		log.Error("failed to initialize cipher", "error", err, "backend", cfg.Cipher.Backend)
		_ = st.Close()
		return 1
	}

	authService := bootstrap.NewAuthService(cfg, log.WithComponent("auth").Logger)
	server := api.NewServer(cfg, st, cipher, authService, log.Logger)

	coordinator := shutdown.NewCoordinator(
		shutdown.WithTimeout(cfg.ShutdownTimeout),
		shutdown.WithLogger(log.Logger),
	)
	coordinator.Register(shutdown.NewCloserComponent("store", st))
	coordinator.Register(shutdown.NewServerComponent("http", server))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go coordinator.WaitForSignal(ctx)

	log.Info("vault server starting",
		"addr", cfg.Addr(),
		"database", cfg.DatabaseDriver,
		"cipher", cfg.Cipher.Backend,
		"legacy_decrypt", cfg.Cipher.LegacyDecrypt,
	)

	if err := server.Start(ctx); err != nil {
		log.Error("server error", "error", err)
		cancel()
		coordinator.Wait()
		return 1
	}

	coordinator.Wait()
	log.Info("server stopped")
	return coordinator.ExitCode()
}

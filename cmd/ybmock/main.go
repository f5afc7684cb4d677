package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	fiberadapter "github.com/cuonglevan23/ybproject/adapters/fiber"
	"github.com/cuonglevan23/ybproject/pkg/env"
	"github.com/cuonglevan23/ybproject/pkg/logger"
	"github.com/cuonglevan23/ybproject/services"
)

func main() {
	if err := env.Load(); err != nil {
		panic(err)
	}

	log := logger.New(env.GetString("YB_MODE", "development"))
	defer log.Sync()

	addr := env.GetString("YB_MOCK_ADDR", ":8080")

	cfg := fiberadapter.Config{
		// WARN: the default is for local use only
		Secret:   env.GetString("YB_JWT_SECRET", "local-mock-secret-change-me-please-32"),
		BasePath: env.GetString("YB_MOCK_BASE_PATH", fiberadapter.DefaultBasePath),
		TokenTTL: env.GetDuration("YB_TOKEN_TTL", fiberadapter.DefaultTokenTTL),
		Logger:   log,

		DemoPassword: env.GetString("YB_MOCK_DEMO_PASSWORD", services.DemoPassword),
	}

	if path := env.GetString("YB_MOCK_FIXTURES", ""); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Fatal("failed to read fixtures", zap.String("path", path), zap.Error(err))
		}
		fixtures, err := fiberadapter.ParseFixtures(data)
		if err != nil {
			log.Fatal("invalid fixtures", zap.String("path", path), zap.Error(err))
		}
		cfg.Fixtures = fixtures
	}

	server, err := fiberadapter.New(cfg)
	if err != nil {
		log.Fatal("could not create mock backend", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		if err := server.Shutdown(5 * time.Second); err != nil {
			log.Warn("shutdown failed", zap.Error(err))
		}
	}()

	if err := server.Listen(addr); err != nil {
		log.Fatal("mock backend stopped", zap.Error(err))
	}
}

package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"onspop/internal/mirror"
)

func main() {
	var (
		fixturePath = flag.String("fixture", "", "fixture JSON path (built-in demo catalog when empty)")
		addr        = flag.String("addr", ":9000", "listen address")
	)
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	fixture := mirror.DemoFixture()
	if *fixturePath != "" {
		fixture, err = mirror.LoadFixture(*fixturePath)
		if err != nil {
			logger.Fatal("load fixture", zap.Error(err))
		}
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:    *addr,
		Handler: mirror.NewServer(fixture, logger).Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("mirror-server listening", zap.String("addr", *addr), zap.Int("datasets", len(fixture.Datasets)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}

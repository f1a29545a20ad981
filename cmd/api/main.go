package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"memberboard/internal/di"
)

func main() {
	a, err := di.InitializeApp()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		a.Logger.Info("server starting", "addr", a.Server.Addr, "env", a.Config.Env)
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	stop()
	a.Logger.Info("shutdown signal received")

	graceTimeout := a.Config.ShutdownGraceTimeout
	if graceTimeout <= 0 {
		graceTimeout = 15 * time.Second
	}
	drainCtx, cancelDrain := context.WithTimeout(context.Background(), graceTimeout)
	if err := a.Server.Shutdown(drainCtx); err != nil {
		a.Logger.Error("failed to drain http server", "error", err)
	}
	cancelDrain()

	flushTimeout := a.Config.ShutdownFlushTimeout
	if flushTimeout <= 0 {
		flushTimeout = 5 * time.Second
	}
	flushCtx, cancelFlush := context.WithTimeout(context.Background(), flushTimeout)
	if err := a.Observability.Shutdown(flushCtx); err != nil {
		a.Logger.Error("failed to flush observability pipelines", "error", err)
	}
	cancelFlush()

	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Error("failed to close redis client", "error", err)
		}
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				a.Logger.Error("failed to close database connection", "error", err)
			}
		}
	}
	a.Logger.Info("shutdown complete")
}

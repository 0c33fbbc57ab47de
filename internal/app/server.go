package app

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// ShutdownTimeout bounds Stop when called from main.
const ShutdownTimeout = 15 * time.Second

// Start binds server.address and serves until SIGINT/SIGTERM or until the
// server fails. The returned channel is closed at that point; call Stop next.
func (a *App) Start() <-chan struct{} {
	l, err := net.Listen("tcp", a.httpServer.Addr)
	if err != nil {
		slog.Error("failed to listen http server", "address", a.httpServer.Addr, "error", err)
		os.Exit(1)
	}

	done := make(chan struct{})
	served := a.Serve(l)

	go func() {
		defer close(done)

		sigCtx, stop := signal.NotifyContext(a.ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		select {
		case <-sigCtx.Done():
			slog.Info("shutdown signal received")
		case err := <-served:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("http server stopped unexpectedly", "error", err)
			}
		}
	}()

	return done
}

// Serve runs the HTTP server on l. The channel yields the result of
// http.Server.Serve, http.ErrServerClosed after Stop.
func (a *App) Serve(l net.Listener) <-chan error {
	slog.Info("http server listening", "address", l.Addr().String())

	errChan := make(chan error, 1)
	go func() {
		errChan <- a.httpServer.Serve(l)
		close(errChan)
	}()

	return errChan
}

// Stop cancels the root context so broker consumers return, drains in-flight
// HTTP requests, waits for managed goroutines and then runs the closers.
func (a *App) Stop(ctx context.Context) {
	a.cancel()

	if err := a.httpServer.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to shutdown http server", "error", err)
	}

	if err := a.goroutine.Wait(); err != nil {
		slog.ErrorContext(ctx, "managed goroutine failed", "error", err)
	}

	for _, closer := range a.closers {
		if err := closer.fn(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to close resource", "name", closer.name, "error", err)
		}
	}

	slog.InfoContext(ctx, "application stopped")
}

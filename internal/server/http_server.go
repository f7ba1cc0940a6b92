package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Tyrowin/bubingachat/internal/logging"
)

// CreateServer wraps handler in an http.Server with production timeouts.
func CreateServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// StartServer blocks serving srv. A clean Shutdown returns nil.
func StartServer(srv *http.Server, logger logging.Logger) error {
	logger.Info(context.Background(), "server listening", "addr", srv.Addr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ShutdownServer stops accepting connections and waits up to timeout for
// in-flight requests.
func ShutdownServer(srv *http.Server, timeout time.Duration, logger logging.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error(ctx, "http server shutdown error", "error", err)
		return err
	}

	logger.Info(ctx, "http server shutdown completed")
	return nil
}

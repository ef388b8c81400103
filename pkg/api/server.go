package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

// ShutdownTimeout bounds how long Serve waits for in-flight requests.
const ShutdownTimeout = 5 * time.Second

// Serve listens on addr and blocks until ctx is canceled or the server
// fails. Canceling ctx stops new connections; in-flight requests keep an
// uncanceled context and get ShutdownTimeout to finish.
func Serve(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return ServeListener(ctx, ln, handler, logger)
}

// ServeListener is Serve on an existing listener, which it closes.
func ServeListener(ctx context.Context, ln net.Listener, handler http.Handler, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Handler: handler,
		BaseContext: func(_ net.Listener) context.Context {
			return context.WithoutCancel(ctx)
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("serving API", slog.String("addr", ln.Addr().String()))
	eg.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()

		logger.Debug("shutting down API server")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

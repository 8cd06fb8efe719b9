package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
)

var (
	ErrStart    = errors.New("http server failed to start")
	ErrShutdown = errors.New("http server failed to shut down gracefully")
)

// runServer serves handler until ctx is cancelled, then drains in-flight
// requests for at most cfg.ShutdownTimeout.
func runServer(ctx context.Context, cfg HTTPConfig, handler http.Handler, log *slog.Logger) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(log.Handler(), slog.LevelError),
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	log.InfoContext(ctx, "http server started", slog.String("addr", cfg.Addr))

	var err error
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
		defer cancel()
		if serr := srv.Shutdown(shutdownCtx); serr != nil {
			return errors.Join(ErrShutdown, serr)
		}
		err = <-errCh
		log.InfoContext(shutdownCtx, "http server stopped")
	case err = <-errCh:
	}

	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Join(ErrStart, err)
	}
	return nil
}

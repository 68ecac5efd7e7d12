// Package api wires configuration, storage and handlers into the HTTP server.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/FACorreiaa/budget-dashboard/pkg/cron"
)

// Serve runs the HTTP server, and the inbox watcher when withInbox is set,
// until ctx is done.
func Serve(ctx context.Context, d *Dependencies, withInbox bool) error {
	srv := &http.Server{
		Addr:              d.Config.Server.Addr(),
		Handler:           NewRouter(d),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	var watcher *cron.Scheduler
	if withInbox {
		watcher = cron.NewScheduler(d.ImportService, d.Config.Import.InboxDir, d.Config.Import.InboxSchedule, d.Logger)
		if err := watcher.Start(); err != nil {
			return err
		}
	}

	errCh := make(chan error, 1)
	go func() {
		d.Logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if watcher != nil {
		select {
		case <-watcher.Stop().Done():
		case <-shutdownCtx.Done():
		}
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	d.Logger.Info("http server stopped")
	return nil
}

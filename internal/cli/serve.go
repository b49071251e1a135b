package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web form and API",
	Long:  `Serves the vacancy form at /, the JSON API under /api/v1, document downloads, /healthz and /metrics.`,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, release, err := loadConfig()
	if err != nil {
		return err
	}
	defer release()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := build(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.documents.Ensure(ctx); err != nil {
		return fmt.Errorf("prepare document store: %w", err)
	}
	if a.pool != nil {
		go a.ensureIndexes()
	}
	if a.notifier != nil {
		log.Printf("Notifier: %s", a.notifier.Name())
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           a.handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Printf("vacancyform server starting on %s", cfg.HTTP.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Printf("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"infosec-dashboard/internal/bootstrap"
	"infosec-dashboard/internal/config"
	"infosec-dashboard/internal/logging"
	httptransport "infosec-dashboard/internal/transport/http"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "infosec",
		Short:         "InfoSec assessment dashboard service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	root.PersistentFlags().String("email", os.Getenv("INFOSEC_EMAIL"), "account email for one-shot commands")
	root.PersistentFlags().String("password", os.Getenv("INFOSEC_PASSWORD"), "account password for one-shot commands")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the dashboard HTTP API",
			Args:  cobra.NoArgs,
			RunE:  runServe,
		},
		newAskCmd(),
		newDocsCmd(),
		newAnalyzeCmd(),
		newAssessmentsCmd(),
	)
	return root
}

// setup loads config and the logger and wires the application.
func setup(ctx context.Context, opts bootstrap.Options) (*bootstrap.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	app, err := bootstrap.New(ctx, cfg, logger, opts)
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("bootstrap failed: %w", err)
	}
	return app, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := setup(ctx, bootstrap.Options{StartWorkers: true})
	if err != nil {
		return err
	}
	logger := app.Logger
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn("close resources failed", zap.Error(err))
		}
		_ = logger.Sync()
	}()

	if err := app.Warm(ctx); err != nil {
		logger.Warn("initial load failed", zap.Error(err))
	}

	server := &http.Server{
		Addr:              app.Config.HTTPAddr(),
		Handler:           httptransport.NewRouter(app),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server starting", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		logger.Info("server stopped")
		return nil
	})
	return g.Wait()
}

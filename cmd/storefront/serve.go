package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MohitNegi1997/MoltenMotion/internal/cart"
	"github.com/MohitNegi1997/MoltenMotion/internal/catalog"
	h "github.com/MohitNegi1997/MoltenMotion/internal/http"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const sessionSweepInterval = time.Minute

func newServeCmd(a *app) *cobra.Command {
	var port, dataDir string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the storefront API, the catalog files and cart events",
		RunE: func(cmd *cobra.Command, args []string) error {
			if port != "" {
				a.cfg.HTTPPort = port
			}
			if dataDir != "" {
				a.cfg.DataDir = dataDir
			}
			return runServe(cmd.Context(), a)
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "HTTP port (overrides STOREFRONT_HTTP_PORT)")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "catalog data directory (overrides STOREFRONT_DATA_DIR)")
	return cmd
}

func runServe(ctx context.Context, a *app) error {
	cfg, log := a.cfg, a.log

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	factory, closeStorage, err := openStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStorage()

	publisher, closePublisher := openPublisher(cfg, log)
	defer closePublisher()

	sessions := cart.NewSessions(factory, log, cart.WithPublisher(publisher))
	catalogClient := catalog.NewClient(cfg.CatalogBaseURL(), catalog.WithLogger(log))

	router := h.NewRouter(h.RouterConfig{
		Catalog:        catalogClient,
		Carts:          sessions,
		DataDir:        cfg.DataDir,
		RequestTimeout: cfg.RequestTimeout,
		Logger:         log,
	})

	// event streams only end when their request context does
	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()

	// no WriteTimeout: /api/v1/cart/events stays open
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}
	srv.RegisterOnShutdown(cancelBase)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sessions.Run(gctx, sessionSweepInterval, cfg.SessionIdleTimeout)
		return nil
	})
	g.Go(func() error {
		log.Info("storefront starting",
			zap.String("port", cfg.HTTPPort),
			zap.String("storage", cfg.StorageBackend),
			zap.String("catalog", cfg.CatalogBaseURL()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server error")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "server forced to shutdown")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("server stopped", zap.Int("sessions", sessions.Len()))
	return nil
}

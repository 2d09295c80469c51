package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"consolenav/internal/gateway/config"
	"consolenav/internal/gateway/handler"
	"consolenav/internal/gateway/nav"
	"consolenav/internal/gateway/server"
	"consolenav/internal/route"
)

const (
	sweepEvery      = time.Minute
	shutdownTimeout = 5 * time.Second
)

type App struct {
	cfg     *config.Config
	logger  *zap.Logger
	server  *server.Server
	svc     *nav.Service
	stores  *gatewayStores
	watcher *route.Watcher
}

func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	// Dependencies
	stores, err := initStores(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	svc := nav.New(nav.Options{
		Upstream:      cfg.Upstream,
		Sources:       stores.sources,
		Compiler:      route.NewCompiler(stores.registry),
		Persist:       stores.persist,
		Selector:      cfg.Menu.Selector,
		SessionTTL:    cfg.Session.TTL,
		SessionMax:    cfg.Session.Max,
		PathIndexSize: cfg.PathIndexSize,
		Logger:        logger.Named("nav"),
	})

	var watcher *route.Watcher
	if path := strings.TrimSpace(cfg.RegistryPath); path != "" {
		watcher, err = route.NewWatcher(path, svc.Recompile, logger.Named("registry"))
		if err != nil {
			_ = stores.closeSource()
			return nil, fmt.Errorf("watch component registry: %w", err)
		}
	}

	// Routing & Server
	mux := server.NewMux(
		handler.NewNavHandler(svc, logger.Named("handler")),
		handler.NewNavigationRPC(svc),
		handler.NewNavSocket(svc, logger.Named("ws")),
	)
	srv := server.New(cfg.Port, mux, logger)

	return &App{
		cfg:     cfg,
		logger:  logger,
		server:  srv,
		svc:     svc,
		stores:  stores,
		watcher: watcher,
	}, nil
}

func (a *App) Service() *nav.Service { return a.svc }

// Run serves until ctx ends, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(a.server.Start)
	if a.watcher != nil {
		g.Go(func() error { return a.watcher.Start(gctx) })
	}
	g.Go(func() error {
		ticker := time.NewTicker(sweepEvery)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if n := a.svc.Sweep(); n > 0 {
					a.logger.Debug("idle sessions swept", zap.Int("sessions", n))
				}
			}
		}
	})
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutting down navigation gateway")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		return a.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (a *App) Shutdown(ctx context.Context) error {
	if a.watcher != nil {
		a.watcher.Stop()
	}
	err := a.server.Shutdown(ctx)
	a.svc.Close()
	if cerr := a.stores.closeSource(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

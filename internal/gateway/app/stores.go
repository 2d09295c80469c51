package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"consolenav/internal/cache/disk"
	"consolenav/internal/gateway/config"
	"consolenav/internal/gateway/source"
	"consolenav/internal/route"
)

type gatewayStores struct {
	persist     *disk.Store
	sources     source.Provider
	closeSource func() error
	registry    *route.Registry
}

func initStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*gatewayStores, error) {
	persist, err := disk.NewStore(disk.Config{
		Root:       filepath.Join(cfg.StateDir, "sessions"),
		MaxEntries: cfg.Session.Max * 3,
		TTL:        cfg.Session.TTL * 48,
	})
	if err != nil {
		return nil, fmt.Errorf("init session store: %w", err)
	}

	sources, closeSource, err := source.FromConfig(ctx, cfg.Menu)
	if err != nil {
		return nil, fmt.Errorf("init menu source: %w", err)
	}
	logger.Info("menu source ready", zap.String("source", cfg.Menu.Source))

	registry := route.DefaultRegistry()
	if path := strings.TrimSpace(cfg.RegistryPath); path != "" {
		registry, err = route.LoadRegistry(path)
		if err != nil {
			_ = closeSource()
			return nil, fmt.Errorf("load component registry: %w", err)
		}
		logger.Info("component registry loaded", zap.String("path", path), zap.Int("components", len(registry.Components)))
	}

	return &gatewayStores{
		persist:     persist,
		sources:     sources,
		closeSource: closeSource,
		registry:    registry,
	}, nil
}

package container

import (
	"fmt"
	"net/http"

	"go-field-delineator/internal/config"
	"go-field-delineator/internal/engine"
	"go-field-delineator/internal/logger"
	"go-field-delineator/internal/service"
	"go-field-delineator/internal/storage"
	"go-field-delineator/internal/transport"
	"go-field-delineator/internal/workspace"
)

// Container holds all application dependencies
type Container struct {
	config     *config.Config
	workspaces *workspace.Manager
	delineator engine.Delineator
	archiver   storage.ResultArchiver
	service    service.DelineationService
	handler    http.Handler
}

// NewContainer creates a new dependency injection container. The engine is
// process-wide state: resolved once here and shared read-only across
// requests, never re-initialized per request.
func NewContainer() (*Container, error) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	delineator := engine.NewCommandDelineator(cfg.EngineBinary)
	if err := delineator.Available(); err != nil {
		// Startup-class condition: requests will fail until the binary is
		// remediated, there is nothing to retry per request.
		logger.WithError(err).Warn("Delineation engine unavailable at startup")
	}

	var archiver storage.ResultArchiver = storage.NoopArchiver{}
	if cfg.ArchiveEnabled() {
		archiver, err = storage.NewAzureArchiver(cfg.ArchiveAccount, cfg.ArchiveKey, cfg.ArchiveContainer)
		if err != nil {
			return nil, fmt.Errorf("failed to configure result archiver: %w", err)
		}
	}

	workspaces := workspace.NewManager(cfg.WorkspaceRoot)
	builder := engine.NewBuilder(cfg.LocalModelLarge, cfg.LocalModelSmall)
	svc := service.NewDelineationService(workspaces, builder, delineator, archiver)
	handler := transport.NewHandler(svc, cfg)

	return &Container{
		config:     cfg,
		workspaces: workspaces,
		delineator: delineator,
		archiver:   archiver,
		service:    svc,
		handler:    handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/vk/rendergraph/internal/config"
	"github.com/vk/rendergraph/internal/ctxlog"
	"github.com/vk/rendergraph/internal/device"
	"github.com/vk/rendergraph/internal/executor"
	"github.com/vk/rendergraph/internal/graph"
	"github.com/vk/rendergraph/internal/registry"
	"github.com/vk/rendergraph/internal/scheduler"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	ctx        context.Context
	outW       io.Writer
	logger     *slog.Logger
	config     *Config
	registry   *registry.Registry
	store      *config.Store
	graph      *graph.Graph
	scheduler  *scheduler.Scheduler
	device     *device.Recorder
	executor   *executor.FrameExecutor
	httpServer *http.Server
	lastDigest uint64
}

// NewApp is the constructor for the main application. It loads the graph
// definition and settings and assembles a finalized graph. The App gets its
// own isolated logger and registry.
func NewApp(outW io.Writer, appConfig *Config, loader config.Loader, modules ...registry.Module) (*App, error) {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	def, err := loader.Load(ctx, appConfig.GraphPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load graph definition: %w", err)
	}
	logger.Debug("Graph definition loaded.", "nodes", len(def.Nodes), "connections", len(def.Connections), "properties", len(def.Properties))

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All pass modules registered.", "count", len(modules), "types", reg.Types())

	a := &App{
		ctx:      ctx,
		outW:     outW,
		logger:   logger,
		config:   appConfig,
		registry: reg,
		store:    config.NewStore(),
		graph:    graph.New(),
		device:   device.NewRecorder(logger),
	}
	if err := a.assemble(ctx, def); err != nil {
		a.graph.Teardown(ctx)
		return nil, err
	}

	policy := scheduler.PolicyFail
	if appConfig.SkipDependents {
		policy = scheduler.PolicySkipDependents
	}
	a.scheduler = scheduler.New(a.graph, scheduler.WithPolicy(policy))
	a.executor = executor.New(a.device)
	logger.Debug("Scheduler created.", "policy", policy.String())

	return a, nil
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry { return a.registry }

// Store returns the configuration store driving node conditions.
func (a *App) Store() *config.Store { return a.store }

// Graph returns the assembled render graph.
func (a *App) Graph() *graph.Graph { return a.graph }

// Scheduler returns the task list scheduler.
func (a *App) Scheduler() *scheduler.Scheduler { return a.scheduler }

// Device returns the recording device frames are rendered to.
func (a *App) Device() *device.Recorder { return a.device }

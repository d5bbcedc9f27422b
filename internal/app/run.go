package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vk/rendergraph/internal/config"
	"github.com/vk/rendergraph/internal/ctxlog"
	"github.com/vk/rendergraph/internal/remoteconfig"
	"github.com/vk/rendergraph/internal/renderloop"
	"github.com/zclconf/go-cty/cty"
)

// Run executes the main application logic: it prints the plan or renders
// frames until the frame budget is spent or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.ctx = ctx
	a.logger.Debug("App.Run method started.")
	defer a.graph.Teardown(ctx)

	if a.config.Plan {
		list, err := a.scheduler.TaskList(ctx)
		if list == nil {
			return fmt.Errorf("no task list to print: %w", err)
		}
		PrintPlan(a.outW, list)
		return err
	}

	a.healthCheckServer()
	defer a.closeHealthCheckServer()

	loopCtx, stopLoop := context.WithCancel(ctx)
	loop := renderloop.New(64)
	loopDone := make(chan error, 1)
	go func() { loopDone <- loop.Run(loopCtx) }()
	defer func() {
		stopLoop()
		<-loopDone
	}()

	if a.config.Watch {
		w, err := config.NewWatcher(ctx, a.config.SettingsPath, func(values map[string]cty.Value) {
			if err := loop.Post(func(ctx context.Context) error { return a.store.Apply(ctx, values) }); err != nil {
				a.logger.Warn("Dropping settings reload.", "error", err)
			}
		})
		if err != nil {
			return fmt.Errorf("failed to watch settings: %w", err)
		}
		defer w.Close()
	}

	if a.config.RemoteURL != "" {
		client, err := remoteconfig.Connect(ctx, remoteconfig.Options{
			URL:                a.config.RemoteURL,
			Namespace:          a.config.RemoteNamespace,
			InsecureSkipVerify: a.config.InsecureSkipVerify,
		}, a.store, loop)
		if err != nil {
			return fmt.Errorf("failed to connect remote configuration: %w", err)
		}
		defer client.Close()
	}

	a.logger.Info("🚀 Starting render loop...", "nodes", a.graph.Len(), "frames", a.config.Frames)
	err := a.renderFrames(ctx, loop)
	a.logger.Info("🏁 Rendering finished.", "frames", a.executor.Frames())
	if errors.Is(err, context.Canceled) || (errors.Is(err, renderloop.ErrStopped) && ctx.Err() != nil) {
		return nil
	}
	return err
}

func (a *App) renderFrames(ctx context.Context, loop *renderloop.Loop) error {
	var tick <-chan time.Time
	if a.config.FrameInterval > 0 {
		ticker := time.NewTicker(a.config.FrameInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for i := 0; a.config.Frames == 0 || i < a.config.Frames; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := loop.Do(ctx, a.renderFrame); err != nil {
			return err
		}
		if tick == nil {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick:
		}
	}
	return nil
}

// renderFrame runs on the render loop. A failed rebuild keeps rendering the
// previous task list; only a graph that never produced one stops the app.
func (a *App) renderFrame(ctx context.Context) error {
	list, err := a.scheduler.TaskList(ctx)
	if list == nil {
		return fmt.Errorf("no task list to render: %w", err)
	}
	if err != nil {
		a.logger.Warn("Rendering previous task list.", "error", err)
	}
	if d := list.Digest(); d != a.lastDigest {
		a.logger.Info("Task list changed.", "generation", list.Generation, "nodes", list.NodeIDs())
		a.lastDigest = d
	}
	return a.executor.RunFrame(ctx, list)
}

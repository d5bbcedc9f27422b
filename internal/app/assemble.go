package app

import (
	"context"
	"fmt"

	"github.com/vk/rendergraph/internal/condition"
	"github.com/vk/rendergraph/internal/config"
	"github.com/vk/rendergraph/internal/ctxlog"
	"github.com/vk/rendergraph/internal/nodeid"
	"github.com/vk/rendergraph/internal/registry"
)

// assemble turns a graph definition into a finalized graph. Properties are
// defined first so settings and conditions can see them, then nodes are
// created, connected and finalized.
func (a *App) assemble(ctx context.Context, def *config.GraphDefinition) error {
	logger := ctxlog.FromContext(ctx)

	for _, p := range def.Properties {
		a.store.Define(p.Name, p.Default)
	}
	if a.config.SettingsPath != "" {
		values, err := config.LoadSettings(a.config.SettingsPath)
		if err != nil {
			return fmt.Errorf("failed to load settings: %w", err)
		}
		if err := a.store.Apply(ctx, values); err != nil {
			return fmt.Errorf("failed to apply settings from %s: %w", a.config.SettingsPath, err)
		}
		logger.Debug("Settings applied.", "path", a.config.SettingsPath, "count", len(values))
	}

	for _, nd := range def.Nodes {
		if err := a.createNode(ctx, nd); err != nil {
			return err
		}
	}

	for _, cd := range def.Connections {
		from, err := nodeid.Parse(cd.From)
		if err != nil {
			return fmt.Errorf("%s: invalid connection source: %w", cd.DeclRange, err)
		}
		to, err := nodeid.Parse(cd.To)
		if err != nil {
			return fmt.Errorf("%s: invalid connection target: %w", cd.DeclRange, err)
		}
		if err := a.graph.Connect(ctx, from, cd.FromSlot, to, cd.ToSlot); err != nil {
			return fmt.Errorf("%s: %w", cd.DeclRange, err)
		}
	}

	if err := a.graph.Finalize(ctx); err != nil {
		return fmt.Errorf("failed to finalize render graph: %w", err)
	}
	logger.Info("Render graph assembled.", "nodes", a.graph.Len(), "connections", len(def.Connections))
	return nil
}

func (a *App) createNode(ctx context.Context, nd *config.NodeDefinition) error {
	addr, err := nodeid.Parse(nd.ID)
	if err != nil {
		return fmt.Errorf("%s: %w", nd.DeclRange, err)
	}
	n, err := a.registry.Create(ctx, nd.Type, registry.Build{
		Addr:   addr,
		Params: nd.Params,
		Store:  a.store,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", nd.DeclRange, err)
	}
	if nd.Condition != nil {
		n.RequiresStoreCondition(a.store, condition.FromHCL(a.store, nd.Condition, nd.ConditionSource))
	}
	if err := a.graph.AddNode(ctx, n); err != nil {
		n.Dispose()
		return fmt.Errorf("%s: %w", nd.DeclRange, err)
	}
	return nil
}

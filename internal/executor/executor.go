// Package executor plays task lists. For every step it moves the render
// state to the node's desired state through the device, then lets the node
// render.
package executor

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/vk/rendergraph/internal/ctxlog"
	"github.com/vk/rendergraph/internal/device"
	"github.com/vk/rendergraph/internal/node"
	"github.com/vk/rendergraph/internal/scheduler"
	"github.com/vk/rendergraph/internal/statechange"
)

// Executor renders frames from task lists.
type Executor interface {
	RunFrame(ctx context.Context, list *scheduler.TaskList) error
}

// FrameExecutor is the reference Executor.
type FrameExecutor struct {
	dev    device.Device
	frames atomic.Uint64
}

// New creates an executor issuing work to dev.
func New(dev device.Device) *FrameExecutor {
	return &FrameExecutor{dev: dev}
}

// Frames returns the number of frames rendered so far. It is safe to call
// from any goroutine.
func (e *FrameExecutor) Frames() uint64 { return e.frames.Load() }

// RunFrame renders one frame. A node that fails to render does not stop the
// frame; its error is reported once the frame is complete and the render
// state is back to the default.
func (e *FrameExecutor) RunFrame(ctx context.Context, list *scheduler.TaskList) error {
	logger := ctxlog.FromContext(ctx)
	if list == nil {
		return errors.New("no task list to render")
	}
	index := e.frames.Add(1) - 1

	var errs []error
	for _, step := range list.Steps {
		if err := e.play(step.Transition); err != nil {
			// The device state is unknown from here on.
			return fmt.Errorf("frame %d: node %s: failed to change render state: %w", index, step.Node.ID(), err)
		}

		start := time.Now()
		err := step.Node.Pass().Process(ctx, &node.Frame{
			Index:   index,
			Node:    step.Node,
			Device:  e.dev,
			Inputs:  step.Inputs,
			Outputs: step.Outputs,
		})
		logger.Debug("Node rendered.", "activity", "rendering/"+step.Node.ID(), "frame", index, "elapsed", time.Since(start))
		if err != nil {
			errs = append(errs, fmt.Errorf("node %s: %w", step.Node.ID(), err))
		}
	}

	if err := e.play(list.Tail); err != nil {
		return fmt.Errorf("frame %d: failed to restore default render state: %w", index, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("frame %d: %w", index, errors.Join(errs...))
	}
	return nil
}

func (e *FrameExecutor) play(t statechange.Transition) error {
	for _, sc := range t.Revert {
		if err := e.dev.Revert(sc); err != nil {
			return err
		}
	}
	for _, sc := range t.Apply {
		if err := e.dev.Apply(sc); err != nil {
			return err
		}
	}
	return nil
}

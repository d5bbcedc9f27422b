package app

import (
	"errors"
	"fmt"
	"time"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	GraphPath    string // hcl files
	SettingsPath string // .properties, .toml or .yaml

	LogFormat       string
	LogLevel        string
	HealthcheckPort int

	// Frames is the number of frames to render. 0 renders until the context
	// is cancelled.
	Frames        int
	FrameInterval time.Duration
	// Plan prints the task list instead of rendering.
	Plan bool
	// SkipDependents drops consumers of inactive producers instead of
	// failing the rebuild.
	SkipDependents bool
	// Watch reloads SettingsPath when it changes.
	Watch bool

	RemoteURL          string
	RemoteNamespace    string
	InsecureSkipVerify bool
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.GraphPath == "" {
		return nil, errors.New("GraphPath is a required configuration field and cannot be empty")
	}
	if cfg.Frames < 0 {
		return nil, fmt.Errorf("frames must not be negative, got %d", cfg.Frames)
	}
	if cfg.FrameInterval < 0 {
		return nil, fmt.Errorf("frame interval must not be negative, got %s", cfg.FrameInterval)
	}
	if cfg.Watch && cfg.SettingsPath == "" {
		return nil, errors.New("watching settings requires a settings path")
	}
	return &cfg, nil
}

package cli

import (
	"context"
	"fmt"

	"github.com/focusmcp/focusmcp/engine/automation"
	"github.com/focusmcp/focusmcp/engine/batch"
	"github.com/focusmcp/focusmcp/engine/omnifocus"
	"github.com/focusmcp/focusmcp/pkg/config"
	"github.com/focusmcp/focusmcp/pkg/logger"
)

// app bundles the services every command builds from configuration.
type app struct {
	config    *config.Config
	omnifocus *omnifocus.Service
	batch     *batch.Engine
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	return newAppWithExecutor(ctx, cfg, nil)
}

// newAppWithExecutor lets tests replace the script runner.
func newAppWithExecutor(ctx context.Context, cfg *config.Config, exec automation.Executor) (*app, error) {
	if cfg == nil {
		cfg = config.FromContext(ctx)
	}
	if exec == nil {
		runner, err := automation.NewScriptRunner(
			automation.WithCommand(cfg.Automation.Command),
			automation.WithTimeout(cfg.Automation.Timeout),
			automation.WithMaxOutputBytes(int64(cfg.Automation.MaxOutputBytes)),
			automation.WithRetries(uint64(cfg.Automation.MaxRetries), cfg.Automation.RetryBase),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create script runner: %w", err)
		}
		exec = runner
	}
	svc, err := omnifocus.NewService(exec)
	if err != nil {
		return nil, fmt.Errorf("failed to create OmniFocus service: %w", err)
	}
	engine, err := batch.NewEngine(svc,
		batch.WithItemTimeout(cfg.Batch.ItemTimeout),
		batch.WithMaxItems(cfg.Batch.MaxItems),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create batch engine: %w", err)
	}
	logger.FromContext(ctx).Debug("Services ready",
		"automation_command", cfg.Automation.Command,
		"item_timeout", cfg.Batch.ItemTimeout,
		"max_items", cfg.Batch.MaxItems,
	)
	return &app{config: cfg, omnifocus: svc, batch: engine}, nil
}

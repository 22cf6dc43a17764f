package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/focusmcp/focusmcp/engine/infra/monitoring"
	"github.com/focusmcp/focusmcp/pkg/config"
	"github.com/focusmcp/focusmcp/pkg/logger"
	"github.com/focusmcp/focusmcp/pkg/mcpserver"
	"github.com/focusmcp/focusmcp/pkg/version"
)

func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the OmniFocus MCP server on the configured transport.
The stdio transport is what desktop MCP clients launch; the http transport
serves the streamable HTTP endpoint plus /healthz and optional metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
	cmd.Flags().String("path", "/mcp", "Streamable HTTP endpoint path")
	cmd.Flags().Int("rate-limit", 300, "HTTP MCP requests per client per minute (0 disables it)")
	cmd.Flags().Bool("metrics", false, "Expose Prometheus metrics on the HTTP transport")
	cmd.Flags().Duration("item-timeout", 0, "Per-item timeout for batch_create_items (0 disables it)")
	cmd.Flags().Int("max-items", 500, "Maximum items per batch")
	return cmd
}

func runServe(ctx context.Context) error {
	log := logger.FromContext(ctx)
	manager := config.ManagerFromContext(ctx)
	cfg := manager.Get()
	manager.OnChange(func(next *config.Config) {
		log.Warn("Configuration file changed; restart focusmcp to apply it",
			"transport", next.Server.Transport,
			"log_level", next.Runtime.LogLevel,
		)
	})
	monitoringService, err := setupMonitoring(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := monitoringService.Shutdown(context.WithoutCancel(ctx)); err != nil {
			log.Error("Failed to shut down monitoring", "error", err)
		}
	}()
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	srv, err := mcpserver.NewServer(ctx, serverConfig(cfg), a.omnifocus,
		mcpserver.WithBatch(a.batch),
		mcpserver.WithMonitoring(monitoringService),
	)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	return srv.Run(ctx)
}

func setupMonitoring(ctx context.Context, cfg *config.Config) (*monitoring.Service, error) {
	svc, err := monitoring.NewService(ctx, &monitoring.Config{
		Enabled: cfg.Monitoring.Enabled && cfg.Server.Transport == mcpserver.TransportHTTP,
		Path:    cfg.Monitoring.Path,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize monitoring: %w", err)
	}
	if svc.IsInitialized() {
		svc.SetAsGlobal()
	}
	return svc, nil
}

func serverConfig(cfg *config.Config) *mcpserver.Config {
	return &mcpserver.Config{
		Name:            cfg.Server.Name,
		Version:         version.Version,
		Transport:       cfg.Server.Transport,
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		Path:            cfg.Server.Path,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		RateLimit:       cfg.Server.RateLimit,
	}
}

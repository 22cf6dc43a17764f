package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/focusmcp/focusmcp/pkg/config"
	"github.com/focusmcp/focusmcp/pkg/logger"
	"github.com/focusmcp/focusmcp/pkg/version"
)

func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "focusmcp",
		Short:         "MCP server for OmniFocus",
		Version:       version.Get().String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return SetupGlobalConfig(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return config.ManagerFromContext(cmd.Context()).Close(context.WithoutCancel(cmd.Context()))
		},
	}
	addGlobalFlags(root)
	root.AddCommand(
		ServeCmd(),
		BatchCmd(),
		DoctorCmd(),
		ConfigCmd(),
		SchemasCmd(),
		VersionCmd(),
	)
	return root
}

func addGlobalFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.String("config", "focusmcp.yaml", "Path to configuration file")
	flags.String("env-file", ".env", "Path to environment file")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.Bool("log-json", false, "Emit logs as JSON")
	flags.Bool("log-source", false, "Include source locations in logs")
	flags.Bool("debug", false, "Shorthand for --log-level=debug")
	flags.String("transport", "stdio", "MCP transport (stdio, http)")
	flags.String("host", "127.0.0.1", "HTTP bind host")
	flags.Int("port", 6060, "HTTP bind port")
	flags.String("environment", "development", "Runtime environment (development, staging, production)")
	flags.String("automation-cmd", "osascript -l JavaScript", "Command that executes automation scripts")
	flags.Duration("script-timeout", 0, "Per-script timeout")
	flags.Int("automation-retries", 2, "Retries for transient automation failures")
}

// SetupGlobalConfig loads .env and the layered configuration, then installs
// the logger and the config manager on the command context. --debug wins
// over every other log level source.
func SetupGlobalConfig(cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if _, err := loadEnvFile(cmd); err != nil {
		return err
	}
	configFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return fmt.Errorf("failed to get config flag: %w", err)
	}
	flags := make(map[string]any)
	extractCLIFlags(cmd, flags)
	sources := make([]config.Source, 0, 2)
	if configFile != "" {
		sources = append(sources, config.NewYAMLProvider(configFile))
	}
	sources = append(sources, config.NewCLIProvider(flags))
	manager := config.NewManager(config.NewService())
	cfg, err := manager.Load(ctx, sources...)
	if err != nil {
		return err
	}
	if err := setupLogger(cmd, cfg); err != nil {
		return err
	}
	log := logger.GetDefault()
	if configFile != "" {
		log = log.With("config", configFile)
	}
	ctx = config.ContextWithManager(ctx, manager)
	ctx = logger.ContextWithLogger(ctx, log)
	cmd.SetContext(ctx)
	log.Debug("Configuration loaded",
		"transport", cfg.Server.Transport,
		"environment", cfg.Runtime.Environment,
	)
	return nil
}

func setupLogger(cmd *cobra.Command, cfg *config.Config) error {
	_, _, logSource, err := logger.GetLoggerConfig(cmd)
	if err != nil {
		return err
	}
	logger.SetupLogger(cfg.Runtime.LogLevel, cfg.Runtime.LogJSON, logSource)
	return nil
}

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/storymesh/story-mcp/engine/n8n"
	"github.com/storymesh/story-mcp/engine/tools"
	"github.com/storymesh/story-mcp/pkg/config"
	"github.com/storymesh/story-mcp/pkg/logger"
	"github.com/storymesh/story-mcp/pkg/version"
	"github.com/storymesh/story-mcp/server"
)

const (
	transportStdio = "stdio"
	transportSSE   = "sse"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "story-mcp",
		Short:   "MCP server exposing storytelling media analysis tools",
		Version: version.Get().Version,
		RunE:    runServer,
	}

	root.Flags().String("transport", transportStdio, "MCP transport: stdio or sse")
	root.Flags().String("env-file", "", "Path to a .env file to load before reading configuration")
	root.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")
	root.PersistentFlags().Bool("log-json", false, "Emit logs as JSON")
	root.PersistentFlags().Bool("log-source", false, "Include source locations in logs")

	return root
}

func runServer(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	envFile, err := cmd.Flags().GetString("env-file")
	if err != nil {
		return fmt.Errorf("failed to get env-file flag: %w", err)
	}
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	} else {
		// Best effort: a missing default .env is not an error.
		_ = godotenv.Load()
	}

	logLevel, logJSON, logSource, err := logger.GetLoggerConfig(cmd)
	if err != nil {
		return err
	}
	if err := logger.SetupLogger(logLevel, logJSON, logSource); err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	cfg, err := config.NewService().Load(ctx)
	if err != nil {
		return err
	}

	client := n8n.NewClient(&cfg.Engine, n8n.Graph{
		ExpectedNodeCount: cfg.Workflow.ExpectedNodeCount,
		NodeLabels:        cfg.Workflow.NodeLabels,
	})
	srv := server.New(&cfg.Server, tools.NewService(client))

	transport, err := cmd.Flags().GetString("transport")
	if err != nil {
		return fmt.Errorf("failed to get transport flag: %w", err)
	}
	switch transport {
	case transportStdio:
		return srv.ServeStdio(ctx)
	case transportSSE:
		return srv.Start(ctx)
	default:
		return fmt.Errorf("unknown transport %q: must be %s or %s", transport, transportStdio, transportSSE)
	}
}

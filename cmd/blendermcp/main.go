package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"blendermcp/internal/bridge"
	"blendermcp/internal/config"
	"blendermcp/internal/logging"
	"blendermcp/internal/server"
	"blendermcp/internal/telemetry"
	"blendermcp/internal/watch"
)

var (
	// Global flags
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command. Running it with no subcommand
// serves MCP over stdio, which is what MCP clients expect to spawn.
var rootCmd = &cobra.Command{
	Use:   "blendermcp",
	Short: "MCP server connecting AI assistants to Blender",
	Long: `blendermcp is an MCP server that lets AI assistants control a running
Blender instance through the BlenderMCP addon.

It relays tool calls over a local TCP socket to the addon: scene
inspection, Python execution with automatic error repair, object and
material control, action sequences, and asset integrations
(PolyHaven, Sketchfab, Hyper3D Rodin, Hunyuan3D).

Run without arguments to serve MCP over stdio.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		// stdout carries JSON-RPC; the logger writes to stderr.
		logger, err = logging.New(cfg.Logging, verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve MCP over stdio (the default command)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll the Blender scene and print a summary on change",
	Long: `Polls get_scene_info on an interval and prints a one-line scene
summary whenever it changes. Useful alongside an editor session to
mirror what the AI is doing to the scene.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		conn := bridge.New(bridge.Config{
			Host:           cfg.Blender.Host,
			Port:           cfg.Blender.Port,
			DialTimeout:    cfg.GetDialTimeout(),
			CommandTimeout: cfg.GetCommandTimeout(),
		}, logger)
		defer conn.Disconnect()

		poller := watch.NewPoller(conn, cfg.GetWatchInterval(), os.Stdout, logger)
		if err := poller.Run(cmd.Context()); err != nil && cmd.Context().Err() == nil {
			return err
		}
		return nil
	},
}

var telemetryCmd = &cobra.Command{
	Use:   "telemetry",
	Short: "Print aggregate usage statistics from the local store",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.Telemetry.Enabled {
			fmt.Println("Telemetry is disabled.")
			return nil
		}
		rec, err := telemetry.Open(cfg.Telemetry.DatabasePath, logger)
		if err != nil {
			return fmt.Errorf("failed to open telemetry store: %w", err)
		}
		defer rec.Close()

		sum, err := rec.Summarize(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("Install ID: %s\n", rec.InstallID())
		fmt.Printf("Startups:   %d\n\n", sum.Startups)
		if len(sum.Tools) == 0 {
			fmt.Println("No tool calls recorded.")
			return nil
		}
		fmt.Println("Tool calls:")
		for _, t := range sum.Tools {
			fmt.Printf("  %-35s %6d calls  %4d failed  avg %.0fms\n",
				t.Tool, t.Calls, t.Failures, t.AvgLatencyMS)
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("blendermcp %s\n", server.Version)
	},
}

func runServe(ctx context.Context) error {
	srv, err := server.New(cfg, logger, server.WithConfigPath(configPath))
	if err != nil {
		return err
	}
	logger.Info("starting MCP server",
		zap.String("version", server.Version),
		zap.String("blender_addr", fmt.Sprintf("%s:%d", cfg.Blender.Host, cfg.Blender.Port)))
	return srv.Run(ctx)
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath(), "path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd, watchCmd, telemetryCmd, versionCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

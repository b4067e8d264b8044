// Package server wires the bridge, repair pipeline, telemetry, and
// tool surface into one MCP server speaking JSON-RPC over stdio.
package server

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"blendermcp/internal/bridge"
	"blendermcp/internal/config"
	"blendermcp/internal/heal"
	"blendermcp/internal/llm"
	"blendermcp/internal/telemetry"
	"blendermcp/internal/tools"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

const instructions = `This server exposes tools for controlling a running Blender instance
through the BlenderMCP addon: scene inspection, Python code execution
with automatic error repair, object/material/modifier/animation
control, action sequences, and asset integrations (PolyHaven,
Sketchfab, Hyper3D Rodin, Hunyuan3D). Follow the asset_creation_strategy
prompt when creating 3D content.`

// Server owns the long-lived pieces of a serve session.
type Server struct {
	cfg  *config.Config
	log  *zap.Logger
	conn *bridge.Conn
	rec  *telemetry.Recorder
	set  *tools.Set
	mcp  *mcp.Server

	configPath string
}

// Option adjusts server construction.
type Option func(*Server)

// WithConfigPath enables hot reload of the given config file while the
// server runs.
func WithConfigPath(path string) Option {
	return func(s *Server) { s.configPath = path }
}

// New builds a fully wired server from config. Telemetry open failures
// are non-fatal; the session just runs without recording.
func New(cfg *config.Config, log *zap.Logger, opts ...Option) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}

	conn := bridge.New(bridge.Config{
		Host:           cfg.Blender.Host,
		Port:           cfg.Blender.Port,
		DialTimeout:    cfg.GetDialTimeout(),
		CommandTimeout: cfg.GetCommandTimeout(),
	}, log)

	var rec *telemetry.Recorder
	if cfg.Telemetry.Enabled {
		var err error
		rec, err = telemetry.Open(cfg.Telemetry.DatabasePath, log)
		if err != nil {
			log.Warn("telemetry disabled", zap.Error(err))
			rec = nil
		}
	}

	set := tools.NewSet(conn, buildHealer(cfg, log), rec, log)

	srv := mcp.NewServer(&mcp.Implementation{
		Name:    "BlenderMCP",
		Version: Version,
	}, &mcp.ServerOptions{
		Instructions: instructions,
	})
	set.Register(srv)

	s := &Server{
		cfg:  cfg,
		log:  log,
		conn: conn,
		rec:  rec,
		set:  set,
		mcp:  srv,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// buildHealer returns nil when repair is disabled or no API key is
// configured; execute_blender_code then reports raw errors.
func buildHealer(cfg *config.Config, log *zap.Logger) *heal.Healer {
	if !cfg.Heal.Enabled {
		return nil
	}
	client := llm.NewGeminiClient(cfg.LLM, cfg.GetLLMTimeout(), log)
	if !client.Configured() {
		log.Info("code repair disabled, no LLM API key configured")
		return nil
	}
	log.Info("code repair enabled",
		zap.String("model", client.Model()),
		zap.Int("max_repairs", cfg.Heal.MaxRepairs))
	return heal.New(client, cfg.Heal.MaxRepairs, log)
}

// Run serves MCP over stdio until ctx is canceled or the client
// disconnects. The Blender connection is attempted eagerly but a
// failure is not fatal: tools reconnect lazily.
func (s *Server) Run(ctx context.Context) error {
	if err := s.conn.Connect(ctx); err != nil {
		s.log.Warn("could not connect to Blender, make sure the BlenderMCP addon is running",
			zap.String("addr", s.conn.Addr()), zap.Error(err))
	}
	s.rec.RecordStartup(ctx)
	defer s.shutdown()

	g, ctx := errgroup.WithContext(ctx)

	if s.configPath != "" {
		watcher, err := config.NewWatcher(s.configPath, s.log, s.applyConfig)
		if err != nil {
			s.log.Warn("config watch unavailable", zap.Error(err))
		} else {
			if err := watcher.Start(ctx); err != nil {
				s.log.Warn("config watch failed to start", zap.Error(err))
			} else {
				defer watcher.Stop()
			}
		}
	}

	g.Go(func() error {
		return s.mcp.Run(ctx, &mcp.StdioTransport{})
	})
	return g.Wait()
}

// applyConfig applies the runtime-reloadable subset of a freshly
// loaded config: the repair pipeline. Socket and telemetry settings
// need a restart.
func (s *Server) applyConfig(cfg *config.Config) {
	s.set.SetHealer(buildHealer(cfg, s.log))
}

func (s *Server) shutdown() {
	s.conn.Disconnect()
	if err := s.rec.Close(); err != nil {
		s.log.Warn("closing telemetry store", zap.Error(err))
	}
}

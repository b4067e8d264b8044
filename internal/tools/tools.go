// Package tools exposes the Blender command surface as MCP tools. Each
// tool relays to the addon over the bridge and formats results the way
// an AI client expects: human-readable text, never an RPC failure for a
// domain error.
package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"blendermcp/internal/bridge"
	"blendermcp/internal/heal"
	"blendermcp/internal/telemetry"
)

// Sender is the bridge surface the tools consume.
type Sender interface {
	Send(ctx context.Context, commandType string, params any) (*bridge.Response, error)
	Connected() bool
	Probe(ctx context.Context) error
	PolyHavenEnabled() bool
}

// Set holds the shared dependencies of every tool handler.
type Set struct {
	conn Sender
	rec  *telemetry.Recorder
	log  *zap.Logger

	// healer is swappable at runtime by config reload.
	mu     sync.RWMutex
	healer *heal.Healer
}

// NewSet creates the tool set. healer may be nil (no self-repair) and
// rec may be nil (telemetry disabled).
func NewSet(conn Sender, healer *heal.Healer, rec *telemetry.Recorder, log *zap.Logger) *Set {
	if log == nil {
		log = zap.NewNop()
	}
	return &Set{conn: conn, healer: healer, rec: rec, log: log}
}

// SetHealer replaces the self-repair pipeline. A nil healer disables
// repair for subsequent calls.
func (s *Set) SetHealer(h *heal.Healer) {
	s.mu.Lock()
	s.healer = h
	s.mu.Unlock()
}

func (s *Set) currentHealer() *heal.Healer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.healer
}

// Register adds every tool and the asset strategy prompt to the server.
func (s *Set) Register(server *mcp.Server) {
	s.registerScene(server)
	s.registerCode(server)
	s.registerPolyHaven(server)
	s.registerSketchfab(server)
	s.registerHyper3D(server)
	s.registerHunyuan(server)
	s.registerControl(server)
	s.registerSequence(server)
	s.registerPrompts(server)
}

// addTool registers one text-returning tool. The wrapper validates the
// shared connection before reuse, records telemetry, and folds handler
// errors into Error text instead of failing the RPC.
func addTool[In any](s *Set, server *mcp.Server, name, description, errPrefix string, fn func(ctx context.Context, in In) (string, error)) {
	handler := func(ctx context.Context, req *mcp.CallToolRequest, in In) (*mcp.CallToolResult, any, error) {
		start := time.Now()

		s.probeConnection(ctx)

		text, err := fn(ctx, in)
		if err != nil {
			s.log.Error("tool failed", zap.String("tool", name), zap.Error(err))
			text = fmt.Sprintf("%s: %v", errPrefix, err)
		}

		ok := err == nil && !strings.HasPrefix(text, "Error")
		s.rec.RecordTool(ctx, name, ok, time.Since(start))

		return textResult(text), nil, nil
	}
	mcp.AddTool(server, &mcp.Tool{Name: name, Description: description}, handler)
}

// probeConnection revalidates an existing connection before reuse and
// refreshes the cached PolyHaven status. A dead socket is torn down
// here; the next Send reconnects.
func (s *Set) probeConnection(ctx context.Context) {
	if !s.conn.Connected() {
		return
	}
	if err := s.conn.Probe(ctx); err != nil {
		s.log.Warn("existing connection is no longer valid", zap.Error(err))
	}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// relay sends a command and formats the response like most control
// tools do: Error text on error status, pretty-printed result
// otherwise.
func (s *Set) relay(ctx context.Context, commandType string, params any) (string, error) {
	resp, err := s.conn.Send(ctx, commandType, params)
	if err != nil {
		return "", err
	}
	if resp.Err() != nil {
		return fmt.Sprintf("Error: %s", respMessage(resp)), nil
	}
	return prettyResult(resp), nil
}

func respMessage(resp *bridge.Response) string {
	if resp.Message != "" {
		return resp.Message
	}
	return "Unknown error"
}

// prettyResult renders the result payload, falling back to the whole
// response when the addon returned no result field.
func prettyResult(resp *bridge.Response) string {
	if len(resp.Result) > 0 && string(resp.Result) != "null" {
		return prettyJSON(resp.Result)
	}
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return string(resp.Result)
	}
	return string(data)
}

func prettyJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}

// resultMap decodes the result payload into a map, surfacing an
// addon-reported error key as a Go error.
func resultMap(resp *bridge.Response) (map[string]any, error) {
	if err := resp.Err(); err != nil {
		return nil, err
	}
	m, err := resp.ResultMap()
	if err != nil {
		return nil, err
	}
	if errMsg, ok := m["error"]; ok {
		return nil, fmt.Errorf("%v", errMsg)
	}
	return m, nil
}

func getString(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func getBool(m map[string]any, key string) bool {
	v, ok := m[key].(bool)
	return ok && v
}

func getFloat(m map[string]any, key string) float64 {
	if v, ok := m[key].(float64); ok {
		return v
	}
	return 0
}

func getStrings(m map[string]any, key string) []string {
	raw, ok := m[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

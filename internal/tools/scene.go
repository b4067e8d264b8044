package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

type emptyArgs struct{}

type objectInfoArgs struct {
	ObjectName string `json:"object_name" jsonschema:"the name of the object to get information about"`
}

type screenshotArgs struct {
	MaxSize int `json:"max_size,omitempty" jsonschema:"maximum size in pixels for the largest dimension (default 800)"`
}

type nodeTreeArgs struct {
	MaterialName string `json:"material_name,omitempty" jsonschema:"name of the material (uses active material if not specified)"`
	TreeType     string `json:"tree_type,omitempty" jsonschema:"type of node tree (shader, geometry, compositor)"`
}

type modifierStackArgs struct {
	ObjectName string `json:"object_name,omitempty" jsonschema:"name of the object (uses active object if not specified)"`
}

func (s *Set) registerScene(server *mcp.Server) {
	addTool(s, server, "get_scene_info",
		"Get detailed information about the current Blender scene",
		"Error getting scene info",
		func(ctx context.Context, _ emptyArgs) (string, error) {
			resp, err := s.conn.Send(ctx, "get_scene_info", nil)
			if err != nil {
				return "", err
			}
			if resp.Err() != nil {
				return fmt.Sprintf("Error getting scene info: %s", respMessage(resp)), nil
			}
			return prettyResult(resp), nil
		})

	addTool(s, server, "get_object_info",
		"Get detailed information about a specific object in the Blender scene.",
		"Error getting object info",
		func(ctx context.Context, in objectInfoArgs) (string, error) {
			resp, err := s.conn.Send(ctx, "get_object_info", map[string]any{"name": in.ObjectName})
			if err != nil {
				return "", err
			}
			if resp.Err() != nil {
				return fmt.Sprintf("Error getting object info: %s", respMessage(resp)), nil
			}
			return prettyResult(resp), nil
		})

	addTool(s, server, "get_full_context",
		"Get complete Blender context including active editor, viewport state, node editor state, selection, scene settings, objects, materials, and modifiers. Essential for understanding current Blender state.",
		"Error getting full context",
		func(ctx context.Context, _ emptyArgs) (string, error) {
			return s.relay(ctx, "get_full_context", nil)
		})

	addTool(s, server, "get_node_tree",
		"Get detailed node tree structure from a material or geometry nodes.",
		"Error getting node tree",
		func(ctx context.Context, in nodeTreeArgs) (string, error) {
			if in.TreeType == "" {
				in.TreeType = "shader"
			}
			return s.relay(ctx, "get_node_tree", map[string]any{
				"material_name": orNil(in.MaterialName),
				"tree_type":     in.TreeType,
			})
		})

	addTool(s, server, "get_modifier_stack",
		"Get the complete modifier stack for an object with all settings.",
		"Error getting modifier stack",
		func(ctx context.Context, in modifierStackArgs) (string, error) {
			return s.relay(ctx, "get_modifier_stack", map[string]any{
				"object_name": orNil(in.ObjectName),
			})
		})

	addTool(s, server, "get_viewport_state",
		"Get current viewport settings including shading mode, overlays, camera view, and 3D cursor position.",
		"Error getting viewport state",
		func(ctx context.Context, _ emptyArgs) (string, error) {
			return s.relay(ctx, "get_viewport_state", nil)
		})

	// Screenshot is the one tool that does fail the RPC on error: there
	// is no sensible text fallback for missing image content.
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_viewport_screenshot",
		Description: "Capture a screenshot of the current Blender 3D viewport. Returns the screenshot as an image.",
	}, s.viewportScreenshot)
}

func (s *Set) viewportScreenshot(ctx context.Context, req *mcp.CallToolRequest, in screenshotArgs) (*mcp.CallToolResult, any, error) {
	start := time.Now()
	s.probeConnection(ctx)

	data, err := s.captureScreenshot(ctx, in.MaxSize)
	s.rec.RecordTool(ctx, "get_viewport_screenshot", err == nil, time.Since(start))
	if err != nil {
		s.log.Error("screenshot failed", zap.Error(err))
		return nil, nil, fmt.Errorf("Screenshot failed: %w", err)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.ImageContent{Data: data, MIMEType: "image/png"}},
	}, nil, nil
}

func (s *Set) captureScreenshot(ctx context.Context, maxSize int) ([]byte, error) {
	if maxSize <= 0 {
		maxSize = 800
	}

	// The addon writes the capture to a file; round-trip through temp.
	tempPath := filepath.Join(os.TempDir(), fmt.Sprintf("blender_screenshot_%d.png", os.Getpid()))

	resp, err := s.conn.Send(ctx, "get_viewport_screenshot", map[string]any{
		"max_size": maxSize,
		"filepath": tempPath,
		"format":   "png",
	})
	if err != nil {
		return nil, err
	}
	if _, err := resultMap(resp); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(tempPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("screenshot file was not created")
		}
		return nil, err
	}
	os.Remove(tempPath)
	return data, nil
}

// orNil keeps optional string params as JSON null when unset, matching
// what the addon expects.
func orNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}

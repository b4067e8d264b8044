package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type sketchfabSearchArgs struct {
	Query        string `json:"query" jsonschema:"text to search for"`
	Categories   string `json:"categories,omitempty" jsonschema:"optional comma-separated list of categories"`
	Count        int    `json:"count,omitempty" jsonschema:"maximum number of results to return (default 20)"`
	Downloadable *bool  `json:"downloadable,omitempty" jsonschema:"whether to include only downloadable models (default true)"`
}

type sketchfabDownloadArgs struct {
	UID string `json:"uid" jsonschema:"the unique identifier of the Sketchfab model"`
}

func (s *Set) registerSketchfab(server *mcp.Server) {
	addTool(s, server, "get_sketchfab_status",
		"Check if Sketchfab integration is enabled in Blender. Returns a message indicating whether Sketchfab features are available.",
		"Error checking Sketchfab status",
		func(ctx context.Context, _ emptyArgs) (string, error) {
			resp, err := s.conn.Send(ctx, "get_sketchfab_status", nil)
			if err != nil {
				return "", err
			}
			m, err := resultMap(resp)
			if err != nil {
				return "", err
			}
			message := getString(m, "message")
			if getBool(m, "enabled") {
				message += "Sketchfab is good at Realistic models, and has a wider variety of models than PolyHaven."
			}
			return message, nil
		})

	addTool(s, server, "search_sketchfab_models",
		"Search for models on Sketchfab with optional filtering. Returns a formatted list of matching models.",
		"Error searching Sketchfab models",
		s.sketchfabSearch)

	addTool(s, server, "download_sketchfab_model",
		"Download and import a Sketchfab model by its UID. The model must be downloadable and you must have proper access rights.",
		"Error downloading Sketchfab model",
		s.sketchfabDownload)
}

func (s *Set) sketchfabSearch(ctx context.Context, in sketchfabSearchArgs) (string, error) {
	if in.Count <= 0 {
		in.Count = 20
	}
	downloadable := true
	if in.Downloadable != nil {
		downloadable = *in.Downloadable
	}

	resp, err := s.conn.Send(ctx, "search_sketchfab_models", map[string]any{
		"query":        in.Query,
		"categories":   orNil(in.Categories),
		"count":        in.Count,
		"downloadable": downloadable,
	})
	if err != nil {
		return "", err
	}
	m, err := resultMap(resp)
	if err != nil {
		return fmt.Sprintf("Error: %v", err), nil
	}

	models, _ := m["results"].([]any)
	if len(models) == 0 {
		return fmt.Sprintf("No models found matching '%s'", in.Query), nil
	}
	return formatSketchfabModels(in.Query, models), nil
}

// formatSketchfabModels is defensive about every field: the Sketchfab
// API returns null users and licenses often enough to matter.
func formatSketchfabModels(query string, models []any) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d models matching '%s':\n\n", len(models), query)

	for _, raw := range models {
		model, ok := raw.(map[string]any)
		if !ok || model == nil {
			continue
		}

		name := getString(model, "name")
		if name == "" {
			name = "Unnamed model"
		}
		uid := getString(model, "uid")
		if uid == "" {
			uid = "Unknown ID"
		}
		fmt.Fprintf(&b, "- %s (UID: %s)\n", name, uid)

		username := "Unknown author"
		if user, ok := model["user"].(map[string]any); ok {
			if u := getString(user, "username"); u != "" {
				username = u
			}
		}
		fmt.Fprintf(&b, "  Author: %s\n", username)

		licenseLabel := "Unknown"
		if license, ok := model["license"].(map[string]any); ok {
			if l := getString(license, "label"); l != "" {
				licenseLabel = l
			}
		}
		fmt.Fprintf(&b, "  License: %s\n", licenseLabel)

		faceCount := "Unknown"
		if v, ok := model["faceCount"].(float64); ok {
			faceCount = fmt.Sprintf("%d", int(v))
		}
		downloadable := "No"
		if getBool(model, "isDownloadable") {
			downloadable = "Yes"
		}
		fmt.Fprintf(&b, "  Face count: %s\n", faceCount)
		fmt.Fprintf(&b, "  Downloadable: %s\n\n", downloadable)
	}
	return b.String()
}

func (s *Set) sketchfabDownload(ctx context.Context, in sketchfabDownloadArgs) (string, error) {
	resp, err := s.conn.Send(ctx, "download_sketchfab_model", map[string]any{"uid": in.UID})
	if err != nil {
		return "", err
	}
	m, err := resultMap(resp)
	if err != nil {
		return fmt.Sprintf("Error: %v", err), nil
	}

	if !getBool(m, "success") {
		msg := getString(m, "message")
		if msg == "" {
			msg = "Unknown error"
		}
		return fmt.Sprintf("Failed to download model: %s", msg), nil
	}

	objectNames := "none"
	if imported := getStrings(m, "imported_objects"); len(imported) > 0 {
		objectNames = strings.Join(imported, ", ")
	}
	return fmt.Sprintf("Successfully imported model. Created objects: %s", objectNames), nil
}

package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var assetTypeNames = []string{"HDRI", "Texture", "Model"}

type polyhavenCategoriesArgs struct {
	AssetType string `json:"asset_type,omitempty" jsonschema:"the type of asset to get categories for (hdris, textures, models, all)"`
}

type polyhavenSearchArgs struct {
	AssetType  string `json:"asset_type,omitempty" jsonschema:"type of assets to search for (hdris, textures, models, all)"`
	Categories string `json:"categories,omitempty" jsonschema:"optional comma-separated list of categories to filter by"`
}

type polyhavenDownloadArgs struct {
	AssetID    string `json:"asset_id" jsonschema:"the ID of the asset to download"`
	AssetType  string `json:"asset_type" jsonschema:"the type of asset (hdris, textures, models)"`
	Resolution string `json:"resolution,omitempty" jsonschema:"the resolution to download (e.g. 1k, 2k, 4k)"`
	FileFormat string `json:"file_format,omitempty" jsonschema:"optional file format (e.g. hdr, exr for HDRIs; jpg, png for textures; gltf, fbx for models)"`
}

type setTextureArgs struct {
	ObjectName string `json:"object_name" jsonschema:"name of the object to apply the texture to"`
	TextureID  string `json:"texture_id" jsonschema:"ID of the PolyHaven texture to apply (must be downloaded first)"`
}

func (s *Set) registerPolyHaven(server *mcp.Server) {
	addTool(s, server, "get_polyhaven_status",
		"Check if PolyHaven integration is enabled in Blender. Returns a message indicating whether PolyHaven features are available.",
		"Error checking PolyHaven status",
		func(ctx context.Context, _ emptyArgs) (string, error) {
			resp, err := s.conn.Send(ctx, "get_polyhaven_status", nil)
			if err != nil {
				return "", err
			}
			m, err := resultMap(resp)
			if err != nil {
				return "", err
			}
			message := getString(m, "message")
			if getBool(m, "enabled") {
				message += "PolyHaven is good at Textures, and has a wider variety of textures than Sketchfab."
			}
			return message, nil
		})

	addTool(s, server, "get_polyhaven_categories",
		"Get a list of categories for a specific asset type on PolyHaven.",
		"Error getting Polyhaven categories",
		s.polyhavenCategories)

	addTool(s, server, "search_polyhaven_assets",
		"Search for assets on PolyHaven with optional filtering. Returns a list of matching assets with basic information.",
		"Error searching Polyhaven assets",
		s.polyhavenSearch)

	addTool(s, server, "download_polyhaven_asset",
		"Download and import a PolyHaven asset into Blender. Returns a message indicating success or failure.",
		"Error downloading Polyhaven asset",
		s.polyhavenDownload)

	addTool(s, server, "set_texture",
		"Apply a previously downloaded PolyHaven texture to an object. Returns a message indicating success or failure.",
		"Error applying texture",
		s.setTexture)
}

func (s *Set) polyhavenCategories(ctx context.Context, in polyhavenCategoriesArgs) (string, error) {
	if !s.conn.PolyHavenEnabled() {
		return "PolyHaven integration is disabled. Select it in the sidebar in BlenderMCP, then run it again.", nil
	}
	if in.AssetType == "" {
		in.AssetType = "hdris"
	}

	resp, err := s.conn.Send(ctx, "get_polyhaven_categories", map[string]any{"asset_type": in.AssetType})
	if err != nil {
		return "", err
	}
	m, err := resultMap(resp)
	if err != nil {
		return fmt.Sprintf("Error: %v", err), nil
	}

	categories, _ := m["categories"].(map[string]any)
	return formatCategories(in.AssetType, categories), nil
}

type categoryCount struct {
	name  string
	count float64
}

func formatCategories(assetType string, categories map[string]any) string {
	sorted := make([]categoryCount, 0, len(categories))
	for name, count := range categories {
		c, _ := count.(float64)
		sorted = append(sorted, categoryCount{name: name, count: c})
	}
	// Descending by count, name as tiebreaker for stable output.
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].count != sorted[j].count {
			return sorted[i].count > sorted[j].count
		}
		return sorted[i].name < sorted[j].name
	})

	var b strings.Builder
	fmt.Fprintf(&b, "Categories for %s:\n\n", assetType)
	for _, c := range sorted {
		fmt.Fprintf(&b, "- %s: %d assets\n", c.name, int(c.count))
	}
	return b.String()
}

func (s *Set) polyhavenSearch(ctx context.Context, in polyhavenSearchArgs) (string, error) {
	if in.AssetType == "" {
		in.AssetType = "all"
	}

	resp, err := s.conn.Send(ctx, "search_polyhaven_assets", map[string]any{
		"asset_type": in.AssetType,
		"categories": orNil(in.Categories),
	})
	if err != nil {
		return "", err
	}
	m, err := resultMap(resp)
	if err != nil {
		return fmt.Sprintf("Error: %v", err), nil
	}

	assets, _ := m["assets"].(map[string]any)
	return formatAssetSearch(assets, int(getFloat(m, "total_count")), int(getFloat(m, "returned_count")), in.Categories), nil
}

type assetEntry struct {
	id   string
	data map[string]any
}

func formatAssetSearch(assets map[string]any, totalCount, returnedCount int, categories string) string {
	sorted := make([]assetEntry, 0, len(assets))
	for id, raw := range assets {
		data, _ := raw.(map[string]any)
		sorted = append(sorted, assetEntry{id: id, data: data})
	}
	// Popularity first.
	sort.Slice(sorted, func(i, j int) bool {
		di, dj := getFloat(sorted[i].data, "download_count"), getFloat(sorted[j].data, "download_count")
		if di != dj {
			return di > dj
		}
		return sorted[i].id < sorted[j].id
	})

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d assets", totalCount)
	if categories != "" {
		fmt.Fprintf(&b, " in categories: %s", categories)
	}
	fmt.Fprintf(&b, "\nShowing %d assets:\n\n", returnedCount)

	for _, a := range sorted {
		name := getString(a.data, "name")
		if name == "" {
			name = a.id
		}
		typeIdx := int(getFloat(a.data, "type"))
		typeName := "Unknown"
		if typeIdx >= 0 && typeIdx < len(assetTypeNames) {
			typeName = assetTypeNames[typeIdx]
		}
		fmt.Fprintf(&b, "- %s (ID: %s)\n", name, a.id)
		fmt.Fprintf(&b, "  Type: %s\n", typeName)
		fmt.Fprintf(&b, "  Categories: %s\n", strings.Join(getStrings(a.data, "categories"), ", "))
		fmt.Fprintf(&b, "  Downloads: %d\n\n", int(getFloat(a.data, "download_count")))
	}
	return b.String()
}

func (s *Set) polyhavenDownload(ctx context.Context, in polyhavenDownloadArgs) (string, error) {
	if in.Resolution == "" {
		in.Resolution = "1k"
	}

	resp, err := s.conn.Send(ctx, "download_polyhaven_asset", map[string]any{
		"asset_id":    in.AssetID,
		"asset_type":  in.AssetType,
		"resolution":  in.Resolution,
		"file_format": orNil(in.FileFormat),
	})
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
		return fmt.Sprintf("Failed to download asset: %s", msg), nil
	}

	message := getString(m, "message")
	if message == "" {
		message = "Asset downloaded and imported successfully"
	}

	switch in.AssetType {
	case "hdris":
		return fmt.Sprintf("%s. The HDRI has been set as the world environment.", message), nil
	case "textures":
		return fmt.Sprintf("%s. Created material '%s' with maps: %s.",
			message, getString(m, "material"), strings.Join(getStrings(m, "maps"), ", ")), nil
	case "models":
		return fmt.Sprintf("%s. The model has been imported into the current scene.", message), nil
	default:
		return message, nil
	}
}

func (s *Set) setTexture(ctx context.Context, in setTextureArgs) (string, error) {
	resp, err := s.conn.Send(ctx, "set_texture", map[string]any{
		"object_name": in.ObjectName,
		"texture_id":  in.TextureID,
	})
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
		return fmt.Sprintf("Failed to apply texture: %s", msg), nil
	}

	materialInfo, _ := m["material_info"].(map[string]any)

	var b strings.Builder
	fmt.Fprintf(&b, "Successfully applied texture '%s' to %s.\n", in.TextureID, in.ObjectName)
	fmt.Fprintf(&b, "Using material '%s' with maps: %s.\n\n",
		getString(m, "material"), strings.Join(getStrings(m, "maps"), ", "))
	fmt.Fprintf(&b, "Material has nodes: %t\n", getBool(materialInfo, "has_nodes"))
	fmt.Fprintf(&b, "Total node count: %d\n\n", int(getFloat(materialInfo, "node_count")))

	textureNodes, _ := materialInfo["texture_nodes"].([]any)
	if len(textureNodes) == 0 {
		b.WriteString("No texture nodes found in the material.\n")
		return b.String(), nil
	}

	b.WriteString("Texture nodes:\n")
	for _, raw := range textureNodes {
		node, _ := raw.(map[string]any)
		fmt.Fprintf(&b, "- %s using image: %s\n", getString(node, "name"), getString(node, "image"))
		if conns := getStrings(node, "connections"); len(conns) > 0 {
			b.WriteString("  Connections:\n")
			for _, conn := range conns {
				fmt.Fprintf(&b, "    %s\n", conn)
			}
		}
	}
	return b.String(), nil
}
